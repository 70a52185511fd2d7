package dialect

import (
	"encoding/json"

	"github.com/coralmesh/llmgateway/llm/perr"
)

// GooglePart is one part of a Google generate-content message.
type GooglePart struct {
	Text string `json:"text"`
}

// GoogleContent is one turn of a Google generate-content conversation.
type GoogleContent struct {
	Parts []GooglePart `json:"parts"`
	Role  string       `json:"role"`
}

// GoogleGenerationConfig mirrors the Google generationConfig object.
type GoogleGenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int64    `json:"maxOutputTokens"`
	CandidateCount   int64    `json:"candidateCount,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	TopK             *int64   `json:"topK,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
}

// GoogleGenerateContentRequest is the normalized Google generate-content
// request.
type GoogleGenerateContentRequest struct {
	Model            string                 `json:"model"`
	Stream           bool                   `json:"stream"`
	Contents         []GoogleContent        `json:"contents"`
	Tools            []json.RawMessage      `json:"tools,omitempty"`
	SafetySettings   []json.RawMessage      `json:"safetySettings,omitempty"`
	GenerationConfig GoogleGenerationConfig `json:"generationConfig"`
}

type googleWire struct {
	Model            string                 `json:"model"`
	Stream           *bool                  `json:"stream"`
	Contents         []GoogleContent        `json:"contents"`
	Tools            []json.RawMessage      `json:"tools"`
	SafetySettings   []json.RawMessage      `json:"safetySettings"`
	GenerationConfig struct {
		Temperature     *float64        `json:"temperature"`
		MaxOutputTokens json.RawMessage `json:"maxOutputTokens"`
		CandidateCount  *int64          `json:"candidateCount"`
		TopP            *float64        `json:"topP"`
		TopK            *int64          `json:"topK"`
		StopSequences   []string        `json:"stopSequences"`
	} `json:"generationConfig"`
}

// ValidateGoogleGenerateContent parses and normalizes a Google
// generate-content request body.
func ValidateGoogleGenerateContent(raw []byte, limits Limits) (*GoogleGenerateContentRequest, error) {
	var wire googleWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, perr.NewValidationError("body is not a valid JSON object: " + err.Error())
	}

	var issues []string

	if len(wire.Model) > 100 {
		issues = append(issues, "model must be at most 100 characters")
	}

	if len(wire.Tools) > 0 {
		issues = append(issues, "tools must be an empty array if present")
	}

	if len(wire.SafetySettings) > 0 {
		issues = append(issues, "safetySettings must be an empty array if present")
	}

	if wire.GenerationConfig.CandidateCount != nil && *wire.GenerationConfig.CandidateCount != 1 {
		issues = append(issues, "generationConfig.candidateCount must be 1 if present")
	}

	for _, s := range wire.GenerationConfig.StopSequences {
		if len(s) > 500 {
			issues = append(issues, "generationConfig.stopSequences entries must be at most 500 characters")
			break
		}
	}

	if len(wire.GenerationConfig.StopSequences) > 5 {
		issues = append(issues, "generationConfig.stopSequences must have at most 5 entries")
	}

	if len(issues) > 0 {
		return nil, perr.NewValidationError(issues...)
	}

	out := &GoogleGenerateContentRequest{
		Model:          wire.Model,
		Contents:       wire.Contents,
		Tools:          []json.RawMessage{},
		SafetySettings: []json.RawMessage{},
		GenerationConfig: GoogleGenerationConfig{
			Temperature:   wire.GenerationConfig.Temperature,
			TopP:          wire.GenerationConfig.TopP,
			TopK:          wire.GenerationConfig.TopK,
			StopSequences: wire.GenerationConfig.StopSequences,
		},
	}

	if wire.Stream != nil {
		out.Stream = *wire.Stream
	}

	out.GenerationConfig.CandidateCount = 1
	out.GenerationConfig.MaxOutputTokens = clampInt64(
		coerceInt(wire.GenerationConfig.MaxOutputTokens, 16), limits.GoogleMaxOutputTokens)

	return out, nil
}
