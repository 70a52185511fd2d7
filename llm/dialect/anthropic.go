package dialect

import (
	"encoding/json"

	"github.com/coralmesh/llmgateway/llm/perr"
)

// AnthropicCompleteRequest is the normalized Anthropic v1 complete request.
type AnthropicCompleteRequest struct {
	Model             string   `json:"model"`
	Prompt            string   `json:"prompt"`
	MaxTokensToSample int64    `json:"max_tokens_to_sample"`
	StopSequences     []string `json:"stop_sequences,omitempty"`
	Stream            bool     `json:"stream"`
	Temperature       float64  `json:"temperature"`
	TopK              *int64   `json:"top_k,omitempty"`
	TopP              *float64 `json:"top_p,omitempty"`
}

type anthropicCompleteWire struct {
	Model             string          `json:"model"`
	Prompt            string          `json:"prompt"`
	MaxTokensToSample json.RawMessage `json:"max_tokens_to_sample"`
	StopSequences     []string        `json:"stop_sequences"`
	Stream            *bool           `json:"stream"`
	Temperature       *float64        `json:"temperature"`
	TopK              *int64          `json:"top_k"`
	TopP              *float64        `json:"top_p"`
}

// ValidateAnthropicComplete parses and normalizes an Anthropic v1 complete
// request body.
func ValidateAnthropicComplete(raw []byte, limits Limits) (*AnthropicCompleteRequest, error) {
	var wire anthropicCompleteWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, perr.NewValidationError("body is not a valid JSON object: " + err.Error())
	}

	var issues []string

	if len(wire.Model) > 100 {
		issues = append(issues, "model must be at most 100 characters")
	}

	if wire.Prompt == "" {
		issues = append(issues, "prompt is required")
	}

	for _, s := range wire.StopSequences {
		if len(s) > 500 {
			issues = append(issues, "stop_sequences entries must be at most 500 characters")
			break
		}
	}

	if len(issues) > 0 {
		return nil, perr.NewValidationError(issues...)
	}

	out := &AnthropicCompleteRequest{
		Model:         wire.Model,
		Prompt:        wire.Prompt,
		StopSequences: wire.StopSequences,
		Temperature:   1,
		TopK:          wire.TopK,
		TopP:          wire.TopP,
	}

	if wire.Stream != nil {
		out.Stream = *wire.Stream
	}

	if wire.Temperature != nil {
		out.Temperature = *wire.Temperature
	}

	out.MaxTokensToSample = clampInt64(coerceInt(wire.MaxTokensToSample, 256), limits.AnthropicMaxTokensToSample)

	return out, nil
}
