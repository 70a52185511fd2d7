package dialect

import (
	"encoding/json"
	"strings"

	"github.com/coralmesh/llmgateway/llm/perr"
)

// OpenAITextRequest is the normalized legacy OpenAI text-completions
// request.
type OpenAITextRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	Stream      bool    `json:"stream"`
	Stop        Stop    `json:"stop,omitempty"`
	MaxTokens   int64   `json:"max_tokens"`
	Logprobs    *int64  `json:"logprobs"`
	Echo        bool    `json:"echo"`
	Suffix      string  `json:"suffix,omitempty"`
}

type openAITextWire struct {
	Model       string          `json:"model"`
	Prompt      string          `json:"prompt"`
	Temperature *float64        `json:"temperature"`
	TopP        *float64        `json:"top_p"`
	Stream      *bool           `json:"stream"`
	Stop        Stop            `json:"stop"`
	MaxTokens   json.RawMessage `json:"max_tokens"`
	Logprobs    *int64          `json:"logprobs"`
	Echo        *bool           `json:"echo"`
	BestOf      *int64          `json:"best_of"`
	Suffix      string          `json:"suffix"`
}

// ValidateOpenAIText parses and normalizes a legacy OpenAI text-completions
// body.
func ValidateOpenAIText(raw []byte, limits Limits) (*OpenAITextRequest, error) {
	var wire openAITextWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, perr.NewValidationError("body is not a valid JSON object: " + err.Error())
	}

	var issues []string

	if wire.Prompt == "" {
		issues = append(issues, "prompt is required")
	}

	if !strings.HasPrefix(wire.Model, "gpt-3.5-turbo-instruct") {
		issues = append(issues, "model must start with gpt-3.5-turbo-instruct")
	}

	if wire.BestOf != nil && *wire.BestOf != 1 {
		issues = append(issues, "best_of must be 1 if present")
	}

	if len(wire.Suffix) > 1000 {
		issues = append(issues, "suffix must be at most 1000 characters")
	}

	if len(issues) > 0 {
		return nil, perr.NewValidationError(issues...)
	}

	out := &OpenAITextRequest{
		Model:       wire.Model,
		Prompt:      wire.Prompt,
		Temperature: 1,
		TopP:        1,
		Stop:        wire.Stop,
		MaxTokens:   16,
		Echo:        false,
		Suffix:      wire.Suffix,
	}

	if wire.Temperature != nil {
		out.Temperature = *wire.Temperature
	}

	if wire.TopP != nil {
		out.TopP = *wire.TopP
	}

	if wire.Stream != nil {
		out.Stream = *wire.Stream
	}

	if wire.Echo != nil {
		out.Echo = *wire.Echo
	}

	out.Logprobs = wire.Logprobs
	out.MaxTokens = clampInt64(coerceInt(wire.MaxTokens, 16), limits.OpenAIMaxTokens)

	return out, nil
}
