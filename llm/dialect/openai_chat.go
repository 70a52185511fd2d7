package dialect

import (
	"encoding/json"
	"strconv"

	"github.com/coralmesh/llmgateway/llm/perr"
)

// OpenAIChatRequest is the normalized OpenAI chat-completions request.
type OpenAIChatRequest struct {
	Model            string          `json:"model"`
	Messages         []ChatMessage   `json:"messages"`
	Temperature      float64         `json:"temperature"`
	TopP             float64         `json:"top_p"`
	N                int64           `json:"n,omitempty"`
	Stream           bool            `json:"stream"`
	Stop             Stop            `json:"stop,omitempty"`
	MaxTokens        int64           `json:"max_tokens"`
	FrequencyPenalty float64         `json:"frequency_penalty"`
	PresencePenalty  float64         `json:"presence_penalty"`
	LogitBias        json.RawMessage `json:"logit_bias,omitempty"`
	User             string          `json:"user,omitempty"`
	Seed             *int64          `json:"seed,omitempty"`
	Logprobs         *bool           `json:"logprobs,omitempty"`
	TopLogprobs      *int64          `json:"top_logprobs,omitempty"`
	ResponseFormat   json.RawMessage `json:"response_format,omitempty"`
	Tools            []Tool          `json:"tools,omitempty"`
	Functions        json.RawMessage `json:"functions,omitempty"`
}

type openAIChatWire struct {
	Model            string          `json:"model"`
	Messages         []ChatMessage   `json:"messages"`
	Temperature      *float64        `json:"temperature"`
	TopP             *float64        `json:"top_p"`
	N                *int64          `json:"n"`
	Stream           *bool           `json:"stream"`
	Stop             Stop            `json:"stop"`
	MaxTokens        json.RawMessage `json:"max_tokens"`
	FrequencyPenalty *float64        `json:"frequency_penalty"`
	PresencePenalty  *float64        `json:"presence_penalty"`
	LogitBias        json.RawMessage `json:"logit_bias"`
	User             string          `json:"user"`
	Seed             *int64          `json:"seed"`
	Logprobs         *bool           `json:"logprobs"`
	TopLogprobs      *int64          `json:"top_logprobs"`
	ResponseFormat   json.RawMessage `json:"response_format"`
	Tools            []Tool          `json:"tools"`
	Functions        json.RawMessage `json:"functions"`
}

// ValidateOpenAIChat parses and normalizes an OpenAI chat-completions body.
func ValidateOpenAIChat(raw []byte, limits Limits) (*OpenAIChatRequest, error) {
	var wire openAIChatWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, perr.NewValidationError("body is not a valid JSON object: " + err.Error())
	}

	var issues []string

	if len(wire.Model) > 100 {
		issues = append(issues, "model must be at most 100 characters")
	}

	if len(wire.Messages) == 0 {
		issues = append(issues, "messages is required")
	}

	for i, m := range wire.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant, RoleTool, RoleFunction:
		default:
			issues = append(issues, "messages["+strconv.Itoa(i)+"].role is invalid")
		}
	}

	if wire.N != nil && *wire.N != 1 {
		issues = append(issues, "You may only request a single completion at a time.")
	}

	if len(wire.User) > 500 {
		issues = append(issues, "user must be at most 500 characters")
	}

	if len(issues) > 0 {
		return nil, perr.NewValidationError(issues...)
	}

	out := &OpenAIChatRequest{
		Model:            wire.Model,
		Messages:         wire.Messages,
		Temperature:      1,
		TopP:             1,
		Stop:             wire.Stop,
		MaxTokens:        16,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
		LogitBias:        wire.LogitBias,
		User:             wire.User,
		Seed:             wire.Seed,
		Logprobs:         wire.Logprobs,
		TopLogprobs:      wire.TopLogprobs,
		ResponseFormat:   wire.ResponseFormat,
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

	if wire.FrequencyPenalty != nil {
		out.FrequencyPenalty = *wire.FrequencyPenalty
	}

	if wire.PresencePenalty != nil {
		out.PresencePenalty = *wire.PresencePenalty
	}

	out.MaxTokens = clampInt64(coerceInt(wire.MaxTokens, 16), limits.OpenAIMaxTokens)

	if limits.AllowTools {
		out.Tools = sanitizeTools(wire.Tools)
		out.Functions = wire.Functions
	}

	return out, nil
}

// coerceInt parses a JSON number that may arrive as a float or a numeric
// string, falling back to def when raw is empty or unparsable.
func coerceInt(raw json.RawMessage, def int64) int64 {
	if len(raw) == 0 {
		return def
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int64(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v
		}
	}

	return def
}
