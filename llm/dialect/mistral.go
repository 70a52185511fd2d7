package dialect

import (
	"encoding/json"

	"github.com/coralmesh/llmgateway/llm/perr"
)

// MistralMessage is a Mistral chat message: string content only, unlike the
// OpenAI chat union.
type MistralMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MistralChatRequest is the normalized Mistral chat request.
type MistralChatRequest struct {
	Model       string           `json:"model"`
	Messages    []MistralMessage `json:"messages"`
	Temperature float64          `json:"temperature"`
	TopP        float64          `json:"top_p"`
	MaxTokens   int64            `json:"max_tokens,omitempty"`
	Stream      bool             `json:"stream"`
	SafePrompt  bool             `json:"safe_prompt"`
	RandomSeed  *int64           `json:"random_seed,omitempty"`
}

type mistralWire struct {
	Model       string           `json:"model"`
	Messages    []MistralMessage `json:"messages"`
	Temperature *float64         `json:"temperature"`
	TopP        *float64         `json:"top_p"`
	MaxTokens   json.RawMessage  `json:"max_tokens"`
	Stream      *bool            `json:"stream"`
	SafePrompt  *bool            `json:"safe_prompt"`
	RandomSeed  *int64           `json:"random_seed"`
}

// NormalizeMistralMessages enforces: at most one system message, first if
// present; the last message has role user; and no two adjacent messages
// share a role (subsequent system messages are re-roled to user; same-role
// runs are collapsed by joining content with "\n\n"). It is idempotent:
// applying it twice yields the same sequence.
func NormalizeMistralMessages(in []MistralMessage) []MistralMessage {
	if len(in) == 0 {
		return in
	}

	reRoled := make([]MistralMessage, len(in))

	for i, m := range in {
		if m.Role == RoleSystem && i > 0 {
			m.Role = RoleUser
		}

		reRoled[i] = m
	}

	var collapsed []MistralMessage

	for _, m := range reRoled {
		if n := len(collapsed); n > 0 && collapsed[n-1].Role == m.Role {
			collapsed[n-1].Content += "\n\n" + m.Content
			continue
		}

		collapsed = append(collapsed, m)
	}

	if n := len(collapsed); n > 0 && collapsed[n-1].Role != RoleUser {
		collapsed = append(collapsed, MistralMessage{Role: RoleUser, Content: ""})
	}

	return collapsed
}

// ValidateMistralChat parses and normalizes a Mistral chat request body.
func ValidateMistralChat(raw []byte, limits Limits) (*MistralChatRequest, error) {
	var wire mistralWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, perr.NewValidationError("body is not a valid JSON object: " + err.Error())
	}

	if len(wire.Messages) == 0 {
		return nil, perr.NewValidationError("messages is required")
	}

	out := &MistralChatRequest{
		Model:       wire.Model,
		Messages:    NormalizeMistralMessages(wire.Messages),
		Temperature: 0.7,
		TopP:        1,
		SafePrompt:  false,
		RandomSeed:  wire.RandomSeed,
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

	if wire.SafePrompt != nil {
		out.SafePrompt = *wire.SafePrompt
	}

	if len(wire.MaxTokens) > 0 {
		out.MaxTokens = clampInt64(coerceInt(wire.MaxTokens, 0), limits.OpenAIMaxTokens)
	}

	return out, nil
}
