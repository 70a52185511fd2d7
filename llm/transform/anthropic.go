package transform

import (
	"net/http"

	"github.com/coralmesh/llmgateway/llm/dialect"
)

// ToAnthropic implements the OpenAI chat -> Anthropic v1 complete rewrite of
// ADR C2. It returns the outbound body along with the headers that must be
// set on the outbound request (anthropic-version).
func ToAnthropic(req *dialect.OpenAIChatRequest, limits dialect.Limits) (*dialect.AnthropicCompleteRequest, http.Header) {
	prompt := FlattenMessages(req.Messages, anthropicRoleLabel, "\n\nAssistant:")

	stop := dialect.UnionDedup(req.Stop.AsSlice(), []string{"\n\nHuman:", "\n\nSystem:"})

	out := &dialect.AnthropicCompleteRequest{
		Model:             req.Model,
		Prompt:            prompt,
		MaxTokensToSample: clampMaxTokens(req.MaxTokens, limits.AnthropicMaxTokensToSample),
		StopSequences:     stop,
		Stream:            req.Stream,
		Temperature:       req.Temperature,
		TopP:              floatPtr(req.TopP),
	}

	headers := http.Header{}
	headers.Set("anthropic-version", "2023-06-01")

	return out, headers
}

func clampMaxTokens(v, ceiling int64) int64 {
	if v > ceiling {
		return ceiling
	}

	return v
}

func floatPtr(f float64) *float64 { return &f }
