package transform

import "github.com/coralmesh/llmgateway/llm/dialect"

// ToOpenAIText implements the OpenAI chat -> OpenAI text rewrite of ADR C2.
//
// Preserves only the PROMPT_VERSION=1 flattening behavior: a PROMPT_VERSION=2
// code path existed upstream where the system-message prefix never fired
// because the role variable was cleared before the system check; that branch
// is unreachable as written and is not ported.
func ToOpenAIText(req *dialect.OpenAIChatRequest) *dialect.OpenAITextRequest {
	prompt := FlattenMessages(req.Messages, textRoleLabel, "\n\nAssistant:")

	stop := dialect.UnionDedup(req.Stop.AsSlice(), []string{"\n\nUser:"})

	return &dialect.OpenAITextRequest{
		Model:       req.Model,
		Prompt:      prompt,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      req.Stream,
		Stop:        stopFromSlice(stop),
		MaxTokens:   req.MaxTokens,
	}
}

func stopFromSlice(values []string) dialect.Stop {
	if len(values) == 0 {
		return dialect.Stop{}
	}

	return dialect.Stop{Values: values, Set: true}
}
