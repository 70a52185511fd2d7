package transform

import (
	"strings"

	"github.com/coralmesh/llmgateway/llm/dialect"
	"github.com/coralmesh/llmgateway/llm/perr"
)

// ToOpenAIImage implements the OpenAI chat -> OpenAI image rewrite of ADR
// C2: it extracts an "image:"-tagged prompt from the last user message and
// emits a DALL-E generation request.
func ToOpenAIImage(req *dialect.OpenAIChatRequest) (*dialect.OpenAIImageRequest, error) {
	if req.Stream {
		return nil, perr.NewValidationError("streaming is not supported for image generation")
	}

	var last *dialect.ChatMessage

	for i := range req.Messages {
		if req.Messages[i].Role == dialect.RoleUser {
			last = &req.Messages[i]
		}
	}

	if last == nil {
		return nil, perr.NewValidationError("no user message found to extract an image prompt from")
	}

	if last.Content.IsArray {
		return nil, perr.NewValidationError("image prompt extraction requires a plain-text user message, not an array content")
	}

	content := last.Content.Text

	idx := strings.Index(strings.ToLower(content), "image:")
	if idx < 0 {
		return nil, perr.NewValidationError(
			`message must contain "image:" followed by the desired image description, e.g. "image: a red bicycle"`)
	}

	prompt := strings.TrimSpace(content[idx+len("image:"):])

	model := "dall-e-3"
	if strings.Contains(req.Model, "dall-e") {
		model = req.Model
	}

	body := &dialect.OpenAIImageRequest{
		Model:          model,
		Quality:        "standard",
		Size:           "1024x1024",
		ResponseFormat: "url",
		Prompt:         prompt,
		N:              1,
		Style:          "vivid",
	}

	return body, nil
}
