package transform

import (
	"encoding/json"
	"regexp"

	"github.com/coralmesh/llmgateway/llm/dialect"
)

var speakerPrefixRe = regexp.MustCompile(`^(.{0,50}?): `)

// ToGoogle implements the OpenAI chat -> Google generate-content rewrite of
// ADR C2.
//
// The caller must have validated req with its model field forced to
// "gpt-3.5-turbo" so inbound models unknown to Google still pass schema
// validation; any routing decision that depends on the real inbound model
// must be made before calling ToGoogle, since the model is overridden here
// to "gemini-pro" regardless of input.
func ToGoogle(req *dialect.OpenAIChatRequest, limits dialect.Limits) *dialect.GoogleGenerateContentRequest {
	type turn struct {
		role string
		text string
	}

	var turns []turn

	var speakers []string

	for _, m := range req.Messages {
		if m.Role == dialect.RoleSystem {
			continue
		}

		role := "user"
		if m.Role == dialect.RoleAssistant {
			role = "model"
		}

		text := m.Content.PlainText()

		var name string
		if match := speakerPrefixRe.FindStringSubmatch(text); match != nil {
			name = match[1]
		} else {
			if m.Name != "" {
				name = m.Name
			} else if role == "model" {
				name = "Character"
			} else {
				name = "User"
			}

			text = name + ": " + text
		}

		speakers = append(speakers, name)
		turns = append(turns, turn{role: role, text: text})
	}

	var contents []dialect.GoogleContent

	for _, t := range turns {
		if n := len(contents); n > 0 && contents[n-1].Role == t.role {
			contents[n-1].Parts[0].Text += "\n\n" + t.text
			continue
		}

		contents = append(contents, dialect.GoogleContent{
			Role:  t.role,
			Parts: []dialect.GooglePart{{Text: t.text}},
		})
	}

	stopSeqs := make([]string, 0, len(speakers)+4)

	stopSeqs = append(stopSeqs, req.Stop.AsSlice()...)

	for _, s := range speakers {
		stopSeqs = append(stopSeqs, "\n"+s+":")
	}

	stopSeqs = dialect.UnionDedup(stopSeqs)
	if len(stopSeqs) > 5 {
		stopSeqs = stopSeqs[:5]
	}

	topK := int64(40)

	return &dialect.GoogleGenerateContentRequest{
		Model:          "gemini-pro",
		Stream:         req.Stream,
		Contents:       contents,
		Tools:          []json.RawMessage{},
		SafetySettings: googleSafetySettings(),
		GenerationConfig: dialect.GoogleGenerationConfig{
			Temperature:     floatPtr(req.Temperature),
			MaxOutputTokens: clampMaxTokens(req.MaxTokens, limits.GoogleMaxOutputTokens),
			CandidateCount:  1,
			TopP:            floatPtr(req.TopP),
			TopK:            &topK,
			StopSequences:   stopSeqs,
		},
	}
}

func googleSafetySettings() []json.RawMessage {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}

	out := make([]json.RawMessage, 0, len(categories))
	for _, c := range categories {
		out = append(out, json.RawMessage(`{"category":"`+c+`","threshold":"BLOCK_NONE"}`))
	}

	return out
}
