// Package event implements the message transformer and aggregator of ADR
// C4/C5: turning each upstream's wire-shaped streaming event into a
// canonical incremental event, re-emitting it in whichever shape the
// inbound client expects, and folding the run of events into a single
// final completion shaped in the outbound dialect.
package event

import (
	"encoding/json"
	"strings"

	"github.com/coralmesh/llmgateway/llm"
	"github.com/coralmesh/llmgateway/llm/httpclient"
	"github.com/coralmesh/llmgateway/llm/perr"
)

// Canonical is the incremental event shape every dialect's streaming
// events are parsed into before re-emission and aggregation.
type Canonical struct {
	ID           string
	Created      int64
	Model        string
	Role         string
	DeltaText    string
	FinishReason string
	Done         bool // set for a terminal "[DONE]" marker; carries no payload
}

type openAIChunk struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

type openAITextChunk struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Text         string  `json:"text"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

type anthropicChunk struct {
	Completion string  `json:"completion"`
	Model      string  `json:"model"`
	StopReason *string `json:"stop_reason"`
}

type googleChunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Parse decodes one raw StreamEvent into a Canonical event, interpreting it
// according to outboundAPI's wire shape. The "data: [DONE]" sentinel
// produces a Canonical with Done set and no further fields populated.
func Parse(outboundAPI llm.APIFormat, raw *httpclient.StreamEvent) (*Canonical, error) {
	data := strings.TrimSpace(string(raw.Data))
	if data == "[DONE]" {
		return &Canonical{Done: true}, nil
	}

	switch outboundAPI {
	case llm.APIFormatOpenAIChat:
		var chunk openAIChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, perr.NewStreamError(err)
		}

		out := &Canonical{ID: chunk.ID, Created: chunk.Created, Model: chunk.Model}

		if len(chunk.Choices) > 0 {
			out.Role = chunk.Choices[0].Delta.Role
			out.DeltaText = chunk.Choices[0].Delta.Content

			if chunk.Choices[0].FinishReason != nil {
				out.FinishReason = *chunk.Choices[0].FinishReason
			}
		}

		return out, nil

	case llm.APIFormatOpenAIText:
		var chunk openAITextChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, perr.NewStreamError(err)
		}

		out := &Canonical{ID: chunk.ID, Created: chunk.Created, Model: chunk.Model}

		if len(chunk.Choices) > 0 {
			out.DeltaText = chunk.Choices[0].Text

			if chunk.Choices[0].FinishReason != nil {
				out.FinishReason = *chunk.Choices[0].FinishReason
			}
		}

		return out, nil

	case llm.APIFormatAnthropic:
		var chunk anthropicChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, perr.NewStreamError(err)
		}

		out := &Canonical{Model: chunk.Model, DeltaText: chunk.Completion}
		if chunk.StopReason != nil {
			out.FinishReason = *chunk.StopReason
		}

		return out, nil

	case llm.APIFormatGoogleAI:
		var chunk googleChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, perr.NewStreamError(err)
		}

		out := &Canonical{}

		if len(chunk.Candidates) > 0 {
			c := chunk.Candidates[0]
			for _, p := range c.Content.Parts {
				out.DeltaText += p.Text
			}

			out.FinishReason = c.FinishReason
		}

		return out, nil

	default:
		return nil, perr.NewUnsupportedError("streaming is not supported for outbound API %s", outboundAPI)
	}
}

// asOpenAIChatChunk re-frames a Canonical event into an OpenAI
// chat-completion-chunk-shaped JSON payload. Every non-identity
// (inboundAPI != outboundAPI) combination re-frames through this shape:
// Anthropic- and Google-sourced events are first lifted here before being
// handed to an inbound client that expects the OpenAI chat streaming
// format.
func asOpenAIChatChunk(e *Canonical) ([]byte, error) {
	finish := (*string)(nil)
	if e.FinishReason != "" {
		finish = &e.FinishReason
	}

	chunk := map[string]any{
		"id":      e.ID,
		"object":  "chat.completion.chunk",
		"created": e.Created,
		"model":   e.Model,
		"choices": []map[string]any{
			{
				"index": 0,
				"delta": map[string]any{
					"role":    e.Role,
					"content": e.DeltaText,
				},
				"finish_reason": finish,
			},
		},
	}

	return json.Marshal(chunk)
}

// Emit renders a Canonical event as the SSE "data:" payload to forward to
// the inbound client. When inboundAPI == outboundAPI the upstream's raw
// payload is forwarded unchanged; otherwise the event is re-framed as an
// OpenAI chat-completion chunk, since that is the only streaming shape
// every supported inbound client is expected to understand.
func Emit(inboundAPI, outboundAPI llm.APIFormat, raw *httpclient.StreamEvent, e *Canonical) ([]byte, error) {
	if e.Done {
		return []byte("[DONE]"), nil
	}

	if inboundAPI == outboundAPI {
		return raw.Data, nil
	}

	return asOpenAIChatChunk(e)
}
