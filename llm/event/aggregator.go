package event

import (
	"strings"

	"github.com/coralmesh/llmgateway/llm"
	"github.com/coralmesh/llmgateway/llm/perr"
)

// Aggregator folds a run of Canonical events into the single final
// completion object the request/response log records, shaped in the
// outbound dialect (never reverse-transformed back to the inbound one).
type Aggregator struct {
	outboundAPI  llm.APIFormat
	id           string
	created      int64
	model        string
	text         strings.Builder
	finishReason string
}

// NewAggregator returns an Aggregator for a request whose outbound dialect
// is outboundAPI.
func NewAggregator(outboundAPI llm.APIFormat) *Aggregator {
	return &Aggregator{outboundAPI: outboundAPI}
}

// Add folds one more Canonical event into the running completion. Done
// events are ignored; callers detect stream termination separately.
func (a *Aggregator) Add(e *Canonical) {
	if e.Done {
		return
	}

	if a.id == "" {
		a.id = e.ID
		a.created = e.Created
		a.model = e.Model
	}

	a.text.WriteString(e.DeltaText)

	if e.FinishReason != "" {
		a.finishReason = e.FinishReason
	}
}

// Final renders the folded completion in the outbound dialect's final
// completion shape.
func (a *Aggregator) Final() (any, error) {
	switch a.outboundAPI {
	case llm.APIFormatOpenAIChat:
		return map[string]any{
			"id":      a.id,
			"object":  "chat.completion",
			"created": a.created,
			"model":   a.model,
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": a.text.String(),
					},
					"finish_reason": a.finishReason,
				},
			},
		}, nil

	case llm.APIFormatOpenAIText:
		return map[string]any{
			"id":      a.id,
			"object":  "text_completion",
			"created": a.created,
			"model":   a.model,
			"choices": []map[string]any{
				{
					"index":         0,
					"text":          a.text.String(),
					"finish_reason": a.finishReason,
				},
			},
		}, nil

	case llm.APIFormatAnthropic:
		return map[string]any{
			"completion":  a.text.String(),
			"model":       a.model,
			"stop_reason": a.finishReason,
		}, nil

	case llm.APIFormatGoogleAI:
		return map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{{"text": a.text.String()}},
						"role":  "model",
					},
					"finishReason": a.finishReason,
				},
			},
		}, nil

	case llm.APIFormatOpenAIImage:
		return nil, perr.NewUnsupportedError("streaming aggregation is not supported for image responses")

	default:
		return nil, perr.NewUnsupportedError("streaming aggregation is not supported for outbound API %s", a.outboundAPI)
	}
}
