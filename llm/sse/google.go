package sse

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/coralmesh/llmgateway/llm/httpclient"
)

// googleCandidate mirrors the minimal shape needed to detect an empty
// completion from a Google streaming response element.
type googleCandidate struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

type googleStreamElement struct {
	Candidates []googleCandidate `json:"candidates"`
}

// GoogleArrayDecoder adapts Google's progressive top-level JSON array
// response (`[ {...}, {...}, ... ]`, each element arriving as the upstream
// flushes it) to the generic StreamDecoder interface. Google does not use
// SSE framing for this endpoint; each array element becomes one
// StreamEvent carrying that element's JSON as Data.
type GoogleArrayDecoder struct {
	ctx     context.Context
	dec     *json.Decoder
	reader  io.ReadCloser
	started bool
	current *httpclient.StreamEvent
	err     error
	closed  bool
}

// NewGoogleArrayDecoder returns a StreamDecoderFactory-compatible decoder
// for a Google generate-content streaming response body.
func NewGoogleArrayDecoder(ctx context.Context, rc io.ReadCloser) httpclient.StreamDecoder {
	return &GoogleArrayDecoder{
		ctx:    ctx,
		dec:    json.NewDecoder(rc),
		reader: rc,
	}
}

func (d *GoogleArrayDecoder) Next() bool {
	if d.err != nil || d.closed {
		return false
	}

	select {
	case <-d.ctx.Done():
		d.err = d.ctx.Err()
		_ = d.Close()

		return false
	default:
	}

	if !d.started {
		tok, err := d.dec.Token()
		if err != nil {
			d.err = err
			_ = d.Close()

			return false
		}

		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			d.err = errors.New("google stream: expected a top-level JSON array")
			_ = d.Close()

			return false
		}

		d.started = true
	}

	if !d.dec.More() {
		_ = d.Close()
		return false
	}

	var raw json.RawMessage
	if err := d.dec.Decode(&raw); err != nil {
		d.err = err
		_ = d.Close()

		return false
	}

	d.current = elementToEvent(raw)

	return true
}

func (d *GoogleArrayDecoder) Current() *httpclient.StreamEvent { return d.current }
func (d *GoogleArrayDecoder) Err() error                        { return d.err }

func (d *GoogleArrayDecoder) Close() error {
	if d.closed {
		return nil
	}

	d.closed = true

	return d.reader.Close()
}

// elementToEvent checks whether an array element carries a non-empty
// completion; an element with no candidate text is replaced with a
// synthesized proxy-error event rather than passed through empty.
func elementToEvent(raw json.RawMessage) *httpclient.StreamEvent {
	var el googleStreamElement
	if err := json.Unmarshal(raw, &el); err == nil {
		for _, c := range el.Candidates {
			for _, p := range c.Content.Parts {
				if p.Text != "" {
					return &httpclient.StreamEvent{Type: "message", Data: raw}
				}
			}
		}
	}

	body, _ := json.Marshal(map[string]any{
		"error": map[string]any{
			"type":    "proxy_error",
			"message": "upstream google response contained no candidate text",
		},
	})

	return &httpclient.StreamEvent{Type: "stream-error", Data: body}
}
