package sse

import (
	"context"
	"io"
	"strings"

	"github.com/coralmesh/llmgateway/llm/httpclient"
)

// Decoder adapts a raw Framer to the generic StreamDecoder interface,
// parsing each framed message into its event/data/id fields per the SSE
// field grammar (lines of "field: value", "data" lines joined by "\n").
type Decoder struct {
	ctx    context.Context
	framer *Framer
	cur    *httpclient.StreamEvent
	err    error
}

// NewDecoder returns a StreamDecoderFactory-compatible raw SSE decoder.
func NewDecoder(ctx context.Context, rc io.ReadCloser) httpclient.StreamDecoder {
	return &Decoder{ctx: ctx, framer: NewFramer(rc)}
}

func (d *Decoder) Next() bool {
	if d.err != nil {
		return false
	}

	select {
	case <-d.ctx.Done():
		d.err = d.ctx.Err()
		_ = d.framer.Close()

		return false
	default:
	}

	if !d.framer.Next() {
		d.err = d.framer.Err()
		return false
	}

	d.cur = parseFrame(d.framer.Current())

	return true
}

func (d *Decoder) Current() *httpclient.StreamEvent { return d.cur }
func (d *Decoder) Err() error                        { return d.err }
func (d *Decoder) Close() error                       { return d.framer.Close() }

// parseFrame reads the "event:", "data:" and "id:" fields out of one SSE
// message block. Multiple data lines are joined with "\n" per the SSE
// spec; an absent event field defaults to "message".
func parseFrame(frame string) *httpclient.StreamEvent {
	event := &httpclient.StreamEvent{Type: "message"}

	var dataLines []string

	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			event.Type = value
		case "data":
			dataLines = append(dataLines, value)
		case "id":
			event.LastEventID = value
		}
	}

	event.Data = []byte(strings.Join(dataLines, "\n"))

	return event
}
