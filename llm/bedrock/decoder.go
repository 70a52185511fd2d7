package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/protocol/eventstream"

	"github.com/coralmesh/llmgateway/llm/httpclient"
	"github.com/coralmesh/llmgateway/llm/perr"
)

// frameDecoder implements httpclient.StreamDecoder over AWS's binary
// event-stream framing, used for Bedrock's invoke-with-response-stream
// responses. Each frame is unwrapped to its JSON payload and surfaced as a
// StreamEvent carrying that JSON as Data, mirroring the shape the SSE
// decoder produces for text/event-stream upstreams so downstream code
// never needs to know which wire format the upstream used.
type frameDecoder struct {
	ctx     context.Context
	dec     *eventstream.Decoder
	reader  io.ReadCloser
	current *httpclient.StreamEvent
	err     error
	closed  bool
}

// NewAWSEventStreamDecoder adapts a Bedrock application/vnd.amazon.eventstream
// body to the generic StreamDecoder interface.
func NewAWSEventStreamDecoder(ctx context.Context, rc io.ReadCloser) httpclient.StreamDecoder {
	return &frameDecoder{
		ctx:    ctx,
		dec:    eventstream.NewDecoder(),
		reader: rc,
	}
}

func (d *frameDecoder) Next() bool {
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

	msg, err := d.dec.Decode(d.reader, nil)
	if err != nil {
		if errors.Is(err, io.EOF) {
			_ = d.Close()
			return false
		}

		d.err = perr.NewStreamError(err)
		_ = d.Close()

		return false
	}

	event, retryable := frameToEvent(msg)
	if retryable != nil {
		d.err = retryable
		_ = d.Close()

		return false
	}

	d.current = event

	return true
}

func (d *frameDecoder) Current() *httpclient.StreamEvent { return d.current }
func (d *frameDecoder) Err() error                        { return d.err }

func (d *frameDecoder) Close() error {
	if d.closed {
		return nil
	}

	d.closed = true

	return d.reader.Close()
}

// frameToEvent unwraps one event-stream message into a canonical
// StreamEvent. A Bedrock "exception" frame for throttling is reported as
// perr.Retryable so the outer retry orchestrator can re-enqueue the
// request on a different channel; any other exception frame is surfaced as
// a synthesized proxy-error completion event instead of a raw decode
// failure, since the client still expects a well-formed SSE body.
func frameToEvent(msg eventstream.Message) (*httpclient.StreamEvent, error) {
	messageType := headerString(msg.Headers, ":message-type")
	contentType := headerString(msg.Headers, ":content-type")
	eventType := headerString(msg.Headers, ":event-type")

	if messageType == "exception" {
		excType := strings.ToLower(headerString(msg.Headers, ":exception-type"))
		errCode := headerString(msg.Headers, ":error-code")

		if excType == "throttlingexception" {
			return nil, perr.NewRetryable("bedrock throttling exception: " + errCode)
		}

		return syntheticErrorEvent(excType, msg.Payload), nil
	}

	if messageType == "event" && contentType == "application/json" {
		payload := msg.Payload
		if eventType == "chunk" {
			var wrapper struct {
				Bytes string `json:"bytes"`
			}

			if err := json.Unmarshal(msg.Payload, &wrapper); err == nil && wrapper.Bytes != "" {
				decoded, err := base64.StdEncoding.DecodeString(wrapper.Bytes)
				if err != nil {
					return nil, perr.NewDecodeError(err)
				}

				payload = decoded
			}
		}

		return &httpclient.StreamEvent{Type: "message", Data: payload}, nil
	}

	return &httpclient.StreamEvent{Type: "message", Data: msg.Payload}, nil
}

func syntheticErrorEvent(excType string, payload []byte) *httpclient.StreamEvent {
	body, _ := json.Marshal(map[string]any{
		"error": map[string]any{
			"type":    "proxy_error",
			"message": "upstream bedrock exception: " + excType,
			"detail":  string(payload),
		},
	})

	return &httpclient.StreamEvent{Type: "stream-error", Data: body}
}

func headerString(headers eventstream.Headers, name string) string {
	for _, h := range headers {
		if h.Name == name {
			return h.Value.String()
		}
	}

	return ""
}
