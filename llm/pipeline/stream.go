package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coralmesh/llmgateway/llm"
	"github.com/coralmesh/llmgateway/llm/event"
	"github.com/coralmesh/llmgateway/llm/httpclient"
	"github.com/coralmesh/llmgateway/llm/perr"
)

// streamHandler implements §4.6's streaming path: it pipes the upstream's
// native framing through the SSE adapter and message transformer, writing
// each re-framed event to the client while folding it into an aggregator,
// and returns the aggregator's final completion on success.
func (p *Pipeline) streamHandler(ctx context.Context, c *gin.Context, rc *llm.RequestContext, upstream *httpclient.Response) (*Result, error) {
	if upstream.StatusCode > http.StatusCreated {
		rc.IsStreaming = false
		return p.blockingDecoder(ctx, rc, upstream)
	}

	if !rc.HeadersWritten() {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.WriteHeader(http.StatusOK)
		c.Writer.Flush()
		rc.ResponseHeaders = c.Writer.Header()
	}

	decoder, err := p.openDecoder(ctx, upstream)
	if err != nil {
		return nil, p.streamFailure(c, err)
	}
	defer decoder.Close()

	agg := event.NewAggregator(rc.OutboundAPI)

	for decoder.Next() {
		raw := decoder.Current()

		canon, err := event.Parse(rc.OutboundAPI, raw)
		if err != nil {
			return nil, p.streamFailure(c, err)
		}

		if canon.Done {
			break
		}

		agg.Add(canon)

		payload, err := event.Emit(rc.InboundAPI, rc.OutboundAPI, raw, canon)
		if err != nil {
			return nil, p.streamFailure(c, err)
		}

		if err := writeSSE(c, raw.Type, payload); err != nil {
			return nil, err
		}
	}

	if err := decoder.Err(); err != nil {
		return nil, p.streamFailure(c, err)
	}

	if _, err := fmt.Fprint(c.Writer, "data: [DONE]\n\n"); err != nil {
		return nil, err
	}

	c.Writer.Flush()

	final, err := agg.Final()
	if err != nil {
		return nil, err
	}

	return &Result{StatusCode: upstream.StatusCode, Headers: upstream.Headers, Body: final}, nil
}

// streamFailure applies §4.6's stream-error recovery: a Retryable cause is
// returned unchanged (no synthetic event, no [DONE] — the client stream is
// left unterminated so the caller's re-enqueue is the only visible effect,
// per scenario 6). Any other cause gets a synthetic "stream-error" SSE
// message, the [DONE] sentinel, and is re-raised as a *perr.StreamError so
// the pipeline's finish() doesn't write a second response.
func (p *Pipeline) streamFailure(c *gin.Context, cause error) error {
	var retryable *perr.Retryable
	if errors.As(cause, &retryable) {
		return cause
	}

	note, _ := json.Marshal(map[string]any{
		"error": map[string]any{
			"type":    "proxy_stream_error",
			"message": cause.Error(),
		},
	})

	_, _ = fmt.Fprintf(c.Writer, "event: stream-error\ndata: %s\n\n", note)
	_, _ = fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()

	var streamErr *perr.StreamError
	if errors.As(cause, &streamErr) {
		return streamErr
	}

	return perr.NewStreamError(cause)
}

// writeSSE forwards one already-framed event payload to the client. When
// raw carries no meaningful event type ("message", the SSE default) the
// type line is omitted, matching how a bare "data:" frame looks on the
// wire.
func writeSSE(c *gin.Context, eventType string, data []byte) error {
	if eventType != "" && eventType != "message" {
		if _, err := fmt.Fprintf(c.Writer, "event: %s\n", eventType); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}

	c.Writer.Flush()

	return nil
}

// openDecoder picks the registered StreamDecoderFactory for the upstream's
// content-type: raw SSE, AWS's binary event-stream, or Google's progressive
// JSON array (see llm/httpclient, llm/bedrock, llm/sse's init registrations).
func (p *Pipeline) openDecoder(ctx context.Context, upstream *httpclient.Response) (httpclient.StreamDecoder, error) {
	contentType := upstream.Headers.Get("Content-Type")

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}

	factory, ok := httpclient.GetDecoder(mediaType)
	if !ok {
		factory, ok = httpclient.GetDecoder(contentType)
	}

	if !ok {
		return nil, perr.NewStreamError(fmt.Errorf("no stream decoder registered for content-type %q", contentType))
	}

	return factory(ctx, upstream.Stream), nil
}
