// Package pipeline implements ADR C6: the response pipeline that orchestrates
// the blocking-versus-streaming decode path and runs the ordered list of
// post-response handlers (rate-limit tracking, error adjudication, token
// accounting, header/body copy, image mirroring, logging) for one request
// attempt.
package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coralmesh/llmgateway/internal/log"
	"github.com/coralmesh/llmgateway/llm"
	"github.com/coralmesh/llmgateway/llm/httpclient"
	"github.com/coralmesh/llmgateway/llm/imagemirror"
	"github.com/coralmesh/llmgateway/llm/keypool"
	"github.com/coralmesh/llmgateway/llm/perr"
	"github.com/coralmesh/llmgateway/llm/queue"
)

// TokenCounter is the external token-counting collaborator the pipeline
// depends on for countResponseTokens. Its implementation (tokenizer choice,
// caching) lives outside this module.
type TokenCounter interface {
	CountTokens(ctx context.Context, rc *llm.RequestContext, body any) (promptTokens, outputTokens int64, err error)
}

// Result is what the initial handler (streamHandler or blockingDecoder)
// produces: the decoded response body, carried through the post-handler
// list. Raw preserves the undecoded bytes for handlers that need the
// wire-exact body (the error policy, the image mirror).
type Result struct {
	StatusCode int
	Headers    http.Header
	Body       any
	Raw        []byte
}

// Handler is one post-response step. It may mutate rc and result, and may
// short-circuit the remaining handlers by returning a *perr.Retryable (the
// request has been re-enqueued; write nothing more) or a *perr.HttpError
// (a client response has already been written; stop without writing again).
type Handler func(ctx context.Context, c *gin.Context, rc *llm.RequestContext, result *Result) error

// Pipeline holds the external collaborators the post-handlers call into and
// the two ordered handler lists §4.6 describes.
type Pipeline struct {
	KeyPool      keypool.Pool
	Queue        queue.Queue
	TokenCounter TokenCounter
	Mirror       *imagemirror.Mirror

	streamHandlers   []Handler
	blockingHandlers []Handler
}

// New builds a Pipeline wired to its external collaborators. Mirror may be
// nil; saveImage is then a no-op, useful for deployments that don't proxy
// image-generation models.
func New(pool keypool.Pool, q queue.Queue, counter TokenCounter, mirror *imagemirror.Mirror) *Pipeline {
	p := &Pipeline{
		KeyPool:      pool,
		Queue:        q,
		TokenCounter: counter,
		Mirror:       mirror,
	}

	p.streamHandlers = []Handler{
		p.trackKeyRateLimit,
		p.countResponseTokens,
		p.incrementUsage,
		p.logPrompt,
		p.logEvent,
	}

	p.blockingHandlers = []Handler{
		p.trackKeyRateLimit,
		p.injectProxyInfo,
		p.handleUpstreamErrors,
		p.countResponseTokens,
		p.incrementUsage,
		p.copyHTTPHeaders,
		p.saveImage,
		p.writeResponse,
		p.logPrompt,
		p.logEvent,
	}

	return p
}

// Run is the pipeline's entry point per response: it picks the initial
// handler, then runs the post-handler list matching the (possibly
// downgraded) streaming flag.
func (p *Pipeline) Run(ctx context.Context, c *gin.Context, rc *llm.RequestContext, upstream *httpclient.Response) {
	var (
		result *Result
		err    error
	)

	if rc.IsStreaming {
		result, err = p.streamHandler(ctx, c, rc, upstream)
	} else {
		result, err = p.blockingDecoder(ctx, rc, upstream)
	}

	if err != nil {
		p.finish(c, rc, err)
		return
	}

	handlers := p.blockingHandlers
	if rc.IsStreaming {
		handlers = p.streamHandlers
	}

	for _, h := range handlers {
		if err := h(ctx, c, rc, result); err != nil {
			p.finish(c, rc, err)
			return
		}
	}
}

// finish applies the §7 propagation policy to whatever error ended the
// pipeline early.
func (p *Pipeline) finish(c *gin.Context, rc *llm.RequestContext, err error) {
	var retryable *perr.Retryable
	if errors.As(err, &retryable) {
		return
	}

	var httpErr *perr.HttpError
	if errors.As(err, &httpErr) {
		return
	}

	if rc.HeadersWritten() {
		log.Error(c.Request.Context(), "pipeline handler failed after response headers were sent",
			log.Cause(err), log.String("request_id", rc.ID))

		return
	}

	rc.ResponseHeaders = c.Writer.Header()
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"type":       "proxy_internal_error",
			"message":    "internal proxy error",
			"proxy_note": err.Error(),
		},
	})
}
