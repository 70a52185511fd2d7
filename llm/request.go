package llm

import (
	"context"
	"net/http"

	"github.com/coralmesh/llmgateway/llm/httpclient"
)

// Key is the leased credential reference attached to a RequestContext. The
// pool that issues and mutates these lives outside this module; the core
// only reads the fields it needs to pick a policy action.
type Key struct {
	Hash         string
	Service      Service
	Capabilities map[string]bool
}

// TokenizerInfo is optional structured debug information about how prompt
// and output tokens were counted, set by the external token counter.
type TokenizerInfo struct {
	Encoding string
	Details  map[string]any
}

// EventSink receives scoped logging/bookkeeping events for one request
// (prompt logging, usage events). Implementations live outside this module.
type EventSink interface {
	LogPrompt(ctx context.Context, body any)
	LogEvent(ctx context.Context, name string, fields map[string]any)
}

// RequestContext is the per-attempt state threaded through the transformer
// and response pipeline. It is owned by the caller's HTTP handler for the
// duration of one attempt and mutated by the payload transformer and the
// response pipeline's handlers.
type RequestContext struct {
	ID string

	InboundAPI  APIFormat
	OutboundAPI APIFormat
	Service     Service

	// Body is the current payload: the raw validated inbound body until C2
	// runs, then the outbound-dialect body thereafter. Concrete dialect
	// structs live in the dialect package.
	Body any

	// AnthropicVersion is the "anthropic-version" header value, when the
	// inbound request is itself an Anthropic-dialect request, needed by C4
	// to interpret streamed events correctly.
	AnthropicVersion string

	IsStreaming bool

	// RetryCount is incremented on re-enqueue. The transformer must be
	// skipped once RetryCount > 0; see Transformed.
	RetryCount int
	Transformed bool

	Key *Key

	PromptTokens int64
	OutputTokens int64

	TokenizerInfo *TokenizerInfo

	Log EventSink

	// RawRequest is the original inbound HTTP request, preserved for header
	// merging and auth finalization.
	RawRequest *httpclient.Request

	// ResponseHeaders accumulates headers the pipeline has already written
	// to the client, used to decide whether a later handler may still
	// write the response (see perr.HttpError propagation policy).
	ResponseHeaders http.Header
}

// HeadersWritten reports whether any handler has already sent response
// headers to the client for this attempt.
func (r *RequestContext) HeadersWritten() bool {
	return r.ResponseHeaders != nil
}
