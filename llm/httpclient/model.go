package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/coralmesh/llmgateway/llm/streams"
)

// Request represents a generic HTTP request that can be adapted to
// different upstream providers.
type Request struct {
	// HTTP basics
	Method      string      `json:"method"`
	URL         string      `json:"url"`
	Path        string      `json:"path"`
	Query       url.Values  `json:"query"`
	Headers     http.Header `json:"headers"`
	ContentType string      `json:"content_type"`
	Body        []byte      `json:"body,omitempty"`

	// Authentication
	Auth *AuthConfig `json:"auth,omitempty"`

	// Request tracking
	RequestID string `json:"request_id"`
	ClientIP  string `json:"client_ip,omitempty"`

	// Raw HTTP request for advanced use cases
	RawRequest *http.Request `json:"-"`

	// Metadata for advanced use cases, e.g. the adapter/executor a channel
	// customizes for this attempt.
	Metadata map[string]string `json:"-"`
}

// AuthConfig represents authentication configuration for an outbound
// request.
type AuthConfig struct {
	// Type represents the type of authentication: "bearer" or "api_key".
	Type string `json:"type"`

	// APIKey is the credential's secret value.
	APIKey string `json:"api_key,omitempty"`

	// HeaderKey is the header name to use when Type is "api_key".
	HeaderKey string `json:"header_key,omitempty"`
}

const (
	AuthTypeBearer = "bearer"
	AuthTypeAPIKey = "api_key"
)

// Response represents a generic HTTP response.
type Response struct {
	// HTTP response basics
	StatusCode int `json:"status_code"`

	// Response headers
	Headers http.Header `json:"headers"`

	// Response body, for the non-streaming response.
	Body []byte `json:"body,omitempty"`

	// Streaming support
	Stream io.ReadCloser `json:"-"`

	// Request information
	Request *Request `json:"-"`

	// Raw HTTP response/request for advanced use cases
	RawResponse *http.Response `json:"-"`
	RawRequest  *http.Request  `json:"-"`
}

// Error represents a non-2xx HTTP response from an upstream provider. The
// policy package inspects StatusCode and Body (parsed JSON) to decide the
// disable/re-enqueue/surface action.
type Error struct {
	Method     string      `json:"method"`
	URL        string      `json:"url"`
	StatusCode int         `json:"status_code"`
	Status     string      `json:"status"`
	Headers    http.Header `json:"headers,omitempty"`
	Body       []byte      `json:"body,omitempty"`
}

func (e *Error) Error() string {
	return e.Method + " - " + e.URL + " with status " + e.Status
}

// StreamEvent is a single framed event decoded from an upstream streaming
// body, before any dialect-specific reinterpretation.
type StreamEvent struct {
	LastEventID string `json:"last_event_id,omitempty"`
	Type        string `json:"type"`
	Data        []byte `json:"data"`
}

// StreamDecoder defines the interface for decoding a streaming response body
// into a sequence of StreamEvent.
type StreamDecoder = streams.Stream[*StreamEvent]

// StreamDecoderFactory creates a StreamDecoder bound to a response body and
// context, keyed by content-type in the decoder registry.
type StreamDecoderFactory func(ctx context.Context, rc io.ReadCloser) StreamDecoder

type _StreamEventJSON struct {
	LastEventID string `json:"last_event_id,omitempty"`
	Type        string `json:"type"`
	Data        string `json:"data"`
}

// EncodeStreamEventToJSON renders a StreamEvent for debug logging.
func EncodeStreamEventToJSON(event *StreamEvent) ([]byte, error) {
	return json.Marshal(_StreamEventJSON{
		LastEventID: event.LastEventID,
		Type:        event.Type,
		Data:        string(event.Data),
	})
}
