package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/coralmesh/llmgateway/internal/log"
)

// HttpClient executes the outbound Request built by the payload transformer
// against the leased credential's upstream, returning either a blocking
// Response (Do) or a framed event stream (DoStream) once the decoder
// registry has matched the response's content type.
type HttpClient struct {
	client      *http.Client
	proxyConfig *ProxyConfig
}

// NewHttpClient creates a new HTTP client with no ProxyConfig set; it uses
// http.DefaultTransport, which honours the proxy environment variables.
func NewHttpClient() *HttpClient {
	return &HttpClient{client: &http.Client{}}
}

// NewHttpClientWithClient wraps an existing http.Client, useful for tests
// that need a custom transport or timeout.
func NewHttpClientWithClient(client *http.Client) *HttpClient {
	return &HttpClient{client: client}
}

// NewHttpClientWithProxy creates an HTTP client that dials through
// proxyConfig, honoring the disabled/environment/url modes.
func NewHttpClientWithProxy(proxyConfig *ProxyConfig) *HttpClient {
	transport := &http.Transport{
		Proxy: proxyFunc(proxyConfig),
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HttpClient{
		client:      &http.Client{Transport: transport},
		proxyConfig: proxyConfig,
	}
}

func proxyFunc(config *ProxyConfig) func(*http.Request) (*url.URL, error) {
	if config == nil {
		return http.ProxyFromEnvironment
	}

	switch config.Type {
	case ProxyTypeDisabled:
		return func(*http.Request) (*url.URL, error) { return nil, nil }

	case ProxyTypeEnvironment:
		return http.ProxyFromEnvironment

	case ProxyTypeURL:
		if config.URL == "" {
			return func(*http.Request) (*url.URL, error) {
				return nil, errors.New("proxy URL is required when type is \"url\"")
			}
		}

		proxyURL, err := url.Parse(config.URL)
		if err != nil {
			return func(*http.Request) (*url.URL, error) {
				return nil, fmt.Errorf("invalid proxy URL: %w", err)
			}
		}

		if config.Username != "" && config.Password != "" {
			proxyURL.User = url.UserPassword(config.Username, config.Password)
		}

		return http.ProxyURL(proxyURL)

	default:
		return http.ProxyFromEnvironment
	}
}

// Do executes request and returns the fully-read response. A non-2xx status
// is reported as *Error rather than decoded, so callers (the pipeline's
// handleUpstreamErrors) can inspect StatusCode/Body without a type switch
// on a generic error chain.
func (hc *HttpClient) Do(ctx context.Context, request *Request) (*Response, error) {
	rawReq, err := hc.BuildHttpRequest(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP request: %w", err)
	}

	if rawReq.Header.Get("Accept") == "" {
		rawReq.Header.Set("Accept", "application/json")
	}

	rawResp, err := hc.client.Do(rawReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	defer func() {
		if err := rawResp.Body.Close(); err != nil {
			log.Warn(ctx, "failed to close HTTP response body", log.Cause(err))
		}
	}()

	body, err := io.ReadAll(rawResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if rawResp.StatusCode >= http.StatusBadRequest {
		return nil, &Error{
			Method:     rawReq.Method,
			URL:        rawReq.URL.String(),
			StatusCode: rawResp.StatusCode,
			Status:     rawResp.Status,
			Headers:    rawResp.Header,
			Body:       body,
		}
	}

	if log.DebugEnabled(ctx) {
		log.Debug(ctx, "http request completed",
			log.String("method", rawReq.Method),
			log.String("url", rawReq.URL.String()),
			log.Int("status_code", rawResp.StatusCode))
	}

	return &Response{
		StatusCode:  rawResp.StatusCode,
		Headers:     rawResp.Header,
		Body:        body,
		RawResponse: rawResp,
		Request:     request,
		RawRequest:  rawReq,
	}, nil
}

// DoStream executes request expecting a streaming response, and hands the
// still-open body to whichever StreamDecoderFactory the registry has for
// the response's content type, defaulting to raw SSE framing.
func (hc *HttpClient) DoStream(ctx context.Context, request *Request) (StreamDecoder, error) {
	rawReq, err := hc.BuildHttpRequest(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP request: %w", err)
	}

	if rawReq.Header.Get("Accept") == "" {
		rawReq.Header.Set("Accept", "text/event-stream")
	}

	rawReq.Header.Set("Cache-Control", "no-cache")
	rawReq.Header.Set("Connection", "keep-alive")

	rawResp, err := hc.client.Do(rawReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP stream request failed: %w", err)
	}

	if rawResp.StatusCode >= http.StatusBadRequest {
		defer func() {
			if err := rawResp.Body.Close(); err != nil {
				log.Warn(ctx, "failed to close HTTP response body", log.Cause(err))
			}
		}()

		body, err := io.ReadAll(rawResp.Body)
		if err != nil {
			return nil, err
		}

		return nil, &Error{
			Method:     rawReq.Method,
			URL:        rawReq.URL.String(),
			StatusCode: rawResp.StatusCode,
			Status:     rawResp.Status,
			Headers:    rawResp.Header,
			Body:       body,
		}
	}

	contentType := rawResp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/event-stream"
	}

	decoderFactory, exists := GetDecoder(contentType)
	if !exists {
		decoderFactory = NewDefaultSSEDecoder
	}

	return decoderFactory(ctx, rawResp.Body), nil
}

// Fetch executes request and returns the raw upstream Response regardless
// of status code, leaving status/body interpretation to the pipeline's
// blockingDecoder/streamHandler (ADR C6) rather than erroring out the way
// Do/DoStream do. Streaming requests answered with a status of 201 or below
// get Stream populated and left open, and callers are responsible for
// closing it; every other response has its body read into Body.
func (hc *HttpClient) Fetch(ctx context.Context, request *Request, streaming bool) (*Response, error) {
	rawReq, err := hc.BuildHttpRequest(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP request: %w", err)
	}

	if rawReq.Header.Get("Accept") == "" {
		if streaming {
			rawReq.Header.Set("Accept", "text/event-stream")
		} else {
			rawReq.Header.Set("Accept", "application/json")
		}
	}

	if streaming {
		rawReq.Header.Set("Cache-Control", "no-cache")
		rawReq.Header.Set("Connection", "keep-alive")
	}

	rawResp, err := hc.client.Do(rawReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	response := &Response{
		StatusCode: rawResp.StatusCode,
		Headers:    rawResp.Header,
		RawResponse: rawResp,
		Request:    request,
		RawRequest: rawReq,
	}

	if streaming && rawResp.StatusCode <= http.StatusCreated {
		response.Stream = rawResp.Body
		return response, nil
	}

	defer func() {
		if err := rawResp.Body.Close(); err != nil {
			log.Warn(ctx, "failed to close HTTP response body", log.Cause(err))
		}
	}()

	body, err := io.ReadAll(rawResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	response.Body = body

	return response, nil
}

// BuildHttpRequest turns a Request into a wire-ready *http.Request: body
// reader, headers (with auth finalized), library-managed headers stripped,
// and query parameters merged into the URL.
func (hc *HttpClient) BuildHttpRequest(ctx context.Context, request *Request) (*http.Request, error) {
	var body io.Reader
	if len(request.Body) > 0 {
		body = bytes.NewReader(request.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, request.Method, request.URL, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header = request.Headers
	if httpReq.Header == nil {
		httpReq.Header = make(http.Header)
	}

	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", "llmgateway/1.0")
	}

	for k := range libManagedHeaders {
		httpReq.Header.Del(k)
	}

	if request.Auth != nil {
		if err := applyAuth(httpReq.Header, request.Auth); err != nil {
			return nil, fmt.Errorf("failed to apply authentication: %w", err)
		}
	}

	if len(request.Query) > 0 {
		if httpReq.URL.RawQuery != "" {
			httpReq.URL.RawQuery += "&"
		}

		httpReq.URL.RawQuery += request.Query.Encode()
	}

	return httpReq, nil
}

// extractHeaders flattens a multi-value http.Header into a single value per
// key, for callers (e.g. debug logging) that don't need repeated headers.
func (hc *HttpClient) extractHeaders(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))

	for key, values := range headers {
		if len(values) > 0 {
			result[key] = values[0]
		}
	}

	return result
}
