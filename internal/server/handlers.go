package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coralmesh/llmgateway/internal/config"
	"github.com/coralmesh/llmgateway/internal/log"
	"github.com/coralmesh/llmgateway/llm"
	"github.com/coralmesh/llmgateway/llm/dialect"
	"github.com/coralmesh/llmgateway/llm/httpclient"
	"github.com/coralmesh/llmgateway/llm/pipeline"
	"github.com/coralmesh/llmgateway/llm/transform"
	"github.com/coralmesh/llmgateway/llm/transformer"
)

// Gateway wires the core (transform, pipeline) to the external
// collaborators (key pool, queue, token counter, event sink) and the
// configured upstreams, producing one gin.HandlerFunc per inbound dialect.
type Gateway struct {
	limits     dialect.Limits
	upstreams  map[string]config.Upstream
	router     *Router
	pool       *MemoryPool
	pipeline   *pipeline.Pipeline
	httpClient *httpclient.HttpClient
}

func NewGateway(cfg config.Config, pool *MemoryPool, queue *MemoryQueue, mirrorPipeline *pipeline.Pipeline, client *httpclient.HttpClient) *Gateway {
	return &Gateway{
		limits:     cfg.Limits.ToDialectLimits(),
		upstreams:  cfg.Upstreams,
		router:     NewRouter(cfg.Channels),
		pool:       pool,
		pipeline:   mirrorPipeline,
		httpClient: client,
	}
}

// Handle returns the gin handler for one inbound dialect, serving as the
// HTTP entry point that owns a request's RequestContext for the duration
// of its (here, single) attempt per §3.
func (g *Gateway) Handle(inboundAPI llm.APIFormat, defaultService llm.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"type": "proxy_decode_error", "message": err.Error()}})
			return
		}

		outboundAPI, service := g.router.Resolve(peekModel(raw), inboundAPI, defaultService)

		rc := &llm.RequestContext{
			ID:          requestIDFromContext(c),
			InboundAPI:  inboundAPI,
			OutboundAPI: outboundAPI,
			Service:     service,
			IsStreaming: peekStream(raw),
			Log:         LogSink{},
		}

		if inboundAPI == llm.APIFormatAnthropic {
			rc.AnthropicVersion = c.GetHeader("anthropic-version")
		}

		outboundBody, headers, err := transform.Transform(inboundAPI, outboundAPI, raw, g.limits)
		if err != nil {
			writeValidationError(c, err)
			return
		}

		rc.Body = outboundBody
		rc.Transformed = true

		key, err := g.pool.Lease(ctx, string(service), nil)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{"type": "proxy_no_credential", "message": err.Error()},
			})

			return
		}

		rc.Key = &llm.Key{Hash: key.Hash, Service: service, Capabilities: key.Capabilities}

		upstream, err := g.dispatch(ctx, rc, headers)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"error": gin.H{"type": "proxy_dispatch_error", "message": err.Error()},
			})

			return
		}

		g.pipeline.Run(ctx, c, rc, upstream)
	}
}

func requestIDFromContext(c *gin.Context) string {
	if v, ok := c.Get(requestIDContextKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}

	return newRequestID()
}

func writeValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{
			"type":       "proxy_validation_error",
			"message":    err.Error(),
			"proxy_note": "request failed dialect validation or conversion",
		},
	})
}

// dispatch builds the outbound httpclient.Request for rc and fetches it,
// leaving a streaming response's body open for the pipeline's streamHandler.
func (g *Gateway) dispatch(ctx context.Context, rc *llm.RequestContext, extraHeaders http.Header) (*httpclient.Response, error) {
	up, ok := g.upstreams[string(rc.Service)]
	if !ok {
		return nil, fmt.Errorf("no upstream configured for service %q", rc.Service)
	}

	bodyBytes, err := json.Marshal(rc.Body)
	if err != nil {
		return nil, err
	}

	headers := http.Header{"Content-Type": []string{"application/json"}}
	for k, vs := range extraHeaders {
		headers[k] = vs
	}

	if rc.OutboundAPI == llm.APIFormatAnthropic && headers.Get("anthropic-version") == "" {
		headers.Set("anthropic-version", "2023-06-01")
	}

	apiKey, authType, headerKey, _ := g.pool.AuthConfig(rc.Key.Hash)

	baseURL := transformer.NormalizeBaseURL(up.BaseURL, outboundVersion(rc.OutboundAPI))

	req := &httpclient.Request{
		Method:      http.MethodPost,
		URL:         baseURL + dispatchPath(rc),
		Headers:     headers,
		ContentType: "application/json",
		Body:        bodyBytes,
		RequestID:   rc.ID,
		Auth: &httpclient.AuthConfig{
			Type:      authType,
			APIKey:    apiKey,
			HeaderKey: headerKey,
		},
	}

	log.Debug(ctx, "dispatching upstream request", log.String("url", req.URL), log.Bool("streaming", rc.IsStreaming))

	return g.httpClient.Fetch(ctx, req, rc.IsStreaming)
}

// outboundVersion is the path segment NormalizeBaseURL should ensure the
// configured base URL ends with, for dialects whose dispatchPath is a bare
// resource path rather than already carrying its own version prefix.
func outboundVersion(outboundAPI llm.APIFormat) string {
	switch outboundAPI {
	case llm.APIFormatOpenAIChat, llm.APIFormatOpenAIText, llm.APIFormatOpenAIImage:
		return "v1"
	default:
		return ""
	}
}

// dispatchPath returns the upstream's request path for rc's outbound
// dialect, mirroring each provider's real wire route.
func dispatchPath(rc *llm.RequestContext) string {
	switch rc.OutboundAPI {
	case llm.APIFormatOpenAIChat:
		return "/chat/completions"
	case llm.APIFormatOpenAIText:
		return "/completions"
	case llm.APIFormatOpenAIImage:
		return "/images/generations"
	case llm.APIFormatAnthropic:
		return "/v1/complete"
	case llm.APIFormatMistralAI:
		return "/v1/chat/completions"
	case llm.APIFormatGoogleAI:
		model := "gemini-pro"
		if req, ok := rc.Body.(*dialect.GoogleGenerateContentRequest); ok && req.Model != "" {
			model = req.Model
		}

		method := "generateContent"
		if rc.IsStreaming {
			method = "streamGenerateContent"
		}

		return "/v1beta/models/" + model + ":" + method
	default:
		return "/"
	}
}
