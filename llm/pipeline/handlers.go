package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coralmesh/llmgateway/internal/pkg/xmap"
	"github.com/coralmesh/llmgateway/llm"
	"github.com/coralmesh/llmgateway/llm/imagemirror"
	"github.com/coralmesh/llmgateway/llm/perr"
	"github.com/coralmesh/llmgateway/llm/policy"
)

// trackKeyRateLimit records the rate-limit window the upstream advertised
// for the leased key, from whichever response headers are present. It runs
// first on both handler lists since every other handler may short-circuit.
func (p *Pipeline) trackKeyRateLimit(ctx context.Context, _ *gin.Context, rc *llm.RequestContext, result *Result) error {
	if p.KeyPool == nil || rc.Key == nil || result.Headers == nil {
		return nil
	}

	return p.KeyPool.UpdateRateLimits(ctx, rc.Key.Hash, map[string][]string(result.Headers))
}

// injectProxyInfo annotates a JSON-object result body with the proxy's
// retry count (`_proxy_retry_count`) when a key has been leased. The key's
// hash is not added.
func (p *Pipeline) injectProxyInfo(_ context.Context, _ *gin.Context, rc *llm.RequestContext, result *Result) error {
	if body, ok := result.Body.(map[string]any); ok && rc.Key != nil {
		body["_proxy_retry_count"] = rc.RetryCount
	}

	return nil
}

// handleUpstreamErrors implements ADR C7: the blocking-only error
// adjudication table. A 2xx result is a no-op; otherwise it parses the
// error body, consults policy.Decide, applies the pool action, and either
// raises *perr.Retryable (re-enqueued, nothing written) or writes the
// client-facing reply and raises *perr.HttpError.
func (p *Pipeline) handleUpstreamErrors(ctx context.Context, c *gin.Context, rc *llm.RequestContext, result *Result) error {
	if result.StatusCode < http.StatusBadRequest {
		return nil
	}

	body, errType := parseErrorBody(result.Raw)
	if errType == "" && result.StatusCode >= http.StatusInternalServerError {
		// Unparseable body on a hard upstream failure: write a generic
		// reply rather than guessing at an error shape that doesn't exist.
		return p.writeHTTPError(c, rc, http.StatusInternalServerError, "temporary upstream error")
	}

	errorType := headerErrorType(result.Headers)
	if errorType != "" {
		body.ErrorType = errorType
	}

	decision := policy.Decide(rc.Service, result.StatusCode, body)

	if rc.Key != nil && p.KeyPool != nil {
		switch decision.Action {
		case policy.ActionDisable:
			if err := p.KeyPool.Disable(ctx, rc.Key.Hash, string(decision.DisableReason)); err != nil {
				return err
			}
		case policy.ActionMarkRateLimited:
			if err := p.KeyPool.MarkRateLimited(ctx, rc.Key.Hash); err != nil {
				return err
			}
		case policy.ActionUpdate:
			if err := p.KeyPool.Update(ctx, rc.Key.Hash, decision.UpdateFlags); err != nil {
				return err
			}
		}
	}

	if decision.Reenqueue {
		rc.RetryCount++

		if p.Queue != nil {
			if err := p.Queue.ReenqueueRequest(ctx, rc.ID, rc.RetryCount); err != nil {
				return err
			}
		}

		return perr.NewRetryable("upstream error: re-enqueued")
	}

	return p.writeHTTPError(c, rc, decision.ClientStatus, decision.ClientNote)
}

func (p *Pipeline) writeHTTPError(c *gin.Context, rc *llm.RequestContext, status int, note string) error {
	rc.ResponseHeaders = c.Writer.Header()
	c.JSON(status, gin.H{
		"error": gin.H{
			"type":    "proxy_upstream_error",
			"message": note,
		},
	})

	return perr.NewHttpError(status, perr.NewValidationError(note))
}

// parseErrorBody decodes an upstream error body into policy.ErrorBody,
// accepting either the common {"error": {...}} envelope (OpenAI, Anthropic,
// Azure, Mistral) or a bare top-level object (Google's {status: "..."}).
// The returned errType string is non-empty only when parsing succeeded, so
// callers can distinguish "no error object" from "not JSON at all".
func parseErrorBody(raw []byte) (policy.ErrorBody, string) {
	var top map[string]any
	if err := json.Unmarshal(raw, &top); err != nil {
		return policy.ErrorBody{}, ""
	}

	body := policy.ErrorBody{}

	if status := xmap.GetStringPtr(top, "status"); status != nil {
		body.Status = *status
	}

	inner, _ := top["error"].(map[string]any)
	if inner == nil {
		inner = top
	}

	if v := xmap.GetStringPtr(inner, "code"); v != nil {
		body.Code = *v
	}

	if v := xmap.GetStringPtr(inner, "type"); v != nil {
		body.Type = *v
	}

	if v := xmap.GetStringPtr(inner, "message"); v != nil {
		body.Message = *v
	}

	return body, "ok"
}

// headerErrorType recovers AWS's `x-amzn-errortype` response header, which
// carries the exception type (e.g. "ThrottlingException") ahead of an
// optional ":<url>" suffix.
func headerErrorType(headers http.Header) string {
	if headers == nil {
		return ""
	}

	v := headers.Get("X-Amzn-Errortype")
	if v == "" {
		return ""
	}

	if before, _, ok := strings.Cut(v, ":"); ok {
		return before
	}

	return v
}

// countResponseTokens delegates to the external TokenCounter, if any, and
// records promptTokens/outputTokens on rc for incrementUsage and logging.
func (p *Pipeline) countResponseTokens(ctx context.Context, _ *gin.Context, rc *llm.RequestContext, result *Result) error {
	if p.TokenCounter == nil {
		return nil
	}

	prompt, output, err := p.TokenCounter.CountTokens(ctx, rc, result.Body)
	if err != nil {
		return err
	}

	rc.PromptTokens = prompt
	rc.OutputTokens = output

	return nil
}

// incrementUsage reports the counted tokens against the leased key.
func (p *Pipeline) incrementUsage(ctx context.Context, _ *gin.Context, rc *llm.RequestContext, _ *Result) error {
	if p.KeyPool == nil || rc.Key == nil {
		return nil
	}

	return p.KeyPool.IncrementUsage(ctx, rc.Key.Hash, rc.PromptTokens, rc.OutputTokens)
}

// blockedResponseHeaders are never copied verbatim from the upstream
// response: both describe the wire encoding of the (already-decoded) body
// this pipeline is about to re-serialize.
var blockedResponseHeaders = map[string]bool{
	"Content-Encoding":  true,
	"Transfer-Encoding": true,
}

// copyHTTPHeaders copies every upstream response header to the client
// response except content-encoding and transfer-encoding, per §6.
func (p *Pipeline) copyHTTPHeaders(_ context.Context, c *gin.Context, _ *llm.RequestContext, result *Result) error {
	for key, values := range result.Headers {
		if blockedResponseHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}

		for _, v := range values {
			c.Writer.Header().Add(key, v)
		}
	}

	return nil
}

// saveImage implements ADR C8: when the outbound dialect is openai-image
// and the decoded body carries a `data` array, mirror every item to local
// asset storage and rewrite its URL in place.
func (p *Pipeline) saveImage(ctx context.Context, _ *gin.Context, rc *llm.RequestContext, result *Result) error {
	if p.Mirror == nil || rc.OutboundAPI != llm.APIFormatOpenAIImage {
		return nil
	}

	body, ok := result.Body.(map[string]any)
	if !ok {
		return nil
	}

	rawData, ok := body["data"]
	if !ok {
		return nil
	}

	encoded, err := json.Marshal(rawData)
	if err != nil {
		return nil
	}

	var items []imagemirror.Item
	if err := json.Unmarshal(encoded, &items); err != nil {
		return nil
	}

	prompt, _ := requestPrompt(rc.Body)

	if err := p.Mirror.Apply(ctx, items, prompt, userToken(rc)); err != nil {
		return err
	}

	mirrored, err := json.Marshal(items)
	if err != nil {
		return err
	}

	var asAny []any
	if err := json.Unmarshal(mirrored, &asAny); err != nil {
		return err
	}

	body["data"] = asAny

	return nil
}

func requestPrompt(body any) (string, bool) {
	m, ok := body.(map[string]any)
	if !ok {
		return "", false
	}

	v, ok := m["prompt"].(string)

	return v, ok
}

func userToken(rc *llm.RequestContext) string {
	if rc.Key == nil {
		return ""
	}

	return rc.Key.Hash
}

// writeResponse serializes the blocking path's final body to the client.
// It runs after saveImage so URL rewrites are reflected in what's sent.
func (p *Pipeline) writeResponse(_ context.Context, c *gin.Context, rc *llm.RequestContext, result *Result) error {
	rc.ResponseHeaders = c.Writer.Header()

	switch body := result.Body.(type) {
	case string:
		c.String(result.StatusCode, "%s", body)
	default:
		c.JSON(result.StatusCode, body)
	}

	return nil
}

// logPrompt forwards the request's body to the configured event sink.
func (p *Pipeline) logPrompt(ctx context.Context, _ *gin.Context, rc *llm.RequestContext, _ *Result) error {
	if rc.Log == nil {
		return nil
	}

	rc.Log.LogPrompt(ctx, rc.Body)

	return nil
}

// logEvent forwards a terminal bookkeeping event to the configured sink.
func (p *Pipeline) logEvent(ctx context.Context, _ *gin.Context, rc *llm.RequestContext, result *Result) error {
	if rc.Log == nil {
		return nil
	}

	rc.Log.LogEvent(ctx, "response.completed", map[string]any{
		"request_id":    rc.ID,
		"status_code":   result.StatusCode,
		"prompt_tokens": rc.PromptTokens,
		"output_tokens": rc.OutputTokens,
		"retry_count":   rc.RetryCount,
	})

	return nil
}
