package pipeline

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coralmesh/llmgateway/llm"
	"github.com/coralmesh/llmgateway/llm/httpclient"
)

type fakeSink struct {
	events []map[string]any
}

func (f *fakeSink) LogPrompt(context.Context, any) {}

func (f *fakeSink) LogEvent(_ context.Context, name string, fields map[string]any) {
	fields["_name"] = name
	f.events = append(f.events, fields)
}

func TestRun_StreamingPassthrough(t *testing.T) {
	body := "data: {\"id\":\"x\",\"created\":1,\"model\":\"gpt\",\"choices\":[{\"delta\":{\"role\":\"assistant\",\"content\":\"Hello\"}}]}\n\n" +
		"data: {\"id\":\"x\",\"created\":1,\"model\":\"gpt\",\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n" +
		"data: {\"id\":\"x\",\"created\":1,\"model\":\"gpt\",\"choices\":[{\"delta\":{\"content\":\"!\"},\"finish_reason\":\"stop\"}]}\n\n" +
		"data: [DONE]\n\n"

	upstream := &httpclient.Response{
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": {"text/event-stream"}},
		Stream:     io.NopCloser(strings.NewReader(body)),
	}

	sink := &fakeSink{}
	rc := &llm.RequestContext{
		ID:          "req-stream",
		InboundAPI:  llm.APIFormatOpenAIChat,
		OutboundAPI: llm.APIFormatOpenAIChat,
		IsStreaming: true,
		Log:         sink,
	}

	c, rec := testGinContext()

	p := New(nil, nil, nil, nil)
	p.Run(t.Context(), c, rc, upstream)

	out := rec.Body.String()
	assert.Contains(t, out, `"Hello"`)
	assert.Contains(t, out, `" world"`)
	assert.True(t, strings.HasSuffix(out, "data: [DONE]\n\n"))
	require.Len(t, sink.events, 1)
	assert.Equal(t, "response.completed", sink.events[0]["_name"])
}

func TestRun_StreamingFallsBackToBlockingOnErrorStatus(t *testing.T) {
	upstream := &httpclient.Response{
		StatusCode: 500,
		Headers:    http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(`{"error":{"message":"boom"}}`),
	}

	rc := &llm.RequestContext{
		ID:          "req-fallback",
		InboundAPI:  llm.APIFormatOpenAIChat,
		OutboundAPI: llm.APIFormatOpenAIChat,
		Service:     llm.ServiceOpenAI,
		IsStreaming: true,
	}

	c, rec := testGinContext()

	p := New(nil, nil, nil, nil)
	p.Run(t.Context(), c, rc, upstream)

	assert.False(t, rc.IsStreaming)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRun_BlockingJSONResponse(t *testing.T) {
	upstream := &httpclient.Response{
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(`{"id":"abc","choices":[{"text":"hi"}]}`),
	}

	rc := &llm.RequestContext{
		ID:          "req-blocking",
		OutboundAPI: llm.APIFormatOpenAIText,
		Service:     llm.ServiceOpenAI,
		IsStreaming: false,
	}

	c, rec := testGinContext()

	p := New(nil, nil, nil, nil)
	p.Run(t.Context(), c, rc, upstream)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"abc"`)
}
