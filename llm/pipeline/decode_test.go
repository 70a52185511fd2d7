package pipeline

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coralmesh/llmgateway/llm"
	"github.com/coralmesh/llmgateway/llm/httpclient"
)

func TestBlockingDecoder_JSONBody(t *testing.T) {
	p := New(nil, nil, nil, nil)

	upstream := &httpclient.Response{
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(`{"choices":[{"text":"hi"}]}`),
	}

	result, err := p.blockingDecoder(t.Context(), &llm.RequestContext{}, upstream)
	require.NoError(t, err)

	body, ok := result.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 200, result.StatusCode)
	assert.NotEmpty(t, body["choices"])
}

func TestBlockingDecoder_GzipBody(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(`{"ok":true}`))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	p := New(nil, nil, nil, nil)
	upstream := &httpclient.Response{
		StatusCode: 200,
		Headers: http.Header{
			"Content-Type":     {"application/json"},
			"Content-Encoding": {"gzip"},
		},
		Body: buf.Bytes(),
	}

	result, err := p.blockingDecoder(t.Context(), &llm.RequestContext{}, upstream)
	require.NoError(t, err)

	body, ok := result.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, body["ok"])
}

func TestBlockingDecoder_NonJSONBody(t *testing.T) {
	p := New(nil, nil, nil, nil)
	upstream := &httpclient.Response{
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": {"text/plain"}},
		Body:       []byte("plain text"),
	}

	result, err := p.blockingDecoder(t.Context(), &llm.RequestContext{}, upstream)
	require.NoError(t, err)
	assert.Equal(t, "plain text", result.Body)
}

func TestBlockingDecoder_UnsupportedEncoding(t *testing.T) {
	p := New(nil, nil, nil, nil)
	upstream := &httpclient.Response{
		StatusCode: 200,
		Headers: http.Header{
			"Content-Type":     {"application/json"},
			"Content-Encoding": {"br"},
		},
		Body: []byte(`{}`),
	}

	_, err := p.blockingDecoder(t.Context(), &llm.RequestContext{}, upstream)
	require.Error(t, err)
}
