package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coralmesh/llmgateway/llm"
	"github.com/coralmesh/llmgateway/llm/httpclient"
)

func TestParse_OpenAIChatChunk(t *testing.T) {
	raw := &httpclient.StreamEvent{Data: []byte(`{"id":"1","created":1,"model":"gpt-3.5-turbo","choices":[{"delta":{"role":"assistant","content":"hi"}}]}`)}

	e, err := Parse(llm.APIFormatOpenAIChat, raw)
	require.NoError(t, err)
	assert.Equal(t, "hi", e.DeltaText)
	assert.Equal(t, "assistant", e.Role)
}

func TestParse_DoneSentinel(t *testing.T) {
	raw := &httpclient.StreamEvent{Data: []byte("[DONE]")}

	e, err := Parse(llm.APIFormatOpenAIChat, raw)
	require.NoError(t, err)
	assert.True(t, e.Done)
}

func TestEmit_PassthroughWhenDialectsMatch(t *testing.T) {
	raw := &httpclient.StreamEvent{Data: []byte(`{"id":"1"}`)}
	e := &Canonical{DeltaText: "hi"}

	out, err := Emit(llm.APIFormatOpenAIChat, llm.APIFormatOpenAIChat, raw, e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(out))
}

func TestEmit_ReframesAnthropicAsOpenAIChatChunk(t *testing.T) {
	raw := &httpclient.StreamEvent{Data: []byte(`{"completion":"hi","model":"claude-2"}`)}
	e := &Canonical{Model: "claude-2", DeltaText: "hi"}

	out, err := Emit(llm.APIFormatOpenAIChat, llm.APIFormatAnthropic, raw, e)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "chat.completion.chunk", decoded["object"])
}

func TestAggregator_FoldsDeltasIntoOpenAIChatCompletion(t *testing.T) {
	agg := NewAggregator(llm.APIFormatOpenAIChat)
	agg.Add(&Canonical{ID: "1", Model: "gpt-3.5-turbo", Role: "assistant", DeltaText: "Hello"})
	agg.Add(&Canonical{DeltaText: ", world"})
	agg.Add(&Canonical{FinishReason: "stop"})

	final, err := agg.Final()
	require.NoError(t, err)

	data, err := json.Marshal(final)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	choices := decoded["choices"].([]any)
	msg := choices[0].(map[string]any)["message"].(map[string]any)
	assert.Equal(t, "Hello, world", msg["content"])
	assert.Equal(t, "stop", choices[0].(map[string]any)["finish_reason"])
}

func TestAggregator_GoogleOutboundShape(t *testing.T) {
	agg := NewAggregator(llm.APIFormatGoogleAI)
	agg.Add(&Canonical{DeltaText: "hi"})

	final, err := agg.Final()
	require.NoError(t, err)

	data, _ := json.Marshal(final)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "candidates")
}

func TestAggregator_ImageOutboundUnsupported(t *testing.T) {
	agg := NewAggregator(llm.APIFormatOpenAIImage)

	_, err := agg.Final()
	assert.Error(t, err)
}
