package dialect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateOpenAIChat_Defaults(t *testing.T) {
	body := `{"model":"gpt-4","messages":[{"role":"user","content":"hi"}]}`

	req, err := ValidateOpenAIChat([]byte(body), DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, float64(1), req.Temperature)
	require.Equal(t, float64(1), req.TopP)
	require.Equal(t, int64(16), req.MaxTokens)
	require.False(t, req.Stream)
}

func TestValidateOpenAIChat_RejectsMultipleN(t *testing.T) {
	body := `{"model":"gpt-4","messages":[{"role":"user","content":"hi"}],"n":2}`

	_, err := ValidateOpenAIChat([]byte(body), DefaultLimits())
	require.Error(t, err)
}

func TestValidateOpenAIChat_ClampsMaxTokens(t *testing.T) {
	limits := Limits{OpenAIMaxTokens: 100}
	body := `{"model":"gpt-4","messages":[{"role":"user","content":"hi"}],"max_tokens":999999}`

	req, err := ValidateOpenAIChat([]byte(body), limits)
	require.NoError(t, err)
	require.Equal(t, int64(100), req.MaxTokens)
}

func TestValidateAnthropicComplete_ClampsMaxTokensToSample(t *testing.T) {
	limits := Limits{AnthropicMaxTokensToSample: 50}
	body := `{"model":"claude-2","prompt":"\n\nHuman: hi\n\nAssistant:","max_tokens_to_sample":999}`

	req, err := ValidateAnthropicComplete([]byte(body), limits)
	require.NoError(t, err)
	require.Equal(t, int64(50), req.MaxTokensToSample)
	require.Equal(t, float64(1), req.Temperature)
}

func TestValidateGoogleGenerateContent_ClampsAndDefaults(t *testing.T) {
	limits := Limits{GoogleMaxOutputTokens: 1024}
	body := `{"model":"gemini-pro","contents":[{"parts":[{"text":"hi"}],"role":"user"}],"generationConfig":{"maxOutputTokens":99999}}`

	req, err := ValidateGoogleGenerateContent([]byte(body), limits)
	require.NoError(t, err)
	require.Equal(t, int64(1024), req.GenerationConfig.MaxOutputTokens)
	require.Equal(t, int64(1), req.GenerationConfig.CandidateCount)
}

func TestMistralNormalize_Idempotent(t *testing.T) {
	in := []MistralMessage{
		{Role: RoleSystem, Content: "sys1"},
		{Role: RoleSystem, Content: "sys2"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleAssistant, Content: "there"},
	}

	once := NormalizeMistralMessages(in)
	twice := NormalizeMistralMessages(once)

	require.Equal(t, once, twice)

	systemCount := 0

	for i, m := range once {
		if m.Role == RoleSystem {
			systemCount++
			require.Equal(t, 0, i, "system message must be first")
		}

		if i > 0 {
			require.NotEqual(t, once[i-1].Role, m.Role, "no two adjacent messages share a role")
		}
	}

	require.LessOrEqual(t, systemCount, 1)
	require.Equal(t, RoleUser, once[len(once)-1].Role)
}

func TestValidateOpenAIImage_Defaults(t *testing.T) {
	body := `{"prompt":"a cat"}`

	req, err := ValidateOpenAIImage([]byte(body))
	require.NoError(t, err)
	require.Equal(t, "standard", req.Quality)
	require.Equal(t, int64(1), req.N)
	require.Equal(t, "1024x1024", req.Size)
	require.Equal(t, "vivid", req.Style)
}

func TestValidateMistralChat_ClampsMaxTokens(t *testing.T) {
	limits := Limits{OpenAIMaxTokens: 10}
	body := `{"model":"mistral-tiny","messages":[{"role":"user","content":"hi"}],"max_tokens":9999}`

	req, err := ValidateMistralChat([]byte(body), limits)
	require.NoError(t, err)
	require.Equal(t, int64(10), req.MaxTokens)
}

func TestStopUnmarshalString(t *testing.T) {
	var s Stop

	require.NoError(t, json.Unmarshal([]byte(`"END"`), &s))
	require.Equal(t, []string{"END"}, s.AsSlice())
}
