package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coralmesh/llmgateway/llm"
)

func TestRedact(t *testing.T) {
	msg := "key org-AAAAAAAAAAAAAAAAAAAAAAAA is invalid"
	assert.Equal(t, "key org-xxxxxxxxxxxxxxxxxxx is invalid", Redact(msg))
}

func TestDecide_TableRows(t *testing.T) {
	cases := []struct {
		name    string
		service llm.Service
		status  int
		body    ErrorBody
		want    Decision
	}{
		{
			name:    "any 401 disables and replies",
			service: llm.ServiceOpenAI,
			status:  401,
			body:    ErrorBody{Message: "invalid api key"},
			want:    Decision{Action: ActionDisable, DisableReason: DisableRevoked, ClientStatus: 401, ClientNote: "invalid api key"},
		},
		{
			name:    "openai content policy violation refunds",
			service: llm.ServiceOpenAI,
			status:  400,
			body:    ErrorBody{Code: "content_policy_violation", Message: "blocked"},
			want:    Decision{Action: ActionRefund, ClientStatus: 400, ClientNote: "content moderation: blocked"},
		},
		{
			name:    "anthropic missing preamble re-enqueues",
			service: llm.ServiceAnthropic,
			status:  400,
			body:    ErrorBody{Message: "prompt must start with \"\n\nHuman:\" turn"},
			want:    Decision{Action: ActionUpdate, UpdateFlags: map[string]bool{"requiresPreamble": true}, Reenqueue: true},
		},
		{
			name:    "anthropic quota exhausted disables",
			service: llm.ServiceAnthropic,
			status:  400,
			body:    ErrorBody{Message: "Your credit balance is too low"},
			want:    Decision{Action: ActionDisable, DisableReason: DisableQuota, ClientStatus: 400, ClientNote: "Your credit balance is too low"},
		},
		{
			name:    "anthropic multimodal permission error re-enqueues",
			service: llm.ServiceAnthropic,
			status:  403,
			body:    ErrorBody{Type: "permission_error", Message: "multimodal content is not supported"},
			want:    Decision{Action: ActionUpdate, UpdateFlags: map[string]bool{"allowsMultimodality": false}, Reenqueue: true},
		},
		{
			name:    "anthropic 403 other disables and replies",
			service: llm.ServiceAnthropic,
			status:  403,
			body:    ErrorBody{Message: "organization suspended"},
			want:    Decision{Action: ActionDisable, DisableReason: DisableRevoked, ClientStatus: 403, ClientNote: "organization suspended"},
		},
		{
			name:    "aws unrecognized client exception disables and replies",
			service: llm.ServiceAWS,
			status:  403,
			body:    ErrorBody{ErrorType: "UnrecognizedClientException", Message: "the security token included in the request is invalid"},
			want:    Decision{Action: ActionDisable, DisableReason: DisableRevoked, ClientStatus: 403, ClientNote: "the security token included in the request is invalid"},
		},
		{
			name:    "aws access denied specified model id replies without disabling",
			service: llm.ServiceAWS,
			status:  403,
			body:    ErrorBody{ErrorType: "AccessDeniedException", Message: "the specified model ID is invalid"},
			want:    Decision{ClientStatus: 403, ClientNote: "the specified model ID is invalid"},
		},
		{
			name:    "openai access terminated disables and replies",
			service: llm.ServiceOpenAI,
			status:  429,
			body:    ErrorBody{Type: "access_terminated", Message: "account access terminated"},
			want:    Decision{Action: ActionDisable, DisableReason: DisableRevoked, ClientStatus: 429, ClientNote: "account access terminated"},
		},
		{
			name:    "openai requests-per-day replies without re-enqueue",
			service: llm.ServiceOpenAI,
			status:  429,
			body:    ErrorBody{Type: "requests", Message: "You exceeded your current limit on requests per day"},
			want:    Decision{Action: ActionMarkRateLimited, ClientStatus: 429, ClientNote: "per-day rate limit exceeded"},
		},
		{
			name:    "openai requests otherwise re-enqueues",
			service: llm.ServiceOpenAI,
			status:  429,
			body:    ErrorBody{Type: "requests", Message: "rate limited"},
			want:    Decision{Action: ActionMarkRateLimited, Reenqueue: true},
		},
		{
			name:    "anthropic rate_limit_error re-enqueues",
			service: llm.ServiceAnthropic,
			status:  429,
			body:    ErrorBody{Type: "rate_limit_error"},
			want:    Decision{Action: ActionMarkRateLimited, Reenqueue: true},
		},
		{
			name:    "aws throttling re-enqueues",
			service: llm.ServiceAWS,
			status:  429,
			body:    ErrorBody{ErrorType: "ThrottlingException"},
			want:    Decision{Action: ActionMarkRateLimited, Reenqueue: true},
		},
		{
			name:    "aws model not ready replies",
			service: llm.ServiceAWS,
			status:  429,
			body:    ErrorBody{ErrorType: "ModelNotReadyException"},
			want:    Decision{ClientStatus: 429, ClientNote: "overloaded, try again"},
		},
		{
			name:    "mistral 429 code re-enqueues",
			service: llm.ServiceMistralAI,
			status:  429,
			body:    ErrorBody{Code: "429"},
			want:    Decision{Action: ActionMarkRateLimited, Reenqueue: true},
		},
		{
			name:    "google resource exhausted re-enqueues",
			service: llm.ServiceGoogleAI,
			status:  429,
			body:    ErrorBody{Status: "RESOURCE_EXHAUSTED"},
			want:    Decision{Action: ActionMarkRateLimited, Reenqueue: true},
		},
		{
			name:    "openai model not found names the model",
			service: llm.ServiceOpenAI,
			status:  404,
			body:    ErrorBody{Code: "model_not_found", Message: "no such model"},
			want:    Decision{ClientStatus: 404, ClientNote: "model not found: no such model"},
		},
		{
			name:    "anthropic 404 generic note",
			service: llm.ServiceAnthropic,
			status:  404,
			body:    ErrorBody{},
			want:    Decision{ClientStatus: 404, ClientNote: "model may not exist or key not provisioned"},
		},
		{
			name:    "unrecognized status falls through",
			service: llm.ServiceOpenAI,
			status:  418,
			body:    ErrorBody{Message: "teapot"},
			want:    Decision{ClientStatus: 400, ClientNote: "Unrecognized error: teapot"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.service, tc.status, tc.body)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecide_RedactsOrgIDInClientNote(t *testing.T) {
	got := Decide(llm.ServiceOpenAI, 401, ErrorBody{Message: "org-AAAAAAAAAAAAAAAAAAAAAAAA revoked"})
	assert.Equal(t, "org-xxxxxxxxxxxxxxxxxxx revoked", got.ClientNote)
}
