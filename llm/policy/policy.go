// Package policy implements the upstream error adjudication of ADR C7:
// given a non-2xx upstream response, decide whether to disable the leased
// credential, mark it rate-limited, adjust a capability flag and
// re-enqueue, or surface a client-facing error.
package policy

import (
	"regexp"
	"strings"

	"github.com/coralmesh/llmgateway/llm"
)

// Action is what the pool/queue must do in response to a Decision.
type Action string

const (
	ActionNone            Action = "none"
	ActionDisable         Action = "disable"
	ActionMarkRateLimited Action = "mark_rate_limited"
	ActionUpdate          Action = "update"
	ActionRefund          Action = "refund"
)

// DisableReason is the pool's disable-reason tag.
type DisableReason string

const (
	DisableRevoked DisableReason = "revoked"
	DisableQuota   DisableReason = "quota"
)

// ErrorBody is the minimal parsed shape of an upstream error body this
// package inspects; callers decode the provider's JSON into this shape
// (OpenAI/Anthropic/Google/AWS error envelopes all map onto the same
// fields after JSON decoding).
type ErrorBody struct {
	Code      string
	Type      string
	Message   string
	Status    string // Google's {status: "RESOURCE_EXHAUSTED"}
	ErrorType string // AWS's :exception-type header value
}

// Decision is the policy's verdict for one upstream error response.
type Decision struct {
	Action        Action
	DisableReason DisableReason
	UpdateFlags   map[string]bool
	Reenqueue     bool // Retryable: re-enqueue, write nothing to the client
	ClientStatus  int  // 0 when Reenqueue is true
	ClientNote    string
}

var orgIDPattern = regexp.MustCompile(`org-.{24}`)

// Redact replaces any substring matching org-<24 chars> in msg with the
// fixed placeholder, so a credential-bearing organization ID never reaches
// a client-facing error message.
func Redact(msg string) string {
	return orgIDPattern.ReplaceAllString(msg, "org-xxxxxxxxxxxxxxxxxxx")
}

var (
	reMissingPreamble = regexp.MustCompile(`^prompt must start with "\n\nHuman:" turn`)
	reUsageBlocked     = regexp.MustCompile(`(?i)usage blocked until|credit balance is too low`)
	reOrgDisabled      = regexp.MustCompile(`(?i)organization has been disabled`)
	rePerDay           = regexp.MustCompile(`on requests per day`)
)

// Decide implements the §4.7 decision table. statusCode is the upstream
// HTTP status; service identifies the provider tag the leased credential
// belongs to.
func Decide(service llm.Service, statusCode int, body ErrorBody) Decision {
	switch {
	case statusCode == 401:
		return Decision{Action: ActionDisable, DisableReason: DisableRevoked, ClientStatus: 401, ClientNote: Redact(body.Message)}

	case statusCode == 400 && isContentPolicyService(service) && (body.Code == "content_policy_violation" || body.Code == "content_filter"):
		return Decision{Action: ActionRefund, ClientStatus: 400, ClientNote: "content moderation: " + Redact(body.Message)}

	case statusCode == 400 && service == llm.ServiceOpenAI && body.Code == "billing_hard_limit_reached":
		return decideOpenAI429(service, ErrorBody{Type: "insufficient_quota", Message: body.Message})

	case statusCode == 400 && (service == llm.ServiceAnthropic || service == llm.ServiceAWS) && reMissingPreamble.MatchString(body.Message):
		return Decision{Action: ActionUpdate, UpdateFlags: map[string]bool{"requiresPreamble": true}, Reenqueue: true}

	case statusCode == 400 && service == llm.ServiceAnthropic && reUsageBlocked.MatchString(body.Message):
		return Decision{Action: ActionDisable, DisableReason: DisableQuota, ClientStatus: 400, ClientNote: Redact(body.Message)}

	case statusCode == 400 && service == llm.ServiceAnthropic && reOrgDisabled.MatchString(body.Message):
		return Decision{Action: ActionDisable, DisableReason: DisableRevoked, ClientStatus: 400, ClientNote: Redact(body.Message)}

	case statusCode == 403 && service == llm.ServiceAnthropic && body.Type == "permission_error" && strings.Contains(body.Message, "multimodal"):
		return Decision{Action: ActionUpdate, UpdateFlags: map[string]bool{"allowsMultimodality": false}, Reenqueue: true}

	case statusCode == 403 && service == llm.ServiceAnthropic:
		return Decision{Action: ActionDisable, DisableReason: DisableRevoked, ClientStatus: 403, ClientNote: Redact(body.Message)}

	case statusCode == 403 && service == llm.ServiceAWS && body.ErrorType == "UnrecognizedClientException":
		return Decision{Action: ActionDisable, DisableReason: DisableRevoked, ClientStatus: 403, ClientNote: Redact(body.Message)}

	case statusCode == 403 && service == llm.ServiceAWS && body.ErrorType == "AccessDeniedException" && strings.Contains(body.Message, "specified model ID"):
		return Decision{ClientStatus: 403, ClientNote: Redact(body.Message)}

	case statusCode == 403 && service == llm.ServiceAWS && body.ErrorType == "AccessDeniedException":
		return Decision{Action: ActionDisable, DisableReason: DisableRevoked, ClientStatus: 403, ClientNote: Redact(body.Message)}

	case statusCode == 429 && service == llm.ServiceOpenAI:
		return decideOpenAI429(service, body)

	case statusCode == 429 && service == llm.ServiceAnthropic && body.Type == "rate_limit_error":
		return Decision{Action: ActionMarkRateLimited, Reenqueue: true}

	case statusCode == 429 && service == llm.ServiceAWS && body.ErrorType == "ThrottlingException":
		return Decision{Action: ActionMarkRateLimited, Reenqueue: true}

	case statusCode == 429 && service == llm.ServiceAWS && body.ErrorType == "ModelNotReadyException":
		return Decision{ClientStatus: 429, ClientNote: "overloaded, try again"}

	case statusCode == 429 && (service == llm.ServiceAzure || service == llm.ServiceMistralAI) && body.Code == "429":
		return Decision{Action: ActionMarkRateLimited, Reenqueue: true}

	case statusCode == 429 && service == llm.ServiceGoogleAI && body.Status == "RESOURCE_EXHAUSTED":
		return Decision{Action: ActionMarkRateLimited, Reenqueue: true}

	case statusCode == 404 && service == llm.ServiceOpenAI && body.Code == "model_not_found":
		return Decision{ClientStatus: 404, ClientNote: "model not found: " + Redact(body.Message)}

	case statusCode == 404:
		return Decision{ClientStatus: 404, ClientNote: "model may not exist or key not provisioned"}

	default:
		return Decision{ClientStatus: 400, ClientNote: "Unrecognized error: " + Redact(body.Message)}
	}
}

func decideOpenAI429(_ llm.Service, body ErrorBody) Decision {
	switch {
	case body.Type == "insufficient_quota" || body.Type == "invalid_request_error" || body.Type == "billing_not_active":
		reason := DisableQuota
		if body.Type == "invalid_request_error" {
			reason = DisableRevoked
		}

		return Decision{Action: ActionDisable, DisableReason: reason, ClientStatus: 429, ClientNote: Redact(body.Message)}

	case body.Type == "access_terminated":
		return Decision{Action: ActionDisable, DisableReason: DisableRevoked, ClientStatus: 429, ClientNote: Redact(body.Message)}

	case (body.Type == "requests" || body.Type == "tokens") && rePerDay.MatchString(body.Message):
		return Decision{Action: ActionMarkRateLimited, ClientStatus: 429, ClientNote: "per-day rate limit exceeded"}

	case body.Type == "requests" || body.Type == "tokens":
		return Decision{Action: ActionMarkRateLimited, Reenqueue: true}

	default:
		return Decision{ClientStatus: 429, ClientNote: "Unrecognized error: " + Redact(body.Message)}
	}
}

func isContentPolicyService(service llm.Service) bool {
	switch service {
	case llm.ServiceOpenAI, llm.ServiceGoogleAI, llm.ServiceMistralAI, llm.ServiceAzure:
		return true
	default:
		return false
	}
}
