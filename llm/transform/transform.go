package transform

import (
	"net/http"

	"github.com/coralmesh/llmgateway/llm"
	"github.com/coralmesh/llmgateway/llm/dialect"
	"github.com/coralmesh/llmgateway/llm/perr"
)

// Transform rewrites a validated inbound-dialect body into the outbound
// dialect's body, per the payload-transformer contract: it runs exactly
// once per request, on the first attempt only (retryCount==0); retries
// reuse the already-transformed body.
//
// When inboundAPI == outboundAPI the body is only validated and normalized
// in place (Mistral's message-list normalization included), never rewritten
// for a different wire shape.
func Transform(
	inboundAPI, outboundAPI llm.APIFormat,
	rawBody []byte,
	limits dialect.Limits,
) (outboundBody any, headers http.Header, err error) {
	if inboundAPI == outboundAPI {
		body, err := validateIdentity(inboundAPI, rawBody, limits)
		return body, nil, err
	}

	if inboundAPI != llm.APIFormatOpenAIChat {
		return nil, nil, perr.NewUnsupportedError(
			"cross-dialect conversion from %s to %s is not supported", inboundAPI, outboundAPI)
	}

	req, err := dialect.ValidateOpenAIChat(rawBody, limits)
	if err != nil {
		return nil, nil, err
	}

	switch outboundAPI {
	case llm.APIFormatAnthropic:
		body, hdr := ToAnthropic(req, limits)
		return body, hdr, nil
	case llm.APIFormatOpenAIText:
		return ToOpenAIText(req), nil, nil
	case llm.APIFormatOpenAIImage:
		body, err := ToOpenAIImage(req)
		return body, nil, err
	case llm.APIFormatGoogleAI:
		return ToGoogle(req, limits), nil, nil
	default:
		return nil, nil, perr.NewUnsupportedError(
			"cross-dialect conversion from %s to %s is not supported", inboundAPI, outboundAPI)
	}
}

func validateIdentity(api llm.APIFormat, rawBody []byte, limits dialect.Limits) (any, error) {
	switch api {
	case llm.APIFormatOpenAIChat:
		return dialect.ValidateOpenAIChat(rawBody, limits)
	case llm.APIFormatOpenAIText:
		return dialect.ValidateOpenAIText(rawBody, limits)
	case llm.APIFormatOpenAIImage:
		return dialect.ValidateOpenAIImage(rawBody)
	case llm.APIFormatAnthropic:
		return dialect.ValidateAnthropicComplete(rawBody, limits)
	case llm.APIFormatGoogleAI:
		return dialect.ValidateGoogleGenerateContent(rawBody, limits)
	case llm.APIFormatMistralAI:
		return dialect.ValidateMistralChat(rawBody, limits)
	default:
		return nil, perr.NewUnsupportedError("unrecognized API format %s", api)
	}
}
