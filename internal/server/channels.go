package server

import (
	"encoding/json"

	"github.com/coralmesh/llmgateway/internal/config"
	"github.com/coralmesh/llmgateway/llm"
)

// Router resolves which outbound dialect and service should handle a given
// inbound model name, the minimal stand-in for a database-backed channel
// table: a short ordered list of {model, outboundApi, service} rules plus a
// same-dialect default.
type Router struct {
	channels []config.Channel
}

func NewRouter(channels []config.Channel) *Router {
	return &Router{channels: channels}
}

// Resolve returns the outbound dialect/service for model, falling back to
// passthrough (outboundAPI==inboundAPI, service==defaultService) when no
// channel rule matches.
func (r *Router) Resolve(model string, inboundAPI llm.APIFormat, defaultService llm.Service) (llm.APIFormat, llm.Service) {
	for _, ch := range r.channels {
		if ch.Model == model || ch.Model == "*" {
			return ch.OutboundAPI, ch.Service
		}
	}

	return inboundAPI, defaultService
}

// peekModel extracts just the "model" field from a raw inbound body,
// ahead of full dialect validation, so the router can pick an outbound
// dialect before C1/C2 run.
func peekModel(raw []byte) string {
	var probe struct {
		Model string `json:"model"`
	}

	_ = json.Unmarshal(raw, &probe)

	return probe.Model
}

// peekStream extracts just the "stream" field from a raw inbound body.
func peekStream(raw []byte) bool {
	var probe struct {
		Stream bool `json:"stream"`
	}

	_ = json.Unmarshal(raw, &probe)

	return probe.Stream
}
