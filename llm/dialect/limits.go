// Package dialect implements the inbound/outbound schema validators of
// ADR C1: one Validate function per supported API dialect, each returning a
// normalized struct with defaults applied and clamp ceilings enforced.
// Field names, enum values and defaults mirror the wire format of the real
// upstream APIs exactly since they are re-marshaled verbatim downstream.
package dialect

// Limits holds the configured output-size ceilings the validators clamp
// against. A systems-language implementation would typically generate the
// per-field schema (name, kind, default, clamp) from a declarative table
// rather than hand check each one; ValidateX below take a shortcut for
// directness given the small, fixed dialect set, and the spec calls this
// out explicitly as future work, not a defect.
type Limits struct {
	// AnthropicMaxTokensToSample is the ceiling for
	// max_tokens_to_sample on Anthropic v1 complete requests.
	AnthropicMaxTokensToSample int64

	// OpenAIMaxTokens is the ceiling for max_tokens on OpenAI chat, text
	// and Mistral chat requests (Mistral clamps to the same ceiling per
	// spec).
	OpenAIMaxTokens int64

	// GoogleMaxOutputTokens is the ceiling for generationConfig.maxOutputTokens
	// on Google generate-content requests.
	GoogleMaxOutputTokens int64

	// AllowTools permits an OpenAI chat request's `tools`/`functions`
	// fields to pass validation; when false (the default) they are
	// stripped per §4.1.
	AllowTools bool
}

// DefaultLimits returns conservative ceilings suitable for local testing;
// production wiring overrides these from configuration.
func DefaultLimits() Limits {
	return Limits{
		AnthropicMaxTokensToSample: 4096,
		OpenAIMaxTokens:            4096,
		GoogleMaxOutputTokens:      1024,
	}
}

func clampInt64(v, ceiling int64) int64 {
	if v > ceiling {
		return ceiling
	}

	if v < 0 {
		return 0
	}

	return v
}
