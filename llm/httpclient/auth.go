package httpclient

import (
	"fmt"
	"net/http"
)

// applyAuth writes cfg's credential into headers per its Type, mirroring
// how each upstream dialect expects its key: a bearer Authorization header
// for OpenAI/Anthropic-style upstreams, or a named header for providers
// that use a bare API key (e.g. Google's x-goog-api-key).
func applyAuth(headers http.Header, cfg *AuthConfig) error {
	switch cfg.Type {
	case AuthTypeBearer:
		if cfg.APIKey == "" {
			return fmt.Errorf("bearer token is required")
		}

		headers.Set("Authorization", "Bearer "+cfg.APIKey)
	case AuthTypeAPIKey:
		if cfg.HeaderKey == "" {
			return fmt.Errorf("header key is required")
		}

		headers.Set(cfg.HeaderKey, cfg.APIKey)
	default:
		return fmt.Errorf("unsupported auth type: %s", cfg.Type)
	}

	return nil
}
