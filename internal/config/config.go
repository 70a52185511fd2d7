// Package config loads llmgateway's runtime configuration with viper:
// a YAML file layered under environment variable overrides, the same
// two-tier precedence the rest of the dependency stack uses elsewhere in
// this codebase's lineage.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/coralmesh/llmgateway/llm"
	"github.com/coralmesh/llmgateway/llm/dialect"
)

// Config is the top-level configuration for the gateway process.
type Config struct {
	Server  ServerConfig            `mapstructure:"server"`
	Limits  LimitsConfig            `mapstructure:"limits"`
	Assets  AssetsConfig            `mapstructure:"assets"`
	Upstreams map[string]Upstream   `mapstructure:"upstreams"`
	Channels  []Channel             `mapstructure:"channels"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Debug          bool          `mapstructure:"debug"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CORS           CORSConfig    `mapstructure:"cors"`
}

// CORSConfig mirrors gin-contrib/cors's Config fields worth exposing.
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LimitsConfig carries the per-dialect clamp ceilings of §4.1, read into a
// dialect.Limits at startup.
type LimitsConfig struct {
	AnthropicMaxTokensToSample int64 `mapstructure:"anthropic_max_tokens_to_sample"`
	OpenAIMaxTokens            int64 `mapstructure:"openai_max_tokens"`
	GoogleMaxOutputTokens      int64 `mapstructure:"google_max_output_tokens"`
	AllowTools                 bool  `mapstructure:"allow_tools"`
}

// ToDialectLimits converts the loaded config into the dialect package's
// Limits, falling back to DefaultLimits for any zero-valued ceiling.
func (l LimitsConfig) ToDialectLimits() dialect.Limits {
	out := dialect.DefaultLimits()

	if l.AnthropicMaxTokensToSample > 0 {
		out.AnthropicMaxTokensToSample = l.AnthropicMaxTokensToSample
	}

	if l.OpenAIMaxTokens > 0 {
		out.OpenAIMaxTokens = l.OpenAIMaxTokens
	}

	if l.GoogleMaxOutputTokens > 0 {
		out.GoogleMaxOutputTokens = l.GoogleMaxOutputTokens
	}

	out.AllowTools = l.AllowTools

	return out
}

// AssetsConfig configures the image-mirror hook (ADR C8).
type AssetsConfig struct {
	Dir       string `mapstructure:"dir"`
	ProxyHost string `mapstructure:"proxy_host"`
}

// Upstream is one provider's base URL and static credential, keyed by
// llm.Service in the Upstreams map. Production deployments lease a
// credential per request from the external key pool instead; this
// single-key form only seeds the in-memory reference pool this repository
// wires up for local runs.
type Upstream struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	AuthType  string `mapstructure:"auth_type"`  // "bearer" or "api_key"
	HeaderKey string `mapstructure:"header_key"` // required when AuthType is "api_key"
}

// Channel maps a requested model (by exact name or "*" default) to the
// outbound dialect and service that should handle it, the minimal stand-in
// for axonhub's database-backed channel routing.
type Channel struct {
	Model       string          `mapstructure:"model"`
	OutboundAPI llm.APIFormat   `mapstructure:"outbound_api"`
	Service     llm.Service     `mapstructure:"service"`
}

// Load reads gateway.yaml from the working directory (if present), layers
// GATEWAY_-prefixed environment variables on top, and returns a populated
// Config with defaults applied.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("gateway")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/llmgateway")

	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8089)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 120*time.Second)

	v.SetDefault("limits.openai_max_tokens", 4096)
	v.SetDefault("limits.anthropic_max_tokens_to_sample", 4096)
	v.SetDefault("limits.google_max_output_tokens", 1024)

	v.SetDefault("assets.dir", "./assets")
	v.SetDefault("assets.proxy_host", "http://localhost:8089")

	v.SetDefault("server.cors.allowed_origins", []string{"*"})
}
