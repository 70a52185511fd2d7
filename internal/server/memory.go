// This file provides in-process reference implementations of the external
// collaborators §1 scopes out of the core (keyPool, request queue, token
// counter, log sinks), sufficient to run the gateway against a static list
// of configured credentials. A real deployment replaces every type in this
// file with its own durable implementation; the response pipeline and
// payload transformer never depend on anything beyond the llm/keypool,
// llm/queue and llm/pipeline interfaces they're constructed against.
package server

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/coralmesh/llmgateway/internal/config"
	"github.com/coralmesh/llmgateway/internal/log"
	"github.com/coralmesh/llmgateway/llm"
	"github.com/coralmesh/llmgateway/llm/keypool"
)

// memKey is one configured credential and its mutable pool-owned state.
type memKey struct {
	hash         string
	service      string
	apiKey       string
	authType     string
	headerKey    string
	disabled     bool
	disableNote  string
	rateLimited  bool
	capabilities map[string]bool
}

// MemoryPool is a process-local keypool.Pool backed by a fixed slice of
// credentials seeded from configuration. Lease does round-robin over the
// keys of the requested service that are neither disabled nor currently
// rate-limited and that satisfy requirements.
type MemoryPool struct {
	mu   sync.Mutex
	keys []*memKey
	next int

	// authSF collapses concurrent AuthConfig lookups for the same key hash
	// into one, the same guard the teacher's OAuth token provider uses
	// around credential refreshes.
	authSF singleflight.Group
}

var _ keypool.Pool = (*MemoryPool)(nil)

// NewMemoryPool seeds a pool with one key per configured upstream.
func NewMemoryPool(upstreams map[string]config.Upstream) *MemoryPool {
	p := &MemoryPool{}

	for service, up := range upstreams {
		p.keys = append(p.keys, &memKey{
			hash:         service + ":primary",
			service:      service,
			apiKey:       up.APIKey,
			authType:     up.AuthType,
			headerKey:    up.HeaderKey,
			capabilities: map[string]bool{},
		})
	}

	return p
}

func (p *MemoryPool) Lease(_ context.Context, service string, requirements map[string]bool) (*keypool.Key, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.keys)
	for i := 0; i < n; i++ {
		idx := (p.next + i) % n
		k := p.keys[idx]

		if k.service != service || k.disabled || k.rateLimited {
			continue
		}

		if !satisfies(k.capabilities, requirements) {
			continue
		}

		p.next = idx + 1

		return &keypool.Key{Hash: k.hash, Service: k.service, Capabilities: cloneFlags(k.capabilities)}, nil
	}

	return nil, errors.New("no available credential for service " + service)
}

func satisfies(have, want map[string]bool) bool {
	for flag, required := range want {
		if have[flag] != required {
			return false
		}
	}

	return true
}

func cloneFlags(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}

func (p *MemoryPool) find(hash string) *memKey {
	for _, k := range p.keys {
		if k.hash == hash {
			return k
		}
	}

	return nil
}

func (p *MemoryPool) Disable(_ context.Context, keyHash, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if k := p.find(keyHash); k != nil {
		k.disabled = true
		k.disableNote = reason
	}

	return nil
}

func (p *MemoryPool) MarkRateLimited(_ context.Context, keyHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if k := p.find(keyHash); k != nil {
		k.rateLimited = true
	}

	return nil
}

func (p *MemoryPool) Update(_ context.Context, keyHash string, flags map[string]bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := p.find(keyHash)
	if k == nil {
		return nil
	}

	for flag, v := range flags {
		k.capabilities[flag] = v
	}

	return nil
}

func (p *MemoryPool) IncrementUsage(_ context.Context, _ string, _, _ int64) error {
	return nil
}

func (p *MemoryPool) UpdateRateLimits(_ context.Context, _ string, _ map[string][]string) error {
	return nil
}

type authConfig struct {
	apiKey, authType, headerKey string
	ok                          bool
}

// AuthConfig recovers the wire auth shape for keyHash, for building an
// outbound httpclient.Request. Concurrent lookups for the same keyHash are
// collapsed into a single pool-lock acquisition via singleflight.
func (p *MemoryPool) AuthConfig(keyHash string) (apiKey, authType, headerKey string, ok bool) {
	v, _, _ := p.authSF.Do(keyHash, func() (any, error) {
		p.mu.Lock()
		defer p.mu.Unlock()

		k := p.find(keyHash)
		if k == nil {
			return authConfig{}, nil
		}

		return authConfig{apiKey: k.apiKey, authType: k.authType, headerKey: k.headerKey, ok: true}, nil
	})

	cfg := v.(authConfig)

	return cfg.apiKey, cfg.authType, cfg.headerKey, cfg.ok
}

// MemoryQueue re-enqueues a request by immediately notifying a registered
// retry callback; it has no durability and no fairness, standing in only
// for the interface shape llm/queue.Queue declares.
type MemoryQueue struct {
	mu       sync.Mutex
	onRetry  func(ctx context.Context, requestID string, retryCount int)
}

func (q *MemoryQueue) Enqueue(_ context.Context, _ string) error { return nil }

func (q *MemoryQueue) ReenqueueRequest(ctx context.Context, requestID string, retryCount int) error {
	q.mu.Lock()
	cb := q.onRetry
	q.mu.Unlock()

	if cb != nil {
		cb(ctx, requestID, retryCount)
	}

	return nil
}

func (q *MemoryQueue) TrackWaitTime(_ context.Context, _ string, _ int64) error { return nil }

// OnRetry registers the callback invoked by ReenqueueRequest.
func (q *MemoryQueue) OnRetry(fn func(ctx context.Context, requestID string, retryCount int)) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.onRetry = fn
}

// NoopTokenCounter satisfies pipeline.TokenCounter without an actual
// tokenizer dependency; countResponseTokens becomes a no-op and usage
// counters stay at zero.
type NoopTokenCounter struct{}

func (NoopTokenCounter) CountTokens(_ context.Context, _ *llm.RequestContext, _ any) (int64, int64, error) {
	return 0, 0, nil
}

// LogSink forwards prompt/event bookkeeping to the structured logger,
// standing in for the external prompt/event log sinks of §1.
type LogSink struct{}

func (LogSink) LogPrompt(ctx context.Context, body any) {
	log.Debug(ctx, "prompt logged", log.Any("body", body))
}

func (LogSink) LogEvent(ctx context.Context, name string, fields map[string]any) {
	log.Info(ctx, name, log.Any("fields", fields))
}
