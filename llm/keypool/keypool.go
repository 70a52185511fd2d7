// Package keypool declares the credential-pool interface the core depends
// on. The pool itself (storage, leasing fairness, persistence) is an
// external collaborator out of scope for this module; this file exists so
// the core can depend on a concrete Go interface instead of a bag of
// callback functions.
package keypool

import "context"

// Key is a leased upstream credential and its capability flags, as seen by
// the core. The pool is the sole owner of a Key's lifecycle; the core only
// requests state transitions through the Pool interface below.
type Key struct {
	Hash         string
	Service      string
	Capabilities map[string]bool
}

// Pool is the credential pool's interface, as consumed by the response
// pipeline (C6) and the upstream error policy (C7). Implementations must
// make Disable/MarkRateLimited/Update/IncrementUsage race-free across
// concurrent attempts against the same key.
type Pool interface {
	// Lease returns a credential usable for the given service/model,
	// honoring any capability requirements already recorded on keys (e.g.
	// requiresPreamble, allowsMultimodality).
	Lease(ctx context.Context, service string, requirements map[string]bool) (*Key, error)

	// Disable permanently removes a key from rotation for reason
	// ("revoked" or "quota").
	Disable(ctx context.Context, keyHash, reason string) error

	// MarkRateLimited temporarily removes a key from rotation until its
	// rate-limit window is known to have reset.
	MarkRateLimited(ctx context.Context, keyHash string) error

	// Update merges the given capability flags into the key's record
	// (e.g. {"requiresPreamble": true}).
	Update(ctx context.Context, keyHash string, flags map[string]bool) error

	// IncrementUsage records token/request usage against the key.
	IncrementUsage(ctx context.Context, keyHash string, promptTokens, outputTokens int64) error

	// UpdateRateLimits records the rate-limit window advertised by the
	// upstream's response headers for this key.
	UpdateRateLimits(ctx context.Context, keyHash string, headers map[string][]string) error
}
