// Package queue declares the request-queue interface the core depends on
// for re-enqueueing a request after a Retryable condition. The queue's
// storage, fairness, and wait-time accounting are external collaborators
// out of scope for this module.
package queue

import "context"

// Queue is the request queue's interface, as consumed whenever the core
// raises a Retryable condition (rate limit, missing preamble, no
// multimodal support, mid-stream upstream throttling).
type Queue interface {
	// Enqueue admits a new request for processing.
	Enqueue(ctx context.Context, requestID string) error

	// ReenqueueRequest re-admits a request that failed on a prior
	// attempt, after the core has bumped its retryCount and, if
	// applicable, adjusted the credential's capability flags.
	ReenqueueRequest(ctx context.Context, requestID string, retryCount int) error

	// TrackWaitTime records how long requestID waited before this
	// attempt started, for queue-depth accounting.
	TrackWaitTime(ctx context.Context, requestID string, waitedMillis int64) error
}
