// Package idempotency implements the Idempotency Gate (C6): dedup of
// FeedMessageIds across the in-flight set and committed storage, fail-closed
// on any storage error.
package idempotency

import (
	"context"
	"sync"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/metrics"
)

// Outcome is the result of Check.
type Outcome string

const (
	Accepted     Outcome = "Accepted"
	Pending      Outcome = "Pending"
	AlreadyExists Outcome = "AlreadyExists"
	Rejected     Outcome = "Rejected"
)

// MessageExistence is the storage-backed lookup Check falls back to on a
// miss in the in-flight set (pkg/feeds.Repository.MessageExists).
type MessageExistence interface {
	MessageExists(ctx context.Context, id ids.FeedMessageId) (bool, error)
}

// Gate holds the thread-safe in-flight set.
type Gate struct {
	mu       sync.Mutex
	inFlight map[ids.FeedMessageId]struct{}

	storage MessageExistence
	metrics *metrics.Registry
}

func New(storage MessageExistence, m *metrics.Registry) *Gate {
	return &Gate{
		inFlight: make(map[ids.FeedMessageId]struct{}),
		storage:  storage,
		metrics:  m,
	}
}

// Check implements the four-step decision from spec §4.6.
func (g *Gate) Check(ctx context.Context, id ids.FeedMessageId) Outcome {
	g.mu.Lock()
	_, inFlight := g.inFlight[id]
	g.mu.Unlock()

	if inFlight {
		g.metrics.IncIdempotencyCheck(string(Pending))
		return Pending
	}

	exists, err := g.storage.MessageExists(ctx, id)
	if err != nil {
		g.metrics.IncIdempotencyCheck(string(Rejected))
		return Rejected
	}
	if exists {
		g.metrics.IncIdempotencyCheck(string(AlreadyExists))
		return AlreadyExists
	}

	g.metrics.IncIdempotencyCheck(string(Accepted))
	return Accepted
}

// TryTrack atomically inserts id if absent; true iff this caller installed
// it. This is the linearization point of the "Check → TryTrack →
// Mempool.Add" critical section (spec §4.6).
func (g *Gate) TryTrack(id ids.FeedMessageId) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.inFlight[id]; exists {
		return false
	}
	g.inFlight[id] = struct{}{}
	return true
}

// RemoveFromTracking releases ids that have left the Mempool's in-flight window.
func (g *Gate) RemoveFromTracking(ids []ids.FeedMessageId) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		delete(g.inFlight, id)
	}
}
