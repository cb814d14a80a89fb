// Package mempool is the concurrent bag of Validated transactions awaiting
// block inclusion (C5).
package mempool

import (
	"sync"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/metrics"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

// DefaultMaxDrainBatch is the default upper bound on a single Drain call.
const DefaultMaxDrainBatch = 1000

// IdempotencyTracker is the narrow slice of the Idempotency Gate the
// mempool needs: freeing the in-flight window the instant a message
// transaction actually leaves the pool (spec §4.5).
type IdempotencyTracker interface {
	RemoveFromTracking(ids []ids.FeedMessageId)
}

// Pool is a thread-safe, unordered bag of Validated transactions.
type Pool struct {
	mu      sync.Mutex
	pending []tx.Validated

	maxDrainBatch int
	idempotency   IdempotencyTracker
	metrics       *metrics.Registry
}

type Option func(*Pool)

func WithMaxDrainBatch(n int) Option {
	return func(p *Pool) { p.maxDrainBatch = n }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(p *Pool) { p.metrics = m }
}

func New(idempotency IdempotencyTracker, opts ...Option) *Pool {
	p := &Pool{
		maxDrainBatch: DefaultMaxDrainBatch,
		idempotency:   idempotency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// InitializeAsync is currently a no-op; future nodes may warm the pool
// from peers (spec §4.5).
func (p *Pool) InitializeAsync() {}

// Add enqueues a validated transaction. O(1), never blocks.
func (p *Pool) Add(t tx.Validated) {
	p.mu.Lock()
	p.pending = append(p.pending, t)
	n := len(p.pending)
	p.mu.Unlock()
	p.metrics.SetMempoolSize(n)
}

// Drain removes and returns up to maxN transactions in arbitrary order.
// Any drained NewFeedMessagePayload transactions have their FeedMessageIds
// released from the idempotency gate's in-flight set in the same call.
func (p *Pool) Drain(maxN int) []tx.Validated {
	if maxN <= 0 {
		maxN = p.maxDrainBatch
	}

	p.mu.Lock()
	n := maxN
	if n > len(p.pending) {
		n = len(p.pending)
	}
	batch := p.pending[:n]
	p.pending = p.pending[n:]
	remaining := len(p.pending)
	p.mu.Unlock()

	p.metrics.SetMempoolSize(remaining)

	var messageIDs []ids.FeedMessageId
	for _, t := range batch {
		if m, ok := t.ExtractUnsigned().Payload.(txkind.NewFeedMessagePayload); ok {
			if id, err := ids.ParseFeedMessageId(m.FeedMessageId); err == nil {
				messageIDs = append(messageIDs, id)
			}
		}
	}
	if len(messageIDs) > 0 && p.idempotency != nil {
		p.idempotency.RemoveFromTracking(messageIDs)
	}

	return batch
}

// Len reports the current pending count, for diagnostics/tests.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
