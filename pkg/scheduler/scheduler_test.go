package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/hushnetwork-social/hush-node/pkg/assembler"
	"github.com/hushnetwork-social/hush-node/pkg/eventbus"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/mempool"
)

// newTestScheduler builds a Scheduler with an interval long enough that no
// tick fires during these tests, so the assembler is never actually invoked
// and can safely be nil-backed.
func newTestScheduler() *Scheduler {
	pool := mempool.New(fakeTracker{})
	bus := eventbus.New()
	assem := assembler.New(nil, nil, bus, nil, assembler.RewardSettings{}, assembler.Producer{})
	return New(pool, assem, bus, time.Hour)
}

type fakeTracker struct{}

func (fakeTracker) RemoveFromTracking([]ids.FeedMessageId) {}

func TestScheduler_StartsPausedUntilBlockchainInitialized(t *testing.T) {
	s := newTestScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	defer s.Stop()

	if got := s.CurrentState(); got != Paused {
		t.Errorf("expected Paused immediately after Start, got %s", got)
	}
}

func TestScheduler_BlockchainInitializedResumesToRunning(t *testing.T) {
	s := newTestScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	defer s.Stop()

	s.bus.PublishBlockchainInitialized(eventbus.BlockchainInitialized{})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s.CurrentState() == Running {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected Running after BlockchainInitialized, got %s", s.CurrentState())
}

func TestScheduler_PauseThenResume(t *testing.T) {
	s := newTestScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	defer s.Stop()
	s.bus.PublishBlockchainInitialized(eventbus.BlockchainInitialized{})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && s.CurrentState() != Running {
		time.Sleep(time.Millisecond)
	}

	s.Pause()
	if got := s.CurrentState(); got != Paused {
		t.Errorf("expected Paused after Pause, got %s", got)
	}

	s.Resume()
	if got := s.CurrentState(); got != Running {
		t.Errorf("expected Running after Resume, got %s", got)
	}
}

func TestScheduler_StopIsIdempotentAndSettlesToStopped(t *testing.T) {
	s := newTestScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	s.Stop()
	if got := s.CurrentState(); got != Stopped {
		t.Errorf("expected Stopped after Stop, got %s", got)
	}

	// A second Stop on an already-stopped scheduler must not block or panic.
	s.Stop()
}
