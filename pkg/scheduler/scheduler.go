// Package scheduler is the Block Production Scheduler (C10): an explicit
// ticker-driven loop that replaces the observable-subject design the spec's
// redesign notes (§9) call out, adapted from the teacher's batch scheduler
// state machine (Start/Stop/Pause/Resume over a stopCh/doneCh pair).
package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hushnetwork-social/hush-node/pkg/assembler"
	"github.com/hushnetwork-social/hush-node/pkg/eventbus"
	"github.com/hushnetwork-social/hush-node/pkg/mempool"
)

// State enumerates the scheduler's run state.
type State string

const (
	Stopped State = "stopped"
	Running State = "running"
	Paused  State = "paused"
)

// Scheduler drains the mempool on a fixed cadence and hands the batch to
// the assembler. It stays Paused until BlockchainInitialized fires (spec
// §4.10), and never runs two assemblies concurrently — a tick that arrives
// while one is in flight is coalesced into a no-op (spec §5 ordering
// guarantee 1 combined with "may coalesce ticks").
type Scheduler struct {
	mu sync.RWMutex

	pool     *mempool.Pool
	assem    *assembler.Assembler
	bus      *eventbus.Bus
	interval time.Duration
	logger   *log.Logger

	state  State
	stopCh chan struct{}
	doneCh chan struct{}

	assembling atomic.Bool
}

// New constructs a Scheduler. It starts Stopped; call Start to run it.
func New(pool *mempool.Pool, assem *assembler.Assembler, bus *eventbus.Bus, interval time.Duration) *Scheduler {
	return &Scheduler{
		pool:     pool,
		assem:    assem,
		bus:      bus,
		interval: interval,
		logger:   log.New(log.Writer(), "[Scheduler] ", log.LstdFlags),
		state:    Stopped,
	}
}

// Start begins the ticker loop, paused until BlockchainInitialized arrives.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state != Stopped {
		s.mu.Unlock()
		return
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.state = Paused
	s.mu.Unlock()

	initCh := make(chan eventbus.BlockchainInitialized, 1)
	sub := s.bus.SubscribeBlockchainInitialized(initCh)

	go s.run(ctx, sub, initCh)
	s.logger.Printf("scheduler started (interval=%s, paused until BlockchainInitialized)", s.interval)
}

// Stop halts the ticker loop and waits for the current tick, if any, to
// finish. A tick runs AssembleAsync on the loop goroutine, so this includes
// waiting for an assembly that is in progress.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == Stopped {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.state = Stopped
	s.mu.Unlock()

	<-s.doneCh
	s.logger.Println("scheduler stopped")
}

// Pause suspends ticking without tearing down the loop.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		s.state = Paused
	}
}

// Resume resumes ticking.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Paused {
		s.state = Running
	}
}

// CurrentState reports the scheduler's run state.
func (s *Scheduler) CurrentState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Scheduler) run(ctx context.Context, sub interface{ Unsubscribe() }, initCh chan eventbus.BlockchainInitialized) {
	defer close(s.doneCh)
	defer sub.Unsubscribe()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-initCh:
			s.mu.Lock()
			if s.state == Paused {
				s.state = Running
				s.logger.Println("resumed: chain initialized")
			}
			s.mu.Unlock()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick drains the mempool and triggers one AssembleAsync call, skipping
// the tick entirely if an assembly is already in flight or the scheduler
// is not Running.
func (s *Scheduler) tick(ctx context.Context) {
	if s.CurrentState() != Running {
		return
	}
	if !s.assembling.CompareAndSwap(false, true) {
		return // coalesce: an assembly is already running
	}
	defer s.assembling.Store(false)

	batch := s.pool.Drain(0)
	if _, err := s.assem.AssembleAsync(ctx, batch); err != nil {
		s.logger.Printf("block assembly failed: %v", err)
	}
}
