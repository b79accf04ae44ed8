package telemetry

import (
	"context"
	"log"
	"sync"
	"time"

	"leadpulse/api/internal/engagement"
)

const (
	defaultDebounce      = 2 * time.Second
	defaultFlushInterval = 60 * time.Second
	flushTimeout         = 10 * time.Second
)

// Sink is the awaited transport to the ingestion endpoint.
type Sink interface {
	Flush(ctx context.Context, snap engagement.Snapshot) error
}

// Beacon is the fire-and-forget transport used during teardown. It cannot
// report delivery; durability comes from the debounced/periodic paths.
type Beacon interface {
	Send(snap engagement.Snapshot)
}

// Scheduler decides when to transmit the current snapshot, balancing
// freshness against write volume. A flush failure is logged and forgotten:
// the next flush carries the larger cumulative state, which subsumes it.
type Scheduler struct {
	mu       sync.Mutex
	debounce *time.Timer
	closed   bool

	debounceDelay time.Duration
	flushInterval time.Duration

	sink    Sink
	beacon  Beacon
	current func() engagement.Snapshot
}

// SchedulerConfig carries optional interval overrides; zero values use the
// defaults (2s debounce, 60s periodic backstop).
type SchedulerConfig struct {
	Debounce      time.Duration
	FlushInterval time.Duration
}

// NewScheduler wires the scheduler to a live snapshot source. current must
// return the present accumulator state so a flush fired long after it was
// scheduled still sends fresh data.
func NewScheduler(cfg SchedulerConfig, sink Sink, beacon Beacon, current func() engagement.Snapshot) *Scheduler {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	return &Scheduler{
		debounceDelay: cfg.Debounce,
		flushInterval: cfg.FlushInterval,
		sink:          sink,
		beacon:        beacon,
		current:       current,
	}
}

// Start runs the periodic flush until the context is canceled. The periodic
// timer is independent of the debounce timer: a steady mutation stream keeps
// the debounce permanently retriggering, and the interval flush is the
// backstop that still gets state out.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.stopTimers()
				return
			case <-ticker.C:
				s.flush(context.Background())
			}
		}
	}()
}

// Request (re)starts the debounce timer. A burst of mutations collapses
// into a single flush of whatever the state is when the timer fires.
func (s *Scheduler) Request() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(s.debounceDelay, func() {
		s.flush(context.Background())
	})
}

// FlushNow sends the current state immediately, bypassing the debounce.
// Used when the page becomes hidden.
func (s *Scheduler) FlushNow(ctx context.Context) {
	s.flush(ctx)
}

// NotifyUnload pushes the current state through the beacon transport. It
// never blocks and never reports an error.
func (s *Scheduler) NotifyUnload() {
	if s.beacon == nil {
		return
	}
	s.beacon.Send(s.current())
}

// Close stops the debounce timer and performs a final awaited flush.
func (s *Scheduler) Close() {
	s.stopTimers()
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	s.flush(ctx)
}

func (s *Scheduler) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
}

func (s *Scheduler) flush(ctx context.Context) {
	snap := s.current()
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := s.sink.Flush(ctx, snap); err != nil {
		log.Printf("telemetry: flush session %s: %v", snap.SessionID, err)
	}
}
