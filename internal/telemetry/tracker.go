package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"leadpulse/api/internal/engagement"
	"leadpulse/api/internal/util"
)

const defaultTickInterval = time.Second

// TrackerConfig wires one viewer session. SessionID is generated when empty.
// Interval overrides exist for tests; zero values use production defaults.
type TrackerConfig struct {
	SessionID     string
	BuyerID       string
	FranchiseID   string
	FranchiseSlug string

	Sink   Sink
	Beacon Beacon

	TickInterval  time.Duration
	Debounce      time.Duration
	FlushInterval time.Duration
	IdleThreshold time.Duration
	IdleInterval  time.Duration
}

// Tracker composes the monitor, accumulator, and scheduler for one session.
// One tracker per viewer mount; the session id survives remounts when the
// caller persists it (see LoadOrCreateSessionID).
type Tracker struct {
	monitor *Monitor
	acc     *Accumulator
	sched   *Scheduler
	cancel  context.CancelFunc
	tick    time.Duration
}

func NewTracker(cfg TrackerConfig) *Tracker {
	if cfg.SessionID == "" {
		cfg.SessionID = util.NewID("session")
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}

	monitor := NewMonitor(MonitorConfig{
		IdleThreshold: cfg.IdleThreshold,
		IdleInterval:  cfg.IdleInterval,
	})
	acc := NewAccumulator(cfg.SessionID, cfg.BuyerID, cfg.FranchiseID, cfg.FranchiseSlug, monitor)
	sched := NewScheduler(
		SchedulerConfig{Debounce: cfg.Debounce, FlushInterval: cfg.FlushInterval},
		cfg.Sink,
		cfg.Beacon,
		acc.Snapshot,
	)
	acc.SetOnMutate(sched.Request)

	return &Tracker{monitor: monitor, acc: acc, sched: sched, tick: cfg.TickInterval}
}

// Start launches the tick driver, idle check, and periodic flush. They run
// until Close or context cancellation.
func (t *Tracker) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)
	t.monitor.Start(ctx)
	t.sched.Start(ctx)
	go func() {
		ticker := time.NewTicker(t.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.acc.Tick()
			}
		}
	}()
}

// RecordActivity forwards an input event to the monitor.
func (t *Tracker) RecordActivity() {
	t.monitor.RecordActivity()
}

// SetVisible applies a visibility change. Becoming hidden flushes the
// current state immediately, best-effort.
func (t *Tracker) SetVisible(visible bool) {
	t.monitor.SetVisible(visible)
	if !visible {
		t.sched.FlushNow(context.Background())
	}
}

func (t *Tracker) TrackItemView(itemKey string) engagement.Snapshot {
	return t.acc.TrackItemView(itemKey)
}

func (t *Tracker) TrackSectionViewed(label string) engagement.Snapshot {
	return t.acc.TrackSectionViewed(label)
}

func (t *Tracker) TrackQuestionAsked(question string) engagement.Snapshot {
	return t.acc.TrackQuestionAsked(question)
}

func (t *Tracker) TrackNoteCreated() engagement.Snapshot {
	return t.acc.TrackNoteCreated()
}

func (t *Tracker) TrackDownload() engagement.Snapshot {
	return t.acc.TrackDownload()
}

// Snapshot returns the current session state.
func (t *Tracker) Snapshot() engagement.Snapshot {
	return t.acc.Snapshot()
}

// Unload fires the last-resort beacon. Call on page teardown; it does not
// wait and does not guarantee delivery.
func (t *Tracker) Unload() {
	t.sched.NotifyUnload()
}

// Close stops all timers and performs a final awaited flush.
func (t *Tracker) Close() {
	if t.cancel != nil {
		t.cancel()
	}
	t.sched.Close()
}

// LoadOrCreateSessionID reuses the session id stored at path, creating and
// persisting a fresh one if absent. This mirrors keeping the id in browser
// local storage so a reload resumes the same session.
func LoadOrCreateSessionID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}
	id := util.NewID("session")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return id, err
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return id, err
	}
	return id, nil
}
