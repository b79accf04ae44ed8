// Package telemetry implements the client-side engagement engine: an
// activity monitor, a per-session accumulator, and a persistence scheduler
// that flushes snapshots to the ingestion endpoint.
package telemetry

import (
	"context"
	"sync"
	"time"
)

const (
	defaultIdleThreshold = 120 * time.Second
	defaultIdleInterval  = 10 * time.Second
)

// Monitor classifies the user as active/inactive and the page as
// visible/hidden. It only observes; the accumulator consults it to decide
// whether a tick counts.
type Monitor struct {
	mu           sync.Mutex
	lastActivity time.Time
	visible      bool
	active       bool

	idleThreshold time.Duration
	idleInterval  time.Duration
	now           func() time.Time
}

// MonitorConfig carries optional overrides; zero values use the defaults
// (120s idle threshold, checked every 10s).
type MonitorConfig struct {
	IdleThreshold time.Duration
	IdleInterval  time.Duration
	Now           func() time.Time
}

func NewMonitor(cfg MonitorConfig) *Monitor {
	if cfg.IdleThreshold <= 0 {
		cfg.IdleThreshold = defaultIdleThreshold
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = defaultIdleInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Monitor{
		lastActivity:  cfg.Now(),
		visible:       true,
		active:        true,
		idleThreshold: cfg.IdleThreshold,
		idleInterval:  cfg.IdleInterval,
		now:           cfg.Now,
	}
}

// Start runs the periodic idle check until the context is canceled.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.idleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkIdle()
			}
		}
	}()
}

// RecordActivity is called on any input event: pointer move, pointer down,
// key down, scroll, touch start.
func (m *Monitor) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = m.now()
	m.active = true
}

// SetVisible applies a platform visibility change signal directly.
func (m *Monitor) SetVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = visible
}

func (m *Monitor) checkIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = m.now().Sub(m.lastActivity) < m.idleThreshold
}

// PageVisible reports whether the page is currently visible.
func (m *Monitor) PageVisible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// UserActive reports whether the user produced input within the idle
// threshold, as of the last idle check or input event.
func (m *Monitor) UserActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}
