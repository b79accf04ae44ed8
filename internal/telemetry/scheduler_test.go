package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"leadpulse/api/internal/engagement"
)

type recordingSink struct {
	mu    sync.Mutex
	snaps []engagement.Snapshot
}

func (r *recordingSink) Flush(_ context.Context, snap engagement.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *recordingSink) last() engagement.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snaps[len(r.snaps)-1]
}

type recordingBeacon struct {
	mu    sync.Mutex
	snaps []engagement.Snapshot
}

func (r *recordingBeacon) Send(snap engagement.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDebounceCollapsesBurstIntoOneFlush(t *testing.T) {
	sink := &recordingSink{}
	state := engagement.Snapshot{SessionID: "s1"}
	var mu sync.Mutex
	current := func() engagement.Snapshot {
		mu.Lock()
		defer mu.Unlock()
		return state
	}

	sched := NewScheduler(SchedulerConfig{Debounce: 30 * time.Millisecond, FlushInterval: time.Hour}, sink, nil, current)

	for i := 0; i < 10; i++ {
		mu.Lock()
		state.TimeSpent = i + 1
		mu.Unlock()
		sched.Request()
		time.Sleep(2 * time.Millisecond)
	}

	waitFor(t, func() bool { return sink.count() == 1 })
	// The single flush carries the state as of firing, not the first request.
	if got := sink.last().TimeSpent; got != 10 {
		t.Fatalf("flushed TimeSpent = %d, want 10", got)
	}

	time.Sleep(60 * time.Millisecond)
	if sink.count() != 1 {
		t.Fatalf("flush count = %d, want 1", sink.count())
	}
}

func TestPeriodicFlushRunsWithoutMutations(t *testing.T) {
	sink := &recordingSink{}
	current := func() engagement.Snapshot { return engagement.Snapshot{SessionID: "s1", TimeSpent: 7} }

	sched := NewScheduler(SchedulerConfig{Debounce: time.Hour, FlushInterval: 20 * time.Millisecond}, sink, nil, current)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)

	waitFor(t, func() bool { return sink.count() >= 2 })
}

func TestFlushNowBypassesDebounce(t *testing.T) {
	sink := &recordingSink{}
	current := func() engagement.Snapshot { return engagement.Snapshot{SessionID: "s1"} }

	sched := NewScheduler(SchedulerConfig{Debounce: time.Hour, FlushInterval: time.Hour}, sink, nil, current)
	sched.Request()
	sched.FlushNow(context.Background())

	if sink.count() != 1 {
		t.Fatalf("flush count = %d, want 1", sink.count())
	}
}

func TestNotifyUnloadUsesBeacon(t *testing.T) {
	sink := &recordingSink{}
	beacon := &recordingBeacon{}
	current := func() engagement.Snapshot { return engagement.Snapshot{SessionID: "s1", TimeSpent: 42} }

	sched := NewScheduler(SchedulerConfig{}, sink, beacon, current)
	sched.NotifyUnload()

	beacon.mu.Lock()
	defer beacon.mu.Unlock()
	if len(beacon.snaps) != 1 || beacon.snaps[0].TimeSpent != 42 {
		t.Fatalf("beacon snaps = %+v", beacon.snaps)
	}
	if sink.count() != 0 {
		t.Fatal("unload should not use the awaited sink")
	}
}

func TestCloseFlushesFinalState(t *testing.T) {
	sink := &recordingSink{}
	current := func() engagement.Snapshot { return engagement.Snapshot{SessionID: "s1", TimeSpent: 5} }

	sched := NewScheduler(SchedulerConfig{Debounce: time.Hour, FlushInterval: time.Hour}, sink, nil, current)
	sched.Request()
	sched.Close()

	if sink.count() != 1 {
		t.Fatalf("flush count = %d, want 1", sink.count())
	}
	if sink.last().TimeSpent != 5 {
		t.Fatalf("final flush TimeSpent = %d, want 5", sink.last().TimeSpent)
	}
}

func TestTrackerFlushesOnHide(t *testing.T) {
	sink := &recordingSink{}
	tracker := NewTracker(TrackerConfig{
		SessionID:   "s1",
		BuyerID:     "b1",
		FranchiseID: "f1",
		Sink:        sink,
		Debounce:    time.Hour,
	})

	tracker.TrackQuestionAsked("What is the royalty?")
	tracker.SetVisible(false)

	if sink.count() != 1 {
		t.Fatalf("flush count = %d, want 1", sink.count())
	}
	if len(sink.last().QuestionsAsked) != 1 {
		t.Fatalf("hide flush missing state: %+v", sink.last())
	}
}

func TestMonitorIdleTransition(t *testing.T) {
	now := time.Now()
	clock := &now
	var mu sync.Mutex
	monitor := NewMonitor(MonitorConfig{
		IdleThreshold: 120 * time.Second,
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return *clock
		},
	})

	if !monitor.UserActive() {
		t.Fatal("monitor should start active")
	}

	mu.Lock()
	*clock = now.Add(121 * time.Second)
	mu.Unlock()
	monitor.checkIdle()
	if monitor.UserActive() {
		t.Fatal("monitor should be idle past the threshold")
	}

	monitor.RecordActivity()
	if !monitor.UserActive() {
		t.Fatal("activity should reset idle state")
	}
}
