package telemetry

import (
	"sync"
	"time"

	"leadpulse/api/internal/engagement"
)

// Time spent continuously reading before the session counts as significant.
const significantTimeSeconds = 900

// Flags is the read-only view of the activity monitor consulted by the
// accumulator on every tick.
type Flags interface {
	PageVisible() bool
	UserActive() bool
}

// Accumulator owns one session's mutable engagement state. Counters only
// increase, set fields only grow, and milestone flags never transition back
// to false. All mutations request a flush through the onMutate hook.
type Accumulator struct {
	mu       sync.Mutex
	flags    Flags
	now      func() time.Time
	onMutate func()

	snap     engagement.Snapshot
	sections map[string]struct{}
	items    map[string]struct{}
}

func NewAccumulator(sessionID, buyerID, franchiseID, franchiseSlug string, flags Flags) *Accumulator {
	now := time.Now
	created := now().UTC()
	return &Accumulator{
		flags: flags,
		now:   now,
		snap: engagement.Snapshot{
			SessionID:     sessionID,
			BuyerID:       buyerID,
			FranchiseID:   franchiseID,
			FranchiseSlug: franchiseSlug,
			CreatedAt:     created,
			LastActivity:  created,
		},
		sections: make(map[string]struct{}),
		items:    make(map[string]struct{}),
	}
}

// SetOnMutate installs the persistence request hook. It is invoked after
// every mutating operation, outside the accumulator lock.
func (a *Accumulator) SetOnMutate(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onMutate = fn
}

// Tick advances the time counter by one second, but only while the page is
// visible and the user is active. Viewing at all sets the viewedFDD
// milestone; crossing 15 minutes sets spentSignificantTime for good.
func (a *Accumulator) Tick() engagement.Snapshot {
	a.mu.Lock()
	if !a.flags.PageVisible() || !a.flags.UserActive() {
		snap := a.copyLocked()
		a.mu.Unlock()
		return snap
	}
	a.snap.TimeSpent++
	a.snap.LastActivity = a.now().UTC()
	a.snap.ViewedFDD = true
	if a.snap.TimeSpent >= significantTimeSeconds {
		a.snap.SpentSignificantTime = true
	}
	snap := a.copyLocked()
	hook := a.onMutate
	a.mu.Unlock()

	if hook != nil {
		hook()
	}
	return snap
}

// TrackItemView records a disclosure item view ("item7", "item19", ...).
// Repeated views of the same item are no-ops.
func (a *Accumulator) TrackItemView(itemKey string) engagement.Snapshot {
	a.mu.Lock()
	if _, seen := a.items[itemKey]; seen {
		snap := a.copyLocked()
		a.mu.Unlock()
		return snap
	}
	a.items[itemKey] = struct{}{}
	a.snap.ViewedItems = append(a.snap.ViewedItems, itemKey)
	a.snap.LastActivity = a.now().UTC()
	switch itemKey {
	case "item7":
		a.snap.ViewedItem7 = true
	case "item19":
		a.snap.ViewedItem19 = true
	}
	snap := a.copyLocked()
	hook := a.onMutate
	a.mu.Unlock()

	if hook != nil {
		hook()
	}
	return snap
}

// TrackSectionViewed records a viewed section label; idempotent per label.
func (a *Accumulator) TrackSectionViewed(label string) engagement.Snapshot {
	a.mu.Lock()
	if _, seen := a.sections[label]; seen {
		snap := a.copyLocked()
		a.mu.Unlock()
		return snap
	}
	a.sections[label] = struct{}{}
	a.snap.SectionsViewed = append(a.snap.SectionsViewed, label)
	a.snap.LastActivity = a.now().UTC()
	switch label {
	case "Item 19":
		a.snap.ViewedItem19 = true
	case "Item 7":
		a.snap.ViewedItem7 = true
	}
	snap := a.copyLocked()
	hook := a.onMutate
	a.mu.Unlock()

	if hook != nil {
		hook()
	}
	return snap
}

// TrackQuestionAsked appends to the question log (append-only, duplicates
// allowed locally; the store unions by value).
func (a *Accumulator) TrackQuestionAsked(question string) engagement.Snapshot {
	a.mu.Lock()
	a.snap.QuestionsAsked = append(a.snap.QuestionsAsked, question)
	a.snap.AskedQuestions = true
	a.snap.LastActivity = a.now().UTC()
	snap := a.copyLocked()
	hook := a.onMutate
	a.mu.Unlock()

	if hook != nil {
		hook()
	}
	return snap
}

// TrackNoteCreated bumps the note counter and its milestone.
func (a *Accumulator) TrackNoteCreated() engagement.Snapshot {
	a.mu.Lock()
	a.snap.NotesCreated++
	a.snap.CreatedNotes = true
	a.snap.LastActivity = a.now().UTC()
	snap := a.copyLocked()
	hook := a.onMutate
	a.mu.Unlock()

	if hook != nil {
		hook()
	}
	return snap
}

// TrackDownload marks the document downloaded. The timestamp is set on the
// first call only; calling again is safe and leaves it untouched.
func (a *Accumulator) TrackDownload() engagement.Snapshot {
	a.mu.Lock()
	a.snap.Downloaded = true
	if a.snap.DownloadedAt == nil {
		at := a.now().UTC()
		a.snap.DownloadedAt = &at
	}
	a.snap.LastActivity = a.now().UTC()
	snap := a.copyLocked()
	hook := a.onMutate
	a.mu.Unlock()

	if hook != nil {
		hook()
	}
	return snap
}

// Snapshot returns a copy of the current state. Timer callbacks always read
// through this so they operate on live state, never a stale capture.
func (a *Accumulator) Snapshot() engagement.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.copyLocked()
}

func (a *Accumulator) copyLocked() engagement.Snapshot {
	snap := a.snap
	snap.QuestionsAsked = append([]string(nil), a.snap.QuestionsAsked...)
	snap.SectionsViewed = append([]string(nil), a.snap.SectionsViewed...)
	snap.ViewedItems = append([]string(nil), a.snap.ViewedItems...)
	if a.snap.DownloadedAt != nil {
		at := *a.snap.DownloadedAt
		snap.DownloadedAt = &at
	}
	return snap
}
