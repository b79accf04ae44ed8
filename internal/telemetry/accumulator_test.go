package telemetry

import (
	"testing"

	"leadpulse/api/internal/engagement"
)

type stubFlags struct {
	visible bool
	active  bool
}

func (f *stubFlags) PageVisible() bool { return f.visible }
func (f *stubFlags) UserActive() bool  { return f.active }

func TestTickCountsOnlyWhileVisibleAndActive(t *testing.T) {
	flags := &stubFlags{visible: true, active: true}
	acc := NewAccumulator("s1", "b1", "f1", "grill-house", flags)

	acc.Tick()
	acc.Tick()
	if got := acc.Snapshot().TimeSpent; got != 2 {
		t.Fatalf("TimeSpent = %d, want 2", got)
	}

	flags.visible = false
	acc.Tick()
	flags.visible = true
	flags.active = false
	acc.Tick()
	if got := acc.Snapshot().TimeSpent; got != 2 {
		t.Fatalf("TimeSpent = %d after gated ticks, want 2", got)
	}

	flags.active = true
	acc.Tick()
	if got := acc.Snapshot().TimeSpent; got != 3 {
		t.Fatalf("TimeSpent = %d, want 3", got)
	}
}

func TestTickSetsMilestones(t *testing.T) {
	flags := &stubFlags{visible: true, active: true}
	acc := NewAccumulator("s1", "b1", "f1", "", flags)

	snap := acc.Tick()
	if !snap.ViewedFDD {
		t.Fatal("ViewedFDD not set on first tick")
	}
	if snap.SpentSignificantTime {
		t.Fatal("SpentSignificantTime set too early")
	}

	for i := 1; i < significantTimeSeconds; i++ {
		snap = acc.Tick()
	}
	if snap.TimeSpent != significantTimeSeconds {
		t.Fatalf("TimeSpent = %d, want %d", snap.TimeSpent, significantTimeSeconds)
	}
	if !snap.SpentSignificantTime {
		t.Fatal("SpentSignificantTime not set at threshold")
	}
}

func TestTrackItemViewDeduplicatesAndFlags(t *testing.T) {
	flags := &stubFlags{visible: true, active: true}
	acc := NewAccumulator("s1", "b1", "f1", "", flags)

	acc.TrackItemView("item19")
	acc.TrackItemView("item19")
	snap := acc.TrackItemView("item7")

	if len(snap.ViewedItems) != 2 {
		t.Fatalf("ViewedItems = %v, want 2 entries", snap.ViewedItems)
	}
	if !snap.ViewedItem19 || !snap.ViewedItem7 {
		t.Fatalf("item milestones not set: %+v", snap)
	}
}

func TestTrackSectionViewedIdempotent(t *testing.T) {
	flags := &stubFlags{visible: true, active: true}
	acc := NewAccumulator("s1", "b1", "f1", "", flags)

	acc.TrackSectionViewed("Item 19")
	acc.TrackSectionViewed("Item 19")
	snap := acc.TrackSectionViewed("Item 2")

	if len(snap.SectionsViewed) != 2 {
		t.Fatalf("SectionsViewed = %v, want 2 entries", snap.SectionsViewed)
	}
	if !snap.ViewedItem19 {
		t.Fatal("ViewedItem19 not set from section label")
	}
	if snap.ViewedItem7 {
		t.Fatal("ViewedItem7 set unexpectedly")
	}
}

func TestTrackQuestionAskedAppendOnly(t *testing.T) {
	flags := &stubFlags{visible: true, active: true}
	acc := NewAccumulator("s1", "b1", "f1", "", flags)

	acc.TrackQuestionAsked("What is the royalty?")
	snap := acc.TrackQuestionAsked("What is the royalty?")

	if len(snap.QuestionsAsked) != 2 {
		t.Fatalf("QuestionsAsked = %v, want duplicates kept locally", snap.QuestionsAsked)
	}
	if !snap.AskedQuestions {
		t.Fatal("AskedQuestions milestone not set")
	}
}

func TestTrackDownloadSetsTimestampOnce(t *testing.T) {
	flags := &stubFlags{visible: true, active: true}
	acc := NewAccumulator("s1", "b1", "f1", "", flags)

	first := acc.TrackDownload()
	if first.DownloadedAt == nil || !first.Downloaded {
		t.Fatal("download not recorded")
	}
	second := acc.TrackDownload()
	if !second.DownloadedAt.Equal(*first.DownloadedAt) {
		t.Fatalf("DownloadedAt changed: %v vs %v", second.DownloadedAt, first.DownloadedAt)
	}
}

func TestMutationsInvokeHook(t *testing.T) {
	flags := &stubFlags{visible: true, active: true}
	acc := NewAccumulator("s1", "b1", "f1", "", flags)

	calls := 0
	acc.SetOnMutate(func() { calls++ })

	acc.Tick()
	acc.TrackItemView("item1")
	acc.TrackItemView("item1") // dedup, no mutation, no hook
	acc.TrackNoteCreated()
	if calls != 3 {
		t.Fatalf("hook calls = %d, want 3", calls)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	flags := &stubFlags{visible: true, active: true}
	acc := NewAccumulator("s1", "b1", "f1", "", flags)
	acc.TrackQuestionAsked("q1")

	snap := acc.Snapshot()
	snap.QuestionsAsked[0] = "mutated"
	snap.TimeSpent = 999

	fresh := acc.Snapshot()
	if fresh.QuestionsAsked[0] != "q1" || fresh.TimeSpent != 0 {
		t.Fatalf("snapshot aliases internal state: %+v", fresh)
	}
}

func TestGatedTickStillReturnsState(t *testing.T) {
	flags := &stubFlags{visible: false, active: true}
	acc := NewAccumulator("s1", "b1", "f1", "", flags)
	acc.TrackQuestionAsked("q1")

	snap := acc.Tick()
	if snap.TimeSpent != 0 {
		t.Fatalf("TimeSpent = %d, want 0", snap.TimeSpent)
	}
	if len(snap.QuestionsAsked) != 1 {
		t.Fatalf("gated tick dropped state: %+v", snap)
	}
	var zero engagement.Snapshot
	if snap.SessionID == zero.SessionID {
		t.Fatal("gated tick returned zero snapshot")
	}
}
