package engagement

import (
	"reflect"
	"testing"
	"time"
)

func TestMergeTakesMaxCounters(t *testing.T) {
	old := Snapshot{SessionID: "s1", TimeSpent: 100, NotesCreated: 2}
	next := Snapshot{SessionID: "s1", TimeSpent: 90, NotesCreated: 3}

	merged := Merge(old, next)
	if merged.TimeSpent != 100 {
		t.Fatalf("TimeSpent = %d, want 100", merged.TimeSpent)
	}
	if merged.NotesCreated != 3 {
		t.Fatalf("NotesCreated = %d, want 3", merged.NotesCreated)
	}
}

func TestMergeIsCommutative(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	earlier := now.Add(-10 * time.Minute)
	a := Snapshot{
		SessionID:      "s1",
		TimeSpent:      120,
		SectionsViewed: []string{"Item 1", "Item 19"},
		QuestionsAsked: []string{"What is the royalty?"},
		ViewedItem19:   true,
		LastActivity:   earlier,
		CreatedAt:      earlier,
	}
	b := Snapshot{
		SessionID:      "s1",
		TimeSpent:      90,
		SectionsViewed: []string{"Item 19", "Item 7"},
		QuestionsAsked: []string{"What is the royalty?", "How many units?"},
		ViewedItem7:    true,
		Downloaded:     true,
		LastActivity:   now,
		CreatedAt:      now,
	}

	ab := Merge(a, b)
	ba := Merge(b, a)

	if ab.TimeSpent != ba.TimeSpent || ab.TimeSpent != 120 {
		t.Fatalf("TimeSpent mismatch: %d vs %d", ab.TimeSpent, ba.TimeSpent)
	}
	if len(ab.SectionsViewed) != 3 || len(ba.SectionsViewed) != 3 {
		t.Fatalf("section union sizes: %d vs %d, want 3", len(ab.SectionsViewed), len(ba.SectionsViewed))
	}
	if len(ab.QuestionsAsked) != 2 || len(ba.QuestionsAsked) != 2 {
		t.Fatalf("question union sizes: %d vs %d, want 2", len(ab.QuestionsAsked), len(ba.QuestionsAsked))
	}
	for _, m := range []Snapshot{ab, ba} {
		if !m.ViewedItem19 || !m.ViewedItem7 || !m.Downloaded {
			t.Fatalf("flags not ORed: %+v", m)
		}
		if !m.LastActivity.Equal(now) {
			t.Fatalf("LastActivity = %v, want %v", m.LastActivity, now)
		}
		if !m.CreatedAt.Equal(earlier) {
			t.Fatalf("CreatedAt = %v, want %v", m.CreatedAt, earlier)
		}
	}
}

func TestMergeUnionPreservesFirstSeenOrder(t *testing.T) {
	old := Snapshot{SessionID: "s1", SectionsViewed: []string{"a", "b"}}
	next := Snapshot{SessionID: "s1", SectionsViewed: []string{"b", "c", "a"}}

	merged := Merge(old, next)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(merged.SectionsViewed, want) {
		t.Fatalf("SectionsViewed = %v, want %v", merged.SectionsViewed, want)
	}
}

func TestMergeKeepsEarliestDownloadedAt(t *testing.T) {
	early := time.Now().UTC().Add(-time.Hour)
	late := time.Now().UTC()
	old := Snapshot{SessionID: "s1", Downloaded: true, DownloadedAt: &early}
	next := Snapshot{SessionID: "s1", Downloaded: true, DownloadedAt: &late}

	merged := Merge(old, next)
	if merged.DownloadedAt == nil || !merged.DownloadedAt.Equal(early) {
		t.Fatalf("DownloadedAt = %v, want %v", merged.DownloadedAt, early)
	}
}

func TestAggregatedSumsTimeAndUnionsSets(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day3 := day1.Add(48*time.Hour + time.Hour)
	sessions := []Snapshot{
		{
			SessionID:      "s1",
			TimeSpent:      600,
			SectionsViewed: []string{"Item 19"},
			QuestionsAsked: []string{"q1"},
			ViewedItem19:   true,
			CreatedAt:      day1,
			LastActivity:   day1.Add(10 * time.Minute),
		},
		{
			SessionID:      "s2",
			TimeSpent:      300,
			SectionsViewed: []string{"Item 19", "Item 7"},
			QuestionsAsked: []string{"q1", "q2"},
			ViewedItem7:    true,
			NotesCreated:   1,
			CreatedAt:      day3,
			LastActivity:   day3.Add(5 * time.Minute),
		},
	}

	agg := Aggregated(sessions)
	if agg.TotalTimeSpentSeconds != 900 {
		t.Fatalf("TotalTimeSpentSeconds = %d, want 900", agg.TotalTimeSpentSeconds)
	}
	if agg.SessionCount != 2 {
		t.Fatalf("SessionCount = %d, want 2", agg.SessionCount)
	}
	if len(agg.SectionsViewed) != 2 {
		t.Fatalf("SectionsViewed = %v, want 2 entries", agg.SectionsViewed)
	}
	if len(agg.QuestionsAsked) != 2 {
		t.Fatalf("QuestionsAsked = %v, want 2 entries", agg.QuestionsAsked)
	}
	if !agg.Milestones.ViewedItem19 || !agg.Milestones.ViewedItem7 {
		t.Fatalf("milestones not ORed: %+v", agg.Milestones)
	}
	if agg.SessionSpanDays < 3 {
		t.Fatalf("SessionSpanDays = %d, want >= 3", agg.SessionSpanDays)
	}
}

func TestAggregatedEmpty(t *testing.T) {
	agg := Aggregated(nil)
	if agg.SessionCount != 0 || agg.TotalTimeSpentSeconds != 0 {
		t.Fatalf("empty aggregate not zero: %+v", agg)
	}
	if agg.SessionSpanDays != 0 {
		t.Fatalf("SessionSpanDays = %d, want 0", agg.SessionSpanDays)
	}
}
