// Package engagement defines the session snapshot model shared by the
// client-side tracker, the ingestion store, and the aggregation pipeline.
package engagement

import "time"

// Milestones are one-way flags: once true they never transition back.
type Milestones struct {
	ViewedFDD            bool `json:"viewedFDD"`
	AskedQuestions       bool `json:"askedQuestions"`
	ViewedItem19         bool `json:"viewedItem19"`
	ViewedItem7          bool `json:"viewedItem7"`
	CreatedNotes         bool `json:"createdNotes"`
	SpentSignificantTime bool `json:"spentSignificantTime"`
}

// Snapshot is the full state of one browsing session. It is both the wire
// format posted to the ingestion endpoint and the record stored per session.
// Milestone flags are flattened into the top level on the wire.
type Snapshot struct {
	SessionID     string `json:"sessionId"`
	BuyerID       string `json:"buyerId,omitempty"`
	FranchiseID   string `json:"franchiseId"`
	FranchiseSlug string `json:"franchiseSlug,omitempty"`

	TimeSpent      int      `json:"timeSpent"`
	QuestionsAsked []string `json:"questionsAsked"`
	SectionsViewed []string `json:"sectionsViewed"`
	ViewedItems    []string `json:"viewedItems"`
	NotesCreated   int      `json:"notesCreated"`

	Downloaded   bool       `json:"downloaded"`
	DownloadedAt *time.Time `json:"downloadedAt,omitempty"`

	LastActivity time.Time `json:"lastActivity"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`

	ViewedFDD            bool `json:"viewedFDD"`
	AskedQuestions       bool `json:"askedQuestions"`
	ViewedItem19         bool `json:"viewedItem19"`
	ViewedItem7          bool `json:"viewedItem7"`
	CreatedNotes         bool `json:"createdNotes"`
	SpentSignificantTime bool `json:"spentSignificantTime"`
}

// Merge combines two snapshots of the same session into one. The rule is
// commutative (max on counters, union on sets, OR on flags) so that flushes
// arriving out of order - a beacon landing after a later periodic flush -
// converge on the same record regardless of delivery order.
func Merge(old, next Snapshot) Snapshot {
	merged := next
	if merged.SessionID == "" {
		merged.SessionID = old.SessionID
	}
	if merged.BuyerID == "" {
		merged.BuyerID = old.BuyerID
	}
	if merged.FranchiseID == "" {
		merged.FranchiseID = old.FranchiseID
	}
	if merged.FranchiseSlug == "" {
		merged.FranchiseSlug = old.FranchiseSlug
	}

	if old.TimeSpent > merged.TimeSpent {
		merged.TimeSpent = old.TimeSpent
	}
	if old.NotesCreated > merged.NotesCreated {
		merged.NotesCreated = old.NotesCreated
	}

	merged.QuestionsAsked = unionStrings(old.QuestionsAsked, next.QuestionsAsked)
	merged.SectionsViewed = unionStrings(old.SectionsViewed, next.SectionsViewed)
	merged.ViewedItems = unionStrings(old.ViewedItems, next.ViewedItems)

	merged.Downloaded = old.Downloaded || next.Downloaded
	// downloadedAt is set at most once; keep the earliest observation
	if old.DownloadedAt != nil {
		merged.DownloadedAt = old.DownloadedAt
	}

	if old.LastActivity.After(merged.LastActivity) {
		merged.LastActivity = old.LastActivity
	}
	if merged.CreatedAt.IsZero() || (!old.CreatedAt.IsZero() && old.CreatedAt.Before(merged.CreatedAt)) {
		merged.CreatedAt = old.CreatedAt
	}

	merged.ViewedFDD = old.ViewedFDD || next.ViewedFDD
	merged.AskedQuestions = old.AskedQuestions || next.AskedQuestions
	merged.ViewedItem19 = old.ViewedItem19 || next.ViewedItem19
	merged.ViewedItem7 = old.ViewedItem7 || next.ViewedItem7
	merged.CreatedNotes = old.CreatedNotes || next.CreatedNotes
	merged.SpentSignificantTime = old.SpentSignificantTime || next.SpentSignificantTime
	return merged
}

// unionStrings keeps first-seen order: everything in a, then members of b
// not already present.
func unionStrings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, lists := range [2][]string{a, b} {
		for _, v := range lists {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Aggregate is the derived cross-session view for one buyer+franchise pair.
// It is never stored; it is recomputed from the session records on read.
type Aggregate struct {
	TotalTimeSpentSeconds int
	SessionCount          int
	SectionsViewed        []string
	ViewedItems           []string
	QuestionsAsked        []string
	NotesCreated          int
	Downloaded            bool
	FirstActivity         time.Time
	LastActivity          time.Time
	SessionSpanDays       int
	Milestones            Milestones
}

// Aggregated sums and unions all sessions for a lead. Time is summed across
// sessions (each session's counter is already deduplicated by the max-merge
// at ingestion), sets are unioned, milestones are ORed.
func Aggregated(sessions []Snapshot) Aggregate {
	var agg Aggregate
	agg.SessionCount = len(sessions)
	for _, s := range sessions {
		agg.TotalTimeSpentSeconds += s.TimeSpent
		agg.NotesCreated += s.NotesCreated
		agg.SectionsViewed = unionStrings(agg.SectionsViewed, s.SectionsViewed)
		agg.ViewedItems = unionStrings(agg.ViewedItems, s.ViewedItems)
		agg.QuestionsAsked = unionStrings(agg.QuestionsAsked, s.QuestionsAsked)
		agg.Downloaded = agg.Downloaded || s.Downloaded

		created := s.CreatedAt
		if created.IsZero() {
			created = s.LastActivity
		}
		if agg.FirstActivity.IsZero() || (!created.IsZero() && created.Before(agg.FirstActivity)) {
			agg.FirstActivity = created
		}
		if s.LastActivity.After(agg.LastActivity) {
			agg.LastActivity = s.LastActivity
		}

		agg.Milestones.ViewedFDD = agg.Milestones.ViewedFDD || s.ViewedFDD
		agg.Milestones.AskedQuestions = agg.Milestones.AskedQuestions || s.AskedQuestions
		agg.Milestones.ViewedItem19 = agg.Milestones.ViewedItem19 || s.ViewedItem19
		agg.Milestones.ViewedItem7 = agg.Milestones.ViewedItem7 || s.ViewedItem7
		agg.Milestones.CreatedNotes = agg.Milestones.CreatedNotes || s.CreatedNotes
		agg.Milestones.SpentSignificantTime = agg.Milestones.SpentSignificantTime || s.SpentSignificantTime
	}

	if agg.SessionCount > 1 && !agg.FirstActivity.IsZero() && agg.LastActivity.After(agg.FirstActivity) {
		span := agg.LastActivity.Sub(agg.FirstActivity)
		agg.SessionSpanDays = int((span + 24*time.Hour - 1) / (24 * time.Hour))
	}
	return agg
}
