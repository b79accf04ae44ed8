// Package export renders lead intelligence reports as PDF.
package export

import (
	"errors"
	"time"

	"leadpulse/api/internal/insight"
)

// Report is everything the PDF template needs about one lead.
type Report struct {
	BuyerName      string
	BuyerEmail     string
	FranchiseName  string
	LeadSource     string
	Location       string
	Timeline       string
	GeneratedAt    time.Time
	TotalTime      string
	SessionCount   int
	SessionSpan    int
	QuestionsAsked int
	NotesCreated   int
	Downloaded     bool
	SectionsViewed []string
	Insight        insight.Insight
	Questions      insight.QuestionInsights
}

// Result contains the rendered export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates the headless browser runtime is
// unavailable.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
