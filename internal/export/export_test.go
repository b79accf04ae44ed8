package export

import (
	"strings"
	"testing"
	"time"

	"leadpulse/api/internal/insight"
)

func sampleReport() Report {
	return Report{
		BuyerName:      "Dana Reyes",
		BuyerEmail:     "dana@example.com",
		FranchiseName:  "Grill House",
		GeneratedAt:    time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		TotalTime:      "1h 5m",
		SessionCount:   4,
		SessionSpan:    6,
		QuestionsAsked: 7,
		SectionsViewed: []string{"Item 19", "Item 7"},
		Insight: insight.Insight{
			Summary:         "Dana Reyes is a highly engaged lead.",
			KeyFindings:     []string{"Spent over an hour reading"},
			Recommendations: []string{"Call within 24 hours"},
			NextSteps:       []string{"Schedule discovery day"},
			EngagementTier:  insight.TierHigh,
			TierMessage:     "Hot lead - prioritize immediate follow-up",
			SalesStrategy: &insight.SalesStrategy{
				RecommendedApproach: "Direct, data-forward follow-up",
				ApproachRationale:   "They have done real due diligence.",
				TalkingPoints:       []string{"Walk through Item 19"},
				AnticipatedObjections: []insight.Objection{
					{Objection: "Investment feels high", Response: "Discuss SBA financing"},
				},
				QuestionsToAsk: []string{"What is your timeline?"},
			},
		},
	}
}

func TestRenderReportHTML(t *testing.T) {
	html, err := RenderReportHTML(sampleReport())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"Dana Reyes",
		"Grill House",
		"1h 5m",
		"Hot lead - prioritize immediate follow-up",
		"Spent over an hour reading",
		"Direct, data-forward follow-up",
		"Investment feels high",
		"Item 19",
		"Mar 15, 2026",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRenderReportHTMLEscapesContent(t *testing.T) {
	report := sampleReport()
	report.BuyerName = `<script>alert("x")</script>`
	html, err := RenderReportHTML(report)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Fatal("buyer name not escaped")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"lead-report-Dana Reyes": "lead-report-Dana-Reyes",
		"a/b\\c":                 "abc",
		"":                       "report",
		strings.Repeat("x", 80):  strings.Repeat("x", 50),
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	if got := percentEncodeForDataURL("a b"); got != "a%20b" {
		t.Fatalf("space encoding = %q, want a%%20b", got)
	}
	if got := percentEncodeForDataURL("a+b"); got != "a%2Bb" {
		t.Fatalf("plus encoding = %q, want a%%2Bb", got)
	}
	if got := percentEncodeForDataURL("abc-_.~"); got != "abc-_.~" {
		t.Fatalf("unreserved chars changed: %q", got)
	}
}
