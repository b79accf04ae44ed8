package insight

import (
	"fmt"
	"strings"
)

// formatDuration renders seconds as "1h 12m" or "8m" for summaries.
func formatDuration(seconds int) string {
	minutes := seconds / 60
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// PendingInvitation builds the insight shown before the lead has opened
// the FDD at all, when only an invitation exists.
func PendingInvitation(in Input) Insight {
	name := in.buyerName()
	franchise := in.franchiseName()
	source := in.leadSource()

	summary := fmt.Sprintf("%s was invited to review the %s FDD but has not yet opened it.", name, franchise)
	if timeline := in.timeline(); timeline != "" {
		summary += fmt.Sprintf(" Their stated buying timeline is %q.", timeline)
	}

	findings := []string{
		fmt.Sprintf("Lead source: %s", source),
		"FDD invitation sent, not yet viewed",
	}
	if loc := in.location(); loc != "" {
		findings = append(findings, fmt.Sprintf("Located in %s", loc))
	}
	if target := in.targetLocation(); target != "" {
		findings = append(findings, fmt.Sprintf("Target market: %s", target))
	}

	return Insight{
		Summary:     summary,
		KeyFindings: findings,
		Recommendations: []string{
			"Send a personalized reminder referencing their original interest",
			"Offer a 15-minute intro call to walk through the FDD highlights",
			"Confirm the invitation email did not land in spam",
		},
		NextSteps: []string{
			"Re-send the FDD access link with a short personal note",
			"Follow up by phone within 3 business days if still unopened",
		},
		EngagementTier: TierNone,
		TierMessage:    TierMessage(TierNone),
	}
}

// Template builds a deterministic insight for the given tier. It is the
// primary strategy for none, minimal, and partial tiers and the fallback
// for meaningful and high.
func Template(in Input) Insight {
	switch in.Tier {
	case TierNone:
		return templateNone(in)
	case TierMinimal:
		return templateMinimal(in)
	case TierPartial:
		return templatePartial(in)
	default:
		return templateEngaged(in)
	}
}

func templateNone(in Input) Insight {
	name := in.buyerName()
	franchise := in.franchiseName()
	return Insight{
		Summary: fmt.Sprintf("%s has access to the %s FDD but has not spent measurable time reviewing it yet.", name, franchise),
		KeyFindings: []string{
			"No recorded reading time",
			fmt.Sprintf("Lead source: %s", in.leadSource()),
		},
		Recommendations: []string{
			"Reach out to confirm they can access the document",
			"Share a short guide on which FDD sections matter most",
		},
		NextSteps: []string{
			"Send a check-in email this week",
			"Offer to schedule a document walkthrough",
		},
		EngagementTier: TierNone,
		TierMessage:    TierMessage(TierNone),
	}
}

func templateMinimal(in Input) Insight {
	name := in.buyerName()
	franchise := in.franchiseName()
	agg := in.Agg

	findings := []string{
		fmt.Sprintf("Spent %s across %d session%s", formatDuration(agg.TotalTimeSpentSeconds), agg.SessionCount, plural(agg.SessionCount)),
	}
	if len(agg.SectionsViewed) > 0 {
		findings = append(findings, fmt.Sprintf("Browsed %d section%s so far", len(agg.SectionsViewed), plural(len(agg.SectionsViewed))))
	}
	findings = append(findings, fmt.Sprintf("Lead source: %s", in.leadSource()))

	return Insight{
		Summary: fmt.Sprintf("%s has briefly opened the %s FDD (%s total) - an early-stage look rather than real due diligence.",
			name, franchise, formatDuration(agg.TotalTimeSpentSeconds)),
		KeyFindings: findings,
		Recommendations: []string{
			"Nurture with educational content rather than a hard sell",
			"Point them to Item 19 and Item 7 as the sections buyers care about most",
			"Keep outreach light; they are still orienting themselves",
		},
		NextSteps: []string{
			"Send a 'getting started with the FDD' email",
			"Schedule a follow-up touch in one week",
		},
		EngagementTier: TierMinimal,
		TierMessage:    TierMessage(TierMinimal),
	}
}

func templatePartial(in Input) Insight {
	name := in.buyerName()
	franchise := in.franchiseName()
	agg := in.Agg
	signals := DeriveSignals(agg)

	findings := []string{
		fmt.Sprintf("Spent %s across %d session%s", formatDuration(agg.TotalTimeSpentSeconds), agg.SessionCount, plural(agg.SessionCount)),
	}
	if signals.ViewedItem19 {
		findings = append(findings, "Reviewed Item 19 financial performance data")
	}
	if signals.ViewedItem7 {
		findings = append(findings, "Reviewed Item 7 investment costs")
	}
	if n := len(agg.QuestionsAsked); n > 0 {
		findings = append(findings, fmt.Sprintf("Asked %d question%s through the assistant", n, plural(n)))
	}
	if agg.NotesCreated > 0 {
		findings = append(findings, fmt.Sprintf("Created %d note%s while reading", agg.NotesCreated, plural(agg.NotesCreated)))
	}

	recommendations := []string{
		"Reach out while the document is fresh in their mind",
		"Ask which sections raised questions for them",
	}
	if !signals.ViewedItem19 {
		recommendations = append(recommendations, "Guide them to Item 19; they have not reached the financial data yet")
	}

	return Insight{
		Summary: fmt.Sprintf("%s is actively exploring the %s FDD (%s total) and shows genuine interest, but has not yet done deep due diligence.",
			name, franchise, formatDuration(agg.TotalTimeSpentSeconds)),
		KeyFindings:     findings,
		Recommendations: recommendations,
		NextSteps: []string{
			"Call within 2-3 days to answer open questions",
			"Offer an intro to an existing franchisee",
		},
		EngagementTier: TierPartial,
		TierMessage:    TierMessage(TierPartial),
	}
}

// templateEngaged covers meaningful and high tiers. It is also the
// fallback when AI generation fails, so it carries the full structure
// including sales strategy and financial fit.
func templateEngaged(in Input) Insight {
	name := in.buyerName()
	franchise := in.franchiseName()
	agg := in.Agg
	signals := DeriveSignals(agg)
	fit := assessInputFit(in)
	qi := GenerateQuestionInsights(agg)

	findings := []string{
		fmt.Sprintf("Spent %s across %d session%s", formatDuration(agg.TotalTimeSpentSeconds), agg.SessionCount, plural(agg.SessionCount)),
	}
	if agg.SessionSpanDays > 1 {
		findings = append(findings, fmt.Sprintf("Returned repeatedly over %d days - sustained interest", agg.SessionSpanDays))
	}
	if signals.ViewedItem19 {
		findings = append(findings, "Studied Item 19 financial performance - evaluating ROI")
	}
	if signals.ViewedItem7 {
		findings = append(findings, "Studied Item 7 investment costs - assessing affordability")
	}
	if n := len(agg.QuestionsAsked); n > 0 {
		findings = append(findings, fmt.Sprintf("Asked %d question%s through the assistant", n, plural(n)))
	}
	if agg.Downloaded {
		findings = append(findings, "Downloaded the FDD for offline review")
	}
	if line := fitSummaryLine(fit); line != "" {
		findings = append(findings, line)
	}

	talkingPoints := []string{
		"Acknowledge the time they have invested in the FDD",
		"Walk through Item 19 numbers against their market",
	}
	var openers []string
	for _, t := range qi.TopicsExplored {
		openers = append(openers, fmt.Sprintf("I noticed %s came up a lot in your review - what stood out?", strings.ToLower(t.Name)))
		if len(openers) == 2 {
			break
		}
	}
	if len(openers) == 0 {
		openers = []string{"What part of the FDD surprised you most?"}
	}

	objections := []Objection{
		{
			Objection: "The initial investment feels high",
			Response:  "Break down the Item 7 ranges and walk through financing paths including SBA",
		},
		{
			Objection: "I need more time to decide",
			Response:  "Agree on a concrete next milestone such as a discovery day or franchisee calls",
		},
	}
	if fit != nil && fit.OverallFit == "not_qualified" {
		objections = append(objections, Objection{
			Objection: "Financing the full investment",
			Response:  "Discuss partner structures or a smaller-footprint option before disqualifying",
		})
	}

	strategy := &SalesStrategy{
		RecommendedApproach:  "Direct, data-forward follow-up",
		ApproachRationale:    fmt.Sprintf("%s has done real due diligence on %s; they will respond better to substance than to nurture content.", name, franchise),
		TalkingPoints:        talkingPoints,
		ConversationStarters: openers,
		AnticipatedObjections: objections,
		QuestionsToAsk: []string{
			"What is your target opening timeline?",
			"Have you discussed this opportunity with your family or partners?",
			"What would you need to see to move to the next step?",
		},
	}

	summary := fmt.Sprintf("%s%s has invested %s in the %s FDD and is one of your most engaged leads. %s",
		financialPrefix(fit), name, formatDuration(agg.TotalTimeSpentSeconds), franchise, qi.NarrativeSummary)

	insight := Insight{
		Summary:     summary,
		KeyFindings: findings,
		Recommendations: []string{
			"Prioritize this lead for immediate personal follow-up",
			"Prepare answers on the topics they explored most",
			"Propose a concrete next step such as a discovery call",
		},
		NextSteps: []string{
			"Call within 24 hours",
			"Send a tailored follow-up referencing their top topics",
			"Line up a franchisee reference in their region",
		},
		EngagementTier: in.Tier,
		TierMessage:    TierMessage(in.Tier),
		SalesStrategy:  strategy,
		CandidateFit:   fitToCandidate(fit),
	}
	if line := fitSummaryLine(fit); line != "" {
		insight.FinancialFitAssessment = line
	}
	return insight
}
