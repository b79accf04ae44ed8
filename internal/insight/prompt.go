package insight

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the generation prompt: lead profile, engagement
// telemetry, topic analysis, and the franchisor's ideal candidate profile,
// followed by the exact JSON shape the model must return.
func BuildPrompt(in Input) string {
	var b strings.Builder
	agg := in.Agg
	qi := GenerateQuestionInsights(agg)
	fit := assessInputFit(in)

	b.WriteString("You are a franchise sales advisor. Analyze this prospective franchisee's engagement with the Franchise Disclosure Document (FDD) and produce actionable sales intelligence.\n\n")

	b.WriteString("## Prospect\n")
	fmt.Fprintf(&b, "Name: %s\n", in.buyerName())
	fmt.Fprintf(&b, "Franchise: %s\n", in.franchiseName())
	fmt.Fprintf(&b, "Lead source: %s\n", in.leadSource())
	if loc := in.location(); loc != "" {
		fmt.Fprintf(&b, "Location: %s\n", loc)
	}
	if target := in.targetLocation(); target != "" {
		fmt.Fprintf(&b, "Target market: %s\n", target)
	}
	if timeline := in.timeline(); timeline != "" {
		fmt.Fprintf(&b, "Buying timeline: %s\n", timeline)
	}
	if in.Buyer != nil {
		if in.Buyer.LiquidAssetsRange != "" {
			fmt.Fprintf(&b, "Self-reported liquid assets: %s\n", in.Buyer.LiquidAssetsRange)
		}
		if in.Buyer.NetWorthRange != "" {
			fmt.Fprintf(&b, "Self-reported net worth: %s\n", in.Buyer.NetWorthRange)
		}
		if len(in.Buyer.FundingPlans) > 0 {
			fmt.Fprintf(&b, "Funding plans: %s\n", strings.Join(in.Buyer.FundingPlans, ", "))
		}
		if len(in.Buyer.IndustryExperience) > 0 {
			fmt.Fprintf(&b, "Industry experience: %s\n", strings.Join(in.Buyer.IndustryExperience, ", "))
		}
		if len(in.Buyer.RelevantSkills) > 0 {
			fmt.Fprintf(&b, "Relevant skills: %s\n", strings.Join(in.Buyer.RelevantSkills, ", "))
		}
	}

	b.WriteString("\n## Engagement\n")
	fmt.Fprintf(&b, "Engagement tier: %s\n", in.Tier)
	fmt.Fprintf(&b, "Total reading time: %s\n", formatDuration(agg.TotalTimeSpentSeconds))
	fmt.Fprintf(&b, "Sessions: %d", agg.SessionCount)
	if agg.SessionSpanDays > 1 {
		fmt.Fprintf(&b, " over %d days", agg.SessionSpanDays)
	}
	b.WriteString("\n")
	if len(agg.SectionsViewed) > 0 {
		fmt.Fprintf(&b, "Sections viewed: %s\n", strings.Join(agg.SectionsViewed, ", "))
	}
	if len(agg.ViewedItems) > 0 {
		fmt.Fprintf(&b, "FDD items viewed: %s\n", strings.Join(agg.ViewedItems, ", "))
	}
	fmt.Fprintf(&b, "Questions asked: %d\n", len(agg.QuestionsAsked))
	if agg.NotesCreated > 0 {
		fmt.Fprintf(&b, "Notes created: %d\n", agg.NotesCreated)
	}
	if agg.Downloaded {
		b.WriteString("Downloaded the FDD for offline review\n")
	}

	if len(qi.TopicsExplored) > 0 {
		b.WriteString("\n## Topic analysis\n")
		fmt.Fprintf(&b, "%s\n", qi.NarrativeSummary)
		for _, signal := range qi.EngagementSignals {
			fmt.Fprintf(&b, "- %s\n", signal)
		}
	}

	if fit != nil {
		b.WriteString("\n## Financial fit\n")
		fmt.Fprintf(&b, "Overall: %s (score %d/100)\n", fit.OverallFit, fit.Score)
		fmt.Fprintf(&b, "Liquid capital: %s\n", fit.LiquidCapitalAssessment)
		fmt.Fprintf(&b, "Net worth: %s\n", fit.NetWorthAssessment)
	}

	if in.Franchise != nil {
		if profile := ParseIdealProfile(in.Franchise.IdealCandidateProfile); profile != nil {
			writeIdealProfile(&b, profile)
		}
	}

	b.WriteString(`
Respond with ONLY a JSON object, no markdown fences, in exactly this shape:
{
  "summary": "2-3 sentence overview of this lead's engagement and fit",
  "keyFindings": ["specific observation", "..."],
  "recommendations": ["specific action for the sales team", "..."],
  "nextSteps": ["concrete next step with timing", "..."],
  "salesStrategy": {
    "recommendedApproach": "one-line approach",
    "approachRationale": "why this approach fits this lead",
    "talkingPoints": ["...", "..."],
    "conversationStarters": ["...", "..."],
    "anticipatedObjections": [{"objection": "...", "response": "..."}],
    "questionsToAsk": ["...", "..."]
  }
}
Base every claim on the data above. Do not invent engagement the data does not show.`)

	return b.String()
}

func writeIdealProfile(b *strings.Builder, profile *IdealProfile) {
	b.WriteString("\n## Franchisor's ideal candidate\n")
	if profile.OwnershipModel != "" {
		fmt.Fprintf(b, "Ownership model: %s\n", profile.OwnershipModel)
	}
	if len(profile.PreferredBackgrounds) > 0 {
		fmt.Fprintf(b, "Preferred backgrounds: %s\n", strings.Join(profile.PreferredBackgrounds, ", "))
	}
	for _, criterion := range profile.IdealCriteria {
		fmt.Fprintf(b, "- %s (weight %d): %s\n", criterion.Name, criterion.Weight, criterion.Description)
	}
	if profile.Notes != "" {
		fmt.Fprintf(b, "Notes: %s\n", profile.Notes)
	}
}
