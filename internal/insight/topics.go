package insight

import (
	"fmt"
	"sort"
	"strings"

	"leadpulse/api/internal/engagement"
)

// Sustained due diligence threshold for the topic narrative (30 minutes).
const significantTopicTime = 1800

// TopicCategory groups FDD items and question keywords into a theme a
// sales team can act on.
type TopicCategory struct {
	Name     string
	Keywords []string
	FDDItems []string
}

var topicCategories = []TopicCategory{
	{
		Name:     "Financial Performance",
		Keywords: []string{"item 19", "profit", "revenue", "earnings", "roi", "income", "performance", "gross sales", "average sales", "median", "financial data"},
		FDDItems: []string{"19"},
	},
	{
		Name:     "Investment & Costs",
		Keywords: []string{"item 7", "item 5", "item 6", "investment", "cost", "fee", "royalty", "franchise fee", "marketing fee", "ongoing fee", "initial fee", "how much"},
		FDDItems: []string{"5", "6", "7"},
	},
	{
		Name:     "Territory Protection",
		Keywords: []string{"item 12", "territory", "exclusive", "protected", "area", "location", "market", "competition"},
		FDDItems: []string{"12"},
	},
	{
		Name:     "Training & Support",
		Keywords: []string{"item 11", "training", "support", "assistance", "program", "help", "learn", "onboarding"},
		FDDItems: []string{"11"},
	},
	{
		Name:     "System & Brand",
		Keywords: []string{"item 20", "outlets", "locations", "system", "growth", "brand", "units", "opened", "closed", "how many", "franchisees"},
		FDDItems: []string{"20"},
	},
	{
		Name:     "Obligations & Restrictions",
		Keywords: []string{"item 8", "item 9", "restrictions", "requirements", "obligation", "sources", "products", "suppliers", "purchase"},
		FDDItems: []string{"8", "9"},
	},
	{
		Name:     "Franchisor Background",
		Keywords: []string{"item 1", "item 2", "item 3", "item 4", "management", "background", "litigation", "bankruptcy", "history", "experience", "leadership"},
		FDDItems: []string{"1", "2", "3", "4"},
	},
	{
		Name:     "Renewal & Termination",
		Keywords: []string{"item 17", "renewal", "termination", "transfer", "exit", "sell", "leave", "end"},
		FDDItems: []string{"17"},
	},
}

type TopicCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// QuestionInsights is a privacy-preserving summary of what a lead asked
// and explored, grouped by topic.
type QuestionInsights struct {
	TotalQuestions    int          `json:"totalQuestions"`
	TopicsExplored    []TopicCount `json:"topicsExplored"`
	NarrativeSummary  string       `json:"narrativeSummary"`
	EngagementSignals []string     `json:"engagementSignals"`
}

// BehaviorSignals flags which high-signal FDD items the lead reached,
// derived from both the recorded milestones and the viewed labels (section
// names carry more formats than the milestone flags cover).
type BehaviorSignals struct {
	ViewedItem19 bool
	ViewedItem7  bool
	ViewedItem12 bool
	ViewedItem20 bool
	ViewedItem11 bool
}

func DeriveSignals(agg engagement.Aggregate) BehaviorSignals {
	sections := lowered(agg.SectionsViewed)
	items := lowered(agg.ViewedItems)
	return BehaviorSignals{
		ViewedItem19: agg.Milestones.ViewedItem19 || anyContains(sections, "item 19", "financial") || anyContains(items, "19"),
		ViewedItem7:  agg.Milestones.ViewedItem7 || anyContains(sections, "item 7", "investment") || anyContains(items, "7"),
		ViewedItem12: anyContains(sections, "item 12", "territory") || anyContains(items, "12"),
		ViewedItem20: anyContains(sections, "item 20", "outlets") || anyContains(items, "20"),
		ViewedItem11: anyContains(sections, "item 11", "training") || anyContains(items, "11"),
	}
}

// GenerateQuestionInsights scores each topic category against the viewed
// sections, viewed items, and asked questions. Question keyword matches
// weigh double: asking is a stronger signal than viewing.
func GenerateQuestionInsights(agg engagement.Aggregate) QuestionInsights {
	signals := DeriveSignals(agg)
	viewed := lowered(append(append([]string(nil), agg.SectionsViewed...), agg.ViewedItems...))
	questions := lowered(agg.QuestionsAsked)
	hasSignificantTime := agg.TotalTimeSpentSeconds > significantTopicTime

	var topics []TopicCount
	for _, category := range topicCategories {
		count := 0
		for _, keyword := range category.Keywords {
			if anyContains(viewed, keyword) {
				count++
			}
		}
		for _, item := range category.FDDItems {
			for _, v := range agg.ViewedItems {
				if strings.Contains(v, item) || v == "Item "+item {
					count++
					break
				}
			}
		}
		for _, keyword := range category.Keywords {
			if anyContains(questions, keyword) {
				count += 2
			}
		}
		if category.Name == "Financial Performance" && signals.ViewedItem19 {
			count += 2
		}
		if category.Name == "Investment & Costs" && signals.ViewedItem7 {
			count += 2
		}
		if count > 0 {
			if count > 5 {
				count = 5
			}
			topics = append(topics, TopicCount{Name: category.Name, Count: count})
		}
	}

	sort.SliceStable(topics, func(i, j int) bool { return topics[i].Count > topics[j].Count })
	if len(topics) > 5 {
		topics = topics[:5]
	}

	var engagementSignals []string
	if signals.ViewedItem19 {
		engagementSignals = append(engagementSignals, "Focused on financial performance data - likely evaluating ROI potential")
	}
	if signals.ViewedItem7 {
		engagementSignals = append(engagementSignals, "Reviewed initial investment details - assessing affordability")
	}
	if hasTopic(topics, "Territory Protection") {
		engagementSignals = append(engagementSignals, "Explored territory information - interested in market exclusivity")
	}
	if hasTopic(topics, "Training & Support") {
		engagementSignals = append(engagementSignals, "Reviewed training programs - evaluating support structure")
	}
	if hasSignificantTime {
		engagementSignals = append(engagementSignals, "Spent significant time in due diligence - serious consideration")
	}

	return QuestionInsights{
		TotalQuestions:    len(agg.QuestionsAsked),
		TopicsExplored:    topics,
		NarrativeSummary:  topicNarrative(topics, len(agg.QuestionsAsked), hasSignificantTime),
		EngagementSignals: engagementSignals,
	}
}

func topicNarrative(topics []TopicCount, totalQuestions int, hasSignificantTime bool) string {
	if len(topics) == 0 && totalQuestions == 0 {
		return "This prospect has not yet asked questions through the AI assistant or explored specific FDD sections in depth."
	}

	questionContext := "explored content"
	if totalQuestions > 0 {
		questionContext = fmt.Sprintf("asked %d question%s", totalQuestions, plural(totalQuestions))
	}

	var top []string
	for i, t := range topics {
		if i == 3 {
			break
		}
		top = append(top, strings.ToLower(t.Name))
	}

	narrative := fmt.Sprintf("This prospect has %s focusing primarily on ", questionContext)
	switch len(top) {
	case 0:
		narrative = fmt.Sprintf("This prospect has %s across the document.", questionContext)
	case 1:
		narrative += top[0] + "."
	case 2:
		narrative += top[0] + " and " + top[1] + "."
	default:
		narrative += top[0] + ", " + top[1] + ", and " + top[2] + "."
	}

	hasFinancial := hasTopic(topics, "Financial Performance") || hasTopic(topics, "Investment & Costs")
	hasOperational := hasTopic(topics, "Training & Support") || hasTopic(topics, "Obligations & Restrictions")
	hasTerritory := hasTopic(topics, "Territory Protection")

	switch {
	case hasFinancial && hasOperational:
		narrative += " Their interest in both financial returns and operational details suggests they're in active due diligence and evaluating whether this franchise fits their goals and capabilities."
	case hasFinancial && hasTerritory:
		narrative += " Their focus on financials combined with territory questions indicates they're evaluating market opportunity and investment potential in their area."
	case hasFinancial:
		narrative += " This financial focus suggests they're ROI-oriented and will likely want concrete data on franchisee performance."
	case hasOperational:
		narrative += " Their operational focus suggests they're planning-minded and want to understand day-to-day requirements before committing."
	case hasTerritory:
		narrative += " Their territory interest suggests they have a specific location in mind and want to ensure market protection."
	}

	if hasSignificantTime && totalQuestions >= 5 {
		narrative += " The depth of their engagement indicates a serious prospect worth prioritizing."
	}
	return narrative
}

func hasTopic(topics []TopicCount, name string) bool {
	for _, t := range topics {
		if t.Name == name {
			return true
		}
	}
	return false
}

func lowered(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func anyContains(values []string, needles ...string) bool {
	for _, v := range values {
		for _, needle := range needles {
			if strings.Contains(v, needle) {
				return true
			}
		}
	}
	return false
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
