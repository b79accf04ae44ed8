package insight

import (
	"encoding/json"

	"leadpulse/api/internal/engagement"
	"leadpulse/api/internal/store"
)

// Input is everything an insight is generated from. Buyer, Franchise, and
// Invitation may be nil; every strategy substitutes neutral defaults.
type Input struct {
	Agg        engagement.Aggregate
	Tier       Tier
	Buyer      *store.BuyerProfile
	Franchise  *store.Franchise
	Invitation *store.LeadInvitation
}

func (in Input) buyerName() string {
	if in.Buyer != nil && in.Buyer.FirstName != "" {
		return in.Buyer.FullName()
	}
	if in.Invitation != nil && in.Invitation.LeadName != "" {
		return in.Invitation.LeadName
	}
	return "This prospect"
}

func (in Input) franchiseName() string {
	if in.Franchise != nil && in.Franchise.Name != "" {
		return in.Franchise.Name
	}
	if in.Invitation != nil && in.Invitation.Brand != "" {
		return in.Invitation.Brand
	}
	return "the franchise"
}

func (in Input) leadSource() string {
	if in.Invitation != nil && in.Invitation.Source != "" {
		return in.Invitation.Source
	}
	if in.Buyer != nil && in.Buyer.SignupSource != "" {
		return in.Buyer.SignupSource
	}
	return "Direct"
}

func (in Input) timeline() string {
	if in.Invitation != nil && in.Invitation.Timeline != "" {
		return in.Invitation.Timeline
	}
	if in.Buyer != nil {
		return in.Buyer.BuyingTimeline
	}
	return ""
}

// location prefers the invitation's city/state over the profile's, as the
// invitation is usually more recent.
func (in Input) location() string {
	if in.Invitation != nil && in.Invitation.City != "" && in.Invitation.State != "" {
		return in.Invitation.City + ", " + in.Invitation.State
	}
	if in.Buyer != nil && in.Buyer.CityLocation != "" && in.Buyer.StateLocation != "" {
		return in.Buyer.CityLocation + ", " + in.Buyer.StateLocation
	}
	return ""
}

func (in Input) targetLocation() string {
	if in.Invitation != nil {
		return in.Invitation.TargetLocation
	}
	return ""
}

// Insight is the output contract shared by every strategy and tier: the
// caller always gets a well-formed object with a non-empty summary.
type Insight struct {
	Summary                string         `json:"summary"`
	KeyFindings            []string       `json:"keyFindings"`
	Recommendations        []string       `json:"recommendations"`
	NextSteps              []string       `json:"nextSteps"`
	EngagementTier         Tier           `json:"engagementTier"`
	TierMessage            string         `json:"tierMessage"`
	FinancialFitAssessment string         `json:"financialFitAssessment,omitempty"`
	SalesStrategy          *SalesStrategy `json:"salesStrategy,omitempty"`
	CandidateFit           *CandidateFit  `json:"candidateFit,omitempty"`
}

// SalesStrategy is the recommended-approach section of an insight.
type SalesStrategy struct {
	RecommendedApproach   string      `json:"recommendedApproach"`
	ApproachRationale     string      `json:"approachRationale"`
	TalkingPoints         []string    `json:"talkingPoints"`
	ConversationStarters  []string    `json:"conversationStarters,omitempty"`
	AnticipatedObjections []Objection `json:"anticipatedObjections"`
	QuestionsToAsk        []string    `json:"questionsToAsk"`
}

type Objection struct {
	Objection string `json:"objection"`
	Response  string `json:"response"`
}

// CandidateFit scores the lead against the franchisor's ideal profile.
type CandidateFit struct {
	OverallScore  int             `json:"overallScore,omitempty"`
	OverallRating string          `json:"overallRating,omitempty"`
	FinancialFit  *FinancialFit   `json:"financialFit,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

type FinancialFit struct {
	Status                  string `json:"status"`
	Score                   int    `json:"score"`
	LiquidCapitalAssessment string `json:"liquidCapitalAssessment"`
	NetWorthAssessment      string `json:"netWorthAssessment"`
	FundingPlanNotes        string `json:"fundingPlanNotes,omitempty"`
	Recommendation          string `json:"recommendation,omitempty"`
}

// IdealProfile is the franchisor-configured candidate profile stored as a
// JSON document on the franchise record.
type IdealProfile struct {
	FinancialRequirements *FinancialRequirements `json:"financial_requirements"`
	IdealCriteria         []Criterion            `json:"ideal_criteria"`
	PreferredBackgrounds  []string               `json:"preferred_backgrounds"`
	OwnershipModel        string                 `json:"ownership_model"`
	Notes                 string                 `json:"notes"`
}

type FinancialRequirements struct {
	LiquidCapitalMin   int64 `json:"liquid_capital_min"`
	NetWorthMin        int64 `json:"net_worth_min"`
	TotalInvestmentMin int64 `json:"total_investment_min"`
	TotalInvestmentMax int64 `json:"total_investment_max"`
}

type Criterion struct {
	Name              string   `json:"name"`
	Weight            int      `json:"weight"`
	Description       string   `json:"description"`
	BuyerSignals      []string `json:"buyer_signals"`
	IndustrySignals   []string `json:"industry_signals"`
	EngagementSignals []string `json:"engagement_signals"`
}

// ParseIdealProfile decodes the franchise's candidate profile document.
// A missing or malformed document yields nil, never an error: insight
// generation must not fail on franchisor configuration.
func ParseIdealProfile(raw string) *IdealProfile {
	if raw == "" {
		return nil
	}
	var profile IdealProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil
	}
	return &profile
}
