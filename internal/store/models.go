package store

import "time"

type Franchise struct {
	ID                 string
	Name               string
	Slug               string
	Industry           string
	TotalInvestmentMin int64
	TotalInvestmentMax int64
	// Raw JSON document configured by the franchisor; parsed by the
	// insight package.
	IdealCandidateProfile string
	FranchisorUserID      string
	FDDObjectKey          string
	CreatedAt             time.Time
}

type BuyerProfile struct {
	ID             string
	UserID         string
	FirstName      string
	LastName       string
	Email          string
	CityLocation   string
	StateLocation  string
	BuyingTimeline string
	SignupSource   string

	FicoScoreRange    string
	LiquidAssetsRange string
	NetWorthRange     string
	FundingPlans      []string
	LinkedInURL       string

	NoFelonyAttestation     bool
	NoBankruptcyAttestation bool
	ProfileCompletedAt      *time.Time

	YearsOfExperience    int
	ManagementExperience bool
	HasOwnedBusiness     bool
	IndustryExperience   []string
	RelevantSkills       []string
}

// FullName returns "First Last" or the email when names are missing.
func (b BuyerProfile) FullName() string {
	name := b.FirstName
	if b.LastName != "" {
		if name != "" {
			name += " "
		}
		name += b.LastName
	}
	if name == "" {
		return b.Email
	}
	return name
}

type LeadInvitation struct {
	ID             string
	FranchiseID    string
	LeadName       string
	LeadEmail      string
	Status         string
	SentAt         *time.Time
	Source         string
	Timeline       string
	City           string
	State          string
	TargetLocation string
	Brand          string
	CreatedAt      time.Time
}

// LeadAccess records that a buyer was granted access to a franchise's FDD.
// Its id is the lead_id the franchisor dashboard queries with.
type LeadAccess struct {
	ID             string
	BuyerProfileID string
	FranchiseID    string
	CreatedAt      time.Time
}

type Notification struct {
	ID          int64
	UserID      string
	Type        string
	Title       string
	Message     string
	Data        string
	BuyerID     string
	FranchiseID string
	CreatedAt   time.Time
}
