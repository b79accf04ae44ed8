package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const franchiseColumns = `
	id, name, slug, COALESCE(industry, ''),
	COALESCE(total_investment_min, 0), COALESCE(total_investment_max, 0),
	COALESCE(ideal_candidate_profile::text, ''),
	COALESCE(franchisor_user_id::text, ''), COALESCE(fdd_object_key, ''),
	created_at
`

func (s *PostgresStore) GetFranchise(ctx context.Context, id string) (Franchise, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+franchiseColumns+` FROM franchises WHERE id=$1`, id)
	return scanFranchise(row)
}

func (s *PostgresStore) GetFranchiseBySlug(ctx context.Context, slug string) (Franchise, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+franchiseColumns+` FROM franchises WHERE slug=$1`, slug)
	return scanFranchise(row)
}

func scanFranchise(row *sql.Row) (Franchise, error) {
	var f Franchise
	err := row.Scan(
		&f.ID, &f.Name, &f.Slug, &f.Industry,
		&f.TotalInvestmentMin, &f.TotalInvestmentMax,
		&f.IdealCandidateProfile,
		&f.FranchisorUserID, &f.FDDObjectKey,
		&f.CreatedAt,
	)
	if err != nil {
		return Franchise{}, err
	}
	return f, nil
}

const buyerProfileColumns = `
	id, COALESCE(user_id::text, ''),
	COALESCE(first_name, ''), COALESCE(last_name, ''), email,
	COALESCE(city_location, ''), COALESCE(state_location, ''),
	COALESCE(buying_timeline, ''), COALESCE(signup_source, ''),
	COALESCE(fico_score_range, ''), COALESCE(liquid_assets_range, ''),
	COALESCE(net_worth_range, ''), COALESCE(funding_plans, '[]'),
	COALESCE(linkedin_url, ''),
	COALESCE(no_felony_attestation, FALSE), COALESCE(no_bankruptcy_attestation, FALSE),
	profile_completed_at,
	COALESCE(years_of_experience, 0), COALESCE(management_experience, FALSE),
	COALESCE(has_owned_business, FALSE),
	COALESCE(industry_experience, '[]'), COALESCE(relevant_skills, '[]')
`

func (s *PostgresStore) GetBuyerProfile(ctx context.Context, id string) (BuyerProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+buyerProfileColumns+` FROM buyer_profiles WHERE id=$1`, id)
	return scanBuyerProfile(row)
}

func (s *PostgresStore) GetBuyerProfileByEmail(ctx context.Context, email string) (BuyerProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+buyerProfileColumns+` FROM buyer_profiles WHERE email=$1`, email)
	return scanBuyerProfile(row)
}

func scanBuyerProfile(row *sql.Row) (BuyerProfile, error) {
	var (
		b                            BuyerProfile
		fundingRaw, industryRaw, skillsRaw []byte
	)
	err := row.Scan(
		&b.ID, &b.UserID,
		&b.FirstName, &b.LastName, &b.Email,
		&b.CityLocation, &b.StateLocation,
		&b.BuyingTimeline, &b.SignupSource,
		&b.FicoScoreRange, &b.LiquidAssetsRange,
		&b.NetWorthRange, &fundingRaw,
		&b.LinkedInURL,
		&b.NoFelonyAttestation, &b.NoBankruptcyAttestation,
		&b.ProfileCompletedAt,
		&b.YearsOfExperience, &b.ManagementExperience,
		&b.HasOwnedBusiness,
		&industryRaw, &skillsRaw,
	)
	if err != nil {
		return BuyerProfile{}, err
	}
	if err := json.Unmarshal(fundingRaw, &b.FundingPlans); err != nil {
		return BuyerProfile{}, fmt.Errorf("decode funding plans: %w", err)
	}
	if err := json.Unmarshal(industryRaw, &b.IndustryExperience); err != nil {
		return BuyerProfile{}, fmt.Errorf("decode industry experience: %w", err)
	}
	if err := json.Unmarshal(skillsRaw, &b.RelevantSkills); err != nil {
		return BuyerProfile{}, fmt.Errorf("decode relevant skills: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) GetLeadAccess(ctx context.Context, id string) (LeadAccess, error) {
	var a LeadAccess
	err := s.db.QueryRowContext(ctx, `
		SELECT id, buyer_profile_id, franchise_id, created_at
		FROM lead_fdd_access WHERE id=$1
	`, id).Scan(&a.ID, &a.BuyerProfileID, &a.FranchiseID, &a.CreatedAt)
	if err != nil {
		return LeadAccess{}, err
	}
	return a, nil
}

const invitationColumns = `
	id, franchise_id, COALESCE(lead_name, ''), COALESCE(lead_email, ''),
	COALESCE(status, 'pending'), sent_at,
	COALESCE(source, ''), COALESCE(timeline, ''),
	COALESCE(city, ''), COALESCE(state, ''),
	COALESCE(target_location, ''), COALESCE(brand, ''), created_at
`

func (s *PostgresStore) GetInvitation(ctx context.Context, id string) (LeadInvitation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM lead_invitations WHERE id=$1`, id)
	return scanInvitation(row)
}

// FindInvitation looks up the invitation that brought a buyer to a
// franchise; used to enrich insights with source/timeline/territory.
func (s *PostgresStore) FindInvitation(ctx context.Context, franchiseID, leadEmail string) (LeadInvitation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+` FROM lead_invitations
		WHERE franchise_id=$1 AND lead_email=$2
		ORDER BY created_at DESC LIMIT 1
	`, franchiseID, leadEmail)
	return scanInvitation(row)
}

func scanInvitation(row *sql.Row) (LeadInvitation, error) {
	var inv LeadInvitation
	err := row.Scan(
		&inv.ID, &inv.FranchiseID, &inv.LeadName, &inv.LeadEmail,
		&inv.Status, &inv.SentAt,
		&inv.Source, &inv.Timeline,
		&inv.City, &inv.State,
		&inv.TargetLocation, &inv.Brand, &inv.CreatedAt,
	)
	if err != nil {
		return LeadInvitation{}, err
	}
	return inv, nil
}

// InsertNotification creates a notification unless one of the same type
// already exists for the buyer+franchise pair. Returns whether a row was
// inserted.
func (s *PostgresStore) InsertNotification(ctx context.Context, n Notification) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, type, title, message, data, buyer_id, franchise_id)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
		ON CONFLICT (user_id, type, buyer_id, franchise_id) DO NOTHING
	`, n.UserID, n.Type, n.Title, n.Message, n.Data, n.BuyerID, n.FranchiseID)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return rows > 0, nil
}
