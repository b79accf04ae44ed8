package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"leadpulse/api/internal/config"
	"leadpulse/api/internal/engagement"
	"leadpulse/api/internal/export"
	"leadpulse/api/internal/insight"
	"leadpulse/api/internal/search"
	"leadpulse/api/internal/session"
	"leadpulse/api/internal/store"
)

// High-engagement notification thresholds. Crossing any one of them
// notifies the franchisor once per buyer+franchise pair.
const (
	notifyTimeSeconds = 600
	notifyViewedItems = 5
	notifyQuestions   = 3
)

type dataStore interface {
	GetFranchise(ctx context.Context, id string) (store.Franchise, error)
	GetFranchiseBySlug(ctx context.Context, slug string) (store.Franchise, error)
	GetBuyerProfile(ctx context.Context, id string) (store.BuyerProfile, error)
	GetBuyerProfileByEmail(ctx context.Context, email string) (store.BuyerProfile, error)
	GetLeadAccess(ctx context.Context, id string) (store.LeadAccess, error)
	GetInvitation(ctx context.Context, id string) (store.LeadInvitation, error)
	FindInvitation(ctx context.Context, franchiseID, leadEmail string) (store.LeadInvitation, error)
	InsertNotification(ctx context.Context, n store.Notification) (bool, error)
	Ping(ctx context.Context) error
}

type sessionStore interface {
	Upsert(ctx context.Context, snap engagement.Snapshot) (engagement.Snapshot, error)
	ListByLead(ctx context.Context, buyerID, franchiseID string) ([]engagement.Snapshot, error)
	Ping(ctx context.Context) error
}

type questionSearcher interface {
	Search(ctx context.Context, q search.Query) search.Response
	IndexQuestions(records []search.QuestionRecord)
}

type insightGenerator interface {
	Generate(ctx context.Context, in insight.Input) insight.Insight
}

type downloadSigner interface {
	PresignedDownloadURL(ctx context.Context, objectKey, filename string) (string, error)
}

type pdfRenderer func(report export.Report) (*export.Result, error)

type Service struct {
	cfg       config.Config
	store     dataStore
	sessions  sessionStore
	search    questionSearcher // nil disables question search
	insights  insightGenerator
	signer    downloadSigner // nil disables FDD downloads
	renderPDF pdfRenderer
}

func New(cfg config.Config, dataStore *store.PostgresStore, sessions *session.RedisStore, searchSvc *search.Service, insights *insight.Generator, signer downloadSigner) *Service {
	s := &Service{
		cfg:       cfg,
		store:     dataStore,
		sessions:  sessions,
		insights:  insights,
		renderPDF: export.ExportPDF,
	}
	if searchSvc != nil {
		s.search = searchSvc
	}
	if signer != nil {
		s.signer = signer
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := s.sessions.Ping(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// Ingest merges one session snapshot into storage. Snapshots missing a
// buyer or franchise id are acknowledged but not stored; attribution
// begins once the client learns both.
func (s *Service) Ingest(ctx context.Context, snap engagement.Snapshot) (*engagement.Snapshot, error) {
	if snap.SessionID == "" {
		return nil, domainError(http.StatusBadRequest, "INVALID_SESSION", "sessionId is required", nil)
	}
	if snap.FranchiseID == "" && snap.FranchiseSlug != "" {
		franchise, err := s.store.GetFranchiseBySlug(ctx, snap.FranchiseSlug)
		if err == nil {
			snap.FranchiseID = franchise.ID
		}
	}
	// Beacons can fire before the viewer learns its franchise or buyer
	// ids; acknowledge them so the client keeps flushing.
	if snap.FranchiseID == "" || snap.BuyerID == "" {
		return nil, nil
	}
	if snap.LastActivity.IsZero() {
		snap.LastActivity = time.Now().UTC()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = snap.LastActivity
	}

	merged, err := s.sessions.Upsert(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("upsert session: %w", err)
	}

	s.indexQuestions(merged)
	s.maybeNotify(ctx, merged)

	return &merged, nil
}

func (s *Service) indexQuestions(snap engagement.Snapshot) {
	if s.search == nil || len(snap.QuestionsAsked) == 0 {
		return
	}
	records := make([]search.QuestionRecord, 0, len(snap.QuestionsAsked))
	for _, q := range snap.QuestionsAsked {
		records = append(records, search.QuestionRecord{
			ID:          search.QuestionID(snap.SessionID, q),
			FranchiseID: snap.FranchiseID,
			BuyerID:     snap.BuyerID,
			SessionID:   snap.SessionID,
			Text:        q,
			AskedAt:     snap.LastActivity,
		})
	}
	s.search.IndexQuestions(records)
}

// maybeNotify alerts the franchisor the first time a lead crosses a
// high-engagement threshold. Failures are logged, never surfaced: the
// ingest path must stay write-available.
func (s *Service) maybeNotify(ctx context.Context, snap engagement.Snapshot) {
	sessions, err := s.sessions.ListByLead(ctx, snap.BuyerID, snap.FranchiseID)
	if err != nil {
		log.Printf("app: list sessions for notification check: %v", err)
		return
	}
	agg := engagement.Aggregated(sessions)
	if agg.TotalTimeSpentSeconds < notifyTimeSeconds &&
		len(agg.ViewedItems) < notifyViewedItems &&
		len(agg.QuestionsAsked) < notifyQuestions {
		return
	}

	franchise, err := s.store.GetFranchise(ctx, snap.FranchiseID)
	if err != nil || franchise.FranchisorUserID == "" {
		return
	}
	buyerName := "A prospect"
	if buyer, err := s.store.GetBuyerProfile(ctx, snap.BuyerID); err == nil {
		buyerName = buyer.FullName()
	}

	data, _ := json.Marshal(map[string]any{
		"buyerId":     snap.BuyerID,
		"franchiseId": snap.FranchiseID,
		"timeSpent":   agg.TotalTimeSpentSeconds,
		"questions":   len(agg.QuestionsAsked),
	})
	inserted, err := s.store.InsertNotification(ctx, store.Notification{
		UserID:      franchise.FranchisorUserID,
		Type:        "high_engagement",
		Title:       "Highly engaged lead",
		Message:     fmt.Sprintf("%s is actively reviewing your FDD", buyerName),
		Data:        string(data),
		BuyerID:     snap.BuyerID,
		FranchiseID: snap.FranchiseID,
	})
	if err != nil {
		log.Printf("app: insert high-engagement notification: %v", err)
		return
	}
	if inserted {
		log.Printf("app: high-engagement notification for buyer %s franchise %s", snap.BuyerID, snap.FranchiseID)
	}
}

// FocusArea ranks interest in one FDD section for the dashboard.
type FocusArea struct {
	Item      string `json:"item"`
	TimeSpent string `json:"timeSpent"`
	Interest  string `json:"interest"`
}

// BuyerQualification is the buyer's self-reported financial snapshot shown
// next to the engagement data.
type BuyerQualification struct {
	LiquidCapital  string   `json:"liquidCapital,omitempty"`
	NetWorth       string   `json:"netWorth,omitempty"`
	FicoScoreRange string   `json:"ficoScoreRange,omitempty"`
	FundingPlans   []string `json:"fundingPlans,omitempty"`
	BuyingTimeline string   `json:"buyingTimeline,omitempty"`
}

// InvitationData surfaces the originating invitation on the lead view.
type InvitationData struct {
	Status   string     `json:"status"`
	SentDate *time.Time `json:"sentDate"`
	Source   string     `json:"source,omitempty"`
	Timeline string     `json:"timeline,omitempty"`
}

// LeadEngagementResponse is the full aggregation payload for one lead.
// Counters are zero and accessedDate null for a lead who has not opened
// the FDD yet.
type LeadEngagementResponse struct {
	LeadID        string `json:"leadId"`
	BuyerName     string `json:"buyerName"`
	FranchiseID   string `json:"franchiseId"`
	FranchiseName string `json:"franchiseName"`

	TotalTimeSpent        string                `json:"totalTimeSpent"`
	TotalTimeSpentSeconds int                   `json:"totalTimeSpentSeconds"`
	SectionsViewed        []string              `json:"sectionsViewed"`
	QuestionsAsked        []string              `json:"questionsAsked"`
	FDDFocusAreas         []FocusArea           `json:"fddFocusAreas"`
	AccessedDate          *time.Time            `json:"accessedDate"`
	EngagementCount       int                   `json:"engagementCount"`
	Downloaded            bool                  `json:"downloaded"`
	Milestones            engagement.Milestones `json:"milestones"`

	EngagementTier insight.Tier `json:"engagementTier"`
	TierMessage    string       `json:"tierMessage"`

	AIInsights       insight.Insight          `json:"aiInsights"`
	QuestionInsights insight.QuestionInsights `json:"questionInsights"`

	BuyerQualification *BuyerQualification `json:"buyerQualification"`
	BuyerLocation      *string             `json:"buyerLocation"`
	InvitationData     *InvitationData     `json:"invitationData"`
}

type leadContext struct {
	access     store.LeadAccess
	buyer      store.BuyerProfile
	franchise  store.Franchise
	invitation *store.LeadInvitation
	sessions   []engagement.Snapshot
	agg        engagement.Aggregate
	tier       insight.Tier
}

func (s *Service) loadLead(ctx context.Context, leadID string) (leadContext, error) {
	var lc leadContext

	access, err := s.store.GetLeadAccess(ctx, leadID)
	switch {
	case err == nil:
		lc.access = access
		lc.buyer, err = s.store.GetBuyerProfile(ctx, access.BuyerProfileID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return lc, fmt.Errorf("get buyer profile: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		// An invited lead has no access record until they first open the
		// FDD. Fall back to the invitation under the same id so the
		// dashboard still gets the tier-none payload.
		inv, invErr := s.store.GetInvitation(ctx, leadID)
		if invErr != nil {
			if errors.Is(invErr, sql.ErrNoRows) {
				return lc, domainError(http.StatusNotFound, "LEAD_NOT_FOUND", "Lead not found", nil)
			}
			return lc, fmt.Errorf("get invitation: %w", invErr)
		}
		lc.invitation = &inv
		lc.access = store.LeadAccess{ID: leadID, FranchiseID: inv.FranchiseID}
		if inv.LeadEmail != "" {
			if buyer, buyerErr := s.store.GetBuyerProfileByEmail(ctx, inv.LeadEmail); buyerErr == nil {
				lc.buyer = buyer
			}
		}
	default:
		return lc, fmt.Errorf("get lead access: %w", err)
	}

	lc.franchise, err = s.store.GetFranchise(ctx, lc.access.FranchiseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return lc, fmt.Errorf("get franchise: %w", err)
	}
	if lc.invitation == nil && lc.buyer.Email != "" {
		if inv, invErr := s.store.FindInvitation(ctx, lc.access.FranchiseID, lc.buyer.Email); invErr == nil {
			lc.invitation = &inv
		}
	}

	if lc.access.BuyerProfileID != "" {
		lc.sessions, err = s.sessions.ListByLead(ctx, lc.access.BuyerProfileID, lc.access.FranchiseID)
		if err != nil {
			return lc, fmt.Errorf("list sessions: %w", err)
		}
	}
	lc.agg = engagement.Aggregated(lc.sessions)
	lc.tier = insight.Classify(lc.agg.TotalTimeSpentSeconds, lc.agg.SessionCount)
	return lc, nil
}

func (lc leadContext) insightInput() insight.Input {
	in := insight.Input{
		Agg:        lc.agg,
		Tier:       lc.tier,
		Invitation: lc.invitation,
	}
	if lc.buyer.ID != "" {
		buyer := lc.buyer
		in.Buyer = &buyer
	}
	if lc.franchise.ID != "" {
		franchise := lc.franchise
		in.Franchise = &franchise
	}
	return in
}

// LeadEngagement aggregates every session for a lead and generates the
// tier, summary, and insights the dashboard shows.
func (s *Service) LeadEngagement(ctx context.Context, leadID string) (LeadEngagementResponse, error) {
	lc, err := s.loadLead(ctx, leadID)
	if err != nil {
		return LeadEngagementResponse{}, err
	}

	resp := LeadEngagementResponse{
		LeadID:                leadID,
		BuyerName:             lc.buyer.FullName(),
		FranchiseID:           lc.access.FranchiseID,
		FranchiseName:         lc.franchise.Name,
		TotalTimeSpent:        formatSeconds(lc.agg.TotalTimeSpentSeconds),
		TotalTimeSpentSeconds: lc.agg.TotalTimeSpentSeconds,
		SectionsViewed:        capStrings(lc.agg.SectionsViewed, 10),
		QuestionsAsked:        capStrings(lc.agg.QuestionsAsked, 5),
		FDDFocusAreas:         focusAreas(lc.agg.SectionsViewed),
		EngagementCount:       lc.agg.SessionCount,
		Downloaded:            lc.agg.Downloaded,
		Milestones:            lc.agg.Milestones,
		EngagementTier:        lc.tier,
		TierMessage:           insight.TierMessage(lc.tier),
		AIInsights:            s.insights.Generate(ctx, lc.insightInput()),
		QuestionInsights:      insight.GenerateQuestionInsights(lc.agg),
	}
	if !lc.agg.FirstActivity.IsZero() {
		first := lc.agg.FirstActivity
		resp.AccessedDate = &first
	}
	resp.BuyerQualification = buyerQualification(lc.buyer)
	if lc.buyer.CityLocation != "" && lc.buyer.StateLocation != "" {
		location := lc.buyer.CityLocation + ", " + lc.buyer.StateLocation
		resp.BuyerLocation = &location
	}
	if lc.invitation != nil {
		resp.InvitationData = &InvitationData{
			Status:   lc.invitation.Status,
			SentDate: lc.invitation.SentAt,
			Source:   lc.invitation.Source,
			Timeline: lc.invitation.Timeline,
		}
		if resp.BuyerName == "" {
			resp.BuyerName = lc.invitation.LeadName
		}
	}
	return resp, nil
}

func buyerQualification(buyer store.BuyerProfile) *BuyerQualification {
	if buyer.LiquidAssetsRange == "" && buyer.NetWorthRange == "" &&
		buyer.FicoScoreRange == "" && len(buyer.FundingPlans) == 0 &&
		buyer.BuyingTimeline == "" {
		return nil
	}
	return &BuyerQualification{
		LiquidCapital:  buyer.LiquidAssetsRange,
		NetWorth:       buyer.NetWorthRange,
		FicoScoreRange: buyer.FicoScoreRange,
		FundingPlans:   buyer.FundingPlans,
		BuyingTimeline: buyer.BuyingTimeline,
	}
}

// focusAreas ranks the first five viewed sections. Per-section dwell time
// is not tracked, so interest follows view order and the times shown are
// representative estimates.
func focusAreas(sections []string) []FocusArea {
	estimates := []string{"12m", "8m", "6m", "4m", "3m"}
	areas := make([]FocusArea, 0, len(estimates))
	for i, section := range sections {
		if i == len(estimates) {
			break
		}
		level := "Low"
		switch {
		case i < 2:
			level = "High"
		case i < 4:
			level = "Medium"
		}
		areas = append(areas, FocusArea{
			Item:      section,
			TimeSpent: estimates[i],
			Interest:  level,
		})
	}
	return areas
}

// ExportLeadReport renders the lead's engagement and insights as a PDF.
func (s *Service) ExportLeadReport(ctx context.Context, leadID string) (*export.Result, error) {
	lc, err := s.loadLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	report := export.Report{
		BuyerName:      lc.buyer.FullName(),
		BuyerEmail:     lc.buyer.Email,
		FranchiseName:  lc.franchise.Name,
		GeneratedAt:    time.Now().UTC(),
		TotalTime:      formatSeconds(lc.agg.TotalTimeSpentSeconds),
		SessionCount:   lc.agg.SessionCount,
		SessionSpan:    lc.agg.SessionSpanDays,
		QuestionsAsked: len(lc.agg.QuestionsAsked),
		NotesCreated:   lc.agg.NotesCreated,
		Downloaded:     lc.agg.Downloaded,
		SectionsViewed: lc.agg.SectionsViewed,
		Insight:        s.insights.Generate(ctx, lc.insightInput()),
		Questions:      insight.GenerateQuestionInsights(lc.agg),
	}
	if report.BuyerName == "" {
		report.BuyerName = "Lead"
	}

	result, err := s.renderPDF(report)
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export is not available", nil)
		}
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return result, nil
}

// SearchQuestions searches the questions leads asked about a franchise.
func (s *Service) SearchQuestions(ctx context.Context, franchiseID, query string, limit, offset int) (search.Response, error) {
	if franchiseID == "" {
		return search.Response{}, domainError(http.StatusBadRequest, "INVALID_FRANCHISE", "franchise_id is required", nil)
	}
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: query}, nil
	}
	return s.search.Search(ctx, search.Query{
		FranchiseID: franchiseID,
		Text:        query,
		Limit:       limit,
		Offset:      offset,
	}), nil
}

// DownloadResponse carries a presigned FDD link.
type DownloadResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expiresIn"`
}

// FDDDownloadURL returns a time-limited link to the franchise's FDD file.
func (s *Service) FDDDownloadURL(ctx context.Context, franchiseID string) (DownloadResponse, error) {
	if s.signer == nil {
		return DownloadResponse{}, domainError(http.StatusServiceUnavailable, "DOWNLOADS_UNAVAILABLE", "FDD downloads are not configured", nil)
	}
	franchise, err := s.store.GetFranchise(ctx, franchiseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DownloadResponse{}, domainError(http.StatusNotFound, "FRANCHISE_NOT_FOUND", "Franchise not found", nil)
		}
		return DownloadResponse{}, fmt.Errorf("get franchise: %w", err)
	}
	if franchise.FDDObjectKey == "" {
		return DownloadResponse{}, domainError(http.StatusNotFound, "FDD_NOT_FOUND", "No FDD on file for this franchise", nil)
	}

	filename := franchise.Slug
	if filename == "" {
		filename = "fdd"
	}
	url, err := s.signer.PresignedDownloadURL(ctx, franchise.FDDObjectKey, filename+"-fdd.pdf")
	if err != nil {
		return DownloadResponse{}, fmt.Errorf("presign download: %w", err)
	}
	return DownloadResponse{URL: url, ExpiresIn: int(s.cfg.DownloadTTL.Seconds())}, nil
}

func formatSeconds(seconds int) string {
	minutes := seconds / 60
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

func capStrings(values []string, n int) []string {
	if len(values) > n {
		values = values[:n]
	}
	if values == nil {
		return []string{}
	}
	return values
}
