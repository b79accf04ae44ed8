package search

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log"
	"strings"

	"leadpulse/api/internal/engagement"
)

// SessionLister is the slice of the session store the fallback scan needs.
type SessionLister interface {
	ListByFranchise(ctx context.Context, franchiseID string) ([]engagement.Snapshot, error)
}

// Service is the facade that tries Meilisearch first and falls back to
// scanning the franchise's sessions in Redis.
type Service struct {
	meili    *Meili
	sessions SessionLister
}

// NewService creates a search service. meili may be nil if Meilisearch is
// not configured.
func NewService(meili *Meili, sessions SessionLister) *Service {
	return &Service{meili: meili, sessions: sessions}
}

// Search tries Meilisearch if healthy, otherwise substring-matches the
// franchise's stored session questions.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to session scan: %v", err)
	}

	results, err := s.scanSessions(ctx, q)
	if err != nil {
		log.Printf("search: session scan error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: len(results), Query: q.Text}
}

func (s *Service) scanSessions(ctx context.Context, q Query) ([]Result, error) {
	sessions, err := s.sessions.ListByFranchise(ctx, q.FranchiseID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(q.Text))
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}

	var results []Result
	for _, session := range sessions {
		for _, question := range session.QuestionsAsked {
			if needle != "" && !strings.Contains(strings.ToLower(question), needle) {
				continue
			}
			results = append(results, Result{
				ID:        QuestionID(session.SessionID, question),
				BuyerID:   session.BuyerID,
				SessionID: session.SessionID,
				Text:      question,
			})
			if len(results) == limit {
				return results, nil
			}
		}
	}
	return results, nil
}

// IndexQuestions pushes question records to Meilisearch, fire-and-forget.
func (s *Service) IndexQuestions(records []QuestionRecord) {
	if s.meili == nil || !s.meili.Healthy() || len(records) == 0 {
		return
	}
	go func() {
		if err := s.meili.IndexQuestions(records); err != nil {
			log.Printf("search: index %d questions: %v", len(records), err)
		}
	}()
}

// QuestionID derives a stable document id from the session and the
// question text, so re-ingesting the same snapshot never duplicates.
func QuestionID(sessionID, text string) string {
	sum := sha1.Sum([]byte(sessionID + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
