package search

import "time"

// QuestionRecord is one question a lead asked through the assistant,
// indexed for franchisor-side search.
type QuestionRecord struct {
	ID          string    `json:"id"`
	FranchiseID string    `json:"franchiseId"`
	BuyerID     string    `json:"buyerId,omitempty"`
	SessionID   string    `json:"sessionId"`
	Text        string    `json:"text"`
	AskedAt     time.Time `json:"askedAt"`
}

// Query scopes a question search to one franchise.
type Query struct {
	FranchiseID string
	Text        string
	Limit       int
	Offset      int
}

type Result struct {
	ID        string `json:"id"`
	BuyerID   string `json:"buyerId,omitempty"`
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	Snippet   string `json:"snippet,omitempty"`
}

type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}
