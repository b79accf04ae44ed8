package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadpulse/api/internal/engagement"
	"leadpulse/api/internal/store"
)

func newTestServer(dataStore *fakeStore, sessions *fakeSessions) *httptest.Server {
	svc := newTestService(dataStore, sessions)
	return httptest.NewServer(NewHTTPServer(svc, "*").Handler())
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&fakeStore{}, newFakeSessions())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("body = %v", body)
	}
}

func TestIngestEndpoint(t *testing.T) {
	sessions := newFakeSessions()
	server := newTestServer(&fakeStore{}, sessions)
	defer server.Close()

	payload := `{
		"sessionId": "s1",
		"buyerId": "b1",
		"franchiseId": "f1",
		"timeSpent": 120,
		"questionsAsked": ["What is the royalty?"],
		"sectionsViewed": ["Item 19"],
		"viewedItem19": true
	}`
	resp, err := http.Post(server.URL+"/api/engagement", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Success    bool                 `json:"success"`
		Engagement *engagement.Snapshot `json:"engagement"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Engagement == nil {
		t.Fatalf("body = %+v", body)
	}
	if body.Engagement.TimeSpent != 120 || !body.Engagement.ViewedItem19 {
		t.Fatalf("engagement = %+v", body.Engagement)
	}
	if _, ok := sessions.records["s1"]; !ok {
		t.Fatal("session not stored")
	}
}

func TestIngestEndpointAnonymousReturnsNull(t *testing.T) {
	server := newTestServer(&fakeStore{}, newFakeSessions())
	defer server.Close()

	payload := `{"sessionId": "s1", "franchiseId": "f1", "timeSpent": 30}`
	resp, err := http.Post(server.URL+"/api/engagement", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 for anonymous beacon", resp.StatusCode)
	}

	var body struct {
		Success    bool            `json:"success"`
		Engagement json.RawMessage `json:"engagement"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Fatal("success = false")
	}
	if string(body.Engagement) != "null" {
		t.Fatalf("engagement = %s, want null", body.Engagement)
	}
}

func TestIngestEndpointRejectsMissingSession(t *testing.T) {
	server := newTestServer(&fakeStore{}, newFakeSessions())
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/engagement", "application/json",
		strings.NewReader(`{"franchiseId": "f1"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLeadEngagementEndpoint(t *testing.T) {
	sessions := newFakeSessions()
	sessions.records["s1"] = engagement.Snapshot{
		SessionID: "s1", BuyerID: "b1", FranchiseID: "f1",
		TimeSpent: 2000, SectionsViewed: []string{"Item 19"},
	}
	server := newTestServer(leadStore(), sessions)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/engagement?lead_id=lead1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body LeadEngagementResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.BuyerName != "Dana Reyes" || body.EngagementTier != "meaningful" {
		t.Fatalf("body = %+v", body)
	}
	if body.TotalTimeSpentSeconds != 2000 || body.TotalTimeSpent != "33m" {
		t.Fatalf("time fields: %+v", body)
	}
	if body.AIInsights.Summary == "" {
		t.Fatal("insights missing")
	}
}

func TestLeadEngagementEndpointValidation(t *testing.T) {
	server := newTestServer(&fakeStore{}, newFakeSessions())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/engagement")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without lead_id", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/engagement?lead_id=unknown")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for unknown lead", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == "" || body["code"] != "LEAD_NOT_FOUND" {
		t.Fatalf("body = %v", body)
	}
}

func TestExportEndpoint(t *testing.T) {
	sessions := newFakeSessions()
	sessions.records["s1"] = engagement.Snapshot{
		SessionID: "s1", BuyerID: "b1", FranchiseID: "f1", TimeSpent: 600,
	}
	server := newTestServer(leadStore(), sessions)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/engagement/export?lead_id=lead1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("Content-Type = %s", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("Content-Disposition = %s", cd)
	}
}

func TestQuestionSearchEndpointValidation(t *testing.T) {
	server := newTestServer(&fakeStore{}, newFakeSessions())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/questions/search?q=royalty")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without franchise_id", resp.StatusCode)
	}
}

func TestDownloadEndpoint(t *testing.T) {
	dataStore := &fakeStore{
		getFranchiseFn: func(context.Context, string) (store.Franchise, error) {
			return grillHouse(), nil
		},
	}
	svc := newTestService(dataStore, newFakeSessions())
	svc.signer = signerFunc(func(context.Context, string, string) (string, error) {
		return "https://storage.example.com/signed", nil
	})
	server := httptest.NewServer(NewHTTPServer(svc, "*").Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/fdd/download?franchise_id=f1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body DownloadResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.URL != "https://storage.example.com/signed" || body.ExpiresIn != 900 {
		t.Fatalf("body = %+v", body)
	}
}

func TestDownloadEndpointNoFDDOnFile(t *testing.T) {
	dataStore := &fakeStore{
		getFranchiseFn: func(context.Context, string) (store.Franchise, error) {
			franchise := grillHouse()
			franchise.FDDObjectKey = ""
			return franchise, nil
		},
	}
	svc := newTestService(dataStore, newFakeSessions())
	svc.signer = signerFunc(func(context.Context, string, string) (string, error) {
		return "", nil
	})
	server := httptest.NewServer(NewHTTPServer(svc, "*").Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/fdd/download?franchise_id=f1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	server := newTestServer(&fakeStore{}, newFakeSessions())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestCORSAndRequestIDHeaders(t *testing.T) {
	server := newTestServer(&fakeStore{}, newFakeSessions())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("CORS header missing")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("request id header missing")
	}
}
