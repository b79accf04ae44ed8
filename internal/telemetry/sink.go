package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"leadpulse/api/internal/engagement"
)

// HTTPSink posts snapshots to the ingestion endpoint and waits for the
// response.
type HTTPSink struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSink(endpoint string, client *http.Client) *HTTPSink {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPSink{endpoint: endpoint, client: client}
}

func (s *HTTPSink) Flush(ctx context.Context, snap engagement.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post engagement: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post engagement: status %d", resp.StatusCode)
	}
	return nil
}

// HTTPBeacon is the fire-and-forget transport: it posts the same JSON body
// as HTTPSink but from a detached goroutine, reads no response, and drops
// any error. Callers must not rely on delivery.
type HTTPBeacon struct {
	endpoint string
	client   *http.Client
}

func NewHTTPBeacon(endpoint string) *HTTPBeacon {
	return &HTTPBeacon{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 3 * time.Second},
	}
}

func (b *HTTPBeacon) Send(snap engagement.Snapshot) {
	body, err := json.Marshal(snap)
	if err != nil {
		return
	}
	go func() {
		resp, err := b.client.Post(b.endpoint, "application/json", bytes.NewReader(body))
		if err != nil {
			return
		}
		_ = resp.Body.Close()
	}()
}
