package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// TextModel generates a text completion for a prompt. Satisfied by
// GeminiModel; tests substitute a function-backed fake.
type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiModel calls the Gemini API through the official client.
type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

func (g *GeminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty model response")
	}
	return text, nil
}

// stripCodeFences removes a leading ```json / ``` fence pair; models add
// them despite instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseAIInsight decodes and validates the model's JSON. Any shape
// violation is an error so the caller falls back to the template.
func parseAIInsight(raw string) (Insight, error) {
	var insight Insight
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &insight); err != nil {
		return Insight{}, fmt.Errorf("decode model response: %w", err)
	}
	if strings.TrimSpace(insight.Summary) == "" {
		return Insight{}, fmt.Errorf("model response missing summary")
	}
	if len(insight.KeyFindings) == 0 {
		return Insight{}, fmt.Errorf("model response missing keyFindings")
	}
	if len(insight.Recommendations) == 0 {
		return Insight{}, fmt.Errorf("model response missing recommendations")
	}
	if len(insight.NextSteps) == 0 {
		return Insight{}, fmt.Errorf("model response missing nextSteps")
	}
	return insight, nil
}
