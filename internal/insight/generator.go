package insight

import (
	"context"
	"log"
	"time"
)

// Generator produces insights for a lead. Low tiers always use the
// deterministic template; meaningful and high tiers attempt AI generation
// and fall back to the template on any failure. Generate never errors.
type Generator struct {
	model   TextModel // nil disables AI generation entirely
	timeout time.Duration
}

func NewGenerator(model TextModel, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{model: model, timeout: timeout}
}

func (g *Generator) Generate(ctx context.Context, in Input) Insight {
	if in.Tier == TierNone && in.Agg.SessionCount == 0 && in.Invitation != nil {
		return PendingInvitation(in)
	}
	if in.Tier == TierMeaningful || in.Tier == TierHigh {
		if insight, ok := g.generateAI(ctx, in); ok {
			return insight
		}
	}
	return Template(in)
}

func (g *Generator) generateAI(ctx context.Context, in Input) (Insight, bool) {
	if g.model == nil {
		return Insight{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.model.Generate(ctx, BuildPrompt(in))
	if err != nil {
		log.Printf("insight: ai generation failed, using template: %v", err)
		return Insight{}, false
	}
	insight, err := parseAIInsight(raw)
	if err != nil {
		log.Printf("insight: ai response rejected, using template: %v", err)
		return Insight{}, false
	}

	// Tier, tier message, and financial fit are computed locally, not
	// trusted from the model.
	insight.EngagementTier = in.Tier
	insight.TierMessage = TierMessage(in.Tier)
	fit := assessInputFit(in)
	if line := fitSummaryLine(fit); line != "" && insight.FinancialFitAssessment == "" {
		insight.FinancialFitAssessment = line
	}
	if insight.CandidateFit == nil {
		insight.CandidateFit = fitToCandidate(fit)
	}
	return insight, true
}
