// Package insight turns aggregated engagement telemetry into sales
// guidance: a tier classification plus a structured insight object produced
// by either a deterministic template or an AI-backed strategy that always
// falls back to the template.
package insight

// Tier is the coarse engagement classification of a lead.
type Tier string

const (
	TierNone       Tier = "none"
	TierMinimal    Tier = "minimal"
	TierPartial    Tier = "partial"
	TierMeaningful Tier = "meaningful"
	TierHigh       Tier = "high"
)

// Classify maps total reading time and session count to a tier. Boundaries
// are half-open on the lower bound: exactly 5 minutes is partial, exactly
// 15 is meaningful, exactly 45 is high.
func Classify(totalTimeSeconds, sessionCount int) Tier {
	if sessionCount == 0 || totalTimeSeconds == 0 {
		return TierNone
	}
	minutes := float64(totalTimeSeconds) / 60
	switch {
	case minutes < 5:
		return TierMinimal
	case minutes < 15:
		return TierPartial
	case minutes < 45:
		return TierMeaningful
	default:
		return TierHigh
	}
}

// TierMessage is the short follow-up guidance attached to every insight.
func TierMessage(tier Tier) string {
	switch tier {
	case TierNone:
		return "Awaiting first FDD session"
	case TierMinimal:
		return "Limited engagement - Early stage, needs nurturing"
	case TierPartial:
		return "Partial engagement - Interested, needs encouragement"
	case TierHigh:
		return "Hot lead - prioritize immediate follow-up"
	default:
		return "Warm lead - ready for deeper conversation"
	}
}
