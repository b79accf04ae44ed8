package insight

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"leadpulse/api/internal/store"
)

// moneyRange is a parsed self-reported financial bracket.
type moneyRange struct {
	min int64
	max int64
}

var (
	rangePattern  = regexp.MustCompile(`\$?(\d+)([km])?\s*[-\x{2013}]\s*\$?(\d+)([km])?`)
	numberPattern = regexp.MustCompile(`\$?(\d+)([km])?`)
)

// parseFinancialRange understands the bracket formats buyers self-report:
// "$100K - $250K", "$2M+", "Under $100K", "500000". Bare numbers below
// 1000 are assumed to be thousands.
func parseFinancialRange(raw string) (moneyRange, bool) {
	if strings.TrimSpace(raw) == "" {
		return moneyRange{}, false
	}
	clean := strings.ToLower(strings.ReplaceAll(raw, ",", ""))

	if strings.Contains(clean, "under") || strings.Contains(clean, "less than") {
		if m := numberPattern.FindStringSubmatch(clean); m != nil {
			value := applySuffix(m[1], m[2])
			return moneyRange{min: 0, max: value}, true
		}
	}

	if strings.Contains(clean, "+") || strings.Contains(clean, "over") || strings.Contains(clean, "more than") {
		if m := numberPattern.FindStringSubmatch(clean); m != nil {
			value := applySuffix(m[1], m[2])
			// Open-ended bracket; assume the upper bound is 10x
			return moneyRange{min: value, max: value * 10}, true
		}
	}

	if m := rangePattern.FindStringSubmatch(clean); m != nil {
		return moneyRange{min: applySuffix(m[1], m[2]), max: applySuffix(m[3], m[4])}, true
	}

	if m := numberPattern.FindStringSubmatch(clean); m != nil {
		value := applySuffix(m[1], m[2])
		return moneyRange{min: value, max: value}, true
	}

	return moneyRange{}, false
}

func applySuffix(digits, suffix string) int64 {
	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	switch suffix {
	case "m":
		return value * 1_000_000
	case "k":
		return value * 1_000
	}
	if value < 1000 {
		return value * 1000
	}
	return value
}

func formatThousands(v int64) string {
	return fmt.Sprintf("$%dK", v/1000)
}

// FitAssessment compares a buyer's self-reported ranges against the
// franchise's financial requirements.
type FitAssessment struct {
	MeetsLiquidCapital      *bool
	MeetsNetWorth           *bool
	LiquidCapitalAssessment string
	NetWorthAssessment      string
	OverallFit              string // qualified | borderline | not_qualified | unknown
	Score                   int
}

// AssessFinancialFit scores a buyer against minimum liquid capital and net
// worth. A bracket whose midpoint lands within 90% of a requirement counts
// as borderline rather than a shortfall.
func AssessFinancialFit(buyer store.BuyerProfile, reqs FinancialRequirements) FitAssessment {
	assessment := FitAssessment{
		LiquidCapitalAssessment: "Not provided",
		NetWorthAssessment:      "Not provided",
		OverallFit:              "unknown",
	}

	borderline := false
	if liquid, ok := parseFinancialRange(buyer.LiquidAssetsRange); ok && reqs.LiquidCapitalMin > 0 {
		level, text, points := assessBracket(liquid, buyer.LiquidAssetsRange, reqs.LiquidCapitalMin, "verify assets")
		meets := level != levelShort
		assessment.MeetsLiquidCapital = &meets
		assessment.LiquidCapitalAssessment = text
		assessment.Score += points
		borderline = borderline || level == levelBorderline
	}

	if netWorth, ok := parseFinancialRange(buyer.NetWorthRange); ok && reqs.NetWorthMin > 0 {
		level, text, points := assessBracket(netWorth, buyer.NetWorthRange, reqs.NetWorthMin, "verify assets")
		meets := level != levelShort
		assessment.MeetsNetWorth = &meets
		assessment.NetWorthAssessment = text
		assessment.Score += points
		borderline = borderline || level == levelBorderline
	}

	if len(buyer.FundingPlans) > 0 {
		plans := strings.ToLower(strings.Join(buyer.FundingPlans, " "))
		switch {
		case strings.Contains(plans, "cash"):
			assessment.Score += 20
		case strings.Contains(plans, "sba") || strings.Contains(plans, "401"):
			assessment.Score += 15
		default:
			assessment.Score += 10
		}
	}
	if assessment.Score > 100 {
		assessment.Score = 100
	}

	switch {
	case assessment.MeetsLiquidCapital == nil && assessment.MeetsNetWorth == nil:
		assessment.OverallFit = "unknown"
	case boolIs(assessment.MeetsLiquidCapital, false) || boolIs(assessment.MeetsNetWorth, false):
		assessment.OverallFit = "not_qualified"
	case borderline:
		assessment.OverallFit = "borderline"
	case boolIs(assessment.MeetsLiquidCapital, true) && boolIs(assessment.MeetsNetWorth, true):
		assessment.OverallFit = "qualified"
	default:
		assessment.OverallFit = "borderline"
	}
	return assessment
}

const (
	levelMeets      = "meets"
	levelBorderline = "borderline"
	levelShort      = "short"
)

func assessBracket(bracket moneyRange, label string, required int64, verifyNote string) (level, text string, points int) {
	midpoint := (bracket.min + bracket.max) / 2
	switch {
	case bracket.min >= required:
		return levelMeets, fmt.Sprintf("MEETS: %s exceeds %s requirement", label, formatThousands(required)), 40
	case float64(midpoint) >= float64(required)*0.9:
		return levelBorderline, fmt.Sprintf("BORDERLINE: %s is close to %s requirement - %s", label, formatThousands(required), verifyNote), 25
	default:
		return levelShort, fmt.Sprintf("SHORTFALL: %s below %s requirement", label, formatThousands(required)), 5
	}
}

func boolIs(b *bool, want bool) bool {
	return b != nil && *b == want
}

// assessInputFit resolves the franchise's requirements and scores the
// buyer; returns nil when either side lacks financial data.
func assessInputFit(in Input) *FitAssessment {
	if in.Buyer == nil || in.Franchise == nil {
		return nil
	}
	profile := ParseIdealProfile(in.Franchise.IdealCandidateProfile)
	if profile == nil || profile.FinancialRequirements == nil {
		return nil
	}
	if in.Buyer.LiquidAssetsRange == "" && in.Buyer.NetWorthRange == "" {
		return nil
	}
	fit := AssessFinancialFit(*in.Buyer, *profile.FinancialRequirements)
	return &fit
}

// financialPrefix leads the summary with the qualification verdict.
func financialPrefix(fit *FitAssessment) string {
	if fit == nil {
		return ""
	}
	switch fit.OverallFit {
	case "qualified":
		return "FINANCIALLY QUALIFIED. "
	case "not_qualified":
		return "DOES NOT MEET FINANCIAL REQUIREMENTS. "
	case "borderline":
		return "BORDERLINE FINANCIAL FIT. "
	}
	return ""
}

func fitToCandidate(fit *FitAssessment) *CandidateFit {
	if fit == nil {
		return nil
	}
	return &CandidateFit{
		FinancialFit: &FinancialFit{
			Status:                  fit.OverallFit,
			Score:                   fit.Score,
			LiquidCapitalAssessment: fit.LiquidCapitalAssessment,
			NetWorthAssessment:      fit.NetWorthAssessment,
		},
	}
}

func fitSummaryLine(fit *FitAssessment) string {
	if fit == nil {
		return ""
	}
	return fmt.Sprintf("Liquid capital: %s. Net worth: %s.", fit.LiquidCapitalAssessment, fit.NetWorthAssessment)
}
