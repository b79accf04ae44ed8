package insight

import (
	"strings"
	"testing"

	"leadpulse/api/internal/store"
)

func TestParseFinancialRange(t *testing.T) {
	cases := []struct {
		in      string
		min     int64
		max     int64
		wantsOK bool
	}{
		{"$100K - $250K", 100_000, 250_000, true},
		{"$100,000 - $250,000", 100_000, 250_000, true},
		{"Under $100K", 0, 100_000, true},
		{"Less than $50k", 0, 50_000, true},
		{"$2M+", 2_000_000, 20_000_000, true},
		{"Over $500K", 500_000, 5_000_000, true},
		{"500000", 500_000, 500_000, true},
		{"250", 250_000, 250_000, true},
		{"", 0, 0, false},
		{"not a number", 0, 0, false},
	}
	for _, tc := range cases {
		got, ok := parseFinancialRange(tc.in)
		if ok != tc.wantsOK {
			t.Errorf("parseFinancialRange(%q) ok = %v, want %v", tc.in, ok, tc.wantsOK)
			continue
		}
		if !ok {
			continue
		}
		if got.min != tc.min || got.max != tc.max {
			t.Errorf("parseFinancialRange(%q) = [%d, %d], want [%d, %d]", tc.in, got.min, got.max, tc.min, tc.max)
		}
	}
}

func TestAssessFinancialFitQualified(t *testing.T) {
	buyer := store.BuyerProfile{
		LiquidAssetsRange: "$250K - $500K",
		NetWorthRange:     "$1M+",
		FundingPlans:      []string{"Cash"},
	}
	reqs := FinancialRequirements{LiquidCapitalMin: 150_000, NetWorthMin: 500_000}

	fit := AssessFinancialFit(buyer, reqs)
	if fit.OverallFit != "qualified" {
		t.Fatalf("OverallFit = %s, want qualified", fit.OverallFit)
	}
	if fit.Score != 100 {
		t.Fatalf("Score = %d, want 100", fit.Score)
	}
	if !strings.HasPrefix(fit.LiquidCapitalAssessment, "MEETS:") {
		t.Fatalf("LiquidCapitalAssessment = %q", fit.LiquidCapitalAssessment)
	}
}

func TestAssessFinancialFitBorderline(t *testing.T) {
	// Midpoint 150K against a 160K requirement is within 90%.
	buyer := store.BuyerProfile{
		LiquidAssetsRange: "$100K - $200K",
		NetWorthRange:     "$500K - $1M",
	}
	reqs := FinancialRequirements{LiquidCapitalMin: 160_000, NetWorthMin: 400_000}

	fit := AssessFinancialFit(buyer, reqs)
	if fit.OverallFit != "borderline" {
		t.Fatalf("OverallFit = %s, want borderline", fit.OverallFit)
	}
	if !strings.HasPrefix(fit.LiquidCapitalAssessment, "BORDERLINE:") {
		t.Fatalf("LiquidCapitalAssessment = %q", fit.LiquidCapitalAssessment)
	}
}

func TestAssessFinancialFitShortfall(t *testing.T) {
	buyer := store.BuyerProfile{
		LiquidAssetsRange: "Under $50K",
		NetWorthRange:     "$100K - $250K",
	}
	reqs := FinancialRequirements{LiquidCapitalMin: 200_000, NetWorthMin: 500_000}

	fit := AssessFinancialFit(buyer, reqs)
	if fit.OverallFit != "not_qualified" {
		t.Fatalf("OverallFit = %s, want not_qualified", fit.OverallFit)
	}
	if !strings.HasPrefix(fit.LiquidCapitalAssessment, "SHORTFALL:") {
		t.Fatalf("LiquidCapitalAssessment = %q", fit.LiquidCapitalAssessment)
	}
}

func TestAssessFinancialFitUnknownWithoutData(t *testing.T) {
	fit := AssessFinancialFit(store.BuyerProfile{}, FinancialRequirements{LiquidCapitalMin: 100_000})
	if fit.OverallFit != "unknown" {
		t.Fatalf("OverallFit = %s, want unknown", fit.OverallFit)
	}
}

func TestParseIdealProfile(t *testing.T) {
	raw := `{"financial_requirements":{"liquid_capital_min":150000,"net_worth_min":500000}}`
	profile := ParseIdealProfile(raw)
	if profile == nil || profile.FinancialRequirements == nil {
		t.Fatal("profile not parsed")
	}
	if profile.FinancialRequirements.LiquidCapitalMin != 150_000 {
		t.Fatalf("LiquidCapitalMin = %d", profile.FinancialRequirements.LiquidCapitalMin)
	}

	if ParseIdealProfile("") != nil {
		t.Fatal("empty document should yield nil")
	}
	if ParseIdealProfile("{broken") != nil {
		t.Fatal("malformed document should yield nil")
	}
}
