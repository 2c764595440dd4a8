package ticket

import (
	"testing"

	"github.com/mpavlovic/tiketbot/internal/odds"
	"github.com/mpavlovic/tiketbot/internal/pkg/config"
)

func TestRuleAccepts(t *testing.T) {
	band := Rule{Market: odds.MarketDoubleChance, Outcome: "1X", Min: 1.20, Max: 1.45}
	cap := Rule{Market: odds.MarketMatchWinner, Outcome: "Home", Max: 1.45}

	tests := []struct {
		rule  Rule
		price float64
		want  bool
	}{
		{band, 1.20, true}, // inclusive lower bound
		{band, 1.45, true}, // inclusive upper bound
		{band, 1.30, true},
		{band, 1.19, false},
		{band, 1.46, false},
		{cap, 1.45, true},
		{cap, 1.01, true},
		{cap, 1.50, false},
		{cap, 0, false},
		{cap, -1.2, false},
	}
	for _, tt := range tests {
		if got := tt.rule.Accepts(tt.price); got != tt.want {
			t.Errorf("rule %+v Accepts(%.2f) = %v, want %v", tt.rule, tt.price, got, tt.want)
		}
	}
}

func TestBestOutcome_HighestAcceptedWins(t *testing.T) {
	table := odds.Table{
		odds.MarketDoubleChance: {"1X": 1.30, "X2": 1.60},
		odds.MarketMatchWinner:  {"Home": 1.42},
	}
	rules := RuleSet{
		{Market: odds.MarketDoubleChance, Outcome: "1X", Min: 1.20, Max: 1.45},
		{Market: odds.MarketDoubleChance, Outcome: "X2", Min: 1.20, Max: 1.45}, // 1.60 out of band
		{Market: odds.MarketMatchWinner, Outcome: "Home", Max: 1.45},
	}

	market, outcome, price, ok := rules.BestOutcome(table)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if market != odds.MarketMatchWinner || outcome != "Home" || price != 1.42 {
		t.Errorf("got (%v, %q, %.2f), want (Match Winner, Home, 1.42)", market, outcome, price)
	}
}

func TestBestOutcome_BandScenario(t *testing.T) {
	primary := RuleSet{{Market: odds.MarketDoubleChance, Outcome: "1X", Min: 1.20, Max: 1.45}}
	relaxed := RuleSet{{Market: odds.MarketDoubleChance, Outcome: "1X", Min: 1.15, Max: 1.70}}

	// Fixture offering 1X at 1.30 and X2 at 1.60: the 1X leg qualifies.
	first := odds.Table{odds.MarketDoubleChance: {"1X": 1.30, "X2": 1.60}}
	if _, outcome, price, ok := primary.BestOutcome(first); !ok || outcome != "1X" || price != 1.30 {
		t.Errorf("primary tier: got (%q, %.2f, %v), want (1X, 1.30, true)", outcome, price, ok)
	}

	// Fixture offering 1X at 1.50: out of the primary band, inside the
	// relaxed one.
	second := odds.Table{odds.MarketDoubleChance: {"1X": 1.50}}
	if _, _, _, ok := primary.BestOutcome(second); ok {
		t.Error("primary tier should reject 1X at 1.50")
	}
	if _, outcome, price, ok := relaxed.BestOutcome(second); !ok || outcome != "1X" || price != 1.50 {
		t.Errorf("relaxed tier: got (%q, %.2f, %v), want (1X, 1.50, true)", outcome, price, ok)
	}
}

func TestBestOutcome_NoCandidate(t *testing.T) {
	rules := RuleSet{{Market: odds.MarketDoubleChance, Outcome: "1X", Min: 1.20, Max: 1.45}}
	table := odds.Table{odds.MarketBothTeamsToScore: {"Yes": 1.50}}
	if _, _, _, ok := rules.BestOutcome(table); ok {
		t.Error("expected no candidate for a table without the ruled market")
	}
}

func TestTiersFromConfig(t *testing.T) {
	cfgs := []config.TierConfig{
		{
			Name:      "primary",
			ScopeOnly: true,
			Rules: []config.RuleConfig{
				{Market: "double_chance", Outcome: "1x", Min: 1.20, Max: 1.45},
				{Market: "match_winner", Outcome: "home", Max: 1.45},
			},
		},
	}
	tiers, err := TiersFromConfig(cfgs)
	if err != nil {
		t.Fatalf("TiersFromConfig: %v", err)
	}
	if len(tiers) != 1 || len(tiers[0].Rules) != 2 {
		t.Fatalf("unexpected tiers: %+v", tiers)
	}
	// Config outcome labels go through the same normalization as feed labels.
	if tiers[0].Rules[0].Outcome != "1X" {
		t.Errorf("outcome = %q, want 1X", tiers[0].Rules[0].Outcome)
	}
	if tiers[0].Rules[1].Outcome != "Home" {
		t.Errorf("outcome = %q, want Home", tiers[0].Rules[1].Outcome)
	}
}

func TestTiersFromConfig_UnknownMarket(t *testing.T) {
	cfgs := []config.TierConfig{{
		Name:  "bad",
		Rules: []config.RuleConfig{{Market: "correct_score", Outcome: "2-1", Max: 9.0}},
	}}
	if _, err := TiersFromConfig(cfgs); err == nil {
		t.Error("expected an error for an unknown market key")
	}
}
