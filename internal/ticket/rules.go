package ticket

import (
	"fmt"

	"github.com/mpavlovic/tiketbot/internal/odds"
	"github.com/mpavlovic/tiketbot/internal/pkg/config"
)

// Rule accepts an outcome price for one (market, outcome) pair. With Min set
// it is a band rule (Min ≤ price ≤ Max, inclusive); with Min zero it is a
// cap rule (price ≤ Max).
type Rule struct {
	Market  odds.Market
	Outcome string
	Min     float64
	Max     float64
}

// Accepts reports whether the price passes the rule.
func (r Rule) Accepts(price float64) bool {
	if price <= 0 {
		return false
	}
	if r.Min > 0 && price < r.Min {
		return false
	}
	return price <= r.Max
}

// RuleSet is an ordered list of acceptance rules.
type RuleSet []Rule

// BestOutcome evaluates every rule against a fixture's table and returns the
// single highest-priced accepted (market, outcome, price). A fixture yields
// at most one candidate per pass.
func (rs RuleSet) BestOutcome(t odds.Table) (odds.Market, string, float64, bool) {
	var (
		bestMarket  odds.Market
		bestOutcome string
		bestPrice   float64
		found       bool
	)
	for _, rule := range rs {
		price, ok := t.Best(rule.Market, rule.Outcome)
		if !ok || !rule.Accepts(price) {
			continue
		}
		if !found || price > bestPrice {
			bestMarket, bestOutcome, bestPrice = rule.Market, rule.Outcome, price
			found = true
		}
	}
	return bestMarket, bestOutcome, bestPrice, found
}

// Tier is one step of the relaxation ladder: a rule set plus a flag
// restricting candidates to the preferred league scope. Tiers are tried in
// configured order; each must be strictly more permissive than the previous.
type Tier struct {
	Name      string
	ScopeOnly bool
	Rules     RuleSet
}

// TiersFromConfig converts configured tiers, resolving market keys against
// the canonical market enumeration.
func TiersFromConfig(cfgs []config.TierConfig) ([]Tier, error) {
	tiers := make([]Tier, 0, len(cfgs))
	for _, tc := range cfgs {
		tier := Tier{Name: tc.Name, ScopeOnly: tc.ScopeOnly}
		for _, rc := range tc.Rules {
			market, ok := odds.MarketFromKey(rc.Market)
			if !ok {
				return nil, fmt.Errorf("tier %q: unknown market %q", tc.Name, rc.Market)
			}
			outcome := market.NormalizeOutcome(rc.Outcome)
			if outcome == "" {
				return nil, fmt.Errorf("tier %q: market %q has no outcome %q", tc.Name, rc.Market, rc.Outcome)
			}
			tier.Rules = append(tier.Rules, Rule{
				Market:  market,
				Outcome: outcome,
				Min:     rc.Min,
				Max:     rc.Max,
			})
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

// TargetsFromConfig converts configured ticket targets.
func TargetsFromConfig(cfgs []config.TargetConfig) []Target {
	targets := make([]Target, 0, len(cfgs))
	for _, tc := range cfgs {
		mode := ModeClear
		if tc.Mode == "close" {
			mode = ModeClose
		}
		targets = append(targets, Target{Odds: tc.Odds, Mode: mode})
	}
	return targets
}
