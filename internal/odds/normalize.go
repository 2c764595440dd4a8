// Package odds reconciles the feed's bookmaker payloads into one canonical
// table per fixture: market family → outcome label → best price across all
// bookmakers. Both upstream payload shapes (bets/values with string prices,
// markets/outcomes with numeric prices) fold into the same structure.
package odds

import (
	"strconv"
	"strings"

	"github.com/mpavlovic/tiketbot/internal/apifootball"
)

// Table maps market family → canonical outcome label → best observed price.
// Built once per fixture per run; entries are only ever improved, never
// lowered.
type Table map[Market]map[string]float64

// Best returns the retained price for a (market, outcome) pair.
func (t Table) Best(m Market, outcome string) (float64, bool) {
	outcomes, ok := t[m]
	if !ok {
		return 0, false
	}
	price, ok := outcomes[outcome]
	return price, ok
}

// Empty reports whether no market survived normalization.
func (t Table) Empty() bool {
	return len(t) == 0
}

// put retains the maximum price seen for the pair. A late-arriving higher
// price overwrites; a lower price never does.
func (t Table) put(m Market, outcome string, price float64) {
	if price <= 0 || outcome == "" {
		return
	}
	outcomes, ok := t[m]
	if !ok {
		outcomes = make(map[string]float64)
		t[m] = outcomes
	}
	if price > outcomes[outcome] {
		outcomes[outcome] = price
	}
}

// Merge folds another table into t under the same max-price retention.
// Merging a table into itself leaves it unchanged.
func (t Table) Merge(other Table) {
	for m, outcomes := range other {
		for outcome, price := range outcomes {
			t.put(m, outcome, price)
		}
	}
}

// Normalize folds one fixture's odds entries into a canonical table.
// A fixture with zero parsable markets yields an empty table, not an error.
func Normalize(entries []apifootball.OddsEntry) Table {
	t := make(Table)
	for _, entry := range entries {
		for _, bm := range entry.Bookmakers {
			foldBookmaker(t, bm)
		}
	}
	return t
}

// NormalizeByDate folds a multi-fixture bulk payload into per-fixture tables.
func NormalizeByDate(entries []apifootball.OddsEntry) map[int64]Table {
	tables := make(map[int64]Table)
	for _, entry := range entries {
		id := entry.Fixture.ID
		if id == 0 {
			continue
		}
		t, ok := tables[id]
		if !ok {
			t = make(Table)
			tables[id] = t
		}
		for _, bm := range entry.Bookmakers {
			foldBookmaker(t, bm)
		}
	}
	return tables
}

func foldBookmaker(t Table, bm apifootball.Bookmaker) {
	for _, bet := range bm.Bets {
		m := ParseMarket(bet.Name)
		if m == MarketUnrecognized {
			continue
		}
		for _, v := range bet.Values {
			price := parsePrice(v.Odd)
			t.put(m, m.NormalizeOutcome(v.Value), price)
		}
	}
	for _, market := range bm.Markets {
		m := ParseMarket(market.Name)
		if m == MarketUnrecognized {
			continue
		}
		for _, o := range market.Outcomes {
			t.put(m, m.NormalizeOutcome(o.Label), o.Price)
		}
	}
}

// parsePrice parses a decimal-odds string; malformed or non-positive values
// come back as 0 and are dropped by put.
func parsePrice(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
