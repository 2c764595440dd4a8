package ticket

import (
	"log/slog"
	"sort"
	"time"

	"github.com/mpavlovic/tiketbot/internal/odds"
)

// FixtureOdds is one fixture candidate: its normalized table plus the
// metadata legs carry into rendering. InScope marks membership in the
// preferred league scope, which scope-restricted tiers require.
type FixtureOdds struct {
	FixtureID int64
	League    string
	HomeTeam  string
	AwayTeam  string
	Kickoff   time.Time
	InScope   bool
	Table     odds.Table
}

// Assembler builds tickets for an ordered list of targets. Each target walks
// the relaxation ladder until a tier yields a pool that composes into a
// valid ticket; fixtures consumed by an emitted ticket are excluded from all
// later targets in the same run.
type Assembler struct {
	tiers   []Tier
	targets []Target
	minLegs int
	maxLegs int
}

func NewAssembler(tiers []Tier, targets []Target, minLegs, maxLegs int) *Assembler {
	return &Assembler{
		tiers:   tiers,
		targets: targets,
		minLegs: minLegs,
		maxLegs: maxLegs,
	}
}

// Assemble produces at most one ticket per configured target. A target for
// which no tier yields enough qualifying legs is skipped, not an error.
func (a *Assembler) Assemble(items []FixtureOdds) []Ticket {
	consumed := make(map[int64]bool)
	var tickets []Ticket

	for i, target := range a.targets {
		built, tierName := a.assembleOne(items, consumed, target)
		if built == nil {
			slog.Info("no ticket for target",
				"target", target.Odds, "mode", target.Mode.String(), "position", i+1)
			continue
		}
		built.Index = len(tickets) + 1
		built.Target = target.Odds
		for _, leg := range built.Legs {
			consumed[leg.FixtureID] = true
		}
		tickets = append(tickets, *built)
		slog.Info("ticket assembled",
			"index", built.Index, "target", target.Odds, "tier", tierName,
			"legs", len(built.Legs), "total_odds", built.TotalOdds)
	}
	return tickets
}

// assembleOne escalates through the tiers for a single target.
func (a *Assembler) assembleOne(items []FixtureOdds, consumed map[int64]bool, target Target) (*Ticket, string) {
	for _, tier := range a.tiers {
		pool := a.candidates(items, consumed, tier)
		if len(pool) < a.minLegs {
			slog.Debug("tier pool too small",
				"tier", tier.Name, "pool", len(pool), "min_legs", a.minLegs)
			continue
		}
		t, ok := compose(pool, target, a.minLegs, a.maxLegs)
		if ok {
			return &t, tier.Name
		}
		slog.Debug("tier pool cannot reach target",
			"tier", tier.Name, "pool", len(pool), "target", target.Odds)
	}
	return nil, ""
}

// candidates evaluates the tier's rules against every unconsumed fixture.
// Each fixture contributes at most one leg: its highest-priced accepted
// outcome.
func (a *Assembler) candidates(items []FixtureOdds, consumed map[int64]bool, tier Tier) []Leg {
	var pool []Leg
	for _, it := range items {
		if consumed[it.FixtureID] {
			continue
		}
		if tier.ScopeOnly && !it.InScope {
			continue
		}
		market, outcome, price, ok := tier.Rules.BestOutcome(it.Table)
		if !ok {
			continue
		}
		pool = append(pool, Leg{
			FixtureID: it.FixtureID,
			League:    it.League,
			HomeTeam:  it.HomeTeam,
			AwayTeam:  it.AwayTeam,
			Kickoff:   it.Kickoff,
			Market:    market,
			Outcome:   outcome,
			Price:     price,
		})
	}
	return pool
}

// compose is a pure selection pass: it orders the pool for the target's
// objective, accumulates legs until the leg-count and price constraints are
// both satisfied, and returns a new ticket value. ModeClear orders by
// descending price to clear the target with the fewest legs; ModeClose
// orders ascending to land close above the target without large prices.
//
// When the maximum leg count is hit short of the target, a corrective pass
// scans the remainder in the opposite ordering and substitutes legs. The
// tie-break is deterministic: fewest legs first, then smallest overshoot.
func compose(pool []Leg, target Target, minLegs, maxLegs int) (Ticket, bool) {
	ordered := make([]Leg, len(pool))
	copy(ordered, pool)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Price != ordered[j].Price {
			if target.Mode == ModeClose {
				return ordered[i].Price < ordered[j].Price
			}
			return ordered[i].Price > ordered[j].Price
		}
		return ordered[i].FixtureID < ordered[j].FixtureID
	})

	var legs []Leg
	total := 1.0
	next := 0
	for ; next < len(ordered) && len(legs) < maxLegs; next++ {
		legs = append(legs, ordered[next])
		total *= ordered[next].Price
		if len(legs) >= minLegs && total >= target.Odds {
			next++
			break
		}
	}

	if total < target.Odds {
		legs, total = corrective(legs, ordered[next:], total, target.Odds)
	}

	if len(legs) < minLegs || len(legs) > maxLegs || total < target.Odds {
		return Ticket{}, false
	}
	return Ticket{Legs: legs, TotalOdds: total}, true
}

// corrective substitutes the lowest-priced selected legs with the
// highest-priced remaining ones until the target is met or the remainder is
// exhausted. Leg count never changes, so the fewest-legs tie-break holds;
// substitution stops at the first total meeting the target, keeping the
// overshoot small.
func corrective(legs []Leg, remainder []Leg, total, target float64) ([]Leg, float64) {
	if len(remainder) == 0 || len(legs) == 0 {
		return legs, total
	}
	// Remainder in descending price order: the opposite of the ascending
	// walk that filled the ticket.
	rest := make([]Leg, len(remainder))
	copy(rest, remainder)
	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].Price != rest[j].Price {
			return rest[i].Price > rest[j].Price
		}
		return rest[i].FixtureID < rest[j].FixtureID
	})

	out := make([]Leg, len(legs))
	copy(out, legs)

	for _, candidate := range rest {
		if total >= target {
			break
		}
		// Swap out the cheapest current leg if the candidate improves it.
		lowest := 0
		for i := range out {
			if out[i].Price < out[lowest].Price {
				lowest = i
			}
		}
		if candidate.Price <= out[lowest].Price {
			break
		}
		total = total / out[lowest].Price * candidate.Price
		out[lowest] = candidate
	}
	return out, total
}
