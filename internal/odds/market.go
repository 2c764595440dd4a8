package odds

import "strings"

// Market is a closed enumeration of the recognized bet-type families.
// Raw upstream market names map into exactly one of these (or
// MarketUnrecognized, which the normalizer drops).
type Market int

const (
	MarketUnrecognized Market = iota
	MarketMatchWinner
	MarketDoubleChance
	MarketBothTeamsToScore
	MarketOverUnder
	MarketFirstHalfOverUnder
	MarketHomeTotal
	MarketAwayTotal
)

// Markets lists every recognized family, in display order.
var Markets = []Market{
	MarketMatchWinner,
	MarketDoubleChance,
	MarketBothTeamsToScore,
	MarketOverUnder,
	MarketFirstHalfOverUnder,
	MarketHomeTotal,
	MarketAwayTotal,
}

// String returns the canonical display name.
func (m Market) String() string {
	switch m {
	case MarketMatchWinner:
		return "Match Winner"
	case MarketDoubleChance:
		return "Double Chance"
	case MarketBothTeamsToScore:
		return "Both Teams Score"
	case MarketOverUnder:
		return "Over/Under"
	case MarketFirstHalfOverUnder:
		return "Over/Under 1st Half"
	case MarketHomeTotal:
		return "Total - Home"
	case MarketAwayTotal:
		return "Total - Away"
	default:
		return "Unrecognized"
	}
}

// Key returns the config-file identifier of the market.
func (m Market) Key() string {
	switch m {
	case MarketMatchWinner:
		return "match_winner"
	case MarketDoubleChance:
		return "double_chance"
	case MarketBothTeamsToScore:
		return "btts"
	case MarketOverUnder:
		return "over_under"
	case MarketFirstHalfOverUnder:
		return "first_half_over_under"
	case MarketHomeTotal:
		return "home_total"
	case MarketAwayTotal:
		return "away_total"
	default:
		return "unrecognized"
	}
}

// MarketFromKey resolves a config-file identifier.
func MarketFromKey(key string) (Market, bool) {
	for _, m := range Markets {
		if m.Key() == key {
			return m, true
		}
	}
	return MarketUnrecognized, false
}

// Side markets that must never leak into the canonical table, even when the
// raw name superficially resembles a recognized family.
var forbiddenSubstrings = []string{
	"handicap",
	"corner",
	"card",
	"booking",
	"penalt",
	"shootout",
	"shoot-out",
	"anytime",
	"scorer",
	"to score in",
	"clean sheet",
	"exact",
	"interval",
	"minute",
}

// Raw upstream names for each family. Bookmakers disagree on naming; the
// variants below were all observed in the wild.
var marketAliases = map[string]Market{
	"match winner":                MarketMatchWinner,
	"1x2":                         MarketMatchWinner,
	"fulltime result":             MarketMatchWinner,
	"full time result":            MarketMatchWinner,
	"double chance":               MarketDoubleChance,
	"both teams score":            MarketBothTeamsToScore,
	"both teams to score":         MarketBothTeamsToScore,
	"btts":                        MarketBothTeamsToScore,
	"goals over/under":            MarketOverUnder,
	"over/under":                  MarketOverUnder,
	"total goals":                 MarketOverUnder,
	"goals over/under first half": MarketFirstHalfOverUnder,
	"over/under 1st half":         MarketFirstHalfOverUnder,
	"first half goals over/under": MarketFirstHalfOverUnder,
	"total - home":                MarketHomeTotal,
	"home team total goals":       MarketHomeTotal,
	"total home":                  MarketHomeTotal,
	"total - away":                MarketAwayTotal,
	"away team total goals":       MarketAwayTotal,
	"total away":                  MarketAwayTotal,
}

// ParseMarket maps a raw upstream market name to its canonical family.
// The noise filter wins over the alias table: a name containing a forbidden
// substring is unrecognized even if it would otherwise match.
func ParseMarket(raw string) Market {
	name := strings.ToLower(collapseSpaces(raw))
	if name == "" {
		return MarketUnrecognized
	}
	for _, bad := range forbiddenSubstrings {
		if strings.Contains(name, bad) {
			return MarketUnrecognized
		}
	}
	if m, ok := marketAliases[name]; ok {
		return m
	}
	return MarketUnrecognized
}

// NormalizeOutcome folds a raw outcome label into the family's canonical
// label: whitespace collapsed, synonyms unified, numeric 1/2 codes resolved.
// Returns "" when the label cannot be interpreted.
func (m Market) NormalizeOutcome(raw string) string {
	label := collapseSpaces(raw)
	if label == "" {
		return ""
	}
	switch m {
	case MarketMatchWinner:
		switch strings.ToLower(label) {
		case "home", "1":
			return "Home"
		case "away", "2":
			return "Away"
		case "draw", "x":
			return "Draw"
		}
		return ""
	case MarketDoubleChance:
		switch strings.ToLower(strings.ReplaceAll(label, " ", "")) {
		case "1x", "x1", "home/draw", "draw/home":
			return "1X"
		case "x2", "2x", "draw/away", "away/draw":
			return "X2"
		case "12", "home/away", "away/home":
			return "12"
		}
		return ""
	case MarketBothTeamsToScore:
		switch strings.ToLower(label) {
		case "yes":
			return "Yes"
		case "no":
			return "No"
		}
		return ""
	case MarketOverUnder, MarketFirstHalfOverUnder, MarketHomeTotal, MarketAwayTotal:
		return normalizeTotalsLabel(label)
	default:
		return ""
	}
}

// normalizeTotalsLabel unifies "Over2.5", "over 2.5" and "OVER 2.5" into
// "Over 2.5" (and the same for Under).
func normalizeTotalsLabel(label string) string {
	lower := strings.ToLower(label)
	var prefix string
	switch {
	case strings.HasPrefix(lower, "over"):
		prefix = "Over"
		lower = lower[len("over"):]
	case strings.HasPrefix(lower, "under"):
		prefix = "Under"
		lower = lower[len("under"):]
	default:
		return ""
	}
	line := strings.TrimSpace(lower)
	if line == "" {
		return ""
	}
	return prefix + " " + line
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
