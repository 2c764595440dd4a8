// Package ticket turns normalized odds tables into combination tickets:
// per-fixture candidate selection through configurable market rules, tiered
// relaxation when too few legs qualify, and greedy composition against
// per-ticket price targets.
package ticket

import (
	"time"

	"github.com/mpavlovic/tiketbot/internal/odds"
)

// Leg is one accepted (market, outcome, price) selection bound to a single
// fixture, plus the fixture metadata needed for rendering.
type Leg struct {
	FixtureID int64
	League    string // "Country — Name"
	HomeTeam  string
	AwayTeam  string
	Kickoff   time.Time
	Market    odds.Market
	Outcome   string
	Price     float64
}

// Ticket is a finished combination of legs for one target. Within a ticket
// fixture IDs are pairwise distinct; across one assembly run a fixture
// appears in at most one ticket.
type Ticket struct {
	Index     int
	Target    float64
	Legs      []Leg
	TotalOdds float64
}

// Target is one ticket goal. ModeClear builds the shortest ticket clearing
// the odds; ModeClose lands just above the odds using small prices.
type Target struct {
	Odds float64
	Mode Mode
}

type Mode int

const (
	ModeClear Mode = iota
	ModeClose
)

func (m Mode) String() string {
	if m == ModeClose {
		return "close"
	}
	return "clear"
}
