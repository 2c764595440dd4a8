package apifootball

import (
	"encoding/json"
	"time"
)

// envelope is the common response wrapper of the API: the payload lives in
// "response", request problems are reported in "errors" (an object when
// present, an empty array otherwise).
type envelope struct {
	Get      string          `json:"get"`
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

// Fixture is one match record from GET /fixtures.
type Fixture struct {
	Fixture FixtureCore `json:"fixture"`
	League  League      `json:"league"`
	Teams   Teams       `json:"teams"`
}

type FixtureCore struct {
	ID     int64         `json:"id"`
	Date   string        `json:"date"` // RFC 3339 kickoff timestamp
	Status FixtureStatus `json:"status"`
}

type FixtureStatus struct {
	Short string `json:"short"`
}

type League struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Season  int    `json:"season"`
}

type Teams struct {
	Home Team `json:"home"`
	Away Team `json:"away"`
}

type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Kickoff parses the fixture date. Returns the zero time when the upstream
// value is missing or malformed.
func (f Fixture) Kickoff() time.Time {
	if f.Fixture.Date == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, f.Fixture.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// OddsEntry is one fixture's odds from GET /odds. Bookmakers come in two
// shapes depending on the feed version: "bets" with string prices, or
// "markets" with numeric prices. Both may appear; the normalizer folds them
// into one table.
type OddsEntry struct {
	Fixture    OddsFixtureRef `json:"fixture"`
	Bookmakers []Bookmaker    `json:"bookmakers"`
}

type OddsFixtureRef struct {
	ID int64 `json:"id"`
}

type Bookmaker struct {
	ID      int64             `json:"id"`
	Name    string            `json:"name"`
	Bets    []Bet             `json:"bets"`
	Markets []BookmakerMarket `json:"markets"`
}

// Bet is the bets/values shape: prices arrive as decimal strings.
type Bet struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Values []BetValue `json:"values"`
}

type BetValue struct {
	Value string `json:"value"`
	Odd   string `json:"odd"`
}

// BookmakerMarket is the markets/outcomes shape: prices arrive as numbers.
type BookmakerMarket struct {
	Name     string           `json:"name"`
	Outcomes []MarketOutcome  `json:"outcomes"`
}

type MarketOutcome struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// LeagueResult is one entry from GET /leagues.
type LeagueResult struct {
	League  LeagueInfo    `json:"league"`
	Country LeagueCountry `json:"country"`
	Seasons []Season      `json:"seasons"`
}

type LeagueInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type LeagueCountry struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type Season struct {
	Year    int  `json:"year"`
	Current bool `json:"current"`
}

// CurrentSeason reports whether any listed season is flagged current.
func (l LeagueResult) CurrentSeason() bool {
	for _, s := range l.Seasons {
		if s.Current {
			return true
		}
	}
	return false
}
