package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/mpavlovic/tiketbot/internal/apifootball"
	"github.com/mpavlovic/tiketbot/internal/leagues"
	"github.com/mpavlovic/tiketbot/internal/odds"
	"github.com/mpavlovic/tiketbot/internal/pkg/config"
	"github.com/mpavlovic/tiketbot/internal/ticket"
)

type fakeAPI struct {
	mu            sync.Mutex
	fixtures      []apifootball.Fixture
	odds          map[int64][]apifootball.OddsEntry
	oddsErr       map[int64]error
	bulk          []apifootball.OddsEntry
	bulkCalls     int
	fixtureCalls  map[int64]int
}

func (f *fakeAPI) FixturesByDate(context.Context, string) ([]apifootball.Fixture, error) {
	return f.fixtures, nil
}

func (f *fakeAPI) OddsByFixture(_ context.Context, id int64) ([]apifootball.OddsEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fixtureCalls == nil {
		f.fixtureCalls = make(map[int64]int)
	}
	f.fixtureCalls[id]++
	if err := f.oddsErr[id]; err != nil {
		return nil, err
	}
	return f.odds[id], nil
}

func (f *fakeAPI) OddsByDate(context.Context, string) ([]apifootball.OddsEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkCalls++
	return f.bulk, nil
}

type staticScope leagues.Scope

func (s staticScope) Resolve(context.Context) (leagues.Scope, error) {
	return leagues.Scope(s), nil
}

func fixture(id, leagueID int64, status string) apifootball.Fixture {
	return apifootball.Fixture{
		Fixture: apifootball.FixtureCore{
			ID:     id,
			Date:   "2026-03-14T17:00:00+00:00",
			Status: apifootball.FixtureStatus{Short: status},
		},
		League: apifootball.League{ID: leagueID, Name: "Premier League", Country: "England"},
		Teams: apifootball.Teams{
			Home: apifootball.Team{ID: id * 10, Name: "Home"},
			Away: apifootball.Team{ID: id*10 + 1, Name: "Away"},
		},
	}
}

func oddsFor(id int64, price string) []apifootball.OddsEntry {
	return []apifootball.OddsEntry{{
		Fixture: apifootball.OddsFixtureRef{ID: id},
		Bookmakers: []apifootball.Bookmaker{{
			Name: "Book",
			Bets: []apifootball.Bet{{
				Name:   "Double Chance",
				Values: []apifootball.BetValue{{Value: "1X", Odd: price}},
			}},
		}},
	}}
}

func testPipeline(api *fakeAPI, scope leagues.Scope, scan *config.ScanConfig) *Pipeline {
	tiers := []ticket.Tier{{
		Name:  "open",
		Rules: ticket.RuleSet{{Market: odds.MarketDoubleChance, Outcome: "1X", Max: 10.0}},
	}}
	assembler := ticket.NewAssembler(tiers, []ticket.Target{{Odds: 2.0, Mode: ticket.ModeClear}}, 2, 6)
	if scan == nil {
		scan = &config.ScanConfig{MaxFixtures: 50, Concurrency: 2, SkipStatuses: []string{"FT", "LIVE"}}
	}
	return New(api, staticScope(scope), assembler, scan)
}

func TestRun_EndToEnd(t *testing.T) {
	api := &fakeAPI{
		fixtures: []apifootball.Fixture{
			fixture(1, 39, "NS"),
			fixture(2, 39, "NS"),
			fixture(3, 39, "FT"), // finished, skipped
		},
		odds: map[int64][]apifootball.OddsEntry{
			1: oddsFor(1, "1.60"),
			2: oddsFor(2, "1.55"),
		},
	}
	p := testPipeline(api, leagues.Scope{39: {}}, nil)

	tickets, err := p.Run(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(tickets))
	}
	if got := tickets[0].TotalOdds; got < 2.0 {
		t.Errorf("total odds %.2f below target", got)
	}
	if api.fixtureCalls[3] != 0 {
		t.Error("odds fetched for a skipped fixture")
	}
}

func TestRun_UpstreamErrorSkipsFixtureOnly(t *testing.T) {
	api := &fakeAPI{
		fixtures: []apifootball.Fixture{
			fixture(1, 39, "NS"),
			fixture(2, 39, "NS"),
			fixture(3, 39, "NS"),
		},
		odds: map[int64][]apifootball.OddsEntry{
			1: oddsFor(1, "1.60"),
			3: oddsFor(3, "1.55"),
		},
		oddsErr: map[int64]error{
			2: &apifootball.UpstreamError{Status: 404, Message: "no odds"},
		},
	}
	p := testPipeline(api, leagues.Scope{39: {}}, nil)

	tickets, err := p.Run(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("one fixture's upstream error must not fail the run: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket from the remaining fixtures, got %d", len(tickets))
	}
	for _, leg := range tickets[0].Legs {
		if leg.FixtureID == 2 {
			t.Error("failed fixture leaked into a ticket")
		}
	}
}

func TestRun_TransientErrorFailsRun(t *testing.T) {
	api := &fakeAPI{
		fixtures: []apifootball.Fixture{fixture(1, 39, "NS")},
		oddsErr: map[int64]error{
			1: &apifootball.TransientError{Err: context.DeadlineExceeded},
		},
	}
	p := testPipeline(api, leagues.Scope{39: {}}, nil)

	if _, err := p.Run(context.Background(), "2026-03-14"); err == nil {
		t.Fatal("expected exhausted retries to fail the run")
	}
}

func TestRun_BulkFallbackWhenFixtureOddsEmpty(t *testing.T) {
	api := &fakeAPI{
		fixtures: []apifootball.Fixture{
			fixture(1, 39, "NS"),
			fixture(2, 39, "NS"),
		},
		odds: map[int64][]apifootball.OddsEntry{
			1: oddsFor(1, "1.60"),
			// fixture 2 returns nothing from the per-fixture endpoint
		},
		bulk: oddsFor(2, "1.55"),
	}
	p := testPipeline(api, leagues.Scope{39: {}}, nil)

	tickets, err := p.Run(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(tickets) != 1 || len(tickets[0].Legs) != 2 {
		t.Fatalf("expected a 2-leg ticket using the bulk fallback, got %+v", tickets)
	}
	if api.bulkCalls != 1 {
		t.Errorf("bulk feed fetched %d times, want 1", api.bulkCalls)
	}
}

func TestRun_ZeroTicketsIsSuccess(t *testing.T) {
	api := &fakeAPI{
		fixtures: []apifootball.Fixture{fixture(1, 39, "FT")},
	}
	p := testPipeline(api, leagues.Scope{39: {}}, nil)

	tickets, err := p.Run(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("a run with no candidates must still succeed: %v", err)
	}
	if len(tickets) != 0 {
		t.Fatalf("expected no tickets, got %d", len(tickets))
	}
}

func TestSelectFixtures_ScopeFirstAndCapped(t *testing.T) {
	api := &fakeAPI{}
	scan := &config.ScanConfig{MaxFixtures: 2, Concurrency: 1, SkipStatuses: []string{"FT"}}
	p := testPipeline(api, nil, scan)

	fixtures := []apifootball.Fixture{
		fixture(1, 999, "NS"), // out of scope
		fixture(2, 39, "NS"),  // in scope
		fixture(3, 39, "NS"),  // in scope
	}
	selected := p.selectFixtures(fixtures, leagues.Scope{39: {}})
	if len(selected) != 2 {
		t.Fatalf("cap not enforced: %d fixtures selected", len(selected))
	}
	if selected[0].Fixture.ID != 2 || selected[1].Fixture.ID != 3 {
		t.Errorf("in-scope fixtures must survive the cap, got %d, %d",
			selected[0].Fixture.ID, selected[1].Fixture.ID)
	}
}
