// Package pipeline wires one run: resolve the league scope, fetch the day's
// fixtures, normalize each fixture's odds and assemble tickets.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mpavlovic/tiketbot/internal/apifootball"
	"github.com/mpavlovic/tiketbot/internal/leagues"
	"github.com/mpavlovic/tiketbot/internal/odds"
	"github.com/mpavlovic/tiketbot/internal/pkg/config"
	"github.com/mpavlovic/tiketbot/internal/ticket"
)

// API is the slice of the feed client the pipeline consumes.
type API interface {
	FixturesByDate(ctx context.Context, date string) ([]apifootball.Fixture, error)
	OddsByFixture(ctx context.Context, fixtureID int64) ([]apifootball.OddsEntry, error)
	OddsByDate(ctx context.Context, date string) ([]apifootball.OddsEntry, error)
}

// ScopeResolver yields the preferred league scope for a run.
type ScopeResolver interface {
	Resolve(ctx context.Context) (leagues.Scope, error)
}

type Pipeline struct {
	api       API
	resolver  ScopeResolver
	assembler *ticket.Assembler

	skipStatuses map[string]bool
	maxFixtures  int
	concurrency  int
}

func New(api API, resolver ScopeResolver, assembler *ticket.Assembler, scan *config.ScanConfig) *Pipeline {
	skip := make(map[string]bool, len(scan.SkipStatuses))
	for _, s := range scan.SkipStatuses {
		skip[strings.ToUpper(strings.TrimSpace(s))] = true
	}
	concurrency := scan.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{
		api:          api,
		resolver:     resolver,
		assembler:    assembler,
		skipStatuses: skip,
		maxFixtures:  scan.MaxFixtures,
		concurrency:  concurrency,
	}
}

// Run executes the full pipeline for one date (YYYY-MM-DD). A run producing
// zero tickets is still a successful run.
func (p *Pipeline) Run(ctx context.Context, date string) ([]ticket.Ticket, error) {
	scope, err := p.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve league scope: %w", err)
	}

	fixtures, err := p.api.FixturesByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures for %s: %w", date, err)
	}
	slog.Info("fixtures fetched", "date", date, "total", len(fixtures))

	candidates := p.selectFixtures(fixtures, scope)
	slog.Info("fixtures selected for scanning",
		"candidates", len(candidates), "cap", p.maxFixtures)

	items, err := p.collectOdds(ctx, date, candidates, scope)
	if err != nil {
		return nil, err
	}
	slog.Info("odds collected", "fixtures_with_markets", len(items))

	tickets := p.assembler.Assemble(items)
	if len(tickets) == 0 {
		slog.Info("no tickets produced", "date", date)
	}
	return tickets, nil
}

// selectFixtures drops fixtures in a skip status, puts in-scope fixtures
// first so they survive the scan cap, and enforces the cap.
func (p *Pipeline) selectFixtures(fixtures []apifootball.Fixture, scope leagues.Scope) []apifootball.Fixture {
	var inScope, rest []apifootball.Fixture
	for _, f := range fixtures {
		if f.Fixture.ID == 0 {
			continue
		}
		if p.skipStatuses[strings.ToUpper(f.Fixture.Status.Short)] {
			continue
		}
		if scope.Contains(f.League.ID) {
			inScope = append(inScope, f)
		} else {
			rest = append(rest, f)
		}
	}
	selected := append(inScope, rest...)
	if p.maxFixtures > 0 && len(selected) > p.maxFixtures {
		selected = selected[:p.maxFixtures]
	}
	return selected
}

// collectOdds fetches and normalizes odds for every selected fixture. One
// fixture's non-retryable upstream failure skips that fixture only;
// exhausted retries abort the run. The bulk odds-by-date feed serves as a
// fallback when the per-fixture endpoint returns nothing.
func (p *Pipeline) collectOdds(ctx context.Context, date string, fixtures []apifootball.Fixture, scope leagues.Scope) ([]ticket.FixtureOdds, error) {
	bulk := &bulkFallback{api: p.api, date: date}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		pos  int
		item ticket.FixtureOdds
		ok   bool
	}

	jobs := make(chan int)
	results := make(chan result)
	var firstErr error
	var errOnce sync.Once

	var wg sync.WaitGroup
	for w := 0; w < p.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				f := fixtures[pos]
				table, err := p.fixtureTable(ctx, f, bulk)
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
				if table == nil || table.Empty() {
					results <- result{pos: pos, ok: false}
					continue
				}
				results <- result{
					pos: pos,
					item: ticket.FixtureOdds{
						FixtureID: f.Fixture.ID,
						League:    leagueLabel(f.League),
						HomeTeam:  f.Teams.Home.Name,
						AwayTeam:  f.Teams.Away.Name,
						Kickoff:   f.Kickoff(),
						InScope:   scope.Contains(f.League.ID),
						Table:     table,
					},
					ok: true,
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for pos := range fixtures {
			select {
			case jobs <- pos:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]ticket.FixtureOdds, len(fixtures))
	present := make([]bool, len(fixtures))
	for r := range results {
		if r.ok {
			collected[r.pos] = r.item
			present[r.pos] = true
		}
	}
	if firstErr != nil {
		return nil, fmt.Errorf("fetch odds: %w", firstErr)
	}

	// Preserve fixture order: in-scope candidates stay ahead of the rest.
	items := make([]ticket.FixtureOdds, 0, len(fixtures))
	for pos := range fixtures {
		if present[pos] {
			items = append(items, collected[pos])
		}
	}
	return items, nil
}

// fixtureTable normalizes one fixture's odds, falling back to the bulk feed
// when the per-fixture endpoint has nothing. A nil table means the fixture
// is skipped.
func (p *Pipeline) fixtureTable(ctx context.Context, f apifootball.Fixture, bulk *bulkFallback) (odds.Table, error) {
	entries, err := p.api.OddsByFixture(ctx, f.Fixture.ID)
	if err != nil {
		var upstream *apifootball.UpstreamError
		if errors.As(err, &upstream) {
			slog.Warn("odds fetch rejected, skipping fixture",
				"fixture", f.Fixture.ID, "error", err)
			return nil, nil
		}
		return nil, err
	}

	table := odds.Normalize(entries)
	if !table.Empty() {
		return table, nil
	}

	fallback := bulk.table(ctx, f.Fixture.ID)
	if fallback != nil && !fallback.Empty() {
		slog.Debug("using bulk odds fallback", "fixture", f.Fixture.ID)
		return fallback, nil
	}
	return table, nil
}

// bulkFallback lazily fetches the odds-by-date feed once per run and serves
// per-fixture tables from it. Fetch failures degrade to an empty fallback:
// the per-fixture path already succeeded, the bulk feed is best effort.
type bulkFallback struct {
	api  API
	date string

	once   sync.Once
	tables map[int64]odds.Table
}

func (b *bulkFallback) table(ctx context.Context, fixtureID int64) odds.Table {
	b.once.Do(func() {
		entries, err := b.api.OddsByDate(ctx, b.date)
		if err != nil {
			slog.Warn("bulk odds fallback unavailable", "date", b.date, "error", err)
			return
		}
		b.tables = odds.NormalizeByDate(entries)
	})
	return b.tables[fixtureID]
}

func leagueLabel(l apifootball.League) string {
	country := strings.TrimSpace(l.Country)
	name := strings.TrimSpace(l.Name)
	switch {
	case country == "":
		return name
	case name == "":
		return country
	default:
		return country + " — " + name
	}
}
