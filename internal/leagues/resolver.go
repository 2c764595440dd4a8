// Package leagues resolves configured league preferences into a concrete
// set of league identifiers used to prioritize fixture candidates.
package leagues

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mpavlovic/tiketbot/internal/apifootball"
	"github.com/mpavlovic/tiketbot/internal/pkg/config"
)

// Scope is a resolved, read-only set of league IDs.
type Scope map[int64]struct{}

// Contains reports whether the league is in scope.
func (s Scope) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Empty reports whether no league was resolved.
func (s Scope) Empty() bool {
	return len(s) == 0
}

// searcher is the slice of the API client the resolver needs.
type searcher interface {
	SearchLeagues(ctx context.Context, name string) ([]apifootball.LeagueResult, error)
}

// Resolver turns (country, league-name) preferences plus a static fallback
// ID set into a Scope. Resolution happens once per run.
type Resolver struct {
	api      searcher
	prefs    []config.LeaguePreference
	fallback []int64
}

func NewResolver(api searcher, cfg *config.LeaguesConfig) *Resolver {
	return &Resolver{
		api:      api,
		prefs:    cfg.Preferences,
		fallback: cfg.FallbackIDs,
	}
}

// Resolve searches each preference, keeps current-season leagues with a
// matching country and unions the result with the static fallback set.
// The fallback defends against upstream naming drift: a preference that
// resolves to zero leagues (or fails with a non-retryable upstream error)
// is logged and skipped, never fatal. Exhausted retries abort the run.
func (r *Resolver) Resolve(ctx context.Context) (Scope, error) {
	scope := make(Scope)

	for _, pref := range r.prefs {
		results, err := r.api.SearchLeagues(ctx, pref.Name)
		if err != nil {
			var upstream *apifootball.UpstreamError
			if errors.As(err, &upstream) {
				slog.Warn("league search rejected, skipping preference",
					"country", pref.Country, "name", pref.Name, "error", err)
				continue
			}
			return nil, err
		}

		matched := 0
		for _, res := range results {
			if !res.CurrentSeason() {
				continue
			}
			if !countryMatches(pref.Country, res.Country.Name) {
				continue
			}
			scope[res.League.ID] = struct{}{}
			matched++
		}
		if matched == 0 {
			slog.Warn("league preference resolved to zero leagues",
				"country", pref.Country, "name", pref.Name, "results", len(results))
		}
	}

	for _, id := range r.fallback {
		scope[id] = struct{}{}
	}

	slog.Info("league scope resolved",
		"preferences", len(r.prefs), "fallback", len(r.fallback), "total", len(scope))
	return scope, nil
}

// countryMatches compares the preference country with the league's country.
// Preference "any" (or empty) accepts everything, which is how global
// competitions listed under country "World" are targeted.
func countryMatches(pref, country string) bool {
	pref = strings.TrimSpace(pref)
	if pref == "" || strings.EqualFold(pref, "any") {
		return true
	}
	return strings.EqualFold(pref, strings.TrimSpace(country))
}
