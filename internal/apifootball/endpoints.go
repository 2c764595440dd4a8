package apifootball

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// FixturesByDate returns all fixtures scheduled on date (YYYY-MM-DD).
func (c *Client) FixturesByDate(ctx context.Context, date string) ([]Fixture, error) {
	params := url.Values{"date": {date}}
	raw, err := c.get(ctx, "/fixtures", params)
	if err != nil {
		return nil, err
	}
	var out []Fixture
	if err := unmarshalResponse(raw, &out); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return out, nil
}

// OddsByFixture returns the bookmaker odds for one fixture.
func (c *Client) OddsByFixture(ctx context.Context, fixtureID int64) ([]OddsEntry, error) {
	params := url.Values{"fixture": {strconv.FormatInt(fixtureID, 10)}}
	raw, err := c.get(ctx, "/odds", params)
	if err != nil {
		return nil, err
	}
	var out []OddsEntry
	if err := unmarshalResponse(raw, &out); err != nil {
		return nil, fmt.Errorf("decode odds: %w", err)
	}
	return out, nil
}

// OddsByDate returns the bulk odds feed for all fixtures on date. Used as a
// fallback source when the per-fixture endpoint comes back empty.
func (c *Client) OddsByDate(ctx context.Context, date string) ([]OddsEntry, error) {
	params := url.Values{"date": {date}}
	raw, err := c.get(ctx, "/odds", params)
	if err != nil {
		return nil, err
	}
	var out []OddsEntry
	if err := unmarshalResponse(raw, &out); err != nil {
		return nil, fmt.Errorf("decode odds by date: %w", err)
	}
	return out, nil
}

// SearchLeagues returns league metadata matching a display name.
func (c *Client) SearchLeagues(ctx context.Context, name string) ([]LeagueResult, error) {
	params := url.Values{"search": {name}}
	raw, err := c.get(ctx, "/leagues", params)
	if err != nil {
		return nil, err
	}
	var out []LeagueResult
	if err := unmarshalResponse(raw, &out); err != nil {
		return nil, fmt.Errorf("decode leagues: %w", err)
	}
	return out, nil
}

// unmarshalResponse tolerates a missing or null "response" field, which the
// API sends instead of an empty array on some endpoints.
func unmarshalResponse(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
