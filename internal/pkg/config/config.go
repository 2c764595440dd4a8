package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file leaves a value unset.
const (
	DefaultBaseURL         = "https://v3.football.api-sports.io"
	DefaultTimeout         = 30 * time.Second
	DefaultRateLimitDelay  = 350 * time.Millisecond
	DefaultRateLimitJitter = 150 * time.Millisecond
	DefaultRetryMax        = 4
	DefaultMaxFixtures     = 120
	DefaultConcurrency     = 1
	DefaultMinLegs         = 2
	DefaultMaxLegs         = 6
	DefaultSendInterval    = 2 * time.Second
	DefaultRationaleModel  = "gpt-4o-mini"
	DefaultTimezone        = "Europe/Belgrade"
)

// Fixture statuses excluded from scanning: finished, live and abandoned matches.
var defaultSkipStatuses = []string{
	"FT", "AET", "PEN", "CANC", "ABD", "WO", "PST", "SUSP",
	"1H", "2H", "HT", "LIVE", "ET", "BT",
}

type Config struct {
	APIFootball APIFootballConfig `yaml:"api_football"`
	Scan        ScanConfig        `yaml:"scan"`
	Leagues     LeaguesConfig     `yaml:"leagues"`
	Tickets     TicketsConfig     `yaml:"tickets"`
	Tiers       []TierConfig      `yaml:"tiers"`
	Telegram    TelegramConfig    `yaml:"telegram"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Rationale   RationaleConfig   `yaml:"rationale"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type APIFootballConfig struct {
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"-"` // env only: API_FOOTBALL_KEY
	Timeout         time.Duration `yaml:"timeout"`
	RateLimitDelay  time.Duration `yaml:"rate_limit_delay"`
	RateLimitJitter time.Duration `yaml:"rate_limit_jitter"`
	RetryMax        int           `yaml:"retry_max"`
}

type ScanConfig struct {
	Timezone     string   `yaml:"timezone"`
	MaxFixtures  int      `yaml:"max_fixtures"`
	Concurrency  int      `yaml:"concurrency"`
	SkipStatuses []string `yaml:"skip_statuses"`
}

type LeaguesConfig struct {
	Preferences []LeaguePreference `yaml:"preferences"`
	FallbackIDs []int64            `yaml:"fallback_ids"`
}

// LeaguePreference selects leagues by country and display name.
// Country "any" (or empty) matches global competitions.
type LeaguePreference struct {
	Country string `yaml:"country"`
	Name    string `yaml:"name"`
}

type TicketsConfig struct {
	MinLegs int            `yaml:"min_legs"`
	MaxLegs int            `yaml:"max_legs"`
	Targets []TargetConfig `yaml:"targets"`
}

// TargetConfig is one ticket goal. Mode "clear" builds the shortest ticket
// that clears the target odds; mode "close" lands just above the target
// using small prices.
type TargetConfig struct {
	Odds float64 `yaml:"odds"`
	Mode string  `yaml:"mode"`
}

type TierConfig struct {
	Name      string       `yaml:"name"`
	ScopeOnly bool         `yaml:"scope_only"`
	Rules     []RuleConfig `yaml:"rules"`
}

// RuleConfig accepts an outcome price. With min set it is a band rule
// (min <= price <= max); with min omitted it is a cap rule (price <= max).
type RuleConfig struct {
	Market  string  `yaml:"market"`
	Outcome string  `yaml:"outcome"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
}

type TelegramConfig struct {
	BotToken     string        `yaml:"-"` // env only: TELEGRAM_BOT_TOKEN
	Channels     []string      `yaml:"channels"`
	SendInterval time.Duration `yaml:"send_interval"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RationaleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"-"` // env only: OPENAI_API_KEY
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML config file, loads a .env file if present and applies
// environment overrides for credentials.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load() // optional .env, ignore if missing

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.APIFootball.BaseURL == "" {
		c.APIFootball.BaseURL = DefaultBaseURL
	}
	if c.APIFootball.Timeout <= 0 {
		c.APIFootball.Timeout = DefaultTimeout
	}
	if c.APIFootball.RateLimitDelay <= 0 {
		c.APIFootball.RateLimitDelay = DefaultRateLimitDelay
	}
	if c.APIFootball.RateLimitJitter < 0 {
		c.APIFootball.RateLimitJitter = DefaultRateLimitJitter
	}
	if c.APIFootball.RetryMax <= 0 {
		c.APIFootball.RetryMax = DefaultRetryMax
	}
	if c.Scan.Timezone == "" {
		c.Scan.Timezone = DefaultTimezone
	}
	if c.Scan.MaxFixtures <= 0 {
		c.Scan.MaxFixtures = DefaultMaxFixtures
	}
	if c.Scan.Concurrency <= 0 {
		c.Scan.Concurrency = DefaultConcurrency
	}
	if len(c.Scan.SkipStatuses) == 0 {
		c.Scan.SkipStatuses = append([]string(nil), defaultSkipStatuses...)
	}
	if c.Tickets.MinLegs <= 0 {
		c.Tickets.MinLegs = DefaultMinLegs
	}
	if c.Tickets.MaxLegs <= 0 {
		c.Tickets.MaxLegs = DefaultMaxLegs
	}
	for i := range c.Tickets.Targets {
		if c.Tickets.Targets[i].Mode == "" {
			c.Tickets.Targets[i].Mode = "clear"
		}
	}
	if c.Telegram.SendInterval <= 0 {
		c.Telegram.SendInterval = DefaultSendInterval
	}
	if c.Rationale.Model == "" {
		c.Rationale.Model = DefaultRationaleModel
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("API_FOOTBALL_KEY"); v != "" {
		c.APIFootball.APIKey = v
	} else if v := os.Getenv("API_KEY"); v != "" {
		c.APIFootball.APIKey = v
	}
	if v := os.Getenv("API_FOOTBALL_URL"); v != "" {
		c.APIFootball.BaseURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Rationale.APIKey = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
}

// Validate fails fast on configuration that would make a run impossible,
// before any network call is made.
func (c *Config) Validate() error {
	if c.APIFootball.APIKey == "" {
		return fmt.Errorf("API_FOOTBALL_KEY is required")
	}
	if c.Tickets.MinLegs > c.Tickets.MaxLegs {
		return fmt.Errorf("tickets: min_legs (%d) must not exceed max_legs (%d)", c.Tickets.MinLegs, c.Tickets.MaxLegs)
	}
	if len(c.Tickets.Targets) == 0 {
		return fmt.Errorf("tickets: at least one target is required")
	}
	for i, t := range c.Tickets.Targets {
		if t.Odds <= 1.0 {
			return fmt.Errorf("tickets: target %d odds must be > 1.0, got %.2f", i+1, t.Odds)
		}
		if t.Mode != "clear" && t.Mode != "close" {
			return fmt.Errorf("tickets: target %d mode must be \"clear\" or \"close\", got %q", i+1, t.Mode)
		}
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("at least one rule tier is required")
	}
	for _, tier := range c.Tiers {
		if len(tier.Rules) == 0 {
			return fmt.Errorf("tier %q has no rules", tier.Name)
		}
		for _, r := range tier.Rules {
			if r.Max <= 0 {
				return fmt.Errorf("tier %q: rule for %s/%s has no max price", tier.Name, r.Market, r.Outcome)
			}
			if r.Min > r.Max {
				return fmt.Errorf("tier %q: rule for %s/%s has min > max", tier.Name, r.Market, r.Outcome)
			}
		}
	}
	if _, err := time.LoadLocation(c.Scan.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Scan.Timezone, err)
	}
	return nil
}
