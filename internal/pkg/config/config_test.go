package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
api_football:
  timeout: 10s
  retry_max: 2

scan:
  timezone: Europe/Belgrade
  max_fixtures: 40

leagues:
  preferences:
    - {country: England, name: Premier League}
  fallback_ids: [39]

tickets:
  min_legs: 2
  max_legs: 5
  targets:
    - {odds: 3.0}
    - {odds: 2.0, mode: close}

tiers:
  - name: primary
    scope_only: true
    rules:
      - {market: double_chance, outcome: "1X", min: 1.20, max: 1.45}
  - name: open
    rules:
      - {market: double_chance, outcome: "1X", min: 1.15, max: 1.70}

telegram:
  channels: ["@tips"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	t.Setenv("API_FOOTBALL_KEY", "secret")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIFootball.APIKey != "secret" {
		t.Errorf("api key not taken from env")
	}
	if cfg.APIFootball.BaseURL != DefaultBaseURL {
		t.Errorf("base_url default not applied: %q", cfg.APIFootball.BaseURL)
	}
	if cfg.APIFootball.Timeout != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", cfg.APIFootball.Timeout)
	}
	if cfg.Telegram.BotToken != "tg-token" {
		t.Errorf("telegram token not taken from env")
	}
	if len(cfg.Scan.SkipStatuses) == 0 {
		t.Error("skip statuses default not applied")
	}
	if cfg.Tickets.Targets[0].Mode != "clear" {
		t.Errorf("target mode default = %q, want clear", cfg.Tickets.Targets[0].Mode)
	}
	if cfg.Tickets.Targets[1].Mode != "close" {
		t.Errorf("explicit target mode lost: %q", cfg.Tickets.Targets[1].Mode)
	}
	if cfg.Scan.Concurrency != DefaultConcurrency {
		t.Errorf("concurrency default not applied")
	}
}

func TestLoad_MissingAPIKeyFatal(t *testing.T) {
	t.Setenv("API_FOOTBALL_KEY", "")
	t.Setenv("API_KEY", "")

	if _, err := Load(writeConfig(t, validYAML)); err == nil {
		t.Fatal("expected missing API key to fail validation")
	}
}

func TestValidate_Rejects(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.applyDefaults()
		cfg.APIFootball.APIKey = "k"
		cfg.Tickets.Targets = []TargetConfig{{Odds: 3.0, Mode: "clear"}}
		cfg.Tiers = []TierConfig{{
			Name:  "primary",
			Rules: []RuleConfig{{Market: "double_chance", Outcome: "1X", Min: 1.2, Max: 1.45}},
		}}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min legs above max", func(c *Config) { c.Tickets.MinLegs = 7 }},
		{"no targets", func(c *Config) { c.Tickets.Targets = nil }},
		{"target odds too low", func(c *Config) { c.Tickets.Targets[0].Odds = 1.0 }},
		{"bad target mode", func(c *Config) { c.Tickets.Targets[0].Mode = "fast" }},
		{"no tiers", func(c *Config) { c.Tiers = nil }},
		{"tier without rules", func(c *Config) { c.Tiers[0].Rules = nil }},
		{"rule without max", func(c *Config) { c.Tiers[0].Rules[0].Max = 0 }},
		{"rule min above max", func(c *Config) { c.Tiers[0].Rules[0].Min = 2.0 }},
		{"bad timezone", func(c *Config) { c.Scan.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("base config should be valid: %v", err)
	}
}
