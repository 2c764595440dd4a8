package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mpavlovic/tiketbot/internal/apifootball"
	"github.com/mpavlovic/tiketbot/internal/leagues"
	"github.com/mpavlovic/tiketbot/internal/notify"
	"github.com/mpavlovic/tiketbot/internal/pipeline"
	"github.com/mpavlovic/tiketbot/internal/pkg/config"
	"github.com/mpavlovic/tiketbot/internal/pkg/logging"
	"github.com/mpavlovic/tiketbot/internal/pkg/storage"
	"github.com/mpavlovic/tiketbot/internal/rationale"
	"github.com/mpavlovic/tiketbot/internal/ticket"
)

const defaultConfigPath = "configs/production.yaml"

func main() {
	fmt.Println("Starting Ticket Bot...")

	var configPath string
	var dateFlag string
	var dryRun bool

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&dateFlag, "date", "", "Scan date YYYY-MM-DD (default: today in configured timezone)")
	flag.BoolVar(&dryRun, "dry-run", false, "Assemble and print tickets without delivering them")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.SetupLogger(&cfg.Logging, "ticket-bot")

	loc, err := time.LoadLocation(cfg.Scan.Timezone)
	if err != nil {
		log.Fatalf("Invalid timezone %q: %v", cfg.Scan.Timezone, err)
	}

	date := dateFlag
	if date == "" {
		date = time.Now().In(loc).Format("2006-01-02")
	}

	tiers, err := ticket.TiersFromConfig(cfg.Tiers)
	if err != nil {
		log.Fatalf("Invalid tier config: %v", err)
	}
	targets := ticket.TargetsFromConfig(cfg.Tickets.Targets)

	api := apifootball.NewClient(&cfg.APIFootball)
	resolver := leagues.NewResolver(api, &cfg.Leagues)
	assembler := ticket.NewAssembler(tiers, targets, cfg.Tickets.MinLegs, cfg.Tickets.MaxLegs)
	pipe := pipeline.New(api, resolver, assembler, &cfg.Scan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("received shutdown signal, cancelling run")
		cancel()
	}()

	runID := uuid.NewString()
	slog.Info("run starting", "run_id", runID, "date", date, "dry_run", dryRun)

	tickets, err := pipe.Run(ctx, date)
	if err != nil {
		slog.Error("run failed", "run_id", runID, "error", err)
		os.Exit(1)
	}
	slog.Info("run finished", "run_id", runID, "tickets", len(tickets),
		"cached_requests", api.CachedResponses())

	rendered := make([]string, len(tickets))
	for i, t := range tickets {
		rendered[i] = t.Render(loc)
		fmt.Printf("🎫 Ticket #%d\n%s\n%s\n", t.Index, rendered[i], divider)
	}

	if len(tickets) == 0 {
		fmt.Println("No tickets")
		return
	}
	if dryRun {
		return
	}

	deliver(ctx, cfg, runID, tickets, rendered)
}

const divider = "----------------------------------------------------------------"

// deliver hands rendered tickets to the configured destinations. Each
// destination fails independently; assembled tickets are never rolled back.
func deliver(ctx context.Context, cfg *config.Config, runID string, tickets []ticket.Ticket, rendered []string) {
	messages := make([]string, len(rendered))
	copy(messages, rendered)

	if cfg.Rationale.Enabled && cfg.Rationale.APIKey != "" {
		gen, err := rationale.NewGenerator(cfg.Rationale.APIKey, cfg.Rationale.Model)
		if err != nil {
			slog.Error("rationale generator unavailable", "error", err)
		} else {
			for i := range messages {
				reasoning, err := gen.ForTicket(ctx, rendered[i])
				if err != nil {
					slog.Warn("rationale generation failed", "ticket", i+1, "error", err)
					continue
				}
				messages[i] = messages[i] + "\n\n🧠 Reasoning:\n" + reasoning
			}
		}
	}

	if cfg.Telegram.BotToken != "" && len(cfg.Telegram.Channels) > 0 {
		notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.Channels, cfg.Telegram.SendInterval)
		if err != nil {
			slog.Error("telegram notifier unavailable", "error", err)
		} else {
			for i, msg := range messages {
				if err := notifier.SendTicket(ctx, msg); err != nil {
					slog.Error("ticket delivery incomplete", "ticket", i+1, "error", err)
				}
			}
		}
	} else {
		slog.Info("telegram delivery skipped: no token or channels configured")
	}

	if cfg.Postgres.DSN != "" {
		archive, err := storage.NewPostgresTicketArchive(&cfg.Postgres)
		if err != nil {
			slog.Error("ticket archive unavailable", "error", err)
			return
		}
		defer archive.Close()
		if err := archive.StoreTickets(ctx, runID, tickets, rendered); err != nil {
			slog.Error("ticket archive write failed", "error", err)
		}
	}
}
