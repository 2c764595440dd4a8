package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/mpavlovic/tiketbot/internal/pkg/config"
	"github.com/mpavlovic/tiketbot/internal/ticket"
)

// Ensure PostgresTicketArchive implements TicketArchive
var _ TicketArchive = (*PostgresTicketArchive)(nil)

// PostgresTicketArchive stores one row per assembled ticket.
type PostgresTicketArchive struct {
	db *sql.DB
}

func NewPostgresTicketArchive(cfg *config.PostgresConfig) (*PostgresTicketArchive, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresTicketArchive{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL ticket archive initialized")
	return s, nil
}

func (s *PostgresTicketArchive) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS tickets (
		id SERIAL PRIMARY KEY,
		run_id VARCHAR(64) NOT NULL,
		ticket_index INT NOT NULL,
		target DECIMAL(10, 2) NOT NULL,
		legs INT NOT NULL,
		total_odds DECIMAL(10, 4) NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE(run_id, ticket_index)
	);

	CREATE INDEX IF NOT EXISTS idx_tickets_run_id ON tickets(run_id);
	CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets(created_at);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// StoreTickets inserts one row per ticket. rendered must align with tickets
// by position.
func (s *PostgresTicketArchive) StoreTickets(ctx context.Context, runID string, tickets []ticket.Ticket, rendered []string) error {
	if len(tickets) != len(rendered) {
		return fmt.Errorf("tickets/rendered length mismatch: %d vs %d", len(tickets), len(rendered))
	}

	query := `
	INSERT INTO tickets (run_id, ticket_index, target, legs, total_odds, body)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (run_id, ticket_index) DO NOTHING`

	for i, t := range tickets {
		_, err := s.db.ExecContext(ctx, query,
			runID, t.Index, t.Target, len(t.Legs), t.TotalOdds, rendered[i])
		if err != nil {
			return fmt.Errorf("failed to store ticket %d: %w", t.Index, err)
		}
	}
	slog.Info("tickets archived", "run_id", runID, "count", len(tickets))
	return nil
}

func (s *PostgresTicketArchive) Close() error {
	return s.db.Close()
}
