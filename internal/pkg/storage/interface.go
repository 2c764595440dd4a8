package storage

import (
	"context"

	"github.com/mpavlovic/tiketbot/internal/ticket"
)

// TicketArchive persists assembled tickets for later review. Archive
// failures are reported per destination and never roll back a run.
type TicketArchive interface {
	StoreTickets(ctx context.Context, runID string, tickets []ticket.Ticket, rendered []string) error
	Close() error
}
