// Package notify delivers rendered ticket text to messaging destinations.
// Ticket content is treated as opaque; delivery failures are reported per
// destination and never undo an assembled ticket.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends ticket messages to a set of channels, spacing
// sends to stay under Telegram's per-chat rate limit (~30 msgs/min).
type TelegramNotifier struct {
	bot      *tgbotapi.BotAPI
	channels []string
	interval time.Duration

	mu       sync.Mutex
	lastSend time.Time

	// send is swapped out in tests.
	send func(msg tgbotapi.Chattable) error
}

func NewTelegramNotifier(token string, channels []string, interval time.Duration) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("at least one telegram channel is required")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	me, err := bot.GetMe()
	if err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	slog.Info("telegram notifier initialized", "bot", me.UserName, "channels", len(channels))

	n := &TelegramNotifier{
		bot:      bot,
		channels: channels,
		interval: interval,
	}
	n.send = func(msg tgbotapi.Chattable) error {
		_, err := bot.Send(msg)
		return err
	}
	return n, nil
}

// SendTicket delivers one ticket's text to every configured channel.
// A failed channel is logged and skipped; the first error is returned after
// all channels were attempted.
func (n *TelegramNotifier) SendTicket(ctx context.Context, text string) error {
	var firstErr error
	for _, ch := range n.channels {
		if err := n.waitInterval(ctx); err != nil {
			return err
		}
		msg := tgbotapi.NewMessageToChannel(ch, text)
		if err := n.send(msg); err != nil {
			slog.Error("telegram send failed", "channel", ch, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("send to %s: %w", ch, err)
			}
			continue
		}
		slog.Info("telegram send ok", "channel", ch)
	}
	return firstErr
}

func (n *TelegramNotifier) waitInterval(ctx context.Context) error {
	n.mu.Lock()
	elapsed := time.Since(n.lastSend)
	wait := n.interval - elapsed
	n.lastSend = time.Now().Add(wait)
	n.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
