package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func testNotifier(channels []string, send func(msg tgbotapi.Chattable) error) *TelegramNotifier {
	return &TelegramNotifier{
		channels: channels,
		interval: time.Millisecond,
		send:     send,
	}
}

func TestSendTicket_AllChannels(t *testing.T) {
	var sent []string
	n := testNotifier([]string{"@one", "@two"}, func(msg tgbotapi.Chattable) error {
		m, ok := msg.(tgbotapi.MessageConfig)
		if !ok {
			t.Fatalf("unexpected message type %T", msg)
		}
		sent = append(sent, m.ChannelUsername)
		return nil
	})

	if err := n.SendTicket(context.Background(), "ticket body"); err != nil {
		t.Fatalf("SendTicket: %v", err)
	}
	if len(sent) != 2 || sent[0] != "@one" || sent[1] != "@two" {
		t.Errorf("sent to %v, want [@one @two]", sent)
	}
}

func TestSendTicket_FailedChannelDoesNotBlockOthers(t *testing.T) {
	var sent []string
	n := testNotifier([]string{"@bad", "@good"}, func(msg tgbotapi.Chattable) error {
		m := msg.(tgbotapi.MessageConfig)
		if m.ChannelUsername == "@bad" {
			return fmt.Errorf("chat not found")
		}
		sent = append(sent, m.ChannelUsername)
		return nil
	})

	err := n.SendTicket(context.Background(), "ticket body")
	if err == nil {
		t.Fatal("expected the failed channel's error to surface")
	}
	if len(sent) != 1 || sent[0] != "@good" {
		t.Errorf("remaining channel not attempted: %v", sent)
	}
}

func TestSendTicket_CancelledContext(t *testing.T) {
	n := testNotifier([]string{"@one"}, func(tgbotapi.Chattable) error { return nil })
	n.interval = time.Minute
	n.lastSend = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.SendTicket(ctx, "ticket body"); err == nil {
		t.Fatal("expected context cancellation to abort the send")
	}
}
