// Package rationale asks a language model for a short reasoning text per
// ticket. The ticket body is passed through as opaque content; a failed
// generation degrades to an empty rationale, never a run failure.
package rationale

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const systemPrompt = "You are a football betting analyst. Given a betting ticket, " +
	"write a short, confident reasoning (3-5 sentences) for why these picks were selected. " +
	"Do not invent statistics. Do not promise winnings."

type Generator struct {
	client openai.Client
	model  string
}

func NewGenerator(apiKey, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	return &Generator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// ForTicket generates a rationale for one rendered ticket.
func (g *Generator) ForTicket(ctx context.Context, ticketText string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(ticketText),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
