package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

const defaultTimeout = 90 * time.Second

// Assistant answers questions with a model seeded by a fixed grounding
// context. It never returns an error: failures are logged and replaced with
// the fallback reply.
type Assistant struct {
	client    Client
	grounding string
	greeting  string
	fallback  string
	timeout   time.Duration
}

func NewAssistant(client Client, grounding, greeting, fallback string) *Assistant {
	return &Assistant{
		client:    client,
		grounding: grounding,
		greeting:  greeting,
		fallback:  fallback,
		timeout:   defaultTimeout,
	}
}

// Prompt returns the conversation sent to the model for a question.
func (a *Assistant) Prompt(history []Message, question string) []Message {
	messages := make([]Message, 0, len(history)+3)
	messages = append(messages, UserMessage(a.grounding), ModelMessage(a.greeting))
	messages = append(messages, history...)
	messages = append(messages, UserMessage(question))
	return messages
}

func (a *Assistant) Ask(ctx context.Context, history []Message, question string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while calling model", "panic", r)
			reply = a.fallback
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	reply, err := a.client.Generate(ctx, a.Prompt(history, question))
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("model returned an empty reply")
	}
	if err != nil {
		slog.Error("error calling model", "error", err)
		return a.fallback
	}

	return reply
}
