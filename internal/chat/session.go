package chat

import (
	"context"
	"log/slog"
	"programs-assistant/internal/llm"
	"sync"
)

type Asker interface {
	Ask(ctx context.Context, history []llm.Message, question string) string
}

// Recorder keeps a transcript of exchanges outside the rolling history.
type Recorder interface {
	Record(ctx context.Context, sessionKey string, messages ...llm.Message) error
}

type ChatSession struct {
	mu       sync.Mutex
	key      string
	history  *History
	recorder Recorder
}

func NewChatSession(key string, limit int, recorder Recorder) *ChatSession {
	return &ChatSession{
		key:      key,
		history:  NewHistory(limit),
		recorder: recorder,
	}
}

func (session *ChatSession) Key() string {
	return session.key
}

func (session *ChatSession) Reset() {
	session.mu.Lock()
	defer session.mu.Unlock()

	session.history.Reset()
}

func (session *ChatSession) History() []llm.Message {
	session.mu.Lock()
	defer session.mu.Unlock()

	return session.history.Messages()
}

// Chat asks the question with the current history, then stores both turns.
// Turns of the same session are serialized.
func (session *ChatSession) Chat(ctx context.Context, asker Asker, question string) string {
	session.mu.Lock()
	defer session.mu.Unlock()

	answer := asker.Ask(ctx, session.history.Messages(), question)

	turns := []llm.Message{llm.UserMessage(question), llm.ModelMessage(answer)}
	session.history.Append(turns...)

	if session.recorder != nil {
		if err := session.recorder.Record(ctx, session.key, turns...); err != nil {
			slog.Error("error recording chat transcript", "session", session.key, "error", err)
		}
	}

	return answer
}
