package bot

import (
	"context"
	"fmt"
	"log/slog"
	"programs-assistant/internal/chat"
	"programs-assistant/internal/config"
)

// Sender delivers replies back to the chat platform.
type Sender interface {
	SendTyping(ctx context.Context, chatID int64) error
	SendText(ctx context.Context, chatID int64, text string) error
}

// Incoming is a text message received from the chat platform. Command is the
// bot command without the leading slash, empty for plain text.
type Incoming struct {
	ChatID  int64
	UserID  int64
	Command string
	Text    string
}

type Handler struct {
	sessions *chat.SessionCache
	asker    chat.Asker
	sender   Sender
}

func NewHandler(sessions *chat.SessionCache, asker chat.Asker, sender Sender) *Handler {
	return &Handler{sessions: sessions, asker: asker, sender: sender}
}

func SessionKey(msg Incoming) string {
	id := msg.UserID
	if id == 0 {
		id = msg.ChatID
	}
	return fmt.Sprintf("telegram:%d", id)
}

func (h *Handler) Handle(ctx context.Context, msg Incoming) {
	switch msg.Command {
	case "start":
		h.start(ctx, msg)
	case "help":
		h.reply(ctx, msg.ChatID, config.HelpReply)
	case "":
		h.answer(ctx, msg)
	default:
		slog.Debug("ignoring unknown command", "command", msg.Command, "chat_id", msg.ChatID)
	}
}

func (h *Handler) start(ctx context.Context, msg Incoming) {
	h.sessions.GetSession(SessionKey(msg)).Reset()
	h.reply(ctx, msg.ChatID, config.StartReply)
}

func (h *Handler) answer(ctx context.Context, msg Incoming) {
	if msg.Text == "" {
		return
	}

	if err := h.sender.SendTyping(ctx, msg.ChatID); err != nil {
		slog.Warn("error sending typing action", "chat_id", msg.ChatID, "error", err)
	}

	session := h.sessions.GetSession(SessionKey(msg))
	answer := session.Chat(ctx, h.asker, msg.Text)

	h.reply(ctx, msg.ChatID, answer)
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendText(ctx, chatID, text); err != nil {
		slog.Error("error sending reply", "chat_id", chatID, "error", err)
	}
}
