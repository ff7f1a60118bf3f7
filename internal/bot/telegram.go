package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram rejects messages longer than this many characters.
const maxMessageLength = 4096

type TelegramBot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	timeout int
}

func NewTelegramBot(token string, debug bool) (*TelegramBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("could not create telegram client: %w", err)
	}
	api.Debug = debug

	slog.Info("authorized on telegram", "username", api.Self.UserName)

	return newTelegramBot(api, 60), nil
}

func newTelegramBot(api *tgbotapi.BotAPI, timeout int) *TelegramBot {
	return &TelegramBot{api: api, timeout: timeout}
}

func (b *TelegramBot) SetHandler(handler *Handler) {
	b.handler = handler
}

func (b *TelegramBot) SendTyping(ctx context.Context, chatID int64) error {
	_, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

func (b *TelegramBot) SendText(ctx context.Context, chatID int64, text string) error {
	for _, part := range SplitMessage(text, maxMessageLength) {
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			return err
		}
	}
	return nil
}

func toIncoming(msg *tgbotapi.Message) Incoming {
	in := Incoming{Text: msg.Text}
	if msg.Chat != nil {
		in.ChatID = msg.Chat.ID
	}
	if msg.From != nil {
		in.UserID = msg.From.ID
	}
	if msg.IsCommand() {
		in.Command = msg.Command()
		in.Text = msg.CommandArguments()
	}
	return in
}

// incomingFromUpdate reports false for updates without a text message or
// command, such as edits, stickers and photos.
func incomingFromUpdate(update tgbotapi.Update) (Incoming, bool) {
	if update.Message == nil {
		return Incoming{}, false
	}
	msg := toIncoming(update.Message)
	if msg.Command == "" && strings.TrimSpace(msg.Text) == "" {
		return Incoming{}, false
	}
	return msg, true
}

// Run long-polls for updates until ctx is cancelled. Messages of one user are
// handled one at a time in arrival order; different users run concurrently.
func (b *TelegramBot) Run(ctx context.Context) error {
	if b.handler == nil {
		return fmt.Errorf("telegram bot has no handler")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout
	updates := b.api.GetUpdatesChan(u)

	queue := newDispatcher(b.handler.Handle)
	defer queue.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg, ok := incomingFromUpdate(update)
			if !ok {
				continue
			}
			queue.Dispatch(ctx, msg)
		}
	}
}

// SplitMessage breaks text into chunks of at most limit characters,
// preferring to cut at line breaks.
func SplitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
