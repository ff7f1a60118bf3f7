package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"programs-assistant/internal/chat"
	"programs-assistant/internal/llm"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

type sentMessage struct {
	chatID string
	text   string
}

// fakeTelegram serves the subset of the Bot API used by TelegramBot. The
// queued updates are returned by the first getUpdates call only.
type fakeTelegram struct {
	server  *httptest.Server
	updates []map[string]any
	served  atomic.Bool

	mu   sync.Mutex
	sent []sentMessage
}

func newFakeTelegram(t *testing.T, updates ...map[string]any) *fakeTelegram {
	t.Helper()
	f := &fakeTelegram{updates: updates}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func writeResult(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result}) //nolint:errcheck
}

func (f *fakeTelegram) serve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		writeResult(w, map[string]any{"id": 1, "is_bot": true, "first_name": "test", "username": "test_bot"})
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		if f.served.CompareAndSwap(false, true) {
			writeResult(w, f.updates)
			return
		}
		time.Sleep(20 * time.Millisecond)
		writeResult(w, []any{})
	case strings.HasSuffix(r.URL.Path, "/sendChatAction"):
		writeResult(w, true)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		f.mu.Lock()
		f.sent = append(f.sent, sentMessage{chatID: r.Form.Get("chat_id"), text: r.Form.Get("text")})
		f.mu.Unlock()
		writeResult(w, map[string]any{"message_id": 1, "date": 0, "chat": map[string]any{"id": 1, "type": "private"}})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeTelegram) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeTelegram) NewBot(t *testing.T) *TelegramBot {
	t.Helper()
	api, err := tgbotapi.NewBotAPIWithClient(testToken, f.server.URL+"/bot%s/%s", f.server.Client())
	require.NoError(t, err)
	return newTelegramBot(api, 0)
}

func textUpdate(updateID int, userID int64, text string) map[string]any {
	return map[string]any{
		"update_id": updateID,
		"message": map[string]any{
			"message_id": updateID,
			"date":       0,
			"text":       text,
			"from":       map[string]any{"id": userID, "is_bot": false, "first_name": "user"},
			"chat":       map[string]any{"id": userID, "type": "private"},
		},
	}
}

// recordingAsker is safe for concurrent use and remembers the order of model
// calls and the history each call saw.
type recordingAsker struct {
	mu      sync.Mutex
	calls   []string
	history map[string][]llm.Message
	delay   map[string]time.Duration
}

func (a *recordingAsker) Ask(ctx context.Context, history []llm.Message, question string) string {
	a.mu.Lock()
	delay := a.delay[question]
	a.mu.Unlock()

	time.Sleep(delay)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, question)
	if a.history == nil {
		a.history = make(map[string][]llm.Message)
	}
	a.history[question] = history
	return "a:" + question
}

func runBot(t *testing.T, bot *TelegramBot) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()
	return cancel, done
}

func TestRunKeepsArrivalOrderPerUser(t *testing.T) {
	fake := newFakeTelegram(t, textUpdate(1, 42, "q1"), textUpdate(2, 42, "q2"))
	bot := fake.NewBot(t)

	asker := &recordingAsker{delay: map[string]time.Duration{"q1": 200 * time.Millisecond}}
	sessions := chat.NewSessionCache(10, chat.MaxHistory, nil)
	bot.SetHandler(NewHandler(sessions, asker, bot))

	cancel, done := runBot(t, bot)

	require.Eventually(t, func() bool { return len(fake.Sent()) == 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	sent := fake.Sent()
	assert.Equal(t, "a:q1", sent[0].text)
	assert.Equal(t, "a:q2", sent[1].text)
	assert.Equal(t, "42", sent[0].chatID)

	asker.mu.Lock()
	defer asker.mu.Unlock()
	assert.Equal(t, []string{"q1", "q2"}, asker.calls)
	assert.Equal(t, []llm.Message{llm.UserMessage("q1"), llm.ModelMessage("a:q1")}, asker.history["q2"])

	session, ok := sessions.Lookup("telegram:42")
	require.True(t, ok)
	assert.Equal(t, []llm.Message{
		llm.UserMessage("q1"), llm.ModelMessage("a:q1"),
		llm.UserMessage("q2"), llm.ModelMessage("a:q2"),
	}, session.History())
}

func TestRunStartBeforeQuestion(t *testing.T) {
	start := textUpdate(2, 7, "/start")
	start["message"].(map[string]any)["entities"] = []map[string]any{{"type": "bot_command", "offset": 0, "length": 6}}

	fake := newFakeTelegram(t, textUpdate(1, 7, "old"), start, textUpdate(3, 7, "new"))
	bot := fake.NewBot(t)

	asker := &recordingAsker{delay: map[string]time.Duration{"old": 100 * time.Millisecond}}
	sessions := chat.NewSessionCache(10, chat.MaxHistory, nil)
	bot.SetHandler(NewHandler(sessions, asker, bot))

	cancel, done := runBot(t, bot)
	require.Eventually(t, func() bool { return len(fake.Sent()) == 3 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	session, ok := sessions.Lookup("telegram:7")
	require.True(t, ok)
	assert.Equal(t, []llm.Message{llm.UserMessage("new"), llm.ModelMessage("a:new")}, session.History())
}

func TestRunStopsOnCancel(t *testing.T) {
	fake := newFakeTelegram(t)
	bot := fake.NewBot(t)
	bot.SetHandler(NewHandler(chat.NewSessionCache(10, chat.MaxHistory, nil), &recordingAsker{}, bot))

	cancel, done := runBot(t, bot)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bot did not stop after cancel")
	}
	assert.Empty(t, fake.Sent())
}

func TestRunRequiresHandler(t *testing.T) {
	bot := newFakeTelegram(t).NewBot(t)
	assert.Error(t, bot.Run(context.Background()))
}

func TestSendTextSplitsLongReplies(t *testing.T) {
	fake := newFakeTelegram(t)
	bot := fake.NewBot(t)

	text := strings.Repeat("a", maxMessageLength-100) + "\n" + strings.Repeat("b", 200)
	require.NoError(t, bot.SendText(context.Background(), 5, text))

	sent := fake.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, strings.Repeat("a", maxMessageLength-100), sent[0].text)
	assert.Equal(t, strings.Repeat("b", 200), sent[1].text)
	assert.Equal(t, "5", sent[0].chatID)
}

func TestToIncoming(t *testing.T) {
	command := &tgbotapi.Message{
		Text:     "/start@test_bot hello there",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 15}},
		Chat:     &tgbotapi.Chat{ID: 100},
		From:     &tgbotapi.User{ID: 7},
	}
	assert.Equal(t, Incoming{ChatID: 100, UserID: 7, Command: "start", Text: "hello there"}, toIncoming(command))

	plain := &tgbotapi.Message{Text: "Какие экзамены?", Chat: &tgbotapi.Chat{ID: 100}, From: &tgbotapi.User{ID: 7}}
	assert.Equal(t, Incoming{ChatID: 100, UserID: 7, Text: "Какие экзамены?"}, toIncoming(plain))

	channelPost := &tgbotapi.Message{Text: "hi", Chat: &tgbotapi.Chat{ID: -200}}
	in := toIncoming(channelPost)
	assert.Equal(t, int64(0), in.UserID)
	assert.Equal(t, "telegram:-200", SessionKey(in))
}

func TestIncomingFromUpdateSkipsNonText(t *testing.T) {
	chatInfo := &tgbotapi.Chat{ID: 1}

	cases := []struct {
		name   string
		update tgbotapi.Update
		ok     bool
	}{
		{"no message", tgbotapi.Update{EditedMessage: &tgbotapi.Message{Text: "edit", Chat: chatInfo}}, false},
		{"photo", tgbotapi.Update{Message: &tgbotapi.Message{Chat: chatInfo, Photo: []tgbotapi.PhotoSize{{FileID: "x"}}}}, false},
		{"blank text", tgbotapi.Update{Message: &tgbotapi.Message{Text: "   ", Chat: chatInfo}}, false},
		{"text", tgbotapi.Update{Message: &tgbotapi.Message{Text: "hi", Chat: chatInfo}}, true},
		{"bare command", tgbotapi.Update{Message: &tgbotapi.Message{
			Text: "/help", Chat: chatInfo,
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 5}},
		}}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := incomingFromUpdate(tc.update)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestDispatcherRunsUsersConcurrently(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var handled []string

	d := newDispatcher(func(ctx context.Context, msg Incoming) {
		if msg.UserID == 1 {
			<-release
		}
		mu.Lock()
		handled = append(handled, fmt.Sprintf("%d:%s", msg.UserID, msg.Text))
		mu.Unlock()
	})

	ctx := context.Background()
	d.Dispatch(ctx, Incoming{ChatID: 1, UserID: 1, Text: "a"})
	d.Dispatch(ctx, Incoming{ChatID: 1, UserID: 1, Text: "b"})
	d.Dispatch(ctx, Incoming{ChatID: 2, UserID: 2, Text: "c"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(handled) == 1
	}, 2*time.Second, 5*time.Millisecond)

	close(release)
	d.Wait()

	assert.Equal(t, []string{"2:c", "1:a", "1:b"}, handled)

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Empty(t, d.queues)
}
