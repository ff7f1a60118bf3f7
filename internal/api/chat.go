package api

import (
	"context"
	"errors"
	"net/http"
	"programs-assistant/internal/chat"
	"programs-assistant/internal/database"
	"programs-assistant/pkg/api"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxMessageLength = 4000

// TranscriptStore serves recorded exchanges. It is optional: without it the
// history endpoint reports 404.
type TranscriptStore interface {
	History(ctx context.Context, key string, limit int) ([]database.ChatMessage, error)
}

type ChatService struct {
	sessions    *chat.SessionCache
	asker       chat.Asker
	transcripts TranscriptStore
}

func NewChatService(sessions *chat.SessionCache, asker chat.Asker, transcripts TranscriptStore) *ChatService {
	return &ChatService{
		sessions:    sessions,
		asker:       asker,
		transcripts: transcripts,
	}
}

func (s *ChatService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(s.Health))
	r.Route("/chat", func(r chi.Router) {
		r.Post("/sessions", RestHandler(s.StartSession))
		r.Delete("/sessions/{session_id}", RestHandler(s.ResetSession))
		r.Post("/sessions/{session_id}/messages", RestHandler(s.SendMessage))
		r.Get("/sessions/{session_id}/history", RestHandler(s.GetHistory))
	})
}

func sessionKey(id uuid.UUID) string {
	return database.ChannelHTTP + ":" + id.String()
}

func (s *ChatService) lookupSession(r *http.Request) (*chat.ChatSession, error) {
	sessionID, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}

	session, ok := s.sessions.Lookup(sessionKey(sessionID))
	if !ok {
		return nil, CodedErrorf(http.StatusNotFound, "chat session %s not found or expired", sessionID)
	}
	return session, nil
}

func (s *ChatService) Health(r *http.Request) (any, error) {
	return api.HealthResponse{Status: "ok", Sessions: s.sessions.Len()}, nil
}

func (s *ChatService) StartSession(r *http.Request) (any, error) {
	sessionID := uuid.New()
	s.sessions.GetSession(sessionKey(sessionID))

	return api.StartSessionResponse{SessionID: sessionID}, nil
}

func (s *ChatService) ResetSession(r *http.Request) (any, error) {
	session, err := s.lookupSession(r)
	if err != nil {
		return nil, err
	}

	session.Reset()

	return nil, nil
}

func (s *ChatService) SendMessage(r *http.Request) (any, error) {
	session, err := s.lookupSession(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.ChatRequest](r)
	if err != nil {
		return nil, err
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "message must not be empty")
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		return nil, CodedErrorf(http.StatusBadRequest, "message exceeds %d characters", maxMessageLength)
	}

	reply := session.Chat(r.Context(), s.asker, message)

	return api.ChatResponse{Reply: reply}, nil
}

func (s *ChatService) GetHistory(r *http.Request) (any, error) {
	sessionID, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}

	params, err := ParseRequestQueryParams[api.HistoryParams](r)
	if err != nil {
		return nil, err
	}
	if params.Limit < 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "limit must not be negative")
	}

	if s.transcripts == nil {
		return nil, CodedErrorf(http.StatusNotFound, "chat transcripts are not enabled")
	}

	history, err := s.transcripts.History(r.Context(), sessionKey(sessionID), params.Limit)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "no transcript for chat session %s", sessionID)
		}
		return nil, CodedError(http.StatusInternalServerError, err)
	}

	resp := make([]api.ChatHistoryItem, 0, len(history))
	for _, msg := range history {
		item := api.ChatHistoryItem{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp.Format("2006-01-02 15:04:05"),
		}
		if len(msg.Metadata) > 0 {
			item.Metadata = msg.Metadata
		}
		resp = append(resp, item)
	}

	return resp, nil
}
