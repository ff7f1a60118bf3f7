package api

import "github.com/google/uuid"

type StartSessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type HistoryParams struct {
	Limit int `schema:"limit"`
}

type ChatHistoryItem struct {
	Role      string `json:"role"` // "user" or "model"
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Metadata  any    `json:"metadata,omitempty"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}
