package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"programs-assistant/internal/llm"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("chat session not found")

// Recorder appends exchanges to the transcript tables. Session keys have the
// form "<channel>:<id>".
type Recorder struct {
	db       *gorm.DB
	fallback string

	// SQLite only supports one writer at a time, so we need a lock
	// whenever we write to the database
	mu sync.Mutex
}

func NewRecorder(db *gorm.DB, fallback string) *Recorder {
	return &Recorder{db: db, fallback: fallback}
}

func channelOf(key string) string {
	if channel, _, ok := strings.Cut(key, ":"); ok {
		return channel
	}
	return ChannelHTTP
}

func (r *Recorder) metadata(msg llm.Message) (datatypes.JSON, error) {
	if msg.Role != llm.RoleModel || msg.Text != r.fallback {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any{"fallback": true})
	if err != nil {
		return nil, fmt.Errorf("could not marshal metadata: %w", err)
	}
	return datatypes.JSON(b), nil
}

func (r *Recorder) Record(ctx context.Context, key string, messages ...llm.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		var session ChatSession
		err := txn.Where(ChatSession{Key: key}).Attrs(ChatSession{
			ID:           uuid.New(),
			Channel:      channelOf(key),
			CreationTime: time.Now().UTC(),
		}).FirstOrCreate(&session).Error
		if err != nil {
			return fmt.Errorf("error getting session %s: %w", key, err)
		}

		now := time.Now().UTC()
		rows := make([]ChatMessage, 0, len(messages))
		for i, msg := range messages {
			metadata, err := r.metadata(msg)
			if err != nil {
				return err
			}
			rows = append(rows, ChatMessage{
				SessionID: session.ID,
				Role:      string(msg.Role),
				Content:   msg.Text,
				// keeps ordering stable when timestamps collide
				Timestamp: now.Add(time.Duration(i) * time.Microsecond),
				Metadata:  metadata,
			})
		}

		if len(rows) == 0 {
			return nil
		}
		if err := txn.Create(&rows).Error; err != nil {
			return fmt.Errorf("error saving chat messages: %w", err)
		}
		return nil
	})
}

// History returns the last limit recorded messages of a session, oldest
// first. A non positive limit returns everything.
func (r *Recorder) History(ctx context.Context, key string, limit int) ([]ChatMessage, error) {
	var session ChatSession
	if err := r.db.WithContext(ctx).Where("session_key = ?", key).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("error getting session %s: %w", key, err)
	}

	query := r.db.WithContext(ctx).Where("session_id = ?", session.ID).Order("timestamp DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var messages []ChatMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("error getting chat history for %s: %w", key, err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
