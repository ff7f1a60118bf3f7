package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ChannelTelegram = "telegram"
	ChannelHTTP     = "http"
)

type ChatSession struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key          string    `gorm:"column:session_key;uniqueIndex;not null"`
	Channel      string    `gorm:"size:20;not null"`
	CreationTime time.Time

	Messages []ChatMessage `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

type ChatMessage struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID uuid.UUID `gorm:"type:uuid;index"`
	Role      string    `gorm:"size:10;not null"` // 'user' or 'model'
	Content   string
	Timestamp time.Time      `gorm:"index"`
	Metadata  datatypes.JSON // {"fallback": true}
}
