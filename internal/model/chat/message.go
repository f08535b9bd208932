package chat

import (
	"time"

	"gorm.io/datatypes"
)

// MessageType tags who produced a turn.
type MessageType string

const (
	MessageTypeUser      MessageType = "user"
	MessageTypeAssistant MessageType = "assistant"
)

// Message is an append-only record of one turn.
type Message struct {
	ID          string            `gorm:"primaryKey;size:64" json:"id"`
	SessionID   string            `gorm:"index;size:64;not null" json:"sessionId"`
	GuestID     string            `gorm:"size:64" json:"guestId"`
	WeddingID   string            `gorm:"size:64" json:"weddingId"`
	MessageType MessageType       `gorm:"size:16;not null" json:"messageType"`
	Content     string            `gorm:"type:text" json:"content"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"index" json:"createdAt"`
}

// TableName pins the table name shared with the dashboard.
func (Message) TableName() string {
	return "chat_messages"
}
