package chat

import (
	"time"

	"gorm.io/datatypes"
)

// Session groups consecutive turns between one guest and the concierge for one wedding.
type Session struct {
	ID             string            `gorm:"primaryKey;size:64" json:"id"`
	GuestID        string            `gorm:"index;size:64;not null" json:"guestId"`
	WeddingID      string            `gorm:"index;size:64;not null" json:"weddingId"`
	Context        datatypes.JSONMap `json:"context,omitempty"`
	LastActivityAt time.Time         `gorm:"index" json:"lastActivityAt"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// TableName pins the table name shared with the dashboard.
func (Session) TableName() string {
	return "chat_sessions"
}
