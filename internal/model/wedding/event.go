package wedding

import "time"

// Event is one function of the wedding (mehndi, sangeet, ceremony, ...).
type Event struct {
	ID          string     `gorm:"primaryKey;size:64" json:"id"`
	WeddingID   string     `gorm:"index;size:64;not null" json:"wedding_id"`
	Name        string     `json:"name"`
	EventDate   *time.Time `gorm:"index" json:"event_date"`
	StartTime   string     `gorm:"size:16" json:"start_time"`
	EndTime     string     `gorm:"size:16" json:"end_time"`
	Venue       string     `json:"venue"`
	Description string     `gorm:"type:text" json:"description"`
	EventType   string     `gorm:"size:32" json:"event_type"`
}

func (Event) TableName() string {
	return "events"
}
