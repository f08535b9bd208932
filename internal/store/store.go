// Package store persists weddings, guests and chat history through GORM.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shadicards/concierge/backend/internal/model/chat"
	"github.com/shadicards/concierge/backend/internal/model/wedding"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrSessionRequired = errors.New("session id is required")
)

// WeddingReader exposes the read-only wedding data the concierge consumes.
type WeddingReader interface {
	WeddingIDBySlug(ctx context.Context, slug string) (string, error)
	GetWedding(ctx context.Context, weddingID string) (*wedding.Wedding, error)
	GetGuest(ctx context.Context, guestID string) (*wedding.Guest, error)
	ListEvents(ctx context.Context, weddingID string) ([]wedding.Event, error)
}

// ChatStore persists sessions and their messages.
type ChatStore interface {
	CreateSession(ctx context.Context, session *chat.Session) error
	TouchSession(ctx context.Context, sessionID string, at time.Time) error
	GetSession(ctx context.Context, sessionID string) (*chat.Session, error)
	SaveMessage(ctx context.Context, message *chat.Message) error
	// RecentMessages returns up to limit messages, newest first.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]chat.Message, error)
	// ListMessages returns the whole transcript, oldest first.
	ListMessages(ctx context.Context, sessionID string) ([]chat.Message, error)
	DeleteSessionsInactiveSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store is the full persistence surface.
type Store interface {
	WeddingReader
	ChatStore
	Ping(ctx context.Context) error
	Close() error
}
