package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shadicards/concierge/backend/internal/model/chat"
	"github.com/shadicards/concierge/backend/internal/store"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrParticipants    = errors.New("guest id and wedding id are required")
)

// DefaultHistoryLimit bounds how many past turns are replayed to the model.
const DefaultHistoryLimit = 10

// Service manages concierge sessions and their transcripts.
type Service struct {
	store        store.ChatStore
	log          zerolog.Logger
	historyLimit int
	now          func() time.Time
}

// NewService wires the chat service to its store.
func NewService(chatStore store.ChatStore, log zerolog.Logger, historyLimit int) *Service {
	if historyLimit < 1 {
		historyLimit = DefaultHistoryLimit
	}
	return &Service{
		store:        chatStore,
		log:          log.With().Str("component", "chat").Logger(),
		historyLimit: historyLimit,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession provisions a session bound to a (guest, wedding) pair.
func (s *Service) CreateSession(ctx context.Context, guestID, weddingID string) (chat.Session, error) {
	if guestID == "" || weddingID == "" {
		return chat.Session{}, ErrParticipants
	}

	now := s.now()
	session := chat.Session{
		ID:             uuid.NewString(),
		GuestID:        guestID,
		WeddingID:      weddingID,
		Context:        map[string]any{"source": "chatbot"},
		LastActivityAt: now,
		CreatedAt:      now,
	}
	if err := s.store.CreateSession(ctx, &session); err != nil {
		return chat.Session{}, err
	}
	return session, nil
}

// EnsureSession reuses a supplied session or opens a new one.
//
// A supplied id is touched and returned even when the touch fails. Without
// an id a session is created only when both participants are known; if
// creation fails the empty id is returned and history is not persisted.
func (s *Service) EnsureSession(ctx context.Context, sessionID, guestID, weddingID string) string {
	if sessionID != "" {
		if err := s.store.TouchSession(ctx, sessionID, s.now()); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to update session activity")
		}
		return sessionID
	}

	if guestID == "" || weddingID == "" {
		return ""
	}

	session, err := s.CreateSession(ctx, guestID, weddingID)
	if err != nil {
		s.log.Error().Err(err).
			Str("guest_id", guestID).
			Str("wedding_id", weddingID).
			Msg("failed to create chat session")
		return ""
	}
	s.log.Debug().Str("session_id", session.ID).Msg("created chat session")
	return session.ID
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return chat.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return chat.Session{}, err
	}
	return *session, nil
}

// SaveMessage appends a message to the session history.
func (s *Service) SaveMessage(ctx context.Context, message chat.Message) error {
	if message.SessionID == "" {
		return ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = s.now()
	}
	return s.store.SaveMessage(ctx, &message)
}

// RecentHistory returns the latest turns in chronological order.
func (s *Service) RecentHistory(ctx context.Context, sessionID string) ([]chat.Message, error) {
	if sessionID == "" {
		return nil, nil
	}

	messages, err := s.store.RecentMessages(ctx, sessionID, s.historyLimit)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// LoadTranscript returns all stored messages for the provided session.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, sessionID)
}
