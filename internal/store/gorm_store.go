package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shadicards/concierge/backend/internal/config"
	"github.com/shadicards/concierge/backend/internal/model/chat"
	"github.com/shadicards/concierge/backend/internal/model/wedding"
)

// GormStore implements Store for PostgreSQL and SQLite.
type GormStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

var _ Store = (*GormStore)(nil)

// New opens the database selected by cfg.Type and migrates the schema.
func New(cfg config.DatabaseConfig, log zerolog.Logger) (*GormStore, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Type, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnLifetime)
	}

	s := &GormStore{
		db:  db,
		log: log.With().Str("component", "store").Logger(),
	}
	if err := s.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *GormStore) migrate() error {
	err := s.db.AutoMigrate(
		&wedding.Wedding{},
		&wedding.Website{},
		&wedding.Event{},
		&wedding.Guest{},
		&wedding.EventInvitation{},
		&chat.Session{},
		&chat.Message{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for seeding and tooling.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Ping checks if the database connection is alive.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WeddingIDBySlug resolves a website slug to its wedding.
func (s *GormStore) WeddingIDBySlug(ctx context.Context, slug string) (string, error) {
	var site wedding.Website
	err := s.db.WithContext(ctx).
		Select("wedding_id").
		Where("slug = ?", slug).
		First(&site).Error
	if err != nil {
		return "", translate(err)
	}
	return site.WeddingID, nil
}

// GetWedding loads a wedding with its website record.
func (s *GormStore) GetWedding(ctx context.Context, weddingID string) (*wedding.Wedding, error) {
	var w wedding.Wedding
	err := s.db.WithContext(ctx).
		Preload("Website").
		First(&w, "id = ?", weddingID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

// GetGuest loads a guest with invitations and the invited events.
func (s *GormStore) GetGuest(ctx context.Context, guestID string) (*wedding.Guest, error) {
	var g wedding.Guest
	err := s.db.WithContext(ctx).
		Preload("Invitations.Event").
		First(&g, "id = ?", guestID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// ListEvents returns all events of a wedding ordered by date.
func (s *GormStore) ListEvents(ctx context.Context, weddingID string) ([]wedding.Event, error) {
	var events []wedding.Event
	err := s.db.WithContext(ctx).
		Where("wedding_id = ?", weddingID).
		Order("event_date ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// CreateSession inserts a new chat session row.
func (s *GormStore) CreateSession(ctx context.Context, session *chat.Session) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}
	return nil
}

// TouchSession bumps last_activity_at of an existing session.
func (s *GormStore) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&chat.Session{}).
		Where("id = ?", sessionID).
		Update("last_activity_at", at.UTC())
	if res.Error != nil {
		return fmt.Errorf("failed to touch chat session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSession retrieves a session by identifier.
func (s *GormStore) GetSession(ctx context.Context, sessionID string) (*chat.Session, error) {
	var session chat.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

// SaveMessage appends a message. Messages without a session are rejected.
func (s *GormStore) SaveMessage(ctx context.Context, message *chat.Message) error {
	if message.SessionID == "" {
		return ErrSessionRequired
	}
	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to create message record: %w", err)
	}
	return nil
}

// RecentMessages returns up to limit messages, newest first.
func (s *GormStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]chat.Message, error) {
	var msgs []chat.Message
	query := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return msgs, nil
}

// ListMessages returns the full transcript in chronological order.
func (s *GormStore) ListMessages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	var msgs []chat.Message
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return msgs, nil
}

// DeleteSessionsInactiveSince removes sessions idle since before cutoff,
// along with their messages. It returns the number of sessions deleted.
func (s *GormStore) DeleteSessionsInactiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&chat.Session{}).
			Where("last_activity_at < ?", cutoff.UTC()).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("session_id IN ?", ids).Delete(&chat.Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&chat.Session{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete inactive sessions: %w", err)
	}
	return deleted, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
