// Package storetest provides a throwaway SQLite store and wedding fixtures for tests.
package storetest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/shadicards/concierge/backend/internal/config"
	"github.com/shadicards/concierge/backend/internal/model/wedding"
	"github.com/shadicards/concierge/backend/internal/store"
)

// Fixture ids seeded by Seed.
const (
	WeddingID = "wed-priya-arjun"
	GuestID   = "guest-meera"
	Slug      = "priya-weds-arjun"
	Address   = "123 Garden Rd"
)

// New opens a migrated SQLite store under t.TempDir.
func New(t *testing.T) *store.GormStore {
	t.Helper()

	s, err := store.New(config.DatabaseConfig{
		Type: "sqlite",
		DSN:  filepath.Join(t.TempDir(), "concierge.sqlite"),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Seed inserts one wedding with a website, three events and one invited guest.
func Seed(t *testing.T, s *store.GormStore) {
	t.Helper()

	date := func(day int) *time.Time {
		d := time.Date(2026, time.December, day, 0, 0, 0, 0, time.UTC)
		return &d
	}

	db := s.DB()
	require.NoError(t, db.Create(&wedding.Wedding{
		ID:           WeddingID,
		BrideName:    "Priya",
		GroomName:    "Arjun",
		WeddingDate:  date(14),
		VenueName:    "Rosewood Gardens",
		VenueAddress: Address,
		Bio:          "Met at college, engaged in Goa.",
		BridePhoto:   "https://cdn.example.com/priya.jpg",
		GroomPhoto:   "https://cdn.example.com/arjun.jpg",
		CouplePhoto:  "weddings/priya-arjun/couple.jpg",
	}).Error)
	require.NoError(t, db.Create(&wedding.Website{
		ID:        "site-1",
		WeddingID: WeddingID,
		Slug:      Slug,
		Gallery:   []string{"weddings/priya-arjun/g1.jpg", "https://cdn.example.com/g2.jpg"},
		Story:     "Two engineers, one long-distance year.",
		BrideFamily: []wedding.FamilyMember{
			{Name: "Sunita", Relation: "Mother"},
		},
		GroomFamily: []wedding.FamilyMember{
			{Name: "Rakesh", Relation: "Father"},
		},
	}).Error)

	events := []wedding.Event{
		{ID: "ev-sangeet", WeddingID: WeddingID, Name: "Sangeet", EventDate: date(13), StartTime: "19:00", EndTime: "23:00", Venue: "Rosewood Lawn", EventType: "sangeet"},
		{ID: "ev-mehndi", WeddingID: WeddingID, Name: "Mehndi", EventDate: date(12), StartTime: "11:00", EndTime: "15:00", Venue: "Bride's home", EventType: "mehndi"},
		{ID: "ev-wedding", WeddingID: WeddingID, Name: "Wedding Ceremony", EventDate: date(14), StartTime: "18:30", Venue: "Rosewood Gardens", EventType: "wedding"},
	}
	require.NoError(t, db.Create(&events).Error)

	require.NoError(t, db.Create(&wedding.Guest{
		ID:           GuestID,
		WeddingID:    WeddingID,
		Name:         "Meera",
		Relationship: "Cousin",
		Side:         "bride",
	}).Error)
	invitations := []wedding.EventInvitation{
		{ID: "inv-1", GuestID: GuestID, EventID: "ev-sangeet", RSVPStatus: wedding.RSVPYes},
		{ID: "inv-2", GuestID: GuestID, EventID: "ev-wedding", RSVPStatus: wedding.RSVPMaybe},
	}
	require.NoError(t, db.Create(&invitations).Error)
}
