package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/shadicards/concierge/backend/internal/model/chat"
	chat "github.com/shadicards/concierge/backend/internal/service/chat"
	"github.com/shadicards/concierge/backend/internal/store/storetest"
)

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService(storetest.New(t), zerolog.Nop(), 0)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "guest-1", "wedding-1")
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, "guest-1", got.GuestID)
	assert.Equal(t, "wedding-1", got.WeddingID)
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService(storetest.New(t), zerolog.Nop(), 0)

	_, err := svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
}

func TestEnsureSessionReusesSuppliedID(t *testing.T) {
	s := storetest.New(t)
	svc := chat.NewService(s, zerolog.Nop(), 0)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "guest-1", "wedding-1")
	require.NoError(t, err)
	before := session.LastActivityAt

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, session.ID, svc.EnsureSession(ctx, session.ID, "guest-1", "wedding-1"))
	assert.Equal(t, session.ID, svc.EnsureSession(ctx, session.ID, "guest-1", "wedding-1"))

	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.LastActivityAt.After(before))

	var count int64
	require.NoError(t, s.DB().Model(&model.Session{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureSessionNeedsBothParticipants(t *testing.T) {
	svc := chat.NewService(storetest.New(t), zerolog.Nop(), 0)
	ctx := context.Background()

	assert.Empty(t, svc.EnsureSession(ctx, "", "guest-1", ""))
	assert.Empty(t, svc.EnsureSession(ctx, "", "", "wedding-1"))
	assert.NotEmpty(t, svc.EnsureSession(ctx, "", "guest-1", "wedding-1"))
}

func TestRecentHistoryIsChronologicalAndBounded(t *testing.T) {
	svc := chat.NewService(storetest.New(t), zerolog.Nop(), 3)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "guest-1", "wedding-1")
	require.NoError(t, err)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, content := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, svc.SaveMessage(ctx, model.Message{
			SessionID:   session.ID,
			MessageType: model.MessageTypeUser,
			Content:     content,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}))
	}

	history, err := svc.RecentHistory(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"c", "d", "e"}, []string{history[0].Content, history[1].Content, history[2].Content})

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, transcript, 5)
}

func TestSaveMessageRequiresSession(t *testing.T) {
	svc := chat.NewService(storetest.New(t), zerolog.Nop(), 0)

	err := svc.SaveMessage(context.Background(), model.Message{Content: "hi"})
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
}
