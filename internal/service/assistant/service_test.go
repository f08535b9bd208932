package assistant_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadicards/concierge/backend/internal/analysis/intent"
	chatmodel "github.com/shadicards/concierge/backend/internal/model/chat"
	"github.com/shadicards/concierge/backend/internal/model/wedding"
	"github.com/shadicards/concierge/backend/internal/service/ai"
	"github.com/shadicards/concierge/backend/internal/service/ai/aitest"
	"github.com/shadicards/concierge/backend/internal/service/assistant"
	"github.com/shadicards/concierge/backend/internal/service/chat"
	"github.com/shadicards/concierge/backend/internal/store"
	"github.com/shadicards/concierge/backend/internal/store/storetest"
)

// brokenWeddings fails the reads named in its fields.
type brokenWeddings struct {
	store.WeddingReader
	weddingErr error
	eventsErr  error
}

func (b brokenWeddings) GetWedding(ctx context.Context, id string) (*wedding.Wedding, error) {
	if b.weddingErr != nil {
		return nil, b.weddingErr
	}
	return b.WeddingReader.GetWedding(ctx, id)
}

func (b brokenWeddings) ListEvents(ctx context.Context, id string) ([]wedding.Event, error) {
	if b.eventsErr != nil {
		return nil, b.eventsErr
	}
	return b.WeddingReader.ListEvents(ctx, id)
}

type fixture struct {
	store    *store.GormStore
	model    *aitest.ChatModel
	sessions *chat.Service
	svc      *assistant.Service
}

func newFixture(t *testing.T, reply string, weddings func(store.WeddingReader) store.WeddingReader) fixture {
	t.Helper()

	s := storetest.New(t)
	storetest.Seed(t, s)

	fake := &aitest.ChatModel{Reply: reply}
	llm, err := ai.NewService(context.Background(), fake, ai.Options{ModelName: "gpt-4o-mini"}, zerolog.Nop())
	require.NoError(t, err)

	var reader store.WeddingReader = s
	if weddings != nil {
		reader = weddings(s)
	}
	sessions := chat.NewService(s, zerolog.Nop(), 10)
	return fixture{
		store:    s,
		model:    fake,
		sessions: sessions,
		svc:      assistant.NewService(reader, sessions, llm, nil, zerolog.Nop()),
	}
}

func TestReplyFullTurn(t *testing.T) {
	f := newFixture(t, "The Sangeet is on Sunday, December 13 at 7:00 PM.", nil)
	ctx := context.Background()

	resp, err := f.svc.Reply(ctx, assistant.Request{
		Message:   "When is the sangeet?",
		GuestID:   storetest.GuestID,
		WeddingID: storetest.WeddingID,
		Language:  "en",
	})
	require.NoError(t, err)

	assert.Equal(t, "The Sangeet is on Sunday, December 13 at 7:00 PM.", resp.Response)
	require.NotEmpty(t, resp.SessionID)
	assert.NotEqual(t, assistant.FallbackSessionID, resp.SessionID)
	assert.NotEmpty(t, resp.Suggestions)
	assert.LessOrEqual(t, len(resp.Suggestions), intent.MaxSuggestions)

	assert.True(t, resp.ResponseMetadata.ShowEventButton)
	require.NotNil(t, resp.ResponseMetadata.EventIndex)
	// events are ordered by date: Mehndi, Sangeet, Wedding Ceremony
	assert.Equal(t, 1, *resp.ResponseMetadata.EventIndex)
	assert.False(t, resp.ResponseMetadata.ShowMap)

	require.NotNil(t, resp.Metadata)
	assert.True(t, resp.Metadata.HasImages)
	assert.Equal(t, "Priya", resp.Metadata.BrideName)
	assert.Equal(t, "Arjun", resp.Metadata.GroomName)
	assert.Equal(t, 3, resp.Metadata.EventCount)
	assert.Equal(t, "weddings/priya-arjun/couple.jpg", resp.Metadata.CouplePhoto)
	assert.Len(t, resp.Metadata.Gallery, 2)
	require.NotNil(t, resp.Metadata.WeddingDate)

	require.NotEmpty(t, f.model.LastInput())
	system := f.model.LastInput()[0].Content
	assert.Contains(t, system, "Priya")
	assert.Contains(t, system, "Meera")
	assert.Contains(t, system, "Sangeet")

	messages, err := f.store.ListMessages(ctx, resp.SessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, chatmodel.MessageTypeUser, messages[0].MessageType)
	assert.Equal(t, "When is the sangeet?", messages[0].Content)
	assert.Equal(t, chatmodel.MessageTypeAssistant, messages[1].MessageType)
	assert.Equal(t, "gpt-4o-mini", messages[1].Metadata["model"])
	assert.Contains(t, messages[1].Metadata, "tokens")
}

func TestReplyReplaysHistoryOnFollowUp(t *testing.T) {
	f := newFixture(t, "Happy to help!", nil)
	ctx := context.Background()

	first, err := f.svc.Reply(ctx, assistant.Request{
		Message:   "Hello",
		GuestID:   storetest.GuestID,
		WeddingID: storetest.WeddingID,
	})
	require.NoError(t, err)

	second, err := f.svc.Reply(ctx, assistant.Request{
		Message:   "Where is the venue?",
		GuestID:   storetest.GuestID,
		WeddingID: storetest.WeddingID,
		SessionID: first.SessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	// history is read before the new user message is stored
	require.Len(t, f.model.LastInput(), 4)
	assert.Equal(t, "Hello", f.model.LastInput()[1].Content)
	assert.Equal(t, schema.Assistant, f.model.LastInput()[2].Role)
	assert.Equal(t, "Where is the venue?", f.model.LastInput()[3].Content)

	assert.True(t, second.ResponseMetadata.ShowMap)
	assert.Equal(t, storetest.Address, second.ResponseMetadata.VenueAddress)
	assert.Equal(t, "Get directions to all venues", second.Suggestions[0])
}

func TestReplyResolvesWebsiteSlug(t *testing.T) {
	f := newFixture(t, "Welcome!", nil)

	resp, err := f.svc.Reply(context.Background(), assistant.Request{
		Message:     "Tell me about the couple",
		GuestID:     storetest.GuestID,
		WebsiteSlug: storetest.Slug,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.True(t, resp.ResponseMetadata.ShowWebsiteButton)
	assert.Equal(t, "Priya", resp.Metadata.BrideName)

	session, err := f.sessions.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, storetest.WeddingID, session.WeddingID)
}

func TestReplyUnknownSlugSkipsPersistence(t *testing.T) {
	f := newFixture(t, "Hi there!", nil)

	resp, err := f.svc.Reply(context.Background(), assistant.Request{
		Message:     "hi",
		GuestID:     storetest.GuestID,
		WebsiteSlug: "nobody-weds-nobody",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", resp.Response)
	assert.Empty(t, resp.SessionID)
	assert.Equal(t, 0, resp.Metadata.EventCount)
	assert.False(t, resp.Metadata.HasImages)

	var count int64
	require.NoError(t, f.store.DB().Model(&chatmodel.Message{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReplySuppliedSessionWithoutGuestIsNotPersisted(t *testing.T) {
	f := newFixture(t, "Sure.", nil)
	ctx := context.Background()

	session, err := f.sessions.CreateSession(ctx, storetest.GuestID, storetest.WeddingID)
	require.NoError(t, err)

	resp, err := f.svc.Reply(ctx, assistant.Request{
		Message:   "what should I wear?",
		WeddingID: storetest.WeddingID,
		SessionID: session.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, session.ID, resp.SessionID)

	messages, err := f.store.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestReplyDegradesWhenWeddingReadFails(t *testing.T) {
	f := newFixture(t, "Let me check.", func(r store.WeddingReader) store.WeddingReader {
		return brokenWeddings{WeddingReader: r, weddingErr: errors.New("connection reset")}
	})

	resp, err := f.svc.Reply(context.Background(), assistant.Request{
		Message:   "Which events am I invited to?",
		GuestID:   storetest.GuestID,
		WeddingID: storetest.WeddingID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Let me check.", resp.Response)

	system := f.model.LastInput()[0].Content
	assert.Contains(t, system, ai.PlaceholderBride)
	assert.Contains(t, system, "Meera")
	assert.Contains(t, system, "Mehndi")

	assert.Equal(t, 3, resp.Metadata.EventCount)
	assert.Empty(t, resp.Metadata.BrideName)
	assert.False(t, resp.Metadata.HasImages)
}

func TestReplyDegradesWhenEventsReadFails(t *testing.T) {
	f := newFixture(t, "Sure.", func(r store.WeddingReader) store.WeddingReader {
		return brokenWeddings{WeddingReader: r, eventsErr: errors.New("timeout")}
	})

	resp, err := f.svc.Reply(context.Background(), assistant.Request{
		Message:   "What is the schedule?",
		GuestID:   storetest.GuestID,
		WeddingID: storetest.WeddingID,
	})
	require.NoError(t, err)
	assert.False(t, resp.ResponseMetadata.ShowEventButton)
	assert.Nil(t, resp.ResponseMetadata.EventIndex)
	assert.Equal(t, 0, resp.Metadata.EventCount)
	assert.Equal(t, "Priya", resp.Metadata.BrideName)
}

func TestReplyModelFailureKeepsUserMessage(t *testing.T) {
	f := newFixture(t, "", nil)
	f.model.Err = errors.New("rate limited")
	ctx := context.Background()

	session, err := f.sessions.CreateSession(ctx, storetest.GuestID, storetest.WeddingID)
	require.NoError(t, err)

	_, err = f.svc.Reply(ctx, assistant.Request{
		Message:   "Is there parking?",
		GuestID:   storetest.GuestID,
		WeddingID: storetest.WeddingID,
		SessionID: session.ID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	messages, err := f.store.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, chatmodel.MessageTypeUser, messages[0].MessageType)
}

func TestReplyEmptyCompletion(t *testing.T) {
	f := newFixture(t, "   ", nil)

	resp, err := f.svc.Reply(context.Background(), assistant.Request{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, ai.EmptyCompletionReply, resp.Response)
	assert.Empty(t, resp.SessionID)
}

func TestFallbackWithoutProvider(t *testing.T) {
	s := storetest.New(t)
	svc := assistant.NewService(s, chat.NewService(s, zerolog.Nop(), 10), nil, nil, zerolog.Nop())
	require.False(t, svc.Available())

	resp, err := svc.Reply(context.Background(), assistant.Request{
		Message:   "How do I RSVP?",
		GuestID:   storetest.GuestID,
		WeddingID: storetest.WeddingID,
	})
	require.NoError(t, err)
	assert.Equal(t, assistant.FallbackSessionID, resp.SessionID)
	assert.Equal(t, intent.FallbackResponse("How do I RSVP?"), resp.Response)
	assert.NotEmpty(t, resp.Suggestions)
	assert.Nil(t, resp.Metadata)

	var sessions int64
	require.NoError(t, s.DB().Model(&chatmodel.Session{}).Count(&sessions).Error)
	assert.Zero(t, sessions)
}
