package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadicards/concierge/backend/internal/service/ai"
	"github.com/shadicards/concierge/backend/internal/service/ai/aitest"
	"github.com/shadicards/concierge/backend/internal/service/assistant"
	chatservice "github.com/shadicards/concierge/backend/internal/service/chat"
	"github.com/shadicards/concierge/backend/internal/store/storetest"
)

type sseEvent struct {
	name string
	data string
}

func setupRouter(t *testing.T, fake *aitest.ChatModel, streaming bool) *chi.Mux {
	t.Helper()

	s := storetest.New(t)
	storetest.Seed(t, s)
	chatSvc := chatservice.NewService(s, zerolog.Nop(), 10)

	var llm assistant.LLM
	if fake != nil {
		svc, err := ai.NewService(context.Background(), fake, ai.Options{ModelName: "gpt-4o-mini", StreamResponse: streaming}, zerolog.Nop())
		require.NoError(t, err)
		llm = svc
	}

	r := chi.NewRouter()
	New(assistant.NewService(s, chatSvc, llm, nil, zerolog.Nop()), zerolog.Nop()).RegisterRoutes(r)
	return r
}

func postStream(t *testing.T, r http.Handler, body string) (*httptest.ResponseRecorder, []sseEvent) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chatbot/stream", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec, parseEvents(t, rec.Body.String())
}

func parseEvents(t *testing.T, raw string) []sseEvent {
	t.Helper()
	var (
		events  []sseEvent
		current sseEvent
	)
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "" && current.name != "":
			events = append(events, current)
			current = sseEvent{}
		}
	}
	require.NoError(t, scanner.Err())
	return events
}

func names(events []sseEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.name)
	}
	return out
}

func TestStreamDeltas(t *testing.T) {
	fake := &aitest.ChatModel{Chunks: []string{"The Mehndi ", "is on ", "Saturday."}}
	r := setupRouter(t, fake, true)

	rec, events := postStream(t, r, `{"message":"When is the mehndi?","guestId":"guest-meera","weddingId":"wed-priya-arjun"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	assert.Equal(t, []string{
		EventStart, EventDelta, EventDelta, EventDelta, EventMessage, EventAnnotations, EventEnd,
	}, names(events))

	var message StreamResponse
	require.NoError(t, json.Unmarshal([]byte(events[4].data), &message))
	assert.Equal(t, "The Mehndi is on Saturday.", message.Content)
	assert.NotEmpty(t, message.SessionID)

	var annotations assistant.Response
	require.NoError(t, json.Unmarshal([]byte(events[5].data), &annotations))
	assert.Equal(t, "The Mehndi is on Saturday.", annotations.Response)
	assert.True(t, annotations.ResponseMetadata.ShowEventButton)
	require.NotNil(t, annotations.ResponseMetadata.EventIndex)
	assert.Equal(t, 0, *annotations.ResponseMetadata.EventIndex)
}

func TestStreamWithoutStreamingSendsOneMessage(t *testing.T) {
	fake := &aitest.ChatModel{Reply: "Hello Meera!"}
	r := setupRouter(t, fake, false)

	_, events := postStream(t, r, `{"message":"hello"}`)
	assert.Equal(t, []string{EventStart, EventMessage, EventAnnotations, EventEnd}, names(events))
	assert.Contains(t, events[1].data, "Hello Meera!")
}

func TestStreamFallbackWithoutProvider(t *testing.T) {
	r := setupRouter(t, nil, false)

	_, events := postStream(t, r, `{"message":"how do I rsvp"}`)
	require.Equal(t, []string{EventStart, EventMessage, EventAnnotations, EventEnd}, names(events))
	assert.Contains(t, events[0].data, assistant.FallbackSessionID)
}

func TestStreamMissingMessage(t *testing.T) {
	r := setupRouter(t, &aitest.ChatModel{}, true)

	rec, events := postStream(t, r, `{"guestId":"guest-meera"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, events)
	assert.JSONEq(t, `{"error":"Message is required"}`, rec.Body.String())
}

func TestStreamErrorEvent(t *testing.T) {
	fake := &aitest.ChatModel{Err: errors.New("model overloaded")}
	r := setupRouter(t, fake, true)

	rec, events := postStream(t, r, `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{EventStart, EventError}, names(events))

	var failure assistant.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(events[1].data), &failure))
	assert.Equal(t, assistant.ErrorReply, failure.Response)
	assert.Contains(t, failure.Error, "model overloaded")
}
