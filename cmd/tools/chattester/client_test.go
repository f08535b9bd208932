package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskPrintsReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chatbot", r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "When is the sangeet?", req.Message)
		assert.Equal(t, "guest-meera", req.GuestID)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"Sunday at 7 PM","sessionId":"s-1","suggestions":["Show me the full event schedule"],"responseMetadata":{"showEventButton":true,"eventIndex":1}}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"ask", "When is the sangeet?", "--server", srv.URL, "--guest", "guest-meera"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "session: s-1")
	assert.Contains(t, out.String(), "reply:   Sunday at 7 PM")
	assert.Contains(t, out.String(), "  - Show me the full event schedule")
}

func TestAskReportsValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Message is required"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, time.Second).Ask(context.Background(), chatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "Message is required")
}

func TestTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chatbot/sessions/s-1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessionId":"s-1","messages":[{"messageType":"user","content":"hi","createdAt":"2026-10-01T10:00:00Z"},{"messageType":"assistant","content":"Hello!","createdAt":"2026-10-01T10:00:01Z"}]}`))
	}))
	defer srv.Close()

	got, err := newClient(srv.URL+"/", time.Second).Transcript(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)

	var out bytes.Buffer
	printTranscript(&out, got)
	assert.Contains(t, out.String(), "session: s-1 (2 messages)")
	assert.Contains(t, out.String(), "assistant Hello!")
}
