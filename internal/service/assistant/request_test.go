package assistant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadicards/concierge/backend/internal/analysis/intent"
)

func TestNormalize(t *testing.T) {
	req := Request{Message: "hi", GuestID: " guest-meera ", SessionID: "  "}
	require.NoError(t, req.Normalize())
	assert.Equal(t, "guest-meera", req.GuestID)
	assert.Empty(t, req.SessionID)
	assert.Equal(t, DefaultLanguage, req.Language)

	req = Request{Message: "hola", Language: "es"}
	require.NoError(t, req.Normalize())
	assert.Equal(t, "es", req.Language)
}

func TestNormalizeMissingMessage(t *testing.T) {
	req := Request{GuestID: "guest-meera"}
	assert.ErrorIs(t, req.Normalize(), ErrMessageRequired)
	assert.Equal(t, "Message is required", ErrMessageRequired.Error())
}

func TestFailure(t *testing.T) {
	got := Failure(errors.New("context deadline exceeded"))
	assert.Equal(t, ErrorReply, got.Response)
	assert.Equal(t, "context deadline exceeded", got.Error)
	assert.Equal(t, intent.DefaultSuggestions(), got.Suggestions)
	assert.Len(t, got.Suggestions, intent.MaxSuggestions)

	assert.Equal(t, "unknown error", Failure(nil).Error)
}

func TestTurnPersistable(t *testing.T) {
	turn := &Turn{Request: Request{GuestID: "g"}, WeddingID: "w", SessionID: "s"}
	assert.True(t, turn.Persistable())

	turn.SessionID = ""
	assert.False(t, turn.Persistable())
}
