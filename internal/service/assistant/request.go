package assistant

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shadicards/concierge/backend/internal/analysis/intent"
	"github.com/shadicards/concierge/backend/internal/service/ai"
)

// ErrorReply is shown to the guest whenever a turn fails unexpectedly.
const ErrorReply = "I'm having trouble responding right now. Please try again in a moment."

// DefaultLanguage applies when a request names none.
const DefaultLanguage = ai.DefaultLanguage

// ErrMessageRequired is the only failure reported with a non-200 status.
var ErrMessageRequired = errors.New("Message is required")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize validates the request and fills defaults.
func (r *Request) Normalize() error {
	if err := validate.Struct(r); err != nil {
		return ErrMessageRequired
	}
	r.GuestID = strings.TrimSpace(r.GuestID)
	r.WeddingID = strings.TrimSpace(r.WeddingID)
	r.SessionID = strings.TrimSpace(r.SessionID)
	if strings.TrimSpace(r.Language) == "" {
		r.Language = DefaultLanguage
	}
	return nil
}

// ErrorResponse is the 200 body returned when a turn fails.
type ErrorResponse struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions"`
	Error       string   `json:"error"`
}

// Failure renders err as the canned error body.
func Failure(err error) ErrorResponse {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ErrorResponse{
		Response:    ErrorReply,
		Suggestions: intent.DefaultSuggestions(),
		Error:       msg,
	}
}
