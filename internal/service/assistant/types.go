package assistant

import (
	"time"

	"github.com/shadicards/concierge/backend/internal/analysis/intent"
	"github.com/shadicards/concierge/backend/internal/model/chat"
	"github.com/shadicards/concierge/backend/internal/model/wedding"
)

// FallbackSessionID marks replies produced without an LLM provider.
const FallbackSessionID = "fallback-session"

// Request is the chatbot request body.
type Request struct {
	Message     string `json:"message" validate:"required"`
	GuestID     string `json:"guestId"`
	WeddingID   string `json:"weddingId"`
	WebsiteSlug string `json:"websiteSlug"`
	SessionID   string `json:"sessionId"`
	Language    string `json:"language"`
}

// Response is the chatbot reply body.
type Response struct {
	Response         string                  `json:"response"`
	SessionID        string                  `json:"sessionId"`
	Suggestions      []string                `json:"suggestions"`
	ResponseMetadata intent.ResponseMetadata `json:"responseMetadata"`
	Metadata         *WeddingMetadata        `json:"metadata,omitempty"`
	Error            string                  `json:"error,omitempty"`
}

// WeddingMetadata lets the client render the couple's photos and summary
// next to the reply.
type WeddingMetadata struct {
	HasImages   bool       `json:"hasImages"`
	BridePhoto  string     `json:"bridePhoto"`
	GroomPhoto  string     `json:"groomPhoto"`
	CouplePhoto string     `json:"couplePhoto"`
	BrideName   string     `json:"brideName"`
	GroomName   string     `json:"groomName"`
	EventCount  int        `json:"eventCount"`
	WeddingDate *time.Time `json:"weddingDate"`
	Gallery     []string   `json:"gallery"`
}

// FetchResult is the outcome of one best-effort read.
type FetchResult[T any] struct {
	Value     T
	Err       error
	Attempted bool
}

// OK reports whether the read ran and succeeded.
func (r FetchResult[T]) OK() bool {
	return r.Attempted && r.Err == nil
}

// WeddingContext holds the three independent reads of a turn.
type WeddingContext struct {
	Wedding FetchResult[*wedding.Wedding]
	Guest   FetchResult[*wedding.Guest]
	Events  FetchResult[[]wedding.Event]
}

// WeddingOrNil returns the wedding when its read succeeded.
func (c WeddingContext) WeddingOrNil() *wedding.Wedding {
	if c.Wedding.OK() {
		return c.Wedding.Value
	}
	return nil
}

// GuestOrNil returns the guest when its read succeeded.
func (c WeddingContext) GuestOrNil() *wedding.Guest {
	if c.Guest.OK() {
		return c.Guest.Value
	}
	return nil
}

// EventsOrNil returns the events when their read succeeded.
func (c WeddingContext) EventsOrNil() []wedding.Event {
	if c.Events.OK() {
		return c.Events.Value
	}
	return nil
}

// Turn is a request after identity resolution, session handling, context
// fetching and prompt composition, ready for the model.
type Turn struct {
	Request      Request
	WeddingID    string
	SessionID    string
	Context      WeddingContext
	History      []chat.Message
	SystemPrompt string
}

// Persistable reports whether messages of this turn may be written.
func (t *Turn) Persistable() bool {
	return t.SessionID != "" && t.Request.GuestID != "" && t.WeddingID != ""
}
