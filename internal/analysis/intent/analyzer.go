// Package intent matches guest messages against fixed keyword sets to decide
// which UI affordances and follow-up suggestions accompany a reply.
package intent

import (
	"strings"

	"github.com/shadicards/concierge/backend/internal/model/wedding"
)

// Topic is a keyword family recognised in guest messages.
type Topic string

const (
	Venue  Topic = "venue"
	Events Topic = "event"
	RSVP   Topic = "rsvp"
	Couple Topic = "couple"
)

// topicOrder fixes iteration order so suggestions are deterministic.
var topicOrder = []Topic{Venue, Events, RSVP, Couple}

var keywordBuckets = map[Topic][]string{
	Venue: {
		"venue", "location", "address", "where", "directions", "direction", "map", "place", "reach", "parking",
	},
	Events: {
		"event", "ceremony", "schedule", "program", "function", "timing", "when", "time",
		"mehndi", "mehendi", "haldi", "sangeet", "reception", "baraat",
	},
	RSVP: {
		"rsvp", "confirm", "attend", "attendance", "coming", "response", "invite", "invited",
	},
	Couple: {
		"couple", "bride", "groom", "photo", "gallery", "picture", "story", "website", "family",
	},
}

var suggestionsByTopic = map[Topic][]string{
	Venue:  {"Get directions to all venues", "Is parking available at the venue?"},
	Events: {"Show me the full event schedule", "What should I wear to each event?"},
	RSVP:   {"How do I update my RSVP?", "Which events am I invited to?"},
	Couple: {"Tell me the couple's story", "Show me the photo gallery"},
}

var fallbackSuggestions = []string{
	"What events am I invited to?",
	"Where is the wedding venue?",
	"What is the dress code?",
	"Tell me about the couple",
}

// MaxSuggestions caps the follow-up prompts returned to the client.
const MaxSuggestions = 4

// DefaultSuggestions returns a copy of the fixed fallback list.
func DefaultSuggestions() []string {
	return append([]string(nil), fallbackSuggestions...)
}

// ResponseMetadata tells the presentation layer which extra UI to render.
type ResponseMetadata struct {
	ShowMap           bool   `json:"showMap,omitempty"`
	VenueAddress      string `json:"venueAddress,omitempty"`
	ShowEventButton   bool   `json:"showEventButton,omitempty"`
	EventIndex        *int   `json:"eventIndex,omitempty"`
	ShowWebsiteButton bool   `json:"showWebsiteButton,omitempty"`
}

// Detect returns the topics whose keywords occur in message, case-insensitively.
func Detect(message string) map[Topic]bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	found := make(map[Topic]bool, len(topicOrder))
	if normalized == "" {
		return found
	}

	for _, topic := range topicOrder {
		for _, word := range keywordBuckets[topic] {
			if strings.Contains(normalized, word) {
				found[topic] = true
				break
			}
		}
	}
	return found
}

// Annotate derives the affordance metadata for a reply.
func Annotate(message, venueAddress string, events []wedding.Event) ResponseMetadata {
	topics := Detect(message)
	var meta ResponseMetadata

	if topics[Venue] && strings.TrimSpace(venueAddress) != "" {
		meta.ShowMap = true
		meta.VenueAddress = venueAddress
	}

	if (topics[Events] || topics[RSVP]) && len(events) > 0 {
		idx := MatchEvent(message, events)
		meta.ShowEventButton = true
		meta.EventIndex = &idx
	}

	if topics[Couple] {
		meta.ShowWebsiteButton = true
	}

	return meta
}

// MatchEvent returns the index of the first event whose name occurs in the
// message, or 0 when none does.
func MatchEvent(message string, events []wedding.Event) int {
	normalized := strings.ToLower(message)
	for i, ev := range events {
		name := strings.ToLower(strings.TrimSpace(ev.Name))
		if name != "" && strings.Contains(normalized, name) {
			return i
		}
	}
	return 0
}

// SmartSuggestions unions keyword-triggered suggestions with the fallback
// list, dropping duplicates. The result is never empty and holds at most
// MaxSuggestions entries.
func SmartSuggestions(message string) []string {
	topics := Detect(message)

	out := make([]string, 0, MaxSuggestions)
	seen := make(map[string]struct{}, MaxSuggestions*2)
	add := func(s string) {
		if len(out) >= MaxSuggestions {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, topic := range topicOrder {
		if !topics[topic] {
			continue
		}
		for _, s := range suggestionsByTopic[topic] {
			add(s)
		}
	}
	for _, s := range fallbackSuggestions {
		add(s)
	}
	return out
}
