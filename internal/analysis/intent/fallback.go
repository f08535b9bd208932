package intent

import "strings"

type cannedReply struct {
	keyword  string
	response string
}

// fallbackReplies answer common questions when no LLM provider is configured.
// The first matching keyword wins.
var fallbackReplies = []cannedReply{
	{
		keyword:  "smartcard",
		response: "ShadiCards smart cards are digital wedding invitations with RSVP tracking, event schedules, venue maps and a personal wedding website, all in one link you can share on WhatsApp.",
	},
	{
		keyword:  "rsvp",
		response: "You can RSVP for each event from your invitation link. Just open the event and choose Yes, No or Maybe. You can change your answer any time before the event.",
	},
	{
		keyword:  "venue",
		response: "The venue details and a map are on your invitation. Tap the location on any event to get directions.",
	},
	{
		keyword:  "event",
		response: "Your invitation lists every event you are invited to, with dates, timings and venues.",
	},
	{
		keyword:  "price",
		response: "ShadiCards plans start with a free digital invitation. Premium smart cards add guest management, RSVP analytics and a custom wedding website.",
	},
	{
		keyword:  "hello",
		response: "Hello! I'm the ShadiCards wedding concierge. Ask me about the events, venues, RSVPs or the couple.",
	},
	{
		keyword:  "hi",
		response: "Hi there! I'm the ShadiCards wedding concierge. How can I help you with the celebrations?",
	},
}

// DefaultFallbackReply is used when no keyword matches.
const DefaultFallbackReply = "Thanks for your message! Our wedding concierge is taking a short break. Please check your invitation for event details, or ask me again in a little while."

// FallbackResponse returns the deterministic reply for message.
func FallbackResponse(message string) string {
	normalized := strings.ToLower(message)
	for _, reply := range fallbackReplies {
		if strings.Contains(normalized, reply.keyword) {
			return reply.response
		}
	}
	return DefaultFallbackReply
}
