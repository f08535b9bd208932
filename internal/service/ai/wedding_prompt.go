package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/shadicards/concierge/backend/internal/model/wedding"
)

// Placeholders used when wedding data is missing.
const (
	PlaceholderBride = "the bride"
	PlaceholderGroom = "the groom"
	PlaceholderTBA   = "To be announced"
	PlaceholderGuest = "Guest"
)

// DefaultLanguage is used for unknown or empty language codes.
const DefaultLanguage = "en"

// supportedLanguages maps language codes to the name used in the reply directive.
var supportedLanguages = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"bn": "Bengali",
	"ta": "Tamil",
	"te": "Telugu",
	"mr": "Marathi",
	"gu": "Gujarati",
	"kn": "Kannada",
	"ml": "Malayalam",
	"pa": "Punjabi",
	"ur": "Urdu",
	"es": "Spanish",
}

// LanguageName returns the display name for code, falling back to English.
func LanguageName(code string) string {
	if name, ok := supportedLanguages[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return supportedLanguages[DefaultLanguage]
}

// LanguageDirective is the instruction line that pins the reply language.
func LanguageDirective(code string) string {
	name := LanguageName(code)
	return fmt.Sprintf("LANGUAGE: Always respond in %s. If the guest writes in another language, still answer in %s unless they explicitly ask you to switch.", name, name)
}

// FormatLongDate renders a date as "Monday, December 14, 2026".
func FormatLongDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return PlaceholderTBA
	}
	return t.Format("Monday, January 2, 2006")
}

// formatClock turns "19:00" into "7:00 PM"; unparseable values pass through.
func formatClock(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("3:04 PM")
		}
	}
	return raw
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

// PromptInput carries everything the system prompt is rendered from.
// Any of the entities may be nil when the corresponding read failed.
type PromptInput struct {
	Wedding  *wedding.Wedding
	Guest    *wedding.Guest
	Events   []wedding.Event
	Language string
}

// BuildWeddingPrompt renders the concierge system prompt.
func BuildWeddingPrompt(in PromptInput) string {
	var b strings.Builder

	bride, groom := PlaceholderBride, PlaceholderGroom
	var w wedding.Wedding
	if in.Wedding != nil {
		w = *in.Wedding
		bride = orDefault(w.BrideName, PlaceholderBride)
		groom = orDefault(w.GroomName, PlaceholderGroom)
	}

	fmt.Fprintf(&b, `You are the ShadiCards wedding concierge for the wedding of %s and %s.
ShadiCards creates smart digital wedding invitations: each guest gets a personal link with the event schedule, venue maps, RSVP for every function and the couple's wedding website.
Your job is to help guests with everything about this wedding in a warm, celebratory and respectful tone.

%s

FORMATTING RULES:
- Keep answers short: 2 to 4 sentences unless the guest asks for the full schedule.
- Use plain text with simple bullet points for lists. Never use markdown tables or headings.
- Always include dates, timings and venue names when they are known.
- If a detail is "%s", say it has not been announced yet and suggest checking back later.
- Never invent information that is not listed below. For anything else, suggest contacting the couple's family.
- Address the guest by name when it is known.
`, bride, groom, LanguageDirective(in.Language), PlaceholderTBA)

	b.WriteString("\nWEDDING DETAILS:\n")
	fmt.Fprintf(&b, "- Couple: %s & %s\n", bride, groom)
	fmt.Fprintf(&b, "- Wedding date: %s\n", FormatLongDate(w.WeddingDate))
	fmt.Fprintf(&b, "- Venue: %s\n", orDefault(w.VenueName, PlaceholderTBA))
	fmt.Fprintf(&b, "- Venue address: %s\n", orDefault(w.VenueAddress, PlaceholderTBA))
	if bio := strings.TrimSpace(w.Bio); bio != "" {
		fmt.Fprintf(&b, "- About the couple: %s\n", bio)
	}

	writeGuestSection(&b, in.Guest)
	writeScheduleSection(&b, in.Events)
	writeWebsiteSection(&b, w.Website)

	return b.String()
}

func writeGuestSection(b *strings.Builder, g *wedding.Guest) {
	b.WriteString("\nGUEST DETAILS:\n")
	if g == nil {
		fmt.Fprintf(b, "- Name: %s\n", PlaceholderGuest)
		b.WriteString("- Invitations: unknown, answer using the full schedule below.\n")
		return
	}

	fmt.Fprintf(b, "- Name: %s\n", orDefault(g.Name, PlaceholderGuest))
	if rel := strings.TrimSpace(g.Relationship); rel != "" {
		fmt.Fprintf(b, "- Relationship: %s\n", rel)
	}
	if side := strings.TrimSpace(g.Side); side != "" {
		fmt.Fprintf(b, "- Side: %s's side\n", side)
	}

	if len(g.Invitations) == 0 {
		b.WriteString("- Invited events: none recorded yet\n")
		return
	}
	b.WriteString("- Invited events and RSVP:\n")
	for _, inv := range g.Invitations {
		name := PlaceholderTBA
		when := PlaceholderTBA
		if inv.Event != nil {
			name = orDefault(inv.Event.Name, PlaceholderTBA)
			when = FormatLongDate(inv.Event.EventDate)
		}
		fmt.Fprintf(b, "  * %s on %s: %s\n", name, when, inv.RSVPStatus.Label())
	}
}

func writeScheduleSection(b *strings.Builder, events []wedding.Event) {
	b.WriteString("\nEVENT SCHEDULE:\n")
	if len(events) == 0 {
		fmt.Fprintf(b, "- %s\n", PlaceholderTBA)
		return
	}

	for i, ev := range events {
		fmt.Fprintf(b, "%d. %s\n", i+1, orDefault(ev.Name, "Event"))
		fmt.Fprintf(b, "   Date: %s\n", FormatLongDate(ev.EventDate))

		start, end := formatClock(ev.StartTime), formatClock(ev.EndTime)
		switch {
		case start != "" && end != "":
			fmt.Fprintf(b, "   Time: %s - %s\n", start, end)
		case start != "":
			fmt.Fprintf(b, "   Time: from %s\n", start)
		default:
			fmt.Fprintf(b, "   Time: %s\n", PlaceholderTBA)
		}

		fmt.Fprintf(b, "   Venue: %s\n", orDefault(ev.Venue, PlaceholderTBA))
		if desc := strings.TrimSpace(ev.Description); desc != "" {
			fmt.Fprintf(b, "   Details: %s\n", desc)
		}
		if typ := strings.TrimSpace(ev.EventType); typ != "" {
			fmt.Fprintf(b, "   Type: %s\n", typ)
		}
	}
}

func writeWebsiteSection(b *strings.Builder, site *wedding.Website) {
	if site == nil {
		return
	}

	b.WriteString("\nWEDDING WEBSITE:\n")
	if story := strings.TrimSpace(site.Story); story != "" {
		fmt.Fprintf(b, "- Our story: %s\n", story)
	}
	if fam := formatFamily(site.BrideFamily); fam != "" {
		fmt.Fprintf(b, "- Bride's family: %s\n", fam)
	}
	if fam := formatFamily(site.GroomFamily); fam != "" {
		fmt.Fprintf(b, "- Groom's family: %s\n", fam)
	}
	if n := len(site.Gallery); n > 0 {
		fmt.Fprintf(b, "- Photo gallery: %d photos available on the wedding website\n", n)
	}
}

func formatFamily(members []wedding.FamilyMember) string {
	parts := make([]string, 0, len(members))
	for _, m := range members {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		if rel := strings.TrimSpace(m.Relation); rel != "" {
			name = fmt.Sprintf("%s (%s)", name, rel)
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, ", ")
}
