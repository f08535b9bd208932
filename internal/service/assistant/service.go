// Package assistant runs one concierge turn: identity resolution, session
// handling, context fetch, prompt composition, completion, persistence and
// annotation.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/shadicards/concierge/backend/internal/analysis/intent"
	"github.com/shadicards/concierge/backend/internal/metrics"
	"github.com/shadicards/concierge/backend/internal/model/chat"
	"github.com/shadicards/concierge/backend/internal/model/wedding"
	"github.com/shadicards/concierge/backend/internal/service/ai"
	"github.com/shadicards/concierge/backend/internal/store"
	"github.com/shadicards/concierge/backend/internal/telemetry"
)

// LLM is the completion surface of ai.Service.
type LLM interface {
	Generate(ctx context.Context, req ai.Request) (*schema.Message, error)
	Stream(ctx context.Context, req ai.Request) (*schema.StreamReader[*schema.Message], error)
	StreamingEnabled() bool
	UsageMetadata(msg *schema.Message) map[string]any
}

// Sessions is the part of chat.Service the pipeline depends on.
type Sessions interface {
	EnsureSession(ctx context.Context, sessionID, guestID, weddingID string) string
	RecentHistory(ctx context.Context, sessionID string) ([]chat.Message, error)
	SaveMessage(ctx context.Context, message chat.Message) error
}

// PhotoSigner turns stored photo references into URLs.
type PhotoSigner interface {
	SignURL(ctx context.Context, ref string) string
	SignAll(ctx context.Context, refs []string) []string
}

// Service is the concierge pipeline.
type Service struct {
	weddings store.WeddingReader
	sessions Sessions
	llm      LLM
	photos   PhotoSigner
	log      zerolog.Logger
	tracer   trace.Tracer
}

// NewService wires the pipeline. llm may be nil, in which case every turn is
// answered by the keyword fallback.
func NewService(weddings store.WeddingReader, sessions Sessions, llm LLM, photos PhotoSigner, log zerolog.Logger) *Service {
	return &Service{
		weddings: weddings,
		sessions: sessions,
		llm:      llm,
		photos:   photos,
		log:      log.With().Str("component", "assistant").Logger(),
		tracer:   telemetry.Tracer(),
	}
}

// Available reports whether an LLM provider is configured.
func (s *Service) Available() bool {
	return s.llm != nil
}

// StreamingEnabled reports whether Stream may be used.
func (s *Service) StreamingEnabled() bool {
	return s.llm != nil && s.llm.StreamingEnabled()
}

// Fallback answers without touching the store or a model.
func (s *Service) Fallback(req Request) Response {
	return Response{
		Response:    intent.FallbackResponse(req.Message),
		SessionID:   FallbackSessionID,
		Suggestions: intent.SmartSuggestions(req.Message),
	}
}

// Reply runs the whole turn and returns the rendered response. Only a model
// failure is returned as an error; everything else degrades.
func (s *Service) Reply(ctx context.Context, req Request) (Response, error) {
	if !s.Available() {
		return s.Fallback(req), nil
	}

	turn := s.Prepare(ctx, req)
	msg, err := s.Generate(ctx, turn)
	if err != nil {
		return Response{}, err
	}
	return s.Finish(ctx, turn, msg), nil
}

// Prepare resolves identity, ensures the session, loads wedding context and
// history, renders the system prompt and stores the user message.
func (s *Service) Prepare(ctx context.Context, req Request) *Turn {
	ctx, span := s.tracer.Start(ctx, "assistant.prepare")
	defer span.End()

	turn := &Turn{Request: req}
	turn.WeddingID = s.resolveWeddingID(ctx, req)
	turn.SessionID = s.sessions.EnsureSession(ctx, req.SessionID, req.GuestID, turn.WeddingID)
	span.SetAttributes(
		attribute.String("wedding.id", turn.WeddingID),
		attribute.String("session.id", turn.SessionID),
	)

	turn.Context = s.fetchContext(ctx, turn.WeddingID, req.GuestID)

	if turn.SessionID != "" {
		history, err := s.sessions.RecentHistory(ctx, turn.SessionID)
		if err != nil {
			s.stepFailed("load_history", err, turn)
		} else {
			turn.History = history
		}
	}

	turn.SystemPrompt = ai.BuildWeddingPrompt(ai.PromptInput{
		Wedding:  turn.Context.WeddingOrNil(),
		Guest:    turn.Context.GuestOrNil(),
		Events:   turn.Context.EventsOrNil(),
		Language: req.Language,
	})

	s.persist(ctx, turn, chat.Message{
		MessageType: chat.MessageTypeUser,
		Content:     req.Message,
	}, "save_user_message")

	return turn
}

// Generate asks the model for the complete reply.
func (s *Service) Generate(ctx context.Context, turn *Turn) (*schema.Message, error) {
	ctx, span := s.tracer.Start(ctx, "assistant.generate")
	defer span.End()

	start := time.Now()
	msg, err := s.llm.Generate(ctx, s.completionRequest(turn))
	metrics.ObserveLLM("generate", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return msg, nil
}

// Stream asks the model for the reply as a stream of deltas. The caller
// concatenates them and passes the result to Finish.
func (s *Service) Stream(ctx context.Context, turn *Turn) (*schema.StreamReader[*schema.Message], error) {
	start := time.Now()
	stream, err := s.llm.Stream(ctx, s.completionRequest(turn))
	metrics.ObserveLLM("stream", start, err)
	return stream, err
}

// Finish stores the reply and builds the response body.
func (s *Service) Finish(ctx context.Context, turn *Turn, msg *schema.Message) Response {
	ctx, span := s.tracer.Start(ctx, "assistant.finish")
	defer span.End()

	reply := ai.EmptyCompletionReply
	if msg != nil && strings.TrimSpace(msg.Content) != "" {
		reply = msg.Content
	}

	s.persist(ctx, turn, chat.Message{
		MessageType: chat.MessageTypeAssistant,
		Content:     reply,
		Metadata:    s.llm.UsageMetadata(msg),
	}, "save_assistant_message")

	w := turn.Context.WeddingOrNil()
	events := turn.Context.EventsOrNil()
	venueAddress := ""
	if w != nil {
		venueAddress = w.VenueAddress
	}

	return Response{
		Response:         reply,
		SessionID:        turn.SessionID,
		Suggestions:      intent.SmartSuggestions(turn.Request.Message),
		ResponseMetadata: intent.Annotate(turn.Request.Message, venueAddress, events),
		Metadata:         s.weddingMetadata(ctx, w, events),
	}
}

func (s *Service) completionRequest(turn *Turn) ai.Request {
	return ai.Request{
		SystemPrompt: turn.SystemPrompt,
		History:      turn.History,
		UserMessage:  turn.Request.Message,
	}
}

// resolveWeddingID prefers the explicit id, then the website slug.
func (s *Service) resolveWeddingID(ctx context.Context, req Request) string {
	if req.WeddingID != "" {
		return req.WeddingID
	}
	slug := strings.TrimSpace(req.WebsiteSlug)
	if slug == "" {
		return ""
	}

	id, err := s.weddings.WeddingIDBySlug(ctx, slug)
	if err != nil {
		metrics.StepFailuresTotal.WithLabelValues("resolve_slug").Inc()
		s.log.Warn().Err(err).Str("website_slug", slug).Msg("failed to resolve wedding from website slug")
		return ""
	}
	return id
}

// fetchContext runs the wedding, guest and event reads concurrently. Each
// read records its own outcome; none cancels the others.
func (s *Service) fetchContext(ctx context.Context, weddingID, guestID string) WeddingContext {
	ctx, span := s.tracer.Start(ctx, "assistant.fetch_context")
	defer span.End()

	var (
		wc WeddingContext
		g  errgroup.Group
	)

	if weddingID != "" {
		g.Go(func() error {
			w, err := s.weddings.GetWedding(ctx, weddingID)
			wc.Wedding = FetchResult[*wedding.Wedding]{Value: w, Err: err, Attempted: true}
			return nil
		})
		g.Go(func() error {
			events, err := s.weddings.ListEvents(ctx, weddingID)
			wc.Events = FetchResult[[]wedding.Event]{Value: events, Err: err, Attempted: true}
			return nil
		})
	}
	if guestID != "" {
		g.Go(func() error {
			guest, err := s.weddings.GetGuest(ctx, guestID)
			wc.Guest = FetchResult[*wedding.Guest]{Value: guest, Err: err, Attempted: true}
			return nil
		})
	}
	_ = g.Wait()

	if err := wc.Wedding.Err; err != nil {
		metrics.StepFailuresTotal.WithLabelValues("fetch_wedding").Inc()
		s.log.Warn().Err(err).Str("wedding_id", weddingID).Msg("failed to load wedding")
	}
	if err := wc.Events.Err; err != nil {
		metrics.StepFailuresTotal.WithLabelValues("fetch_events").Inc()
		s.log.Warn().Err(err).Str("wedding_id", weddingID).Msg("failed to load events")
	}
	if err := wc.Guest.Err; err != nil {
		metrics.StepFailuresTotal.WithLabelValues("fetch_guest").Inc()
		s.log.Warn().Err(err).Str("guest_id", guestID).Msg("failed to load guest")
	}
	return wc
}

func (s *Service) persist(ctx context.Context, turn *Turn, msg chat.Message, step string) {
	if !turn.Persistable() {
		return
	}
	msg.SessionID = turn.SessionID
	msg.GuestID = turn.Request.GuestID
	msg.WeddingID = turn.WeddingID
	if err := s.sessions.SaveMessage(ctx, msg); err != nil {
		s.stepFailed(step, err, turn)
	}
}

func (s *Service) stepFailed(step string, err error, turn *Turn) {
	metrics.StepFailuresTotal.WithLabelValues(step).Inc()
	s.log.Error().Err(err).
		Str("step", step).
		Str("session_id", turn.SessionID).
		Str("guest_id", turn.Request.GuestID).
		Str("wedding_id", turn.WeddingID).
		Msg("chat pipeline step failed")
}

func (s *Service) weddingMetadata(ctx context.Context, w *wedding.Wedding, events []wedding.Event) *WeddingMetadata {
	meta := &WeddingMetadata{
		EventCount: len(events),
		Gallery:    []string{},
	}
	if w == nil {
		return meta
	}

	meta.BrideName = w.BrideName
	meta.GroomName = w.GroomName
	meta.WeddingDate = w.WeddingDate
	if s.photos != nil {
		meta.BridePhoto = s.photos.SignURL(ctx, w.BridePhoto)
		meta.GroomPhoto = s.photos.SignURL(ctx, w.GroomPhoto)
		meta.CouplePhoto = s.photos.SignURL(ctx, w.CouplePhoto)
		if w.Website != nil {
			meta.Gallery = s.photos.SignAll(ctx, w.Website.Gallery)
		}
	} else {
		meta.BridePhoto, meta.GroomPhoto, meta.CouplePhoto = w.BridePhoto, w.GroomPhoto, w.CouplePhoto
		if w.Website != nil {
			for _, ref := range w.Website.Gallery {
				if ref != "" {
					meta.Gallery = append(meta.Gallery, ref)
				}
			}
		}
	}
	meta.HasImages = meta.BridePhoto != "" || meta.GroomPhoto != "" || meta.CouplePhoto != "" || len(meta.Gallery) > 0
	return meta
}
