package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/shadicards/concierge/backend/internal/metrics"
	"github.com/shadicards/concierge/backend/internal/service/assistant"
	"github.com/shadicards/concierge/backend/pkg/utils"
)

// Event names written on the stream.
const (
	EventStart       = "start"
	EventDelta       = "delta"
	EventMessage     = "message"
	EventAnnotations = "annotations"
	EventEnd         = "end"
	EventError       = "error"
)

// Handler streams concierge replies as Server-Sent Events.
type Handler struct {
	assistant *assistant.Service
	log       zerolog.Logger
}

// New creates a new stream handler.
func New(assistantSvc *assistant.Service, log zerolog.Logger) *Handler {
	return &Handler{
		assistant: assistantSvc,
		log:       log.With().Str("component", "stream-handler").Logger(),
	}
}

// RegisterRoutes mounts the streaming route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chatbot/stream", h.handleStream)
}

// StreamResponse is the payload of start, delta, message and end events.
type StreamResponse struct {
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	var req assistant.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = assistant.Request{}
	}
	if err := req.Normalize(); err != nil {
		metrics.ChatbotRequestsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := h.HandleStreamRequest(r.Context(), w, flusher, req); err != nil {
		metrics.ChatbotRequestsTotal.WithLabelValues(metrics.OutcomeDegraded).Inc()
		h.log.Error().Err(err).
			Str("guest_id", req.GuestID).
			Str("session_id", req.SessionID).
			Msg("stream request failed")
		_ = utils.SendSSEEvent(w, flusher, EventError, assistant.Failure(err))
	}
}

// HandleStreamRequest runs one turn and writes it as events. Panics are
// returned as errors.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, req assistant.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	if !h.assistant.Available() {
		metrics.ChatbotRequestsTotal.WithLabelValues(metrics.OutcomeNoProvider).Inc()
		resp := h.assistant.Fallback(req)
		h.send(w, flusher, EventStart, StreamResponse{SessionID: resp.SessionID})
		h.send(w, flusher, EventMessage, StreamResponse{SessionID: resp.SessionID, Content: resp.Response})
		h.send(w, flusher, EventAnnotations, resp)
		h.send(w, flusher, EventEnd, StreamResponse{SessionID: resp.SessionID, Finished: true})
		return nil
	}

	turn := h.assistant.Prepare(ctx, req)
	h.send(w, flusher, EventStart, StreamResponse{SessionID: turn.SessionID})

	reply, err := h.dispatch(ctx, w, flusher, turn)
	if err != nil {
		return err
	}

	resp := h.assistant.Finish(ctx, turn, reply)
	h.send(w, flusher, EventAnnotations, resp)
	h.send(w, flusher, EventEnd, StreamResponse{SessionID: turn.SessionID, Finished: true})

	metrics.ChatbotRequestsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	h.log.Debug().Str("session_id", turn.SessionID).Msg("completed streamed response")
	return nil
}

// dispatch streams deltas when the provider supports it and otherwise sends
// the complete reply as one message event.
func (h *Handler) dispatch(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, turn *assistant.Turn) (*schema.Message, error) {
	if !h.assistant.StreamingEnabled() {
		reply, err := h.assistant.Generate(ctx, turn)
		if err != nil {
			return nil, err
		}
		h.send(w, flusher, EventMessage, StreamResponse{SessionID: turn.SessionID, Content: reply.Content})
		return reply, nil
	}

	stream, err := h.assistant.Stream(ctx, turn)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 16)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.send(w, flusher, EventDelta, StreamResponse{SessionID: turn.SessionID, Content: chunk.Content})
		}
	}

	reply := &schema.Message{Role: schema.Assistant}
	if len(chunks) > 0 {
		reply, err = schema.ConcatMessages(chunks)
		if err != nil {
			return nil, err
		}
	}

	h.send(w, flusher, EventMessage, StreamResponse{SessionID: turn.SessionID, Content: reply.Content})
	return reply, nil
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	if err := utils.SendSSEEvent(w, flusher, event, data); err != nil {
		h.log.Debug().Err(err).Str("event", event).Msg("failed to write sse event")
	}
}
