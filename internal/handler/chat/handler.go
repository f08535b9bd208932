package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/shadicards/concierge/backend/internal/metrics"
	"github.com/shadicards/concierge/backend/internal/model/chat"
	"github.com/shadicards/concierge/backend/internal/service/assistant"
	chatService "github.com/shadicards/concierge/backend/internal/service/chat"
	"github.com/shadicards/concierge/backend/pkg/utils"
)

// Handler serves the chatbot endpoint and stored transcripts.
type Handler struct {
	assistant *assistant.Service
	chatSvc   *chatService.Service
	log       zerolog.Logger
}

// New creates the chatbot handler.
func New(assistantSvc *assistant.Service, chatSvc *chatService.Service, log zerolog.Logger) *Handler {
	return &Handler{
		assistant: assistantSvc,
		chatSvc:   chatSvc,
		log:       log.With().Str("component", "chatbot-handler").Logger(),
	}
}

// RegisterRoutes mounts the chatbot routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chatbot", h.handleChat)
	r.Get("/chatbot/sessions/{sessionID}/messages", h.handleTranscript)
}

// handleChat answers one guest message. Apart from a missing message every
// outcome is a 200.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req assistant.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = assistant.Request{}
	}
	if err := req.Normalize(); err != nil {
		metrics.ChatbotRequestsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.assistant.Available() {
		metrics.ChatbotRequestsTotal.WithLabelValues(metrics.OutcomeNoProvider).Inc()
		utils.RespondJSON(w, http.StatusOK, h.assistant.Fallback(req))
		return
	}

	resp, err := SafeReply(r.Context(), h.assistant, req)
	if err != nil {
		metrics.ChatbotRequestsTotal.WithLabelValues(metrics.OutcomeDegraded).Inc()
		h.log.Error().Err(err).
			Str("guest_id", req.GuestID).
			Str("wedding_id", req.WeddingID).
			Str("session_id", req.SessionID).
			Msg("chatbot request failed")
		utils.RespondJSON(w, http.StatusOK, assistant.Failure(err))
		return
	}

	metrics.ChatbotRequestsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	utils.RespondJSON(w, http.StatusOK, resp)
}

// SafeReply runs a turn and converts a panic into an error.
func SafeReply(ctx context.Context, svc *assistant.Service, req assistant.Request) (resp assistant.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return svc.Reply(ctx, req)
}

type transcriptResponse struct {
	SessionID string         `json:"sessionId"`
	Messages  []chat.Message `json:"messages"`
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if errors.Is(err, chatService.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to load transcript")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}
	if messages == nil {
		messages = []chat.Message{}
	}

	utils.RespondJSON(w, http.StatusOK, transcriptResponse{SessionID: sessionID, Messages: messages})
}
