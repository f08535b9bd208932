// Package ws serves the concierge over a WebSocket: every inbound text frame
// is a chat request and every outbound frame a reply envelope.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	chathandler "github.com/shadicards/concierge/backend/internal/handler/chat"
	"github.com/shadicards/concierge/backend/internal/metrics"
	"github.com/shadicards/concierge/backend/internal/service/assistant"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
	maxFrameSize = 64 << 10
)

// Outbound frame types.
const (
	TypeConnected = "connected"
	TypeResponse  = "response"
	TypeError     = "error"
)

// Handler upgrades connections and answers chat frames.
type Handler struct {
	assistant *assistant.Service
	upgrader  websocket.Upgrader
	log       zerolog.Logger
}

// New creates the WebSocket handler.
func New(assistantSvc *assistant.Service, log zerolog.Logger) *Handler {
	return &Handler{
		assistant: assistantSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log.With().Str("component", "ws-handler").Logger(),
	}
}

// RegisterRoutes mounts the WebSocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chatbot/ws", h.handleWebSocket)
}

// Frame is the outbound envelope.
type Frame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// connectionState carries identity between frames so follow-ups may omit it.
type connectionState struct {
	guestID     string
	weddingID   string
	websiteSlug string
	sessionID   string
	language    string
}

func (s *connectionState) merge(req *assistant.Request) {
	if req.GuestID == "" {
		req.GuestID = s.guestID
	}
	if req.WeddingID == "" {
		req.WeddingID = s.weddingID
	}
	if req.WebsiteSlug == "" {
		req.WebsiteSlug = s.websiteSlug
	}
	if req.SessionID == "" {
		req.SessionID = s.sessionID
	}
	if req.Language == "" {
		req.Language = s.language
	}
}

func (s *connectionState) remember(req assistant.Request, sessionID string) {
	s.guestID = req.GuestID
	s.weddingID = req.WeddingID
	s.websiteSlug = req.WebsiteSlug
	s.language = req.Language
	if sessionID != "" && sessionID != assistant.FallbackSessionID {
		s.sessionID = sessionID
	}
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, conn)

	state := &connectionState{
		guestID:     r.URL.Query().Get("guestId"),
		weddingID:   r.URL.Query().Get("weddingId"),
		websiteSlug: r.URL.Query().Get("websiteSlug"),
		language:    r.URL.Query().Get("language"),
	}
	h.write(conn, Frame{Type: TypeConnected, Data: map[string]bool{"available": h.assistant.Available()}})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		h.handleFrame(ctx, conn, state, raw)
	}
}

func (h *Handler) handleFrame(ctx context.Context, conn *websocket.Conn, state *connectionState, raw []byte) {
	var req assistant.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		req = assistant.Request{}
	}
	state.merge(&req)
	if err := req.Normalize(); err != nil {
		metrics.ChatbotRequestsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		h.write(conn, Frame{Type: TypeError, Data: map[string]string{"error": err.Error()}})
		return
	}

	if !h.assistant.Available() {
		metrics.ChatbotRequestsTotal.WithLabelValues(metrics.OutcomeNoProvider).Inc()
		resp := h.assistant.Fallback(req)
		state.remember(req, resp.SessionID)
		h.write(conn, Frame{Type: TypeResponse, SessionID: resp.SessionID, Data: resp})
		return
	}

	resp, err := chathandler.SafeReply(ctx, h.assistant, req)
	if err != nil {
		metrics.ChatbotRequestsTotal.WithLabelValues(metrics.OutcomeDegraded).Inc()
		h.log.Error().Err(err).Str("session_id", req.SessionID).Msg("websocket turn failed")
		h.write(conn, Frame{Type: TypeResponse, SessionID: req.SessionID, Data: assistant.Failure(err)})
		return
	}

	metrics.ChatbotRequestsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	state.remember(req, resp.SessionID)
	h.write(conn, Frame{Type: TypeResponse, SessionID: resp.SessionID, Data: resp})
}

// write is only called from the read loop; pings use WriteControl, which
// may run concurrently with it.
func (h *Handler) write(conn *websocket.Conn, frame Frame) {
	frame.Timestamp = time.Now().Unix()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(frame); err != nil {
		h.log.Debug().Err(err).Str("type", frame.Type).Msg("websocket write failed")
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
