package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/shadicards/concierge/backend/internal/handler/chat"
	"github.com/shadicards/concierge/backend/internal/handler/stream"
	"github.com/shadicards/concierge/backend/internal/handler/ws"
	"github.com/shadicards/concierge/backend/internal/metrics"
	middlewarePkg "github.com/shadicards/concierge/backend/internal/middleware"
	assistantService "github.com/shadicards/concierge/backend/internal/service/assistant"
	chatService "github.com/shadicards/concierge/backend/internal/service/chat"
	"github.com/shadicards/concierge/backend/pkg/utils"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter wires HTTP routes to core services.
func NewRouter(db Pinger, chatSvc *chatService.Service, assistantSvc *assistantService.Service, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)
	r.Use(metrics.Instrument)

	chatHandler := chat.New(assistantSvc, chatSvc, log)
	streamHandler := stream.New(assistantSvc, log)
	wsHandler := ws.New(assistantSvc, log)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"llm":    assistantSvc.Available(),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
