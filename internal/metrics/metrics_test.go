package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrumentUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Instrument)
	r.Get("/api/chatbot/sessions/{sessionID}/messages", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues(http.MethodGet, "/api/chatbot/sessions/{sessionID}/messages", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/chatbot/sessions/abc/messages", nil))
	after := testutil.ToFloat64(RequestsTotal.WithLabelValues(http.MethodGet, "/api/chatbot/sessions/{sessionID}/messages", "404"))

	assert.Equal(t, before+1, after)
}

func TestObserveLLM(t *testing.T) {
	before := testutil.CollectAndCount(LLMDuration)
	ObserveLLM("generate-test", time.Now(), nil)
	ObserveLLM("generate-test", time.Now(), errors.New("boom"))
	assert.Equal(t, before+2, testutil.CollectAndCount(LLMDuration))
}
