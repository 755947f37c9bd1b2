package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type systemHandler struct {
	responder   Responder
	logger      zerolog.Logger
	db          Pinger
	gatherer    prometheus.Gatherer
	startupTime time.Time
}

func newSystemHandler(db Pinger, gatherer prometheus.Gatherer, startupTime time.Time) systemHandler {
	logger := log.With().Str("handlerName", "systemHandler").Logger()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return systemHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		db:          db,
		gatherer:    gatherer,
		startupTime: startupTime,
	}
}

// HealthResponse reports liveness and how long the process has been up
type HealthResponse struct {
	Status      string    `json:"status"`
	StartupTime time.Time `json:"startupTime"`
	Uptime      string    `json:"uptime"`
}

// health answers liveness probes and checks the database
// @Router /healthz [get]
func (h systemHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := h.db.Ping(ctx); err != nil {
				h.responder.WriteError(w, errs.NewServiceUnavailableError("database", err))
				return
			}
		}
		h.responder.WriteJSON(w, HealthResponse{
			Status:      "ok",
			StartupTime: h.startupTime,
			Uptime:      time.Since(h.startupTime).Round(time.Second).String(),
		})
	}
}

// metrics exposes the prometheus collectors
// @Router /metrics [get]
func (h systemHandler) metrics() http.Handler {
	return promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})
}

// notFound answers requests for unknown routes
func (h systemHandler) notFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteError(w, errs.NewNotFoundError("route "+r.URL.Path))
	}
}

// methodNotAllowed answers known routes called with the wrong method
func (h systemHandler) methodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteError(w, errs.NewApiErr(http.StatusMethodNotAllowed, "method "+r.Method+" not allowed"))
	}
}
