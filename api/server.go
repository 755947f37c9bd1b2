package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rpupo63/hackathon-review-backend/config"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/workflow"
	"github.com/rs/zerolog/log"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

// Dependencies are the components the HTTP layer serves. Uploads and Search
// are optional; their routes answer 503 when unset.
type Dependencies struct {
	Workflow *workflow.Service
	Database Pinger
	Uploads  UploadSigner
	Search   ApplicationSearcher
	Gatherer prometheus.Gatherer
}

func NewServer(c map[string]string, deps Dependencies) (Server, error) {
	if config.GetString(c, "JWT_SECRET", "") == "" {
		return Server{}, errs.NewEnvironmentVariableError("JWT_SECRET")
	}

	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port)

	startupTime := time.Now()

	router := newRouter(deps, withConfig(c), withStartupTime(startupTime))

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  config.GetSeconds(c, "READ_TIMEOUT_SECONDS", 30*time.Second),
		WriteTimeout: config.GetSeconds(c, "WRITE_TIMEOUT_SECONDS", 30*time.Second),
		IdleTimeout:  config.GetSeconds(c, "IDLE_TIMEOUT_SECONDS", 120*time.Second),
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func newRouter(deps Dependencies, opts ...func(*router)) *chi.Mux {
	var router router
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)

	acceptedOrigins := config.GetList(router.config, "ACCEPTED_ORIGINS")
	if len(acceptedOrigins) > 0 {
		chiRouter.Use(corsMiddleware(acceptedOrigins))
	}

	handlers := &routeHandlers{
		hackathonHandler:   newHackathonHandler(deps.Workflow),
		applicationHandler: newApplicationHandler(deps.Workflow, deps.Search),
		phaseHandler:       newPhaseHandler(deps.Workflow, deps.Uploads),
		systemHandler:      newSystemHandler(deps.Database, deps.Gatherer, router.startupTime),
	}
	authMiddleware := newAuthMiddleware([]byte(config.GetString(router.config, "JWT_SECRET", "")))

	setupRoutes(chiRouter, handlers, authMiddleware)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
