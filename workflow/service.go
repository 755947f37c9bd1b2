// Package workflow owns the application lifecycle and phase review state
// machine. Every mutating operation runs under a per-application lock and
// commits through a version compare-and-set, so check-then-write sequences
// such as the re-upload ceiling are atomic across goroutines and processes.
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/clock"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/metrics"
	"github.com/rpupo63/hackathon-review-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultMaxAttempts = 5
	viewsTimeout       = 2 * time.Second
)

type Service struct {
	hackathons   HackathonStore
	applications ApplicationStore
	clock        clock.Clock
	logger       zerolog.Logger
	locks        *keyedMutex
	maxAttempts  int
	background   sync.WaitGroup
}

type Option func(*Service)

// WithClock replaces the wall clock used for deadlines and timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMaxAttempts bounds how often a transition is retried after a version conflict.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func New(hackathons HackathonStore, applications ApplicationStore, opts ...Option) *Service {
	s := &Service{
		hackathons:   hackathons,
		applications: applications,
		clock:        clock.Real(),
		logger:       log.With().Str("component", "workflow").Logger(),
		locks:        newKeyedMutex(),
		maxAttempts:  defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now exposes the service clock to callers that stamp related records.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

func (s *Service) observe(operation string, err *error) {
	e := *err
	metrics.WorkflowOperations.WithLabelValues(operation, metrics.Outcome(e)).Inc()
	if errs.IsReuploadLimitExceededError(e) {
		metrics.ReuploadLimitRejections.Inc()
	}
}

// transition decides one state change on a freshly loaded snapshot. It
// mutates app in place and returns the events to commit with it, or an
// error to abort without writing.
type transition func(h *models.Hackathon, app *models.Application, now time.Time) ([]models.OutboxEvent, error)

// mutateApplication runs a read-decide-write cycle for one application.
// The keyed lock serializes callers in this process; the version CAS in
// Save catches writers elsewhere, in which case the cycle is re-run on a
// fresh snapshot. With requireOpen the write also fails if results were
// published after the snapshot was read.
func (s *Service) mutateApplication(ctx context.Context, operation string, applicationID uuid.UUID, requireOpen bool, apply transition) (*models.Application, *models.Hackathon, error) {
	unlock := s.locks.Lock("application:" + applicationID.String())
	defer unlock()

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		app, err := s.applications.FindByID(ctx, applicationID)
		if err != nil {
			return nil, nil, err
		}
		h, err := s.hackathons.FindByID(ctx, app.HackathonID)
		if err != nil {
			return nil, nil, err
		}

		expected := app.Version
		events, err := apply(h, app, s.clock.Now())
		if err != nil {
			return nil, nil, err
		}
		if events == nil {
			return app, h, nil
		}

		err = s.applications.Save(ctx, app, models.SaveOptions{
			ExpectedVersion: expected,
			RequireOpen:     requireOpen,
			Events:          events,
		})
		if err == nil {
			s.logger.Info().
				Str("operation", operation).
				Str("applicationId", applicationID.String()).
				Int64("version", app.Version).
				Msg("transition committed")
			return app, h, nil
		}
		if !errs.IsSerializationFailureError(err) {
			return nil, nil, err
		}
		lastErr = err
		metrics.VersionConflicts.WithLabelValues(operation).Inc()
		s.logger.Warn().
			Str("operation", operation).
			Str("applicationId", applicationID.String()).
			Int("attempt", attempt).
			Msg("version conflict, retrying")
	}
	return nil, nil, lastErr
}

// bestEffort runs a side update in the background. It never fails or
// delays the caller.
func (s *Service) bestEffort(ctx context.Context, what string, id uuid.UUID, fn func(context.Context, uuid.UUID) error) {
	ctx = context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(ctx, viewsTimeout)
		defer cancel()
		if err := fn(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("id", id.String()).Msgf("failed to %s", what)
		}
	}()
}

// Wait blocks until background side updates have finished.
func (s *Service) Wait() {
	s.background.Wait()
}
