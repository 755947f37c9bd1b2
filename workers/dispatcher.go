// Package workers delivers committed workflow events to side-effect sinks.
// Events are read from the transactional outbox, so a notification or
// search update is never produced for a transition that did not commit.
package workers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/clock"
	"github.com/rpupo63/hackathon-review-backend/database"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/metrics"
	"github.com/rpupo63/hackathon-review-backend/models"
	"github.com/rpupo63/hackathon-review-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Sink is one side effect of a workflow event.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, d services.Delivery) error
}

type Dispatcher struct {
	db            database.Database
	sinks         []Sink
	clock         clock.Clock
	logger        zerolog.Logger
	batchSize     int
	pollInterval  time.Duration
	retryInterval time.Duration
	maxAttempts   int
}

type Option func(*Dispatcher)

func WithBatchSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

func WithPollInterval(every time.Duration) Option {
	return func(d *Dispatcher) {
		if every > 0 {
			d.pollInterval = every
		}
	}
}

func WithRetryInterval(every time.Duration) Option {
	return func(d *Dispatcher) {
		if every > 0 {
			d.retryInterval = every
		}
	}
}

// WithMaxAttempts caps how often a dead letter is tried before it is left for an operator.
func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

func New(db database.Database, sinks []Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		db:            db,
		sinks:         sinks,
		clock:         clock.Real(),
		logger:        log.With().Str("component", "outbox").Logger(),
		batchSize:     100,
		pollInterval:  time.Second,
		retryInterval: 30 * time.Second,
		maxAttempts:   5,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start runs the dispatch loop and the dead letter retry loop until ctx is done.
func (d *Dispatcher) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.Run(ctx) })
	g.Go(func() error { return d.RetryDeadLetters(ctx) })
	return g.Wait()
}

// Run polls the outbox, draining it batch by batch on every tick.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info().Int("sinks", len(d.sinks)).Dur("every", d.pollInterval).Msg("outbox dispatcher started")
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for {
				n, err := d.ProcessOnce(ctx)
				if err != nil {
					d.logger.Error().Err(err).Msg("outbox batch failed")
					break
				}
				if n < d.batchSize {
					break
				}
			}
		}
	}
}

// ProcessOnce delivers one batch of pending events and marks them processed.
// A sink failure does not hold the event back; it is parked as a dead letter.
func (d *Dispatcher) ProcessOnce(ctx context.Context) (int, error) {
	var processed int
	err := d.db.WithTx(ctx, func(tx database.Database) error {
		events, err := tx.OutboxRepo().LockPending(ctx, d.batchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(events))
		for _, event := range events {
			deliveries, err := deliveriesFor(ctx, tx, event)
			if err != nil {
				return err
			}
			for _, dl := range deliveries {
				for _, f := range d.fanOut(ctx, dl, d.sinks) {
					if err := d.park(ctx, tx, dl, f); err != nil {
						return err
					}
				}
			}
			ids = append(ids, event.ID)
		}
		if err := tx.OutboxRepo().MarkProcessed(ctx, ids); err != nil {
			return err
		}
		processed = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.ProcessedEvents.Add(float64(processed))
	return processed, nil
}

type failure struct {
	sink string
	err  error
}

// fanOut runs every sink concurrently and collects the ones that failed.
func (d *Dispatcher) fanOut(ctx context.Context, dl services.Delivery, sinks []Sink) []failure {
	results := make([]error, len(sinks))
	var g errgroup.Group
	for i, sink := range sinks {
		g.Go(func() error {
			results[i] = sink.Deliver(ctx, dl)
			return nil
		})
	}
	_ = g.Wait()

	var failed []failure
	for i, err := range results {
		if err != nil {
			failed = append(failed, failure{sink: sinks[i].Name(), err: err})
		}
	}
	return failed
}

func (d *Dispatcher) park(ctx context.Context, tx database.Database, dl services.Delivery, f failure) error {
	letter := &models.DeadLetter{
		OutboxID: dl.Event.ID,
		Sink:     f.sink,
		ErrorMsg: f.err.Error(),
		Attempts: 1,
	}
	if dl.Application != nil {
		id := dl.Application.ID
		letter.ApplicationID = &id
	} else if dl.Event.ApplicationID != nil {
		id := *dl.Event.ApplicationID
		letter.ApplicationID = &id
	}
	if err := tx.OutboxRepo().AddDeadLetter(ctx, letter); err != nil {
		return err
	}
	metrics.FailedEvents.WithLabelValues(f.sink).Inc()
	metrics.DLQEvents.Inc()
	d.logger.Warn().
		Err(f.err).
		Int64("outboxId", dl.Event.ID).
		Str("kind", string(dl.Event.Kind)).
		Str("sink", f.sink).
		Msg("delivery failed, parked as dead letter")
	return nil
}

// RetryDeadLetters periodically retries parked deliveries.
func (d *Dispatcher) RetryDeadLetters(ctx context.Context) error {
	ticker := time.NewTicker(d.retryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := d.RetryOnce(ctx); err != nil {
				d.logger.Error().Err(err).Msg("dead letter retry failed")
			}
		}
	}
}

// RetryOnce retries every dead letter that has attempts left and returns
// how many were delivered.
func (d *Dispatcher) RetryOnce(ctx context.Context) (int, error) {
	outbox := d.db.OutboxRepo()
	letters, err := outbox.UnresolvedDeadLetters(ctx, d.maxAttempts, 50)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, letter := range letters {
		err := d.retry(ctx, letter)
		now := d.clock.Now()
		if err != nil {
			d.logger.Warn().Err(err).Int64("deadLetterId", letter.ID).Str("sink", letter.Sink).Msg("dead letter retry failed")
			if err := outbox.RecordRetryFailure(ctx, letter.ID, err.Error(), now); err != nil {
				return resolved, err
			}
			continue
		}
		if err := outbox.ResolveDeadLetter(ctx, letter.ID, now); err != nil {
			return resolved, err
		}
		resolved++
		metrics.DLQResolved.Inc()
		d.logger.Info().Int64("deadLetterId", letter.ID).Str("sink", letter.Sink).Msg("dead letter resolved")
	}
	return resolved, nil
}

func (d *Dispatcher) retry(ctx context.Context, letter models.DeadLetter) error {
	sink := d.sink(letter.Sink)
	if sink == nil {
		return errs.NewConfigError("sink "+letter.Sink, nil)
	}
	event, err := d.db.OutboxRepo().FindByID(ctx, letter.OutboxID)
	if err != nil {
		return err
	}
	deliveries, err := deliveriesFor(ctx, d.db, *event)
	if err != nil {
		return err
	}
	for _, dl := range deliveries {
		if letter.ApplicationID != nil && !addressedTo(dl, *letter.ApplicationID) {
			continue
		}
		if err := sink.Deliver(ctx, dl); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) sink(name string) Sink {
	for _, s := range d.sinks {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func addressedTo(dl services.Delivery, applicationID uuid.UUID) bool {
	if dl.Application != nil {
		return dl.Application.ID == applicationID
	}
	return dl.Event.ApplicationID != nil && *dl.Event.ApplicationID == applicationID
}

// deliveriesFor resolves an event against current state. Application events
// address their application, or nil if it was deleted since. Hackathon
// events address every application of the hackathon.
func deliveriesFor(ctx context.Context, db database.Database, event models.OutboxEvent) ([]services.Delivery, error) {
	h, err := db.HackathonRepo().FindByID(ctx, event.HackathonID)
	if err != nil && !errs.IsNotFound(err) {
		return nil, err
	}

	if event.ApplicationID != nil {
		app, err := db.ApplicationRepo().FindByID(ctx, *event.ApplicationID)
		if err != nil && !errs.IsNotFound(err) {
			return nil, err
		}
		return []services.Delivery{{Event: event, Hackathon: h, Application: app}}, nil
	}

	apps, err := db.ApplicationRepo().FindByHackathon(ctx, event.HackathonID)
	if err != nil {
		return nil, err
	}
	out := make([]services.Delivery, 0, len(apps))
	for _, app := range apps {
		out = append(out, services.Delivery{Event: event, Hackathon: h, Application: app})
	}
	return out, nil
}
