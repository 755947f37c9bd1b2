package workflow

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
)

// memStore is an in-memory HackathonStore/ApplicationStore pair with the
// same compare-and-set semantics as the database repos.
type memStore struct {
	mu         sync.Mutex
	hackathons map[uuid.UUID]*models.Hackathon
	apps       map[uuid.UUID]*models.Application
	events     []models.OutboxEvent
	viewsErr   error
	// viewsGate, when set, holds every view increment until it is closed.
	viewsGate chan struct{}
	// replicaApps, when set, is what replica-served listings return.
	replicaApps []*models.Application
	// beforeSave runs before an application CAS with the lock released.
	beforeSave func()
}

func newMemStore() *memStore {
	return &memStore{
		hackathons: make(map[uuid.UUID]*models.Hackathon),
		apps:       make(map[uuid.UUID]*models.Application),
	}
}

func cloneHackathon(h *models.Hackathon) *models.Hackathon {
	c := *h
	c.Phases = append([]models.Phase(nil), h.Phases...)
	return &c
}

func cloneApplication(a *models.Application) *models.Application {
	c := *a
	c.Submissions = append([]models.PhaseSubmission(nil), a.Submissions...)
	return &c
}

func (m *memStore) eventsOf(kind models.EventKind) []models.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.OutboxEvent
	for _, e := range m.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) appendEvents(events []models.OutboxEvent) {
	for _, e := range events {
		e.ID = int64(len(m.events) + 1)
		m.events = append(m.events, e)
	}
}

type memHackathons struct{ *memStore }

func (m memHackathons) FindByID(_ context.Context, id uuid.UUID) (*models.Hackathon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hackathons[id]
	if !ok {
		return nil, errs.NewNotFound("hackathon")
	}
	return cloneHackathon(h), nil
}

func (m memHackathons) FindAll(context.Context) ([]*models.Hackathon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Hackathon, 0, len(m.hackathons))
	for _, h := range m.hackathons {
		out = append(out, cloneHackathon(h))
	}
	return out, nil
}

func (m memHackathons) Add(_ context.Context, h *models.Hackathon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hackathons[h.ID] = cloneHackathon(h)
	return nil
}

func (m memHackathons) Save(_ context.Context, h *models.Hackathon, expected int64, events ...models.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.hackathons[h.ID]
	if !ok || cur.Version != expected {
		return errs.NewSerializationFailureError("save hackathon", nil)
	}
	h.Version = expected + 1
	m.hackathons[h.ID] = cloneHackathon(h)
	m.appendEvents(events)
	return nil
}

func (m memHackathons) IncrementViews(_ context.Context, id uuid.UUID) error {
	if m.viewsGate != nil {
		<-m.viewsGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.viewsErr != nil {
		return m.viewsErr
	}
	if h, ok := m.hackathons[id]; ok {
		h.Views++
	}
	return nil
}

type memApplications struct{ *memStore }

func (m memApplications) FindByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return nil, errs.NewNotFound("application")
	}
	return cloneApplication(a), nil
}

func (m memApplications) FindByHackathonAndApplicant(_ context.Context, hackathonID, applicantID uuid.UUID) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.HackathonID == hackathonID && a.ApplicantID == applicantID {
			return cloneApplication(a), nil
		}
	}
	return nil, nil
}

func (m memApplications) list(keep func(*models.Application) bool) []*models.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Application
	for _, a := range m.apps {
		if keep(a) {
			out = append(out, cloneApplication(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.Before(out[j].AppliedAt) })
	return out
}

func (m memApplications) FindByHackathon(ctx context.Context, hackathonID uuid.UUID) ([]*models.Application, error) {
	m.mu.Lock()
	replica := m.replicaApps
	m.mu.Unlock()
	if replica != nil {
		var out []*models.Application
		for _, a := range replica {
			if a.HackathonID == hackathonID {
				out = append(out, cloneApplication(a))
			}
		}
		return out, nil
	}
	return m.FindCurrentByHackathon(ctx, hackathonID)
}

func (m memApplications) FindCurrentByHackathon(_ context.Context, hackathonID uuid.UUID) ([]*models.Application, error) {
	return m.list(func(a *models.Application) bool { return a.HackathonID == hackathonID }), nil
}

func (m memApplications) FindByApplicant(_ context.Context, applicantID uuid.UUID) ([]*models.Application, error) {
	return m.list(func(a *models.Application) bool { return a.ApplicantID == applicantID }), nil
}

func (m memApplications) Add(_ context.Context, app *models.Application, events ...models.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.HackathonID == app.HackathonID && a.ApplicantID == app.ApplicantID {
			return errs.NewAlreadyAppliedError()
		}
	}
	if h, ok := m.hackathons[app.HackathonID]; ok && h.ResultsPublished {
		return errs.NewResultsClosedError()
	}
	m.apps[app.ID] = cloneApplication(app)
	m.appendEvents(events)
	return nil
}

func (m memApplications) Save(_ context.Context, app *models.Application, opts models.SaveOptions) error {
	if m.beforeSave != nil {
		m.beforeSave()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.apps[app.ID]
	if !ok || cur.Version != opts.ExpectedVersion {
		return errs.NewSerializationFailureError("save application", nil)
	}
	if opts.RequireOpen {
		if h, ok := m.hackathons[app.HackathonID]; ok && h.ResultsPublished {
			return errs.NewSerializationFailureError("save application", nil)
		}
	}
	for _, s := range app.Submissions {
		if s.ReuploadCount > MaxReuploadRequests {
			return errors.New("check constraint violated: reupload_count")
		}
	}
	app.Version = opts.ExpectedVersion + 1
	m.apps[app.ID] = cloneApplication(app)
	m.appendEvents(opts.Events)
	return nil
}

func (m memApplications) Delete(_ context.Context, id uuid.UUID, events ...models.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[id]; !ok {
		return errs.NewNotFound("application")
	}
	delete(m.apps, id)
	m.appendEvents(events)
	return nil
}

func (m memApplications) IncrementViews(_ context.Context, id uuid.UUID) error {
	if m.viewsGate != nil {
		<-m.viewsGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.viewsErr != nil {
		return m.viewsErr
	}
	if a, ok := m.apps[id]; ok {
		a.Views++
	}
	return nil
}
