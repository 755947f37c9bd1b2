package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/clock"
	"github.com/rpupo63/hackathon-review-backend/database"
	"github.com/rpupo63/hackathon-review-backend/models"
	"github.com/rpupo63/hackathon-review-backend/services"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var t0 = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

type recordingSink struct {
	name string
	fail atomic.Bool
	mu   sync.Mutex
	got  []services.Delivery
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(ctx context.Context, d services.Delivery) error {
	if s.fail.Load() {
		return errors.New(s.name + " unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, d)
	return nil
}

func (s *recordingSink) deliveries() []services.Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]services.Delivery(nil), s.got...)
}

func newTestDB(t *testing.T) database.Database {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	d := database.New(db)
	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}

func addHackathon(t *testing.T, db database.Database) *models.Hackathon {
	t.Helper()
	h := &models.Hackathon{
		ID:                  uuid.New(),
		OrganizerID:         uuid.New(),
		Title:               "Spring Build Week",
		MinTeamSize:         1,
		MaxTeamSize:         4,
		AllowIndividual:     true,
		RegistrationEndDate: t0.Add(24 * time.Hour),
		Phases: []models.Phase{{
			ID:       uuid.New(),
			Position: 0,
			Name:     "Ideation",
			Deadline: t0.Add(7 * 24 * time.Hour),
			Mode:     models.PhaseModeOnline,
		}},
	}
	if err := db.HackathonRepo().Add(context.Background(), h); err != nil {
		t.Fatalf("add hackathon: %v", err)
	}
	return h
}

func addApplication(t *testing.T, db database.Database, h *models.Hackathon) *models.Application {
	t.Helper()
	app := &models.Application{
		ID:          uuid.New(),
		HackathonID: h.ID,
		ApplicantID: uuid.New(),
		Status:      models.ApplicationActive,
		AppliedAt:   t0,
	}
	_ = app.SetPayload(models.IndividualPayload{Name: "Asha", Email: "asha@example.com", Phone: "9876543210", Qualifications: "BSc"})
	event := models.NewApplicationEvent(models.EventApplicationCreated, app, nil, models.EventDetail{})
	if err := db.ApplicationRepo().Add(context.Background(), app, event); err != nil {
		t.Fatalf("add application: %v", err)
	}
	return app
}

func pending(t *testing.T, db database.Database) int {
	t.Helper()
	events, err := db.OutboxRepo().FindAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, e := range events {
		if !e.Processed {
			n++
		}
	}
	return n
}

func TestProcessOnceDeliversToEverySink(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	h := addHackathon(t, db)
	app := addApplication(t, db, h)
	email, search := &recordingSink{name: "email"}, &recordingSink{name: "search"}
	d := New(db, []Sink{email, search})

	n, err := d.ProcessOnce(ctx)
	if err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}
	if n != 1 {
		t.Fatalf("processed %d events, want 1", n)
	}
	for _, sink := range []*recordingSink{email, search} {
		got := sink.deliveries()
		if len(got) != 1 || got[0].Application == nil || got[0].Application.ID != app.ID {
			t.Fatalf("%s got %+v", sink.name, got)
		}
		if got[0].Hackathon == nil || got[0].Hackathon.Title != "Spring Build Week" {
			t.Errorf("%s delivery lacks hackathon", sink.name)
		}
	}
	if pending(t, db) != 0 {
		t.Error("event still pending after delivery")
	}

	if n, _ := d.ProcessOnce(ctx); n != 0 {
		t.Errorf("second batch processed %d events, want 0", n)
	}
}

func TestFailedSinkIsParkedAndRetried(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	h := addHackathon(t, db)
	app := addApplication(t, db, h)
	email, sms := &recordingSink{name: "email"}, &recordingSink{name: "sms"}
	sms.fail.Store(true)
	d := New(db, []Sink{email, sms}, WithMaxAttempts(3), WithClock(clock.Fake(t0)))

	if _, err := d.ProcessOnce(ctx); err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}
	if len(email.deliveries()) != 1 {
		t.Error("healthy sink was held back by the failing one")
	}
	if pending(t, db) != 0 {
		t.Error("event not marked processed")
	}
	letters, err := db.OutboxRepo().UnresolvedDeadLetters(ctx, 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(letters) != 1 || letters[0].Sink != "sms" || *letters[0].ApplicationID != app.ID {
		t.Fatalf("dead letters = %+v", letters)
	}

	// still failing: attempts grow until the cap hides the letter
	for i := 0; i < 2; i++ {
		if n, err := d.RetryOnce(ctx); err != nil || n != 0 {
			t.Fatalf("RetryOnce = %d, %v", n, err)
		}
	}
	if letters, _ := db.OutboxRepo().UnresolvedDeadLetters(ctx, 3, 10); len(letters) != 0 {
		t.Fatalf("letter still retried after max attempts: %+v", letters)
	}
	if len(email.deliveries()) != 1 {
		t.Error("retry redelivered to a sink that had succeeded")
	}
}

func TestRetryResolvesDeadLetter(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	h := addHackathon(t, db)
	addApplication(t, db, h)
	search := &recordingSink{name: "search"}
	search.fail.Store(true)
	d := New(db, []Sink{search})

	if _, err := d.ProcessOnce(ctx); err != nil {
		t.Fatal(err)
	}
	search.fail.Store(false)
	n, err := d.RetryOnce(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RetryOnce = %d, %v", n, err)
	}
	if len(search.deliveries()) != 1 {
		t.Errorf("search got %d deliveries, want 1", len(search.deliveries()))
	}
	if letters, _ := db.OutboxRepo().UnresolvedDeadLetters(ctx, 5, 10); len(letters) != 0 {
		t.Errorf("resolved letter still listed: %+v", letters)
	}
}

func TestResultsPublishedFansOutToApplications(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	h := addHackathon(t, db)
	first := addApplication(t, db, h)
	second := addApplication(t, db, h)
	sink := &recordingSink{name: "email"}
	d := New(db, []Sink{sink})
	if _, err := d.ProcessOnce(ctx); err != nil {
		t.Fatal(err)
	}

	h.ResultsPublished = true
	published := t0.Add(30 * 24 * time.Hour)
	h.PublishedAt = &published
	event := models.OutboxEvent{Kind: models.EventResultsPublished, HackathonID: h.ID}
	if err := db.HackathonRepo().Save(ctx, h, h.Version, event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := d.ProcessOnce(ctx); err != nil {
		t.Fatal(err)
	}

	seen := map[uuid.UUID]bool{}
	for _, dl := range sink.deliveries() {
		if dl.Event.Kind == models.EventResultsPublished {
			seen[dl.Application.ID] = true
		}
	}
	if !seen[first.ID] || !seen[second.ID] || len(seen) != 2 {
		t.Errorf("results delivered to %v", seen)
	}
}

func TestDeletedApplicationIsDeliveredWithoutState(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	h := addHackathon(t, db)
	app := addApplication(t, db, h)
	event := models.NewApplicationEvent(models.EventApplicationDeleted, app, nil, models.EventDetail{})
	if err := db.ApplicationRepo().Delete(ctx, app.ID, event); err != nil {
		t.Fatal(err)
	}
	sink := &recordingSink{name: "search"}
	if _, err := New(db, []Sink{sink}).ProcessOnce(ctx); err != nil {
		t.Fatal(err)
	}

	got := sink.deliveries()
	if len(got) != 2 {
		t.Fatalf("got %d deliveries, want created and deleted", len(got))
	}
	for _, dl := range got {
		if dl.Application != nil {
			t.Errorf("%s delivered with application state after delete", dl.Event.Kind)
		}
	}
}
