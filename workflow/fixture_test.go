package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/clock"
	"github.com/rpupo63/hackathon-review-backend/models"
	"github.com/rs/zerolog"
)

var t0 = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

type fixture struct {
	ctx       context.Context
	store     *memStore
	clock     *clock.FakeClock
	svc       *Service
	organizer Actor
	hackathon *models.Hackathon
}

func newService(store *memStore, clk clock.Clock) *Service {
	return New(memHackathons{store}, memApplications{store}, WithClock(clk), WithLogger(zerolog.Nop()))
}

func testHackathon() *models.Hackathon {
	venue := "Main Hall"
	reporting := t0.Add(21*day - 2*time.Hour)
	return &models.Hackathon{
		Title:               "Spring Build Week",
		MinTeamSize:         2,
		MaxTeamSize:         4,
		AllowIndividual:     true,
		RegistrationEndDate: t0.Add(day),
		Phases: []models.Phase{
			{Name: "Ideation", Deadline: t0.Add(7 * day), Mode: models.PhaseModeOnline},
			{Name: "Prototype", Deadline: t0.Add(14 * day), Mode: models.PhaseModeOnline},
			{Name: "Finale", Deadline: t0.Add(21 * day), Mode: models.PhaseModeOffline, Venue: &venue, ReportingTime: &reporting},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	clk := clock.Fake(t0)
	f := &fixture{
		ctx:       context.Background(),
		store:     store,
		clock:     clk,
		svc:       newService(store, clk),
		organizer: Actor{UserID: uuid.New(), Role: RoleOrganizer},
	}
	h, err := f.svc.CreateHackathon(f.ctx, f.organizer, testHackathon())
	if err != nil {
		t.Fatalf("CreateHackathon: %v", err)
	}
	f.hackathon = h
	return f
}

func (f *fixture) phase(i int) uuid.UUID {
	return f.hackathon.Phases[i].ID
}

func newApplicant() Actor {
	return Actor{UserID: uuid.New(), Role: RoleApplicant}
}

func individual() models.IndividualPayload {
	return models.IndividualPayload{
		Name:           "Asha Rao",
		Email:          " Asha.Rao@Example.com ",
		Phone:          "(987) 654-3210",
		Qualifications: "B.Tech, 2 hackathons",
	}
}

func team(size int, phones ...string) models.TeamPayload {
	p := models.TeamPayload{TeamName: "Null Pointers", TeamSize: size}
	for i, phone := range phones {
		p.Members = append(p.Members, models.TeamMember{
			Name:  "Member",
			Email: "member" + string(rune('a'+i)) + "@example.com",
			Phone: phone,
		})
	}
	return p
}

func (f *fixture) apply(t *testing.T, actor Actor) *models.Application {
	t.Helper()
	app, err := f.svc.CreateApplication(f.ctx, actor, f.hackathon.ID, individual())
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	return app
}

func statement(s string) models.SubmissionContent {
	return models.SubmissionContent{Statement: s}
}

func (f *fixture) submit(t *testing.T, actor Actor, appID uuid.UUID, phase int) *PhaseResult {
	t.Helper()
	res, err := f.svc.Submit(f.ctx, actor, appID, f.phase(phase), statement("our idea"))
	if err != nil {
		t.Fatalf("Submit phase %d: %v", phase, err)
	}
	return res
}

func (f *fixture) accept(t *testing.T, appID uuid.UUID, phase int) *PhaseResult {
	t.Helper()
	score := 80
	res, err := f.svc.ReviewPhase(f.ctx, f.organizer, appID, f.phase(phase), Review{Decision: models.SubmissionAccepted, Score: &score})
	if err != nil {
		t.Fatalf("ReviewPhase phase %d: %v", phase, err)
	}
	return res
}

func (f *fixture) stored(t *testing.T, appID uuid.UUID) *models.Application {
	t.Helper()
	app, err := memApplications{f.store}.FindByID(f.ctx, appID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	return app
}
