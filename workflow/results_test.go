package workflow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
)

func TestFinalizeResultsClosesWorkflow(t *testing.T) {
	f := newFixture(t)
	applicant := newApplicant()
	app := f.apply(t, applicant)
	f.submit(t, applicant, app.ID, 0)

	if _, err := f.svc.GetResults(f.ctx, f.hackathon.ID); !errs.IsInvalidStateError(err) {
		t.Fatalf("results before publish: %v", err)
	}

	payload := models.ResultsPayload{
		Announcement: "Congratulations to all teams",
		Placements:   []models.Placement{{ApplicationID: app.ID, Rank: 1, Prize: "Gold"}},
	}
	h, err := f.svc.FinalizeResults(f.ctx, f.organizer, f.hackathon.ID, payload)
	if err != nil {
		t.Fatalf("FinalizeResults: %v", err)
	}
	if !h.ResultsPublished || h.PublishedAt == nil {
		t.Fatalf("hackathon not published: %+v", h)
	}

	score := 90
	if _, err := f.svc.ReviewPhase(f.ctx, f.organizer, app.ID, f.phase(0), Review{Decision: models.SubmissionAccepted, Score: &score}); !errs.IsResultsClosedError(err) {
		t.Fatalf("review after publish: %v", err)
	}
	if _, err := f.svc.RequestReupload(f.ctx, f.organizer, app.ID, f.phase(0), "x"); !errs.IsResultsClosedError(err) {
		t.Fatalf("reupload after publish: %v", err)
	}
	if _, err := f.svc.RejectApplication(f.ctx, f.organizer, app.ID, "x"); !errs.IsResultsClosedError(err) {
		t.Fatalf("reject after publish: %v", err)
	}
	if _, err := f.svc.CreateApplication(f.ctx, newApplicant(), f.hackathon.ID, individual()); !errs.IsResultsClosedError(err) {
		t.Fatalf("apply after publish: %v", err)
	}

	res, err := f.svc.GetResults(f.ctx, f.hackathon.ID)
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if res.Announcement != payload.Announcement || len(res.Placements) != 1 || res.Placements[0].Rank != 1 {
		t.Fatalf("unexpected results %+v", res)
	}
	if !res.PublishedAt.Equal(t0) {
		t.Fatalf("publishedAt = %v", res.PublishedAt)
	}

	again, err := f.svc.FinalizeResults(f.ctx, f.organizer, f.hackathon.ID, models.ResultsPayload{Announcement: "changed"})
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	if again.Version != h.Version {
		t.Fatalf("second finalize wrote a new version")
	}
	if n := len(f.store.eventsOf(models.EventResultsPublished)); n != 1 {
		t.Fatalf("published events = %d", n)
	}
}

func TestFinalizeResultsValidation(t *testing.T) {
	f := newFixture(t)
	a := f.apply(t, newApplicant())
	b := f.apply(t, newApplicant())
	rejected := f.apply(t, newApplicant())
	if _, err := f.svc.RejectApplication(f.ctx, f.organizer, rejected.ID, "late"); err != nil {
		t.Fatal(err)
	}

	cases := map[string][]models.Placement{
		"duplicate rank":     {{ApplicationID: a.ID, Rank: 1}, {ApplicationID: b.ID, Rank: 1}},
		"zero rank":          {{ApplicationID: a.ID, Rank: 0}},
		"unknown":            {{ApplicationID: uuid.New(), Rank: 1}},
		"rejected":           {{ApplicationID: rejected.ID, Rank: 1}},
		"application placed": {{ApplicationID: a.ID, Rank: 1}, {ApplicationID: a.ID, Rank: 2}},
	}
	for name, placements := range cases {
		_, err := f.svc.FinalizeResults(f.ctx, f.organizer, f.hackathon.ID, models.ResultsPayload{Placements: placements})
		if !errs.IsValidationError(err) {
			t.Errorf("%s: %v", name, err)
		}
	}

	if _, err := f.svc.FinalizeResults(f.ctx, newApplicant(), f.hackathon.ID, models.ResultsPayload{}); !errs.IsForbidden(err) {
		t.Fatalf("applicant finalize: %v", err)
	}
	h, _ := memHackathons{f.store}.FindByID(f.ctx, f.hackathon.ID)
	if h.ResultsPublished {
		t.Fatalf("failed finalize published results")
	}
}

// A transition that read its snapshot before results were published must not
// commit afterwards.
func TestWriteRacingFinalizeIsRefused(t *testing.T) {
	f := newFixture(t)
	applicant := newApplicant()
	app := f.apply(t, applicant)
	f.submit(t, applicant, app.ID, 0)

	published := false
	f.store.beforeSave = func() {
		if published {
			return
		}
		published = true
		f.store.mu.Lock()
		f.store.hackathons[f.hackathon.ID].ResultsPublished = true
		f.store.mu.Unlock()
	}

	_, err := f.svc.RequestReupload(f.ctx, f.organizer, app.ID, f.phase(0), "resend")
	if !errs.IsResultsClosedError(err) {
		t.Fatalf("expected ResultsClosed, got %v", err)
	}
	if got := f.stored(t, app.ID).PhaseState(f.phase(0)); got != models.SubmissionPending {
		t.Fatalf("state = %s", got)
	}
}

func TestPublishShowcase(t *testing.T) {
	f := newFixture(t)
	applicant := newApplicant()
	app := f.apply(t, applicant)

	for i := range f.hackathon.Phases {
		f.submit(t, applicant, app.ID, i)
		if _, err := f.svc.PublishShowcase(f.ctx, applicant, app.ID); !errs.IsInvalidStateError(err) {
			t.Fatalf("showcase before results (phase %d): %v", i, err)
		}
		f.accept(t, app.ID, i)
	}

	if _, err := f.svc.FinalizeResults(f.ctx, f.organizer, f.hackathon.ID, models.ResultsPayload{Announcement: "done"}); err != nil {
		t.Fatalf("FinalizeResults: %v", err)
	}
	if _, err := f.svc.PublishShowcase(f.ctx, newApplicant(), app.ID); !errs.IsForbidden(err) {
		t.Fatalf("stranger showcase: %v", err)
	}

	got, err := f.svc.PublishShowcase(f.ctx, applicant, app.ID)
	if err != nil {
		t.Fatalf("PublishShowcase: %v", err)
	}
	if !got.Showcased {
		t.Fatalf("application not showcased")
	}
	if _, err := f.svc.PublishShowcase(f.ctx, applicant, app.ID); err != nil {
		t.Fatalf("repeat showcase: %v", err)
	}
	if n := len(f.store.eventsOf(models.EventApplicationShowcased)); n != 1 {
		t.Fatalf("showcase events = %d", n)
	}
}

func TestPublishShowcaseNeedsEveryPhaseAccepted(t *testing.T) {
	f := newFixture(t)
	applicant := newApplicant()
	app := f.apply(t, applicant)
	f.submit(t, applicant, app.ID, 0)
	f.accept(t, app.ID, 0)

	if _, err := f.svc.FinalizeResults(f.ctx, f.organizer, f.hackathon.ID, models.ResultsPayload{}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.PublishShowcase(f.ctx, applicant, app.ID); !errs.IsInvalidStateError(err) {
		t.Fatalf("partial acceptance: %v", err)
	}
}

func TestFinalizeResultsReadsCurrentApplications(t *testing.T) {
	f := newFixture(t)
	app := f.apply(t, newApplicant())
	before := f.stored(t, app.ID)

	if _, err := f.svc.RejectApplication(f.ctx, f.organizer, app.ID, "incomplete"); err != nil {
		t.Fatalf("RejectApplication: %v", err)
	}
	// the replica has not caught up with the rejection yet
	f.store.mu.Lock()
	f.store.replicaApps = []*models.Application{before}
	f.store.mu.Unlock()

	listed, err := f.svc.ListApplications(f.ctx, f.organizer, f.hackathon.ID)
	if err != nil || len(listed) != 1 || listed[0].Status != models.ApplicationActive {
		t.Fatalf("replica listing = %v, %v", listed, err)
	}

	payload := models.ResultsPayload{Placements: []models.Placement{{ApplicationID: app.ID, Rank: 1}}}
	if _, err := f.svc.FinalizeResults(f.ctx, f.organizer, f.hackathon.ID, payload); !errs.IsValidationError(err) {
		t.Fatalf("placing a rejected application: %v", err)
	}
}
