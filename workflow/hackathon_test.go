package workflow

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
)

func TestValidateHackathon(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(h *models.Hackathon)
		field  string
	}{
		{"valid", func(*models.Hackathon) {}, ""},
		{"missing title", func(h *models.Hackathon) { h.Title = " " }, "title"},
		{"team bounds", func(h *models.Hackathon) { h.MaxTeamSize = 1 }, "maxTeamSize"},
		{"no phases", func(h *models.Hackathon) { h.Phases = nil }, "phases"},
		{"registration after first deadline", func(h *models.Hackathon) { h.RegistrationEndDate = t0.Add(8 * day) }, "registrationEndDate"},
		{"deadlines out of order", func(h *models.Hackathon) { h.Phases[1].Deadline = t0.Add(6 * day) }, "phases[1].deadline"},
		{"offline without venue", func(h *models.Hackathon) { h.Phases[2].Venue = nil }, "phases[2].venue"},
		{"offline without reporting time", func(h *models.Hackathon) { h.Phases[2].ReportingTime = nil }, "phases[2].reportingTime"},
		{"unknown mode", func(h *models.Hackathon) { h.Phases[0].Mode = "Remote" }, "phases[0].mode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := testHackathon()
			tc.mutate(h)
			err := ValidateHackathon(h)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var apiErr *errs.ApiErr
			if !errors.As(err, &apiErr) || apiErr.Field != tc.field {
				t.Fatalf("got %v, want field %q", err, tc.field)
			}
		})
	}
}

func TestCreateHackathonOwnership(t *testing.T) {
	f := newFixture(t)
	if f.hackathon.OrganizerID != f.organizer.UserID {
		t.Fatalf("organizer not recorded")
	}
	for i, p := range f.hackathon.Phases {
		if p.Position != i || p.HackathonID != f.hackathon.ID {
			t.Fatalf("phase %d not linked: %+v", i, p)
		}
	}
	if _, err := f.svc.CreateHackathon(f.ctx, newApplicant(), testHackathon()); !errs.IsInsufficientRoleError(err) {
		t.Fatalf("applicant created hackathon: %v", err)
	}

	verdict, err := f.svc.CheckEligibility(f.ctx, newApplicant(), f.hackathon.ID)
	if err != nil || !verdict.Allowed {
		t.Fatalf("CheckEligibility = %+v, %v", verdict, err)
	}
}

func TestOrganizedHackathon(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.OrganizedHackathon(f.ctx, f.organizer, f.hackathon.ID); err != nil {
		t.Fatalf("own hackathon: %v", err)
	}
	other := Actor{UserID: uuid.New(), Role: RoleOrganizer}
	if _, err := f.svc.OrganizedHackathon(f.ctx, other, f.hackathon.ID); !errs.IsForbidden(err) {
		t.Fatalf("other organizer: %v", err)
	}
	if _, err := f.svc.OrganizedHackathon(f.ctx, newApplicant(), f.hackathon.ID); !errs.IsForbidden(err) {
		t.Fatalf("applicant: %v", err)
	}
}
