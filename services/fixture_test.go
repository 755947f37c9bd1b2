package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/models"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testHackathon() *models.Hackathon {
	hid := uuid.New()
	return &models.Hackathon{
		ID:    hid,
		Title: "Build for Bharat",
		Phases: []models.Phase{
			{ID: uuid.New(), HackathonID: hid, Position: 0, Name: "Ideation", Deadline: t0.Add(7 * 24 * time.Hour), Mode: models.PhaseModeOnline},
			{ID: uuid.New(), HackathonID: hid, Position: 1, Name: "Prototype", Deadline: t0.Add(14 * 24 * time.Hour), Mode: models.PhaseModeOnline},
		},
	}
}

func teamApplication(t *testing.T, h *models.Hackathon) *models.Application {
	t.Helper()
	app := &models.Application{
		ID:          uuid.New(),
		HackathonID: h.ID,
		ApplicantID: uuid.New(),
		Status:      models.ApplicationActive,
		AppliedAt:   t0,
		UpdatedAt:   t0,
	}
	err := app.SetPayload(models.TeamPayload{
		TeamName: "Null Pointers",
		TeamSize: 2,
		Members: []models.TeamMember{
			{Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210"},
			{Name: "Vikram Shah", Email: "vikram@example.com", Phone: "9123456780"},
		},
	})
	if err != nil {
		t.Fatalf("SetPayload: %v", err)
	}
	return app
}

func delivery(h *models.Hackathon, app *models.Application, kind models.EventKind, phaseID *uuid.UUID, detail models.EventDetail) Delivery {
	return Delivery{
		Event:       models.NewApplicationEvent(kind, app, phaseID, detail),
		Hackathon:   h,
		Application: app,
	}
}
