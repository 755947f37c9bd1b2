package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
)

// CreateApplication registers actor for a hackathon. The eligibility check
// and the insert are serialized per (hackathon, applicant); the store's
// unique index backs this up across processes.
func (s *Service) CreateApplication(ctx context.Context, actor Actor, hackathonID uuid.UUID, payload models.ApplicationPayload) (app *models.Application, err error) {
	defer s.observe("create_application", &err)
	if err := requireRole(actor, RoleApplicant); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock("apply:" + hackathonID.String() + ":" + actor.UserID.String())
	defer unlock()

	h, err := s.hackathons.FindByID(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	existing, err := s.applications.FindByHackathonAndApplicant(ctx, hackathonID, actor.UserID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if verdict := CanApply(h, existing, now); !verdict.Allowed {
		return nil, verdict.Reason
	}

	normalized, err := ValidatePayload(h, payload)
	if err != nil {
		return nil, err
	}

	app = &models.Application{
		ID:          uuid.New(),
		HackathonID: hackathonID,
		ApplicantID: actor.UserID,
		Status:      models.ApplicationActive,
		AppliedAt:   now,
	}
	if err := app.SetPayload(normalized); err != nil {
		return nil, errs.NewInternalErrorWithCause("failed to encode application payload", err)
	}
	if first := h.FirstPhase(); first != nil {
		id := first.ID
		app.CurrentPhaseID = &id
	}

	event := models.NewApplicationEvent(models.EventApplicationCreated, app, nil,
		models.EventDetail{Status: string(models.ApplicationActive)})
	if err := s.applications.Add(ctx, app, event); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("hackathonId", hackathonID.String()).
		Str("applicationId", app.ID.String()).
		Str("mode", string(app.Mode)).
		Msg("application created")
	s.bestEffort(ctx, "count hackathon view", hackathonID, s.hackathons.IncrementViews)
	return app, nil
}

// RejectApplication lets the organizer reject an ACTIVE application.
func (s *Service) RejectApplication(ctx context.Context, actor Actor, applicationID uuid.UUID, message string) (app *models.Application, err error) {
	defer s.observe("reject_application", &err)
	app, _, err = s.mutateApplication(ctx, "reject_application", applicationID, true,
		func(h *models.Hackathon, app *models.Application, _ time.Time) ([]models.OutboxEvent, error) {
			if err := requireOrganizerOf(actor, h); err != nil {
				return nil, err
			}
			if err := applyReject(h, app, message); err != nil {
				return nil, err
			}
			return []models.OutboxEvent{models.NewApplicationEvent(models.EventApplicationRejected, app, nil,
				models.EventDetail{Status: string(app.Status), Message: *app.RejectionMessage})}, nil
		})
	return app, err
}

// DeleteApplication removes an application and every phase submission it owns.
func (s *Service) DeleteApplication(ctx context.Context, actor Actor, applicationID uuid.UUID) (err error) {
	defer s.observe("delete_application", &err)

	unlock := s.locks.Lock("application:" + applicationID.String())
	defer unlock()

	app, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		return err
	}
	h, err := s.hackathons.FindByID(ctx, app.HackathonID)
	if err != nil {
		return err
	}
	if err := requireOrganizerOf(actor, h); err != nil {
		return err
	}
	event := models.NewApplicationEvent(models.EventApplicationDeleted, app, nil,
		models.EventDetail{Status: string(app.Status)})
	if err := s.applications.Delete(ctx, applicationID, event); err != nil {
		return err
	}
	s.logger.Info().Str("applicationId", applicationID.String()).Msg("application deleted")
	return nil
}

// GetApplication returns an application to its owner or to the hackathon
// organizer. Organizer views are counted.
func (s *Service) GetApplication(ctx context.Context, actor Actor, applicationID uuid.UUID) (*models.Application, error) {
	app, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor.Role == RoleApplicant && app.ApplicantID == actor.UserID {
		return app, nil
	}
	h, err := s.hackathons.FindByID(ctx, app.HackathonID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizerOf(actor, h); err != nil {
		return nil, errs.NewForbiddenError("you may not view this application")
	}
	s.bestEffort(ctx, "count application view", applicationID, s.applications.IncrementViews)
	return app, nil
}

// ListApplications returns every application of a hackathon to its organizer.
func (s *Service) ListApplications(ctx context.Context, actor Actor, hackathonID uuid.UUID) ([]*models.Application, error) {
	h, err := s.hackathons.FindByID(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizerOf(actor, h); err != nil {
		return nil, err
	}
	return s.applications.FindByHackathon(ctx, hackathonID)
}

// ListMyApplications returns the caller's own applications.
func (s *Service) ListMyApplications(ctx context.Context, actor Actor) ([]*models.Application, error) {
	if err := requireRole(actor, RoleApplicant); err != nil {
		return nil, err
	}
	return s.applications.FindByApplicant(ctx, actor.UserID)
}
