package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/models"
)

// PhaseResult is the committed outcome of a phase operation.
type PhaseResult struct {
	Application *models.Application     `json:"application"`
	Submission  *models.PhaseSubmission `json:"submission"`
}

func phaseResult(app *models.Application, phaseID uuid.UUID) *PhaseResult {
	return &PhaseResult{Application: app, Submission: app.SubmissionFor(phaseID)}
}

// Submit hands in (or re-uploads) content for one phase.
func (s *Service) Submit(ctx context.Context, actor Actor, applicationID, phaseID uuid.UUID, content models.SubmissionContent) (res *PhaseResult, err error) {
	defer s.observe("submit", &err)
	app, _, err := s.mutateApplication(ctx, "submit", applicationID, true,
		func(h *models.Hackathon, app *models.Application, now time.Time) ([]models.OutboxEvent, error) {
			if err := requireApplicantOf(actor, app); err != nil {
				return nil, err
			}
			sub, err := applySubmit(h, app, phaseID, content, now)
			if err != nil {
				return nil, err
			}
			return []models.OutboxEvent{models.NewApplicationEvent(models.EventPhaseSubmitted, app, &phaseID,
				models.EventDetail{Status: string(sub.Status), ReuploadCount: sub.ReuploadCount})}, nil
		})
	if err != nil {
		return nil, err
	}
	return phaseResult(app, phaseID), nil
}

// ReviewPhase records an organizer decision on a pending submission.
func (s *Service) ReviewPhase(ctx context.Context, actor Actor, applicationID, phaseID uuid.UUID, review Review) (res *PhaseResult, err error) {
	defer s.observe("review", &err)
	app, _, err := s.mutateApplication(ctx, "review", applicationID, true,
		func(h *models.Hackathon, app *models.Application, now time.Time) ([]models.OutboxEvent, error) {
			if err := requireOrganizerOf(actor, h); err != nil {
				return nil, err
			}
			sub, err := applyReview(h, app, phaseID, review, now)
			if err != nil {
				return nil, err
			}
			detail := models.EventDetail{Status: string(sub.Status), Score: sub.Score}
			if sub.Remarks != nil {
				detail.Message = *sub.Remarks
			}
			events := []models.OutboxEvent{models.NewApplicationEvent(models.EventPhaseReviewed, app, &phaseID, detail)}
			if app.Status == models.ApplicationRejected {
				events = append(events, models.NewApplicationEvent(models.EventApplicationRejected, app, nil,
					models.EventDetail{Status: string(app.Status), Message: *app.RejectionMessage}))
			}
			return events, nil
		})
	if err != nil {
		return nil, err
	}
	return phaseResult(app, phaseID), nil
}

// RequestReupload sends a pending submission back to the applicant. At most
// MaxReuploadRequests are ever granted per submission, however many callers race.
func (s *Service) RequestReupload(ctx context.Context, actor Actor, applicationID, phaseID uuid.UUID, message string) (res *PhaseResult, err error) {
	defer s.observe("request_reupload", &err)
	app, _, err := s.mutateApplication(ctx, "request_reupload", applicationID, true,
		func(h *models.Hackathon, app *models.Application, now time.Time) ([]models.OutboxEvent, error) {
			if err := requireOrganizerOf(actor, h); err != nil {
				return nil, err
			}
			sub, err := applyReuploadRequest(h, app, phaseID, message, now)
			if err != nil {
				return nil, err
			}
			return []models.OutboxEvent{models.NewApplicationEvent(models.EventPhaseReuploadRequested, app, &phaseID,
				models.EventDetail{Status: string(sub.Status), Message: *sub.Remarks, ReuploadCount: sub.ReuploadCount})}, nil
		})
	if err != nil {
		return nil, err
	}
	return phaseResult(app, phaseID), nil
}

// CheckUpload verifies that actor may upload a file for phaseID of the
// application right now, before a storage URL is handed out.
func (s *Service) CheckUpload(ctx context.Context, actor Actor, applicationID, phaseID uuid.UUID) error {
	app, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if err := requireApplicantOf(actor, app); err != nil {
		return err
	}
	h, err := s.hackathons.FindByID(ctx, app.HackathonID)
	if err != nil {
		return err
	}
	_, err = submittable(h, app, phaseID)
	return err
}
