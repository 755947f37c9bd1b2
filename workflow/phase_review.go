package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
)

// Review is an organizer's verdict on a pending phase submission.
type Review struct {
	Decision models.SubmissionStatus
	Score    *int
	Remarks  *string
}

// currentIndex is the index of the furthest unlocked phase.
func currentIndex(h *models.Hackathon, app *models.Application) int {
	if app.CurrentPhaseID == nil {
		return 0
	}
	if i := h.PhaseIndex(*app.CurrentPhaseID); i >= 0 {
		return i
	}
	return 0
}

func phaseIndex(h *models.Hackathon, phaseID uuid.UUID) (int, error) {
	i := h.PhaseIndex(phaseID)
	if i < 0 {
		return -1, errs.NewNotFound("phase")
	}
	return i, nil
}

func normalizeContent(c models.SubmissionContent) models.SubmissionContent {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		if v == "" {
			return nil
		}
		return &v
	}
	return models.SubmissionContent{
		Statement: strings.TrimSpace(c.Statement),
		Link:      trim(c.Link),
		FileKey:   trim(c.FileKey),
	}
}

// submittable reports the current state of phaseID if content may be
// handed in for it now.
func submittable(h *models.Hackathon, app *models.Application, phaseID uuid.UUID) (models.SubmissionStatus, error) {
	if app.Status != models.ApplicationActive {
		return "", errs.NewApplicationRejectedError()
	}
	if h.ResultsPublished {
		return "", errs.NewResultsClosedError()
	}
	idx, err := phaseIndex(h, phaseID)
	if err != nil {
		return "", err
	}
	if idx > currentIndex(h, app) {
		return "", errs.NewInvalidStateError("phase is not unlocked yet")
	}

	state := app.PhaseState(phaseID)
	if state != models.SubmissionNone && state != models.SubmissionReuploadRequested {
		return "", errs.NewInvalidStateError(fmt.Sprintf("phase submission is %s", state))
	}
	return state, nil
}

// applySubmit records content for phaseID on app. A fresh phase gets a new
// PENDING submission; a phase awaiting re-upload is overwritten in place and
// keeps its reuploadCount.
func applySubmit(h *models.Hackathon, app *models.Application, phaseID uuid.UUID, content models.SubmissionContent, now time.Time) (*models.PhaseSubmission, error) {
	state, err := submittable(h, app, phaseID)
	if err != nil {
		return nil, err
	}

	content = normalizeContent(content)
	if content.Empty() {
		return nil, errs.NewValidationError("content", "a statement, link or file is required")
	}
	if content.FileKey != nil && !strings.HasPrefix(*content.FileKey, models.SubmissionKeyPrefix(app.ID, phaseID)) {
		return nil, errs.NewValidationError("content.fileKey", "file was not uploaded for this phase submission")
	}

	if state == models.SubmissionNone {
		app.Submissions = append(app.Submissions, models.PhaseSubmission{
			ID:            uuid.New(),
			ApplicationID: app.ID,
			PhaseID:       phaseID,
			Content:       content,
			SubmittedAt:   now,
			Status:        models.SubmissionPending,
		})
		return &app.Submissions[len(app.Submissions)-1], nil
	}

	sub := app.SubmissionFor(phaseID)
	sub.Content = content
	sub.SubmittedAt = now
	sub.Status = models.SubmissionPending
	sub.IsReuploaded = true
	sub.Score = nil
	sub.ReviewedAt = nil
	return sub, nil
}

// applyReview decides a PENDING submission. Rejecting a phase rejects the
// whole application; accepting the current phase unlocks the next one.
func applyReview(h *models.Hackathon, app *models.Application, phaseID uuid.UUID, r Review, now time.Time) (*models.PhaseSubmission, error) {
	if h.ResultsPublished {
		return nil, errs.NewResultsClosedError()
	}
	if app.Status != models.ApplicationActive {
		return nil, errs.NewApplicationRejectedError()
	}
	idx, err := phaseIndex(h, phaseID)
	if err != nil {
		return nil, err
	}
	if r.Decision != models.SubmissionAccepted && r.Decision != models.SubmissionRejected {
		return nil, errs.NewValidationError("status", "must be ACCEPTED or REJECTED")
	}
	if r.Score == nil {
		return nil, errs.NewValidationError("score", "is required")
	}
	if *r.Score < 0 || *r.Score > 100 {
		return nil, errs.NewValidationError("score", "must be between 0 and 100")
	}

	sub := app.SubmissionFor(phaseID)
	if sub == nil || sub.Status != models.SubmissionPending {
		return nil, errs.NewInvalidStateError(fmt.Sprintf("phase submission is %s", app.PhaseState(phaseID)))
	}

	score := *r.Score
	sub.Status = r.Decision
	sub.Score = &score
	sub.Remarks = nil
	if r.Remarks != nil {
		remarks := strings.TrimSpace(*r.Remarks)
		sub.Remarks = &remarks
	}
	sub.ReviewedAt = &now

	switch r.Decision {
	case models.SubmissionRejected:
		msg := fmt.Sprintf("Not selected after %s", h.Phases[idx].Name)
		if sub.Remarks != nil && *sub.Remarks != "" {
			msg = *sub.Remarks
		}
		app.Status = models.ApplicationRejected
		app.RejectionMessage = &msg
	case models.SubmissionAccepted:
		if next := h.NextPhase(phaseID); next != nil && idx >= currentIndex(h, app) {
			id := next.ID
			app.CurrentPhaseID = &id
		}
	}
	return sub, nil
}

// applyReuploadRequest sends a PENDING submission back to the applicant.
// The ceiling is checked before the state so that a request past the limit
// is always reported as such.
func applyReuploadRequest(h *models.Hackathon, app *models.Application, phaseID uuid.UUID, message string, now time.Time) (*models.PhaseSubmission, error) {
	if h.ResultsPublished {
		return nil, errs.NewResultsClosedError()
	}
	if app.Status != models.ApplicationActive {
		return nil, errs.NewApplicationRejectedError()
	}
	if _, err := phaseIndex(h, phaseID); err != nil {
		return nil, err
	}

	sub := app.SubmissionFor(phaseID)
	count := 0
	if sub != nil {
		count = sub.ReuploadCount
	}
	if err := CheckReupload(count); err != nil {
		return nil, err
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errs.NewValidationError("message", "is required")
	}
	if sub == nil || sub.Status != models.SubmissionPending {
		return nil, errs.NewInvalidStateError(fmt.Sprintf("phase submission is %s", app.PhaseState(phaseID)))
	}

	sub.ReuploadCount = count + 1
	sub.Status = models.SubmissionReuploadRequested
	sub.Remarks = &message
	sub.ReviewedAt = &now
	return sub, nil
}

// applyReject rejects an ACTIVE application with an organizer message.
func applyReject(h *models.Hackathon, app *models.Application, message string) error {
	if h.ResultsPublished {
		return errs.NewResultsClosedError()
	}
	if app.Status != models.ApplicationActive {
		return errs.NewInvalidStateError("application is already rejected")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		e := errs.NewInvalidStateError("a rejection message is required")
		e.Field = "rejectionMessage"
		return e
	}
	app.Status = models.ApplicationRejected
	app.RejectionMessage = &message
	return nil
}

// applyShowcase marks a fully accepted application as publicly showcased.
// It reports whether anything changed.
func applyShowcase(h *models.Hackathon, app *models.Application) (bool, error) {
	if !h.ResultsPublished {
		return false, errs.NewInvalidStateError("results have not been published yet")
	}
	if app.Status != models.ApplicationActive {
		return false, errs.NewApplicationRejectedError()
	}
	for _, p := range h.Phases {
		if app.PhaseState(p.ID) != models.SubmissionAccepted {
			return false, errs.NewInvalidStateError(fmt.Sprintf("phase %q was not accepted", p.Name))
		}
	}
	if app.Showcased {
		return false, nil
	}
	app.Showcased = true
	return true, nil
}
