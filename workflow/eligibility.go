package workflow

import (
	"errors"
	"time"

	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
)

// Eligibility is the verdict of CanApply. Reason is nil when Allowed.
type Eligibility struct {
	Allowed bool
	Reason  error
}

// ReasonCode names the blocking reason for API clients, "" when allowed.
func (e Eligibility) ReasonCode() string {
	switch {
	case e.Reason == nil:
		return ""
	case errors.Is(e.Reason, errs.ErrAlreadyApplied):
		return "AlreadyApplied"
	case errors.Is(e.Reason, errs.ErrResultsClosed):
		return "ResultsClosed"
	case errors.Is(e.Reason, errs.ErrRegistrationClosed):
		return "RegistrationClosed"
	}
	return "Unknown"
}

// CanApply decides whether a new application may be created for h at now.
// existing is the caller's application for h, if any, whatever its status.
// The result depends on now and must not be cached.
func CanApply(h *models.Hackathon, existing *models.Application, now time.Time) Eligibility {
	if existing != nil {
		return Eligibility{Reason: errs.NewAlreadyAppliedError()}
	}
	if h.ResultsPublished {
		return Eligibility{Reason: errs.NewResultsClosedError()}
	}
	if deadline := h.RegistrationDeadline(); now.After(deadline) {
		return Eligibility{Reason: errs.NewRegistrationClosedError(deadline)}
	}
	return Eligibility{Allowed: true}
}
