package workflow

import (
	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
)

// Role is the capability a caller acts with.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleOrganizer Role = "organizer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleApplicant || r == RoleOrganizer
}

// Actor is the request-scoped identity every workflow operation receives.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

func requireRole(actor Actor, role Role) error {
	if actor.Role != role {
		return errs.NewInsufficientRoleError(string(role))
	}
	return nil
}

func requireOrganizerOf(actor Actor, h *models.Hackathon) error {
	if err := requireRole(actor, RoleOrganizer); err != nil {
		return err
	}
	if h.OrganizerID != actor.UserID {
		return errs.NewForbiddenError("only the organizer of this hackathon may do this")
	}
	return nil
}

func requireApplicantOf(actor Actor, app *models.Application) error {
	if err := requireRole(actor, RoleApplicant); err != nil {
		return err
	}
	if app.ApplicantID != actor.UserID {
		return errs.NewForbiddenError("only the owner of this application may do this")
	}
	return nil
}
