package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
)

// ValidateHackathon checks a hackathon definition before it is stored.
// Phases must already be in their intended order.
func ValidateHackathon(h *models.Hackathon) error {
	if strings.TrimSpace(h.Title) == "" {
		return errs.NewValidationError("title", "is required")
	}
	if h.MinTeamSize < 1 {
		return errs.NewValidationError("minTeamSize", "must be at least 1")
	}
	if h.MaxTeamSize < h.MinTeamSize {
		return errs.NewValidationError("maxTeamSize", "must not be below minTeamSize")
	}
	if h.RegistrationEndDate.IsZero() {
		return errs.NewValidationError("registrationEndDate", "is required")
	}
	if len(h.Phases) == 0 {
		return errs.NewValidationError("phases", "at least one phase is required")
	}
	if !h.RegistrationEndDate.Before(h.Phases[0].Deadline) {
		return errs.NewValidationError("registrationEndDate", "must be before the first phase deadline")
	}
	for i, p := range h.Phases {
		field := func(name string) string { return fmt.Sprintf("phases[%d].%s", i, name) }
		if strings.TrimSpace(p.Name) == "" {
			return errs.NewValidationError(field("name"), "is required")
		}
		if p.Deadline.IsZero() {
			return errs.NewValidationError(field("deadline"), "is required")
		}
		if i > 0 && p.Deadline.Before(h.Phases[i-1].Deadline) {
			return errs.NewValidationError(field("deadline"), "must not precede the previous phase deadline")
		}
		if !p.Mode.Valid() {
			return errs.NewValidationError(field("mode"), "must be Online, Offline or Hybrid")
		}
		if p.Mode != models.PhaseModeOnline {
			if p.Venue == nil || strings.TrimSpace(*p.Venue) == "" {
				return errs.NewValidationError(field("venue"), "is required for in-person phases")
			}
			if p.ReportingTime == nil {
				return errs.NewValidationError(field("reportingTime"), "is required for in-person phases")
			}
		}
	}
	return nil
}

// CreateHackathon stores a new hackathon owned by the calling organizer.
func (s *Service) CreateHackathon(ctx context.Context, actor Actor, h *models.Hackathon) (out *models.Hackathon, err error) {
	defer s.observe("create_hackathon", &err)
	if err := requireRole(actor, RoleOrganizer); err != nil {
		return nil, err
	}
	h.ID = uuid.New()
	h.OrganizerID = actor.UserID
	h.ResultsPublished = false
	h.PublishedAt = nil
	h.Results = nil
	h.Views = 0
	h.Version = 0
	for i := range h.Phases {
		h.Phases[i].ID = uuid.New()
		h.Phases[i].HackathonID = h.ID
		h.Phases[i].Position = i
	}
	if err := ValidateHackathon(h); err != nil {
		return nil, err
	}
	if err := s.hackathons.Add(ctx, h); err != nil {
		return nil, err
	}
	s.logger.Info().Str("hackathonId", h.ID.String()).Int("phases", len(h.Phases)).Msg("hackathon created")
	return h, nil
}

// GetHackathon loads one hackathon with its ordered phases.
func (s *Service) GetHackathon(ctx context.Context, id uuid.UUID) (*models.Hackathon, error) {
	return s.hackathons.FindByID(ctx, id)
}

// ListHackathons returns every hackathon.
func (s *Service) ListHackathons(ctx context.Context) ([]*models.Hackathon, error) {
	return s.hackathons.FindAll(ctx)
}

// OrganizedHackathon loads a hackathon for its own organizer only.
func (s *Service) OrganizedHackathon(ctx context.Context, actor Actor, hackathonID uuid.UUID) (*models.Hackathon, error) {
	h, err := s.hackathons.FindByID(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizerOf(actor, h); err != nil {
		return nil, err
	}
	return h, nil
}

// CheckEligibility reports whether actor may apply to the hackathon right now.
func (s *Service) CheckEligibility(ctx context.Context, actor Actor, hackathonID uuid.UUID) (Eligibility, error) {
	if err := requireRole(actor, RoleApplicant); err != nil {
		return Eligibility{}, err
	}
	h, err := s.hackathons.FindByID(ctx, hackathonID)
	if err != nil {
		return Eligibility{}, err
	}
	existing, err := s.applications.FindByHackathonAndApplicant(ctx, hackathonID, actor.UserID)
	if err != nil {
		return Eligibility{}, err
	}
	return CanApply(h, existing, s.clock.Now()), nil
}
