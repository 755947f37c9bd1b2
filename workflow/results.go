package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/metrics"
	"github.com/rpupo63/hackathon-review-backend/models"
	"gorm.io/datatypes"
)

// Results is the published outcome of a hackathon.
type Results struct {
	HackathonID  uuid.UUID          `json:"hackathonId"`
	PublishedAt  time.Time          `json:"publishedAt"`
	Announcement string             `json:"announcement"`
	Placements   []models.Placement `json:"placements"`
}

func validateResults(payload models.ResultsPayload, apps []*models.Application) error {
	active := make(map[uuid.UUID]bool, len(apps))
	for _, a := range apps {
		active[a.ID] = a.Status == models.ApplicationActive
	}
	ranks := make(map[int]bool, len(payload.Placements))
	placed := make(map[uuid.UUID]bool, len(payload.Placements))
	for i, p := range payload.Placements {
		field := func(name string) string { return fmt.Sprintf("placements[%d].%s", i, name) }
		if p.Rank < 1 {
			return errs.NewValidationError(field("rank"), "must be a positive integer")
		}
		if ranks[p.Rank] {
			return errs.NewValidationError(field("rank"), fmt.Sprintf("rank %d is used twice", p.Rank))
		}
		isActive, known := active[p.ApplicationID]
		if !known {
			return errs.NewValidationError(field("applicationId"), "does not belong to this hackathon")
		}
		if !isActive {
			return errs.NewValidationError(field("applicationId"), "application has been rejected")
		}
		if placed[p.ApplicationID] {
			return errs.NewValidationError(field("applicationId"), "application is placed twice")
		}
		ranks[p.Rank] = true
		placed[p.ApplicationID] = true
	}
	return nil
}

// FinalizeResults publishes results and freezes the hackathon. Once it
// commits, every later write on the hackathon's applications fails with
// ResultsClosed. Calling it again returns the already published hackathon.
func (s *Service) FinalizeResults(ctx context.Context, actor Actor, hackathonID uuid.UUID, payload models.ResultsPayload) (out *models.Hackathon, err error) {
	defer s.observe("finalize_results", &err)

	unlock := s.locks.Lock("hackathon:" + hackathonID.String())
	defer unlock()

	payload.Announcement = strings.TrimSpace(payload.Announcement)
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		h, err := s.hackathons.FindByID(ctx, hackathonID)
		if err != nil {
			return nil, err
		}
		if err := requireOrganizerOf(actor, h); err != nil {
			return nil, err
		}
		if h.ResultsPublished {
			s.logger.Info().Str("hackathonId", hackathonID.String()).Msg("results already published")
			return h, nil
		}

		apps, err := s.applications.FindCurrentByHackathon(ctx, hackathonID)
		if err != nil {
			return nil, err
		}
		if err := validateResults(payload, apps); err != nil {
			return nil, err
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errs.NewInternalErrorWithCause("failed to encode results", err)
		}

		now := s.clock.Now()
		expected := h.Version
		h.ResultsPublished = true
		h.PublishedAt = &now
		h.Results = datatypes.JSON(data)

		detail, _ := json.Marshal(models.EventDetail{Message: payload.Announcement})
		event := models.OutboxEvent{
			Kind:        models.EventResultsPublished,
			HackathonID: hackathonID,
			Payload:     datatypes.JSON(detail),
		}
		err = s.hackathons.Save(ctx, h, expected, event)
		if err == nil {
			s.logger.Info().
				Str("hackathonId", hackathonID.String()).
				Int("placements", len(payload.Placements)).
				Msg("results published")
			return h, nil
		}
		if !errs.IsSerializationFailureError(err) {
			return nil, err
		}
		metrics.VersionConflicts.WithLabelValues("finalize_results").Inc()
		s.logger.Warn().Str("hackathonId", hackathonID.String()).Int("attempt", attempt).Msg("version conflict, retrying")
	}
	return nil, errs.NewSerializationFailureError("finalize results", nil)
}

// GetResults returns the published results of a hackathon.
func (s *Service) GetResults(ctx context.Context, hackathonID uuid.UUID) (*Results, error) {
	h, err := s.hackathons.FindByID(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	if !h.ResultsPublished {
		return nil, errs.NewInvalidStateError("results have not been published yet")
	}
	payload, err := h.DecodeResults()
	if err != nil {
		return nil, errs.NewInternalErrorWithCause("failed to decode results", err)
	}
	res := &Results{
		HackathonID:  h.ID,
		Announcement: payload.Announcement,
		Placements:   payload.Placements,
	}
	if res.Placements == nil {
		res.Placements = []models.Placement{}
	}
	if h.PublishedAt != nil {
		res.PublishedAt = *h.PublishedAt
	}
	return res, nil
}

// PublishShowcase lets the owner of a fully accepted application list it
// publicly once results are out. Repeated calls are no-ops.
func (s *Service) PublishShowcase(ctx context.Context, actor Actor, applicationID uuid.UUID) (app *models.Application, err error) {
	defer s.observe("publish_showcase", &err)
	app, _, err = s.mutateApplication(ctx, "publish_showcase", applicationID, false,
		func(h *models.Hackathon, app *models.Application, _ time.Time) ([]models.OutboxEvent, error) {
			if err := requireApplicantOf(actor, app); err != nil {
				return nil, err
			}
			changed, err := applyShowcase(h, app)
			if err != nil || !changed {
				return nil, err
			}
			return []models.OutboxEvent{models.NewApplicationEvent(models.EventApplicationShowcased, app, nil,
				models.EventDetail{Status: string(app.Status)})}, nil
		})
	return app, err
}
