package workflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/models"
)

// HackathonStore persists hackathons and their phases.
//
// FindByID must read the authoritative copy; it feeds read-modify-write
// cycles. Save is a compare-and-set on Version: it fails with a
// serialization failure when the stored version differs from
// expectedVersion, and bumps h.Version on success.
type HackathonStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Hackathon, error)
	FindAll(ctx context.Context) ([]*models.Hackathon, error)
	Add(ctx context.Context, h *models.Hackathon) error
	Save(ctx context.Context, h *models.Hackathon, expectedVersion int64, events ...models.OutboxEvent) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

// ApplicationStore persists applications together with their phase submissions.
//
// Add fails with AlreadyApplied on a duplicate (hackathon, applicant) pair
// and with ResultsClosed when the hackathon was published concurrently.
// Save writes the application row and every submission it carries in one
// transaction, guarded by opts (see models.SaveOptions).
// FindByHackathonAndApplicant returns nil, nil when no application exists.
// Listing methods may be served from a replica snapshot, except
// FindCurrentByHackathon, which reads the authoritative copy.
type ApplicationStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	FindByHackathonAndApplicant(ctx context.Context, hackathonID, applicantID uuid.UUID) (*models.Application, error)
	FindByHackathon(ctx context.Context, hackathonID uuid.UUID) ([]*models.Application, error)
	FindCurrentByHackathon(ctx context.Context, hackathonID uuid.UUID) ([]*models.Application, error)
	FindByApplicant(ctx context.Context, applicantID uuid.UUID) ([]*models.Application, error)
	Add(ctx context.Context, app *models.Application, events ...models.OutboxEvent) error
	Save(ctx context.Context, app *models.Application, opts models.SaveOptions) error
	Delete(ctx context.Context, id uuid.UUID, events ...models.OutboxEvent) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
}
