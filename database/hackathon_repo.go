package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

type HackathonRepo struct {
	db *gorm.DB
}

func NewHackathonRepo(db *gorm.DB) *HackathonRepo {
	return &HackathonRepo{db}
}

func phasesInOrder(db *gorm.DB) *gorm.DB {
	return db.Clauses(dbresolver.Write).Order("position ASC")
}

// FindByID returns a hackathon and its ordered phases, read from the primary
func (r *HackathonRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Hackathon, error) {
	var h models.Hackathon
	err := primary(ctx, r.db).Preload("Phases", phasesInOrder).Where("id = ?", id).First(&h).Error
	if isNotFound(err) {
		return nil, errs.NewNotFound("hackathon")
	}
	if err != nil {
		return nil, errs.NewDatabaseError("find", "hackathon", err)
	}
	return &h, nil
}

// FindAll returns every hackathon, newest first. May be served by a replica.
func (r *HackathonRepo) FindAll(ctx context.Context) ([]*models.Hackathon, error) {
	var hackathons []*models.Hackathon
	err := r.db.WithContext(ctx).
		Preload("Phases", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Find(&hackathons).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "hackathons", err)
	}
	return hackathons, nil
}

// FindByOrganizer returns the hackathons one organizer owns.
func (r *HackathonRepo) FindByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*models.Hackathon, error) {
	var hackathons []*models.Hackathon
	err := r.db.WithContext(ctx).
		Preload("Phases", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("organizer_id = ?", organizerID).
		Order("created_at DESC").
		Find(&hackathons).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "hackathons", err)
	}
	return hackathons, nil
}

// Add inserts a hackathon together with its phases
func (r *HackathonRepo) Add(ctx context.Context, h *models.Hackathon) error {
	if err := r.db.WithContext(ctx).Create(h).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.NewUniqueConstraintViolationError("hackathon", "id", err)
		}
		return errs.NewDatabaseError("create", "hackathon", err)
	}
	return nil
}

// Save writes the mutable hackathon columns if the stored version still
// equals expectedVersion, appending events in the same transaction.
func (r *HackathonRepo) Save(ctx context.Context, h *models.Hackathon, expectedVersion int64, events ...models.OutboxEvent) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Hackathon{}).
			Where("id = ? AND version = ?", h.ID, expectedVersion).
			Updates(map[string]interface{}{
				"title":             h.Title,
				"description":       h.Description,
				"results_published": h.ResultsPublished,
				"published_at":      h.PublishedAt,
				"results":           h.Results,
				"version":           expectedVersion + 1,
			})
		if res.Error != nil {
			return errs.NewDatabaseError("update", "hackathon", res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.NewSerializationFailureError("update hackathon", nil)
		}
		return insertEvents(tx, events)
	})
	if err != nil {
		return err
	}
	h.Version = expectedVersion + 1
	return nil
}

// IncrementViews bumps the view counter without touching the version.
func (r *HackathonRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.Hackathon{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return errs.NewDatabaseError("update", "hackathon views", err)
	}
	return nil
}
