package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

type ApplicationRepo struct {
	db *gorm.DB
}

func NewApplicationRepo(db *gorm.DB) *ApplicationRepo {
	return &ApplicationRepo{db}
}

func submissionsFromPrimary(db *gorm.DB) *gorm.DB {
	return db.Clauses(dbresolver.Write).Order("submitted_at ASC")
}

func submissionsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("submitted_at ASC")
}

// FindByID returns an application with all of its phase submissions, read from the primary
func (r *ApplicationRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := primary(ctx, r.db).Preload("Submissions", submissionsFromPrimary).Where("id = ?", id).First(&app).Error
	if isNotFound(err) {
		return nil, errs.NewNotFound("application")
	}
	if err != nil {
		return nil, errs.NewDatabaseError("find", "application", err)
	}
	return &app, nil
}

// FindByHackathonAndApplicant returns nil, nil when the applicant has not applied.
func (r *ApplicationRepo) FindByHackathonAndApplicant(ctx context.Context, hackathonID, applicantID uuid.UUID) (*models.Application, error) {
	var apps []*models.Application
	err := primary(ctx, r.db).
		Preload("Submissions", submissionsFromPrimary).
		Where("hackathon_id = ? AND applicant_id = ?", hackathonID, applicantID).
		Limit(1).
		Find(&apps).Error
	if err != nil {
		return nil, errs.NewDatabaseError("find", "application", err)
	}
	if len(apps) == 0 {
		return nil, nil
	}
	return apps[0], nil
}

// FindByHackathon lists a hackathon's applications in application order. May be served by a replica.
func (r *ApplicationRepo) FindByHackathon(ctx context.Context, hackathonID uuid.UUID) ([]*models.Application, error) {
	var apps []*models.Application
	err := r.db.WithContext(ctx).
		Preload("Submissions", submissionsInOrder).
		Where("hackathon_id = ?", hackathonID).
		Order("applied_at ASC").
		Find(&apps).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "applications", err)
	}
	return apps, nil
}

// FindCurrentByHackathon is FindByHackathon pinned to the primary.
func (r *ApplicationRepo) FindCurrentByHackathon(ctx context.Context, hackathonID uuid.UUID) ([]*models.Application, error) {
	var apps []*models.Application
	err := primary(ctx, r.db).
		Preload("Submissions", submissionsFromPrimary).
		Where("hackathon_id = ?", hackathonID).
		Order("applied_at ASC").
		Find(&apps).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "applications", err)
	}
	return apps, nil
}

// FindByApplicant lists one applicant's applications, newest first. May be served by a replica.
func (r *ApplicationRepo) FindByApplicant(ctx context.Context, applicantID uuid.UUID) ([]*models.Application, error) {
	var apps []*models.Application
	err := r.db.WithContext(ctx).
		Preload("Submissions", submissionsInOrder).
		Where("applicant_id = ?", applicantID).
		Order("applied_at DESC").
		Find(&apps).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "applications", err)
	}
	return apps, nil
}

// Add inserts a new application. The hackathon row is share-locked so a
// concurrent results publication either commits first (and the insert is
// refused) or waits for the insert.
func (r *ApplicationRepo) Add(ctx context.Context, app *models.Application, events ...models.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var h models.Hackathon
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id", "results_published").
			Where("id = ?", app.HackathonID).
			First(&h).Error
		if isNotFound(err) {
			return errs.NewNotFound("hackathon")
		}
		if err != nil {
			return errs.NewDatabaseError("lock", "hackathon", err)
		}
		if h.ResultsPublished {
			return errs.NewResultsClosedError()
		}

		if err := tx.Omit(clause.Associations).Create(app).Error; err != nil {
			if isUniqueViolation(err) {
				return errs.NewAlreadyAppliedError()
			}
			return errs.NewDatabaseError("create", "application", err)
		}
		return insertEvents(tx, events)
	})
}

// Save writes the application row and upserts every submission it carries.
// The row update is a compare-and-set on version; with RequireOpen it also
// requires the hackathon's results to be unpublished. Either guard failing
// yields a serialization failure and nothing is written.
func (r *ApplicationRepo) Save(ctx context.Context, app *models.Application, opts models.SaveOptions) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Application{}).Where("id = ? AND version = ?", app.ID, opts.ExpectedVersion)
		if opts.RequireOpen {
			q = q.Where("hackathon_id IN (?)",
				tx.Model(&models.Hackathon{}).Select("id").Where("results_published = ?", false))
		}
		res := q.Updates(map[string]interface{}{
			"status":            app.Status,
			"rejection_message": app.RejectionMessage,
			"current_phase_id":  app.CurrentPhaseID,
			"showcased":         app.Showcased,
			"version":           opts.ExpectedVersion + 1,
		})
		if res.Error != nil {
			return errs.NewDatabaseError("update", "application", res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.NewSerializationFailureError("update application", nil)
		}

		for i := range app.Submissions {
			sub := &app.Submissions[i]
			sub.ApplicationID = app.ID
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(sub).Error
			if err != nil {
				return errs.NewDatabaseError("save", "phase submission", err)
			}
		}
		return insertEvents(tx, opts.Events)
	})
	if err != nil {
		return err
	}
	app.Version = opts.ExpectedVersion + 1
	return nil
}

// Delete removes an application and its submissions.
func (r *ApplicationRepo) Delete(ctx context.Context, id uuid.UUID, events ...models.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_id = ?", id).Delete(&models.PhaseSubmission{}).Error; err != nil {
			return errs.NewDatabaseError("delete", "phase submissions", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Application{})
		if res.Error != nil {
			return errs.NewDatabaseError("delete", "application", res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.NewNotFound("application")
		}
		return insertEvents(tx, events)
	})
}

// IncrementViews bumps the view counter without touching the version.
func (r *ApplicationRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return errs.NewDatabaseError("update", "application views", err)
	}
	return nil
}
