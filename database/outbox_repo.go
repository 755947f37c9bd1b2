package database

import (
	"context"
	"time"

	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutboxRepo struct {
	db *gorm.DB
}

func NewOutboxRepo(db *gorm.DB) *OutboxRepo {
	return &OutboxRepo{db}
}

func insertEvents(tx *gorm.DB, events []models.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := tx.Create(&events).Error; err != nil {
		return errs.NewDatabaseError("create", "outbox events", err)
	}
	return nil
}

// LockPending returns up to limit unprocessed events, oldest first. Inside a
// transaction on postgres the rows stay locked, and rows locked by another
// dispatcher are skipped.
func (r *OutboxRepo) LockPending(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("processed = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "outbox events", err)
	}
	return events, nil
}

// MarkProcessed flags events as delivered.
func (r *OutboxRepo) MarkProcessed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id IN ?", ids).
		Update("processed", true).Error
	if err != nil {
		return errs.NewDatabaseError("update", "outbox events", err)
	}
	return nil
}

// FindByID returns one outbox event.
func (r *OutboxRepo) FindByID(ctx context.Context, id int64) (*models.OutboxEvent, error) {
	var event models.OutboxEvent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if isNotFound(err) {
		return nil, errs.NewNotFound("outbox event")
	}
	if err != nil {
		return nil, errs.NewDatabaseError("find", "outbox event", err)
	}
	return &event, nil
}

// FindAll returns every outbox event in commit order.
func (r *OutboxRepo) FindAll(ctx context.Context) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&events).Error; err != nil {
		return nil, errs.NewDatabaseError("list", "outbox events", err)
	}
	return events, nil
}

// AddDeadLetter records a failed delivery.
func (r *OutboxRepo) AddDeadLetter(ctx context.Context, dl *models.DeadLetter) error {
	if err := r.db.WithContext(ctx).Create(dl).Error; err != nil {
		return errs.NewDatabaseError("create", "dead letter", err)
	}
	return nil
}

// UnresolvedDeadLetters returns failed deliveries that still have attempts left.
func (r *OutboxRepo) UnresolvedDeadLetters(ctx context.Context, maxAttempts, limit int) ([]models.DeadLetter, error) {
	var letters []models.DeadLetter
	err := r.db.WithContext(ctx).
		Where("resolved = ? AND attempts < ?", false, maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&letters).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "dead letters", err)
	}
	return letters, nil
}

// ResolveDeadLetter marks a failed delivery as finally delivered.
func (r *OutboxRepo) ResolveDeadLetter(ctx context.Context, id int64, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.DeadLetter{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"resolved": true, "retried_at": at}).Error
	if err != nil {
		return errs.NewDatabaseError("update", "dead letter", err)
	}
	return nil
}

// RecordRetryFailure counts another failed attempt for a dead letter.
func (r *OutboxRepo) RecordRetryFailure(ctx context.Context, id int64, msg string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.DeadLetter{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + ?", 1),
			"error_msg":  msg,
			"retried_at": at,
		}).Error
	if err != nil {
		return errs.NewDatabaseError("update", "dead letter", err)
	}
	return nil
}
