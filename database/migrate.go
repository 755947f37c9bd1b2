package database

import (
	"github.com/rpupo63/hackathon-review-backend/models"
)

// Models lists every table the service owns, parents first.
func Models() []interface{} {
	return []interface{}{
		&models.Hackathon{},
		&models.Phase{},
		&models.Application{},
		&models.PhaseSubmission{},
		&models.OutboxEvent{},
		&models.DeadLetter{},
	}
}

// Migrate creates or updates the schema, including the uniqueness and
// range constraints the workflow relies on.
func (d Database) Migrate() error {
	return d.db.AutoMigrate(Models()...)
}
