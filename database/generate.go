package database

import (
	"fmt"
	"strings"

	"github.com/rpupo63/hackathon-review-backend/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

/*
Query generation usage:

	go run . --generate-queries ./query

migrates the schema, prints a column drift report for every table the
service owns and writes type-safe query helpers for each model to the
given directory. The report lists columns that exist in the database but
have no matching field on the Go model, which usually means a manual
migration was applied without updating models/.
*/

// GenerateQueries writes gorm/gen query helpers for every model to outPath.
func GenerateQueries(db *gorm.DB, outPath string) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(
		models.Hackathon{},
		models.Phase{},
		models.Application{},
		models.PhaseSubmission{},
		models.OutboxEvent{},
		models.DeadLetter{},
	)

	if err := New(db).Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	drift, err := ColumnDrift(db)
	if err != nil {
		return err
	}
	for table, cols := range drift {
		log.Warn().Str("table", table).Strs("columns", cols).Msg("columns not mapped by any model field")
	}

	g.Execute()
	log.Info().Str("outPath", outPath).Msg("query generation complete")
	return nil
}

// ColumnDrift maps each owned table to the database columns its model does not declare.
func ColumnDrift(db *gorm.DB) (map[string][]string, error) {
	drift := make(map[string][]string)
	for _, m := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("parse %T: %w", m, err)
		}
		table := stmt.Schema.Table

		dbColumns, err := tableColumns(db, table)
		if err != nil {
			return nil, err
		}
		if missing := unmappedColumns(dbColumns, modelColumns(stmt.Schema)); len(missing) > 0 {
			drift[table] = missing
		}
	}
	return drift, nil
}

func tableColumns(db *gorm.DB, table string) ([]string, error) {
	types, err := db.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	cols := make([]string, 0, len(types))
	for _, t := range types {
		cols = append(cols, t.Name())
	}
	return cols, nil
}

func modelColumns(s *schema.Schema) []string {
	cols := make([]string, 0, len(s.DBNames))
	for _, name := range s.DBNames {
		cols = append(cols, name)
	}
	return cols
}

func unmappedColumns(dbColumns, modelFields []string) []string {
	known := make(map[string]bool, len(modelFields))
	for _, f := range modelFields {
		known[strings.ToLower(f)] = true
	}
	var missing []string
	for _, col := range dbColumns {
		if !known[strings.ToLower(col)] {
			missing = append(missing, col)
		}
	}
	return missing
}
