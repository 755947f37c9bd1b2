package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

type Database struct {
	db              *gorm.DB
	hackathonRepo   *HackathonRepo
	applicationRepo *ApplicationRepo
	outboxRepo      *OutboxRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:              db,
		hackathonRepo:   NewHackathonRepo(db),
		applicationRepo: NewApplicationRepo(db),
		outboxRepo:      NewOutboxRepo(db),
	}
}

const sqliteScheme = "sqlite:"

// Open connects to the primary and registers read replicas, if any, with
// dbresolver. Authoritative reads pin themselves to the primary. A DSN of
// the form "sqlite:<path>" opens an embedded database for local runs;
// replicas are ignored there.
func Open(primaryDSN string, replicaDSNs []string, cfg *gorm.Config) (*gorm.DB, error) {
	if strings.HasPrefix(primaryDSN, sqliteScheme) {
		return OpenSQLite(strings.TrimPrefix(primaryDSN, sqliteScheme), cfg)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  primaryDSN,
		PreferSimpleProtocol: true,
	}), cfg)
	if err != nil {
		return nil, fmt.Errorf("open primary: %w", err)
	}
	if len(replicaDSNs) == 0 {
		return db, nil
	}

	replicas := make([]gorm.Dialector, 0, len(replicaDSNs))
	for _, dsn := range replicaDSNs {
		replicas = append(replicas, postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}))
	}
	if err := db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	})); err != nil {
		return nil, fmt.Errorf("register replicas: %w", err)
	}
	return db, nil
}

// OpenSQLite opens an embedded database at path (":memory:" for a private
// in-memory one). A single connection is kept so in-memory data survives
// and writers never contend.
func OpenSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Accessor methods for each repository

func (d Database) HackathonRepo() *HackathonRepo {
	return d.hackathonRepo
}

func (d Database) ApplicationRepo() *ApplicationRepo {
	return d.applicationRepo
}

func (d Database) OutboxRepo() *OutboxRepo {
	return d.outboxRepo
}

// DB returns the underlying connection.
func (d Database) DB() *gorm.DB {
	return d.db
}

// WithTx runs fn with every repository bound to one transaction.
func (d Database) WithTx(ctx context.Context, fn func(tx Database) error) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
	if err == nil {
		return nil
	}
	var apiErr *errs.ApiErr
	if errors.As(err, &apiErr) {
		return err
	}
	return errs.NewTransactionFailedError("transaction", err)
}

// Ping checks that the primary answers.
func (d Database) Ping(ctx context.Context) error {
	var one int
	return d.db.WithContext(ctx).Clauses(dbresolver.Write).Raw("SELECT 1").Scan(&one).Error
}

// primary pins a query to the write connection so it sees every committed write.
func primary(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).Clauses(dbresolver.Write)
}
