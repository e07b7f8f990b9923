package pgstore

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/viant/vecstore/internal/errs"
	"github.com/viant/vecstore/internal/logging"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// DefaultMigrationTimeout bounds a migration run.
const DefaultMigrationTimeout = time.Minute

// Migrate applies all pending migrations: the vector extension, the
// vector_store table with its ivfflat, content_type and reference_id indexes,
// and the match_documents function.
func Migrate(ctx context.Context, db *sqlx.DB, timeout time.Duration, log *logrus.Entry) error {
	if db == nil {
		return errs.New(errs.CodeMigrateApplyFailure, "pgstore: db is nil")
	}
	if timeout <= 0 {
		timeout = DefaultMigrationTimeout
	}
	log = logging.OrDiscard(log)
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to run")
			err = nil
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return errs.Wrap(err, errs.CodeMigrateApplyFailure, "apply migrations")
		}
		version, dirty, _ := m.Version()
		log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("migrations applied")
		return nil
	case <-ctx.Done():
		m.GracefulStop <- true
		return errs.Wrap(ctx.Err(), errs.CodeMigrateApplyFailure, "migration timed out", errs.Field("timeout", timeout.String()))
	}
}

func newMigrator(db *sqlx.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeMigrateApplyFailure, "open embedded migrations")
	}
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeMigrateApplyFailure, "create postgres driver")
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeMigrateApplyFailure, "create migrator")
	}
	return m, nil
}
