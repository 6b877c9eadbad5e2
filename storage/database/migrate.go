package database

import (
	"embed"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded SQL migrations in lexical order, recording
// applied files in schema_migrations so reruns are no-ops.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return errors.Wrap(err, "creating schema_migrations")
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return errors.Wrap(err, "reading migrations")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		var applied bool
		if err = db.Get(&applied, "SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)", name); err != nil {
			return errors.Wrap(err, "checking migration "+name)
		}
		if applied {
			continue
		}

		script, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return errors.Wrap(err, "reading migration "+name)
		}

		tx, err := db.Begin()
		if err != nil {
			return errors.Wrap(err, "beginning migration "+name)
		}
		if _, err = tx.Exec(string(script)); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "applying migration "+name)
		}
		if _, err = tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", name); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "recording migration "+name)
		}
		if err = tx.Commit(); err != nil {
			return errors.Wrap(err, "committing migration "+name)
		}
	}
	return nil
}
