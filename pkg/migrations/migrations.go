// Package migrations opens sqlite databases and brings their schema up to
// date.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// sqlite allows a single writer, more connections only produce
	// SQLITE_BUSY errors
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(err)
	}

	return db, nil
}

func wrapMigrate(err error) error {
	return fmt.Errorf("migrate db: %w", err)
}

// Migrate applies the steps the database has not seen yet, the number of
// applied steps is kept in PRAGMA user_version. Steps must never be edited
// once released, only appended.
func Migrate(ctx context.Context, db *sql.DB, steps []string) error {
	var version int
	err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version)
	if err != nil {
		return wrapMigrate(err)
	}
	if version > len(steps) {
		return wrapMigrate(fmt.Errorf("database is at version %d, only %d steps are known", version, len(steps)))
	}

	for i := version; i < len(steps); i++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return wrapMigrate(err)
		}
		_, err = tx.ExecContext(ctx, steps[i])
		if err != nil {
			tx.Rollback()
			return wrapMigrate(fmt.Errorf("step %d: %w", i+1, err))
		}
		// pragmas do not accept bound parameters
		_, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1))
		if err != nil {
			tx.Rollback()
			return wrapMigrate(err)
		}
		err = tx.Commit()
		if err != nil {
			return wrapMigrate(err)
		}
	}
	return nil
}

func OpenAndMigrateDB(ctx context.Context, path string, steps []string) (*sql.DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	err = Migrate(ctx, db, steps)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
