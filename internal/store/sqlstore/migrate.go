package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrate applies pending schema migrations for the store's driver.
func (s *SQLStore) Migrate(ctx context.Context) ([]string, error) {
	return Migrate(ctx, s.db, s.driver)
}

// Migrate applies the embedded migrations for driver that are not yet recorded
// in schema_migrations. Each file runs in its own transaction.
// Returns the names of the files applied by this call.
func Migrate(ctx context.Context, db *sql.DB, driver string) ([]string, error) {
	dir, err := migrationsDir(driver)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    BIGINT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var applied []string
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}

		version, err := parseVersion(entry.Name())
		if err != nil {
			return applied, err
		}

		done, err := isApplied(ctx, db, driver, version)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		content, err := migrationsFS.ReadFile(path.Join(dir, entry.Name()))
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if err := applyMigration(ctx, db, driver, version, string(content)); err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		applied = append(applied, entry.Name())
	}

	return applied, nil
}

func migrationsDir(driver string) (string, error) {
	switch driver {
	case DriverSQLite:
		return "migrations/sqlite", nil
	case DriverPostgres:
		return "migrations/postgres", nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

func parseVersion(name string) (int64, error) {
	prefix, _, _ := strings.Cut(name, "_")
	version, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid migration name %s: %w", name, err)
	}
	return version, nil
}

func isApplied(ctx context.Context, db *sql.DB, driver string, version int64) (bool, error) {
	var n int
	query := rebind(driver, `SELECT COUNT(1) FROM schema_migrations WHERE version = ?`)
	if err := db.QueryRowContext(ctx, query, version).Scan(&n); err != nil {
		return false, fmt.Errorf("check migration %d: %w", version, err)
	}
	return n > 0, nil
}

func applyMigration(ctx context.Context, db *sql.DB, driver string, version int64, stmt string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return err
	}

	record := rebind(driver, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`)
	if _, err := tx.ExecContext(ctx, record, version, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit()
}
