// Package sqlitemigrate applies embedded SQL migrations to a SQLite database.
package sqlitemigrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

const (
	ledgerTable = "schema_migrations"
	upMarker    = "-- +migrate Up"
	downMarker  = "-- +migrate Down"
)

// Apply executes every .sql file at the root of migrationFS at most once,
// in lexical filename order. Applied filenames are recorded in a ledger
// table so reopening a database is idempotent.
func Apply(sqlDB *sql.DB, migrationFS fs.FS) error {
	if sqlDB == nil {
		return fmt.Errorf("sql db is required")
	}

	files, err := migrationFiles(migrationFS)
	if err != nil {
		return err
	}

	if _, err := sqlDB.Exec(fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`, ledgerTable)); err != nil {
		return fmt.Errorf("ensure migration ledger: %w", err)
	}

	for _, name := range files {
		applied, err := isApplied(sqlDB, name)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		statements := UpSection(string(content))
		if strings.TrimSpace(statements) == "" {
			continue
		}

		if err := applyOne(sqlDB, name, statements); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(sqlDB *sql.DB, name, statements string) error {
	tx, err := sqlDB.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}

	if _, err := tx.Exec(statements); err != nil {
		if !isAlreadyExists(err) {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
	}
	if _, err := tx.Exec(
		fmt.Sprintf("INSERT OR IGNORE INTO %s (name, applied_at) VALUES (?, ?)", ledgerTable),
		name,
		time.Now().UTC().UnixMilli(),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}

// UpSection returns the SQL between the Up and Down markers. Content without
// markers is treated as a plain up-only migration.
func UpSection(content string) string {
	upIdx := strings.Index(content, upMarker)
	if upIdx == -1 {
		return content
	}
	rest := content[upIdx+len(upMarker):]
	if downIdx := strings.Index(rest, downMarker); downIdx != -1 {
		return rest[:downIdx]
	}
	return rest
}

func migrationFiles(migrationFS fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func isApplied(sqlDB *sql.DB, name string) (bool, error) {
	var found int
	err := sqlDB.QueryRow("SELECT 1 FROM "+ledgerTable+" WHERE name = ?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// isAlreadyExists reports whether an error indicates idempotent DDL success,
// which happens when a table predates the migration ledger.
func isAlreadyExists(err error) bool {
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "already exists") || strings.Contains(value, "duplicate column name")
}
