package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatexengine/fatex/internal/platform/storage/sqlitemigrate"
	"github.com/fatexengine/fatex/internal/services/table/storage"
	"github.com/fatexengine/fatex/internal/services/table/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for the table chat transcript.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a transcript SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutEntry appends one transcript entry row.
func (s *Store) PutEntry(ctx context.Context, record storage.EntryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeEntryRecord(record)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO transcript_entries (id, kind, speaker, content_html, payload_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		normalized.ID,
		normalized.Kind,
		normalized.Speaker,
		normalized.ContentHTML,
		normalized.PayloadJSON,
		toMillis(normalized.CreatedAt),
		toMillis(normalized.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put transcript entry: %w", err)
	}
	return nil
}

// UpdateEntry replaces the rendered content of one existing transcript entry.
// The row keeps its position in the transcript; only content and payload move.
func (s *Store) UpdateEntry(ctx context.Context, id string, contentHTML string, payloadJSON string, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("entry id is required")
	}
	if updatedAt.IsZero() {
		return fmt.Errorf("updated_at is required")
	}
	if strings.TrimSpace(payloadJSON) == "" {
		payloadJSON = "{}"
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE transcript_entries
SET content_html = ?, payload_json = ?, updated_at = ?
WHERE id = ?
`, contentHTML, payloadJSON, toMillis(updatedAt), id)
	if err != nil {
		return fmt.Errorf("update transcript entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transcript entry rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetEntry loads one transcript entry by id.
func (s *Store) GetEntry(ctx context.Context, id string) (storage.EntryRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.EntryRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.EntryRecord{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.EntryRecord{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, kind, speaker, content_html, payload_json, created_at, updated_at
FROM transcript_entries
WHERE id = ?
`, id)
	record, err := scanEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.EntryRecord{}, storage.ErrNotFound
		}
		return storage.EntryRecord{}, fmt.Errorf("get transcript entry: %w", err)
	}
	return record, nil
}

// ListEntries lists up to limit transcript entries oldest-first for replay.
func (s *Store) ListEntries(ctx context.Context, limit int) ([]storage.EntryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, kind, speaker, content_html, payload_json, created_at, updated_at
FROM transcript_entries
ORDER BY seq ASC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list transcript entries: %w", err)
	}
	defer rows.Close()

	results := make([]storage.EntryRecord, 0, limit)
	for rows.Next() {
		record, scanErr := scanEntry(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan transcript entry row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript entry rows: %w", err)
	}
	return results, nil
}

type scanner func(dest ...any) error

func normalizeEntryRecord(record storage.EntryRecord) (storage.EntryRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.Kind = strings.TrimSpace(record.Kind)
	record.Speaker = strings.TrimSpace(record.Speaker)
	record.PayloadJSON = strings.TrimSpace(record.PayloadJSON)
	if record.PayloadJSON == "" {
		record.PayloadJSON = "{}"
	}
	if record.ID == "" {
		return storage.EntryRecord{}, fmt.Errorf("entry id is required")
	}
	if record.Kind == "" {
		return storage.EntryRecord{}, fmt.Errorf("entry kind is required")
	}
	if record.CreatedAt.IsZero() {
		return storage.EntryRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

func scanEntry(scan scanner) (storage.EntryRecord, error) {
	var record storage.EntryRecord
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&record.ID,
		&record.Kind,
		&record.Speaker,
		&record.ContentHTML,
		&record.PayloadJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.EntryRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
