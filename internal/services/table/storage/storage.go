// Package storage defines persistence contracts for table transcript state.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested transcript entry is missing.
var ErrNotFound = errors.New("record not found")

// EntryRecord stores one rendered chat transcript entry.
//
// ContentHTML is the rendered markup shown at the table; PayloadJSON keeps
// the structured data the entry was rendered from so clients can re-render
// after a reconnect.
type EntryRecord struct {
	ID          string
	Kind        string
	Speaker     string
	ContentHTML string
	PayloadJSON string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TranscriptStore persists the ordered chat transcript for a table.
type TranscriptStore interface {
	PutEntry(ctx context.Context, record EntryRecord) error
	UpdateEntry(ctx context.Context, id string, contentHTML string, payloadJSON string, updatedAt time.Time) error
	GetEntry(ctx context.Context, id string) (EntryRecord, error)
	ListEntries(ctx context.Context, limit int) ([]EntryRecord, error)
}
