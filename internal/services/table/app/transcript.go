package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatexengine/fatex/internal/host"
	"github.com/fatexengine/fatex/internal/platform/id"
	"github.com/fatexengine/fatex/internal/services/table/storage"
)

// tableTranscript is the host transcript backed by durable storage.
//
// Every create and in-place update is persisted first, then fanned out to
// the seated peers. A peer that reconnects replays the stored entries and
// sees the same transcript the live peers saw.
type tableTranscript struct {
	store storage.TranscriptStore
	hub   *tableHub
	clock func() time.Time
}

func newTableTranscript(store storage.TranscriptStore, hub *tableHub) *tableTranscript {
	return &tableTranscript{
		store: store,
		hub:   hub,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

func (t *tableTranscript) CreateEntry(ctx context.Context, entry host.Entry) (string, error) {
	entryID, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate entry id: %w", err)
	}

	payloadJSON, err := marshalPayload(entry.Data)
	if err != nil {
		return "", err
	}

	now := t.clock()
	if err := t.store.PutEntry(ctx, storage.EntryRecord{
		ID:          entryID,
		Kind:        entry.Kind,
		Speaker:     entry.Speaker,
		ContentHTML: entry.Content,
		PayloadJSON: payloadJSON,
		CreatedAt:   now,
	}); err != nil {
		return "", fmt.Errorf("persist transcript entry: %w", err)
	}

	t.hub.broadcast(wsFrame{
		Type: "chat.entry.created",
		Payload: mustJSON(entryEnvelope{Entry: entryPayload{
			EntryID:     entryID,
			Kind:        entry.Kind,
			Speaker:     entry.Speaker,
			ContentHTML: entry.Content,
			CreatedAt:   now.Format(time.RFC3339),
			UpdatedAt:   now.Format(time.RFC3339),
		}}),
	})
	return entryID, nil
}

func (t *tableTranscript) UpdateEntry(ctx context.Context, entryID string, entry host.Entry) error {
	payloadJSON, err := marshalPayload(entry.Data)
	if err != nil {
		return err
	}

	// The stored row holds the original speaker and creation time; updates
	// carry neither, so load the row before rewriting it and broadcast from
	// the authoritative record.
	record, err := t.store.GetEntry(ctx, entryID)
	if err != nil {
		return fmt.Errorf("load transcript entry %s: %w", entryID, err)
	}

	now := t.clock()
	if err := t.store.UpdateEntry(ctx, entryID, entry.Content, payloadJSON, now); err != nil {
		return fmt.Errorf("update transcript entry %s: %w", entryID, err)
	}

	t.hub.broadcast(wsFrame{
		Type: "chat.entry.updated",
		Payload: mustJSON(entryEnvelope{Entry: entryPayload{
			EntryID:     entryID,
			Kind:        record.Kind,
			Speaker:     record.Speaker,
			ContentHTML: entry.Content,
			CreatedAt:   record.CreatedAt.Format(time.RFC3339),
			UpdatedAt:   now.Format(time.RFC3339),
		}}),
	})
	return nil
}

func marshalPayload(data any) (string, error) {
	if data == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal entry payload: %w", err)
	}
	return string(raw), nil
}
