package ingest

import (
	"context"
	"errors"
	"log"

	"github.com/studyops/brain/internal/storage"
	"github.com/studyops/brain/pkg/types"
)

// SessionWriter upserts the session row. A unique-constraint conflict means
// a concurrent writer landed first; the upsert is retried once and then
// reported.
type SessionWriter struct {
	store storage.SessionStore
}

// NewSessionWriter creates a writer over the given store.
func NewSessionWriter(store storage.SessionStore) *SessionWriter {
	return &SessionWriter{store: store}
}

// Write persists the record and returns the derived session_id and whether
// the row was inserted (as opposed to updated in place).
func (w *SessionWriter) Write(ctx context.Context, rec *types.SessionRecord) (string, bool, error) {
	sessionID, inserted, err := w.store.UpsertSession(ctx, rec)
	if errors.Is(err, storage.ErrConflict) {
		log.Printf("ingest: session upsert conflict for %s, retrying once", rec.SessionID())
		sessionID, inserted, err = w.store.UpsertSession(ctx, rec)
	}
	return sessionID, inserted, err
}
