// Package storage provides the storage interfaces for the WRAP pipeline.
//
// The layer is split into small, focused interfaces that can be implemented
// independently and composed as needed; the sqlite and postgres backends
// implement all of them.
package storage

import (
	"context"
	"errors"

	"github.com/studyops/brain/pkg/types"
)

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates a unique-key collision from a concurrent writer.
	// The session writer retries once on this error.
	ErrConflict = errors.New("unique key conflict")
)

// SessionStore persists session rows keyed by (date, time, topic).
// The pipeline never deletes sessions.
type SessionStore interface {
	// UpsertSession inserts or updates the row for the record's natural key.
	// On match every non-key field is overwritten. It returns the derived
	// session_id and whether the write inserted a new row.
	UpsertSession(ctx context.Context, rec *types.SessionRecord) (sessionID string, inserted bool, err error)

	// GetSession retrieves a session by its natural key.
	// Returns ErrNotFound when no row matches.
	GetSession(ctx context.Context, date, tm, topic string) (*types.SessionRecord, error)

	// ListSessionsByID returns all rows whose derived session_id matches.
	// Distinct times on the same date and topic share a session_id.
	ListSessionsByID(ctx context.Context, sessionID string) ([]*types.SessionRecord, error)
}

// CardStore persists flashcards keyed by (session_id, hash).
type CardStore interface {
	// CardExists reports whether a card with this hash already exists for
	// the session.
	CardExists(ctx context.Context, sessionID, hash string) (bool, error)

	// InsertCard appends a card. Returns ErrConflict when (session_id, hash)
	// already exists.
	InsertCard(ctx context.Context, card *types.FlashcardRecord) error

	// ListCards returns the session's cards in insertion order.
	ListCards(ctx context.Context, sessionID string) ([]*types.FlashcardRecord, error)
}

// Store is the full storage backend used by the pipeline.
type Store interface {
	SessionStore
	CardStore

	// Close releases any resources held by the store.
	Close() error
}
