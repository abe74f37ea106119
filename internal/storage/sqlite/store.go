// Package sqlite implements the session and card stores on SQLite via the
// pure-Go modernc.org driver. It is the default backend: one local file,
// WAL mode, a single writer connection.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/studyops/brain/internal/storage"
	"github.com/studyops/brain/pkg/types"
)

// Schema creates the session and flashcard tables.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id       TEXT NOT NULL,
	schema_version   TEXT NOT NULL,
	session_date     TEXT NOT NULL,
	session_time     TEXT NOT NULL,
	main_topic       TEXT NOT NULL,
	study_mode       TEXT NOT NULL,
	duration_minutes INTEGER,
	understanding    INTEGER,
	retention        INTEGER,
	performance      INTEGER,
	rsr_percent      REAL,
	cognitive_load   TEXT NOT NULL DEFAULT '',
	transfer_check   TEXT NOT NULL DEFAULT '',
	spaced_reviews   TEXT NOT NULL DEFAULT '',
	errors_by_type   TEXT NOT NULL DEFAULT '',
	what_worked      TEXT NOT NULL DEFAULT '',
	to_improve       TEXT NOT NULL DEFAULT '',
	reflection       TEXT NOT NULL DEFAULT '',
	highlights       TEXT NOT NULL DEFAULT '',
	r1               TEXT NOT NULL DEFAULT '',
	r2               TEXT NOT NULL DEFAULT '',
	r3               TEXT NOT NULL DEFAULT '',
	r4               TEXT NOT NULL DEFAULT '',
	issues           TEXT,
	metadata         TEXT,
	created_at       TIMESTAMP NOT NULL,
	updated_at       TIMESTAMP NOT NULL,
	UNIQUE(session_date, session_time, main_topic)
);

CREATE INDEX IF NOT EXISTS idx_sessions_session_id ON sessions(session_id);

CREATE TABLE IF NOT EXISTS flashcards (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id       TEXT NOT NULL,
	front            TEXT NOT NULL,
	back             TEXT NOT NULL,
	tags             TEXT,
	source_citation  TEXT NOT NULL DEFAULT '',
	confidence_score REAL NOT NULL DEFAULT 0,
	hash             TEXT NOT NULL,
	created_at       TIMESTAMP NOT NULL,
	UNIQUE(session_id, hash)
);

CREATE INDEX IF NOT EXISTS idx_flashcards_session ON flashcards(session_id);
`

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dsn, configures WAL mode, and creates
// the schema.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY under concurrent pipelines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// UpsertSession inserts or updates the row for (date, time, topic),
// overwriting every non-key field on match.
func (s *Store) UpsertSession(ctx context.Context, rec *types.SessionRecord) (string, bool, error) {
	if rec == nil {
		return "", false, storage.ErrInvalidInput
	}
	if rec.Date == "" || rec.Time == "" || rec.Topic == "" {
		return "", false, fmt.Errorf("%w: date, time, and topic are required", storage.ErrInvalidInput)
	}

	sessionID := rec.SessionID()
	issuesJSON, metaJSON, err := marshalSessionBlobs(rec)
	if err != nil {
		return "", false, err
	}

	var existingID int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM sessions WHERE session_date = ? AND session_time = ? AND main_topic = ?`,
		rec.Date, rec.Time, rec.Topic).Scan(&existingID)
	inserted := err == sql.ErrNoRows
	if err != nil && err != sql.ErrNoRows {
		return "", false, fmt.Errorf("failed to query session: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			session_id, schema_version, session_date, session_time, main_topic,
			study_mode, duration_minutes, understanding, retention, performance,
			rsr_percent, cognitive_load, transfer_check, spaced_reviews,
			errors_by_type, what_worked, to_improve, reflection, highlights,
			r1, r2, r3, r4, issues, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_date, session_time, main_topic) DO UPDATE SET
			session_id = excluded.session_id,
			schema_version = excluded.schema_version,
			study_mode = excluded.study_mode,
			duration_minutes = excluded.duration_minutes,
			understanding = excluded.understanding,
			retention = excluded.retention,
			performance = excluded.performance,
			rsr_percent = excluded.rsr_percent,
			cognitive_load = excluded.cognitive_load,
			transfer_check = excluded.transfer_check,
			spaced_reviews = excluded.spaced_reviews,
			errors_by_type = excluded.errors_by_type,
			what_worked = excluded.what_worked,
			to_improve = excluded.to_improve,
			reflection = excluded.reflection,
			highlights = excluded.highlights,
			r1 = excluded.r1, r2 = excluded.r2, r3 = excluded.r3, r4 = excluded.r4,
			issues = excluded.issues,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`,
		sessionID, rec.SchemaVersion, rec.Date, rec.Time, rec.Topic,
		rec.StudyMode, rec.DurationMin, rec.Understanding, rec.Retention, rec.Performance,
		rec.RSRPercent, rec.CognitiveLoad, rec.TransferCheck, rec.SpacedReviews,
		rec.ErrorsByType, rec.WhatWorked, rec.ToImprove, rec.Reflection, rec.Highlights,
		rec.Schedule.R1, rec.Schedule.R2, rec.Schedule.R3, rec.Schedule.R4,
		issuesJSON, metaJSON, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return "", false, fmt.Errorf("%w: %v", storage.ErrConflict, err)
		}
		return "", false, fmt.Errorf("failed to upsert session: %w", err)
	}

	return sessionID, inserted, nil
}

// GetSession retrieves a session by its natural key.
func (s *Store) GetSession(ctx context.Context, date, tm, topic string) (*types.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, selectSessionSQL+
		` WHERE session_date = ? AND session_time = ? AND main_topic = ?`,
		date, tm, topic)
	return scanSession(row)
}

// ListSessionsByID returns all rows sharing a derived session_id.
func (s *Store) ListSessionsByID(ctx context.Context, sessionID string) ([]*types.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectSessionSQL+
		` WHERE session_id = ? ORDER BY session_time`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var recs []*types.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// CardExists reports whether the session already holds a card with this hash.
func (s *Store) CardExists(ctx context.Context, sessionID, hash string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM flashcards WHERE session_id = ? AND hash = ?`,
		sessionID, hash).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query card: %w", err)
	}
	return n > 0, nil
}

// InsertCard appends a flashcard row.
func (s *Store) InsertCard(ctx context.Context, card *types.FlashcardRecord) error {
	if card == nil || card.SessionID == "" || card.Hash == "" {
		return fmt.Errorf("%w: card requires session_id and hash", storage.ErrInvalidInput)
	}

	var tagsJSON []byte
	if len(card.Tags) > 0 {
		var err error
		tagsJSON, err = json.Marshal(card.Tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags: %w", err)
		}
	}

	createdAt := card.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flashcards (session_id, front, back, tags, source_citation, confidence_score, hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		card.SessionID, card.Front, card.Back, nullableBytes(tagsJSON),
		card.Source, card.Confidence, card.Hash, createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: card %s already exists for %s", storage.ErrConflict, card.Hash[:12], card.SessionID)
		}
		return fmt.Errorf("failed to insert card: %w", err)
	}
	return nil
}

// ListCards returns the session's cards in insertion order.
func (s *Store) ListCards(ctx context.Context, sessionID string) ([]*types.FlashcardRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, front, back, tags, source_citation, confidence_score, hash, created_at
		FROM flashcards WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []*types.FlashcardRecord
	for rows.Next() {
		var (
			card     types.FlashcardRecord
			tagsJSON sql.NullString
		)
		if err := rows.Scan(&card.SessionID, &card.Front, &card.Back, &tagsJSON,
			&card.Source, &card.Confidence, &card.Hash, &card.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		if tagsJSON.Valid && tagsJSON.String != "" {
			if err := json.Unmarshal([]byte(tagsJSON.String), &card.Tags); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
			}
		}
		cards = append(cards, &card)
	}
	return cards, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const selectSessionSQL = `
	SELECT session_id, schema_version, session_date, session_time, main_topic,
		study_mode, duration_minutes, understanding, retention, performance,
		rsr_percent, cognitive_load, transfer_check, spaced_reviews,
		errors_by_type, what_worked, to_improve, reflection, highlights,
		r1, r2, r3, r4, issues, metadata, created_at, updated_at
	FROM sessions`

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*types.SessionRecord, error) {
	var (
		rec                 types.SessionRecord
		sessionID           string
		issuesJSON, metaRaw sql.NullString
	)
	err := row.Scan(&sessionID, &rec.SchemaVersion, &rec.Date, &rec.Time, &rec.Topic,
		&rec.StudyMode, &rec.DurationMin, &rec.Understanding, &rec.Retention, &rec.Performance,
		&rec.RSRPercent, &rec.CognitiveLoad, &rec.TransferCheck, &rec.SpacedReviews,
		&rec.ErrorsByType, &rec.WhatWorked, &rec.ToImprove, &rec.Reflection, &rec.Highlights,
		&rec.Schedule.R1, &rec.Schedule.R2, &rec.Schedule.R3, &rec.Schedule.R4,
		&issuesJSON, &metaRaw, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	if issuesJSON.Valid && issuesJSON.String != "" {
		if err := json.Unmarshal([]byte(issuesJSON.String), &rec.Issues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal issues: %w", err)
		}
	}
	if metaRaw.Valid && metaRaw.String != "" {
		if err := json.Unmarshal([]byte(metaRaw.String), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}

func marshalSessionBlobs(rec *types.SessionRecord) (issues, meta interface{}, err error) {
	var issuesJSON, metaJSON []byte
	if len(rec.Issues) > 0 {
		issuesJSON, err = json.Marshal(rec.Issues)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal issues: %w", err)
		}
	}
	if len(rec.Metadata) > 0 {
		metaJSON, err = json.Marshal(rec.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}
	return nullableBytes(issuesJSON), nullableBytes(metaJSON), nil
}

func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
