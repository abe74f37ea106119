package ingest

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/studyops/brain/internal/storage"
	"github.com/studyops/brain/pkg/types"
)

// CardStats summarizes one batch of card writes.
type CardStats struct {
	Written int
	Skipped int
	Failed  int
}

// CardWriter appends flashcards with per-session content-hash dedup.
// Individual insert failures are logged and counted; they never abort the
// batch.
type CardWriter struct {
	store storage.CardStore
}

// NewCardWriter creates a writer over the given store.
func NewCardWriter(store storage.CardStore) *CardWriter {
	return &CardWriter{store: store}
}

// Write inserts the cards in source order under sessionID, computing the
// content hash and confidence score for each. A card whose hash already
// exists in the session is skipped.
func (w *CardWriter) Write(ctx context.Context, sessionID string, cards []types.FlashcardRecord) CardStats {
	var stats CardStats
	for i := range cards {
		card := cards[i]
		card.SessionID = sessionID
		card.Hash = card.ComputeHash()
		card.Confidence = card.ScoreConfidence()
		card.CreatedAt = time.Now().UTC()

		exists, err := w.store.CardExists(ctx, sessionID, card.Hash)
		if err != nil {
			log.Printf("ingest: card %d lookup failed: %v", i, err)
			stats.Failed++
			continue
		}
		if exists {
			stats.Skipped++
			continue
		}

		if err := w.store.InsertCard(ctx, &card); err != nil {
			// A conflict here means another writer inserted the same
			// hash between the lookup and the insert.
			if errors.Is(err, storage.ErrConflict) {
				stats.Skipped++
				continue
			}
			log.Printf("ingest: card %d insert failed: %v", i, err)
			stats.Failed++
			continue
		}
		stats.Written++
	}
	return stats
}
