package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyops/brain/internal/storage"
	"github.com/studyops/brain/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSession() *types.SessionRecord {
	u, r, p, d := 4, 3, 4, 45
	rsr := 82.5
	return &types.SessionRecord{
		SchemaVersion: types.SchemaVersion,
		Date:          "2026-08-30",
		Time:          "14:00",
		Topic:         "Cardiac Cycle",
		StudyMode:     "Retrieve",
		DurationMin:   &d,
		Understanding: &u,
		Retention:     &r,
		Performance:   &p,
		RSRPercent:    &rsr,
		CognitiveLoad: "medium",
		WhatWorked:    "active recall on pressure-volume loops",
		Highlights:    "- isovolumetric contraction precedes ejection",
		Schedule:      types.ScheduleRecord{R1: "2026-08-31", R2: "2026-09-02"},
		Issues: []types.TutorIssue{
			{Description: "mixed up preload and afterload", Type: types.IssueIncorrectFact, Severity: types.SeverityMedium},
		},
		Metadata: map[string]string{"location": "library"},
	}
}

func TestUpsertSessionInsertThenUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := testSession()
	id, inserted, err := store.UpsertSession(ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "2026-08-30_cardiac-cycle", id)

	longer := 60
	rec.DurationMin = &longer
	rec.WhatWorked = "drawing the loop from memory"
	id2, inserted2, err := store.UpsertSession(ctx, rec)
	require.NoError(t, err)
	assert.False(t, inserted2, "second write with same natural key should update")
	assert.Equal(t, id, id2)

	got, err := store.GetSession(ctx, rec.Date, rec.Time, rec.Topic)
	require.NoError(t, err)
	require.NotNil(t, got.DurationMin)
	assert.Equal(t, 60, *got.DurationMin)
	assert.Equal(t, "drawing the loop from memory", got.WhatWorked)
}

func TestUpsertSessionRequiresNaturalKey(t *testing.T) {
	store := newTestStore(t)

	rec := testSession()
	rec.Time = ""
	_, _, err := store.UpsertSession(context.Background(), rec)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, _, err = store.UpsertSession(context.Background(), nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestGetSessionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := testSession()
	_, _, err := store.UpsertSession(ctx, rec)
	require.NoError(t, err)

	got, err := store.GetSession(ctx, rec.Date, rec.Time, rec.Topic)
	require.NoError(t, err)

	assert.Equal(t, types.SchemaVersion, got.SchemaVersion)
	assert.Equal(t, "Cardiac Cycle", got.Topic)
	require.NotNil(t, got.Understanding)
	assert.Equal(t, 4, *got.Understanding)
	require.NotNil(t, got.RSRPercent)
	assert.InDelta(t, 82.5, *got.RSRPercent, 0.001)
	assert.Equal(t, "2026-08-31", got.Schedule.R1)
	assert.Equal(t, "2026-09-02", got.Schedule.R2)
	assert.Empty(t, got.Schedule.R3)
	require.Len(t, got.Issues, 1)
	assert.Equal(t, types.IssueIncorrectFact, got.Issues[0].Type)
	assert.Equal(t, "library", got.Metadata["location"])
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetSessionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSession(context.Background(), "2026-01-01", "09:00", "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListSessionsByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Two sessions on the same day and topic share a session_id but
	// remain distinct rows because the time differs.
	morning := testSession()
	morning.Time = "09:00"
	evening := testSession()
	evening.Time = "19:30"

	id, _, err := store.UpsertSession(ctx, morning)
	require.NoError(t, err)
	id2, _, err := store.UpsertSession(ctx, evening)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	recs, err := store.ListSessionsByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "09:00", recs[0].Time)
	assert.Equal(t, "19:30", recs[1].Time)
}

func TestInsertCardAndDedup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	card := &types.FlashcardRecord{
		SessionID:  "2026-08-30_cardiac-cycle",
		Front:      "What opens the aortic valve?",
		Back:       "Ventricular pressure exceeding aortic pressure.",
		Tags:       []string{"physiology", "cardio"},
		Source:     "Guyton ch. 9",
		Confidence: 0.9,
	}
	card.Hash = card.ComputeHash()

	require.NoError(t, store.InsertCard(ctx, card))

	exists, err := store.CardExists(ctx, card.SessionID, card.Hash)
	require.NoError(t, err)
	assert.True(t, exists)

	err = store.InsertCard(ctx, card)
	assert.ErrorIs(t, err, storage.ErrConflict)

	// Same content under a different session is a fresh card.
	other := *card
	other.SessionID = "2026-08-31_cardiac-cycle"
	require.NoError(t, store.InsertCard(ctx, &other))
}

func TestInsertCardRequiresKey(t *testing.T) {
	store := newTestStore(t)

	err := store.InsertCard(context.Background(), &types.FlashcardRecord{Front: "f", Back: "b"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestListCardsOrderAndTags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sessionID := "2026-08-30_cardiac-cycle"
	fronts := []string{"first card?", "second card?", "third card?"}
	for _, f := range fronts {
		card := &types.FlashcardRecord{SessionID: sessionID, Front: f, Back: "answer"}
		if f == "first card?" {
			card.Tags = []string{"intro"}
		}
		card.Hash = card.ComputeHash()
		require.NoError(t, store.InsertCard(ctx, card))
	}

	cards, err := store.ListCards(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, cards, 3)
	for i, f := range fronts {
		assert.Equal(t, f, cards[i].Front)
	}
	assert.Equal(t, []string{"intro"}, cards[0].Tags)
	assert.Nil(t, cards[1].Tags)
}
