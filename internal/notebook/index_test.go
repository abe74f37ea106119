package notebook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	dirs  map[string][]string
	err   error
	calls int
}

func (f *fakeLister) ListDir(ctx context.Context, dir string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.dirs[dir], nil
}

func TestWikilinkIndexRecursiveTitles(t *testing.T) {
	lister := &fakeLister{dirs: map[string][]string{
		"":        {"Cardiac Cycle.md", "Anatomy/", "scratch.txt"},
		"Anatomy": {"Heart.md", "Valves.markdown"},
	}}
	idx := NewWikilinkIndex(lister)

	titles := idx.Titles(context.Background())
	require.Len(t, titles, 3)
	assert.Equal(t, "Cardiac Cycle", titles["cardiac cycle"])
	assert.Equal(t, "Heart", titles["heart"])
	assert.Equal(t, "Valves", titles["valves"])

	assert.True(t, idx.Has(context.Background(), "CARDIAC cycle"))
	assert.False(t, idx.Has(context.Background(), "Spleen"))
	assert.Equal(t, "Cardiac Cycle", idx.Canonical(context.Background(), "cardiac cycle"))
	assert.Equal(t, "Spleen", idx.Canonical(context.Background(), "Spleen"))
}

func TestWikilinkIndexCachesListing(t *testing.T) {
	lister := &fakeLister{dirs: map[string][]string{"": {"Note.md"}}}
	idx := NewWikilinkIndex(lister)

	idx.Titles(context.Background())
	idx.Titles(context.Background())
	assert.Equal(t, 1, lister.calls, "second lookup must hit the cache")

	idx.Clear()
	idx.Titles(context.Background())
	assert.Equal(t, 2, lister.calls)
}

func TestWikilinkIndexUnreachableVault(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	idx := NewWikilinkIndex(lister)

	titles := idx.Titles(context.Background())
	assert.Empty(t, titles)

	// The failure is cached; the vault is not hammered on every lookup.
	idx.Titles(context.Background())
	assert.Equal(t, 1, lister.calls)
}
