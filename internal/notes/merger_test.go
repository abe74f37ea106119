package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyops/brain/internal/notebook"
)

type fakeVault struct {
	notes  map[string]string
	getErr error
	putErr error
	puts   int
}

func newFakeVault() *fakeVault {
	return &fakeVault{notes: make(map[string]string)}
}

func (f *fakeVault) GetNote(ctx context.Context, path string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	content, ok := f.notes[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", notebook.ErrNoteNotFound, path)
	}
	return content, nil
}

func (f *fakeVault) PutNote(ctx context.Context, path, content string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.puts++
	f.notes[path] = content
	return nil
}

const notePath = "WRAP Highlights.md"

func TestMergerCreatesBlockInMissingNote(t *testing.T) {
	vault := newFakeVault()
	m := NewMerger(vault, nil, nil, nil, notePath)

	status, err := m.Update(context.Background(), "2026-08-30_cardiac-cycle", "- systole first")
	require.NoError(t, err)
	assert.Equal(t, UpdateOK, status)

	note := vault.notes[notePath]
	assert.Contains(t, note, BlockStart)
	assert.Contains(t, note, "## WRAP Highlights (session_id: 2026-08-30_cardiac-cycle)")
	assert.Contains(t, note, "- systole first")
	assert.Contains(t, note, BlockEnd)
}

func TestMergerIsIdempotent(t *testing.T) {
	vault := newFakeVault()
	m := NewMerger(vault, nil, nil, nil, notePath)
	ctx := context.Background()

	_, err := m.Update(ctx, "2026-08-30_cardiac-cycle", "- systole first\n- then diastole")
	require.NoError(t, err)
	first := vault.notes[notePath]

	status, err := m.Update(ctx, "2026-08-30_cardiac-cycle", "- systole first\n- then diastole")
	require.NoError(t, err)
	assert.Equal(t, UpdateNoChange, status)
	assert.Equal(t, first, vault.notes[notePath], "re-ingest must leave the note byte-identical")
	assert.Equal(t, 1, vault.puts)
}

func TestMergerPreservesUserContent(t *testing.T) {
	vault := newFakeVault()
	vault.notes[notePath] = "# My journal\n\npersonal thoughts\n"
	m := NewMerger(vault, nil, nil, nil, notePath)

	_, err := m.Update(context.Background(), "2026-08-30_cardiac-cycle", "- new highlight")
	require.NoError(t, err)

	note := vault.notes[notePath]
	assert.True(t, strings.HasPrefix(note, "# My journal\n\npersonal thoughts\n"))
	assert.Contains(t, note, "- new highlight")
}

func TestMergerMergesIntoExistingBlock(t *testing.T) {
	vault := newFakeVault()
	m := NewMerger(vault, nil, nil, nil, notePath)
	ctx := context.Background()

	_, err := m.Update(ctx, "2026-08-30_cardiac-cycle", "- systole first")
	require.NoError(t, err)
	_, err = m.Update(ctx, "2026-08-30_cardiac-cycle", "- systole first\n- valves prevent backflow")
	require.NoError(t, err)

	note := vault.notes[notePath]
	assert.Equal(t, 1, strings.Count(note, "- systole first"), "re-merged lines must not duplicate")
	assert.Contains(t, note, "- valves prevent backflow")
	assert.Equal(t, 1, strings.Count(note, BlockStart), "still exactly one block for the session")
}

func TestMergerSemanticMergeKeepsBothSides(t *testing.T) {
	vault := newFakeVault()
	gen := &fakeGenerator{response: `{"merged_content": "- systole first (earlier note)\n- systole opens the aortic valve (update)", "redundant": false}`}
	m := NewMerger(vault, gen, nil, nil, notePath)
	ctx := context.Background()

	_, err := m.Update(ctx, "2026-08-30_cardiac-cycle", "- systole first")
	require.NoError(t, err)
	status, err := m.Update(ctx, "2026-08-30_cardiac-cycle", "- systole opens the aortic valve")
	require.NoError(t, err)
	assert.Equal(t, UpdateOK, status)

	note := vault.notes[notePath]
	assert.Contains(t, note, "- systole first (earlier note)")
	assert.Contains(t, note, "- systole opens the aortic valve (update)")
}

func TestMergerSeparateSessionsGetSeparateBlocks(t *testing.T) {
	vault := newFakeVault()
	m := NewMerger(vault, nil, nil, nil, notePath)
	ctx := context.Background()

	_, err := m.Update(ctx, "2026-08-29_renal", "- nephron review")
	require.NoError(t, err)
	_, err = m.Update(ctx, "2026-08-30_cardiac-cycle", "- systole first")
	require.NoError(t, err)

	note := vault.notes[notePath]
	assert.Equal(t, 2, strings.Count(note, BlockStart))
	assert.Contains(t, note, "session_id: 2026-08-29_renal")
	assert.Contains(t, note, "session_id: 2026-08-30_cardiac-cycle")
	assert.Contains(t, note, "- nephron review")
}

func TestMergerWriteFailureWritesPatch(t *testing.T) {
	vault := newFakeVault()
	vault.putErr = errors.New("vault locked")
	patches := &PatchWriter{Dir: t.TempDir()}
	m := NewMerger(vault, nil, nil, patches, notePath)

	status, err := m.Update(context.Background(), "2026-08-30_cardiac-cycle", "- systole first")
	require.Error(t, err)
	assert.Equal(t, UpdateDeferred, status)

	pending, err := PendingPatches(patches.Dir)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Contains(t, pending[0], "2026-08-30_cardiac-cycle_")

	meta, body, err := ReadPatch(pending[0])
	require.NoError(t, err)
	assert.Equal(t, "2026-08-30_cardiac-cycle", meta.SessionID)
	assert.Equal(t, notePath, meta.NotePath)
	assert.True(t, meta.CanRollback)
	assert.NotEmpty(t, body)
}

func TestMergerReadFailureDefersProposedContent(t *testing.T) {
	vault := newFakeVault()
	vault.getErr = errors.New("connection refused")
	patches := &PatchWriter{Dir: t.TempDir()}
	m := NewMerger(vault, nil, nil, patches, notePath)

	status, err := m.Update(context.Background(), "2026-08-30_cardiac-cycle", "- systole first")
	require.Error(t, err)
	assert.Equal(t, UpdateDeferred, status)

	pending, _ := PendingPatches(patches.Dir)
	require.Len(t, pending, 1)
}

func TestMergerFailureWithoutPatchDirReportsFailed(t *testing.T) {
	vault := newFakeVault()
	vault.putErr = errors.New("vault locked")
	m := NewMerger(vault, nil, nil, nil, notePath)

	status, err := m.Update(context.Background(), "2026-08-30_cardiac-cycle", "- x")
	require.Error(t, err)
	assert.Equal(t, UpdateFailed, status)
}

func TestReplayAppliesDeferredPatch(t *testing.T) {
	vault := newFakeVault()
	vault.putErr = errors.New("vault locked")
	patches := &PatchWriter{Dir: t.TempDir()}
	m := NewMerger(vault, nil, nil, patches, notePath)
	ctx := context.Background()

	_, err := m.Update(ctx, "2026-08-30_cardiac-cycle", "- systole first")
	require.Error(t, err)

	pending, _ := PendingPatches(patches.Dir)
	require.Len(t, pending, 1)

	// The vault comes back; replay the stored patch.
	vault.putErr = nil
	require.NoError(t, Replay(ctx, vault, pending[0]))

	note := vault.notes[notePath]
	assert.Contains(t, note, "- systole first")
	assert.Contains(t, note, BlockStart)

	left, _ := PendingPatches(patches.Dir)
	assert.Empty(t, left, "replayed patch file is removed")
}
