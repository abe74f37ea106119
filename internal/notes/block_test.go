package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateBlockFindsSessionBlock(t *testing.T) {
	note := "# Journal\n\n" +
		assembleBlock("2026-08-29_renal", "old renal notes") + "\n\n" +
		assembleBlock("2026-08-30_cardiac-cycle", "- systole first\n- then diastole") + "\n\n" +
		"trailing user text\n"

	region, found := locateBlock(note, "2026-08-30_cardiac-cycle")
	require.True(t, found)
	assert.Equal(t, "- systole first\n- then diastole", region.body)

	// The other session's block is a different region.
	other, found := locateBlock(note, "2026-08-29_renal")
	require.True(t, found)
	assert.Equal(t, "old renal notes", other.body)
	assert.Less(t, other.start, region.start)
}

func TestLocateBlockMissing(t *testing.T) {
	_, found := locateBlock("no managed content here", "2026-08-30_x")
	assert.False(t, found)

	// A block for another session does not match.
	note := assembleBlock("2026-08-29_renal", "body")
	_, found = locateBlock(note, "2026-08-30_cardiac-cycle")
	assert.False(t, found)
}

func TestSpliceBlockAppendsWithSeparator(t *testing.T) {
	note := "# Journal\n\nuser text\n"
	block := assembleBlock("2026-08-30_cardiac-cycle", "body")

	updated := spliceBlock(note, blockRegion{}, false, block)
	assert.Equal(t, "# Journal\n\nuser text\n\n"+block+"\n", updated)
}

func TestSpliceBlockReplacePreservesSurroundings(t *testing.T) {
	before := "user prologue\n\n"
	after := "\n\nuser epilogue\n"
	oldBlock := assembleBlock("2026-08-30_cardiac-cycle", "old body")
	note := before + oldBlock + after

	region, found := locateBlock(note, "2026-08-30_cardiac-cycle")
	require.True(t, found)

	newBlock := assembleBlock("2026-08-30_cardiac-cycle", "new body")
	updated := spliceBlock(note, region, true, newBlock)
	assert.Equal(t, before+newBlock+after, updated)
}

func TestSpliceBlockEmptyNote(t *testing.T) {
	block := assembleBlock("2026-08-30_cardiac-cycle", "body")
	assert.Equal(t, block+"\n", spliceBlock("", blockRegion{}, false, block))
}

func TestCollapseBlankLines(t *testing.T) {
	in := "a\n\n\n\n\nb\n\nc"
	assert.Equal(t, "a\n\n\nb\n\nc", collapseBlankLines(in))
}
