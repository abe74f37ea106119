package wrap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyops/brain/internal/llm"
	"github.com/studyops/brain/pkg/types"
)

// fakeGenerator returns a canned response (or error) for every completion.
type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeGenerator) Model() string { return "fake" }

const sampleWrap = `# WRAP Report

## Section A
- Date: 2026-01-01
- Time: 09:30
- Topic: Brachial Plexus

## Section B
Front: Q1
Back: A1

## Section C
R1: 2026-01-03
R2: 2026-01-07

## Section D
` + "```json\n{\"schema_version\": \"2.0\"}\n```"

func TestSegmentByHeaders(t *testing.T) {
	s := NewSegmenter(nil)
	doc := s.Segment(context.Background(), sampleWrap)

	require.Equal(t, "headers", doc.SegmentedBy)
	assert.True(t, doc.IsWrap())
	assert.Contains(t, doc.Section(types.SectionA), "Topic: Brachial Plexus")
	assert.Contains(t, doc.Section(types.SectionB), "Front: Q1")
	assert.Contains(t, doc.Section(types.SectionC), "R1: 2026-01-03")
	assert.Contains(t, doc.Section(types.SectionD), "schema_version")
	// The preamble heading content stays in Section A.
	assert.Contains(t, doc.Section(types.SectionA), "# WRAP Report")
}

func TestSegmentLetterHeaders(t *testing.T) {
	raw := "A: Session Notes\n- Topic: Knee\nB)\nFront: Q\nBack: A\nC -\nR1 = 2026-02-01"
	doc := NewSegmenter(nil).Segment(context.Background(), raw)

	require.Equal(t, "headers", doc.SegmentedBy)
	assert.Contains(t, doc.Section(types.SectionA), "Topic: Knee")
	assert.Contains(t, doc.Section(types.SectionB), "Front: Q")
	assert.Contains(t, doc.Section(types.SectionC), "R1 = 2026-02-01")
}

func TestSegmentInlineCards(t *testing.T) {
	raw := "Front: Q1\nBack: A1\n\nFront: Q2\nBack: A2\n```json\n{\"a\": 1}\n```"
	doc := NewSegmenter(nil).Segment(context.Background(), raw)

	require.Equal(t, "inline", doc.SegmentedBy)
	assert.Equal(t, raw, doc.Section(types.SectionB))
	assert.Equal(t, `{"a": 1}`, doc.Section(types.SectionD))
}

func TestSegmentLLMFallback(t *testing.T) {
	// Scores 2 via WRAP +1 and R-lines +1, but has no recognisable headers
	// or Front/Back pairs.
	raw := "WRAP summary of today\nstudied the knee\nR1: 2026-02-01"
	gen := &fakeGenerator{response: `{"section_a": "studied the knee", "section_c": "R1: 2026-02-01"}`}

	doc := NewSegmenter(gen).Segment(context.Background(), raw)
	require.Equal(t, "llm", doc.SegmentedBy)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "studied the knee", doc.Section(types.SectionA))
	assert.Equal(t, "R1: 2026-02-01", doc.Section(types.SectionC))
}

func TestSegmentLLMFailureFallsBackToA(t *testing.T) {
	raw := "WRAP summary\nR1: 2026-02-01"
	gen := &fakeGenerator{err: errors.New("model offline")}

	doc := NewSegmenter(gen).Segment(context.Background(), raw)
	require.Equal(t, "fallback", doc.SegmentedBy)
	assert.Equal(t, raw, doc.Section(types.SectionA))
}

func TestSegmentDegenerateInput(t *testing.T) {
	for _, raw := range []string{"", "just a note to self", "{{{{", strings.Repeat("x", 10000)} {
		doc := NewSegmenter(nil).Segment(context.Background(), raw)
		require.NotNil(t, doc.Sections, "input %q", raw)
		assert.Equal(t, raw, doc.Section(types.SectionA))
	}
}

func TestFormatScore(t *testing.T) {
	assert.GreaterOrEqual(t, FormatScore(sampleWrap), 2)
	assert.Less(t, FormatScore("grocery list\n- eggs\n- milk"), 2)
	assert.Equal(t, 2, FormatScore("WRAP\nR1: 2026-01-01"))
}

func TestSplitFrontmatter(t *testing.T) {
	raw := "---\ntopic: Knee\nduration_min: 45\n---\nbody text"
	fm, body := splitFrontmatter(raw)
	require.NotNil(t, fm)
	assert.Equal(t, "Knee", fm["topic"])
	assert.Equal(t, "45", fm["duration_min"])
	assert.Equal(t, "body text", body)

	fm, body = splitFrontmatter("no frontmatter here")
	assert.Nil(t, fm)
	assert.Equal(t, "no frontmatter here", body)

	// Unterminated frontmatter is treated as body.
	fm, body = splitFrontmatter("---\ntopic: Knee")
	assert.Nil(t, fm)
	assert.Equal(t, "---\ntopic: Knee", body)
}
