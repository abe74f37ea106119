package wrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyops/brain/pkg/types"
)

func parseSection(t *testing.T, p SectionParser, raw string) *Document {
	t.Helper()
	doc := &Document{Meta: make(map[string]string)}
	require.NoError(t, p.Parse(context.Background(), raw, doc))
	return doc
}

func parseDoc(t *testing.T, sections map[types.SectionKey]string) *Document {
	t.Helper()
	return ParseSections(context.Background(), &types.WrapDocument{Sections: sections}, nil)
}

func TestSectionAMetadata(t *testing.T) {
	raw := `- Date: 2026-01-01
- Time: 09:30
- Topic: Brachial Plexus
- Study Mode: Core
- Duration (min): 45
Felt sharp today, retrieval was quick.`

	doc := parseSection(t, NewSectionAParser(nil), raw)

	assert.Equal(t, "2026-01-01", doc.Meta["date"])
	assert.Equal(t, "09:30", doc.Meta["time"])
	assert.Equal(t, "Brachial Plexus", doc.Meta["topic"])
	assert.Equal(t, "Core", doc.Meta["study_mode"])
	assert.Equal(t, "45", doc.Meta["duration_min"])
	assert.Equal(t, "Felt sharp today, retrieval was quick.", doc.Highlights)
}

func TestParseSectionsDerivesSessionID(t *testing.T) {
	doc := parseDoc(t, map[types.SectionKey]string{
		types.SectionA: "- Date: 2026-01-01\n- Topic: Brachial Plexus",
	})
	assert.Equal(t, "2026-01-01_brachial-plexus", doc.Meta["session_id"])
}

func TestParseSectionsModeNormalization(t *testing.T) {
	doc := parseDoc(t, map[types.SectionKey]string{
		types.SectionA: "- Mode: evening sprint",
	})
	assert.Equal(t, "Sprint", doc.Meta["study_mode"])
}

func TestParseSectionsTrackerWins(t *testing.T) {
	doc := parseDoc(t, map[types.SectionKey]string{
		types.SectionA: "- Topic: Brachial Plexus\n- Duration Min: 45",
		types.SectionD: "```json\n{\"topic\": \"Brachial Plexus (tracked)\", \"duration_min\": 50}\n```",
	})

	assert.Equal(t, "Brachial Plexus (tracked)", doc.Meta["topic"])
	assert.Equal(t, "50", doc.Meta["duration_min"])
}

func TestParseSectionsTrackerOnlyDocument(t *testing.T) {
	tracker := `{"schema_version": "2.0", "date": "2026-01-01", "time": "09:30",` +
		` "topic": "Brachial Plexus", "study_mode": "Core", "duration_min": 45}`
	doc := parseDoc(t, map[types.SectionKey]string{
		types.SectionD: "```json\n" + tracker + "\n```",
	})

	rec := doc.BuildSession()
	assert.Empty(t, ValidateSession(rec), "a complete tracker alone must satisfy the validator")
	assert.Equal(t, "Brachial Plexus", rec.Topic)
	assert.Equal(t, "2026-01-01_brachial-plexus", doc.Meta["session_id"])
}

func TestSectionAIssueBullets(t *testing.T) {
	raw := `## Mistakes & Corrections
- Tutor invented a citation for Gray's Anatomy
- Table columns were misaligned

## Next Steps
- Review origins again`

	doc := parseSection(t, NewSectionAParser(nil), raw)

	require.Len(t, doc.Issues, 2)
	assert.Equal(t, "Tutor invented a citation for Gray's Anatomy", doc.Issues[0].Description)
	// With no classifier configured, every issue takes the default variant.
	assert.Equal(t, types.IssueFormatting, doc.Issues[0].Type)
	assert.Equal(t, types.SeverityLow, doc.Issues[0].Severity)
}

func TestSectionAIssueKeywordFallback(t *testing.T) {
	raw := "Studied hard.\nThe tutor made an error about nerve roots."
	doc := parseSection(t, NewSectionAParser(nil), raw)

	require.Len(t, doc.Issues, 1)
	assert.Contains(t, doc.Issues[0].Description, "error about nerve roots")
}

func TestSectionBCards(t *testing.T) {
	raw := `Front: What is the origin of the long head of biceps?
Back: Supraglenoid tubercle.
Tags: anatomy; upper-limb
Source: Moore 8e

Front: Q2
Back: A2 line one
continuation of the answer`

	doc := parseSection(t, NewSectionBParser(), raw)

	require.Len(t, doc.Cards, 2)
	assert.Equal(t, "What is the origin of the long head of biceps?", doc.Cards[0].Front)
	assert.Equal(t, "Supraglenoid tubercle.", doc.Cards[0].Back)
	assert.Equal(t, []string{"anatomy", "upper-limb"}, doc.Cards[0].Tags)
	assert.Equal(t, "Moore 8e", doc.Cards[0].Source)
	assert.Equal(t, "A2 line one\ncontinuation of the answer", doc.Cards[1].Back)
}

func TestSectionBSkipsEmptyCards(t *testing.T) {
	doc := parseSection(t, NewSectionBParser(), "Front:\nBack:\n\nFront: kept\nBack:")
	require.Len(t, doc.Cards, 1)
	assert.Equal(t, "kept", doc.Cards[0].Front)
}

func TestSectionCSchedule(t *testing.T) {
	raw := "R1: 2026-01-03\nR2 = 2026-01-07\nR3 - 2026-01-14\nnot a schedule line"
	doc := parseSection(t, NewSectionCParser(), raw)

	assert.Equal(t, "2026-01-03", doc.Schedule.R1)
	assert.Equal(t, "2026-01-07", doc.Schedule.R2)
	assert.Equal(t, "2026-01-14", doc.Schedule.R3)
	assert.Equal(t, "", doc.Schedule.R4)
}

func TestSectionCOutOfOrderLabels(t *testing.T) {
	// Labels bind by name, not by textual position.
	doc := parseSection(t, NewSectionCParser(), "R2: 2026-01-07\nR1: 2026-01-03")
	assert.Equal(t, "2026-01-03", doc.Schedule.R1)
	assert.Equal(t, "2026-01-07", doc.Schedule.R2)
}

func TestSectionDFencedPayloads(t *testing.T) {
	raw := "```json\n{\"schema_version\": \"2.0\", \"understanding\": 4}\n```\ntext\n```json\n{\"understanding\": 5, \"tracker\": {\"retention\": 3}}\n```"
	doc := parseSection(t, NewSectionDParser(), raw)

	require.NotNil(t, doc.Tracker)
	// Later payloads win on collision.
	assert.Equal(t, float64(5), doc.Tracker["understanding"])
	assert.Equal(t, "2.0", doc.Tracker["schema_version"])
	require.NotNil(t, doc.TrackerSub)
	assert.Equal(t, float64(3), doc.TrackerSub["retention"])
}

func TestSectionDBareBraces(t *testing.T) {
	raw := `The tracker follows {"schema_version": "2.0", "note": "has } inside string? no: \"}\" quoted"} trailing text`
	doc := parseSection(t, NewSectionDParser(), raw)

	require.NotNil(t, doc.Tracker)
	assert.Equal(t, "2.0", doc.Tracker["schema_version"])
}

func TestSectionDDiscardsBadPayloads(t *testing.T) {
	raw := "```json\n{not valid json}\n```\n```json\n{\"ok\": true}\n```"
	doc := parseSection(t, NewSectionDParser(), raw)

	require.NotNil(t, doc.Tracker)
	assert.Equal(t, true, doc.Tracker["ok"])
	assert.Len(t, doc.Warnings, 1)
}
