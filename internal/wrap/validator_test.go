package wrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyops/brain/pkg/types"
)

func validSession() *types.SessionRecord {
	u, r, d := 4, 3, 45
	return &types.SessionRecord{
		SchemaVersion: types.SchemaVersion,
		Date:          "2026-01-01",
		Time:          "09:30",
		Topic:         "Brachial Plexus",
		StudyMode:     "Core",
		DurationMin:   &d,
		Understanding: &u,
		Retention:     &r,
	}
}

func fieldErrors(errs []ValidationError) map[string]string {
	m := make(map[string]string)
	for _, e := range errs {
		m[e.Field] = e.Message
	}
	return m
}

func TestValidateSessionAccepts(t *testing.T) {
	assert.Empty(t, ValidateSession(validSession()))
}

func TestValidateSchemaVersion(t *testing.T) {
	rec := validSession()
	rec.SchemaVersion = "1.0"
	errs := ValidateSession(rec)
	require.Len(t, errs, 1)
	assert.Equal(t, "schema_version", errs[0].Field)
}

func TestValidateRequiredFields(t *testing.T) {
	rec := &types.SessionRecord{SchemaVersion: types.SchemaVersion}
	fields := fieldErrors(ValidateSession(rec))
	for _, f := range []string{"date", "time", "topic", "study_mode", "duration_min"} {
		assert.Contains(t, fields, f)
	}
}

func TestValidateMissingDurationRejected(t *testing.T) {
	rec := validSession()
	rec.DurationMin = nil
	errs := ValidateSession(rec)
	require.Len(t, errs, 1)
	assert.Equal(t, "duration_min", errs[0].Field)
	assert.Equal(t, "required field missing", errs[0].Message)
}

func TestValidateRatingRange(t *testing.T) {
	rec := validSession()
	bad := 7
	rec.Understanding = &bad
	errs := ValidateSession(rec)
	require.Len(t, errs, 1)
	assert.Equal(t, "understanding", errs[0].Field)
	assert.Equal(t, "understanding out of range [1,5]", errs[0].Message)
}

func TestValidateRanges(t *testing.T) {
	rec := validSession()
	neg := -1
	rec.DurationMin = &neg
	pct := 101.0
	rec.RSRPercent = &pct
	fields := fieldErrors(ValidateSession(rec))
	assert.Contains(t, fields, "duration_min")
	assert.Contains(t, fields, "rsr_percent")
}

func TestValidateEnums(t *testing.T) {
	rec := validSession()
	rec.StudyMode = "Cramming"
	rec.CognitiveLoad = "overwhelming"
	rec.TransferCheck = "maybe"
	fields := fieldErrors(ValidateSession(rec))
	assert.Contains(t, fields, "study_mode")
	assert.Contains(t, fields, "cognitive_load")
	assert.Contains(t, fields, "transfer_check")
}

func TestValidatePatternFields(t *testing.T) {
	rec := validSession()
	rec.SpacedReviews = "R1=2026-01-03; R2=2026-01-07; R3=2026-01-14; R4=2026-01-28"
	rec.ErrorsByType = "recall=2; confusion=1"
	assert.Empty(t, ValidateSession(rec))

	rec.SpacedReviews = "R1=soon"
	rec.ErrorsByType = "recall 2"
	fields := fieldErrors(ValidateSession(rec))
	assert.Contains(t, fields, "spaced_reviews")
	assert.Contains(t, fields, "errors_by_type")
}

func TestBuildSession(t *testing.T) {
	doc := &Document{
		Meta: map[string]string{
			"schema_version": "2.0",
			"date":           "2026-01-01",
			"time":           "09:30",
			"topic":          "Brachial Plexus",
			"study_mode":     "Core",
			"duration_min":   "45",
			"understanding":  "4",
			"rsr_percent":    "87.5",
			"focus_quality":  "good", // no dedicated column
		},
		Highlights: "- origin at supraglenoid tubercle",
		Schedule:   types.ScheduleRecord{R1: "2026-01-03"},
	}

	rec := doc.BuildSession()
	assert.Equal(t, "2026-01-01_brachial-plexus", rec.SessionID())
	require.NotNil(t, rec.DurationMin)
	assert.Equal(t, 45, *rec.DurationMin)
	require.NotNil(t, rec.Understanding)
	assert.Equal(t, 4, *rec.Understanding)
	assert.Nil(t, rec.Retention)
	require.NotNil(t, rec.RSRPercent)
	assert.Equal(t, 87.5, *rec.RSRPercent)
	assert.Equal(t, "good", rec.Metadata["focus_quality"])
	assert.Empty(t, ValidateSession(rec))
}

func TestBuildSessionUnparseableNumbers(t *testing.T) {
	doc := &Document{Meta: map[string]string{
		"schema_version": "2.0",
		"date":           "2026-01-01",
		"time":           "09:30",
		"topic":          "Knee",
		"study_mode":     "Core",
		"duration_min":   "forty-five",
		"understanding":  "lots",
	}}
	fields := fieldErrors(ValidateSession(doc.BuildSession()))
	assert.Contains(t, fields, "duration_min")
	assert.Contains(t, fields, "understanding")
}
