package wrap

import (
	"strconv"
	"time"

	"github.com/studyops/brain/pkg/types"
)

// knownSessionKeys are the metadata keys consumed by dedicated SessionRecord
// fields; everything else lands in the Metadata bag.
var knownSessionKeys = map[string]bool{
	"schema_version": true,
	"date":           true,
	"time":           true,
	"topic":          true,
	"study_mode":     true,
	"duration_min":   true,
	"understanding":  true,
	"retention":      true,
	"performance":    true,
	"rsr_percent":    true,
	"cognitive_load": true,
	"transfer_check": true,
	"spaced_reviews": true,
	"errors_by_type": true,
	"what_worked":    true,
	"to_improve":     true,
	"reflection":     true,
	"session_id":     true,
	"tracker":        true,
	"enhanced":       true,
}

// BuildSession assembles the SessionRecord from the parsed document. The
// record may be incomplete; the validator decides whether it is acceptable.
func (doc *Document) BuildSession() *types.SessionRecord {
	meta := doc.Meta
	rec := &types.SessionRecord{
		SchemaVersion: meta["schema_version"],
		Date:          meta["date"],
		Time:          meta["time"],
		Topic:         meta["topic"],
		StudyMode:     meta["study_mode"],
		CognitiveLoad: meta["cognitive_load"],
		TransferCheck: meta["transfer_check"],
		SpacedReviews: meta["spaced_reviews"],
		ErrorsByType:  meta["errors_by_type"],
		WhatWorked:    meta["what_worked"],
		ToImprove:     meta["to_improve"],
		Reflection:    meta["reflection"],
		Highlights:    doc.Highlights,
		Issues:        doc.Issues,
		Schedule:      doc.Schedule,
	}

	rec.DurationMin = intPtr(meta, "duration_min")
	rec.Understanding = intPtr(meta, "understanding")
	rec.Retention = intPtr(meta, "retention")
	rec.Performance = intPtr(meta, "performance")
	rec.RSRPercent = floatPtr(meta, "rsr_percent")

	extra := make(map[string]string)
	for k, v := range meta {
		if !knownSessionKeys[k] {
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		rec.Metadata = extra
	}

	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return rec
}

func intPtr(meta map[string]string, key string) *int {
	v, ok := meta[key]
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// Force a range violation instead of silently dropping the field.
		bad := -1
		return &bad
	}
	return &n
}

func floatPtr(meta map[string]string, key string) *float64 {
	v, ok := meta[key]
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		bad := -1.0
		return &bad
	}
	return &f
}
