// Package types defines the core data model for the WRAP ingestion pipeline:
// session records, flashcards, review schedules, tutor issues, and the
// derived session identifier that keys the managed note block.
package types

import (
	"strings"
	"time"
	"unicode"
)

// SchemaVersion is the current WRAP schema tag. A Section D tracker whose
// schema_version differs from this constant fails validation.
const SchemaVersion = "2.0"

// Study modes accepted in a WRAP document, in canonical spelling.
var StudyModes = []string{
	"Prime", "Encode", "Retrieve", "Reinforce", "Review", "Exam Prep",
	"Sprint", "Core", "Drill", "Diagnostic Sprint", "Teaching Sprint",
	"Quick Sprint", "Light",
}

// IsValidStudyMode reports whether mode is one of the canonical study modes.
func IsValidStudyMode(mode string) bool {
	for _, m := range StudyModes {
		if m == mode {
			return true
		}
	}
	return false
}

// NormalizeStudyMode maps a free-form mode string onto a canonical study mode.
// An exact (case-insensitive) match wins; otherwise substring heuristics
// apply, and anything unrecognised falls back to "Core".
func NormalizeStudyMode(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for _, m := range StudyModes {
		if strings.EqualFold(trimmed, m) {
			return m
		}
	}

	lower := strings.ToLower(trimmed)
	switch {
	case strings.Contains(lower, "diagnostic"):
		return "Diagnostic Sprint"
	case strings.Contains(lower, "teaching"):
		return "Teaching Sprint"
	case strings.Contains(lower, "sprint"):
		return "Sprint"
	case strings.Contains(lower, "drill"):
		return "Drill"
	default:
		return "Core"
	}
}

// SessionRecord is the canonical per-session row. The natural key is
// (Date, Time, Topic); re-ingesting the same key updates in place.
type SessionRecord struct {
	SchemaVersion string `json:"schema_version"`

	Date      string `json:"date"`       // YYYY-MM-DD
	Time      string `json:"time"`       // HH:MM
	Topic     string `json:"topic"`      // main topic of the session
	StudyMode string `json:"study_mode"` // one of StudyModes

	// DurationMin is the session length in minutes; nil when the document
	// does not report one, which fails validation.
	DurationMin *int `json:"duration_min,omitempty"`

	// Self-ratings in [1,5]; nil when the document does not report them.
	Understanding *int `json:"understanding,omitempty"`
	Retention     *int `json:"retention,omitempty"`
	Performance   *int `json:"performance,omitempty"`

	// RSRPercent is the retrieval success rate in [0,100]; nil when absent.
	RSRPercent *float64 `json:"rsr_percent,omitempty"`

	CognitiveLoad string `json:"cognitive_load,omitempty"` // intrinsic | extraneous | germane
	TransferCheck string `json:"transfer_check,omitempty"` // yes | no
	SpacedReviews string `json:"spaced_reviews,omitempty"` // "R1=...; R2=...; R3=...; R4=..."
	ErrorsByType  string `json:"errors_by_type,omitempty"` // "type=count; type=count"

	// Free-text reflection fields.
	WhatWorked string `json:"what_worked,omitempty"`
	ToImprove  string `json:"to_improve,omitempty"`
	Reflection string `json:"reflection,omitempty"`

	// Highlights is the Section A prose that feeds the managed note block.
	Highlights string `json:"highlights,omitempty"`

	// Metadata carries extracted keys that have no dedicated column.
	Metadata map[string]string `json:"metadata,omitempty"`

	Issues   []TutorIssue   `json:"issues,omitempty"`
	Schedule ScheduleRecord `json:"schedule,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// SessionID returns the derived stable identifier YYYY-MM-DD_topic-slug.
func (s *SessionRecord) SessionID() string {
	return SessionID(s.Date, s.Topic)
}

// SessionID derives the stable identifier used to key the managed note block.
// The topic slug is lowercased with runs of non-alphanumerics collapsed to a
// single hyphen and leading/trailing hyphens stripped.
func SessionID(date, topic string) string {
	return date + "_" + Slugify(topic)
}

// Slugify lowercases s and collapses every run of non-alphanumeric runes
// into a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
