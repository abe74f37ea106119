package types_test

import (
	"testing"

	"github.com/studyops/brain/pkg/types"
)

// TestSessionID verifies slug derivation from date and topic.
func TestSessionID(t *testing.T) {
	cases := []struct {
		date, topic, want string
	}{
		{"2026-01-01", "Brachial Plexus", "2026-01-01_brachial-plexus"},
		{"2026-01-01", "  Brachial   Plexus  ", "2026-01-01_brachial-plexus"},
		{"2026-03-15", "C5/C6 Nerve Roots!", "2026-03-15_c5-c6-nerve-roots"},
		{"2026-03-15", "---edge---", "2026-03-15_edge"},
		{"2026-03-15", "", "2026-03-15_"},
	}
	for _, tc := range cases {
		if got := types.SessionID(tc.date, tc.topic); got != tc.want {
			t.Errorf("SessionID(%q, %q) = %q, want %q", tc.date, tc.topic, got, tc.want)
		}
	}
}

// TestNormalizeStudyMode verifies exact matches win over substring heuristics.
func TestNormalizeStudyMode(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Core", "Core"},
		{"review", "Review"},
		{"EXAM PREP", "Exam Prep"},
		{"diagnostic session", "Diagnostic Sprint"},
		{"teaching round", "Teaching Sprint"},
		{"evening sprint", "Sprint"},
		{"anatomy drill", "Drill"},
		{"freeform studying", "Core"},
		{"", "Core"},
	}
	for _, tc := range cases {
		if got := types.NormalizeStudyMode(tc.in); got != tc.want {
			t.Errorf("NormalizeStudyMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestIsValidStudyMode checks membership against the canonical list.
func TestIsValidStudyMode(t *testing.T) {
	if !types.IsValidStudyMode("Quick Sprint") {
		t.Error("expected Quick Sprint to be valid")
	}
	if types.IsValidStudyMode("quick sprint") {
		t.Error("lowercase spelling is not a canonical mode")
	}
	if types.IsValidStudyMode("Cramming") {
		t.Error("expected Cramming to be invalid")
	}
}
