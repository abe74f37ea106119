package types

// IssueType classifies a tutor issue reported in Section A.
type IssueType string

const (
	IssueHallucination      IssueType = "hallucination"
	IssueFormatting         IssueType = "formatting"
	IssueIncorrectFact      IssueType = "incorrect_fact"
	IssueUnpromptedArtifact IssueType = "unprompted_artifact"
)

// IssueSeverity grades how badly the tutor misbehaved.
type IssueSeverity string

const (
	SeverityLow    IssueSeverity = "low"
	SeverityMedium IssueSeverity = "medium"
	SeverityHigh   IssueSeverity = "high"
)

// TutorIssue is one bullet from a "Mistakes & Corrections" (or similar)
// heading in Section A, classified by the LLM. When classification fails
// the issue defaults to formatting/low rather than carrying a null.
type TutorIssue struct {
	Description string        `json:"description"`
	Type        IssueType     `json:"issue_type"`
	Severity    IssueSeverity `json:"severity"`
}

// DefaultTutorIssue returns the fallback classification for a bullet.
func DefaultTutorIssue(description string) TutorIssue {
	return TutorIssue{
		Description: description,
		Type:        IssueFormatting,
		Severity:    SeverityLow,
	}
}

// ValidIssueType reports whether t is one of the four declared issue kinds.
func ValidIssueType(t IssueType) bool {
	switch t {
	case IssueHallucination, IssueFormatting, IssueIncorrectFact, IssueUnpromptedArtifact:
		return true
	}
	return false
}

// ValidSeverity reports whether s is a declared severity.
func ValidSeverity(s IssueSeverity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}
