package wrap

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/studyops/brain/pkg/types"
)

// ValidationError is one specific violation found in a WRAP document.
// Validation produces a list of these, never a panic or an exception-style
// abort; an empty list means the document is accepted.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error renders a single "field: message" line.
func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

var (
	dateRe          = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe          = regexp.MustCompile(`^\d{2}:\d{2}$`)
	spacedReviewsRe = regexp.MustCompile(`^R1=\d{4}-\d{2}-\d{2}; R2=\d{4}-\d{2}-\d{2}; R3=\d{4}-\d{2}-\d{2}; R4=\d{4}-\d{2}-\d{2}$`)
	kvPairRe        = regexp.MustCompile(`^[A-Za-z0-9_ -]+=[^;=]+$`)
)

// ValidateSession enforces schema version, required fields, enumerations,
// numeric ranges, and the compound string patterns on a built session record.
func ValidateSession(rec *types.SessionRecord) []ValidationError {
	var errs []ValidationError

	if rec.SchemaVersion != types.SchemaVersion {
		errs = append(errs, ValidationError{
			Field:   "schema_version",
			Message: fmt.Sprintf("expected %q, got %q", types.SchemaVersion, rec.SchemaVersion),
		})
	}

	// Required fields.
	if rec.Date == "" {
		errs = append(errs, ValidationError{Field: "date", Message: "required field missing"})
	} else if !dateRe.MatchString(rec.Date) {
		errs = append(errs, ValidationError{Field: "date", Message: "must be YYYY-MM-DD"})
	}
	if rec.Time == "" {
		errs = append(errs, ValidationError{Field: "time", Message: "required field missing"})
	} else if !timeRe.MatchString(rec.Time) {
		errs = append(errs, ValidationError{Field: "time", Message: "must be HH:MM"})
	}
	if strings.TrimSpace(rec.Topic) == "" {
		errs = append(errs, ValidationError{Field: "topic", Message: "required field missing"})
	}
	if rec.StudyMode == "" {
		errs = append(errs, ValidationError{Field: "study_mode", Message: "required field missing"})
	} else if !types.IsValidStudyMode(rec.StudyMode) {
		errs = append(errs, ValidationError{Field: "study_mode", Message: fmt.Sprintf("%q is not a declared study mode", rec.StudyMode)})
	}

	if rec.DurationMin == nil {
		errs = append(errs, ValidationError{Field: "duration_min", Message: "required field missing"})
	} else if *rec.DurationMin < 0 {
		errs = append(errs, ValidationError{Field: "duration_min", Message: "must be a non-negative integer"})
	}

	// Numeric ranges.
	for _, rating := range []struct {
		name  string
		value *int
	}{
		{"understanding", rec.Understanding},
		{"retention", rec.Retention},
		{"performance", rec.Performance},
	} {
		if rating.value != nil && (*rating.value < 1 || *rating.value > 5) {
			errs = append(errs, ValidationError{Field: rating.name, Message: fmt.Sprintf("%s out of range [1,5]", rating.name)})
		}
	}
	if rec.RSRPercent != nil && (*rec.RSRPercent < 0 || *rec.RSRPercent > 100) {
		errs = append(errs, ValidationError{Field: "rsr_percent", Message: "rsr_percent out of range [0,100]"})
	}

	// Enumerations.
	if rec.CognitiveLoad != "" {
		switch rec.CognitiveLoad {
		case "intrinsic", "extraneous", "germane":
		default:
			errs = append(errs, ValidationError{Field: "cognitive_load", Message: "must be one of intrinsic, extraneous, germane"})
		}
	}
	if rec.TransferCheck != "" && rec.TransferCheck != "yes" && rec.TransferCheck != "no" {
		errs = append(errs, ValidationError{Field: "transfer_check", Message: "must be yes or no"})
	}

	// Pattern fields.
	if rec.SpacedReviews != "" && !spacedReviewsRe.MatchString(rec.SpacedReviews) {
		errs = append(errs, ValidationError{
			Field:   "spaced_reviews",
			Message: "must match R1=<date>; R2=<date>; R3=<date>; R4=<date>",
		})
	}
	if rec.ErrorsByType != "" {
		if err := validateKVList(rec.ErrorsByType); err != "" {
			errs = append(errs, ValidationError{Field: "errors_by_type", Message: err})
		}
	}

	return errs
}

// validateKVList checks a semicolon-separated key=value compound string and
// returns a message describing the first bad pair, or "".
func validateKVList(raw string) string {
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		if !kvPairRe.MatchString(pair) {
			return fmt.Sprintf("%q is not a key=value pair", pair)
		}
	}
	return ""
}
