package wrap

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/studyops/brain/pkg/types"
)

var (
	metaLineRe     = regexp.MustCompile(`^\s*-?\s*([A-Za-z][A-Za-z0-9 _/()-]*?)\s*:\s*(.+?)\s*$`)
	issueHeadingRe = regexp.MustCompile(`(?i)^(mistakes?\s*&\s*corrections?|tutor\s+issues?|errors?\s*&\s*corrections?)$`)
	issueKeywordRe = regexp.MustCompile(`(?i)mistake|incorrect|error`)
	bulletRe       = regexp.MustCompile(`^\s*[-*]\s+(.+)$`)
	headingLineRe  = regexp.MustCompile(`^#+\s+`)
)

// SectionAParser extracts session metadata and tutor-issue bullets from the
// free-form Markdown of Section A.
type SectionAParser struct {
	classifier IssueClassifier
}

// NewSectionAParser creates the parser. classifier may be nil, in which case
// issue bullets get the default classification.
func NewSectionAParser(classifier IssueClassifier) *SectionAParser {
	return &SectionAParser{classifier: classifier}
}

// Accepts reports whether this parser handles the given section.
func (p *SectionAParser) Accepts(key types.SectionKey) bool {
	return key == types.SectionA
}

// Parse extracts label: value metadata, tutor-issue bullets, and the prose
// highlights.
func (p *SectionAParser) Parse(ctx context.Context, raw string, doc *Document) error {
	lines := strings.Split(raw, "\n")

	var prose []string
	inIssueBlock := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		heading := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))

		if issueHeadingRe.MatchString(strings.TrimSuffix(heading, ":")) {
			inIssueBlock = true
			continue
		}
		if inIssueBlock {
			if m := bulletRe.FindStringSubmatch(line); m != nil {
				doc.Issues = append(doc.Issues, p.classify(ctx, doc, strings.TrimSpace(m[1])))
				continue
			}
			if trimmed == "" {
				continue
			}
			// Next heading or any non-bullet content ends the block.
			inIssueBlock = false
		}

		if m := metaLineRe.FindStringSubmatch(line); m != nil {
			key := normalizeMetaKey(m[1])
			if key != "" {
				doc.Meta[key] = strings.TrimSpace(m[2])
				continue
			}
		}
		if trimmed != "" && !headingLineRe.MatchString(trimmed) {
			prose = append(prose, strings.TrimRight(line, " \t"))
		}
	}

	// Without a dedicated heading, any line mentioning a mistake is an issue.
	if len(doc.Issues) == 0 {
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && issueKeywordRe.MatchString(trimmed) && !metaLineRe.MatchString(line) {
				doc.Issues = append(doc.Issues, p.classify(ctx, doc, trimmed))
			}
		}
	}

	doc.Highlights = strings.TrimSpace(strings.Join(prose, "\n"))
	return nil
}

func (p *SectionAParser) classify(ctx context.Context, doc *Document, bullet string) types.TutorIssue {
	if p.classifier == nil {
		return types.DefaultTutorIssue(bullet)
	}
	issue, err := p.classifier.Classify(ctx, bullet)
	if err != nil {
		doc.Warnings = append(doc.Warnings, "issue classification: "+err.Error())
	}
	return issue
}

// mergeTrackerMeta folds scalar tracker values into the metadata map. The
// merged top-level object is applied first, then the "tracker" sub-object,
// so the most specific machine-produced value wins.
func mergeTrackerMeta(doc *Document) {
	apply := func(obj map[string]interface{}) {
		for k, v := range obj {
			if s, ok := scalarString(v); ok {
				doc.Meta[normalizeMetaKey(k)] = s
			}
		}
	}
	apply(doc.Tracker)
	apply(doc.TrackerSub)
}

// normalizeSessionMeta canonicalizes well-known keys: aliases, study mode,
// and the derived session_id.
func normalizeSessionMeta(meta map[string]string) {
	aliases := map[string]string{
		"main_topic":         "topic",
		"session_date":       "date",
		"session_time":       "time",
		"mode":               "study_mode",
		"duration":           "duration_min",
		"duration_minutes":   "duration_min",
		"system_performance": "performance",
	}
	for from, to := range aliases {
		if v, ok := meta[from]; ok {
			if _, exists := meta[to]; !exists {
				meta[to] = v
			}
		}
	}

	if mode, ok := meta["study_mode"]; ok {
		meta["study_mode"] = types.NormalizeStudyMode(mode)
	}

	if _, ok := meta["session_id"]; !ok {
		if date, hasDate := meta["date"]; hasDate {
			if topic, hasTopic := meta["topic"]; hasTopic {
				meta["session_id"] = types.SessionID(date, topic)
			}
		}
	}
}

// normalizeMetaKey lowercases a label and collapses runs of non-alphanumeric
// characters into single underscores.
func normalizeMetaKey(label string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// scalarString renders a scalar JSON value as a string; objects and arrays
// return false.
func scalarString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), true
	case float64:
		// encoding/json numbers; print integers without a decimal point.
		if val == math.Trunc(val) {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		if val {
			return "true", true
		}
		return "false", true
	}
	return "", false
}
