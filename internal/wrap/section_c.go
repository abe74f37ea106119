package wrap

import (
	"context"
	"regexp"
	"strings"

	"github.com/studyops/brain/pkg/types"
)

var scheduleLineRe = regexp.MustCompile(`^(R[1-4])\s*[:=\-]\s*(.+)$`)

// SectionCParser extracts the spaced-review schedule. Values are trimmed but
// not reformatted; labels that never appear simply stay empty.
type SectionCParser struct{}

// NewSectionCParser creates the parser.
func NewSectionCParser() *SectionCParser {
	return &SectionCParser{}
}

// Accepts reports whether this parser handles the given section.
func (p *SectionCParser) Accepts(key types.SectionKey) bool {
	return key == types.SectionC
}

// Parse sets R1..R4 on doc.Schedule from matching lines.
func (p *SectionCParser) Parse(ctx context.Context, raw string, doc *Document) error {
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := scheduleLineRe.FindStringSubmatch(trimmed); m != nil {
			doc.Schedule.Set(m[1], strings.TrimSpace(m[2]))
		}
	}
	return nil
}
