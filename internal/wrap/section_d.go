package wrap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/studyops/brain/pkg/types"
)

// SectionDParser locates the JSON tracker payloads: fenced json code blocks
// first, then any balanced-brace substring when no fence was found. Payloads
// merge left-to-right into one object; later payloads win on key collisions.
type SectionDParser struct{}

// NewSectionDParser creates the parser.
func NewSectionDParser() *SectionDParser {
	return &SectionDParser{}
}

// Accepts reports whether this parser handles the given section.
func (p *SectionDParser) Accepts(key types.SectionKey) bool {
	return key == types.SectionD
}

// Parse merges every parseable payload into doc.Tracker and lifts the
// "tracker" and "enhanced" sub-objects when present. Unparseable payloads
// are discarded with a warning.
func (p *SectionDParser) Parse(ctx context.Context, raw string, doc *Document) error {
	payloads := extractPayloads(raw)

	merged := make(map[string]interface{})
	parsedAny := false
	for i, payload := range payloads {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(payload), &obj); err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("section D: discarding payload %d: %v", i+1, err))
			continue
		}
		parsedAny = true
		for k, v := range obj {
			merged[k] = v
		}
	}
	if !parsedAny {
		if len(payloads) > 0 {
			doc.Warnings = append(doc.Warnings, "section D: no parseable JSON payload")
		}
		return nil
	}

	doc.Tracker = merged
	if sub, ok := merged["tracker"].(map[string]interface{}); ok {
		doc.TrackerSub = sub
	}
	if sub, ok := merged["enhanced"].(map[string]interface{}); ok {
		doc.Enhanced = sub
	}
	return nil
}

// extractPayloads returns the candidate JSON strings in raw: the contents of
// fenced json blocks, or failing that every balanced-brace substring.
func extractPayloads(raw string) []string {
	var payloads []string
	for _, m := range fencedJSONRe.FindAllStringSubmatch(raw, -1) {
		if b := strings.TrimSpace(m[1]); b != "" {
			payloads = append(payloads, b)
		}
	}
	if len(payloads) > 0 {
		return payloads
	}
	return balancedBraceSubstrings(raw)
}

// balancedBraceSubstrings scans raw for top-level {...} spans, respecting
// strings and escapes so that braces inside values do not end a span early.
func balancedBraceSubstrings(raw string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escape := false

	for i := 0; i < len(raw); i++ {
		char := raw[i]
		if escape {
			escape = false
			continue
		}
		if inString {
			switch char {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch char {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					spans = append(spans, raw[start:i+1])
					start = -1
				}
			}
		}
	}
	return spans
}
