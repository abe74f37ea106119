package wrap

import (
	"context"
	"regexp"
	"strings"

	"github.com/studyops/brain/pkg/types"
)

var cardFieldRe = regexp.MustCompile(`(?i)^(front|back|tags|source)\s*:\s*(.*)$`)

// SectionBParser extracts the ordered flashcard list from Section B.
// A new Front: while a card is in progress flushes the current card;
// non-matching non-empty lines extend the most recently set field.
type SectionBParser struct{}

// NewSectionBParser creates the parser.
func NewSectionBParser() *SectionBParser {
	return &SectionBParser{}
}

// Accepts reports whether this parser handles the given section.
func (p *SectionBParser) Accepts(key types.SectionKey) bool {
	return key == types.SectionB
}

// Parse scans Section B line by line and appends the cards to doc.Cards.
func (p *SectionBParser) Parse(ctx context.Context, raw string, doc *Document) error {
	var (
		current   *types.FlashcardRecord
		lastField string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Front = strings.TrimSpace(current.Front)
		current.Back = strings.TrimSpace(current.Back)
		if current.Front != "" || current.Back != "" {
			doc.Cards = append(doc.Cards, *current)
		}
		current = nil
		lastField = ""
	}

	for _, line := range strings.Split(raw, "\n") {
		if m := cardFieldRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			field := strings.ToLower(m[1])
			value := strings.TrimSpace(m[2])

			if field == "front" && current != nil {
				flush()
			}
			if current == nil {
				current = &types.FlashcardRecord{}
			}
			switch field {
			case "front":
				current.Front = value
			case "back":
				current.Back = value
			case "tags":
				current.Tags = types.ParseTags(value)
			case "source":
				current.Source = value
			}
			lastField = field
			continue
		}

		// Continuation lines extend the most recently set field.
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || current == nil || lastField == "" {
			continue
		}
		switch lastField {
		case "front":
			current.Front += "\n" + trimmed
		case "back":
			current.Back += "\n" + trimmed
		case "source":
			current.Source += " " + trimmed
		case "tags":
			current.Tags = append(current.Tags, types.ParseTags(trimmed)...)
		}
	}
	flush()
	return nil
}
