// Package wrap turns a raw WRAP document (the mixed Markdown + embedded-JSON
// report produced at the end of a tutor session) into structured session
// metadata, flashcards, a review schedule, and a merged JSON tracker.
//
// Parsing is organised as a set of section parsers behind a small capability
// interface; the pipeline driver iterates over the registered parsers instead
// of branching per section. Parsing never fails hard: degenerate input
// degrades to a session with minimal metadata.
package wrap

import (
	"context"

	"github.com/studyops/brain/pkg/types"
)

// Document is the accumulated result of parsing all sections of one WRAP
// document. Section parsers each fill in their slice of it.
type Document struct {
	// Meta holds normalized key/value metadata extracted from Section A
	// merged with the Section D tracker (tracker wins on conflict).
	Meta map[string]string

	// Highlights is the Section A prose that was not consumed as metadata;
	// it seeds the managed note block.
	Highlights string

	// Issues are the classified tutor-issue bullets from Section A.
	Issues []types.TutorIssue

	// Cards are the flashcards from Section B, in source order.
	Cards []types.FlashcardRecord

	// Schedule holds the R1..R4 review dates from Section C.
	Schedule types.ScheduleRecord

	// Tracker is the merged Section D JSON object.
	Tracker map[string]interface{}

	// TrackerSub and Enhanced are the top-level "tracker" and "enhanced"
	// sub-objects of the merged payload, when present.
	TrackerSub map[string]interface{}
	Enhanced   map[string]interface{}

	// Warnings collects non-fatal parse problems (discarded JSON payloads,
	// failed issue classifications) for the pipeline result.
	Warnings []string
}

// SectionParser is the capability implemented by each per-section parser.
type SectionParser interface {
	// Accepts reports whether this parser handles the given section.
	Accepts(key types.SectionKey) bool

	// Parse consumes the raw section text and writes its results into doc.
	// Parse errors are recorded as doc.Warnings; a returned error means the
	// parser could not run at all.
	Parse(ctx context.Context, raw string, doc *Document) error
}

// Parsers returns the full parser set in document-processing order.
func Parsers(classifier IssueClassifier) []SectionParser {
	return []SectionParser{
		NewSectionDParser(),
		NewSectionAParser(classifier),
		NewSectionBParser(),
		NewSectionCParser(),
	}
}

// ParseSections runs every registered parser over its section of the
// segmented document, then merges the tracker and frontmatter into the
// metadata. The merge runs here, not in a section parser, so a document
// carrying only a tracker still produces full session metadata.
func ParseSections(ctx context.Context, wd *types.WrapDocument, classifier IssueClassifier) *Document {
	doc := &Document{Meta: make(map[string]string)}
	for _, p := range Parsers(classifier) {
		for _, key := range types.SectionKeys {
			if !p.Accepts(key) {
				continue
			}
			raw := wd.Section(key)
			if raw == "" {
				continue
			}
			if err := p.Parse(ctx, raw, doc); err != nil {
				doc.Warnings = append(doc.Warnings, "section "+string(key)+": "+err.Error())
			}
		}
	}

	// Tracker values are machine-produced and win over Section A labels.
	mergeTrackerMeta(doc)

	// Frontmatter scalars are the weakest metadata source: they never
	// override keys extracted from the document body.
	for k, v := range wd.Frontmatter {
		if _, ok := doc.Meta[k]; !ok {
			doc.Meta[k] = v
		}
	}

	normalizeSessionMeta(doc.Meta)
	return doc
}
