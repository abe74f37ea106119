// Package ingest drives a WRAP document through segmentation, parsing,
// validation, and the three writers. The database writes come first; the
// external note merge runs last because it may fail and must never cost the
// local record.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/studyops/brain/internal/llm"
	"github.com/studyops/brain/internal/notes"
	"github.com/studyops/brain/internal/storage"
	"github.com/studyops/brain/internal/wrap"
	"github.com/studyops/brain/pkg/types"
)

// ErrValidation marks a document rejected by the validator. No writes have
// happened when it is returned.
var ErrValidation = errors.New("validation failed")

// Result reports the outcome of one document ingest, component by component.
type Result struct {
	SessionID        string                 `json:"session_id,omitempty"`
	IsWrap           bool                   `json:"is_wrap"`
	SegmentedBy      string                 `json:"segmented_by"`
	ValidationErrors []wrap.ValidationError `json:"validation_errors,omitempty"`
	SessionInserted  bool                   `json:"session_inserted"`
	Cards            CardStats              `json:"cards"`
	NoteUpdate       notes.UpdateStatus     `json:"note_update"`
	Warnings         []string               `json:"warnings,omitempty"`
}

// Pipeline wires the segmenter, parsers, validator, and writers together.
// The note merger is optional; without one, note updates report as skipped.
type Pipeline struct {
	segmenter  *wrap.Segmenter
	classifier wrap.IssueClassifier
	sessions   *SessionWriter
	cards      *CardWriter
	notes      *notes.Merger
}

// NewPipeline builds a pipeline over the given store. gen may be nil, which
// disables LLM segmentation fallback and issue classification. merger may be
// nil, which disables note updates.
func NewPipeline(store storage.Store, gen llm.TextGenerator, merger *notes.Merger) *Pipeline {
	return &Pipeline{
		segmenter:  wrap.NewSegmenter(gen),
		classifier: wrap.NewLLMIssueClassifier(gen, 0),
		sessions:   NewSessionWriter(store),
		cards:      NewCardWriter(store),
		notes:      merger,
	}
}

// Ingest runs one raw WRAP document through the full pipeline.
func (p *Pipeline) Ingest(ctx context.Context, raw string) (*Result, error) {
	wd := p.segmenter.Segment(ctx, raw)
	doc := wrap.ParseSections(ctx, wd, p.classifier)

	result := &Result{
		IsWrap:      wd.IsWrap(),
		SegmentedBy: wd.SegmentedBy,
		Warnings:    doc.Warnings,
	}

	rec := doc.BuildSession()
	if errs := wrap.ValidateSession(rec); len(errs) > 0 {
		result.ValidationErrors = errs
		return result, fmt.Errorf("%w: %s", ErrValidation, joinValidationErrors(errs))
	}

	sessionID, inserted, err := p.sessions.Write(ctx, rec)
	var sessionErr error
	if err != nil {
		// The session_id derives from the record, so cards and the note
		// merge can still run; the failure is carried to the final return.
		sessionID = rec.SessionID()
		sessionErr = fmt.Errorf("session write failed: %w", err)
		result.Warnings = append(result.Warnings, sessionErr.Error())
		log.Printf("ingest: session write for %s: %v", sessionID, err)
	} else {
		log.Printf("ingest: session %s %s", sessionID, writeVerb(inserted))
	}
	result.SessionID = sessionID
	result.SessionInserted = inserted

	// Cards and the note merge are independent of each other.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		result.Cards = p.cards.Write(ctx, sessionID, doc.Cards)
	}()

	result.NoteUpdate = p.updateNote(ctx, sessionID, rec, doc)
	wg.Wait()

	log.Printf("ingest: %s done: %d cards written, %d skipped, %d failed, note %s",
		sessionID, result.Cards.Written, result.Cards.Skipped, result.Cards.Failed, result.NoteUpdate)
	return result, sessionErr
}

func (p *Pipeline) updateNote(ctx context.Context, sessionID string, rec *types.SessionRecord, doc *wrap.Document) notes.UpdateStatus {
	if p.notes == nil {
		return notes.UpdateSkipped
	}
	status, err := p.notes.Update(ctx, sessionID, ComposeNoteBody(rec, doc))
	if err != nil {
		log.Printf("ingest: note update for %s: %v", sessionID, err)
	}
	return status
}

// ComposeNoteBody builds the highlights body written into the managed
// block: a short metadata list followed by the Section A highlights. The
// output is deterministic so re-ingests stay idempotent.
func ComposeNoteBody(rec *types.SessionRecord, doc *wrap.Document) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("- Date: %s %s", rec.Date, rec.Time))
	mode := rec.StudyMode
	if rec.DurationMin != nil && *rec.DurationMin > 0 {
		mode = fmt.Sprintf("%s, %d min", mode, *rec.DurationMin)
	}
	lines = append(lines, fmt.Sprintf("- Mode: %s", mode))
	if rec.Understanding != nil && rec.Retention != nil {
		lines = append(lines, fmt.Sprintf("- Ratings: understanding %d/5, retention %d/5", *rec.Understanding, *rec.Retention))
	}
	if !rec.Schedule.IsEmpty() {
		var reviews []string
		for _, label := range []string{"R1", "R2", "R3", "R4"} {
			if v := rec.Schedule.Get(label); v != "" {
				reviews = append(reviews, fmt.Sprintf("%s %s", label, v))
			}
		}
		lines = append(lines, "- Reviews: "+strings.Join(reviews, ", "))
	}

	body := strings.Join(lines, "\n")
	if highlights := strings.TrimSpace(doc.Highlights); highlights != "" {
		body += "\n\n" + highlights
	}
	return body
}

func joinValidationErrors(errs []wrap.ValidationError) string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func writeVerb(inserted bool) string {
	if inserted {
		return "inserted"
	}
	return "updated"
}
