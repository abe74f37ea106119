package notes

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/studyops/brain/internal/llm"
	"github.com/studyops/brain/internal/notebook"
)

// UpdateStatus reports how a note update ended.
type UpdateStatus string

const (
	UpdateOK       UpdateStatus = "ok"
	UpdateNoChange UpdateStatus = "skipped-no-change"
	UpdateDeferred UpdateStatus = "deferred-diff-written"
	UpdateFailed   UpdateStatus = "failed"

	// UpdateSkipped reports that no merger was configured: the note was
	// deliberately left alone, not failed.
	UpdateSkipped UpdateStatus = "skipped"
)

// Merger maintains the managed highlights block in the target note. The
// database writes have already happened by the time it runs, so every
// failure path here degrades rather than aborts: the worst outcome is a
// diff patch on disk instead of an updated note.
type Merger struct {
	client   VaultClient
	gen      llm.TextGenerator
	index    TitleIndex
	patches  *PatchWriter
	notePath string
}

// NewMerger creates a Merger writing to notePath. gen and index may be nil;
// merging then degrades to the deterministic strategy with no wikilinks.
func NewMerger(client VaultClient, gen llm.TextGenerator, index TitleIndex, patches *PatchWriter, notePath string) *Merger {
	return &Merger{
		client:   client,
		gen:      gen,
		index:    index,
		patches:  patches,
		notePath: notePath,
	}
}

// Update merges the session's highlights body into the managed block for
// sessionID and writes the note back. Content outside the block markers is
// preserved byte for byte.
func (m *Merger) Update(ctx context.Context, sessionID, body string) (UpdateStatus, error) {
	note, err := m.client.GetNote(ctx, m.notePath)
	if err != nil {
		if !errors.Is(err, notebook.ErrNoteNotFound) {
			return m.deferPatch(sessionID, "", m.propose("", sessionID, blockRegion{}, false, body),
				fmt.Errorf("failed to read note: %w", err))
		}
		note = ""
	}

	region, found := locateBlock(note, sessionID)

	merged := body
	if found {
		merged = mergeBodies(ctx, m.gen, region.body, body)
	}
	merged = applyWikilinks(ctx, m.gen, m.index, merged)
	merged = collapseBlankLines(merged)

	updated := spliceBlock(note, region, found, assembleBlock(sessionID, merged))
	if updated == note {
		return UpdateNoChange, nil
	}

	if err := m.client.PutNote(ctx, m.notePath, updated); err != nil {
		return m.deferPatch(sessionID, note, updated, fmt.Errorf("failed to write note: %w", err))
	}
	return UpdateOK, nil
}

// propose builds the note content an update would have produced, for patch
// output when the note itself could not be read.
func (m *Merger) propose(note, sessionID string, region blockRegion, found bool, body string) string {
	body = collapseBlankLines(body)
	return spliceBlock(note, region, found, assembleBlock(sessionID, body))
}

// deferPatch writes a diff patch for the failed update and reports the outcome.
func (m *Merger) deferPatch(sessionID, original, proposed string, cause error) (UpdateStatus, error) {
	if m.patches == nil {
		return UpdateFailed, cause
	}
	path, perr := m.patches.Write(sessionID, m.notePath, original, proposed)
	if perr != nil {
		log.Printf("notes: %v; patch write also failed: %v", cause, perr)
		return UpdateFailed, cause
	}
	log.Printf("notes: %v; patch written to %s", cause, path)
	return UpdateDeferred, cause
}
