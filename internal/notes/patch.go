package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/studyops/brain/internal/notebook"
)

// PatchMeta is the JSON header on the first line of a patch file.
type PatchMeta struct {
	SessionID      string `json:"session_id"`
	NotePath       string `json:"note_path"`
	Timestamp      string `json:"timestamp"`
	OriginalLength int    `json:"original_length"`
	ModifiedLength int    `json:"modified_length"`
	CanRollback    bool   `json:"can_rollback"`
}

// PatchWriter persists the proposed note change when the notebook cannot be
// written, so the update can be replayed later.
type PatchWriter struct {
	Dir string
}

// Write stores a patch file named <session_id>_<YYYYMMDD_HHMMSS>.diff and
// returns its path. The first line is JSON metadata; the rest is the diff.
func (w *PatchWriter) Write(sessionID, notePath, original, modified string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create patches directory: %w", err)
	}

	now := time.Now()
	meta := PatchMeta{
		SessionID:      sessionID,
		NotePath:       notePath,
		Timestamp:      now.Format(time.RFC3339),
		OriginalLength: len(original),
		ModifiedLength: len(modified),
		CanRollback:    true,
	}
	header, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to marshal patch metadata: %w", err)
	}

	dmp := diffmatchpatch.New()
	patches := dmp.PatchMake(original, modified)
	body := dmp.PatchToText(patches)

	name := fmt.Sprintf("%s_%s.diff", sessionID, now.Format("20060102_150405"))
	path := filepath.Join(w.Dir, name)
	content := string(header) + "\n" + body
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write patch file: %w", err)
	}
	return path, nil
}

// ReadPatch loads a patch file back into its metadata and diff body.
func ReadPatch(path string) (PatchMeta, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PatchMeta{}, "", fmt.Errorf("failed to read patch file: %w", err)
	}

	header, body, _ := strings.Cut(string(data), "\n")
	var meta PatchMeta
	if err := json.Unmarshal([]byte(header), &meta); err != nil {
		return PatchMeta{}, "", fmt.Errorf("patch file has no metadata header: %w", err)
	}
	return meta, body, nil
}

// VaultClient is the slice of the notebook API the notes package needs.
// Satisfied by *notebook.Client.
type VaultClient interface {
	GetNote(ctx context.Context, path string) (string, error)
	PutNote(ctx context.Context, path, content string) error
}

// Replay applies a stored patch to the note's current content and writes it
// back. The patched file is removed on success.
func Replay(ctx context.Context, client VaultClient, path string) error {
	meta, body, err := ReadPatch(path)
	if err != nil {
		return err
	}

	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(body)
	if err != nil {
		return fmt.Errorf("failed to parse patch body: %w", err)
	}

	current, err := client.GetNote(ctx, meta.NotePath)
	if err != nil && !errors.Is(err, notebook.ErrNoteNotFound) {
		return fmt.Errorf("failed to fetch note for replay: %w", err)
	}

	applied, results := dmp.PatchApply(patches, current)
	for i, ok := range results {
		if !ok {
			return fmt.Errorf("patch hunk %d no longer applies to %s", i, meta.NotePath)
		}
	}

	if err := client.PutNote(ctx, meta.NotePath, applied); err != nil {
		return fmt.Errorf("failed to write replayed note: %w", err)
	}
	return os.Remove(path)
}

// PendingPatches lists the patch files in dir, oldest first.
func PendingPatches(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list patches: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".diff") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
