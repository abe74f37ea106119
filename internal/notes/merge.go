package notes

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/studyops/brain/internal/llm"
)

// mergeTimeout bounds the semantic merge call; it is the longest LLM call
// the pipeline makes.
const mergeTimeout = 60 * time.Second

// mergeBodies combines a prior block body with the incoming highlights.
// The LLM merge is preferred; any failure falls back to the deterministic
// line-set merge so the pipeline keeps working without a model.
func mergeBodies(ctx context.Context, gen llm.TextGenerator, existing, incoming string) string {
	if gen != nil {
		req := llm.SemanticMergePrompt(existing, incoming)
		req.Timeout = mergeTimeout
		response, err := gen.Complete(ctx, req)
		if err == nil {
			merged, perr := llm.ParseMergeResponse(response)
			if perr == nil {
				return strings.TrimSpace(merged.MergedContent)
			}
			log.Printf("notes: semantic merge unparseable, using line merge: %v", perr)
		} else {
			log.Printf("notes: semantic merge failed, using line merge: %v", err)
		}
	}
	return lineMerge(existing, incoming)
}

// lineMerge appends incoming lines that the existing body does not already
// contain, preserving order. Comparison ignores case, whitespace runs, and
// wikilink brackets so a previously linked line still counts as present.
func lineMerge(existing, incoming string) string {
	seen := make(map[string]bool)
	for _, line := range strings.Split(existing, "\n") {
		if key := lineKey(line); key != "" {
			seen[key] = true
		}
	}

	var added []string
	for _, line := range strings.Split(incoming, "\n") {
		key := lineKey(line)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		added = append(added, strings.TrimRight(line, " \t"))
	}

	if len(added) == 0 {
		return strings.TrimSpace(existing)
	}
	base := strings.TrimSpace(existing)
	if base == "" {
		return strings.Join(added, "\n")
	}
	return base + "\n" + strings.Join(added, "\n")
}

// lineKey normalizes a line for membership comparison.
func lineKey(line string) string {
	line = strings.ReplaceAll(line, "[[", "")
	line = strings.ReplaceAll(line, "]]", "")
	line = strings.ToLower(strings.TrimSpace(line))
	return strings.Join(strings.Fields(line), " ")
}
