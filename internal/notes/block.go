// Package notes updates the managed highlights block inside a note in the
// external notebook. Only the region between the block markers is ever
// rewritten; everything else in the note belongs to the user.
package notes

import (
	"fmt"
	"regexp"
	"strings"
)

// Managed-block markers. These are a public contract shared with any other
// tool that edits the highlights note.
const (
	BlockStart = "<!-- BRAIN_MANAGED_START -->"
	BlockEnd   = "<!-- BRAIN_MANAGED_END -->"
)

// HeaderLine returns the heading that opens a session's managed block.
func HeaderLine(sessionID string) string {
	return fmt.Sprintf("## WRAP Highlights (session_id: %s)", sessionID)
}

// blockRegion is one marker-delimited region found in a note. start and end
// index the full region including both markers; body is the text between
// them with the header line stripped.
type blockRegion struct {
	start int
	end   int
	body  string
}

var headerRe = regexp.MustCompile(`(?m)^## WRAP Highlights \(session_id: [^)]+\)\s*\n?`)

// locateBlock finds the managed block whose body names the given session_id.
// There is at most one per note; the first match wins.
func locateBlock(note, sessionID string) (blockRegion, bool) {
	needle := fmt.Sprintf("session_id: %s)", sessionID)
	offset := 0
	for {
		rest := note[offset:]
		start := strings.Index(rest, BlockStart)
		if start < 0 {
			return blockRegion{}, false
		}
		start += offset
		endRel := strings.Index(note[start:], BlockEnd)
		if endRel < 0 {
			return blockRegion{}, false
		}
		end := start + endRel + len(BlockEnd)

		inner := note[start+len(BlockStart) : start+endRel]
		if strings.Contains(inner, needle) {
			body := strings.TrimSpace(headerRe.ReplaceAllString(inner, ""))
			return blockRegion{start: start, end: end, body: body}, true
		}
		offset = end
	}
}

// assembleBlock wraps a body in the markers with the session header.
func assembleBlock(sessionID, body string) string {
	return BlockStart + "\n" + HeaderLine(sessionID) + "\n\n" +
		strings.TrimSpace(body) + "\n" + BlockEnd
}

// spliceBlock replaces the located region, or appends a new block separated
// by a blank line when the note has no block for this session yet.
func spliceBlock(note string, region blockRegion, found bool, block string) string {
	if found {
		return note[:region.start] + block + note[region.end:]
	}
	if strings.TrimSpace(note) == "" {
		return block + "\n"
	}
	return strings.TrimRight(note, "\n") + "\n\n" + block + "\n"
}

var blankRunRe = regexp.MustCompile(`\n{4,}`)

// collapseBlankLines reduces runs of three or more blank lines to two.
func collapseBlankLines(s string) string {
	return blankRunRe.ReplaceAllString(s, "\n\n\n")
}
