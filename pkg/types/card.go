package types

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// FlashcardRecord is a single spaced-repetition card extracted from
// Section B of a WRAP document. Hash is computed over the normalized
// (front, back) pair and is unique per session.
type FlashcardRecord struct {
	SessionID  string    `json:"session_id"`
	Front      string    `json:"front"`
	Back       string    `json:"back"`
	Tags       []string  `json:"tags,omitempty"`
	Source     string    `json:"source,omitempty"` // source citation
	Confidence float64   `json:"confidence"`       // [0,1]
	Hash       string    `json:"hash"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// ComputeHash returns the content hash used for per-session dedup:
// sha256 over the normalized front and back joined by a unit separator.
func (c *FlashcardRecord) ComputeHash() string {
	h := sha256.Sum256([]byte(NormalizeCardText(c.Front) + "\x1f" + NormalizeCardText(c.Back)))
	return fmt.Sprintf("%x", h)
}

// NormalizeCardText lowercases, collapses whitespace runs to a single space,
// and strips surrounding Markdown emphasis so that cosmetic edits do not
// defeat deduplication.
func NormalizeCardText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '*' || first == '_') && first == last {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

// ScoreConfidence assigns the heuristic confidence score for a card:
// a sourced card starts at 0.3; question-shaped fronts, multi-sentence or
// long backs, and tags add smaller increments. Clamped to [0,1].
func (c *FlashcardRecord) ScoreConfidence() float64 {
	score := 0.0
	if strings.TrimSpace(c.Source) != "" {
		score += 0.3
	}
	if strings.HasSuffix(strings.TrimSpace(c.Front), "?") {
		score += 0.2
	}
	if countSentences(c.Back) >= 2 {
		score += 0.2
	}
	if len(c.Back) >= 60 {
		score += 0.2
	}
	if len(c.Tags) > 0 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}

// countSentences counts terminator-then-space boundaries plus a trailing
// terminator, approximating the number of sentences in s.
func countSentences(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	count := 0
	for i := 0; i < len(s)-1; i++ {
		if isSentenceEnd(s[i]) && s[i+1] == ' ' {
			count++
		}
	}
	if isSentenceEnd(s[len(s)-1]) {
		count++
	}
	if count == 0 {
		count = 1
	}
	return count
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// ParseTags splits a Tags: field value on semicolons or commas, trimming
// whitespace and dropping empties.
func ParseTags(raw string) []string {
	raw = strings.ReplaceAll(raw, ",", ";")
	var tags []string
	for _, t := range strings.Split(raw, ";") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
