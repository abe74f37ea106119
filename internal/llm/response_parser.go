package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/studyops/brain/pkg/types"
)

// SectionSplitResponse is the segmentation fallback reply: raw text for each
// WRAP section the model recognised.
type SectionSplitResponse struct {
	SectionA string `json:"section_a"`
	SectionB string `json:"section_b"`
	SectionC string `json:"section_c"`
	SectionD string `json:"section_d"`
}

// IssueClassificationResponse is the tutor-issue classification reply.
type IssueClassificationResponse struct {
	IssueType string `json:"issue_type"`
	Severity  string `json:"severity"`
}

// MergeResponse is the semantic note-merge reply. Redundant is advisory and
// models return it in varied shapes (array, bool, string), so it is kept raw
// rather than letting a shape mismatch reject an otherwise good merge.
type MergeResponse struct {
	MergedContent string          `json:"merged_content"`
	Redundant     json.RawMessage `json:"redundant,omitempty"`
}

// WikilinkResponse is the wikilink proposal reply.
type WikilinkResponse struct {
	Terms []string `json:"terms"`
}

// ExtractJSON extracts the first valid JSON object from a string that may
// contain extra text. This handles cases where models add explanations
// before/after the JSON despite instructions, or wrap it in code fences.
func ExtractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // no JSON found; let the caller's parser fail
	}

	braceCount := 0
	inString := false
	escape := false
	for i := start; i < len(text); i++ {
		char := text[i]
		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}
		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return text[start:]
}

// ParseSectionSplit parses the segmentation fallback reply and returns the
// per-section text keyed by section key. An empty map with a nil error is
// never returned: either at least one section parsed or an error explains why.
func ParseSectionSplit(response string) (map[types.SectionKey]string, error) {
	var parsed SectionSplitResponse
	if err := json.Unmarshal([]byte(ExtractJSON(response)), &parsed); err != nil {
		return nil, fmt.Errorf("section split response is not valid JSON: %w", err)
	}

	sections := make(map[types.SectionKey]string)
	if s := strings.TrimSpace(parsed.SectionA); s != "" {
		sections[types.SectionA] = s
	}
	if s := strings.TrimSpace(parsed.SectionB); s != "" {
		sections[types.SectionB] = s
	}
	if s := strings.TrimSpace(parsed.SectionC); s != "" {
		sections[types.SectionC] = s
	}
	if s := strings.TrimSpace(parsed.SectionD); s != "" {
		sections[types.SectionD] = s
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("section split response contained no sections")
	}
	return sections, nil
}

// ParseIssueClassification parses a tutor-issue classification reply into a
// TutorIssue for the given bullet. Unknown types or severities fall back to
// the formatting/low default rather than failing.
func ParseIssueClassification(response, bullet string) (types.TutorIssue, error) {
	var parsed IssueClassificationResponse
	if err := json.Unmarshal([]byte(ExtractJSON(response)), &parsed); err != nil {
		return types.DefaultTutorIssue(bullet), fmt.Errorf("issue classification response is not valid JSON: %w", err)
	}

	issue := types.TutorIssue{
		Description: bullet,
		Type:        types.IssueType(strings.ToLower(strings.TrimSpace(parsed.IssueType))),
		Severity:    types.IssueSeverity(strings.ToLower(strings.TrimSpace(parsed.Severity))),
	}
	if !types.ValidIssueType(issue.Type) {
		issue.Type = types.IssueFormatting
	}
	if !types.ValidSeverity(issue.Severity) {
		issue.Severity = types.SeverityLow
	}
	return issue, nil
}

// ParseMergeResponse parses a semantic merge reply. The result is accepted
// only when the JSON parses and merged_content is non-empty.
func ParseMergeResponse(response string) (*MergeResponse, error) {
	var parsed MergeResponse
	if err := json.Unmarshal([]byte(ExtractJSON(response)), &parsed); err != nil {
		return nil, fmt.Errorf("merge response is not valid JSON: %w", err)
	}
	if strings.TrimSpace(parsed.MergedContent) == "" {
		return nil, fmt.Errorf("merge response has empty merged_content")
	}
	return &parsed, nil
}

// ParseWikilinkTerms parses a wikilink proposal reply into a term list.
func ParseWikilinkTerms(response string) ([]string, error) {
	var parsed WikilinkResponse
	if err := json.Unmarshal([]byte(ExtractJSON(response)), &parsed); err != nil {
		return nil, fmt.Errorf("wikilink response is not valid JSON: %w", err)
	}

	var terms []string
	seen := make(map[string]bool)
	for _, t := range parsed.Terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		terms = append(terms, t)
	}
	return terms, nil
}
