package wrap

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/studyops/brain/internal/llm"
	"github.com/studyops/brain/pkg/types"
)

// Section header forms: "# Section A", "## A", "A:", "A)", "A -".
var (
	headingSectionRe = regexp.MustCompile(`^#+\s*(?:[Ss]ection\s+)?([A-D])\b`)
	inlineSectionRe  = regexp.MustCompile(`^([A-D])\s*[:)\-]`)
	frontBackRe      = regexp.MustCompile(`(?im)^\s*front\s*:`)
	backLineRe       = regexp.MustCompile(`(?im)^\s*back\s*:`)
	reviewLineRe     = regexp.MustCompile(`(?m)^\s*R[1-4]\s*[:=\-]`)
	fencedJSONRe     = regexp.MustCompile("(?s)```json\\s*\\n(.*?)```")
)

// Segmenter splits raw WRAP text into the four A–D sections. When the format
// score says "this is a WRAP document" but no sections were recognised, it
// falls back to the LLM; when that fails too, the whole text lands in
// Section A. Segmentation never returns an error.
type Segmenter struct {
	gen llm.TextGenerator // nil disables the LLM fallback
}

// NewSegmenter creates a segmenter. gen may be nil.
func NewSegmenter(gen llm.TextGenerator) *Segmenter {
	return &Segmenter{gen: gen}
}

// Segment splits raw into sections and returns the populated WrapDocument.
func (s *Segmenter) Segment(ctx context.Context, raw string) *types.WrapDocument {
	doc := &types.WrapDocument{Raw: raw}

	fm, body := splitFrontmatter(raw)
	doc.Frontmatter = fm

	doc.Confidence = FormatScore(body)

	sections := segmentByHeaders(body)
	if len(sections) > 0 {
		doc.Sections = sections
		doc.SegmentedBy = "headers"
		return doc
	}

	// Inline heuristics: Front/Back pairs mean the text is a card dump;
	// fenced JSON additionally belongs to Section D.
	if frontBackRe.MatchString(body) && backLineRe.MatchString(body) {
		doc.Sections = map[types.SectionKey]string{types.SectionB: body}
		if fenced := collectFencedJSON(body); fenced != "" {
			doc.Sections[types.SectionD] = fenced
		}
		doc.SegmentedBy = "inline"
		return doc
	}

	if doc.IsWrap() && s.gen != nil {
		if sections, err := s.segmentWithLLM(ctx, body); err == nil {
			doc.Sections = sections
			doc.SegmentedBy = "llm"
			return doc
		} else {
			log.Printf("segmenter: llm fallback failed: %v", err)
		}
	}

	doc.Sections = map[types.SectionKey]string{types.SectionA: body}
	doc.SegmentedBy = "fallback"
	return doc
}

// FormatScore assigns the WRAP format-detection score: section headers +2,
// Front/Back pairs +2, the literal word WRAP +1, R1..R4 date lines +1,
// fenced JSON +1. A score of 2 or more means "is a WRAP document".
func FormatScore(text string) int {
	score := 0
	if hasSectionHeaders(text) {
		score += 2
	}
	if frontBackRe.MatchString(text) && backLineRe.MatchString(text) {
		score += 2
	}
	if strings.Contains(text, "WRAP") {
		score++
	}
	if reviewLineRe.MatchString(text) {
		score++
	}
	if fencedJSONRe.MatchString(text) {
		score++
	}
	return score
}

func hasSectionHeaders(text string) bool {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if headingSectionRe.MatchString(line) || inlineSectionRe.MatchString(line) {
			return true
		}
	}
	return false
}

// segmentByHeaders scans line by line. The first recognised header opens a
// section; subsequent lines accumulate into it until the next header.
func segmentByHeaders(text string) map[types.SectionKey]string {
	sections := make(map[types.SectionKey]string)
	var current types.SectionKey
	var buf []string
	var preamble []string

	flush := func() {
		if current == "" {
			return
		}
		chunk := strings.TrimRight(strings.Join(buf, "\n"), "\n")
		if existing, ok := sections[current]; ok && existing != "" {
			chunk = existing + "\n" + chunk
		}
		sections[current] = chunk
		buf = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		key := matchSectionHeader(trimmed)
		if key != "" {
			flush()
			current = key
			// Inline headers like "A: Session Notes" keep their remainder.
			if rest := headerRemainder(trimmed); rest != "" {
				buf = append(buf, rest)
			}
			continue
		}
		if current != "" {
			buf = append(buf, line)
		} else {
			preamble = append(preamble, line)
		}
	}
	flush()

	// Lines before the first header still belong to the document; they are
	// treated as Section A content so no input text is lost.
	if len(sections) > 0 {
		if pre := strings.TrimSpace(strings.Join(preamble, "\n")); pre != "" {
			if a, ok := sections[types.SectionA]; ok && a != "" {
				sections[types.SectionA] = pre + "\n" + a
			} else {
				sections[types.SectionA] = pre
			}
		}
	}
	return sections
}

// matchSectionHeader returns the section key a line opens, or "".
func matchSectionHeader(line string) types.SectionKey {
	if m := headingSectionRe.FindStringSubmatch(line); m != nil {
		return types.SectionKey(strings.ToUpper(m[1]))
	}
	if m := inlineSectionRe.FindStringSubmatch(line); m != nil {
		return types.SectionKey(strings.ToUpper(m[1]))
	}
	return ""
}

// headerRemainder returns any content that follows the section marker on the
// same line, e.g. the "Session Notes" in "A: Session Notes".
func headerRemainder(line string) string {
	if m := headingSectionRe.FindStringSubmatchIndex(line); m != nil {
		return ""
	}
	if m := inlineSectionRe.FindStringSubmatchIndex(line); m != nil {
		rest := strings.TrimSpace(line[m[1]:])
		// A bare title after the marker is a label, not content.
		if strings.Contains(rest, ":") {
			return rest
		}
	}
	return ""
}

// collectFencedJSON concatenates the contents of all fenced json blocks.
func collectFencedJSON(text string) string {
	var blocks []string
	for _, m := range fencedJSONRe.FindAllStringSubmatch(text, -1) {
		if b := strings.TrimSpace(m[1]); b != "" {
			blocks = append(blocks, b)
		}
	}
	return strings.Join(blocks, "\n")
}

// segmentWithLLM submits the raw text and parses the JSON section map.
func (s *Segmenter) segmentWithLLM(ctx context.Context, text string) (map[types.SectionKey]string, error) {
	response, err := s.gen.Complete(ctx, llm.SegmentationPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("segmentation completion: %w", err)
	}
	return llm.ParseSectionSplit(response)
}

// splitFrontmatter separates a leading YAML block (between --- delimiters)
// from the body, keeping only scalar values. Returns a nil map and the full
// text when no frontmatter is found or the YAML does not parse.
func splitFrontmatter(text string) (map[string]string, string) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return nil, text
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		return nil, text
	}

	raw := make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:closeIdx], "\n")), &raw); err != nil {
		log.Printf("segmenter: ignoring unparseable frontmatter: %v", err)
		return nil, text
	}

	fm := make(map[string]string)
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			fm[normalizeMetaKey(k)] = strings.TrimSpace(val)
		case int, int64, float64, bool:
			fm[normalizeMetaKey(k)] = fmt.Sprintf("%v", val)
		}
	}
	return fm, strings.Join(lines[closeIdx+1:], "\n")
}
