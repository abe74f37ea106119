package notes

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/studyops/brain/internal/llm"
)

// TitleIndex exposes the set of notes known to the vault. Satisfied by
// *notebook.WikilinkIndex.
type TitleIndex interface {
	Titles(ctx context.Context) map[string]string
}

const wikilinkTimeout = 30 * time.Second

// applyWikilinks asks the LLM for terms worth linking, keeps only those
// that resolve to a real note, and wraps their occurrences in [[ ]].
// Without a model, or on any failure, the body is returned unlinked.
func applyWikilinks(ctx context.Context, gen llm.TextGenerator, index TitleIndex, body string) string {
	if gen == nil || index == nil {
		return body
	}

	titles := index.Titles(ctx)
	if len(titles) == 0 {
		return body
	}

	known := make([]string, 0, len(titles))
	for _, canonical := range titles {
		known = append(known, canonical)
	}

	response, err := gen.Complete(ctx, withTimeout(llm.WikilinkPrompt(body, known), wikilinkTimeout))
	if err != nil {
		log.Printf("notes: wikilink proposal failed, leaving body unlinked: %v", err)
		return body
	}
	terms, err := llm.ParseWikilinkTerms(response)
	if err != nil {
		log.Printf("notes: wikilink proposal unparseable, leaving body unlinked: %v", err)
		return body
	}

	for _, term := range terms {
		if _, ok := titles[strings.ToLower(term)]; !ok {
			continue
		}
		body = linkTerm(body, term)
	}
	return body
}

func withTimeout(req llm.Request, d time.Duration) llm.Request {
	req.Timeout = d
	return req
}

// linkTerm wraps occurrences of term in [[ ]], skipping text already inside
// a wikilink.
func linkTerm(body, term string) string {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	if err != nil {
		return body
	}

	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(body, -1) {
		if insideLink(body, loc[0]) {
			continue
		}
		b.WriteString(body[last:loc[0]])
		b.WriteString("[[")
		b.WriteString(body[loc[0]:loc[1]])
		b.WriteString("]]")
		last = loc[1]
	}
	b.WriteString(body[last:])
	return b.String()
}

// insideLink reports whether the position sits inside an existing [[ ]] pair.
func insideLink(body string, pos int) bool {
	open := strings.LastIndex(body[:pos], "[[")
	if open < 0 {
		return false
	}
	closing := strings.LastIndex(body[:pos], "]]")
	return closing < open
}
