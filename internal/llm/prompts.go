package llm

import (
	"fmt"
	"strings"
)

// SegmentationPrompt asks the model to split a WRAP document whose section
// headers were not recognised deterministically. The response must be a JSON
// object keyed section_a..section_d.
func SegmentationPrompt(raw string) Request {
	return Request{
		System: "You split study-session WRAP reports into their four sections. Respond with JSON only.",
		Prompt: fmt.Sprintf(`TASK: Split the document below into its four WRAP sections.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks. NO backticks.

SECTIONS:
- section_a: session notes, metadata lines, tutor mistakes
- section_b: flashcards (Front:/Back: pairs)
- section_c: spaced review schedule (R1..R4 date lines)
- section_d: machine-readable JSON tracker payloads

REQUIRED JSON STRUCTURE:
{"section_a": "...", "section_b": "...", "section_c": "...", "section_d": "..."}

Omit a key when the document has no content for that section.
Every non-empty line of the document must appear in exactly one section.

DOCUMENT:
%s`, raw),
	}
}

// IssueClassificationPrompt asks the model to classify one tutor-issue bullet.
func IssueClassificationPrompt(bullet string) Request {
	return Request{
		System: "You classify tutor mistakes reported by a student. Respond with JSON only.",
		Prompt: fmt.Sprintf(`TASK: Classify the tutor issue below.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks.

ISSUE TYPES (ONLY these 4):
- hallucination: the tutor invented facts or sources
- formatting: layout, markup, or structure problems
- incorrect_fact: a verifiably wrong statement
- unprompted_artifact: content the student never asked for

SEVERITY: one of "low", "medium", "high".

REQUIRED JSON STRUCTURE:
{"issue_type": "...", "severity": "..."}

ISSUE:
%s`, bullet),
	}
}

// SemanticMergePrompt asks the model to merge an existing managed-block body
// with newly generated highlights without losing any existing content.
func SemanticMergePrompt(existing, incoming string) Request {
	return Request{
		System: "You merge study notes. Never drop existing content. Respond with JSON only.",
		Prompt: fmt.Sprintf(`TASK: Merge the two note bodies below.
RULES:
- Keep every piece of existing content.
- Do not duplicate lines that appear in both.
- On conflict, keep both versions with brief labels.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks.

REQUIRED JSON STRUCTURE:
{"merged_content": "...", "redundant": ["lines dropped as exact duplicates"]}

EXISTING:
%s

NEW:
%s`, existing, incoming),
	}
}

// WikilinkPrompt asks the model to propose terms in the body that are worth
// linking, restricted to the allow-list of known note names.
func WikilinkPrompt(body string, knownNotes []string) Request {
	return Request{
		System: "You identify key terms in study notes that match existing note names. Respond with JSON only.",
		Prompt: fmt.Sprintf(`TASK: From the note body below, pick terms worth turning into [[wikilinks]].
RULES:
- Only propose terms that appear verbatim in the body.
- Only propose terms from the KNOWN NOTES list.
- At most 10 terms.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks.

REQUIRED JSON STRUCTURE:
{"terms": ["...", "..."]}

KNOWN NOTES:
%s

BODY:
%s`, strings.Join(knownNotes, "\n"), body),
	}
}
