// Package llm provides the language-model integration used by the WRAP
// pipeline: document segmentation fallback, tutor-issue classification,
// semantic note merging, and wikilink proposal. It includes strict JSON-only
// prompt templates and response parsers that work with Ollama, OpenAI, and
// Anthropic models.
//
// Every caller of this package must have a deterministic fallback: the
// pipeline is required to function with no TextGenerator configured at all.
package llm

import (
	"context"
	"time"
)

// Request is a single-turn completion request. Timeout, when non-zero,
// overrides the client's default per-call timeout.
type Request struct {
	System  string
	Prompt  string
	Timeout time.Duration
}

// TextGenerator is the interface for LLM text completion. The pipeline never
// depends on a specific provider; these two methods are the whole contract.
type TextGenerator interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}
