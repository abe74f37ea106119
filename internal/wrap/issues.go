package wrap

import (
	"context"
	"time"

	"github.com/studyops/brain/internal/llm"
	"github.com/studyops/brain/pkg/types"
)

// IssueClassifier assigns an issue type and severity to a tutor-issue bullet.
type IssueClassifier interface {
	Classify(ctx context.Context, bullet string) (types.TutorIssue, error)
}

// LLMIssueClassifier classifies bullets with the configured language model.
// Classification failures return the formatting/low default alongside the
// error; callers keep the default and record the error as a warning.
type LLMIssueClassifier struct {
	gen     llm.TextGenerator
	timeout time.Duration
}

// NewLLMIssueClassifier creates a classifier over gen. A zero timeout uses
// 30 seconds per call.
func NewLLMIssueClassifier(gen llm.TextGenerator, timeout time.Duration) *LLMIssueClassifier {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &LLMIssueClassifier{gen: gen, timeout: timeout}
}

// Classify submits the bullet for classification.
func (c *LLMIssueClassifier) Classify(ctx context.Context, bullet string) (types.TutorIssue, error) {
	if c.gen == nil {
		return types.DefaultTutorIssue(bullet), nil
	}

	req := llm.IssueClassificationPrompt(bullet)
	req.Timeout = c.timeout
	response, err := c.gen.Complete(ctx, req)
	if err != nil {
		return types.DefaultTutorIssue(bullet), err
	}
	return llm.ParseIssueClassification(response, bullet)
}

// Compile-time assertion.
var _ IssueClassifier = (*LLMIssueClassifier)(nil)
