package orchestrator

import (
	"context"
	"fmt"

	"github.com/alantheprice/autopatch/pkg/parser"
	"github.com/alantheprice/autopatch/pkg/prompts"
	"github.com/alantheprice/autopatch/pkg/validator"
	"github.com/alantheprice/autopatch/pkg/workspace"
)

// feedbackSnippetLimit bounds how much raw response text is echoed back
// when an attempt produced no edits.
const feedbackSnippetLimit = 1000

// runAttempt executes one generate, parse, apply, validate cycle. The
// returned record always carries a Validation outcome: attempt-level
// failures are synthesized into one so the decision step upstream has a
// single shape to look at. A non-nil error means infrastructure failure.
func (o *Orchestrator) runAttempt(ctx context.Context, attempt int, previous *AttemptRecord) (*AttemptRecord, error) {
	o.setState(StateGenerating)
	userMessage := prompts.BuildUserMessage(o.opts.Request, buildFeedback(previous))
	text, err := o.generator.Generate(ctx, prompts.SystemPrompt(), userMessage)
	if err != nil {
		return nil, fmt.Errorf("generation failed on attempt %d: %w", attempt, err)
	}

	record := &AttemptRecord{Index: attempt, GeneratedText: text}

	o.setState(StateParsing)
	record.ParseResult = parser.Parse(text)

	// No edits is a retryable attempt failure, not a parser error. The
	// workspace is left untouched.
	if len(record.ParseResult.Edits) == 0 {
		o.logger.LogProcessStep("Model did not produce any file edits")
		record.Validation = validator.Outcome{
			Output:   "model response contained no file edits",
			ExitCode: -1,
		}
		return record, nil
	}

	o.setState(StateApplying)

	// Pre-images must be captured before the first write.
	diffs, err := workspace.BuildDiffs(record.ParseResult.Edits, o.opts.WorkspaceRoot)
	if err != nil {
		record.Validation = validator.Outcome{
			Output:   fmt.Sprintf("could not capture diffs: %v", err),
			ExitCode: -1,
		}
		return record, nil
	}

	summary, err := workspace.Apply(record.ParseResult.Edits, o.opts.WorkspaceRoot)
	record.ApplySummary = summary
	if err != nil {
		// Mutation errors consume the attempt; the revert between attempts
		// cleans up whatever was partially written.
		o.logger.LogError(err)
		record.Validation = validator.Outcome{
			Output:   fmt.Sprintf("could not apply edits: %v", err),
			ExitCode: -1,
		}
		return record, nil
	}

	if o.opts.PrintDiffs {
		workspace.PrintDiffs(diffs)
	}
	o.logger.Logf("Applied %d edits:\n%s", len(summary), summary.String())

	o.setState(StateValidating)
	outcome, err := validator.Run(ctx, o.opts.ValidateCommand, o.opts.WorkspaceRoot, o.opts.ValidateTimeout)
	if err != nil {
		return nil, fmt.Errorf("validation could not run on attempt %d: %w", attempt, err)
	}
	record.Validation = outcome
	return record, nil
}

// buildFeedback turns the previous attempt's record into prompt feedback.
// Returns nil on the first attempt.
func buildFeedback(previous *AttemptRecord) *prompts.Feedback {
	if previous == nil {
		return nil
	}

	changes := previous.ApplySummary.String()
	if len(previous.ParseResult.Edits) == 0 {
		// Nothing was applied; echo a snippet of the raw response so the
		// model can see what it sent.
		snippet := previous.GeneratedText
		if len(snippet) > feedbackSnippetLimit {
			snippet = snippet[:feedbackSnippetLimit]
		}
		changes = snippet
	}

	return &prompts.Feedback{
		ValidationOutput: previous.Validation.Output,
		ChangesSummary:   changes,
	}
}
