package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/alantheprice/autopatch/pkg/parser"
	"github.com/alantheprice/autopatch/pkg/prompts"
	"github.com/alantheprice/autopatch/pkg/utils"
	"github.com/alantheprice/autopatch/pkg/validator"
	"github.com/alantheprice/autopatch/pkg/workspace"
)

// Generator is the text-generation boundary. Provider-side retry (rate
// limits, backoff) lives behind this interface; the attempt loop never
// duplicates it.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Baseline restores a workspace to its pre-loop state between attempts.
// Production uses the git-backed implementation; tests substitute a
// directory-copy one.
type Baseline interface {
	Restore(root string) error
}

// State names the phase the orchestrator is in, for logging.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateParsing    State = "parsing"
	StateApplying   State = "applying"
	StateValidating State = "validating"
	StateReverting  State = "reverting"
	StateSucceeded  State = "succeeded"
	StateExhausted  State = "exhausted"
)

// AttemptRecord captures everything produced by one attempt. The loop keeps
// only the current and previous record; older attempts are discarded.
type AttemptRecord struct {
	Index         int                    `json:"index"`
	GeneratedText string                 `json:"generated_text"`
	ParseResult   parser.ParseResult     `json:"parse_result"`
	ApplySummary  workspace.ApplySummary `json:"apply_summary"`
	Validation    validator.Outcome      `json:"validation"`
}

// Result is the terminal outcome of one orchestration run.
type Result struct {
	RunID       string             `json:"run_id"`
	Success     bool               `json:"success"`
	Attempt     int                `json:"attempt"`
	ParseResult parser.ParseResult `json:"parse_result"`
	Validation  validator.Outcome  `json:"validation"`
}

// Options configures one orchestration run.
type Options struct {
	Request         prompts.Request
	WorkspaceRoot   string
	ValidateCommand string
	ValidateTimeout time.Duration
	MaxAttempts     int
	OutputDir       string // terminal record destination; empty disables persistence
	PrintDiffs      bool
}

// Orchestrator drives the generate, parse, apply, validate loop against a
// single exclusively-owned workspace.
type Orchestrator struct {
	generator Generator
	baseline  Baseline
	opts      Options
	logger    *utils.Logger
	state     State
}

// New builds an orchestrator. MaxAttempts below 1 is normalized to 1.
func New(generator Generator, baseline Baseline, opts Options) *Orchestrator {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Orchestrator{
		generator: generator,
		baseline:  baseline,
		opts:      opts,
		logger:    utils.GetLogger(false),
		state:     StateIdle,
	}
}

func (o *Orchestrator) setState(s State) {
	o.state = s
	o.logger.Logf("State: %s", s)
}

// Run executes up to MaxAttempts attempts and returns the terminal Result.
// Attempt-level failures (unparseable response, mutation error, failed
// validation) consume an attempt and trigger a revert; infrastructure
// failures (generation boundary, baseline restore) propagate as errors.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	var previous *AttemptRecord

	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		// Cancellation is honored at the loop boundary, before generating.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		o.logger.LogProcessStep(fmt.Sprintf("Attempt %d/%d", attempt, o.opts.MaxAttempts))
		record, err := o.runAttempt(ctx, attempt, previous)
		if err != nil {
			return nil, err
		}

		if record.Validation.Passed {
			o.setState(StateSucceeded)
			result := &Result{
				RunID:       o.logger.RunID(),
				Success:     true,
				Attempt:     attempt,
				ParseResult: record.ParseResult,
				Validation:  record.Validation,
			}
			return result, o.persist(result)
		}

		o.logger.LogProcessStep(fmt.Sprintf("Attempt %d failed: %s", attempt, record.Validation.Summary()))

		if attempt < o.opts.MaxAttempts {
			o.setState(StateReverting)
			if err := o.baseline.Restore(o.opts.WorkspaceRoot); err != nil {
				return nil, fmt.Errorf("could not restore workspace baseline: %w", err)
			}
			previous = record
			continue
		}

		o.setState(StateExhausted)
		result := &Result{
			RunID:      o.logger.RunID(),
			Success:    false,
			Attempt:    attempt,
			Validation: record.Validation,
		}
		return result, o.persist(result)
	}

	// Unreachable: MaxAttempts >= 1 guarantees the loop body runs.
	return nil, fmt.Errorf("attempt loop exited without a terminal result")
}
