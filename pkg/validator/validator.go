package validator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Outcome is the classified result of one validation command run.
type Outcome struct {
	Passed   bool          `json:"passed"`
	Output   string        `json:"output"`
	ExitCode int           `json:"exit_code"`
	TimedOut bool          `json:"timed_out"`
	Duration time.Duration `json:"-"`
}

// Summary renders a short diagnostic line for logs and retry feedback.
func (o Outcome) Summary() string {
	switch {
	case o.Passed:
		return "validation passed"
	case o.TimedOut:
		return fmt.Sprintf("validation timed out after %s", o.Duration.Round(time.Second))
	default:
		return fmt.Sprintf("validation failed with exit code %d", o.ExitCode)
	}
}

// Run executes command via `sh -c` inside dir, bounded by timeout. Stdout
// and stderr are captured interleaved. A nonzero exit code or a timeout is
// a failed Outcome, not an error; the error return is reserved for the
// command failing to start at all. The child runs in its own process group
// so a timeout kills its descendants too.
func Run(ctx context.Context, command, dir string, timeout time.Duration) (Outcome, error) {
	start := time.Now()

	execCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative pid signals the whole process group.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	err := cmd.Run()
	outcome := Outcome{
		Output:   strings.TrimSpace(combined.String()),
		Duration: time.Since(start),
	}

	if execCtx.Err() == context.DeadlineExceeded {
		outcome.TimedOut = true
		outcome.ExitCode = -1
		return outcome, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
			return outcome, nil
		}
		return outcome, fmt.Errorf("could not run validation command: %w", err)
	}

	outcome.Passed = true
	return outcome, nil
}
