// Package runner executes external programs with a bounded wait and reports
// the outcome as a typed error.
//
// Every failed invocation (non-zero exit, timeout or launch failure) is logged
// once with the full command line and the captured output streams. Nothing is
// retried; callers decide whether a failure is fatal.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout is the longest a single tool invocation may run.
const DefaultTimeout = 60 * time.Second

// Executor runs a command line and returns nil iff it exited with status 0.
type Executor interface {
	Run(ctx context.Context, argv ...string) error
}

// Error describes a failed tool invocation
type Error struct {
	Argv     []string // Full command line
	ExitCode int      // Exit status, -1 if the process never exited normally
	Stdout   string   // Captured standard output
	Stderr   string   // Captured standard error
	TimedOut bool     // True if the timeout killed the process
	Err      error    // Underlying launch or wait error
}

func (e *Error) Error() string {
	switch {
	case e.TimedOut:
		return fmt.Sprintf("%s: timed out", e.Command())
	case e.ExitCode >= 0:
		return fmt.Sprintf("%s: exit status %d", e.Command(), e.ExitCode)
	default:
		return fmt.Sprintf("%s: %v", e.Command(), e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Command returns the command line as a single space separated string.
func (e *Error) Command() string {
	return strings.Join(e.Argv, " ")
}

// Runner launches programs through os/exec.
type Runner struct {
	Timeout time.Duration
	Log     logrus.FieldLogger
}

// New returns a Runner. A zero timeout means DefaultTimeout.
func New(log logrus.FieldLogger, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{Timeout: timeout, Log: log}
}

// Run executes argv[0] with the remaining arguments and waits for it to
// finish or for the timeout to expire. It returns a *Error on failure.
func (r *Runner) Run(ctx context.Context, argv ...string) error {
	if len(argv) == 0 {
		return eris.New("runner: empty command line")
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children that inherit our pipes must not keep Wait blocked after a kill.
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if err == nil {
		return nil
	}

	result := &Error{
		Argv:     append([]string(nil), argv...),
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Err:      err,
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
	} else {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
	}

	r.logFailure(result)
	return result
}

func (r *Runner) logFailure(e *Error) {
	if r.Log == nil {
		return
	}
	r.Log.WithFields(logrus.Fields{
		"cmd":       e.Command(),
		"exit_code": e.ExitCode,
		"timed_out": e.TimedOut,
		"stdout":    e.Stdout,
		"stderr":    e.Stderr,
	}).Errorf("Error executing command: %v", e.Err)
}
