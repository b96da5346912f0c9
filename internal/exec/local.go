// Package exec runs local helper programs (lldpcli, poweroff) with captured
// output and a deadline.
package exec

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rpint/rpint/internal/errors"
)

// waitDelay bounds how long Wait blocks on output pipes after the process
// has been killed by context cancellation.
const waitDelay = 2 * time.Second

// Result is the captured outcome of a command that started.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner runs a command without a shell and captures its output.
type Runner interface {
	Run(ctx context.Context, argv []string) (Result, error)
}

// LocalRunner runs commands on this machine with os/exec.
type LocalRunner struct{}

// NewLocalRunner returns a Runner backed by os/exec.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

// Run executes argv[0] with argv[1:] and waits for it to finish or for ctx
// to end.
//
// A command that ran and exited non-zero is not an error: the exit code is in
// the Result. An error is returned only when the command could not be started
// or was killed because ctx ended.
func (r *LocalRunner) Run(ctx context.Context, argv []string) (Result, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return Result{ExitCode: -1}, errors.New(errors.ErrExec,
			"No command given",
			"This shouldn't happen - please report this bug!")
	}

	command := exec.CommandContext(ctx, argv[0], argv[1:]...)
	command.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	runErr := command.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		if stderrors.Is(ctxErr, context.DeadlineExceeded) {
			return res, errors.WrapWithCode(ctxErr, errors.ErrExec,
				"'"+argv[0]+"' timed out and was killed",
				"Check that the command isn't blocked, or raise the timeout")
		}
		return res, errors.WrapWithCode(ctxErr, errors.ErrExec,
			"'"+argv[0]+"' was cancelled",
			"")
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if stderrors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, errors.WrapWithCode(runErr, errors.ErrExec,
			"Couldn't run '"+argv[0]+"'",
			"Make sure the command exists and is executable.")
	}

	return res, nil
}

// LookPath finds name in PATH.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// IsNotFound reports whether err came from a command missing from PATH.
func IsNotFound(err error) bool {
	return stderrors.Is(err, exec.ErrNotFound)
}

// Summary renders the first line of stderr, or the exit code when stderr is
// empty, for log messages.
func (r Result) Summary() string {
	msg := strings.TrimSpace(string(r.Stderr))
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	if msg == "" {
		return "exit status " + strconv.Itoa(r.ExitCode)
	}
	return msg
}
