package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

var (
	// ErrSpawn reports that the child process could not be started.
	ErrSpawn = errors.New("spawn failed")
	// ErrTimeout reports that the child exceeded its execution budget and was killed.
	ErrTimeout = errors.New("execution timed out")
	// ErrCanceled reports that the caller went away and the child was killed.
	ErrCanceled = errors.New("execution canceled")
)

// DefaultWaitDelay bounds how long Wait blocks on pipes held open by
// descendants after the child itself has been killed.
const DefaultWaitDelay = 2 * time.Second

// Spec describes a single process invocation.
type Spec struct {
	// Path is the executable name or path.
	Path string
	// Args are passed to the executable verbatim, without a shell.
	Args []string
	// Env adds environment variables on top of the parent environment.
	Env map[string]string
	// Timeout limits execution time; zero disables the limit.
	Timeout time.Duration
	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
}

// Result holds the captured output of a finished process.
type Result struct {
	// Stdout is everything the child wrote to standard output.
	Stdout []byte
	// Stderr is everything the child wrote to standard error.
	Stderr []byte
	// ExitCode is the process exit status, or -1 when it was terminated by a signal.
	ExitCode int
	// Duration is the wall time between start and exit.
	Duration time.Duration
}

// BuildCommand builds an exec.Cmd with captured stdout and stderr buffers.
func BuildCommand(ctx context.Context, spec Spec, stdout, stderr *bytes.Buffer) *exec.Cmd {
	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = DefaultWaitDelay
	if spec.WaitDelay > 0 {
		cmd.WaitDelay = spec.WaitDelay
	}
	if len(spec.Env) > 0 {
		cmd.Env = os.Environ()
		for key, value := range spec.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
		}
	}
	return cmd
}

// Run executes the process described by spec and blocks until it exits.
//
// A process that exits with a non-zero status or dies from a signal is not an
// error: its status is reported through Result.ExitCode. Errors are returned
// only when the process could not be started (ErrSpawn), ran past its timeout
// (ErrTimeout) or was abandoned by the caller (ErrCanceled). The latter two
// still return whatever output was captured before the kill.
func Run(ctx context.Context, spec Spec) (Result, error) {
	if spec.Path == "" {
		return Result{ExitCode: -1}, fmt.Errorf("%w: empty executable path", ErrSpawn)
	}

	runCtx := ctx
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := BuildCommand(runCtx, spec, &stdout, &stderr)

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if cmd.ProcessState == nil {
		// Never started. Context errors take precedence so an already expired
		// request is not misreported as a broken executable.
		if ctxErr := classifyContext(ctx, runCtx); ctxErr != nil {
			return result, ctxErr
		}
		return result, fmt.Errorf("%w: %s: %w", ErrSpawn, spec.Path, err)
	}

	if err == nil {
		return result, nil
	}
	if ctxErr := classifyContext(ctx, runCtx); ctxErr != nil {
		return result, ctxErr
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		return result, fmt.Errorf("wait %s: %w", spec.Path, err)
	}
	return result, nil
}

func classifyContext(parent, runCtx context.Context) error {
	if runCtx.Err() == nil {
		return nil
	}
	if parent.Err() != nil {
		if errors.Is(parent.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTimeout, parent.Err())
		}
		return fmt.Errorf("%w: %w", ErrCanceled, parent.Err())
	}
	return fmt.Errorf("%w: %w", ErrTimeout, runCtx.Err())
}
