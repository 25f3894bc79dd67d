package kubectl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCommandFailed reports a listing invocation that exited non-zero, so its
// output cannot be trusted as a complete listing.
var ErrCommandFailed = errors.New("kubectl command failed")

// CommandFailedError carries the details of a failed listing invocation.
type CommandFailedError struct {
	// Args is the redacted argument vector.
	Args []string
	// ExitCode is the process exit status, -1 if it was terminated by a signal.
	ExitCode int
	// Stderr is the decoded standard error.
	Stderr string
}

func (e *CommandFailedError) Error() string {
	msg := fmt.Sprintf("kubectl %s exited with code %d", strings.Join(e.Args, " "), e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *CommandFailedError) Unwrap() error {
	return ErrCommandFailed
}
