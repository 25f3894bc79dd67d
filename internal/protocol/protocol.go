package protocol

import "time"

// Error codes returned in ErrorResponse.Code.
const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeNotAllowed        = "COMMAND_NOT_ALLOWED"
	ErrCodeSpawnFailed       = "SPAWN_FAILED"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeCanceled          = "CANCELED"
	ErrCodeCommandFailed     = "COMMAND_FAILED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_MEDIA_TYPE"
)

// CommandRequest is the body of POST /run-cmd.
type CommandRequest struct {
	// Context is the kubeconfig context to target.
	Context string `json:"context"`
	// Namespace is the namespace to target.
	Namespace string `json:"namespace"`
	// Command is a kubectl argument fragment such as "get pods".
	Command string `json:"command"`
}

// CommandResult is the captured outcome of a kubectl process.
type CommandResult struct {
	// Stdout is the decoded standard output.
	Stdout string `json:"stdout"`
	// Stderr is the decoded standard error.
	Stderr string `json:"stderr"`
	// ExitCode is the process exit status, -1 when it was terminated by a signal.
	ExitCode int `json:"exit_code"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}
