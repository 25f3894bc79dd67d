package respond

import (
	"errors"
	"net/http"

	"github.com/codex-k8s/kubectl-gateway/internal/executil"
	"github.com/codex-k8s/kubectl-gateway/internal/kubectl"
	"github.com/codex-k8s/kubectl-gateway/internal/protocol"
	"github.com/codex-k8s/kubectl-gateway/internal/runtime/approver"
)

// Classification is the HTTP rendering of an execution error.
type Classification struct {
	Status    int
	Code      string
	Retryable bool
	Details   map[string]any
}

// Classify maps gateway errors onto HTTP statuses and error codes.
func Classify(err error) Classification {
	var failed *kubectl.CommandFailedError
	switch {
	case errors.Is(err, kubectl.ErrInvalidCommand):
		return Classification{Status: http.StatusBadRequest, Code: protocol.ErrCodeInvalidRequest}
	case errors.Is(err, approver.ErrDenied):
		return Classification{Status: http.StatusForbidden, Code: protocol.ErrCodeNotAllowed}
	case errors.Is(err, executil.ErrSpawn):
		return Classification{Status: http.StatusBadGateway, Code: protocol.ErrCodeSpawnFailed, Retryable: true}
	case errors.Is(err, executil.ErrTimeout):
		return Classification{Status: http.StatusGatewayTimeout, Code: protocol.ErrCodeTimeout, Retryable: true}
	case errors.Is(err, executil.ErrCanceled):
		return Classification{Status: http.StatusServiceUnavailable, Code: protocol.ErrCodeCanceled, Retryable: true}
	case errors.As(err, &failed):
		return Classification{
			Status:  http.StatusBadGateway,
			Code:    protocol.ErrCodeCommandFailed,
			Details: map[string]any{"exit_code": failed.ExitCode, "stderr": failed.Stderr},
		}
	default:
		return Classification{Status: http.StatusInternalServerError, Code: protocol.ErrCodeInternalError, Retryable: true}
	}
}

// ErrorFromErr classifies err, writes the matching error response and
// returns the classification for logging.
func ErrorFromErr(w http.ResponseWriter, r *http.Request, err error) Classification {
	c := Classify(err)
	Error(w, r, c.Status, c.Code, err.Error(), c.Retryable, c.Details)
	return c
}
