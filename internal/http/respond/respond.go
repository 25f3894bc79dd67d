package respond

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/codex-k8s/kubectl-gateway/internal/protocol"
	"github.com/codex-k8s/kubectl-gateway/internal/requestid"
)

// JSON writes data as a JSON response with the given status code.
// Encoding happens before any header is written so a failure cannot leave a
// partial response behind.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		slog.Error("json encoding failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("response write failed", "error", err)
	}
}

// Error writes a protocol.ErrorResponse.
func Error(w http.ResponseWriter, r *http.Request, statusCode int, code, message string, retryable bool, details map[string]any) {
	requestID := requestid.From(r.Context())
	if requestID == "" {
		requestID = requestid.New()
	}

	JSON(w, statusCode, protocol.ErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}
