package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"runtime/debug"

	"github.com/codex-k8s/kubectl-gateway/internal/http/respond"
	"github.com/codex-k8s/kubectl-gateway/internal/protocol"
)

// MaxBodyBytes caps the size of a POST /run-cmd body.
const MaxBodyBytes = 1 << 20

// Gateway is the kubectl facade the handlers delegate to.
type Gateway interface {
	Run(ctx context.Context, req protocol.CommandRequest) (protocol.CommandResult, error)
	Namespaces(ctx context.Context, clusterContext string) ([]string, error)
	Contexts(ctx context.Context) ([]string, error)
}

// Handler serves the gateway routes.
type Handler struct {
	gateway Gateway
	logger  *slog.Logger
}

// New returns a Handler backed by gateway.
func New(gateway Gateway, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{gateway: gateway, logger: logger}
}

// Register mounts the gateway routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /run-cmd", h.RunCommand)
	mux.HandleFunc("GET /namespaces", h.Namespaces)
	mux.HandleFunc("GET /contexts", h.Contexts)
}

// RunCommand handles POST /run-cmd.
func (h *Handler) RunCommand(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r) {
		respond.Error(w, r, http.StatusUnsupportedMediaType, protocol.ErrCodeUnsupportedFormat, "request body must be application/json", false, nil)
		return
	}
	var req protocol.CommandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, protocol.ErrCodeInvalidRequest, err.Error(), false, nil)
		return
	}

	result, err := h.gateway.Run(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// Namespaces handles GET /namespaces?context=<ctx>.
func (h *Handler) Namespaces(w http.ResponseWriter, r *http.Request) {
	names, err := h.gateway.Namespaces(r.Context(), r.URL.Query().Get("context"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, nonNil(names))
}

// Contexts handles GET /contexts.
func (h *Handler) Contexts(w http.ResponseWriter, r *http.Request) {
	names, err := h.gateway.Contexts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, nonNil(names))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	c := respond.ErrorFromErr(w, r, err)
	level := slog.LevelWarn
	if c.Code == protocol.ErrCodeInternalError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed", "path", r.URL.Path, "code", c.Code, "error", err)
}

// Recover turns a panicking handler into a 500 response.
func Recover(logger *slog.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.ErrorContext(r.Context(), "handler panic", "path", r.URL.Path, "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
			respond.Error(w, r, http.StatusInternalServerError, protocol.ErrCodeInternalError, "internal server error", true, nil)
		}()
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// isJSON accepts a missing Content-Type so plain curl calls keep working.
func isJSON(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
