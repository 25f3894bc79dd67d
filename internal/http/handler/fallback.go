package handler

import (
	"net/http"

	"github.com/codex-k8s/kubectl-gateway/internal/http/respond"
	"github.com/codex-k8s/kubectl-gateway/internal/protocol"
)

// JSONFallback serves mux and replaces its plain-text 404 and 405 replies
// with protocol.ErrorResponse bodies. The Allow header of a 405 is kept.
func JSONFallback(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(&fallbackWriter{ResponseWriter: w, r: r}, r)
	})
}

type fallbackWriter struct {
	http.ResponseWriter
	r        *http.Request
	replaced bool
}

func (f *fallbackWriter) WriteHeader(status int) {
	switch status {
	case http.StatusNotFound:
		f.replaced = true
		respond.Error(f.ResponseWriter, f.r, status, protocol.ErrCodeNotFound, "no route for "+f.r.URL.Path, false, nil)
	case http.StatusMethodNotAllowed:
		f.replaced = true
		respond.Error(f.ResponseWriter, f.r, status, protocol.ErrCodeMethodNotAllowed, "method "+f.r.Method+" is not allowed on "+f.r.URL.Path, false, nil)
	default:
		f.ResponseWriter.WriteHeader(status)
	}
}

func (f *fallbackWriter) Write(p []byte) (int, error) {
	if f.replaced {
		return len(p), nil
	}
	return f.ResponseWriter.Write(p)
}
