package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	var seen string
	handler := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = From(r.Context())
	}))

	t.Run("assigns id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, w.Header().Get(Header))
	})

	t.Run("reuses valid inbound id", func(t *testing.T) {
		id := New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(Header, id)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, id, seen)
	})

	t.Run("replaces garbage inbound id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(Header, "<script>")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.NotEqual(t, "<script>", seen)
	})
}

func TestFromEmptyContext(t *testing.T) {
	assert.Empty(t, From(context.Background()))
}
