package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pagegate/pagegate/internal/core/cache"
	"github.com/pagegate/pagegate/internal/core/fetcher"
	"github.com/pagegate/pagegate/internal/core/gateway"
	"github.com/pagegate/pagegate/internal/core/ratelimit"
	"github.com/pagegate/pagegate/internal/server/handlers"
)

func newTestServer() *Server {
	svc := gateway.New(cache.New(5*time.Minute), fetcher.New(2*time.Second), 5<<20)
	svc.Guard = func(string) bool { return false }
	fetch := handlers.NewFetchHandler(ratelimit.New(30, time.Minute), svc)
	return New("127.0.0.1", 0, fetch)
}

func decodeFlatBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestServerNotFoundUsesFlatErrorBody(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "The requested resource was not found", decodeFlatBody(t, rec)["error"])
}

func TestServerMethodNotAllowedOnFixedRoutes(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodDelete, "/version", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "Method not allowed", decodeFlatBody(t, rec)["error"])
}

func TestServerRoutesFetchPipeline(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>routed</html>"))
	}))
	defer upstream.Close()

	srv := newTestServer()
	target := "/fetch?url=" + url.QueryEscape(upstream.URL)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	require.Equal(t, "<html>routed</html>", decodeFlatBody(t, rec)["html"])

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "HIT", rec.Header().Get("X-Cache"))
}

func TestServerFetchRouteAcceptsAnyMethod(t *testing.T) {
	srv := newTestServer()

	// Unsupported methods on /fetch reach the handler (which owns the 405)
	// instead of chi's route-level method matcher.
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/fetch", nil))

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "Method not allowed", decodeFlatBody(t, rec)["error"])
}

func TestServerAllowsCrossOriginCallers(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Cache")
}
