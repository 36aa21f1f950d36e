package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchReturnsBodyAndStatus(t *testing.T) {
	var gotUA, gotCacheControl string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCacheControl = r.Header.Get("Cache-Control")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer upstream.Close()

	f := New(2 * time.Second)
	resp, err := f.Fetch(context.Background(), upstream.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []byte("<html>ok</html>"), resp.Body)
	require.Equal(t, 15, resp.Size)

	require.NotEmpty(t, gotUA)
	require.Equal(t, "no-cache", gotCacheControl)
}

func TestFetchReportsNon2xxAsStructuredResult(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer upstream.Close()

	f := New(2 * time.Second)
	resp, err := f.Fetch(context.Background(), upstream.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFetchFollowsRedirects(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			_, _ = w.Write([]byte("landed"))
			return
		}
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer upstream.Close()

	f := New(2 * time.Second)
	resp, err := f.Fetch(context.Background(), upstream.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []byte("landed"), resp.Body)
}

func TestFetchTimeoutIsDistinguishable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer upstream.Close()

	f := New(50 * time.Millisecond)
	_, err := f.Fetch(context.Background(), upstream.URL)
	require.Error(t, err)

	var fetchErr *Error
	require.True(t, errors.As(err, &fetchErr))
	require.True(t, fetchErr.IsTimeout())
	require.Equal(t, CauseTimeout, fetchErr.Cause)
}

func TestFetchConnectionFailureIsNetworkError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := upstream.URL
	upstream.Close()

	f := New(2 * time.Second)
	_, err := f.Fetch(context.Background(), target)
	require.Error(t, err)

	var fetchErr *Error
	require.True(t, errors.As(err, &fetchErr))
	require.False(t, fetchErr.IsTimeout())
	require.Equal(t, CauseNetwork, fetchErr.Cause)
}
