package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_DefaultHeaders(t *testing.T) {
	t.Parallel()

	seen := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(2 * time.Second)
	c.Headers = map[string]string{"Accept": "text/html", "Accept-Language": "fa"}

	req, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req.WithContext(t.Context()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	h := <-seen
	require.Equal(t, DefaultUserAgent, h.Get("User-Agent"))
	require.Equal(t, "application/json", h.Get("Accept"), "caller headers win")
	require.Equal(t, "fa", h.Get("Accept-Language"))
	require.Empty(t, req.Header.Get("User-Agent"), "caller request must not be mutated")
}

func TestClient_BareHTTPClientGetsDefaults(t *testing.T) {
	t.Parallel()

	seen := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Clone()
	}))
	defer srv.Close()

	c := New(2 * time.Second)
	c.UserAgent = "goldquote-test"
	resp, err := c.HTTP.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	h := <-seen
	require.Equal(t, "goldquote-test", h.Get("User-Agent"))
	require.Equal(t, DefaultAcceptLanguage, h.Get("Accept-Language"))
}
