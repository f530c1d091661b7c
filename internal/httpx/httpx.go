package httpx

import (
	"net"
	"net/http"
	"time"
)

// DefaultUserAgent is sent when a request carries none.
const DefaultUserAgent = "Mozilla/5.0 (compatible; RoniaGallery/1.0)"

// DefaultAcceptLanguage asks upstreams for the Persian rendition of their pages.
const DefaultAcceptLanguage = "fa-IR,fa;q=0.9,en;q=0.5"

// Client is a small wrapper around http.Client with sane defaults.
// UserAgent and Headers are filled into every outgoing request that lacks them.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Headers   map[string]string
}

func New(timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	}
	c := &Client{
		UserAgent: DefaultUserAgent,
		Headers:   map[string]string{"Accept-Language": DefaultAcceptLanguage},
	}
	c.HTTP = &http.Client{Timeout: timeout, Transport: &headerTransport{base: transport, c: c}}
	return c
}

// headerTransport fills in User-Agent and default headers without overriding
// values set by the caller. Libraries that take the bare *http.Client get them too.
type headerTransport struct {
	base http.RoundTripper
	c    *Client
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.c.UserAgent == "" && len(t.c.Headers) == 0 {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	if t.c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.c.UserAgent)
	}
	for k, v := range t.c.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}
