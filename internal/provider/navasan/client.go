package navasan

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultEndpoint is the public Navasan API host.
const DefaultEndpoint = "https://api.navasan.tech"

// ErrMissingKey is returned when no API key is given; every Navasan call needs one.
var ErrMissingKey = errors.New("navasan: api key is required")

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=navasan_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NavasanAPIClient reads the latest rates document from the Navasan API.
type NavasanAPIClient struct {
	endpoint   string
	httpClient HTTPClient
	header     http.Header

	// latestURL is resolved once from endpoint and key.
	latestURL string
}

// NavasanAPIClientOption is a configuration option for the Navasan API client.
type NavasanAPIClientOption func(*NavasanAPIClient)

// WithBaseURL points the client at another host, e.g. a mirror or a test server.
func WithBaseURL(endpoint string) NavasanAPIClientOption {
	return func(c *NavasanAPIClient) { c.endpoint = endpoint }
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) NavasanAPIClientOption {
	return func(c *NavasanAPIClient) { c.httpClient = httpClient }
}

// WithHeader adds headers sent with each request.
func WithHeader(header http.Header) NavasanAPIClientOption {
	return func(c *NavasanAPIClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewNavasanAPIClient validates key and endpoint and returns a client.
// The key travels as the api_key query parameter, which is how Navasan authenticates.
func NewNavasanAPIClient(key string, options ...NavasanAPIClientOption) (*NavasanAPIClient, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrMissingKey
	}
	c := &NavasanAPIClient{
		endpoint:   DefaultEndpoint,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, option := range options {
		option(c)
	}
	if c.header.Get("Accept") == "" {
		c.header.Set("Accept", "application/json")
	}

	u, err := url.Parse(strings.TrimSpace(c.endpoint))
	if err != nil {
		return nil, fmt.Errorf("navasan: endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("navasan: endpoint %q: want an absolute http(s) URL", c.endpoint)
	}
	u = u.JoinPath("latest")
	u.Path += "/"
	u.RawQuery = url.Values{"api_key": {key}}.Encode()
	c.latestURL = u.String()
	return c, nil
}
