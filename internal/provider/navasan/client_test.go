package navasan_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	navasan "goldquote/internal/provider/navasan"
)

const mockLatest = `{"18ayar":{"value":"4250000","change":12000,"timestamp":1735790000,"date":"1403-10-13 10:10:00"},` +
	`"sekkeh":{"value":"47500000","change":0,"timestamp":1735790000,"date":"1403-10-13 10:10:00"},` +
	`"usd_sell":{"value":"81,900","change":-100,"timestamp":1735790000,"date":"1403-10-13 10:10:00"}}`

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestNewNavasanAPIClient(t *testing.T) {
	t.Parallel()

	// Assert: a valid key should return a client.
	client, err := navasan.NewNavasanAPIClient("test")
	require.NoErrorf(t, err, "unexpected error: %v", err)
	require.NotNilf(t, client, "unexpected nil client")
}

func TestNewNavasanAPIClient_Invalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		key      string
		endpoint string
	}{
		{name: "empty key", key: "", endpoint: navasan.DefaultEndpoint},
		{name: "blank key", key: "  ", endpoint: navasan.DefaultEndpoint},
		{name: "control character", key: "k", endpoint: string([]rune{0x7f})},
		{name: "relative endpoint", key: "k", endpoint: "api.navasan.tech"},
		{name: "unsupported scheme", key: "k", endpoint: "ftp://api.navasan.tech"},
		{name: "empty endpoint", key: "k", endpoint: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Act: build a client from invalid settings
			client, err := navasan.NewNavasanAPIClient(tc.key, navasan.WithBaseURL(tc.endpoint))

			// Assert: construction fails and nothing is returned
			require.Error(t, err)
			require.Nil(t, client)
		})
	}

	_, err := navasan.NewNavasanAPIClient("")
	require.ErrorIs(t, err, navasan.ErrMissingKey)
}

func TestGetLatest(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "test-key", req.URL.Query().Get("api_key"))
			require.Equal(t, "/latest/", req.URL.Path)
			require.Equal(t, "application/json", req.Header.Get("Accept"))
			return okResponse(mockLatest), nil
		}).
		Times(1)

	// Arrange: setup a new Navasan API client
	client, err := navasan.NewNavasanAPIClient("test-key", navasan.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act: call GetLatest
	body, err := client.GetLatest(t.Context())

	// Assert: the body is returned verbatim
	require.NoError(t, err)
	require.Equal(t, mockLatest, body)
}

func TestWithBaseURL(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller and HTTP client
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Arrange: define a base url with a trailing slash
	baseURL := "http://localhost:8080/"

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), "http://localhost:8080/latest/"), "unexpected url: %s", req.URL.String())
			return okResponse("{}"), nil
		}).
		Times(1)

	// Arrange: create a new client.
	client, err := navasan.NewNavasanAPIClient("test", navasan.WithHTTPClient(httpClient), navasan.WithBaseURL(baseURL))
	require.NoError(t, err)

	// Act: call GetLatest against the configured base URL.
	_, err = client.GetLatest(t.Context())
	require.NoError(t, err)
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller and HTTP client
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "bar", req.Header.Get("foo"))
			require.Equal(t, "text/plain", req.Header.Get("Accept"))
			return okResponse("{}"), nil
		}).
		Times(1)

	// Arrange: create a new client with custom headers.
	client, err := navasan.NewNavasanAPIClient("test",
		navasan.WithHTTPClient(httpClient),
		navasan.WithHeader(http.Header{"Foo": []string{"bar"}, "Accept": []string{"text/plain"}}),
	)
	require.NoError(t, err)

	// Act: call GetLatest
	_, err = client.GetLatest(t.Context())
	require.NoError(t, err)
}

func TestGetLatest_ErrPerformingRequest(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller and HTTP client
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("error")
		}).
		Times(1)

	client, err := navasan.NewNavasanAPIClient("k", navasan.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act: call GetLatest
	body, err := client.GetLatest(t.Context())

	// Assert: transport failures are marked as such
	require.ErrorIs(t, err, navasan.ErrTransport)
	require.ErrorContains(t, err, "performing request")
	require.Empty(t, body)
}

func TestGetLatest_StatusCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		msg    string
	}{
		{http.StatusUnauthorized, "unauthorized"},
		{http.StatusForbidden, "unauthorized"},
		{http.StatusTooManyRequests, "rate limited"},
		{http.StatusBadGateway, "unexpected status code: 502"},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			t.Parallel()

			// Arrange: create a mock controller and HTTP client
			ctrl := gomock.NewController(t)
			httpClient := NewMockHTTPClient(ctrl)

			httpClient.EXPECT().
				Do(gomock.Any()).
				Return(&http.Response{StatusCode: tc.status, Body: io.NopCloser(strings.NewReader(""))}, nil).
				Times(1)

			client, err := navasan.NewNavasanAPIClient("k", navasan.WithHTTPClient(httpClient))
			require.NoError(t, err)

			// Act: call GetLatest
			_, err = client.GetLatest(t.Context())

			// Assert: the status is reported through StatusError
			var se *navasan.StatusError
			require.True(t, errors.As(err, &se))
			require.Equal(t, tc.status, se.StatusCode)
			require.EqualError(t, err, tc.msg)
		})
	}
}
