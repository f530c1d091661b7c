package navasan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBody caps how much of a response is read; the latest-rates document is a few KB.
const maxBody = 1 << 20

// ErrTransport marks failures talking to Navasan: network errors, timeouts and
// truncated bodies. It is never returned for a bad request built locally.
var ErrTransport = errors.New("performing request")

// StatusError is returned for any non-200 response.
type StatusError struct {
	StatusCode int
	Msg        string
}

func (e *StatusError) Error() string { return e.Msg }

// GetLatest retrieves the latest rates document and returns its body as text.
// Prices inside are left untouched; callers extract what they need.
func (c *NavasanAPIClient) GetLatest(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.latestURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:

	case http.StatusUnauthorized, http.StatusForbidden:
		return "", &StatusError{StatusCode: res.StatusCode, Msg: "unauthorized"}

	case http.StatusTooManyRequests:
		return "", &StatusError{StatusCode: res.StatusCode, Msg: "rate limited"}

	default:
		return "", &StatusError{StatusCode: res.StatusCode, Msg: fmt.Sprintf("unexpected status code: %d", res.StatusCode)}
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}
	return string(b), nil
}
