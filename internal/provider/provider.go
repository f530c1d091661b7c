package provider

import (
	"context"
	"errors"
	"fmt"

	"goldquote/internal/quote"
)

// Provider fetches one quote from a single upstream source.
// Implementations perform at most one outbound request per Fetch.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (quote.Payload, error)
}

// ErrUpstream marks failures of the remote source (network, non-2xx status).
var ErrUpstream = errors.New("upstream unavailable")

// UpstreamError describes a failed upstream fetch.
type UpstreamError struct {
	Source string
	Status int // 0 when no response was received
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
