// Package navasanadapter exposes the Navasan API client as a provider.Provider.
package navasanadapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"goldquote/internal/extract"
	"goldquote/internal/provider"
	"goldquote/internal/provider/navasan"
	"goldquote/internal/quote"
)

const (
	DefaultName = "navasan"
	SourceTag   = "navasan-api"
)

// item builds a pattern matching the "value" member of a top-level item.
func item(key string) extract.Pattern {
	return extract.Pattern{
		Name:   key,
		Label:  `"` + key + `"\s*:\s*\{[^{}]*?"value"\s*:\s*"?`,
		Window: 2,
	}
}

// Fields are the Navasan item keys per payload key, most specific first.
var Fields = []extract.Field{
	{Key: quote.KeyGold18, Patterns: []extract.Pattern{item("18ayar")}},
	{Key: quote.KeyCoinFull, Patterns: []extract.Pattern{item("sekkeh"), item("bahar")}},
	{Key: quote.KeyDollar, Patterns: []extract.Pattern{item("usd_sell"), item("harat_naghdi_sell"), item("usd")}},
}

type Config struct {
	Name   string // display name, default: navasan
	Format quote.Format
}

// LatestGetter is the part of the API client the adapter needs.
type LatestGetter interface {
	GetLatest(ctx context.Context) (string, error)
}

type Adapter struct {
	cfg    Config
	client LatestGetter
	now    func() time.Time
}

func New(cfg Config, client LatestGetter) *Adapter {
	if cfg.Name == "" { cfg.Name = DefaultName }
	return &Adapter{cfg: cfg, client: client, now: time.Now}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) Fetch(ctx context.Context) (quote.Payload, error) {
	text, err := a.FetchText(ctx)
	if err != nil {
		return quote.Payload{}, err
	}
	return quote.Assemble(SourceTag, text, Fields, a.cfg.Format, a.now()), nil
}

// FetchText returns the raw API document. Only failures on Navasan's side
// (non-200 responses and transport errors) become provider.UpstreamError;
// cancellation and locally built bad requests are returned as they are.
func (a *Adapter) FetchText(ctx context.Context) (string, error) {
	text, err := a.client.GetLatest(ctx)
	if err == nil {
		return text, nil
	}

	var se *navasan.StatusError
	switch {
	case errors.Is(err, context.Canceled):
		return "", err
	case errors.As(err, &se):
		return "", &provider.UpstreamError{Source: a.cfg.Name, Status: se.StatusCode, Err: err}
	case errors.Is(err, navasan.ErrTransport):
		return "", &provider.UpstreamError{Source: a.cfg.Name, Err: err}
	}
	return "", fmt.Errorf("%s: %w", a.cfg.Name, err)
}
