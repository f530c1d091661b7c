// Package sources builds the configured quote providers.
package sources

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"goldquote/internal/config"
	"goldquote/internal/extract"
	"goldquote/internal/httpx"
	"goldquote/internal/logger"
	"goldquote/internal/provider"
	"goldquote/internal/provider/cache"
	"goldquote/internal/provider/navasan"
	"goldquote/internal/provider/navasanadapter"
	"goldquote/internal/provider/ratelimit"
	"goldquote/internal/provider/sample"
	"goldquote/internal/provider/tgju"
	"goldquote/internal/quote"
)

const (
	Tgju    = "tgju"
	Navasan = "navasan"
	Sample  = "sample"
)

// Texter is implemented by providers that can return the raw text they extract from.
type Texter interface {
	FetchText(ctx context.Context) (string, error)
}

// Source is one routable provider. Raw is the undecorated provider, used for
// diagnostics; Provider is what requests go through (cache, limits).
type Source struct {
	Name     string
	Provider provider.Provider
	Raw      Texter
	Fields   []extract.Field
}

// Set is the enabled sources keyed by route name.
type Set map[string]Source

// Names returns the source names in sorted order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for k := range s { out = append(out, k) }
	sort.Strings(out)
	return out
}

// Build constructs every enabled source from cfg. Caching uses the server's
// cache_max_age_sec as TTL and stale_while_revalidate_sec as the stale window.
func Build(cfg config.Config, hc *httpx.Client) (Set, error) {
	set := Set{}
	ttl := time.Duration(cfg.Server.CacheMaxAgeSec) * time.Second
	stale := time.Duration(cfg.Server.StaleWhileRevalidateSec) * time.Second
	wrapCache := func(p provider.Provider) provider.Provider {
		if ttl <= 0 { return p }
		return &cache.Provider{P: p, TTL: ttl, Stale: stale}
	}

	if cfg.Tgju.Enabled {
		tp := tgju.New(tgju.Config{
			Name:          Tgju,
			URL:           cfg.Tgju.URL,
			UserAgent:     cfg.Tgju.UserAgent,
			IncludeDollar: cfg.Tgju.IncludeDollar,
			Format:        quote.Format{Unit: cfg.Tgju.Unit, Pretty: cfg.Tgju.Pretty},
		}, hc)
		set[Tgju] = Source{Name: Tgju, Provider: wrapCache(tp), Raw: tp, Fields: tp.Fields()}
	}

	if cfg.Navasan.Enabled {
		format := quote.Format{Unit: cfg.Navasan.Unit, Pretty: cfg.Navasan.Pretty}
		switch {
		case cfg.Navasan.APIKey != "":
			client, err := navasan.NewNavasanAPIClient(
				cfg.Navasan.APIKey,
				navasan.WithBaseURL(cfg.Navasan.Endpoint),
				navasan.WithHTTPClient(hc.HTTP),
				navasan.WithHeader(http.Header{"User-Agent": []string{hc.UserAgent}}),
			)
			if err != nil {
				return nil, fmt.Errorf("navasan client: %w", err)
			}
			na := navasanadapter.New(navasanadapter.Config{Name: Navasan, Format: format}, client)
			var p provider.Provider = ratelimit.Wrap(na, ratelimit.Options{
				RequestsPerMinute: cfg.Navasan.MaxRequestsPerMinute,
				Burst:             cfg.Navasan.Burst,
				MinInterval:       time.Duration(cfg.Navasan.MinRequestIntervalSec) * time.Second,
			})
			set[Navasan] = Source{Name: Navasan, Provider: wrapCache(p), Raw: na, Fields: navasanadapter.Fields}
		case cfg.Navasan.SampleWhenUnconfigured:
			logger.Warn("navasan api key not set; serving sample data", "source", Navasan)
			sp := sample.New(Navasan, format)
			set[Navasan] = Source{Name: Navasan, Provider: sp, Raw: sp, Fields: sample.Fields}
		default:
			logger.Warn("navasan enabled but api key not set; skipping", "source", Navasan)
		}
	}

	if cfg.Sample.Enabled {
		sp := sample.New(Sample, quote.Format{Unit: cfg.Tgju.Unit})
		set[Sample] = Source{Name: Sample, Provider: sp, Raw: sp, Fields: sample.Fields}
	}

	for name, s := range set {
		if err := quote.Validate(s.Fields); err != nil {
			return nil, fmt.Errorf("source %s: %w", name, err)
		}
	}
	return set, nil
}
