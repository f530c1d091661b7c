// Package tgju scrapes gold and coin prices from the tgju.org home page.
package tgju

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"goldquote/internal/extract"
	"goldquote/internal/httpx"
	"goldquote/internal/provider"
	"goldquote/internal/quote"
)

const (
	DefaultName = "tgju"
	SourceTag   = "tgju-scrape"
	DefaultURL  = "https://www.tgju.org/"
)

// ws matches whitespace as it appears both in flattened text and raw markup.
const ws = `(?:\s|&nbsp;)*`

var (
	goldField = extract.Field{Key: quote.KeyGold18, Patterns: []extract.Pattern{
		{Name: "gold-18", Label: `طلای` + ws + `(?:18|۱۸)` + ws + `عیار`, Window: 80},
		{Name: "gold-18-loose", Label: `طلا[^\n<]{0,12}?(?:18|۱۸)[^\n<]{0,12}?عیار`, Window: 160},
		{Name: "gold-18-line", Label: `(?:18|۱۸)` + ws + `عیار`, Window: 200, Span: extract.SpanLine},
	}}
	coinField = extract.Field{Key: quote.KeyCoinFull, Patterns: []extract.Pattern{
		{Name: "coin-emami", Label: `سکه` + ws + `(?:امامی|بهار` + ws + `آزادی)`, Window: 80},
		{Name: "coin-tamam", Label: `سکه` + ws + `تمام`, Window: 160},
		{Name: "coin-line", Label: `سکه`, Window: 200, Span: extract.SpanLine},
	}}
	dollarField = extract.Field{Key: quote.KeyDollar, Patterns: []extract.Pattern{
		{Name: "dollar-free", Label: `دلار` + ws + `(?:آزاد|آمریکا)`, Window: 80},
		{Name: "dollar-line", Label: `دلار`, Window: 200, Span: extract.SpanLine},
	}}
)

// Fields returns the tgju field descriptors, with the dollar rate when requested.
func Fields(includeDollar bool) []extract.Field {
	fs := []extract.Field{goldField, coinField}
	if includeDollar {
		fs = append(fs, dollarField)
	}
	return fs
}

// Config controls the tgju provider.
type Config struct {
	Name          string
	URL           string
	UserAgent     string
	IncludeDollar bool
	Format        quote.Format
}

// Provider fetches the tgju page once per Fetch and extracts prices from it.
type Provider struct {
	cfg    Config
	fields []extract.Field
	client *resty.Client
	now    func() time.Time
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" { cfg.Name = DefaultName }
	if cfg.URL == "" { cfg.URL = DefaultURL }
	if cfg.UserAgent == "" { cfg.UserAgent = hc.UserAgent }
	client := resty.NewWithClient(hc.HTTP)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	client.SetHeader("Accept", "text/html,application/xhtml+xml")
	return &Provider{cfg: cfg, fields: Fields(cfg.IncludeDollar), client: client, now: time.Now}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Fields returns the descriptors this provider extracts.
func (p *Provider) Fields() []extract.Field { return p.fields }

func (p *Provider) Fetch(ctx context.Context) (quote.Payload, error) {
	text, err := p.FetchText(ctx)
	if err != nil {
		return quote.Payload{}, err
	}
	return quote.Assemble(SourceTag, text, p.fields, p.cfg.Format, p.now()), nil
}

// FetchText downloads the page and returns the text prices are searched in.
func (p *Provider) FetchText(ctx context.Context) (string, error) {
	res, err := p.client.R().SetContext(ctx).Get(p.cfg.URL)
	if errors.Is(err, context.Canceled) {
		return "", err
	}
	if err != nil {
		return "", &provider.UpstreamError{Source: p.cfg.Name, Err: err}
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return "", &provider.UpstreamError{
			Source: p.cfg.Name,
			Status: res.StatusCode(),
			Err:    fmt.Errorf("GET %s: %s", p.cfg.URL, http.StatusText(res.StatusCode())),
		}
	}
	return Flatten(res.String()), nil
}

// Flatten turns table rows and list items into one line each, cells joined by
// a space, so label and price end up adjacent. Markup without rows or items,
// or that fails to parse, is returned unchanged.
func Flatten(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	var b strings.Builder
	doc.Find("tr, li").Each(func(_ int, row *goquery.Selection) {
		if row.Find("tr, li").Length() > 0 {
			return // nested; the inner rows are visited on their own
		}
		var cells []string
		row.Contents().Each(func(_ int, c *goquery.Selection) {
			if t := strings.Join(strings.Fields(c.Text()), " "); t != "" {
				cells = append(cells, t)
			}
		})
		if len(cells) > 0 {
			b.WriteString(strings.Join(cells, " "))
			b.WriteByte('\n')
		}
	})
	if b.Len() == 0 {
		return html
	}
	return b.String()
}
