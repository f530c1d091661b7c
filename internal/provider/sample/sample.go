// Package sample serves fixed quote values for demos and for deployments
// that have no upstream credentials configured.
package sample

import (
	"context"
	"time"

	"goldquote/internal/extract"
	"goldquote/internal/quote"
)

const (
	DefaultName = "sample"
	SourceTag   = "sample"
)

// Text is the document the sample values are extracted from. It goes through
// the same extraction path as live sources so the output shape is identical.
const Text = "طلای 18 عیار 4,250,000\nسکه امامی 47,500,000\nدلار 81,900\n"

var Fields = []extract.Field{
	{Key: quote.KeyGold18, Patterns: []extract.Pattern{{Name: "gold", Label: `طلای 18 عیار`, Span: extract.SpanLine}}},
	{Key: quote.KeyCoinFull, Patterns: []extract.Pattern{{Name: "coin", Label: `سکه امامی`, Span: extract.SpanLine}}},
	{Key: quote.KeyDollar, Patterns: []extract.Pattern{{Name: "dollar", Label: `دلار`, Span: extract.SpanLine}}},
}

type Provider struct {
	name   string
	format quote.Format
	now    func() time.Time
}

func New(name string, f quote.Format) *Provider {
	if name == "" { name = DefaultName }
	return &Provider{name: name, format: f, now: time.Now}
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Fetch(ctx context.Context) (quote.Payload, error) {
	if err := ctx.Err(); err != nil {
		return quote.Payload{}, err
	}
	return quote.Assemble(SourceTag, Text, Fields, p.format, p.now()), nil
}

// FetchText returns the fixed sample document.
func (p *Provider) FetchText(context.Context) (string, error) { return Text, nil }
