// Package extract locates labeled prices in fetched text.
//
// A price field is described by an ordered list of Pattern descriptors. Each
// pattern names a label (a regular-expression fragment), a bounded lookahead
// window and whether that window may cross line breaks. The first pattern whose
// capture cleans to a non-empty numeral string wins.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"goldquote/internal/digits"
)

// Span controls which characters the lookahead window may consume.
type Span int

const (
	// SpanAny lets the window cross newlines and markup.
	SpanAny Span = iota
	// SpanLine keeps the window on the label's line (table-row style text).
	SpanLine
)

const (
	// DefaultWindow is the lookahead used when a Pattern leaves Window at zero.
	DefaultWindow = 80
	// MaxWindow caps Window at RE2's repetition limit.
	MaxWindow = 1000

	// numeral matches one character of a numeral run in Latin, Persian or
	// Arabic-Indic form, including both separators.
	numeral = `[0-9۰-۹٠-٩,٬]`
)

// Pattern describes one attempt at finding a labeled price.
type Pattern struct {
	Name   string
	Label  string
	Window int
	Span   Span
}

// Field is a payload key together with its patterns in priority order.
type Field struct {
	Key      string
	Patterns []Pattern
}

// Match is the winning attempt for a field.
type Match struct {
	Pattern string
	Raw     string
	Value   string
}

var compiled sync.Map // Pattern -> *regexp.Regexp

// Expr returns the regular expression source for p.
func (p Pattern) Expr() string {
	w := p.Window
	if w == 0 {
		w = DefaultWindow
	}
	if w < 0 {
		w = 0
	}
	if w > MaxWindow {
		w = MaxWindow
	}
	span := `[\s\S]`
	if p.Span == SpanLine {
		span = `[^\n]`
	}
	return fmt.Sprintf(`(?:%s)%s{0,%d}?(%s+)`, p.Label, span, w, numeral)
}

// Compile returns the compiled expression for p, memoized per descriptor.
func (p Pattern) Compile() (*regexp.Regexp, error) {
	if re, ok := compiled.Load(p); ok {
		return re.(*regexp.Regexp), nil
	}
	if strings.TrimSpace(p.Label) == "" {
		return nil, fmt.Errorf("pattern %q: empty label", p.Name)
	}
	re, err := regexp.Compile(p.Expr())
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", p.Name, err)
	}
	actual, _ := compiled.LoadOrStore(p, re)
	return actual.(*regexp.Regexp), nil
}

// Validate compiles every pattern of every field and reports the first failure.
func Validate(fields []Field) error {
	for _, f := range fields {
		if f.Key == "" {
			return fmt.Errorf("field with empty key")
		}
		for _, p := range f.Patterns {
			if _, err := p.Compile(); err != nil {
				return fmt.Errorf("field %s: %w", f.Key, err)
			}
		}
	}
	return nil
}

// Extract returns the first non-empty cleaned capture of patterns in text.
// Not finding a price is not an error; ok is false.
func Extract(text string, patterns []Pattern) (string, bool) {
	m, ok := ExtractMatch(text, patterns)
	return m.Value, ok
}

// ExtractMatch is Extract that also reports which pattern won and what it captured.
func ExtractMatch(text string, patterns []Pattern) (Match, bool) {
	if text == "" {
		return Match{}, false
	}
	for _, p := range patterns {
		re, err := p.Compile()
		if err != nil {
			continue
		}
		sub := re.FindStringSubmatch(text)
		if len(sub) < 2 {
			continue
		}
		// the numeral run is always the last group; labels may carry their own
		raw := sub[len(sub)-1]
		if v, ok := CleanNumberString(raw); ok {
			return Match{Pattern: p.Name, Raw: raw, Value: v}, true
		}
	}
	return Match{}, false
}

// CleanNumberString folds digits, drops everything except 0-9 and ',', collapses
// comma runs and trims commas at both ends. An empty result is reported as absent.
func CleanNumberString(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	s = digits.Normalize(s)
	var b strings.Builder
	b.Grow(len(s))
	lastComma := true // suppresses leading commas
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			lastComma = false
		case r == ',':
			if !lastComma {
				b.WriteByte(',')
				lastComma = true
			}
		}
	}
	out := strings.TrimRight(b.String(), ",")
	return out, out != ""
}

var printer = message.NewPrinter(language.English)

// Pretty re-renders a cleaned numeral string with standard thousands
// separators. Input that does not parse is returned unchanged.
func Pretty(s string) string {
	n, err := strconv.ParseUint(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return s
	}
	return printer.Sprintf("%d", n)
}
