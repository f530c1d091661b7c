package quote

import (
	"encoding/json"
	"fmt"
	"time"

	"goldquote/internal/extract"
)

// Payload keys.
const (
	KeyGold18   = "gold_18_per_gram"
	KeyCoinFull = "coin_full"
	KeyDollar   = "dollar"
)

// Keys the payload itself writes; fields may not use them.
const (
	keySource    = "source"
	keyTimestamp = "timestamp"
)

// TimestampLayout matches JavaScript's Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Payload is one normalized quote. A nil value means the field was not found
// and is encoded as JSON null. Keys absent from Values are not emitted at all.
type Payload struct {
	Source    string
	Timestamp time.Time
	Values    map[string]*string
}

// Format controls how extracted numbers are rendered into the payload.
type Format struct {
	Unit   string // appended after a space, e.g. "تومان"
	Pretty bool   // re-group thousands separators
}

// Validate checks fields for use in a payload: keys must be unique and must not
// collide with the source and timestamp members, and every pattern must compile.
func Validate(fields []extract.Field) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		switch {
		case f.Key == keySource || f.Key == keyTimestamp:
			return fmt.Errorf("field key %q is reserved", f.Key)
		case seen[f.Key]:
			return fmt.Errorf("duplicate field key %q", f.Key)
		}
		seen[f.Key] = true
	}
	return extract.Validate(fields)
}

// Assemble extracts every field from text and builds a payload.
func Assemble(source, text string, fields []extract.Field, f Format, now time.Time) Payload {
	p := Payload{Source: source, Timestamp: now.UTC(), Values: make(map[string]*string, len(fields))}
	for _, fd := range fields {
		v, ok := extract.Extract(text, fd.Patterns)
		if !ok {
			p.Values[fd.Key] = nil
			continue
		}
		p.Values[fd.Key] = f.render(v)
	}
	return p
}

func (f Format) render(v string) *string {
	if f.Pretty {
		v = extract.Pretty(v)
	}
	if f.Unit != "" {
		v += " " + f.Unit
	}
	return &v
}

// Value returns the rendered value for key.
func (p Payload) Value(key string) (string, bool) {
	v, ok := p.Values[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Empty reports whether no field carries a value.
func (p Payload) Empty() bool {
	for _, v := range p.Values {
		if v != nil {
			return false
		}
	}
	return true
}

func (p Payload) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Values)+2)
	for k, v := range p.Values {
		if v == nil {
			m[k] = nil
			continue
		}
		m[k] = *v
	}
	m[keySource] = p.Source
	m[keyTimestamp] = p.Timestamp.UTC().Format(TimestampLayout)
	return json.Marshal(m)
}
