package domain

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

// Document is an arbitrary JSON value. It keeps the raw bytes it was parsed
// from (so key order survives round-trips) and the decoded value used for
// structural comparison.
//
// The zero Document means "no document loaded"; a JSON null is a present
// document whose value is nil.
type Document struct {
	raw     []byte
	value   any
	present bool
}

// ParseDocument decodes data as a single JSON value.
func ParseDocument(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{}, &ParseError{Msg: "empty document"}
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return Document{}, toParseError(err)
	}
	if !json.Valid(trimmed) {
		return Document{}, &ParseError{Msg: "invalid character after top-level value"}
	}

	raw := make([]byte, len(trimmed))
	copy(raw, trimmed)
	return Document{raw: raw, value: v, present: true}, nil
}

// MustParseDocument is ParseDocument for literals known to be valid.
func MustParseDocument(s string) Document {
	d, err := ParseDocument([]byte(s))
	if err != nil {
		panic(err)
	}
	return d
}

func toParseError(err error) *ParseError {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return &ParseError{Offset: syn.Offset, Msg: syn.Error()}
	}
	return &ParseError{Msg: err.Error()}
}

// IsZero reports whether no document is held.
func (d Document) IsZero() bool { return !d.present }

// Raw returns a copy of the document bytes.
func (d Document) Raw() []byte {
	if !d.present {
		return nil
	}
	out := make([]byte, len(d.raw))
	copy(out, d.raw)
	return out
}

// Value returns the decoded JSON value (maps, slices, json.Number, string, bool, nil).
func (d Document) Value() any { return d.value }

// Equal compares two documents by value: key order and number formatting
// ("1" vs "1.0") do not matter.
func (d Document) Equal(other Document) bool {
	if d.present != other.present {
		return false
	}
	if !d.present {
		return true
	}
	return cmp.Equal(d.value, other.value, numbers)
}

// numbers compares JSON numbers by exact value, so 1 and 1.0 match but
// integers beyond float64 precision stay distinct.
var numbers = cmp.Comparer(func(a, b json.Number) bool {
	x, okX := new(big.Rat).SetString(a.String())
	y, okY := new(big.Rat).SetString(b.String())
	if !okX || !okY {
		return a == b
	}
	return x.Cmp(y) == 0
})

// Pretty returns the document indented with two spaces, preserving key order.
func (d Document) Pretty() string {
	if !d.present {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, d.raw, "", "  "); err != nil {
		return string(d.raw)
	}
	return buf.String()
}

func (d Document) MarshalJSON() ([]byte, error) {
	if !d.present {
		return []byte("null"), nil
	}
	return d.Raw(), nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(data)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Diff renders a structural diff between two documents. Lines prefixed with
// "-" belong to older, "+" to newer. An empty string means no difference.
func Diff(older, newer Document) string {
	return cmp.Diff(older.Value(), newer.Value(), numbers)
}
