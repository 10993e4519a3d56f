package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "object", input: `{"a":1}`},
		{name: "array", input: `[1,2,3]`},
		{name: "null", input: `null`},
		{name: "string", input: `"hello"`},
		{name: "surrounding whitespace", input: "  \n{\"a\":1}\n"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "truncated", input: `{"a":`, wantErr: true},
		{name: "trailing garbage", input: `{"a":1} x`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDocument(%q) = nil error, want error", tt.input)
				}
				if !errors.Is(err, ErrParse) {
					t.Errorf("ParseDocument(%q) error = %v, want ErrParse", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDocument(%q) error = %v", tt.input, err)
			}
			if doc.IsZero() {
				t.Errorf("ParseDocument(%q) returned zero document", tt.input)
			}
		})
	}
}

func TestDocumentEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "identical", a: `{"a":1}`, b: `{"a":1}`, want: true},
		{name: "key order", a: `{"a":1,"b":2}`, b: `{"b":2,"a":1}`, want: true},
		{name: "number formatting", a: `{"a":1}`, b: `{"a":1.0}`, want: true},
		{name: "whitespace", a: `{"a": [1, 2]}`, b: `{"a":[1,2]}`, want: true},
		{name: "nested difference", a: `{"a":{"b":[1,2]}}`, b: `{"a":{"b":[2,1]}}`, want: false},
		{name: "different value", a: `{"a":1}`, b: `{"a":2}`, want: false},
		{name: "extra key", a: `{"a":1}`, b: `{"a":1,"b":null}`, want: false},
		{name: "null vs empty object", a: `null`, b: `{}`, want: false},
		{name: "string vs number", a: `"1"`, b: `1`, want: false},
		{name: "exponent", a: `{"a":1e3}`, b: `{"a":1000}`, want: true},
		{name: "integers beyond float precision", a: `{"id":9007199254740993}`, b: `{"id":9007199254740992}`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := MustParseDocument(tt.a)
			b := MustParseDocument(tt.b)
			if got := a.Equal(b); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := b.Equal(a); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestDocumentZeroValue(t *testing.T) {
	var zero Document
	if !zero.IsZero() {
		t.Error("zero Document should report IsZero")
	}
	if !zero.Equal(Document{}) {
		t.Error("two zero documents should be equal")
	}
	if zero.Equal(MustParseDocument("null")) {
		t.Error("zero document should differ from a JSON null document")
	}
}

func TestDocumentPrettyKeepsKeyOrder(t *testing.T) {
	doc := MustParseDocument(`{"z":1,"a":{"y":true}}`)
	got := doc.Pretty()
	want := "{\n  \"z\": 1,\n  \"a\": {\n    \"y\": true\n  }\n}"
	if got != want {
		t.Errorf("Pretty() = %q, want %q", got, want)
	}
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	v := Version{Seq: 3, Data: MustParseDocument(`{"b":[1,"x"],"a":null}`)}

	data, err := v.Data.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	var back Document
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if !back.Equal(v.Data) {
		t.Errorf("round trip = %s, want %s", back.Raw(), v.Data.Raw())
	}
}

func TestDiff(t *testing.T) {
	older := MustParseDocument(`{"a":1,"b":"same"}`)
	newer := MustParseDocument(`{"b":"same","a":2}`)

	if d := Diff(older, older); d != "" {
		t.Errorf("Diff(x, x) = %q, want empty", d)
	}

	d := Diff(older, newer)
	if d == "" {
		t.Fatal("Diff() of different documents should not be empty")
	}
	if !strings.Contains(d, "1") || !strings.Contains(d, "2") {
		t.Errorf("Diff() = %q, want both old and new values", d)
	}
}
