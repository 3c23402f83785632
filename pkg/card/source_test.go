package card

import (
	"bytes"
	"testing"
)

func TestSources_KindsAndLocations(t *testing.T) {
	cases := []struct {
		name     string
		source   Source
		kind     SourceKind
		location string
	}{
		{name: "file", source: SourceFromFile("./cards/acme.json"), kind: SourceKindFile, location: "cards/acme.json"},
		{name: "fs", source: SourceFromFS("cards/acme.json"), kind: SourceKindFS, location: "cards/acme.json"},
		{name: "url", source: SourceFromURL("https://cards.test/acme.json"), kind: SourceKindURL, location: "https://cards.test/acme.json"},
		{name: "bytes", source: SourceFromBytes("fixture", []byte(`{}`)), kind: SourceKindBytes, location: "fixture"},
		{name: "bytes default label", source: SourceFromBytes("", []byte(`{}`)), kind: SourceKindBytes, location: "inline"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.source.Kind(); got != tc.kind {
				t.Fatalf("kind: want %q, got %q", tc.kind, got)
			}
			if got := tc.source.Location(); got != tc.location {
				t.Fatalf("location: want %q, got %q", tc.location, got)
			}
		})
	}
}

func TestSourceFromBytes_PayloadIsDefensive(t *testing.T) {
	data := []byte(`{"title":"Acme"}`)
	src := SourceFromBytes("fixture", data)

	payload, ok := src.(PayloadSource)
	if !ok {
		t.Fatal("bytes source should expose its payload")
	}
	data[2] = 'X'
	got := payload.Payload()
	got[0] = 'Y'
	if !bytes.Equal(payload.Payload(), []byte(`{"title":"Acme"}`)) {
		t.Fatalf("payload was mutated: %s", payload.Payload())
	}
}

func TestSourceFromURL_PanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("invalid URL should panic")
		}
	}()
	SourceFromURL("://nope")
}

func TestDocument_RawIsDefensive(t *testing.T) {
	raw := []byte(`{"title":"Acme","sections":[]}`)
	doc := MustNewDocument(SourceFromBytes("fixture", nil), raw)

	raw[2] = 'X'
	first := doc.Raw()
	first[0] = 'Y'

	if got := doc.Raw(); !bytes.Equal(got, []byte(`{"title":"Acme","sections":[]}`)) {
		t.Fatalf("document payload was mutated: %s", got)
	}
}

func TestDocument_Parse(t *testing.T) {
	doc := MustNewDocument(SourceFromBytes("fixture", nil), []byte(`{"title":"Acme","sections":[]}`))
	c, err := doc.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Title != "Acme" {
		t.Fatalf("unexpected card: %+v", c)
	}
}

func TestNewDocument_Errors(t *testing.T) {
	if _, err := NewDocument(nil, []byte("x")); err == nil {
		t.Fatal("nil source should fail")
	}
	if _, err := NewDocument(SourceFromBytes("x", nil), nil); err == nil {
		t.Fatal("empty payload should fail")
	}
}
