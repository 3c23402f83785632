package card

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
)

// Source identifies where a card document originated so loaders can operate
// on files, fs.FS entries, URLs, or in-memory bytes without leaking
// implementation details.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile  SourceKind = "file"
	SourceKindFS    SourceKind = "fs"
	SourceKindURL   SourceKind = "url"
	SourceKindBytes SourceKind = "bytes"
)

// fileSource identifies on-disk documents.
type fileSource struct {
	path string
}

func (s fileSource) Location() string {
	return s.path
}

func (s fileSource) Kind() SourceKind {
	return SourceKindFile
}

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

// fsSource references a path within an fs.FS.
type fsSource struct {
	name string
}

func (s fsSource) Location() string {
	return s.name
}

func (s fsSource) Kind() SourceKind {
	return SourceKindFS
}

// SourceFromFS returns a Source identifying a resource inside an fs.FS.
func SourceFromFS(name string) Source {
	return fsSource{name: name}
}

// urlSource references an HTTP/HTTPS endpoint.
type urlSource struct {
	raw string
}

func (s urlSource) Location() string {
	return s.raw
}

func (s urlSource) Kind() SourceKind {
	return SourceKindURL
}

// SourceFromURL parses the supplied URL string and returns a Source. It
// panics if the URL is invalid to surface configuration mistakes early.
func SourceFromURL(raw string) Source {
	if raw == "" {
		panic("card: empty URL source")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		panic(fmt.Sprintf("card: invalid URL %q: %v", raw, err))
	}
	return urlSource{raw: raw}
}

// PayloadSource is a Source that carries its document inline, so loaders
// can serve it without touching disk or network.
type PayloadSource interface {
	Source
	Payload() []byte
}

// bytesSource holds an in-memory document.
type bytesSource struct {
	label string
	data  []byte
}

func (s bytesSource) Location() string {
	return s.label
}

func (s bytesSource) Kind() SourceKind {
	return SourceKindBytes
}

func (s bytesSource) Payload() []byte {
	return append([]byte(nil), s.data...)
}

// SourceFromBytes returns a Source for documents already held in memory. The
// label is informational only, used in errors and logs.
func SourceFromBytes(label string, data []byte) Source {
	if label == "" {
		label = "inline"
	}
	return bytesSource{label: label, data: append([]byte(nil), data...)}
}

// Document wraps a raw card payload and its origin. Loaders produce it;
// parsing happens downstream.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("card: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("card: raw document is empty")
	}

	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a defensive copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Parse decodes the wrapped payload into a Card.
func (d Document) Parse() (*Card, error) {
	c, err := ParseCard(d.raw)
	if err != nil {
		return nil, fmt.Errorf("card: parse %s: %w", d.Location(), err)
	}
	return c, nil
}
