// Provides a mutable SVG document tree, on top of xmlquery,
// with the two rewriting passes applied before rasterization:
// namespace normalization and fill color conversion.
package svgdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/antchfx/xmlquery"
	"golang.org/x/net/html/charset"
)

var parserOptions = xmlquery.ParserOptions{
	Decoder: &xmlquery.DecoderOptions{
		Strict:        true,
		CharsetReader: charset.NewReaderLabel,
	},
}

// ErrMalformedDocument is returned when the source is not well-formed XML.
var ErrMalformedDocument = errors.New("malformed document")

// SelectorError reports a selector which could not be compiled
// or evaluated against a document.
type SelectorError struct {
	Selector string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid selector %q: %v", e.Selector, e.Err)
}

func (e *SelectorError) Unwrap() error { return e.Err }

// Document is a parsed XML tree.
// It is not safe for concurrent mutation: use Clone
// to give each goroutine its own copy.
type Document struct {
	top *xmlquery.Node // the DocumentNode
}

// Parse reads a whole document from `r`.
// The charset declared in the XML prolog is honored.
func Parse(r io.Reader) (*Document, error) {
	top, err := xmlquery.ParseWithOptions(r, parserOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	doc := &Document{top: top}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: no document element", ErrMalformedDocument)
	}
	return doc, nil
}

// ParseBytes is a convenience wrapper around Parse.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

// Root returns the document element.
func (d *Document) Root() *xmlquery.Node {
	for n := d.top.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}

// Bytes serializes the document element.
// The XML declaration is never written, so the output
// is always UTF-8 regardless of the source encoding.
func (d *Document) Bytes() []byte {
	return []byte(d.Root().OutputXMLWithOptions(xmlquery.WithOutputSelf()))
}

// Clone returns an independent copy of the document.
func (d *Document) Clone() (*Document, error) {
	return ParseBytes(d.Bytes())
}

// Select evaluates the XPath `selector` from the document node
// and returns the matched nodes, in document order.
func (d *Document) Select(selector string) (nodes []*xmlquery.Node, err error) {
	expr, err := compile(selector)
	if err != nil {
		return nil, &SelectorError{Selector: selector, Err: err}
	}
	defer func() {
		// some non node-set expressions panic during iteration
		if r := recover(); r != nil {
			nodes, err = nil, &SelectorError{Selector: selector, Err: fmt.Errorf("%v", r)}
		}
	}()
	return xmlquery.QuerySelectorAll(d.top, expr), nil
}
