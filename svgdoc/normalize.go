package svgdoc

import (
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
)

// matches both the default `xmlns="..."` and the prefixed `xmlns:ident="..."` forms
var xmlnsDecl = regexp.MustCompile(`\s+xmlns(?::[\w.\-]+)?\s*=\s*(?:"[^"]*"|'[^']*')`)

// Normalize parses `raw` and returns an equivalent document without
// any namespace: declarations are removed and element and attribute names
// are reduced to their local part, so that selectors match by local name.
// The `xml:` prefix, which never needs a declaration, is kept.
func Normalize(raw []byte) (*Document, error) {
	doc, err := ParseBytes(raw)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	dropPrefixes(root)
	text := root.OutputXMLWithOptions(xmlquery.WithOutputSelf())
	text = xmlnsDecl.ReplaceAllString(text, "")
	return Parse(strings.NewReader(text))
}

func isNamespaceDecl(attr xmlquery.Attr) bool {
	return attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns")
}

// dropPrefixes walks the element tree rooted at `n`.
// Declarations are left in place, for the textual pass.
func dropPrefixes(n *xmlquery.Node) {
	if n.Type == xmlquery.ElementNode {
		n.Prefix = ""
		n.NamespaceURI = ""

		seen := make(map[string]bool, len(n.Attr))
		for _, attr := range n.Attr {
			if attr.Name.Space == "" {
				seen[attr.Name.Local] = true
			}
		}
		kept := n.Attr[:0]
		for _, attr := range n.Attr {
			if !isNamespaceDecl(attr) && attr.Name.Space != "" && attr.Name.Space != "xml" {
				if seen[attr.Name.Local] {
					continue // would duplicate an existing attribute
				}
				seen[attr.Name.Local] = true
				attr.Name.Space = ""
			}
			attr.NamespaceURI = ""
			kept = append(kept, attr)
		}
		n.Attr = kept
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		dropPrefixes(child)
	}
}
