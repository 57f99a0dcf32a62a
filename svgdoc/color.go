package svgdoc

import (
	"errors"

	"github.com/antchfx/xmlquery"
)

var errNotElement = errors.New("matches a node which is not an element")

// ColorRule sets the `fill` attribute of every element
// matched by Selector to Color.
type ColorRule struct {
	Selector string
	Color    string
}

// ApplyColorRules applies `rules` in order, mutating the document.
//
// A rule whose selector matches nothing ends the processing:
// the following rules are not applied, and no error is returned.
// On a *SelectorError, the rules preceding the faulty one
// have already been applied.
func (d *Document) ApplyColorRules(rules []ColorRule) error {
	for _, rule := range rules {
		nodes, err := d.Select(rule.Selector)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			return nil
		}
		for _, n := range nodes {
			if n.Type != xmlquery.ElementNode {
				return &SelectorError{Selector: rule.Selector, Err: errNotElement}
			}
		}
		for _, n := range nodes {
			n.SetAttr("fill", rule.Color)
		}
	}
	return nil
}
