package svgdoc

import (
	"github.com/antchfx/xpath"
	lru "github.com/hashicorp/golang-lru/v2"
)

// the same rules are applied to every file and output of a run,
// so compiled expressions are shared between all documents.
// Select goes through QuerySelectorAll, which bypasses the xmlquery
// cache: that one only backs the string queries (QueryAll).
var selectors = mustCache(256)

func mustCache(size int) *lru.Cache[string, *xpath.Expr] {
	c, err := lru.New[string, *xpath.Expr](size)
	if err != nil {
		panic(err)
	}
	return c
}

func compile(selector string) (*xpath.Expr, error) {
	if expr, ok := selectors.Get(selector); ok {
		return expr, nil
	}
	expr, err := xpath.Compile(selector)
	if err != nil {
		return nil, err
	}
	selectors.Add(selector, expr)
	return expr, nil
}
