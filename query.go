package extstyle

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"time"

	"github.com/npillmayer/extstyle/dom"
	"github.com/npillmayer/extstyle/propfilter"
	"github.com/npillmayer/extstyle/selector"
	"golang.org/x/net/html"
)

// Query is a one-shot, stateless diagnostic: it compiles and evaluates
// a single extended selector against the document immediately and
// reports elapsed evaluation time. The property-filter cache it uses is
// cleared afterwards, so the query leaves no cache residue behind for
// ordinary engine instances. Query never touches affected-element
// bookkeeping.
func Query(doc *dom.Document, selectorText string) ([]*html.Node, time.Duration, error) {
	cache := propfilter.New(doc)
	sel, err := selector.CompileSelector(selectorText, cache)
	if err != nil {
		return nil, 0, err
	}
	if _, err := cache.Initialize(nil); err != nil {
		return nil, 0, err
	}
	defer cache.Clear()

	start := time.Now()
	nodes := sel.QuerySelectorAll(doc)
	elapsed := time.Since(start)
	tracer().P("selector", selectorText).Debugf("one-shot query took %v, %d matches", elapsed, len(nodes))
	return nodes, elapsed, nil
}
