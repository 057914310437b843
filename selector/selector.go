package selector

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/npillmayer/extstyle/dom"
	"github.com/npillmayer/extstyle/propfilter"
	"golang.org/x/net/html"
)

// Selector is the capability a compiled rule exposes to the engine:
// evaluate against the current tree, report the source text, and flag
// wether match timing should be recorded.
type Selector interface {
	QuerySelectorAll(doc *dom.Document) []*html.Node
	Text() string
	IsDebugging() bool
}

// plainSelector is a selector the native matcher can evaluate entirely
// on its own.
type plainSelector struct {
	sel   cascadia.Sel
	text  string
	debug bool
}

func (p *plainSelector) QuerySelectorAll(doc *dom.Document) []*html.Node {
	return doc.Query(p.sel)
}

func (p *plainSelector) Text() string      { return p.text }
func (p *plainSelector) IsDebugging() bool { return p.debug }

// propertiesSelector carries a :properties(filter) pseudo-class. The
// base selector narrows candidates natively; the filter resolves through
// the property-filter cache into a set of plain selectors, and a
// candidate matches when at least one of them matches it.
type propertiesSelector struct {
	base     cascadia.Sel
	text     string
	filter   string
	cache    *propfilter.Cache
	debug    bool
	mu       sync.Mutex
	compiled map[string]cascadia.Sel
}

func (p *propertiesSelector) QuerySelectorAll(doc *dom.Document) []*html.Node {
	candidates := doc.Query(p.base)
	if len(candidates) == 0 {
		return nil
	}
	selTexts := p.cache.Selectors(p.filter)
	if len(selTexts) == 0 {
		return nil
	}
	sels := make([]cascadia.Sel, 0, len(selTexts))
	p.mu.Lock()
	for _, text := range selTexts {
		sel, ok := p.compiled[text]
		if !ok {
			var err error
			sel, err = cascadia.Parse(text)
			if err != nil {
				tracer().Debugf("skipping uncompilable selector %q: %v", text, err)
				p.compiled[text] = nil
				continue
			}
			p.compiled[text] = sel
		}
		if sel != nil {
			sels = append(sels, sel)
		}
	}
	p.mu.Unlock()

	var matched []*html.Node
	for _, n := range candidates {
		for _, sel := range sels {
			if sel.Match(n) {
				matched = append(matched, n)
				break
			}
		}
	}
	return matched
}

func (p *propertiesSelector) Text() string      { return p.text }
func (p *propertiesSelector) IsDebugging() bool { return p.debug }

// splitProperties splits a :properties(...) pseudo-class off a selector,
// returning the remaining base selector text and the filter argument.
// Parentheses inside the argument (e.g. "rgb(255, 0, 0)") nest.
func splitProperties(text string) (base, filter string, found bool) {
	for _, marker := range []string{":properties(", ":-abp-properties("} {
		idx := strings.Index(text, marker)
		if idx < 0 {
			continue
		}
		depth := 1
		start := idx + len(marker)
		for i := start; i < len(text); i++ {
			switch text[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					base = strings.TrimSpace(text[:idx] + text[i+1:])
					filter = strings.Trim(strings.TrimSpace(text[start:i]), `"'`)
					return base, filter, true
				}
			}
		}
		return "", "", false // unbalanced; caller drops the rule
	}
	return text, "", false
}
