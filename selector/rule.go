package selector

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/npillmayer/extstyle/dom/style"
	"github.com/npillmayer/extstyle/dom/style/cssom/douceuradapter"
	"github.com/npillmayer/extstyle/propfilter"
)

// Rule is one compiled (selector, declaration) pair to enforce.
// Rules are immutable after compilation, except for Stats, which the
// engine touches only for rules flagged as debugging.
type Rule struct {
	Selector Selector
	Style    []style.Declaration
	Stats    *Stats
}

// Stats accumulates selector evaluation timings for debug-flagged rules.
type Stats struct {
	Count int
	Total time.Duration
	Max   time.Duration
}

// Record adds one evaluation timing.
func (s *Stats) Record(d time.Duration) {
	s.Count++
	s.Total += d
	if d > s.Max {
		s.Max = d
	}
}

// Mean returns the mean evaluation time, or zero without samples.
func (s *Stats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

func (s *Stats) String() string {
	return fmt.Sprintf("%d evaluations, mean %v, max %v", s.Count, s.Mean(), s.Max)
}

// The debug marker declaration. A rule carrying "debug: true" gets
// timing stats; "debug: global" additionally flags every compiled rule.
const debugProperty = "debug"

// Compile parses raw stylesheet text into an ordered rule list. Every
// :properties(...) filter encountered is registered on the given cache.
// Rules whose selector cannot be compiled are dropped with a trace;
// a single bad rule must never prevent unrelated rules from being
// enforced. Only wholly unparsable stylesheet text is an error.
func Compile(cssText string, cache *propfilter.Cache) ([]*Rule, error) {
	sheet, err := douceuradapter.Parse(cssText)
	if err != nil {
		return nil, fmt.Errorf("compile stylesheet: %w", err)
	}
	var rules []*Rule
	globalDebug := false
	for _, src := range sheet.Rules() {
		selText := strings.TrimSpace(src.Selector())

		var decls []style.Declaration
		debug := false
		for _, prop := range src.Properties() {
			val := src.Value(prop)
			if strings.EqualFold(prop, debugProperty) {
				debug = true
				if strings.EqualFold(val.String(), "global") {
					globalDebug = true
				}
				continue
			}
			decls = append(decls, style.Declaration{
				Property:  strings.ToLower(prop),
				Value:     val,
				Important: src.IsImportant(prop),
			})
		}

		sel, err := compileSelector(selText, cache, debug)
		if err != nil {
			tracer().Errorf("dropping rule with uncompilable selector %q: %v", selText, err)
			continue
		}
		r := &Rule{Selector: sel, Style: decls}
		if debug {
			r.Stats = &Stats{}
		}
		rules = append(rules, r)
	}
	if globalDebug {
		for _, r := range rules {
			markDebugging(r)
		}
	}
	return rules, nil
}

func markDebugging(r *Rule) {
	if r.Stats == nil {
		r.Stats = &Stats{}
	}
	switch s := r.Selector.(type) {
	case *plainSelector:
		s.debug = true
	case *propertiesSelector:
		s.debug = true
	}
}

// CompileSelector compiles a single selector text outside of any rule,
// registering its :properties filter (if any) on the given cache.
func CompileSelector(text string, cache *propfilter.Cache) (Selector, error) {
	return compileSelector(strings.TrimSpace(text), cache, false)
}

// compileSelector compiles one selector text, splitting off a
// :properties pseudo-class when present.
func compileSelector(text string, cache *propfilter.Cache, debug bool) (Selector, error) {
	base, filter, found := splitProperties(text)
	if !found {
		if strings.Contains(text, ":properties(") || strings.Contains(text, ":-abp-properties(") {
			return nil, fmt.Errorf("unbalanced :properties() in %q", text)
		}
		sel, err := cascadia.Parse(text)
		if err != nil {
			return nil, err
		}
		return &plainSelector{sel: sel, text: text, debug: debug}, nil
	}
	if cache == nil {
		return nil, fmt.Errorf(":properties() requires a style cache")
	}
	if base == "" {
		base = "*"
	}
	baseSel, err := cascadia.Parse(base)
	if err != nil {
		return nil, err
	}
	if err := cache.RegisterFilter(filter); err != nil {
		return nil, fmt.Errorf("bad property filter %q: %w", filter, err)
	}
	return &propertiesSelector{
		base:     baseSel,
		text:     text,
		filter:   filter,
		cache:    cache,
		debug:    debug,
		compiled: make(map[string]cascadia.Sel),
	}, nil
}
