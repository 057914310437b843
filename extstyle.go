/*
Package extstyle continuously applies style rules, selected via
extended CSS selectors, to elements of a live, externally-mutating HTML
tree. Rules hide or restyle elements matched by selectors the native
matcher cannot express; the engine keeps the application consistent as
the tree and its stylesheets change, and defends its inline-style
overrides against being undone by the page itself.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package extstyle

import (
	"sync"
	"time"

	"github.com/npillmayer/extstyle/dom"
	"github.com/npillmayer/extstyle/dom/style"
	"github.com/npillmayer/extstyle/propfilter"
	"github.com/npillmayer/extstyle/schedule"
	"github.com/npillmayer/extstyle/selector"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/net/html"
)

// tracer will return a tracer. We are tracing to 'extstyle.engine'
func tracer() tracing.Trace {
	return tracing.Select("extstyle.engine")
}

// quiescence is the debounce window between a burst of tree mutations
// and the reconciliation pass it triggers.
const quiescence = 25 * time.Millisecond

// Engine enforces an ordered rule list against a live document. One
// reconciliation pass re-evaluates every rule against the current tree,
// applies or re-applies inline-style overrides to matched elements, and
// reverts elements no longer matched by any rule. Structural tree
// mutations re-trigger reconciliation, debounced to one pass per burst;
// the engine's own style writes are attribute mutations and can not.
type Engine struct {
	mu        sync.Mutex
	doc       *dom.Document
	rules     []*selector.Rule
	cache     *propfilter.Cache
	ignored   []*html.Node
	affected  map[*html.Node]*affectedElement
	sched     *schedule.TaskScheduler
	watcher   dom.ChangeWatcher
	applied   bool
	disposed  bool
	firstPass bool
}

// New compiles stylesheet text into an engine for a document. The
// ignoredStyles elements are excluded from property-filter scanning.
// Rules with uncompilable selectors are dropped individually; only
// wholly unparsable stylesheet text is an error.
func New(doc *dom.Document, stylesheetText string, ignoredStyles ...*html.Node) (*Engine, error) {
	cache := propfilter.New(doc)
	rules, err := selector.Compile(stylesheetText, cache)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		doc:      doc,
		rules:    rules,
		cache:    cache,
		ignored:  ignoredStyles,
		affected: make(map[*html.Node]*affectedElement),
	}
	e.sched = schedule.New(e.reconcile, quiescence)
	return e, nil
}

// Apply runs one immediate reconciliation pass and begins continuous
// observation. If the document is still loading, one more immediate
// pass runs on load completion, covering content added before the
// observer attached. Calling Apply twice is a no-op.
func (e *Engine) Apply() {
	e.mu.Lock()
	if e.applied || e.disposed {
		e.mu.Unlock()
		return
	}
	e.applied = true
	e.mu.Unlock()

	if ok, err := e.cache.Initialize(e.ignored); err != nil {
		tracer().Errorf("style cache initialization: %v", err)
	} else if !ok {
		tracer().Debugf("no property filters registered, style cache stays inactive")
	}

	e.reconcile()

	watcher := e.doc.NewWatcher(e.onTreeChange)
	e.mu.Lock()
	e.watcher = watcher
	e.mu.Unlock()
	watcher.Watch(e.doc.Root(), dom.Options{ChildList: true, Subtree: true})

	if e.doc.Ready() == dom.Loading {
		e.doc.OnLoad(e.reconcile)
	}
}

// Dispose stops tree observation and reverts every currently tracked
// element unconditionally, regardless of current match state.
func (e *Engine) Dispose() {
	e.mu.Lock()
	e.disposed = true
	watcher := e.watcher
	e.watcher = nil
	reverting := make([]*affectedElement, 0, len(e.affected))
	for _, ae := range e.affected {
		reverting = append(reverting, ae)
	}
	e.affected = make(map[*html.Node]*affectedElement)
	e.mu.Unlock()

	e.sched.Stop()
	if watcher != nil {
		watcher.Stop()
	}
	for _, ae := range reverting {
		e.revert(ae)
	}
	e.cache.Clear()
}

// onTreeChange is the structural-mutation callback; it only ever
// schedules a debounced reconciliation, so N mutations within one
// quiescence window collapse into a single pass.
func (e *Engine) onTreeChange(recs []dom.Record) {
	for _, rec := range recs {
		if rec.Type == dom.ChildList {
			e.sched.Run()
			return
		}
	}
}

// reconcile is one full diff-and-reconcile pass: apply every rule in
// order, then revert every tracked element not matched by any rule.
func (e *Engine) reconcile() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	matched := make(map[*html.Node]bool)
	for _, r := range e.rules {
		for _, n := range e.applyRule(r) {
			matched[n] = true
		}
	}
	var reverting []*affectedElement
	for n, ae := range e.affected {
		if !matched[n] {
			reverting = append(reverting, ae)
			delete(e.affected, n)
		}
	}
	first := !e.firstPass
	e.firstPass = true
	rules := e.rules
	e.mu.Unlock()

	for _, ae := range reverting {
		e.revert(ae)
	}
	if first {
		for _, r := range rules {
			if r.Selector.IsDebugging() && r.Stats != nil {
				tracer().P("selector", r.Selector.Text()).Infof("timing: %v", r.Stats)
			}
		}
	}
}

// applyRule evaluates one rule and applies its style to every match.
// Called with e.mu held; returns the matched node set for this rule.
func (e *Engine) applyRule(r *selector.Rule) []*html.Node {
	start := time.Now()
	nodes := r.Selector.QuerySelectorAll(e.doc)
	if r.Selector.IsDebugging() && r.Stats != nil {
		r.Stats.Record(time.Since(start))
	}
	for _, n := range nodes {
		ae, tracked := e.affected[n]
		if tracked {
			// re-application, not duplication: the entry is reused
			ae.rule = r
			e.applyStyle(ae)
			continue
		}
		ae = &affectedElement{
			node:          n,
			rule:          r,
			originalStyle: e.doc.InlineStyle(n),
		}
		e.affected[n] = ae
		e.applyStyle(ae)
		ae.protector = protectStyle(e.doc, n)
	}
	return nodes
}

// applyStyle forces the rule's declarations onto the node's inline
// style. Only properties the style interface knows are set; a trailing
// importance marker on the source value is stripped and the property
// re-declared with forced importance, so the override always wins
// regardless of the source rule's own priority. Idempotent.
func (e *Engine) applyStyle(ae *affectedElement) {
	if ae.protector != nil {
		ae.protector.pause()
		defer ae.protector.resume()
	}
	block := style.ParseBlock(e.doc.InlineStyle(ae.node))
	for _, d := range ae.rule.Style {
		if !style.IsKnownProperty(d.Property) {
			tracer().Debugf("skipping unknown property %q", d.Property)
			continue
		}
		block.Set(d.Property, d.Value.StripImportant(), true)
	}
	e.doc.SetInlineStyle(ae.node, block.String())
}

// revert restores a node to its exact pre-engine inline style and ends
// its protection.
func (e *Engine) revert(ae *affectedElement) {
	if ae.protector != nil {
		ae.protector.Stop()
	}
	e.doc.SetInlineStyle(ae.node, ae.originalStyle)
}
