package propfilter

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
	"sync"
	"time"

	"github.com/npillmayer/extstyle/dom"
	"github.com/npillmayer/extstyle/schedule"
	"golang.org/x/net/html"
)

// ErrAlreadyInitialized flags a second Initialize call on the same
// cache. This is a programmer error, reported, never retried.
var ErrAlreadyInitialized = errors.New("property-filter cache already initialized")

// quiescence is the debounce window for re-examination and memo
// invalidation after a burst of stylesheet mutations.
const quiescence = 25 * time.Millisecond

// Cache is the property-filter style cache: a mutation-driven index from
// "declaration matches this filter" queries to the selectors whose
// backing stylesheet rule currently satisfies the filter. One Cache
// instance owns its collections and observers outright; there is no
// ambient shared state.
type Cache struct {
	mu           sync.Mutex
	doc          *dom.Document
	filters      map[string]*propertyFilter
	index        map[dom.SheetID]map[string][]string
	ownerID      map[*html.Node]dom.SheetID
	pending      map[*html.Node]struct{}
	memo         map[string][]string
	ignored      map[*html.Node]bool
	structural   dom.ChangeWatcher
	contentWatch map[*html.Node]dom.ChangeWatcher
	examine      *schedule.TaskScheduler
	invalidate   *schedule.TaskScheduler
	initialized  bool
}

// New creates an uninitialized cache bound to a document. Filters are
// registered up front; Initialize starts observation.
func New(doc *dom.Document) *Cache {
	return &Cache{
		doc:          doc,
		filters:      make(map[string]*propertyFilter),
		index:        make(map[dom.SheetID]map[string][]string),
		ownerID:      make(map[*html.Node]dom.SheetID),
		pending:      make(map[*html.Node]struct{}),
		memo:         make(map[string][]string),
		contentWatch: make(map[*html.Node]dom.ChangeWatcher),
	}
}

// RegisterFilter parses and remembers a declaration filter. Literal
// text becomes a substring pattern; text delimited by slashes ("/…/")
// is an explicit regular expression. Registration is idempotent.
// Filters registered after Initialize only take part in future scans.
func (c *Cache) RegisterFilter(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.filters[text]; ok {
		return nil
	}
	f, err := parseFilter(text)
	if err != nil {
		return err
	}
	c.filters[text] = f
	return nil
}

// Initialize begins observing stylesheet and tree mutations and performs
// one full synchronous scan of all current stylesheets. It returns false
// when no filter has ever been registered, signaling the caller that it
// may discard this subsystem entirely. A second call is a hard error.
func (c *Cache) Initialize(ignored []*html.Node) (bool, error) {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		tracer().Errorf("style cache initialized twice")
		return false, ErrAlreadyInitialized
	}
	if len(c.filters) == 0 {
		c.mu.Unlock()
		return false, nil
	}
	c.initialized = true
	c.ignored = make(map[*html.Node]bool, len(ignored))
	for _, n := range ignored {
		c.ignored[n] = true
	}
	c.examine = schedule.New(c.examinePending, quiescence)
	c.invalidate = schedule.New(c.invalidateMemo, quiescence)
	c.structural = c.doc.NewWatcher(c.onStructural)
	c.mu.Unlock()

	c.structural.Watch(c.doc.Root(), dom.Options{ChildList: true, Subtree: true})
	c.doc.OnSheetLoad(c.onSheetLoad)

	// one full pass over everything currently present
	for _, sheet := range c.doc.Sheets() {
		c.trackOwner(sheet.Owner())
		c.scanSheet(sheet)
	}
	return true, nil
}

// Selectors answers a filter query: the ordered selector texts whose
// backing rule, in some currently-enabled, same-origin, non-ignored
// stylesheet, has a declaration matching the filter. Pending
// examinations and a pending memo invalidation are flushed synchronously
// first, and a fresh invalidation is scheduled after the read, so a
// stale answer is never served twice. Results are memoized until the
// next invalidation; during quiescent periods the memo serves hits.
func (c *Cache) Selectors(filterText string) []string {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return nil
	}
	examine, invalidate := c.examine, c.invalidate
	c.mu.Unlock()

	examine.RunImmediately()
	invalidate.RunImmediately()

	c.mu.Lock()
	result, ok := c.memo[filterText]
	if !ok {
		for _, sheet := range c.doc.Sheets() {
			entry, present := c.index[sheet.ID()]
			if !present {
				continue
			}
			result = append(result, entry[filterText]...)
		}
		c.memo[filterText] = result
	}
	c.mu.Unlock()

	invalidate.RunAsap()
	return result
}

// Clear disconnects all observers and drops all collections. Guarded to
// run only while initialized.
func (c *Cache) Clear() {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return
	}
	c.initialized = false
	structural := c.structural
	watchers := c.contentWatch
	examine, invalidate := c.examine, c.invalidate
	c.structural = nil
	c.contentWatch = make(map[*html.Node]dom.ChangeWatcher)
	c.index = make(map[dom.SheetID]map[string][]string)
	c.ownerID = make(map[*html.Node]dom.SheetID)
	c.pending = make(map[*html.Node]struct{})
	c.memo = make(map[string][]string)
	c.mu.Unlock()

	examine.Stop()
	invalidate.Stop()
	structural.Stop()
	for _, w := range watchers {
		w.Stop()
	}
}

// --- Observation -----------------------------------------------------------

// onStructural handles added/removed subtrees anywhere below the
// document root, including style/link elements that are themselves the
// mutation root.
func (c *Cache) onStructural(recs []dom.Record) {
	changed := false
	for _, rec := range recs {
		if rec.Type != dom.ChildList {
			continue
		}
		for _, n := range rec.Added {
			forEachStyleOwner(n, func(owner *html.Node) {
				c.trackOwner(owner)
				c.enqueue(owner)
				changed = true
			})
		}
		for _, n := range rec.Removed {
			forEachStyleOwner(n, func(owner *html.Node) {
				c.dropOwner(owner)
				changed = true
			})
		}
	}
	if changed {
		c.scheduleBoth()
	}
}

// onContent handles character-data and child-list changes inside one
// tracked <style> element.
func (c *Cache) onContent(owner *html.Node) func([]dom.Record) {
	return func([]dom.Record) {
		c.enqueue(owner)
		c.scheduleBoth()
	}
}

// onSheetLoad handles a <link rel=stylesheet> finishing its load.
func (c *Cache) onSheetLoad(owner *html.Node) {
	c.mu.Lock()
	initialized := c.initialized
	c.mu.Unlock()
	if !initialized {
		return
	}
	c.enqueue(owner)
	c.scheduleBoth()
}

// trackOwner attaches the per-element content watcher to a fresh
// <style> element. Link elements need no content watcher; their sheet
// changes only through load completion.
func (c *Cache) trackOwner(owner *html.Node) {
	if !dom.IsStyleElement(owner) {
		return
	}
	c.mu.Lock()
	if _, ok := c.contentWatch[owner]; ok || !c.initialized {
		c.mu.Unlock()
		return
	}
	w := c.doc.NewWatcher(c.onContent(owner))
	c.contentWatch[owner] = w
	c.mu.Unlock()
	w.Watch(owner, dom.Options{ChildList: true, CharacterData: true, Subtree: true})
}

// dropOwner ends tracking of a removed style owner. The index entry is
// looked up through the cache's own owner→identity map; the document
// has already pruned its sheet bookkeeping by the time removal records
// are delivered.
func (c *Cache) dropOwner(owner *html.Node) {
	c.mu.Lock()
	w := c.contentWatch[owner]
	delete(c.contentWatch, owner)
	delete(c.pending, owner)
	if id, ok := c.ownerID[owner]; ok {
		delete(c.index, id)
		delete(c.ownerID, owner)
	}
	c.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}

func (c *Cache) enqueue(owner *html.Node) {
	c.mu.Lock()
	c.pending[owner] = struct{}{}
	c.mu.Unlock()
}

func (c *Cache) scheduleBoth() {
	c.mu.Lock()
	examine, invalidate := c.examine, c.invalidate
	c.mu.Unlock()
	if examine != nil {
		examine.Run()
	}
	if invalidate != nil {
		invalidate.Run()
	}
}

// --- Examination -----------------------------------------------------------

// examinePending drains the pending-owner queue and rescans each named
// sheet, fully replacing its index entry.
func (c *Cache) examinePending() {
	c.mu.Lock()
	owners := make([]*html.Node, 0, len(c.pending))
	for owner := range c.pending {
		owners = append(owners, owner)
	}
	c.pending = make(map[*html.Node]struct{})
	c.mu.Unlock()

	for _, owner := range owners {
		if !c.doc.InTree(owner) {
			c.dropOwner(owner)
			continue
		}
		sheet := c.doc.SheetFor(owner)
		if sheet == nil {
			continue
		}
		c.scanSheet(sheet)
	}
}

// scanSheet recomputes the filter→selectors entry for one sheet.
// Cross-origin sheets are permanently skipped: their entry stays absent,
// which reads as "no data", not as an error. Ignored and disabled
// sheets likewise contribute nothing.
func (c *Cache) scanSheet(sheet *dom.Sheet) {
	c.mu.Lock()
	ignored := c.ignored[sheet.Owner()]
	filters := make([]*propertyFilter, 0, len(c.filters))
	for _, f := range c.filters {
		filters = append(filters, f)
	}
	c.mu.Unlock()

	if sheet.CrossOrigin() || ignored || sheet.Disabled() {
		c.mu.Lock()
		delete(c.index, sheet.ID())
		c.mu.Unlock()
		return
	}

	entry := make(map[string][]string)
	for _, rule := range sheet.Rules() {
		decl := canonicalDeclaration(rule)
		for _, f := range filters {
			if f.matches(decl) {
				entry[f.raw] = append(entry[f.raw], rule.Selector())
			}
		}
	}
	tracer().P("sheet", string(sheet.ID())).Debugf("scanned stylesheet, %d filters hit", len(entry))

	c.mu.Lock()
	c.index[sheet.ID()] = entry
	c.ownerID[sheet.Owner()] = sheet.ID()
	c.mu.Unlock()
}

// invalidateMemo drops the short-lived query memo.
func (c *Cache) invalidateMemo() {
	c.mu.Lock()
	c.memo = make(map[string][]string)
	c.mu.Unlock()
}

// forEachStyleOwner calls fn for every <style> or <link rel=stylesheet>
// element in a subtree, the subtree root included.
func forEachStyleOwner(n *html.Node, fn func(*html.Node)) {
	if dom.IsStyleElement(n) || dom.IsStylesheetLink(n) {
		fn(n)
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		forEachStyleOwner(ch, fn)
	}
}
