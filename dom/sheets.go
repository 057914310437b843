package dom

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/npillmayer/extstyle/dom/style/cssom"
	"github.com/npillmayer/extstyle/dom/style/cssom/douceuradapter"
	"golang.org/x/net/html"
)

// SheetID is a stable identity token for one stylesheet. Cache entries
// are keyed by it, so that bookkeeping never has to rely on object
// identity of parse results.
type SheetID string

func newSheetID() SheetID {
	return SheetID(uuid.NewString())
}

// Sheet is the document's bookkeeping record for one stylesheet: the
// contents of a <style> element, or of a <link rel=stylesheet> that
// finished loading. Cross-origin link sheets are represented but expose
// no rules.
type Sheet struct {
	mu          sync.Mutex
	id          SheetID
	owner       *html.Node
	doc         *Document
	linked      bool
	linkText    string
	crossOrigin bool
	disabled    bool
	cachedText  string
	cachedCSS   cssom.StyleSheet
}

// ID returns the sheet's identity token.
func (s *Sheet) ID() SheetID {
	return s.id
}

// Owner returns the <style> or <link> element owning this sheet.
func (s *Sheet) Owner() *html.Node {
	return s.owner
}

// CrossOrigin reports wether the sheet's contents are inaccessible.
func (s *Sheet) CrossOrigin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crossOrigin
}

// Disabled reports wether the sheet is currently switched off.
func (s *Sheet) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}

// SetDisabled switches the sheet on or off.
func (s *Sheet) SetDisabled(disabled bool) {
	s.mu.Lock()
	s.disabled = disabled
	s.mu.Unlock()
}

// text returns the current source text of the sheet. Reading the owner's
// children holds the document's read lock.
func (s *Sheet) text() string {
	s.doc.mu.RLock()
	defer s.doc.mu.RUnlock()
	if s.linked {
		return s.linkText
	}
	var sb strings.Builder
	for c := s.owner.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// Rules returns the sheet's plain style rules, re-parsing when the
// source text changed since the last call. Cross-origin sheets and
// unparsable text yield no rules.
func (s *Sheet) Rules() []cssom.Rule {
	s.mu.Lock()
	crossOrigin := s.crossOrigin
	s.mu.Unlock()
	if crossOrigin {
		return nil
	}
	// read the source text before re-taking s.mu; text() acquires the
	// document lock and the sheet lock must never wait behind it
	text := s.text()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cachedCSS == nil || text != s.cachedText {
		parsed, err := douceuradapter.Parse(text)
		s.cachedText = text
		if err != nil {
			tracer().Errorf("stylesheet unparsable, treating as empty: %v", err)
			s.cachedCSS = nil
			return nil
		}
		s.cachedCSS = parsed
	}
	return s.cachedCSS.Rules()
}

// noteSheetChange invalidates a cached parse when the character data of
// a tracked <style> element changes. Called with d.mu held.
func (d *Document) noteSheetChange(rec Record) {
	if rec.Type != CharacterData || rec.Target.Parent == nil {
		return
	}
	if s, ok := d.sheets[rec.Target.Parent]; ok {
		s.mu.Lock()
		s.cachedCSS = nil
		s.mu.Unlock()
	}
}

// noteSheetRemoval drops bookkeeping for sheets whose owning element
// just left the tree. Called with d.mu held.
func (d *Document) noteSheetRemoval(rec Record) {
	if rec.Type != ChildList || len(rec.Removed) == 0 || len(d.sheets) == 0 {
		return
	}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		delete(d.sheets, n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range rec.Removed {
		walk(n)
	}
}

// SheetFor returns the sheet owned by a <style> or finished <link>
// element, creating bookkeeping for in-tree <style> elements on first
// sight. Detached and unknown owners yield nil.
func (d *Document) SheetFor(owner *html.Node) *Sheet {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sheetForLocked(owner)
}

func (d *Document) sheetForLocked(owner *html.Node) *Sheet {
	if s, ok := d.sheets[owner]; ok {
		return s
	}
	if !IsStyleElement(owner) {
		return nil // links acquire a sheet only once their load finished
	}
	if !d.inTreeLocked(owner) {
		return nil // detached elements get no bookkeeping
	}
	s := &Sheet{id: newSheetID(), owner: owner, doc: d}
	d.sheets[owner] = s
	return s
}

// Sheets enumerates the sheets of all in-tree <style> elements and
// finished <link rel=stylesheet> elements, in document order.
func (d *Document) Sheets() []*Sheet {
	d.mu.Lock()
	defer d.mu.Unlock()
	var sheets []*Sheet
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if IsStyleElement(n) {
			sheets = append(sheets, d.sheetForLocked(n))
		} else if IsStylesheetLink(n) {
			if s, ok := d.sheets[n]; ok {
				sheets = append(sheets, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return sheets
}

// FinishLink models a same-origin <link rel=stylesheet> finishing its
// network load with the given stylesheet text. Load callbacks fire
// synchronously afterwards.
func (d *Document) FinishLink(link *html.Node, cssText string) *Sheet {
	d.mu.Lock()
	s, ok := d.sheets[link]
	if !ok {
		s = &Sheet{id: newSheetID(), owner: link, doc: d}
		d.sheets[link] = s
	}
	s.mu.Lock()
	s.linked = true
	s.linkText = cssText
	s.cachedCSS = nil
	s.mu.Unlock()
	fns := append([]func(owner *html.Node){}, d.onSheetLoad...)
	d.mu.Unlock()
	for _, fn := range fns {
		fn(link)
	}
	return s
}

// FinishLinkCrossOrigin models a cross-origin <link rel=stylesheet>
// finishing its load. The sheet exists but its contents stay opaque.
func (d *Document) FinishLinkCrossOrigin(link *html.Node) *Sheet {
	d.mu.Lock()
	s, ok := d.sheets[link]
	if !ok {
		s = &Sheet{id: newSheetID(), owner: link, doc: d, crossOrigin: true}
		d.sheets[link] = s
	}
	s.mu.Lock()
	s.linked = true
	s.crossOrigin = true
	s.mu.Unlock()
	fns := append([]func(owner *html.Node){}, d.onSheetLoad...)
	d.mu.Unlock()
	for _, fn := range fns {
		fn(link)
	}
	return s
}

// OnSheetLoad registers a callback for link-stylesheet load completion.
func (d *Document) OnSheetLoad(fn func(owner *html.Node)) {
	d.mu.Lock()
	d.onSheetLoad = append(d.onSheetLoad, fn)
	d.mu.Unlock()
}
