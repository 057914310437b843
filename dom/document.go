package dom

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ReadyState reflects wether a document is still being loaded.
type ReadyState int

// A document is either still Loading or Complete.
const (
	Loading ReadyState = iota
	Complete
)

// Document wraps an HTML parse tree and funnels all mutation through
// itself, so that registered observers see every change. The tree is
// externally owned in the sense that arbitrary code may mutate it at
// arbitrary times; the engine built on top never assumes exclusive
// access. Tree reads (queries, sheet text, polling snapshots) take the
// read side of the lock, so traversal is always serialized against the
// mutation surface.
type Document struct {
	mu          sync.RWMutex
	root        *html.Node
	observers   []*Observer
	watchers    WatcherStrategy
	sheets      map[*html.Node]*Sheet
	ready       ReadyState
	onLoad      []func()
	onSheetLoad []func(owner *html.Node)
}

// FromHTML parses HTML text into a Document. The document starts out
// Complete; hosts that stream content call MarkLoading first and
// FinishLoading when done.
func FromHTML(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		root:   root,
		sheets: make(map[*html.Node]*Sheet),
		ready:  Complete,
	}, nil
}

// FromString is FromHTML over a string.
func FromString(text string) (*Document, error) {
	return FromHTML(strings.NewReader(text))
}

// Root returns the document root node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Ready returns the current ready state.
func (d *Document) Ready() ReadyState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ready
}

// MarkLoading puts the document back into the Loading state.
func (d *Document) MarkLoading() {
	d.mu.Lock()
	d.ready = Loading
	d.mu.Unlock()
}

// FinishLoading marks the document Complete and fires load callbacks.
func (d *Document) FinishLoading() {
	d.mu.Lock()
	if d.ready == Complete {
		d.mu.Unlock()
		return
	}
	d.ready = Complete
	fns := d.onLoad
	d.onLoad = nil
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// OnLoad registers a callback for load completion. On an already
// complete document the callback runs synchronously now.
func (d *Document) OnLoad(fn func()) {
	d.mu.Lock()
	if d.ready == Loading {
		d.onLoad = append(d.onLoad, fn)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	fn()
}

// QuerySelectorAll returns all elements matching a CSS selector, in
// document order. Selector text the matcher cannot compile yields an
// error; matching itself never fails.
func (d *Document) QuerySelectorAll(selector string) ([]*html.Node, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, err
	}
	return d.Query(sel), nil
}

// Query returns matches of a pre-compiled selector, in document order.
// Traversal holds the document's read lock; a concurrent mutation burst
// can never corrupt an in-flight query.
func (d *Document) Query(sel cascadia.Sel) []*html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return cascadia.QueryAll(d.root, sel)
}

// --- Mutation surface ------------------------------------------------------

// AppendChild appends child under parent and notifies observers. The
// child must be detached.
func (d *Document) AppendChild(parent, child *html.Node) {
	d.mu.Lock()
	parent.AppendChild(child)
	d.mu.Unlock()
	d.dispatch(Record{Type: ChildList, Target: parent, Added: []*html.Node{child}})
}

// InsertBefore inserts child under parent, in front of ref, and notifies
// observers. A nil ref appends.
func (d *Document) InsertBefore(parent, child, ref *html.Node) {
	d.mu.Lock()
	if ref == nil {
		parent.AppendChild(child)
	} else {
		parent.InsertBefore(child, ref)
	}
	d.mu.Unlock()
	d.dispatch(Record{Type: ChildList, Target: parent, Added: []*html.Node{child}})
}

// RemoveChild detaches child from parent and notifies observers.
func (d *Document) RemoveChild(parent, child *html.Node) {
	d.mu.Lock()
	parent.RemoveChild(child)
	d.mu.Unlock()
	d.dispatch(Record{Type: ChildList, Target: parent, Removed: []*html.Node{child}})
}

// SetAttribute sets an attribute on an element and notifies observers,
// capturing the previous value.
func (d *Document) SetAttribute(n *html.Node, key, val string) {
	d.mu.Lock()
	old := ""
	found := false
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			old = n.Attr[i].Val
			n.Attr[i].Val = val
			found = true
			break
		}
	}
	if !found {
		n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	}
	d.mu.Unlock()
	d.dispatch(Record{Type: Attributes, Target: n, Attribute: key, OldValue: old})
}

// RemoveAttribute removes an attribute from an element, if present, and
// notifies observers.
func (d *Document) RemoveAttribute(n *html.Node, key string) {
	d.mu.Lock()
	old := ""
	found := false
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			old = n.Attr[i].Val
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			found = true
			break
		}
	}
	d.mu.Unlock()
	if !found {
		return
	}
	d.dispatch(Record{Type: Attributes, Target: n, Attribute: key, OldValue: old})
}

// SetText replaces the character data of a text node and notifies
// observers.
func (d *Document) SetText(textNode *html.Node, text string) {
	d.mu.Lock()
	old := textNode.Data
	textNode.Data = text
	d.mu.Unlock()
	d.dispatch(Record{Type: CharacterData, Target: textNode, OldValue: old})
}

// SetElementText replaces all children of an element with a single text
// node. Convenient for rewriting <style> contents.
func (d *Document) SetElementText(n *html.Node, text string) {
	if n.FirstChild != nil && n.FirstChild == n.LastChild && n.FirstChild.Type == html.TextNode {
		d.SetText(n.FirstChild, text)
		return
	}
	for n.FirstChild != nil {
		d.RemoveChild(n, n.FirstChild)
	}
	d.AppendChild(n, &html.Node{Type: html.TextNode, Data: text})
}

// --- Inline style access ---------------------------------------------------

// InlineStyle returns the literal text of an element's style attribute,
// or the empty string.
func (d *Document) InlineStyle(n *html.Node) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, a := range n.Attr {
		if a.Key == "style" {
			return a.Val
		}
	}
	return ""
}

// SetInlineStyle sets the literal text of an element's style attribute.
// Empty text removes the attribute entirely, so that restoring a
// snapshot of "no inline style" leaves no residue.
func (d *Document) SetInlineStyle(n *html.Node, text string) {
	if text == "" {
		d.RemoveAttribute(n, "style")
		return
	}
	d.SetAttribute(n, "style", text)
}

// --- Observer dispatch -----------------------------------------------------

func (d *Document) dispatch(rec Record) {
	d.mu.Lock()
	d.noteSheetChange(rec)
	d.noteSheetRemoval(rec)
	targets := make([]*Observer, 0, len(d.observers))
	for _, o := range d.observers {
		if o.matches(rec) {
			targets = append(targets, o)
		}
	}
	d.mu.Unlock()
	for _, o := range targets {
		r := rec
		if r.Type == Attributes && !o.opts.AttributeOldValue {
			r.OldValue = ""
		}
		o.fn([]Record{r})
	}
}

// InTree reports wether a node is currently attached to this document.
func (d *Document) InTree(n *html.Node) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.inTreeLocked(n)
}

func (d *Document) inTreeLocked(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// IsStyleElement matches <style>.
func IsStyleElement(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Style
}

// IsStylesheetLink matches <link rel="stylesheet">.
func IsStylesheetLink(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Link {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "rel" && strings.EqualFold(strings.TrimSpace(a.Val), "stylesheet") {
			return true
		}
	}
	return false
}
