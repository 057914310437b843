package dom

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"golang.org/x/net/html"
)

// RecordType discriminates the kinds of change records a watcher receives.
type RecordType int

// The three kinds of changes a document reports.
const (
	ChildList RecordType = iota
	Attributes
	CharacterData
)

func (t RecordType) String() string {
	switch t {
	case ChildList:
		return "childList"
	case Attributes:
		return "attributes"
	case CharacterData:
		return "characterData"
	}
	return "unknown"
}

// Record describes one observed change. For ChildList records the target
// is the parent whose child list changed; Added and Removed carry the
// nodes involved. For Attributes records the target is the element and
// Attribute names the changed attribute; OldValue carries the previous
// value when old-value capture was requested. For CharacterData records
// the target is the text node.
type Record struct {
	Type      RecordType
	Target    *html.Node
	Attribute string
	OldValue  string
	Added     []*html.Node
	Removed   []*html.Node
}

// Options scope what a watcher gets to see.
type Options struct {
	Subtree           bool
	ChildList         bool
	Attributes        bool
	AttributeOldValue bool
	AttributeFilter   []string
	CharacterData     bool
}

func (o Options) wantsAttribute(name string) bool {
	if !o.Attributes {
		return false
	}
	if len(o.AttributeFilter) == 0 {
		return true
	}
	for _, f := range o.AttributeFilter {
		if f == name {
			return true
		}
	}
	return false
}

// ChangeWatcher is the capability the engine and the style cache depend
// on for change detection. Two interchangeable implementations exist:
// the synchronous observer wired into Document mutations (see
// Document.Watcher) and a polling fallback (see Document.PollingWatcher).
// Which one a document hands out is selected once, at startup, through
// SetWatcherStrategy; everything downstream depends on this interface
// only.
type ChangeWatcher interface {
	Watch(target *html.Node, opts Options)
	Stop()
}

// WatcherStrategy produces the ChangeWatcher implementation a document
// hands out via NewWatcher.
type WatcherStrategy func(d *Document, fn func([]Record)) ChangeWatcher

// ObserveSynchronously is the default strategy: mutation-wired
// observers delivering records synchronously.
func ObserveSynchronously() WatcherStrategy {
	return func(d *Document, fn func([]Record)) ChangeWatcher {
		return d.Watcher(fn)
	}
}

// SetWatcherStrategy installs the change-detection strategy for this
// document. Meant to be called once, before any consumer attaches.
func (d *Document) SetWatcherStrategy(s WatcherStrategy) {
	d.mu.Lock()
	d.watchers = s
	d.mu.Unlock()
}

// NewWatcher creates a ChangeWatcher using the document's configured
// strategy, defaulting to synchronous observation.
func (d *Document) NewWatcher(fn func([]Record)) ChangeWatcher {
	d.mu.RLock()
	strategy := d.watchers
	d.mu.RUnlock()
	if strategy == nil {
		return d.Watcher(fn)
	}
	return strategy(d, fn)
}

// Observer is the mutation-wired ChangeWatcher implementation. Records
// are delivered synchronously, on the goroutine performing the mutation,
// in watcher registration order.
type Observer struct {
	doc    *Document
	fn     func([]Record)
	target *html.Node
	opts   Options
	active bool
}

var _ ChangeWatcher = (*Observer)(nil)

// Watcher creates an observer delivering change records to fn. The
// observer is inert until Watch is called.
func (d *Document) Watcher(fn func([]Record)) *Observer {
	return &Observer{doc: d, fn: fn}
}

// Watch starts observation of target with the given scope. Calling Watch
// on an already-active observer re-targets it.
func (o *Observer) Watch(target *html.Node, opts Options) {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	o.target = target
	o.opts = opts
	if !o.active {
		o.active = true
		o.doc.observers = append(o.doc.observers, o)
	}
}

// Stop ends observation. Stopping twice is harmless.
func (o *Observer) Stop() {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	if !o.active {
		return
	}
	o.active = false
	for i, obs := range o.doc.observers {
		if obs == o {
			o.doc.observers = append(o.doc.observers[:i], o.doc.observers[i+1:]...)
			break
		}
	}
}

// matches decides wether a record falls into this observer's scope.
func (o *Observer) matches(rec Record) bool {
	switch rec.Type {
	case ChildList:
		if !o.opts.ChildList {
			return false
		}
	case Attributes:
		if !o.opts.wantsAttribute(rec.Attribute) {
			return false
		}
	case CharacterData:
		if !o.opts.CharacterData {
			return false
		}
	}
	if rec.Target == o.target {
		return true
	}
	return o.opts.Subtree && isDescendantOf(rec.Target, o.target)
}

func isDescendantOf(n, ancestor *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}
