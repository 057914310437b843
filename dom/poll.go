package dom

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"sync"
	"time"

	"golang.org/x/net/html"
)

// PollingWatcher is the fallback ChangeWatcher implementation for hosts
// without synchronous mutation delivery. It snapshots the watched scope
// and diffs it on a fixed interval. Records carry less detail than the
// observer-backed implementation (attribute old values are captured from
// the previous snapshot; child-list diffs report nodes that appeared or
// vanished, not their positions), which is all the engine requires.
type PollingWatcher struct {
	mu       sync.Mutex
	doc      *Document
	fn       func([]Record)
	target   *html.Node
	opts     Options
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	prev     map[*html.Node]snapshot
	active   bool
}

type snapshot struct {
	attrs    map[string]string
	children []*html.Node
	text     string
}

var _ ChangeWatcher = (*PollingWatcher)(nil)

// ObserveByPolling is the fallback strategy for hosts without
// synchronous mutation delivery: snapshot-diff polling on a fixed
// interval.
func ObserveByPolling(interval time.Duration) WatcherStrategy {
	return func(d *Document, fn func([]Record)) ChangeWatcher {
		return d.PollingWatcher(fn, interval)
	}
}

// PollingWatcher creates a polling ChangeWatcher delivering records to
// fn. It is inert until Watch is called.
func (d *Document) PollingWatcher(fn func([]Record), interval time.Duration) *PollingWatcher {
	if interval <= 0 {
		interval = 25 * time.Millisecond
	}
	return &PollingWatcher{doc: d, fn: fn, interval: interval}
}

// Watch starts polling the target scope.
func (w *PollingWatcher) Watch(target *html.Node, opts Options) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.target = target
	w.opts = opts
	w.prev = w.capture()
	if w.active {
		return
	}
	w.active = true
	w.ticker = time.NewTicker(w.interval)
	w.done = make(chan struct{})
	go w.loop(w.ticker, w.done)
}

// Stop ends polling. Stopping twice is harmless.
func (w *PollingWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.active {
		return
	}
	w.active = false
	w.ticker.Stop()
	close(w.done)
}

func (w *PollingWatcher) loop(ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *PollingWatcher) tick() {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		return
	}
	cur := w.capture()
	recs := w.diff(w.prev, cur)
	w.prev = cur
	fn := w.fn
	w.mu.Unlock()
	if len(recs) > 0 {
		fn(recs)
	}
}

// capture snapshots the watched scope, holding the document's read lock
// against concurrent mutation.
func (w *PollingWatcher) capture() map[*html.Node]snapshot {
	w.doc.mu.RLock()
	defer w.doc.mu.RUnlock()
	snap := make(map[*html.Node]snapshot)
	var visit func(n *html.Node, root bool)
	visit = func(n *html.Node, root bool) {
		s := snapshot{}
		if n.Type == html.ElementNode {
			s.attrs = make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				s.attrs[a.Key] = a.Val
			}
		}
		if n.Type == html.TextNode {
			s.text = n.Data
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			s.children = append(s.children, c)
		}
		snap[n] = s
		if root || w.opts.Subtree {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c, false)
			}
		}
	}
	if w.target != nil {
		visit(w.target, true)
	}
	return snap
}

// diff compares two snapshots and synthesizes change records.
func (w *PollingWatcher) diff(prev, cur map[*html.Node]snapshot) []Record {
	var recs []Record
	for n, p := range prev {
		c, stillThere := cur[n]
		if !stillThere {
			continue // reported as a removal on its former parent
		}
		if w.opts.ChildList {
			added, removed := diffChildren(p.children, c.children)
			if len(added) > 0 || len(removed) > 0 {
				recs = append(recs, Record{Type: ChildList, Target: n, Added: added, Removed: removed})
			}
		}
		if n.Type == html.ElementNode {
			for key, val := range c.attrs {
				if old, ok := p.attrs[key]; !ok || old != val {
					if w.opts.wantsAttribute(key) {
						rec := Record{Type: Attributes, Target: n, Attribute: key}
						if w.opts.AttributeOldValue {
							rec.OldValue = old
						}
						recs = append(recs, rec)
					}
				}
			}
			for key, old := range p.attrs {
				if _, ok := c.attrs[key]; !ok && w.opts.wantsAttribute(key) {
					rec := Record{Type: Attributes, Target: n, Attribute: key}
					if w.opts.AttributeOldValue {
						rec.OldValue = old
					}
					recs = append(recs, rec)
				}
			}
		}
		if w.opts.CharacterData && n.Type == html.TextNode && p.text != c.text {
			recs = append(recs, Record{Type: CharacterData, Target: n, OldValue: p.text})
		}
	}
	return recs
}

func diffChildren(prev, cur []*html.Node) (added, removed []*html.Node) {
	was := make(map[*html.Node]bool, len(prev))
	for _, n := range prev {
		was[n] = true
	}
	is := make(map[*html.Node]bool, len(cur))
	for _, n := range cur {
		is[n] = true
	}
	for _, n := range cur {
		if !was[n] {
			added = append(added, n)
		}
	}
	for _, n := range prev {
		if !is[n] {
			removed = append(removed, n)
		}
	}
	return added, removed
}
