package extstyle

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"sync"

	"github.com/npillmayer/extstyle/dom"
	"golang.org/x/net/html"
)

// maxProtectionRestores bounds how often a node's style attribute is
// restored against external edits before protection gives up. The
// ceiling is a cooperative back-off against runaway mutation storms,
// not an error condition.
const maxProtectionRestores = 50

// styleProtector is the per-element watchdog that reverts external
// edits to the style attribute the engine owns. On every detected
// change it disconnects, restores the previous attribute value, and
// re-attaches; beyond the restore ceiling it gives up permanently and
// silently.
type styleProtector struct {
	mu       sync.Mutex
	doc      *dom.Document
	node     *html.Node
	obs      dom.ChangeWatcher
	restores int
	paused   bool
	stopped  bool
}

// protectStyle begins protecting a node's style attribute, using the
// document's configured watcher strategy.
func protectStyle(doc *dom.Document, node *html.Node) *styleProtector {
	p := &styleProtector{doc: doc, node: node}
	p.obs = doc.NewWatcher(p.onChange)
	p.watch()
	return p
}

func (p *styleProtector) watch() {
	p.obs.Watch(p.node, dom.Options{
		Attributes:        true,
		AttributeFilter:   []string{"style"},
		AttributeOldValue: true,
	})
}

func (p *styleProtector) onChange(recs []dom.Record) {
	p.mu.Lock()
	if p.stopped || p.paused || len(recs) == 0 {
		p.mu.Unlock()
		return
	}
	p.obs.Stop()
	p.restores++
	gaveUp := p.restores >= maxProtectionRestores
	if gaveUp {
		p.stopped = true
		tracer().Debugf("style protection giving up after %d restores", p.restores)
	}
	old := recs[0].OldValue
	p.mu.Unlock()

	p.doc.SetInlineStyle(p.node, old)

	p.mu.Lock()
	if !p.stopped {
		p.watch()
	}
	p.mu.Unlock()
}

// pause makes the protector ignore changes while the engine itself
// writes the attribute. Observation scope stays attached.
func (p *styleProtector) pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

func (p *styleProtector) resume() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
}

// Stop ends protection unconditionally. Used on reversion.
func (p *styleProtector) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.obs.Stop()
}
