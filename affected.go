package extstyle

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strings"

	"github.com/npillmayer/extstyle/dom"
	"github.com/npillmayer/extstyle/selector"
	"github.com/xlab/treeprint"
	"golang.org/x/net/html"
)

// affectedElement is the engine's bookkeeping record for one node
// currently under its style control. originalStyle is the node's
// serialized inline style before the first override, snapshotted
// exactly once. At most one record exists per node at any time.
type affectedElement struct {
	node          *html.Node
	rule          *selector.Rule
	originalStyle string
	protector     *styleProtector
}

// AffectedElement is the read-only diagnostic view of one tracked node.
type AffectedElement struct {
	Node          *html.Node
	Rule          *selector.Rule
	OriginalStyle string
}

// AffectedElements returns a snapshot of the currently tracked nodes.
// Diagnostic only; mutating the snapshot has no effect on the engine.
func (e *Engine) AffectedElements() []AffectedElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]AffectedElement, 0, len(e.affected))
	for _, ae := range e.affected {
		out = append(out, AffectedElement{
			Node:          ae.node,
			Rule:          ae.rule,
			OriginalStyle: ae.originalStyle,
		})
	}
	return out
}

// DumpAffected renders the tracked set as a tree, for debugging.
func (e *Engine) DumpAffected() string {
	tree := treeprint.New()
	tree.SetValue("affected elements")
	for _, ae := range e.AffectedElements() {
		branch := tree.AddBranch(describeNode(ae.Node))
		branch.AddNode(fmt.Sprintf("rule %s", ae.Rule.Selector.Text()))
		branch.AddNode(fmt.Sprintf("original style %q", ae.OriginalStyle))
	}
	return tree.String()
}

func describeNode(n *html.Node) string {
	var sb strings.Builder
	sb.WriteString(n.Data)
	if id := dom.GetAttribute(n, "id"); id != "" {
		sb.WriteString("#")
		sb.WriteString(id)
	}
	if class := dom.GetAttribute(n, "class"); class != "" {
		for _, c := range strings.Fields(class) {
			sb.WriteString(".")
			sb.WriteString(c)
		}
	}
	return sb.String()
}
