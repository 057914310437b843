package dom

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NewElement creates a detached element node for a tag name.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	a := atom.Lookup([]byte(tag))
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: a,
		Attr:     attrs,
	}
}

// NewText creates a detached text node.
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// GetAttribute returns the value of an attribute on a node, or "".
func GetAttribute(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttribute checks if a node carries an attribute.
func HasAttribute(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// FindElement returns the first element with a given tag atom below
// (and including) a root, in document order.
func FindElement(a atom.Atom, root *html.Node) *html.Node {
	if root == nil {
		return nil
	}
	if root.Type == html.ElementNode && root.DataAtom == a {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if r := FindElement(a, c); r != nil {
			return r
		}
	}
	return nil
}
