package cssom

import "github.com/npillmayer/extstyle/dom/style"

// StyleSheet is an interface to abstract away a stylesheet-implementation.
// In order to de-couple implementations of CSS-stylesheets from the
// style engine, we introduce an interface for CSS stylesheets. Clients
// will have to provide a concrete implementation of this interface
// (e.g., see package douceuradapter).
//
// Having this interface imposes a performance hit. However, this
// engine will never trade modularity and clarity for performance.
// Clients in need of a production grade browser engine (where
// performance is key) should opt for headless versions of the main
// browser projects.
//
// See interface Rule.
type StyleSheet interface {
	Empty() bool   // does this stylesheet contain any rules?
	Rules() []Rule // all the style rules of a stylesheet; at-rules are not included
}

// Rule is the type stylesheets consist of.
//
// See interface StyleSheet.
type Rule interface {
	Selector() string            // the prelude / selectors of the rule
	Properties() []string        // property keys, e.g. "margin-top"
	Value(string) style.Property // property value for key, e.g. "15px"
	IsImportant(string) bool     // is property key marked as important?
}
