package style

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import "strings"

// CSS knows a whole lot of properties. The engine only ever sets
// properties a style interface actually exposes; everything else is
// skipped per-property. The table below covers the properties relevant
// for element hiding and restyling, plus the common box-model and
// decoration properties.
var knownProperties = map[string]bool{
	"display":             true,
	"visibility":          true,
	"opacity":             true,
	"position":            true,
	"z-index":             true,
	"content":             true,
	"color":               true,
	"background":          true,
	"background-color":    true,
	"background-image":    true,
	"border":              true,
	"border-color":        true,
	"border-width":        true,
	"border-style":        true,
	"border-radius":       true,
	"outline":             true,
	"width":               true,
	"height":              true,
	"min-width":           true,
	"min-height":          true,
	"max-width":           true,
	"max-height":          true,
	"top":                 true,
	"right":               true,
	"bottom":              true,
	"left":                true,
	"margin":              true,
	"margin-top":          true,
	"margin-left":         true,
	"margin-right":        true,
	"margin-bottom":       true,
	"padding":             true,
	"padding-top":         true,
	"padding-left":        true,
	"padding-right":       true,
	"padding-bottom":      true,
	"overflow":            true,
	"overflow-x":          true,
	"overflow-y":          true,
	"float":               true,
	"clear":               true,
	"clip":                true,
	"clip-path":           true,
	"pointer-events":      true,
	"transform":           true,
	"transition":          true,
	"animation":           true,
	"font":                true,
	"font-size":           true,
	"font-family":         true,
	"font-weight":         true,
	"font-style":          true,
	"text-align":          true,
	"text-decoration":     true,
	"text-indent":         true,
	"text-transform":      true,
	"letter-spacing":      true,
	"line-height":         true,
	"white-space":         true,
	"word-break":          true,
	"vertical-align":      true,
	"list-style":          true,
	"cursor":              true,
	"box-shadow":          true,
	"box-sizing":          true,
	"flex":                true,
	"flex-direction":      true,
	"justify-content":     true,
	"align-items":         true,
	"grid-template-rows":  true,
	"grid-template-areas": true,
}

// IsKnownProperty is a predicate wether a property key exists on the
// style interface of an element. Custom properties ("--x") always do.
func IsKnownProperty(key string) bool {
	if strings.HasPrefix(key, "--") {
		return true
	}
	return knownProperties[strings.ToLower(key)]
}
