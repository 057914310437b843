package style

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"image/color"
	"strings"
)

// Property is a raw value for a CSS property. For example, with
//
//	display: none
//
// a property value of "none" is set. The main purpose of wrapping
// the raw string value into type Property is to provide a set of
// convenient helpers around it.
type Property string

// NullStyle is an empty property value.
const NullStyle Property = ""

func (p Property) String() string {
	return string(p)
}

// IsEmpty checks wether a property is empty, i.e. the null-string.
func (p Property) IsEmpty() bool {
	return p == ""
}

// IsImportant checks for a trailing "!important" (or bare "important")
// marker on a raw property value, as it appears in un-normalized
// declaration text.
func (p Property) IsImportant() bool {
	v := strings.TrimSpace(string(p))
	return strings.HasSuffix(v, "!important") || strings.HasSuffix(v, " important")
}

// StripImportant returns the property value with any trailing importance
// marker removed. Values without a marker are returned unchanged.
func (p Property) StripImportant() Property {
	v := strings.TrimSpace(string(p))
	if strings.HasSuffix(v, "important") {
		v = strings.TrimSpace(strings.TrimSuffix(v, "important"))
		v = strings.TrimSpace(strings.TrimSuffix(v, "!"))
	}
	return Property(v)
}

// KeyValue is a container for a style property.
type KeyValue struct {
	Key   string
	Value Property
}

// --- Value canonicalization ------------------------------------------------

// Color keywords a live declaration reader reports in numeric form.
// Browsers normalize color keywords to rgb() notation when a declared value
// is read back; we mirror that for the keywords below so that declaration
// filters can be written against the numeric form.
var colorKeywords = map[Property]color.RGBA{
	"black":   {0, 0, 0, 0xff},
	"silver":  {0xc0, 0xc0, 0xc0, 0xff},
	"gray":    {0x80, 0x80, 0x80, 0xff},
	"grey":    {0x80, 0x80, 0x80, 0xff},
	"white":   {0xff, 0xff, 0xff, 0xff},
	"maroon":  {0x80, 0, 0, 0xff},
	"red":     {0xff, 0, 0, 0xff},
	"purple":  {0x80, 0, 0x80, 0xff},
	"fuchsia": {0xff, 0, 0xff, 0xff},
	"green":   {0, 0x80, 0, 0xff},
	"lime":    {0, 0xff, 0, 0xff},
	"olive":   {0x80, 0x80, 0, 0xff},
	"yellow":  {0xff, 0xff, 0, 0xff},
	"navy":    {0, 0, 0x80, 0xff},
	"blue":    {0, 0, 0xff, 0xff},
	"teal":    {0, 0x80, 0x80, 0xff},
	"aqua":    {0, 0xff, 0xff, 0xff},
	"orange":  {0xff, 0xa5, 0, 0xff},
}

// Canonical returns the value as a live declaration reader would report it.
// Color keywords are rewritten to "rgb(r, g, b)" notation; every other
// value is passed through unchanged (canonicalization of non-color values
// is the concern of the hosting environment, not of this package).
func (p Property) Canonical() Property {
	key := Property(strings.ToLower(strings.TrimSpace(string(p))))
	if c, ok := colorKeywords[key]; ok {
		return Property(fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B))
	}
	return p
}
