package style

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"strings"
)

// Declaration is one "property: value" pair of a style declaration block,
// together with its importance flag.
type Declaration struct {
	Property  string
	Value     Property
	Important bool
}

// Block is an ordered style declaration block, as found in a style
// attribute or in the body of a style rule. Declaration order is
// preserved; setting an already-declared property overwrites it in place.
type Block struct {
	decls []Declaration
}

// ParseBlock parses the textual form of a declaration block, e.g. the
// value of a style attribute:
//
//	"display: none !important; color: red"
//
// Malformed fragments (missing colon, empty property) are dropped silently.
// A live tree may carry arbitrary garbage in style attributes; parsing
// must never fail hard.
func ParseBlock(text string) *Block {
	b := &Block{}
	for _, frag := range strings.Split(text, ";") {
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		colon := strings.IndexByte(frag, ':')
		if colon <= 0 {
			continue
		}
		prop := strings.TrimSpace(frag[:colon])
		val := Property(strings.TrimSpace(frag[colon+1:]))
		if prop == "" || val.IsEmpty() {
			continue
		}
		important := val.IsImportant()
		if important {
			val = val.StripImportant()
		}
		b.decls = append(b.decls, Declaration{Property: prop, Value: val, Important: important})
	}
	return b
}

// Declarations returns the declarations of the block in declaration order.
func (b *Block) Declarations() []Declaration {
	return b.decls
}

// Get returns the value declared for a property key, or NullStyle.
func (b *Block) Get(key string) (Property, bool) {
	for _, d := range b.decls {
		if d.Property == key {
			return d.Value, true
		}
	}
	return NullStyle, false
}

// Set declares a property. An existing declaration for the same key is
// overwritten in place, keeping its position in the block.
func (b *Block) Set(key string, value Property, important bool) {
	for i := range b.decls {
		if b.decls[i].Property == key {
			b.decls[i].Value = value
			b.decls[i].Important = important
			return
		}
	}
	b.decls = append(b.decls, Declaration{Property: key, Value: value, Important: important})
}

// Remove drops the declaration for a property key, if present.
func (b *Block) Remove(key string) {
	for i := range b.decls {
		if b.decls[i].Property == key {
			b.decls = append(b.decls[:i], b.decls[i+1:]...)
			return
		}
	}
}

// Empty is a predicate wether the block holds any declarations.
func (b *Block) Empty() bool {
	return len(b.decls) == 0
}

// String serializes the block back to attribute-text form:
//
//	"display: none !important; color: red;"
//
// Every declaration is terminated by a semicolon; declarations are
// separated by single spaces.
func (b *Block) String() string {
	var sb strings.Builder
	for i, d := range b.decls {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(d.Property)
		sb.WriteString(": ")
		sb.WriteString(string(d.Value))
		if d.Important {
			sb.WriteString(" !important")
		}
		sb.WriteByte(';')
	}
	return sb.String()
}
