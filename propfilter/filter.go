package propfilter

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"regexp"
	"sort"
	"strings"

	"github.com/npillmayer/extstyle/dom/style/cssom"
)

// propertyFilter is one registered declaration filter: either a literal
// substring pattern or an explicit regular expression (written "/re/").
// Filters are parsed exactly once, at registration.
type propertyFilter struct {
	raw string
	re  *regexp.Regexp
}

func parseFilter(text string) (*propertyFilter, error) {
	var re *regexp.Regexp
	var err error
	if len(text) > 1 && strings.HasPrefix(text, "/") && strings.HasSuffix(text, "/") {
		re, err = regexp.Compile(text[1 : len(text)-1])
	} else {
		re, err = regexp.Compile(regexp.QuoteMeta(text))
	}
	if err != nil {
		return nil, err
	}
	return &propertyFilter{raw: text, re: re}, nil
}

func (f *propertyFilter) matches(declaration string) bool {
	return f.re.MatchString(declaration)
}

// canonicalDeclaration renders a style rule's declarations in canonical
// form: property names sorted lexicographically, "prop: value" pairs
// joined by single spaces, "!priority" appended where set, values
// reported the way a live declaration reader would report them.
// Sorting is what makes declaration order in the source sheet
// irrelevant for filter matching.
func canonicalDeclaration(r cssom.Rule) string {
	props := r.Properties()
	type prop struct{ lower, orig string }
	seen := make(map[string]bool, len(props))
	names := make([]prop, 0, len(props))
	for _, p := range props {
		lower := strings.ToLower(strings.TrimSpace(p))
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		names = append(names, prop{lower, p})
	}
	sort.Slice(names, func(i, j int) bool { return names[i].lower < names[j].lower })
	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(name.lower)
		sb.WriteString(": ")
		sb.WriteString(r.Value(name.orig).Canonical().String())
		if r.IsImportant(name.orig) {
			sb.WriteString(" !important")
		}
	}
	return sb.String()
}
