/*
Package selector compiles raw stylesheet text into the ordered rule list
the engine enforces. Selector syntax is the native matcher's, extended
by the :properties(filter) pseudo-class, which selects elements by the
effective content of style declarations applying to them and resolves
through the property-filter cache.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package selector

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer will return a tracer. We are tracing to 'extstyle.selector'
func tracer() tracing.Trace {
	return tracing.Select("extstyle.selector")
}
