/*
Package dom is the host layer for the style engine: a live HTML tree
(golang.org/x/net/html) with all mutation funneled through a Document,
synchronous change observation, inline-style access, stylesheet
bookkeeping and document readiness.

The tree itself stays externally owned: arbitrary code mutates it at
arbitrary times through the Document's mutation surface, and the engine
re-derives truth from scratch on every reconciliation rather than
trusting incremental deltas.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package dom

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer will return a tracer. We are tracing to 'extstyle.dom'
func tracer() tracing.Trace {
	return tracing.Select("extstyle.dom")
}
