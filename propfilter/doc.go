/*
Package propfilter maintains the property-filter style cache: an
incrementally-maintained index answering "which selectors have a backing
style rule whose declarations match this filter?". It exists because the
extended selector language includes a pseudo-class selecting elements by
the effective content of their CSS declarations, which no native
selector engine can query.

The cache observes the document for structural changes to <style> and
<link rel=stylesheet> elements and for content changes inside tracked
<style> elements; any change schedules a debounced re-examination of the
affected sheets and a debounced invalidation of the query memo. Queries
additionally force both synchronously, trading per-call cost for never
serving data known-stale relative to scheduled-but-unflushed mutations.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package propfilter

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer will return a tracer. We are tracing to 'extstyle.cache'
func tracer() tracing.Trace {
	return tracing.Select("extstyle.cache")
}
