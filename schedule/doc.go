/*
Package schedule provides a small debounced-task primitive: schedule a
deferred, coalesced invocation of a callback after a quiescence window,
with an immediate synchronous flush and an earliest-possible flush as
escape hatches.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package schedule

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer will return a tracer. We are tracing to 'extstyle.schedule'
func tracer() tracing.Trace {
	return tracing.Select("extstyle.schedule")
}
