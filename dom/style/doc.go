/*
Package style provides the declaration model for style handling:
raw property values, ordered declaration blocks as found in style
attributes and style-rule bodies, and value canonicalization as a
live declaration reader would perform it.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package style

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer will return a tracer. We are tracing to 'extstyle.dom'
func tracer() tracing.Trace {
	return tracing.Select("extstyle.dom")
}
