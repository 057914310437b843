/*
Package cssom defines the boundary between stylesheet producers and the
style engine. The engine never parses CSS syntax itself; it consumes
opaque StyleSheet and Rule capabilities, produced by an adapter around
a concrete CSS parser.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package cssom
