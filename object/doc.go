// Package object implements the object registry and client session layer:
// spec component A. It tracks every protocol object a client owns, routes
// incoming wire messages to the handler registered for an object's
// interface, and tears down a client's resources atomically on disconnect.
//
// A Client owns a Conn (the raw wire framing, package wire) plus a table of
// Resources keyed by the 32-bit protocol id the client chose for them. Ids
// are per-client: two different clients may both own a resource numbered 3
// without collision, mirroring real Wayland semantics.
package object
