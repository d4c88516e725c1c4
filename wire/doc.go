//go:build linux

// Package wire implements the Wayland wire protocol: the binary framing
// every request and event travels in, independent of which interface or
// direction is using it.
//
// # Wire Protocol
//
// Wayland uses a binary wire protocol over Unix domain sockets. Messages
// consist of a header (object ID + size/opcode) followed by arguments.
// All values are encoded as 32-bit little-endian words.
//
//	+--------+--------+--------+--------+
//	| Object ID (4 bytes)               |
//	+--------+--------+--------+--------+
//	| Size (16 bits) | Opcode (16 bits) |
//	+--------+--------+--------+--------+
//	| Arguments...                      |
//	+--------+--------+--------+--------+
//
// # Argument Types
//
//   - int: Signed 32-bit integer
//   - uint: Unsigned 32-bit integer
//   - fixed: Signed 24.8 fixed-point number
//   - string: Length-prefixed UTF-8 string (padded to 4 bytes)
//   - object: Object ID (uint32)
//   - new_id: New object ID (uint32), sometimes with interface+version
//   - array: Length-prefixed byte array (padded to 4 bytes)
//   - fd: File descriptor (passed via SCM_RIGHTS, out of band)
//
// # Direction
//
// This package is direction-agnostic: Encoder/Decoder/MessageBuilder serve
// both a client's requests-out/events-in role and, here, the compositor
// core's requests-in/events-out role. Conn owns one accepted client socket
// and speaks this framing over it.
package wire
