// Package ext holds spec component H: the surface-attached and
// compositor-wide state backing the secondary Wayland extension protocols
// (alpha modifier, content type, tearing control, viewporter, FIFO,
// commit timing, idle-notify, session lock, foreign-toplevel list,
// workspaces, security context, text-input v3 / input-method v2) plus the
// wlroots-style virtual-input and dmabuf-export registries. These are
// modeled as lightweight Go-native contracts rather than full per-opcode
// wire ceremony — each extension is small enough that one state struct
// plus a handful of plain methods covers its behavior; `compositor` wires
// the handful that need wire-level dispatch (idle-notify, session-lock,
// foreign-toplevel-list, workspaces all emit events and so keep a
// *wire.Conn per bound resource) directly against these types.
package ext
