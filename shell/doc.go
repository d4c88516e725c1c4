// Package shell implements the shell layer: spec component C. It owns the
// xdg_surface/xdg_toplevel/xdg_popup/xdg_positioner state machines,
// configure/ack serial matching, decoration negotiation, and wlroots-style
// layer surfaces.
package shell
