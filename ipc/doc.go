// Package ipc implements the control IPC listener: spec component I. It
// exposes a line protocol (ping/version/windows/tree) on a short Unix
// domain socket in the runtime directory, used by diagnostic tooling
// rather than by Wayland clients. Binding failures — an overlong path or a
// bind error — disable the listener silently rather than failing startup.
package ipc
