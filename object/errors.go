package object

import "fmt"

// Kind classifies a compositor-internal failure per spec §7, so the
// dispatch loop can decide whether to terminate the offending client, drop
// the request, or merely log it.
type Kind int

const (
	// KindProtocol is fatal to the offending client.
	KindProtocol Kind = iota
	// KindResourceMissing drops the request; the object no longer exists.
	KindResourceMissing
	// KindSerialMismatch logs and ignores a stale ack.
	KindSerialMismatch
	// KindInvalidSize flags an out-of-range dimension; request is clamped or ignored.
	KindInvalidSize
	// KindInvalidRegion flags a degenerate damage/input/opaque rectangle; dropped.
	KindInvalidRegion
	// KindInvalidBuffer flags a buffer that cannot back a commit.
	KindInvalidBuffer
	// KindBackendFailure defers a render step; not the client's fault.
	KindBackendFailure
	// KindIPCBind disables the control IPC listener; does not affect clients.
	KindIPCBind
)

func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "protocol"
	case KindResourceMissing:
		return "resource-missing"
	case KindSerialMismatch:
		return "serial-mismatch"
	case KindInvalidSize:
		return "invalid-size"
	case KindInvalidRegion:
		return "invalid-region"
	case KindInvalidBuffer:
		return "invalid-buffer"
	case KindBackendFailure:
		return "backend-failure"
	case KindIPCBind:
		return "ipc-bind"
	default:
		return "unknown"
	}
}

// Error is the tagged result every internal compositor operation returns on
// failure. The main loop inspects Kind to decide what to do with it: fatal
// kinds terminate the client (via Fatal()), the rest are logged and the
// triggering request is ignored.
type Error struct {
	Kind     Kind
	ObjectID uint32 // protocol object the error should be reported against, if any
	Code     uint32 // protocol error code, meaningful only for KindProtocol
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Fatal reports whether this error must terminate the client connection.
func (e *Error) Fatal() bool {
	return e.Kind == KindProtocol
}

// NewProtocolError builds a fatal protocol error targeting objectID with the
// given wire error code (one of the Display error codes) and message.
func NewProtocolError(objectID uint32, code uint32, format string, args ...any) *Error {
	return &Error{Kind: KindProtocol, ObjectID: objectID, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewError builds a non-fatal, kind-tagged error.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
