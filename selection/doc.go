// Package selection implements the selection and drag-and-drop engine:
// spec component E. It tracks the clipboard and primary selections, data
// offers, and the drag state machine, forwarding MIME negotiation and file
// descriptors between data sources and data offers without ever holding
// buffer content itself.
package selection
