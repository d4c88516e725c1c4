// Package events implements the compositor event queue: spec component J.
// It carries outbound notifications (window lifecycle, focus, cursor
// shape, popup reposition, selection change) from the main loop to the
// platform host. The queue never blocks a producer; the host drains it on
// its own schedule.
package events
