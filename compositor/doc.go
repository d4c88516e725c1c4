// Package compositor wires every component package into one running
// server: the display-socket listener, the object.Manager dispatch table,
// and the single-threaded cooperative main loop (dispatch/tick/flush)
// described in spec §5, generalized from the teacher's client-side
// Display.Dispatch/Roundtrip shape to an N-client server multiplexed with
// epoll.
package compositor
