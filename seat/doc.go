// Package seat implements the seat and input router: spec component D.
// It tracks keyboard modifier/pressed-key state, pointer focus and
// motion, and per-point touch state, and stamps every focus/button/key/
// touch event with a fresh serial from the shared object.SerialAllocator.
package seat
