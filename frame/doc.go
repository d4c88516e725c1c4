// Package frame implements the output and frame scheduler: spec component
// F. An adaptive FrameClock predicts the next VBlank from observed
// presentation feedback and plans render start times with a safety
// margin; Output tracks mode/scale/position and the per-surface frame
// callback and presentation-feedback plumbing around it.
package frame
