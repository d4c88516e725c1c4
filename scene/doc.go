// Package scene implements the scene and damage aggregator: spec component
// G. Given windows in z-order, layer surfaces grouped by layer index, and
// optional lock surfaces on top, it produces a flat, renderer-facing list
// of placed surfaces with their damage translated into absolute
// coordinates and merged to a fixed point.
package scene
