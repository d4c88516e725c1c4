// Package surface implements the double-buffered surface engine: spec
// component B. A Surface tracks pending, current, and (for sync
// subsurfaces) cached state records; Commit applies pending onto current
// following the algorithm in spec §4.B, deriving width/height from the
// attached buffer and transform and clamping damage/region rectangles to
// bounds.
package surface
