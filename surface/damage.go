package surface

// Region is a surface-local or absolute-coordinate rectangle, used for
// damage, opaque regions, and input regions alike.
type Region struct {
	X, Y, W, H int32
}

// IsValid reports whether the region has positive extent; spec §3 drops
// any region with non-positive width or height.
func (r Region) IsValid() bool {
	return r.W > 0 && r.H > 0
}

// Intersects reports whether two regions overlap (shared area > 0).
func (r Region) Intersects(o Region) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Touches reports overlap OR a shared edge, which is the looser test used
// when deciding whether two damage rectangles should be merged.
func (r Region) Touches(o Region) bool {
	return r.X <= o.X+o.W && o.X <= r.X+r.W && r.Y <= o.Y+o.H && o.Y <= r.Y+r.H
}

// Union returns the bounding box containing both regions.
func (r Region) Union(o Region) Region {
	x0, y0 := min32(r.X, o.X), min32(r.Y, o.Y)
	x1, y1 := max32(r.X+r.W, o.X+o.W), max32(r.Y+r.H, o.Y+o.H)
	return Region{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Clamp restricts r to [0,width)×[0,height), returning the clamped region
// and whether anything survived.
func (r Region) Clamp(width, height int32) (Region, bool) {
	x0, y0 := max32(r.X, 0), max32(r.Y, 0)
	x1, y1 := min32(r.X+r.W, width), min32(r.Y+r.H, height)
	if x1 <= x0 || y1 <= y0 {
		return Region{}, false
	}
	return Region{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}, true
}

func (r Region) ContainsPoint(x, y int32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// DamageHistory accumulates damage rectangles for one surface, merging
// touching or overlapping rectangles so the scene aggregator and renderer
// see a minimal, non-overlapping set. Mirrors spec §8 scenario 6.
type DamageHistory struct {
	regions []Region
}

// Add inserts a region, merging it into the first touching existing
// rectangle (if any) and then repeatedly re-merging until no two
// rectangles touch — a fixed-point pass, since merging two rectangles can
// newly bring a third into contact.
func (h *DamageHistory) Add(r Region) {
	if !r.IsValid() {
		return
	}
	merged := false
	for i, existing := range h.regions {
		if existing.Touches(r) {
			h.regions[i] = existing.Union(r)
			merged = true
			break
		}
	}
	if !merged {
		h.regions = append(h.regions, r)
	}
	h.mergePass()
}

// AddRegions adds every region in rs via Add.
func (h *DamageHistory) AddRegions(rs []Region) {
	for _, r := range rs {
		h.Add(r)
	}
}

func (h *DamageHistory) mergePass() {
	for {
		mergedAny := false
		for i := 0; i < len(h.regions); i++ {
			for j := i + 1; j < len(h.regions); j++ {
				if h.regions[i].Touches(h.regions[j]) {
					h.regions[i] = h.regions[i].Union(h.regions[j])
					h.regions = append(h.regions[:j], h.regions[j+1:]...)
					mergedAny = true
					break
				}
			}
			if mergedAny {
				break
			}
		}
		if !mergedAny {
			return
		}
	}
}

// Regions returns the current merged rectangle set.
func (h *DamageHistory) Regions() []Region {
	return h.regions
}

func (h *DamageHistory) IsEmpty() bool {
	return len(h.regions) == 0
}

// Clear empties the history; called once a frame's damage has been
// reported presented (spec §8 invariant 1).
func (h *DamageHistory) Clear() {
	h.regions = h.regions[:0]
}
