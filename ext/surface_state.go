package ext

// ContentType mirrors wp_content_type_v1's hint enum.
type ContentType int

const (
	ContentTypeNone ContentType = iota
	ContentTypePhoto
	ContentTypeVideo
	ContentTypeGame
)

// TearingHint mirrors wp_tearing_control_v1's presentation hint.
type TearingHint int

const (
	TearingVsync TearingHint = iota
	TearingAsync
)

// Viewport is wp_viewport's optional source-crop and destination-size
// pair, applied before composition (spec §4.H).
type Viewport struct {
	HasSource                 bool
	SrcX, SrcY, SrcW, SrcH    float64 // fractional surface-local coordinates
	HasDestination            bool
	DstWidth, DstHeight       int32
}

// SurfaceState is the per-surface extension-protocol state a scene node
// reads when composing: alpha multiplier, content-type hint, tearing
// preference, viewport crop/scale, and the FIFO/commit-timing pacing
// flags consumed by frame.ResolvePacing.
type SurfaceState struct {
	Alpha               float32 // ∈ [0,1], default 1
	ContentType         ContentType
	Tearing             TearingHint
	Viewport            Viewport
	FIFOBarrier         bool
	HasCommitTimingTarget bool
	CommitTimingTargetNs  int64
	HasBlurRegion       bool
}

func NewSurfaceState() *SurfaceState {
	return &SurfaceState{Alpha: 1.0}
}

// SetAlphaFixed decodes a u32 fixed-point factor (0 = fully transparent,
// ^uint32(0) = fully opaque) into the [0,1] float the scene aggregator
// uses, per wp_alpha_modifier_v1.
func (s *SurfaceState) SetAlphaFixed(factor uint32) {
	s.Alpha = float32(float64(factor) / float64(^uint32(0)))
}
