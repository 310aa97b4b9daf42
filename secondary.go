package morphfx

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SecondaryMotionController derives the object/camera rotation from the same
// progress scalar as the particles, on a two-phase curve that only engages in
// the last stretch of the animation.
type SecondaryMotionController struct {
	start float32
	span  float32
	maxY  float32
	maxX  float32
}

func NewSecondaryMotionController(cfg *Config) *SecondaryMotionController {
	return &SecondaryMotionController{
		start: float32(cfg.Rotation.Start),
		span:  float32(cfg.Rotation.Span),
		maxY:  cfg.Derived.MaxRotY,
		maxX:  cfg.Derived.MaxRotX,
	}
}

// ComputeRotation returns the rotation in radians. Phase 1 eases out to half
// the max yaw; phase 2 eases in quadratically to the full yaw, so both curves
// meet at exactly half max at the boundary. Pitch only moves during phase 2.
// Below the start threshold the rotation resets hard to zero: scrolling back
// up snaps the object straight, intentionally not eased.
func (c *SecondaryMotionController) ComputeRotation(progress float32) mgl32.Vec3 {
	progress = clamp01(progress)
	if progress < c.start || c.span <= 0 {
		return mgl32.Vec3{}
	}

	phase2Start := c.start + c.span

	if progress < phase2Start {
		t1 := (progress - c.start) / c.span
		return mgl32.Vec3{0, smoothstep01(t1) * 0.5 * c.maxY, 0}
	}

	t2 := clamp01((progress - phase2Start) / c.span)
	y := 0.5*c.maxY + easeInQuad(t2)*0.5*c.maxY
	x := easeInCubic(t2) * c.maxX
	return mgl32.Vec3{x, y, 0}
}
