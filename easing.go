package morphfx

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// lerp uses the a*(1-t)+b*t form so the endpoints are exact: t=0 yields a
// and t=1 yields b bit-for-bit, which the assembly pipeline relies on.
func lerp(a, b, t float32) float32 { return a*(1-t) + b*t }

func mixVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return mgl32.Vec3{lerp(a[0], b[0], t), lerp(a[1], b[1], t), lerp(a[2], b[2], t)}
}

func clamp01(v float32) float32 {
	// NaN compares false on both branches, so send it to zero explicitly.
	if math.IsNaN(float64(v)) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// smoothstep is the Hermite cubic 3t^2-2t^3 window between lo and hi:
// 0 below lo, 1 above hi, C1-continuous in between. Degenerate windows
// (hi <= lo) collapse to a step at lo.
func smoothstep(lo, hi, v float32) float32 {
	if hi <= lo {
		if v < lo {
			return 0
		}
		return 1
	}
	t := clamp01((v - lo) / (hi - lo))
	return t * t * (3 - 2*t)
}

func smoothstep01(t float32) float32 {
	t = clamp01(t)
	return t * t * (3 - 2*t)
}

func easeInQuad(t float32) float32 {
	t = clamp01(t)
	return t * t
}

func easeInCubic(t float32) float32 {
	t = clamp01(t)
	return t * t * t
}
