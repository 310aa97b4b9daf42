package morphfx

import (
	"github.com/go-gl/mathgl/mgl32"
)

// PhaseScheduler staggers the per-particle assembly timing so particles flock
// into shape instead of moving in lockstep. The stagger source blends from a
// noise sample at the origin to one at the target as progress rises.
type PhaseScheduler struct {
	noise      NoiseField
	duration   float32
	delayScale float32
	noiseScale float32
}

func NewPhaseScheduler(cfg *Config, noise NoiseField) *PhaseScheduler {
	return &PhaseScheduler{
		noise:      noise,
		duration:   float32(cfg.Assembly.Duration),
		delayScale: float32(cfg.Assembly.DelayScale),
		noiseScale: float32(cfg.Assembly.NoiseScale),
	}
}

// Window returns the (delay, end) pair bounding this particle's assembly
// window on the progress axis. With the default delay scale of 1.2 the
// highest-noise particles end past 1.0 and never fully settle at progress=1;
// that overshoot is intentional and must not be clamped here.
func (s *PhaseScheduler) Window(origin, target mgl32.Vec3, progress float32) (delay, end float32) {
	progress = clamp01(progress)

	no := s.noise.Sample(origin.Mul(s.noiseScale))
	nt := s.noise.Sample(target.Mul(s.noiseScale))
	n := smoothstep(-1, 1, lerp(no, nt, progress))

	delay = (1 - s.duration) * n * s.delayScale
	end = delay + s.duration
	return delay, end
}

// AssemblyProgress maps global progress through the particle's window:
// 0 before delay, 1 after end, smooth and non-decreasing in between.
func (s *PhaseScheduler) AssemblyProgress(origin, target mgl32.Vec3, progress float32) float32 {
	delay, end := s.Window(origin, target, progress)
	return smoothstep(delay, end, clamp01(progress))
}
