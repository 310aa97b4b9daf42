package morphfx

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MotionBlender is the CPU mirror of the vertex-stage transform pipeline:
// ambient wave, placement, pointer disruption, then the per-particle assembly
// mix towards the target shape. The GPU path in shaders/particles.wgsl
// implements the same stages; this form exists for tests and for
// software-rendered variants, and has no cross-particle dependencies.
type MotionBlender struct {
	scheduler *PhaseScheduler

	waveAmp   [3]float32
	waveFreq  [3]float32
	waveSpeed [3]float32
	fadeStart float32
	fadeEnd   float32

	placementRot    mgl32.Mat3
	placementOffset mgl32.Vec3

	colorStart float32
	colorEnd   float32

	pointerRadius   float32
	pointerStrength float32
}

func NewMotionBlender(cfg *Config, scheduler *PhaseScheduler) *MotionBlender {
	b := &MotionBlender{
		scheduler:       scheduler,
		fadeStart:       float32(cfg.Wave.FadeStart),
		fadeEnd:         float32(cfg.Wave.FadeEnd),
		placementOffset: cfg.Derived.PlacementOffset,
		colorStart:      float32(cfg.Color.BlendStart),
		colorEnd:        float32(cfg.Color.BlendEnd),
		pointerRadius:   float32(cfg.Pointer.Radius),
		pointerStrength: float32(cfg.Pointer.Strength),
	}
	for i := 0; i < 3; i++ {
		b.waveAmp[i] = float32(cfg.Wave.Amplitudes[i])
		b.waveFreq[i] = float32(cfg.Wave.Freqs[i])
		b.waveSpeed[i] = float32(cfg.Wave.Speeds[i])
	}

	// rotateX ∘ rotateY ∘ rotateZ, fixed for the session
	r := cfg.Derived.PlacementRot
	b.placementRot = mgl32.Rotate3DX(r.X()).
		Mul3(mgl32.Rotate3DY(r.Y())).
		Mul3(mgl32.Rotate3DZ(r.Z()))

	return b
}

func sin32(v float32) float32 { return float32(math.Sin(float64(v))) }
func cos32(v float32) float32 { return float32(math.Cos(float64(v))) }

// waveDisplacement is the ambient undulation at full strength: three
// sin/cos terms of the origin position and elapsed time.
func (b *MotionBlender) waveDisplacement(origin mgl32.Vec3, elapsed float32) mgl32.Vec3 {
	return mgl32.Vec3{
		sin32(origin.Z()*b.waveFreq[2]+elapsed*b.waveSpeed[2]) * b.waveAmp[2],
		sin32(origin.X()*b.waveFreq[0]+elapsed*b.waveSpeed[0])*b.waveAmp[0] +
			cos32(origin.Z()*b.waveFreq[1]+elapsed*b.waveSpeed[1])*b.waveAmp[1],
		0,
	}
}

// WaveStrength fades the wave out as progress rises; exactly 1 at progress=0
// and exactly 0 from fadeEnd on.
func (b *MotionBlender) WaveStrength(progress float32) float32 {
	return 1 - smoothstep(b.fadeStart, b.fadeEnd, clamp01(progress))
}

// pointerDisplacement pushes a staged particle radially away from the
// pointer with a squared falloff inside the disruption radius.
func (b *MotionBlender) pointerDisplacement(staged, pointer mgl32.Vec3) mgl32.Vec3 {
	if b.pointerStrength == 0 {
		return mgl32.Vec3{}
	}
	d := staged.Sub(pointer)
	dist := d.Len()
	if dist >= b.pointerRadius || dist < 1e-6 {
		return mgl32.Vec3{}
	}
	falloff := 1 - dist/b.pointerRadius
	return d.Mul(1 / dist).Mul(b.pointerStrength * falloff * falloff)
}

// Evaluate computes the final position, color and size for particle i.
// Progress and time are read from state; NaN or out-of-range progress is
// clamped before any stage sees it.
func (b *MotionBlender) Evaluate(ds *ParticleDataset, i int, state *AnimationState) (pos mgl32.Vec3, color mgl32.Vec3, size float32) {
	progress := clamp01(state.Progress)
	origin := ds.Origins[i]
	target := ds.Targets[i]

	// Stage 1: ambient wave on the raw origin.
	wave := b.waveDisplacement(origin, state.ElapsedTime).Mul(b.WaveStrength(progress))

	// Stage 2: placement into view space.
	staged := b.placementRot.Mul3x1(origin.Add(wave)).Add(b.placementOffset)

	// Pointer disruption is part of the staged position so the assembly mix
	// gates it off completely at assemblyProgress=1.
	if state.PointerActive {
		staged = staged.Add(b.pointerDisplacement(staged, state.Pointer))
	}

	// Stage 3: assembly towards the target.
	ap := b.scheduler.AssemblyProgress(origin, target, progress)
	pos = mixVec3(staged, target, ap)

	// Color blends in visual unison across all particles; size tracks the
	// per-particle assembly window like position does.
	ct := smoothstep(b.colorStart, b.colorEnd, progress)
	color = mixVec3(ds.OriginColors[i], ds.TargetColors[i], ct)
	size = lerp(ds.OriginSizes[i], ds.TargetSizes[i], ap)

	return pos, color, size
}
