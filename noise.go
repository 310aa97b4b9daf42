package morphfx

import (
	"github.com/go-gl/mathgl/mgl32"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// NoiseField is a deterministic, continuous 3D scalar field in [-1,1].
// Implementations must be stateless per sample and must never return
// NaN/Inf for finite input.
type NoiseField interface {
	Sample(p mgl32.Vec3) float32
}

// SimplexField samples OpenSimplex noise. The same seed always yields the
// same field.
type SimplexField struct {
	noise opensimplex.Noise32
}

func NewSimplexField(seed int64) *SimplexField {
	return &SimplexField{noise: opensimplex.New32(seed)}
}

func (f *SimplexField) Sample(p mgl32.Vec3) float32 {
	return f.noise.Eval3(p.X(), p.Y(), p.Z())
}

// ConstField returns the same value everywhere. Used to disable staggering
// (all particles share one phase window) and in tests.
type ConstField struct {
	Value float32
}

func (f ConstField) Sample(p mgl32.Vec3) float32 { return f.Value }
