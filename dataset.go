package morphfx

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// ParticleDataset holds the per-particle static attributes, struct-of-arrays.
// Built once per shape session; read-only afterwards and shared across frames.
// Length is min(origin grid count, target vertex count): excess origin
// particles are dropped, never reused.
type ParticleDataset struct {
	Origins      []mgl32.Vec3
	Targets      []mgl32.Vec3
	OriginColors []mgl32.Vec3
	TargetColors []mgl32.Vec3
	OriginSizes  []float32
	TargetSizes  []float32
}

func (ds *ParticleDataset) Count() int { return len(ds.Origins) }

// BuildDataset generates the origin grid, pairs it with the loaded target
// vertices and applies seeded size jitter. The same config and targets always
// produce the same dataset.
func BuildDataset(cfg *Config, targets []mgl32.Vec3) *ParticleDataset {
	cols := cfg.Particles.GridCols
	rows := cfg.Particles.GridRows
	spacing := float32(cfg.Particles.GridSpacing)

	n := cols * rows
	if len(targets) < n {
		n = len(targets)
	}

	rng := rand.New(rand.NewSource(cfg.Particles.Seed))
	sizeMin := float32(cfg.Particles.OriginSize[0])
	sizeMax := float32(cfg.Particles.OriginSize[1])
	targetSize := float32(cfg.Particles.TargetSize)

	ds := &ParticleDataset{
		Origins:      make([]mgl32.Vec3, n),
		Targets:      make([]mgl32.Vec3, n),
		OriginColors: make([]mgl32.Vec3, n),
		TargetColors: make([]mgl32.Vec3, n),
		OriginSizes:  make([]float32, n),
		TargetSizes:  make([]float32, n),
	}

	halfW := float32(cols-1) * spacing * 0.5
	halfH := float32(rows-1) * spacing * 0.5

	for i := 0; i < n; i++ {
		col := i % cols
		row := i / cols
		ds.Origins[i] = mgl32.Vec3{
			float32(col)*spacing - halfW,
			0,
			float32(row)*spacing - halfH,
		}
		ds.Targets[i] = targets[i]
		ds.OriginColors[i] = cfg.Derived.OriginColor
		ds.TargetColors[i] = cfg.Derived.TargetColor
		ds.OriginSizes[i] = lerp(sizeMin, sizeMax, rng.Float32())
		ds.TargetSizes[i] = targetSize
	}

	return ds
}
