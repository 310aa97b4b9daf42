package morphfx

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The default 54x51 grid yields 2754 origin slots; a 2000-vertex target shape
// truncates the dataset to exactly 2000 particles with no reuse.
func TestBuildDataset_TruncatesToTargetCount(t *testing.T) {
	cfg := MustLoad("")
	require.Equal(t, 2754, cfg.Derived.GridCount)

	targets := GenerateXShape(2000, 3, 3, 0.5, 0.4, cfg.Particles.Seed)
	ds := BuildDataset(cfg, targets)

	assert.Equal(t, 2000, ds.Count())
	assert.Len(t, ds.Targets, 2000)
	assert.Len(t, ds.OriginSizes, 2000)
}

func TestBuildDataset_TruncatesToGridCount(t *testing.T) {
	cfg := MustLoad("")
	targets := GenerateXShape(5000, 3, 3, 0.5, 0.4, 7)
	ds := BuildDataset(cfg, targets)
	assert.Equal(t, cfg.Derived.GridCount, ds.Count())
}

func TestBuildDataset_GridIsCentered(t *testing.T) {
	cfg := MustLoad("")
	targets := GenerateXShape(cfg.Derived.GridCount, 3, 3, 0.5, 0.4, 7)
	ds := BuildDataset(cfg, targets)

	var sum mgl32.Vec3
	for _, o := range ds.Origins {
		sum = sum.Add(o)
	}
	centroid := sum.Mul(1 / float32(ds.Count()))
	assert.InDelta(t, 0, float64(centroid.X()), 1e-2)
	assert.InDelta(t, 0, float64(centroid.Y()), 1e-6, "grid lies in the y=0 plane")
	assert.InDelta(t, 0, float64(centroid.Z()), 1e-2)
}

func TestBuildDataset_SeededJitterIsReproducible(t *testing.T) {
	cfg := MustLoad("")
	targets := GenerateXShape(256, 3, 3, 0.5, 0.4, cfg.Particles.Seed)

	a := BuildDataset(cfg, targets)
	b := BuildDataset(cfg, targets)
	assert.Equal(t, a.OriginSizes, b.OriginSizes)

	sizeMin := float32(cfg.Particles.OriginSize[0])
	sizeMax := float32(cfg.Particles.OriginSize[1])
	for i, s := range a.OriginSizes {
		if s < sizeMin || s > sizeMax {
			t.Fatalf("particle %d size %v outside jitter range [%v,%v]", i, s, sizeMin, sizeMax)
		}
	}
}

func TestBuildDataset_DifferentSeedsDiffer(t *testing.T) {
	cfg := MustLoad("")
	targets := GenerateXShape(256, 3, 3, 0.5, 0.4, 7)

	a := BuildDataset(cfg, targets)
	cfg.Particles.Seed++
	b := BuildDataset(cfg, targets)
	assert.NotEqual(t, a.OriginSizes, b.OriginSizes)
}

func TestGenerateXShape_DeterministicAndBounded(t *testing.T) {
	a := GenerateXShape(512, 3, 2, 0.5, 0.4, 99)
	b := GenerateXShape(512, 3, 2, 0.5, 0.4, 99)
	require.Len(t, a, 512)
	assert.Equal(t, a, b)

	// Every vertex lies inside the X's bounding box.
	for i, v := range a {
		if v.X() < -2 || v.X() > 2 || v.Y() < -1.6 || v.Y() > 1.6 || v.Z() < -0.3 || v.Z() > 0.3 {
			t.Fatalf("vertex %d escaped the shape bounds: %v", i, v)
		}
	}
}
