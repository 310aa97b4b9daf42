package morphfx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 54, cfg.Particles.GridCols)
	assert.Equal(t, 51, cfg.Particles.GridRows)
	assert.Equal(t, 2754, cfg.Derived.GridCount)
	assert.Equal(t, 0.4, cfg.Assembly.Duration)
	assert.Equal(t, 1.2, cfg.Assembly.DelayScale)
	assert.Greater(t, cfg.Scroll.Easing, 0.0)
}

func TestLoad_UserFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	content := []byte("particles:\n  grid_cols: 10\n  grid_rows: 4\nassembly:\n  delay_scale: 1.0\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Particles.GridCols)
	assert.Equal(t, 40, cfg.Derived.GridCount)
	assert.Equal(t, 1.0, cfg.Assembly.DelayScale)
	// Untouched sections keep their defaults.
	assert.Equal(t, 0.4, cfg.Assembly.Duration)
	assert.NotEmpty(t, cfg.Window.Title)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("particles: [not a map"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestComputeDerived(t *testing.T) {
	cfg := MustLoad("")

	// Degrees in the file, radians in the derived values.
	assert.InDelta(t, float64(deg2rad(cfg.Placement.RotationDeg[0])), float64(cfg.Derived.PlacementRot.X()), 1e-6)
	assert.InDelta(t, float64(deg2rad(cfg.Rotation.MaxYDeg)), float64(cfg.Derived.MaxRotY), 1e-6)
	assert.InDelta(t, float64(deg2rad(cfg.Rotation.MaxXDeg)), float64(cfg.Derived.MaxRotX), 1e-6)

	assert.Equal(t, float32(cfg.Placement.Offset[1]), cfg.Derived.PlacementOffset.Y())
	assert.Equal(t, float32(cfg.Camera.Position[2]), cfg.Derived.CameraPos.Z())
}

func TestWriteYAML_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")

	cfg := MustLoad("")
	cfg.Particles.Seed = 9999
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(9999), loaded.Particles.Seed)
	assert.Equal(t, cfg.Blend, loaded.Blend)
	assert.Equal(t, cfg.Wave, loaded.Wave)
}
