// Package morphfx renders a scroll-driven particle animation that morphs a
// wave/grid point cloud into a loaded 3D logo shape. A single progress scalar
// drives per-particle position, color and size, the blend-mode state machine
// and the secondary camera rotation.
package morphfx

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable of the animation. Loaded once, treated as
// immutable afterwards; components receive it explicitly at construction so
// parallel instances can carry different tunings.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Particles ParticlesConfig `yaml:"particles"`
	Wave      WaveConfig      `yaml:"wave"`
	Placement PlacementConfig `yaml:"placement"`
	Assembly  AssemblyConfig  `yaml:"assembly"`
	Color     ColorConfig     `yaml:"color"`
	Blend     BlendConfig     `yaml:"blend"`
	Rotation  RotationConfig  `yaml:"rotation"`
	Scroll    ScrollConfig    `yaml:"scroll"`
	Pointer   PointerConfig   `yaml:"pointer"`
	Camera    CameraConfig    `yaml:"camera"`
	Hud       HudConfig       `yaml:"hud"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// ParticlesConfig controls dataset construction. The origin arrangement is a
// flat grid of cols*rows points; the final dataset truncates to
// min(cols*rows, target vertex count).
type ParticlesConfig struct {
	GridCols    int        `yaml:"grid_cols"`
	GridRows    int        `yaml:"grid_rows"`
	GridSpacing float64    `yaml:"grid_spacing"`
	Seed        int64      `yaml:"seed"`         // drives noise field and size jitter
	OriginSize  [2]float64 `yaml:"origin_size"`  // jitter range (min,max)
	TargetSize  float64    `yaml:"target_size"`  // uniform assembled size
	OriginColor [3]float64 `yaml:"origin_color"` // linear RGB 0..1
	TargetColor [3]float64 `yaml:"target_color"`
}

// WaveConfig is the ambient undulation: three stacked sin/cos terms of the
// origin position and elapsed time. The whole term fades out over
// [fade_start, fade_end] of progress.
type WaveConfig struct {
	Amplitudes [3]float64 `yaml:"amplitudes"`
	Freqs      [3]float64 `yaml:"freqs"`
	Speeds     [3]float64 `yaml:"speeds"`
	FadeStart  float64    `yaml:"fade_start"`
	FadeEnd    float64    `yaml:"fade_end"`
}

// PlacementConfig positions the wave pattern in view space: a fixed offset
// and a fixed rotateX∘rotateY∘rotateZ rotation applied after the wave stage.
type PlacementConfig struct {
	Offset      [3]float64 `yaml:"offset"`
	RotationDeg [3]float64 `yaml:"rotation_deg"`
}

// AssemblyConfig shapes the per-particle phase window. delay_scale > 1
// deliberately lets the slowest particles overshoot progress=1 ("never quite
// settles"); set it to 1.0 or below for a strict variant.
type AssemblyConfig struct {
	Duration   float64 `yaml:"duration"`
	DelayScale float64 `yaml:"delay_scale"`
	NoiseScale float64 `yaml:"noise_scale"`
}

// ColorConfig is the single global color-blend window shared by all
// particles, in contrast with the per-particle staggered position assembly.
type ColorConfig struct {
	BlendStart float64 `yaml:"blend_start"`
	BlendEnd   float64 `yaml:"blend_end"`
}

// BlendConfig drives the blend-mode/depth-write hysteresis. The four
// thresholds are intentionally staggered around 0.5 so the two switches never
// land on the same frame.
type BlendConfig struct {
	Midpoint         float64 `yaml:"midpoint"`
	Width            float64 `yaml:"width"`
	AdditiveToNormal float64 `yaml:"additive_to_normal"`
	NormalToAdditive float64 `yaml:"normal_to_additive"`
	DepthWriteOn     float64 `yaml:"depth_write_on"`
	DepthWriteOff    float64 `yaml:"depth_write_off"`
}

// RotationConfig shapes the two-phase secondary rotation curve.
type RotationConfig struct {
	Start   float64 `yaml:"start"`     // main-progress threshold where phase 1 begins
	Span    float64 `yaml:"span"`      // progress span of each phase
	MaxYDeg float64 `yaml:"max_y_deg"` // full yaw at end of phase 2
	MaxXDeg float64 `yaml:"max_x_deg"` // full pitch at end of phase 2
}

type ScrollConfig struct {
	Easing    float64 `yaml:"easing"`     // per-frame exponential smoothing factor (0,1]
	WheelStep float64 `yaml:"wheel_step"` // progress per wheel notch
	KeyStep   float64 `yaml:"key_step"`   // progress per second while a key is held
}

// PointerConfig controls the mouse disruption: particles within radius of the
// pointer are pushed radially with a squared falloff. The displacement is
// applied before the assembly mix so a fully assembled particle ignores it.
type PointerConfig struct {
	Radius   float64 `yaml:"radius"`
	Strength float64 `yaml:"strength"`
}

type CameraConfig struct {
	Position [3]float64 `yaml:"position"`
	FovDeg   float64    `yaml:"fov_deg"`
	Near     float64    `yaml:"near"`
	Far      float64    `yaml:"far"`
}

type HudConfig struct {
	FontPath string  `yaml:"font_path"`
	FontSize float64 `yaml:"font_size"`
}

// DerivedConfig caches float32/radian conversions of loaded values.
type DerivedConfig struct {
	PlacementOffset mgl32.Vec3
	PlacementRot    mgl32.Vec3 // radians
	OriginColor     mgl32.Vec3
	TargetColor     mgl32.Vec3
	MaxRotY         float32 // radians
	MaxRotX         float32 // radians
	CameraPos       mgl32.Vec3
	GridCount       int
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

func deg2rad(d float64) float32 {
	return float32(d * math.Pi / 180.0)
}

func vec3of(a [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(a[0]), float32(a[1]), float32(a[2])}
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.PlacementOffset = vec3of(c.Placement.Offset)
	c.Derived.PlacementRot = mgl32.Vec3{
		deg2rad(c.Placement.RotationDeg[0]),
		deg2rad(c.Placement.RotationDeg[1]),
		deg2rad(c.Placement.RotationDeg[2]),
	}
	c.Derived.OriginColor = vec3of(c.Particles.OriginColor)
	c.Derived.TargetColor = vec3of(c.Particles.TargetColor)
	c.Derived.MaxRotY = deg2rad(c.Rotation.MaxYDeg)
	c.Derived.MaxRotX = deg2rad(c.Rotation.MaxXDeg)
	c.Derived.CameraPos = vec3of(c.Camera.Position)
	c.Derived.GridCount = c.Particles.GridCols * c.Particles.GridRows
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
