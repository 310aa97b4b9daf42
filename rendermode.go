package morphfx

// BlendMode is the compositing rule for overlapping particles.
type BlendMode int

const (
	BlendAdditive BlendMode = iota // brighter overlaps; the glowing wave look
	BlendNormal                    // standard alpha compositing
)

func (m BlendMode) String() string {
	if m == BlendAdditive {
		return "additive"
	}
	return "normal"
}

// RenderModeController tracks blend mode and depth-write as hysteresis-gated
// functions of progress. Forward and backward thresholds differ so jitter
// around the midpoint never toggles every frame, and the two switches are
// staggered so they never land on the same frame.
type RenderModeController struct {
	midpoint float32
	width    float32

	additiveToNormal float32
	normalToAdditive float32
	depthWriteOn     float32
	depthWriteOff    float32

	mode       BlendMode
	depthWrite bool
}

func NewRenderModeController(cfg *Config) *RenderModeController {
	return &RenderModeController{
		midpoint:         float32(cfg.Blend.Midpoint),
		width:            float32(cfg.Blend.Width),
		additiveToNormal: float32(cfg.Blend.AdditiveToNormal),
		normalToAdditive: float32(cfg.Blend.NormalToAdditive),
		depthWriteOn:     float32(cfg.Blend.DepthWriteOn),
		depthWriteOff:    float32(cfg.Blend.DepthWriteOff),
		mode:             BlendAdditive,
		depthWrite:       false,
	}
}

// BlendProgress is the eased secondary progress driving both switches.
func (c *RenderModeController) BlendProgress(progress float32) float32 {
	if c.width <= 0 {
		if clamp01(progress) > c.midpoint {
			return 1
		}
		return 0
	}
	return smoothstep01((clamp01(progress) - c.midpoint) / c.width)
}

// Update advances the state machine for the given main progress.
func (c *RenderModeController) Update(progress float32) {
	bp := c.BlendProgress(progress)

	switch c.mode {
	case BlendAdditive:
		if bp > c.additiveToNormal {
			c.mode = BlendNormal
		}
	case BlendNormal:
		if bp <= c.normalToAdditive {
			c.mode = BlendAdditive
		}
	}

	if c.depthWrite {
		if bp <= c.depthWriteOff {
			c.depthWrite = false
		}
	} else {
		if bp > c.depthWriteOn {
			c.depthWrite = true
		}
	}
}

func (c *RenderModeController) Mode() BlendMode  { return c.mode }
func (c *RenderModeController) DepthWrite() bool { return c.depthWrite }
