package morphfx

// ScrollProgressMapper turns raw scroll input into the smoothed progress
// scalar the whole pipeline consumes. The exponential smoother lags the raw
// target and only ever moves towards it, so wheel jitter never reaches the
// particles directly.
type ScrollProgressMapper struct {
	easing  float32
	target  float32
	current float32
}

func NewScrollProgressMapper(cfg *Config) *ScrollProgressMapper {
	easing := clamp01(float32(cfg.Scroll.Easing))
	if easing == 0 {
		easing = 1 // degenerate config: follow the raw input directly
	}
	return &ScrollProgressMapper{easing: easing}
}

// SetTarget replaces the raw target. NaN and out-of-range values are clamped
// before they can reach any stage.
func (m *ScrollProgressMapper) SetTarget(raw float32) {
	m.target = clamp01(raw)
}

// Nudge moves the raw target by delta, clamped to [0,1].
func (m *ScrollProgressMapper) Nudge(delta float32) {
	m.SetTarget(m.target + delta)
}

func (m *ScrollProgressMapper) Target() float32 { return m.target }

// Step advances the smoother by one frame and returns the new progress.
func (m *ScrollProgressMapper) Step() float32 {
	m.current += (m.target - m.current) * m.easing
	m.current = clamp01(m.current)
	return m.current
}

func (m *ScrollProgressMapper) Current() float32 { return m.current }

// Reset snaps both the raw target and the smoothed value, e.g. when the user
// hits Home/End.
func (m *ScrollProgressMapper) Reset(value float32) {
	m.target = clamp01(value)
	m.current = m.target
}
