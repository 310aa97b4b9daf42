package morphfx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrollProgressMapper_ClampsGarbageInput(t *testing.T) {
	m := NewScrollProgressMapper(MustLoad(""))

	m.SetTarget(float32(math.NaN()))
	assert.Equal(t, float32(0), m.Target())

	m.SetTarget(3.5)
	assert.Equal(t, float32(1), m.Target())

	m.SetTarget(-0.2)
	assert.Equal(t, float32(0), m.Target())

	m.SetTarget(float32(math.Inf(1)))
	assert.Equal(t, float32(1), m.Target())
}

func TestScrollProgressMapper_ConvergesMonotonically(t *testing.T) {
	m := NewScrollProgressMapper(MustLoad(""))
	m.SetTarget(1)

	prev := m.Current()
	for i := 0; i < 500; i++ {
		cur := m.Step()
		if cur < prev {
			t.Fatalf("progress moved away from target on step %d: %v < %v", i, cur, prev)
		}
		prev = cur
	}
	assert.InDelta(t, 1.0, float64(m.Current()), 1e-3, "500 steps at the default easing must close the gap")
}

func TestScrollProgressMapper_NudgeAccumulatesAndClamps(t *testing.T) {
	m := NewScrollProgressMapper(MustLoad(""))

	m.Nudge(0.3)
	m.Nudge(0.3)
	assert.InDelta(t, 0.6, float64(m.Target()), 1e-6)

	m.Nudge(10)
	assert.Equal(t, float32(1), m.Target())

	m.Nudge(-10)
	assert.Equal(t, float32(0), m.Target())
}

func TestScrollProgressMapper_ResetSnapsBothValues(t *testing.T) {
	m := NewScrollProgressMapper(MustLoad(""))
	m.SetTarget(1)
	for i := 0; i < 10; i++ {
		m.Step()
	}

	m.Reset(0)
	assert.Equal(t, float32(0), m.Target())
	assert.Equal(t, float32(0), m.Current())
	assert.Equal(t, float32(0), m.Step(), "after a reset the smoother holds still")

	m.Reset(1)
	assert.Equal(t, float32(1), m.Current())
}

// Easing of 0 is a degenerate config: the mapper follows the raw target
// directly instead of dividing every step by zero progress.
func TestScrollProgressMapper_ZeroEasingFollowsDirectly(t *testing.T) {
	cfg := MustLoad("")
	cfg.Scroll.Easing = 0
	m := NewScrollProgressMapper(cfg)

	m.SetTarget(0.7)
	assert.Equal(t, float32(0.7), m.Step())
}
