package morphfx

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func progressFixture(t *testing.T) (*Config, *ScrollProgressMapper, *CameraState, *AnimationState, *Time) {
	t.Helper()
	cfg := MustLoad("")
	return cfg,
		NewScrollProgressMapper(cfg),
		NewCameraState(cfg),
		&AnimationState{},
		&Time{Dt: 16 * time.Millisecond}
}

func TestProgressSystem_SpaceTogglesWavePause(t *testing.T) {
	cfg, mapper, camera, state, clock := progressFixture(t)
	cmd := &Commands{app: &App{resources: make(map[reflect.Type]any)}}

	input := &Input{}
	progressSystem(input, clock, cfg, mapper, camera, state, cmd)
	require.InDelta(t, 0.016, state.ElapsedTime, 1e-4, "clock advances while running")

	input.JustPressed[KeySpace] = true
	progressSystem(input, clock, cfg, mapper, camera, state, cmd)
	assert.True(t, state.Paused)
	frozen := state.ElapsedTime

	// Held key is not a new press; the clock stays frozen across frames.
	input.JustPressed[KeySpace] = false
	progressSystem(input, clock, cfg, mapper, camera, state, cmd)
	progressSystem(input, clock, cfg, mapper, camera, state, cmd)
	assert.Equal(t, frozen, state.ElapsedTime)

	input.JustPressed[KeySpace] = true
	progressSystem(input, clock, cfg, mapper, camera, state, cmd)
	assert.False(t, state.Paused)
	assert.InDelta(t, frozen+0.016, state.ElapsedTime, 1e-4, "clock resumes after unpause")
}

func TestProgressSystem_DTogglesDebugLogging(t *testing.T) {
	cfg, mapper, camera, state, clock := progressFixture(t)

	app := &App{resources: make(map[reflect.Type]any)}
	logger := NewDefaultLogger("morphfx", false)
	app.addResources(logger)
	cmd := &Commands{app: app}

	input := &Input{}
	input.JustPressed[KeyD] = true
	progressSystem(input, clock, cfg, mapper, camera, state, cmd)
	assert.True(t, logger.DebugEnabled())

	progressSystem(input, clock, cfg, mapper, camera, state, cmd)
	assert.False(t, logger.DebugEnabled(), "second press toggles back off")
}

func TestProgressSystem_PauseDoesNotBlockScroll(t *testing.T) {
	cfg, mapper, camera, state, clock := progressFixture(t)
	cmd := &Commands{app: &App{resources: make(map[reflect.Type]any)}}

	input := &Input{}
	input.JustPressed[KeySpace] = true
	progressSystem(input, clock, cfg, mapper, camera, state, cmd)
	require.True(t, state.Paused)

	input.JustPressed[KeySpace] = false
	input.ScrollDelta = 10
	for i := 0; i < 200; i++ {
		progressSystem(input, clock, cfg, mapper, camera, state, cmd)
	}
	assert.Greater(t, state.Progress, float32(0), "progress still follows scroll while paused")
}
