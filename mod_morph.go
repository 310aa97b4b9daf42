package morphfx

import (
	"github.com/go-gl/mathgl/mgl32"
)

// App states: the animation stays in StateLoading (wave-only rendering) until
// the target shape is ready, then plays until the window closes.
const (
	StateLoading State = iota
	StatePlaying
	StateShutdown
)

// AnimationState is the single mutable driver shared by every stage of the
// pipeline. It is written once per frame by the morph systems (Update stage)
// and read by the render stage; single writer, no locks.
type AnimationState struct {
	Progress    float32 // smoothed scroll progress in [0,1]
	ElapsedTime float32 // seconds, advances independent of progress

	BlendMode  BlendMode
	DepthWrite bool
	Rotation   mgl32.Vec3 // secondary object rotation, radians

	Pointer       mgl32.Vec3 // pointer on the assembly plane, world space
	PointerActive bool

	Paused     bool // freezes the wave clock; progress still responds to input
	ShapeReady bool
}

// MorphState owns the dataset for the current shape session. Nil until the
// target shape has been loaded and paired with the origin grid.
type MorphState struct {
	Dataset *ParticleDataset
}

// MorphModule wires the whole progress-to-visual pipeline: the scroll mapper,
// the phase scheduler, the motion blender, the render-mode hysteresis and the
// secondary rotation. Noise may be overridden (e.g. ConstField in tools);
// when nil, OpenSimplex noise seeded from the config is used.
type MorphModule struct {
	Config *Config
	Noise  NoiseField
}

func (mod MorphModule) Install(app *App, cmd *Commands) {
	cfg := mod.Config
	if cfg == nil {
		cfg = MustLoad("")
	}
	noise := mod.Noise
	if noise == nil {
		noise = NewSimplexField(cfg.Particles.Seed)
	}

	scheduler := NewPhaseScheduler(cfg, noise)

	cmd.AddResources(
		cfg,
		&AnimationState{BlendMode: BlendAdditive, DepthWrite: false},
		&MorphState{},
		NewScrollProgressMapper(cfg),
		scheduler,
		NewMotionBlender(cfg, scheduler),
		NewRenderModeController(cfg),
		NewSecondaryMotionController(cfg),
		NewCameraState(cfg),
	)

	app.UseSystem(
		System(progressSystem).
			InStage(Update).
			RunAlways(),
	)
	app.UseSystem(
		System(animationSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
	app.UseSystem(
		System(lifecycleSystem).
			InStage(Finale).
			RunAlways(),
	)
}

// progressSystem folds raw input into the scroll mapper and advances the
// shared animation state for this frame. It runs in both states so the wave
// keeps undulating while the shape is still loading. Space pauses the wave
// clock, D toggles debug logging.
func progressSystem(
	input *Input,
	t *Time,
	cfg *Config,
	mapper *ScrollProgressMapper,
	camera *CameraState,
	state *AnimationState,
	cmd *Commands,
) {
	dt := float32(t.Dt.Seconds())

	if input.JustPressed[KeySpace] {
		state.Paused = !state.Paused
	}
	if input.JustPressed[KeyD] {
		log := cmd.Logger()
		log.SetDebug(!log.DebugEnabled())
	}

	if input.ScrollDelta != 0 {
		mapper.Nudge(float32(input.ScrollDelta) * float32(cfg.Scroll.WheelStep))
	}

	keyStep := float32(cfg.Scroll.KeyStep) * dt
	if input.Pressed[KeyDown] || input.Pressed[KeyPageDown] {
		mapper.Nudge(keyStep)
	}
	if input.Pressed[KeyUp] || input.Pressed[KeyPageUp] {
		mapper.Nudge(-keyStep)
	}
	if input.JustPressed[KeyHome] || input.JustPressed[KeyR] {
		mapper.Reset(0)
	}
	if input.JustPressed[KeyEnd] {
		mapper.Reset(1)
	}

	state.Progress = mapper.Step()
	if !state.Paused {
		state.ElapsedTime += dt
	}

	if p, ok := camera.UnprojectToPlane(input.MouseX, input.MouseY, input.WindowWidth, input.WindowHeight); ok {
		state.Pointer = p
		state.PointerActive = true
	} else {
		state.PointerActive = false
	}
}

// animationSystem derives the global render state for this frame from the
// progress computed by progressSystem.
func animationSystem(
	state *AnimationState,
	modes *RenderModeController,
	secondary *SecondaryMotionController,
) {
	modes.Update(state.Progress)
	state.BlendMode = modes.Mode()
	state.DepthWrite = modes.DepthWrite()
	state.Rotation = secondary.ComputeRotation(state.Progress)
}

// lifecycleSystem requests shutdown on window close or Escape.
func lifecycleSystem(window *WindowState, input *Input, cmd *Commands) {
	if window.ShouldClose() || input.JustPressed[KeyEscape] {
		cmd.ChangeState(StateShutdown)
	}
}
