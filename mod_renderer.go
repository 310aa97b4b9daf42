package morphfx

import (
	"reflect"

	"github.com/cogentcore/webgpu/wgpu"
)

// Background fade: the clear color darkens as the logo assembles.
const (
	backgroundR = 0.016
	backgroundG = 0.020
	backgroundB = 0.045

	backgroundFadeStart = 0.4
	backgroundFadeEnd   = 0.9
	backgroundFadeDepth = 0.75
)

// OverlayQueue lets other modules (the HUD) append draw calls to the frame's
// render pass without the renderer knowing about them. Drained every frame.
type OverlayQueue struct {
	draws []func(pass *wgpu.RenderPassEncoder)
}

func (q *OverlayQueue) Enqueue(draw func(pass *wgpu.RenderPassEncoder)) {
	q.draws = append(q.draws, draw)
}

// RendererState owns the GPU device and the particle pass for the lifetime of
// the app.
type RendererState struct {
	gpu       *GpuState
	particles *ParticleRenderPass

	// dataset identity currently uploaded to the instance buffer
	uploaded *ParticleDataset
}

func (r *RendererState) Device() *wgpu.Device { return r.gpu.device }

// RendererModule creates the GPU device against the shared window and draws
// the particle system every frame. Requires PlatformWindowModule and
// MorphModule to be installed first.
type RendererModule struct{}

func (mod RendererModule) Install(app *App, cmd *Commands) {
	ws, ok := app.resources[reflect.TypeOf(WindowState{})].(*WindowState)
	if !ok {
		panic("RendererModule requires PlatformWindowModule")
	}
	cfg, ok := app.resources[reflect.TypeOf(Config{})].(*Config)
	if !ok {
		panic("RendererModule requires MorphModule")
	}

	gpu := createGpuState(ws)
	particles, err := NewParticleRenderPass(gpu.device, gpu.surfaceConfig.Format, cfg)
	if err != nil {
		panic(err)
	}

	cmd.AddResources(
		&RendererState{gpu: gpu, particles: particles},
		&OverlayQueue{},
	)
	app.UseSystem(
		System(renderSystem).
			InStage(Render).
			RunAlways(),
	)
	app.UseSystem(
		System(renderTeardownSystem).
			InStage(PostRender).
			InState(OnEnter(StateShutdown)),
	)
}

// renderTeardownSystem releases GPU resources when the app enters
// StateShutdown. The render loop never executes in the final state, so the
// device is not touched after this runs.
func renderTeardownSystem(r *RendererState, cmd *Commands) {
	cmd.Logger().Infof("releasing GPU resources")
	r.particles.Release()
	r.gpu.release()
}

func backgroundColor(progress float32) wgpu.Color {
	dim := 1 - backgroundFadeDepth*smoothstep(backgroundFadeStart, backgroundFadeEnd, progress)
	return wgpu.Color{
		R: float64(backgroundR * dim),
		G: float64(backgroundG * dim),
		B: float64(backgroundB * dim),
		A: 1,
	}
}

func renderSystem(
	r *RendererState,
	input *Input,
	morph *MorphState,
	state *AnimationState,
	camera *CameraState,
	overlay *OverlayQueue,
	cmd *Commands,
) {
	gpu := r.gpu
	gpu.resize(input.WindowWidth, input.WindowHeight)

	// New shape session: re-pack the static instance attributes.
	if morph.Dataset != nil && morph.Dataset != r.uploaded {
		r.particles.UploadDataset(morph.Dataset)
		r.uploaded = morph.Dataset
	}

	width := int(gpu.surfaceConfig.Width)
	height := int(gpu.surfaceConfig.Height)
	r.particles.Update(gpu.queue, state, camera, width, height)

	surfaceTexture, err := gpu.surface.GetCurrentTexture()
	if err != nil {
		// Stale swapchain (resize race); reconfigure and skip the frame.
		cmd.Logger().Warnf("surface acquire failed, reconfiguring: %v", err)
		gpu.surface.Configure(gpu.adapter, gpu.device, gpu.surfaceConfig)
		overlay.draws = overlay.draws[:0]
		return
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}
	defer view.Release()

	encoder, err := gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: backgroundColor(state.Progress),
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            gpu.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})

	// While the shape is loading the dataset is nil and Draw is a no-op; the
	// window still clears and presents so the page never freezes.
	r.particles.Draw(pass, state.BlendMode, state.DepthWrite)

	for _, draw := range overlay.draws {
		draw(pass)
	}
	overlay.draws = overlay.draws[:0]

	pass.End()
	pass.Release()

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		panic(err)
	}
	defer cmdBuffer.Release()

	gpu.queue.Submit(cmdBuffer)
	gpu.surface.Present()
}
