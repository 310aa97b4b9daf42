package morphfx

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/morphfx/morphfx/shaders"
)

// HudState owns the debug overlay: the glyph atlas pipeline and a growable
// vertex buffer rebuilt each visible frame.
type HudState struct {
	text      *TextRenderer
	pipeline  *wgpu.RenderPipeline
	bindGroup *wgpu.BindGroup

	vertexBuffer *wgpu.Buffer
	vertexCap    uint32
	vertexCount  uint32

	visible bool
	fps     float64
}

// HudModule installs the debug overlay (progress, blend state, particle
// count, FPS), toggled with F1. Skipped entirely when no font is configured.
type HudModule struct {
	FontPath string
	FontSize float64
}

func (mod HudModule) Install(app *App, cmd *Commands) {
	if mod.FontPath == "" {
		app.Logger().Infof("hud: no font configured, overlay disabled")
		return
	}
	r, ok := app.resources[reflect.TypeOf(RendererState{})].(*RendererState)
	if !ok {
		panic("HudModule requires RendererModule")
	}

	fontSize := mod.FontSize
	if fontSize <= 0 {
		fontSize = 16
	}
	text, err := NewTextRenderer(mod.FontPath, fontSize)
	if err != nil {
		app.Logger().Warnf("hud: %v, overlay disabled", err)
		return
	}

	hud := &HudState{text: text}
	if err := hud.initPipeline(r); err != nil {
		panic(err)
	}

	cmd.AddResources(hud)
	// The readouts only mean anything once the shape session is live.
	app.UseSystem(
		System(hudSystem).
			InStage(PreRender).
			InState(OnExecute(StatePlaying)),
	)
	// PreRender runs before the renderer's PostRender teardown, so the hud
	// buffers go before the device does.
	app.UseSystem(
		System(hudTeardownSystem).
			InStage(PreRender).
			InState(OnEnter(StateShutdown)),
	)
}

func hudTeardownSystem(hud *HudState) {
	if hud.pipeline != nil {
		hud.pipeline.Release()
		hud.pipeline = nil
	}
	if hud.bindGroup != nil {
		hud.bindGroup.Release()
		hud.bindGroup = nil
	}
	if hud.vertexBuffer != nil {
		hud.vertexBuffer.Release()
		hud.vertexBuffer = nil
	}
}

func (hud *HudState) initPipeline(r *RendererState) error {
	device := r.gpu.device

	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "HudTextShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.TextWGSL},
	})
	if err != nil {
		return err
	}
	defer shaderModule.Release()

	// Upload the glyph atlas as a single-channel texture.
	atlas := hud.text.AtlasImage
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "HudAtlas",
		Size: wgpu.Extent3D{
			Width:              textAtlasSize,
			Height:             textAtlasSize,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return err
	}
	r.gpu.queue.WriteTexture(
		tex.AsImageCopy(),
		atlas.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(atlas.Stride),
			RowsPerImage: textAtlasSize,
		},
		&wgpu.Extent3D{Width: textAtlasSize, Height: textAtlasSize, DepthOrArrayLayers: 1},
	)
	atlasView, err := tex.CreateView(nil)
	if err != nil {
		return err
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:     "HudSampler",
		MagFilter: wgpu.FilterModeLinear,
		MinFilter: wgpu.FilterModeLinear,
	})
	if err != nil {
		return err
	}

	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "HudBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return err
	}

	hud.bindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "HudBG",
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: atlasView},
			{Binding: 1, Sampler: sampler},
		},
	})
	if err != nil {
		return err
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return err
	}

	hud.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "HudPipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(unsafe.Sizeof(TextVertex{})),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    r.gpu.surfaceConfig.Format,
					WriteMask: wgpu.ColorWriteMaskAll,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
						Alpha: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		// Shares the main pass, so the depth attachment must be declared;
		// the overlay never tests or writes it.
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionAlways,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	return err
}

func hudSystem(
	hud *HudState,
	input *Input,
	t *Time,
	state *AnimationState,
	morph *MorphState,
	r *RendererState,
	overlay *OverlayQueue,
) {
	if input.JustPressed[KeyF1] {
		hud.visible = !hud.visible
	}
	if !hud.visible {
		return
	}

	if dt := t.Dt.Seconds(); dt > 0 {
		// EMA keeps the readout steady.
		hud.fps = hud.fps*0.9 + (1.0/dt)*0.1
	}

	count := 0
	if morph.Dataset != nil {
		count = morph.Dataset.Count()
	}

	body := fmt.Sprintf(
		"progress %5.3f\nblend %s  depth %v\nrot y %6.2f  x %6.2f\nparticles %d\nfps %5.1f",
		state.Progress,
		state.BlendMode, state.DepthWrite,
		mgl32.RadToDeg(state.Rotation.Y()), mgl32.RadToDeg(state.Rotation.X()),
		count,
		hud.fps,
	)

	items := []TextItem{{
		Text:     body,
		Position: [2]float32{12, 10},
		Scale:    1,
		Color:    [4]float32{0.9, 0.95, 1, 0.92},
	}}

	vertices := hud.text.BuildVertices(items, input.WindowWidth, input.WindowHeight)
	if len(vertices) == 0 {
		return
	}

	device := r.gpu.device
	needed := uint32(len(vertices))
	sizeBytes := uint64(len(vertices) * int(unsafe.Sizeof(TextVertex{})))

	if hud.vertexBuffer == nil || hud.vertexCap < needed {
		if hud.vertexBuffer != nil {
			hud.vertexBuffer.Release()
		}
		hud.vertexCap = needed + 256 // margin
		var err error
		hud.vertexBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "HudVertexBuffer",
			Size:  uint64(hud.vertexCap) * uint64(unsafe.Sizeof(TextVertex{})),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			panic(err)
		}
	}
	r.gpu.queue.WriteBuffer(hud.vertexBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), sizeBytes))
	hud.vertexCount = needed

	overlay.Enqueue(func(pass *wgpu.RenderPassEncoder) {
		pass.SetPipeline(hud.pipeline)
		pass.SetBindGroup(0, hud.bindGroup, nil)
		pass.SetVertexBuffer(0, hud.vertexBuffer, 0, hud.vertexBuffer.GetSize())
		pass.Draw(hud.vertexCount, 1, 0, 0)
	})
}
