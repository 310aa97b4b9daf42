package morphfx

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/morphfx/morphfx/shaders"
)

// ParticleInstance matches the WGSL InstanceInput layout in particles.wgsl:
// per-particle static attributes; everything frame-varying travels in the
// uniform block.
type ParticleInstance struct {
	OriginSize  [4]float32 // xyz origin, w origin size
	TargetSize  [4]float32 // xyz target, w target size
	OriginColor [4]float32
	TargetColor [4]float32
}

// particleUniforms matches the WGSL Uniforms block, std140-compatible.
type particleUniforms struct {
	ViewProj  mgl32.Mat4
	Model     mgl32.Mat4
	Placement mgl32.Mat4
	WaveAmp   [4]float32 // xyz amplitudes, w elapsed time
	WaveFreq  [4]float32 // xyz frequencies, w progress
	WaveSpeed [4]float32
	Params0   [4]float32 // duration, delay scale, noise scale, pointer radius
	Params1   [4]float32 // color start/end, wave fade start/end
	Pointer   [4]float32 // xyz pointer, w strength
	Screen    [4]float32 // projection diagonal
}

type pipelineKey struct {
	mode       BlendMode
	depthWrite bool
}

// ParticleRenderPass owns the four pipeline variants ({additive,normal} x
// {depth write on,off}), the static per-particle instance buffer and the
// per-frame uniform buffer.
type ParticleRenderPass struct {
	Device    *wgpu.Device
	Pipelines map[pipelineKey]*wgpu.RenderPipeline
	BindGroup *wgpu.BindGroup

	CornerBuffer   *wgpu.Buffer
	InstanceBuffer *wgpu.Buffer
	InstanceCount  uint32
	UniformBuffer  *wgpu.Buffer

	placement       mgl32.Mat4
	pointerStrength float32
	uniforms        particleUniforms
}

func blendStateFor(mode BlendMode) *wgpu.BlendState {
	if mode == BlendAdditive {
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOne,
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
			},
		}
	}
	return &wgpu.BlendState{
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
	}
}

func NewParticleRenderPass(device *wgpu.Device, format wgpu.TextureFormat, cfg *Config) (*ParticleRenderPass, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "ParticleShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.ParticlesWGSL},
	})
	if err != nil {
		return nil, err
	}
	defer shaderModule.Release()

	uniformSize := uint64(unsafe.Sizeof(particleUniforms{}))

	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ParticleUniformBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					MinBindingSize:   uniformSize,
					HasDynamicOffset: false,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, err
	}

	vertexLayouts := []wgpu.VertexBufferLayout{
		{
			ArrayStride: uint64(unsafe.Sizeof([2]float32{})),
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
		{
			ArrayStride: uint64(unsafe.Sizeof(ParticleInstance{})),
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 1},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 3},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 4},
			},
		},
	}

	p := &ParticleRenderPass{
		Device:    device,
		Pipelines: make(map[pipelineKey]*wgpu.RenderPipeline),
	}

	for _, mode := range []BlendMode{BlendAdditive, BlendNormal} {
		for _, depthWrite := range []bool{false, true} {
			pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
				Label:  "ParticlePipeline",
				Layout: pipelineLayout,
				Vertex: wgpu.VertexState{
					Module:     shaderModule,
					EntryPoint: "vs_main",
					Buffers:    vertexLayouts,
				},
				Fragment: &wgpu.FragmentState{
					Module:     shaderModule,
					EntryPoint: "fs_main",
					Targets: []wgpu.ColorTargetState{
						{
							Format:    format,
							WriteMask: wgpu.ColorWriteMaskAll,
							Blend:     blendStateFor(mode),
						},
					},
				},
				Primitive: wgpu.PrimitiveState{
					Topology:  wgpu.PrimitiveTopologyTriangleStrip,
					FrontFace: wgpu.FrontFaceCCW,
					CullMode:  wgpu.CullModeNone,
				},
				DepthStencil: &wgpu.DepthStencilState{
					Format:            depthFormat,
					DepthWriteEnabled: depthWrite,
					DepthCompare:      wgpu.CompareFunctionLess,
				},
				Multisample: wgpu.MultisampleState{
					Count: 1,
					Mask:  0xFFFFFFFF,
				},
			})
			if err != nil {
				return nil, err
			}
			p.Pipelines[pipelineKey{mode, depthWrite}] = pipeline
		}
	}

	// Quad corners for the triangle-strip billboard.
	corners := [][2]float32{
		{-0.5, -0.5},
		{0.5, -0.5},
		{-0.5, 0.5},
		{0.5, 0.5},
	}
	cSize := uint64(len(corners) * int(unsafe.Sizeof([2]float32{})))
	p.CornerBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ParticleCornerBuffer",
		Size:  cSize,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	device.GetQueue().WriteBuffer(p.CornerBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&corners[0])), cSize))

	p.UniformBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ParticleUniformBuffer",
		Size:  uniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}

	p.BindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ParticleUniformBG",
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  p.UniformBuffer,
				Size:    uniformSize,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	p.initStaticUniforms(cfg)
	return p, nil
}

// initStaticUniforms fills the config-constant part of the uniform block once.
func (p *ParticleRenderPass) initStaticUniforms(cfg *Config) {
	r := cfg.Derived.PlacementRot
	rot := mgl32.HomogRotate3DX(r.X()).
		Mul4(mgl32.HomogRotate3DY(r.Y())).
		Mul4(mgl32.HomogRotate3DZ(r.Z()))
	off := cfg.Derived.PlacementOffset
	p.placement = mgl32.Translate3D(off.X(), off.Y(), off.Z()).Mul4(rot)
	p.pointerStrength = float32(cfg.Pointer.Strength)

	u := &p.uniforms
	u.Placement = p.placement
	for i := 0; i < 3; i++ {
		u.WaveAmp[i] = float32(cfg.Wave.Amplitudes[i])
		u.WaveFreq[i] = float32(cfg.Wave.Freqs[i])
		u.WaveSpeed[i] = float32(cfg.Wave.Speeds[i])
	}
	u.Params0 = [4]float32{
		float32(cfg.Assembly.Duration),
		float32(cfg.Assembly.DelayScale),
		float32(cfg.Assembly.NoiseScale),
		float32(cfg.Pointer.Radius),
	}
	u.Params1 = [4]float32{
		float32(cfg.Color.BlendStart),
		float32(cfg.Color.BlendEnd),
		float32(cfg.Wave.FadeStart),
		float32(cfg.Wave.FadeEnd),
	}
}

// UploadDataset packs the immutable per-particle attributes into the
// instance buffer. Called once per shape session.
func (p *ParticleRenderPass) UploadDataset(ds *ParticleDataset) {
	n := ds.Count()
	if n == 0 {
		p.InstanceCount = 0
		return
	}

	instances := make([]ParticleInstance, n)
	for i := 0; i < n; i++ {
		o := ds.Origins[i]
		t := ds.Targets[i]
		oc := ds.OriginColors[i]
		tc := ds.TargetColors[i]
		instances[i] = ParticleInstance{
			OriginSize:  [4]float32{o.X(), o.Y(), o.Z(), ds.OriginSizes[i]},
			TargetSize:  [4]float32{t.X(), t.Y(), t.Z(), ds.TargetSizes[i]},
			OriginColor: [4]float32{oc.X(), oc.Y(), oc.Z(), 1},
			TargetColor: [4]float32{tc.X(), tc.Y(), tc.Z(), 1},
		}
	}

	sizeBytes := uint64(n * int(unsafe.Sizeof(ParticleInstance{})))
	if p.InstanceBuffer != nil {
		p.InstanceBuffer.Release()
	}
	var err error
	p.InstanceBuffer, err = p.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ParticleInstanceBuffer",
		Size:  sizeBytes,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	p.Device.GetQueue().WriteBuffer(p.InstanceBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&instances[0])), sizeBytes))
	p.InstanceCount = uint32(n)
}

// Update writes the frame-varying uniforms.
func (p *ParticleRenderPass) Update(queue *wgpu.Queue, state *AnimationState, camera *CameraState, width, height int) {
	u := &p.uniforms

	proj := camera.GetProjMatrix(width, height)
	u.ViewProj = proj.Mul4(camera.GetViewMatrix())
	u.Model = mgl32.HomogRotate3DY(state.Rotation.Y()).
		Mul4(mgl32.HomogRotate3DX(state.Rotation.X()))

	u.WaveAmp[3] = state.ElapsedTime
	u.WaveFreq[3] = clamp01(state.Progress)

	strength := float32(0)
	if state.PointerActive {
		strength = p.pointerStrength
	}
	u.Pointer = [4]float32{state.Pointer.X(), state.Pointer.Y(), state.Pointer.Z(), strength}
	u.Screen = [4]float32{proj.At(0, 0), proj.At(1, 1), 0, 0}

	queue.WriteBuffer(p.UniformBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(u)), unsafe.Sizeof(particleUniforms{})))
}

// Release frees the pipelines and buffers. The pass must not draw afterwards.
func (p *ParticleRenderPass) Release() {
	for key, pipeline := range p.Pipelines {
		pipeline.Release()
		delete(p.Pipelines, key)
	}
	if p.BindGroup != nil {
		p.BindGroup.Release()
		p.BindGroup = nil
	}
	if p.CornerBuffer != nil {
		p.CornerBuffer.Release()
		p.CornerBuffer = nil
	}
	if p.InstanceBuffer != nil {
		p.InstanceBuffer.Release()
		p.InstanceBuffer = nil
	}
	if p.UniformBuffer != nil {
		p.UniformBuffer.Release()
		p.UniformBuffer = nil
	}
	p.InstanceCount = 0
}

// Draw selects the pipeline variant for the frame's blend mode and depth
// write flag and draws all particles as instanced quads.
func (p *ParticleRenderPass) Draw(pass *wgpu.RenderPassEncoder, mode BlendMode, depthWrite bool) {
	if p.InstanceBuffer == nil || p.InstanceCount == 0 {
		return
	}

	pass.SetPipeline(p.Pipelines[pipelineKey{mode, depthWrite}])
	pass.SetBindGroup(0, p.BindGroup, nil)
	pass.SetVertexBuffer(0, p.CornerBuffer, 0, p.CornerBuffer.GetSize())
	pass.SetVertexBuffer(1, p.InstanceBuffer, 0, p.InstanceBuffer.GetSize())
	pass.Draw(4, p.InstanceCount, 0, 0)
}
