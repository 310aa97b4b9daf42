package morphfx

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type AssetId string

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

type ShapeAsset struct {
	version  uint
	name     string
	vertices []mgl32.Vec3
}

// ShapeLibrary holds loaded target shapes keyed by asset id. Shapes are
// read-only after load.
type ShapeLibrary struct {
	shapes map[AssetId]ShapeAsset
}

type Shape struct {
	assetId AssetId
}

func (lib *ShapeLibrary) AddShape(name string, vertices []mgl32.Vec3) Shape {
	id := makeAssetId()
	lib.shapes[id] = ShapeAsset{
		version:  0,
		name:     name,
		vertices: vertices,
	}
	return Shape{assetId: id}
}

// LoadShapeFile reads a glTF/GLB file and registers its POSITION vertices.
func (lib *ShapeLibrary) LoadShapeFile(path string) (Shape, error) {
	vertices, err := LoadShapeVertices(path)
	if err != nil {
		return Shape{}, fmt.Errorf("loading shape %q: %w", path, err)
	}
	return lib.AddShape(path, vertices), nil
}

func (lib *ShapeLibrary) Vertices(s Shape) []mgl32.Vec3 {
	return lib.shapes[s.assetId].vertices
}

// GenerateXShape scatters count points across the two crossing bars of a flat
// "X" logo, deterministically for a given seed. Used as the built-in target
// when no mesh file is configured.
func GenerateXShape(count int, width, height, thickness, depth float32, seed int64) []mgl32.Vec3 {
	rng := rand.New(rand.NewSource(seed))
	vertices := make([]mgl32.Vec3, count)

	// Each bar is a rotated box through the origin.
	angle := float32(math.Atan2(float64(height), float64(width)))
	length := float32(math.Hypot(float64(width), float64(height)))

	for i := range vertices {
		a := angle
		if i%2 == 1 {
			a = -angle
		}
		u := (rng.Float32() - 0.5) * length
		v := (rng.Float32() - 0.5) * thickness
		w := (rng.Float32() - 0.5) * depth

		c := cos32(a)
		s := sin32(a)
		vertices[i] = mgl32.Vec3{u*c - v*s, u*s + v*c, w}
	}
	return vertices
}

// pendingShape tracks the one shape load this session performs.
type pendingShape struct {
	path   string
	shape  Shape
	loaded bool
}

// ShapesModule owns target-shape loading. On entering StateLoading it loads
// the configured mesh (or generates the built-in X), builds the particle
// dataset and transitions to StatePlaying. A load failure falls back to the
// generated shape rather than crashing the render loop.
type ShapesModule struct {
	Path string // optional glTF/GLB file
}

func (mod ShapesModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(
		&ShapeLibrary{shapes: make(map[AssetId]ShapeAsset)},
		&pendingShape{path: mod.Path},
	)
	app.UseSystem(
		System(shapeLoadingSystem).
			InStage(Update).
			InState(OnEnter(StateLoading)),
	)
}

func shapeLoadingSystem(
	lib *ShapeLibrary,
	pending *pendingShape,
	cfg *Config,
	morph *MorphState,
	state *AnimationState,
	cmd *Commands,
) {
	log := cmd.Logger()

	if pending.path != "" {
		shape, err := lib.LoadShapeFile(pending.path)
		if err != nil {
			log.Warnf("shape load failed, using generated X: %v", err)
		} else {
			pending.shape = shape
			pending.loaded = true
		}
	}

	if !pending.loaded {
		vertices := GenerateXShape(cfg.Derived.GridCount, 3.0, 3.0, 0.55, 0.4, cfg.Particles.Seed)
		pending.shape = lib.AddShape("builtin-x", vertices)
		pending.loaded = true
	}

	targets := lib.Vertices(pending.shape)
	morph.Dataset = BuildDataset(cfg, targets)
	state.ShapeReady = true

	log.Infof("shape ready: %d target vertices, %d particles", len(targets), morph.Dataset.Count())
	cmd.ChangeState(StatePlaying)
}
