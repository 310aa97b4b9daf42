package morphfx

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraState is a fixed-position camera aimed at the scene origin. The
// scroll-driven motion happens on the object side (see
// SecondaryMotionController); the camera itself only supplies view and
// projection.
type CameraState struct {
	Position mgl32.Vec3
	FovY     float32 // radians
	Near     float32
	Far      float32
}

func NewCameraState(cfg *Config) *CameraState {
	return &CameraState{
		Position: cfg.Derived.CameraPos,
		FovY:     deg2rad(cfg.Camera.FovDeg),
		Near:     float32(cfg.Camera.Near),
		Far:      float32(cfg.Camera.Far),
	}
}

func (c *CameraState) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
}

func (c *CameraState) GetProjMatrix(width, height int) mgl32.Mat4 {
	if height <= 0 {
		height = 1
	}
	aspect := float32(width) / float32(height)
	return mgl32.Perspective(c.FovY, aspect, c.Near, c.Far)
}

func (c *CameraState) ViewProj(width, height int) mgl32.Mat4 {
	return c.GetProjMatrix(width, height).Mul4(c.GetViewMatrix())
}

// UnprojectToPlane maps a cursor position to the world-space point where the
// picking ray crosses the z=0 plane the particles assemble on. Returns false
// when the ray is parallel to the plane or the matrix is singular.
func (c *CameraState) UnprojectToPlane(mouseX, mouseY float64, width, height int) (mgl32.Vec3, bool) {
	if width <= 0 || height <= 0 {
		return mgl32.Vec3{}, false
	}

	ndcX := float32(mouseX)/float32(width)*2 - 1
	ndcY := 1 - float32(mouseY)/float32(height)*2

	inv := c.ViewProj(width, height).Inv()
	if inv == (mgl32.Mat4{}) {
		return mgl32.Vec3{}, false
	}

	nearPt := inv.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	farPt := inv.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})
	if nearPt.W() == 0 || farPt.W() == 0 {
		return mgl32.Vec3{}, false
	}
	p0 := nearPt.Vec3().Mul(1 / nearPt.W())
	p1 := farPt.Vec3().Mul(1 / farPt.W())

	dir := p1.Sub(p0)
	if float32(math.Abs(float64(dir.Z()))) < 1e-8 {
		return mgl32.Vec3{}, false
	}
	t := -p0.Z() / dir.Z()
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return p0.Add(dir.Mul(t)), true
}
