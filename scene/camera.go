package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scene_core/visit"
)

type Camera struct {
	Fov     float32 // radians
	ZNear   float32
	ZFar    float32
	Enabled bool
}

func NewCamera() *Camera {
	return &Camera{
		Fov:     mgl32.DegToRad(75),
		ZNear:   0.025,
		ZFar:    2048,
		Enabled: true,
	}
}

func (c *Camera) Clone() *Camera {
	n := *c
	return &n
}

func (c *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(c.Fov, aspect, c.ZNear, c.ZFar)
}

// ViewMatrix derives the view from the owning node global transform.
func (c *Camera) ViewMatrix(globalTransform mgl32.Mat4) mgl32.Mat4 {
	return globalTransform.Inv()
}

func (c *Camera) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := v.VisitFloat32("Fov", &c.Fov); err != nil {
		return err
	}
	if err := v.VisitFloat32("ZNear", &c.ZNear); err != nil {
		return err
	}
	if err := v.VisitFloat32("ZFar", &c.ZFar); err != nil {
		return err
	}
	if err := v.VisitBool("Enabled", &c.Enabled); err != nil {
		return err
	}
	return v.LeaveRegion()
}
