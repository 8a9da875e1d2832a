package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scene_core/visit"
)

// Light render parameters. Consumed by the renderer, never interpreted by
// the graph itself.
type Light struct {
	Color     mgl32.Vec3
	Radius    float32
	ConeAngle float32 // radians, 0 for omni lights
}

func NewLight() *Light {
	return &Light{
		Color:  mgl32.Vec3{1, 1, 1},
		Radius: 10,
	}
}

func (l *Light) Clone() *Light {
	c := *l
	return &c
}

func (l *Light) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := v.VisitVec3("Color", &l.Color); err != nil {
		return err
	}
	if err := v.VisitFloat32("Radius", &l.Radius); err != nil {
		return err
	}
	if err := v.VisitFloat32("ConeAngle", &l.ConeAngle); err != nil {
		return err
	}
	return v.LeaveRegion()
}
