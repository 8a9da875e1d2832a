package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scene_core/visit"
)

// ParticleSystem emitter parameters. Simulation belongs to the renderer/vfx
// side; the graph stores authored state only.
type ParticleSystem struct {
	Acceleration mgl32.Vec3
	EmitRate     float32 // particles per second
	Lifetime     float32 // seconds
	MinVelocity  mgl32.Vec3
	MaxVelocity  mgl32.Vec3
}

func NewParticleSystem() *ParticleSystem {
	return &ParticleSystem{
		Acceleration: mgl32.Vec3{0, -9.81, 0},
		EmitRate:     25,
		Lifetime:     5,
		MinVelocity:  mgl32.Vec3{-1, 1, -1},
		MaxVelocity:  mgl32.Vec3{1, 2, 1},
	}
}

func (ps *ParticleSystem) Clone() *ParticleSystem {
	c := *ps
	return &c
}

func (ps *ParticleSystem) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := v.VisitVec3("Acceleration", &ps.Acceleration); err != nil {
		return err
	}
	if err := v.VisitFloat32("EmitRate", &ps.EmitRate); err != nil {
		return err
	}
	if err := v.VisitFloat32("Lifetime", &ps.Lifetime); err != nil {
		return err
	}
	if err := v.VisitVec3("MinVelocity", &ps.MinVelocity); err != nil {
		return err
	}
	if err := v.VisitVec3("MaxVelocity", &ps.MaxVelocity); err != nil {
		return err
	}
	return v.LeaveRegion()
}
