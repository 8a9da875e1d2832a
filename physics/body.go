package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scene_core/pool"
)

// Body is the pose-only boundary with an external physics engine. The scene
// graph stores body handles but never synchronizes poses itself.
type Body struct {
	Position        mgl32.Vec3
	Rotation        mgl32.Quat
	LinearVelocity  mgl32.Vec3
	AngularVelocity mgl32.Vec3
}

func NewBody() Body {
	return Body{Rotation: mgl32.QuatIdent()}
}

type World struct {
	bodies pool.Pool[Body]
}

func (w *World) AddBody(b Body) pool.Handle[Body] {
	return w.bodies.Allocate(b)
}

func (w *World) RemoveBody(h pool.Handle[Body]) (Body, error) {
	return w.bodies.Free(h)
}

func (w *World) Body(h pool.Handle[Body]) (*Body, error) {
	return w.bodies.Get(h)
}

func (w *World) IsValidBody(h pool.Handle[Body]) bool {
	return w.bodies.IsValid(h)
}

func (w *World) Len() int {
	return w.bodies.Len()
}
