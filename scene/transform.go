package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scene_core/utils"
	"github.com/mogaika/scene_core/visit"
)

// Transform is a local position/rotation/scale triple with a lazily cached
// composed matrix. Setters invalidate the cache; Matrix recomputes on demand.
type Transform struct {
	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3

	matrix      mgl32.Mat4
	matrixDirty bool
}

func IdentityTransform() Transform {
	return Transform{
		rotation:    mgl32.QuatIdent(),
		scale:       mgl32.Vec3{1, 1, 1},
		matrixDirty: true,
	}
}

func (t *Transform) Position() mgl32.Vec3 {
	return t.position
}

func (t *Transform) Rotation() mgl32.Quat {
	return t.rotation
}

func (t *Transform) Scale() mgl32.Vec3 {
	return t.scale
}

func (t *Transform) SetPosition(position mgl32.Vec3) {
	t.position = position
	t.matrixDirty = true
}

func (t *Transform) SetRotation(rotation mgl32.Quat) {
	t.rotation = rotation
	t.matrixDirty = true
}

// angles in radians
func (t *Transform) SetRotationEuler(angles mgl32.Vec3) {
	t.SetRotation(utils.EulerToQuat(angles))
}

func (t *Transform) SetScale(scale mgl32.Vec3) {
	t.scale = scale
	t.matrixDirty = true
}

func (t *Transform) Offset(delta mgl32.Vec3) {
	t.SetPosition(t.position.Add(delta))
}

func (t *Transform) Matrix() mgl32.Mat4 {
	if t.matrixDirty {
		t.matrix = utils.TRSMatrix(t.position, t.rotation, t.scale)
		t.matrixDirty = false
	}
	return t.matrix
}

// Clone copies the authored fields. The matrix cache is never shared.
func (t *Transform) Clone() Transform {
	return Transform{
		position:    t.position,
		rotation:    t.rotation,
		scale:       t.scale,
		matrixDirty: true,
	}
}

func (t *Transform) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if v.IsReading() {
		*t = IdentityTransform()
	}
	if err := v.VisitVec3("Position", &t.position); err != nil {
		return err
	}
	if err := v.VisitQuat("Rotation", &t.rotation); err != nil {
		return err
	}
	if err := v.VisitVec3("Scale", &t.scale); err != nil {
		return err
	}
	return v.LeaveRegion()
}
