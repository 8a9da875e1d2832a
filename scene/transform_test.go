package scene_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scene_core/scene"
)

func TestIdentityTransformMatrix(t *testing.T) {
	tr := scene.IdentityTransform()
	if m := tr.Matrix(); m != mgl32.Ident4() {
		t.Errorf("identity transform matrix:\n%v", m)
	}
}

func TestTranslationColumn(t *testing.T) {
	tr := scene.IdentityTransform()
	tr.SetPosition(mgl32.Vec3{1, 2, 3})

	m := tr.Matrix()
	if got := m.Col(3); got != (mgl32.Vec4{1, 2, 3, 1}) {
		t.Errorf("translation column: %v", got)
	}
}

func TestMatrixCacheInvalidation(t *testing.T) {
	tr := scene.IdentityTransform()
	if tr.Matrix() != mgl32.Ident4() {
		t.Fatal("identity expected")
	}

	// every setter must invalidate the cached matrix
	tr.SetScale(mgl32.Vec3{2, 2, 2})
	if m := tr.Matrix(); m.At(0, 0) != 2 {
		t.Errorf("scale not applied after cache: %v", m)
	}

	tr.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}))
	before := tr.Matrix()
	tr.SetPosition(mgl32.Vec3{5, 0, 0})
	after := tr.Matrix()
	if before == after {
		t.Error("position change did not invalidate matrix")
	}
	if got := after.Col(3); got != (mgl32.Vec4{5, 0, 0, 1}) {
		t.Errorf("translation column: %v", got)
	}
}

func TestTRSOrder(t *testing.T) {
	// scale applies before rotation: local +X with scale 2 rotated 90deg
	// around Y must land at (0, 0, -2)
	tr := scene.IdentityTransform()
	tr.SetScale(mgl32.Vec3{2, 2, 2})
	tr.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}))

	p := mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, tr.Matrix())
	want := mgl32.Vec3{0, 0, -2}
	if !p.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("transformed point: %v, want %v", p, want)
	}
}

func TestCloneDoesNotShareCache(t *testing.T) {
	tr := scene.IdentityTransform()
	tr.SetPosition(mgl32.Vec3{1, 1, 1})
	tr.Matrix()

	c := tr.Clone()
	c.SetPosition(mgl32.Vec3{9, 9, 9})

	if got := tr.Matrix().Col(3); got != (mgl32.Vec4{1, 1, 1, 1}) {
		t.Errorf("original affected by clone edit: %v", got)
	}
	if got := c.Matrix().Col(3); got != (mgl32.Vec4{9, 9, 9, 1}) {
		t.Errorf("clone matrix: %v", got)
	}
}
