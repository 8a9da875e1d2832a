package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// result in radians
func QuatToEuler(q mgl32.Quat) (e mgl32.Vec3) {
	sinr_cosp := float64(2 * (q.W*q.X() + q.Y()*q.Z()))
	cosr_cosp := float64(1 - 2*(q.X()*q.X()+q.Y()*q.Y()))

	e[0] = float32(math.Atan2(sinr_cosp, cosr_cosp))

	sinp := float64(2 * (q.W*q.Y() - q.Z()*q.X()))
	if math.Abs(sinp) >= 1 {
		e[1] = math.Pi / 2
		if sinp < 0 {
			e[1] *= -1
		}
	} else {
		e[1] = float32(math.Asin(sinp))
	}

	siny_cosp := float64(2 * (q.W*q.Z() + q.X()*q.Y()))
	cosy_cosp := float64(1 - 2*(q.Y()*q.Y()+q.Z()*q.Z()))
	e[2] = float32(math.Atan2(siny_cosp, cosy_cosp))

	return e
}

// input in radians
func EulerToQuat(v mgl32.Vec3) mgl32.Quat {
	return mgl32.AnglesToQuat(v[0], v[1], v[2], mgl32.XYZ)
}

// TRSMatrix composes translation * rotation * scale, the canonical local
// transform order (scale applied to vertices first).
func TRSMatrix(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	m := mgl32.Translate3D(position.X(), position.Y(), position.Z())
	m = m.Mul4(rotation.Mat4())
	return m.Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
}

// DecomposeTRS extracts translation, rotation and scale from an affine
// matrix. Assumes no shear (true for any matrix produced by TRSMatrix chains).
func DecomposeTRS(m mgl32.Mat4) (position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) {
	position = m.Col(3).Vec3()

	x := m.Col(0).Vec3()
	y := m.Col(1).Vec3()
	z := m.Col(2).Vec3()
	scale = mgl32.Vec3{x.Len(), y.Len(), z.Len()}

	rot := mgl32.Ident3()
	if scale.X() != 0 {
		rot.SetCol(0, x.Mul(1/scale.X()))
	}
	if scale.Y() != 0 {
		rot.SetCol(1, y.Mul(1/scale.Y()))
	}
	if scale.Z() != 0 {
		rot.SetCol(2, z.Mul(1/scale.Z()))
	}
	rotation = mgl32.Mat4ToQuat(rot.Mat4())

	return position, rotation, scale
}
