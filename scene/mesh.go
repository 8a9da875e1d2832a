package scene

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/scene_core/visit"
)

// Surface is one renderable primitive batch: positions plus triangle indices.
// The renderer owns uploading this to the GPU; the graph only stores and
// serializes it and derives bounding volumes for picking.
type Surface struct {
	Positions []mgl32.Vec3
	Indices   []uint32
}

func (s *Surface) BoundingBox() Box {
	box := EmptyBox()
	for _, p := range s.Positions {
		box.AddPoint(p)
	}
	return box
}

func packVec3s(in []mgl32.Vec3) []byte {
	out := make([]byte, len(in)*12)
	for i, v := range in {
		for j := 0; j < 3; j++ {
			binary.LittleEndian.PutUint32(out[i*12+j*4:], math.Float32bits(v[j]))
		}
	}
	return out
}

func unpackVec3s(in []byte) ([]mgl32.Vec3, error) {
	if len(in)%12 != 0 {
		return nil, errors.Errorf("Invalid vec3 array size %d", len(in))
	}
	out := make([]mgl32.Vec3, len(in)/12)
	for i := range out {
		for j := 0; j < 3; j++ {
			out[i][j] = math.Float32frombits(binary.LittleEndian.Uint32(in[i*12+j*4:]))
		}
	}
	return out, nil
}

func packUint32s(in []uint32) []byte {
	out := make([]byte, len(in)*4)
	for i, v := range in {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

func unpackUint32s(in []byte) ([]uint32, error) {
	if len(in)%4 != 0 {
		return nil, errors.Errorf("Invalid index array size %d", len(in))
	}
	out := make([]uint32, len(in)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(in[i*4:])
	}
	return out, nil
}

func (s *Surface) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}

	if v.IsReading() {
		var positions, indices []byte
		if err := v.VisitBytes("Positions", &positions); err != nil {
			return err
		}
		if err := v.VisitBytes("Indices", &indices); err != nil {
			return err
		}
		var err error
		if s.Positions, err = unpackVec3s(positions); err != nil {
			return err
		}
		if s.Indices, err = unpackUint32s(indices); err != nil {
			return err
		}
	} else {
		positions := packVec3s(s.Positions)
		indices := packUint32s(s.Indices)
		if err := v.VisitBytes("Positions", &positions); err != nil {
			return err
		}
		if err := v.VisitBytes("Indices", &indices); err != nil {
			return err
		}
	}

	return v.LeaveRegion()
}

type Mesh struct {
	Surfaces []Surface
}

func NewMesh() *Mesh {
	return &Mesh{}
}

func (m *Mesh) Clone() *Mesh {
	c := &Mesh{Surfaces: make([]Surface, len(m.Surfaces))}
	for i := range m.Surfaces {
		c.Surfaces[i] = Surface{
			Positions: append([]mgl32.Vec3(nil), m.Surfaces[i].Positions...),
			Indices:   append([]uint32(nil), m.Surfaces[i].Indices...),
		}
	}
	return c
}

// BoundingBox aggregates surface bounds in mesh-local space.
func (m *Mesh) BoundingBox() Box {
	box := EmptyBox()
	for i := range m.Surfaces {
		box.AddBox(m.Surfaces[i].BoundingBox())
	}
	return box
}

func (m *Mesh) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}

	count := uint32(len(m.Surfaces))
	if err := v.VisitUint32("SurfaceCount", &count); err != nil {
		return err
	}
	if v.IsReading() {
		m.Surfaces = make([]Surface, count)
	}
	for i := range m.Surfaces {
		if err := m.Surfaces[i].Visit(fmt.Sprintf("Surface%d", i), v); err != nil {
			return err
		}
	}

	return v.LeaveRegion()
}
