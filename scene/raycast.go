package scene

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scene_core/pool"
)

// Box is an axis-aligned bounding box. Empty boxes have Min > Max.
type Box struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func EmptyBox() Box {
	inf := float32(math.Inf(1))
	return Box{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func (b *Box) IsEmpty() bool {
	return b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y() || b.Min.Z() > b.Max.Z()
}

func (b *Box) AddPoint(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

func (b *Box) AddBox(o Box) {
	if o.IsEmpty() {
		return
	}
	b.AddPoint(o.Min)
	b.AddPoint(o.Max)
}

// Transformed returns the AABB of the box corners mapped through m.
func (b Box) Transformed(m mgl32.Mat4) Box {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBox()
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{b.Min.X(), b.Min.Y(), b.Min.Z()}
		if i&1 != 0 {
			corner[0] = b.Max.X()
		}
		if i&2 != 0 {
			corner[1] = b.Max.Y()
		}
		if i&4 != 0 {
			corner[2] = b.Max.Z()
		}
		out.AddPoint(mgl32.TransformCoordinate(corner, m))
	}
	return out
}

// RayIntersection is the slab test. Returns the smallest non-negative ray
// parameter t such that origin + dir*t lies on the box, if any.
func (b Box) RayIntersection(origin, dir mgl32.Vec3) (float32, bool) {
	if b.IsEmpty() {
		return 0, false
	}

	tMin := float32(math.Inf(-1))
	tMax := float32(math.Inf(1))
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if origin[i] < b.Min[i] || origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		t1 := (b.Min[i] - origin[i]) / dir[i]
		t2 := (b.Max[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
	}

	if tMin > tMax || tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		tMin = 0 // origin inside the box
	}
	return tMin, true
}

type RayHit struct {
	Node     pool.Handle[Node]
	Distance float32 // ray parameter of the entry point
}

// RayCastAll intersects the ray against world-space bounding boxes of all
// visible mesh nodes, sorted near to far. Equal distances keep traversal
// order. Requires up-to-date global transforms.
func (g *Graph) RayCastAll(origin, dir mgl32.Vec3) []RayHit {
	hits := make([]RayHit, 0)

	g.TraverseSubtree(g.root, func(h pool.Handle[Node], n *Node) bool {
		mesh := n.Kind().Mesh()
		if mesh == nil || !n.GlobalVisibility() {
			return true
		}
		box := mesh.BoundingBox().Transformed(n.GlobalTransform())
		if t, ok := box.RayIntersection(origin, dir); ok {
			hits = append(hits, RayHit{Node: h, Distance: t})
		}
		return true
	})

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

// RayCast returns the closest hit only.
func (g *Graph) RayCast(origin, dir mgl32.Vec3) (RayHit, bool) {
	hits := g.RayCastAll(origin, dir)
	if len(hits) == 0 {
		return RayHit{}, false
	}
	return hits[0], true
}
