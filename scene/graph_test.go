package scene_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scene_core/pool"
	"github.com/mogaika/scene_core/scene"
)

func addNamed(t *testing.T, g *scene.Graph, parent pool.Handle[scene.Node], name string) pool.Handle[scene.Node] {
	t.Helper()
	n := scene.NewNode(scene.BaseKind())
	n.SetName(name)
	h, err := g.Add(parent, n)
	if err != nil {
		t.Fatalf("add %q: %v", name, err)
	}
	return h
}

// checkLinkage verifies bidirectional parent/children consistency for the
// whole graph.
func checkLinkage(t *testing.T, g *scene.Graph) {
	t.Helper()
	g.TraverseSubtree(g.Root(), func(h pool.Handle[scene.Node], n *scene.Node) bool {
		for _, c := range n.Children() {
			child, err := g.Get(c)
			if err != nil {
				t.Errorf("child %v of %q is dead: %v", c, n.Name(), err)
				continue
			}
			if !child.Parent().Equal(h) {
				t.Errorf("child %q parent mismatch", child.Name())
			}
		}
		if !n.Parent().IsNone() {
			p, err := g.Get(n.Parent())
			if err != nil {
				t.Errorf("parent of %q is dead: %v", n.Name(), err)
				return true
			}
			seen := 0
			for _, c := range p.Children() {
				if c.Equal(h) {
					seen++
				}
			}
			if seen != 1 {
				t.Errorf("node %q appears %d times in parent children", n.Name(), seen)
			}
		}
		return true
	})
}

func TestAddLinksParentAndChild(t *testing.T) {
	g := scene.NewGraph()

	a := addNamed(t, g, pool.NoneHandle[scene.Node](), "A")
	b := addNamed(t, g, a, "B")

	bn, err := g.Get(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bn.Parent().Equal(a) {
		t.Error("B parent is not A")
	}
	checkLinkage(t, g)

	if g.Len() != 3 { // root + A + B
		t.Errorf("len: %d", g.Len())
	}
}

func TestAddInvalidParent(t *testing.T) {
	g := scene.NewGraph()

	a := addNamed(t, g, pool.NoneHandle[scene.Node](), "A")
	if _, err := g.Remove(a); err != nil {
		t.Fatal(err)
	}

	_, err := g.Add(a, scene.NewNode(scene.BaseKind()))
	if !errors.Is(err, scene.ErrInvalidParent) {
		t.Errorf("expected ErrInvalidParent, got %v", err)
	}
}

func TestRemoveCascades(t *testing.T) {
	g := scene.NewGraph()

	a := addNamed(t, g, pool.NoneHandle[scene.Node](), "A")
	c := addNamed(t, g, a, "C")
	cc := addNamed(t, g, c, "CC")

	removed, err := g.Remove(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 3 {
		t.Errorf("removed %d handles, want 3", len(removed))
	}

	for _, h := range []pool.Handle[scene.Node]{a, c, cc} {
		if _, err := g.Get(h); !errors.Is(err, pool.ErrDangling) {
			t.Errorf("expected ErrDangling for %v, got %v", h, err)
		}
	}
	checkLinkage(t, g)
	if g.Len() != 1 {
		t.Errorf("len after cascade: %d", g.Len())
	}
}

func TestReparentCycleRejected(t *testing.T) {
	g := scene.NewGraph()

	a := addNamed(t, g, pool.NoneHandle[scene.Node](), "A")
	b := addNamed(t, g, pool.NoneHandle[scene.Node](), "B")

	if err := g.Reparent(b, a); err != nil {
		t.Fatal(err)
	}
	checkLinkage(t, g)

	rootNode, _ := g.Get(g.Root())
	for _, c := range rootNode.Children() {
		if c.Equal(b) {
			t.Error("B still listed under root")
		}
	}

	// A is now B's ancestor, so A under B must fail
	if err := g.Reparent(a, b); !errors.Is(err, scene.ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected, got %v", err)
	}
	if err := g.Reparent(a, a); !errors.Is(err, scene.ErrCycleDetected) {
		t.Errorf("self reparent: expected ErrCycleDetected, got %v", err)
	}
	checkLinkage(t, g)
}

func TestUpdateHierarchicalData(t *testing.T) {
	g := scene.NewGraph()

	a := addNamed(t, g, pool.NoneHandle[scene.Node](), "A")
	b := addNamed(t, g, a, "B")

	an, _ := g.Get(a)
	an.LocalTransform().SetPosition(mgl32.Vec3{1, 0, 0})
	an.SetVisibility(false)
	bn, _ := g.Get(b)
	bn.LocalTransform().SetPosition(mgl32.Vec3{0, 2, 0})

	g.UpdateHierarchicalData()

	bn, _ = g.Get(b)
	if got := bn.GlobalPosition(); !got.ApproxEqualThreshold(mgl32.Vec3{1, 2, 0}, 1e-6) {
		t.Errorf("B global position: %v", got)
	}
	if bn.GlobalVisibility() {
		t.Error("B global visibility must inherit hidden A")
	}
	if bn.Visibility() != true {
		t.Error("B authored visibility must stay true")
	}

	// idempotency
	first := bn.GlobalTransform()
	g.UpdateHierarchicalData()
	bn, _ = g.Get(b)
	if bn.GlobalTransform() != first {
		t.Error("second update changed global transform")
	}
}

func TestTraverseParentBeforeChild(t *testing.T) {
	g := scene.NewGraph()

	a := addNamed(t, g, pool.NoneHandle[scene.Node](), "A")
	b := addNamed(t, g, a, "B")
	addNamed(t, g, b, "C")
	addNamed(t, g, a, "D")

	visited := make(map[string]int)
	order := 0
	g.TraverseSubtree(g.Root(), func(h pool.Handle[scene.Node], n *scene.Node) bool {
		visited[n.Name()] = order
		order++
		return true
	})

	if !(visited["A"] < visited["B"] && visited["B"] < visited["C"]) {
		t.Errorf("traversal order: %v", visited)
	}
	if visited["A"] > visited["D"] {
		t.Errorf("traversal order: %v", visited)
	}
}

func TestFindByName(t *testing.T) {
	g := scene.NewGraph()

	a := addNamed(t, g, pool.NoneHandle[scene.Node](), "A")
	b := addNamed(t, g, a, "Target")
	addNamed(t, g, pool.NoneHandle[scene.Node](), "Target") // sibling later in order

	if found := g.FindByName(pool.NoneHandle[scene.Node](), "Target"); !found.Equal(b) {
		t.Errorf("found %v, want %v", found, b)
	}
	if found := g.FindByName(pool.NoneHandle[scene.Node](), "Missing"); !found.IsNone() {
		t.Errorf("found %v for missing name", found)
	}
}

func TestRevisionTracksStructuralEdits(t *testing.T) {
	g := scene.NewGraph()
	if g.Revision() != 0 {
		t.Errorf("fresh graph revision: %d", g.Revision())
	}

	a := addNamed(t, g, pool.NoneHandle[scene.Node](), "A")
	b := addNamed(t, g, a, "B")
	if g.Revision() != 2 {
		t.Errorf("revision after adds: %d", g.Revision())
	}

	if err := g.Reparent(b, pool.NoneHandle[scene.Node]()); err != nil {
		t.Fatal(err)
	}
	if g.Revision() != 3 {
		t.Errorf("revision after reparent: %d", g.Revision())
	}

	// failed mutations must not bump
	if err := g.Reparent(a, a); err == nil {
		t.Fatal("self reparent not rejected")
	}
	if g.Revision() != 3 {
		t.Errorf("revision after failed reparent: %d", g.Revision())
	}

	if _, err := g.Remove(a); err != nil {
		t.Fatal(err)
	}
	if g.Revision() != 4 {
		t.Errorf("revision after remove: %d", g.Revision())
	}
}

func TestFailedMutationLeavesGraphUnchanged(t *testing.T) {
	g := scene.NewGraph()

	a := addNamed(t, g, pool.NoneHandle[scene.Node](), "A")
	b := addNamed(t, g, a, "B")

	if err := g.Reparent(a, b); err == nil {
		t.Fatal("cycle not rejected")
	}

	an, _ := g.Get(a)
	if !an.Parent().Equal(g.Root()) {
		t.Error("A parent changed by failed reparent")
	}
	checkLinkage(t, g)
}
