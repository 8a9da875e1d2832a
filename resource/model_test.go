package resource_test

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scene_core/pool"
	"github.com/mogaika/scene_core/resource"
	"github.com/mogaika/scene_core/scene"
)

// lampTemplate builds a template with a mesh root and a light child.
func lampTemplate(t *testing.T) (*resource.Model, pool.Handle[scene.Node], pool.Handle[scene.Node]) {
	t.Helper()
	g := scene.NewGraph()

	base := scene.NewNode(scene.MeshKind(&scene.Mesh{
		Surfaces: []scene.Surface{{
			Positions: []mgl32.Vec3{{-1, 0, -1}, {1, 2, 1}},
		}},
	}))
	base.SetName("LampBase")
	baseHandle, err := g.Add(g.Root(), base)
	if err != nil {
		t.Fatal(err)
	}

	bulb := scene.NewNode(scene.LightKind(&scene.Light{Color: mgl32.Vec3{1, 1, 0.8}, Radius: 4}))
	bulb.SetName("Bulb")
	bulb.LocalTransform().SetPosition(mgl32.Vec3{0, 2, 0})
	bulbHandle, err := g.Add(baseHandle, bulb)
	if err != nil {
		t.Fatal(err)
	}

	g.UpdateHierarchicalData()
	return resource.NewModel("models/lamp.scg", g), baseHandle, bulbHandle
}

func TestInstantiateSubtree(t *testing.T) {
	model, baseHandle, bulbHandle := lampTemplate(t)

	target := scene.NewGraph()
	root, mapping, err := model.InstantiateFrom(target, pool.NoneHandle[scene.Node](), baseHandle)
	if err != nil {
		t.Fatal(err)
	}

	if len(mapping) != 2 {
		t.Errorf("mapping size %d", len(mapping))
	}

	copiedBase, err := target.Get(root)
	if err != nil {
		t.Fatal(err)
	}
	if copiedBase.Name() != "LampBase" {
		t.Errorf("name %q", copiedBase.Name())
	}
	if !copiedBase.OriginalHandle().Equal(baseHandle) {
		t.Error("original handle not set on copy root")
	}
	if copiedBase.Resource() != model {
		t.Error("resource reference not set")
	}
	if copiedBase.ResourceID() != model.ResourceID() {
		t.Error("resource id not mirrored")
	}

	if len(copiedBase.Children()) != 1 {
		t.Fatalf("children %d", len(copiedBase.Children()))
	}
	copiedBulb, err := target.Get(copiedBase.Children()[0])
	if err != nil {
		t.Fatal(err)
	}
	if !copiedBulb.OriginalHandle().Equal(bulbHandle) {
		t.Error("bulb original handle mismatch")
	}
	if got := copiedBulb.Kind().Light(); got == nil || got.Radius != 4 {
		t.Errorf("bulb light payload: %+v", got)
	}
}

func TestInstantiateCopiesAreIndependent(t *testing.T) {
	model, baseHandle, _ := lampTemplate(t)
	target := scene.NewGraph()

	handles := make([]pool.Handle[scene.Node], 3)
	for i := range handles {
		h, _, err := model.InstantiateFrom(target, pool.NoneHandle[scene.Node](), baseHandle)
		if err != nil {
			t.Fatal(err)
		}
		handles[i] = h
	}

	// all copies trace back to the same template node
	for _, h := range handles {
		n, err := target.Get(h)
		if err != nil {
			t.Fatal(err)
		}
		if !n.OriginalHandle().Equal(baseHandle) {
			t.Error("copy lost original handle")
		}
	}

	// mutating one copy must not leak into the others or the template
	first, _ := target.Get(handles[0])
	first.SetName("Diverged")
	first.Kind().Mesh().Surfaces[0].Positions[0] = mgl32.Vec3{99, 99, 99}

	second, _ := target.Get(handles[1])
	if second.Name() != "LampBase" {
		t.Error("name edit leaked between copies")
	}
	if second.Kind().Mesh().Surfaces[0].Positions[0] == (mgl32.Vec3{99, 99, 99}) {
		t.Error("mesh payload shared between copies")
	}

	model.WithGraph(func(g *scene.Graph) error {
		n, err := g.Get(baseHandle)
		if err != nil {
			t.Fatal(err)
		}
		if n.Name() != "LampBase" {
			t.Error("template mutated by copy edit")
		}
		return nil
	})
}

func TestResourceLinkageSurvivesRoundTrip(t *testing.T) {
	model, baseHandle, _ := lampTemplate(t)
	target := scene.NewGraph()

	if _, _, err := model.InstantiateFrom(target, pool.NoneHandle[scene.Node](), baseHandle); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := target.Save(&buf); err != nil {
		t.Fatal(err)
	}
	loaded := scene.NewGraph()
	if err := loaded.Load(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}

	h := loaded.FindByName(pool.NoneHandle[scene.Node](), "LampBase")
	if h.IsNone() {
		t.Fatal("copy not found after load")
	}
	n, _ := loaded.Get(h)
	if n.Resource() != nil {
		t.Error("live resource pointer must not survive serialization")
	}
	if n.ResourceID() != model.ResourceID() {
		t.Error("resource id lost")
	}
	if n.ResourcePath() != model.ResourcePath() {
		t.Errorf("resource path %q", n.ResourcePath())
	}
	if !n.OriginalHandle().Equal(baseHandle) {
		t.Error("original handle lost")
	}

	// the loader can re-bind the live template afterwards
	n.BindResource(model)
	if n.Resource() != model {
		t.Error("BindResource failed")
	}
}

func TestSnapshotModel(t *testing.T) {
	g := scene.NewGraph()
	n := scene.NewNode(scene.BaseKind())
	n.SetName("Prop")
	if _, err := g.Add(g.Root(), n); err != nil {
		t.Fatal(err)
	}

	model, err := resource.SnapshotModel("mem/prop", g)
	if err != nil {
		t.Fatal(err)
	}

	// snapshot is a deep copy: later edits to the live graph are invisible
	h := g.FindByName(pool.NoneHandle[scene.Node](), "Prop")
	live, _ := g.Get(h)
	live.SetName("Renamed")

	model.WithGraph(func(tg *scene.Graph) error {
		if tg.FindByName(pool.NoneHandle[scene.Node](), "Prop").IsNone() {
			t.Error("snapshot lost node")
		}
		if !tg.FindByName(pool.NoneHandle[scene.Node](), "Renamed").IsNone() {
			t.Error("snapshot shares state with live graph")
		}
		return nil
	})
}

func TestInstantiateWholeTemplate(t *testing.T) {
	model, _, _ := lampTemplate(t)
	target := scene.NewGraph()

	handles, err := model.Instantiate(target, pool.NoneHandle[scene.Node]())
	if err != nil {
		t.Fatal(err)
	}
	if len(handles) != 1 {
		t.Fatalf("top-level handles: %d", len(handles))
	}
	if target.Len() != 3 { // root + base + bulb
		t.Errorf("target len %d", target.Len())
	}
}
