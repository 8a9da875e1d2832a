package export_test

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scene_core/export"
	"github.com/mogaika/scene_core/scene"
)

func TestBuildDocument(t *testing.T) {
	g := scene.NewGraph()

	parent := scene.NewNode(scene.BaseKind())
	parent.SetName("Group")
	parent.LocalTransform().SetPosition(mgl32.Vec3{1, 2, 3})
	parentHandle, err := g.Add(g.Root(), parent)
	if err != nil {
		t.Fatal(err)
	}

	tri := scene.NewNode(scene.MeshKind(&scene.Mesh{
		Surfaces: []scene.Surface{{
			Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Indices:   []uint32{0, 1, 2},
		}},
	}))
	tri.SetName("Tri")
	if _, err := g.Add(parentHandle, tri); err != nil {
		t.Fatal(err)
	}

	g.UpdateHierarchicalData()

	doc, err := export.BuildDocument(g)
	if err != nil {
		t.Fatal(err)
	}

	// the scene root itself is not exported
	if len(doc.Nodes) != 2 {
		t.Fatalf("nodes: %d", len(doc.Nodes))
	}
	if len(doc.Scenes[0].Nodes) != 1 {
		t.Fatalf("top-level nodes: %d", len(doc.Scenes[0].Nodes))
	}

	group := doc.Nodes[doc.Scenes[0].Nodes[0]]
	if group.Name != "Group" {
		t.Errorf("name %q", group.Name)
	}
	if group.Translation != [3]float32{1, 2, 3} {
		t.Errorf("translation %v", group.Translation)
	}
	if len(group.Children) != 1 {
		t.Fatalf("children: %d", len(group.Children))
	}

	child := doc.Nodes[group.Children[0]]
	if child.Name != "Tri" || child.Mesh == nil {
		t.Errorf("child: %+v", child)
	}
	if len(doc.Meshes) != 1 || len(doc.Meshes[0].Primitives) != 1 {
		t.Errorf("meshes: %+v", doc.Meshes)
	}

	var buf bytes.Buffer
	if err := export.ExportBinary(&buf, doc); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("empty glb output")
	}
}
