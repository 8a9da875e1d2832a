package export

import (
	"io"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/scene_core/pool"
	"github.com/mogaika/scene_core/scene"
)

// BuildDocument converts a graph into a glTF document: hierarchy and local
// TRS mirrored node for node, mesh surfaces written as primitives. Lights,
// cameras and particle systems are exported as plain named nodes; their
// render parameters have no portable glTF mapping here.
func BuildDocument(g *scene.Graph) (*gltf.Document, error) {
	doc := gltf.NewDocument()

	rootNode, err := g.Get(g.Root())
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get scene root")
	}

	for _, c := range rootNode.Children() {
		index, err := exportNode(g, doc, c)
		if err != nil {
			return nil, err
		}
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, index)
	}

	return doc, nil
}

func exportNode(g *scene.Graph, doc *gltf.Document, h pool.Handle[scene.Node]) (uint32, error) {
	n, err := g.Get(h)
	if err != nil {
		return 0, errors.Wrapf(err, "Failed to get node %v", h)
	}

	t := n.LocalTransform()
	rotation := t.Rotation()
	gltfNode := &gltf.Node{
		Name:        n.Name(),
		Translation: t.Position(),
		Rotation:    rotation.V.Vec4(rotation.W),
		Scale:       t.Scale(),
	}

	if mesh := n.Kind().Mesh(); mesh != nil && len(mesh.Surfaces) != 0 {
		meshIndex, err := exportMesh(doc, n.Name(), mesh)
		if err != nil {
			return 0, errors.Wrapf(err, "Failed to export mesh of %q", n.Name())
		}
		gltfNode.Mesh = gltf.Index(meshIndex)
	}

	index := uint32(len(doc.Nodes))
	doc.Nodes = append(doc.Nodes, gltfNode)

	for _, c := range n.Children() {
		childIndex, err := exportNode(g, doc, c)
		if err != nil {
			return 0, err
		}
		gltfNode.Children = append(gltfNode.Children, childIndex)
	}

	return index, nil
}

func exportMesh(doc *gltf.Document, name string, mesh *scene.Mesh) (uint32, error) {
	gltfMesh := &gltf.Mesh{Name: name}

	for i := range mesh.Surfaces {
		surface := &mesh.Surfaces[i]
		if len(surface.Positions) == 0 {
			continue
		}

		positions := make([][3]float32, len(surface.Positions))
		for j, p := range surface.Positions {
			positions[j] = p
		}

		primitive := &gltf.Primitive{
			Attributes: map[string]uint32{
				gltf.POSITION: modeler.WritePosition(doc, positions),
			},
		}
		if len(surface.Indices) != 0 {
			primitive.Indices = gltf.Index(modeler.WriteIndices(doc, surface.Indices))
		}
		gltfMesh.Primitives = append(gltfMesh.Primitives, primitive)
	}

	if len(gltfMesh.Primitives) == 0 {
		return 0, errors.Errorf("Mesh %q has no exportable surfaces", name)
	}

	doc.Meshes = append(doc.Meshes, gltfMesh)
	return uint32(len(doc.Meshes) - 1), nil
}

// ExportBinary writes the document as a .glb stream.
func ExportBinary(w io.Writer, doc *gltf.Document) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}
