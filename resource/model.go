package resource

import (
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mogaika/scene_core/pool"
	"github.com/mogaika/scene_core/scene"
	"github.com/mogaika/scene_core/visit"
)

// Model is a shared scene template. Multiple graphs may instantiate nodes
// from the same model concurrently, so template access goes through the
// model lock; instantiated copies are owned by their target graph and need
// no locking here.
type Model struct {
	mu    sync.Mutex
	id    uuid.UUID
	path  string
	graph *scene.Graph
}

func NewModel(path string, graph *scene.Graph) *Model {
	if graph == nil {
		graph = scene.NewGraph()
	}
	return &Model{
		id:    uuid.New(),
		path:  path,
		graph: graph,
	}
}

func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open model %q", path)
	}
	defer f.Close()

	g := scene.NewGraph()
	if err := g.Load(f); err != nil {
		return nil, errors.Wrapf(err, "Failed to load model %q", path)
	}
	g.UpdateHierarchicalData()

	return NewModel(path, g), nil
}

// SnapshotModel captures a deep copy of a live graph as a new template, so
// editors can turn an authored subtree into a reusable prefab without going
// through a file.
func SnapshotModel(path string, g *scene.Graph) (*Model, error) {
	copied := scene.NewGraph()
	if err := visit.DeepCopyInto(g, copied); err != nil {
		return nil, errors.Wrapf(err, "Failed to snapshot graph")
	}
	copied.UpdateHierarchicalData()
	return NewModel(path, copied), nil
}

func (m *Model) ResourceID() uuid.UUID {
	return m.id
}

func (m *Model) ResourcePath() string {
	return m.path
}

// WithGraph runs f with the template graph under the model lock.
func (m *Model) WithGraph(f func(g *scene.Graph) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return f(m.graph)
}

func (m *Model) Save(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to create %q", path)
	}
	defer f.Close()
	return m.graph.Save(f)
}

// InstantiateFrom stamps the template subtree rooted at src into target under
// parent. Every copy keeps the resource linkage and records the template
// handle it diverged from, so external tooling can diff or re-apply the
// template later. Returns the copied subtree root and the full original to
// copy handle mapping.
func (m *Model) InstantiateFrom(target *scene.Graph, parent pool.Handle[scene.Node],
	src pool.Handle[scene.Node]) (pool.Handle[scene.Node], map[pool.Handle[scene.Node]]pool.Handle[scene.Node], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mapping := make(map[pool.Handle[scene.Node]]pool.Handle[scene.Node])
	root, err := m.instantiateNode(target, parent, src, mapping)
	if err != nil {
		return pool.NoneHandle[scene.Node](), nil, err
	}
	return root, mapping, nil
}

func (m *Model) instantiateNode(target *scene.Graph, parent pool.Handle[scene.Node],
	src pool.Handle[scene.Node],
	mapping map[pool.Handle[scene.Node]]pool.Handle[scene.Node]) (pool.Handle[scene.Node], error) {

	srcNode, err := m.graph.Get(src)
	if err != nil {
		return pool.NoneHandle[scene.Node](), errors.Wrapf(err, "Failed to get template node %v", src)
	}

	copied := srcNode.MakeCopy(src)
	copied.SetResource(m)

	h, err := target.Add(parent, copied)
	if err != nil {
		return pool.NoneHandle[scene.Node](), errors.Wrapf(err, "Failed to add copy of %v", src)
	}
	mapping[src] = h

	// srcNode children slice may be shared with the live template; take a
	// snapshot because target.Add never touches m.graph.
	children := append([]pool.Handle[scene.Node](nil), srcNode.Children()...)
	for _, c := range children {
		if _, err := m.instantiateNode(target, h, c, mapping); err != nil {
			return pool.NoneHandle[scene.Node](), err
		}
	}
	return h, nil
}

// Instantiate stamps the whole template (children of its root) into target
// under parent and returns the new top-level handles.
func (m *Model) Instantiate(target *scene.Graph, parent pool.Handle[scene.Node]) ([]pool.Handle[scene.Node], error) {
	m.mu.Lock()
	rootNode, err := m.graph.Get(m.graph.Root())
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	topLevel := append([]pool.Handle[scene.Node](nil), rootNode.Children()...)
	m.mu.Unlock()

	handles := make([]pool.Handle[scene.Node], 0, len(topLevel))
	for _, src := range topLevel {
		h, _, err := m.InstantiateFrom(target, parent, src)
		if err != nil {
			return handles, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}
