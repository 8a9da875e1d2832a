package scene

import (
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/scene_core/pool"
	"github.com/mogaika/scene_core/visit"
)

var (
	ErrInvalidParent = errors.New("invalid parent handle")
	ErrCycleDetected = errors.New("reparent would create a cycle")
)

// Graph owns the node pool and maintains the tree invariants: every non-root
// node is referenced by its parent children list exactly once, parent chains
// terminate at the root, and global transform/visibility are derived strictly
// top-down.
//
// Single-writer discipline: structural mutation and UpdateHierarchicalData
// need exclusive access, queries need shared access. The graph itself does
// no locking.
type Graph struct {
	nodes pool.Pool[Node]
	root  pool.Handle[Node]

	// Bumped on every successful structural edit and persisted with the
	// scene, so inspection clients can cheaply detect hierarchy changes.
	revision uint64
}

func NewGraph() *Graph {
	g := &Graph{}
	root := NewNode(BaseKind())
	root.SetName("__root__")
	g.root = g.nodes.Allocate(root)
	return g
}

func (g *Graph) Root() pool.Handle[Node] {
	return g.root
}

func (g *Graph) Len() int {
	return g.nodes.Len()
}

func (g *Graph) Revision() uint64 {
	return g.revision
}

func (g *Graph) IsValidHandle(h pool.Handle[Node]) bool {
	return g.nodes.IsValid(h)
}

func (g *Graph) Get(h pool.Handle[Node]) (*Node, error) {
	return g.nodes.Get(h)
}

// Add allocates the node and links it under parent (the root when parent is
// none). The node must not already be linked: its parent and children fields
// are overwritten.
func (g *Graph) Add(parent pool.Handle[Node], node Node) (pool.Handle[Node], error) {
	if parent.IsNone() {
		parent = g.root
	} else if !g.nodes.IsValid(parent) {
		return pool.NoneHandle[Node](), errors.Wrapf(ErrInvalidParent, "Failed to add %q under %v", node.Name(), parent)
	}

	node.parent = parent
	node.children = nil
	h := g.nodes.Allocate(node)

	// Fetch the parent only after Allocate: the pool may have grown.
	p := g.nodes.MustGet(parent)
	p.children = append(p.children, h)
	g.revision++
	return h, nil
}

func (g *Graph) detach(h pool.Handle[Node]) {
	n := g.nodes.MustGet(h)
	if n.parent.IsNone() {
		return
	}
	p, err := g.nodes.Get(n.parent)
	if err == nil {
		for i, c := range p.children {
			if c.Equal(h) {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	n.parent = pool.NoneHandle[Node]()
}

// Remove detaches the node and cascade-deletes its whole subtree: children
// are exclusively owned and cannot outlive their parent. Returns the freed
// handles (top-down order) so callers can release cross-references such as
// physics bodies.
func (g *Graph) Remove(h pool.Handle[Node]) ([]pool.Handle[Node], error) {
	if !g.nodes.IsValid(h) {
		return nil, errors.Wrapf(pool.ErrDangling, "Failed to remove %v", h)
	}
	if h.Equal(g.root) {
		return nil, errors.Errorf("Cannot remove scene root")
	}

	g.detach(h)

	removed := make([]pool.Handle[Node], 0)
	stack := []pool.Handle[Node]{h}
	for len(stack) != 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		removed = append(removed, cur)
		n := g.nodes.MustGet(cur)
		stack = append(stack, n.children...)
	}

	for _, cur := range removed {
		if _, err := g.nodes.Free(cur); err != nil {
			return removed, errors.Wrapf(err, "Failed to free subtree node %v", cur)
		}
	}
	g.revision++
	return removed, nil
}

// isDescendant reports whether h is q or lies in the subtree of q.
func (g *Graph) isDescendant(h, q pool.Handle[Node]) bool {
	for !h.IsNone() {
		if h.Equal(q) {
			return true
		}
		n, err := g.nodes.Get(h)
		if err != nil {
			return false
		}
		h = n.parent
	}
	return false
}

// Reparent atomically detaches the node and attaches it under newParent
// (the root when none). Rejected when newParent is the node itself or any
// of its descendants.
func (g *Graph) Reparent(h, newParent pool.Handle[Node]) error {
	if !g.nodes.IsValid(h) {
		return errors.Wrapf(pool.ErrDangling, "Failed to reparent %v", h)
	}
	if h.Equal(g.root) {
		return errors.Errorf("Cannot reparent scene root")
	}
	if newParent.IsNone() {
		newParent = g.root
	} else if !g.nodes.IsValid(newParent) {
		return errors.Wrapf(ErrInvalidParent, "Failed to reparent %v under %v", h, newParent)
	}
	if g.isDescendant(newParent, h) {
		return errors.Wrapf(ErrCycleDetected, "Failed to reparent %v under %v", h, newParent)
	}

	g.detach(h)
	g.nodes.MustGet(h).parent = newParent
	p := g.nodes.MustGet(newParent)
	p.children = append(p.children, h)
	g.revision++
	return nil
}

// UpdateHierarchicalData recomputes global transforms and visibility in one
// top-down pass, each node strictly after its parent. Callers batch local
// edits and invoke this once before rendering/picking/physics sync read
// global state; globals are stale until then.
func (g *Graph) UpdateHierarchicalData() {
	type entry struct {
		handle           pool.Handle[Node]
		parentTransform  mgl32.Mat4
		parentVisibility bool
	}

	stack := []entry{{handle: g.root, parentTransform: mgl32.Ident4(), parentVisibility: true}}
	for len(stack) != 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n, err := g.nodes.Get(e.handle)
		if err != nil {
			continue
		}
		n.globalTransform = e.parentTransform.Mul4(n.localTransform.Matrix())
		n.globalVisibility = e.parentVisibility && n.visibility

		for _, c := range n.children {
			stack = append(stack, entry{
				handle:           c,
				parentTransform:  n.globalTransform,
				parentVisibility: n.globalVisibility,
			})
		}
	}
}

// TraverseSubtree walks the subtree rooted at h, parent before children.
// Return false from the callback to stop.
func (g *Graph) TraverseSubtree(h pool.Handle[Node], f func(h pool.Handle[Node], n *Node) bool) error {
	if !g.nodes.IsValid(h) {
		return errors.Wrapf(pool.ErrDangling, "Failed to traverse from %v", h)
	}
	stack := []pool.Handle[Node]{h}
	for len(stack) != 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, err := g.nodes.Get(cur)
		if err != nil {
			continue
		}
		if !f(cur, n) {
			return nil
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	return nil
}

// FindByName returns the first node named name in the subtree of from
// (pre-order), or a none handle.
func (g *Graph) FindByName(from pool.Handle[Node], name string) pool.Handle[Node] {
	if from.IsNone() {
		from = g.root
	}
	found := pool.NoneHandle[Node]()
	g.TraverseSubtree(from, func(h pool.Handle[Node], n *Node) bool {
		if n.Name() == name {
			found = h
			return false
		}
		return true
	})
	return found
}

func (g *Graph) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := pool.VisitPool[Node]("Nodes", &g.nodes, v); err != nil {
		return err
	}
	if err := g.root.Visit("Root", v); err != nil {
		return err
	}
	if err := v.VisitUint64("Revision", &g.revision); err != nil {
		return err
	}
	return v.LeaveRegion()
}

func (g *Graph) Save(w io.Writer) error {
	return visit.SaveVisiter(w, "Scene", g)
}

// Load replaces the graph contents from a stream. Global transforms are not
// persisted; call UpdateHierarchicalData before reading global state.
func (g *Graph) Load(r io.Reader) error {
	return visit.LoadVisiter(r, "Scene", g)
}
