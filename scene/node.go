package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/mogaika/scene_core/physics"
	"github.com/mogaika/scene_core/pool"
	"github.com/mogaika/scene_core/visit"
)

// ModelResource is the linkage to an externally owned template from which a
// node was instantiated. The graph never assumes exclusive access to the
// template contents, it only keeps the reference for diff/merge tooling.
type ModelResource interface {
	ResourceID() uuid.UUID
	ResourcePath() string
}

type Node struct {
	name             string
	kind             NodeKind
	localTransform   Transform
	visibility       bool
	globalVisibility bool
	parent           pool.Handle[Node]
	children         []pool.Handle[Node]
	globalTransform  mgl32.Mat4

	// Skeletal bind matrix. Authored once by loaders, otherwise opaque here.
	invBindPoseTransform mgl32.Mat4

	body pool.Handle[physics.Body]

	// resource + original track "this node is a (possibly diverged) copy of
	// node `original` inside template `resource`". After a file load only the
	// id/path survive; the resource manager re-binds live pointers.
	resource     ModelResource
	resourceID   uuid.UUID
	resourcePath string
	original     pool.Handle[Node]
}

func NewNode(kind NodeKind) Node {
	return Node{
		name:                 "Node",
		kind:                 kind,
		localTransform:       IdentityTransform(),
		visibility:           true,
		globalVisibility:     true,
		parent:               pool.NoneHandle[Node](),
		globalTransform:      mgl32.Ident4(),
		invBindPoseTransform: mgl32.Ident4(),
		body:                 pool.NoneHandle[physics.Body](),
		original:             pool.NoneHandle[Node](),
	}
}

// MakeCopy duplicates the node's own state but never its structure: children,
// parent and physics body are dropped and must be rebuilt by the caller.
// Cloning a subtree is a multi-node operation orchestrated by the Graph or
// the resource instancer, not by a node in isolation.
func (n *Node) MakeCopy(original pool.Handle[Node]) Node {
	return Node{
		name:                 n.name,
		kind:                 n.kind.Clone(),
		localTransform:       n.localTransform.Clone(),
		visibility:           n.visibility,
		globalVisibility:     n.globalVisibility,
		parent:               pool.NoneHandle[Node](),
		globalTransform:      n.globalTransform,
		invBindPoseTransform: n.invBindPoseTransform,
		body:                 pool.NoneHandle[physics.Body](),
		resource:             n.resource,
		resourceID:           n.resourceID,
		resourcePath:         n.resourcePath,
		original:             original,
	}
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) SetName(name string) {
	n.name = name
}

func (n *Node) Kind() *NodeKind {
	return &n.kind
}

func (n *Node) LocalTransform() *Transform {
	return &n.localTransform
}

func (n *Node) Visibility() bool {
	return n.visibility
}

func (n *Node) SetVisibility(visibility bool) {
	n.visibility = visibility
}

// GlobalVisibility is valid only after Graph.UpdateHierarchicalData.
func (n *Node) GlobalVisibility() bool {
	return n.globalVisibility
}

func (n *Node) Parent() pool.Handle[Node] {
	return n.parent
}

func (n *Node) Children() []pool.Handle[Node] {
	return n.children
}

// GlobalTransform is valid only after Graph.UpdateHierarchicalData.
func (n *Node) GlobalTransform() mgl32.Mat4 {
	return n.globalTransform
}

func (n *Node) InvBindPoseTransform() mgl32.Mat4 {
	return n.invBindPoseTransform
}

func (n *Node) SetInvBindPoseTransform(m mgl32.Mat4) {
	n.invBindPoseTransform = m
}

func (n *Node) Body() pool.Handle[physics.Body] {
	return n.body
}

func (n *Node) SetBody(body pool.Handle[physics.Body]) {
	n.body = body
}

func (n *Node) Resource() ModelResource {
	return n.resource
}

func (n *Node) SetResource(resource ModelResource) {
	n.resource = resource
	if resource != nil {
		n.resourceID = resource.ResourceID()
		n.resourcePath = resource.ResourcePath()
	} else {
		n.resourceID = uuid.UUID{}
		n.resourcePath = ""
	}
}

// ResourceID survives serialization even while the live resource pointer is
// not bound, so loaders can restore linkage after the fact.
func (n *Node) ResourceID() uuid.UUID {
	return n.resourceID
}

func (n *Node) ResourcePath() string {
	return n.resourcePath
}

// BindResource attaches a loaded template matching the persisted linkage.
func (n *Node) BindResource(resource ModelResource) {
	n.resource = resource
}

func (n *Node) OriginalHandle() pool.Handle[Node] {
	return n.original
}

func (n *Node) SetOriginalHandle(original pool.Handle[Node]) {
	n.original = original
}

func (n *Node) GlobalPosition() mgl32.Vec3 {
	return n.globalTransform.Col(3).Vec3()
}

func (n *Node) LookVector() mgl32.Vec3 {
	return n.globalTransform.Col(2).Vec3()
}

func (n *Node) SideVector() mgl32.Vec3 {
	return n.globalTransform.Col(0).Vec3()
}

func (n *Node) UpVector() mgl32.Vec3 {
	return n.globalTransform.Col(1).Vec3()
}

func (n *Node) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}

	if v.IsReading() {
		*n = NewNode(BaseKind())
	}

	// Kind id goes first: the reader must reconstruct the variant before the
	// payload region can be populated.
	kindId := n.kind.Id()
	if err := v.VisitUint8("KindId", &kindId); err != nil {
		return err
	}
	if v.IsReading() {
		kind, err := NewNodeKind(kindId)
		if err != nil {
			return err
		}
		n.kind = kind
	}
	if err := n.kind.Visit("Kind", v); err != nil {
		return err
	}

	if err := v.VisitString("Name", &n.name); err != nil {
		return err
	}
	if err := n.localTransform.Visit("Transform", v); err != nil {
		return err
	}
	if err := v.VisitBool("Visibility", &n.visibility); err != nil {
		return err
	}
	if err := n.parent.Visit("Parent", v); err != nil {
		return err
	}
	if err := pool.VisitHandleSlice("Children", &n.children, v); err != nil {
		return err
	}
	if err := n.body.Visit("Body", v); err != nil {
		return err
	}

	if v.IsReading() {
		var id []byte
		if err := v.VisitBytes("ResourceID", &id); err != nil {
			return err
		}
		if len(id) == 16 {
			copy(n.resourceID[:], id)
		}
	} else {
		id := n.resourceID[:]
		if err := v.VisitBytes("ResourceID", &id); err != nil {
			return err
		}
	}
	if err := v.VisitString("ResourcePath", &n.resourcePath); err != nil {
		return err
	}
	if err := n.original.Visit("Original", v); err != nil {
		return err
	}

	if err := v.VisitMat4("InvBindPoseTransform", &n.invBindPoseTransform); err != nil {
		return err
	}

	return v.LeaveRegion()
}
