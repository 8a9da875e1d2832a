package scene

import (
	"github.com/pkg/errors"

	"github.com/mogaika/scene_core/visit"
)

// Variant ids are persisted in scene files and must never be renumbered.
const (
	KIND_BASE            = 0
	KIND_LIGHT           = 1
	KIND_CAMERA          = 2
	KIND_MESH            = 3
	KIND_PARTICLE_SYSTEM = 4
)

var ErrUnknownVariant = errors.New("unknown node kind")

// NodeKind is the closed variant union of node payloads. Exactly one payload
// pointer matches the id; dispatch is a tag switch, not an interface chain,
// because serialization must reconstruct the variant from the persisted id
// before populating it.
type NodeKind struct {
	id             uint8
	light          *Light
	camera         *Camera
	mesh           *Mesh
	particleSystem *ParticleSystem
}

func BaseKind() NodeKind {
	return NodeKind{id: KIND_BASE}
}

func LightKind(l *Light) NodeKind {
	if l == nil {
		l = NewLight()
	}
	return NodeKind{id: KIND_LIGHT, light: l}
}

func CameraKind(c *Camera) NodeKind {
	if c == nil {
		c = NewCamera()
	}
	return NodeKind{id: KIND_CAMERA, camera: c}
}

func MeshKind(m *Mesh) NodeKind {
	if m == nil {
		m = NewMesh()
	}
	return NodeKind{id: KIND_MESH, mesh: m}
}

func ParticleSystemKind(ps *ParticleSystem) NodeKind {
	if ps == nil {
		ps = NewParticleSystem()
	}
	return NodeKind{id: KIND_PARTICLE_SYSTEM, particleSystem: ps}
}

// NewNodeKind constructs a default-initialized variant from a persisted id.
func NewNodeKind(id uint8) (NodeKind, error) {
	switch id {
	case KIND_BASE:
		return BaseKind(), nil
	case KIND_LIGHT:
		return LightKind(nil), nil
	case KIND_CAMERA:
		return CameraKind(nil), nil
	case KIND_MESH:
		return MeshKind(nil), nil
	case KIND_PARTICLE_SYSTEM:
		return ParticleSystemKind(nil), nil
	default:
		return NodeKind{}, errors.Wrapf(ErrUnknownVariant, "Invalid node kind %d", id)
	}
}

func (k *NodeKind) Id() uint8 {
	return k.id
}

func (k *NodeKind) Light() *Light {
	return k.light
}

func (k *NodeKind) Camera() *Camera {
	return k.camera
}

func (k *NodeKind) Mesh() *Mesh {
	return k.mesh
}

func (k *NodeKind) ParticleSystem() *ParticleSystem {
	return k.particleSystem
}

func (k *NodeKind) Clone() NodeKind {
	switch k.id {
	case KIND_LIGHT:
		return NodeKind{id: k.id, light: k.light.Clone()}
	case KIND_CAMERA:
		return NodeKind{id: k.id, camera: k.camera.Clone()}
	case KIND_MESH:
		return NodeKind{id: k.id, mesh: k.mesh.Clone()}
	case KIND_PARTICLE_SYSTEM:
		return NodeKind{id: k.id, particleSystem: k.particleSystem.Clone()}
	default:
		return NodeKind{id: k.id}
	}
}

func (k *NodeKind) Visit(name string, v *visit.Visitor) error {
	switch k.id {
	case KIND_BASE:
		return nil
	case KIND_LIGHT:
		return k.light.Visit(name, v)
	case KIND_CAMERA:
		return k.camera.Visit(name, v)
	case KIND_MESH:
		return k.mesh.Visit(name, v)
	case KIND_PARTICLE_SYSTEM:
		return k.particleSystem.Visit(name, v)
	default:
		return errors.Wrapf(ErrUnknownVariant, "Cannot visit node kind %d", k.id)
	}
}
