package visit

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/scene_core/config"
)

const VISITOR_MAGIC = 0x30474353 // "SCG0"
const VISITOR_VERSION = 1

const (
	FIELD_BOOL = iota
	FIELD_UINT8
	FIELD_INT32
	FIELD_UINT32
	FIELD_UINT64
	FIELD_FLOAT32
	FIELD_STRING
	FIELD_VEC3
	FIELD_QUAT
	FIELD_MAT4
	FIELD_BYTES
)

var ErrRegionNotFound = errors.New("region not found")

// Visiter is implemented by every serializable entity. The same Visit method
// serves writing, reading and deep copying depending on the visitor mode.
type Visiter interface {
	Visit(name string, v *Visitor) error
}

type field struct {
	name string
	kind uint8
	data []byte
}

type region struct {
	name     string
	fields   []field
	children []*region
}

func (r *region) findChild(name string) *region {
	for _, c := range r.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (r *region) findField(name string) *field {
	for i := range r.fields {
		if r.fields[i].name == name {
			return &r.fields[i]
		}
	}
	return nil
}

// Visitor holds a tree of named regions with named binary fields. In writing
// mode Visit calls build the tree, in reading mode they pull fields out of it.
// Fields are addressed by name, so code-side reordering keeps old files
// loadable; unknown fields in a file are simply never asked for.
type Visitor struct {
	reading bool
	root    *region
	stack   []*region
}

func NewVisitor() *Visitor {
	root := &region{name: "__root__"}
	return &Visitor{root: root, stack: []*region{root}}
}

func (v *Visitor) IsReading() bool {
	return v.reading
}

func (v *Visitor) current() *region {
	return v.stack[len(v.stack)-1]
}

func (v *Visitor) EnterRegion(name string) error {
	if v.reading {
		child := v.current().findChild(name)
		if child == nil {
			return errors.Wrapf(ErrRegionNotFound, "%q in %q", name, v.current().name)
		}
		v.stack = append(v.stack, child)
		return nil
	}

	if v.current().findChild(name) != nil {
		return errors.Errorf("Duplicate region %q in %q", name, v.current().name)
	}
	child := &region{name: name}
	v.current().children = append(v.current().children, child)
	v.stack = append(v.stack, child)
	return nil
}

func (v *Visitor) LeaveRegion() error {
	if len(v.stack) <= 1 {
		return errors.New("Unbalanced LeaveRegion")
	}
	v.stack = v.stack[:len(v.stack)-1]
	return nil
}

func (v *Visitor) visitField(name string, kind uint8, size int, read func([]byte), write func() []byte) error {
	if v.reading {
		f := v.current().findField(name)
		if f == nil {
			// Absent field keeps the in-memory default.
			return nil
		}
		if f.kind != kind {
			return errors.Errorf("Field %q kind mismatch: file %d, code %d", name, f.kind, kind)
		}
		if size >= 0 && len(f.data) != size {
			return errors.Errorf("Field %q size mismatch: %d != %d", name, len(f.data), size)
		}
		read(f.data)
		return nil
	}

	if v.current().findField(name) != nil {
		return errors.Errorf("Duplicate field %q in %q", name, v.current().name)
	}
	v.current().fields = append(v.current().fields, field{name: name, kind: kind, data: write()})
	return nil
}

func (v *Visitor) VisitBool(name string, val *bool) error {
	return v.visitField(name, FIELD_BOOL, 1, func(d []byte) {
		*val = d[0] != 0
	}, func() []byte {
		if *val {
			return []byte{1}
		}
		return []byte{0}
	})
}

func (v *Visitor) VisitUint8(name string, val *uint8) error {
	return v.visitField(name, FIELD_UINT8, 1, func(d []byte) {
		*val = d[0]
	}, func() []byte {
		return []byte{*val}
	})
}

func (v *Visitor) VisitInt32(name string, val *int32) error {
	return v.visitField(name, FIELD_INT32, 4, func(d []byte) {
		*val = int32(binary.LittleEndian.Uint32(d))
	}, func() []byte {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(*val))
		return b[:]
	})
}

func (v *Visitor) VisitUint32(name string, val *uint32) error {
	return v.visitField(name, FIELD_UINT32, 4, func(d []byte) {
		*val = binary.LittleEndian.Uint32(d)
	}, func() []byte {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], *val)
		return b[:]
	})
}

func (v *Visitor) VisitUint64(name string, val *uint64) error {
	return v.visitField(name, FIELD_UINT64, 8, func(d []byte) {
		*val = binary.LittleEndian.Uint64(d)
	}, func() []byte {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], *val)
		return b[:]
	})
}

func (v *Visitor) VisitFloat32(name string, val *float32) error {
	return v.visitField(name, FIELD_FLOAT32, 4, func(d []byte) {
		*val = math.Float32frombits(binary.LittleEndian.Uint32(d))
	}, func() []byte {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(*val))
		return b[:]
	})
}

func (v *Visitor) VisitString(name string, val *string) error {
	return v.visitField(name, FIELD_STRING, -1, func(d []byte) {
		*val = config.DecodeString(d)
	}, func() []byte {
		return config.EncodeString(*val)
	})
}

func (v *Visitor) VisitBytes(name string, val *[]byte) error {
	return v.visitField(name, FIELD_BYTES, -1, func(d []byte) {
		*val = append([]byte(nil), d...)
	}, func() []byte {
		return append([]byte(nil), *val...)
	})
}

func putFloats(d []byte, f []float32) {
	for i, v := range f {
		binary.LittleEndian.PutUint32(d[i*4:], math.Float32bits(v))
	}
}

func getFloats(d []byte, f []float32) {
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(d[i*4:]))
	}
}

func (v *Visitor) VisitVec3(name string, val *mgl32.Vec3) error {
	return v.visitField(name, FIELD_VEC3, 12, func(d []byte) {
		getFloats(d, val[:])
	}, func() []byte {
		b := make([]byte, 12)
		putFloats(b, val[:])
		return b
	})
}

func (v *Visitor) VisitQuat(name string, val *mgl32.Quat) error {
	return v.visitField(name, FIELD_QUAT, 16, func(d []byte) {
		getFloats(d, val.V[:])
		val.W = math.Float32frombits(binary.LittleEndian.Uint32(d[12:]))
	}, func() []byte {
		b := make([]byte, 16)
		putFloats(b, val.V[:])
		binary.LittleEndian.PutUint32(b[12:], math.Float32bits(val.W))
		return b
	})
}

func (v *Visitor) VisitMat4(name string, val *mgl32.Mat4) error {
	return v.visitField(name, FIELD_MAT4, 64, func(d []byte) {
		getFloats(d, val[:])
	}, func() []byte {
		b := make([]byte, 64)
		putFloats(b, val[:])
		return b
	})
}

func writeName(w io.Writer, name string) error {
	bs := config.EncodeString(name)
	if len(bs) > math.MaxUint16 {
		return errors.Errorf("Name too long (%d bytes)", len(bs))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(bs))); err != nil {
		return err
	}
	_, err := w.Write(bs)
	return err
}

func readName(r io.Reader) (string, error) {
	var size uint16
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return "", err
	}
	bs := make([]byte, size)
	if _, err := io.ReadFull(r, bs); err != nil {
		return "", err
	}
	return config.DecodeString(bs), nil
}

func saveRegion(w io.Writer, reg *region) error {
	if err := writeName(w, reg.name); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(reg.fields))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(reg.children))); err != nil {
		return err
	}
	for i := range reg.fields {
		f := &reg.fields[i]
		if err := writeName(w, f.name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, f.kind); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(f.data))); err != nil {
			return err
		}
		if _, err := w.Write(f.data); err != nil {
			return err
		}
	}
	for _, c := range reg.children {
		if err := saveRegion(w, c); err != nil {
			return err
		}
	}
	return nil
}

func loadRegion(r io.Reader) (*region, error) {
	reg := &region{}

	var err error
	if reg.name, err = readName(r); err != nil {
		return nil, errors.Wrapf(err, "Failed to read region name")
	}

	var fieldCount, childCount uint32
	if err := binary.Read(r, binary.LittleEndian, &fieldCount); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &childCount); err != nil {
		return nil, err
	}

	for i := uint32(0); i < fieldCount; i++ {
		var f field
		if f.name, err = readName(r); err != nil {
			return nil, errors.Wrapf(err, "Failed to read field name in %q", reg.name)
		}
		if err := binary.Read(r, binary.LittleEndian, &f.kind); err != nil {
			return nil, err
		}
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, err
		}
		f.data = make([]byte, size)
		if _, err := io.ReadFull(r, f.data); err != nil {
			return nil, errors.Wrapf(err, "Failed to read field %q data", f.name)
		}
		reg.fields = append(reg.fields, f)
	}

	for i := uint32(0); i < childCount; i++ {
		child, err := loadRegion(r)
		if err != nil {
			return nil, errors.Wrapf(err, "In region %q", reg.name)
		}
		reg.children = append(reg.children, child)
	}

	return reg, nil
}

// Save serializes the visited tree. Call after all write-mode visits.
func (v *Visitor) Save(w io.Writer) error {
	if v.reading {
		return errors.New("Cannot save reading visitor")
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint32(VISITOR_MAGIC)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(VISITOR_VERSION)); err != nil {
		return err
	}
	if err := saveRegion(bw, v.root); err != nil {
		return errors.Wrapf(err, "Failed to save visitor tree")
	}
	return bw.Flush()
}

// Load parses a stream into a reading-mode visitor.
func Load(r io.Reader) (*Visitor, error) {
	br := bufio.NewReader(r)

	var magic, version uint32
	if err := binary.Read(br, binary.LittleEndian, &magic); err != nil {
		return nil, errors.Wrapf(err, "Failed to read magic")
	}
	if magic != VISITOR_MAGIC {
		return nil, errors.Errorf("Invalid magic 0x%.8x", magic)
	}
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != VISITOR_VERSION {
		return nil, errors.Errorf("Unsupported version %d", version)
	}

	root, err := loadRegion(br)
	if err != nil {
		return nil, err
	}

	return &Visitor{reading: true, root: root, stack: []*region{root}}, nil
}

// DeepCopyInto clones src into dst by running the write protocol and then
// replaying the resulting tree in reading mode. dst should be default
// constructed. This is what makes subtree duplication uniform across node
// variants without bespoke per-type copy code.
func DeepCopyInto(src, dst Visiter) error {
	v := NewVisitor()
	if err := src.Visit("Copy", v); err != nil {
		return errors.Wrapf(err, "Failed to copy-out")
	}
	if len(v.stack) != 1 {
		return errors.New("Unbalanced visit during copy")
	}
	v.reading = true
	if err := dst.Visit("Copy", v); err != nil {
		return errors.Wrapf(err, "Failed to copy-in")
	}
	return nil
}

// SaveVisiter is a convenience wrapper: visit entity under name, save stream.
func SaveVisiter(w io.Writer, name string, entity Visiter) error {
	v := NewVisitor()
	if err := entity.Visit(name, v); err != nil {
		return err
	}
	return v.Save(w)
}

// LoadVisiter is the matching load convenience wrapper.
func LoadVisiter(r io.Reader, name string, entity Visiter) error {
	v, err := Load(r)
	if err != nil {
		return err
	}
	return entity.Visit(name, v)
}
