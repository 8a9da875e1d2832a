package pool

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/mogaika/scene_core/visit"
)

const INVALID_INDEX = math.MaxUint32

// ErrDangling signals that a handle generation no longer matches the pool
// slot, i.e. the value it pointed to was freed (and maybe recycled).
var ErrDangling = errors.New("dangling handle")

// Handle is a stable indirect reference into a Pool of T.
// Zero value is not a valid handle, use NoneHandle().
type Handle[T any] struct {
	index      uint32
	generation uint32
}

func NoneHandle[T any]() Handle[T] {
	return Handle[T]{index: INVALID_INDEX}
}

// MakeHandle rebuilds a handle from its transported parts. The result is not
// guaranteed live, callers still go through Pool.Get.
func MakeHandle[T any](index, generation uint32) Handle[T] {
	return Handle[T]{index: index, generation: generation}
}

func (h Handle[T]) IsNone() bool {
	return h.index == INVALID_INDEX
}

func (h Handle[T]) Index() uint32 {
	return h.index
}

func (h Handle[T]) Generation() uint32 {
	return h.generation
}

func (h Handle[T]) Equal(o Handle[T]) bool {
	return h.index == o.index && h.generation == o.generation
}

func (h Handle[T]) String() string {
	if h.IsNone() {
		return "Handle[none]"
	}
	return fmt.Sprintf("Handle[%d:%d]", h.index, h.generation)
}

func (h *Handle[T]) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := v.VisitUint32("Index", &h.index); err != nil {
		return err
	}
	if err := v.VisitUint32("Generation", &h.generation); err != nil {
		return err
	}
	return v.LeaveRegion()
}

type record[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

// Pool is a generational arena. Slots are recycled by index but never by
// generation, so any handle taken before a Free becomes detectably stale.
type Pool[T any] struct {
	records []record[T]
	free    []uint32
}

func (p *Pool[T]) Allocate(value T) Handle[T] {
	if n := len(p.free); n != 0 {
		index := p.free[n-1]
		p.free = p.free[:n-1]
		r := &p.records[index]
		r.value = value
		r.occupied = true
		return Handle[T]{index: index, generation: r.generation}
	}

	p.records = append(p.records, record[T]{value: value, occupied: true})
	return Handle[T]{index: uint32(len(p.records) - 1)}
}

func (p *Pool[T]) at(h Handle[T]) (*record[T], error) {
	if h.IsNone() || h.index >= uint32(len(p.records)) {
		return nil, errors.Wrapf(ErrDangling, "Invalid handle %v", h)
	}
	r := &p.records[h.index]
	if !r.occupied || r.generation != h.generation {
		return nil, errors.Wrapf(ErrDangling, "Stale handle %v (slot generation %d)", h, r.generation)
	}
	return r, nil
}

func (p *Pool[T]) Get(h Handle[T]) (*T, error) {
	r, err := p.at(h)
	if err != nil {
		return nil, err
	}
	return &r.value, nil
}

// MustGet is for callers that already validated the handle.
func (p *Pool[T]) MustGet(h Handle[T]) *T {
	v, err := p.Get(h)
	if err != nil {
		panic(err)
	}
	return v
}

func (p *Pool[T]) IsValid(h Handle[T]) bool {
	_, err := p.at(h)
	return err == nil
}

// Free releases the slot and returns the value it held. The slot generation
// is bumped so every previously issued handle to it turns stale.
func (p *Pool[T]) Free(h Handle[T]) (T, error) {
	r, err := p.at(h)
	if err != nil {
		var zero T
		return zero, err
	}

	value := r.value
	var zero T
	r.value = zero
	r.occupied = false
	r.generation++
	p.free = append(p.free, h.index)
	return value, nil
}

func (p *Pool[T]) Len() int {
	return len(p.records) - len(p.free)
}

// Iterate walks occupied slots in stable index order. Return false from the
// callback to stop early.
func (p *Pool[T]) Iterate(f func(h Handle[T], value *T) bool) {
	for i := range p.records {
		r := &p.records[i]
		if !r.occupied {
			continue
		}
		if !f(Handle[T]{index: uint32(i), generation: r.generation}, &r.value) {
			return
		}
	}
}

// HandleAt rebuilds the live handle for an occupied slot index.
func (p *Pool[T]) HandleAt(index uint32) (Handle[T], error) {
	if index >= uint32(len(p.records)) || !p.records[index].occupied {
		return NoneHandle[T](), errors.Wrapf(ErrDangling, "No occupied slot at index %d", index)
	}
	return Handle[T]{index: index, generation: p.records[index].generation}, nil
}

type visiterPtr[T any] interface {
	*T
	visit.Visiter
}

// VisitPool serializes the whole slot table, preserving slot indices and
// generations so handles stored elsewhere survive a save/load round trip.
func VisitPool[T any, PT visiterPtr[T]](name string, p *Pool[T], v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}

	recordCount := uint32(len(p.records))
	if err := v.VisitUint32("RecordCount", &recordCount); err != nil {
		return err
	}
	if v.IsReading() {
		p.records = make([]record[T], recordCount)
		p.free = nil
	}

	for i := uint32(0); i < recordCount; i++ {
		r := &p.records[i]
		if err := v.EnterRegion(fmt.Sprintf("Slot%d", i)); err != nil {
			return err
		}
		if err := v.VisitBool("Occupied", &r.occupied); err != nil {
			return err
		}
		if err := v.VisitUint32("Generation", &r.generation); err != nil {
			return err
		}
		if r.occupied {
			if err := PT(&r.value).Visit("Value", v); err != nil {
				return err
			}
		} else if v.IsReading() {
			p.free = append(p.free, i)
		}
		if err := v.LeaveRegion(); err != nil {
			return err
		}
	}

	return v.LeaveRegion()
}

// VisitHandleSlice serializes an ordered handle list under its own region.
func VisitHandleSlice[T any](name string, handles *[]Handle[T], v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}

	count := uint32(len(*handles))
	if err := v.VisitUint32("Count", &count); err != nil {
		return err
	}
	if v.IsReading() {
		*handles = make([]Handle[T], count)
	}
	for i := range *handles {
		if err := (*handles)[i].Visit(fmt.Sprintf("Item%d", i), v); err != nil {
			return err
		}
	}

	return v.LeaveRegion()
}
