package netsync

import (
	"github.com/runicrealm/engine/internal/core/ident"
	"github.com/runicrealm/engine/internal/core/vmath"
)

// Syncable is one replicated value. A writing instance encodes its current
// value every network update; a reading instance decodes and applies what
// the peer sent.
type Syncable interface {
	NetID() string
	// Encode writes the current value.
	Encode(w *Writer)
	// Decode reads one value without applying it.
	Decode(r *Reader) any
	// Apply sets a value previously returned by Decode.
	Apply(v any)
}

// Var binds a Syncable to a getter and a setter.
type Var[T any] struct {
	id  string
	get func() T
	set func(T)
	enc func(w *Writer, v T)
	dec func(r *Reader) T
}

var _ Syncable = (*Var[float64])(nil)

// NewVar builds a Var. An empty id gets a fresh random one; a nil set makes
// the Var write-only.
func NewVar[T any](id string, get func() T, set func(T), enc func(*Writer, T), dec func(*Reader) T) *Var[T] {
	if id == "" {
		id = ident.NewNetID()
	}
	return &Var[T]{id: id, get: get, set: set, enc: enc, dec: dec}
}

func (v *Var[T]) NetID() string { return v.id }
func (v *Var[T]) Value() T      { return v.get() }

func (v *Var[T]) SetValue(x T) {
	if v.set != nil {
		v.set(x)
	}
}

func (v *Var[T]) Encode(w *Writer)     { v.enc(w, v.get()) }
func (v *Var[T]) Decode(r *Reader) any { return v.dec(r) }

func (v *Var[T]) Apply(x any) {
	if t, ok := x.(T); ok {
		v.SetValue(t)
	}
}

// NewFloatVar sends a float64 as a single.
func NewFloatVar(id string, get func() float64, set func(float64)) *Var[float64] {
	return NewVar(id, get, set,
		func(w *Writer, v float64) { w.WriteF(float32(v)) },
		func(r *Reader) float64 { return float64(r.ReadF()) })
}

func NewIntVar(id string, get func() int32, set func(int32)) *Var[int32] {
	return NewVar(id, get, set,
		func(w *Writer, v int32) { w.WriteD(v) },
		func(r *Reader) int32 { return r.ReadD() })
}

// NewVec3Var sends three singles.
func NewVec3Var(id string, get func() vmath.Vec3, set func(vmath.Vec3)) *Var[vmath.Vec3] {
	return NewVar(id, get, set, writeVec3, readVec3)
}

func writeVec3(w *Writer, v vmath.Vec3) {
	w.WriteF(float32(v[0]))
	w.WriteF(float32(v[1]))
	w.WriteF(float32(v[2]))
}

func readVec3(r *Reader) vmath.Vec3 {
	x := r.ReadF()
	y := r.ReadF()
	z := r.ReadF()
	return vmath.V3(float64(x), float64(y), float64(z))
}
