// Package atype is a deliberately small stand-in for Avail's runtime type
// lattice: just enough structure (tuples with a size range, functions,
// named primitive types, and a top type) for the splitter's signature
// check and the engine's semantic-restriction intersection to operate on
// (§4.2, §4.7). The real object model is out of scope (§1).
package atype

// Type is any member of the lattice. Equal and Covers give just enough of
// a partial order for the engine to intersect return types and reject
// incompatible signatures.
type Type interface {
	// Name is the type's canonical printable name.
	Name() string

	// Covers reports whether every value of other is also a value of t
	// (t is the same as or a supertype of other).
	Covers(other Type) bool
}

// Top is the unit-valued top type (⊤): every top-level statement's static
// type must be Top (§4.8). Top covers only itself; Any, not Top, is the
// type that covers every other type.
var Top Type = &primitive{name: "⊤"}

// Any is the root of the value lattice.
var Any Type = &primitive{name: "any"}

type primitive struct{ name string }

func (p *primitive) Name() string { return p.name }
func (p *primitive) Covers(other Type) bool {
	if p == Any {
		return true
	}
	op, ok := other.(*primitive)
	return ok && op.name == p.name
}

// Named constructs a primitive type with the given name (e.g. "integer",
// "string", "boolean"). Two Named types with equal names are Equal.
func Named(name string) Type { return &primitive{name: name} }

// SizeRange describes the inclusive bounds on a tuple's length; Max of -1
// means unbounded.
type SizeRange struct {
	Min int
	Max int // -1 for unbounded
}

func (r SizeRange) Contains(n int) bool {
	if n < r.Min {
		return false
	}
	if r.Max >= 0 && n > r.Max {
		return false
	}
	return true
}

// Fixed returns a SizeRange admitting exactly n elements.
func Fixed(n int) SizeRange { return SizeRange{Min: n, Max: n} }

// Unbounded returns a SizeRange admitting at least min elements.
func Unbounded(min int) SizeRange { return SizeRange{Min: min, Max: -1} }

// Tuple is a tuple type: a size range plus the element type(s). A real
// Avail tuple type tracks one type per fixed leading position and a
// default for the remainder; this stand-in uses a single element type,
// sufficient for the signature shapes the splitter needs to validate.
type Tuple struct {
	Elements Type
	Range    SizeRange
}

func (t *Tuple) Name() string { return "tuple" }
func (t *Tuple) Covers(other Type) bool {
	ot, ok := other.(*Tuple)
	if !ok {
		return false
	}
	return t.Elements.Covers(ot.Elements)
}

// Function is a function type: its parameter tuple and its return type.
type Function struct {
	Params []Type
	Return Type
}

func (f *Function) Name() string { return "function" }
func (f *Function) Covers(other Type) bool {
	of, ok := other.(*Function)
	if !ok {
		return false
	}
	return f.Return.Covers(of.Return)
}

// Intersect returns the most specific type both a and b describe. When
// neither covers the other, it conservatively falls back to Any rather
// than fabricating a bottom type, since the real lattice's meet operation
// is outside this package's scope.
func Intersect(a, b Type) Type {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Covers(b) {
		return b
	}
	if b.Covers(a) {
		return a
	}
	return Any
}
