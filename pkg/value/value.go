// Package value implements Knight's uniform runtime representation.
//
// Every Knight value — null, boolean, integer, block, string, or list —
// is represented by a single Value. Scalars (null, boolean, integer,
// block) are stored inline; strings and lists are heap-allocated
// through a Gc and referenced by pointer.
//
// Why a tagged struct instead of a tagged pointer:
//
// The original implementation this package is modeled on packs every
// Value into one 64-bit machine word, using the low bits of a raw
// pointer to discriminate kind (see the Rust source this was ported
// from). That trick requires `unsafe` pointer arithmetic and 8-byte
// cell alignment guarantees Go's memory model does not expose — Go's
// garbage collector must always be able to see a valid pointer or
// nil, never a pointer with its low bits stolen for a tag. Knight's
// own design notes sanction exactly this fallback: "on platforms
// without those guarantees, fall back to a sum-type Value... at a
// modest speed cost." Value below is that sum type: a Kind
// discriminant, a scalar payload, and a heap pointer that is only
// valid when Kind is String or List.
//
// Design Philosophy:
//
//   - Scalar kinds (Null, Boolean, Integer, Block) never touch the
//     heap; classifying them is a single field comparison.
//   - String and List kinds are immutable once constructed; every
//     operation that "modifies" a value allocates a new HeapCell
//     through a Gc and returns a new Value.
//   - Equality is bit-identity first, structural comparison second —
//     two lists built by different code paths (a flat array vs a cons
//     of two halves) must compare equal if their elements match.
package value

import "fmt"

// Kind discriminates the six runtime shapes a Value can take.
type Kind byte

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindBlock
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBoolean:
		return "Boolean"
	case KindInteger:
		return "Integer"
	case KindBlock:
		return "Block"
	case KindString:
		return "String"
	case KindList:
		return "List"
	default:
		return "Unknown"
	}
}

// Value is Knight's uniform runtime representation. The zero Value is
// Null, matching the specification's "all-zero word is null" encoding.
type Value struct {
	kind   Kind
	scalar int64 // Boolean (0/1), Integer, or Block jump index
	heap   *HeapCell
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Boolean constructs a boolean value.
func Boolean(b bool) Value {
	if b {
		return Value{kind: KindBoolean, scalar: 1}
	}
	return Value{kind: KindBoolean, scalar: 0}
}

// Integer constructs an integer value.
func Integer(n int64) Value { return Value{kind: KindInteger, scalar: n} }

// Block constructs a block value referencing the instruction at jumpIndex.
func Block(jumpIndex int) Value { return Value{kind: KindBlock, scalar: int64(jumpIndex)} }

// fromHeap constructs a String or List value from an already-allocated
// heap cell. The caller must ensure cell.isList matches kind.
func fromHeap(kind Kind, cell *HeapCell) Value {
	return Value{kind: kind, heap: cell}
}

// Kind reports the runtime shape of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBoolean returns (value, true) if v is a boolean, else (false, false).
func (v Value) AsBoolean() (bool, bool) {
	if v.kind != KindBoolean {
		return false, false
	}
	return v.scalar != 0, true
}

// AsInteger returns (value, true) if v is an integer, else (0, false).
func (v Value) AsInteger() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.scalar, true
}

// AsBlock returns (jumpIndex, true) if v is a block, else (0, false).
func (v Value) AsBlock() (int, bool) {
	if v.kind != KindBlock {
		return 0, false
	}
	return int(v.scalar), true
}

// AsString returns (cell, true) if v is a string, else (nil, false).
func (v Value) AsString() (*HeapCell, bool) {
	if v.kind != KindString {
		return nil, false
	}
	return v.heap, true
}

// AsList returns (cell, true) if v is a list, else (nil, false).
func (v Value) AsList() (*HeapCell, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.heap, true
}

// Equal implements Knight's `?` / `=` structural equality: identical
// bit pattern is always equal; otherwise heap-allocated values of the
// same kind compare structurally (bytes for strings, element-wise for
// lists); anything else is unequal.
func (a Value) Equal(b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBoolean, KindInteger, KindBlock:
		return a.scalar == b.scalar
	case KindString:
		return string(stringBytesSlice(a.heap)) == string(stringBytesSlice(b.heap))
	case KindList:
		return listEqual(a.heap, b.heap)
	default:
		return false
	}
}

// Repr renders v the way DUMP does: quoted strings, bracketed lists,
// bare scalars.
func (v Value) Repr() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBoolean:
		if v.scalar != 0 {
			return "true"
		}
		return "false"
	case KindInteger:
		return fmt.Sprintf("%d", v.scalar)
	case KindBlock:
		return fmt.Sprintf("Block(%d)", v.scalar)
	case KindString:
		return fmt.Sprintf("%q", stringBytesSlice(v.heap))
	case KindList:
		elems := listFlatten(v.heap)
		s := "["
		for i, e := range elems {
			if i > 0 {
				s += ", "
			}
			s += e.Repr()
		}
		return s + "]"
	default:
		return "<?>"
	}
}

// Display renders v the way OUTPUT/string-coercion does: raw string
// contents, joined list elements, bare scalars.
func (v Value) Display() string {
	switch v.kind {
	case KindString:
		return string(stringBytesSlice(v.heap))
	case KindList:
		elems := listFlatten(v.heap)
		s := ""
		for i, e := range elems {
			if i > 0 {
				s += "\n"
			}
			s += e.Display()
		}
		return s
	default:
		return v.Repr()
	}
}
