package value

import "github.com/knightlang/knight-vm/pkg/options"

// EmptyList is the absent-state representation of an empty list: no
// heap cell is allocated at all, matching the specification's "Empty
// is represented by the absent state."
func EmptyList() Value { return Value{kind: KindList} }

// newListCell allocates a flat-backed list cell from already-canonical
// values (the caller is responsible for having collapsed empties).
func newListCell(g *Gc, vals []Value) Value {
	if len(vals) == 0 {
		return EmptyList()
	}
	cell := g.alloc()
	cell.isList = true
	cell.listKind = listFlat
	cell.flatVals = append([]Value(nil), vals...)
	return fromHeap(KindList, cell)
}

// NewListFromSlice constructs a list Value from a slice of elements,
// canonicalizing the empty case.
func NewListFromSlice(g *Gc, vals []Value) Value { return newListCell(g, vals) }

// Boxed constructs a single-element list — the result of the `,`
// (BOX) opcode.
func Boxed(g *Gc, v Value) Value { return newListCell(g, []Value{v}) }

// ListConcat implements `+` over two lists.
func ListConcat(g *Gc, a, b *HeapCell, opts options.Options) (Value, error) {
	if a.Length() == 0 {
		return fromHeap(KindList, b), nil
	}
	if b.Length() == 0 {
		return fromHeap(KindList, a), nil
	}
	if opts.Compliance.CheckContainerLength && int64(a.Length())+int64(b.Length()) > options.MaxContainerLength {
		return Value{}, &DomainError{Message: "concatenated list length exceeds the configured cap"}
	}
	cell := g.alloc()
	cell.isList = true
	cell.listKind = listCons
	cell.consLeft = a
	cell.consRight = b
	return fromHeap(KindList, cell), nil
}

// ListRepeat implements `*` over a list and an integer count.
func ListRepeat(g *Gc, l *HeapCell, n int64, opts options.Options) (Value, error) {
	if n == 0 || l.Length() == 0 {
		return EmptyList(), nil
	}
	if n == 1 {
		return fromHeap(KindList, l), nil
	}
	if n < 0 {
		return Value{}, &DomainError{Message: "cannot repeat a list a negative number of times"}
	}
	if opts.Compliance.CheckContainerLength && int64(l.Length())*n > options.MaxContainerLength {
		return Value{}, &DomainError{Message: "repeated list length exceeds the configured cap"}
	}
	cell := g.alloc()
	cell.isList = true
	cell.listKind = listRepeat
	cell.repeatElem = l
	cell.repeatCount = int(n)
	return fromHeap(KindList, cell), nil
}

// ListGet implements GET's sublist extraction.
func ListGet(g *Gc, l *HeapCell, start, length int) (Value, error) {
	total := l.Length()
	if start < 0 || length < 0 || start+length > total {
		return Value{}, &IndexOutOfBoundsError{Len: total, Index: start + length}
	}
	flat := listFlatten(l)
	return newListCell(g, flat[start:start+length]), nil
}

// ListSet implements SET's splice-replace: the range [start, start+length)
// is replaced by repl. Per this implementation's resolution of the
// specification's open question, length == 0 inserts without
// replacing anything.
func ListSet(g *Gc, l *HeapCell, start, length int, repl []Value) (Value, error) {
	total := l.Length()
	if start < 0 || length < 0 || start+length > total {
		return Value{}, &IndexOutOfBoundsError{Len: total, Index: start + length}
	}
	flat := listFlatten(l)
	out := make([]Value, 0, total-length+len(repl))
	out = append(out, flat[:start]...)
	out = append(out, repl...)
	out = append(out, flat[start+length:]...)
	return newListCell(g, out), nil
}

// ListElements materializes l's logical element sequence regardless of
// its internal representation (flat, cons, or repeat).
func ListElements(l *HeapCell) []Value { return listFlatten(l) }

// ListHead returns the first element of l.
func ListHead(l *HeapCell) (Value, error) {
	if l.Length() == 0 {
		return Value{}, &DomainError{Message: "head of an empty list"}
	}
	return listFlatten(l)[0], nil
}

// ListTail returns every element of l after the first.
func ListTail(g *Gc, l *HeapCell) (Value, error) {
	if l.Length() == 0 {
		return Value{}, &DomainError{Message: "tail of an empty list"}
	}
	return newListCell(g, listFlatten(l)[1:]), nil
}

// ListJoin coerces each element of l to a string and concatenates them
// with sep between each pair.
func ListJoin(g *Gc, l *HeapCell, sep string, opts options.Options) (Value, error) {
	elems := listFlatten(l)
	s := ""
	for i, e := range elems {
		if i > 0 {
			s += sep
		}
		s += e.Display()
	}
	return NewString(g, []byte(s), opts)
}

// ListContains reports whether needle structurally equals any element
// of l. No opcode calls it.
func ListContains(l *HeapCell, needle Value) bool {
	for _, e := range listFlatten(l) {
		if e.Equal(needle) {
			return true
		}
	}
	return false
}

// ListDifference returns the elements of a not present in b, preserving
// order, per element equality (the `-` list extension).
func ListDifference(g *Gc, a, b *HeapCell) Value {
	bv := listFlatten(b)
	var out []Value
	for _, e := range listFlatten(a) {
		found := false
		for _, x := range bv {
			if e.Equal(x) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, e)
		}
	}
	return newListCell(g, out)
}

// ListReverse implements the XREVERSE extension over a list.
func ListReverse(g *Gc, l *HeapCell) Value {
	src := listFlatten(l)
	out := make([]Value, len(src))
	for i, v := range src {
		out[len(src)-1-i] = v
	}
	return newListCell(g, out)
}

// ListCompare implements the structural ordering used by `<`/`>`:
// lists compare element-wise with length as a tiebreaker.
func ListCompare(a, b *HeapCell) int {
	av, bv := listFlatten(a), listFlatten(b)
	for i := 0; i < len(av) && i < len(bv); i++ {
		if c := compareValues(av[i], bv[i]); c != 0 {
			return c
		}
	}
	return len(av) - len(bv)
}

// Compare implements the structural ordering used by `<`/`>`: a and b
// must already be of the same kind (the VM coerces the right operand
// to the left operand's kind before calling this).
func Compare(a, b Value) int { return compareValues(a, b) }

func compareValues(a, b Value) int {
	switch a.kind {
	case KindInteger:
		ai, _ := a.AsInteger()
		bi, _ := b.AsInteger()
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	case KindString:
		as, bs := string(stringBytesSlice(a.heap)), string(stringBytesSlice(b.heap))
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	case KindBoolean:
		ab, _ := a.AsBoolean()
		bb, _ := b.AsBoolean()
		if ab == bb {
			return 0
		}
		if !ab && bb {
			return -1
		}
		return 1
	case KindList:
		return ListCompare(a.heap, b.heap)
	default:
		return 0
	}
}
