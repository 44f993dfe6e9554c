package value

// HeapCell is the GC-managed backing store for a String or List Value.
//
// The specification describes a fixed 32-byte record: a flags byte
// (is-string/is-list, is-heap-allocated/embedded, GC-mark, GC-static,
// embedded-length) followed by a union of an inline payload or an
// (pointer, length) pair. Go's runtime already guarantees memory
// safety for slices, so this type keeps the same *bookkeeping fields*
// (inUse/marked/static, embedded-vs-allocated distinction for strings)
// without hand-packing them into a literal byte — the fields below are
// the Go-idiomatic equivalent of that flags byte, tracked by the Gc's
// own mark-and-sweep pass rather than by Go's runtime collector.
type HeapCell struct {
	isList bool

	// bookkeeping, mutated only by Gc.alloc/Mark/Sweep
	inUse  bool
	marked bool
	static bool

	// string payload (isList == false)
	strAllocated bool // true: strBytes is a separate allocation; false: embedded
	strBytes     []byte

	// list payload (isList == true)
	listKind    listKind
	flatVals    []Value
	consLeft    *HeapCell
	consRight   *HeapCell
	repeatElem  *HeapCell
	repeatCount int
}

type listKind byte

const (
	listFlat listKind = iota
	listCons
	listRepeat
)

// embeddedStringCap mirrors the specification's "N ≈ 23 for strings":
// strings at or below this length are stored inline rather than in a
// separately allocated byte slice. Behaviorally identical either way in
// Go; kept for fidelity and exposed for tests.
const embeddedStringCap = 23

// Gc owns every HeapCell ever allocated and implements mark-and-sweep
// collection over them, independent of Go's own garbage collector (see
// DESIGN.md, Open Question 3, for why this implementation keeps its
// own collector rather than simply relying on Go's).
type Gc struct {
	emptyString *HeapCell
	cells       []*HeapCell
	free        []*HeapCell

	collections int
}

// NewGc creates a Gc with its static empty-string singleton allocated.
func NewGc() *Gc {
	g := &Gc{}
	g.emptyString = &HeapCell{static: true}
	g.cells = append(g.cells, g.emptyString)
	return g
}

// alloc hands out a fresh or recycled HeapCell.
func (g *Gc) alloc() *HeapCell {
	if n := len(g.free); n > 0 {
		c := g.free[n-1]
		g.free = g.free[:n-1]
		*c = HeapCell{inUse: true}
		return c
	}
	c := &HeapCell{inUse: true}
	g.cells = append(g.cells, c)
	return c
}

// Stats reports arena size, free-list size, and completed collections
// — useful for tests asserting GC behavior (testable property 6).
func (g *Gc) Stats() (arena, free, collections int) {
	return len(g.cells), len(g.free), g.collections
}

// Mark walks every root Value and marks all heap cells reachable from
// it. Roots are, per the specification: every Value on the VM operand
// stack, every non-empty variable slot, every Value in the constant
// pool, and any in-flight operator temporary not yet pushed back.
// Callers assemble that full root set and pass it here in one call.
func (g *Gc) Mark(roots []Value) {
	for _, v := range roots {
		markValue(v)
	}
}

func markValue(v Value) {
	if v.heap != nil {
		markCell(v.heap)
	}
}

func markCell(c *HeapCell) {
	if c == nil || c.marked || c.static {
		return
	}
	c.marked = true
	if !c.isList {
		return
	}
	switch c.listKind {
	case listFlat:
		for _, e := range c.flatVals {
			markValue(e)
		}
	case listCons:
		markCell(c.consLeft)
		markCell(c.consRight)
	case listRepeat:
		markCell(c.repeatElem)
	}
}

// Sweep reclaims every in-use, unmarked, non-static cell, returning it
// to the free list, and clears the mark bit on every surviving cell.
func (g *Gc) Sweep() {
	g.collections++
	for _, c := range g.cells {
		if c.static || !c.inUse {
			continue
		}
		if c.marked {
			c.marked = false
			continue
		}
		*c = HeapCell{}
		g.free = append(g.free, c)
	}
}

// Collect runs one full mark-and-sweep pass rooted at roots.
func (g *Gc) Collect(roots []Value) {
	g.Mark(roots)
	g.Sweep()
}

// Length reports the byte length of a string cell or the element
// count of a list cell.
func (c *HeapCell) Length() int {
	if c == nil {
		return 0
	}
	if !c.isList {
		return len(c.strBytes)
	}
	switch c.listKind {
	case listFlat:
		return len(c.flatVals)
	case listCons:
		return c.consLeft.Length() + c.consRight.Length()
	case listRepeat:
		return c.repeatElem.Length() * c.repeatCount
	default:
		return 0
	}
}

// IsStatic reports whether c is exempt from sweep reclamation.
func (c *HeapCell) IsStatic() bool { return c == nil || c.static }

// MarkStatic exempts c from mark-and-sweep collection for the lifetime
// of its Gc, per the specification's GC-static flag. Intended for the
// compiler's constant pool: a string literal lives as long as the
// program that references it, so there is no need to keep rescanning
// it as a root every cycle just to keep it from being swept.
func (c *HeapCell) MarkStatic() {
	if c != nil {
		c.static = true
	}
}

func stringBytesSlice(c *HeapCell) []byte {
	if c == nil {
		return nil
	}
	return c.strBytes
}

// listFlatten materializes the logical element sequence of a list
// cell, regardless of whether it is backed by a flat array, a cons of
// two halves, or a repeat. Used by equality, display, and any
// operation that needs random access or iteration.
func listFlatten(c *HeapCell) []Value {
	if c == nil {
		return nil
	}
	out := make([]Value, 0, c.Length())
	appendFlatten(&out, c)
	return out
}

func appendFlatten(out *[]Value, c *HeapCell) {
	if c == nil {
		return
	}
	switch c.listKind {
	case listFlat:
		*out = append(*out, c.flatVals...)
	case listCons:
		appendFlatten(out, c.consLeft)
		appendFlatten(out, c.consRight)
	case listRepeat:
		for i := 0; i < c.repeatCount; i++ {
			appendFlatten(out, c.repeatElem)
		}
	}
}

// listEqual implements element-wise structural equality regardless of
// the two lists' internal representations (testable property 5).
func listEqual(a, b *HeapCell) bool {
	if a.Length() != b.Length() {
		return false
	}
	av, bv := listFlatten(a), listFlatten(b)
	for i := range av {
		if !av[i].Equal(bv[i]) {
			return false
		}
	}
	return true
}
