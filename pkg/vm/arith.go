package vm

import "github.com/knightlang/knight-vm/pkg/value"

// execAdd, execSub, ... all follow the same discipline: pop the right
// operand, then the left; dispatch on the left operand's Kind; coerce
// the right operand to match before combining.
func (m *VM) execAdd() error {
	b := m.pop()
	a := m.pop()
	switch a.Kind() {
	case value.KindInteger:
		bi, err := b.ToInteger()
		if err != nil {
			return err
		}
		ai, _ := a.AsInteger()
		r, err := value.IntegerAdd(ai, bi, m.opts)
		if err != nil {
			return err
		}
		m.push(value.Integer(r))
	case value.KindString:
		bs, err := b.ToKnString(m.gc, m.opts)
		if err != nil {
			return err
		}
		ac, _ := a.AsString()
		bc, _ := bs.AsString()
		r, err := value.StringConcat(m.gc, ac, bc, m.opts)
		if err != nil {
			return err
		}
		m.push(r)
	case value.KindList:
		bl, err := b.ToKnList(m.gc, m.opts)
		if err != nil {
			return err
		}
		ac, _ := a.AsList()
		bc, _ := bl.AsList()
		r, err := value.ListConcat(m.gc, ac, bc, m.opts)
		if err != nil {
			return err
		}
		m.push(r)
	default:
		return &value.TypeError{Function: "ADD", TypeName: a.Kind().String()}
	}
	return nil
}

func (m *VM) execSub() error {
	b := m.pop()
	a := m.pop()
	switch a.Kind() {
	case value.KindInteger:
		bi, err := b.ToInteger()
		if err != nil {
			return err
		}
		ai, _ := a.AsInteger()
		r, err := value.IntegerSub(ai, bi, m.opts)
		if err != nil {
			return err
		}
		m.push(value.Integer(r))
	case value.KindList:
		bl, err := b.ToKnList(m.gc, m.opts)
		if err != nil {
			return err
		}
		ac, _ := a.AsList()
		bc, _ := bl.AsList()
		m.push(value.ListDifference(m.gc, ac, bc))
	default:
		return &value.TypeError{Function: "SUB", TypeName: a.Kind().String()}
	}
	return nil
}

func (m *VM) execMul() error {
	b := m.pop()
	a := m.pop()
	switch a.Kind() {
	case value.KindInteger:
		bi, err := b.ToInteger()
		if err != nil {
			return err
		}
		ai, _ := a.AsInteger()
		r, err := value.IntegerMul(ai, bi, m.opts)
		if err != nil {
			return err
		}
		m.push(value.Integer(r))
	case value.KindString:
		n, err := b.ToInteger()
		if err != nil {
			return err
		}
		ac, _ := a.AsString()
		r, err := value.StringRepeat(m.gc, ac, n, m.opts)
		if err != nil {
			return err
		}
		m.push(r)
	case value.KindList:
		n, err := b.ToInteger()
		if err != nil {
			return err
		}
		ac, _ := a.AsList()
		r, err := value.ListRepeat(m.gc, ac, n, m.opts)
		if err != nil {
			return err
		}
		m.push(r)
	default:
		return &value.TypeError{Function: "MUL", TypeName: a.Kind().String()}
	}
	return nil
}

func (m *VM) execDiv() error {
	b := m.pop()
	a := m.pop()
	ai, ok := a.AsInteger()
	if !ok {
		return &value.TypeError{Function: "DIV", TypeName: a.Kind().String()}
	}
	bi, err := b.ToInteger()
	if err != nil {
		return err
	}
	r, err := value.IntegerDiv(ai, bi, m.opts)
	if err != nil {
		return err
	}
	m.push(value.Integer(r))
	return nil
}

func (m *VM) execMod() error {
	b := m.pop()
	a := m.pop()
	ai, ok := a.AsInteger()
	if !ok {
		return &value.TypeError{Function: "MOD", TypeName: a.Kind().String()}
	}
	bi, err := b.ToInteger()
	if err != nil {
		return err
	}
	r, err := value.IntegerMod(ai, bi, m.opts)
	if err != nil {
		return err
	}
	m.push(value.Integer(r))
	return nil
}

func (m *VM) execPow() error {
	b := m.pop()
	a := m.pop()
	ai, ok := a.AsInteger()
	if !ok {
		return &value.TypeError{Function: "POW", TypeName: a.Kind().String()}
	}
	bi, err := b.ToInteger()
	if err != nil {
		return err
	}
	r, err := value.IntegerPow(ai, bi, m.opts)
	if err != nil {
		return err
	}
	m.push(value.Integer(r))
	return nil
}

// coerceTo converts b to match a's Kind, per Knight's type-directed
// comparison rules. Null and Block are never orderable.
func (m *VM) coerceTo(a, b value.Value) (value.Value, error) {
	switch a.Kind() {
	case value.KindInteger:
		n, err := b.ToInteger()
		if err != nil {
			return value.Value{}, err
		}
		return value.Integer(n), nil
	case value.KindString:
		return b.ToKnString(m.gc, m.opts)
	case value.KindList:
		return b.ToKnList(m.gc, m.opts)
	case value.KindBoolean:
		bb, err := b.ToBoolean(m.opts)
		if err != nil {
			return value.Value{}, err
		}
		return value.Boolean(bb), nil
	default:
		return value.Value{}, &value.TypeError{Function: "<comparison>", TypeName: a.Kind().String()}
	}
}

// execCompare implements LTH (lth=true) and GTH (lth=false).
func (m *VM) execCompare(lth bool) error {
	b := m.pop()
	a := m.pop()
	coerced, err := m.coerceTo(a, b)
	if err != nil {
		return err
	}
	c := value.Compare(a, coerced)
	if lth {
		m.push(value.Boolean(c < 0))
	} else {
		m.push(value.Boolean(c > 0))
	}
	return nil
}

func (m *VM) execEql() error {
	b := m.pop()
	a := m.pop()
	if m.opts.Compliance.CheckEqualsParams && (a.Kind() == value.KindBlock || b.Kind() == value.KindBlock) {
		return &value.TypeError{Function: "EQL", TypeName: "Block"}
	}
	m.push(value.Boolean(a.Equal(b)))
	return nil
}

// indexBounds resolves start against a container of the given length,
// applying the NegativeIndexing extension when enabled.
func (m *VM) indexBounds(start int64, length int) (int, error) {
	s := int(start)
	if s < 0 {
		if !m.opts.Extensions.NegativeIndexing {
			return 0, &value.IndexOutOfBoundsError{Len: length, Index: s}
		}
		s += length
	}
	return s, nil
}

func (m *VM) execGet() error {
	lengthV := m.pop()
	startV := m.pop()
	container := m.pop()

	length, err := lengthV.ToInteger()
	if err != nil {
		return err
	}
	startRaw, err := startV.ToInteger()
	if err != nil {
		return err
	}
	containerLen := containerLength(container)
	start, err := m.indexBounds(startRaw, containerLen)
	if err != nil {
		return err
	}

	switch container.Kind() {
	case value.KindString:
		c, _ := container.AsString()
		r, err := value.StringSlice(m.gc, c, start, int(length), m.opts)
		if err != nil {
			return err
		}
		m.push(r)
	case value.KindList:
		c, _ := container.AsList()
		r, err := value.ListGet(m.gc, c, start, int(length))
		if err != nil {
			return err
		}
		m.push(r)
	default:
		return &value.TypeError{Function: "GET", TypeName: container.Kind().String()}
	}
	return nil
}

func (m *VM) execSet() error {
	replV := m.pop()
	lengthV := m.pop()
	startV := m.pop()
	container := m.pop()

	length, err := lengthV.ToInteger()
	if err != nil {
		return err
	}
	startRaw, err := startV.ToInteger()
	if err != nil {
		return err
	}
	containerLen := containerLength(container)
	start, err := m.indexBounds(startRaw, containerLen)
	if err != nil {
		return err
	}

	switch container.Kind() {
	case value.KindString:
		c, _ := container.AsString()
		replStr, err := replV.ToKnString(m.gc, m.opts)
		if err != nil {
			return err
		}
		replCell, _ := replStr.AsString()
		r, err := value.StringSplice(m.gc, c, start, int(length), value.StringBytes(replCell), m.opts)
		if err != nil {
			return err
		}
		m.push(r)
	case value.KindList:
		c, _ := container.AsList()
		replList, err := replV.ToKnList(m.gc, m.opts)
		if err != nil {
			return err
		}
		replCell, _ := replList.AsList()
		r, err := value.ListSet(m.gc, c, start, int(length), flattenList(replCell))
		if err != nil {
			return err
		}
		m.push(r)
	default:
		return &value.TypeError{Function: "SET", TypeName: container.Kind().String()}
	}
	return nil
}

func containerLength(v value.Value) int {
	switch v.Kind() {
	case value.KindString:
		c, _ := v.AsString()
		return c.Length()
	case value.KindList:
		c, _ := v.AsList()
		return c.Length()
	default:
		return 0
	}
}

func flattenList(c *value.HeapCell) []value.Value { return value.ListElements(c) }
