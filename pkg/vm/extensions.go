package vm

import (
	"github.com/knightlang/knight-vm/pkg/compiler"
	"github.com/knightlang/knight-vm/pkg/value"
)

// execValue implements the VALUE extension: its argument is coerced to
// a string and used as a variable name, whose current value is pushed.
// Unlike GET_VAR, VALUE resolves the name dynamically against this
// program's own variable table rather than through a compile-time
// slot index — it exists for programs that build variable names at
// runtime.
func (m *VM) execValue() error {
	v := m.pop()
	s, err := v.ToKnString(m.gc, m.opts)
	if err != nil {
		return err
	}
	cell, _ := s.AsString()
	name := string(value.StringBytes(cell))
	for i, n := range m.program.VariableNames {
		if n == name {
			if !m.varSet[i] {
				return &UndefinedVariableError{Name: name}
			}
			m.push(m.vars[i])
			return nil
		}
	}
	return &UndefinedVariableError{Name: name}
}

// execEval implements the EVAL extension: compiles its string argument
// as a fresh program and runs it to completion in an isolated
// variable scope, sharing this VM's Gc and Environment.
//
// This implementation's variables are resolved to dense compile-time
// slot indices, so a nested EVAL program cannot share a name-indexed
// scope with its parent; each EVAL'd program gets its own clean
// variable table. Documented in DESIGN.md as a deliberate simplification.
func (m *VM) execEval() error {
	v := m.pop()
	s, err := v.ToKnString(m.gc, m.opts)
	if err != nil {
		return err
	}
	cell, _ := s.AsString()
	prog, err := compiler.Compile(value.StringBytes(cell), m.gc, m.opts)
	if err != nil {
		return err
	}
	sub := New(prog, m.env)
	result, err := sub.Run()
	if err != nil {
		return err
	}
	m.push(result)
	return nil
}

func (m *VM) execYeet() error {
	v := m.pop()
	s, err := v.ToKnString(m.gc, m.opts)
	if err != nil {
		return err
	}
	cell, _ := s.AsString()
	return &UserError{Message: string(value.StringBytes(cell))}
}

func (m *VM) execUse() error {
	v := m.pop()
	s, err := v.ToKnString(m.gc, m.opts)
	if err != nil {
		return err
	}
	cell, _ := s.AsString()
	contents, err := m.env.ReadFile(string(value.StringBytes(cell)))
	if err != nil {
		return err
	}
	r, err := value.NewString(m.gc, contents, m.opts)
	if err != nil {
		return err
	}
	m.push(r)
	return nil
}

func (m *VM) execSystem() error {
	v := m.pop()
	s, err := v.ToKnString(m.gc, m.opts)
	if err != nil {
		return err
	}
	cell, _ := s.AsString()
	out, err := m.env.Shell(string(value.StringBytes(cell)))
	if err != nil {
		return err
	}
	r, err := value.NewString(m.gc, []byte(out), m.opts)
	if err != nil {
		return err
	}
	m.push(r)
	return nil
}

func (m *VM) execXsrand() error {
	v := m.pop()
	n, err := v.ToInteger()
	if err != nil {
		return err
	}
	m.env.Reseed(n)
	m.push(value.Null())
	return nil
}

func (m *VM) execXreverse() error {
	v := m.pop()
	switch v.Kind() {
	case value.KindString:
		c, _ := v.AsString()
		r, err := value.StringReverse(m.gc, c, m.opts)
		if err != nil {
			return err
		}
		m.push(r)
	case value.KindList:
		c, _ := v.AsList()
		m.push(value.ListReverse(m.gc, c))
	default:
		return &value.TypeError{Function: "XREVERSE", TypeName: v.Kind().String()}
	}
	return nil
}

func (m *VM) execXrange() error {
	b := m.pop()
	a := m.pop()
	ai, ok := a.AsInteger()
	if !ok {
		return &value.TypeError{Function: "XRANGE", TypeName: a.Kind().String()}
	}
	bi, err := b.ToInteger()
	if err != nil {
		return err
	}
	var elems []value.Value
	if ai <= bi {
		for i := ai; i < bi; i++ {
			elems = append(elems, value.Integer(i))
		}
	} else {
		for i := ai; i > bi; i-- {
			elems = append(elems, value.Integer(i))
		}
	}
	m.push(value.NewListFromSlice(m.gc, elems))
	return nil
}
