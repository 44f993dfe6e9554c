package vm

import (
	"github.com/knightlang/knight-vm/pkg/bytecode"
	"github.com/knightlang/knight-vm/pkg/value"
)

// step executes a single instruction, mutating m's stack/vars/handlers
// and *nextIP as needed. A non-nil return is either a *QuitError (
// handled specially by Run) or an ordinary error representing one of
// the specification's runtime-error categories.
func (m *VM) step(inst bytecode.Instruction, nextIP *int) error {
	switch inst.Op {
	case bytecode.OpPushConstant:
		m.push(m.constant(inst.Operand))
	case bytecode.OpGetVar:
		if !m.varSet[inst.Operand] {
			return &UndefinedVariableError{Name: m.program.VariableNames[inst.Operand]}
		}
		m.push(m.vars[inst.Operand])
	case bytecode.OpSetVar:
		m.vars[inst.Operand] = m.peek() // leaves the assigned value on the stack
		m.varSet[inst.Operand] = true
	case bytecode.OpPrompt:
		v, err := m.env.Prompt()
		if err != nil {
			return err
		}
		m.push(v)
	case bytecode.OpRandom:
		m.push(value.Integer(m.env.Random()))
	case bytecode.OpDup:
		m.push(m.peek())

	case bytecode.OpJump:
		*nextIP = inst.Operand
	case bytecode.OpJumpIfTrue:
		b, err := m.pop().ToBoolean(m.opts)
		if err != nil {
			return err
		}
		if b {
			*nextIP = inst.Operand
		}
	case bytecode.OpJumpIfFalse:
		b, err := m.pop().ToBoolean(m.opts)
		if err != nil {
			return err
		}
		if !b {
			*nextIP = inst.Operand
		}

	case bytecode.OpPop:
		m.pop()
	case bytecode.OpReturn:
		if len(m.callStack) == 0 {
			*nextIP = len(m.program.Instructions)
			return nil
		}
		f := m.callStack[len(m.callStack)-1]
		m.callStack = m.callStack[:len(m.callStack)-1]
		*nextIP = f.returnIP
	case bytecode.OpCall:
		return m.execCall(nextIP)
	case bytecode.OpQuit:
		return m.execQuit()
	case bytecode.OpOutput:
		return m.execOutput()
	case bytecode.OpDump:
		return m.execDump()
	case bytecode.OpLength:
		return m.execLength()
	case bytecode.OpNot:
		b, err := m.pop().ToBoolean(m.opts)
		if err != nil {
			return err
		}
		m.push(value.Boolean(!b))
	case bytecode.OpNegate:
		return m.execNegate()
	case bytecode.OpAscii:
		return m.execAscii()
	case bytecode.OpBox:
		m.push(value.Boxed(m.gc, m.pop()))
	case bytecode.OpHead:
		return m.execHead()
	case bytecode.OpTail:
		return m.execTail()

	case bytecode.OpAdd:
		return m.execAdd()
	case bytecode.OpSub:
		return m.execSub()
	case bytecode.OpMul:
		return m.execMul()
	case bytecode.OpDiv:
		return m.execDiv()
	case bytecode.OpMod:
		return m.execMod()
	case bytecode.OpPow:
		return m.execPow()
	case bytecode.OpLth:
		return m.execCompare(true)
	case bytecode.OpGth:
		return m.execCompare(false)
	case bytecode.OpEql:
		return m.execEql()

	case bytecode.OpGet:
		return m.execGet()
	case bytecode.OpSet:
		return m.execSet()

	case bytecode.OpValue:
		return m.execValue()
	case bytecode.OpEval:
		return m.execEval()
	case bytecode.OpYeet:
		return m.execYeet()
	case bytecode.OpUse:
		return m.execUse()
	case bytecode.OpSystem:
		return m.execSystem()
	case bytecode.OpXsrand:
		return m.execXsrand()
	case bytecode.OpXreverse:
		return m.execXreverse()
	case bytecode.OpXrange:
		return m.execXrange()

	case bytecode.OpPushHandler:
		m.handlers = append(m.handlers, handlerFrame{
			catchTarget: inst.Operand,
			stackDepth:  len(m.stack),
			callDepth:   len(m.callStack),
		})
	case bytecode.OpPopHandler:
		m.handlers = m.handlers[:len(m.handlers)-1]

	default:
		return &value.TypeError{Function: "<dispatch>", TypeName: "unknown opcode"}
	}
	return nil
}

func (m *VM) execCall(nextIP *int) error {
	v := m.pop()
	target, ok := v.AsBlock()
	if !ok {
		return &value.TypeError{Function: "CALL", TypeName: v.Kind().String()}
	}
	frame := callFrame{returnIP: *nextIP}
	if info, ok := m.program.BlockLocations[target]; ok {
		frame.name = info.Name
		frame.line = info.Location.Line
		frame.col = info.Location.Col
	}
	m.callStack = append(m.callStack, frame)
	*nextIP = target
	return nil
}

func (m *VM) execQuit() error {
	v := m.pop()
	code, err := v.ToInteger()
	if err != nil {
		return err
	}
	if m.opts.Compliance.CheckQuitStatusCodes && (code < 0 || code > 255) {
		return &value.DomainError{Message: "QUIT status code out of the 0..255 range"}
	}
	return &QuitError{Code: int(code)}
}

func (m *VM) execOutput() error {
	v := m.pop()
	s, err := v.ToKnString(m.gc, m.opts)
	if err != nil {
		return err
	}
	cell, _ := s.AsString()
	if err := m.env.Output(string(value.StringBytes(cell))); err != nil {
		return err
	}
	m.push(value.Null())
	return nil
}

func (m *VM) execDump() error {
	v := m.pop()
	if m.opts.Compliance.StrictBlocks && v.Kind() == value.KindBlock {
		return &value.TypeError{Function: "DUMP", TypeName: "Block"}
	}
	if err := m.env.Output(v.Repr()); err != nil {
		return err
	}
	m.push(v)
	return nil
}

func (m *VM) execLength() error {
	v := m.pop()
	switch v.Kind() {
	case value.KindString:
		c, _ := v.AsString()
		m.push(value.Integer(int64(c.Length())))
	case value.KindList:
		c, _ := v.AsList()
		m.push(value.Integer(int64(c.Length())))
	default:
		lv, err := v.ToKnList(m.gc, m.opts)
		if err != nil {
			return err
		}
		c, _ := lv.AsList()
		m.push(value.Integer(int64(c.Length())))
	}
	return nil
}

func (m *VM) execNegate() error {
	v := m.pop()
	n, err := v.ToInteger()
	if err != nil {
		return err
	}
	r, err := value.IntegerNegate(n, m.opts)
	if err != nil {
		return err
	}
	m.push(value.Integer(r))
	return nil
}

func (m *VM) execAscii() error {
	v := m.pop()
	switch v.Kind() {
	case value.KindString:
		c, _ := v.AsString()
		n, err := value.StringOrd(c)
		if err != nil {
			return err
		}
		m.push(value.Integer(n))
	case value.KindInteger:
		n, _ := v.AsInteger()
		r, err := value.StringChr(m.gc, n, m.opts)
		if err != nil {
			return err
		}
		m.push(r)
	default:
		return &value.TypeError{Function: "ASCII", TypeName: v.Kind().String()}
	}
	return nil
}

func (m *VM) execHead() error {
	v := m.pop()
	switch v.Kind() {
	case value.KindString:
		c, _ := v.AsString()
		r, err := value.StringHead(m.gc, c, m.opts)
		if err != nil {
			return err
		}
		m.push(r)
	case value.KindList:
		c, _ := v.AsList()
		r, err := value.ListHead(c)
		if err != nil {
			return err
		}
		m.push(r)
	default:
		return &value.TypeError{Function: "HEAD", TypeName: v.Kind().String()}
	}
	return nil
}

func (m *VM) execTail() error {
	v := m.pop()
	switch v.Kind() {
	case value.KindString:
		c, _ := v.AsString()
		r, err := value.StringTail(m.gc, c, m.opts)
		if err != nil {
			return err
		}
		m.push(r)
	case value.KindList:
		c, _ := v.AsList()
		r, err := value.ListTail(m.gc, c)
		if err != nil {
			return err
		}
		m.push(r)
	default:
		return &value.TypeError{Function: "TAIL", TypeName: v.Kind().String()}
	}
	return nil
}
