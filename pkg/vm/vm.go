// Package vm implements the Knight bytecode virtual machine: a
// stack-based dispatch loop over a compiled bytecode.Program,
// coordinating with pkg/value's mark-and-sweep Gc and an
// pkg/environment.Environment for everything outside the program's own
// state.
//
// Design Philosophy:
//
//   - Every opcode has a fixed arity: it pops exactly that many values
//     from the operand stack before doing any work, and pushes 0 or 1
//     results. Popping before executing means a panic or error mid-op
//     never leaves stale arguments on the stack for the GC to
//     misinterpret as still-live roots.
//   - Operators that take more than one argument dispatch on the left
//     operand's runtime type and coerce the right operand to match,
//     per Knight's type-directed coercion rules.
//   - A handler stack (pushed/popped by the HANDLE extension's
//     PUSH_HANDLER/POP_HANDLER opcodes) lets a runtime error be
//     intercepted and turned into an ordinary control-flow jump rather
//     than unwinding the whole program.
package vm

import (
	"fmt"

	"github.com/knightlang/knight-vm/pkg/bytecode"
	"github.com/knightlang/knight-vm/pkg/compiler"
	"github.com/knightlang/knight-vm/pkg/environment"
	"github.com/knightlang/knight-vm/pkg/options"
	"github.com/knightlang/knight-vm/pkg/value"
)

// gcStepInterval bounds how often the VM considers a collection —
// frequent enough that long-running loops don't grow the arena
// unboundedly, infrequent enough that short programs never pay for it.
const gcStepInterval = 4096

type callFrame struct {
	returnIP int
	name     string
	line     int
	col      int
}

type handlerFrame struct {
	catchTarget int
	stackDepth  int
	callDepth   int
}

// VM executes one compiled Program to completion.
type VM struct {
	program *bytecode.Program
	env     *environment.Environment
	opts    options.Options
	gc      *value.Gc

	stack     []value.Value
	vars      []value.Value
	varSet    []bool
	callStack []callFrame
	handlers  []handlerFrame

	ip    int
	steps int
}

// New builds a VM ready to execute program against env.
func New(program *bytecode.Program, env *environment.Environment) *VM {
	m := &VM{
		program: program,
		env:     env,
		opts:    env.Opts,
		gc:      env.Gc,
		vars:    make([]value.Value, program.NumVariables),
		varSet:  make([]bool, program.NumVariables),
	}
	m.seedArgv()
	return m
}

// seedArgv pre-populates the ARGV global, a list of the program's
// command-line arguments as strings, when the Argv extension is
// enabled and the program actually references the variable.
func (m *VM) seedArgv() {
	if !m.opts.Extensions.Argv {
		return
	}
	for i, name := range m.program.VariableNames {
		if name != "ARGV" {
			continue
		}
		elems := make([]value.Value, len(m.env.Argv))
		for j, a := range m.env.Argv {
			s, err := value.NewString(m.gc, []byte(a), m.opts)
			if err != nil {
				continue
			}
			elems[j] = s
		}
		m.vars[i] = value.NewListFromSlice(m.gc, elems)
		m.varSet[i] = true
		return
	}
}

// Run executes the program to completion, returning the final
// top-of-stack value (or Null if the program produced nothing). A
// QUIT instruction surfaces as *QuitError; any other uncaught runtime
// failure surfaces as *RuntimeError.
func (m *VM) Run() (value.Value, error) {
	for m.ip < len(m.program.Instructions) {
		inst := m.program.Instructions[m.ip]
		if m.env.Trace != nil {
			fmt.Fprintf(m.env.Trace, "%4d: %-14s %d\n", m.ip, inst.Op, inst.Operand)
		}

		nextIP := m.ip + 1
		err := m.step(inst, &nextIP)
		if err != nil {
			if qe, ok := err.(*QuitError); ok {
				return value.Value{}, qe
			}
			if len(m.handlers) > 0 {
				h := m.handlers[len(m.handlers)-1]
				m.handlers = m.handlers[:len(m.handlers)-1]
				m.stack = m.stack[:h.stackDepth]
				m.callStack = m.callStack[:h.callDepth]
				msg, _ := value.NewString(m.gc, []byte(err.Error()), m.opts)
				m.stack = append(m.stack, msg)
				nextIP = h.catchTarget
			} else {
				return value.Value{}, m.wrapError(err)
			}
		}
		m.ip = nextIP

		m.steps++
		if m.steps%gcStepInterval == 0 {
			m.gc.Collect(m.roots())
		}
	}
	if len(m.stack) == 0 {
		return value.Null(), nil
	}
	return m.stack[len(m.stack)-1], nil
}

func (m *VM) roots() []value.Value {
	roots := make([]value.Value, 0, len(m.stack)+len(m.vars)+len(m.program.Constants))
	roots = append(roots, m.stack...)
	for i, set := range m.varSet {
		if set {
			roots = append(roots, m.vars[i])
		}
	}
	for _, c := range m.program.Constants {
		roots = append(roots, c.(value.Value))
	}
	return roots
}

func (m *VM) push(v value.Value) { m.stack = append(m.stack, v) }

func (m *VM) pop() value.Value {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *VM) peek() value.Value { return m.stack[len(m.stack)-1] }

func (m *VM) constant(idx int) value.Value { return m.program.Constants[idx].(value.Value) }

// wrapError classifies a raw error from pkg/value/pkg/environment into
// a RuntimeError, attaching a rendered stack trace when enabled.
func (m *VM) wrapError(err error) *RuntimeError {
	re := &RuntimeError{Kind: classify(err), Cause: err}
	if m.opts.QoL.Stacktrace {
		for i := len(m.callStack) - 1; i >= 0; i-- {
			f := m.callStack[i]
			name := f.name
			if name == "" {
				name = "<anonymous>"
			}
			re.Stack = append(re.Stack, Frame{Name: name, Line: f.line, Col: f.col})
		}
	}
	return re
}

func classify(err error) ErrorKind {
	switch err.(type) {
	case *value.DomainError:
		return ErrDomain
	case *value.IndexOutOfBoundsError:
		return ErrIndexOutOfBounds
	case *value.ConversionError:
		return ErrConversion
	case *value.IntegerError:
		return ErrInteger
	case *value.TypeError:
		return ErrType
	case *value.StringError:
		return ErrString
	case *UndefinedVariableError:
		return ErrUndefinedVariable
	case *compiler.ParseError:
		return ErrParse
	case *UserError:
		return ErrUser
	default:
		return ErrIO
	}
}
