// Package compiler implements Knight's single-pass parser/compiler: it
// lexes source text and emits a flat Program (instructions, constant
// pool, variable table, optional stack-trace metadata) in one pass,
// with no intermediate AST — each parsed expression is turned directly
// into bytecode as it is recognized, following the specification's
// "single-pass parser/compiler that reads source text and emits a flat
// instruction stream" design.
//
// Design Philosophy:
//
//   - Every Knight expression, once parsed, leaves exactly one value on
//     the (conceptual, compile-time) operand stack. This invariant is
//     what makes control-flow forms (;, &, |, I, W) composable: each
//     branch is just "compile an expression" and the stack discipline
//     takes care of itself.
//   - Forward jumps are emitted as zero placeholders and patched once
//     their target is known — there is never a backward reference to
//     an as-yet-unknown instruction index.
//   - The constant pool and variable table are both deduplicating sets:
//     equal constants share a slot, and each variable name gets exactly
//     one dense index, assigned in first-reference order.
package compiler

import (
	"github.com/knightlang/knight-vm/pkg/bytecode"
	"github.com/knightlang/knight-vm/pkg/options"
	"github.com/knightlang/knight-vm/pkg/value"
)

// Builder accumulates instructions, constants, and variable bindings
// as the single recursive-descent pass recognizes expressions.
type Builder struct {
	code      []bytecode.Instruction
	constants []value.Value

	variables []string
	varIndex  map[string]int

	sourceLines    map[int]bytecode.SourceLocation
	blockLocations map[int]bytecode.BlockInfo

	loopStack []*loopCtx

	gc   *value.Gc
	opts options.Options

	lex *Lexer
	cur Token
}

type loopCtx struct {
	contTarget int
	breakJumps []int
}

// Compile lexes and compiles src into a Program, using gc to allocate
// any string constants and opts to gate extensions and compliance
// checks. After the top-level expression, a final Return is appended.
func Compile(src []byte, gc *value.Gc, opts options.Options) (*bytecode.Program, error) {
	lex := NewLexer(src)
	lex.interpolation = opts.Extensions.StringInterpolation
	b := &Builder{
		varIndex: make(map[string]int),
		gc:       gc,
		opts:     opts,
		lex:      lex,
	}
	if opts.QoL.Stacktrace {
		b.sourceLines = make(map[int]bytecode.SourceLocation)
		b.blockLocations = make(map[int]bytecode.BlockInfo)
	}

	if err := b.advance(); err != nil {
		return nil, err
	}
	if b.cur.Kind == TokenEOF {
		return nil, &ParseError{Message: "empty program", Line: b.cur.Line, Col: b.cur.Col}
	}

	if err := b.parseExpression(); err != nil {
		return nil, err
	}

	if opts.Compliance.ForbidTrailingTokens && b.cur.Kind != TokenEOF {
		return nil, &ParseError{Message: "trailing tokens after top-level expression", Line: b.cur.Line, Col: b.cur.Col}
	}

	b.emit(bytecode.OpReturn, 0)

	constants := make([]interface{}, len(b.constants))
	for i, c := range b.constants {
		// Constant-pool strings live for the whole program; mark them
		// static so the GC never has to rescan or sweep them.
		if cell, ok := c.AsString(); ok {
			cell.MarkStatic()
		}
		constants[i] = c
	}

	return &bytecode.Program{
		Instructions:   b.code,
		Constants:      constants,
		NumVariables:   len(b.variables),
		VariableNames:  b.variables,
		SourceLines:    b.sourceLines,
		BlockLocations: b.blockLocations,
	}, nil
}

func (b *Builder) advance() error {
	tok, err := b.lex.Next()
	if err != nil {
		return err
	}
	b.cur = tok
	if b.sourceLines != nil {
		if _, ok := b.sourceLines[len(b.code)]; !ok {
			b.sourceLines[len(b.code)] = bytecode.SourceLocation{Line: tok.Line, Col: tok.Col}
		}
	}
	return nil
}

func (b *Builder) jumpIndex() int { return len(b.code) }

func (b *Builder) emit(op bytecode.Opcode, operand int) {
	b.code = append(b.code, bytecode.Instruction{Op: op, Operand: operand})
}

// deferJump emits a placeholder instruction of kind op (one of Jump,
// JumpIfTrue, JumpIfFalse) and returns its index for later patching.
func (b *Builder) deferJump(op bytecode.Opcode) int {
	idx := len(b.code)
	b.code = append(b.code, bytecode.Instruction{Op: op, Operand: 0})
	return idx
}

func (b *Builder) patch(idx, target int) {
	b.code[idx].Operand = target
}

func (b *Builder) pushConstant(v value.Value) int {
	for i, existing := range b.constants {
		if existing.Equal(v) {
			return i
		}
	}
	b.constants = append(b.constants, v)
	return len(b.constants) - 1
}

func (b *Builder) variableIndex(name string) (int, error) {
	if b.opts.Compliance.VariableNameLength && len(name) > options.MaxVariableNameLen {
		return 0, &ParseError{Message: "variable name too long: " + name, Line: b.cur.Line, Col: b.cur.Col}
	}
	if idx, ok := b.varIndex[name]; ok {
		return idx, nil
	}
	if b.opts.Compliance.VariableCount && len(b.variables) >= options.MaxVariableCount {
		return 0, &ParseError{Message: "too many distinct variables", Line: b.cur.Line, Col: b.cur.Col}
	}
	idx := len(b.variables)
	b.variables = append(b.variables, name)
	b.varIndex[name] = idx
	return idx, nil
}

func (b *Builder) recordBlock(startIdx int, name string) {
	if b.blockLocations == nil {
		return
	}
	loc := bytecode.SourceLocation{}
	if l, ok := b.sourceLines[startIdx]; ok {
		loc = l
	}
	b.blockLocations[startIdx] = bytecode.BlockInfo{Name: name, Location: loc}
}

// parseExpression compiles exactly one Knight expression, leaving
// exactly one value on the operand stack.
func (b *Builder) parseExpression() error {
	tok := b.cur
	switch tok.Kind {
	case TokenNumber:
		if err := b.advance(); err != nil {
			return err
		}
		idx := b.pushConstant(value.Integer(tok.Value))
		b.emit(bytecode.OpPushConstant, idx)
		return nil

	case TokenString:
		if err := b.advance(); err != nil {
			return err
		}
		sv, err := value.NewString(b.gc, []byte(tok.Text), b.opts)
		if err != nil {
			return err
		}
		idx := b.pushConstant(sv)
		b.emit(bytecode.OpPushConstant, idx)
		return nil

	case TokenIdentifier:
		if err := b.advance(); err != nil {
			return err
		}
		idx, err := b.variableIndex(tok.Text)
		if err != nil {
			return err
		}
		b.emit(bytecode.OpGetVar, idx)
		return nil

	case TokenSymbol:
		return b.parseSymbol(tok)

	case TokenWord:
		return b.parseWord(tok)

	default:
		return &ParseError{Message: "unexpected end of input, expected an expression", Line: tok.Line, Col: tok.Col}
	}
}

func (b *Builder) parseSymbol(tok Token) error {
	c := tok.Text[0]
	switch c {
	case '+', '-', '*', '/', '%', '^', '<', '>', '?':
		return b.parseSimpleOp(symbolOpcode[c], 2)
	case '!':
		return b.parseSimpleOp(bytecode.OpNot, 1)
	case '~':
		return b.parseSimpleOp(bytecode.OpNegate, 1)
	case ',':
		return b.parseSimpleOp(bytecode.OpBox, 1)
	case '[':
		return b.parseSimpleOp(bytecode.OpHead, 1)
	case ']':
		return b.parseSimpleOp(bytecode.OpTail, 1)
	case ':':
		if err := b.advance(); err != nil {
			return err
		}
		return b.parseExpression() // NOOP: evaluates and returns its argument
	case ';':
		return b.parseThen()
	case '&':
		return b.parseAndOr(bytecode.OpJumpIfFalse)
	case '|':
		return b.parseAndOr(bytecode.OpJumpIfTrue)
	case '=':
		return b.parseAssignment()
	case '$':
		if !b.opts.Extensions.System {
			return &ParseError{Message: "the $ (SYSTEM) extension is not enabled", Line: tok.Line, Col: tok.Col}
		}
		return b.parseSimpleOp(bytecode.OpSystem, 1)
	case '@':
		if err := b.advance(); err != nil {
			return err
		}
		idx := b.pushConstant(value.EmptyList())
		b.emit(bytecode.OpPushConstant, idx)
		return nil
	default:
		return &ParseError{Message: "unknown function: " + tok.Text, Line: tok.Line, Col: tok.Col}
	}
}

var symbolOpcode = map[byte]bytecode.Opcode{
	'+': bytecode.OpAdd, '-': bytecode.OpSub, '*': bytecode.OpMul,
	'/': bytecode.OpDiv, '%': bytecode.OpMod, '^': bytecode.OpPow,
	'<': bytecode.OpLth, '>': bytecode.OpGth, '?': bytecode.OpEql,
}

// parseSimpleOp compiles arity arguments in order, then emits op —
// the "Any simple op f a..." rule from the Emission table.
func (b *Builder) parseSimpleOp(op bytecode.Opcode, arity int) error {
	if err := b.advance(); err != nil {
		return err
	}
	for i := 0; i < arity; i++ {
		if err := b.parseExpression(); err != nil {
			return err
		}
	}
	b.emit(op, 0)
	return nil
}

func (b *Builder) parseThen() error {
	if err := b.advance(); err != nil {
		return err
	}
	if err := b.parseExpression(); err != nil {
		return err
	}
	b.emit(bytecode.OpPop, 0)
	return b.parseExpression()
}

func (b *Builder) parseAndOr(jumpOp bytecode.Opcode) error {
	if err := b.advance(); err != nil {
		return err
	}
	if err := b.parseExpression(); err != nil {
		return err
	}
	b.emit(bytecode.OpDup, 0)
	end := b.deferJump(jumpOp)
	b.emit(bytecode.OpPop, 0)
	if err := b.parseExpression(); err != nil {
		return err
	}
	b.patch(end, b.jumpIndex())
	return nil
}

func (b *Builder) parseAssignment() error {
	if err := b.advance(); err != nil {
		return err
	}
	nameTok := b.cur
	if nameTok.Kind != TokenIdentifier {
		return &ParseError{Message: "= requires a variable name", Line: nameTok.Line, Col: nameTok.Col}
	}
	if err := b.advance(); err != nil {
		return err
	}

	if b.cur.Kind == TokenWord && b.cur.Text[0] == 'B' {
		blockStart, err := b.parseBlockBody()
		if err != nil {
			return err
		}
		b.emitBlockLiteral(blockStart)
		b.recordBlock(blockStart, nameTok.Text)
	} else if err := b.parseExpression(); err != nil {
		return err
	}

	idx, err := b.variableIndex(nameTok.Text)
	if err != nil {
		return err
	}
	b.emit(bytecode.OpSetVar, idx)
	return nil
}

// parseBlockBody consumes the BLOCK word and its body expression,
// emitting the jump-over/body/Return sequence, and returns the body's
// starting instruction index (the value later wrapped in a Block
// Value). It does not emit the PushConstant itself — callers decide
// whether to also record a declared name (see parseAssignment).
func (b *Builder) parseBlockBody() (int, error) {
	if err := b.advance(); err != nil { // consume 'B'
		return 0, err
	}
	over := b.deferJump(bytecode.OpJump)
	start := b.jumpIndex()
	if err := b.parseExpression(); err != nil {
		return 0, err
	}
	b.emit(bytecode.OpReturn, 0)
	b.patch(over, b.jumpIndex())
	return start, nil
}

func (b *Builder) emitBlockLiteral(start int) {
	idx := b.pushConstant(value.Block(start))
	b.emit(bytecode.OpPushConstant, idx)
}

func (b *Builder) parseIf() error {
	if err := b.advance(); err != nil {
		return err
	}
	if err := b.parseExpression(); err != nil { // condition
		return err
	}
	toFalse := b.deferJump(bytecode.OpJumpIfFalse)
	if err := b.parseExpression(); err != nil { // true branch
		return err
	}
	toEnd := b.deferJump(bytecode.OpJump)
	b.patch(toFalse, b.jumpIndex())
	if err := b.parseExpression(); err != nil { // false branch
		return err
	}
	b.patch(toEnd, b.jumpIndex())
	return nil
}

func (b *Builder) parseWhile() error {
	if err := b.advance(); err != nil {
		return err
	}
	loop := &loopCtx{}
	b.loopStack = append(b.loopStack, loop)

	nullIdx := b.pushConstant(value.Null())
	b.emit(bytecode.OpPushConstant, nullIdx)

	l1 := b.jumpIndex()
	loop.contTarget = l1
	if err := b.parseExpression(); err != nil { // condition
		return err
	}
	toEnd := b.deferJump(bytecode.OpJumpIfFalse)
	b.emit(bytecode.OpPop, 0)
	if err := b.parseExpression(); err != nil { // body
		return err
	}
	b.emit(bytecode.OpJump, l1)
	b.patch(toEnd, b.jumpIndex())

	for _, idx := range loop.breakJumps {
		b.patch(idx, b.jumpIndex())
	}
	b.loopStack = b.loopStack[:len(b.loopStack)-1]
	return nil
}

func (b *Builder) parseWord(tok Token) error {
	switch tok.Text[0] {
	case 'T':
		return b.pushLiteral(value.Boolean(true))
	case 'F':
		return b.pushLiteral(value.Boolean(false))
	case 'N':
		return b.pushLiteral(value.Null())
	case 'P':
		return b.emitZeroArity(bytecode.OpPrompt)
	case 'R':
		return b.emitZeroArity(bytecode.OpRandom)
	case 'B':
		start, err := b.parseBlockBody()
		if err != nil {
			return err
		}
		b.emitBlockLiteral(start)
		return nil
	case 'C':
		return b.parseSimpleOp(bytecode.OpCall, 1)
	case 'Q':
		return b.parseSimpleOp(bytecode.OpQuit, 1)
	case 'D':
		return b.parseSimpleOp(bytecode.OpDump, 1)
	case 'O':
		return b.parseSimpleOp(bytecode.OpOutput, 1)
	case 'L':
		return b.parseSimpleOp(bytecode.OpLength, 1)
	case 'A':
		if tok.Text == "ARGV" && b.opts.Extensions.Argv {
			if err := b.advance(); err != nil {
				return err
			}
			idx, err := b.variableIndex(tok.Text)
			if err != nil {
				return err
			}
			b.emit(bytecode.OpGetVar, idx)
			return nil
		}
		return b.parseSimpleOp(bytecode.OpAscii, 1)
	case 'I':
		return b.parseIf()
	case 'W':
		return b.parseWhile()
	case 'G':
		return b.parseSimpleOp(bytecode.OpGet, 3)
	case 'V':
		if !b.opts.Extensions.Functions.Value {
			return &ParseError{Message: "the VALUE extension is not enabled", Line: tok.Line, Col: tok.Col}
		}
		return b.parseSimpleOp(bytecode.OpValue, 1)
	case 'E':
		if !b.opts.Extensions.Functions.Eval {
			return &ParseError{Message: "the EVAL extension is not enabled", Line: tok.Line, Col: tok.Col}
		}
		return b.parseSimpleOp(bytecode.OpEval, 1)
	case 'H':
		if !b.opts.Extensions.ControlFlow.Handle {
			return &ParseError{Message: "the HANDLE extension is not enabled", Line: tok.Line, Col: tok.Col}
		}
		return b.parseHandle()
	case 'Y':
		if !b.opts.Extensions.Yeet {
			return &ParseError{Message: "the YEET extension is not enabled", Line: tok.Line, Col: tok.Col}
		}
		return b.parseSimpleOp(bytecode.OpYeet, 1)
	case 'U':
		if !b.opts.Extensions.Use {
			return &ParseError{Message: "the USE extension is not enabled", Line: tok.Line, Col: tok.Col}
		}
		return b.parseSimpleOp(bytecode.OpUse, 1)
	case 'S':
		return b.parseSimpleOp(bytecode.OpSet, 4)
	case 'X':
		return b.parseExtensionWord(tok)
	default:
		return &ParseError{Message: "unknown function: " + tok.Text, Line: tok.Line, Col: tok.Col}
	}
}

func (b *Builder) pushLiteral(v value.Value) error {
	if err := b.advance(); err != nil {
		return err
	}
	idx := b.pushConstant(v)
	b.emit(bytecode.OpPushConstant, idx)
	return nil
}

func (b *Builder) emitZeroArity(op bytecode.Opcode) error {
	if err := b.advance(); err != nil {
		return err
	}
	b.emit(op, 0)
	return nil
}

func (b *Builder) parseExtensionWord(tok Token) error {
	switch tok.Text {
	case "XSRAND":
		if !b.opts.Extensions.Xsrand {
			return &ParseError{Message: "the XSRAND extension is not enabled", Line: tok.Line, Col: tok.Col}
		}
		return b.parseSimpleOp(bytecode.OpXsrand, 1)
	case "XREVERSE":
		if !b.opts.Extensions.Xreverse {
			return &ParseError{Message: "the XREVERSE extension is not enabled", Line: tok.Line, Col: tok.Col}
		}
		return b.parseSimpleOp(bytecode.OpXreverse, 1)
	case "XRANGE":
		if !b.opts.Extensions.Xrange {
			return &ParseError{Message: "the XRANGE extension is not enabled", Line: tok.Line, Col: tok.Col}
		}
		return b.parseSimpleOp(bytecode.OpXrange, 2)
	case "XBREAK":
		if !b.opts.Extensions.ControlFlow.Break {
			return &ParseError{Message: "the XBREAK extension is not enabled", Line: tok.Line, Col: tok.Col}
		}
		return b.parseBreak()
	case "XCONTINUE":
		if !b.opts.Extensions.ControlFlow.Continue {
			return &ParseError{Message: "the XCONTINUE extension is not enabled", Line: tok.Line, Col: tok.Col}
		}
		return b.parseContinue()
	default:
		return &ParseError{Message: "unknown function: " + tok.Text, Line: tok.Line, Col: tok.Col}
	}
}

func (b *Builder) parseBreak() error {
	if len(b.loopStack) == 0 {
		return &ParseError{Message: "XBREAK used outside of a WHILE loop", Line: b.cur.Line, Col: b.cur.Col}
	}
	if err := b.advance(); err != nil {
		return err
	}
	nullIdx := b.pushConstant(value.Null())
	b.emit(bytecode.OpPushConstant, nullIdx)
	loop := b.loopStack[len(b.loopStack)-1]
	idx := b.deferJump(bytecode.OpJump)
	loop.breakJumps = append(loop.breakJumps, idx)
	return nil
}

func (b *Builder) parseContinue() error {
	if len(b.loopStack) == 0 {
		return &ParseError{Message: "XCONTINUE used outside of a WHILE loop", Line: b.cur.Line, Col: b.cur.Col}
	}
	if err := b.advance(); err != nil {
		return err
	}
	nullIdx := b.pushConstant(value.Null())
	b.emit(bytecode.OpPushConstant, nullIdx)
	loop := b.loopStack[len(b.loopStack)-1]
	b.emit(bytecode.OpJump, loop.contTarget)
	return nil
}

// parseHandle compiles `HANDLE try alt`: try is guarded by a handler
// that, on any runtime error, binds the error message to the
// well-known variable "_" and evaluates alt instead.
func (b *Builder) parseHandle() error {
	if err := b.advance(); err != nil {
		return err
	}
	catch := b.deferJump(bytecode.OpPushHandler)
	if err := b.parseExpression(); err != nil { // try
		return err
	}
	b.emit(bytecode.OpPopHandler, 0)
	end := b.deferJump(bytecode.OpJump)

	b.patch(catch, b.jumpIndex())
	idx, err := b.variableIndex("_")
	if err != nil {
		return err
	}
	b.emit(bytecode.OpSetVar, idx)
	b.emit(bytecode.OpPop, 0)
	if err := b.parseExpression(); err != nil { // alt
		return err
	}
	b.patch(end, b.jumpIndex())
	return nil
}
