// Package compiler lowers a simplified syntax tree into IonScript
// bytecode: a flat instruction stream addressed by frame-relative
// locations, following the register/local hybrid described in spec.md
// §4.6.
package compiler

import (
	"fmt"

	"ionscript/ast"
	"ionscript/bytecode"
)

// maxRegisters bounds how many scratch registers one function's frame
// preamble can reserve, since a register is addressed by a negative
// signed byte location (spec.md §9: deep nesting must fail cleanly
// instead of silently wrapping).
const maxRegisters = 127

// funcScope carries the compiler state scoped to one function body
// currently being compiled: where its frame begins on the name stack, its
// deepest register usage so far, and the constants it has interned.
type funcScope struct {
	framePointer int
	curReg       int
	maxReg       int
	constants    map[string]int // interned literal key -> absolute name-stack index
}

// loopScope records what an enclosing break/continue needs: how far to
// unwind the name stack, and the jump-offset fixup lists to patch once the
// loop's start/end bytecode offsets are known.
type loopScope struct {
	nameStackSize  int
	breakFixups    []int
	continueFixups []int
}

// Compiler carries the state described in spec.md §4.6: a name stack
// partitioned into activation frames, a variable-declaration-allowed flag
// valid only on assignment targets, and a global function table for
// call-site binding. There is no declare-only mode: loop conditions get a
// separate pre-pass (predeclareAssignTargets), and the names it declares
// are popped with the rest of the loop's names when the loop ends, so none
// of them is visible after the loop.
type Compiler struct {
	writer         *bytecode.Writer
	names          []string
	funcs          []*funcScope
	varDeclAllowed []bool
	loops          []*loopScope
	globalFuncs    map[string]int
	hostFuncs      map[string]HostFunctionSignature
}

// New creates a Compiler ready to compile a top-level block. hostFuncs
// describes every function the embedding host has registered (may be nil).
func New(hostFuncs map[string]HostFunctionSignature) *Compiler {
	if hostFuncs == nil {
		hostFuncs = map[string]HostFunctionSignature{}
	}
	return &Compiler{
		writer:         bytecode.NewWriter(),
		varDeclAllowed: []bool{false},
		globalFuncs:    map[string]int{},
		hostFuncs:      hostFuncs,
		funcs:          []*funcScope{{constants: map[string]int{}}},
	}
}

// Compile lowers root (the parser's top-level block) into a Program.
func Compile(root *ast.Node, hostFuncs map[string]HostFunctionSignature) (*bytecode.Program, error) {
	c := New(hostFuncs)
	c.writer.WriteOpcode(bytecode.Reg)
	regPos := c.writer.Len()
	c.writer.WriteByte(0)

	for _, stmt := range root.Children {
		if err := c.compileStmt(stmt); err != nil {
			return nil, err
		}
	}
	c.writer.PatchByte(regPos, byte(c.curFunc().maxReg))
	return &bytecode.Program{Code: c.writer.Bytes()}, nil
}

func (c *Compiler) curFunc() *funcScope      { return c.funcs[len(c.funcs)-1] }
func (c *Compiler) curLoop() *loopScope      { return c.loops[len(c.loops)-1] }
func (c *Compiler) isRoot() bool             { return len(c.funcs) == 1 }
func (c *Compiler) varDeclOK() bool          { return c.varDeclAllowed[len(c.varDeclAllowed)-1] }
func (c *Compiler) pushVarDecl(allowed bool) { c.varDeclAllowed = append(c.varDeclAllowed, allowed) }
func (c *Compiler) popVarDecl()              { c.varDeclAllowed = c.varDeclAllowed[:len(c.varDeclAllowed)-1] }

// declareLocal appends name to the name stack and returns its location
// relative to the current function's frame pointer. Callers are
// responsible for emitting whatever opcode keeps the VM's physical value
// stack in lockstep with this new slot.
func (c *Compiler) declareLocal(name string) int {
	c.names = append(c.names, name)
	return len(c.names) - 1 - c.curFunc().framePointer
}

// findLocal searches only the current activation frame, per spec.md
// §4.6's variable-read rule: IonScript has no lexical closures over
// enclosing functions' locals.
func (c *Compiler) findLocal(name string) (int, bool) {
	f := c.curFunc()
	for i := len(c.names) - 1; i >= f.framePointer; i-- {
		if c.names[i] == name {
			return i - f.framePointer, true
		}
	}
	return 0, false
}

// popNamesTo truncates the name stack back to baseline and emits the
// matching Pop/PopN, for a block (or function) falling through its end.
// Constants interned at or above baseline are invalidated: their slots no
// longer exist, so a later reference re-interns and re-pushes them. At root
// level, global functions whose slots lie at or above baseline are dropped
// from the global function table for the same reason.
func (c *Compiler) popNamesTo(baseline int) {
	count := len(c.names) - baseline
	if count <= 0 {
		return
	}
	c.names = c.names[:baseline]
	f := c.curFunc()
	for key, idx := range f.constants {
		if idx >= baseline {
			delete(f.constants, key)
		}
	}
	if c.isRoot() {
		for name, idx := range c.globalFuncs {
			if idx >= baseline {
				delete(c.globalFuncs, name)
			}
		}
	}
	c.emitPopCount(count)
}

func (c *Compiler) emitPopCount(count int) {
	switch {
	case count <= 0:
		return
	case count == 1:
		c.writer.WriteOpcode(bytecode.Pop)
	default:
		c.writer.WriteOpcode(bytecode.PopN)
		c.writer.WriteByte(byte(count))
	}
}

// allocReg reserves the next scratch register in the current function and
// returns its location (a negative byte).
func (c *Compiler) allocReg(line int32) (int, error) {
	f := c.curFunc()
	f.curReg++
	if f.curReg > maxRegisters {
		return 0, CreateSemanticError(line, fmt.Sprintf("expression nests too deeply: exceeded %d registers", maxRegisters))
	}
	if f.curReg > f.maxReg {
		f.maxReg = f.curReg
	}
	return -f.curReg, nil
}

// freeIfReg releases loc if it is the most-recently allocated register,
// letting chained binary expressions (a+b+c+d+e) reuse one slot instead of
// growing the register count with expression depth.
func (c *Compiler) freeIfReg(loc int) {
	f := c.curFunc()
	if loc < 0 && -loc == f.curReg {
		f.curReg--
	}
}

func internKey(n *ast.Node) string {
	switch n.Kind {
	case ast.KindString:
		return "$" + n.Str
	case ast.KindBool:
		if n.Bool {
			return "true"
		}
		return "false"
	case ast.KindNil:
		return "nil"
	default:
		return formatNumberKey(n.Num)
	}
}

// internConstant interns a literal as a named slot on the current frame,
// emitting its push the first time it is seen and reusing the existing
// location on every later reference (spec.md §4.6).
func (c *Compiler) internConstant(n *ast.Node) int {
	f := c.curFunc()
	key := internKey(n)
	if idx, ok := f.constants[key]; ok {
		return idx - f.framePointer
	}

	idx := len(c.names)
	c.names = append(c.names, key)

	switch n.Kind {
	case ast.KindNumber:
		c.writer.WriteOpcode(bytecode.PushN)
		c.writer.WriteF64(n.Num)
	case ast.KindString:
		c.writer.WriteOpcode(bytecode.PushS)
		c.writer.WriteString(n.Str)
	case ast.KindBool:
		c.writer.WriteOpcode(bytecode.PushB)
		c.writer.WriteBool(n.Bool)
	case ast.KindNil:
		c.writer.WriteOpcode(bytecode.Push)
	}

	f.constants[key] = idx
	return idx - f.framePointer
}
