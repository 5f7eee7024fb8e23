package compiler

import (
	"fmt"

	"ionscript/ast"
	"ionscript/bytecode"
)

// compileCall resolves a call site in the order spec.md §4.6 prescribes:
// a local variable holding a function value, then a previously-defined
// root-level script function, then a registered host function.
func (c *Compiler) compileCall(n *ast.Node) (int, error) {
	name := n.Str
	if loc, ok := c.findLocal(name); ok {
		c.writer.WriteOpcode(bytecode.PrepareCallLocal)
		c.writer.WriteLoc(loc)
		return c.finishScriptCall(n, bytecode.CallScriptLocal)
	}
	if idx, ok := c.globalFuncs[name]; ok {
		c.writer.WriteOpcode(bytecode.PrepareCallGlobal)
		c.writer.WriteByte(byte(idx))
		return c.finishScriptCall(n, bytecode.CallScriptGlobal)
	}
	if sig, ok := c.hostFuncs[name]; ok {
		return c.compileHostCall(n, sig)
	}
	return 0, CreateSemanticError(n.Line, fmt.Sprintf("call to undefined function '%s'", name))
}

// finishScriptCall pushes n's arguments and emits callOp. A call never
// leaves its argument slots behind: Return/ReturnNil truncates the
// callee's whole frame and pushes back exactly one result value, so the
// only name-stack bookkeeping needed here is for that single slot.
func (c *Compiler) finishScriptCall(n *ast.Node, callOp bytecode.Opcode) (int, error) {
	if len(n.Children) > 255 {
		return 0, CreateSemanticError(n.Line, "too many arguments in call")
	}
	if err := c.pushCallArgs(n.Children); err != nil {
		return 0, err
	}
	c.writer.WriteOpcode(callOp)
	c.writer.WriteByte(byte(len(n.Children)))
	return c.declareLocal("$call"), nil
}

func (c *Compiler) compileHostCall(n *ast.Node, sig HostFunctionSignature) (int, error) {
	nArgs := len(n.Children)
	if nArgs < sig.MinArgs || (sig.MaxArgs >= 0 && nArgs > sig.MaxArgs) {
		return 0, CreateSemanticError(n.Line, fmt.Sprintf("'%s' expects %s, got %d argument(s)", n.Str, arityDesc(sig), nArgs))
	}
	if err := c.pushCallArgs(n.Children); err != nil {
		return 0, err
	}
	c.writer.WriteOpcode(bytecode.CallHost)
	c.writer.WriteByte(sig.Group)
	c.writer.WriteByte(sig.FuncID)
	c.writer.WriteByte(byte(nArgs))
	return c.declareLocal("$call"), nil
}

func arityDesc(sig HostFunctionSignature) string {
	if sig.MaxArgs < 0 {
		return fmt.Sprintf("at least %d argument(s)", sig.MinArgs)
	}
	if sig.MinArgs == sig.MaxArgs {
		return fmt.Sprintf("%d argument(s)", sig.MinArgs)
	}
	return fmt.Sprintf("between %d and %d arguments", sig.MinArgs, sig.MaxArgs)
}

func (c *Compiler) pushCallArgs(args []*ast.Node) error {
	argLocs := make([]int, len(args))
	for i, arg := range args {
		loc, err := c.compileExpr(arg)
		if err != nil {
			return err
		}
		argLocs[i] = loc
	}
	for _, loc := range argLocs {
		c.writer.WriteOpcode(bytecode.PushVal)
		c.writer.WriteLoc(loc)
	}
	for i := len(argLocs) - 1; i >= 0; i-- {
		c.freeIfReg(argLocs[i])
	}
	return nil
}

// compileStmt lowers a statement, discarding whatever value-location an
// expression statement produces.
func (c *Compiler) compileStmt(n *ast.Node) error {
	switch n.Kind {
	case ast.KindBlock:
		return c.compileBlockStmt(n)
	case ast.KindIf:
		return c.compileIf(n)
	case ast.KindWhile:
		return c.compileWhile(n)
	case ast.KindFor:
		return c.compileFor(n)
	case ast.KindFuncDef:
		return c.compileFuncDef(n)
	case ast.KindReturn:
		return c.compileReturn(n)
	case ast.KindBreak:
		return c.compileBreak(n)
	case ast.KindContinue:
		return c.compileContinue(n)
	default:
		_, err := c.compileExpr(n)
		return err
	}
}

// compileBlockStmt compiles a nested block's statements under a fresh
// baseline, popping everything it declared on the way out.
func (c *Compiler) compileBlockStmt(n *ast.Node) error {
	baseline := len(c.names)
	for _, stmt := range n.Children {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	c.popNamesTo(baseline)
	return nil
}

func (c *Compiler) compileIf(n *ast.Node) error {
	condLoc, err := c.compileExpr(n.Children[0])
	if err != nil {
		return err
	}
	c.freeIfReg(condLoc)

	c.writer.WriteOpcode(bytecode.JumpCond)
	c.writer.WriteLoc(condLoc)
	elseJumpPos := c.writer.Len()
	c.writer.WriteU32(0)

	if err := c.compileStmt(n.Children[1]); err != nil {
		return err
	}

	c.writer.WriteOpcode(bytecode.Jump)
	endJumpPos := c.writer.Len()
	c.writer.WriteU32(0)

	c.writer.Patch(elseJumpPos, uint32(c.writer.Len()))
	if len(n.Children) > 2 {
		if err := c.compileStmt(n.Children[2]); err != nil {
			return err
		}
	}
	c.writer.Patch(endJumpPos, uint32(c.writer.Len()))
	return nil
}

func (c *Compiler) compileWhile(n *ast.Node) error {
	condNode, bodyNode := n.Children[0], n.Children[1]
	baseline := len(c.names)

	c.predeclareAssignTargets(condNode)
	condStart := c.writer.Len()

	condLoc, err := c.compileExpr(condNode)
	if err != nil {
		return err
	}
	c.freeIfReg(condLoc)

	c.writer.WriteOpcode(bytecode.JumpCond)
	c.writer.WriteLoc(condLoc)
	endJumpPos := c.writer.Len()
	c.writer.WriteU32(0)

	c.loops = append(c.loops, &loopScope{nameStackSize: len(c.names)})
	if err := c.compileStmt(bodyNode); err != nil {
		return err
	}
	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]

	c.writer.WriteOpcode(bytecode.Jump)
	c.writer.WriteU32(uint32(condStart))

	end := uint32(c.writer.Len())
	c.writer.Patch(endJumpPos, end)
	for _, pos := range loop.breakFixups {
		c.writer.Patch(pos, end)
	}
	for _, pos := range loop.continueFixups {
		c.writer.Patch(pos, uint32(condStart))
	}

	c.popNamesTo(baseline)
	return nil
}

func (c *Compiler) compileFor(n *ast.Node) error {
	initNode, condNode, stepNode, bodyNode := n.Children[0], n.Children[1], n.Children[2], n.Children[3]
	baseline := len(c.names)

	if initNode != nil {
		if err := c.compileStmt(initNode); err != nil {
			return err
		}
	}

	if condNode != nil {
		c.predeclareAssignTargets(condNode)
	}
	condStart := c.writer.Len()

	var endJumpPos int
	hasCond := condNode != nil
	if hasCond {
		condLoc, err := c.compileExpr(condNode)
		if err != nil {
			return err
		}
		c.freeIfReg(condLoc)
		c.writer.WriteOpcode(bytecode.JumpCond)
		c.writer.WriteLoc(condLoc)
		endJumpPos = c.writer.Len()
		c.writer.WriteU32(0)
	}

	c.loops = append(c.loops, &loopScope{nameStackSize: len(c.names)})
	if err := c.compileStmt(bodyNode); err != nil {
		return err
	}
	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]

	stepStart := c.writer.Len()
	if stepNode != nil {
		stepBase := len(c.names)
		if err := c.compileStmt(stepNode); err != nil {
			return err
		}
		c.popNamesTo(stepBase)
	}

	c.writer.WriteOpcode(bytecode.Jump)
	c.writer.WriteU32(uint32(condStart))

	end := uint32(c.writer.Len())
	if hasCond {
		c.writer.Patch(endJumpPos, end)
	}
	for _, pos := range loop.breakFixups {
		c.writer.Patch(pos, end)
	}
	for _, pos := range loop.continueFixups {
		c.writer.Patch(pos, uint32(stepStart))
	}

	c.popNamesTo(baseline)
	return nil
}

// compileFuncDef lowers a function definition. The caller pushes n_args
// values via PushVal before jumping to entry, so the callee's parameters
// are bookkept with declareLocal only — pushing here would duplicate the
// caller's PushVal and misalign the frame.
func (c *Compiler) compileFuncDef(n *ast.Node) error {
	c.writer.WriteOpcode(bytecode.Jump)
	skipPos := c.writer.Len()
	c.writer.WriteU32(0)

	entry := c.writer.Len()
	if c.isRoot() {
		// Registered before the body so the function can call itself; this
		// is the index its slot receives once the body is compiled.
		c.globalFuncs[n.Str] = len(c.names)
	}
	c.funcs = append(c.funcs, &funcScope{framePointer: len(c.names), constants: map[string]int{}})
	c.pushVarDecl(false)
	c.loops = append(c.loops, nil) // break/continue are illegal across a function boundary; the parser already enforces this

	c.writer.WriteOpcode(bytecode.Reg)
	regPos := c.writer.Len()
	c.writer.WriteByte(0)

	for _, p := range n.Params() {
		c.declareLocal(p.Str)
	}

	if err := c.compileStmt(n.Body()); err != nil {
		return err
	}
	c.writer.WriteOpcode(bytecode.ReturnNil)

	f := c.funcs[len(c.funcs)-1]
	nRegs := f.maxReg
	c.writer.PatchByte(regPos, byte(nRegs))
	c.funcs = c.funcs[:len(c.funcs)-1]
	c.loops = c.loops[:len(c.loops)-1]
	c.popVarDecl()
	c.names = c.names[:f.framePointer]

	c.writer.Patch(skipPos, uint32(c.writer.Len()))

	loc := c.declareLocal(n.Str)
	c.writer.WriteOpcode(bytecode.Push)
	if c.isRoot() {
		c.globalFuncs[n.Str] = len(c.names) - 1
	}
	c.writer.WriteOpcode(bytecode.StoreAtFunction)
	c.writer.WriteLoc(loc)
	c.writer.WriteU32(uint32(entry))
	c.writer.WriteByte(byte(len(n.Params())))
	c.writer.WriteByte(byte(nRegs))
	return nil
}

func (c *Compiler) compileReturn(n *ast.Node) error {
	if len(n.Children) == 0 {
		c.writer.WriteOpcode(bytecode.ReturnNil)
		return nil
	}
	valueLoc, err := c.compileExpr(n.Children[0])
	if err != nil {
		return err
	}
	c.writer.WriteOpcode(bytecode.Return)
	c.writer.WriteLoc(valueLoc)
	c.freeIfReg(valueLoc)
	return nil
}

func (c *Compiler) compileBreak(n *ast.Node) error {
	loop := c.curLoop()
	c.emitPopCount(len(c.names) - loop.nameStackSize)
	c.writer.WriteOpcode(bytecode.Jump)
	loop.breakFixups = append(loop.breakFixups, c.writer.Len())
	c.writer.WriteU32(0)
	return nil
}

func (c *Compiler) compileContinue(n *ast.Node) error {
	loop := c.curLoop()
	c.emitPopCount(len(c.names) - loop.nameStackSize)
	c.writer.WriteOpcode(bytecode.Jump)
	loop.continueFixups = append(loop.continueFixups, c.writer.Len())
	c.writer.WriteU32(0)
	return nil
}

// predeclareAssignTargets pre-declares any not-yet-declared identifier
// assigned inside a loop condition (e.g. `while (x = next())`), pushing
// its slot once, and interns every constant the condition uses, both
// before the loop's repeated bytecode begins. Without this, re-evaluating
// the condition every iteration would re-push those slots and grow the
// stack without bound.
func (c *Compiler) predeclareAssignTargets(n *ast.Node) {
	if n == nil {
		return
	}
	if n.IsConstant() {
		c.internConstant(n)
		return
	}
	if n.Kind == ast.KindAssign {
		target := n.Children[0]
		if target.Kind == ast.KindIdentifier {
			if _, ok := c.findLocal(target.Str); !ok {
				c.declareLocal(target.Str)
				c.writer.WriteOpcode(bytecode.Push)
			}
		}
	}
	for _, child := range n.Children {
		c.predeclareAssignTargets(child)
	}
}
