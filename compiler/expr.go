package compiler

import (
	"fmt"
	"strconv"

	"ionscript/ast"
	"ionscript/bytecode"
)

func formatNumberKey(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// compileExpr lowers n to bytecode and returns the location holding its
// result: an interned constant's or variable's local location, or a
// freshly reserved register for a computed value.
func (c *Compiler) compileExpr(n *ast.Node) (int, error) {
	switch n.Kind {
	case ast.KindNumber, ast.KindString, ast.KindBool, ast.KindNil:
		return c.internConstant(n), nil
	case ast.KindIdentifier:
		return c.compileIdentifier(n)
	case ast.KindAssign:
		return c.compileAssign(n)
	case ast.KindAdd:
		return c.compileBinary(n, bytecode.Add)
	case ast.KindSub:
		return c.compileBinary(n, bytecode.Sub)
	case ast.KindMul:
		return c.compileBinary(n, bytecode.Mul)
	case ast.KindDiv:
		return c.compileBinary(n, bytecode.Div)
	case ast.KindAnd:
		return c.compileBinary(n, bytecode.And)
	case ast.KindOr:
		return c.compileBinary(n, bytecode.Or)
	case ast.KindEq:
		return c.compileBinary(n, bytecode.Eq)
	case ast.KindNeq:
		return c.compileBinary(n, bytecode.Neq)
	case ast.KindLess:
		return c.compileOrdering(n, bytecode.Ls)
	case ast.KindLessEq:
		return c.compileOrdering(n, bytecode.Lse)
	case ast.KindGreater:
		return c.compileOrdering(n, bytecode.Gr)
	case ast.KindGreaterEq:
		return c.compileOrdering(n, bytecode.Gre)
	case ast.KindNot:
		return c.compileUnary(n, bytecode.Not)
	case ast.KindNeg:
		return c.compileUnary(n, bytecode.Neg)
	case ast.KindIndex:
		return c.compileIndex(n)
	case ast.KindCall:
		return c.compileCall(n)
	case ast.KindList:
		return c.compileList(n)
	case ast.KindDict:
		return c.compileDict(n)
	}
	return 0, CreateSemanticError(n.Line, fmt.Sprintf("%s cannot appear as an expression", n.Kind))
}

func (c *Compiler) compileIdentifier(n *ast.Node) (int, error) {
	if loc, ok := c.findLocal(n.Str); ok {
		return loc, nil
	}
	if c.varDeclOK() {
		loc := c.declareLocal(n.Str)
		c.writer.WriteOpcode(bytecode.Push)
		return loc, nil
	}
	return 0, CreateSemanticError(n.Line, fmt.Sprintf("undefined variable '%s'", n.Str))
}

func (c *Compiler) emitMove(dst, src int) {
	if dst == src {
		return
	}
	c.writer.WriteOpcode(bytecode.Move)
	c.writer.WriteLoc(dst)
	c.writer.WriteLoc(src)
}

func (c *Compiler) compileAssign(n *ast.Node) (int, error) {
	target, valueNode := n.Children[0], n.Children[1]

	if target.Kind == ast.KindIndex {
		return c.compileIndexAssign(target, valueNode)
	}

	valueLoc, err := c.compileExpr(valueNode)
	if err != nil {
		return 0, err
	}

	c.pushVarDecl(true)
	existingLoc, existed := c.findLocal(target.Str)
	c.popVarDecl()

	if existed {
		c.emitMove(existingLoc, valueLoc)
		c.freeIfReg(valueLoc)
		return existingLoc, nil
	}

	newLoc := c.declareLocal(target.Str)
	c.writer.WriteOpcode(bytecode.PushVal)
	c.writer.WriteLoc(valueLoc)
	c.freeIfReg(valueLoc)
	if c.isRoot() {
		delete(c.globalFuncs, target.Str) // a plain variable shadows any earlier global function of the same name
	}
	return newLoc, nil
}

func (c *Compiler) compileIndexAssign(target, valueNode *ast.Node) (int, error) {
	contLoc, err := c.compileExpr(target.Children[0])
	if err != nil {
		return 0, err
	}
	idxLoc, err := c.compileExpr(target.Children[1])
	if err != nil {
		return 0, err
	}
	valLoc, err := c.compileExpr(valueNode)
	if err != nil {
		return 0, err
	}

	c.writer.WriteOpcode(bytecode.Set)
	c.writer.WriteLoc(valLoc)
	c.writer.WriteLoc(contLoc)
	c.writer.WriteLoc(idxLoc)

	c.freeIfReg(valLoc)
	c.freeIfReg(idxLoc)
	c.freeIfReg(contLoc)
	return valLoc, nil
}

func (c *Compiler) compileBinary(n *ast.Node, op bytecode.Opcode) (int, error) {
	left, err := c.compileExpr(n.Children[0])
	if err != nil {
		return 0, err
	}
	right, err := c.compileExpr(n.Children[1])
	if err != nil {
		return 0, err
	}
	c.freeIfReg(right)
	c.freeIfReg(left)
	dst, err := c.allocReg(n.Line)
	if err != nil {
		return 0, err
	}
	c.writer.WriteOpcode(op)
	c.writer.WriteLoc(dst)
	c.writer.WriteLoc(left)
	c.writer.WriteLoc(right)
	return dst, nil
}

// compileOrdering lowers <, <=, >, >= — rejecting, at compile time, an
// ordering between two operands that are both literal constants of
// incompatible kinds (spec.md §4.6's comparison-consistency rule). A
// non-constant operand's kind isn't known until runtime, so those cases
// surface as a RuntimeError from the VM instead.
func (c *Compiler) compileOrdering(n *ast.Node, op bytecode.Opcode) (int, error) {
	left, right := n.Children[0], n.Children[1]
	if err := checkOrderingTypes(n.Line, left, right); err != nil {
		return 0, err
	}
	return c.compileBinary(n, op)
}

func checkOrderingTypes(line int32, left, right *ast.Node) error {
	unorderable := func(k ast.Kind) bool { return k == ast.KindNil || k == ast.KindBool }
	if left.IsConstant() && unorderable(left.Kind) {
		return CreateSemanticError(line, "cannot order a nil or boolean value")
	}
	if right.IsConstant() && unorderable(right.Kind) {
		return CreateSemanticError(line, "cannot order a nil or boolean value")
	}
	if left.IsConstant() && right.IsConstant() {
		mixed := (left.Kind == ast.KindNumber && right.Kind == ast.KindString) ||
			(left.Kind == ast.KindString && right.Kind == ast.KindNumber)
		if mixed {
			return CreateSemanticError(line, "cannot compare a number with a string")
		}
	}
	return nil
}

func (c *Compiler) compileUnary(n *ast.Node, op bytecode.Opcode) (int, error) {
	operand, err := c.compileExpr(n.Children[0])
	if err != nil {
		return 0, err
	}
	c.freeIfReg(operand)
	dst, err := c.allocReg(n.Line)
	if err != nil {
		return 0, err
	}
	c.writer.WriteOpcode(op)
	c.writer.WriteLoc(dst)
	c.writer.WriteLoc(operand)
	return dst, nil
}

func (c *Compiler) compileIndex(n *ast.Node) (int, error) {
	cont, err := c.compileExpr(n.Children[0])
	if err != nil {
		return 0, err
	}
	idx, err := c.compileExpr(n.Children[1])
	if err != nil {
		return 0, err
	}
	c.freeIfReg(idx)
	c.freeIfReg(cont)
	dst, err := c.allocReg(n.Line)
	if err != nil {
		return 0, err
	}
	c.writer.WriteOpcode(bytecode.Get)
	c.writer.WriteLoc(dst)
	c.writer.WriteLoc(cont)
	c.writer.WriteLoc(idx)
	return dst, nil
}

func (c *Compiler) compileList(n *ast.Node) (int, error) {
	dst, err := c.allocReg(n.Line)
	if err != nil {
		return 0, err
	}
	c.writer.WriteOpcode(bytecode.ListNew)
	c.writer.WriteLoc(dst)
	for _, el := range n.Children {
		elLoc, err := c.compileExpr(el)
		if err != nil {
			return 0, err
		}
		c.writer.WriteOpcode(bytecode.ListAdd)
		c.writer.WriteLoc(dst)
		c.writer.WriteLoc(elLoc)
		c.freeIfReg(elLoc)
	}
	return dst, nil
}

func (c *Compiler) compileDict(n *ast.Node) (int, error) {
	dst, err := c.allocReg(n.Line)
	if err != nil {
		return 0, err
	}
	c.writer.WriteOpcode(bytecode.DictionaryNew)
	c.writer.WriteLoc(dst)
	for i := 0; i < len(n.Children); i += 2 {
		kLoc, err := c.compileExpr(n.Children[i])
		if err != nil {
			return 0, err
		}
		vLoc, err := c.compileExpr(n.Children[i+1])
		if err != nil {
			return 0, err
		}
		c.writer.WriteOpcode(bytecode.DictionaryAdd)
		c.writer.WriteLoc(dst)
		c.writer.WriteLoc(kLoc)
		c.writer.WriteLoc(vLoc)
		c.freeIfReg(vLoc)
		c.freeIfReg(kLoc)
	}
	return dst, nil
}
