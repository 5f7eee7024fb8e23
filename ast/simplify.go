package ast

import "ionscript/value"

// Simplify performs a single post-order constant-folding and dead-branch
// elimination pass over n, returning the (possibly different) root node.
// Running Simplify twice on any tree is identical to running it once
// (spec.md §8): every rule below either folds two already-simplified
// constant children, or collapses a node whose own shape makes it
// immediately re-collapsible, so a second pass finds nothing left to do.
//
// Simplification never changes observable side effects for non-constant
// operands — only literal/constant subtrees are ever folded away.
func Simplify(n *Node) *Node {
	if n == nil {
		return nil
	}
	for i, child := range n.Children {
		n.Children[i] = Simplify(child)
	}

	switch n.Kind {
	case KindNot:
		return simplifyNot(n)
	case KindNeg:
		return simplifyNeg(n)
	case KindAnd:
		return simplifyAnd(n)
	case KindOr:
		return simplifyOr(n)
	case KindAdd, KindSub, KindMul, KindDiv:
		return simplifyArith(n)
	case KindEq, KindNeq, KindLess, KindLessEq, KindGreater, KindGreaterEq:
		return simplifyComparison(n)
	case KindIf:
		return simplifyIf(n)
	case KindWhile:
		return simplifyWhile(n)
	case KindFor:
		return simplifyFor(n)
	}
	return n
}

func simplifyNot(n *Node) *Node {
	operand := n.Children[0]
	if operand.Kind == KindNot {
		return operand.Children[0]
	}
	if operand.IsConstant() {
		return NewBool(n.Line, toValue(operand).Not().Bool())
	}
	return n
}

func simplifyNeg(n *Node) *Node {
	operand := n.Children[0]
	if operand.Kind == KindNeg {
		return operand.Children[0]
	}
	if operand.Kind == KindNumber {
		return NewNumber(n.Line, -operand.Num)
	}
	return n
}

func simplifyAnd(n *Node) *Node {
	left, right := n.Children[0], n.Children[1]
	if left.IsConstant() && right.IsConstant() {
		return NewBool(n.Line, toValue(left).And(toValue(right)).Bool())
	}
	return n
}

func simplifyOr(n *Node) *Node {
	left, right := n.Children[0], n.Children[1]
	if left.IsConstant() && right.IsConstant() {
		return NewBool(n.Line, toValue(left).Or(toValue(right)).Bool())
	}
	return n
}

func simplifyArith(n *Node) *Node {
	left, right := n.Children[0], n.Children[1]
	if !left.IsConstant() || !right.IsConstant() {
		return n
	}
	lv, rv := toValue(left), toValue(right)
	var result value.Value
	var err error
	switch n.Kind {
	case KindAdd:
		result, err = lv.Add(rv)
	case KindSub:
		result, err = lv.Sub(rv)
	case KindMul:
		result, err = lv.Mul(rv)
	case KindDiv:
		result, err = lv.Div(rv)
	}
	if err != nil {
		// Leave the fold to runtime, which raises the same RuntimeError.
		return n
	}
	return fromValue(n.Line, result)
}

func simplifyComparison(n *Node) *Node {
	left, right := n.Children[0], n.Children[1]
	if !left.IsConstant() || !right.IsConstant() {
		return n
	}
	lv, rv := toValue(left), toValue(right)
	var result value.Value
	var err error
	switch n.Kind {
	case KindEq:
		result = lv.Eq(rv)
	case KindNeq:
		result = lv.Neq(rv)
	case KindLess:
		result, err = lv.Less(rv)
	case KindLessEq:
		result, err = lv.LessEq(rv)
	case KindGreater:
		result, err = lv.Greater(rv)
	case KindGreaterEq:
		result, err = lv.GreaterEq(rv)
	}
	if err != nil {
		return n
	}
	return NewBool(n.Line, result.Bool())
}

func simplifyIf(n *Node) *Node {
	cond := n.Children[0]
	if !cond.IsConstant() {
		return n
	}
	if toValue(cond).Truthy() {
		return n.Children[1]
	}
	if len(n.Children) > 2 {
		return n.Children[2]
	}
	return New(KindBlock, n.Line)
}

func simplifyWhile(n *Node) *Node {
	cond := n.Children[0]
	if cond.IsConstant() && !toValue(cond).Truthy() {
		return New(KindBlock, n.Line)
	}
	return n
}

func simplifyFor(n *Node) *Node {
	cond := n.Children[1]
	if cond.IsConstant() && !toValue(cond).Truthy() {
		return New(KindBlock, n.Line)
	}
	return n
}

func toValue(n *Node) value.Value {
	switch n.Kind {
	case KindNumber:
		return value.Number(n.Num)
	case KindString:
		return value.NewString(n.Str)
	case KindBool:
		return value.Boolean(n.Bool)
	default:
		return value.Nil()
	}
}

func fromValue(line int32, v value.Value) *Node {
	switch v.Kind() {
	case value.KindNumber:
		return NewNumber(line, v.NumberValue())
	case value.KindString:
		return NewString(line, v.StringValue())
	case value.KindBool:
		return NewBool(line, v.Bool())
	default:
		return NewNil(line)
	}
}
