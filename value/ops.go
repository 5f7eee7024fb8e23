package value

import "strings"

// Add implements `+`: numeric addition, string/list concatenation.
func (v Value) Add(other Value) (Value, error) {
	switch {
	case v.kind == KindNumber && other.kind == KindNumber:
		return Number(v.num + other.num), nil
	case v.kind == KindString && other.kind == KindString:
		return NewString(v.str + other.str), nil
	case v.kind == KindList && other.kind == KindList:
		items := make([]Value, 0, len(v.list.Items)+len(other.list.Items))
		items = append(items, v.list.Items...)
		items = append(items, other.list.Items...)
		return NewList(items), nil
	}
	return Nil(), cannot("add", v, other)
}

// Sub implements `-`: numeric subtraction only.
func (v Value) Sub(other Value) (Value, error) {
	if v.kind == KindNumber && other.kind == KindNumber {
		return Number(v.num - other.num), nil
	}
	return Nil(), cannot("subtract", v, other)
}

// Mul implements `*`: numeric multiplication, and String/List repetition by
// a non-negative integer.
func (v Value) Mul(other Value) (Value, error) {
	if v.kind == KindNumber && other.kind == KindNumber {
		return Number(v.num * other.num), nil
	}
	if v.kind == KindString && other.IsPositiveInteger() {
		return NewString(strings.Repeat(v.str, int(other.num))), nil
	}
	if v.kind == KindList && other.IsPositiveInteger() {
		n := int(other.num)
		items := make([]Value, 0, len(v.list.Items)*n)
		for i := 0; i < n; i++ {
			items = append(items, v.list.Items...)
		}
		return NewList(items), nil
	}
	return Nil(), cannot("multiply", v, other)
}

// Div implements `/`: numeric division only.
func (v Value) Div(other Value) (Value, error) {
	if v.kind == KindNumber && other.kind == KindNumber {
		return Number(v.num / other.num), nil
	}
	return Nil(), cannot("divide", v, other)
}

// Not implements unary `!`/`not` via the truthiness rule.
func (v Value) Not() Value {
	return Boolean(!v.Truthy())
}

// Neg implements unary `-`.
func (v Value) Neg() (Value, error) {
	if v.kind != KindNumber {
		return Nil(), CreateRuntimeError("cannot negate a " + v.Kind().String())
	}
	return Number(-v.num), nil
}

// And implements `&&`/`and` via the truthiness rule.
func (v Value) And(other Value) Value {
	return Boolean(v.Truthy() && other.Truthy())
}

// Or implements `||`/`or` via the truthiness rule.
func (v Value) Or(other Value) Value {
	return Boolean(v.Truthy() || other.Truthy())
}

// Eq implements `==`: same-kind structural equality; different kinds are
// always unequal.
func (v Value) Eq(other Value) Value {
	return Boolean(v.Equal(other))
}

// Neq implements `!=`.
func (v Value) Neq(other Value) Value {
	return Boolean(!v.Equal(other))
}

// Less implements `<`, defined for Number/Number and String/String.
func (v Value) Less(other Value) (Value, error) {
	switch {
	case v.kind == KindNumber && other.kind == KindNumber:
		return Boolean(v.num < other.num), nil
	case v.kind == KindString && other.kind == KindString:
		return Boolean(v.str < other.str), nil
	}
	return Nil(), cannot("compare", v, other)
}

// Greater implements `>`.
func (v Value) Greater(other Value) (Value, error) {
	switch {
	case v.kind == KindNumber && other.kind == KindNumber:
		return Boolean(v.num > other.num), nil
	case v.kind == KindString && other.kind == KindString:
		return Boolean(v.str > other.str), nil
	}
	return Nil(), cannot("compare", v, other)
}

// LessEq implements `<=`.
func (v Value) LessEq(other Value) (Value, error) {
	switch {
	case v.kind == KindNumber && other.kind == KindNumber:
		return Boolean(v.num <= other.num), nil
	case v.kind == KindString && other.kind == KindString:
		return Boolean(v.str <= other.str), nil
	}
	return Nil(), cannot("compare", v, other)
}

// GreaterEq implements `>=`.
func (v Value) GreaterEq(other Value) (Value, error) {
	switch {
	case v.kind == KindNumber && other.kind == KindNumber:
		return Boolean(v.num >= other.num), nil
	case v.kind == KindString && other.kind == KindString:
		return Boolean(v.str >= other.str), nil
	}
	return Nil(), cannot("compare", v, other)
}

// AssertType fails with a RuntimeError unless v's kind is one of mask.
func (v Value) AssertType(mask Mask) error {
	if maskOf(v.kind)&mask != 0 {
		return nil
	}
	return CreateRuntimeError("expected a value of a different type, got a " + v.Kind().String())
}

// AssertIsInteger fails with a RuntimeError unless v is an integral Number.
func (v Value) AssertIsInteger() error {
	if v.IsInteger() {
		return nil
	}
	return CreateRuntimeError("expected an integer, got " + v.ToString())
}

// AssertIsPositiveInteger fails with a RuntimeError unless v is an integral
// Number >= 0.
func (v Value) AssertIsPositiveInteger() error {
	if v.IsPositiveInteger() {
		return nil
	}
	return CreateRuntimeError("expected a non-negative integer, got " + v.ToString())
}
