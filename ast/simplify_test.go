package ast

import "testing"

func TestConstantFoldingArithmetic(t *testing.T) {
	// 1 + 2 * 3
	tree := New(KindAdd, 1,
		NewNumber(1, 1),
		New(KindMul, 1, NewNumber(1, 2), NewNumber(1, 3)),
	)
	got := Simplify(tree)
	if got.Kind != KindNumber || got.Num != 7 {
		t.Fatalf("Simplify(1+2*3) = %+v, want Number(7)", got)
	}
}

func TestConstantFoldingStringConcat(t *testing.T) {
	tree := New(KindAdd, 1, NewString(1, "a"), NewString(1, "b"))
	got := Simplify(tree)
	if got.Kind != KindString || got.Str != "ab" {
		t.Fatalf("Simplify(\"a\"+\"b\") = %+v, want String(\"ab\")", got)
	}
}

func TestDoubleNegationFolding(t *testing.T) {
	tree := New(KindNot, 1, New(KindNot, 1, NewBool(1, true)))
	got := Simplify(tree)
	if got.Kind != KindBool || got.Bool != true {
		t.Fatalf("Simplify(not not true) = %+v, want Bool(true)", got)
	}
}

func TestDoubleNegationNonConstant(t *testing.T) {
	x := NewIdentifier(1, "x")
	tree := New(KindNot, 1, New(KindNot, 1, x))
	got := Simplify(tree)
	if got.Kind != KindIdentifier {
		t.Fatalf("Simplify(not not x) = %+v, want Identifier(x)", got)
	}
}

func TestIfCollapse(t *testing.T) {
	then := New(KindBlock, 1, NewNumber(1, 1))
	els := New(KindBlock, 1, NewNumber(1, 2))

	got := Simplify(New(KindIf, 1, NewBool(1, true), then, els))
	if got != then {
		t.Errorf("if(true, T, F) should collapse to T")
	}

	got = Simplify(New(KindIf, 1, NewBool(1, false), then, els))
	if got != els {
		t.Errorf("if(false, T, F) should collapse to F")
	}
}

func TestWhileFalseCollapse(t *testing.T) {
	body := New(KindBlock, 1, NewNumber(1, 1))
	got := Simplify(New(KindWhile, 1, NewBool(1, false), body))
	if got.Kind != KindBlock || len(got.Children) != 0 {
		t.Fatalf("while(false, B) should collapse to an empty block, got %+v", got)
	}
}

func TestForFalseCollapse(t *testing.T) {
	init := New(KindAssign, 1, NewIdentifier(1, "i"), NewNumber(1, 0))
	step := New(KindAssign, 1, NewIdentifier(1, "i"), NewNumber(1, 1))
	body := New(KindBlock, 1)
	got := Simplify(New(KindFor, 1, init, NewBool(1, false), step, body))
	if got.Kind != KindBlock || len(got.Children) != 0 {
		t.Fatalf("for(init, false, step, B) should collapse to an empty block, got %+v", got)
	}
}

func TestSimplifierIdempotent(t *testing.T) {
	tree := New(KindIf, 1,
		New(KindAnd, 1, NewBool(1, true), NewBool(1, false)),
		New(KindBlock, 1, New(KindAdd, 1, NewNumber(1, 1), NewNumber(1, 2))),
		New(KindBlock, 1),
	)
	once := Simplify(tree)
	twice := Simplify(once)
	if !nodesEqual(once, twice) {
		t.Fatalf("Simplify is not idempotent: once=%+v twice=%+v", once, twice)
	}
}

func nodesEqual(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Str != b.Str || a.Num != b.Num || a.Bool != b.Bool {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !nodesEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
