package value

import "testing"

func TestTruthiness(t *testing.T) {
	falsy := []Value{
		NewList(nil),
		NewDictionary(),
		NewString(""),
		Number(0),
		Nil(),
	}
	for _, v := range falsy {
		if v.Truthy() {
			t.Errorf("%v (%v) should be falsy", v.ToString(), v.Kind())
		}
	}

	truthy := []Value{
		NewList([]Value{Number(1)}),
		NewString("x"),
		Number(1),
		Boolean(true),
		NewFunction(0, 0, 0),
	}
	for _, v := range truthy {
		if !v.Truthy() {
			t.Errorf("%v (%v) should be truthy", v.ToString(), v.Kind())
		}
	}
}

func TestArithmeticTypeMismatch(t *testing.T) {
	_, err := Number(1).Add(NewString("a"))
	if err == nil {
		t.Fatal("expected a RuntimeError")
	}
	if err.Error() != "💥 RuntimeError: cannot add a number with a string" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestStringAndListRepetition(t *testing.T) {
	got, err := NewString("ab").Mul(Number(3))
	if err != nil || got.StringValue() != "ababab" {
		t.Errorf("Mul = %v, %v, want \"ababab\"", got, err)
	}

	list, err := NewList([]Value{Number(1)}).Mul(Number(2))
	if err != nil || len(list.ListValue().Items) != 2 {
		t.Errorf("Mul list = %v, %v, want 2 items", list, err)
	}
}

func TestEqualityAcrossKinds(t *testing.T) {
	if Number(1).Eq(NewString("1")).Truthy() {
		t.Error("Number(1) should not equal String(\"1\")")
	}
	if !Nil().Eq(Nil()).Truthy() {
		t.Error("Nil should equal Nil")
	}
}

func TestDictionaryOrderingConflation(t *testing.T) {
	d := NewDictionary()
	dict := d.DictValue()
	dict.Set(Number(1), NewString("number-one"))
	dict.Set(NewString("1"), NewString("string-one"))

	if dict.Len() != 2 {
		t.Fatalf("expected two distinct keys, got %d", dict.Len())
	}
	if !dict.Get(Number(1)).Equal(NewString("number-one")) {
		t.Error("numeric key 1 lookup should not be shadowed by string key \"1\"")
	}
	keys := dict.Keys()
	if keys[0].ToString() != keys[1].ToString() {
		t.Error("Number(1) and String(\"1\") should tie in rendered sort order")
	}
}

func TestHostObjectIdentityEquality(t *testing.T) {
	freed := false
	a := NewHostOwned("widget", 42, func(any) { freed = true })
	b := a
	av := NewHost(a)
	bv := NewHost(b)
	if !av.Equal(bv) {
		t.Error("same host core should be equal")
	}
	other := NewHostOwned("widget", 42, func(any) {})
	if av.Equal(NewHost(other)) {
		t.Error("distinct host cores with equal payloads should not be equal")
	}
	a.Release()
	if !freed {
		t.Error("deleter should run when refcount reaches zero")
	}
}

func TestAssertIsPositiveInteger(t *testing.T) {
	if err := Number(3).AssertIsPositiveInteger(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Number(-1).AssertIsPositiveInteger(); err == nil {
		t.Error("expected an error for a negative number")
	}
	if err := Number(1.5).AssertIsInteger(); err == nil {
		t.Error("expected an error for a non-integral number")
	}
}
