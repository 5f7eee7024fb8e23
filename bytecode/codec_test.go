package bytecode

import (
	"bytes"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteOpcode(PushN)
	w.WriteF64(3.5)
	w.WriteOpcode(PushS)
	w.WriteString("hello")
	w.WriteOpcode(PopTo)
	w.WriteLoc(-2)

	r := NewReader(w.Bytes())
	if op := r.ReadOpcode(); op != PushN {
		t.Fatalf("expected PushN, got %v", op)
	}
	if v := r.ReadF64(); v != 3.5 {
		t.Fatalf("expected 3.5, got %v", v)
	}
	if op := r.ReadOpcode(); op != PushS {
		t.Fatalf("expected PushS, got %v", op)
	}
	if s := r.ReadString(); s != "hello" {
		t.Fatalf("expected %q, got %q", "hello", s)
	}
	if op := r.ReadOpcode(); op != PopTo {
		t.Fatalf("expected PopTo, got %v", op)
	}
	if loc := r.ReadLoc(); loc != -2 {
		t.Fatalf("expected -2, got %d", loc)
	}
	if !r.AtEnd() {
		t.Fatalf("expected reader to be exhausted")
	}
}

func TestPatchBackfillsJumpTarget(t *testing.T) {
	w := NewWriter()
	w.WriteOpcode(Jump)
	placeholder := w.Len()
	w.WriteU32(0)
	w.Patch(placeholder, 42)

	r := NewReader(w.Bytes())
	r.ReadOpcode()
	if target := r.ReadU32(); target != 42 {
		t.Fatalf("expected patched target 42, got %d", target)
	}
}

func TestFileHeaderRoundTrip(t *testing.T) {
	body := []byte{byte(PushN), 1, 2, 3, 4, 5, 6, 7, 8}
	var buf bytes.Buffer
	if err := WriteFile(&buf, body); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(&buf)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("round-tripped body mismatch: got %v want %v", got, body)
	}
}

func TestFileRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, 12))
	if _, err := ReadFile(buf); err == nil {
		t.Fatalf("expected a BadStreamError for a zeroed header")
	}
}

func TestDisassembleDoesNotPanic(t *testing.T) {
	w := NewWriter()
	w.WriteOpcode(Reg)
	w.WriteByte(2)
	w.WriteOpcode(PushN)
	w.WriteF64(1)
	w.WriteOpcode(PopTo)
	w.WriteLoc(0)
	w.WriteOpcode(ReturnNil)

	out := Disassemble(w.Bytes())
	if out == "" {
		t.Fatalf("expected a non-empty disassembly")
	}
}
