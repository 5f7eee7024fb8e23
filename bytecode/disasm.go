package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders code as a human-readable instruction listing, one
// line per instruction prefixed by its byte offset. It exists purely for
// debugging (the emit command's disassembly listing, and tests) and is
// never consulted by the VM.
func Disassemble(code []byte) string {
	r := NewReader(code)
	var sb strings.Builder
	for !r.AtEnd() {
		offset := r.Pos()
		op := r.ReadOpcode()
		fmt.Fprintf(&sb, "%6d  %-18s", offset, op.String())
		for _, operand := range decodeOperands(op, r) {
			fmt.Fprintf(&sb, " %s", operand)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func decodeOperands(op Opcode, r *Reader) []string {
	switch op {
	case Nop, Push, Pop, ReturnNil:
		return nil
	case Reg, PopN, PrepareCallGlobal:
		return []string{fmt.Sprint(r.ReadByte())}
	case PrepareCallLocal:
		return []string{loc(r.ReadLoc())}
	case PopTo, StoreAtNil, Return, ListNew, DictionaryNew:
		return []string{loc(r.ReadLoc())}
	case StoreAtFunction:
		dst := loc(r.ReadLoc())
		entry := r.ReadU32()
		nArgs := r.ReadByte()
		nRegs := r.ReadByte()
		return []string{dst, fmt.Sprint(entry), fmt.Sprint(nArgs), fmt.Sprint(nRegs)}
	case PushN:
		return []string{fmt.Sprint(r.ReadF64())}
	case PushS:
		return []string{fmt.Sprintf("%q", r.ReadString())}
	case PushB:
		return []string{fmt.Sprint(r.ReadBool())}
	case Move, Not:
		return []string{loc(r.ReadLoc()), loc(r.ReadLoc())}
	case Neg:
		return []string{loc(r.ReadLoc()), loc(r.ReadLoc())}
	case Add, Sub, Mul, Div, And, Or, Eq, Neq, Gr, Gre, Ls, Lse:
		return []string{loc(r.ReadLoc()), loc(r.ReadLoc()), loc(r.ReadLoc())}
	case Jump:
		return []string{fmt.Sprint(r.ReadU32())}
	case JumpCond:
		return []string{loc(r.ReadLoc()), fmt.Sprint(r.ReadU32())}
	case PushVal:
		return []string{loc(r.ReadLoc())}
	case CallScriptGlobal, CallScriptLocal:
		return []string{fmt.Sprint(r.ReadByte())}
	case CallHost:
		return []string{fmt.Sprint(r.ReadByte()), fmt.Sprint(r.ReadByte()), fmt.Sprint(r.ReadByte())}
	case ListAdd:
		return []string{loc(r.ReadLoc()), loc(r.ReadLoc())}
	case DictionaryAdd:
		return []string{loc(r.ReadLoc()), loc(r.ReadLoc()), loc(r.ReadLoc())}
	case Get, Set:
		return []string{loc(r.ReadLoc()), loc(r.ReadLoc()), loc(r.ReadLoc())}
	}
	return nil
}

func loc(v int) string {
	if v < 0 {
		return fmt.Sprintf("r%d", -v)
	}
	return fmt.Sprintf("l%d", v)
}
