// Package bytecode implements IonScript's instruction encoding: the opcode
// table, a Writer that appends primitives to a growing instruction stream,
// a Reader that advances a cursor through one, and the 12-byte file header
// wrapping a compiled program on disk.
package bytecode

import "fmt"

// Opcode identifies one VM instruction. Each constant below corresponds to
// one row of the emitted instruction set (spec.md §4.6).
type Opcode byte

const (
	Nop Opcode = iota
	Reg
	Push
	PushVal
	Pop
	PopN
	PopTo
	StoreAtNil
	StoreAtFunction
	PushN
	PushS
	PushB
	Move
	Add
	Sub
	Mul
	Div
	Not
	And
	Or
	Eq
	Neq
	Gr
	Gre
	Ls
	Lse
	Neg
	Jump
	// JumpCond loc, target jumps to target when the value at loc is falsy
	// (nil, false, 0, "", an empty list, or an empty dictionary); it falls
	// through otherwise.
	JumpCond
	Return
	ReturnNil
	// PrepareCallGlobal idx / PrepareCallLocal loc remembers which function
	// value a following CallScriptGlobal/CallScriptLocal will invoke, before
	// the call's argument-evaluating PushVal sequence runs. idx addresses the
	// root frame directly (global script functions are never called across
	// anything but the root activation); loc is relative to the current frame.
	PrepareCallGlobal
	PrepareCallLocal
	// CallScriptGlobal/CallScriptLocal nArgs consumes the nArgs values pushed
	// since the matching Prepare*, runs the prepared function to completion,
	// and leaves exactly one result value on top of the stack.
	CallScriptGlobal
	CallScriptLocal
	// CallHost group, funcID, nArgs consumes the nArgs pushed values, invokes
	// the registered host function, and leaves exactly one result value on
	// top of the stack.
	CallHost
	ListNew
	ListAdd
	DictionaryNew
	DictionaryAdd
	Get
	Set
)

var names = map[Opcode]string{
	Nop:               "Nop",
	Reg:               "Reg",
	Push:              "Push",
	PushVal:           "PushVal",
	Pop:               "Pop",
	PopN:              "PopN",
	PopTo:             "PopTo",
	StoreAtNil:        "StoreAtNil",
	StoreAtFunction:   "StoreAtFunction",
	PushN:             "PushN",
	PushS:             "PushS",
	PushB:             "PushB",
	Move:              "Move",
	Add:               "Add",
	Sub:               "Sub",
	Mul:               "Mul",
	Div:               "Div",
	Not:               "Not",
	And:               "And",
	Or:                "Or",
	Eq:                "Eq",
	Neq:               "Neq",
	Gr:                "Gr",
	Gre:               "Gre",
	Ls:                "Ls",
	Lse:               "Lse",
	Neg:               "Neg",
	Jump:              "Jump",
	JumpCond:          "JumpCond",
	Return:            "Return",
	ReturnNil:         "ReturnNil",
	PrepareCallGlobal: "PrepareCallGlobal",
	PrepareCallLocal:  "PrepareCallLocal",
	CallScriptGlobal:  "CallScriptGlobal",
	CallScriptLocal:   "CallScriptLocal",
	CallHost:          "CallHost",
	ListNew:           "ListNew",
	ListAdd:           "ListAdd",
	DictionaryNew:     "DictionaryNew",
	DictionaryAdd:     "DictionaryAdd",
	Get:               "Get",
	Set:               "Set",
}

// String returns the opcode's mnemonic, for disassembly and debug dumps.
func (op Opcode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return fmt.Sprintf("Opcode(%d)", byte(op))
}
