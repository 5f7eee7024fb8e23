package vm

import (
	"io"

	"ionscript/value"
)

// CallManager is the capability a host function receives for the duration
// of one CallHost dispatch: a view of its arguments and a single-use return
// sink. It replaces the original engine's FunctionCallManager/VirtualMachine
// friend-class pair (spec.md §9) — a host function can read its arguments,
// touch globals, write to the output sink, or re-enter the script, but it
// cannot reach the VM's bytecode cursor, frames, or registers directly.
type CallManager struct {
	vm       *VM
	base     int
	n        int
	returned bool
	result   value.Value
}

// NArgs returns the number of arguments this call was made with.
func (cm *CallManager) NArgs() int { return cm.n }

// Arg returns the i'th argument (0-based). It panics on an out-of-range i,
// which would be a bug in the calling host function: arity is already
// checked at compile time against the signature registered for this
// function (spec.md §4.6).
func (cm *CallManager) Arg(i int) value.Value {
	return cm.vm.locals[cm.base+i]
}

// Args returns a copy of every argument, in call order.
func (cm *CallManager) Args() []value.Value {
	out := make([]value.Value, cm.n)
	copy(out, cm.vm.locals[cm.base:cm.base+cm.n])
	return out
}

// Return supplies this call's result. Every host function must call it
// before returning control; the VM reports a HostContractError if it never
// does (spec.md §4.7). A second call replaces the first call's value.
func (cm *CallManager) Return(v value.Value) {
	cm.result = v
	cm.returned = true
}

// Out is the injected text sink print/dump write to — never global stdout
// directly (spec.md §9, "Global iostream writes for built-ins").
func (cm *CallManager) Out() io.Writer { return cm.vm.out }

// GetGlobal, SetGlobal, HasGlobal, UndefineGlobal forward to the VM's
// global table, for host functions implementing post/get/has_global-style
// behaviour.
func (cm *CallManager) GetGlobal(name string) (value.Value, bool) { return cm.vm.GetGlobal(name) }
func (cm *CallManager) SetGlobal(name string, v value.Value)      { cm.vm.SetGlobal(name, v) }
func (cm *CallManager) HasGlobal(name string) bool                { return cm.vm.HasGlobal(name) }
func (cm *CallManager) UndefineGlobal(name string)                { cm.vm.UndefineGlobal(name) }

// CallScript re-enters the VM to run a ScriptFunction value to completion,
// for a host function wanting to call back into script (spec.md §5's
// reentrant call_script_function note).
func (cm *CallManager) CallScript(fn value.Value, args []value.Value) (value.Value, error) {
	return cm.vm.CallScriptFunction(fn, args)
}
