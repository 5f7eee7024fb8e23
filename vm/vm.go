// Package vm implements the IonScript virtual machine: a single-threaded
// fetch-decode-dispatch loop over the bytecode package's instruction stream,
// the call protocol for both script and host functions, and the ten built-in
// host functions (spec.md §4.7).
package vm

import (
	"fmt"
	"io"

	"ionscript/bytecode"
	"ionscript/value"
)

// RunState tracks the VM's cooperative-scheduling state (spec.md §3, §4.7).
type RunState int

const (
	Finished RunState = iota
	Running
	WaitingForReturn
	Paused
)

func (s RunState) String() string {
	switch s {
	case Finished:
		return "Finished"
	case Running:
		return "Running"
	case WaitingForReturn:
		return "WaitingForReturn"
	case Paused:
		return "Paused"
	}
	return "Unknown"
}

// frame is one activation record: where the callee's locals and registers
// begin on their respective stacks, and where to resume the caller.
//
// The compiler addresses a local/register pair of stacks through one signed
// byte (non-negative = local, negative = register), which spec.md §4.7
// describes as a single physical stack with registers living "below" an
// advancing frame pointer. Realizing that literally — one stack, one frame
// pointer — doesn't work: Reg N runs as the callee's first instruction,
// after the caller has already pushed n_args locals, so "below the frame
// pointer" and "pushed after the params" can't both hold without splicing
// registers into the middle of the stack on every call. This VM keeps two
// parallel stacks instead, each with its own base per frame; every
// compiler-visible guarantee (disjoint addressing, LIFO register reuse,
// correct nesting) is preserved without the splice.
type frame struct {
	localBase int
	regBase   int
	returnPC  int
}

// HostGroupFunc dispatches every CallHost targeting the group it was
// registered under; funcID picks which function within the group. It
// receives only a CallManager: the narrow capability spec.md §9 asks for in
// place of the original engine's FunctionCallManager/VirtualMachine
// friend-class pair.
type HostGroupFunc func(cm *CallManager, funcID byte) error

// BuiltinGroup is the host-function group id the ten built-ins are
// registered under. It is always 0: New registers them before any embedder
// call to RegisterHostGroup can claim a lower id.
const BuiltinGroup byte = 0

// VM is one IonScript virtual machine instance. It is not safe for
// concurrent use (spec.md §5).
type VM struct {
	r    *bytecode.Reader
	code []byte

	locals    []value.Value
	registers []value.Value
	frames    []frame

	pendingCalls []value.Value

	globals    map[string]value.Value
	hostGroups []HostGroupFunc

	out   io.Writer
	state RunState
}

// New returns a VM that writes print/dump output to out. The ten built-in
// functions are pre-registered under BuiltinGroup.
func New(out io.Writer) *VM {
	vm := &VM{
		globals: map[string]value.Value{},
		out:     out,
		state:   Finished,
	}
	vm.RegisterHostGroup(vm.dispatchBuiltin)
	return vm
}

// Load resets the VM and makes prog the program the next Run executes.
func (vm *VM) Load(prog *bytecode.Program) {
	vm.code = prog.Code
	vm.r = bytecode.NewReader(prog.Code)
	vm.locals = vm.locals[:0]
	vm.registers = vm.registers[:0]
	vm.frames = vm.frames[:0]
	vm.pendingCalls = vm.pendingCalls[:0]
	vm.state = Finished
}

// State reports the VM's current run state.
func (vm *VM) State() RunState { return vm.state }

// Pause requests the run loop yield as soon as the current instruction
// finishes. Intended to be called from a host callback (spec.md §4.7).
func (vm *VM) Pause() { vm.state = Paused }

// GoOn resumes a Paused VM; the caller must invoke Run again to actually
// keep executing.
func (vm *VM) GoOn() {
	if vm.state == Paused {
		vm.state = Running
	}
}

// RegisterHostGroup registers fn as the dispatcher for a new host
// function group and returns its id, mirroring the embedding API's
// register_host_function_group (spec.md §6).
func (vm *VM) RegisterHostGroup(fn HostGroupFunc) byte {
	vm.hostGroups = append(vm.hostGroups, fn)
	return byte(len(vm.hostGroups) - 1)
}

// HasGlobal, GetGlobal, SetGlobal, UndefineGlobal back the embedding API's
// has_global/get/post/undefine (spec.md §6); the host package wraps these
// with UndefinedGlobalError where the embedding API wants a strict read.
func (vm *VM) HasGlobal(name string) bool {
	_, ok := vm.globals[name]
	return ok
}

func (vm *VM) GetGlobal(name string) (value.Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

func (vm *VM) SetGlobal(name string, v value.Value) {
	vm.globals[name] = v
}

func (vm *VM) UndefineGlobal(name string) {
	delete(vm.globals, name)
}

// Run executes from the cursor's current position until the program ends or
// the state stops being Running (Finished, WaitingForReturn left
// unreturned, or Paused).
func (vm *VM) Run() error {
	if vm.r == nil {
		return value.CreateRuntimeError("no program loaded")
	}
	vm.state = Running
	for vm.state == Running {
		if vm.r.AtEnd() {
			vm.state = Finished
			break
		}
		if err := vm.step(); err != nil {
			vm.state = Finished
			return err
		}
	}
	return nil
}

// CallScriptFunction invokes a ScriptFunction value with args and runs it to
// completion, for the embedding API's call_script_function and for host
// callbacks re-entering the VM (spec.md §5, §6). It saves and restores the
// run state and activation-stack depth around the nested call, so a host
// callback invoked mid-CallHost can call back into script without
// disturbing the outer call's bookkeeping.
func (vm *VM) CallScriptFunction(fn value.Value, args []value.Value) (value.Value, error) {
	if fn.Kind() != value.KindFunction {
		return value.Nil(), value.CreateRuntimeError("cannot call a " + fn.Kind().String() + " value")
	}
	sf := fn.FuncValue()
	if sf.ArgCount != len(args) {
		return value.Nil(), value.CreateRuntimeError(fmt.Sprintf("wrong number of arguments: expected %d, got %d", sf.ArgCount, len(args)))
	}

	savedState := vm.state
	savedPos := vm.r.Pos()
	savedDepth := len(vm.frames)

	vm.locals = append(vm.locals, args...)
	vm.frames = append(vm.frames, frame{
		localBase: len(vm.locals) - len(args),
		regBase:   len(vm.registers),
		returnPC:  -1, // never read: the loop below stops before SetPos(-1) is dereferenced
	})
	vm.r.SetPos(sf.Entry)
	vm.state = Running

	for vm.state == Running && len(vm.frames) > savedDepth {
		if err := vm.step(); err != nil {
			vm.r.SetPos(savedPos)
			vm.state = savedState
			return value.Nil(), err
		}
	}

	result := vm.locals[len(vm.locals)-1]
	vm.locals = vm.locals[:len(vm.locals)-1]
	vm.r.SetPos(savedPos)
	vm.state = savedState
	return result, nil
}

func (vm *VM) frameLocalBase() int {
	if n := len(vm.frames); n > 0 {
		return vm.frames[n-1].localBase
	}
	return 0
}

func (vm *VM) frameRegBase() int {
	if n := len(vm.frames); n > 0 {
		return vm.frames[n-1].regBase
	}
	return 0
}

// get reads the value at a compiler location: non-negative addresses the
// current frame's locals, negative its registers (spec.md §4.6/§4.7).
func (vm *VM) get(loc int) value.Value {
	if loc >= 0 {
		return vm.locals[vm.frameLocalBase()+loc]
	}
	return vm.registers[vm.frameRegBase()+(-loc)-1]
}

func (vm *VM) set(loc int, v value.Value) {
	if loc >= 0 {
		vm.locals[vm.frameLocalBase()+loc] = v
		return
	}
	vm.registers[vm.frameRegBase()+(-loc)-1] = v
}

// step decodes and executes exactly one instruction.
func (vm *VM) step() error {
	op := vm.r.ReadOpcode()
	switch op {
	case bytecode.Nop:
		return nil

	case bytecode.Reg:
		n := int(vm.r.ReadByte())
		for i := 0; i < n; i++ {
			vm.registers = append(vm.registers, value.Nil())
		}

	case bytecode.Push:
		vm.locals = append(vm.locals, value.Nil())

	case bytecode.PushVal:
		loc := vm.r.ReadLoc()
		vm.locals = append(vm.locals, vm.get(loc))

	case bytecode.Pop:
		vm.locals = vm.locals[:len(vm.locals)-1]

	case bytecode.PopN:
		n := int(vm.r.ReadByte())
		vm.locals = vm.locals[:len(vm.locals)-n]

	case bytecode.PopTo:
		loc := vm.r.ReadLoc()
		top := vm.locals[len(vm.locals)-1]
		vm.locals = vm.locals[:len(vm.locals)-1]
		vm.set(loc, top)

	case bytecode.StoreAtNil:
		loc := vm.r.ReadLoc()
		vm.set(loc, value.Nil())

	case bytecode.StoreAtFunction:
		loc := vm.r.ReadLoc()
		entry := vm.r.ReadU32()
		nArgs := vm.r.ReadByte()
		nRegs := vm.r.ReadByte()
		vm.set(loc, value.NewFunction(int(entry), int(nArgs), int(nRegs)))

	case bytecode.PushN:
		vm.locals = append(vm.locals, value.Number(vm.r.ReadF64()))
	case bytecode.PushS:
		vm.locals = append(vm.locals, value.NewString(vm.r.ReadString()))
	case bytecode.PushB:
		vm.locals = append(vm.locals, value.Boolean(vm.r.ReadBool()))

	case bytecode.Move:
		dst, src := vm.r.ReadLoc(), vm.r.ReadLoc()
		vm.set(dst, vm.get(src))

	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div,
		bytecode.Gr, bytecode.Gre, bytecode.Ls, bytecode.Lse:
		return vm.execBinaryFallible(op)

	case bytecode.And, bytecode.Or, bytecode.Eq, bytecode.Neq:
		dst, a, b := vm.r.ReadLoc(), vm.r.ReadLoc(), vm.r.ReadLoc()
		av, bv := vm.get(a), vm.get(b)
		switch op {
		case bytecode.And:
			vm.set(dst, av.And(bv))
		case bytecode.Or:
			vm.set(dst, av.Or(bv))
		case bytecode.Eq:
			vm.set(dst, av.Eq(bv))
		case bytecode.Neq:
			vm.set(dst, av.Neq(bv))
		}

	case bytecode.Not:
		dst, src := vm.r.ReadLoc(), vm.r.ReadLoc()
		vm.set(dst, vm.get(src).Not())

	case bytecode.Neg:
		dst, src := vm.r.ReadLoc(), vm.r.ReadLoc()
		res, err := vm.get(src).Neg()
		if err != nil {
			return err
		}
		vm.set(dst, res)

	case bytecode.Jump:
		target := vm.r.ReadU32()
		vm.r.SetPos(int(target))

	case bytecode.JumpCond:
		loc := vm.r.ReadLoc()
		target := vm.r.ReadU32()
		if !vm.get(loc).Truthy() {
			vm.r.SetPos(int(target))
		}

	case bytecode.Return:
		loc := vm.r.ReadLoc()
		return vm.execReturn(vm.get(loc))
	case bytecode.ReturnNil:
		return vm.execReturn(value.Nil())

	case bytecode.PrepareCallGlobal:
		idx := int(vm.r.ReadByte())
		vm.pendingCalls = append(vm.pendingCalls, vm.locals[idx])
	case bytecode.PrepareCallLocal:
		loc := vm.r.ReadLoc()
		vm.pendingCalls = append(vm.pendingCalls, vm.get(loc))

	case bytecode.CallScriptGlobal, bytecode.CallScriptLocal:
		nArgs := int(vm.r.ReadByte())
		return vm.execScriptCall(nArgs)

	case bytecode.CallHost:
		group := vm.r.ReadByte()
		funcID := vm.r.ReadByte()
		nArgs := int(vm.r.ReadByte())
		return vm.execHostCall(group, funcID, nArgs)

	case bytecode.ListNew:
		dst := vm.r.ReadLoc()
		vm.set(dst, value.NewList(nil))
	case bytecode.ListAdd:
		list, v := vm.r.ReadLoc(), vm.r.ReadLoc()
		l := vm.get(list).ListValue()
		l.Items = append(l.Items, vm.get(v))

	case bytecode.DictionaryNew:
		dst := vm.r.ReadLoc()
		vm.set(dst, value.NewDictionary())
	case bytecode.DictionaryAdd:
		dict, k, v := vm.r.ReadLoc(), vm.r.ReadLoc(), vm.r.ReadLoc()
		vm.get(dict).DictValue().Set(vm.get(k), vm.get(v))

	case bytecode.Get:
		dst, cont, idx := vm.r.ReadLoc(), vm.r.ReadLoc(), vm.r.ReadLoc()
		res, err := execGet(vm.get(cont), vm.get(idx))
		if err != nil {
			return err
		}
		vm.set(dst, res)

	case bytecode.Set:
		v, cont, idx := vm.r.ReadLoc(), vm.r.ReadLoc(), vm.r.ReadLoc()
		return execSet(vm.get(cont), vm.get(idx), vm.get(v))

	default:
		return value.CreateRuntimeError(fmt.Sprintf("unknown opcode %s", op))
	}
	return nil
}

func (vm *VM) execBinaryFallible(op bytecode.Opcode) error {
	dst, a, b := vm.r.ReadLoc(), vm.r.ReadLoc(), vm.r.ReadLoc()
	av, bv := vm.get(a), vm.get(b)
	var res value.Value
	var err error
	switch op {
	case bytecode.Add:
		res, err = av.Add(bv)
	case bytecode.Sub:
		res, err = av.Sub(bv)
	case bytecode.Mul:
		res, err = av.Mul(bv)
	case bytecode.Div:
		res, err = av.Div(bv)
	case bytecode.Gr:
		res, err = av.Greater(bv)
	case bytecode.Gre:
		res, err = av.GreaterEq(bv)
	case bytecode.Ls:
		res, err = av.Less(bv)
	case bytecode.Lse:
		res, err = av.LessEq(bv)
	}
	if err != nil {
		return err
	}
	vm.set(dst, res)
	return nil
}

func (vm *VM) execReturn(result value.Value) error {
	if len(vm.frames) == 0 {
		return value.CreateRuntimeError("return outside of a function")
	}
	f := vm.frames[len(vm.frames)-1]
	vm.locals = vm.locals[:f.localBase]
	vm.registers = vm.registers[:f.regBase]
	vm.locals = append(vm.locals, result)
	vm.r.SetPos(f.returnPC)
	vm.frames = vm.frames[:len(vm.frames)-1]
	return nil
}

func (vm *VM) execScriptCall(nArgs int) error {
	fn := vm.pendingCalls[len(vm.pendingCalls)-1]
	vm.pendingCalls = vm.pendingCalls[:len(vm.pendingCalls)-1]

	if fn.Kind() != value.KindFunction {
		return value.CreateRuntimeError("cannot call a " + fn.Kind().String() + " value")
	}
	sf := fn.FuncValue()
	if sf.ArgCount != nArgs {
		return value.CreateRuntimeError(fmt.Sprintf("wrong number of arguments: expected %d, got %d", sf.ArgCount, nArgs))
	}

	vm.frames = append(vm.frames, frame{
		localBase: len(vm.locals) - nArgs,
		regBase:   len(vm.registers),
		returnPC:  vm.r.Pos(),
	})
	vm.r.SetPos(sf.Entry)
	return nil
}

func (vm *VM) execHostCall(group, funcID byte, nArgs int) error {
	if int(group) >= len(vm.hostGroups) || vm.hostGroups[group] == nil {
		return value.CreateRuntimeError(fmt.Sprintf("no host function group registered for group %d", group))
	}
	cm := &CallManager{vm: vm, base: len(vm.locals) - nArgs, n: nArgs}

	savedState := vm.state
	vm.state = WaitingForReturn
	err := vm.hostGroups[group](cm, funcID)
	if vm.state == WaitingForReturn {
		vm.state = savedState
	}
	if err != nil {
		return err
	}
	if !cm.returned {
		return HostContractError{Group: group, FuncID: funcID}
	}

	vm.locals = vm.locals[:cm.base]
	vm.locals = append(vm.locals, cm.result)
	return nil
}

func execGet(cont, idx value.Value) (value.Value, error) {
	switch cont.Kind() {
	case value.KindList:
		if err := idx.AssertIsInteger(); err != nil {
			return value.Nil(), err
		}
		items := cont.ListValue().Items
		i := int(idx.NumberValue())
		if i < 0 || i >= len(items) {
			return value.Nil(), value.CreateRuntimeError("list index out of range")
		}
		return items[i], nil
	case value.KindDict:
		return cont.DictValue().Get(idx), nil
	}
	return value.Nil(), value.CreateRuntimeError("cannot index a " + cont.Kind().String() + " value")
}

func execSet(cont, idx, val value.Value) error {
	switch cont.Kind() {
	case value.KindList:
		if err := idx.AssertIsInteger(); err != nil {
			return err
		}
		items := cont.ListValue().Items
		i := int(idx.NumberValue())
		if i < 0 || i >= len(items) {
			return value.CreateRuntimeError("list index out of range")
		}
		items[i] = val
		return nil
	case value.KindDict:
		cont.DictValue().Set(idx, val)
		return nil
	}
	return value.CreateRuntimeError("cannot index a " + cont.Kind().String() + " value")
}
