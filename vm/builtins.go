package vm

import (
	"fmt"
	"strings"

	"ionscript/value"
)

// Function ids within BuiltinGroup, in the order spec.md §4.7 lists them
// (plus join/str/dump, recovered from original_source/ per SPEC_FULL.md §7).
const (
	FnPrint byte = iota
	FnPost
	FnGet
	FnLen
	FnAppend
	FnRemove
	FnAssert
	FnDump
	FnStr
	FnJoin
)

func (vm *VM) dispatchBuiltin(cm *CallManager, funcID byte) error {
	switch funcID {
	case FnPrint:
		return builtinPrint(cm)
	case FnPost:
		return builtinPost(cm)
	case FnGet:
		return builtinGet(cm)
	case FnLen:
		return builtinLen(cm)
	case FnAppend:
		return builtinAppend(cm)
	case FnRemove:
		return builtinRemove(cm)
	case FnAssert:
		return builtinAssert(cm)
	case FnDump:
		return builtinDump(cm)
	case FnStr:
		return builtinStr(cm)
	case FnJoin:
		return builtinJoin(cm)
	}
	return value.CreateRuntimeError(fmt.Sprintf("no built-in function with id %d", funcID))
}

// builtinPrint writes each argument's string form separated by spaces,
// followed by a newline.
func builtinPrint(cm *CallManager) error {
	args := cm.Args()
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.ToString()
	}
	fmt.Fprintln(cm.Out(), strings.Join(parts, " "))
	cm.Return(value.Nil())
	return nil
}

func builtinPost(cm *CallManager) error {
	name := cm.Arg(0)
	if err := name.AssertType(value.MaskString); err != nil {
		return err
	}
	cm.SetGlobal(name.StringValue(), cm.Arg(1))
	cm.Return(value.Nil())
	return nil
}

// builtinGet returns the named global, or Nil if it is unset — tolerant by
// design, unlike the embedding API's strict Get (spec.md §4.7 vs §7).
func builtinGet(cm *CallManager) error {
	name := cm.Arg(0)
	if err := name.AssertType(value.MaskString); err != nil {
		return err
	}
	v, _ := cm.GetGlobal(name.StringValue())
	cm.Return(v)
	return nil
}

func builtinLen(cm *CallManager) error {
	v := cm.Arg(0)
	switch v.Kind() {
	case value.KindString:
		cm.Return(value.Number(float64(len(v.StringValue()))))
	case value.KindList:
		cm.Return(value.Number(float64(len(v.ListValue().Items))))
	case value.KindDict:
		cm.Return(value.Number(float64(v.DictValue().Len())))
	default:
		return value.CreateRuntimeError("len() expects a string, list, or dictionary, got a " + v.Kind().String())
	}
	return nil
}

func builtinAppend(cm *CallManager) error {
	list := cm.Arg(0)
	if err := list.AssertType(value.MaskList); err != nil {
		return err
	}
	l := list.ListValue()
	l.Items = append(l.Items, cm.Arg(1))
	cm.Return(list)
	return nil
}

func builtinRemove(cm *CallManager) error {
	list := cm.Arg(0)
	if err := list.AssertType(value.MaskList); err != nil {
		return err
	}
	idx := cm.Arg(1)
	if err := idx.AssertIsInteger(); err != nil {
		return err
	}
	l := list.ListValue()
	i := int(idx.NumberValue())
	if i < 0 || i >= len(l.Items) {
		return value.CreateRuntimeError("list index out of range")
	}
	removed := l.Items[i]
	l.Items = append(l.Items[:i], l.Items[i+1:]...)
	cm.Return(removed)
	return nil
}

func builtinAssert(cm *CallManager) error {
	cond := cm.Arg(0)
	if !cond.Truthy() {
		msg := "assertion failed"
		if cm.NArgs() > 1 {
			msg = cm.Arg(1).ToString()
		}
		return value.CreateRuntimeError(msg)
	}
	cm.Return(value.Nil())
	return nil
}

func builtinStr(cm *CallManager) error {
	cm.Return(value.NewString(cm.Arg(0).ToString()))
	return nil
}

// builtinJoin concatenates a list's elements, or every remaining argument
// if the second argument isn't a list, with sep between each.
func builtinJoin(cm *CallManager) error {
	sep := cm.Arg(0)
	if err := sep.AssertType(value.MaskString); err != nil {
		return err
	}
	var items []value.Value
	if cm.NArgs() == 2 && cm.Arg(1).Kind() == value.KindList {
		items = cm.Arg(1).ListValue().Items
	} else {
		items = cm.Args()[1:]
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.ToString()
	}
	cm.Return(value.NewString(strings.Join(parts, sep.StringValue())))
	return nil
}

// builtinDump writes the VM's internal state — locals, registers, the
// activation stack, and the run state — to the output sink, for debugging
// (spec.md §9 "Global iostream writes for built-ins" re-architecture: this
// still goes through the injected sink, never os.Stdout directly).
func builtinDump(cm *CallManager) error {
	vm := cm.vm
	fmt.Fprintf(cm.Out(), "state: %s\n", vm.state)
	fmt.Fprintf(cm.Out(), "locals (%d):\n", len(vm.locals))
	for i, v := range vm.locals {
		fmt.Fprintf(cm.Out(), "  l%d: %s\n", i, v.ToString())
	}
	fmt.Fprintf(cm.Out(), "registers (%d):\n", len(vm.registers))
	for i, v := range vm.registers {
		fmt.Fprintf(cm.Out(), "  r%d: %s\n", i+1, v.ToString())
	}
	fmt.Fprintf(cm.Out(), "frames (%d):\n", len(vm.frames))
	for i, f := range vm.frames {
		fmt.Fprintf(cm.Out(), "  #%d localBase=%d regBase=%d returnPC=%d\n", i, f.localBase, f.regBase, f.returnPC)
	}
	cm.Return(value.Nil())
	return nil
}
