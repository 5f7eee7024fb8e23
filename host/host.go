// Package host is the embedding API: the surface a Go program links against
// to compile and run IonScript source, post and fetch globals, and extend
// the language with its own host function groups. It is the narrow front
// door spec.md §9 asks for in place of the original engine's do-everything
// VirtualMachine type — internals (the bytecode cursor, the two value
// stacks, frames) stay inside the vm package.
package host

import (
	"io"
	"os"

	"ionscript/ast"
	"ionscript/bytecode"
	"ionscript/compiler"
	"ionscript/lexer"
	"ionscript/parser"
	"ionscript/value"
	"ionscript/vm"
)

// Host wraps a VM with the compile-time bookkeeping (registered host
// function names and their arities) the compiler needs to resolve call
// sites, and the default built-ins every script can use unprompted.
type Host struct {
	vm        *vm.VM
	hostFuncs map[string]compiler.HostFunctionSignature
}

// New creates a Host whose print/dump/etc. output goes to out, with the ten
// built-ins already registered.
func New(out io.Writer) *Host {
	h := &Host{
		vm:        vm.New(out),
		hostFuncs: map[string]compiler.HostFunctionSignature{},
	}
	h.registerBuiltins()
	return h
}

func (h *Host) registerBuiltins() {
	h.SetFunction("print", vm.BuiltinGroup, vm.FnPrint, 1, -1)
	h.SetFunction("post", vm.BuiltinGroup, vm.FnPost, 2, -2)
	h.SetFunction("get", vm.BuiltinGroup, vm.FnGet, 1, -2)
	h.SetFunction("len", vm.BuiltinGroup, vm.FnLen, 1, -2)
	h.SetFunction("append", vm.BuiltinGroup, vm.FnAppend, 2, -2)
	h.SetFunction("remove", vm.BuiltinGroup, vm.FnRemove, 2, -2)
	h.SetFunction("assert", vm.BuiltinGroup, vm.FnAssert, 1, 2)
	h.SetFunction("dump", vm.BuiltinGroup, vm.FnDump, 0, -2)
	h.SetFunction("str", vm.BuiltinGroup, vm.FnStr, 1, -2)
	h.SetFunction("join", vm.BuiltinGroup, vm.FnJoin, 1, -1)
}

// RegisterHostFunctionGroup registers a dispatcher for a new group of host
// functions and returns the group id the compiler-visible signatures set
// via SetFunction must reference (spec.md §6).
func (h *Host) RegisterHostFunctionGroup(fn vm.HostGroupFunc) byte {
	return h.vm.RegisterHostGroup(fn)
}

// SetFunction binds name to a (group, funcID) pair so script source can call
// it. maxArgs of -1 means unbounded; -2 means "same as minArgs", matching
// the shorthand the original engine's set_function used (spec.md §6).
func (h *Host) SetFunction(name string, group, funcID byte, minArgs, maxArgs int) {
	if maxArgs == -2 {
		maxArgs = minArgs
	}
	h.hostFuncs[name] = compiler.HostFunctionSignature{
		Group: group, FuncID: funcID, MinArgs: minArgs, MaxArgs: maxArgs,
	}
}

// Post sets a global script variable, creating it if absent.
func (h *Host) Post(name string, v value.Value) { h.vm.SetGlobal(name, v) }

// Get fetches a global, failing with UndefinedGlobalError if it was never
// set — stricter than the in-script get() built-in, which returns nil for
// a missing name instead of erroring (spec.md §7 vs §4.7).
func (h *Host) Get(name string) (value.Value, error) {
	v, ok := h.vm.GetGlobal(name)
	if !ok {
		return value.Nil(), CreateUndefinedGlobalError(name)
	}
	return v, nil
}

// HasGlobal reports whether name currently has a value.
func (h *Host) HasGlobal(name string) bool { return h.vm.HasGlobal(name) }

// Undefine removes a global, if present.
func (h *Host) Undefine(name string) { h.vm.UndefineGlobal(name) }

// Compile lexes, parses, and compiles source into a Program, resolving call
// sites against the built-ins and any host functions SetFunction has
// registered so far.
func (h *Host) Compile(source string) (*bytecode.Program, error) {
	return h.compile(source, nil)
}

// CompileInto is Compile, but also writes the parsed (and simplified) AST to
// treeOut as JSON — the `-t` CLI flag and REPL tree dump (spec.md §9).
func (h *Host) CompileInto(source string, treeOut io.Writer) (*bytecode.Program, error) {
	return h.compile(source, treeOut)
}

func (h *Host) compile(source string, treeOut io.Writer) (*bytecode.Program, error) {
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		return nil, err
	}
	root, errs := parser.Make(tokens).Parse()
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if treeOut != nil {
		if err := ast.Fprint(treeOut, root); err != nil {
			return nil, err
		}
	}
	return compiler.Compile(root, h.hostFuncs)
}

// Run loads and executes a previously compiled Program on this Host's VM.
func (h *Host) Run(prog *bytecode.Program) error {
	h.vm.Load(prog)
	return h.vm.Run()
}

// CompileAndRun is Compile followed by Run, for the common one-shot case.
func (h *Host) CompileAndRun(source string) error {
	prog, err := h.Compile(source)
	if err != nil {
		return err
	}
	return h.Run(prog)
}

// CallScriptFunction invokes an IonScript function value with args and
// returns its result, reentrantly if called from within a host function
// (spec.md §5).
func (h *Host) CallScriptFunction(fn value.Value, args []value.Value) (value.Value, error) {
	return h.vm.CallScriptFunction(fn, args)
}

// Pause and GoOn implement the cooperative pause/resume protocol (spec.md
// §4.7): a host function may call Pause to suspend the running script mid
// Run; GoOn followed by VM().Run() resumes it where it stopped. Host.Run
// loads its program afresh, so it starts over from the beginning instead.
func (h *Host) Pause() { h.vm.Pause() }
func (h *Host) GoOn()  { h.vm.GoOn() }

// State reports whether the underlying VM is idle, running, paused, or
// waiting inside a host call.
func (h *Host) State() vm.RunState { return h.vm.State() }

// VM exposes the underlying VM for callers (the REPL, tests) that need
// lower-level access than the Host API offers.
func (h *Host) VM() *vm.VM { return h.vm }

// ReadSource reads an IonScript source file, wrapping an OS failure in a
// BadStreamError so callers get the engine's error formatting instead of a
// raw *os.PathError.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", CreateBadStreamError(path, err)
	}
	return string(data), nil
}
