package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"ionscript/bytecode"
	"ionscript/compiler"
	"ionscript/lexer"
	"ionscript/parser"
	"ionscript/vm"
)

// builtinSignatures mirrors what the host package registers by default:
// every built-in the compiler needs to know the name and arity of to
// resolve a call site at compile time.
func builtinSignatures() map[string]compiler.HostFunctionSignature {
	return map[string]compiler.HostFunctionSignature{
		"print":  {Group: vm.BuiltinGroup, FuncID: vm.FnPrint, MinArgs: 1, MaxArgs: -1},
		"post":   {Group: vm.BuiltinGroup, FuncID: vm.FnPost, MinArgs: 2, MaxArgs: 2},
		"get":    {Group: vm.BuiltinGroup, FuncID: vm.FnGet, MinArgs: 1, MaxArgs: 1},
		"len":    {Group: vm.BuiltinGroup, FuncID: vm.FnLen, MinArgs: 1, MaxArgs: 1},
		"append": {Group: vm.BuiltinGroup, FuncID: vm.FnAppend, MinArgs: 2, MaxArgs: 2},
		"remove": {Group: vm.BuiltinGroup, FuncID: vm.FnRemove, MinArgs: 2, MaxArgs: 2},
		"assert": {Group: vm.BuiltinGroup, FuncID: vm.FnAssert, MinArgs: 1, MaxArgs: 2},
		"dump":   {Group: vm.BuiltinGroup, FuncID: vm.FnDump, MinArgs: 0, MaxArgs: 0},
		"str":    {Group: vm.BuiltinGroup, FuncID: vm.FnStr, MinArgs: 1, MaxArgs: 1},
		"join":   {Group: vm.BuiltinGroup, FuncID: vm.FnJoin, MinArgs: 1, MaxArgs: -1},
	}
}

func compileSource(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	tokens, err := lexer.New(src).Scan()
	require.NoError(t, err)
	root, errs := parser.Make(tokens).Parse()
	require.Empty(t, errs)
	prog, err := compiler.Compile(root, builtinSignatures())
	require.NoError(t, err)
	return prog
}

func runSource(t *testing.T, src string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	machine := vm.New(&out)
	machine.Load(compileSource(t, src))
	err := machine.Run()
	return out.String(), err
}

func TestPrintArithmetic(t *testing.T) {
	out, err := runSource(t, "print(1 + 2)\n")
	require.NoError(t, err)
	require.Equal(t, "3\n", out)
}

func TestRecursiveFactorial(t *testing.T) {
	src := "def fact(n)\n  if n <= 1\n    return 1\n  end\n  return n * fact(n-1)\nend\nprint(fact(6))\n"
	out, err := runSource(t, src)
	require.NoError(t, err)
	require.Equal(t, "720\n", out)
}

func TestListAppendAndLen(t *testing.T) {
	src := "a = [1, 2, 3]\nappend(a, 4)\nprint(len(a))\n"
	out, err := runSource(t, src)
	require.NoError(t, err)
	require.Equal(t, "4\n", out)
}

func TestDictIndexReadAndWrite(t *testing.T) {
	src := "d = {\"x\": 1}\nd[\"y\"] = 2\nprint(d[\"x\"] + d[\"y\"])\n"
	out, err := runSource(t, src)
	require.NoError(t, err)
	require.Equal(t, "3\n", out)
}

func TestWhileLoopSum(t *testing.T) {
	src := "i = 0\ns = 0\nwhile i < 10\n  s += i\n  i += 1\nend\nprint(s)\n"
	out, err := runSource(t, src)
	require.NoError(t, err)
	require.Equal(t, "45\n", out)
}

func TestForLoopBreak(t *testing.T) {
	src := "for i = 0; i < 5; i += 1\n  if i == 3\n    break\n  end\n  print(i)\nend\n"
	out, err := runSource(t, src)
	require.NoError(t, err)
	require.Equal(t, "0\n1\n2\n", out)
}

func TestCallArityMismatchIsRuntimeError(t *testing.T) {
	src := "def f(a, b)\nend\nf(1)\n"
	_, err := runSource(t, src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "wrong number of arguments")
}

func TestTruthiness(t *testing.T) {
	src := "print(not [])\nprint(not {})\nprint(not \"\")\nprint(not 0)\nprint(not nil)\nprint(not 1)\n"
	out, err := runSource(t, src)
	require.NoError(t, err)
	require.Equal(t, "true\ntrue\ntrue\ntrue\ntrue\nfalse\n", out)
}

func TestAssertFailureIsRuntimeError(t *testing.T) {
	src := "assert(1 == 2, \"nope\")\n"
	_, err := runSource(t, src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nope")
}

func TestPostAndGetRoundtrip(t *testing.T) {
	src := "post(\"x\", 42)\nprint(get(\"x\"))\n"
	out, err := runSource(t, src)
	require.NoError(t, err)
	require.Equal(t, "42\n", out)
}

func TestJoinOverList(t *testing.T) {
	src := "print(join(\", \", [1, 2, 3]))\n"
	out, err := runSource(t, src)
	require.NoError(t, err)
	require.Equal(t, "1, 2, 3\n", out)
}

func TestStrBuiltin(t *testing.T) {
	src := "print(str(1) + str(true))\n"
	out, err := runSource(t, src)
	require.NoError(t, err)
	require.Equal(t, "1true\n", out)
}

func TestRemoveFromList(t *testing.T) {
	src := "a = [1, 2, 3]\nremove(a, 1)\nprint(a)\n"
	out, err := runSource(t, src)
	require.NoError(t, err)
	require.Equal(t, "[1, 3]\n", out)
}

// Calling a local holding a non-function value compiles fine (the compiler
// only knows it's a local, not what kind of value it holds) and fails at
// runtime instead.
func TestCallingANonFunctionIsRuntimeError(t *testing.T) {
	src := "x = 1\nx()\n"
	_, err := runSource(t, src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot call")
}
