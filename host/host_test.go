package host_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"ionscript/host"
	"ionscript/value"
	"ionscript/vm"
)

func TestCompileAndRunPrint(t *testing.T) {
	var out bytes.Buffer
	h := host.New(&out)
	err := h.CompileAndRun("print(1 + 2)\n")
	require.NoError(t, err)
	require.Equal(t, "3\n", out.String())
}

func TestPostThenScriptGet(t *testing.T) {
	var out bytes.Buffer
	h := host.New(&out)
	h.Post("greeting", value.NewString("hi"))
	err := h.CompileAndRun("print(get(\"greeting\"))\n")
	require.NoError(t, err)
	require.Equal(t, "hi\n", out.String())
}

func TestScriptPostThenHostGet(t *testing.T) {
	var out bytes.Buffer
	h := host.New(&out)
	err := h.CompileAndRun("post(\"x\", 42)\n")
	require.NoError(t, err)
	v, err := h.Get("x")
	require.NoError(t, err)
	require.Equal(t, float64(42), v.NumberValue())
}

func TestGetUndefinedGlobalIsError(t *testing.T) {
	h := host.New(&bytes.Buffer{})
	_, err := h.Get("nope")
	require.Error(t, err)
	var undef host.UndefinedGlobalError
	require.ErrorAs(t, err, &undef)
	require.Equal(t, "nope", undef.Name)
}

func TestCompileIntoWritesTree(t *testing.T) {
	var out, tree bytes.Buffer
	h := host.New(&out)
	prog, err := h.CompileInto("print(1)\n", &tree)
	require.NoError(t, err)
	require.NotNil(t, prog)
	require.Contains(t, tree.String(), "AST")
}

func TestReadSourceMissingFileIsBadStreamError(t *testing.T) {
	_, err := host.ReadSource("/no/such/file.ion")
	require.Error(t, err)
	var bse host.BadStreamError
	require.ErrorAs(t, err, &bse)
}

// A host function group lets embedding code extend the language; the
// compiler resolves call sites against SetFunction's registered arity the
// same way it resolves the built-ins.
func TestCustomHostFunctionGroup(t *testing.T) {
	var out bytes.Buffer
	h := host.New(&out)
	group := h.RegisterHostFunctionGroup(func(cm *vm.CallManager, funcID byte) error {
		cm.Return(value.Number(cm.Arg(0).NumberValue() * 2))
		return nil
	})
	h.SetFunction("double", group, 0, 1, -2)
	err := h.CompileAndRun("print(double(21))\n")
	require.NoError(t, err)
	require.Equal(t, "42\n", out.String())
}

func TestCallScriptFunctionFromHost(t *testing.T) {
	var out bytes.Buffer
	h := host.New(&out)
	prog, err := h.Compile("def square(n)\n  return n * n\nend\npost(\"square\", square)\n")
	require.NoError(t, err)
	require.NoError(t, h.Run(prog))
	fn, err := h.Get("square")
	require.NoError(t, err)
	result, err := h.CallScriptFunction(fn, []value.Value{value.Number(6)})
	require.NoError(t, err)
	require.Equal(t, float64(36), result.NumberValue())
}
