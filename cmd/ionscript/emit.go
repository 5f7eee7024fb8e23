package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"ionscript/bytecode"
	"ionscript/host"
)

// emitCmd compiles a source file and writes out its bytecode, as a
// disassembly listing, a framed .ionc binary, or both.
type emitCmd struct {
	disassemble  bool
	dumpBytecode bool
}

func (*emitCmd) Name() string     { return "emit" }
func (*emitCmd) Synopsis() string { return "emit the compiled bytecode for a source file" }
func (*emitCmd) Usage() string {
	return `emit <file.ion>:
  Compile a source file and write its bytecode to disk.
`
}

func (cmd *emitCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", true, "write a human-readable disassembly to <file>.dis")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", true, "write the framed bytecode to <file>.ionc")
}

func (cmd *emitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}
	path := args[0]

	source, err := host.ReadSource(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	h := host.New(os.Stdout)
	prog, err := h.Compile(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 compilation error:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	base := strings.TrimSuffix(path, filepathExt(path))

	if cmd.disassemble {
		if err := os.WriteFile(base+".dis", []byte(bytecode.Disassemble(prog.Code)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "💥 failed to write disassembly:\n\t%v\n", err)
			return subcommands.ExitFailure
		}
	}

	if cmd.dumpBytecode {
		out, err := os.Create(base + ".ionc")
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 failed to create bytecode file:\n\t%v\n", err)
			return subcommands.ExitFailure
		}
		defer out.Close()
		if err := bytecode.WriteFile(out, prog.Code); err != nil {
			fmt.Fprintf(os.Stderr, "💥 failed to write bytecode:\n\t%v\n", err)
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}

func filepathExt(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}
