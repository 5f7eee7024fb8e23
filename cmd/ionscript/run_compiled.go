package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"ionscript/bytecode"
	"ionscript/host"
)

// runCompiledCmd runs a previously emitted .ionc bytecode file directly,
// skipping lexing/parsing/compilation entirely.
type runCompiledCmd struct{}

func (*runCompiledCmd) Name() string     { return "run-compiled" }
func (*runCompiledCmd) Synopsis() string { return "execute a previously compiled .ionc file" }
func (*runCompiledCmd) Usage() string {
	return `run-compiled <file.ionc>:
  Execute a bytecode file produced by 'emit'.
`
}
func (*runCompiledCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCompiledCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}

	in, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to open bytecode file:\n\t%v\n", err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	code, err := bytecode.ReadFile(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read bytecode file:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	h := host.New(os.Stdout)
	if err := h.Run(&bytecode.Program{Code: code}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
