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

// runCmd compiles and runs a source file in one shot.
type runCmd struct {
	dumpTree bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "execute an IonScript source file" }
func (*runCmd) Usage() string {
	return `run [-t] <file.ion>:
  Compile and execute an IonScript source file.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.dumpTree, "t", false, "print the parsed syntax tree before running")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}

	source, err := host.ReadSource(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	h := host.New(os.Stdout)
	var prog *bytecode.Program
	if r.dumpTree {
		prog, err = h.CompileInto(source, os.Stdout)
	} else {
		prog, err = h.Compile(source)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if err := h.Run(prog); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
