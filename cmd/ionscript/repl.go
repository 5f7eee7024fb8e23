package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"ionscript/host"
	"ionscript/lexer"
	"ionscript/parser"
	"ionscript/token"
)

// replCmd starts an interactive session: each accepted chunk of input is
// compiled on its own and run against one long-lived Host. Globals stored
// with post stay readable with get in later chunks; functions and
// variables defined in one chunk are not visible to the next.
type replCmd struct {
	dumpTree bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive IonScript session" }
func (*replCmd) Usage() string {
	return `repl [-t]:
  Start an interactive IonScript session.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.dumpTree, "t", false, "print the parsed syntax tree for each chunk before running it")
}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("IonScript REPL — type 'exit' or press Ctrl-D to quit.")

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start input: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	h := host.New(os.Stdout)
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		tokens, lexErr := lexer.New(source).Scan()
		if lexErr != nil {
			fmt.Println(lexErr)
			buffer.Reset()
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		_, parseErrs := parser.Make(tokens).Parse()
		if len(parseErrs) > 0 {
			if allParseErrorsAtEOF(parseErrs, tokens[len(tokens)-1]) {
				continue
			}
			for _, pErr := range parseErrs {
				fmt.Fprintln(os.Stderr, pErr)
			}
			buffer.Reset()
			continue
		}

		var treeOut io.Writer
		if r.dumpTree {
			treeOut = os.Stdout
		}
		prog, compileErr := h.CompileInto(source, treeOut)
		if compileErr != nil {
			fmt.Fprintln(os.Stderr, compileErr)
			buffer.Reset()
			continue
		}

		if runErr := h.Run(prog); runErr != nil {
			fmt.Fprintln(os.Stderr, runErr)
		}
		buffer.Reset()
	}
}

// isInputReady reports whether tokens form a complete chunk: every
// block-opening keyword (def/if/while/for) has a matching 'end', and the
// chunk doesn't trail off on an operator or keyword expecting more input.
func isInputReady(tokens []token.Token) bool {
	depth := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.DEF, token.IF, token.WHILE, token.FOR:
			depth++
		case token.END:
			depth--
		}
	}
	if depth > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.TokenType {
	case token.ASSIGN, token.ADD_ASSIGN, token.SUB_ASSIGN, token.MULT_ASSIGN, token.DIV_ASSIGN,
		token.ADD, token.SUB, token.MULT, token.DIV,
		token.EQUAL_EQUAL, token.NOT_EQUAL, token.LESS, token.LESS_EQUAL, token.LARGER, token.LARGER_EQUAL,
		token.COMMA, token.LPA, token.LBRACKET, token.LCUR,
		token.AND, token.OR, token.NOT,
		token.IF, token.ELSE, token.WHILE, token.FOR, token.DEF, token.RETURN:
		return false
	}
	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

func allParseErrorsAtEOF(parseErrs []error, eof token.Token) bool {
	for _, parseErr := range parseErrs {
		var syntaxErr parser.SyntaxError
		if !errors.As(parseErr, &syntaxErr) {
			return false
		}
		if syntaxErr.Line != eof.Line || syntaxErr.Column != eof.Column {
			return false
		}
	}
	return len(parseErrs) > 0
}
