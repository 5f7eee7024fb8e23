package lexer

import "fmt"

// LexicalError reports an unexpected character, or end-of-input reached
// mid-token, during scanning.
type LexicalError struct {
	Line   int32
	Column int
	Char   rune
}

func CreateLexicalError(line int32, column int, char rune) LexicalError {
	return LexicalError{Line: line, Column: column, Char: char}
}

func (e LexicalError) Error() string {
	return fmt.Sprintf("💥 LexicalError: unexpected character %q at line %d, column %d", e.Char, e.Line, e.Column)
}
