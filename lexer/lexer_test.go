package lexer

import (
	"testing"

	"ionscript/token"
)

func tokenTypes(toks []token.Token) []token.TokenType {
	out := make([]token.TokenType, len(toks))
	for i, tok := range toks {
		out[i] = tok.TokenType
	}
	return out
}

func TestKeywordRoundTrip(t *testing.T) {
	for lexeme, want := range token.KeyWords {
		toks, err := New(lexeme).Scan()
		if err != nil {
			t.Fatalf("Scan(%q) error: %v", lexeme, err)
		}
		if len(toks) != 2 || toks[0].TokenType != want {
			t.Errorf("Scan(%q) = %v, want a single %v token", lexeme, toks, want)
		}
	}
}

func TestKeywordPrefixIsIdentifier(t *testing.T) {
	toks, err := New("whiles").Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 2 || toks[0].TokenType != token.IDENTIFIER || toks[0].Lexeme != "whiles" {
		t.Errorf("Scan(whiles) = %v, want a single IDENTIFIER", toks)
	}
}

func TestNestedBlockComment(t *testing.T) {
	toks, err := New("/* /* x */ */ y").Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := tokenTypes(toks)
	want := []token.TokenType{token.IDENTIFIER, token.EOF}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Scan(nested comment) = %v, want %v", got, want)
	}
	if toks[0].Lexeme != "y" {
		t.Errorf("Lexeme = %q, want \"y\"", toks[0].Lexeme)
	}
}

func TestStringEscapes(t *testing.T) {
	toks, err := New(`"a\nb\tc\\d\"e"`).Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].TokenType != token.STRING {
		t.Fatalf("TokenType = %v, want STRING", toks[0].TokenType)
	}
	want := "a\nb\tc\\d\"e"
	if toks[0].Literal.(string) != want {
		t.Errorf("Literal = %q, want %q", toks[0].Literal, want)
	}
}

func TestNumberTrailingDot(t *testing.T) {
	toks, err := New("1.").Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].TokenType != token.NUMBER || toks[0].Literal.(float64) != 1 {
		t.Errorf("first token = %v, want NUMBER(1)", toks[0])
	}
	if toks[1].TokenType != token.DOT {
		t.Errorf("second token = %v, want DOT", toks[1])
	}
}

func TestNameLiteral(t *testing.T) {
	toks, err := New("^foo").Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].TokenType != token.STRING || toks[0].Literal.(string) != "foo" {
		t.Errorf("first token = %v, want STRING(foo)", toks[0])
	}
}

func TestCompoundAssignOperators(t *testing.T) {
	toks, err := New("+= -= *= /=").Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []token.TokenType{token.ADD_ASSIGN, token.SUB_ASSIGN, token.MULT_ASSIGN, token.DIV_ASSIGN, token.EOF}
	got := tokenTypes(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLineContinuation(t *testing.T) {
	toks, err := New("a = 1 + \\\n2").Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, tok := range toks {
		if tok.TokenType == token.NEWLINE {
			t.Fatalf("line continuation should not emit a NEWLINE token, got %v", toks)
		}
	}
}

func TestUnexpectedCharacterError(t *testing.T) {
	_, err := New("a = 1 # 2").Scan()
	if err == nil {
		t.Fatalf("expected a LexicalError for '#'")
	}
	lexErr, ok := err.(LexicalError)
	if !ok {
		t.Fatalf("error type = %T, want LexicalError", err)
	}
	if lexErr.Char != '#' {
		t.Errorf("Char = %q, want '#'", lexErr.Char)
	}
}
