package parser

import (
	"testing"

	"ionscript/ast"
	"ionscript/lexer"
)

func parseSource(t *testing.T, src string) *ast.Node {
	t.Helper()
	tokens, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	root, perrs := Make(tokens).Parse()
	if len(perrs) > 0 {
		t.Fatalf("parser errors: %v", perrs)
	}
	return root
}

func TestParseArithmeticPrecedence(t *testing.T) {
	root := parseSource(t, "1 + 2 * 3")
	if len(root.Children) != 1 {
		t.Fatalf("expected one statement, got %d", len(root.Children))
	}
	stmt := root.Children[0]
	if stmt.Kind != ast.KindNumber || stmt.Num != 7 {
		t.Fatalf("expected constant-folded Number(7), got %+v", stmt)
	}
}

func TestParseAssignmentToIdentifier(t *testing.T) {
	root := parseSource(t, "x = 1")
	stmt := root.Children[0]
	if stmt.Kind != ast.KindAssign {
		t.Fatalf("expected KindAssign, got %v", stmt.Kind)
	}
	if stmt.Children[0].Kind != ast.KindIdentifier || stmt.Children[0].Str != "x" {
		t.Fatalf("expected assignment target Identifier(x), got %+v", stmt.Children[0])
	}
}

func TestParseCompoundAssignDesugars(t *testing.T) {
	root := parseSource(t, "x += 1")
	stmt := root.Children[0]
	if stmt.Kind != ast.KindAssign {
		t.Fatalf("expected KindAssign, got %v", stmt.Kind)
	}
	rhs := stmt.Children[1]
	if rhs.Kind != ast.KindAdd {
		t.Fatalf("expected x += 1 to desugar to x = x + 1, got rhs kind %v", rhs.Kind)
	}
}

func TestAssignmentTargetMustBeLValue(t *testing.T) {
	tokens, _ := lexer.New("1 = 2").Scan()
	_, errs := Make(tokens).Parse()
	if len(errs) == 0 {
		t.Fatalf("expected a semantic error assigning to a literal")
	}
	if _, ok := errs[0].(SemanticError); !ok {
		t.Fatalf("expected SemanticError, got %T: %v", errs[0], errs[0])
	}
}

func TestParseIfElse(t *testing.T) {
	root := parseSource(t, "if x\n  1\nelse\n  2\nend")
	stmt := root.Children[0]
	if stmt.Kind != ast.KindIf {
		t.Fatalf("expected KindIf, got %v", stmt.Kind)
	}
	if len(stmt.Children) != 3 {
		t.Fatalf("expected cond/then/else children, got %d", len(stmt.Children))
	}
}

func TestParseWhileLoop(t *testing.T) {
	root := parseSource(t, "while x\n  break\nend")
	stmt := root.Children[0]
	if stmt.Kind != ast.KindWhile {
		t.Fatalf("expected KindWhile, got %v", stmt.Kind)
	}
	body := stmt.Children[1]
	if body.Children[0].Kind != ast.KindBreak {
		t.Fatalf("expected break inside while body, got %+v", body.Children[0])
	}
}

func TestBreakOutsideLoopIsSyntaxError(t *testing.T) {
	tokens, _ := lexer.New("break").Scan()
	_, errs := Make(tokens).Parse()
	if len(errs) == 0 {
		t.Fatalf("expected a syntax error for break outside a loop")
	}
	if _, ok := errs[0].(SyntaxError); !ok {
		t.Fatalf("expected SyntaxError, got %T", errs[0])
	}
}

func TestReturnOutsideFunctionIsSyntaxError(t *testing.T) {
	tokens, _ := lexer.New("return 1").Scan()
	_, errs := Make(tokens).Parse()
	if len(errs) == 0 {
		t.Fatalf("expected a syntax error for return outside a function")
	}
}

func TestParseForLoop(t *testing.T) {
	root := parseSource(t, "for (i = 0; i < 10; i += 1)\n  x = i\nend")
	stmt := root.Children[0]
	if stmt.Kind != ast.KindFor {
		t.Fatalf("expected KindFor, got %v", stmt.Kind)
	}
	if len(stmt.Children) != 4 {
		t.Fatalf("expected init/cond/step/body children, got %d", len(stmt.Children))
	}
}

func TestParseFuncDef(t *testing.T) {
	root := parseSource(t, "def add(a, b)\n  return a + b\nend")
	stmt := root.Children[0]
	if stmt.Kind != ast.KindFuncDef || stmt.Str != "add" {
		t.Fatalf("expected KindFuncDef(add), got %+v", stmt)
	}
	if len(stmt.Params()) != 2 {
		t.Fatalf("expected two parameters, got %d", len(stmt.Params()))
	}
	if stmt.Body().Kind != ast.KindBlock {
		t.Fatalf("expected a block body, got %v", stmt.Body().Kind)
	}
}

func TestParseCallAndIndex(t *testing.T) {
	root := parseSource(t, "foo(1, bar[0])")
	stmt := root.Children[0]
	if stmt.Kind != ast.KindCall || stmt.Str != "foo" {
		t.Fatalf("expected KindCall(foo), got %+v", stmt)
	}
	if len(stmt.Children) != 2 {
		t.Fatalf("expected two arguments, got %d", len(stmt.Children))
	}
	if stmt.Children[1].Kind != ast.KindIndex {
		t.Fatalf("expected second argument to be an Index node, got %v", stmt.Children[1].Kind)
	}
}

func TestParseMethodCallRewrite(t *testing.T) {
	root := parseSource(t, "list.append(1)")
	stmt := root.Children[0]
	if stmt.Kind != ast.KindCall || stmt.Str != "append" {
		t.Fatalf("expected a.append(1) to rewrite to Call(append, a, 1), got %+v", stmt)
	}
	if len(stmt.Children) != 2 {
		t.Fatalf("expected implicit self plus one argument, got %d children", len(stmt.Children))
	}
	if stmt.Children[0].Kind != ast.KindIdentifier || stmt.Children[0].Str != "list" {
		t.Fatalf("expected first argument to be the receiver, got %+v", stmt.Children[0])
	}
}

func TestParseListAndDictLiterals(t *testing.T) {
	root := parseSource(t, "[1, 2, 3]")
	list := root.Children[0]
	if list.Kind != ast.KindList || len(list.Children) != 3 {
		t.Fatalf("expected a 3-element list, got %+v", list)
	}

	root = parseSource(t, `{"a": 1, "b": 2}`)
	dict := root.Children[0]
	if dict.Kind != ast.KindDict || len(dict.Children) != 4 {
		t.Fatalf("expected a 2-pair dict (4 children), got %+v", dict)
	}
}

func TestReservedWordsRejectedInExpression(t *testing.T) {
	tokens, _ := lexer.New("x = new").Scan()
	_, errs := Make(tokens).Parse()
	if len(errs) == 0 {
		t.Fatalf("expected 'new' to be rejected in expression position")
	}
	if _, ok := errs[0].(SyntaxError); !ok {
		t.Fatalf("expected SyntaxError, got %T", errs[0])
	}
}

func TestSyntaxErrorReportsCurrentTokenPosition(t *testing.T) {
	tokens, _ := lexer.New("1 +").Scan()
	_, errs := Make(tokens).Parse()
	if len(errs) == 0 {
		t.Fatalf("expected a syntax error for a dangling '+'")
	}
	se, ok := errs[0].(SyntaxError)
	if !ok {
		t.Fatalf("expected SyntaxError, got %T", errs[0])
	}
	if se.Line != 1 {
		t.Fatalf("expected the error to be reported at line 1, got %d", se.Line)
	}
}

func TestAndBindsLooserThanOr(t *testing.T) {
	// Per the grammar's unusual precedence order, "and" sits above "or",
	// so "a and b or c" parses as "a and (b or c)".
	root := parseSource(t, "a and b or c")
	stmt := root.Children[0]
	if stmt.Kind != ast.KindAnd {
		t.Fatalf("expected top-level And, got %v", stmt.Kind)
	}
	if stmt.Children[1].Kind != ast.KindOr {
		t.Fatalf("expected right operand to be Or, got %v", stmt.Children[1].Kind)
	}
}
