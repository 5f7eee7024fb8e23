// Recursive descent parser
// https://en.wikipedia.org/wiki/Recursive_descent_parser

// A Recursive descent parser is a top-down parser because it starts from
// the top grammar rule and works its way down into the nested
// sub-expressions before reaching the leaves of the syntax tree (terminal
// rules).
package parser

import (
	"ionscript/ast"
	"ionscript/token"
)

var comparisonTokenTypes = []token.TokenType{
	token.LARGER,
	token.LARGER_EQUAL,
	token.LESS,
	token.LESS_EQUAL,
	token.EQUAL_EQUAL,
	token.NOT_EQUAL,
}

var termTokenTypes = []token.TokenType{
	token.SUB,
	token.ADD,
}

var factorTokenTypes = []token.TokenType{
	token.MULT,
	token.DIV,
}

var compoundAssignTokenTypes = []token.TokenType{
	token.ADD_ASSIGN,
	token.SUB_ASSIGN,
	token.MULT_ASSIGN,
	token.DIV_ASSIGN,
}

var compoundAssignOp = map[token.TokenType]ast.Kind{
	token.ADD_ASSIGN:  ast.KindAdd,
	token.SUB_ASSIGN:  ast.KindSub,
	token.MULT_ASSIGN: ast.KindMul,
	token.DIV_ASSIGN:  ast.KindDiv,
}

// Parser turns a token stream into a syntax tree by recursive descent. It
// carries a small state mask (loopDepth, funcDepth) so that `break`,
// `continue`, and `return` can be rejected with a SyntaxError outside their
// legal context.
type Parser struct {
	tokens    []token.Token
	position  int
	loopDepth int
	funcDepth int
}

// NOTE: The parser's position always refers to the next unconsumed token.

// Make initializes and returns a new Parser over the given token stream.
func Make(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, position: 0}
}

// peek returns the token at the parser's current position without
// consuming it.
func (parser *Parser) peek() token.Token {
	return parser.tokens[parser.position]
}

// previous returns the token immediately before the parser's current
// position.
func (parser *Parser) previous() token.Token {
	return parser.tokens[parser.position-1]
}

// advance consumes and returns the current token.
func (parser *Parser) advance() token.Token {
	if !parser.isFinished() {
		parser.position++
	}
	return parser.previous()
}

// isFinished reports whether the parser has reached the EOF token.
func (parser *Parser) isFinished() bool {
	return parser.peek().TokenType == token.EOF
}

// checkType reports whether the current token matches tokenType.
func (parser *Parser) checkType(tokenType token.TokenType) bool {
	if parser.isFinished() {
		return tokenType == token.EOF
	}
	return parser.peek().TokenType == tokenType
}

// isMatch consumes and returns true if the current token's type is any of
// tokenTypes; otherwise the parser position is unchanged.
func (parser *Parser) isMatch(tokenTypes []token.TokenType) bool {
	for _, tokenType := range tokenTypes {
		if parser.checkType(tokenType) {
			parser.advance()
			return true
		}
	}
	return false
}

// consume advances past the current token if it matches tokenType,
// otherwise it fails with a SyntaxError positioned at the offending token
// (not the previously consumed one, so error positions always reflect the
// lexer's own line/column for the token actually found).
func (parser *Parser) consume(tokenType token.TokenType, errorMessage string) (token.Token, error) {
	if parser.checkType(tokenType) {
		return parser.advance(), nil
	}
	current := parser.peek()
	return token.Token{}, CreateSyntaxError(current.Line, current.Column, errorMessage)
}

// skipSeparators consumes any run of NEWLINE/SEMICOLON tokens.
func (parser *Parser) skipSeparators() {
	for parser.checkType(token.NEWLINE) || parser.checkType(token.SEMICOLON) {
		parser.advance()
	}
}

// Parse parses the entire token stream as a top-level block, returning the
// resulting syntax tree, or no tree and the first error encountered.
// Parsing stops at that first error and does not attempt recovery, so the
// returned slice holds at most one error.
func (parser *Parser) Parse() (*ast.Node, []error) {
	root, err := parser.block(token.EOF)
	if err != nil {
		return nil, []error{err}
	}
	return root, nil
}

// block parses a sequence of statements separated by NEWLINE/SEMICOLON,
// stopping when the current token matches any of stopAt (which is left
// unconsumed) or when input is exhausted.
func (parser *Parser) block(stopAt ...token.TokenType) (*ast.Node, error) {
	line := parser.peek().Line
	statements := []*ast.Node{}

	parser.skipSeparators()
	for !parser.isFinished() && !parser.matchesAny(stopAt) {
		stmt, err := parser.statement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, ast.Simplify(stmt))
		parser.skipSeparators()
	}

	return ast.New(ast.KindBlock, line, statements...), nil
}

func (parser *Parser) matchesAny(types []token.TokenType) bool {
	for _, t := range types {
		if parser.checkType(t) {
			return true
		}
	}
	return false
}

// statement parses a single statement: a control structure, a function
// definition, return/break/continue, or a bare expression statement.
func (parser *Parser) statement() (*ast.Node, error) {
	switch {
	case parser.isMatch([]token.TokenType{token.IF}):
		return parser.ifStatement()
	case parser.isMatch([]token.TokenType{token.WHILE}):
		return parser.whileStatement()
	case parser.isMatch([]token.TokenType{token.FOR}):
		return parser.forStatement()
	case parser.isMatch([]token.TokenType{token.DEF}):
		return parser.funcDefStatement()
	case parser.isMatch([]token.TokenType{token.RETURN}):
		return parser.returnStatement()
	case parser.isMatch([]token.TokenType{token.BREAK}):
		return parser.breakStatement()
	case parser.isMatch([]token.TokenType{token.CONTINUE}):
		return parser.continueStatement()
	}
	return parser.expressionStatement()
}

func (parser *Parser) expressionStatement() (*ast.Node, error) {
	expr, err := parser.expression()
	if err != nil {
		return nil, err
	}
	return expr, nil
}

func (parser *Parser) ifStatement() (*ast.Node, error) {
	line := parser.previous().Line
	cond, err := parser.expression()
	if err != nil {
		return nil, err
	}
	then, err := parser.block(token.ELSE, token.END)
	if err != nil {
		return nil, err
	}
	children := []*ast.Node{cond, then}
	if parser.isMatch([]token.TokenType{token.ELSE}) {
		elseBlock, err := parser.block(token.END)
		if err != nil {
			return nil, err
		}
		children = append(children, elseBlock)
	}
	if _, err := parser.consume(token.END, "expected 'end' to close 'if'"); err != nil {
		return nil, err
	}
	return ast.New(ast.KindIf, line, children...), nil
}

func (parser *Parser) whileStatement() (*ast.Node, error) {
	line := parser.previous().Line
	cond, err := parser.expression()
	if err != nil {
		return nil, err
	}
	parser.loopDepth++
	body, err := parser.block(token.END)
	parser.loopDepth--
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.END, "expected 'end' to close 'while'"); err != nil {
		return nil, err
	}
	return ast.New(ast.KindWhile, line, cond, body), nil
}

func (parser *Parser) forStatement() (*ast.Node, error) {
	line := parser.previous().Line
	hasParen := parser.isMatch([]token.TokenType{token.LPA})
	init, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.SEMICOLON, "expected ';' after for-loop initializer"); err != nil {
		return nil, err
	}
	cond, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.SEMICOLON, "expected ';' after for-loop condition"); err != nil {
		return nil, err
	}
	step, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if hasParen {
		if _, err := parser.consume(token.RPA, "expected ')' after for-loop step"); err != nil {
			return nil, err
		}
	}
	parser.loopDepth++
	body, err := parser.block(token.END)
	parser.loopDepth--
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.END, "expected 'end' to close 'for'"); err != nil {
		return nil, err
	}
	return ast.New(ast.KindFor, line, init, cond, step, body), nil
}

func (parser *Parser) funcDefStatement() (*ast.Node, error) {
	line := parser.previous().Line
	name, err := parser.consume(token.IDENTIFIER, "expected a function name after 'def'")
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LPA, "expected '(' after function name"); err != nil {
		return nil, err
	}
	params := []*ast.Node{}
	if !parser.checkType(token.RPA) {
		for {
			p, err := parser.consume(token.IDENTIFIER, "expected a parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, ast.NewIdentifier(p.Line, p.Lexeme))
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RPA, "expected ')' after parameter list"); err != nil {
		return nil, err
	}
	parser.funcDepth++
	savedLoopDepth := parser.loopDepth
	parser.loopDepth = 0
	body, err := parser.block(token.END)
	parser.loopDepth = savedLoopDepth
	parser.funcDepth--
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.END, "expected 'end' to close 'def'"); err != nil {
		return nil, err
	}
	children := append(params, body)
	n := ast.New(ast.KindFuncDef, line, children...)
	n.Str = name.Lexeme
	return n, nil
}

func (parser *Parser) returnStatement() (*ast.Node, error) {
	tok := parser.previous()
	if parser.funcDepth == 0 {
		return nil, CreateSyntaxError(tok.Line, tok.Column, "'return' is only legal inside a function")
	}
	if parser.checkType(token.NEWLINE) || parser.checkType(token.SEMICOLON) || parser.checkType(token.END) || parser.isFinished() {
		return ast.New(ast.KindReturn, tok.Line), nil
	}
	expr, err := parser.expression()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.KindReturn, tok.Line, expr), nil
}

func (parser *Parser) breakStatement() (*ast.Node, error) {
	tok := parser.previous()
	if parser.loopDepth == 0 {
		return nil, CreateSyntaxError(tok.Line, tok.Column, "'break' is only legal inside a loop")
	}
	return ast.New(ast.KindBreak, tok.Line), nil
}

func (parser *Parser) continueStatement() (*ast.Node, error) {
	tok := parser.previous()
	if parser.loopDepth == 0 {
		return nil, CreateSyntaxError(tok.Line, tok.Column, "'continue' is only legal inside a loop")
	}
	return ast.New(ast.KindContinue, tok.Line), nil
}

// expression is the entry point into the precedence-climbing expression
// grammar; spec.md §4.4 orders precedence lowest-to-highest as: assignment,
// `and`, `or`, comparison, additive, multiplicative, unary, postfix,
// primary. That ordering is honored literally below, even though it means
// `and` binds looser than `or` (`a and b or c` groups as `a and (b or c)`).
func (parser *Parser) expression() (*ast.Node, error) {
	return parser.assignment()
}

func (parser *Parser) assignment() (*ast.Node, error) {
	left, err := parser.and()
	if err != nil {
		return nil, err
	}

	if parser.isMatch([]token.TokenType{token.ASSIGN}) {
		line := parser.previous().Line
		value, err := parser.assignment()
		if err != nil {
			return nil, err
		}
		return makeAssign(line, left, value)
	}

	if parser.isMatch(compoundAssignTokenTypes) {
		opTok := parser.previous()
		value, err := parser.assignment()
		if err != nil {
			return nil, err
		}
		rhs := ast.New(compoundAssignOp[opTok.TokenType], opTok.Line, left, value)
		return makeAssign(opTok.Line, left, rhs)
	}

	return left, nil
}

func makeAssign(line int32, target, value *ast.Node) (*ast.Node, error) {
	if target.Kind != ast.KindIdentifier && target.Kind != ast.KindIndex {
		return nil, CreateSemanticError(line, 0, "assignment target must be a variable or an indexed expression")
	}
	return ast.New(ast.KindAssign, line, target, value), nil
}

func (parser *Parser) and() (*ast.Node, error) {
	left, err := parser.or()
	if err != nil {
		return nil, err
	}
	for parser.isMatch([]token.TokenType{token.AND}) {
		line := parser.previous().Line
		right, err := parser.or()
		if err != nil {
			return nil, err
		}
		left = ast.New(ast.KindAnd, line, left, right)
	}
	return left, nil
}

func (parser *Parser) or() (*ast.Node, error) {
	left, err := parser.comparison()
	if err != nil {
		return nil, err
	}
	for parser.isMatch([]token.TokenType{token.OR}) {
		line := parser.previous().Line
		right, err := parser.comparison()
		if err != nil {
			return nil, err
		}
		left = ast.New(ast.KindOr, line, left, right)
	}
	return left, nil
}

var comparisonKind = map[token.TokenType]ast.Kind{
	token.EQUAL_EQUAL:  ast.KindEq,
	token.NOT_EQUAL:    ast.KindNeq,
	token.LESS:         ast.KindLess,
	token.LESS_EQUAL:   ast.KindLessEq,
	token.LARGER:       ast.KindGreater,
	token.LARGER_EQUAL: ast.KindGreaterEq,
}

func (parser *Parser) comparison() (*ast.Node, error) {
	left, err := parser.additive()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(comparisonTokenTypes) {
		opTok := parser.previous()
		right, err := parser.additive()
		if err != nil {
			return nil, err
		}
		left = ast.New(comparisonKind[opTok.TokenType], opTok.Line, left, right)
	}
	return left, nil
}

func (parser *Parser) additive() (*ast.Node, error) {
	left, err := parser.multiplicative()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(termTokenTypes) {
		opTok := parser.previous()
		kind := ast.KindAdd
		if opTok.TokenType == token.SUB {
			kind = ast.KindSub
		}
		right, err := parser.multiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.New(kind, opTok.Line, left, right)
	}
	return left, nil
}

func (parser *Parser) multiplicative() (*ast.Node, error) {
	left, err := parser.unary()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(factorTokenTypes) {
		opTok := parser.previous()
		kind := ast.KindMul
		if opTok.TokenType == token.DIV {
			kind = ast.KindDiv
		}
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		left = ast.New(kind, opTok.Line, left, right)
	}
	return left, nil
}

func (parser *Parser) unary() (*ast.Node, error) {
	if parser.isMatch([]token.TokenType{token.NOT}) {
		opTok := parser.previous()
		operand, err := parser.unary()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.KindNot, opTok.Line, operand), nil
	}
	if parser.isMatch([]token.TokenType{token.SUB}) {
		opTok := parser.previous()
		operand, err := parser.unary()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.KindNeg, opTok.Line, operand), nil
	}
	return parser.postfix()
}

// postfix parses indexing (`a[i]`) and method-call (`a.name(args)`) suffixes
// on a primary expression. `a.name(args)` is rewritten to `name(a, args)` at
// parse time (the implicit-self form), per spec.md §4.4.
func (parser *Parser) postfix() (*ast.Node, error) {
	expr, err := parser.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case parser.isMatch([]token.TokenType{token.LBRACKET}):
			line := parser.previous().Line
			index, err := parser.expression()
			if err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.RBRACKET, "expected ']' after index expression"); err != nil {
				return nil, err
			}
			expr = ast.New(ast.KindIndex, line, expr, index)
		case parser.isMatch([]token.TokenType{token.DOT}):
			name, err := parser.consume(token.IDENTIFIER, "expected a method name after '.'")
			if err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.LPA, "expected '(' after method name"); err != nil {
				return nil, err
			}
			args, err := parser.argumentList()
			if err != nil {
				return nil, err
			}
			args = append([]*ast.Node{expr}, args...)
			call := ast.New(ast.KindCall, name.Line, args...)
			call.Str = name.Lexeme
			expr = call
		default:
			return expr, nil
		}
	}
}

func (parser *Parser) argumentList() ([]*ast.Node, error) {
	args := []*ast.Node{}
	if !parser.checkType(token.RPA) {
		for {
			arg, err := parser.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RPA, "expected ')' after argument list"); err != nil {
		return nil, err
	}
	return args, nil
}

func (parser *Parser) primary() (*ast.Node, error) {
	tok := parser.peek()

	switch tok.TokenType {
	case token.NIL:
		parser.advance()
		return ast.NewNil(tok.Line), nil
	case token.TRUE:
		parser.advance()
		return ast.NewBool(tok.Line, true), nil
	case token.FALSE:
		parser.advance()
		return ast.NewBool(tok.Line, false), nil
	case token.NUMBER:
		parser.advance()
		return ast.NewNumber(tok.Line, tok.Literal.(float64)), nil
	case token.STRING:
		parser.advance()
		return ast.NewString(tok.Line, tok.Literal.(string)), nil
	case token.LPA:
		parser.advance()
		expr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.RPA, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return expr, nil
	case token.LBRACKET:
		return parser.listLiteral()
	case token.LCUR:
		return parser.dictLiteral()
	case token.IDENTIFIER:
		parser.advance()
		if parser.checkType(token.LPA) {
			parser.advance()
			args, err := parser.argumentList()
			if err != nil {
				return nil, err
			}
			call := ast.New(ast.KindCall, tok.Line, args...)
			call.Str = tok.Lexeme
			return call, nil
		}
		return ast.NewIdentifier(tok.Line, tok.Lexeme), nil
	case token.NEW, token.TO:
		return nil, CreateSyntaxError(tok.Line, tok.Column, "'"+string(tok.TokenType)+"' is reserved and not usable in an expression")
	}

	return nil, CreateSyntaxError(tok.Line, tok.Column, "unexpected token "+tok.String())
}

func (parser *Parser) listLiteral() (*ast.Node, error) {
	open, err := parser.consume(token.LBRACKET, "expected '['")
	if err != nil {
		return nil, err
	}
	elements := []*ast.Node{}
	if !parser.checkType(token.RBRACKET) {
		for {
			el, err := parser.expression()
			if err != nil {
				return nil, err
			}
			elements = append(elements, el)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RBRACKET, "expected ']' after list elements"); err != nil {
		return nil, err
	}
	return ast.New(ast.KindList, open.Line, elements...), nil
}

func (parser *Parser) dictLiteral() (*ast.Node, error) {
	open, err := parser.consume(token.LCUR, "expected '{'")
	if err != nil {
		return nil, err
	}
	pairs := []*ast.Node{}
	if !parser.checkType(token.RCUR) {
		for {
			key, err := parser.expression()
			if err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.COLON, "expected ':' after dictionary key"); err != nil {
				return nil, err
			}
			val, err := parser.expression()
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, key, val)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RCUR, "expected '}' after dictionary entries"); err != nil {
		return nil, err
	}
	return ast.New(ast.KindDict, open.Line, pairs...), nil
}
