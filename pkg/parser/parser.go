// Package parser implements a recursive-descent parser producing a pkg/ast
// tree from a pkg/lexer token stream.
//
// Per the speculative-parsing redesign note in spec §9, function-vs-
// variable disambiguation at the top level does not rewind a consumed
// token: the two-token lookahead buffer (curToken/peekToken) already lets
// parseTopLevel decide after consuming the type and the name, by looking
// at whether the next token is "(" — no backtracking buffer is needed.
package parser

import (
	"fmt"

	"github.com/NathanVRyver/ccompiler/pkg/ast"
	"github.com/NathanVRyver/ccompiler/pkg/diag"
	"github.com/NathanVRyver/ccompiler/pkg/lexer"
	"github.com/NathanVRyver/ccompiler/pkg/token"
)

// Parser parses C source code into an *ast.Program.
type Parser struct {
	l         *lexer.Lexer
	curToken  token.Token
	peekToken token.Token
	sink      *diag.Sink
}

// New creates a new Parser reading tokens from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l, sink: diag.NewSink()}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns the accumulated parse diagnostics.
func (p *Parser) Errors() []diag.Diagnostic {
	return p.sink.Diagnostics()
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) addError(format string, args ...any) {
	p.sink.ReportAt(p.curToken.Lexeme, format, args...)
}

func (p *Parser) curIs(k token.Kind, lexeme string) bool {
	return p.curToken.Kind == k && p.curToken.Lexeme == lexeme
}

func (p *Parser) curIsPunct(lexeme string) bool {
	return p.curIs(token.Punctuator, lexeme)
}

func (p *Parser) curIsOp(lexeme string) bool {
	return p.curIs(token.Operator, lexeme)
}

// expectPunct consumes the current token if it is the punctuator lexeme,
// reporting an error and leaving the cursor in place otherwise.
func (p *Parser) expectPunct(lexeme string) bool {
	if p.curIsPunct(lexeme) {
		p.nextToken()
		return true
	}
	p.addError("expected '%s', got '%s'", lexeme, p.curToken.Lexeme)
	return false
}

func (p *Parser) isTypeKeyword() bool {
	if p.curToken.Kind != token.Keyword {
		return false
	}
	switch p.curToken.Lexeme {
	case "int", "char", "void":
		return true
	}
	return false
}

// ParseProgram parses a full translation unit.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.curToken.Kind != token.EOF {
		decl := p.parseTopLevel()
		if decl != nil {
			prog.Decls = append(prog.Decls, decl)
		}
		if p.sink.HasErrors() {
			p.recover()
		}
	}
	return prog
}

// recover implements panic-mode resynchronisation: skip tokens until the
// next one begins a type keyword (or EOF). The keyword test is made on the
// current, not yet consumed token; the previously consumed token is not
// consulted.
func (p *Parser) recover() {
	for p.curToken.Kind != token.EOF && !p.isTypeKeyword() {
		p.nextToken()
	}
}

// parseTopLevel dispatches to a function declaration, a variable
// declaration, or a statement, per spec §4.2's top-level recognition rule.
func (p *Parser) parseTopLevel() ast.Node {
	if p.isTypeKeyword() {
		return p.parseDeclOrFunction()
	}
	return p.parseStatement()
}

// parseDeclOrFunction parses "type IDENT ..." and decides between a
// function declaration and a variable declaration by looking at the token
// following the name.
func (p *Parser) parseDeclOrFunction() ast.Node {
	typeSpec := p.curToken.Lexeme
	p.nextToken() // consume type keyword

	if p.curToken.Kind != token.Identifier {
		p.addError("expected identifier, got '%s'", p.curToken.Lexeme)
		return nil
	}
	name := p.curToken.Lexeme
	p.nextToken() // consume name

	if p.curIsPunct("(") {
		return p.parseFunctionDecl(typeSpec, name)
	}
	return p.parseVariableDeclTail(typeSpec, name)
}

// parseFunctionDecl parses the parameter list and optional body/forward
// declaration, given the return type and name already consumed.
func (p *Parser) parseFunctionDecl(returnType, name string) ast.Node {
	if !p.expectPunct("(") {
		return nil
	}
	var params []ast.Param
	if !p.curIsPunct(")") {
		for {
			if !p.isTypeKeyword() {
				p.addError("expected parameter type, got '%s'", p.curToken.Lexeme)
				return nil
			}
			paramType := p.curToken.Lexeme
			p.nextToken()
			if p.curToken.Kind != token.Identifier {
				p.addError("expected parameter name, got '%s'", p.curToken.Lexeme)
				return nil
			}
			params = append(params, ast.Param{Type: paramType, Name: p.curToken.Lexeme})
			p.nextToken()
			if p.curIsPunct(",") {
				p.nextToken()
				continue
			}
			break
		}
	}
	if !p.expectPunct(")") {
		return nil
	}

	fn := &ast.FunctionDecl{ReturnType: returnType, Name: name, Params: params}

	if p.curIsPunct(";") {
		p.nextToken() // forward declaration
		return fn
	}
	if !p.curIsPunct("{") {
		p.addError("expected '{' or ';', got '%s'", p.curToken.Lexeme)
		return nil
	}
	fn.Body = p.parseCompoundStmt()
	return fn
}

// parseVariableDeclTail parses "( = expression )? ;" given the type and
// name already consumed.
func (p *Parser) parseVariableDeclTail(typeSpec, name string) ast.Node {
	decl := &ast.VariableDecl{Type: typeSpec, Name: name}
	if p.curIsOp("=") {
		p.nextToken()
		decl.Init = p.parseExpression()
	}
	p.expectPunct(";")
	return decl
}

func (p *Parser) parseCompoundStmt() *ast.CompoundStmt {
	block := &ast.CompoundStmt{}
	p.nextToken() // consume '{'
	for !p.curIsPunct("}") && p.curToken.Kind != token.EOF {
		stmt := p.asStmt(p.parseStatement())
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if p.sink.HasErrors() {
			return block
		}
	}
	p.expectPunct("}")
	return block
}

// parseStatement dispatches on the first token per spec §4.2's statement
// table. The result is returned as an ast.Node so it can serve as a
// top-level declaration; callers inside blocks convert it with asStmt.
func (p *Parser) parseStatement() ast.Node {
	switch {
	case p.curIsPunct("{"):
		return p.parseCompoundStmt()
	case p.curIs(token.Keyword, "if"):
		return p.parseIf()
	case p.curIs(token.Keyword, "while"):
		return p.parseWhile()
	case p.curIs(token.Keyword, "for"):
		return p.parseFor()
	case p.curIs(token.Keyword, "return"):
		return p.parseReturn()
	case p.isTypeKeyword():
		typeSpec := p.curToken.Lexeme
		p.nextToken()
		if p.curToken.Kind != token.Identifier {
			p.addError("expected identifier, got '%s'", p.curToken.Lexeme)
			return nil
		}
		name := p.curToken.Lexeme
		p.nextToken()
		return p.parseVariableDeclTail(typeSpec, name)
	default:
		return p.parseExpressionStmt()
	}
}

func (p *Parser) parseIf() ast.Stmt {
	p.nextToken() // consume 'if'
	if !p.expectPunct("(") {
		return nil
	}
	cond := p.parseExpression()
	if !p.expectPunct(")") {
		return nil
	}
	then := p.asStmt(p.parseStatement())
	node := &ast.If{Cond: cond, Then: then}
	if p.curIs(token.Keyword, "else") {
		p.nextToken()
		node.Else = p.asStmt(p.parseStatement())
	}
	return node
}

func (p *Parser) parseWhile() ast.Stmt {
	p.nextToken() // consume 'while'
	if !p.expectPunct("(") {
		return nil
	}
	cond := p.parseExpression()
	if !p.expectPunct(")") {
		return nil
	}
	body := p.asStmt(p.parseStatement())
	return &ast.While{Cond: cond, Body: body}
}

// parseFor parses the for-header per spec §4.2: an initializer that is a
// declaration, an expression statement, or a bare ";"; entering its own
// scope is pkg/sema's responsibility, not the parser's.
func (p *Parser) parseFor() ast.Stmt {
	p.nextToken() // consume 'for'
	if !p.expectPunct("(") {
		return nil
	}

	var init ast.Stmt
	if p.curIsPunct(";") {
		p.nextToken()
	} else if p.isTypeKeyword() {
		typeSpec := p.curToken.Lexeme
		p.nextToken()
		if p.curToken.Kind != token.Identifier {
			p.addError("expected identifier, got '%s'", p.curToken.Lexeme)
			return nil
		}
		name := p.curToken.Lexeme
		p.nextToken()
		init = p.asStmt(p.parseVariableDeclTail(typeSpec, name))
	} else {
		init = p.asStmt(p.parseExpressionStmt())
	}

	var cond ast.Expr
	if !p.curIsPunct(";") {
		cond = p.parseExpression()
	}
	p.expectPunct(";")

	var post ast.Expr
	if !p.curIsPunct(")") {
		post = p.parseExpression()
	}
	if !p.expectPunct(")") {
		return nil
	}

	body := p.asStmt(p.parseStatement())
	return &ast.For{Init: init, Cond: cond, Post: post, Body: body}
}

func (p *Parser) parseReturn() ast.Stmt {
	p.nextToken() // consume 'return'
	ret := &ast.Return{}
	if !p.curIsPunct(";") {
		ret.Value = p.parseExpression()
	}
	p.expectPunct(";")
	return ret
}

func (p *Parser) parseExpressionStmt() ast.Stmt {
	if p.curIsPunct(";") {
		p.nextToken()
		return &ast.ExpressionStmt{}
	}
	expr := p.parseExpression()
	p.expectPunct(";")
	return &ast.ExpressionStmt{Expr: expr}
}

// asStmt converts a Node returned from parseStatement into an ast.Stmt,
// reporting an internal error if something unexpected was produced (e.g. a
// nil from a failed sub-parse).
func (p *Parser) asStmt(n ast.Node) ast.Stmt {
	if n == nil {
		return nil
	}
	if s, ok := n.(ast.Stmt); ok {
		return s
	}
	p.addError("expected statement")
	return nil
}

// --- Expression grammar ---
//
// expression  ::= assignment
// assignment  ::= equality ( "=" assignment )?
// equality    ::= comparison ( ("=="|"!=") comparison )*
// comparison  ::= term ( ("<"|"<="|">"|">=") term )*
// term        ::= factor ( ("+"|"-") factor )*
// factor      ::= unary  ( ("*"|"/") unary )*
// unary       ::= ("!"|"-") unary | primary
// primary     ::= number | identifier ( "(" arguments? ")" )? | "(" expression ")" | string

func (p *Parser) parseExpression() ast.Expr {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Expr {
	left := p.parseEquality()
	if p.curIsOp("=") {
		p.nextToken()
		if _, ok := left.(*ast.Identifier); !ok {
			p.addError("invalid assignment target")
		}
		value := p.parseAssignment() // right-associative
		return &ast.Assignment{Target: left, Value: value}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseComparison()
	for p.curIsOp("==") || p.curIsOp("!=") {
		op := p.binaryOpFor(p.curToken.Lexeme)
		p.nextToken()
		right := p.parseComparison()
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseTerm()
	for p.curIsOp("<") || p.curIsOp("<=") || p.curIsOp(">") || p.curIsOp(">=") {
		op := p.binaryOpFor(p.curToken.Lexeme)
		p.nextToken()
		right := p.parseTerm()
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseTerm() ast.Expr {
	left := p.parseFactor()
	for p.curIsOp("+") || p.curIsOp("-") {
		op := p.binaryOpFor(p.curToken.Lexeme)
		p.nextToken()
		right := p.parseFactor()
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseFactor() ast.Expr {
	left := p.parseUnary()
	for p.curIsOp("*") || p.curIsOp("/") {
		op := p.binaryOpFor(p.curToken.Lexeme)
		p.nextToken()
		right := p.parseUnary()
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	if p.curIsOp("-") {
		p.nextToken()
		return &ast.Unary{Op: ast.OpNeg, Operand: p.parseUnary()}
	}
	if p.curIsOp("!") {
		p.nextToken()
		return &ast.Unary{Op: ast.OpNot, Operand: p.parseUnary()}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	switch {
	case p.curToken.Kind == token.Number:
		lit := &ast.NumberLiteral{Text: p.curToken.Lexeme}
		p.nextToken()
		return lit
	case p.curToken.Kind == token.String:
		lit := &ast.StringLiteral{Text: p.curToken.Lexeme}
		p.nextToken()
		return lit
	case p.curToken.Kind == token.Identifier:
		name := p.curToken.Lexeme
		p.nextToken()
		if p.curIsPunct("(") {
			return p.parseCallArgs(name)
		}
		return &ast.Identifier{Name: name}
	case p.curIsPunct("("):
		p.nextToken()
		expr := p.parseExpression()
		p.expectPunct(")")
		return expr
	default:
		p.addError("expected expression, got '%s'", p.curToken.Lexeme)
		p.nextToken()
		return nil
	}
}

func (p *Parser) parseCallArgs(callee string) ast.Expr {
	p.nextToken() // consume '('
	call := &ast.Call{Callee: callee}
	if !p.curIsPunct(")") {
		for {
			call.Args = append(call.Args, p.parseExpression())
			if p.curIsPunct(",") {
				p.nextToken()
				continue
			}
			break
		}
	}
	p.expectPunct(")")
	return call
}

func (p *Parser) binaryOpFor(lexeme string) ast.BinaryOp {
	switch lexeme {
	case "+":
		return ast.OpAdd
	case "-":
		return ast.OpSub
	case "*":
		return ast.OpMul
	case "/":
		return ast.OpDiv
	case "==":
		return ast.OpEq
	case "!=":
		return ast.OpNe
	case "<":
		return ast.OpLt
	case "<=":
		return ast.OpLe
	case ">":
		return ast.OpGt
	case ">=":
		return ast.OpGe
	default:
		panic(fmt.Sprintf("parser: unreachable operator %q", lexeme))
	}
}
