// Package sema implements the semantic analysis pass: scope-stacked symbol
// resolution and function-call arity checking. The code generator does not
// read the symbol table built here.
//
// The scope-stack design is grounded in Fl0k3n-gocc's symtab.Symtab, but
// restated in plain structs rather than generics — this analyzer only ever
// stores one payload shape (*Symbol), so the generic Symtab[T] the teacher
// pack offers elsewhere has nothing to be generic over here. Error
// reporting follows the original analyzer's first-error-stops-the-pass
// policy: analyzeNode returns false the moment a child fails, and callers
// propagate that false upward without collecting further diagnostics.
package sema

import (
	"fmt"
	"io"

	"github.com/NathanVRyver/ccompiler/pkg/ast"
	"github.com/NathanVRyver/ccompiler/pkg/ctypes"
	"github.com/NathanVRyver/ccompiler/pkg/diag"
)

// SymbolKind classifies what a Symbol denotes.
type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymFunction
	SymParameter
)

// Symbol is one entry in a Scope.
type Symbol struct {
	Name        string
	Type        ctypes.Type
	Kind        SymbolKind
	Initialized bool
	ParamTypes  []ctypes.Type // populated for SymFunction
}

// Scope is one level of the lexical scope stack.
type Scope struct {
	symbols map[string]*Symbol
	parent  *Scope
}

func newScope(parent *Scope) *Scope {
	return &Scope{symbols: make(map[string]*Symbol), parent: parent}
}

func (s *Scope) define(sym *Symbol) bool {
	if _, exists := s.symbols[sym.Name]; exists {
		return false
	}
	s.symbols[sym.Name] = sym
	return true
}

func (s *Scope) lookup(name string) (*Symbol, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// Analyzer walks an *ast.Program, resolving identifiers against a scope
// stack and reporting semantic errors to its diag.Sink.
type Analyzer struct {
	global  *Scope
	current *Scope
	structs *ctypes.StructRegistry
	sink    *diag.Sink
}

// New creates an Analyzer that reports to sink.
func New(sink *diag.Sink) *Analyzer {
	global := newScope(nil)
	return &Analyzer{
		global:  global,
		current: global,
		structs: ctypes.NewStructRegistry(),
		sink:    sink,
	}
}

func (a *Analyzer) enterScope() {
	a.current = newScope(a.current)
}

func (a *Analyzer) exitScope() {
	a.current = a.current.parent
}

func (a *Analyzer) errorf(format string, args ...any) bool {
	a.sink.Report(diag.Semantic, format, args...)
	return false
}

// DumpSymbols writes every file-scope symbol (functions and globals) to w,
// one per line, for the driver's "-v" diagnostic dump.
func (a *Analyzer) DumpSymbols(w io.Writer) {
	for name, sym := range a.global.symbols {
		switch sym.Kind {
		case SymFunction:
			fmt.Fprintf(w, "  function %s -> %s\n", name, sym.Type)
		default:
			fmt.Fprintf(w, "  variable %s: %s\n", name, sym.Type)
		}
	}
}

// Analyze runs semantic analysis over prog, resolving every identifier and
// call against the scope stack it builds along the way. It returns false
// and stops at the first diagnostic recorded, matching the original
// analyzer's short-circuiting behavior.
func (a *Analyzer) Analyze(prog *ast.Program) bool {
	for _, decl := range prog.Decls {
		if !a.analyzeNode(decl) {
			return false
		}
	}
	return true
}

func (a *Analyzer) resolveType(spelling string) (ctypes.Type, bool) {
	t, err := ctypes.FromSpec(spelling, a.structs)
	if err != nil {
		a.errorf("unknown type '%s'", spelling)
		return nil, false
	}
	return t, true
}

func (a *Analyzer) analyzeNode(n ast.Node) bool {
	switch node := n.(type) {
	case *ast.FunctionDecl:
		return a.analyzeFunctionDecl(node)
	case *ast.VariableDecl:
		return a.analyzeVariableDecl(node)
	case *ast.CompoundStmt:
		return a.analyzeCompoundStmt(node)
	case *ast.ExpressionStmt:
		if node.Expr == nil {
			return true
		}
		return a.analyzeNode(node.Expr)
	case *ast.If:
		return a.analyzeIf(node)
	case *ast.While:
		return a.analyzeWhile(node)
	case *ast.For:
		return a.analyzeFor(node)
	case *ast.Return:
		if node.Value == nil {
			return true
		}
		return a.analyzeNode(node.Value)
	case *ast.Binary:
		return a.analyzeNode(node.Left) && a.analyzeNode(node.Right)
	case *ast.Unary:
		return a.analyzeNode(node.Operand)
	case *ast.Call:
		return a.analyzeCall(node)
	case *ast.Assignment:
		return a.analyzeAssignment(node)
	case *ast.Identifier:
		return a.analyzeIdentifier(node)
	case *ast.NumberLiteral, *ast.StringLiteral:
		return true
	default:
		return true
	}
}

func (a *Analyzer) analyzeFunctionDecl(fn *ast.FunctionDecl) bool {
	returnType, ok := a.resolveType(fn.ReturnType)
	if !ok {
		return false
	}

	paramTypes := make([]ctypes.Type, len(fn.Params))
	for i, param := range fn.Params {
		pt, ok := a.resolveType(param.Type)
		if !ok {
			return false
		}
		paramTypes[i] = pt
	}

	if !a.global.define(&Symbol{
		Name:        fn.Name,
		Type:        returnType,
		Kind:        SymFunction,
		Initialized: true,
		ParamTypes:  paramTypes,
	}) {
		return a.errorf("Redeclaration of symbol")
	}

	if fn.Body == nil {
		return true
	}

	a.enterScope()
	for i, param := range fn.Params {
		if !a.current.define(&Symbol{
			Name:        param.Name,
			Type:        paramTypes[i],
			Kind:        SymParameter,
			Initialized: true,
		}) {
			a.exitScope()
			return a.errorf("Redeclaration of symbol")
		}
	}

	ok = a.analyzeCompoundStmtBody(fn.Body)
	a.exitScope()
	return ok
}

func (a *Analyzer) analyzeVariableDecl(v *ast.VariableDecl) bool {
	t, ok := a.resolveType(v.Type)
	if !ok {
		return false
	}

	// A variable with no initializer is still considered initialized, so
	// "int x;" followed by a read of x is never rejected (spec §9).
	if v.Init != nil && !a.analyzeNode(v.Init) {
		return false
	}

	if !a.current.define(&Symbol{
		Name:        v.Name,
		Type:        t,
		Kind:        SymVariable,
		Initialized: true,
	}) {
		return a.errorf("Redeclaration of symbol")
	}
	return true
}

// analyzeCompoundStmt enters its own scope, matching a `{ ... }` encountered
// as a statement. The function-body block is handled by
// analyzeCompoundStmtBody instead, reusing the scope the enclosing
// FunctionDecl already opened for its parameters.
func (a *Analyzer) analyzeCompoundStmt(block *ast.CompoundStmt) bool {
	a.enterScope()
	ok := a.analyzeCompoundStmtBody(block)
	a.exitScope()
	return ok
}

func (a *Analyzer) analyzeCompoundStmtBody(block *ast.CompoundStmt) bool {
	for _, stmt := range block.Stmts {
		if !a.analyzeNode(stmt) {
			return false
		}
	}
	return true
}

func (a *Analyzer) analyzeIf(stmt *ast.If) bool {
	if !a.analyzeNode(stmt.Cond) {
		return false
	}
	if !a.analyzeNode(stmt.Then) {
		return false
	}
	if stmt.Else != nil {
		return a.analyzeNode(stmt.Else)
	}
	return true
}

func (a *Analyzer) analyzeWhile(stmt *ast.While) bool {
	if !a.analyzeNode(stmt.Cond) {
		return false
	}
	return a.analyzeNode(stmt.Body)
}

func (a *Analyzer) analyzeFor(stmt *ast.For) bool {
	a.enterScope()
	defer a.exitScope()

	if stmt.Init != nil && !a.analyzeNode(stmt.Init) {
		return false
	}
	if stmt.Cond != nil && !a.analyzeNode(stmt.Cond) {
		return false
	}
	if stmt.Post != nil && !a.analyzeNode(stmt.Post) {
		return false
	}
	return a.analyzeNode(stmt.Body)
}

func (a *Analyzer) analyzeIdentifier(id *ast.Identifier) bool {
	if _, ok := a.current.lookup(id.Name); !ok {
		return a.errorf("Undeclared identifier: %s", id.Name)
	}
	return true
}

func (a *Analyzer) analyzeCall(call *ast.Call) bool {
	sym, ok := a.current.lookup(call.Callee)
	if !ok {
		// printf and scanf are declared by the IR preamble and take a
		// variable number of arguments, so no arity check applies to them.
		if call.Callee == "printf" || call.Callee == "scanf" {
			for _, arg := range call.Args {
				if !a.analyzeNode(arg) {
					return false
				}
			}
			return true
		}
		return a.errorf("Undeclared function")
	}
	if sym.Kind != SymFunction {
		return a.errorf("Called object is not a function")
	}
	if len(sym.ParamTypes) != len(call.Args) {
		return a.errorf("Wrong number of arguments")
	}
	for _, arg := range call.Args {
		if !a.analyzeNode(arg) {
			return false
		}
	}
	return true
}

func (a *Analyzer) analyzeAssignment(asg *ast.Assignment) bool {
	if !a.analyzeNode(asg.Target) {
		return false
	}
	if !a.analyzeNode(asg.Value) {
		return false
	}
	if id, ok := asg.Target.(*ast.Identifier); ok {
		if sym, found := a.current.lookup(id.Name); found {
			sym.Initialized = true
		}
	}
	return true
}
