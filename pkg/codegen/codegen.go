package codegen

import (
	"fmt"
	"strings"

	"github.com/NathanVRyver/ccompiler/pkg/ast"
	"github.com/NathanVRyver/ccompiler/pkg/diag"
	"github.com/NathanVRyver/ccompiler/pkg/llvmir"
)

// scope maps a local variable's name to the alloca register holding its
// address. Unlike the original generator — which wrote straight to
// "%<varname>" and so could not survive two declarations of the same name
// in nested blocks — each declaration here mints its own unique register
// through counters.freshReg, so shadowing across scopes never collides in
// the emitted SSA names.
type scope struct {
	vars   map[string]llvmir.Reg
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: make(map[string]llvmir.Reg), parent: parent}
}

func (s *scope) define(name string, reg llvmir.Reg) {
	s.vars[name] = reg
}

func (s *scope) lookup(name string) (llvmir.Reg, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if reg, ok := sc.vars[name]; ok {
			return reg, true
		}
	}
	return "", false
}

// Generator lowers an *ast.Program into an *llvmir.Program. Every genXxx
// method that produces a value returns that value's register directly;
// none of them rely on re-deriving "the last register
// minted" from counter state the way the original codegen's
// generate_temp-after-the-fact pattern did.
type Generator struct {
	counters
	sink       *diag.Sink
	current    *scope
	body       []llvmir.Instruction
	globals    []llvmir.GlobalString
	globalVars []string // names of top-level scalar variables, resolved as "@name" pointers
	retType    string    // the enclosing function's IR return type, for the trailing default return
	funcRet    map[string]string
}

// New creates a Generator reporting to sink.
func New(sink *diag.Sink) *Generator {
	return &Generator{
		sink: sink,
		funcRet: map[string]string{
			"printf": "i32",
			"scanf":  "i32",
		},
	}
}

func (g *Generator) errorf(format string, args ...any) {
	g.sink.Report(diag.Codegen, format, args...)
}

func (g *Generator) emit(instr llvmir.Instruction) {
	g.body = append(g.body, instr)
}

// Generate lowers prog to an llvmir.Program. It returns false the moment
// any component reports a diagnostic, matching the short-circuit policy
// pkg/sema also follows.
func (g *Generator) Generate(prog *ast.Program) (*llvmir.Program, bool) {
	for _, decl := range prog.Decls {
		if fn, ok := decl.(*ast.FunctionDecl); ok {
			g.funcRet[fn.Name] = irReturnType(fn.ReturnType)
		}
	}

	out := &llvmir.Program{}
	for _, decl := range prog.Decls {
		if v, ok := decl.(*ast.VariableDecl); ok {
			g.genGlobalVariable(v, out)
		}
	}

	for _, decl := range prog.Decls {
		fn, ok := decl.(*ast.FunctionDecl)
		if !ok || fn.Body == nil {
			continue // a forward declaration emits nothing
		}
		compiled, ok := g.genFunction(fn)
		if !ok {
			return nil, false
		}
		out.Functions = append(out.Functions, *compiled)
		if g.sink.HasErrors() {
			return nil, false
		}
	}
	out.Globals = g.globals
	return out, true
}

func irReturnType(spelling string) string {
	if spelling == "void" {
		return "void"
	}
	return "i32"
}

// genGlobalVariable emits "@name = global i32 <const>". Only a bare
// number-literal initializer is a valid LLVM constant expression here;
// anything else (or no initializer) defaults to zero, matching the
// original generator's "default initialize to 0" rule for locals. The name
// is also recorded so functions referencing it resolve to the global
// rather than reporting it undeclared.
func (g *Generator) genGlobalVariable(v *ast.VariableDecl, out *llvmir.Program) {
	value := "0"
	if lit, ok := v.Init.(*ast.NumberLiteral); ok {
		value = lit.Text
	}
	out.ScalarGlobals = append(out.ScalarGlobals, llvmir.GlobalScalar{Name: v.Name, Init: value})
	g.globalVars = append(g.globalVars, v.Name)
}

func (g *Generator) genFunction(fn *ast.FunctionDecl) (*llvmir.Function, bool) {
	g.body = nil
	g.current = newScope(nil)
	g.retType = irReturnType(fn.ReturnType)

	params := make([]llvmir.Param, len(fn.Params))
	for i, p := range fn.Params {
		argReg := llvmir.Reg(fmt.Sprintf("%%%s.arg", p.Name))
		params[i] = llvmir.Param{Type: "i32", Name: string(argReg)}

		slot := llvmir.Reg(g.freshReg())
		g.emit(llvmir.Alloca{Dest: slot, Type: "i32"})
		g.emit(llvmir.Store{Type: "i32", Value: string(argReg), Dest: slot})
		g.current.define(p.Name, slot)
	}

	if !g.genStmtList(fn.Body.Stmts) {
		return nil, false
	}

	// A straight-line trailing return is always appended, matching the
	// original generator's unconditional default-return behavior rather
	// than tracking whether every path already terminated.
	if g.retType == "void" {
		g.emit(llvmir.Ret{Type: "void"})
	} else {
		g.emit(llvmir.Ret{Type: "i32", Value: "0"})
	}

	return &llvmir.Function{
		Name:    fn.Name,
		RetType: g.retType,
		Params:  params,
		Body:    g.body,
	}, true
}

func (g *Generator) genStmtList(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		if !g.genStmt(s) {
			return false
		}
	}
	return true
}

func (g *Generator) genStmt(stmt ast.Stmt) bool {
	switch s := stmt.(type) {
	case *ast.VariableDecl:
		return g.genLocalVariable(s)
	case *ast.CompoundStmt:
		g.current = newScope(g.current)
		ok := g.genStmtList(s.Stmts)
		g.current = g.current.parent
		return ok
	case *ast.ExpressionStmt:
		if s.Expr == nil {
			return true
		}
		_, ok := g.genExpr(s.Expr)
		return ok
	case *ast.If:
		return g.genIf(s)
	case *ast.While:
		return g.genWhile(s)
	case *ast.For:
		return g.genFor(s)
	case *ast.Return:
		return g.genReturn(s)
	default:
		g.errorf("unsupported statement for code generation")
		return false
	}
}

func (g *Generator) genLocalVariable(v *ast.VariableDecl) bool {
	slot := llvmir.Reg(g.freshReg())
	g.emit(llvmir.Alloca{Dest: slot, Type: "i32"})

	value := "0"
	if v.Init != nil {
		v, ok := g.genExpr(v.Init)
		if !ok {
			return false
		}
		value = v
	}
	g.emit(llvmir.Store{Type: "i32", Value: value, Dest: slot})
	g.current.define(v.Name, slot)
	return true
}

func (g *Generator) genIf(stmt *ast.If) bool {
	thenLabel := llvmir.Label(g.freshLabel())
	elseLabel := llvmir.Label(g.freshLabel())
	endLabel := llvmir.Label(g.freshLabel())

	cond, ok := g.genCondition(stmt.Cond)
	if !ok {
		return false
	}

	target := endLabel
	if stmt.Else != nil {
		target = elseLabel
	}
	g.emit(llvmir.CondBr{Cond: cond, TrueLabel: thenLabel, FalseLabel: target})

	g.emit(llvmir.LabelDef{Name: thenLabel})
	if !g.genStmt(stmt.Then) {
		return false
	}
	g.emit(llvmir.Br{Target: endLabel})

	if stmt.Else != nil {
		g.emit(llvmir.LabelDef{Name: elseLabel})
		if !g.genStmt(stmt.Else) {
			return false
		}
		g.emit(llvmir.Br{Target: endLabel})
	}

	g.emit(llvmir.LabelDef{Name: endLabel})
	return true
}

func (g *Generator) genWhile(stmt *ast.While) bool {
	condLabel := llvmir.Label(g.freshLabel())
	bodyLabel := llvmir.Label(g.freshLabel())
	endLabel := llvmir.Label(g.freshLabel())

	g.emit(llvmir.Br{Target: condLabel})
	g.emit(llvmir.LabelDef{Name: condLabel})

	cond, ok := g.genCondition(stmt.Cond)
	if !ok {
		return false
	}
	g.emit(llvmir.CondBr{Cond: cond, TrueLabel: bodyLabel, FalseLabel: endLabel})

	g.emit(llvmir.LabelDef{Name: bodyLabel})
	if !g.genStmt(stmt.Body) {
		return false
	}
	g.emit(llvmir.Br{Target: condLabel})

	g.emit(llvmir.LabelDef{Name: endLabel})
	return true
}

func (g *Generator) genFor(stmt *ast.For) bool {
	g.current = newScope(g.current)
	defer func() { g.current = g.current.parent }()

	if stmt.Init != nil {
		if !g.genStmt(stmt.Init) {
			return false
		}
	}

	condLabel := llvmir.Label(g.freshLabel())
	bodyLabel := llvmir.Label(g.freshLabel())
	endLabel := llvmir.Label(g.freshLabel())

	g.emit(llvmir.Br{Target: condLabel})
	g.emit(llvmir.LabelDef{Name: condLabel})

	if stmt.Cond != nil {
		cond, ok := g.genCondition(stmt.Cond)
		if !ok {
			return false
		}
		g.emit(llvmir.CondBr{Cond: cond, TrueLabel: bodyLabel, FalseLabel: endLabel})
	} else {
		g.emit(llvmir.Br{Target: bodyLabel})
	}

	g.emit(llvmir.LabelDef{Name: bodyLabel})
	if !g.genStmt(stmt.Body) {
		return false
	}
	if stmt.Post != nil {
		if _, ok := g.genExpr(stmt.Post); !ok {
			return false
		}
	}
	g.emit(llvmir.Br{Target: condLabel})

	g.emit(llvmir.LabelDef{Name: endLabel})
	return true
}

func (g *Generator) genReturn(stmt *ast.Return) bool {
	if stmt.Value == nil {
		g.emit(llvmir.Ret{Type: "void"})
		return true
	}
	value, ok := g.genExpr(stmt.Value)
	if !ok {
		return false
	}
	g.emit(llvmir.Ret{Type: "i32", Value: value})
	return true
}

// genCondition evaluates expr for use as a branch condition, producing an
// i1 value. A direct comparison reuses its icmp result; anything else is
// compared against zero, the usual "truthiness" rule C gives every
// scalar.
func (g *Generator) genCondition(expr ast.Expr) (string, bool) {
	if bin, ok := expr.(*ast.Binary); ok {
		if pred, isCompare := comparisonPredicate(bin.Op); isCompare {
			lhs, ok := g.genExpr(bin.Left)
			if !ok {
				return "", false
			}
			rhs, ok := g.genExpr(bin.Right)
			if !ok {
				return "", false
			}
			dest := llvmir.Reg(g.freshReg())
			g.emit(llvmir.ICmp{Dest: dest, Pred: pred, Type: "i32", LHS: lhs, RHS: rhs})
			return string(dest), true
		}
	}

	value, ok := g.genExpr(expr)
	if !ok {
		return "", false
	}
	dest := llvmir.Reg(g.freshReg())
	g.emit(llvmir.ICmp{Dest: dest, Pred: "ne", Type: "i32", LHS: value, RHS: "0"})
	return string(dest), true
}

// genExpr evaluates expr and returns the register name holding its result.
func (g *Generator) genExpr(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		dest := llvmir.Reg(g.freshReg())
		g.emit(llvmir.BinOp{Dest: dest, Op: "add", Type: "i32", LHS: e.Text, RHS: "0"})
		return string(dest), true

	case *ast.StringLiteral:
		return g.genStringLiteral(e)

	case *ast.Identifier:
		slot, ok := g.resolveVar(e.Name)
		if !ok {
			g.errorf("undeclared identifier '%s'", e.Name)
			return "", false
		}
		dest := llvmir.Reg(g.freshReg())
		g.emit(llvmir.Load{Dest: dest, Type: "i32", Src: slot})
		return string(dest), true

	case *ast.Unary:
		return g.genUnary(e)

	case *ast.Binary:
		return g.genBinary(e)

	case *ast.Assignment:
		return g.genAssignment(e)

	case *ast.Call:
		return g.genCall(e)

	default:
		g.errorf("unsupported expression for code generation")
		return "", false
	}
}

// resolveVar finds the storage location backing name: a local's alloca
// register if one is in scope, else the "@name" global if name was
// declared at file scope.
func (g *Generator) resolveVar(name string) (llvmir.Reg, bool) {
	if slot, ok := g.current.lookup(name); ok {
		return slot, true
	}
	for _, gv := range g.globalVars {
		if gv == name {
			return llvmir.Reg("@" + name), true
		}
	}
	return "", false
}

func (g *Generator) genUnary(u *ast.Unary) (string, bool) {
	operand, ok := g.genExpr(u.Operand)
	if !ok {
		return "", false
	}
	dest := llvmir.Reg(g.freshReg())
	switch u.Op {
	case ast.OpNeg:
		g.emit(llvmir.BinOp{Dest: dest, Op: "sub", Type: "i32", LHS: "0", RHS: operand})
		return string(dest), true
	case ast.OpNot:
		cmp := llvmir.Reg(g.freshReg())
		g.emit(llvmir.ICmp{Dest: cmp, Pred: "eq", Type: "i32", LHS: operand, RHS: "0"})
		g.emit(llvmir.Zext{Dest: dest, FromType: "i1", ToType: "i32", Src: string(cmp)})
		return string(dest), true
	default:
		g.errorf("unsupported unary operator")
		return "", false
	}
}

func (g *Generator) genBinary(b *ast.Binary) (string, bool) {
	lhs, ok := g.genExpr(b.Left)
	if !ok {
		return "", false
	}
	rhs, ok := g.genExpr(b.Right)
	if !ok {
		return "", false
	}

	if pred, isCompare := comparisonPredicate(b.Op); isCompare {
		cmp := llvmir.Reg(g.freshReg())
		g.emit(llvmir.ICmp{Dest: cmp, Pred: pred, Type: "i32", LHS: lhs, RHS: rhs})
		dest := llvmir.Reg(g.freshReg())
		g.emit(llvmir.Zext{Dest: dest, FromType: "i1", ToType: "i32", Src: string(cmp)})
		return string(dest), true
	}

	op, ok := arithmeticOp(b.Op)
	if !ok {
		g.errorf("unsupported binary operator")
		return "", false
	}
	dest := llvmir.Reg(g.freshReg())
	g.emit(llvmir.BinOp{Dest: dest, Op: op, Type: "i32", LHS: lhs, RHS: rhs})
	return string(dest), true
}

func (g *Generator) genAssignment(a *ast.Assignment) (string, bool) {
	target, ok := a.Target.(*ast.Identifier)
	if !ok {
		g.errorf("invalid assignment target")
		return "", false
	}
	value, ok := g.genExpr(a.Value)
	if !ok {
		return "", false
	}
	slot, ok := g.resolveVar(target.Name)
	if !ok {
		g.errorf("undeclared identifier '%s'", target.Name)
		return "", false
	}
	g.emit(llvmir.Store{Type: "i32", Value: value, Dest: slot})
	return value, true
}

func (g *Generator) genCall(call *ast.Call) (string, bool) {
	args := make([]llvmir.CallArg, len(call.Args))
	for i, argExpr := range call.Args {
		value, ok := g.genExpr(argExpr)
		if !ok {
			return "", false
		}
		argType := "i32"
		if str, ok := argExpr.(*ast.StringLiteral); ok {
			_ = str
			argType = "i8*"
		}
		args[i] = llvmir.CallArg{Type: argType, Value: value}
	}

	retType := g.funcRet[call.Callee]
	if retType == "" {
		retType = "i32"
	}

	if retType == "void" {
		g.emit(llvmir.Call{Type: "void", Callee: call.Callee, Args: args})
		return "", true
	}

	dest := llvmir.Reg(g.freshReg())
	g.emit(llvmir.Call{Dest: dest, Type: retType, Callee: call.Callee, Args: args})
	return string(dest), true
}

// genStringLiteral registers a new string global for e and returns a
// register holding an i8* to its first byte.
func (g *Generator) genStringLiteral(e *ast.StringLiteral) (string, bool) {
	encoded, length := encodeStringConstant(e.Text)
	name := g.freshStringName()
	g.globals = append(g.globals, llvmir.GlobalString{Name: name, Value: encoded, Length: length})

	dest := llvmir.Reg(g.freshReg())
	g.emit(llvmir.GEPConstString{Dest: dest, GlobalName: name, Length: length})
	return string(dest), true
}

func comparisonPredicate(op ast.BinaryOp) (string, bool) {
	switch op {
	case ast.OpEq:
		return "eq", true
	case ast.OpNe:
		return "ne", true
	case ast.OpLt:
		return "slt", true
	case ast.OpLe:
		return "sle", true
	case ast.OpGt:
		return "sgt", true
	case ast.OpGe:
		return "sge", true
	default:
		return "", false
	}
}

func arithmeticOp(op ast.BinaryOp) (string, bool) {
	switch op {
	case ast.OpAdd:
		return "add", true
	case ast.OpSub:
		return "sub", true
	case ast.OpMul:
		return "mul", true
	case ast.OpDiv:
		return "sdiv", true
	default:
		return "", false
	}
}

// encodeStringConstant strips the surrounding quotes from a lexed string
// literal, turns its C escapes into LLVM's "\XX" hex-byte form where
// needed, and appends the terminating NUL every C string carries.
func encodeStringConstant(lexeme string) (string, int) {
	inner := lexeme
	if len(inner) >= 2 && inner[0] == '"' && inner[len(inner)-1] == '"' {
		inner = inner[1 : len(inner)-1]
	}

	var sb strings.Builder
	length := 0
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				sb.WriteString(`\0A`)
			case 't':
				sb.WriteString(`\09`)
			case 'r':
				sb.WriteString(`\0D`)
			case '0':
				sb.WriteString(`\00`)
			case '\\':
				sb.WriteString(`\5C`)
			case '"':
				sb.WriteString(`\22`)
			default:
				sb.WriteByte(inner[i])
			}
			length++
			continue
		}
		if c == '"' || c == '\\' {
			sb.WriteString(fmt.Sprintf(`\%02X`, c))
		} else {
			sb.WriteByte(c)
		}
		length++
	}
	sb.WriteString(`\00`)
	length++
	return sb.String(), length
}
