package llvmir

import (
	"fmt"
	"io"
)

// preamble declares the two libc functions the generated code is allowed
// to call (spec §4.4) and fixes the target triple the textual IR targets.
const preamble = `; LLVM IR Generated Code
target triple = "x86_64-unknown-linux-gnu"

declare i32 @printf(i8* nocapture readonly, ...)
declare i32 @scanf(i8* nocapture readonly, ...)
`

// Printer renders a Program as LLVM textual IR.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram writes the fixed preamble, every string global, every scalar
// global, then every function definition, in that order.
func (p *Printer) PrintProgram(prog *Program) {
	fmt.Fprint(p.w, preamble)

	if len(prog.Globals) > 0 {
		fmt.Fprintln(p.w)
		for _, g := range prog.Globals {
			p.printGlobalString(g)
		}
	}

	if len(prog.ScalarGlobals) > 0 {
		fmt.Fprintln(p.w)
		for _, g := range prog.ScalarGlobals {
			fmt.Fprintf(p.w, "@%s = global i32 %s\n", g.Name, g.Init)
		}
	}

	for _, fn := range prog.Functions {
		fmt.Fprintln(p.w)
		p.PrintFunction(&fn)
	}
}

func (p *Printer) printGlobalString(g GlobalString) {
	fmt.Fprintf(p.w, "@%s = private constant [%d x i8] c\"%s\"\n", g.Name, g.Length, g.Value)
}

// PrintFunction writes one "define ... { ... }" block.
func (p *Printer) PrintFunction(fn *Function) {
	fmt.Fprintf(p.w, "define %s @%s(", fn.RetType, fn.Name)
	for i, param := range fn.Params {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		fmt.Fprintf(p.w, "%s %s", param.Type, param.Name)
	}
	fmt.Fprintln(p.w, ") {")
	fmt.Fprintln(p.w, "entry:")

	for _, instr := range fn.Body {
		p.printInstruction(instr)
	}

	fmt.Fprintln(p.w, "}")
}

func (p *Printer) printInstruction(instr Instruction) {
	switch i := instr.(type) {
	case Alloca:
		fmt.Fprintf(p.w, "  %s = alloca %s\n", i.Dest, i.Type)
	case Store:
		fmt.Fprintf(p.w, "  store %s %s, %s* %s\n", i.Type, i.Value, i.Type, i.Dest)
	case Load:
		fmt.Fprintf(p.w, "  %s = load %s, %s* %s\n", i.Dest, i.Type, i.Type, i.Src)
	case BinOp:
		fmt.Fprintf(p.w, "  %s = %s %s %s, %s\n", i.Dest, i.Op, i.Type, i.LHS, i.RHS)
	case ICmp:
		fmt.Fprintf(p.w, "  %s = icmp %s %s %s, %s\n", i.Dest, i.Pred, i.Type, i.LHS, i.RHS)
	case Zext:
		fmt.Fprintf(p.w, "  %s = zext %s %s to %s\n", i.Dest, i.FromType, i.Src, i.ToType)
	case Br:
		fmt.Fprintf(p.w, "  br label %%%s\n", i.Target)
	case CondBr:
		fmt.Fprintf(p.w, "  br i1 %s, label %%%s, label %%%s\n", i.Cond, i.TrueLabel, i.FalseLabel)
	case LabelDef:
		fmt.Fprintf(p.w, "%s:\n", i.Name)
	case Ret:
		if i.Type == "void" {
			fmt.Fprintln(p.w, "  ret void")
		} else {
			fmt.Fprintf(p.w, "  ret %s %s\n", i.Type, i.Value)
		}
	case Call:
		p.printCall(i)
	case GEPConstString:
		fmt.Fprintf(p.w, "  %s = getelementptr [%d x i8], [%d x i8]* @%s, i32 0, i32 0\n",
			i.Dest, i.Length, i.Length, i.GlobalName)
	default:
		fmt.Fprintf(p.w, "  ; unknown instruction %T\n", instr)
	}
}

func (p *Printer) printCall(i Call) {
	fmt.Fprint(p.w, "  ")
	if i.Dest != "" {
		fmt.Fprintf(p.w, "%s = ", i.Dest)
	}
	fmt.Fprintf(p.w, "call %s @%s(", i.Type, i.Callee)
	for idx, arg := range i.Args {
		if idx > 0 {
			fmt.Fprint(p.w, ", ")
		}
		fmt.Fprintf(p.w, "%s %s", arg.Type, arg.Value)
	}
	fmt.Fprintln(p.w, ")")
}
