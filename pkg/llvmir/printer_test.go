package llvmir

import (
	"strings"
	"testing"
)

func TestPrintProgramIncludesPreambleAndDeclarations(t *testing.T) {
	var sb strings.Builder
	NewPrinter(&sb).PrintProgram(&Program{})
	out := sb.String()

	for _, want := range []string{
		"; LLVM IR Generated Code",
		`target triple = "x86_64-unknown-linux-gnu"`,
		"declare i32 @printf(i8* nocapture readonly, ...)",
		"declare i32 @scanf(i8* nocapture readonly, ...)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPrintGlobalString(t *testing.T) {
	prog := &Program{
		Globals: []GlobalString{{Name: "str.0", Value: "hi\\00", Length: 3}},
	}
	var sb strings.Builder
	NewPrinter(&sb).PrintProgram(prog)
	out := sb.String()

	want := `@str.0 = private constant [3 x i8] c"hi\00"`
	if !strings.Contains(out, want) {
		t.Errorf("expected output to contain %q, got:\n%s", want, out)
	}
}

func TestPrintFunctionHeaderAndBody(t *testing.T) {
	fn := Function{
		Name:    "add",
		RetType: "i32",
		Params:  []Param{{Type: "i32", Name: "%a"}, {Type: "i32", Name: "%b"}},
		Body: []Instruction{
			BinOp{Dest: "%t0", Op: "add", Type: "i32", LHS: "%a", RHS: "%b"},
			Ret{Type: "i32", Value: "%t0"},
		},
	}
	var sb strings.Builder
	NewPrinter(&sb).PrintProgram(&Program{Functions: []Function{fn}})
	out := sb.String()

	for _, want := range []string{
		"define i32 @add(i32 %a, i32 %b) {",
		"entry:",
		"%t0 = add i32 %a, %b",
		"ret i32 %t0",
		"}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPrintControlFlowInstructions(t *testing.T) {
	fn := Function{
		Name:    "cond",
		RetType: "void",
		Body: []Instruction{
			ICmp{Dest: "%t0", Pred: "slt", Type: "i32", LHS: "%a", RHS: "%b"},
			CondBr{Cond: "%t0", TrueLabel: "label0", FalseLabel: "label1"},
			LabelDef{Name: "label0"},
			Br{Target: "label1"},
			LabelDef{Name: "label1"},
			Ret{Type: "void"},
		},
	}
	var sb strings.Builder
	NewPrinter(&sb).PrintProgram(&Program{Functions: []Function{fn}})
	out := sb.String()

	for _, want := range []string{
		"%t0 = icmp slt i32 %a, %b",
		"br i1 %t0, label %label0, label %label1",
		"label0:",
		"br label %label1",
		"label1:",
		"ret void",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPrintCallWithAndWithoutResult(t *testing.T) {
	fn := Function{
		Name:    "main",
		RetType: "i32",
		Body: []Instruction{
			Call{Type: "i32", Callee: "printf", Args: []CallArg{
				{Type: "i8*", Value: "%gep0"},
				{Type: "i32", Value: "%t0"},
			}},
			Call{Dest: "%t1", Type: "i32", Callee: "helper"},
			Ret{Type: "i32", Value: "0"},
		},
	}
	var sb strings.Builder
	NewPrinter(&sb).PrintProgram(&Program{Functions: []Function{fn}})
	out := sb.String()

	for _, want := range []string{
		"call i32 @printf(i8* %gep0, i32 %t0)",
		"%t1 = call i32 @helper()",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPrintGEPConstString(t *testing.T) {
	fn := Function{
		Name:    "f",
		RetType: "void",
		Body: []Instruction{
			GEPConstString{Dest: "%gep0", GlobalName: "str.0", Length: 3},
			Ret{Type: "void"},
		},
	}
	var sb strings.Builder
	NewPrinter(&sb).PrintProgram(&Program{Functions: []Function{fn}})
	out := sb.String()

	want := "%gep0 = getelementptr [3 x i8], [3 x i8]* @str.0, i32 0, i32 0"
	if !strings.Contains(out, want) {
		t.Errorf("expected output to contain %q, got:\n%s", want, out)
	}
}
