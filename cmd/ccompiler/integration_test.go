package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// compileToString runs the full cobra pipeline over source and returns the
// generated LLVM IR, failing the test on any pipeline error.
func compileToString(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "prog.c")
	output := filepath.Join(dir, "out.ll")
	if err := os.WriteFile(input, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{input, output})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected pipeline error: %v\nstderr: %s", err, errOut.String())
	}

	ir, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading generated IR: %v", err)
	}
	return string(ir)
}

func TestEndToEndArithmeticFunction(t *testing.T) {
	ir := compileToString(t, `
		int add(int a, int b) {
			return a + b;
		}

		int main() {
			int result;
			result = add(2, 3);
			return result;
		}
	`)

	for _, want := range []string{
		"target triple",
		"define i32 @add(i32 %a.arg, i32 %b.arg) {",
		"define i32 @main() {",
		"call i32 @add(",
	} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected generated IR to contain %q, got:\n%s", want, ir)
		}
	}
}

func TestEndToEndControlFlow(t *testing.T) {
	ir := compileToString(t, `
		int classify(int n) {
			if (n < 0) {
				return -1;
			} else if (n == 0) {
				return 0;
			}
			return 1;
		}
	`)

	for _, want := range []string{"icmp slt i32", "icmp eq i32", "br i1"} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected generated IR to contain %q, got:\n%s", want, ir)
		}
	}
}

func TestEndToEndLoopsAndPrintf(t *testing.T) {
	ir := compileToString(t, `
		int main() {
			int i;
			int sum;
			sum = 0;
			for (i = 0; i < 10; i = i + 1) {
				sum = sum + i;
			}
			printf("sum is %d\n", sum);
			return 0;
		}
	`)

	for _, want := range []string{
		"declare i32 @printf(i8* nocapture readonly, ...)",
		"@str.0 = private constant",
		"call i32 @printf(i8*",
	} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected generated IR to contain %q, got:\n%s", want, ir)
		}
	}
}

func TestEndToEndGlobalVariableAndWhile(t *testing.T) {
	ir := compileToString(t, `
		int counter = 0;

		void tick() {
			while (counter < 5) {
				counter = counter + 1;
			}
		}

		int main() {
			tick();
			return counter;
		}
	`)

	for _, want := range []string{
		"@counter = global i32 0",
		"load i32, i32* @counter",
		"store i32",
	} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected generated IR to contain %q, got:\n%s", want, ir)
		}
	}
}

func TestEndToEndNestedScopesShadowCorrectly(t *testing.T) {
	ir := compileToString(t, `
		int main() {
			int x;
			x = 1;
			{
				int x;
				x = 2;
			}
			return x;
		}
	`)

	if strings.Count(ir, "= alloca i32") < 2 {
		t.Errorf("expected two distinct allocas for shadowed declarations, got:\n%s", ir)
	}
}

func TestEndToEndForwardDeclarationFollowedByDefinitionIsRedeclaration(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "prog.c")
	output := filepath.Join(dir, "out.ll")
	source := `
		int helper(int x);

		int helper(int x) {
			return x;
		}

		int main() {
			return helper(5);
		}
	`
	if err := os.WriteFile(input, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{input, output})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected a redeclaration error: this analyzer rejects any repeated function name, forward declaration or not")
	}
	if !strings.Contains(errOut.String(), "Redeclaration of symbol") {
		t.Errorf("expected stderr to mention redeclaration, got:\n%s", errOut.String())
	}
}

func TestEndToEndVoidFunctionCallStatement(t *testing.T) {
	ir := compileToString(t, `
		void noop() { }

		int main() {
			noop();
			return 0;
		}
	`)

	if !strings.Contains(ir, "call void @noop()") {
		t.Errorf("expected a void call statement, got:\n%s", ir)
	}
}
