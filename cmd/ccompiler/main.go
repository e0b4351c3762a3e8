package main

import (
	"fmt"
	"io"
	"os"

	"github.com/NathanVRyver/ccompiler/pkg/ast"
	"github.com/NathanVRyver/ccompiler/pkg/codegen"
	"github.com/NathanVRyver/ccompiler/pkg/diag"
	"github.com/NathanVRyver/ccompiler/pkg/lexer"
	"github.com/NathanVRyver/ccompiler/pkg/llvmir"
	"github.com/NathanVRyver/ccompiler/pkg/parser"
	"github.com/NathanVRyver/ccompiler/pkg/sema"
	"github.com/NathanVRyver/ccompiler/pkg/token"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var verbose bool

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ccompiler <input_file> [output_file]",
		Short:         "ccompiler compiles a small C subset to LLVM textual IR",
		Long:          `ccompiler parses, semantically checks, and lowers a restricted C subset to LLVM textual IR.`,
		Version:       version,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputFile := args[0]
			outputFile := "output.ll"
			if len(args) == 2 {
				outputFile = args[1]
			}
			return compile(inputFile, outputFile, out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "dump the token stream and the file-scope symbol table")

	return rootCmd
}

// compile runs the full pipeline — lex, parse, analyze, generate — writing
// the resulting LLVM IR to outputFile. Each stage's progress is announced
// on out the way original_source/src/main.c announces its own stages, and
// any failure is reported on errOut.
func compile(inputFile, outputFile string, out, errOut io.Writer) error {
	content, err := os.ReadFile(inputFile)
	if err != nil {
		fmt.Fprintf(errOut, "ccompiler: error reading %s: %v\n", inputFile, err)
		return err
	}
	source := string(content)

	if verbose {
		dumpTokens(source, out)
	}

	fmt.Fprintf(out, "Parsing %s...\n", inputFile)
	p := parser.New(lexer.New(source))
	program := p.ParseProgram()
	if len(p.Errors()) > 0 {
		for _, e := range p.Errors() {
			fmt.Fprintf(errOut, "%s: %s\n", inputFile, e)
		}
		return fmt.Errorf("parsing failed with %d error(s)", len(p.Errors()))
	}
	fmt.Fprintln(out, "Parsing successful!")

	if verbose {
		fmt.Fprintln(out, "AST:")
		ast.NewPrinter(out).PrintProgram(program)
	}

	fmt.Fprintln(out, "Performing semantic analysis...")
	semaSink := diag.NewSink()
	analyzer := sema.New(semaSink)
	if !analyzer.Analyze(program) {
		reportFirst(semaSink, errOut)
		return fmt.Errorf("semantic analysis failed")
	}
	fmt.Fprintln(out, "Semantic analysis successful!")

	if verbose {
		fmt.Fprintln(out, "Symbols:")
		analyzer.DumpSymbols(out)
	}

	genSink := diag.NewSink()
	gen := codegen.New(genSink)
	irProgram, ok := gen.Generate(program)
	if !ok {
		reportFirst(genSink, errOut)
		return fmt.Errorf("code generation failed")
	}

	outFile, err := os.Create(outputFile)
	if err != nil {
		fmt.Fprintf(errOut, "ccompiler: error creating %s: %v\n", outputFile, err)
		return err
	}
	defer outFile.Close()

	llvmir.NewPrinter(outFile).PrintProgram(irProgram)
	return nil
}

func reportFirst(sink *diag.Sink, errOut io.Writer) {
	if d, ok := sink.First(); ok {
		fmt.Fprintln(errOut, d.String())
	}
}

// dumpTokens re-lexes source and prints its full token stream, for "-v".
// Re-lexing rather than threading the parser's own tokens through keeps
// the parser free of any dump-specific plumbing.
func dumpTokens(source string, out io.Writer) {
	fmt.Fprintln(out, "Tokens:")
	l := lexer.New(source)
	for {
		tok := l.NextToken()
		fmt.Fprintf(out, "  %-10s %q (line %d, col %d)\n", tok.Kind, tok.Lexeme, tok.Line, tok.Column)
		if tok.Kind == token.EOF {
			break
		}
	}
}
