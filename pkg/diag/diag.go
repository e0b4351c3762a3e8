// Package diag implements the diagnostic sink shared by the parser,
// semantic analyzer, and code generator, adapted from Fl0k3n-gocc's
// ErrorTracker accumulator (semantics/errortracker.go) to the per-stage
// single-error-first-stops-the-stage policy of spec §7: only the parser
// accumulates multiple messages (panic-mode recovery); the analyzer and
// generator short-circuit on the first error they record.
package diag

import (
	"fmt"
	"io"
)

// Class identifies which pipeline stage raised a diagnostic.
type Class int

const (
	Syntax Class = iota
	Semantic
	Codegen
	IO
)

func (c Class) prefix() string {
	switch c {
	case Syntax:
		return "Error"
	case Semantic:
		return "Semantic error"
	case Codegen:
		return "Code generation error"
	case IO:
		return "Error"
	default:
		return "Error"
	}
}

// Diagnostic is one formatted error message tagged with its originating
// stage.
type Diagnostic struct {
	Class Class
	Text  string
}

// String renders the diagnostic as it appears on the standard error stream.
func (d Diagnostic) String() string {
	return d.Text
}

// Sink accumulates diagnostics for one compilation stage.
type Sink struct {
	diags []Diagnostic
}

// NewSink returns an empty diagnostic sink.
func NewSink() *Sink {
	return &Sink{}
}

// Report records a diagnostic formatted as "<class>: <message>".
func (s *Sink) Report(class Class, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.diags = append(s.diags, Diagnostic{Class: class, Text: fmt.Sprintf("%s: %s", class.prefix(), msg)})
}

// ReportAt records a diagnostic formatted as "Error at '<lexeme>': <message>",
// the parser's unexpected-token wording from spec §6.
func (s *Sink) ReportAt(lexeme string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.diags = append(s.diags, Diagnostic{Class: Syntax, Text: fmt.Sprintf("Error at '%s': %s", lexeme, msg)})
}

// HasErrors reports whether any diagnostic has been recorded.
func (s *Sink) HasErrors() bool {
	return len(s.diags) > 0
}

// Diagnostics returns the recorded diagnostics in report order.
func (s *Sink) Diagnostics() []Diagnostic {
	return s.diags
}

// First returns the first recorded diagnostic, used by stages that
// short-circuit on the first error (spec §7).
func (s *Sink) First() (Diagnostic, bool) {
	if len(s.diags) == 0 {
		return Diagnostic{}, false
	}
	return s.diags[0], true
}

// WriteTo writes every recorded diagnostic to w, one per line.
func (s *Sink) WriteTo(w io.Writer) {
	for _, d := range s.diags {
		fmt.Fprintln(w, d.String())
	}
}
