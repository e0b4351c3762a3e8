package lexer

import (
	"testing"

	"github.com/NathanVRyver/ccompiler/pkg/token"
)

func collect(input string) []token.Token {
	l := New(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestSimpleTokens(t *testing.T) {
	toks := collect("int x = 42;")
	want := []struct {
		kind   token.Kind
		lexeme string
	}{
		{token.Keyword, "int"},
		{token.Identifier, "x"},
		{token.Operator, "="},
		{token.Number, "42"},
		{token.Punctuator, ";"},
		{token.EOF, ""},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Lexeme != w.lexeme {
			t.Errorf("token %d: got {%v %q}, want {%v %q}", i, toks[i].Kind, toks[i].Lexeme, w.kind, w.lexeme)
		}
	}
}

func TestMaximalMunch(t *testing.T) {
	cases := map[string]string{
		"==": "==", "!=": "!=", "<=": "<=", ">=": ">=", "&&": "&&", "||": "||",
		"=":  "=",
		"<":  "<",
		"!":  "!",
	}
	for input, want := range cases {
		toks := collect(input)
		if len(toks) < 1 || toks[0].Lexeme != want {
			t.Errorf("input %q: got %+v, want first lexeme %q", input, toks, want)
		}
	}
}

func TestSkipsComments(t *testing.T) {
	toks := collect("// comment\nint /* block \n comment */ x;")
	var kinds []token.Kind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	want := []token.Kind{token.Keyword, token.Identifier, token.Punctuator, token.EOF}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestStringEscapes(t *testing.T) {
	toks := collect(`"hi\n"`)
	if toks[0].Kind != token.String || toks[0].Lexeme != `"hi\n"` {
		t.Errorf("got %+v", toks[0])
	}
}

func TestEOFIsRepeatable(t *testing.T) {
	l := New("")
	for i := 0; i < 3; i++ {
		if tok := l.NextToken(); tok.Kind != token.EOF {
			t.Fatalf("call %d: got %v, want EOF", i, tok.Kind)
		}
	}
}

func TestIllegalByteBecomesOperator(t *testing.T) {
	toks := collect("@")
	if toks[0].Kind != token.Operator || toks[0].Lexeme != "@" {
		t.Errorf("got %+v, want single-char operator", toks[0])
	}
}

func TestKeywordIdentifierDichotomy(t *testing.T) {
	toks := collect("int notakeyword struct")
	if toks[0].Kind != token.Keyword || toks[2].Kind != token.Keyword {
		t.Fatalf("expected keywords: %+v", toks)
	}
	if toks[1].Kind != token.Identifier {
		t.Fatalf("expected identifier: %+v", toks[1])
	}
}
