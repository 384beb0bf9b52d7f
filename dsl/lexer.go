package dsl

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// 颜色字面量按 8/6/3 位从长到短尝试：正则取最左侧可匹配的分支，
// 短的在前会把 #ff0000 切成 #ff0 与 000。
var dslLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Newline", Pattern: `\n+`},
	{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
	{Name: "LineComment", Pattern: `//[^\n]*`},
	{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
	{Name: "HashComment", Pattern: `#[^\n]*`},
	{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:pt|mm|cm|in|em|%|x)?`},
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
	{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:]`},
	{Name: "LBrace", Pattern: `{`},
	{Name: "RBrace", Pattern: `}`},
})

var (
	tokenNames = func() map[lexer.TokenType]string {
		out := map[lexer.TokenType]string{}
		for name, tt := range dslLexer.Symbols() {
			out[tt] = name
		}
		return out
	}()
	tokNewline = tokenType("Newline")
	tokLBrace  = tokenType("LBrace")
	tokRBrace  = tokenType("RBrace")
	tokSymbol  = tokenType("Symbol")
	tokString  = tokenType("String")
)

func tokenType(name string) lexer.TokenType {
	tt, ok := dslLexer.Symbols()[name]
	if !ok {
		panic(fmt.Sprintf("dsl: token %s not defined", name))
	}
	return tt
}

// Lexeme is one raw token of a command argument list or an expression.
// Value is unquoted for strings; Raw keeps the source form.
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Quoted reports whether the lexeme was written as a string literal.
func (l *Lexeme) Quoted() bool { return l != nil && l.Type == "String" }

// Parse makes Lexeme a grammar atom: any token up to a line end, a brace or `;`.
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	if endsArgs(lex.Peek()) {
		return participle.NextMatch
	}
	tok := lex.Next()
	lexeme, err := toLexeme(*tok)
	if err != nil {
		return err
	}
	*l = lexeme
	return nil
}

func toLexeme(tok lexer.Token) (Lexeme, error) {
	name, ok := tokenNames[tok.Type]
	if !ok {
		name = fmt.Sprintf("#%d", tok.Type)
	}
	val := tok.Value
	if tok.Type == tokString {
		unquoted, err := strconv.Unquote(tok.Value)
		if err != nil {
			return Lexeme{}, fmt.Errorf("%s: %w", tok.Pos, err)
		}
		val = unquoted
	}
	return Lexeme{Type: name, Value: val, Raw: tok.Value, Pos: tok.Pos}, nil
}

func endsArgs(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case tokNewline, tokLBrace, tokRBrace:
		return true
	case tokSymbol:
		return tok.Value == ";"
	}
	return false
}
