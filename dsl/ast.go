package dsl

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Document is the root AST node for an inkline DSL file.
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'doc' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section is one of meta / resources / page.
type Section struct {
	Meta      *MetaSection      `parser:"  @@"`
	Resources *ResourcesSection `parser:"| @@"`
	Page      *PageSection      `parser:"| @@"`
}

// Kind returns the section keyword.
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Meta != nil:
		return "meta"
	case s.Resources != nil:
		return "resources"
	case s.Page != nil:
		return "page"
	}
	return "unknown"
}

type MetaSection struct {
	Block *Block `parser:"'meta' @@"`
}

type ResourcesSection struct {
	Block *Block `parser:"'resources' @@"`
}

// PageSection is `page <size> [params...] { ... }`.
type PageSection struct {
	Spec  PageSpec `parser:"'page' @@"`
	Block *Block   `parser:"@@"`
}

// PageSpec stores header tokens (eg: size, orientation, margin).
type PageSpec struct {
	Size   string    `parser:"@Ident"`
	Params []*Lexeme `parser:"@@*"`
}

// Block is a braced list of statements separated by newlines or `;`.
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement inside a block. Span and Break only carry meaning inside text blocks.
type Statement struct {
	Assignment *Assignment  `parser:"  @@"`
	Span       *Span        `parser:"| @@"`
	Break      *Break       `parser:"| @@"`
	Command    *Command     `parser:"| @@"`
	Text       *TextLiteral `parser:"| @@"`
}

// Span is an inline run with its own style: `span [Style] attrs { ... }`.
// Its block holds strings, nested spans and breaks.
type Span struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Args  []*Lexeme      `parser:"'span' @@*"`
	Block *Block         `parser:"Newline* @@"`
}

// Break is a forced line break inside a text block.
type Break struct {
	Pos lexer.Position `parser:"" json:"-"`
	Tok string         `parser:"@'br'" json:"-"`
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Key   string `parser:"@Ident"`
	Value *Value `parser:"':' Newline* @@"`
}

// Command is a generic instruction: name, raw args, optional block.
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Lexeme      `parser:"@@*"`
	Block *Block         `parser:"( Newline* @@ )?"`
}

// TextLiteral is a bare string statement.
type TextLiteral struct {
	Value StringLiteral `parser:"@String"`
}

// Value is the right-hand side of an assignment.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Array  *ArrayValue    `parser:"| @@"`
	Expr   *Expression    `parser:"| @@"`
}

// ArrayValue captures `[ ... ]`.
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | ';' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// Expression keeps the raw tokens of an unquoted value such as `data.meta.subject`.
// It ends at a line end, a brace, `;` or `,` outside brackets.
type Expression struct {
	Parts []*Lexeme
}

func (e *Expression) Parse(lex *lexer.PeekingLexer) error {
	var parts []*Lexeme
	depth := 0
	for {
		tok := lex.Peek()
		if tok.EOF() || (depth == 0 && endsExpression(tok)) {
			break
		}
		if tok.Type == tokSymbol && tok.Value == "]" && depth == 0 {
			break
		}
		lexeme, err := toLexeme(*lex.Next())
		if err != nil {
			return err
		}
		switch lexeme.Raw {
		case "(", "[":
			depth++
		case ")", "]":
			depth = max(depth-1, 0)
		}
		parts = append(parts, &lexeme)
	}
	if len(parts) == 0 {
		return participle.NextMatch
	}
	e.Parts = parts
	return nil
}

func endsExpression(tok *lexer.Token) bool {
	switch tok.Type {
	case tokNewline, tokLBrace, tokRBrace:
		return true
	case tokSymbol:
		return tok.Value == ";" || tok.Value == ","
	}
	return false
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}
