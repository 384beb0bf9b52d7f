// Package dsl parses inkline documents into an AST.
package dsl

import (
	"io"

	"github.com/alecthomas/participle/v2"
)

var documentParser = participle.MustBuild[Document](
	participle.Lexer(dslLexer),
	participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
)

// Parse parses DSL content from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}
