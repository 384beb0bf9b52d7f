package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/inkline/dsl"
)

const sampleDSL = `
doc Notes v1 {
  meta {
    title: "Release notes"
    subject: data.meta.subject
    keywords: [
      "typesetting"
      "inline"
    ]
  }

  resources {
    font Body {
      src: "builtin:lmroman10-regular"
    }

    color Accent = #0F62FE
  }

  page A5 portrait margin 18mm {
    flow line-clamp 3 align justify {
      text Body size 12pt letter-spacing 0.05em text-overflow "…" {
        "Hello, ${user.name}! "
        span decoration underline color Accent { "see below" }
        br
        "next line"
      }

      let currency = data.meta.currency
    }
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Name != "Notes" {
		t.Fatalf("expected document name Notes, got %s", doc.Name)
	}
	if doc.Version != "v1" {
		t.Fatalf("expected version v1, got %s", doc.Version)
	}
	if len(doc.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(doc.Sections))
	}
	if kinds := []string{doc.Sections[0].Kind(), doc.Sections[1].Kind(), doc.Sections[2].Kind()}; strings.Join(kinds, ",") != "meta,resources,page" {
		t.Fatalf("unexpected section kinds: %v", kinds)
	}

	meta := doc.Sections[0].Meta
	if meta == nil || len(meta.Block.Statements) < 3 {
		t.Fatalf("meta statements missing")
	}
	title := meta.Block.Statements[0].Assignment
	if title == nil || title.Key != "title" {
		t.Fatalf("expected title assignment, got %+v", meta.Block.Statements[0])
	}
	if got := string(*title.Value.String); got != "Release notes" {
		t.Fatalf("expected title 'Release notes', got %s", got)
	}
	subject := meta.Block.Statements[1].Assignment
	if subject == nil || subject.Value.Expr == nil {
		t.Fatalf("subject should capture an expression, got %+v", meta.Block.Statements[1])
	}
	if got := tokensToString(subject.Value.Expr.Parts); got != "data . meta . subject" {
		t.Fatalf("unexpected expression tokens: %s", got)
	}
	keywords := meta.Block.Statements[2].Assignment
	if keywords == nil || keywords.Value.Array == nil || len(keywords.Value.Array.Values) != 2 {
		t.Fatalf("expected 2 keywords, got %+v", keywords)
	}

	page := doc.Sections[2].Page
	if page == nil {
		t.Fatalf("page section missing")
	}
	if page.Spec.Size != "A5" {
		t.Fatalf("expected page size A5, got %s", page.Spec.Size)
	}
	if len(page.Spec.Params) != 3 || page.Spec.Params[2].Value != "18mm" {
		t.Fatalf("unexpected page params: %+v", page.Spec.Params)
	}

	flow := page.Block.Statements[0].Command
	if flow == nil || flow.Name != "flow" {
		t.Fatalf("expected flow command, got %+v", page.Block.Statements[0])
	}
	if len(flow.Args) != 4 || flow.Args[0].Value != "line-clamp" || flow.Args[1].Type != "Number" {
		t.Fatalf("unexpected flow args: %+v", flow.Args)
	}
	if len(flow.Block.Statements) < 2 {
		t.Fatalf("flow block missing statements")
	}

	textCmd := flow.Block.Statements[0].Command
	if textCmd == nil || textCmd.Name != "text" {
		t.Fatalf("expected text command, got %+v", flow.Block.Statements[0])
	}
	if len(textCmd.Args) != 7 || textCmd.Args[0].Value != "Body" {
		t.Fatalf("unexpected text args: %+v", textCmd.Args)
	}
	if em := textCmd.Args[4]; em.Type != "Number" || em.Value != "0.05em" {
		t.Fatalf("expected em length token, got %+v", em)
	}
	if marker := textCmd.Args[6]; marker.Type != "String" || marker.Value != "…" || marker.Raw != `"…"` {
		t.Fatalf("string arg should keep both value and raw form, got %+v", marker)
	}

	body := textCmd.Block.Statements
	if len(body) != 4 {
		t.Fatalf("expected 4 statements in text block, got %d", len(body))
	}
	if body[0].Text == nil || !strings.Contains(string(body[0].Text.Value), "${user.name}") {
		t.Fatalf("expected interpolation in text literal, got %+v", body[0])
	}
	span := body[1].Span
	if span == nil || len(span.Args) != 4 || span.Args[0].Value != "decoration" || span.Block == nil {
		t.Fatalf("expected span command with block, got %+v", body[1])
	}
	if span.Block.Statements[0].Text == nil || string(span.Block.Statements[0].Text.Value) != "see below" {
		t.Fatalf("unexpected span content: %+v", span.Block.Statements)
	}
	if body[2].Break == nil || body[2].Command != nil {
		t.Fatalf("expected br statement, got %+v", body[2])
	}
	if body[3].Text == nil || string(body[3].Text.Value) != "next line" {
		t.Fatalf("unexpected trailing text: %+v", body[3])
	}

	letCmd := flow.Block.Statements[1].Command
	if letCmd == nil || letCmd.Name != "let" {
		t.Fatalf("expected let command, got %+v", flow.Block.Statements[1])
	}
	if len(letCmd.Args) < 4 || letCmd.Args[2].Value != "data" {
		t.Fatalf("unexpected let args: %+v", letCmd.Args)
	}
}

func TestParseNestedSpans(t *testing.T) {
	doc, err := dsl.ParseString(`doc S v1 {
  page A6 {
    flow {
      text { "a " span Em { "b " span decoration underline { "c" } br } ; br }
    }
  }
}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	text := doc.Sections[0].Page.Block.Statements[0].Command.Block.Statements[0].Command
	body := text.Block.Statements
	if len(body) != 3 || body[1].Span == nil || body[2].Break == nil {
		t.Fatalf("unexpected text body: %+v", body)
	}
	outer := body[1].Span
	if len(outer.Args) != 1 || outer.Args[0].Value != "Em" {
		t.Fatalf("unexpected span args: %+v", outer.Args)
	}
	inner := outer.Block.Statements
	if len(inner) != 3 || inner[1].Span == nil || inner[2].Break == nil {
		t.Fatalf("unexpected nested span body: %+v", inner)
	}
}

func TestParseColorLiterals(t *testing.T) {
	doc, err := dsl.ParseString(`doc C v1 {
  resources {
    color Red #ff0000
    color Half #ff000080
    color Short #f00
  }
}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []string{"#ff0000", "#ff000080", "#f00"}
	stmts := doc.Sections[0].Resources.Block.Statements
	if len(stmts) != len(want) {
		t.Fatalf("expected %d color statements, got %d", len(want), len(stmts))
	}
	for i, w := range want {
		cmd := stmts[i].Command
		if cmd == nil || len(cmd.Args) != 2 {
			t.Fatalf("color %s should lex as one token, got %+v", w, cmd)
		}
		if arg := cmd.Args[1]; arg.Type != "Color" || arg.Value != w {
			t.Fatalf("expected Color %s, got %s %q", w, arg.Type, arg.Value)
		}
	}
}

func TestParseRejectsUnterminatedBlock(t *testing.T) {
	if _, err := dsl.ParseString(`doc X v1 { page A4 { flow { text { "a" } }`); err == nil {
		t.Fatalf("expected error for unterminated block")
	}
}

func tokensToString(parts []*dsl.Lexeme) string {
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, p.Value)
	}
	return strings.Join(values, " ")
}
