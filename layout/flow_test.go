package layout

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/inkline/dsl"
)

// A6 页面、10mm 边距：内容区 85mm × 128mm；10mm 字号、1x 行高时每行 8 个字符、每页 12 行。
func a6(body string) string {
	return `doc T v1 {
  resources { color Accent #ff0000 }
  page A6 portrait margin 10mm {
` + body + `
  }
}`
}

func build(t *testing.T, src string, data any) (*Result, error) {
	t.Helper()
	doc, err := dsl.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return Build(doc, data, BuildOptions{})
}

func contents(tb TextBox) []string {
	out := make([]string, len(tb.Lines))
	for i, ln := range tb.Lines {
		out[i] = ln.Content
	}
	return out
}

func TestPaginationSplitsTextBox(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.layout")
	defer teardown()

	text := strings.TrimSpace(strings.Repeat("abcdefg ", 14))
	res, err := build(t, a6(`flow { text size 10mm line-height 1x { "`+text+`" } }`), nil)
	require.NoError(t, err)
	require.Len(t, res.Pages, 2)

	first := res.Pages[0].Texts
	require.Len(t, first, 1)
	assert.Len(t, first[0].Lines, 12)
	assert.False(t, first[0].Continued)
	assert.InDelta(t, 18.0, first[0].Lines[0].Baseline, 1e-9)
	assert.InDelta(t, 18.0, first[0].Lines[0].Glyphs[0].Y, 1e-9)

	second := res.Pages[1].Texts
	require.Len(t, second, 1)
	assert.Len(t, second[0].Lines, 2)
	assert.True(t, second[0].Continued)
	assert.InDelta(t, 10.0, second[0].Y, 1e-9)
	assert.InDelta(t, 20.0, second[0].Height, 1e-9)
}

func TestFlowLineClampDiscards(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.layout")
	defer teardown()

	res, err := build(t, a6(`flow line-clamp 2 { text size 10mm line-height 1x { "abcdefg abcdefg abcdefg" } }`), nil)
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	require.Len(t, res.Pages[0].Texts, 1)
	tb := res.Pages[0].Texts[0]
	assert.Equal(t, []string{"abcdefg", "abcdefg…"}, contents(tb))
	assert.Equal(t, 1, tb.Dropped)
	last := tb.Lines[1]
	assert.True(t, last.Truncated)
	assert.True(t, last.Glyphs[len(last.Glyphs)-1].Marker)
}

func TestFlowClampSharedAcrossTexts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.layout")
	defer teardown()

	res, err := build(t, a6(`flow line-clamp 2 {
  text size 10mm line-height 1x { "aaa" }
  text size 10mm line-height 1x { "bbb" }
  text size 10mm line-height 1x { "ccc" }
}`), nil)
	require.NoError(t, err)
	texts := res.Pages[0].Texts
	require.Len(t, texts, 2)
	assert.Equal(t, []string{"aaa"}, contents(texts[0]))
	assert.Equal(t, []string{"bbb…"}, contents(texts[1]))
}

func TestFlowContinueAutoMovesToNextPage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.layout")
	defer teardown()

	res, err := build(t, a6(`flow max-lines 2 continue auto { text size 10mm line-height 1x { "abcdefg hijklmn opqrstu" } }`), nil)
	require.NoError(t, err)
	require.Len(t, res.Pages, 2)
	assert.Equal(t, []string{"abcdefg", "hijklmn"}, contents(res.Pages[0].Texts[0]))
	require.Len(t, res.Pages[1].Texts, 1)
	assert.Equal(t, []string{"opqrstu"}, contents(res.Pages[1].Texts[0]))
	assert.True(t, res.Pages[1].Texts[0].Continued)
}

func TestNestedClampRecordsNote(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.layout")
	defer teardown()

	res, err := build(t, a6(`flow line-clamp 3 { text size 10mm line-height 1x line-clamp 1 { "abcdefg abcdefg" } }`), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"abcdefg…"}, contents(res.Pages[0].Texts[0]))
	assert.NotEmpty(t, res.Notes)
}

// 内层 flow 自带行数限制时另起上下文：外层最后一个 text 不加截断标记，并记录冲突。
func TestNestedClampFlowOwnsItsTexts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.layout")
	defer teardown()

	res, err := build(t, a6(`flow line-clamp 1 {
  text size 10mm line-height 1x { "aaa" }
  flow line-clamp 5 {
    text size 10mm line-height 1x { "bbb" }
  }
}`), nil)
	require.NoError(t, err)
	texts := res.Pages[0].Texts
	require.Len(t, texts, 2)
	assert.Equal(t, []string{"aaa"}, contents(texts[0]))
	assert.Equal(t, []string{"bbb"}, contents(texts[1]))
	require.Len(t, res.Notes, 1)
	assert.Contains(t, res.Notes[0], "clamp conflict")
	assert.Contains(t, res.Notes[0], "max-lines 5 overrides enclosing max-lines 1")
}

func TestSpanDecorationAndBreak(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.layout")
	defer teardown()

	res, err := build(t, a6(`flow { text size 10mm line-height 1x {
  "ab"
  span decoration underline decoration-color Accent { "cd" }
  br
  "ef"
} }`), nil)
	require.NoError(t, err)
	tb := res.Pages[0].Texts[0]
	assert.Equal(t, []string{"abcd", "ef"}, contents(tb))
	decos := tb.Lines[0].Decorations
	require.Len(t, decos, 1)
	d := decos[0]
	assert.Equal(t, "underline", d.Kind)
	assert.InDelta(t, 30.0, d.X, 1e-9)
	assert.InDelta(t, 20.0, d.Width, 1e-9)
	assert.InDelta(t, 19.0, d.Y, 1e-9)
	assert.InDelta(t, 1.0, d.Thickness, 1e-9)
	assert.Equal(t, Color{R: 255}, d.Color)
	assert.Empty(t, tb.Lines[1].Decorations)
}

func TestQuotedTextOverflowMarker(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.layout")
	defer teardown()

	res, err := build(t, a6(`flow { text size 10mm line-height 1x wrap nowrap overflow hidden text-overflow "~" { "abcdefghijkl" } }`), nil)
	require.NoError(t, err)
	tb := res.Pages[0].Texts[0]
	assert.Equal(t, []string{"abcdefg~"}, contents(tb))
	assert.True(t, tb.Lines[0].Truncated)
}

func TestOverflowHiddenKeepsPartialGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.layout")
	defer teardown()

	res, err := build(t, a6(`flow { text size 10mm line-height 1x wrap nowrap overflow hidden { "abcdefghij" } }`), nil)
	require.NoError(t, err)
	glyphs := res.Pages[0].Texts[0].Lines[0].Glyphs
	require.Len(t, glyphs, 9)
	for _, g := range glyphs[:8] {
		assert.Nil(t, g.Clip, g.Text)
	}
	last := glyphs[8]
	assert.Equal(t, "i", last.Text)
	assert.InDelta(t, 90.0, last.X, 1e-9)
	require.NotNil(t, last.Clip)
	assert.InDelta(t, 0.0, last.Clip.From, 1e-9)
	assert.InDelta(t, 5.0, last.Clip.To, 1e-9)
}

func TestEmSizeAndInterpolation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.layout")
	defer teardown()

	data := map[string]any{"user": map[string]any{"name": "Ada"}}
	res, err := build(t, a6(`flow { text size 2em { "Hi ${user.name}, ${missing:-guest}" } }`), data)
	require.NoError(t, err)
	tb := res.Pages[0].Texts[0]
	assert.Equal(t, "Hi Ada, guest", tb.Content)
	assert.InDelta(t, 24*PtToMm, tb.FontSize, 1e-9)
	assert.InDelta(t, 24*PtToMm*defaultLineFactor, tb.LineHeight, 1e-9)
}

func TestBuildErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.layout")
	defer teardown()

	_, err := build(t, `doc T v1 { meta { title: "x" } }`, nil)
	assert.True(t, errors.Is(err, ErrNoPages))

	_, err = build(t, `doc T v1 {
  resources {
    style A extends B { size: 10pt }
    style B extends A { size: 12pt }
  }
  page A6 { flow { text A { "x" } } }
}`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "循环")

	_, err = build(t, a6(`flow { text line-clamp 0 { "x" } }`), nil)
	assert.Error(t, err)

	_, err = build(t, a6(`flow { text { } }`), nil)
	assert.Error(t, err)
}

func TestWriteDebugFormats(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.layout")
	defer teardown()

	res, err := build(t, a6(`flow { text size 10mm line-height 1x { "abc" } }`), nil)
	require.NoError(t, err)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "layout.yaml")
	require.NoError(t, WriteDebug(res, yamlPath))
	raw, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "pages")

	jsonPath := filepath.Join(dir, "layout.json")
	require.NoError(t, WriteDebug(res, jsonPath))
	raw, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{"))
	assert.Contains(t, string(raw), `"glyphs"`)
}
