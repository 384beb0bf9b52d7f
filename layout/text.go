package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/inkline/binding"
	"github.com/ByLCY/inkline/dsl"
	"github.com/ByLCY/inkline/inline"
)

// defaultFontSize 为 12pt（mm）。
const defaultFontSize = 12 * PtToMm

// defaultLineFactor 是未声明 line-height 时的行高倍数。
const defaultLineFactor = 1.4

var defaultTextColor = Color{R: 30, G: 30, B: 30}

// inheritedKeys 是 flow 传给子 text 的属性；行数限制类属性不在其中，它们作用于整个 flow。
var inheritedKeys = []string{
	"align", "align-last", "justify", "wrap", "direction", "white-space",
	"letter-spacing", "word-spacing", "tab-size", "overflow", "text-overflow",
}

// rootStyle 返回 text 的起始样式：默认字体、12pt、行高 1.4 倍、保留显式换行。
func rootStyle(res ResourceSet) *inline.Style {
	font, _ := resolveFontResource("", res)
	return &inline.Style{
		Font:       font.Font(),
		Size:       defaultFontSize,
		LineHeight: defaultFontSize * defaultLineFactor,
		Color:      defaultTextColor,
		WhiteSpace: inline.WhiteSpacePreLine,
		TabSize:    8,
	}
}

// resolveStyle 在 parent 的基础上应用属性，得到一个新的样式节点。depth 是节点在样式树中的深度。
func resolveStyle(styleName string, attrs map[string]string, parent *inline.Style, depth int, res ResourceSet) (*inline.Style, error) {
	st := parent.Derive()

	fontName := attr(attrs, "font")
	if fontName == "" && styleName != "" {
		if _, ok := res.Fonts[styleName]; ok {
			fontName = styleName
		}
	}
	if fontName != "" {
		font, err := resolveFontResource(fontName, res)
		if err != nil {
			return nil, err
		}
		st.Font = font.Font()
	}

	if v := attr(attrs, "size"); v != "" {
		if size := parseLengthEm(v, parent.Size); size > 0 {
			st.Size = size
			st.LineHeight = size * defaultLineFactor
		}
	}
	if v := attr(attrs, "line-height"); v != "" {
		if factor, ok := strings.CutSuffix(v, "x"); ok {
			if f, err := strconv.ParseFloat(factor, 64); err == nil && f > 0 {
				st.LineHeight = st.Size * f
			}
		} else if lh := parseLengthEm(v, st.Size); lh > 0 {
			st.LineHeight = lh
		}
	}
	if c, ok := resolveColor(attr(attrs, "color"), res); ok {
		st.Color = c
	}
	if v := attr(attrs, "letter-spacing"); v != "" {
		st.LetterSpacing = parseLengthEm(v, st.Size)
	}
	if v := attr(attrs, "word-spacing"); v != "" {
		st.WordSpacing = parseLengthEm(v, st.Size)
	}
	switch strings.ToLower(attr(attrs, "direction")) {
	case "rtl":
		st.Direction = inline.RTL
	case "ltr":
		st.Direction = inline.LTR
	}
	if v := attr(attrs, "white-space"); v != "" {
		ws, err := inline.ParseWhiteSpace(v)
		if err != nil {
			return nil, err
		}
		st.WhiteSpace = ws
	}
	if v := attr(attrs, "tab-size"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			st.TabSize = n
		}
	}
	switch normalizeWrap(attr(attrs, "wrap")) {
	case "anywhere", "break-word":
		st.Wrap = inline.WrapAnywhere
	case "normal":
		st.Wrap = inline.WrapNormal
	case "nowrap":
		st.WhiteSpace = inline.WhiteSpaceNowrap
	}

	if v := attr(attrs, "decoration"); v != "" && v != "none" {
		col := st.Color
		if c, ok := resolveColor(attr(attrs, "decoration-color"), res); ok {
			col = c
		}
		for _, name := range strings.FieldsFunc(v, func(r rune) bool { return r == ' ' || r == ',' || r == '+' }) {
			kind, ok := inline.ParseDecorationKind(name)
			if !ok {
				return nil, fmt.Errorf("未知的 decoration：%s", name)
			}
			st.Decorate(kind, col, depth)
		}
	}
	return st, nil
}

// normalizeWrap 规范化折行策略，空值返回空串表示继承。
func normalizeWrap(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "":
		return ""
	case "auto", "anywhere", "overflow-wrap:anywhere", "overflow-anywhere":
		return "anywhere"
	case "break-word", "word-break:break-word":
		return "break-word"
	case "nowrap", "no-wrap":
		return "nowrap"
	case "normal":
		return "normal"
	default:
		return "anywhere"
	}
}

var (
	justifyNames  = map[string]inline.JustifyMode{"inter-word": inline.JustifyInterWord, "auto": inline.JustifyInterWord, "inter-character": inline.JustifyInterCharacter, "distribute": inline.JustifyInterCharacter, "none": inline.JustifyNone}
	overflowNames = map[string]inline.Overflow{"visible": inline.OverflowVisible, "hidden": inline.OverflowHidden, "clip": inline.OverflowClip}
)

// resolveBlock 解析块级属性：对齐、溢出与行数限制。
func resolveBlock(attrs map[string]string, st *inline.Style) (*inline.Block, error) {
	blk := &inline.Block{Style: st}
	if v := strings.ToLower(attr(attrs, "align")); v != "" {
		a, ok := inline.ParseAlign(v)
		if !ok {
			return nil, fmt.Errorf("未知的 align：%s", v)
		}
		blk.Align = a
	}
	if v := strings.ToLower(attr(attrs, "align-last")); v != "" {
		a, ok := inline.ParseAlign(v)
		if !ok {
			return nil, fmt.Errorf("未知的 align-last：%s", v)
		}
		blk.AlignLast = a
	}
	if v := strings.ToLower(attr(attrs, "justify")); v != "" {
		j, ok := justifyNames[v]
		if !ok {
			return nil, fmt.Errorf("未知的 justify：%s", v)
		}
		blk.Justify = j
	}
	if v := strings.ToLower(attr(attrs, "overflow")); v != "" {
		o, ok := overflowNames[v]
		if !ok {
			return nil, fmt.Errorf("未知的 overflow：%s", v)
		}
		blk.Overflow = o
	}
	if v, quoted := unquote(attrs["text-overflow"]); v != "" {
		switch {
		case quoted:
			blk.TextOverflow.Marker = v
		case v == "ellipsis":
			blk.TextOverflow.Marker = inline.Ellipsis
		case v == "clip":
		default:
			return nil, fmt.Errorf("未知的 text-overflow：%s", v)
		}
	}
	clamp, _, err := parseClamp(attrs)
	if err != nil {
		return nil, err
	}
	blk.Clamp = clamp
	return blk, nil
}

// parseClamp 解析 line-clamp 简写以及 max-lines/block-ellipsis/continue。
// line-clamp N 等价于 max-lines N、block-ellipsis auto、continue discard；
// line-clamp none 重置三者。set 报告是否出现了任何相关属性。
func parseClamp(attrs map[string]string) (clamp inline.Clamp, set bool, err error) {
	if v := strings.ToLower(attr(attrs, "line-clamp")); v != "" {
		set = true
		if v != "none" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return clamp, set, fmt.Errorf("line-clamp 需要正整数或 none：%s", v)
			}
			clamp = inline.Clamp{MaxLines: n, Marker: inline.Ellipsis, Continue: inline.ContinueDiscard}
		}
	}
	if v := strings.ToLower(attr(attrs, "max-lines")); v != "" {
		set = true
		if v == "none" {
			clamp.MaxLines = 0
		} else {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return clamp, set, fmt.Errorf("max-lines 需要非负整数：%s", v)
			}
			clamp.MaxLines = n
		}
	}
	if v, quoted := unquote(attrs["block-ellipsis"]); v != "" {
		set = true
		switch {
		case quoted:
			clamp.Marker = v
		case v == "auto":
			clamp.Marker = inline.Ellipsis
		case v == "none":
			clamp.Marker = ""
		default:
			return clamp, set, fmt.Errorf("未知的 block-ellipsis：%s", v)
		}
	}
	switch v := strings.ToLower(attr(attrs, "continue")); v {
	case "":
	case "auto":
		set = true
		clamp.Continue = inline.ContinueAuto
	case "discard":
		set = true
		clamp.Continue = inline.ContinueDiscard
	default:
		return clamp, set, fmt.Errorf("未知的 continue：%s", v)
	}
	return clamp, set, nil
}

// collectPieces 把 text 块中的字符串、span 与 br 展开为带样式的片段。
func collectPieces(block *dsl.Block, st *inline.Style, depth int, res ResourceSet, data any) ([]inline.Piece, error) {
	if block == nil {
		return nil, nil
	}
	var pieces []inline.Piece
	for _, stmt := range block.Statements {
		switch {
		case stmt.Text != nil:
			text := binding.Interpolate(string(stmt.Text.Value), data)
			pieces = append(pieces, inline.Piece{Text: text, Style: st})
		case stmt.Break != nil:
			pieces = append(pieces, inline.Piece{Text: "\u2028", Style: st})
		case stmt.Span != nil:
			styleName, attrs := parseArgs(stmt.Span.Args, true)
			attrs = mergeStyleAttributes(styleName, attrs, res.Styles)
			child, err := resolveStyle(styleName, attrs, st, depth+1, res)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", stmt.Span.Pos, err)
			}
			inner, err := collectPieces(stmt.Span.Block, child, depth+1, res, data)
			if err != nil {
				return nil, err
			}
			pieces = append(pieces, inner...)
		case stmt.Command != nil:
			tracer().Debugf("text: ignoring %s inside text block", stmt.Command.Name)
		}
	}
	return pieces, nil
}

func piecesText(pieces []inline.Piece) string {
	var b strings.Builder
	for _, p := range pieces {
		b.WriteString(p.Text)
	}
	return b.String()
}

func resolveFontResource(name string, res ResourceSet) (FontResource, error) {
	if font, ok := res.Fonts[name]; ok {
		return font, nil
	}
	if font, ok := res.Fonts["Body"]; ok {
		return font, nil
	}
	for _, font := range res.Fonts {
		return font, nil
	}
	return FontResource{}, fmt.Errorf("字体 %s 未定义，且没有可用的默认字体", name)
}

// rawUnitsFor 记录作者书写的原始单位，用于调试输出。
func rawUnitsFor(attrs map[string]string) *TextBoxDebug {
	var sizeRaw RawLengthJSON
	szSpec := ParseRawLengthStr(attr(attrs, "size"))
	if szSpec.Unit == UnitNone || szSpec.Value <= 0 {
		sizeRaw = RawLengthJSON{Value: 12, Unit: "pt"}
	} else {
		sizeRaw = RawLengthJSON{Value: szSpec.Value, Unit: UnitToString(szSpec.Unit)}
	}
	lhRaw := RawLineHeightJSON{Kind: "factor", Factor: defaultLineFactor}
	if v := attr(attrs, "line-height"); v != "" {
		if factor, ok := strings.CutSuffix(v, "x"); ok {
			if f, err := strconv.ParseFloat(factor, 64); err == nil && f > 0 {
				lhRaw = RawLineHeightJSON{Kind: "factor", Factor: f}
			}
		} else if l := ParseRawLengthStr(v); l.Unit != UnitNone && l.Value > 0 {
			lhRaw = RawLineHeightJSON{Kind: "absolute", Value: l.Value, Unit: UnitToString(l.Unit)}
		}
	}
	return &TextBoxDebug{RawUnits: &RawUnits{FontSize: &sizeRaw, LineHeight: &lhRaw}}
}
