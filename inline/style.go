package inline

import (
	"fmt"
	"strings"
)

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r" yaml:"r"`
	G int `json:"g" yaml:"g"`
	B int `json:"b" yaml:"b"`
}

// Direction 是书写方向。
type Direction int

const (
	LTR Direction = iota
	RTL
)

func (d Direction) String() string {
	if d == RTL {
		return "rtl"
	}
	return "ltr"
}

// level 返回该方向作为段落基准时的 bidi 嵌入层级。
func (d Direction) level() uint8 {
	if d == RTL {
		return 1
	}
	return 0
}

// WhiteSpace 对应 CSS white-space。
type WhiteSpace int

const (
	WhiteSpaceNormal WhiteSpace = iota
	WhiteSpaceNowrap
	WhiteSpacePre
	WhiteSpacePreWrap
	WhiteSpacePreLine
)

var whiteSpaceNames = map[string]WhiteSpace{
	"normal":   WhiteSpaceNormal,
	"nowrap":   WhiteSpaceNowrap,
	"pre":      WhiteSpacePre,
	"pre-wrap": WhiteSpacePreWrap,
	"pre-line": WhiteSpacePreLine,
}

// ParseWhiteSpace 解析 white-space 关键字。
func ParseWhiteSpace(s string) (WhiteSpace, error) {
	if ws, ok := whiteSpaceNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return ws, nil
	}
	return WhiteSpaceNormal, fmt.Errorf("inline: unknown white-space %q", s)
}

func (w WhiteSpace) collapsesSpaces() bool {
	return w == WhiteSpaceNormal || w == WhiteSpaceNowrap || w == WhiteSpacePreLine
}

func (w WhiteSpace) preservesNewlines() bool {
	return w == WhiteSpacePre || w == WhiteSpacePreWrap || w == WhiteSpacePreLine
}

func (w WhiteSpace) wraps() bool {
	return w == WhiteSpaceNormal || w == WhiteSpacePreWrap || w == WhiteSpacePreLine
}

// OverflowWrap 决定单词内部能否被强制断开。
type OverflowWrap int

const (
	// WrapAnywhere 在没有软换行点时于溢出字符处强制断行。
	WrapAnywhere OverflowWrap = iota
	// WrapNormal 允许不可断的内容溢出行框。
	WrapNormal
)

// DecorationKind 是装饰线种类。
type DecorationKind uint8

const (
	Underline DecorationKind = 1 << iota
	Overline
	LineThrough
)

var decorationKinds = []DecorationKind{Underline, Overline, LineThrough}

func (k DecorationKind) String() string {
	switch k {
	case Underline:
		return "underline"
	case Overline:
		return "overline"
	case LineThrough:
		return "line-through"
	}
	return "none"
}

// ParseDecorationKind 解析单个装饰关键字。
func ParseDecorationKind(s string) (DecorationKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "underline":
		return Underline, true
	case "overline":
		return Overline, true
	case "line-through", "strike", "strikethrough":
		return LineThrough, true
	}
	return 0, false
}

// Decoration 是某个样式节点声明的装饰请求，Depth 为声明它的节点在样式树中的深度（块自身为 0）。
type Decoration struct {
	Kind  DecorationKind `json:"kind"`
	Color Color          `json:"color"`
	Depth int            `json:"depth"`
}

// Font 引用一个字体资源，具体字形由 Shaper 解释。
type Font struct {
	Name  string `json:"name"`
	Src   string `json:"src,omitempty"`
	Style string `json:"style,omitempty"`
}

// Style 是已解析完毕的逐字符样式，长度单位统一为 mm。
type Style struct {
	Font          Font
	Size          float64
	LineHeight    float64
	Color         Color
	LetterSpacing float64
	WordSpacing   float64
	Direction     Direction
	WhiteSpace    WhiteSpace
	TabSize       float64
	Wrap          OverflowWrap
	// Decorations 是从祖先节点展平下来的装饰列表，同一种类可以出现多次（不同深度）。
	Decorations []Decoration
}

// Derive 复制样式供子节点覆盖；装饰列表单独复制，避免父子共享底层数组。
func (s *Style) Derive() *Style {
	child := *s
	child.Decorations = append([]Decoration(nil), s.Decorations...)
	return &child
}

// Decorate 以给定深度追加装饰请求。
func (s *Style) Decorate(kind DecorationKind, color Color, depth int) {
	for _, k := range decorationKinds {
		if kind&k != 0 {
			s.Decorations = append(s.Decorations, Decoration{Kind: k, Color: color, Depth: depth})
		}
	}
}

// decorationFor 返回该种类最内层的请求。
func (s *Style) decorationFor(kind DecorationKind) (Decoration, bool) {
	var found Decoration
	ok := false
	for _, d := range s.Decorations {
		if d.Kind == kind && (!ok || d.Depth >= found.Depth) {
			found, ok = d, true
		}
	}
	return found, ok
}

// ownDecorations 只保留块自身（深度 0）的装饰，用于截断标记。
func (s *Style) ownDecorations() []Decoration {
	var out []Decoration
	for _, d := range s.Decorations {
		if d.Depth == 0 {
			out = append(out, d)
		}
	}
	return out
}

func (s *Style) tabSize() float64 {
	if s.TabSize <= 0 {
		return 8
	}
	return s.TabSize
}

func (s *Style) lineHeight() float64 {
	if s.LineHeight > 0 {
		return s.LineHeight
	}
	return s.Size * 1.2
}

// shapeKey 是塑形缓存的样式部分，间距等由折行阶段处理，不影响塑形结果。
func (s *Style) shapeKey() string {
	return fmt.Sprintf("%s|%s|%s|%g", s.Font.Name, s.Font.Src, s.Font.Style, s.Size)
}

// DefaultStyle 返回 12pt、行高 1.2 倍的默认样式。
func DefaultStyle() *Style {
	size := 12 * 0.352777
	return &Style{Size: size, LineHeight: size * 1.2, TabSize: 8}
}

// Piece 是一段共享同一样式节点的文本；同一个 *Style 指针视为同一节点。
type Piece struct {
	Text  string
	Style *Style
}
