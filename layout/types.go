package layout

import "github.com/ByLCY/inkline/inline"

// 该文件定义布局结果与资源描述，供布局计算、渲染与调试输出（JSON/YAML）共用。

// Result 保存布局后的页面与资源信息。
type Result struct {
	Pages     []Page       `json:"pages" yaml:"pages"`
	Resources ResourceSet  `json:"resources" yaml:"resources"`
	Meta      DocumentMeta `json:"meta" yaml:"meta"`
	// Notes 汇总排版时做出的策略性决定（例如嵌套行数限制的冲突）。
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ResourceSet 记录解析出的字体、颜色与样式定义。
type ResourceSet struct {
	Fonts  map[string]FontResource `json:"fonts" yaml:"fonts"`
	Colors map[string]Color        `json:"colors" yaml:"colors"`
	Styles map[string]Style        `json:"styles" yaml:"styles"`
}

// FontResource 描述字体资源，src 可以是文件路径、embed:* 或 builtin:* 形式。
type FontResource struct {
	Name      string `json:"name" yaml:"name"`
	Src       string `json:"src" yaml:"src"`
	Style     string `json:"style" yaml:"style"`
	Base      string `json:"base" yaml:"base"`           // builtin 模式下记录真实字体名
	IsBuiltin bool   `json:"isBuiltin" yaml:"isBuiltin"` // 是否为内建字体
}

// Font 转换为排版引擎使用的字体描述。
func (f FontResource) Font() inline.Font {
	return inline.Font{Name: f.Name, Src: f.Src, Style: f.Style}
}

// Color 采用 0-255 的 RGB 数值。
type Color = inline.Color

// Page 记录页面尺寸、边距与最终可以直接渲染的文本块。
type Page struct {
	Width  float64   `json:"width" yaml:"width"`
	Height float64   `json:"height" yaml:"height"`
	Margin Margin    `json:"margin" yaml:"margin"`
	Texts  []TextBox `json:"texts" yaml:"texts"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// TextBox 表示一个已经排好坐标的文本块。跨页的文本块会拆成多个 TextBox，
// 后续部分的 Continued 为 true。
type TextBox struct {
	Content    string        `json:"content" yaml:"content"`
	X          float64       `json:"x" yaml:"x"`
	Y          float64       `json:"y" yaml:"y"`
	Width      float64       `json:"width" yaml:"width"`
	Height     float64       `json:"height" yaml:"height"`
	LineHeight float64       `json:"lineHeight" yaml:"lineHeight"`
	Font       string        `json:"font" yaml:"font"`
	FontSize   float64       `json:"fontSize" yaml:"fontSize"`
	Color      Color         `json:"color" yaml:"color"`
	Align      string        `json:"align,omitempty" yaml:"align,omitempty"`
	Direction  string        `json:"direction,omitempty" yaml:"direction,omitempty"`
	Wrap       string        `json:"wrap,omitempty" yaml:"wrap,omitempty"`
	Continued  bool          `json:"continued,omitempty" yaml:"continued,omitempty"`
	Lines      []TextLine    `json:"lines" yaml:"lines"`
	Dropped    int           `json:"dropped,omitempty" yaml:"dropped,omitempty"` // 因行数限制被丢弃的行数
	Debug      *TextBoxDebug `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// TextLine 表示排版后的一行。坐标均为页面坐标（mm），Y 为行顶部。
type TextLine struct {
	Content     string           `json:"content" yaml:"content"`
	X           float64          `json:"x" yaml:"x"`
	Y           float64          `json:"y" yaml:"y"`
	Width       float64          `json:"width" yaml:"width"`
	Height      float64          `json:"height" yaml:"height"`
	Baseline    float64          `json:"baseline" yaml:"baseline"`
	Truncated   bool             `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Glyphs      []Glyph          `json:"glyphs" yaml:"glyphs"`
	Decorations []DecorationRect `json:"decorations,omitempty" yaml:"decorations,omitempty"`
}

// Glyph 是一个可直接绘制的字形簇，X 为左边缘，Y 为基线（页面坐标）。
type Glyph struct {
	Text   string  `json:"text" yaml:"text"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Font   string  `json:"font" yaml:"font"`
	Size   float64 `json:"size" yaml:"size"`
	Color  Color   `json:"color" yaml:"color"`
	Marker bool    `json:"marker,omitempty" yaml:"marker,omitempty"`

	// Clip 非空时字形跨过了裁剪边缘，只绘制 [From, To] 部分（相对 X）。
	Clip *GlyphClip `json:"clip,omitempty" yaml:"clip,omitempty"`
}

// GlyphClip 是字形的可见水平区间。
type GlyphClip struct {
	From float64 `json:"from" yaml:"from"`
	To   float64 `json:"to" yaml:"to"`
}

// DecorationRect 是合并后的装饰线，Y 为矩形上沿（页面坐标）。
type DecorationRect struct {
	Kind      string  `json:"kind" yaml:"kind"`
	X         float64 `json:"x" yaml:"x"`
	Y         float64 `json:"y" yaml:"y"`
	Width     float64 `json:"width" yaml:"width"`
	Thickness float64 `json:"thickness" yaml:"thickness"`
	Color     Color   `json:"color" yaml:"color"`
}

// TextBoxDebug holds optional debug info displayed only when enabled by BuildOptions.
type TextBoxDebug struct {
	RawUnits *RawUnits `json:"rawUnits,omitempty" yaml:"rawUnits,omitempty"`
}

// RawUnits describes original author-specified units for key fields.
type RawUnits struct {
	FontSize   *RawLengthJSON     `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	LineHeight *RawLineHeightJSON `json:"lineHeight,omitempty" yaml:"lineHeight,omitempty"`
}

// RawLengthJSON is a serialisable representation of Length.
type RawLengthJSON struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit" yaml:"unit"`
}

// RawLineHeightJSON is a serialisable representation of LineHeightSpec.
type RawLineHeightJSON struct {
	Kind   string  `json:"kind" yaml:"kind"` // "factor" | "absolute"
	Factor float64 `json:"factor,omitempty" yaml:"factor,omitempty"`
	Value  float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Unit   string  `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Style 用于描述可继承的文本样式。
type Style struct {
	Name    string            `json:"name" yaml:"name"`
	Extends string            `json:"extends,omitempty" yaml:"extends,omitempty"`
	Props   map[string]string `json:"props" yaml:"props"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title" yaml:"title"`
	Author   string   `json:"author" yaml:"author"`
	Subject  string   `json:"subject" yaml:"subject"`
	Creator  string   `json:"creator" yaml:"creator"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}
