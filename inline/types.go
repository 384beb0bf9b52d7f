package inline

// BreakKind 标记一个字符边界能否断行。
type BreakKind uint8

const (
	BreakNone BreakKind = iota
	BreakSoft
	BreakMandatory
)

// BreakOpportunity 表示在 Pos 之前（即第 Pos 个字符之前）可以断行。
type BreakOpportunity struct {
	Pos  int
	Kind BreakKind
}

type clusterKind uint8

const (
	clusterGlyph clusterKind = iota
	clusterSpace
	clusterTab
	clusterNewline
	clusterHidden
)

// Cluster 是一个塑形后的字形簇，Start/End 为字符下标。
// Shaper 返回的下标相对于传入文本；Paragraph 内部保存的是段落绝对下标。
type Cluster struct {
	Start, End int
	Advance    float64
	// Missing 表示字体缺少该字形，引擎会替换为零宽占位。
	Missing bool

	kind        clusterKind
	collapsible bool
	run         int
}

// StyledRun 是同一样式、同一 bidi 层级的连续文本区间。
type StyledRun struct {
	Start, End int
	Style      *Style
	Level      uint8
}

// Direction 返回 run 的书写方向。
func (r StyledRun) Direction() Direction {
	if r.Level%2 == 1 {
		return RTL
	}
	return LTR
}

// Paragraph 是一个行内格式化上下文分段之后的结果，创建后只读。
type Paragraph struct {
	Text []rune
	Runs []StyledRun
	Base Direction
	// Breaks[i] 表示第 i 个字符之前的断行类型，长度为 len(Text)+1。
	Breaks   []BreakKind
	clusters []Cluster
}

// BreakAt 返回位置 pos 之前的断行类型。
func (p *Paragraph) BreakAt(pos int) BreakKind {
	if pos <= 0 || pos >= len(p.Breaks) {
		return BreakNone
	}
	return p.Breaks[pos]
}

// Fragment 是行内一个已定位的字形簇。
type Fragment struct {
	// Run 指向 Paragraph.Runs，截断标记为 -1。
	Run        int     `json:"run"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Text       string  `json:"text"`
	Advance    float64 `json:"advance"`
	Extra      float64 `json:"extra,omitempty"` // 两端对齐分配到的额外宽度
	X          float64 `json:"x"`
	Y          float64 `json:"y"` // 基线相对行顶的偏移
	Level      uint8   `json:"level"`
	Marker     bool    `json:"marker,omitempty"`
	Hidden     bool    `json:"hidden,omitempty"`
	Clipped    bool    `json:"clipped,omitempty"`
	Style      *Style  `json:"-"`
	space      bool
	collapsing bool
}

// Width 返回片段在对齐之后占据的水平宽度。
func (f *Fragment) Width() float64 {
	return f.Advance + f.Extra
}

// DecorationRect 是合并后的装饰矩形，坐标相对行框左上角。
type DecorationRect struct {
	Kind      DecorationKind `json:"kind"`
	Color     Color          `json:"color"`
	X         float64        `json:"x"`
	Y         float64        `json:"y"`
	Width     float64        `json:"width"`
	Thickness float64        `json:"thickness"`
	Depth     int            `json:"depth"`
}

// Line 是一行排版结果。Fragments 按逻辑顺序保存，Visual 是视觉顺序的排列。
type Line struct {
	Index     int        `json:"index"`
	Start     int        `json:"start"` // 本行消耗的字符区间（含被裁掉的首尾空白）
	End       int        `json:"end"`
	Fragments []Fragment `json:"fragments"`
	Visual    []int      `json:"visual"`
	Width     float64    `json:"width"`
	Available float64    `json:"available"`
	Y         float64    `json:"y"`
	Height    float64    `json:"height"`
	Baseline  float64    `json:"baseline"`
	// ElidedFrom 标记被截断标记替换掉的内容起点，未截断时等于 End。
	ElidedFrom  int              `json:"elidedFrom"`
	Truncated   bool             `json:"truncated,omitempty"`
	Forced      bool             `json:"forced,omitempty"`
	Overrun     bool             `json:"overrun,omitempty"`
	// Clip 表示行框裁剪溢出内容，可见区间是 [0, Available]。
	Clip        bool             `json:"clip,omitempty"`
	Decorations []DecorationRect `json:"decorations,omitempty"`

	ordered bool
}

// Painted 按视觉顺序返回需要交给绘制后端的片段。
func (l *Line) Painted() []Fragment {
	out := make([]Fragment, 0, len(l.Fragments))
	for _, f := range l.visualFragments() {
		if f.Clipped || f.Hidden {
			continue
		}
		out = append(out, *f)
	}
	return out
}

// ClipWindow 返回部分落在行框外的片段的可见区间，坐标相对片段左边缘。
// 片段完全可见或行框不裁剪时 ok 为 false。
func (l *Line) ClipWindow(f *Fragment) (from, to float64, ok bool) {
	if !l.Clip || f.Clipped {
		return 0, 0, false
	}
	w := f.Width()
	from = max(0, -f.X)
	to = min(w, l.Available-f.X)
	if from <= epsilon && to >= w-epsilon {
		return 0, w, false
	}
	return from, max(from, to), true
}

func (l *Line) visualFragments() []*Fragment {
	out := make([]*Fragment, 0, len(l.Fragments))
	if len(l.Visual) != len(l.Fragments) {
		for i := range l.Fragments {
			out = append(out, &l.Fragments[i])
		}
		return out
	}
	for _, i := range l.Visual {
		out = append(out, &l.Fragments[i])
	}
	return out
}

func (l *Line) recomputeWidth() {
	w := 0.0
	for i := range l.Fragments {
		w += l.Fragments[i].Advance
	}
	l.Width = w
}

// Text 按逻辑顺序拼出行内容（含截断标记），主要用于调试与测试。
func (l *Line) Text() string {
	var b []rune
	for _, f := range l.Fragments {
		b = append(b, []rune(f.Text)...)
	}
	return string(b)
}

// Align 是 text-align 取值。
type Align int

const (
	// AlignAuto 对 Align 等同于 start；对 AlignLast 表示沿用默认的末行规则。
	AlignAuto Align = iota
	AlignStart
	AlignEnd
	AlignLeft
	AlignRight
	AlignCenter
	AlignJustify
)

var alignNames = map[string]Align{
	"start":   AlignStart,
	"end":     AlignEnd,
	"left":    AlignLeft,
	"right":   AlignRight,
	"center":  AlignCenter,
	"middle":  AlignCenter,
	"justify": AlignJustify,
	"auto":    AlignAuto,
}

// ParseAlign 解析对齐关键字。
func ParseAlign(s string) (Align, bool) {
	a, ok := alignNames[s]
	return a, ok
}

// JustifyMode 决定两端对齐时哪些位置可以分配空余宽度。
type JustifyMode int

const (
	JustifyInterWord JustifyMode = iota
	JustifyInterCharacter
	JustifyNone
)

// Overflow 是行框的溢出策略。
type Overflow int

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowClip
)

// TextOverflow 描述溢出时是否追加截断标记；Marker 为空表示直接裁剪。
type TextOverflow struct {
	Marker string
}

// Ellipsis 是 text-overflow: ellipsis 与 block-ellipsis: auto 使用的标记。
const Ellipsis = "…"

// ContinuePolicy 决定超出行数限制的内容去向。
type ContinuePolicy int

const (
	// ContinueAuto 把剩余内容留给下一个分片容器（例如下一页）。
	ContinueAuto ContinuePolicy = iota
	// ContinueDiscard 丢弃剩余内容。
	ContinueDiscard
)

// Clamp 是一个行数限制指令。MaxLines 为 0 表示不限制。
type Clamp struct {
	MaxLines int
	// Marker 为空表示达到上限时不追加标记（硬裁剪）。
	Marker   string
	Continue ContinuePolicy
}

// Limited 报告该指令是否真的限制行数。
func (c Clamp) Limited() bool {
	return c.MaxLines > 0
}

// WidthFunc 返回第 line 行的可用宽度。
type WidthFunc func(line int) float64

// Block 是一次排版请求：一个行内格式化上下文的全部内容与块级属性。
type Block struct {
	Content []Piece
	// Style 是块自身的样式，决定基准方向、空行行高与截断标记的样式。
	Style        *Style
	Width        float64
	WidthFunc    WidthFunc
	Align        Align
	AlignLast    Align
	Justify      JustifyMode
	Overflow     Overflow
	TextOverflow TextOverflow
	Clamp        Clamp
	// MoreFollows 表示同一分片上下文中本块之后还有内容，行数上限在块末尾用尽时也需要追加标记。
	MoreFollows bool
}

func (b *Block) style() *Style {
	if b.Style == nil {
		b.Style = DefaultStyle()
	}
	return b.Style
}

func (b *Block) widthAt(line int) float64 {
	if b.WidthFunc != nil {
		return b.WidthFunc(line)
	}
	return b.Width
}

// Result 是一个块的排版结果。
type Result struct {
	Paragraph *Paragraph `json:"-"`
	Lines     []Line     `json:"lines"`
	// Dropped 是因行数限制被丢弃的行，只用于追踪，不参与绘制。
	Dropped   []Line     `json:"dropped,omitempty"`
	Remainder *Remainder `json:"-"`
	Height    float64    `json:"height"`
}

// Remainder 是留给下一个分片容器的剩余内容。
type Remainder struct {
	para    *Paragraph
	block   *Block
	cluster int
}

// Offset 返回剩余内容在段落中的起始字符位置。
func (r *Remainder) Offset() int {
	if r.cluster >= len(r.para.clusters) {
		return len(r.para.Text)
	}
	return r.para.clusters[r.cluster].Start
}
