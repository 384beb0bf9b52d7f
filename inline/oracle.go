package inline

import (
	"sync"

	"github.com/go-text/typesetting/segmenter"
)

// Metrics 是字体的纵向度量，单位 mm。UnderlinePosition 为基线之下的正向偏移。
type Metrics struct {
	Ascent             float64
	Descent            float64
	XHeight            float64
	UnderlinePosition  float64
	UnderlineThickness float64
}

// Shaper 是塑形与度量的外部依赖。实现需要是纯函数，并且可以被多个 goroutine 并发调用。
type Shaper interface {
	// Shape 把文本切成字形簇，下标相对于 text。
	Shape(text []rune, style *Style) ([]Cluster, error)
	// Breaks 返回 text 内部所有合法断行位置。
	Breaks(text []rune) []BreakOpportunity
	// Measure 返回文本的自然宽度，不含字间距。
	Measure(text []rune, style *Style) float64
	Metrics(style *Style) Metrics
}

// LineBreaks 用 UAX#14 计算断行位置，供各 Shaper 实现复用。
func LineBreaks(text []rune) []BreakOpportunity {
	if len(text) == 0 {
		return nil
	}
	var seg segmenter.Segmenter
	seg.Init(text)
	iter := seg.LineIterator()
	var out []BreakOpportunity
	for iter.Next() {
		line := iter.Line()
		pos := line.Offset + len(line.Text)
		if pos >= len(text) {
			break
		}
		kind := BreakSoft
		if line.IsMandatoryBreak {
			kind = BreakMandatory
		}
		out = append(out, BreakOpportunity{Pos: pos, Kind: kind})
	}
	return out
}

// Graphemes 按 UAX#29 返回字形簇区间 [start, end)。
func Graphemes(text []rune) [][2]int {
	if len(text) == 0 {
		return nil
	}
	var seg segmenter.Segmenter
	seg.Init(text)
	iter := seg.GraphemeIterator()
	var out [][2]int
	for iter.Next() {
		g := iter.Grapheme()
		out = append(out, [2]int{g.Offset, g.Offset + len(g.Text)})
	}
	return out
}

// UniformShaper 把每个可见字符都当作 1em 见方的字形，空格同样 1em 宽。
// 它主要用于测试与没有字体时的估算。
type UniformShaper struct {
	// Missing 中的字符被视为字体缺字。
	Missing map[rune]bool
}

func (u UniformShaper) Shape(text []rune, style *Style) ([]Cluster, error) {
	var out []Cluster
	for _, g := range Graphemes(text) {
		c := Cluster{Start: g[0], End: g[1]}
		for _, r := range text[g[0]:g[1]] {
			if u.Missing[r] {
				c.Missing = true
			}
		}
		c.Advance = u.Measure(text[g[0]:g[1]], style)
		out = append(out, c)
	}
	return out, nil
}

func (u UniformShaper) Breaks(text []rune) []BreakOpportunity {
	return LineBreaks(text)
}

func (u UniformShaper) Measure(text []rune, style *Style) float64 {
	n := 0
	for _, r := range text {
		if !isZeroWidth(r) && !isNewline(r) {
			n++
		}
	}
	return float64(n) * style.Size
}

func (u UniformShaper) Metrics(style *Style) Metrics {
	em := style.Size
	return Metrics{
		Ascent:             0.8 * em,
		Descent:            0.2 * em,
		XHeight:            0.5 * em,
		UnderlinePosition:  0.1 * em,
		UnderlineThickness: 0.1 * em,
	}
}

// CachedShaper 缓存塑形与测量结果。每个键只写一次，之后只读，可以在并行上下文间共享。
type CachedShaper struct {
	Shaper
	shapes   sync.Map // string -> []Cluster
	measures sync.Map // string -> float64
}

// NewCachedShaper 包装一个 Shaper。
func NewCachedShaper(s Shaper) *CachedShaper {
	return &CachedShaper{Shaper: s}
}

func (c *CachedShaper) Shape(text []rune, style *Style) ([]Cluster, error) {
	key := style.shapeKey() + "|" + string(text)
	if v, ok := c.shapes.Load(key); ok {
		return v.([]Cluster), nil
	}
	clusters, err := c.Shaper.Shape(text, style)
	if err != nil {
		return nil, err
	}
	v, _ := c.shapes.LoadOrStore(key, clusters)
	return v.([]Cluster), nil
}

func (c *CachedShaper) Measure(text []rune, style *Style) float64 {
	key := style.shapeKey() + "|" + string(text)
	if v, ok := c.measures.Load(key); ok {
		return v.(float64)
	}
	w := c.Shaper.Measure(text, style)
	c.measures.Store(key, w)
	return w
}
