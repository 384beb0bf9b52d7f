package canvasrenderer

import (
	"unicode"

	"github.com/go-text/typesetting/font"

	"github.com/ByLCY/inkline/inline"
)

var _ inline.Shaper = (*Renderer)(nil)

// 测量时统一使用黑色字体面，避免颜色不同的样式各自缓存一份。
var measureColor = inline.Color{}

// Shape 以字形簇为单位测量宽度（mm）。字体缺少字形的可见字符标记为 Missing。
func (r *Renderer) Shape(text []rune, st *inline.Style) ([]inline.Cluster, error) {
	face, entry, err := r.face(st.Font, st.Size, measureColor)
	if err != nil {
		return nil, err
	}
	graphemes := inline.Graphemes(text)
	out := make([]inline.Cluster, 0, len(graphemes))
	r.measureMu.Lock()
	defer r.measureMu.Unlock()
	for _, g := range graphemes {
		cluster := text[g[0]:g[1]]
		c := inline.Cluster{Start: g[0], End: g[1]}
		for _, ch := range cluster {
			if !unicode.IsGraphic(ch) || unicode.IsSpace(ch) {
				continue
			}
			if _, ok := entry.face.NominalGlyph(ch); !ok {
				c.Missing = true
			}
		}
		c.Advance = face.TextWidth(string(cluster))
		out = append(out, c)
	}
	return out, nil
}

func (r *Renderer) Breaks(text []rune) []inline.BreakOpportunity {
	return inline.LineBreaks(text)
}

func (r *Renderer) Measure(text []rune, st *inline.Style) float64 {
	face, _, err := r.face(st.Font, st.Size, measureColor)
	if err != nil {
		tracer().Infof("measure: %v", err)
		return 0
	}
	r.measureMu.Lock()
	defer r.measureMu.Unlock()
	return face.TextWidth(string(text))
}

// Metrics 的上升/下降取自 canvas（mm），装饰线位置读取字体的 post 表。
func (r *Renderer) Metrics(st *inline.Style) inline.Metrics {
	face, entry, err := r.face(st.Font, st.Size, measureColor)
	if err != nil {
		tracer().Infof("metrics: %v", err)
		return inline.UniformShaper{}.Metrics(st)
	}
	m := face.Metrics()
	out := inline.Metrics{
		Ascent:  m.Ascent,
		Descent: m.Descent,
		XHeight: m.XHeight,
	}
	if upem := float64(entry.face.Upem()); upem > 0 {
		scale := st.Size / upem
		out.UnderlinePosition = -float64(entry.face.LineMetric(font.UnderlinePosition)) * scale
		out.UnderlineThickness = float64(entry.face.LineMetric(font.UnderlineThickness)) * scale
	}
	if out.UnderlineThickness <= 0 {
		out.UnderlineThickness = st.Size / 20
	}
	if out.UnderlinePosition <= 0 {
		out.UnderlinePosition = out.Descent / 2
	}
	if out.XHeight <= 0 {
		out.XHeight = out.Ascent / 2
	}
	return out
}
