package inline

import "math"

type decoSpan struct {
	rect  DecorationRect
	dom   *Style
	thick float64
}

// decorate 逐种类扫描视觉顺序的片段，把颜色相同且相邻的请求合并为一个矩形。
// 每个片段取该种类最内层的请求；颜色变化即开始新的矩形，装饰之间不混合。
func (e *Engine) decorate(line *Line) {
	frags := line.visualFragments()
	var rects []DecorationRect
	for _, kind := range decorationKinds {
		var cur *decoSpan
		flush := func() {
			if cur != nil {
				rects = append(rects, e.placeDecoration(line, cur))
				cur = nil
			}
		}
		for _, f := range frags {
			if f.Clipped || f.Style == nil {
				flush()
				continue
			}
			d, ok := f.Style.decorationFor(kind)
			if !ok {
				flush()
				continue
			}
			thick := e.shaper.Metrics(f.Style).UnderlineThickness
			if cur != nil && cur.rect.Color == d.Color && math.Abs(cur.rect.X+cur.rect.Width-f.X) < 1e-6 {
				cur.rect.Width += f.Width()
				cur.rect.Depth = min(cur.rect.Depth, d.Depth)
				if f.Style.Size > cur.dom.Size {
					cur.dom = f.Style
				}
				cur.thick = max(cur.thick, thick)
				continue
			}
			flush()
			cur = &decoSpan{
				rect:  DecorationRect{Kind: kind, Color: d.Color, X: f.X, Width: f.Width(), Depth: d.Depth},
				dom:   f.Style,
				thick: thick,
			}
		}
		flush()
	}
	if line.Clip {
		rects = clipRects(rects, line.Available)
	}
	line.Decorations = rects
}

// clipRects 把装饰限制在行框 [0, available] 之内。
func clipRects(rects []DecorationRect, available float64) []DecorationRect {
	out := rects[:0]
	for _, r := range rects {
		from := max(r.X, 0)
		to := min(r.X+r.Width, available)
		if to-from <= epsilon {
			continue
		}
		r.X, r.Width = from, to-from
		out = append(out, r)
	}
	return out
}

// placeDecoration 按主导字体（跨度内字号最大者）的度量确定纵向位置，Y 为矩形上沿。
func (e *Engine) placeDecoration(line *Line, s *decoSpan) DecorationRect {
	m := e.shaper.Metrics(s.dom)
	thick := s.thick
	if thick <= 0 {
		thick = s.dom.Size / 15
	}
	r := s.rect
	r.Thickness = thick
	switch r.Kind {
	case Underline:
		r.Y = line.Baseline + m.UnderlinePosition
	case Overline:
		r.Y = line.Baseline - m.Ascent
	case LineThrough:
		r.Y = line.Baseline - m.XHeight/2 - thick/2
	}
	return r
}
