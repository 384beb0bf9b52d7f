package inline

import (
	"golang.org/x/text/unicode/bidi"
)

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u200e', '\u200f', '\u2060', '\ufeff':
		return true
	}
	return false
}

func isNewline(r rune) bool {
	return r == '\n' || r == '\u2028'
}

func isWordSeparator(r rune) bool {
	return r == ' ' || r == '\u00a0'
}

// Segment 对一个行内格式化上下文分段：折叠空白、计算 bidi 层级、切分 run、
// 查询断行位置并逐 run 塑形。内容为空时返回零个 run 的段落。
func (e *Engine) Segment(content []Piece, base Direction) (*Paragraph, error) {
	text, styles := collapseWhiteSpace(content, nil)
	return e.segment(text, styles, base)
}

func (e *Engine) segment(text []rune, styles []*Style, base Direction) (*Paragraph, error) {
	p := &Paragraph{
		Text:   text,
		Base:   base,
		Breaks: make([]BreakKind, len(text)+1),
	}
	if len(text) == 0 {
		return p, nil
	}
	levels := bidiLevels(text, base)
	p.Runs = splitRuns(styles, levels)
	e.computeBreaks(p, styles)
	e.shapeRuns(p)
	return p, nil
}

// collapseWhiteSpace 按每个字符自己的 white-space 模式处理空白。
// 可折叠模式下连续空白合并为一个空格；pre-line 保留换行并去掉换行两侧的空白。
func collapseWhiteSpace(content []Piece, fallback *Style) ([]rune, []*Style) {
	if fallback == nil {
		fallback = DefaultStyle()
	}
	var text []rune
	var styles []*Style
	for _, piece := range content {
		st := piece.Style
		if st == nil {
			st = fallback
		}
		ws := st.WhiteSpace
		src := []rune(piece.Text)
		for i := 0; i < len(src); i++ {
			r := src[i]
			if r == '\r' {
				if i+1 < len(src) && src[i+1] == '\n' {
					continue
				}
				r = '\n'
			}
			if !ws.collapsesSpaces() {
				text = append(text, r)
				styles = append(styles, st)
				continue
			}
			if r == '\n' {
				if ws.preservesNewlines() {
					for len(text) > 0 && text[len(text)-1] == ' ' && styles[len(text)-1].WhiteSpace.collapsesSpaces() {
						text = text[:len(text)-1]
						styles = styles[:len(styles)-1]
					}
					text = append(text, r)
					styles = append(styles, st)
					continue
				}
				r = ' '
			}
			if r == '\t' {
				r = ' '
			}
			if r == ' ' && len(text) > 0 {
				prev := text[len(text)-1]
				if prev == ' ' || isNewline(prev) {
					continue
				}
			}
			text = append(text, r)
			styles = append(styles, st)
		}
	}
	return text, styles
}

// bidiLevels 返回每个字符的嵌入层级。段落基准方向由块样式决定，不由首个强字符推断。
func bidiLevels(text []rune, base Direction) []uint8 {
	levels := make([]uint8, len(text))
	for i := range levels {
		levels[i] = base.level()
	}
	if base == LTR && !hasRTL(text) {
		return levels
	}
	def := bidi.LeftToRight
	if base == RTL {
		def = bidi.RightToLeft
	}
	var p bidi.Paragraph
	if _, err := p.SetString(string(text), bidi.DefaultDirection(def)); err != nil {
		tracer().Debugf("bidi: %v, falling back to base direction", err)
		return levels
	}
	order, err := p.Order()
	if err != nil {
		tracer().Debugf("bidi: %v, falling back to base direction", err)
		return levels
	}
	for i := 0; i < order.NumRuns(); i++ {
		run := order.Run(i)
		start, end := run.Pos()
		lvl := base.level()
		switch run.Direction() {
		case bidi.RightToLeft:
			lvl = 1
		case bidi.LeftToRight:
			if base == RTL {
				lvl = 2
			} else {
				lvl = 0
			}
		}
		for j := start; j <= end && j < len(levels); j++ {
			levels[j] = lvl
		}
	}
	return levels
}

func hasRTL(text []rune) bool {
	for _, r := range text {
		if (r >= 0x0590 && r <= 0x08FF) || (r >= 0xFB1D && r <= 0xFDFF) || (r >= 0xFE70 && r <= 0xFEFF) || r == '\u200f' || r == '\u202b' || r == '\u202e' {
			return true
		}
	}
	return false
}

// splitRuns 在样式节点或 bidi 层级变化处切分。
func splitRuns(styles []*Style, levels []uint8) []StyledRun {
	var runs []StyledRun
	start := 0
	for i := 1; i <= len(styles); i++ {
		if i < len(styles) && styles[i] == styles[start] && levels[i] == levels[start] {
			continue
		}
		runs = append(runs, StyledRun{Start: start, End: i, Style: styles[start], Level: levels[start]})
		start = i
	}
	return runs
}

// computeBreaks 对整段文本查询一次断行位置，再按 white-space 修正：
// 任一侧不允许折行时去掉软断点，强制断点只保留在被保留的换行符之后。
func (e *Engine) computeBreaks(p *Paragraph, styles []*Style) {
	for _, op := range e.shaper.Breaks(p.Text) {
		if op.Pos <= 0 || op.Pos >= len(p.Text) {
			continue
		}
		if op.Kind == BreakMandatory && !isNewline(p.Text[op.Pos-1]) {
			op.Kind = BreakSoft
		}
		p.Breaks[op.Pos] = op.Kind
	}
	for pos := 1; pos < len(p.Text); pos++ {
		if isNewline(p.Text[pos-1]) {
			p.Breaks[pos] = BreakMandatory
			continue
		}
		if p.Breaks[pos] == BreakSoft && (!styles[pos-1].WhiteSpace.wraps() || !styles[pos].WhiteSpace.wraps()) {
			p.Breaks[pos] = BreakNone
		}
	}
}

// shapeRuns 逐 run 塑形。塑形失败或缺字时以零宽占位簇代替并继续。
func (e *Engine) shapeRuns(p *Paragraph) {
	for ri, run := range p.Runs {
		text := p.Text[run.Start:run.End]
		shaped, err := e.shaper.Shape(text, run.Style)
		if err != nil {
			tracer().Infof("shaping failure in run %d (%q): %v", ri, string(text), err)
			shaped = placeholders(text)
		}
		for _, c := range shaped {
			c.Start += run.Start
			c.End += run.Start
			c.run = ri
			if c.Missing {
				tracer().Infof("shaping failure: missing glyph for %q, using placeholder", string(p.Text[c.Start:c.End]))
				c.Advance = 0
			}
			e.classify(p, &c, run.Style)
			p.clusters = append(p.clusters, c)
		}
	}
}

func placeholders(text []rune) []Cluster {
	out := make([]Cluster, len(text))
	for i := range text {
		out[i] = Cluster{Start: i, End: i + 1, Missing: true}
	}
	return out
}

// classify 标注簇的类别，零宽控制字符不参与测量。
func (e *Engine) classify(p *Paragraph, c *Cluster, style *Style) {
	text := p.Text[c.Start:c.End]
	if len(text) == 1 {
		switch r := text[0]; {
		case isNewline(r):
			c.kind = clusterNewline
			c.Advance = 0
			return
		case r == '\t':
			c.kind = clusterTab
			return
		case isWordSeparator(r):
			c.kind = clusterSpace
			c.collapsible = r == ' ' && style.WhiteSpace != WhiteSpacePre
			return
		}
	}
	visible := make([]rune, 0, len(text))
	for _, r := range text {
		if !isZeroWidth(r) {
			visible = append(visible, r)
		}
	}
	switch {
	case len(visible) == 0:
		c.kind = clusterHidden
		c.Advance = 0
	case len(visible) < len(text) && !c.Missing:
		c.Advance = e.shaper.Measure(visible, style)
	}
}
