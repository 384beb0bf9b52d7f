package inline

// resolveOverflow 处理宽度放不下且行框不允许溢出的行：有标记时截断，否则裁剪。
func (e *Engine) resolveOverflow(line *Line, blk *Block) {
	if blk.Overflow == OverflowVisible || line.Width <= line.Available+epsilon {
		return
	}
	if blk.TextOverflow.Marker != "" {
		e.truncate(line, blk.TextOverflow.Marker, blk)
		return
	}
	clip(line)
}

// truncate 从行尾逐簇删除内容直到 剩余宽度 + 标记宽度 ≤ 可用宽度，再把标记作为最后一个片段追加。
// 标记本身都放不下时只保留标记。对已经截断且放得下的行不做任何修改。
func (e *Engine) truncate(line *Line, marker string, blk *Block) {
	if line.Truncated {
		if line.Width <= line.Available+epsilon {
			return
		}
		line.Fragments = line.Fragments[:len(line.Fragments)-1]
		line.recomputeWidth()
		line.Truncated = false
	}
	mark := e.markerFragment(marker, blk)
	frags := line.Fragments
	w := line.Width
	for len(frags) > 0 && w+mark.Advance > line.Available+epsilon {
		w -= frags[len(frags)-1].Advance
		frags = frags[:len(frags)-1]
	}
	if len(frags) < len(line.Fragments) {
		line.ElidedFrom = line.Fragments[len(frags)].Start
	}
	if len(frags) == 0 && mark.Advance > line.Available+epsilon {
		tracer().Debugf("overflow: marker %q (%.3f) wider than line %d (%.3f), emitting it alone",
			marker, mark.Advance, line.Index, line.Available)
	}
	mark.Start, mark.End = line.ElidedFrom, line.ElidedFrom
	line.Fragments = append(frags[:len(frags):len(frags)], mark)
	line.Width = w + mark.Advance
	line.Truncated = true
}

// markerFragment 塑形截断标记。标记只继承块自身的装饰，不继承被截掉的内容的样式。
func (e *Engine) markerFragment(marker string, blk *Block) Fragment {
	base := blk.style()
	st := base.Derive()
	st.Decorations = base.ownDecorations()
	text := []rune(marker)
	adv := 0.0
	clusters, err := e.shaper.Shape(text, st)
	if err != nil {
		tracer().Infof("shaping failure for marker %q: %v", marker, err)
	}
	for _, c := range clusters {
		if !c.Missing {
			adv += c.Advance
		}
		adv += st.LetterSpacing
	}
	return Fragment{
		Run:     -1,
		Text:    marker,
		Advance: adv,
		Level:   base.Direction.level(),
		Style:   st,
		Marker:  true,
	}
}

// clip 标记完全落在可用宽度之外的片段，它们保留几何信息但不会被绘制。
// 跨过边缘的片段照常绘制，由 Line.ClipWindow 给出可见部分。
func clip(line *Line) {
	line.Clip = true
	x := 0.0
	for i := range line.Fragments {
		f := &line.Fragments[i]
		if x >= line.Available-epsilon && f.Advance > 0 {
			f.Clipped = true
		}
		x += f.Advance
	}
}
