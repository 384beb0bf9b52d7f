package inline

import (
	"fmt"
	"math"
)

type breakState int

const (
	stateAccumulating breakState = iota
	stateFitting
	stateOverflowed
	stateEmitted
)

func (s breakState) String() string {
	return [...]string{"accumulating", "fitting", "overflowed", "emitted"}[s]
}

// lineBreaker 贪心地从段落中逐行取出内容。
type lineBreaker struct {
	para   *Paragraph
	block  *Block
	shaper Shaper
	pos    int // 下一行的起始簇
	lineNo int
	done   bool
	state  breakState
	spaces map[*Style]float64
}

func newLineBreaker(e *Engine, para *Paragraph, blk *Block, from int) *lineBreaker {
	return &lineBreaker{
		para:   para,
		block:  blk,
		shaper: e.shaper,
		pos:    from,
		spaces: map[*Style]float64{},
	}
}

func (b *lineBreaker) style(c *Cluster) *Style {
	return b.para.Runs[c.run].Style
}

func (b *lineBreaker) spaceAdvance(st *Style) float64 {
	if w, ok := b.spaces[st]; ok {
		return w
	}
	w := b.shaper.Measure([]rune{' '}, st)
	b.spaces[st] = w
	return w
}

// advance 返回簇在笔位 x 处的前进量。制表符对齐到以行首为原点的下一个制表位。
func (b *lineBreaker) advance(c *Cluster, x float64) float64 {
	st := b.style(c)
	switch c.kind {
	case clusterNewline, clusterHidden:
		return 0
	case clusterTab:
		stop := st.tabSize() * (b.spaceAdvance(st) + st.LetterSpacing + st.WordSpacing)
		if stop <= epsilon {
			return 0
		}
		adv := stop - math.Mod(x, stop)
		if adv < epsilon {
			adv = stop
		}
		return adv
	case clusterSpace:
		return c.Advance + st.LetterSpacing + st.WordSpacing
	}
	return c.Advance + st.LetterSpacing
}

// canForce 报告没有软断点时能否在溢出字符处强制断行。
// 行框禁止溢出时不强制断开，交给溢出处理裁剪或截断。
func (b *lineBreaker) canForce(c *Cluster) bool {
	st := b.style(c)
	return b.block.Overflow == OverflowVisible && st.Wrap == WrapAnywhere && st.WhiteSpace.wraps()
}

func (b *lineBreaker) textPos(k int) int {
	if k >= len(b.para.clusters) {
		return len(b.para.Text)
	}
	return b.para.clusters[k].Start
}

// next 产出下一行。段落取尽后返回 false；空段落也会产出一行空行。
func (b *lineBreaker) next() (Line, bool, error) {
	if b.done {
		return Line{}, false, nil
	}
	avail := b.block.widthAt(b.lineNo)
	if !(avail > 0) {
		return Line{}, false, fmt.Errorf("%w: line %d has available width %g", ErrInvalidGeometry, b.lineNo, avail)
	}
	cl := b.para.clusters
	n := len(cl)
	start := b.pos
	k := start
	for k < n && cl[k].collapsible && b.style(&cl[k]).WhiteSpace.collapsesSpaces() {
		k++
	}
	contentStart := k

	var (
		x         float64
		candidate = -1
		end       = -1
		forced    bool
		overrun   bool
	)
	b.state = stateAccumulating
	for ; k < n; k++ {
		c := &cl[k]
		if k > contentStart && b.para.BreakAt(c.Start) == BreakSoft {
			if overrun {
				end = k
				break
			}
			candidate = k
		}
		if c.kind == clusterNewline {
			end = k + 1
			forced = true
			break
		}
		adv := b.advance(c, x)
		if !c.collapsible && !overrun && k > contentStart && x+adv > avail+epsilon {
			b.state = stateOverflowed
			if candidate >= 0 {
				end = candidate
				break
			}
			if b.canForce(c) {
				end = k
				break
			}
			overrun = true
		} else if !overrun {
			b.state = stateFitting
		}
		x += adv
	}
	if end < 0 {
		end = n
	}

	line := b.assemble(start, contentStart, end, avail)
	line.Forced = forced
	line.Overrun = overrun
	tracer().Debugf("line %d: [%d,%d) width %.3f/%.3f after %s", line.Index, line.Start, line.End, line.Width, avail, b.state)
	b.state = stateEmitted

	b.pos = end
	b.lineNo++
	if end >= n {
		b.done = true
	}
	return line, true, nil
}

// assemble 把簇区间转换成片段，行尾可折叠空白与零宽字符不进入片段列表。
func (b *lineBreaker) assemble(start, contentStart, end int, avail float64) Line {
	cl := b.para.clusters
	last := end
	for last > contentStart {
		c := &cl[last-1]
		if c.kind == clusterNewline || c.kind == clusterHidden || c.collapsible {
			last--
			continue
		}
		break
	}
	line := Line{
		Index:     b.lineNo,
		Start:     b.textPos(start),
		End:       b.textPos(end),
		Available: avail,
	}
	line.ElidedFrom = line.End
	x := 0.0
	for k := contentStart; k < last; k++ {
		c := &cl[k]
		run := b.para.Runs[c.run]
		adv := b.advance(c, x)
		line.Fragments = append(line.Fragments, Fragment{
			Run:        c.run,
			Start:      c.Start,
			End:        c.End,
			Text:       string(b.para.Text[c.Start:c.End]),
			Advance:    adv,
			Level:      run.Level,
			Style:      run.Style,
			Hidden:     c.kind == clusterHidden || c.kind == clusterTab,
			space:      c.kind == clusterSpace,
			collapsing: c.collapsible,
		})
		x += adv
	}
	line.Width = x
	return line
}

// drain 把剩余内容全部断成行，用于追踪被丢弃的内容。
func (b *lineBreaker) drain() ([]Line, error) {
	var out []Line
	for {
		line, ok, err := b.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, line)
	}
}
