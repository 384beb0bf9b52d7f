package inline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Engine 是行内排版引擎。它本身不保存排版状态，可以被多个 goroutine 共享，
// 前提是 Shaper 并发安全。
type Engine struct {
	shaper Shaper
}

// NewEngine 以给定的 Shaper 创建引擎；s 为 nil 时使用 UniformShaper。
func NewEngine(s Shaper) *Engine {
	if s == nil {
		s = UniformShaper{}
	}
	return &Engine{shaper: s}
}

// Shaper 返回引擎使用的塑形器。
func (e *Engine) Shaper() Shaper {
	return e.shaper
}

// Layout 排版一个块。ctx 为 nil 时块自成一个分片上下文。
func (e *Engine) Layout(ctx *Context, blk *Block) (*Result, error) {
	if blk == nil {
		return nil, errors.New("inline: nil block")
	}
	if w := blk.widthAt(0); !(w > 0) {
		return nil, fmt.Errorf("%w: available width %g", ErrInvalidGeometry, w)
	}
	st := blk.style()
	text, styles := collapseWhiteSpace(blk.Content, st)
	para, err := e.segment(text, styles, st.Direction)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, blk, para, 0)
}

// Resume 在新的分片容器中继续排版上一次留下的内容。调用前通常需要 ctx.Reset()。
func (e *Engine) Resume(ctx *Context, rem *Remainder) (*Result, error) {
	if rem == nil {
		return nil, errors.New("inline: nothing to resume")
	}
	return e.run(ctx, rem.block, rem.para, rem.cluster)
}

func (e *Engine) run(ctx *Context, blk *Block, para *Paragraph, from int) (*Result, error) {
	if ctx == nil {
		ctx = NewContext(Clamp{})
	}
	state := ctx.stateFor(blk)
	br := newLineBreaker(e, para, blk, from)
	res := &Result{Paragraph: para}

	if state.reached() && !state.Exhausted {
		// 前一个块恰好停在上限上，但调用方没有声明 MoreFollows
		tracer().Debugf("clamp: limit %d already reached on entry", state.MaxLines)
		state.Exhausted = true
	}
	if state.Exhausted {
		// 上限已被前面的块用尽
		if state.Continue == ContinueDiscard {
			dropped, err := br.drain()
			if err != nil {
				return nil, err
			}
			res.Dropped = dropped
			return res, nil
		}
		res.Remainder = &Remainder{para: para, block: blk, cluster: from}
		return res, nil
	}

	for {
		line, ok, err := br.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		res.Lines = append(res.Lines, line)
		last := &res.Lines[len(res.Lines)-1]
		if !e.admit(state, last, blk, !br.done || blk.MoreFollows) {
			continue
		}
		if br.done {
			break
		}
		if state.Continue == ContinueDiscard {
			dropped, err := br.drain()
			if err != nil {
				return nil, err
			}
			res.Dropped = dropped
		} else {
			res.Remainder = &Remainder{para: para, block: blk, cluster: br.pos}
		}
		break
	}

	e.finish(res, blk)
	return res, nil
}

// finish 依次做溢出处理、纵向度量、bidi 排序、对齐与装饰合并，并按行叠放。
func (e *Engine) finish(res *Result, blk *Block) {
	y := 0.0
	for i := range res.Lines {
		line := &res.Lines[i]
		e.resolveOverflow(line, blk)
		e.measureLine(line, blk)
		alignLine(line, blk, i == len(res.Lines)-1, len(res.Lines) == 1)
		e.decorate(line)
		line.Y = y
		y += line.Height
	}
	res.Height = y
}

// measureLine 取行内所有样式（以及块样式作为支柱）中最大的行高与基线位置。
func (e *Engine) measureLine(line *Line, blk *Block) {
	seen := map[*Style]bool{}
	height, baseline := 0.0, 0.0
	consider := func(st *Style) {
		if st == nil || seen[st] {
			return
		}
		seen[st] = true
		m := e.shaper.Metrics(st)
		lh := st.lineHeight()
		height = max(height, lh)
		baseline = max(baseline, (lh-(m.Ascent+m.Descent))/2+m.Ascent)
	}
	consider(blk.style())
	for i := range line.Fragments {
		consider(line.Fragments[i].Style)
	}
	line.Height = height
	line.Baseline = baseline
	for i := range line.Fragments {
		line.Fragments[i].Y = baseline
	}
}

// LayoutAll 并行排版互不相关的块，每个块自成一个分片上下文。
// workers ≤ 0 时不限制并发数。结果与 blocks 一一对应。
func (e *Engine) LayoutAll(ctx context.Context, blocks []*Block, workers int) ([]*Result, error) {
	results := make([]*Result, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, blk := range blocks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.Layout(NewContext(Clamp{}), blk)
			if err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
