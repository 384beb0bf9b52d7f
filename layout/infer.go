package layout

import (
	"context"
	"math"

	"github.com/ByLCY/inkline/dsl"
	"github.com/ByLCY/inkline/inline"
)

const unboundedWidth = 1e9

// inferFlowWidth 估算 flow 的内容宽度：把所有 text 按不折行宽度排版，取最宽的一行。
// 多个 text 通过 LayoutAll 并行排版。无法估算时返回 0。
func (b *builder) inferFlowWidth(block *dsl.Block, attrs, inherit map[string]string, limit float64) float64 {
	merged := make(map[string]string, len(inherit)+len(attrs))
	for k, v := range inherit {
		merged[k] = v
	}
	for _, k := range inheritedKeys {
		if v, ok := attrs[k]; ok {
			merged[k] = v
		}
	}

	var blocks []*inline.Block
	var walk func(*dsl.Block)
	walk = func(blk *dsl.Block) {
		for _, stmt := range blk.Statements {
			cmd := stmt.Command
			if cmd == nil || cmd.Block == nil {
				continue
			}
			switch cmd.Name {
			case "text":
				req, err := b.prepareText(cmd, merged, unboundedWidth)
				if err != nil {
					tracer().Debugf("infer width: %v", err)
					continue
				}
				req.block.Align = inline.AlignStart
				req.block.AlignLast = inline.AlignAuto
				req.block.Justify = inline.JustifyNone
				req.block.Clamp = inline.Clamp{}
				req.block.Overflow = inline.OverflowVisible
				req.block.TextOverflow = inline.TextOverflow{}
				blocks = append(blocks, req.block)
			case "flow":
				walk(cmd.Block)
			}
		}
	}
	walk(block)
	if len(blocks) == 0 {
		return 0
	}

	results, err := b.engine.LayoutAll(context.Background(), blocks, b.workers)
	if err != nil {
		tracer().Infof("infer width: %v", err)
		return 0
	}
	widest := 0.0
	for _, r := range results {
		for _, line := range r.Lines {
			widest = math.Max(widest, line.Width)
		}
	}
	return math.Min(math.Ceil(widest*100)/100, limit)
}
