// Package inline 实现行内排版引擎：把一个行内格式化上下文中的带样式文本
// 切分成 run，贪心折行，处理溢出截断与行数限制，按 bidi 视觉顺序对齐，
// 最后合并文字装饰线。字形度量通过 Shaper 接口获取，引擎本身不依赖具体字体。
//
// 流水线：Segment → lineBreaker → clamp/overflow → visualOrder → align → decorate。
package inline

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer 返回本包的 trace 通道。
func tracer() tracing.Trace {
	return tracing.Select("inkline.inline")
}

// ErrInvalidGeometry 表示可用宽度非法（≤ 0 或 NaN），调用方需要修正输入。
var ErrInvalidGeometry = errors.New("inline: invalid geometry")

const epsilon = 1e-9
