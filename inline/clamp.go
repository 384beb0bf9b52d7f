package inline

import "fmt"

// ClampState 是一个分片上下文的行数计数。只由 Engine 在排版时修改。
type ClampState struct {
	Clamp
	Produced  int
	Exhausted bool
}

func (s *ClampState) reached() bool {
	return s.Limited() && s.Produced >= s.MaxLines
}

// Context 是一个分片上下文，保存跨块延续的运行状态（行数计数、是否已用尽）。
// 同一 Context 中的块必须按文档顺序依次排版；不同 Context 之间互不影响，可以并行。
type Context struct {
	clamp *ClampState
	// Notes 记录排版过程中做出的策略性决定，例如嵌套的行数限制冲突。
	Notes []string
}

// NewContext 创建分片上下文。c 限制行数时，该上下文内的所有块共享同一个计数。
func NewContext(c Clamp) *Context {
	ctx := &Context{}
	if c.Limited() {
		ctx.clamp = &ClampState{Clamp: c}
	}
	return ctx
}

// Reset 在进入新的分片容器（例如新的一页）时清零计数。
func (ctx *Context) Reset() {
	if ctx.clamp != nil {
		ctx.clamp.Produced = 0
		ctx.clamp.Exhausted = false
	}
}

// Exhausted 报告上下文的行数上限是否已经用尽。
func (ctx *Context) Exhausted() bool {
	return ctx.clamp != nil && ctx.clamp.Exhausted
}

// Produced 返回当前分片容器中已经计数的行数。
func (ctx *Context) Produced() int {
	if ctx.clamp == nil {
		return 0
	}
	return ctx.clamp.Produced
}

// Limit 返回上下文的行数上限；0 表示不限制。
func (ctx *Context) Limit() int {
	if ctx == nil || ctx.clamp == nil {
		return 0
	}
	return ctx.clamp.MaxLines
}

// Notef 记录一条策略说明，供调用方报告由外部决定的冲突。
func (ctx *Context) Notef(format string, args ...any) {
	ctx.note(format, args...)
}

// stateFor 决定块使用哪个计数。块自己声明了限制时总是以块为准（就近优先），
// 若外层上下文也有限制则记录一条冲突说明。
func (ctx *Context) stateFor(blk *Block) *ClampState {
	if blk.Clamp.Limited() {
		if ctx.clamp != nil {
			ctx.note("clamp conflict: block max-lines %d overrides enclosing max-lines %d", blk.Clamp.MaxLines, ctx.clamp.MaxLines)
		}
		return &ClampState{Clamp: blk.Clamp}
	}
	if ctx.clamp != nil {
		return ctx.clamp
	}
	return &ClampState{}
}

func (ctx *Context) note(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	ctx.Notes = append(ctx.Notes, msg)
	tracer().Infof("%s", msg)
}

// admit 在一行产出后更新计数。返回 true 表示上限已经用尽且仍有后续内容，
// 此时 last 会按配置追加截断标记。
func (e *Engine) admit(state *ClampState, last *Line, blk *Block, more bool) bool {
	state.Produced++
	if !state.reached() || !more {
		return false
	}
	state.Exhausted = true
	if state.Marker != "" {
		e.truncate(last, state.Marker, blk)
	}
	tracer().Debugf("clamp: limit %d reached at line %d", state.MaxLines, last.Index)
	return true
}
