package layout

import "github.com/ByLCY/inkline/inline"

// BuildOptions 配置布局阶段所需的依赖，例如塑形后端。
type BuildOptions struct {
	// Shaper 提供字形簇、断行位置与字体度量；为 nil 时使用等宽的 inline.UniformShaper。
	Shaper inline.Shaper
	// Workers 限制推断 flow 宽度时的并发数，<= 0 表示不限制。
	Workers int
	Debug   DebugOptions
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	RawUnits bool // 在调试输出中写入 debug.rawUnits 影子字段
}
