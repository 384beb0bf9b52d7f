// Package fonts 提供内置字体（Latin Modern），通过 `builtin:<name>` 引用。
package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmsans10bold"
	"github.com/go-fonts/latin-modern/lmsans10oblique"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// Default 是没有声明字体或字体加载失败时使用的内置字体。
const Default = "lmroman10-regular"

var builtin = map[string][]byte{
	"lmroman10-regular":    lmroman10regular.TTF,
	"lmroman10-bold":       lmroman10bold.TTF,
	"lmroman10-italic":     lmroman10italic.TTF,
	"lmroman10-bolditalic": lmroman10bolditalic.TTF,
	"lmsans10-regular":     lmsans10regular.TTF,
	"lmsans10-bold":        lmsans10bold.TTF,
	"lmsans10-oblique":     lmsans10oblique.TTF,
	"lmmono10-regular":     lmmono10regular.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "builtin:lmroman10-regular" 或直接 "lmroman10-regular"。
func Load(name string) ([]byte, error) {
	name = strings.TrimPrefix(strings.TrimPrefix(name, "builtin:"), "built-in:")
	data, ok := builtin[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("找不到内置字体 %s（可用：%s）", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Names 列出所有内置字体名。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
