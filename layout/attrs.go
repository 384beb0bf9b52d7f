package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/inkline/dsl"
)

// parseArgs 把 `[Style] key value key value ...` 形式的参数拆成样式名与属性表。
// 参数个数为奇数时首个 Ident 视为样式名。字符串参数保留引号，见 unquote。
func parseArgs(args []*dsl.Lexeme, allowStyle bool) (string, map[string]string) {
	result := map[string]string{}
	if len(args) == 0 {
		return "", result
	}

	cursor := 0
	var style string
	if allowStyle && len(args)%2 == 1 && args[0].Type == "Ident" {
		style = args[0].Value
		cursor = 1
	}

	for cursor < len(args)-1 {
		key := args[cursor].Value
		val := args[cursor+1].Value
		if args[cursor+1].Quoted() {
			val = args[cursor+1].Raw
		}
		result[key] = val
		cursor += 2
	}
	return style, result
}

// unquote 去掉属性值的引号；第二个返回值报告原值是否为字符串字面量。
func unquote(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		if s, err := strconv.Unquote(v); err == nil {
			return s, true
		}
		return v[1 : len(v)-1], true
	}
	return v, false
}

// attr 读取属性并去掉引号与首尾空白。
func attr(attrs map[string]string, key string) string {
	v, _ := unquote(attrs[key])
	return v
}

func mergeStyleAttributes(style string, own map[string]string, styles map[string]Style) map[string]string {
	out := make(map[string]string)
	if style != "" {
		if s, ok := styles[style]; ok {
			for k, v := range s.Props {
				out[k] = v
			}
		}
	}
	for k, v := range own {
		out[k] = v
	}
	return out
}

func resolveColor(value string, res ResourceSet) (Color, bool) {
	if value == "" {
		return Color{}, false
	}
	if c, ok := res.Colors[value]; ok {
		return c, true
	}
	if strings.HasPrefix(value, "#") {
		if c, err := parseColor(value); err == nil {
			return c, true
		}
	}
	tracer().Infof("color %q 无法解析，忽略", value)
	return Color{}, false
}

func parseColor(value string) (Color, error) {
	value = strings.TrimPrefix(value, "#")
	switch len(value) {
	case 3:
		r := strings.Repeat(string(value[0]), 2)
		g := strings.Repeat(string(value[1]), 2)
		b := strings.Repeat(string(value[2]), 2)
		return Color{R: mustHex(r), G: mustHex(g), B: mustHex(b)}, nil
	case 6, 8:
		return Color{
			R: mustHex(value[0:2]),
			G: mustHex(value[2:4]),
			B: mustHex(value[4:6]),
		}, nil
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func mustHex(s string) int {
	v, _ := strconv.ParseInt(s, 16, 64)
	return int(v)
}

// parseLength 返回毫米值；em 相对默认字号。
func parseLength(value string) float64 {
	return parseLengthEm(value, defaultFontSize)
}

// parseLengthEm 返回毫米值；em 相对 fontSize（mm）。无法解析时返回 0。
func parseLengthEm(value string, fontSize float64) float64 {
	if strings.TrimSpace(value) == "" {
		return 0
	}
	return ParseRawLengthStr(value).Resolve(fontSize)
}

func parseDimension(value string, reference float64) float64 {
	if value == "" {
		return 0
	}
	if num, ok := strings.CutSuffix(value, "%"); ok {
		if f, err := strconv.ParseFloat(num, 64); err == nil {
			return reference * f / 100
		}
		return 0
	}
	return parseLength(value)
}

func trimUnit(value string) string {
	for _, suffix := range []string{"pt", "mm", "cm", "in", "em", "%"} {
		if strings.HasSuffix(value, suffix) {
			return strings.TrimSuffix(value, suffix)
		}
	}
	return value
}

func alignOffset(container, width float64, align string) float64 {
	if container <= width {
		return 0
	}
	switch strings.ToLower(align) {
	case "center", "middle":
		return (container - width) / 2
	case "right", "end":
		return container - width
	default:
		return 0
	}
}
