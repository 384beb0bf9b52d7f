package inline

// orderLine 为行计算一次视觉顺序，之后不再重算。
func orderLine(line *Line) {
	if line.ordered {
		return
	}
	levels := make([]uint8, len(line.Fragments))
	for i := range line.Fragments {
		levels[i] = line.Fragments[i].Level
	}
	line.Visual = visualOrder(levels)
	line.ordered = true
}

// visualOrder 按 UAX#9 规则 L2 把逻辑顺序映射为视觉顺序：
// 从最高层级到最低的奇数层级，逐级反转层级不低于当前值的连续片段。
func visualOrder(levels []uint8) []int {
	order := make([]int, len(levels))
	for i := range order {
		order[i] = i
	}
	if len(levels) == 0 {
		return order
	}
	maxLevel, minLevel := levels[0], levels[0]
	for _, l := range levels {
		maxLevel = max(maxLevel, l)
		minLevel = min(minLevel, l)
	}
	lowestOdd := minLevel | 1
	for lvl := int(maxLevel); lvl >= int(lowestOdd); lvl-- {
		for i := 0; i < len(order); {
			if int(levels[order[i]]) < lvl {
				i++
				continue
			}
			j := i
			for j < len(order) && int(levels[order[j]]) >= lvl {
				j++
			}
			reverse(order[i:j])
			i = j
		}
	}
	return order
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
