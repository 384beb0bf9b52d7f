package inline

// alignLine 在视觉顺序确定后为片段分配横向位置。
// last 表示块的最后一行，sole 表示块只有一行。
func alignLine(line *Line, blk *Block, last, sole bool) {
	orderLine(line)
	frags := line.visualFragments()
	base := blk.style().Direction

	mode := blk.Align
	if last || line.Forced {
		switch {
		case blk.AlignLast != AlignAuto:
			mode = blk.AlignLast
		case mode == AlignJustify && !(sole && !line.Forced):
			mode = AlignStart
		}
	}

	slack := line.Available - line.Width
	if mode == AlignJustify && slack > epsilon && !line.Truncated {
		if !justify(frags, slack, blk.Justify) {
			mode = AlignStart
		} else {
			slack = 0
		}
	}

	offset := 0.0
	side := physical(mode, base)
	switch {
	case slack < 0:
		// 溢出的行总是从起始边开始排
		if base == RTL {
			offset = slack
		}
	case side == AlignRight:
		offset = slack
	case side == AlignCenter:
		offset = slack / 2
	}

	x := offset
	for _, f := range frags {
		f.X = x
		x += f.Width()
	}
}

// physical 把逻辑对齐方式换算成 left/right/center，justify 的起始边按 start 处理。
func physical(mode Align, base Direction) Align {
	switch mode {
	case AlignLeft, AlignRight, AlignCenter:
		return mode
	case AlignEnd:
		if base == RTL {
			return AlignLeft
		}
		return AlignRight
	default:
		if base == RTL {
			return AlignRight
		}
		return AlignLeft
	}
}

// justify 把空余宽度平均分配到可伸展的位置。没有可伸展位置时返回 false。
func justify(frags []*Fragment, slack float64, mode JustifyMode) bool {
	var slots []*Fragment
	switch mode {
	case JustifyInterWord:
		for _, f := range frags {
			if f.space && !f.Clipped {
				slots = append(slots, f)
			}
		}
	case JustifyInterCharacter:
		for i, f := range frags {
			if i < len(frags)-1 && !f.Hidden && !f.Clipped {
				slots = append(slots, f)
			}
		}
	}
	if len(slots) == 0 {
		return false
	}
	per := slack / float64(len(slots))
	for _, f := range slots {
		f.Extra = per
	}
	return true
}
