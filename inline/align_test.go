package inline

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func xs(l *Line) []float64 {
	var out []float64
	for _, f := range l.Painted() {
		out = append(out, f.X)
	}
	return out
}

func TestAlignRightShiftsBySlack(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.inline")
	defer teardown()

	blk := single("a c e", 3.5, squares())
	blk.Align = AlignRight
	res, err := NewEngine(nil).Layout(nil, blk)
	require.NoError(t, err)
	require.Equal(t, []string{"a c", "e"}, lineTexts(res.Lines))
	assert.InDeltaSlice(t, []float64{0.5, 1.5, 2.5}, xs(&res.Lines[0]), 1e-9)
	assert.InDeltaSlice(t, []float64{2.5}, xs(&res.Lines[1]), 1e-9)

	blk.Align = AlignCenter
	res, err = NewEngine(nil).Layout(nil, blk)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.25}, xs(&res.Lines[1]), 1e-9)
}

func TestJustifyExemptsLastLine(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.inline")
	defer teardown()

	blk := single("a c e", 3.5, squares())
	blk.Align = AlignJustify
	res, err := NewEngine(nil).Layout(nil, blk)
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	assert.InDeltaSlice(t, []float64{0, 1, 2.5}, xs(&res.Lines[0]), 1e-9)
	assert.InDeltaSlice(t, []float64{0}, xs(&res.Lines[1]), 1e-9)

	blk.AlignLast = AlignRight
	res, err = NewEngine(nil).Layout(nil, blk)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.5}, xs(&res.Lines[1]), 1e-9)
}

func TestJustifySoleLine(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.inline")
	defer teardown()

	blk := single("a c", 5, squares())
	blk.Align = AlignJustify
	res, err := NewEngine(nil).Layout(nil, blk)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1, 4}, xs(&res.Lines[0]), 1e-9)

	blk = single("ace", 5, squares())
	blk.Align = AlignJustify
	blk.Justify = JustifyInterCharacter
	res, err = NewEngine(nil).Layout(nil, blk)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 2, 4}, xs(&res.Lines[0]), 1e-9)

	// 没有可伸展的位置时退回起始边
	blk = single("ace", 5, squares())
	blk.Align = AlignJustify
	res, err = NewEngine(nil).Layout(nil, blk)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1, 2}, xs(&res.Lines[0]), 1e-9)
}

func TestSpacing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.inline")
	defer teardown()

	e := NewEngine(nil)
	res, err := e.Layout(nil, single("a b", 20, squares(func(s *Style) { s.WordSpacing = 1 })))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1, 3}, xs(&res.Lines[0]), 1e-9)

	res, err = e.Layout(nil, single("ace", 20, squares(func(s *Style) { s.LetterSpacing = 2 })))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 3, 6}, xs(&res.Lines[0]), 1e-9)
}

func TestTabStops(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.inline")
	defer teardown()

	st := squares(func(s *Style) {
		s.WhiteSpace = WhiteSpacePre
		s.TabSize = 3
	})
	res, err := NewEngine(nil).Layout(nil, single("a\tb", 20, st))
	require.NoError(t, err)
	painted := res.Lines[0].Painted()
	require.Len(t, painted, 2)
	assert.Equal(t, "b", painted[1].Text)
	assert.InDelta(t, 3.0, painted[1].X, 1e-9)
}

func TestZeroWidthNonJoiner(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.inline")
	defer teardown()

	res, err := NewEngine(nil).Layout(nil, single("a\u200cb", 20, squares()))
	require.NoError(t, err)
	painted := res.Lines[0].Painted()
	require.Len(t, painted, 2)
	assert.InDelta(t, 1.0, painted[1].X, 1e-9)
	assert.InDelta(t, 2.0, res.Lines[0].Width, 1e-9)
}

func TestVisualOrder(t *testing.T) {
	for _, tc := range []struct {
		levels []uint8
		want   []int
	}{
		{nil, []int{}},
		{[]uint8{0, 0, 0}, []int{0, 1, 2}},
		{[]uint8{0, 1, 1, 0}, []int{0, 2, 1, 3}},
		{[]uint8{1, 1, 2, 2, 1}, []int{4, 2, 3, 1, 0}},
	} {
		assert.Equal(t, tc.want, visualOrder(tc.levels), "%v", tc.levels)
	}
}

func TestMixedDirectionLine(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inkline.inline")
	defer teardown()

	// 希伯来字母 alef bet 在 LTR 段落中反向排列
	res, err := NewEngine(nil).Layout(nil, single("a אב b", 20, squares()))
	require.NoError(t, err)
	var visual []string
	for _, f := range res.Lines[0].Painted() {
		visual = append(visual, f.Text)
	}
	assert.Equal(t, []string{"a", " ", "ב", "א", " ", "b"}, visual)
}
