package layout

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"github.com/ByLCY/inkline/dsl"
	"github.com/ByLCY/inkline/inline"
)

// tracer traces with key 'inkline.layout'.
func tracer() tracing.Trace {
	return tracing.Select("inkline.layout")
}

// ErrNoPages 表示文档中没有 page 段落。
var ErrNoPages = errors.New("layout: document has no page section")

const blockSpacing = 3.0

// Build 根据 DSL AST 生成页面与已排好的文本块。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	shaper := opts.Shaper
	if shaper == nil {
		shaper = inline.UniformShaper{}
	}

	res, err := collectResources(doc)
	if err != nil {
		return nil, err
	}
	meta := collectMeta(doc)
	pageSection := firstPage(doc)
	if pageSection == nil {
		return nil, ErrNoPages
	}

	b := &builder{
		engine:  inline.NewEngine(inline.NewCachedShaper(shaper)),
		res:     res,
		data:    data,
		workers: opts.Workers,
		debug:   opts.Debug,
	}
	pages, err := b.buildPages(pageSection)
	if err != nil {
		return nil, err
	}

	return &Result{
		Pages:     pages,
		Resources: res,
		Meta:      meta,
		Notes:     b.notes(),
	}, nil
}

// builder 保存一次 Build 的共享状态。
type builder struct {
	engine    *inline.Engine
	res       ResourceSet
	data      any
	workers   int
	debug     DebugOptions
	collector *pageCollector
	contexts  []*inline.Context
}

func (b *builder) newContext(c inline.Clamp) *inline.Context {
	ctx := inline.NewContext(c)
	b.contexts = append(b.contexts, ctx)
	return ctx
}

func (b *builder) notes() []string {
	var out []string
	for _, ctx := range b.contexts {
		out = append(out, ctx.Notes...)
	}
	return out
}

func (b *builder) buildPages(section *dsl.PageSection) ([]Page, error) {
	width, height, err := resolvePageSize(section.Spec)
	if err != nil {
		return nil, err
	}
	if section.Block == nil {
		return nil, fmt.Errorf("page 段落缺少内容")
	}
	margin := resolveMargin(section.Spec.Params)
	b.collector = newPageCollector(width, height, margin)

	root := &flowContext{
		b:              b,
		baseX:          margin.Left,
		baseY:          b.collector.contentTop(),
		width:          width - margin.Left - margin.Right,
		cursorY:        b.collector.contentTop(),
		margin:         margin,
		allowPageBreak: true,
		inherit:        map[string]string{},
		frag:           b.newContext(inline.Clamp{}),
	}
	if err := root.processBlock(section.Block); err != nil {
		return nil, err
	}
	return b.collector.pages(), nil
}

// flowContext 是一个流式排版区域：横向基准、可用宽度与纵向游标。
type flowContext struct {
	b              *builder
	baseX          float64
	baseY          float64
	width          float64
	cursorY        float64
	parent         *flowContext
	margin         Margin
	allowPageBreak bool
	// inherit 是父 flow 传给子 text 的属性（align/wrap/direction 等）。
	inherit map[string]string
	// frag 是行数限制的分片上下文；没有声明限制的 flow 沿用父级的上下文。
	frag *inline.Context
	// more 表示同一分片上下文中，本 flow 之后还有内容。
	more bool
}

// processBlock 依次处理 block 内的命令，支持 flow、absolute、text。
func (ctx *flowContext) processBlock(block *dsl.Block) error {
	for i, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		cmd := stmt.Command
		more := ctx.more || ctx.b.hasTextAfter(block.Statements[i+1:])
		var err error
		switch cmd.Name {
		case "flow":
			err = ctx.handleFlow(cmd, more)
		case "absolute":
			err = ctx.handleAbsolute(cmd)
		case "text":
			err = ctx.handleText(cmd, more)
		default:
			tracer().Debugf("%s: 命令 %s 暂未实现，忽略", cmd.Pos, cmd.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// hasTextAfter 报告后续语句中是否还有属于同一分片上下文的 text。
// 自己声明了行数限制的 flow 另起上下文，不计入。
func (b *builder) hasTextAfter(stmts []*dsl.Statement) bool {
	for _, st := range stmts {
		cmd := st.Command
		if cmd == nil {
			continue
		}
		switch cmd.Name {
		case "text":
			return true
		case "flow":
			if cmd.Block == nil || b.declaresClamp(cmd) {
				continue
			}
			if b.hasTextAfter(cmd.Block.Statements) {
				return true
			}
		}
	}
	return false
}

func (b *builder) declaresClamp(cmd *dsl.Command) bool {
	styleName, attrs := parseArgs(cmd.Args, true)
	attrs = mergeStyleAttributes(styleName, attrs, b.res.Styles)
	_, set, err := parseClamp(attrs)
	return set && err == nil
}

func (ctx *flowContext) child(baseX, width float64) *flowContext {
	inherit := make(map[string]string, len(ctx.inherit))
	for k, v := range ctx.inherit {
		inherit[k] = v
	}
	return &flowContext{
		b:              ctx.b,
		baseX:          baseX,
		baseY:          ctx.cursorY,
		width:          width,
		cursorY:        ctx.cursorY,
		parent:         ctx,
		margin:         ctx.margin,
		allowPageBreak: ctx.allowPageBreak,
		inherit:        inherit,
		frag:           ctx.frag,
		more:           ctx.more,
	}
}

func (ctx *flowContext) handleFlow(cmd *dsl.Command, more bool) error {
	if cmd.Block == nil {
		return fmt.Errorf("flow 语句缺少子内容")
	}
	styleName, attrs := parseArgs(cmd.Args, true)
	attrs = mergeStyleAttributes(styleName, attrs, ctx.b.res.Styles)

	width := ctx.width
	if v := attr(attrs, "width"); v != "" {
		if w := parseDimension(v, ctx.width); w > 0 && w <= ctx.width {
			width = w
		}
	} else if a := strings.ToLower(attr(attrs, "align")); a == "center" || a == "right" || a == "end" {
		if inferred := ctx.b.inferFlowWidth(cmd.Block, attrs, ctx.inherit, ctx.width); inferred > 0 {
			width = math.Min(inferred, ctx.width)
		}
	}
	offset := alignOffset(ctx.width, width, attr(attrs, "align"))

	child := ctx.child(ctx.baseX+offset, width)
	for _, k := range inheritedKeys {
		if v, ok := attrs[k]; ok && strings.TrimSpace(v) != "" {
			child.inherit[k] = v
		}
	}
	clamp, set, err := parseClamp(attrs)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Pos, err)
	}
	if set {
		// 声明了行数限制（或 line-clamp none）的 flow 自成一个分片上下文
		if outer := ctx.frag.Limit(); outer > 0 {
			inner := "none"
			if clamp.Limited() {
				inner = strconv.Itoa(clamp.MaxLines)
			}
			ctx.frag.Notef("%s: clamp conflict: flow max-lines %s overrides enclosing max-lines %d", cmd.Pos, inner, outer)
		}
		child.frag = ctx.b.newContext(clamp)
		child.more = false
	} else {
		child.more = more
	}

	if err := child.processBlock(cmd.Block); err != nil {
		return err
	}
	if child.cursorY > ctx.cursorY {
		ctx.cursorY = child.cursorY + blockSpacing
	}
	return nil
}

func (ctx *flowContext) handleAbsolute(cmd *dsl.Command) error {
	if cmd.Block == nil {
		return fmt.Errorf("absolute 语句缺少子内容")
	}
	styleName, attrs := parseArgs(cmd.Args, true)
	attrs = mergeStyleAttributes(styleName, attrs, ctx.b.res.Styles)
	width := ctx.width
	if v := attr(attrs, "width"); v != "" {
		if w := parseDimension(v, ctx.width); w > 0 {
			width = w
		}
	}
	offsetX := parseDimension(attr(attrs, "x"), ctx.width)
	offsetY := parseDimension(attr(attrs, "y"), ctx.width)

	child := ctx.child(ctx.baseX+offsetX, width)
	child.baseY = ctx.baseY + offsetY
	child.cursorY = child.baseY
	child.allowPageBreak = false
	child.frag = ctx.b.newContext(inline.Clamp{})
	child.more = false
	return child.processBlock(cmd.Block)
}

// textRequest 是解析完成、等待排版的 text 语句。
type textRequest struct {
	block *inline.Block
	attrs map[string]string
	proto TextBox
}

// prepareText 解析 text 语句的属性与内容。inherit 中的属性优先级低于 text 自身。
func (b *builder) prepareText(cmd *dsl.Command, inherit map[string]string, width float64) (*textRequest, error) {
	if cmd.Block == nil {
		return nil, fmt.Errorf("text 语句缺少文本块")
	}
	styleName, own := parseArgs(cmd.Args, true)
	attrs := mergeStyleAttributes("", inherit, nil)
	for k, v := range mergeStyleAttributes(styleName, own, b.res.Styles) {
		attrs[k] = v
	}

	st, err := resolveStyle(styleName, attrs, rootStyle(b.res), 0, b.res)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Pos, err)
	}
	pieces, err := collectPieces(cmd.Block, st, 0, b.res, b.data)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%s: text 语句缺少文本内容", cmd.Pos)
	}
	blk, err := resolveBlock(attrs, st)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Pos, err)
	}
	blk.Content = pieces
	blk.Width = width

	proto := TextBox{
		Content:    piecesText(pieces),
		Width:      width,
		LineHeight: st.LineHeight,
		Font:       st.Font.Name,
		FontSize:   st.Size,
		Color:      st.Color,
		Align:      strings.ToLower(attr(attrs, "align")),
		Direction:  st.Direction.String(),
		Wrap:       normalizeWrap(attr(attrs, "wrap")),
	}
	if b.debug.RawUnits {
		proto.Debug = rawUnitsFor(attrs)
	}
	return &textRequest{block: blk, attrs: attrs, proto: proto}, nil
}

// handleText 排版一个 text 语句并逐行放入页面。行数限制以 continue: auto 结束时，
// 剩余内容在下一页（新的分片容器）继续排版。
func (ctx *flowContext) handleText(cmd *dsl.Command, more bool) error {
	req, err := ctx.b.prepareText(cmd, ctx.inherit, ctx.width)
	if err != nil {
		return err
	}
	req.block.MoreFollows = more

	engine := ctx.b.engine
	out, err := engine.Layout(ctx.frag, req.block)
	continued := false
	for {
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Pos, err)
		}
		ctx.placeLines(out, req.proto, continued)
		if out.Remainder == nil {
			break
		}
		if !ctx.allowPageBreak {
			tracer().Infof("%s: 剩余内容无法分页，丢弃（从第 %d 个字符起）", cmd.Pos, out.Remainder.Offset())
			break
		}
		ctx.pageBreak()
		ctx.frag.Reset()
		continued = true
		out, err = engine.Resume(ctx.frag, out.Remainder)
	}
	ctx.cursorY += blockSpacing
	return nil
}

// placeLines 把排好的行放到当前页，放不下的行换到新页；跨页时拆成多个 TextBox。
func (ctx *flowContext) placeLines(out *inline.Result, proto TextBox, continued bool) {
	if len(out.Lines) == 0 {
		if len(out.Dropped) > 0 {
			tracer().Debugf("text: %d 行因行数限制被丢弃", len(out.Dropped))
		}
		return
	}
	box := ctx.newBox(proto, continued)
	flush := func() {
		if len(box.Lines) == 0 {
			return
		}
		if acc := ctx.acc(); acc != nil {
			acc.appendText(box)
		}
	}
	for i := range out.Lines {
		line := &out.Lines[i]
		if ctx.needsBreak(line.Height) {
			flush()
			ctx.pageBreak()
			box = ctx.newBox(proto, true)
		}
		box.Lines = append(box.Lines, ctx.b.convertLine(line, ctx.baseX, ctx.cursorY))
		box.Height += line.Height
		ctx.cursorY += line.Height
	}
	box.Dropped = len(out.Dropped)
	flush()
}

func (ctx *flowContext) newBox(proto TextBox, continued bool) TextBox {
	box := proto
	box.X = ctx.baseX
	box.Y = ctx.cursorY
	box.Continued = continued
	box.Lines = nil
	box.Height = 0
	return box
}

// convertLine 把引擎坐标（相对行框）换算为页面坐标。
func (b *builder) convertLine(line *inline.Line, x, y float64) TextLine {
	tl := TextLine{
		Content:   line.Text(),
		X:         x,
		Y:         y,
		Width:     line.Width,
		Height:    line.Height,
		Baseline:  y + line.Baseline,
		Truncated: line.Truncated,
	}
	for _, f := range line.Painted() {
		if f.Style == nil {
			continue
		}
		g := Glyph{
			Text:   f.Text,
			X:      x + f.X,
			Y:      y + f.Y,
			Width:  f.Width(),
			Font:   f.Style.Font.Name,
			Size:   f.Style.Size,
			Color:  f.Style.Color,
			Marker: f.Marker,
		}
		if from, to, ok := line.ClipWindow(&f); ok {
			g.Clip = &GlyphClip{From: from, To: to}
		}
		tl.Glyphs = append(tl.Glyphs, g)
	}
	for _, d := range line.Decorations {
		tl.Decorations = append(tl.Decorations, DecorationRect{
			Kind:      d.Kind.String(),
			X:         x + d.X,
			Y:         y + d.Y,
			Width:     d.Width,
			Thickness: d.Thickness,
			Color:     d.Color,
		})
	}
	return tl
}

// needsBreak 报告当前页剩余空间是否放不下高度为 height 的一行。
// 页顶的行即使放不下也不换页，避免死循环。
func (ctx *flowContext) needsBreak(height float64) bool {
	if !ctx.allowPageBreak || ctx.b.collector == nil {
		return false
	}
	if ctx.cursorY+height <= ctx.b.collector.maxContentY() {
		return false
	}
	return ctx.cursorY > ctx.b.collector.contentTop()+1e-9
}

func (ctx *flowContext) pageBreak() {
	if ctx.b.collector == nil {
		return
	}
	if ctx.parent != nil {
		ctx.parent.pageBreak()
		ctx.baseY = ctx.parent.cursorY
		ctx.cursorY = ctx.baseY
		return
	}
	ctx.b.collector.newPage()
	ctx.baseX = ctx.margin.Left
	ctx.baseY = ctx.b.collector.contentTop()
	ctx.cursorY = ctx.baseY
}

func (ctx *flowContext) acc() *pageAccumulator {
	if ctx.b.collector == nil {
		return nil
	}
	return ctx.b.collector.curr()
}

type pageAccumulator struct {
	texts []TextBox
}

func (p *pageAccumulator) appendText(tb TextBox) {
	p.texts = append(p.texts, tb)
}

type pageCollector struct {
	width   float64
	height  float64
	margin  Margin
	accs    []*pageAccumulator
	current int
}

func newPageCollector(width, height float64, margin Margin) *pageCollector {
	pc := &pageCollector{
		width:  width,
		height: height,
		margin: margin,
	}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *pageAccumulator {
	acc := &pageAccumulator{}
	pc.accs = append(pc.accs, acc)
	pc.current = len(pc.accs) - 1
	return acc
}

func (pc *pageCollector) curr() *pageAccumulator {
	if len(pc.accs) == 0 {
		return pc.newPage()
	}
	return pc.accs[pc.current]
}

func (pc *pageCollector) contentTop() float64 {
	return pc.margin.Top
}

// maxContentY 是可用内容底部 = 页面高度 - 下边距。
func (pc *pageCollector) maxContentY() float64 {
	return pc.height - pc.margin.Bottom
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Width:  pc.width,
			Height: pc.height,
			Margin: pc.margin,
			Texts:  acc.texts,
		}
	}
	return out
}
