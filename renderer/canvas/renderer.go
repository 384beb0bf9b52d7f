package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/inkline/inline"
	"github.com/ByLCY/inkline/layout"
	"github.com/ByLCY/inkline/renderer"
)

// tracer traces with key 'inkline.canvas'.
func tracer() tracing.Trace {
	return tracing.Select("inkline.canvas")
}

// Renderer draws layout results via github.com/tdewolff/canvas. 它同时实现 inline.Shaper，
// 排版与绘制使用同一套字体面，保证测量与绘制一致。
type Renderer struct {
	baseDir string

	// injected resources
	fontBlobs map[string][]byte // by unique name

	fontMu       sync.Mutex
	fonts        map[inline.Font]*fontEntry
	faces        map[faceKey]*canvas.FontFace
	fallbackFont *fontEntry

	// canvas 的字体面在测量时会复用内部缓冲区
	measureMu sync.Mutex
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // extra fonts accessible via builtin:<name>
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:   opts.BaseDir,
		fontBlobs: map[string][]byte{},
		fonts:     map[inline.Font]*fontEntry{},
		faces:     map[faceKey]*canvas.FontFace{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, err := os.ReadFile(res.Path)
			if err != nil {
				tracer().Infof("读取字体 %s 失败: %v", res.Path, err)
				continue
			}
			r.fontBlobs[name] = data
		}
	}
	return r
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawPage(ctx, page, result.Resources); err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, resources layout.ResourceSet) error {
	for _, tb := range page.Texts {
		for _, line := range tb.Lines {
			// 装饰线先画，字形压在上面
			r.drawDecorations(ctx, line.Decorations)
			if err := r.drawGlyphs(ctx, line.Glyphs, resources.Fonts); err != nil {
				return err
			}
		}
	}
	return nil
}

// drawGlyphs 在布局给出的位置逐簇绘制；Y 为基线。
func (r *Renderer) drawGlyphs(ctx *canvas.Context, glyphs []layout.Glyph, fonts map[string]layout.FontResource) error {
	for _, g := range glyphs {
		if strings.TrimSpace(g.Text) == "" {
			continue
		}
		face, _, err := r.face(resolveFont(g.Font, fonts), g.Size, g.Color)
		if err != nil {
			return err
		}
		if g.Clip != nil {
			drawClippedGlyph(ctx, face, g)
			continue
		}
		ctx.DrawText(g.X, g.Y, canvas.NewTextLine(face, g.Text, canvas.Left))
	}
	return nil
}

// drawClippedGlyph 把跨过裁剪边缘的字形转成轮廓，与可见区间求交后填充。
// 窗口在纵向上关于基线对称，不依赖路径的 y 轴方向。
func drawClippedGlyph(ctx *canvas.Context, face *canvas.FontFace, g layout.Glyph) {
	w := g.Clip.To - g.Clip.From
	if w <= 0 {
		return
	}
	h := 4 * g.Size
	window := canvas.Rectangle(w, h).Translate(g.Clip.From, -h/2)
	paths, _ := canvas.NewTextLine(face, g.Text, canvas.Left).ToPaths()
	ctx.SetFillColor(colorFromLayout(g.Color))
	ctx.SetStrokeColor(canvas.Transparent)
	for _, p := range paths {
		ctx.DrawPath(g.X, g.Y, p.And(window))
	}
}

func (r *Renderer) drawDecorations(ctx *canvas.Context, decos []layout.DecorationRect) {
	for _, d := range decos {
		if d.Width <= 0 || d.Thickness <= 0 {
			continue
		}
		ctx.SetFillColor(colorFromLayout(d.Color))
		ctx.SetStrokeColor(canvas.Transparent)
		// 以矩形中线为锚点，上下对称
		ctx.DrawPath(d.X, d.Y+d.Thickness/2, canvas.Rectangle(d.Width, d.Thickness).Translate(0, -d.Thickness/2))
	}
}

func resolveFont(name string, fonts map[string]layout.FontResource) inline.Font {
	if font, ok := fonts[name]; ok {
		return font.Font()
	}
	if font, ok := fonts["Body"]; ok {
		return font.Font()
	}
	return inline.Font{Name: name}
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
