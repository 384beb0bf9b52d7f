package canvasrenderer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-text/typesetting/font"
	"github.com/tdewolff/canvas"

	"github.com/ByLCY/inkline/fonts"
	"github.com/ByLCY/inkline/inline"
)

// fontEntry 缓存一个字体：canvas 负责测量与绘制，go-text 的 Face 负责缺字判断与装饰线度量。
type fontEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
	face   *font.Face
}

type faceKey struct {
	font inline.Font
	size float64
	col  inline.Color
}

// face 返回指定字体、字号（mm）与颜色的 canvas 字体面。
func (r *Renderer) face(f inline.Font, sizeMM float64, col inline.Color) (*canvas.FontFace, *fontEntry, error) {
	entry, err := r.ensureFont(f)
	if err != nil {
		return nil, nil, err
	}
	key := faceKey{font: f, size: sizeMM, col: col}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if face, ok := r.faces[key]; ok {
		return face, entry, nil
	}
	face := entry.family.Face(toPt(sizeMM), colorFromLayout(col), entry.style, canvas.FontNormal)
	r.faces[key] = face
	return face, entry, nil
}

func (r *Renderer) ensureFont(f inline.Font) (*fontEntry, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if entry, ok := r.fonts[f]; ok {
		return entry, nil
	}
	entry, err := r.loadFont(f)
	if err != nil {
		tracer().Infof("字体 %s 加载失败，使用内置字体 %s：%v", f.Name, fonts.Default, err)
		if entry, err = r.fallback(); err != nil {
			return nil, err
		}
	}
	r.fonts[f] = entry
	return entry, nil
}

func (r *Renderer) loadFont(f inline.Font) (*fontEntry, error) {
	data, err := r.loadFontBytes(f)
	if err != nil {
		return nil, err
	}
	return newFontEntry(f.Name, data, parseFontStyle(f.Style))
}

func newFontEntry(name string, data []byte, style canvas.FontStyle) (*fontEntry, error) {
	if name == "" {
		name = "Body"
	}
	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, style); err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", name, err)
	}
	faces, err := font.ParseTTC(bytes.NewReader(data))
	if err != nil || len(faces) == 0 {
		return nil, fmt.Errorf("解析字体 %s 的字形表失败: %v", name, err)
	}
	return &fontEntry{family: family, style: style, face: faces[0]}, nil
}

func (r *Renderer) loadFontBytes(f inline.Font) ([]byte, error) {
	src := f.Src
	if src == "" {
		return fonts.Load(fonts.Default)
	}
	if name, ok := cutBuiltin(src); ok {
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return fonts.Load(name)
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 builtin:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

func cutBuiltin(src string) (string, bool) {
	for _, prefix := range []string{"builtin:", "built-in:"} {
		if name, ok := strings.CutPrefix(src, prefix); ok {
			return name, true
		}
	}
	return "", false
}

// fallback 调用方需持有 fontMu。
func (r *Renderer) fallback() (*fontEntry, error) {
	if r.fallbackFont != nil {
		return r.fallbackFont, nil
	}
	data, err := fonts.Load(fonts.Default)
	if err != nil {
		return nil, err
	}
	entry, err := newFontEntry("inkline-fallback", data, canvas.FontRegular)
	if err != nil {
		return nil, err
	}
	r.fallbackFont = entry
	return entry, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}
