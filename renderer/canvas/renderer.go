// Package canvasrenderer prints documents to PDF and rasterizes thumbnails via github.com/tdewolff/canvas.
package canvasrenderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/reportcanvas/binding"
	"github.com/ByLCY/reportcanvas/fonts"
	"github.com/ByLCY/reportcanvas/layout"
	"github.com/ByLCY/reportcanvas/logging"
	"github.com/ByLCY/reportcanvas/model"
	"github.com/ByLCY/reportcanvas/raster"
	"github.com/ByLCY/reportcanvas/renderer"
)

// 文档几何为 px（96 DPI），canvas 坐标为 mm，字号为 pt。
const (
	pxToMM = model.PxToMm
	pxToPt = model.PtPerInch / model.PxPerInch

	// 图片按 2 倍设备像素重采样后嵌入 PDF。
	imageScale = 2.0
	// 缩略图先按 2 倍目标尺寸光栅化再缩放。
	thumbOversample = 2.0
)

// DefaultFallbackFonts 是文档字体不可用时依次尝试的系统字体。
var DefaultFallbackFonts = []string{"DejaVu Sans", "Liberation Sans", "Arial", "Helvetica", "Noto Sans"}

// ErrNoFont 表示文档字体与所有系统兜底字体都无法加载。
var ErrNoFont = errors.New("canvasrenderer: no usable font")

var (
	_ renderer.Printer     = (*Renderer)(nil)
	_ renderer.Thumbnailer = (*Renderer)(nil)
	_ layout.TextMeasurer  = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	// Fonts 提供文档引用的字体；为空时只使用系统兜底字体。
	Fonts *fonts.Registry
	// BaseDir 用于解析图片元素中的相对路径。
	BaseDir string
	// FallbackFonts 覆盖 DefaultFallbackFonts。
	FallbackFonts []string
	Creator       string
	Logger        *slog.Logger
}

// Renderer draws model documents via github.com/tdewolff/canvas.
type Renderer struct {
	opts   Options
	images raster.Loader
	logger *slog.Logger

	fontMu   sync.Mutex
	families map[string]*fontFamilyEntry
	fallback *fontFamilyEntry
}

type fontFamilyEntry struct {
	family *canvas.FontFamily
	styles map[canvas.FontStyle]bool
}

// NewRenderer creates a renderer.
func NewRenderer(opts Options) *Renderer {
	if len(opts.FallbackFonts) == 0 {
		opts.FallbackFonts = DefaultFallbackFonts
	}
	if opts.Creator == "" {
		opts.Creator = "reportcanvas"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Logger()
	}
	return &Renderer{
		opts:     opts,
		images:   raster.Loader{BaseDir: opts.BaseDir},
		logger:   logger,
		families: map[string]*fontFamilyEntry{},
	}
}

// PrintAllPages renders every page to one PDF. Each sheet uses the page's own size and
// orientation; the shared header occupies the top band and the footer the bottom band.
func (r *Renderer) PrintAllPages(ctx context.Context, doc model.Document, opts renderer.PrintOptions) ([]byte, error) {
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	date := opts.Date
	if date.IsZero() {
		date = time.Now()
	}

	var buf bytes.Buffer
	first := doc.Pages[0].Dimensions()
	writer := pdf.New(&buf, first.Width*pxToMM, first.Height*pxToMM, nil)
	writer.SetInfo(opts.Title, "", "", "", r.opts.Creator)
	for i, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		size := page.Dimensions()
		if i > 0 {
			writer.NewPage(size.Width*pxToMM, size.Height*pxToMM)
		}
		data := binding.PageData(i+1, len(doc.Pages), opts.Title, date, opts.Data)
		c, err := r.drawSheet(ctx, doc, page, data)
		if err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", i+1, err)
		}
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// CaptureThumbnail rasterizes the current page (with header and footer) into a
// width×height PNG data URL, letterboxed on white.
func (r *Renderer) CaptureThumbnail(ctx context.Context, doc model.Document, width, height int) (string, error) {
	if len(doc.Pages) == 0 {
		return "", fmt.Errorf("缺少可渲染的页面")
	}
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("缩略图尺寸无效：%dx%d", width, height)
	}
	idx := min(max(doc.CurrentPageIndex, 0), len(doc.Pages)-1)
	page := doc.Pages[idx]
	data := binding.PageData(idx+1, len(doc.Pages), "", time.Now(), nil)
	c, err := r.drawSheet(ctx, doc, page, data)
	if err != nil {
		return "", err
	}
	size := page.Dimensions()
	dpmm := thumbOversample * float64(max(width, height)) / (max(size.Width, size.Height) * pxToMM)
	img := rasterizer.Draw(c, canvas.DPMM(dpmm), canvas.DefaultColorSpace)
	return raster.PNGDataURL(raster.Fit(img, width, height))
}

// MeasureText implements layout.TextMeasurer; size and result are in px.
func (r *Renderer) MeasureText(text, family string, size float64, bold bool) (float64, error) {
	face, err := r.face(context.Background(), family, size, bold, false, false, model.Black)
	if err != nil {
		return 0, err
	}
	return face.TextWidth(text) / pxToMM, nil
}

func (r *Renderer) drawSheet(ctx context.Context, doc model.Document, page *model.Page, data map[string]any) (*canvas.Canvas, error) {
	size := page.Dimensions()
	c := canvas.New(size.Width*pxToMM, size.Height*pxToMM)
	cx := canvas.NewContext(c)
	cx.SetCoordSystem(canvas.CartesianIV) // 左上角为原点，与文档坐标一致

	fillRect(cx, model.Rect{Width: size.Width, Height: size.Height}, model.ColorOr(page.BackgroundColor, model.Color{R: 255, G: 255, B: 255, A: 255}))

	header := binding.Elements(doc.Header.Elements, data)
	footer := binding.Elements(doc.Footer.Elements, data)
	footerTop := size.Height - model.FooterHeight

	if doc.Header.BackgroundColor != "" {
		fillRect(cx, model.Rect{Width: size.Width, Height: model.HeaderHeight}, model.ColorOr(doc.Header.BackgroundColor, model.Black))
	}
	if err := r.drawElements(ctx, cx, header, 0); err != nil {
		return nil, fmt.Errorf("页眉: %w", err)
	}
	if doc.Footer.BackgroundColor != "" {
		fillRect(cx, model.Rect{Y: footerTop, Width: size.Width, Height: model.FooterHeight}, model.ColorOr(doc.Footer.BackgroundColor, model.Black))
	}
	if err := r.drawElements(ctx, cx, footer, footerTop); err != nil {
		return nil, fmt.Errorf("页脚: %w", err)
	}
	// 页面内容最后绘制，不会被页眉/页脚背景遮挡
	if err := r.drawElements(ctx, cx, page.Elements, 0); err != nil {
		return nil, err
	}
	return c, nil
}

// drawElements 按列表顺序绘制可见元素；offsetY 为区域顶部（px）。
func (r *Renderer) drawElements(ctx context.Context, cx *canvas.Context, els model.Elements, offsetY float64) error {
	for _, el := range els {
		if !el.Common().Visible {
			continue
		}
		switch e := el.(type) {
		case *model.TextElement:
			if err := r.drawText(ctx, cx, e, offsetY); err != nil {
				return err
			}
		case *model.ImageElement:
			r.drawImage(cx, e, offsetY)
		}
	}
	return nil
}

func (r *Renderer) drawText(ctx context.Context, cx *canvas.Context, t *model.TextElement, offsetY float64) error {
	col := model.ColorOr(t.Color, model.Black)
	face, err := r.face(ctx, t.FontFamily, t.FontSize, t.Bold, t.Italic, t.Underline, col)
	if err != nil {
		return err
	}
	x := t.Position.X * pxToMM
	top := (t.Position.Y + offsetY) * pxToMM
	width := t.Width * pxToMM
	bottom := top + t.Height*pxToMM

	var textAlign canvas.TextAlign
	anchorX := x
	switch t.Align {
	case model.AlignCenter:
		textAlign = canvas.Center
		anchorX = x + width/2
	case model.AlignRight:
		textAlign = canvas.Right
		anchorX = x + width
	default:
		textAlign = canvas.Left
	}

	var shadow, outline *canvas.FontFace
	if t.Shadow {
		shadow, _ = r.face(ctx, t.FontFamily, t.FontSize, t.Bold, t.Italic, t.Underline, model.Color{A: 80})
	}
	if t.Outline {
		outline, _ = r.face(ctx, t.FontFamily, t.FontSize, t.Bold, t.Italic, t.Underline, model.Black)
	}

	metrics := face.Metrics()
	lineHeight := metrics.LineHeight
	cursor := top
	for i, line := range wrapLines(t.Text, width, face) {
		// 超出元素框的行被裁掉，第一行总是绘制
		if i > 0 && cursor+lineHeight > bottom {
			break
		}
		baseline := cursor + metrics.Ascent
		if shadow != nil {
			cx.DrawText(anchorX+0.4, baseline+0.4, canvas.NewTextLine(shadow, line.Content, textAlign))
		}
		if outline != nil {
			const d = 0.15
			for _, off := range [][2]float64{{-d, 0}, {d, 0}, {0, -d}, {0, d}} {
				cx.DrawText(anchorX+off[0], baseline+off[1], canvas.NewTextLine(outline, line.Content, textAlign))
			}
		}
		cx.DrawText(anchorX, baseline, canvas.NewTextLine(face, line.Content, textAlign))
		cursor += lineHeight
	}
	return nil
}

// drawImage 把图片拉伸到元素框内；无法解码的图片记录日志后跳过，不影响整页输出。
func (r *Renderer) drawImage(cx *canvas.Context, img *model.ImageElement, offsetY float64) {
	if img.Width <= 0 || img.Height <= 0 {
		return
	}
	decoded, err := r.images.Image(img.Src)
	if err != nil {
		r.logger.Warn("skip undecodable image", "id", img.ID, "err", err)
		return
	}
	scaled := raster.Scale(decoded, int(img.Width*imageScale+0.5), int(img.Height*imageScale+0.5))
	dpmm := float64(scaled.Bounds().Dx()) / (img.Width * pxToMM)
	cx.DrawImage(img.Position.X*pxToMM, (img.Position.Y+offsetY)*pxToMM, scaled, canvas.DPMM(dpmm))
}

func fillRect(cx *canvas.Context, rect model.Rect, col model.Color) {
	cx.SetFillColor(toColor(col))
	cx.SetStrokeColor(canvas.Transparent)
	cx.DrawPath(rect.X*pxToMM, rect.Y*pxToMM, canvas.Rectangle(rect.Width*pxToMM, rect.Height*pxToMM))
}

func (r *Renderer) face(ctx context.Context, family string, sizePx float64, bold, italic, underline bool, col model.Color) (*canvas.FontFace, error) {
	entry, err := r.ensureFontFamily(ctx, family)
	if err != nil {
		return nil, err
	}
	style := entry.pick(bold, italic)
	if sizePx <= 0 {
		sizePx = model.DefaultFontSize
	}
	args := []interface{}{toColor(col), style, canvas.FontNormal}
	if underline {
		args = append(args, canvas.FontUnderline)
	}
	return entry.family.Face(sizePx*pxToPt, args...), nil
}

// pick 选择最接近的已加载变体：先去掉斜体，再退回常规体。
func (e *fontFamilyEntry) pick(bold, italic bool) canvas.FontStyle {
	want := canvas.FontRegular
	if bold {
		want = canvas.FontBold
	}
	if italic {
		want |= canvas.FontItalic
	}
	for _, s := range []canvas.FontStyle{want, want &^ canvas.FontItalic, canvas.FontRegular} {
		if e.styles[s] {
			return s
		}
	}
	return canvas.FontRegular
}

func (r *Renderer) ensureFontFamily(ctx context.Context, name string) (*fontFamilyEntry, error) {
	if name == "" {
		name = model.DefaultFontFamily
	}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.families[name]; ok {
		return entry, nil
	}
	entry, err := r.loadFromRegistry(ctx, name)
	if err != nil {
		r.logger.Debug("font unavailable, using fallback", "family", name, "err", err)
		if entry, err = r.fallbackFamily(); err != nil {
			return nil, err
		}
	}
	r.families[name] = entry
	return entry, nil
}

func (r *Renderer) loadFromRegistry(ctx context.Context, name string) (*fontFamilyEntry, error) {
	reg := r.opts.Fonts
	if reg == nil {
		return nil, fonts.ErrNotFound
	}
	if !reg.Loaded(name) {
		if err := reg.Load(ctx, name); err != nil {
			return nil, err
		}
	}
	entry := &fontFamilyEntry{family: canvas.NewFontFamily(name), styles: map[canvas.FontStyle]bool{}}
	for _, s := range []fonts.Style{fonts.Regular, fonts.Bold, fonts.Italic, fonts.BoldItalic} {
		data, got, ok := reg.Bytes(name, s)
		if !ok || got != s {
			continue
		}
		cs := canvasStyle(s)
		if err := entry.family.LoadFont(data, 0, cs); err != nil {
			if s == fonts.Regular {
				return nil, fmt.Errorf("加载字体 %s 失败: %w", name, err)
			}
			continue
		}
		entry.styles[cs] = true
	}
	if !entry.styles[canvas.FontRegular] {
		return nil, fmt.Errorf("%w: %s regular", fonts.ErrNotFound, name)
	}
	return entry, nil
}

func (r *Renderer) fallbackFamily() (*fontFamilyEntry, error) {
	if r.fallback != nil {
		return r.fallback, nil
	}
	for _, name := range r.opts.FallbackFonts {
		family := canvas.NewFontFamily("reportcanvas-fallback")
		if err := family.LoadSystemFont(name, canvas.FontRegular); err != nil {
			continue
		}
		entry := &fontFamilyEntry{family: family, styles: map[canvas.FontStyle]bool{canvas.FontRegular: true}}
		for _, s := range []canvas.FontStyle{canvas.FontBold, canvas.FontItalic, canvas.FontBold | canvas.FontItalic} {
			if family.LoadSystemFont(name, s) == nil {
				entry.styles[s] = true
			}
		}
		r.fallback = entry
		return entry, nil
	}
	return nil, ErrNoFont
}

func canvasStyle(s fonts.Style) canvas.FontStyle {
	switch s {
	case fonts.Bold:
		return canvas.FontBold
	case fonts.Italic:
		return canvas.FontRegular | canvas.FontItalic
	case fonts.BoldItalic:
		return canvas.FontBold | canvas.FontItalic
	}
	return canvas.FontRegular
}

func toColor(c model.Color) color.Color {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}
