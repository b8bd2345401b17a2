package canvasrenderer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/ByLCY/reportcanvas/fonts"
	"github.com/ByLCY/reportcanvas/model"
	"github.com/ByLCY/reportcanvas/raster"
	"github.com/ByLCY/reportcanvas/renderer"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r := NewRenderer(Options{Fonts: fonts.NewRegistry(nil, fonts.DirSource{Dir: t.TempDir()})})
	if _, err := r.MeasureText("x", "", 12, false); err != nil {
		t.Skipf("no system font available: %v", err)
	}
	return r
}

func sampleDocument(t *testing.T) model.Document {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	src := raster.EncodeDataURL("image/png", buf.Bytes())

	doc := model.NewDocument()
	doc.Pages = append(doc.Pages, model.NewPage(model.SizeShort, model.Landscape))
	page := doc.Pages[0]
	page.BackgroundColor = "#FFFBEB"
	title := model.NewTextElement(page.Dimensions())
	title.Text = "Quarterly budget"
	title.Bold, title.Shadow, title.Underline = true, true, true
	hidden := model.NewTextElement(page.Dimensions())
	hidden.Visible = false
	page.Elements = model.Elements{
		title,
		hidden,
		model.NewImageElement(src, model.Size{Width: 4, Height: 4}, page.Dimensions()),
		model.NewImageElement("data:image/png;base64,broken", model.Size{Width: 4, Height: 4}, page.Dimensions()),
	}

	footer := model.NewTextElement(model.Size{Width: 794, Height: model.FooterHeight})
	footer.Text = "Page ${page} of ${pages}"
	footer.Align = model.AlignRight
	footer.Outline = true
	doc.Header.BackgroundColor = "#DBEAFE"
	doc.Footer.Elements = model.Elements{footer}
	return doc
}

func TestPrintAllPagesProducesPDF(t *testing.T) {
	r := newTestRenderer(t)
	out, err := r.PrintAllPages(context.Background(), sampleDocument(t), renderer.PrintOptions{
		Title: "Budget",
		Date:  time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("expected PDF output, got %q", out[:min(len(out), 8)])
	}
}

func TestPrintAllPagesRejectsEmptyDocument(t *testing.T) {
	r := NewRenderer(Options{})
	if _, err := r.PrintAllPages(context.Background(), model.Document{}, renderer.PrintOptions{}); err == nil {
		t.Fatalf("expected error for document without pages")
	}
}

func TestPrintAllPagesHonorsCancel(t *testing.T) {
	r := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.PrintAllPages(ctx, sampleDocument(t), renderer.PrintOptions{}); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestCaptureThumbnail(t *testing.T) {
	r := newTestRenderer(t)
	doc := sampleDocument(t)
	doc.CurrentPageIndex = 1

	src, err := r.CaptureThumbnail(context.Background(), doc, 120, 160)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if !strings.HasPrefix(src, "data:image/png;base64,") {
		t.Fatalf("expected png data URL")
	}
	size, err := raster.Loader{}.Size(context.Background(), src)
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if size.Width != 120 || size.Height != 160 {
		t.Fatalf("unexpected thumbnail size %gx%g", size.Width, size.Height)
	}

	if _, err := r.CaptureThumbnail(context.Background(), doc, 0, 10); err == nil {
		t.Fatalf("expected error for empty thumbnail size")
	}
}

func TestMeasureText(t *testing.T) {
	r := newTestRenderer(t)
	short, err := r.MeasureText("budget", "Arial", 16, false)
	if err != nil {
		t.Fatalf("measure failed: %v", err)
	}
	long, _ := r.MeasureText("budget allocation", "Arial", 16, false)
	if short <= 0 || long <= short {
		t.Fatalf("unexpected widths: %g, %g", short, long)
	}
	bigger, _ := r.MeasureText("budget", "Arial", 32, false)
	if bigger <= short*1.5 {
		t.Fatalf("width should scale with font size: %g vs %g", bigger, short)
	}
}
