package raster

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/reportcanvas/model"
)

func pngSource(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= w/2 {
				c = color.RGBA{B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return EncodeDataURL("image/png", buf.Bytes())
}

func TestSizeFromDataURL(t *testing.T) {
	size, err := Loader{}.Size(context.Background(), pngSource(t, 400, 200))
	require.NoError(t, err)
	assert.Equal(t, model.Size{Width: 400, Height: 200}, size)
}

func TestSizeFromFile(t *testing.T) {
	dir := t.TempDir()
	_, data, err := DataURL(pngSource(t, 8, 4))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), data, 0o644))

	size, err := Loader{BaseDir: dir}.Size(context.Background(), "logo.png")
	require.NoError(t, err)
	assert.Equal(t, 8.0, size.Width)

	_, err = Loader{}.Size(context.Background(), "logo.png")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestSizeRejectsGarbage(t *testing.T) {
	_, err := Loader{}.Size(context.Background(), EncodeDataURL("image/png", []byte("not a png")))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Loader{}.Size(ctx, pngSource(t, 2, 2))
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestCropRightHalf(t *testing.T) {
	src := pngSource(t, 200, 100)
	out, err := Loader{}.Crop(context.Background(), src, model.Size{Width: 100, Height: 50}, model.Rect{X: 50, Y: 0, Width: 50, Height: 50})
	require.NoError(t, err)

	img, err := Loader{}.Image(out)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
	r, g, b, _ := img.At(10, 10).RGBA()
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.NotZero(t, b)
}

func TestFitLetterboxes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	out := Fit(img, 40, 40)
	assert.Equal(t, 40, out.Bounds().Dx())
	// 顶部为白色留边
	r, g, b, _ := out.At(20, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r&g&b)
}

func TestScaleStretches(t *testing.T) {
	out := Scale(image.NewRGBA(image.Rect(0, 0, 100, 50)), 30, 60)
	assert.Equal(t, image.Rect(0, 0, 30, 60), out.Bounds())
}

func TestDataURLPlain(t *testing.T) {
	mt, data, err := DataURL("data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mt)
	assert.Equal(t, "hello world", string(data))
}

func TestInlineReadsRelativePath(t *testing.T) {
	src := pngSource(t, 2, 2)
	_, data, err := DataURL(src)
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seal.png"), data, 0o644))

	out, err := Loader{BaseDir: dir}.Inline("seal.png")
	require.NoError(t, err)
	assert.Equal(t, src, out)

	same, err := Loader{}.Inline(src)
	require.NoError(t, err)
	assert.Equal(t, src, same)

	_, err = Loader{}.Inline("seal.png")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}
