// Package raster decodes image sources (data URLs or file paths), reports
// their natural size, crops them and scales rasters for thumbnails.
package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/reportcanvas/model"
)

// ErrUnsupportedSource is returned for sources that are neither data URLs nor readable paths.
var ErrUnsupportedSource = errors.New("raster: unsupported image source")

// DataURL splits a data URL into its media type and decoded payload.
func DataURL(src string) (string, []byte, error) {
	if !strings.HasPrefix(src, "data:") {
		return "", nil, ErrUnsupportedSource
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("raster: malformed data URL")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("raster: decode base64 payload: %w", err)
		}
		return mediaType, data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("raster: unescape data URL: %w", err)
	}
	return mediaType, []byte(text), nil
}

// EncodeDataURL builds a base64 data URL.
func EncodeDataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Loader resolves image sources. Relative paths are resolved against BaseDir.
type Loader struct {
	BaseDir string
}

// Bytes returns the raw encoded bytes of src.
func (l Loader) Bytes(src string) ([]byte, error) {
	if strings.HasPrefix(src, "data:") {
		_, data, err := DataURL(src)
		return data, err
	}
	if src == "" || strings.Contains(src, "://") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, truncate(src))
	}
	path := src
	if !filepath.IsAbs(path) {
		if l.BaseDir == "" {
			return nil, fmt.Errorf("%w: relative path %q without base dir", ErrUnsupportedSource, src)
		}
		path = filepath.Join(l.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("raster: read %s: %w", src, err)
	}
	return data, nil
}

// Inline returns src as a data URL, reading it from disk when it is a path.
func (l Loader) Inline(src string) (string, error) {
	if strings.HasPrefix(src, "data:") {
		return src, nil
	}
	data, err := l.Bytes(src)
	if err != nil {
		return "", err
	}
	return EncodeDataURL(http.DetectContentType(data), data), nil
}

// Image decodes src into an image.
func (l Loader) Image(src string) (image.Image, error) {
	data, err := l.Bytes(src)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("raster: decode image: %w", err)
	}
	return img, nil
}

// Size reports the natural pixel size of src without decoding the full raster.
// Decoding runs off the caller's goroutine so a cancelled ctx never hangs.
func (l Loader) Size(ctx context.Context, src string) (model.Size, error) {
	type result struct {
		size model.Size
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := l.Bytes(src)
		if err != nil {
			done <- result{err: err}
			return
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			done <- result{err: fmt.Errorf("raster: decode image header: %w", err)}
			return
		}
		if cfg.Width <= 0 || cfg.Height <= 0 {
			done <- result{err: fmt.Errorf("raster: empty image %dx%d", cfg.Width, cfg.Height)}
			return
		}
		done <- result{size: model.Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}}
	}()
	select {
	case <-ctx.Done():
		return model.Size{}, ctx.Err()
	case r := <-done:
		return r.size, r.err
	}
}

// Crop cuts region (expressed in the element's displayed coordinates) out of
// src and returns the result as a PNG data URL at the source's native resolution.
func (l Loader) Crop(ctx context.Context, src string, display model.Size, region model.Rect) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	img, err := l.Image(src)
	if err != nil {
		return "", err
	}
	if display.Width <= 0 || display.Height <= 0 {
		return "", fmt.Errorf("raster: invalid display size %gx%g", display.Width, display.Height)
	}
	b := img.Bounds()
	sx := float64(b.Dx()) / display.Width
	sy := float64(b.Dy()) / display.Height
	rect := image.Rect(
		b.Min.X+int(region.X*sx),
		b.Min.Y+int(region.Y*sy),
		b.Min.X+int((region.X+region.Width)*sx+0.5),
		b.Min.Y+int((region.Y+region.Height)*sy+0.5),
	).Intersect(b)
	if rect.Empty() {
		return "", fmt.Errorf("raster: crop region outside image")
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(out, image.Point{}, img, rect, draw.Src, nil)
	return encodePNG(out)
}

// Fit scales img into a w×h canvas preserving aspect ratio, letterboxed on white.
func Fit(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	b := img.Bounds()
	if b.Empty() || w <= 0 || h <= 0 {
		return dst
	}
	scale := min(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	tw := max(1, int(float64(b.Dx())*scale))
	th := max(1, int(float64(b.Dy())*scale))
	ox, oy := (w-tw)/2, (h-th)/2
	draw.CatmullRom.Scale(dst, image.Rect(ox, oy, ox+tw, oy+th), img, b, draw.Over, nil)
	return dst
}

// Scale resamples img to exactly w×h pixels.
func Scale(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(1, w), max(1, h)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// PNGDataURL encodes img as a PNG data URL.
func PNGDataURL(img image.Image) (string, error) { return encodePNG(img) }

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("raster: encode png: %w", err)
	}
	return EncodeDataURL("image/png", buf.Bytes()), nil
}

func truncate(s string) string {
	if len(s) > 48 {
		return s[:48] + "..."
	}
	return s
}
