package interact

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/reportcanvas/model"
)

func TestClampPositionDragFarRight(t *testing.T) {
	page := model.Dimensions(model.SizeA4, model.Portrait)
	el := model.NewTextElement(page)
	pos := ClampPosition(el.Position.X+10000, el.Position.Y, el.Width, el.Height, page)
	assert.Equal(t, page.Width-el.Width, pos.X)
	assert.Equal(t, el.Position.Y, pos.Y)

	pos = ClampPosition(-500, -500, el.Width, el.Height, page)
	assert.Zero(t, pos.X)
	assert.Zero(t, pos.Y)
}

func TestResizeCornerKeepsAspect(t *testing.T) {
	page := model.Dimensions(model.SizeA4, model.Portrait)
	start := model.Rect{X: 200, Y: 300, Width: 200, Height: 100}
	for _, h := range []Handle{HandleNE, HandleNW, HandleSE, HandleSW} {
		for _, dx := range []float64{-500, -120, -3, 0, 17, 250, 4000} {
			r := ResizeStep(start, h, dx, dx/3, page)
			require.InDelta(t, start.Height/start.Width, r.Height/r.Width, 1e-9, "handle=%s dx=%g", h, dx)
		}
	}
}

func TestResizeCornerAnchors(t *testing.T) {
	page := model.Dimensions(model.SizeA4, model.Portrait)
	start := model.Rect{X: 200, Y: 300, Width: 200, Height: 100}

	se := ResizeStep(start, HandleSE, 40, 0, page)
	assert.Equal(t, model.Rect{X: 200, Y: 300, Width: 240, Height: 120}, se)

	sw := ResizeStep(start, HandleSW, -40, 0, page)
	assert.Equal(t, 160.0, sw.X)
	assert.Equal(t, 300.0, sw.Y)
	assert.Equal(t, start.X+start.Width, sw.X+sw.Width)

	ne := ResizeStep(start, HandleNE, 40, 0, page)
	assert.Equal(t, 200.0, ne.X)
	assert.Equal(t, start.Y+start.Height, ne.Y+ne.Height)

	nw := ResizeStep(start, HandleNW, -40, 0, page)
	assert.Equal(t, start.X+start.Width, nw.X+nw.Width)
	assert.Equal(t, start.Y+start.Height, nw.Y+nw.Height)
}

func TestResizeEdgesAndFloor(t *testing.T) {
	page := model.Dimensions(model.SizeA4, model.Portrait)
	start := model.Rect{X: 100, Y: 100, Width: 200, Height: 100}

	e := ResizeStep(start, HandleE, 50, 99, page)
	assert.Equal(t, 250.0, e.Width)
	assert.Equal(t, 100.0, e.Height)

	n := ResizeStep(start, HandleN, 0, 500, page)
	assert.Equal(t, MinImageSize, n.Height)
	assert.Equal(t, start.Y+start.Height-MinImageSize, n.Y)

	w := ResizeStep(start, HandleW, 1000, 0, page)
	assert.Equal(t, MinImageSize, w.Width)
}

func TestResizePullsBackInsteadOfShrinking(t *testing.T) {
	page := model.Dimensions(model.SizeA4, model.Portrait)
	start := model.Rect{X: page.Width - 150, Y: 10, Width: 100, Height: 100}
	r := ResizeStep(start, HandleE, 200, 0, page)
	assert.Equal(t, 300.0, r.Width)
	assert.Equal(t, page.Width-300, r.X)
}

func TestResizeCornerInNarrowBand(t *testing.T) {
	band := model.Size{Width: 794, Height: model.HeaderHeight}
	for _, start := range []model.Rect{
		{X: 387, Y: 20, Width: 20, Height: 80},
		{X: 377, Y: 20, Width: 40, Height: 80},
	} {
		for _, h := range []Handle{HandleNE, HandleNW, HandleSE, HandleSW} {
			for _, dx := range []float64{-300, -5, 0, 5, 300} {
				r := ResizeStep(start, h, dx, 0, band)
				require.GreaterOrEqual(t, r.Width, MinImageSize, "handle=%s dx=%g", h, dx)
				require.GreaterOrEqual(t, r.Height, MinImageSize, "handle=%s dx=%g", h, dx)
				require.GreaterOrEqual(t, r.Y, 0.0)
				require.LessOrEqual(t, r.Y+r.Height, band.Height, "handle=%s dx=%g", h, dx)
				require.LessOrEqual(t, r.X+r.Width, band.Width)
			}
		}
	}
}

// TestBoundsProperty 随机拖拽/缩放序列后元素始终在页面内且图片不小于 40px。
func TestBoundsProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	handles := []Handle{HandleN, HandleS, HandleE, HandleW, HandleNE, HandleNW, HandleSE, HandleSW}
	for _, size := range []model.PageSize{model.SizeA4, model.SizeShort, model.SizeLong} {
		for _, o := range []model.Orientation{model.Portrait, model.Landscape} {
			page := model.Dimensions(size, o)
			r := model.Rect{X: 100, Y: 100, Width: 300, Height: 150}
			for i := 0; i < 2000; i++ {
				dx := (rng.Float64() - 0.5) * 3000
				dy := (rng.Float64() - 0.5) * 3000
				if rng.Intn(2) == 0 {
					p := ClampPosition(r.X+dx, r.Y+dy, r.Width, r.Height, page)
					r.X, r.Y = p.X, p.Y
				} else {
					r = ResizeStep(r, handles[rng.Intn(len(handles))], dx, dy, page)
				}
				require.GreaterOrEqual(t, r.X, 0.0)
				require.GreaterOrEqual(t, r.Y, 0.0)
				require.LessOrEqual(t, r.X+r.Width, page.Width+1e-9)
				require.LessOrEqual(t, r.Y+r.Height, page.Height+1e-9)
				require.GreaterOrEqual(t, r.Width, MinImageSize-1e-9)
				require.GreaterOrEqual(t, r.Height, MinImageSize-1e-9)
				require.False(t, math.IsNaN(r.Width))
			}
		}
	}
}
