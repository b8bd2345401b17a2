package interact

import (
	"math"

	"github.com/ByLCY/reportcanvas/model"
)

// MinImageSize 是图片缩放时每个轴的最小尺寸（px）。
const MinImageSize = model.MinImageSize

// Handle 是图片的八个缩放手柄之一。
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

// IsCorner 报告手柄是否为角手柄（保持宽高比）。
func (h Handle) IsCorner() bool {
	switch h {
	case HandleNE, HandleNW, HandleSE, HandleSW:
		return true
	}
	return false
}

// ClampPosition 将左上角限制在 [0, W-w] × [0, H-h]，元素不会被拖出边界。
func ClampPosition(x, y, w, h float64, bounds model.Size) model.Position {
	return model.Position{
		X: math.Max(0, math.Min(x, bounds.Width-w)),
		Y: math.Max(0, math.Min(y, bounds.Height-h)),
	}
}

// ResizeStep 根据缩放起始矩形、手柄与指针位移计算新矩形。
// 角手柄使用起始时冻结的宽高比，由水平位移推导宽度；边手柄只改变一个维度。
// 锚点在对角的手柄会修正位置：nw 修正 x 与 y，ne 只修正 y，sw 只修正 x，se 不修正。
// 尺寸先取下限 MinImageSize 再按区域封顶；最后通过 KeepInBounds 拉回位置。
func ResizeStep(start model.Rect, h Handle, dx, dy float64, bounds model.Size) model.Rect {
	r := start
	if h.IsCorner() {
		aspect := 1.0
		if start.Width > 0 && start.Height > 0 {
			aspect = start.Height / start.Width
		}
		w := start.Width + dx
		if h == HandleNW || h == HandleSW {
			w = start.Width - dx
		}
		w = math.Max(w, math.Max(MinImageSize, MinImageSize/aspect))
		w = math.Min(w, math.Min(bounds.Width, bounds.Height/aspect))
		// 区域放不下保持宽高比的最小尺寸时，宽高比让步
		r.Width = clampSize(w, bounds.Width)
		r.Height = clampSize(w*aspect, bounds.Height)
		switch h {
		case HandleNW:
			r.X = start.X + start.Width - r.Width
			r.Y = start.Y + start.Height - r.Height
		case HandleNE:
			r.Y = start.Y + start.Height - r.Height
		case HandleSW:
			r.X = start.X + start.Width - r.Width
		}
		return KeepInBounds(r, bounds)
	}

	switch h {
	case HandleE:
		r.Width = clampSize(start.Width+dx, bounds.Width)
	case HandleW:
		r.Width = clampSize(start.Width-dx, bounds.Width)
		r.X = start.X + start.Width - r.Width
	case HandleS:
		r.Height = clampSize(start.Height+dy, bounds.Height)
	case HandleN:
		r.Height = clampSize(start.Height-dy, bounds.Height)
		r.Y = start.Y + start.Height - r.Height
	}
	return KeepInBounds(r, bounds)
}

// KeepInBounds 在矩形越过右/下边界时拉回 x/y，尺寸本身不变；负坐标归零。
func KeepInBounds(r model.Rect, bounds model.Size) model.Rect {
	if r.X+r.Width > bounds.Width {
		r.X = bounds.Width - r.Width
	}
	if r.Y+r.Height > bounds.Height {
		r.Y = bounds.Height - r.Height
	}
	r.X = math.Max(0, r.X)
	r.Y = math.Max(0, r.Y)
	return r
}

func clampSize(v, limit float64) float64 {
	return math.Max(MinImageSize, math.Min(v, limit))
}
