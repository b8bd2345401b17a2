package model

import "math"

// ElementType 是元素的判别标签，序列化时写入 "type" 字段。
type ElementType string

const (
	TypeText  ElementType = "text"
	TypeImage ElementType = "image"
)

// Element 是 *TextElement 与 *ImageElement 的和类型。
// 接口是封闭的：消费方通过 type switch 穷举两种变体。
type Element interface {
	Type() ElementType
	Common() *Base
	Clone() Element
	isElement()
}

// Position 为页面局部坐标（左上角为原点）。
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect 描述元素的位置与尺寸。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Base 是两种元素共享的字段。
type Base struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Locked   bool     `json:"locked"`
	Visible  bool     `json:"visible"`
}

// Common 返回共享字段的指针，供几何计算与合并更新使用。
func (b *Base) Common() *Base { return b }

// Bounds 返回元素矩形。
func (b *Base) Bounds() Rect {
	return Rect{X: b.Position.X, Y: b.Position.Y, Width: b.Width, Height: b.Height}
}

// SetBounds 覆盖元素矩形。
func (b *Base) SetBounds(r Rect) {
	b.Position = Position{X: r.X, Y: r.Y}
	b.Width = r.Width
	b.Height = r.Height
}

// TextAlign 是文本在元素框内的水平对齐方式。
type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// TextElement 是可编辑的文本块。
type TextElement struct {
	Base
	Text       string    `json:"text"`
	FontSize   float64   `json:"fontSize"`
	FontFamily string    `json:"fontFamily"`
	Bold       bool      `json:"bold"`
	Italic     bool      `json:"italic"`
	Underline  bool      `json:"underline"`
	Color      string    `json:"color"`
	Shadow     bool      `json:"shadow"`
	Outline    bool      `json:"outline"`
	Align      TextAlign `json:"align,omitempty"`
}

func (*TextElement) Type() ElementType { return TypeText }
func (*TextElement) isElement()        {}

// Clone 返回独立副本。
func (t *TextElement) Clone() Element {
	cp := *t
	return &cp
}

// ImageElement 是图片，src 为 data URL 或资源引用。
type ImageElement struct {
	Base
	Src     string `json:"src"`
	ImageID string `json:"imageId,omitempty"`
	Name    string `json:"name,omitempty"`
}

func (*ImageElement) Type() ElementType { return TypeImage }
func (*ImageElement) isElement()        {}

// Clone 返回独立副本。
func (i *ImageElement) Clone() Element {
	cp := *i
	return &cp
}

// 新建元素的默认值。
const (
	DefaultFontFamily = "Arial"
	DefaultFontSize   = 16.0
	DefaultTextColor  = "#000000"
	DefaultText       = "Double-click to edit"
	defaultTextWidth  = 200.0
	defaultTextHeight = 40.0

	// MaxImageWidth 是插入图片的宽度上限，同时保留左右共 40px 边距。
	MaxImageWidth = 300.0
	// MinImageSize 是图片每个轴的最小尺寸；区域容纳不下原图宽高比时以它为准。
	MinImageSize = 40.0
	imageInset   = 40.0
)

// NewTextElement 创建居中于 bounds 的文本元素。
func NewTextElement(bounds Size) *TextElement {
	w := math.Min(defaultTextWidth, bounds.Width)
	h := math.Min(defaultTextHeight, bounds.Height)
	return &TextElement{
		Base: Base{
			ID:       NewID(),
			Position: centered(bounds, w, h),
			Width:    w,
			Height:   h,
			Visible:  true,
		},
		Text:       DefaultText,
		FontSize:   DefaultFontSize,
		FontFamily: DefaultFontFamily,
		Color:      DefaultTextColor,
		Align:      AlignLeft,
	}
}

// NewImageElement 创建居中于 bounds 的图片元素。
// 宽度上限为 min(300, bounds.Width-40)，高度按原图宽高比推导；
// 若高度超出区域，则按高度再等比缩小。
func NewImageElement(src string, natural Size, bounds Size) *ImageElement {
	w, h := fitImage(natural, bounds)
	return &ImageElement{
		Base: Base{
			ID:       NewID(),
			Position: centered(bounds, w, h),
			Width:    w,
			Height:   h,
			Visible:  true,
		},
		Src: src,
	}
}

func fitImage(natural, bounds Size) (float64, float64) {
	maxW := math.Min(MaxImageWidth, bounds.Width-imageInset)
	if maxW <= 0 {
		maxW = bounds.Width
	}
	if natural.Width <= 0 || natural.Height <= 0 {
		return maxW, maxW
	}
	ratio := natural.Height / natural.Width
	w := math.Min(natural.Width, maxW)
	h := w * ratio
	if maxH := bounds.Height - imageInset; maxH > 0 && h > maxH {
		h = maxH
		w = h / ratio
	}
	return atLeast(w, bounds.Width), atLeast(h, bounds.Height)
}

func atLeast(v, limit float64) float64 {
	v = math.Max(v, MinImageSize)
	if limit > 0 {
		v = math.Min(v, limit)
	}
	return v
}

func centered(bounds Size, w, h float64) Position {
	return Position{
		X: math.Max(0, (bounds.Width-w)/2),
		Y: math.Max(0, (bounds.Height-h)/2),
	}
}
