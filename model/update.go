package model

// ElementUpdate 是部分更新：nil 字段表示不修改。
// 只对某一变体有意义的字段在另一变体上被忽略。
type ElementUpdate struct {
	Position *Position `json:"position,omitempty"`
	Width    *float64  `json:"width,omitempty"`
	Height   *float64  `json:"height,omitempty"`
	Locked   *bool     `json:"locked,omitempty"`
	Visible  *bool     `json:"visible,omitempty"`

	// 文本
	Text       *string    `json:"text,omitempty"`
	FontSize   *float64   `json:"fontSize,omitempty"`
	FontFamily *string    `json:"fontFamily,omitempty"`
	Bold       *bool      `json:"bold,omitempty"`
	Italic     *bool      `json:"italic,omitempty"`
	Underline  *bool      `json:"underline,omitempty"`
	Color      *string    `json:"color,omitempty"`
	Shadow     *bool      `json:"shadow,omitempty"`
	Outline    *bool      `json:"outline,omitempty"`
	Align      *TextAlign `json:"align,omitempty"`

	// 图片
	Src     *string `json:"src,omitempty"`
	ImageID *string `json:"imageId,omitempty"`
	Name    *string `json:"name,omitempty"`
}

// BoundsUpdate 构造覆盖位置与尺寸的更新。
func BoundsUpdate(r Rect) ElementUpdate {
	w, h := r.Width, r.Height
	return ElementUpdate{Position: &Position{X: r.X, Y: r.Y}, Width: &w, Height: &h}
}

// MoveUpdate 构造只修改位置的更新。
func MoveUpdate(x, y float64) ElementUpdate {
	return ElementUpdate{Position: &Position{X: x, Y: y}}
}

// ApplyTo 将更新合并进元素（原地修改）。
func (u ElementUpdate) ApplyTo(el Element) {
	b := el.Common()
	if u.Position != nil {
		b.Position = *u.Position
	}
	set(&b.Width, u.Width)
	set(&b.Height, u.Height)
	set(&b.Locked, u.Locked)
	set(&b.Visible, u.Visible)

	switch e := el.(type) {
	case *TextElement:
		set(&e.Text, u.Text)
		set(&e.FontSize, u.FontSize)
		set(&e.FontFamily, u.FontFamily)
		set(&e.Bold, u.Bold)
		set(&e.Italic, u.Italic)
		set(&e.Underline, u.Underline)
		set(&e.Color, u.Color)
		set(&e.Shadow, u.Shadow)
		set(&e.Outline, u.Outline)
		set(&e.Align, u.Align)
	case *ImageElement:
		set(&e.Src, u.Src)
		set(&e.ImageID, u.ImageID)
		set(&e.Name, u.Name)
	}
}

// TouchesFontFamily 报告更新是否修改了字体族（触发字体加载）。
func (u ElementUpdate) TouchesFontFamily() bool {
	return u.FontFamily != nil && *u.FontFamily != ""
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
