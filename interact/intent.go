package interact

import "github.com/ByLCY/reportcanvas/model"

// Intent 是交互引擎发出的意图，由编辑会话统一处理。
type Intent interface {
	isIntent()
}

// Select 选中元素；ID 为空表示清除选择。
type Select struct{ ID string }

// Drag 表示相对拖拽起点的位移，处理方负责边界钳制。
type Drag struct {
	ID     string
	Origin model.Position
	DX, DY float64
}

// Resize 表示以起始矩形为基准的缩放。
type Resize struct {
	ID     string
	Handle Handle
	Start  model.Rect
	DX, DY float64
}

// Update 是属性面板或文本编辑产生的部分更新。
type Update struct {
	ID     string
	Update model.ElementUpdate
}

// Delete 删除元素。
type Delete struct{ ID string }

// Crop 用裁剪结果替换图片的 src 与尺寸。
type Crop struct {
	ID     string
	Src    string
	Width  float64
	Height float64
}

// EditText 进入（ID 非空）或退出（ID 为空）文本编辑子状态。
type EditText struct{ ID string }

// InsertImage 解码图片后插入到指定区域。
type InsertImage struct {
	Src     string
	Section model.Section
}

// InsertElement 插入一个已构造好的元素（粘贴）。Center 为真时由处理方居中放置。
type InsertElement struct {
	Element model.Element
	Section model.Section
	Center  bool
}

func (Select) isIntent()        {}
func (Drag) isIntent()          {}
func (Resize) isIntent()        {}
func (Update) isIntent()        {}
func (Delete) isIntent()        {}
func (Crop) isIntent()          {}
func (EditText) isIntent()      {}
func (InsertImage) isIntent()   {}
func (InsertElement) isIntent() {}
