package interact

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ByLCY/reportcanvas/logging"
	"github.com/ByLCY/reportcanvas/model"
)

// Target 是引擎查询到的元素当前状态及其所在区域。
type Target struct {
	Element model.Element
	Section model.Section
	Bounds  model.Size
}

// Scene 提供当前（而非捕获的）编辑状态，引擎每次处理事件都重新读取。
type Scene interface {
	Lookup(id string) (Target, bool)
	SelectedID() string
	EditingID() string
}

// Dispatcher 是意图的唯一处理方，通常为 editor.Session。
type Dispatcher interface {
	Dispatch(ctx context.Context, in Intent) error
}

// Cropper 根据元素坐标系中的区域裁剪图片，返回新的 src。
type Cropper interface {
	Crop(ctx context.Context, src string, display model.Size, region model.Rect) (string, error)
}

// Mode 是引擎当前的手势状态。
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeResizing
	ModeCropping
)

// Key 是引擎关心的按键。
type Key string

const (
	KeyEscape    Key = "Escape"
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "Backspace"
)

// pasteOffset 是粘贴元素相对原元素的偏移。
const pasteOffset = 10.0

// Engine 将指针、键盘与剪贴板输入翻译为意图，自身不持有文档状态。
type Engine struct {
	scene     Scene
	dispatch  Dispatcher
	clipboard Clipboard
	cropper   Cropper
	logger    *slog.Logger

	mode     Mode
	activeID string
	pointer  model.Position // 手势开始时的指针位置
	origin   model.Position // 拖拽开始时元素左上角
	start    model.Rect     // 缩放开始时的矩形
	handle   Handle

	menuID string
	cropID string
	slot   string // 应用内逻辑剪贴板
}

// Options 配置引擎的外部能力。
type Options struct {
	Clipboard Clipboard
	Cropper   Cropper
	Logger    *slog.Logger
}

// NewEngine 创建交互引擎。
func NewEngine(scene Scene, d Dispatcher, opts Options) *Engine {
	e := &Engine{
		scene:     scene,
		dispatch:  d,
		clipboard: opts.Clipboard,
		cropper:   opts.Cropper,
		logger:    opts.Logger,
	}
	if e.clipboard == nil {
		e.clipboard = SystemClipboard{}
	}
	if e.logger == nil {
		e.logger = logging.Logger()
	}
	return e
}

// Mode 返回当前手势状态。
func (e *Engine) Mode() Mode { return e.mode }

// ContextMenuID 返回打开了右键菜单的元素 id。
func (e *Engine) ContextMenuID() string { return e.menuID }

// CroppingID 返回正在裁剪的元素 id。
func (e *Engine) CroppingID() string { return e.cropID }

func (e *Engine) emit(in Intent) {
	if err := e.dispatch.Dispatch(context.Background(), in); err != nil {
		e.logger.Warn("dispatch intent failed", "intent", intentName(in), "err", err)
	}
}

// PointerDown 在元素上按下指针：选中元素，并在可拖拽时开始拖拽。
// 隐藏元素被忽略；锁定、正在编辑文本或正在裁剪的元素只选中不拖拽。
func (e *Engine) PointerDown(id string, pt model.Position) {
	t, ok := e.scene.Lookup(id)
	if !ok {
		return
	}
	b := t.Element.Common()
	if !b.Visible {
		return
	}
	if e.mode == ModeCropping && e.cropID == id {
		return
	}
	e.menuID = ""
	if e.scene.SelectedID() != id {
		e.emit(Select{ID: id})
	}
	if b.Locked || e.scene.EditingID() == id {
		return
	}
	e.mode = ModeDragging
	e.activeID = id
	e.pointer = pt
	e.origin = b.Position
}

// BeginResize 从手柄开始缩放，仅适用于未锁定且可见的图片。
func (e *Engine) BeginResize(id string, h Handle, pt model.Position) {
	t, ok := e.scene.Lookup(id)
	if !ok {
		return
	}
	img, isImage := t.Element.(*model.ImageElement)
	if !isImage || img.Locked || !img.Visible || e.mode == ModeCropping {
		return
	}
	e.mode = ModeResizing
	e.activeID = id
	e.handle = h
	e.pointer = pt
	e.start = img.Bounds()
}

// PointerMove 在拖拽或缩放期间发出意图；每次移动都是幂等覆盖。
func (e *Engine) PointerMove(pt model.Position) {
	dx, dy := pt.X-e.pointer.X, pt.Y-e.pointer.Y
	switch e.mode {
	case ModeDragging:
		e.emit(Drag{ID: e.activeID, Origin: e.origin, DX: dx, DY: dy})
	case ModeResizing:
		e.emit(Resize{ID: e.activeID, Handle: e.handle, Start: e.start, DX: dx, DY: dy})
	}
}

// PointerUp 无条件结束拖拽/缩放。
func (e *Engine) PointerUp() { e.endGesture() }

// PointerLeave 与 PointerUp 相同。
func (e *Engine) PointerLeave() { e.endGesture() }

func (e *Engine) endGesture() {
	if e.mode == ModeDragging || e.mode == ModeResizing {
		e.mode = ModeIdle
		e.activeID = ""
	}
}

// ClickCanvas 点击空白区域：清除选择并关闭右键菜单。
func (e *Engine) ClickCanvas() {
	e.menuID = ""
	if e.scene.SelectedID() != "" {
		e.emit(Select{})
	}
}

// SelectFromLayer 处理图层面板点击，锁定或隐藏的元素不可选。
func (e *Engine) SelectFromLayer(id string) {
	t, ok := e.scene.Lookup(id)
	if !ok {
		return
	}
	b := t.Element.Common()
	if b.Locked || !b.Visible {
		return
	}
	e.emit(Select{ID: id})
}

// OpenContextMenu 打开元素右键菜单并选中该元素。
func (e *Engine) OpenContextMenu(id string) {
	if _, ok := e.scene.Lookup(id); !ok {
		return
	}
	e.endGesture()
	e.menuID = id
	if e.scene.SelectedID() != id {
		e.emit(Select{ID: id})
	}
}

// BeginCrop 从右键菜单进入裁剪模式，仅适用于图片。
func (e *Engine) BeginCrop(id string) {
	t, ok := e.scene.Lookup(id)
	if !ok {
		return
	}
	if _, isImage := t.Element.(*model.ImageElement); !isImage {
		return
	}
	e.menuID = ""
	e.activeID = ""
	e.mode = ModeCropping
	e.cropID = id
}

// ConfirmCrop 按元素坐标系中的区域裁剪并替换 src、width、height。
// 失败时记录日志并退出裁剪模式，元素保持不变。
func (e *Engine) ConfirmCrop(ctx context.Context, region model.Rect) error {
	if e.mode != ModeCropping {
		return nil
	}
	id := e.cropID
	defer e.CancelCrop()
	t, ok := e.scene.Lookup(id)
	if !ok {
		return nil
	}
	img, isImage := t.Element.(*model.ImageElement)
	if !isImage || e.cropper == nil {
		return nil
	}
	region = clipRegion(region, model.Size{Width: img.Width, Height: img.Height})
	if region.Width <= 0 || region.Height <= 0 {
		return nil
	}
	src, err := e.cropper.Crop(ctx, img.Src, model.Size{Width: img.Width, Height: img.Height}, region)
	if err != nil {
		e.logger.Warn("crop failed", "id", id, "err", err)
		return err
	}
	return e.dispatch.Dispatch(ctx, Crop{ID: id, Src: src, Width: region.Width, Height: region.Height})
}

// CancelCrop 放弃裁剪，回到普通模式。
func (e *Engine) CancelCrop() {
	if e.mode == ModeCropping {
		e.mode = ModeIdle
	}
	e.cropID = ""
}

// KeyDown 处理 Escape（关闭菜单、取消裁剪）与 Delete/Backspace（删除选中元素）。
func (e *Engine) KeyDown(k Key) {
	switch k {
	case KeyEscape:
		e.menuID = ""
		e.CancelCrop()
	case KeyDelete, KeyBackspace:
		id := e.scene.SelectedID()
		if id == "" || e.scene.EditingID() == id || e.mode == ModeCropping {
			return
		}
		e.menuID = ""
		e.endGesture()
		e.emit(Delete{ID: id})
	}
}

// BeginTextEdit 让文本元素进入编辑子状态，期间该元素不可拖拽。
func (e *Engine) BeginTextEdit(id string) {
	t, ok := e.scene.Lookup(id)
	if !ok {
		return
	}
	if _, isText := t.Element.(*model.TextElement); !isText || t.Element.Common().Locked {
		return
	}
	if e.activeID == id {
		e.endGesture()
	}
	e.emit(EditText{ID: id})
}

// EditText 在编辑期间每次修改都发出文本更新。
func (e *Engine) EditText(id, text string) {
	if e.scene.EditingID() != id {
		return
	}
	e.emit(Update{ID: id, Update: model.ElementUpdate{Text: &text}})
}

// EndTextEdit 退出文本编辑子状态。
func (e *Engine) EndTextEdit() {
	if e.scene.EditingID() != "" {
		e.emit(EditText{})
	}
}

// Copy 将选中元素写入逻辑剪贴板与系统剪贴板。
func (e *Engine) Copy() error {
	id := e.scene.SelectedID()
	t, ok := e.scene.Lookup(id)
	if !ok {
		return nil
	}
	raw, err := model.EncodeElement(t.Element)
	if err != nil {
		return err
	}
	e.slot = string(raw)
	if err := e.clipboard.WriteAll(e.slot); err != nil {
		e.logger.Warn("write system clipboard failed", "err", err)
	}
	return nil
}

// Paste 读取剪贴板：图片 data URL 作为图片插入，元素 JSON 以新 id 偏移粘贴，
// 其余非空文本作为文本元素插入。系统剪贴板不可用时退回逻辑剪贴板。
func (e *Engine) Paste(ctx context.Context, section model.Section) error {
	text, err := e.clipboard.ReadAll()
	if err != nil || text == "" {
		if err != nil {
			e.logger.Warn("read system clipboard failed", "err", err)
		}
		text = e.slot
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if strings.HasPrefix(text, "data:image/") {
		return e.dispatch.Dispatch(ctx, InsertImage{Src: text, Section: section})
	}
	if strings.HasPrefix(text, "{") {
		if el, err := model.DecodeElement([]byte(text)); err == nil {
			b := el.Common()
			b.ID = model.NewID()
			b.Position.X += pasteOffset
			b.Position.Y += pasteOffset
			return e.dispatch.Dispatch(ctx, InsertElement{Element: el, Section: section})
		}
	}
	return e.dispatch.Dispatch(ctx, InsertElement{Element: textElementFor(text), Section: section, Center: true})
}

// textElementFor 构造承载粘贴文本的元素。
func textElementFor(text string) *model.TextElement {
	el := model.NewTextElement(model.Size{})
	el.Text = text
	el.Width = 200
	el.Height = 40
	return el
}

// VisibleElements 返回需要渲染的元素（跳过 visible == false）。
func VisibleElements(es model.Elements) model.Elements {
	out := make(model.Elements, 0, len(es))
	for _, el := range es {
		if el.Common().Visible {
			out = append(out, el)
		}
	}
	return out
}

func clipRegion(r model.Rect, size model.Size) model.Rect {
	if r.X < 0 {
		r.Width += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.Height += r.Y
		r.Y = 0
	}
	if r.X+r.Width > size.Width {
		r.Width = size.Width - r.X
	}
	if r.Y+r.Height > size.Height {
		r.Height = size.Height - r.Y
	}
	return r
}

func intentName(in Intent) string {
	switch in.(type) {
	case Select:
		return "select"
	case Drag:
		return "drag"
	case Resize:
		return "resize"
	case Update:
		return "update"
	case Delete:
		return "delete"
	case Crop:
		return "crop"
	case EditText:
		return "edit-text"
	case InsertImage:
		return "insert-image"
	case InsertElement:
		return "insert-element"
	default:
		return "unknown"
	}
}
