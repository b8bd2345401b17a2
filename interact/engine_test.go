package interact

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/reportcanvas/model"
)

// fakeScene 同时充当 Scene 与 Dispatcher，记录收到的意图。
type fakeScene struct {
	page     model.Size
	elements map[string]model.Element
	selected string
	editing  string
	intents  []Intent
}

func newFakeScene(els ...model.Element) *fakeScene {
	s := &fakeScene{page: model.Dimensions(model.SizeA4, model.Portrait), elements: map[string]model.Element{}}
	for _, el := range els {
		s.elements[el.Common().ID] = el
	}
	return s
}

func (s *fakeScene) Lookup(id string) (Target, bool) {
	el, ok := s.elements[id]
	if !ok {
		return Target{}, false
	}
	return Target{Element: el.Clone(), Section: model.SectionPage, Bounds: s.page}, true
}

func (s *fakeScene) SelectedID() string { return s.selected }
func (s *fakeScene) EditingID() string  { return s.editing }

func (s *fakeScene) Dispatch(_ context.Context, in Intent) error {
	s.intents = append(s.intents, in)
	switch v := in.(type) {
	case Select:
		s.selected = v.ID
	case EditText:
		s.editing = v.ID
	case Drag:
		el := s.elements[v.ID]
		b := el.Common()
		b.Position = ClampPosition(v.Origin.X+v.DX, v.Origin.Y+v.DY, b.Width, b.Height, s.page)
	}
	return nil
}

func (s *fakeScene) last() Intent {
	if len(s.intents) == 0 {
		return nil
	}
	return s.intents[len(s.intents)-1]
}

type stubCropper struct {
	err error
}

func (c stubCropper) Crop(_ context.Context, src string, _ model.Size, region model.Rect) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return src + "#cropped", nil
}

func textEl(id string) *model.TextElement {
	el := model.NewTextElement(model.Dimensions(model.SizeA4, model.Portrait))
	el.ID = id
	return el
}

func imageEl(id string) *model.ImageElement {
	el := model.NewImageElement("data:image/png;base64,AAAA", model.Size{Width: 400, Height: 200}, model.Dimensions(model.SizeA4, model.Portrait))
	el.ID = id
	return el
}

func TestDragSelectsAndClamps(t *testing.T) {
	s := newFakeScene(textEl("t"))
	e := NewEngine(s, s, Options{Clipboard: &MemoryClipboard{}})

	e.PointerDown("t", model.Position{X: 300, Y: 500})
	assert.Equal(t, "t", s.selected)
	assert.Equal(t, ModeDragging, e.Mode())

	e.PointerMove(model.Position{X: 10300, Y: 500})
	drag, ok := s.last().(Drag)
	require.True(t, ok)
	assert.Equal(t, 10000.0, drag.DX)
	el := s.elements["t"].Common()
	assert.Equal(t, s.page.Width-el.Width, el.Position.X)

	e.PointerLeave()
	assert.Equal(t, ModeIdle, e.Mode())
	n := len(s.intents)
	e.PointerMove(model.Position{X: 0, Y: 0})
	assert.Len(t, s.intents, n, "拖拽结束后不应再发出意图")
}

func TestLockedAndEditingElementsDoNotDrag(t *testing.T) {
	locked := textEl("l")
	locked.Locked = true
	s := newFakeScene(locked, textEl("e"))
	e := NewEngine(s, s, Options{Clipboard: &MemoryClipboard{}})

	e.PointerDown("l", model.Position{})
	assert.Equal(t, ModeIdle, e.Mode())
	assert.Equal(t, "l", s.selected)

	e.BeginTextEdit("e")
	assert.Equal(t, "e", s.editing)
	e.PointerDown("e", model.Position{})
	assert.Equal(t, ModeIdle, e.Mode())

	e.EditText("e", "hello")
	upd, ok := s.last().(Update)
	require.True(t, ok)
	assert.Equal(t, "hello", *upd.Update.Text)

	e.EndTextEdit()
	assert.Empty(t, s.editing)
}

func TestHiddenElementIgnoredAndLayerSelection(t *testing.T) {
	hidden := textEl("h")
	hidden.Visible = false
	locked := textEl("l")
	locked.Locked = true
	s := newFakeScene(hidden, locked, textEl("ok"))
	e := NewEngine(s, s, Options{Clipboard: &MemoryClipboard{}})

	e.PointerDown("h", model.Position{})
	assert.Empty(t, s.intents)

	e.SelectFromLayer("l")
	e.SelectFromLayer("h")
	assert.Empty(t, s.intents)
	e.SelectFromLayer("ok")
	assert.Equal(t, "ok", s.selected)

	e.PointerDown("missing", model.Position{})
	assert.Equal(t, ModeIdle, e.Mode())
}

func TestResizeOnlyImages(t *testing.T) {
	s := newFakeScene(textEl("t"), imageEl("i"))
	e := NewEngine(s, s, Options{Clipboard: &MemoryClipboard{}})

	e.BeginResize("t", HandleSE, model.Position{})
	assert.Equal(t, ModeIdle, e.Mode())

	e.BeginResize("i", HandleSE, model.Position{X: 10, Y: 10})
	require.Equal(t, ModeResizing, e.Mode())
	e.PointerMove(model.Position{X: 60, Y: 10})
	rs, ok := s.last().(Resize)
	require.True(t, ok)
	assert.Equal(t, HandleSE, rs.Handle)
	assert.Equal(t, 50.0, rs.DX)
	assert.Equal(t, 300.0, rs.Start.Width)
	e.PointerUp()
	assert.Equal(t, ModeIdle, e.Mode())
}

func TestCropFlow(t *testing.T) {
	s := newFakeScene(imageEl("i"))
	e := NewEngine(s, s, Options{Clipboard: &MemoryClipboard{}, Cropper: stubCropper{}})

	e.OpenContextMenu("i")
	assert.Equal(t, "i", e.ContextMenuID())
	e.BeginCrop("i")
	assert.Empty(t, e.ContextMenuID())
	require.Equal(t, ModeCropping, e.Mode())

	e.PointerDown("i", model.Position{})
	assert.Equal(t, ModeCropping, e.Mode(), "裁剪期间不可拖拽")

	require.NoError(t, e.ConfirmCrop(context.Background(), model.Rect{X: 10, Y: 10, Width: 100, Height: 1000}))
	crop, ok := s.last().(Crop)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(crop.Src, "#cropped"))
	assert.Equal(t, 100.0, crop.Width)
	assert.Equal(t, 140.0, crop.Height, "裁剪区域应被限制在图片内")
	assert.Equal(t, ModeIdle, e.Mode())
}

func TestCropEscapeAndFailure(t *testing.T) {
	s := newFakeScene(imageEl("i"))
	e := NewEngine(s, s, Options{Clipboard: &MemoryClipboard{}, Cropper: stubCropper{err: errors.New("decode")}})

	e.BeginCrop("i")
	e.KeyDown(KeyEscape)
	assert.Equal(t, ModeIdle, e.Mode())
	assert.Empty(t, e.CroppingID())

	e.BeginCrop("i")
	err := e.ConfirmCrop(context.Background(), model.Rect{Width: 20, Height: 20})
	require.Error(t, err)
	assert.Equal(t, ModeIdle, e.Mode())
	for _, in := range s.intents {
		_, isCrop := in.(Crop)
		assert.False(t, isCrop)
	}
}

func TestKeyboardDeleteRespectsEditing(t *testing.T) {
	s := newFakeScene(textEl("t"))
	e := NewEngine(s, s, Options{Clipboard: &MemoryClipboard{}})

	e.KeyDown(KeyDelete)
	assert.Empty(t, s.intents)

	e.PointerDown("t", model.Position{})
	e.PointerUp()
	e.BeginTextEdit("t")
	e.KeyDown(KeyBackspace)
	_, isDelete := s.last().(Delete)
	assert.False(t, isDelete)

	e.EndTextEdit()
	e.KeyDown(KeyDelete)
	del, ok := s.last().(Delete)
	require.True(t, ok)
	assert.Equal(t, "t", del.ID)
}

func TestClickCanvasClearsSelection(t *testing.T) {
	s := newFakeScene(imageEl("i"))
	e := NewEngine(s, s, Options{Clipboard: &MemoryClipboard{}})
	e.OpenContextMenu("i")
	e.ClickCanvas()
	assert.Empty(t, s.selected)
	assert.Empty(t, e.ContextMenuID())
}

func TestCopyPaste(t *testing.T) {
	clip := &MemoryClipboard{}
	s := newFakeScene(textEl("t"))
	e := NewEngine(s, s, Options{Clipboard: clip})

	e.PointerDown("t", model.Position{})
	e.PointerUp()
	require.NoError(t, e.Copy())
	text, _ := clip.ReadAll()
	assert.Contains(t, text, `"type":"text"`)

	require.NoError(t, e.Paste(context.Background(), model.SectionPage))
	ins, ok := s.last().(InsertElement)
	require.True(t, ok)
	assert.NotEqual(t, "t", ins.Element.Common().ID)
	assert.Equal(t, s.elements["t"].Common().Position.X+pasteOffset, ins.Element.Common().Position.X)
	assert.False(t, ins.Center)

	require.NoError(t, clip.WriteAll("data:image/png;base64,AAAA"))
	require.NoError(t, e.Paste(context.Background(), model.SectionHeader))
	img, ok := s.last().(InsertImage)
	require.True(t, ok)
	assert.Equal(t, model.SectionHeader, img.Section)

	require.NoError(t, clip.WriteAll("plain words"))
	require.NoError(t, e.Paste(context.Background(), model.SectionFooter))
	ins, ok = s.last().(InsertElement)
	require.True(t, ok)
	assert.Equal(t, "plain words", ins.Element.(*model.TextElement).Text)
	assert.True(t, ins.Center)
}

func TestVisibleElements(t *testing.T) {
	hidden := textEl("h")
	hidden.Visible = false
	out := VisibleElements(model.Elements{textEl("a"), hidden, imageEl("b")})
	assert.Equal(t, []string{"a", "b"}, out.IDs())
}
