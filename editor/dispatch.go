package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ByLCY/reportcanvas/interact"
	"github.com/ByLCY/reportcanvas/model"
)

// Dispatch 应用交互引擎发出的意图。引用已不存在的元素的意图是空操作。
func (s *Session) Dispatch(ctx context.Context, in interact.Intent) error {
	var err error
	switch in := in.(type) {
	case interact.Select:
		err = s.Select(in.ID)
	case interact.Drag:
		err = s.drag(in)
	case interact.Resize:
		err = s.resize(in)
	case interact.Update:
		err = s.UpdateElement(in.ID, in.Update)
	case interact.Delete:
		err = s.DeleteElement(in.ID)
	case interact.Crop:
		err = s.crop(in)
	case interact.EditText:
		err = s.editText(in.ID)
	case interact.InsertImage:
		_, err = s.AddImage(ctx, in.Src, in.Section)
	case interact.InsertElement:
		s.insertElement(in.Element, in.Section, in.Center)
	default:
		return fmt.Errorf("editor: unsupported intent %T", in)
	}
	if errors.Is(err, ErrNoSuchElement) {
		return nil
	}
	return err
}

// drag 以拖拽起点加位移为目标位置，钳制在区域内。
func (s *Session) drag(in interact.Drag) error {
	return s.mutate(func() error {
		loc, ok := s.locateLocked(in.ID)
		if !ok {
			return ErrNoSuchElement
		}
		b := loc.element().Common()
		if b.Locked || !b.Visible || s.editing == in.ID {
			return errNoChange
		}
		b.Position = interact.ClampPosition(in.Origin.X+in.DX, in.Origin.Y+in.DY, b.Width, b.Height, s.boundsLocked(loc.section))
		return nil
	})
}

func (s *Session) resize(in interact.Resize) error {
	return s.mutate(func() error {
		loc, ok := s.locateLocked(in.ID)
		if !ok {
			return ErrNoSuchElement
		}
		img, isImage := loc.element().(*model.ImageElement)
		if !isImage || img.Locked || !img.Visible {
			return errNoChange
		}
		img.SetBounds(interact.ResizeStep(in.Start, in.Handle, in.DX, in.DY, s.boundsLocked(loc.section)))
		return nil
	})
}

func (s *Session) crop(in interact.Crop) error {
	return s.mutate(func() error {
		loc, ok := s.locateLocked(in.ID)
		if !ok {
			return ErrNoSuchElement
		}
		img, isImage := loc.element().(*model.ImageElement)
		if !isImage {
			return errNoChange
		}
		img.Src = in.Src
		img.SetBounds(interact.KeepInBounds(model.Rect{
			X: img.Position.X, Y: img.Position.Y, Width: in.Width, Height: in.Height,
		}, s.boundsLocked(loc.section)))
		return nil
	})
}

// editText 进入或退出文本编辑；只有未锁定的文本元素可以进入，进入时同时选中它。
func (s *Session) editText(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.editing = ""
		return nil
	}
	loc, ok := s.locateLocked(id)
	if !ok {
		return ErrNoSuchElement
	}
	t, isText := loc.element().(*model.TextElement)
	if !isText || t.Locked {
		return nil
	}
	s.selected = id
	s.editing = id
	return nil
}
