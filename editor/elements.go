package editor

import (
	"context"
	"fmt"

	"github.com/ByLCY/reportcanvas/interact"
	"github.com/ByLCY/reportcanvas/model"
)

// AddText 在区域中央创建文本元素并选中，返回其 id。
func (s *Session) AddText(section model.Section) string {
	var id string
	_ = s.mutate(func() error {
		el := model.NewTextElement(s.boundsLocked(section))
		s.appendLocked(section, el)
		id = el.ID
		return nil
	})
	return id
}

// AddImage 先解码图片得到原始尺寸，再在区域中央创建图片元素并选中。
// 解码失败时不创建元素，记录日志并通知用户。
func (s *Session) AddImage(ctx context.Context, src string, section model.Section) (string, error) {
	natural, err := s.decode(ctx, src)
	if err != nil {
		s.logger.Warn("decode image failed", "section", section, "err", err)
		s.notify(LevelWarn, "Image could not be loaded")
		return "", fmt.Errorf("解码图片失败: %w", err)
	}
	var id string
	err = s.mutate(func() error {
		// 区域尺寸在解码结束后读取，以当前页为准
		el := model.NewImageElement(src, natural, s.boundsLocked(section))
		s.appendLocked(section, el)
		id = el.ID
		return nil
	})
	return id, err
}

func (s *Session) decode(ctx context.Context, src string) (model.Size, error) {
	if s.opts.Images == nil {
		return model.Size{}, fmt.Errorf("no image decoder configured")
	}
	return s.opts.Images.Size(ctx, src)
}

// insertElement 插入外部构造的元素（粘贴）。id 冲突时重新生成，尺寸限制在区域内。
func (s *Session) insertElement(el model.Element, section model.Section, center bool) string {
	var id string
	_ = s.mutate(func() error {
		el = el.Clone()
		b := el.Common()
		if _, taken := s.locateLocked(b.ID); taken || b.ID == "" {
			b.ID = model.NewID()
		}
		bounds := s.boundsLocked(section)
		b.Width = min(b.Width, bounds.Width)
		b.Height = min(b.Height, bounds.Height)
		if center {
			b.Position = model.Position{X: (bounds.Width - b.Width) / 2, Y: (bounds.Height - b.Height) / 2}
		}
		b.Position = interact.ClampPosition(b.Position.X, b.Position.Y, b.Width, b.Height, bounds)
		b.Visible = true
		s.appendLocked(section, el)
		id = b.ID
		return nil
	})
	return id
}

func (s *Session) appendLocked(section model.Section, el model.Element) {
	list := s.elementsLocked(section)
	*list = append(*list, el)
	s.selected = el.Common().ID
	s.editing = ""
}

// UpdateElement 按 页眉、页脚、当前页 的顺序查找元素并合并部分更新。
// 更新修改字体族时会请求加载该字体。
func (s *Session) UpdateElement(id string, u model.ElementUpdate) error {
	return s.updateAt(u, func() (location, bool) { return s.locateLocked(id) })
}

// UpdateElementIn 在指定区域中更新元素，不依赖查找顺序。
func (s *Session) UpdateElementIn(section model.Section, id string, u model.ElementUpdate) error {
	return s.updateAt(u, func() (location, bool) { return s.locateInLocked(section, id) })
}

func (s *Session) updateAt(u model.ElementUpdate, find func() (location, bool)) error {
	err := s.mutate(func() error {
		loc, ok := find()
		if !ok {
			return ErrNoSuchElement
		}
		el := loc.element()
		u.ApplyTo(el)
		s.settleLocked(el.Common())
		return nil
	})
	if err == nil && u.TouchesFontFamily() && s.opts.Fonts != nil {
		s.opts.Fonts.Request(*u.FontFamily)
	}
	return err
}

// DeleteElement 从所在集合中删除元素；删除的是选中元素时清除选择。
func (s *Session) DeleteElement(id string) error {
	return s.mutate(func() error {
		loc, ok := s.locateLocked(id)
		if !ok {
			return ErrNoSuchElement
		}
		*loc.list = append((*loc.list)[:loc.index], (*loc.list)[loc.index+1:]...)
		if s.selected == id {
			s.selected = ""
		}
		if s.editing == id {
			s.editing = ""
		}
		return nil
	})
}

// ReorderElements 调整当前页元素的层叠顺序，只移动一个元素。
func (s *Session) ReorderElements(from, to int) error {
	return s.mutate(func() error {
		return reorder(s.elementsLocked(model.SectionPage), from, to)
	})
}

// BringToFront 把元素移到所在集合的最上层。
func (s *Session) BringToFront(id string) error {
	return s.mutate(func() error {
		loc, ok := s.locateLocked(id)
		if !ok {
			return ErrNoSuchElement
		}
		return reorder(loc.list, loc.index, len(*loc.list)-1)
	})
}

// SendToBack 把元素移到所在集合的最底层。
func (s *Session) SendToBack(id string) error {
	return s.mutate(func() error {
		loc, ok := s.locateLocked(id)
		if !ok {
			return ErrNoSuchElement
		}
		return reorder(loc.list, loc.index, 0)
	})
}

func reorder(list *model.Elements, from, to int) error {
	n := len(*list)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: reorder elements %d -> %d of %d", ErrIndexOutOfRange, from, to, n)
	}
	if from == to {
		return errNoChange
	}
	*list = move(*list, from, to)
	return nil
}

// ToggleLock 切换锁定状态，对锁定或隐藏的元素同样有效。
func (s *Session) ToggleLock(id string) error {
	return s.toggle(id, func(b *model.Base) { b.Locked = !b.Locked })
}

// ToggleVisible 切换可见状态，对锁定或隐藏的元素同样有效。
func (s *Session) ToggleVisible(id string) error {
	return s.toggle(id, func(b *model.Base) { b.Visible = !b.Visible })
}

func (s *Session) toggle(id string, flip func(*model.Base)) error {
	return s.mutate(func() error {
		loc, ok := s.locateLocked(id)
		if !ok {
			return ErrNoSuchElement
		}
		b := loc.element().Common()
		flip(b)
		s.settleLocked(b)
		return nil
	})
}

// settleLocked 隐藏的元素不能保持选中，锁定的元素不能保持编辑。
func (s *Session) settleLocked(b *model.Base) {
	if !b.Visible && s.selected == b.ID {
		s.clearSelectionLocked()
	}
	if b.Locked && s.editing == b.ID {
		s.editing = ""
	}
}
