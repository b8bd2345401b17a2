package editor

import (
	"fmt"

	"github.com/ByLCY/reportcanvas/model"
)

// AddPage 在末尾追加一页与当前页同尺寸的空白页，并切换过去。
func (s *Session) AddPage() {
	_ = s.mutate(func() error {
		cur := s.currentLocked()
		s.doc.Pages = append(s.doc.Pages, model.NewPage(cur.Size, cur.Orientation))
		s.doc.CurrentPageIndex = len(s.doc.Pages) - 1
		s.clearSelectionLocked()
		return nil
	})
}

// DuplicatePage 复制当前页（重新生成全部 id），插入到其后并切换过去。
func (s *Session) DuplicatePage() {
	_ = s.mutate(func() error {
		i := s.doc.CurrentPageIndex
		dup := s.doc.Pages[i].CloneWithNewIDs()
		s.doc.Pages = append(s.doc.Pages[:i+1], append([]*model.Page{dup}, s.doc.Pages[i+1:]...)...)
		s.doc.CurrentPageIndex = i + 1
		s.clearSelectionLocked()
		return nil
	})
}

// DeletePage 删除当前页。删除唯一一页时以新的空白页代替；
// 否则切换到前一页，删除的是第一页时切换到新的第一页。
func (s *Session) DeletePage() {
	_ = s.mutate(func() error {
		i := s.doc.CurrentPageIndex
		if len(s.doc.Pages) == 1 {
			cur := s.doc.Pages[0]
			s.doc.Pages = []*model.Page{model.NewPage(cur.Size, cur.Orientation)}
			s.doc.CurrentPageIndex = 0
		} else {
			s.doc.Pages = append(s.doc.Pages[:i], s.doc.Pages[i+1:]...)
			s.doc.CurrentPageIndex = max(0, i-1)
		}
		s.clearSelectionLocked()
		return nil
	})
}

// ReorderPages 把 from 处的页移动到 to。当前页始终指向同一逻辑页。
func (s *Session) ReorderPages(from, to int) error {
	return s.mutate(func() error {
		n := len(s.doc.Pages)
		if from < 0 || from >= n || to < 0 || to >= n {
			return fmt.Errorf("%w: reorder pages %d -> %d of %d", ErrIndexOutOfRange, from, to, n)
		}
		if from == to {
			return errNoChange
		}
		s.doc.Pages = move(s.doc.Pages, from, to)
		cur := s.doc.CurrentPageIndex
		switch {
		case cur == from:
			cur = to
		case from < cur && cur <= to:
			cur--
		case to <= cur && cur < from:
			cur++
		}
		s.doc.CurrentPageIndex = cur
		return nil
	})
}

// ChangePageSize 修改纸张尺寸，作用范围由 Options.SizeScope 决定。
func (s *Session) ChangePageSize(size model.PageSize) error {
	if _, err := model.ParsePageSize(string(size)); err != nil {
		return err
	}
	return s.mutate(func() error {
		for _, p := range s.scopedPagesLocked() {
			p.Size = size
		}
		return nil
	})
}

// ChangeOrientation 修改纸张方向，作用范围由 Options.SizeScope 决定。
func (s *Session) ChangeOrientation(o model.Orientation) error {
	if o != model.Portrait && o != model.Landscape {
		return fmt.Errorf("无法识别的纸张方向：%s", o)
	}
	return s.mutate(func() error {
		for _, p := range s.scopedPagesLocked() {
			p.Orientation = o
		}
		return nil
	})
}

func (s *Session) scopedPagesLocked() []*model.Page {
	if s.opts.SizeScope == ScopeAllPages {
		return s.doc.Pages
	}
	return []*model.Page{s.currentLocked()}
}

// GoToPreviousPage 切换到上一页；已在第一页时不做任何事。
func (s *Session) GoToPreviousPage() bool {
	return s.goTo(func(i, _ int) int { return i - 1 })
}

// GoToNextPage 切换到下一页；已在最后一页时不做任何事。
func (s *Session) GoToNextPage() bool {
	return s.goTo(func(i, _ int) int { return i + 1 })
}

// GoToPage 切换到指定页，下标被钳制到有效范围。
func (s *Session) GoToPage(index int) bool {
	return s.goTo(func(_, _ int) int { return index })
}

func (s *Session) goTo(next func(cur, n int) int) bool {
	moved := false
	_ = s.mutate(func() error {
		n := len(s.doc.Pages)
		i := min(max(next(s.doc.CurrentPageIndex, n), 0), n-1)
		if i == s.doc.CurrentPageIndex {
			return errNoChange
		}
		s.doc.CurrentPageIndex = i
		s.clearSelectionLocked()
		moved = true
		return nil
	})
	return moved
}

// SetHeaderBackground 设置页眉背景色，空字符串表示清除。
func (s *Session) SetHeaderBackground(color string) error {
	return s.setBackground(color, func(c string) { s.doc.Header.BackgroundColor = c })
}

// SetFooterBackground 设置页脚背景色。
func (s *Session) SetFooterBackground(color string) error {
	return s.setBackground(color, func(c string) { s.doc.Footer.BackgroundColor = c })
}

// SetPageBackground 设置当前页背景色。
func (s *Session) SetPageBackground(color string) error {
	return s.setBackground(color, func(c string) { s.currentLocked().BackgroundColor = c })
}

func (s *Session) setBackground(color string, set func(string)) error {
	if color != "" {
		if _, err := model.ParseColor(color); err != nil {
			return err
		}
	}
	return s.mutate(func() error {
		set(color)
		return nil
	})
}

// LoadTemplate 用模板替换当前文档：单页、页眉、页脚，保留模板元素 id。
func (s *Session) LoadTemplate(t *model.CanvasTemplate) error {
	page := model.NewPage(t.Page.Size, t.Page.Orientation)
	page.BackgroundColor = t.Page.BackgroundColor
	page.Elements = t.Page.Elements.Clone()
	doc := model.Document{
		Pages:  []*model.Page{page},
		Header: t.Header.Clone(),
		Footer: t.Footer.Clone(),
	}
	normalize(&doc)
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("加载模板 %s 失败: %w", t.Name, err)
	}
	err := s.mutate(func() error {
		s.doc = doc
		s.clearSelectionLocked()
		return nil
	})
	s.requestFonts(doc)
	return err
}

// LoadDocument 用外部文档（例如排版引擎生成的页面或草稿）替换当前文档。
func (s *Session) LoadDocument(doc model.Document) error {
	doc = doc.Clone()
	normalize(&doc)
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("加载文档失败: %w", err)
	}
	err := s.mutate(func() error {
		s.doc = doc
		s.clearSelectionLocked()
		return nil
	})
	s.requestFonts(doc)
	return err
}

// Reset 回到只有一页空白页的初始文档。
func (s *Session) Reset() {
	_ = s.mutate(func() error {
		s.doc = model.NewDocument()
		s.clearSelectionLocked()
		return nil
	})
}

func move[T any](list []T, from, to int) []T {
	item := list[from]
	out := append(list[:from:from], list[from+1:]...)
	out = append(out[:to:to], append([]T{item}, out[to:]...)...)
	return out
}
