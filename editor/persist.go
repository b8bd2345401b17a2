package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/ByLCY/reportcanvas/model"
)

// hydrate 读取并校验存储的文档。
func (s *Session) hydrate(ctx context.Context) (model.Document, error) {
	raw, err := s.opts.Storage.Get(ctx, s.opts.Key)
	if err != nil {
		return model.Document{}, err
	}
	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.Document{}, fmt.Errorf("解析编辑状态失败: %w", err)
	}
	normalize(&doc)
	if err := doc.Validate(); err != nil {
		return model.Document{}, fmt.Errorf("编辑状态无效: %w", err)
	}
	return doc, nil
}

// normalize 修复可以安全修复的问题：缺省尺寸与方向、空集合、越界的当前页下标，
// 以及缺失或重复的 id。跨集合重复时保留先出现者（页眉、页脚、各页依次），其余重新生成。
func normalize(doc *model.Document) {
	if doc.Header.Elements == nil {
		doc.Header.Elements = model.Elements{}
	}
	if doc.Footer.Elements == nil {
		doc.Footer.Elements = model.Elements{}
	}
	seen := map[string]struct{}{}
	claim := func(id *string) {
		if _, dup := seen[*id]; *id == "" || dup {
			*id = model.NewID()
		}
		seen[*id] = struct{}{}
	}
	fix := func(es model.Elements) {
		for _, el := range es {
			if el != nil {
				claim(&el.Common().ID)
			}
		}
	}
	fix(doc.Header.Elements)
	fix(doc.Footer.Elements)

	pageIDs := map[string]struct{}{}
	for _, p := range doc.Pages {
		if p == nil {
			continue
		}
		if p.Size == "" {
			p.Size = model.SizeA4
		}
		if p.Orientation == "" {
			p.Orientation = model.Portrait
		}
		if p.Elements == nil {
			p.Elements = model.Elements{}
		}
		if _, dup := pageIDs[p.ID]; p.ID == "" || dup {
			p.ID = model.NewID()
		}
		pageIDs[p.ID] = struct{}{}
		fix(p.Elements)
	}
	if n := len(doc.Pages); n > 0 {
		doc.CurrentPageIndex = min(max(doc.CurrentPageIndex, 0), n-1)
	}
}

// fontFamilies 返回文档中所有文本元素引用的字体族（去重，按出现顺序）。
func fontFamilies(doc model.Document) []string {
	all := append(doc.Header.Elements.Clone(), doc.Footer.Elements...)
	for _, p := range doc.Pages {
		all = append(all, p.Elements...)
	}
	return lo.Uniq(lo.FilterMap(all, func(el model.Element, _ int) (string, bool) {
		t, ok := el.(*model.TextElement)
		if !ok || t.FontFamily == "" {
			return "", false
		}
		return t.FontFamily, true
	}))
}

func (s *Session) requestFonts(doc model.Document) {
	if s.opts.Fonts == nil {
		return
	}
	for _, family := range fontFamilies(doc) {
		s.opts.Fonts.Request(family)
	}
}

// changed 在每次提交后调用：立即保存，或在 SaveDelay 后合并保存。
func (s *Session) changed() {
	if s.opts.Storage == nil {
		return
	}
	if s.opts.SaveDelay <= 0 {
		_ = s.Save(context.Background())
		return
	}
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.timer == nil {
		s.timer = time.AfterFunc(s.opts.SaveDelay, func() { _ = s.Flush(context.Background()) })
		return
	}
	s.timer.Reset(s.opts.SaveDelay)
}

// Save 立即写入 {pages, currentPageIndex, header, footer}。
// 失败会记录日志并通知用户，会话保持可用，下次提交时重试。
func (s *Session) Save(ctx context.Context) error {
	if s.opts.Storage == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	raw, err := json.Marshal(s.doc)
	s.dirty = false
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("encode editor state failed", "key", s.opts.Key, "err", err)
		return fmt.Errorf("编码编辑状态失败: %w", err)
	}
	if err := s.opts.Storage.Set(ctx, s.opts.Key, raw); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		s.logger.Warn("save editor state failed", "key", s.opts.Key, "err", err)
		s.notify(LevelWarn, "Changes could not be saved")
		return fmt.Errorf("保存编辑状态失败: %w", err)
	}
	s.logger.Debug("editor state saved", "key", s.opts.Key, "bytes", len(raw))
	return nil
}

// Flush 取消等待中的延迟保存，并在有未保存修改时立即保存。离开编辑器前调用。
func (s *Session) Flush(ctx context.Context) error {
	s.timerMu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerMu.Unlock()

	s.mu.Lock()
	dirty := s.dirty
	s.mu.Unlock()
	if !dirty {
		return nil
	}
	return s.Save(ctx)
}
