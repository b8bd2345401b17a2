// Package templates 管理可复用的画布模板库。整个库以 JSON 数组保存在单个存储键下。
package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/ByLCY/reportcanvas/dsl"
	"github.com/ByLCY/reportcanvas/logging"
	"github.com/ByLCY/reportcanvas/model"
	"github.com/ByLCY/reportcanvas/raster"
	"github.com/ByLCY/reportcanvas/storage"
)

// StorageKey 是模板库在存储中的键。
const StorageKey = "canvas-templates"

// 缩略图尺寸（px）。
const (
	ThumbnailWidth  = 240
	ThumbnailHeight = 320
)

var (
	// ErrNotFound 表示模板不存在。
	ErrNotFound = errors.New("templates: template not found")
	// ErrDefaultTemplate 表示试图删除默认模板。
	ErrDefaultTemplate = errors.New("templates: default templates cannot be deleted")
	// ErrDuplicateID 表示新建模板的 id 已被占用。
	ErrDuplicateID = errors.New("templates: template id already exists")
)

// Thumbnailer 将文档当前页光栅化为 base64 图片字符串。
type Thumbnailer interface {
	CaptureThumbnail(ctx context.Context, doc model.Document, width, height int) (string, error)
}

// Store 是模板库。读改写在互斥锁内完成，同一进程内的写入不会互相覆盖。
type Store struct {
	st     storage.Storage
	logger *slog.Logger
	thumbs Thumbnailer
	now    func() time.Time

	mu sync.Mutex
}

// Option 配置 Store。
type Option func(*Store)

// WithLogger 指定日志。
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

// WithThumbnailer 指定缩略图生成器，SaveFromDocument 使用。
func WithThumbnailer(t Thumbnailer) Option { return func(s *Store) { s.thumbs = t } }

// WithClock 替换时间来源。
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// NewStore 创建基于 st 的模板库。
func NewStore(st storage.Storage, opts ...Option) *Store {
	s := &Store{st: st, logger: logging.Logger(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List 返回全部模板。键不存在或内容损坏时返回空列表（损坏会记录日志）。
func (s *Store) List(ctx context.Context) ([]model.CanvasTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get 按 id 返回模板。
func (s *Store) Get(ctx context.Context, id string) (model.CanvasTemplate, error) {
	list, err := s.List(ctx)
	if err != nil {
		return model.CanvasTemplate{}, err
	}
	t, ok := lo.Find(list, func(t model.CanvasTemplate) bool { return t.ID == id })
	if !ok {
		return model.CanvasTemplate{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// Categories 返回模板库中出现过的分类（按首次出现顺序）。
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Uniq(lo.FilterMap(list, func(t model.CanvasTemplate, _ int) (string, bool) {
		return t.Category, t.Category != ""
	})), nil
}

// Create 校验并追加模板。空 id 会被生成；时间戳总是重写。
func (s *Store) Create(ctx context.Context, t model.CanvasTemplate) (model.CanvasTemplate, error) {
	t = normalize(t.Clone())
	if err := validate(t); err != nil {
		return model.CanvasTemplate{}, err
	}
	if t.ID == "" {
		t.ID = model.NewID()
	}
	ts := s.now().UnixMilli()
	t.CreatedAt, t.UpdatedAt = ts, ts

	err := s.modify(ctx, func(list []model.CanvasTemplate) ([]model.CanvasTemplate, error) {
		if lo.ContainsBy(list, func(e model.CanvasTemplate) bool { return e.ID == t.ID }) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
		}
		return append(list, t), nil
	})
	if err != nil {
		return model.CanvasTemplate{}, err
	}
	s.logger.Info("template created", "id", t.ID, "name", t.Name)
	return t.Clone(), nil
}

// Update 用 t 替换同 id 的模板：保留 createdAt 与 isDefault，刷新 updatedAt。
func (s *Store) Update(ctx context.Context, t model.CanvasTemplate) (model.CanvasTemplate, error) {
	t = normalize(t.Clone())
	if err := validate(t); err != nil {
		return model.CanvasTemplate{}, err
	}
	err := s.modify(ctx, func(list []model.CanvasTemplate) ([]model.CanvasTemplate, error) {
		_, i, ok := lo.FindIndexOf(list, func(e model.CanvasTemplate) bool { return e.ID == t.ID })
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, t.ID)
		}
		t.CreatedAt = list[i].CreatedAt
		// 默认标记不随更新改变，否则可以先取消默认再删除
		t.IsDefault = list[i].IsDefault
		// 同一毫秒内的连续更新也要让 updatedAt 单调递增
		t.UpdatedAt = max(s.now().UnixMilli(), list[i].UpdatedAt+1)
		list[i] = t
		return list, nil
	})
	if err != nil {
		return model.CanvasTemplate{}, err
	}
	return t.Clone(), nil
}

// Duplicate 复制模板：新 id、元素 id 全部重新生成、名称追加 " (Copy)"，且不再是默认模板。
func (s *Store) Duplicate(ctx context.Context, id string) (model.CanvasTemplate, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return model.CanvasTemplate{}, err
	}
	cp := src.Clone()
	cp.ID = ""
	cp.Name = src.Name + " (Copy)"
	cp.IsDefault = false
	for _, list := range []model.Elements{cp.Header.Elements, cp.Footer.Elements, cp.Page.Elements} {
		for _, el := range list {
			el.Common().ID = model.NewID()
		}
	}
	return s.Create(ctx, cp)
}

// Delete 删除模板。默认模板返回 ErrDefaultTemplate，列表保持不变。
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.modify(ctx, func(list []model.CanvasTemplate) ([]model.CanvasTemplate, error) {
		t, i, ok := lo.FindIndexOf(list, func(e model.CanvasTemplate) bool { return e.ID == id })
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if t.IsDefault {
			return nil, fmt.Errorf("%w: %s", ErrDefaultTemplate, t.Name)
		}
		return append(list[:i], list[i+1:]...), nil
	})
	if err == nil {
		s.logger.Info("template deleted", "id", id)
	}
	return err
}

// Import 解析 DSL 文本并创建其中的全部模板。图片路径相对 baseDir 解析并内联为 data URL。
// 任一模板无效时不写入任何模板。
func (s *Store) Import(ctx context.Context, r io.Reader, baseDir string) ([]model.CanvasTemplate, error) {
	f, err := dsl.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}
	compiled, err := dsl.Compile(f)
	if err != nil {
		return nil, fmt.Errorf("编译模板失败: %w", err)
	}
	loader := raster.Loader{BaseDir: baseDir}
	for _, t := range compiled {
		for _, list := range []model.Elements{t.Header.Elements, t.Footer.Elements, t.Page.Elements} {
			for _, el := range list {
				img, ok := el.(*model.ImageElement)
				if !ok {
					continue
				}
				if img.Src, err = loader.Inline(img.Src); err != nil {
					return nil, fmt.Errorf("模板 %s: %w", t.Name, err)
				}
			}
		}
		if err := validate(normalize(*t)); err != nil {
			return nil, err
		}
	}

	out := make([]model.CanvasTemplate, 0, len(compiled))
	for _, t := range compiled {
		created, err := s.Create(ctx, *t)
		if err != nil {
			return out, err
		}
		out = append(out, created)
	}
	return out, nil
}

// Meta 是从编辑会话另存为模板时由用户填写的信息。
type Meta struct {
	Name        string
	Description string
	Category    string
	Tags        []string
}

// SaveFromDocument 以文档当前页为模板页面创建模板。
// 缩略图生成失败时记录日志并以空缩略图保存。
func (s *Store) SaveFromDocument(ctx context.Context, doc model.Document, meta Meta) (model.CanvasTemplate, error) {
	if len(doc.Pages) == 0 {
		return model.CanvasTemplate{}, fmt.Errorf("文档没有页面")
	}
	idx := min(max(doc.CurrentPageIndex, 0), len(doc.Pages)-1)
	page := doc.Pages[idx]
	t := model.CanvasTemplate{
		Name:        meta.Name,
		Description: meta.Description,
		Category:    meta.Category,
		Tags:        meta.Tags,
		Header:      doc.Header.Clone(),
		Footer:      doc.Footer.Clone(),
		Page: model.TemplatePage{
			Size:            page.Size,
			Orientation:     page.Orientation,
			BackgroundColor: page.BackgroundColor,
			Elements:        page.Elements.Clone(),
		},
	}
	if s.thumbs != nil {
		snap := doc.Clone()
		snap.CurrentPageIndex = idx
		thumb, err := s.thumbs.CaptureThumbnail(ctx, snap, ThumbnailWidth, ThumbnailHeight)
		if err != nil {
			s.logger.Warn("capture thumbnail failed", "name", meta.Name, "err", err)
		} else {
			t.Thumbnail = thumb
		}
	}
	return s.Create(ctx, t)
}

// EnsureDefaults 在模板库缺少内置模板时写入它们，已存在的不覆盖。
func (s *Store) EnsureDefaults(ctx context.Context) error {
	return s.modify(ctx, func(list []model.CanvasTemplate) ([]model.CanvasTemplate, error) {
		ts := s.now().UnixMilli()
		for _, d := range Defaults() {
			if lo.ContainsBy(list, func(e model.CanvasTemplate) bool { return e.ID == d.ID }) {
				continue
			}
			d.CreatedAt, d.UpdatedAt = ts, ts
			list = append(list, d)
			s.logger.Debug("seeded default template", "id", d.ID)
		}
		return list, nil
	})
}

func (s *Store) load(ctx context.Context) ([]model.CanvasTemplate, error) {
	raw, err := s.st.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []model.CanvasTemplate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取模板库失败: %w", err)
	}
	var list []model.CanvasTemplate
	if err := json.Unmarshal(raw, &list); err != nil {
		s.logger.Warn("template library is corrupt, starting empty", "key", StorageKey, "err", err)
		return []model.CanvasTemplate{}, nil
	}
	return lo.Map(list, func(t model.CanvasTemplate, _ int) model.CanvasTemplate { return normalize(t) }), nil
}

func (s *Store) modify(ctx context.Context, fn func([]model.CanvasTemplate) ([]model.CanvasTemplate, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	list, err = fn(list)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("序列化模板库失败: %w", err)
	}
	if err := s.st.Set(ctx, StorageKey, raw); err != nil {
		s.logger.Warn("write template library failed", "key", StorageKey, "err", err)
		return fmt.Errorf("写入模板库失败: %w", err)
	}
	return nil
}

// normalize 补齐缺省字段，保证 JSON 中元素列表不为 null。
func normalize(t model.CanvasTemplate) model.CanvasTemplate {
	t.Name = strings.TrimSpace(t.Name)
	if t.Page.Size == "" {
		t.Page.Size = model.SizeA4
	}
	if t.Page.Orientation == "" {
		t.Page.Orientation = model.Portrait
	}
	if t.Header.Elements == nil {
		t.Header.Elements = model.Elements{}
	}
	if t.Footer.Elements == nil {
		t.Footer.Elements = model.Elements{}
	}
	if t.Page.Elements == nil {
		t.Page.Elements = model.Elements{}
	}
	return t
}

func validate(t model.CanvasTemplate) error {
	if t.Name == "" {
		return fmt.Errorf("模板名称不能为空")
	}
	doc := model.Document{
		Pages: []*model.Page{{
			Size:        t.Page.Size,
			Orientation: t.Page.Orientation,
			Elements:    t.Page.Elements,
		}},
		Header: t.Header,
		Footer: t.Footer,
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("模板 %s 无效: %w", t.Name, err)
	}
	for _, c := range []string{t.Page.BackgroundColor, t.Header.BackgroundColor, t.Footer.BackgroundColor} {
		if c == "" {
			continue
		}
		if _, err := model.ParseColor(c); err != nil {
			return fmt.Errorf("模板 %s 背景色无效: %w", t.Name, err)
		}
	}
	return nil
}
