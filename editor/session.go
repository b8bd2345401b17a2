// Package editor 持有一次编辑会话的权威状态：页面、当前页、页眉、页脚、选中与编辑中的元素。
// 所有修改都通过 Session 的方法或交互引擎发出的意图完成，每次修改后按配置持久化。
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ByLCY/reportcanvas/interact"
	"github.com/ByLCY/reportcanvas/logging"
	"github.com/ByLCY/reportcanvas/model"
	"github.com/ByLCY/reportcanvas/storage"
)

// StateKey 是编辑状态在存储中的默认键。
const StateKey = "editor-state"

var (
	// ErrNoSuchElement 表示 id 在页眉、页脚与当前页中都不存在。
	ErrNoSuchElement = errors.New("editor: no such element")
	// ErrIndexOutOfRange 表示传入的页/元素下标越界。
	ErrIndexOutOfRange = errors.New("editor: index out of range")
)

// errNoChange 表示操作合法但没有改变状态，不触发持久化。
var errNoChange = errors.New("no change")

// Scope 决定纸张尺寸/方向修改作用于当前页还是全部页面。
type Scope int

const (
	// ScopeCurrentPage 用于普通编辑器：每页可以有不同尺寸。
	ScopeCurrentPage Scope = iota
	// ScopeAllPages 用于报表排版：整份报表统一尺寸。
	ScopeAllPages
)

// FontLoader 接收“发出即忘”的字体加载请求。
type FontLoader interface {
	Request(family string)
}

// ImageDecoder 解码图片以获得原始尺寸。
type ImageDecoder interface {
	Size(ctx context.Context, src string) (model.Size, error)
}

// Level 是通知级别。
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Notification 是展示给用户的非阻塞提示。
type Notification struct {
	Level   Level
	Message string
}

// Notifier 接收通知，实现不得阻塞。
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc 把函数适配为 Notifier。
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Options 注入会话的外部能力，全部可选。
type Options struct {
	Storage   storage.Storage
	Key       string
	Fonts     FontLoader
	Images    ImageDecoder
	Notifier  Notifier
	Logger    *slog.Logger
	SaveDelay time.Duration // 0 表示每次提交都立即保存
	SizeScope Scope
}

// Session 是编辑会话。方法可以被多个 goroutine 并发调用；
// 对同一元素的修改按调用顺序生效，后写覆盖先写。
type Session struct {
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	doc      model.Document
	selected string
	editing  string
	dirty    bool

	saveMu  sync.Mutex
	timerMu sync.Mutex
	timer   *time.Timer
}

var (
	_ interact.Scene      = (*Session)(nil)
	_ interact.Dispatcher = (*Session)(nil)
)

// New 创建只有一页 A4 纵向空白页的会话，不读取存储。
func New(opts Options) *Session {
	if opts.Key == "" {
		opts.Key = StateKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Logger()
	}
	return &Session{opts: opts, logger: logger, doc: model.NewDocument()}
}

// Open 从存储恢复会话。读取失败或内容损坏时退回空白文档并提示用户，从不返回错误。
// 恢复后会重新请求所有文本元素引用的字体。
func Open(ctx context.Context, opts Options) *Session {
	s := New(opts)
	if s.opts.Storage == nil {
		return s
	}
	doc, err := s.hydrate(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Debug("no stored editor state", "key", s.opts.Key)
	case err != nil:
		s.logger.Warn("restore editor state failed", "key", s.opts.Key, "err", err)
		s.notify(LevelWarn, "Saved layout could not be restored; starting with a blank page")
	default:
		s.doc = doc
	}
	s.requestFonts(s.doc)
	return s
}

func (s *Session) notify(level Level, msg string) {
	if s.opts.Notifier != nil {
		s.opts.Notifier.Notify(Notification{Level: level, Message: msg})
	}
}

// mutate 在锁内执行 fn；成功且有改动时触发持久化。
func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	err := fn()
	if err == nil {
		s.dirty = true
	}
	s.mu.Unlock()
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err == nil {
		s.changed()
	}
	return err
}

func (s *Session) currentLocked() *model.Page {
	return s.doc.Pages[s.doc.CurrentPageIndex]
}

func (s *Session) clearSelectionLocked() {
	s.selected = ""
	s.editing = ""
}

func (s *Session) boundsLocked(section model.Section) model.Size {
	return model.SectionBounds(section, s.currentLocked().Dimensions())
}

func (s *Session) elementsLocked(section model.Section) *model.Elements {
	switch section {
	case model.SectionHeader:
		return &s.doc.Header.Elements
	case model.SectionFooter:
		return &s.doc.Footer.Elements
	default:
		return &s.currentLocked().Elements
	}
}

type location struct {
	section model.Section
	list    *model.Elements
	index   int
}

func (l location) element() model.Element { return (*l.list)[l.index] }

// 查找顺序：页眉、页脚、当前页。
var searchOrder = []model.Section{model.SectionHeader, model.SectionFooter, model.SectionPage}

func (s *Session) locateLocked(id string) (location, bool) {
	if id == "" {
		return location{}, false
	}
	for _, section := range searchOrder {
		if loc, ok := s.locateInLocked(section, id); ok {
			return loc, true
		}
	}
	return location{}, false
}

func (s *Session) locateInLocked(section model.Section, id string) (location, bool) {
	list := s.elementsLocked(section)
	if i := list.Index(id); i >= 0 && id != "" {
		return location{section: section, list: list, index: i}, true
	}
	return location{}, false
}

// Lookup 返回元素的副本及其所在区域与区域尺寸。
func (s *Session) Lookup(id string) (interact.Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.locateLocked(id)
	if !ok {
		return interact.Target{}, false
	}
	return interact.Target{
		Element: loc.element().Clone(),
		Section: loc.section,
		Bounds:  s.boundsLocked(loc.section),
	}, true
}

// SelectedID 返回选中元素 id，未选中为空。
func (s *Session) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// EditingID 返回处于文本编辑状态的元素 id。
func (s *Session) EditingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

// Select 选中元素；id 为空时清除选择。选中其他元素会结束文本编辑。
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.clearSelectionLocked()
		return nil
	}
	if _, ok := s.locateLocked(id); !ok {
		return ErrNoSuchElement
	}
	if s.editing != id {
		s.editing = ""
	}
	s.selected = id
	return nil
}

// Snapshot 返回文档的深拷贝。
func (s *Session) Snapshot() model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// CurrentPageIndex 返回当前页下标。
func (s *Session) CurrentPageIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.CurrentPageIndex
}

// PageCount 返回页数（恒 ≥ 1）。
func (s *Session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.Pages)
}

// CurrentPage 返回当前页的副本。
func (s *Session) CurrentPage() *model.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked().Clone()
}
