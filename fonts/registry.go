package fonts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ByLCY/reportcanvas/logging"
)

// Style 是字体变体。
type Style int

const (
	Regular Style = iota
	Bold
	Italic
	BoldItalic
)

// StyleOf 由粗体/斜体标记得到变体。
func StyleOf(bold, italic bool) Style {
	switch {
	case bold && italic:
		return BoldItalic
	case bold:
		return Bold
	case italic:
		return Italic
	}
	return Regular
}

func (s Style) suffix() string {
	switch s {
	case Bold:
		return "Bold"
	case Italic:
		return "Italic"
	case BoldItalic:
		return "BoldItalic"
	}
	return "Regular"
}

// ErrNotFound 表示所有来源都没有该字体。
var ErrNotFound = errors.New("fonts: family not found")

// Source 提供某个字体族某个变体的字节数据。
type Source interface {
	Fetch(ctx context.Context, family string, style Style) ([]byte, error)
}

// DirSource 从目录读取字体，依次尝试 <Family>-<Style>.ttf/.otf 与 <Family>.ttf/.otf（仅 Regular）。
// 族名中的空格会被去掉，例如 "Open Sans" -> OpenSans-Bold.ttf。
type DirSource struct {
	Dir string
}

func (d DirSource) Fetch(_ context.Context, family string, style Style) ([]byte, error) {
	name := strings.ReplaceAll(family, " ", "")
	candidates := []string{name + "-" + style.suffix()}
	if style == Regular {
		candidates = append(candidates, name)
	}
	for _, base := range candidates {
		for _, ext := range []string{".ttf", ".otf"} {
			data, err := os.ReadFile(filepath.Join(d.Dir, base+ext))
			if err == nil {
				return data, nil
			}
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("读取字体 %s 失败: %w", base+ext, err)
			}
		}
	}
	return nil, ErrNotFound
}

// HTTPSource 通过 URL 模板下载字体，模板中的 {family} 与 {style} 会被替换。
type HTTPSource struct {
	URLTemplate string
	Client      *http.Client
}

func (h HTTPSource) Fetch(ctx context.Context, family string, style Style) ([]byte, error) {
	u := strings.NewReplacer(
		"{family}", url.PathEscape(strings.ReplaceAll(family, " ", "")),
		"{style}", style.suffix(),
	).Replace(h.URLTemplate)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("下载字体 %s 失败: %w", family, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("下载字体 %s 失败: HTTP %d", family, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

type faceKey struct {
	family string
	style  Style
}

// Registry 缓存已加载的字体，并支持“发出即忘”的加载请求。
type Registry struct {
	sources []Source
	logger  *slog.Logger

	mu      sync.Mutex
	faces   map[faceKey][]byte
	loaded  map[string]bool
	pending map[string]chan struct{}
	wg      sync.WaitGroup
}

// NewRegistry 创建注册表，按顺序查询 sources。
func NewRegistry(logger *slog.Logger, sources ...Source) *Registry {
	if logger == nil {
		logger = logging.Logger()
	}
	return &Registry{
		sources: sources,
		logger:  logger,
		faces:   map[faceKey][]byte{},
		loaded:  map[string]bool{},
		pending: map[string]chan struct{}{},
	}
}

// Request 在后台加载字体族，失败只记录日志。
func (r *Registry) Request(family string) {
	if family == "" || r.Loaded(family) {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.Load(context.Background(), family); err != nil {
			r.logger.Warn("font load failed", "family", family, "err", err)
		}
	}()
}

// Wait 等待所有后台请求结束。
func (r *Registry) Wait() { r.wg.Wait() }

// Loaded 报告字体族是否已成功加载。
func (r *Registry) Loaded(family string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded[family]
}

// Load 同步加载字体族的全部变体；Regular 缺失视为失败。同一族的并发加载会合并。
func (r *Registry) Load(ctx context.Context, family string) error {
	r.mu.Lock()
	if r.loaded[family] {
		r.mu.Unlock()
		return nil
	}
	if ch, ok := r.pending[family]; ok {
		r.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		if r.Loaded(family) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrNotFound, family)
	}
	ch := make(chan struct{})
	r.pending[family] = ch
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.pending, family)
		r.mu.Unlock()
		close(ch)
	}()

	found := map[Style][]byte{}
	for _, style := range []Style{Regular, Bold, Italic, BoldItalic} {
		data, err := r.fetch(ctx, family, style)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		found[style] = data
	}
	if _, ok := found[Regular]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, family)
	}

	r.mu.Lock()
	for style, data := range found {
		r.faces[faceKey{family, style}] = data
	}
	r.loaded[family] = true
	r.mu.Unlock()
	r.logger.Debug("font loaded", "family", family, "variants", len(found))
	return nil
}

func (r *Registry) fetch(ctx context.Context, family string, style Style) ([]byte, error) {
	for _, src := range r.sources {
		data, err := src.Fetch(ctx, family, style)
		if err == nil && len(data) > 0 {
			return data, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// Bytes 返回字体数据；缺少对应变体时退回 Regular。
func (r *Registry) Bytes(family string, style Style) ([]byte, Style, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if data, ok := r.faces[faceKey{family, style}]; ok {
		return data, style, true
	}
	data, ok := r.faces[faceKey{family, Regular}]
	return data, Regular, ok
}

// Families 返回已加载的字体族（排序）。
func (r *Registry) Families() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.loaded))
	for f := range r.loaded {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
