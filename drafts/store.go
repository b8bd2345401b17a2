// Package drafts 保存报表排版流程中可恢复的编辑快照。
// 草稿按生成它的表格状态（筛选条件与隐藏列）寻址，同一状态总是恢复同一份草稿。
package drafts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/ByLCY/reportcanvas/logging"
	"github.com/ByLCY/reportcanvas/model"
	"github.com/ByLCY/reportcanvas/storage"
)

// KeyPrefix 是草稿存储键的前缀。
const KeyPrefix = "print-draft-"

// ErrNotFound 表示没有对应的草稿。
var ErrNotFound = errors.New("drafts: draft not found")

// Key 根据筛选条件与隐藏列计算稳定的草稿键。
// 键与 map 遍历顺序、隐藏列顺序无关。
func Key(filters map[string]string, hidden []string) string {
	var b strings.Builder
	keys := lo.Keys(filters)
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%q=%q;", k, filters[k])
	}
	b.WriteString("|")
	cols := lo.Uniq(hidden)
	slices.Sort(cols)
	for _, c := range cols {
		fmt.Fprintf(&b, "%q;", c)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

// Store 是草稿存储。
type Store struct {
	st     storage.Storage
	logger *slog.Logger
	now    func() time.Time
}

// NewStore 创建草稿存储；logger 为 nil 时使用包级日志。
func NewStore(st storage.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.Logger()
	}
	return &Store{st: st, logger: logger, now: time.Now}
}

// Save 以 d.Key 保存草稿；Key 为空时由 Filters/HiddenColumns 推导。时间戳总是刷新。
func (s *Store) Save(ctx context.Context, d model.PrintDraft) (model.PrintDraft, error) {
	if len(d.Pages) == 0 {
		return model.PrintDraft{}, fmt.Errorf("草稿至少需要一页")
	}
	if d.Key == "" {
		d.Key = Key(d.Filters, d.HiddenColumns)
	}
	doc := d.Document()
	if err := doc.Validate(); err != nil {
		return model.PrintDraft{}, fmt.Errorf("草稿无效: %w", err)
	}
	d.Pages, d.Header, d.Footer = doc.Pages, doc.Header, doc.Footer
	d.CurrentPageIndex = min(max(d.CurrentPageIndex, 0), len(d.Pages)-1)
	d.Timestamp = s.now().UnixMilli()

	raw, err := json.Marshal(d)
	if err != nil {
		return model.PrintDraft{}, fmt.Errorf("序列化草稿失败: %w", err)
	}
	if err := s.st.Set(ctx, KeyPrefix+d.Key, raw); err != nil {
		s.logger.Warn("save draft failed", "key", d.Key, "err", err)
		return model.PrintDraft{}, fmt.Errorf("保存草稿失败: %w", err)
	}
	return d, nil
}

// Load 读取草稿。内容损坏的草稿会记录日志并按不存在处理。
func (s *Store) Load(ctx context.Context, key string) (model.PrintDraft, error) {
	raw, err := s.st.Get(ctx, KeyPrefix+key)
	if errors.Is(err, storage.ErrNotFound) {
		return model.PrintDraft{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return model.PrintDraft{}, fmt.Errorf("读取草稿失败: %w", err)
	}
	var d model.PrintDraft
	if err := json.Unmarshal(raw, &d); err == nil {
		err = d.Document().Validate()
	}
	if err != nil {
		s.logger.Warn("draft is corrupt, ignoring", "key", key, "err", err)
		return model.PrintDraft{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	d.Key = key
	return d, nil
}

// Delete 删除草稿，不存在时不报错。
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.st.Delete(ctx, KeyPrefix+key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("删除草稿失败: %w", err)
	}
	return nil
}

// List 返回全部可读草稿，按时间戳从新到旧排序。
func (s *Store) List(ctx context.Context) ([]model.PrintDraft, error) {
	keys, err := s.st.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("列出草稿失败: %w", err)
	}
	out := make([]model.PrintDraft, 0, len(keys))
	for _, k := range keys {
		d, err := s.Load(ctx, strings.TrimPrefix(k, KeyPrefix))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	slices.SortStableFunc(out, func(a, b model.PrintDraft) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out, nil
}
