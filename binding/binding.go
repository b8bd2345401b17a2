// Package binding 在打印时把 ${...} 占位符替换为页码、总页数、标题等运行时值。
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ByLCY/reportcanvas/model"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// 打印时可用的内置变量。
const (
	VarPage  = "page"
	VarPages = "pages"
	VarTitle = "title"
	VarDate  = "date"
)

// DateLayout 是 ${date} 的输出格式。
const DateLayout = "Jan 2, 2006"

// PageData 构造第 page 页（从 1 开始）的变量表。extra 中的同名键会覆盖内置变量。
func PageData(page, pages int, title string, date time.Time, extra map[string]any) map[string]any {
	data := map[string]any{
		VarPage:  page,
		VarPages: pages,
		VarTitle: title,
		VarDate:  date.Format(DateLayout),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// ${path|fallback} 在路径不存在时使用 fallback；没有 fallback 时保留原占位符。
func Interpolate(text string, data any) string {
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		expr := match[2 : len(match)-1]
		path, fallback, hasFallback := strings.Cut(expr, "|")
		path = strings.TrimSpace(path)
		if path != "" && data != nil {
			if val, ok := resolvePath(data, path); ok && val != nil {
				return fmt.Sprint(val)
			}
		}
		if hasFallback {
			return strings.TrimSpace(fallback)
		}
		return match
	})
}

// HasPlaceholders 报告文本是否含有占位符。
func HasPlaceholders(text string) bool { return exprPattern.MatchString(text) }

// References 报告文本中是否有以 name 为路径的占位符，${page} 与 ${page|1} 都算，${pages} 不算。
func References(text, name string) bool {
	for _, m := range exprPattern.FindAllStringSubmatch(text, -1) {
		path, _, _ := strings.Cut(m[1], "|")
		if strings.TrimSpace(path) == name {
			return true
		}
	}
	return false
}

// Elements 返回 els 的深拷贝，其中文本元素的内容已完成替换；id 保持不变。
func Elements(els model.Elements, data any) model.Elements {
	out := els.Clone()
	for _, el := range out {
		if t, ok := el.(*model.TextElement); ok && HasPlaceholders(t.Text) {
			t.Text = Interpolate(t.Text, data)
		}
	}
	return out
}

func resolvePath(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes := parseSegment(segment)
		if name != "" {
			var ok bool
			if current, ok = descendMap(current, name); !ok {
				return nil, false
			}
		}
		for _, raw := range indexes {
			idx, err := strconv.Atoi(raw)
			if err != nil {
				return nil, false
			}
			var ok bool
			if current, ok = descendArray(current, idx); !ok {
				return nil, false
			}
		}
	}
	return current, true
}

// parseSegment 拆分 "rows[0][1]" 形式的路径段。
func parseSegment(segment string) (string, []string) {
	name, rest, found := strings.Cut(segment, "[")
	if !found {
		return name, nil
	}
	var indexes []string
	rest = "[" + rest
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			break
		}
		indexes = append(indexes, rest[1:end])
		rest = rest[end+1:]
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	case []string:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
