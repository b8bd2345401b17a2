package layout

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON 把排版结果写成缩进 JSON，便于在编辑器之外检查分页或交给 print 命令。
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

// ReadResult 读取 WriteJSON 的输出。
func ReadResult(r io.Reader) (*Result, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("解析排版结果失败: %w", err)
	}
	if len(res.Pages) == 0 {
		return nil, fmt.Errorf("排版结果中没有页面")
	}
	return &res, nil
}
