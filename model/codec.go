package model

import (
	"encoding/json"
	"fmt"
)

// Elements 是有序元素列表，顺序即绘制顺序（后者在上）。
type Elements []Element

// Clone 深拷贝列表，保留 id。
func (es Elements) Clone() Elements {
	out := make(Elements, 0, len(es))
	for _, el := range es {
		out = append(out, el.Clone())
	}
	return out
}

// Index 返回指定 id 的下标，找不到返回 -1。
func (es Elements) Index(id string) int {
	for i, el := range es {
		if el.Common().ID == id {
			return i
		}
	}
	return -1
}

// Find 按 id 查找元素。
func (es Elements) Find(id string) (Element, bool) {
	if i := es.Index(id); i >= 0 {
		return es[i], true
	}
	return nil, false
}

// IDs 返回全部元素 id。
func (es Elements) IDs() []string {
	ids := make([]string, len(es))
	for i, el := range es {
		ids[i] = el.Common().ID
	}
	return ids
}

func (es Elements) validate() error {
	seen := make(map[string]struct{}, len(es))
	for i, el := range es {
		if el == nil {
			return fmt.Errorf("元素 %d 为空", i)
		}
		id := el.Common().ID
		if id == "" {
			return fmt.Errorf("元素 %d 缺少 id", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("元素 id 重复：%s", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// MarshalJSON 为每个元素写入 "type" 判别字段。
func (es Elements) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(es))
	for _, el := range es {
		var (
			raw []byte
			err error
		)
		switch e := el.(type) {
		case *TextElement:
			raw, err = json.Marshal(struct {
				Type ElementType `json:"type"`
				*TextElement
			}{TypeText, e})
		case *ImageElement:
			raw, err = json.Marshal(struct {
				Type ElementType `json:"type"`
				*ImageElement
			}{TypeImage, e})
		default:
			return nil, fmt.Errorf("无法序列化元素类型 %T", el)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

// UnmarshalJSON 根据 "type" 字段还原具体元素；缺省 visible 为 true。
func (es *Elements) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Elements, 0, len(raws))
	for i, raw := range raws {
		var head struct {
			Type ElementType `json:"type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return fmt.Errorf("元素 %d: %w", i, err)
		}
		switch head.Type {
		case TypeText:
			el := &TextElement{Base: Base{Visible: true}}
			if err := json.Unmarshal(raw, el); err != nil {
				return fmt.Errorf("文本元素 %d: %w", i, err)
			}
			out = append(out, el)
		case TypeImage:
			el := &ImageElement{Base: Base{Visible: true}}
			if err := json.Unmarshal(raw, el); err != nil {
				return fmt.Errorf("图片元素 %d: %w", i, err)
			}
			out = append(out, el)
		default:
			return fmt.Errorf("元素 %d 类型未知：%q", i, head.Type)
		}
	}
	*es = out
	return nil
}

// DecodeElement 解码单个带 "type" 字段的元素（剪贴板使用）。
func DecodeElement(data []byte) (Element, error) {
	var es Elements
	if err := es.UnmarshalJSON(append(append([]byte{'['}, data...), ']')); err != nil {
		return nil, err
	}
	if len(es) != 1 {
		return nil, fmt.Errorf("期望 1 个元素，实际 %d 个", len(es))
	}
	return es[0], nil
}

// EncodeElement 编码单个元素。
func EncodeElement(el Element) ([]byte, error) {
	raw, err := Elements{el}.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list[0], nil
}
