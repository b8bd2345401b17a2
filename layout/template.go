package layout

import (
	"strings"

	"github.com/ByLCY/reportcanvas/model"
)

// templateIDPrefix 标记由模板合并进页面的元素，重复合并时先移除旧的。
const templateIDPrefix = "tpl-"

// ApplyTemplateToPages 把模板的页面背景与页面元素合并到每一页，返回新的页面；
// 输入页面不被修改。模板元素放在最底层，生成的数据元素保持不变。
// 合并是幂等的：再次合并（同一或另一模板）会替换之前合并的元素。
func ApplyTemplateToPages(pages []*model.Page, t *model.CanvasTemplate) []*model.Page {
	out := make([]*model.Page, 0, len(pages))
	for _, p := range pages {
		cp := p.Clone()
		cp.BackgroundColor = t.Page.BackgroundColor
		elements := make(model.Elements, 0, len(t.Page.Elements)+len(cp.Elements))
		for _, el := range t.Page.Elements {
			c := el.Clone()
			c.Common().ID = templateElementID(t.ID, el.Common().ID)
			elements = append(elements, c)
		}
		for _, el := range cp.Elements {
			if !strings.HasPrefix(el.Common().ID, templateIDPrefix) {
				elements = append(elements, el)
			}
		}
		cp.Elements = elements
		out = append(out, cp)
	}
	return out
}

// ApplyTemplate 合并页面并用模板的页眉/页脚替换结果中的页眉/页脚（深拷贝，保留 id）。
func ApplyTemplate(res *Result, t *model.CanvasTemplate) *Result {
	return &Result{
		Pages:    ApplyTemplateToPages(res.Pages, t),
		Header:   t.Header.Clone(),
		Footer:   t.Footer.Clone(),
		Metadata: res.Metadata,
	}
}

func templateElementID(templateID, elementID string) string {
	return templateIDPrefix + templateID + "-" + elementID
}
