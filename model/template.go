package model

// TemplatePage 是模板携带的单页形状（模板不支持多页）。
type TemplatePage struct {
	Size            PageSize    `json:"size"`
	Orientation     Orientation `json:"orientation"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	Elements        Elements    `json:"elements"`
}

// CanvasTemplate 是可复用的版式：页眉、页脚与页面背景/元素。
type CanvasTemplate struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Thumbnail   string       `json:"thumbnail"`
	CreatedAt   int64        `json:"createdAt"`
	UpdatedAt   int64        `json:"updatedAt"`
	Header      HeaderFooter `json:"header"`
	Footer      HeaderFooter `json:"footer"`
	Page        TemplatePage `json:"page"`
	Category    string       `json:"category"`
	IsDefault   bool         `json:"isDefault"`
	Tags        []string     `json:"tags,omitempty"`
}

// Clone 深拷贝模板，保留 id。
func (t CanvasTemplate) Clone() CanvasTemplate {
	cp := t
	cp.Header = t.Header.Clone()
	cp.Footer = t.Footer.Clone()
	cp.Page.Elements = t.Page.Elements.Clone()
	if t.Tags != nil {
		cp.Tags = append([]string(nil), t.Tags...)
	}
	return cp
}

// PrintDraft 是报表排版流程中可恢复的编辑快照。
type PrintDraft struct {
	Key              string            `json:"key"`
	Title            string            `json:"title,omitempty"`
	Pages            []*Page           `json:"pages"`
	Header           HeaderFooter      `json:"header"`
	Footer           HeaderFooter      `json:"footer"`
	CurrentPageIndex int               `json:"currentPageIndex"`
	Timestamp        int64             `json:"timestamp"`
	Filters          map[string]string `json:"filters,omitempty"`
	HiddenColumns    []string          `json:"hiddenColumns,omitempty"`
}

// Document 返回草稿对应的文档快照（深拷贝）。
func (d PrintDraft) Document() Document {
	return Document{
		Pages:            d.Pages,
		CurrentPageIndex: d.CurrentPageIndex,
		Header:           d.Header,
		Footer:           d.Footer,
	}.Clone()
}
