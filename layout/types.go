package layout

// 该文件定义表格输入与排版结果，供排版计算、模板合并与调试 JSON 共用。

import "github.com/ByLCY/reportcanvas/model"

// ColumnType 决定单元格的格式化方式与默认对齐。
type ColumnType string

const (
	ColumnText       ColumnType = "text"
	ColumnCurrency   ColumnType = "currency"
	ColumnNumber     ColumnType = "number"
	ColumnPercentage ColumnType = "percentage"
	ColumnDate       ColumnType = "date"
	ColumnStatus     ColumnType = "status"
)

// Column 描述一列。Width 为相对宽度，排版时按比例缩放到可用宽度。
type Column struct {
	Key   string          `json:"key" yaml:"key"`
	Label string          `json:"label" yaml:"label"`
	Width float64         `json:"width" yaml:"width"`
	Type  ColumnType      `json:"type,omitempty" yaml:"type"`
	Align model.TextAlign `json:"align,omitempty" yaml:"align"`
}

// align 返回列的对齐方式：未指定时数值类列右对齐，其余左对齐。
func (c Column) align() model.TextAlign {
	if c.Align != "" {
		return c.Align
	}
	switch c.Type {
	case ColumnCurrency, ColumnNumber, ColumnPercentage:
		return model.AlignRight
	}
	return model.AlignLeft
}

// Row 是一行数据，按列 key 取值。
type Row map[string]any

// RowMarker 在某一数据行左侧的页边距中画一个彩色标记，不影响列布局。
type RowMarker struct {
	Row   int    `json:"row" yaml:"row"` // rows 中的下标
	Color string `json:"color" yaml:"color"`
	Label string `json:"label,omitempty" yaml:"label"` // 为空时使用圆点
}

// Table 是表格转画布的全部输入。
type Table struct {
	Rows          []Row             `json:"rows" yaml:"rows"`
	Totals        Row               `json:"totals" yaml:"totals"`
	Columns       []Column          `json:"columns" yaml:"columns"`
	HiddenColumns []string          `json:"hiddenColumns,omitempty" yaml:"hiddenColumns"`
	PageSize      model.PageSize    `json:"pageSize" yaml:"pageSize"`
	Orientation   model.Orientation `json:"orientation" yaml:"orientation"`
	Title         string            `json:"title" yaml:"title"`
	Subtitle      string            `json:"subtitle,omitempty" yaml:"subtitle"`
	RowMarkers    []RowMarker       `json:"rowMarkers,omitempty" yaml:"rowMarkers"`
}

// Result 保存排版后的页面与共享的页眉/页脚。
type Result struct {
	Pages    []*model.Page      `json:"pages"`
	Header   model.HeaderFooter `json:"header"`
	Footer   model.HeaderFooter `json:"footer"`
	Metadata Metadata           `json:"metadata"`
}

// Document 把结果转换为编辑器可直接加载的文档。
func (r *Result) Document() model.Document {
	return model.Document{
		Pages:  r.Pages,
		Header: r.Header,
		Footer: r.Footer,
	}
}

// Metadata 汇总分页信息。
type Metadata struct {
	TotalPages     int      `json:"totalPages"`
	TotalRows      int      `json:"totalRows"`
	RowsPerPage    int      `json:"rowsPerPage"`
	VisibleColumns []string `json:"visibleColumns"`
}
