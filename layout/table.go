package layout

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/ByLCY/reportcanvas/binding"
	"github.com/ByLCY/reportcanvas/model"
)

var (
	// ErrNoColumns 表示隐藏列之后没有可见列。
	ErrNoColumns = errors.New("layout: no visible columns")
	// ErrInvalidColumns 表示列宽配置无法分配宽度（负宽度或总宽为 0）。
	ErrInvalidColumns = errors.New("layout: invalid column widths")
	// ErrPageTooSmall 表示纸张放不下任何数据行。
	ErrPageTooSmall = errors.New("layout: page too small for a single row")
)

const (
	continuedSuffix = " (continued)"
	markerGlyph     = "●"
	headerColor     = "#1f2937"
	textColor       = "#000000"
)

// geometry 是一次排版的固定几何参数。
type geometry struct {
	size        model.PageSize
	orientation model.Orientation
	page        model.Size
	margin      float64
	top         float64 // 内容区顶部
	bottom      float64 // 内容区底部
	numbered    bool    // 是否生成页码
	contentW    float64
	titleBlock  float64
	tableTop    float64 // 列头行顶部
	rowsTop     float64 // 第一条数据行顶部
	rowsPerPage int
	columns     []Column
	colX        []float64
	colW        []float64
}

// ConvertTableToCanvas 把表格数据排成若干固定尺寸的页面。
// 每页都有标题块（续页标题带 continued 后缀）与列头，合计行只出现在最后一页的最后一条数据之后。
// 没有数据时输出一页，只含标题、列头与空的合计行。
func ConvertTableToCanvas(t Table, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	g, err := measure(t, opts)
	if err != nil {
		return nil, err
	}

	n := len(t.Rows)
	pageCount := max(1, int(math.Ceil(float64(n)/float64(g.rowsPerPage))))
	markers := lo.GroupBy(t.RowMarkers, func(m RowMarker) int { return m.Row })

	pages := make([]*model.Page, 0, pageCount)
	for p := 0; p < pageCount; p++ {
		page := model.NewPage(g.size, g.orientation)
		acc := &pageAccumulator{opts: opts}

		acc.titleBlock(t, g, p > 0)
		acc.headerRow(g)

		first := p * g.rowsPerPage
		last := min(n, first+g.rowsPerPage)
		y := g.rowsTop
		for i := first; i < last; i++ {
			acc.dataRow(g, t.Rows[i], y)
			for _, m := range markers[i] {
				acc.marker(g, m, y)
			}
			y += rowHeight
		}
		if p == pageCount-1 {
			acc.totalsRow(g, t.Totals, y)
		}
		if g.numbered {
			acc.pageNumber(g, p+1, pageCount)
		}
		page.Elements = acc.elements
		pages = append(pages, page)
	}

	res := &Result{
		Pages:  pages,
		Header: model.HeaderFooter{Elements: model.Elements{}},
		Footer: model.HeaderFooter{Elements: model.Elements{}},
		Metadata: Metadata{
			TotalPages:     pageCount,
			TotalRows:      n,
			RowsPerPage:    g.rowsPerPage,
			VisibleColumns: lo.Map(g.columns, func(c Column, _ int) string { return c.Key }),
		},
	}
	if opts.Template != nil {
		res = ApplyTemplate(res, opts.Template)
	}
	return res, nil
}

// measure 计算可见列、列宽与每页行数。
func measure(t Table, opts Options) (geometry, error) {
	size := model.SizeA4
	if t.PageSize != "" {
		var err error
		if size, err = model.ParsePageSize(string(t.PageSize)); err != nil {
			return geometry{}, err
		}
	}
	orientation, err := model.ParseOrientation(string(t.Orientation))
	if err != nil {
		return geometry{}, err
	}
	g := geometry{size: size, orientation: orientation, page: model.Dimensions(size, orientation), margin: opts.Margin}

	g.columns = lo.Filter(t.Columns, func(c Column, _ int) bool {
		return !lo.Contains(t.HiddenColumns, c.Key)
	})
	if len(g.columns) == 0 {
		return geometry{}, ErrNoColumns
	}
	total := 0.0
	for _, c := range g.columns {
		if c.Width < 0 || math.IsNaN(c.Width) || math.IsInf(c.Width, 0) {
			return geometry{}, fmt.Errorf("%w: column %q has width %v", ErrInvalidColumns, c.Key, c.Width)
		}
		total += c.Width
	}
	if total <= 0 {
		return geometry{}, fmt.Errorf("%w: total width is %v", ErrInvalidColumns, total)
	}

	g.contentW = g.page.Width - 2*g.margin
	x := g.margin
	for _, c := range g.columns {
		w := c.Width / total * g.contentW
		g.colX = append(g.colX, x)
		g.colW = append(g.colW, w)
		x += w
	}

	g.titleBlock = titleHeight + titleGap
	if t.Subtitle != "" {
		g.titleBlock += subtitleHeight
	}
	g.top, g.bottom, g.numbered = g.margin, g.page.Height-g.margin, true
	if tpl := opts.Template; tpl != nil {
		if bandInUse(tpl.Header) {
			g.top = max(g.top, model.HeaderHeight+titleGap)
		}
		if bandInUse(tpl.Footer) {
			g.bottom = min(g.bottom, g.page.Height-model.FooterHeight-titleGap)
		}
		g.numbered = !numbersPages(tpl)
	}
	g.tableTop = g.top + g.titleBlock
	g.rowsTop = g.tableTop + headerRowHeight

	// 可用高度 = 内容区高度 - 标题块 - 列头 - 合计行 - 页码带
	usable := g.bottom - g.top - g.titleBlock - headerRowHeight - totalsRowHeight
	if g.numbered {
		usable -= footerBand
	}
	g.rowsPerPage = int(math.Floor(usable / rowHeight))
	if g.rowsPerPage <= 0 {
		return geometry{}, fmt.Errorf("%w: %s %s", ErrPageTooSmall, size, orientation)
	}
	return g, nil
}

// bandInUse 报告模板的页眉/页脚是否会在打印时占用页面。
func bandInUse(h model.HeaderFooter) bool {
	return h.BackgroundColor != "" || len(h.Elements) > 0
}

func numbersPages(t *model.CanvasTemplate) bool {
	for _, el := range slices.Concat(t.Header.Elements, t.Footer.Elements) {
		if text, ok := el.(*model.TextElement); ok && binding.References(text.Text, binding.VarPage) {
			return true
		}
	}
	return false
}

// pageAccumulator 收集一页上的元素。
type pageAccumulator struct {
	opts     Options
	elements model.Elements
}

func (a *pageAccumulator) text(content string, x, y, w, h, size float64, bold bool, align model.TextAlign, color string) {
	el := &model.TextElement{
		Base: model.Base{
			ID:       model.NewID(),
			Position: model.Position{X: x, Y: y},
			Width:    w,
			Height:   h,
			Visible:  true,
		},
		Text:       content,
		FontSize:   size,
		FontFamily: a.opts.FontFamily,
		Bold:       bold,
		Color:      color,
		Align:      align,
	}
	a.elements = append(a.elements, el)
}

func (a *pageAccumulator) titleBlock(t Table, g geometry, continued bool) {
	title := t.Title
	if continued {
		title += continuedSuffix
	}
	y := g.top
	a.text(title, g.margin, y, g.contentW, titleHeight, titleFontSize, true, model.AlignCenter, textColor)
	if t.Subtitle != "" {
		y += titleHeight
		a.text(t.Subtitle, g.margin, y, g.contentW, subtitleHeight, subtitleFontSize, false, model.AlignCenter, textColor)
	}
}

func (a *pageAccumulator) headerRow(g geometry) {
	for i, c := range g.columns {
		a.cell(g, i, c.Label, g.tableTop, headerRowHeight, true, headerColor)
	}
}

func (a *pageAccumulator) dataRow(g geometry, row Row, y float64) {
	for i, c := range g.columns {
		a.cell(g, i, a.opts.Formatter.Format(row[c.Key], c.Type), y, rowHeight, false, textColor)
	}
}

// totalsRow 在第一列写合计标签（除非该列本身有合计值），其余列写合计值。
func (a *pageAccumulator) totalsRow(g geometry, totals Row, y float64) {
	for i, c := range g.columns {
		content := ""
		if v := totals[c.Key]; v != nil {
			content = a.opts.Formatter.Format(v, c.Type)
		} else if i == 0 {
			content = a.opts.TotalsLabel
		}
		if content == "" {
			continue
		}
		a.cell(g, i, content, y, totalsRowHeight, true, textColor)
	}
	if totals[g.columns[0].Key] != nil {
		// 第一列有合计值时，标签放到左侧页边距
		a.text(a.opts.TotalsLabel, 0, y, g.margin, totalsRowHeight, a.opts.FontSize, true, model.AlignRight, textColor)
	}
}

func (a *pageAccumulator) cell(g geometry, col int, content string, y, h float64, bold bool, color string) {
	w := max(g.colW[col]-2*cellPadding, 0)
	content = a.fit(content, w, bold)
	a.text(content, g.colX[col]+cellPadding, y, w, h, a.opts.FontSize, bold, g.columns[col].align(), color)
}

func (a *pageAccumulator) marker(g geometry, m RowMarker, y float64) {
	label := m.Label
	if label == "" {
		label = markerGlyph
	}
	color := m.Color
	if _, err := model.ParseColor(color); err != nil {
		color = textColor
	}
	x := max(g.margin-markerWidth-2, 0)
	a.text(label, x, y, markerWidth, rowHeight, a.opts.FontSize, false, model.AlignCenter, color)
}

func (a *pageAccumulator) pageNumber(g geometry, page, total int) {
	y := g.bottom - footerBand
	label := fmt.Sprintf("Page %d of %d", page, total)
	a.text(label, g.margin, y, g.contentW, footerBand, a.opts.FontSize, false, model.AlignRight, headerColor)
}

// fit 在提供测量器时把超宽文本截断为带省略号的前缀。
func (a *pageAccumulator) fit(content string, width float64, bold bool) string {
	m := a.opts.Measurer
	if m == nil || content == "" {
		return content
	}
	fits := func(s string) bool {
		w, err := m.MeasureText(s, a.opts.FontFamily, a.opts.FontSize, bold)
		return err != nil || w <= width
	}
	if fits(content) {
		return content
	}
	runes := []rune(content)
	for n := len(runes) - 1; n > 0; n-- {
		s := strings.TrimRight(string(runes[:n]), " ") + "…"
		if fits(s) {
			return s
		}
	}
	if fits("…") {
		return "…"
	}
	return ""
}
