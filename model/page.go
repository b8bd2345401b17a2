package model

import (
	"fmt"
	"strings"
)

// 该文件定义纸张尺寸表、页面与页眉/页脚，以及编辑器持有的文档聚合。
// 所有坐标与尺寸均为页面局部像素（96 DPI）。

// PageSize 是封闭的纸张枚举。
type PageSize string

const (
	SizeA4    PageSize = "A4"
	SizeShort PageSize = "Short" // 8.5in x 11in
	SizeLong  PageSize = "Long"  // 8.5in x 13in
)

// Orientation 表示纸张方向。
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Size 为宽高对。
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// 纵向尺寸（px），横向时交换宽高。
var pageSizes = map[PageSize]Size{
	SizeA4:    {Width: 794, Height: 1123},
	SizeShort: {Width: 816, Height: 1056},
	SizeLong:  {Width: 816, Height: 1248},
}

// 页眉/页脚区域高度（px），宽度与当前页面一致。
const (
	HeaderHeight = 120.0
	FooterHeight = 120.0
)

// Dimensions 返回给定纸张与方向的像素尺寸。
// 未知尺寸属于编程错误，直接 panic；外部输入请先经过 ParsePageSize。
func Dimensions(size PageSize, o Orientation) Size {
	base, ok := pageSizes[size]
	if !ok {
		panic(fmt.Sprintf("model: unknown page size %q", size))
	}
	if o == Landscape {
		return Size{Width: base.Height, Height: base.Width}
	}
	return base
}

// ParsePageSize 校验外部输入的纸张名称（大小写不敏感）。
func ParsePageSize(s string) (PageSize, error) {
	for size := range pageSizes {
		if strings.EqualFold(string(size), strings.TrimSpace(s)) {
			return size, nil
		}
	}
	return "", fmt.Errorf("暂不支持的纸张尺寸：%s", s)
}

// ParseOrientation 校验方向，空字符串视为 portrait。
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "portrait":
		return Portrait, nil
	case "landscape":
		return Landscape, nil
	default:
		return "", fmt.Errorf("无法识别的纸张方向：%s", s)
	}
}

// Page 是一页画布：尺寸、方向、可选背景色以及有序元素（后者绘制在上层）。
type Page struct {
	ID              string      `json:"id"`
	Size            PageSize    `json:"size"`
	Orientation     Orientation `json:"orientation"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	Elements        Elements    `json:"elements"`
}

// NewPage 创建空白页面。
func NewPage(size PageSize, o Orientation) *Page {
	return &Page{
		ID:          NewID(),
		Size:        size,
		Orientation: o,
		Elements:    Elements{},
	}
}

// Dimensions 返回页面像素尺寸。
func (p *Page) Dimensions() Size { return Dimensions(p.Size, p.Orientation) }

// Clone 深拷贝页面，保留全部 id。
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Elements = p.Elements.Clone()
	return &cp
}

// CloneWithNewIDs 深拷贝页面并为页面及每个元素重新生成 id。
func (p *Page) CloneWithNewIDs() *Page {
	cp := p.Clone()
	cp.ID = NewID()
	for _, el := range cp.Elements {
		el.Common().ID = NewID()
	}
	return cp
}

// Index 返回元素下标，找不到时返回 -1。
func (p *Page) Index(id string) int { return p.Elements.Index(id) }

// HeaderFooter 在所有页面间共享，每个文档恰好一份页眉与一份页脚。
type HeaderFooter struct {
	BackgroundColor string   `json:"backgroundColor,omitempty"`
	Elements        Elements `json:"elements"`
}

// Clone 深拷贝页眉/页脚。
func (h HeaderFooter) Clone() HeaderFooter {
	return HeaderFooter{BackgroundColor: h.BackgroundColor, Elements: h.Elements.Clone()}
}

// Section 表示三个独立的元素容器之一。
type Section string

const (
	SectionHeader Section = "header"
	SectionPage   Section = "page"
	SectionFooter Section = "footer"
)

// ParseSection 校验区域名称。
func ParseSection(s string) (Section, error) {
	switch Section(strings.ToLower(s)) {
	case SectionHeader:
		return SectionHeader, nil
	case SectionPage, "":
		return SectionPage, nil
	case SectionFooter:
		return SectionFooter, nil
	}
	return "", fmt.Errorf("无法识别的区域：%s", s)
}

// SectionBounds 返回区域的尺寸：页眉/页脚与页面同宽，高度固定。
func SectionBounds(section Section, page Size) Size {
	switch section {
	case SectionHeader:
		return Size{Width: page.Width, Height: HeaderHeight}
	case SectionFooter:
		return Size{Width: page.Width, Height: FooterHeight}
	default:
		return page
	}
}

// Document 是编辑会话持久化的 {pages, currentPageIndex, header, footer} 元组。
type Document struct {
	Pages            []*Page      `json:"pages"`
	CurrentPageIndex int          `json:"currentPageIndex"`
	Header           HeaderFooter `json:"header"`
	Footer           HeaderFooter `json:"footer"`
}

// NewDocument 返回只有一页 A4 纵向空白页的文档。
func NewDocument() Document {
	return Document{
		Pages:  []*Page{NewPage(SizeA4, Portrait)},
		Header: HeaderFooter{Elements: Elements{}},
		Footer: HeaderFooter{Elements: Elements{}},
	}
}

// Clone 深拷贝文档，保留 id。
func (d Document) Clone() Document {
	pages := make([]*Page, len(d.Pages))
	for i, p := range d.Pages {
		pages[i] = p.Clone()
	}
	return Document{
		Pages:            pages,
		CurrentPageIndex: d.CurrentPageIndex,
		Header:           d.Header.Clone(),
		Footer:           d.Footer.Clone(),
	}
}

// Validate 检查反序列化后的文档是否满足基本不变式。
func (d Document) Validate() error {
	if len(d.Pages) == 0 {
		return fmt.Errorf("文档至少需要一页")
	}
	for i, p := range d.Pages {
		if p == nil {
			return fmt.Errorf("第 %d 页为空", i)
		}
		if _, ok := pageSizes[p.Size]; !ok {
			return fmt.Errorf("第 %d 页纸张尺寸无效：%q", i, p.Size)
		}
		if p.Orientation != Portrait && p.Orientation != Landscape {
			return fmt.Errorf("第 %d 页方向无效：%q", i, p.Orientation)
		}
		if err := p.Elements.validate(); err != nil {
			return fmt.Errorf("第 %d 页: %w", i, err)
		}
	}
	if err := d.Header.Elements.validate(); err != nil {
		return fmt.Errorf("页眉: %w", err)
	}
	if err := d.Footer.Elements.validate(); err != nil {
		return fmt.Errorf("页脚: %w", err)
	}
	return nil
}
