package templates

import "github.com/ByLCY/reportcanvas/model"

// 内置模板 id。
const (
	DefaultBlankID  = "default-blank"
	DefaultReportID = "default-report"
)

// Defaults 返回内置模板的新副本（时间戳为零，由 EnsureDefaults 填写）。
// 元素 id 固定，重复播种不会产生新元素。
func Defaults() []model.CanvasTemplate {
	width := model.Dimensions(model.SizeA4, model.Portrait).Width

	title := &model.TextElement{
		Base: model.Base{
			ID:       DefaultReportID + "-title",
			Position: model.Position{X: 40, Y: 30},
			Width:    width - 80,
			Height:   40,
			Visible:  true,
		},
		Text:       "${title}",
		FontSize:   20,
		FontFamily: model.DefaultFontFamily,
		Bold:       true,
		Color:      "#1F2937",
		Align:      model.AlignCenter,
	}
	pageNo := &model.TextElement{
		Base: model.Base{
			ID:       DefaultReportID + "-page",
			Position: model.Position{X: 40, Y: 70},
			Width:    width - 80,
			Height:   24,
			Visible:  true,
		},
		Text:       "Page ${page} of ${pages} · ${date}",
		FontSize:   10,
		FontFamily: model.DefaultFontFamily,
		Color:      "#6B7280",
		Align:      model.AlignRight,
	}

	return []model.CanvasTemplate{
		{
			ID:          DefaultBlankID,
			Name:        "Blank",
			Description: "Empty A4 portrait page",
			Category:    "general",
			IsDefault:   true,
			Header:      model.HeaderFooter{Elements: model.Elements{}},
			Footer:      model.HeaderFooter{Elements: model.Elements{}},
			Page: model.TemplatePage{
				Size:        model.SizeA4,
				Orientation: model.Portrait,
				Elements:    model.Elements{},
			},
		},
		{
			ID:          DefaultReportID,
			Name:        "Budget Report",
			Description: "Title header and page-number footer",
			Category:    "report",
			IsDefault:   true,
			Tags:        []string{"report", "budget"},
			Header: model.HeaderFooter{
				BackgroundColor: "#F3F4F6",
				Elements:        model.Elements{title},
			},
			Footer: model.HeaderFooter{Elements: model.Elements{pageNo}},
			Page: model.TemplatePage{
				Size:        model.SizeA4,
				Orientation: model.Portrait,
				Elements:    model.Elements{},
			},
		},
	}
}
