package layout

import "github.com/ByLCY/reportcanvas/model"

// Options 配置排版参数与可选依赖。零值可用。
type Options struct {
	// Measurer 用于测量单元格文本宽度，超宽时以省略号截断；为空时不截断。
	Measurer TextMeasurer
	// Formatter 负责单元格取值的本地化格式；为空时使用 en-US 与 ₱。
	Formatter *Formatter

	FontFamily  string
	FontSize    float64 // 数据行字号（px）
	Margin      float64 // 四边页边距（px）
	TotalsLabel string

	// Template 非空时，排版避开模板已使用的页眉/页脚区域并把模板合并到结果中；
	// 模板页眉/页脚含 ${page} 时不再生成页码。
	Template *model.CanvasTemplate
}

// TextMeasurer 根据字体测量单行文本宽度（px）。
type TextMeasurer interface {
	MeasureText(text, family string, size float64, bold bool) (float64, error)
}

// 排版默认值。
const (
	DefaultMargin      = 40.0
	DefaultFontSize    = 10.0
	DefaultTotalsLabel = "TOTAL"
	DefaultFontFamily  = model.DefaultFontFamily
)

const (
	titleFontSize    = 20.0
	titleHeight      = 30.0
	subtitleFontSize = 12.0
	subtitleHeight   = 20.0
	titleGap         = 10.0
	headerRowHeight  = 24.0
	rowHeight        = 20.0
	totalsRowHeight  = 24.0
	footerBand       = 20.0
	cellPadding      = 4.0
	markerWidth      = 14.0
)

func (o Options) withDefaults() Options {
	if o.Formatter == nil {
		o.Formatter = defaultFormatter
	}
	if o.FontFamily == "" {
		o.FontFamily = DefaultFontFamily
	}
	if o.FontSize <= 0 {
		o.FontSize = DefaultFontSize
	}
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
	if o.TotalsLabel == "" {
		o.TotalsLabel = DefaultTotalsLabel
	}
	return o
}
