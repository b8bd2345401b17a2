package layout

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// 日期列的输出格式与可接受的输入格式。
const dateLayout = "Jan 2, 2006"

var dateInputs = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "2006/01/02", "01/02/2006"}

// Formatter 按区域设置格式化单元格取值。
type Formatter struct {
	Symbol  string
	printer *message.Printer
}

var defaultFormatter = NewFormatter("en-US", "₱")

// NewFormatter 创建格式化器；无法识别的 locale 退回 en-US。
func NewFormatter(locale, symbol string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return &Formatter{Symbol: symbol, printer: message.NewPrinter(tag)}
}

// FormatValue 使用默认格式化器格式化取值。
func FormatValue(v any, t ColumnType) string {
	return defaultFormatter.Format(v, t)
}

// Format 按列类型格式化取值：货币不带小数，数值与百分比保留两位小数，
// 日期输出短日期，状态与文本原样输出。无法按类型解析的取值原样输出。
func (f *Formatter) Format(v any, t ColumnType) string {
	if v == nil {
		return ""
	}
	switch t {
	case ColumnCurrency:
		if n, ok := toFloat(v); ok {
			sign := ""
			if n < 0 {
				sign, n = "-", -n
			}
			return sign + f.Symbol + f.printer.Sprint(number.Decimal(math.Round(n), number.MaxFractionDigits(0)))
		}
	case ColumnNumber:
		if n, ok := toFloat(v); ok {
			return f.printer.Sprint(number.Decimal(n, number.Scale(2)))
		}
	case ColumnPercentage:
		if n, ok := toFloat(v); ok {
			return f.printer.Sprint(number.Decimal(n, number.Scale(2))) + "%"
		}
	case ColumnDate:
		if d, ok := toTime(v); ok {
			return d.Format(dateLayout)
		}
	}
	return literal(v)
}

func literal(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		n, err := x.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(x), ",", ""), 64)
		return n, err == nil
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, !x.IsZero()
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateInputs {
			if d, err := time.Parse(layout, s); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}
