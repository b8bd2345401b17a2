// Package renderer 定义打印与缩略图输出的能力接口。
package renderer

import (
	"context"
	"time"

	"github.com/ByLCY/reportcanvas/model"
)

// PrintOptions 是打印时的附加信息，用于填充页眉/页脚中的 ${...} 占位符。
type PrintOptions struct {
	Title string
	// Date 为空时使用当前时间。
	Date time.Time
	// Data 是额外的占位符变量，同名时覆盖内置变量。
	Data map[string]any
}

// Printer 将文档全部页面输出为可打印文件（例如 PDF）。
// 每一页都带上文档共享的页眉与页脚，纸张使用该页自己的尺寸与方向。
type Printer interface {
	PrintAllPages(ctx context.Context, doc model.Document, opts PrintOptions) ([]byte, error)
}

// Thumbnailer 将文档当前页光栅化为 base64 PNG data URL。
type Thumbnailer interface {
	CaptureThumbnail(ctx context.Context, doc model.Document, width, height int) (string, error)
}
