package canvasrenderer

import (
	"math"
	"strings"
	"unicode"

	"github.com/tdewolff/canvas"
)

// textLine 是换行后的一行，Width 为 mm。
type textLine struct {
	Content string
	Width   float64
}

// wrapLines 使用贪心算法按 limit（mm）折行：优先在空白处断开，单词超宽时在词内拆分。
// 显式换行总会产生新行；limit <= 0 表示不限宽。
func wrapLines(content string, limit float64, face *canvas.FontFace) []textLine {
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	var (
		lines   []textLine
		builder strings.Builder
		current float64
	)
	emit := func(force bool) {
		if builder.Len() == 0 {
			if force {
				lines = append(lines, textLine{})
			}
			return
		}
		lines = append(lines, textLine{Content: strings.TrimRightFunc(builder.String(), unicode.IsSpace), Width: current})
		builder.Reset()
		current = 0
	}
	appendToken := func(token string) {
		// 行首空白不占位
		if builder.Len() == 0 && strings.TrimSpace(token) == "" {
			return
		}
		builder.WriteString(token)
		current += face.TextWidth(token)
	}

	for _, token := range tokenize(content) {
		if token == "\n" {
			emit(true)
			continue
		}
		w := face.TextWidth(token)
		if current > 0 && current+w > limit {
			emit(false)
		}
		if w <= limit {
			appendToken(token)
			continue
		}
		for _, chunk := range splitByWidth(token, limit, face) {
			if current > 0 && current+face.TextWidth(chunk) > limit {
				emit(false)
			}
			appendToken(chunk)
		}
	}
	emit(true)
	return lines
}

// tokenize 把文本切分为空白段、非空白段与独立的 "\n"。
func tokenize(s string) []string {
	var (
		tokens  []string
		builder strings.Builder
		inSpace bool
	)
	flush := func() {
		if builder.Len() > 0 {
			tokens = append(tokens, builder.String())
			builder.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '\r':
			continue
		case r == '\n':
			flush()
			tokens = append(tokens, "\n")
			continue
		}
		space := unicode.IsSpace(r)
		if builder.Len() > 0 && space != inSpace {
			flush()
		}
		inSpace = space
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitByWidth(token string, limit float64, face *canvas.FontFace) []string {
	var (
		parts   []string
		builder strings.Builder
	)
	for _, r := range token {
		builder.WriteRune(r)
		if builder.Len() > len(string(r)) && face.TextWidth(builder.String()) > limit {
			runes := []rune(builder.String())
			parts = append(parts, string(runes[:len(runes)-1]))
			builder.Reset()
			builder.WriteRune(r)
		}
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}
