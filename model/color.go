package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Color 采用 0-255 的 RGBA 数值。
type Color struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

// Black 是文本的兜底颜色。
var Black = Color{A: 255}

// ParseColor 解析 #rgb、#rrggbb 与 #rrggbbaa 形式的十六进制颜色。
func ParseColor(value string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + "ff"
	case 6:
		hex += "ff"
	case 8:
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// ColorOr 解析颜色，失败时返回 fallback。
func ColorOr(value string, fallback Color) Color {
	if value == "" {
		return fallback
	}
	c, err := ParseColor(value)
	if err != nil {
		return fallback
	}
	return c
}

// Hex 返回 #rrggbb（不透明）或 #rrggbbaa 形式。
func (c Color) Hex() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
