package model

import (
	"strconv"
	"strings"
)

// This file defines unit-safe lengths. Canvas geometry is stored in CSS pixels
// (96 per inch); the print renderer works in millimeters.

// Unit represents the original unit of a length value.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, read as pixels
	UnitPX               // CSS pixels
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
)

// Conversion constants.
const (
	PxPerInch = 96.0
	MmPerInch = 25.4
	PtPerInch = 72.0

	PxToMm = MmPerInch / PxPerInch
	MmToPx = PxPerInch / MmPerInch
	PtToPx = PxPerInch / PtPerInch
)

// String returns a short suffix for a Unit value.
func (u Unit) String() string {
	switch u {
	case UnitPX:
		return "px"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// ToPX converts the length to CSS pixels.
func (l Length) ToPX() float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value * MmToPx
	case UnitCM:
		return l.Value * 10 * MmToPx
	case UnitIN:
		return l.Value * PxPerInch
	case UnitPT:
		return l.Value * PtToPx
	default:
		return l.Value
	}
}

// ToMM converts the length to millimeters.
func (l Length) ToMM() float64 { return l.ToPX() * PxToMm }

var unitSuffixes = []struct {
	s string
	u Unit
}{{"px", UnitPX}, {"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}}

// ParseLength parses "12", "12px", "10mm", "1in" or "14pt". The bool is false
// when the numeric part is invalid.
func ParseLength(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	unit := UnitNone
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}
