package layout

import (
	"testing"
	"time"
)

func TestFormatValue(t *testing.T) {
	cases := []struct {
		v    any
		typ  ColumnType
		want string
	}{
		{1234567.4, ColumnCurrency, "₱1,234,567"},
		{-50, ColumnCurrency, "-₱50"},
		{"2,500", ColumnCurrency, "₱2,500"},
		{1234.5, ColumnNumber, "1,234.50"},
		{12.5, ColumnPercentage, "12.50%"},
		{"2024-03-05", ColumnDate, "Mar 5, 2024"},
		{time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC), ColumnDate, "Dec 31, 2025"},
		{"soon", ColumnDate, "soon"},
		{"Ongoing", ColumnStatus, "Ongoing"},
		{"n/a", ColumnCurrency, "n/a"},
		{nil, ColumnText, ""},
		{42, ColumnText, "42"},
	}
	for _, c := range cases {
		if got := FormatValue(c.v, c.typ); got != c.want {
			t.Fatalf("FormatValue(%v, %s) = %q, want %q", c.v, c.typ, got, c.want)
		}
	}
}

func TestFormatterSymbol(t *testing.T) {
	f := NewFormatter("en-US", "$")
	if got := f.Format(1500, ColumnCurrency); got != "$1,500" {
		t.Fatalf("got %q", got)
	}
	f = NewFormatter("not a locale!", "₱")
	if got := f.Format(10, ColumnCurrency); got != "₱10" {
		t.Fatalf("got %q", got)
	}
}
