package canvasrenderer

import (
	"context"
	"testing"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/reportcanvas/model"
)

// testFace 返回系统兜底字体的 12px 字体面；没有可用系统字体时跳过。
func testFace(t *testing.T) *canvas.FontFace {
	t.Helper()
	r := NewRenderer(Options{})
	face, err := r.face(context.Background(), "", 12, false, false, false, model.Black)
	if err != nil {
		t.Skipf("no system font available: %v", err)
	}
	return face
}

func TestWrapLinesGreedy(t *testing.T) {
	face := testFace(t)
	lines := wrapLines("hello world again", 10, face)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(lines))
	}
	for _, ln := range lines {
		if ln.Content != "" && ln.Content[0] == ' ' {
			t.Fatalf("line should not start with whitespace: %q", ln.Content)
		}
	}
}

func TestWrapLinesHonorsNewlines(t *testing.T) {
	face := testFace(t)
	lines := wrapLines("foo\n\nbar", 100, face)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines including blank, got %d", len(lines))
	}
	if lines[1].Content != "" {
		t.Fatalf("expected middle line to be blank, got %q", lines[1].Content)
	}
}

func TestWrapLinesWidthLimit(t *testing.T) {
	face := testFace(t)
	limit := 30.0 // mm
	lines := wrapLines("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", limit, face)
	if len(lines) < 2 {
		t.Fatalf("expected the long token to be split, got %d lines", len(lines))
	}
	for i, ln := range lines {
		if ln.Width-limit > 1e-6 {
			t.Fatalf("line %d width exceeds limit: width=%g limit=%g", i, ln.Width, limit)
		}
	}
}

// 第一行宽度与容器宽度恰好相等且后面紧跟显式换行时，不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	face := testFace(t)
	first := "SAMPLE-A"
	limit := face.TextWidth(first)

	lines := wrapLines(first+"\nSAMPLE-B", limit, face)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines without blank, got %d", len(lines))
	}
	if lines[0].Content != first || lines[1].Content != "SAMPLE-B" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("ab  cd\r\nef")
	want := []string{"ab", "  ", "cd", "\n", "ef"}
	if len(got) != len(want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
