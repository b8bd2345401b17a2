package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDimensionsOrientation(t *testing.T) {
	for _, size := range []PageSize{SizeA4, SizeShort, SizeLong} {
		p := Dimensions(size, Portrait)
		l := Dimensions(size, Landscape)
		if p.Width != l.Height || p.Height != l.Width {
			t.Fatalf("%s 横向应交换宽高: portrait=%+v landscape=%+v", size, p, l)
		}
		if p.Width >= p.Height {
			t.Fatalf("%s 纵向宽应小于高: %+v", size, p)
		}
	}
}

func TestDimensionsUnknownSizePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("未知纸张尺寸应 panic")
		}
	}()
	Dimensions(PageSize("B5"), Portrait)
}

func TestParsePageSize(t *testing.T) {
	got, err := ParsePageSize("long")
	if err != nil || got != SizeLong {
		t.Fatalf("ParsePageSize(long) = %q, %v", got, err)
	}
	if _, err := ParsePageSize("B5"); err == nil {
		t.Fatalf("未知尺寸应返回错误")
	}
}

// TestNewIDUnique 统计性验证：连续 100000 次不重复。
func TestNewIDUnique(t *testing.T) {
	const n = 100000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := NewID()
		if _, dup := seen[id]; dup {
			t.Fatalf("第 %d 次生成了重复 id: %s", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestNewImageElementCapsWidth(t *testing.T) {
	page := Dimensions(SizeA4, Portrait)
	img := NewImageElement("data:image/png;base64,xx", Size{Width: 400, Height: 200}, page)
	if img.Width != 300 || img.Height != 150 {
		t.Fatalf("期望 300x150，实际 %gx%g", img.Width, img.Height)
	}
	if img.Position.X != (page.Width-300)/2 || img.Position.Y != (page.Height-150)/2 {
		t.Fatalf("图片未居中: %+v", img.Position)
	}
	small := NewImageElement("x", Size{Width: 100, Height: 50}, page)
	if small.Width != 100 || small.Height != 50 {
		t.Fatalf("小图不应放大: %gx%g", small.Width, small.Height)
	}
}

func TestNewImageElementKeepsFloorInBand(t *testing.T) {
	band := Size{Width: 794, Height: HeaderHeight}
	img := NewImageElement("x", Size{Width: 100, Height: 400}, band)
	if img.Width < MinImageSize || img.Height < MinImageSize {
		t.Fatalf("图片小于 %gpx: %gx%g", MinImageSize, img.Width, img.Height)
	}
	if img.Position.Y+img.Height > band.Height || img.Position.X+img.Width > band.Width {
		t.Fatalf("图片超出区域: %+v %gx%g", img.Position, img.Width, img.Height)
	}
}

func TestNewTextElementDefaults(t *testing.T) {
	el := NewTextElement(Size{Width: 794, Height: 120})
	if !el.Visible || el.Locked {
		t.Fatalf("默认应可见且未锁定: %+v", el.Base)
	}
	if el.Position.X != (794-el.Width)/2 || el.Position.Y != (120-el.Height)/2 {
		t.Fatalf("文本未居中: %+v", el.Position)
	}
}

func TestCloneWithNewIDsDisjoint(t *testing.T) {
	page := NewPage(SizeA4, Portrait)
	page.Elements = Elements{NewTextElement(page.Dimensions()), NewImageElement("x", Size{Width: 10, Height: 10}, page.Dimensions())}
	dup := page.CloneWithNewIDs()
	orig := map[string]bool{}
	for _, id := range page.Elements.IDs() {
		orig[id] = true
	}
	for _, id := range dup.Elements.IDs() {
		if orig[id] {
			t.Fatalf("副本复用了 id %s", id)
		}
	}
	dup.Elements[0].(*TextElement).Text = "changed"
	if page.Elements[0].(*TextElement).Text == "changed" {
		t.Fatalf("副本与原页面共享了元素")
	}
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	doc := NewDocument()
	txt := NewTextElement(doc.Pages[0].Dimensions())
	txt.Bold = true
	txt.Align = AlignRight
	img := NewImageElement("data:image/png;base64,AAAA", Size{Width: 40, Height: 20}, doc.Pages[0].Dimensions())
	img.ImageID = "upload-1"
	img.Name = "logo"
	img.Locked = true
	doc.Pages[0].Elements = Elements{txt, img}
	doc.Pages[0].BackgroundColor = "#fafafa"
	doc.Header.BackgroundColor = "#eeeeee"
	doc.Header.Elements = Elements{NewTextElement(SectionBounds(SectionHeader, doc.Pages[0].Dimensions()))}

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Document
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(doc, back) {
		t.Fatalf("往返不一致:\n%+v\n%+v", doc, back)
	}
}

func TestElementsDefaultVisible(t *testing.T) {
	var es Elements
	if err := json.Unmarshal([]byte(`[{"type":"text","id":"a","text":"hi"}]`), &es); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !es[0].Common().Visible {
		t.Fatalf("缺省 visible 应为 true")
	}
	if err := json.Unmarshal([]byte(`[{"type":"shape","id":"a"}]`), &es); err == nil {
		t.Fatalf("未知类型应报错")
	}
}

func TestElementUpdateIgnoresForeignFields(t *testing.T) {
	img := &ImageElement{Base: Base{ID: "i", Visible: true}, Src: "a"}
	text := "ignored"
	src := "b"
	ElementUpdate{Text: &text, Src: &src}.ApplyTo(img)
	if img.Src != "b" {
		t.Fatalf("src 未更新")
	}
	txt := &TextElement{Base: Base{ID: "t"}, Text: "a"}
	ElementUpdate{Text: &text, Src: &src}.ApplyTo(txt)
	if txt.Text != "ignored" {
		t.Fatalf("text 未更新")
	}
}

func TestDocumentValidate(t *testing.T) {
	if err := (Document{}).Validate(); err == nil {
		t.Fatalf("空文档应校验失败")
	}
	doc := NewDocument()
	a := NewTextElement(doc.Pages[0].Dimensions())
	b := a.Clone()
	doc.Pages[0].Elements = Elements{a, b}
	if err := doc.Validate(); err == nil {
		t.Fatalf("重复 id 应校验失败")
	}
}
