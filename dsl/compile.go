package dsl

import (
	"fmt"
	"strings"

	"github.com/ByLCY/reportcanvas/model"
)

// Compile turns parsed templates into model templates with fresh element ids.
// Timestamps and thumbnails are left for the template store to fill in.
func Compile(f *File) ([]*model.CanvasTemplate, error) {
	out := make([]*model.CanvasTemplate, 0, len(f.Templates))
	seen := map[string]bool{}
	for _, t := range f.Templates {
		ct, err := compileTemplate(t)
		if err != nil {
			return nil, err
		}
		if seen[ct.Name] {
			return nil, fmt.Errorf("%s: duplicate template %q", t.Pos, ct.Name)
		}
		seen[ct.Name] = true
		out = append(out, ct)
	}
	return out, nil
}

// CompileString parses and compiles DSL text.
func CompileString(input string) ([]*model.CanvasTemplate, error) {
	f, err := ParseString(input)
	if err != nil {
		return nil, err
	}
	return Compile(f)
}

func compileTemplate(t *Template) (*model.CanvasTemplate, error) {
	name := strings.TrimSpace(string(t.Name))
	if name == "" {
		return nil, fmt.Errorf("%s: template name is empty", t.Pos)
	}
	ct := &model.CanvasTemplate{
		Name:   name,
		Header: model.HeaderFooter{Elements: model.Elements{}},
		Footer: model.HeaderFooter{Elements: model.Elements{}},
		Page: model.TemplatePage{
			Size:        model.SizeA4,
			Orientation: model.Portrait,
			Elements:    model.Elements{},
		},
	}

	sections := map[string]*Section{}
	for _, it := range t.Items {
		switch {
		case it.Section != nil:
			if sections[it.Section.Kind] != nil {
				return nil, fmt.Errorf("%s: duplicate %s section", it.Section.Pos, it.Section.Kind)
			}
			sections[it.Section.Kind] = it.Section
		case it.Property != nil:
			if err := templateProperty(ct, it.Property); err != nil {
				return nil, err
			}
		}
	}

	// 页面先于页眉/页脚处理：后两者的宽度取决于页面尺寸
	if s := sections["page"]; s != nil {
		if err := pageParams(ct, s); err != nil {
			return nil, err
		}
	}
	page := model.Dimensions(ct.Page.Size, ct.Page.Orientation)
	targets := []struct {
		kind    string
		section model.Section
		bg      *string
		list    *model.Elements
	}{
		{"page", model.SectionPage, &ct.Page.BackgroundColor, &ct.Page.Elements},
		{"header", model.SectionHeader, &ct.Header.BackgroundColor, &ct.Header.Elements},
		{"footer", model.SectionFooter, &ct.Footer.BackgroundColor, &ct.Footer.Elements},
	}
	for _, target := range targets {
		s := sections[target.kind]
		if s == nil {
			continue
		}
		for _, p := range s.Params {
			if p.Background != nil {
				*target.bg = *p.Background
			} else if target.kind != "page" {
				return nil, fmt.Errorf("%s: unexpected %q on %s", s.Pos, *p.Word, s.Kind)
			}
		}
		bounds := model.SectionBounds(target.section, page)
		for _, e := range s.Elements {
			el, err := compileElement(e, bounds)
			if err != nil {
				return nil, err
			}
			*target.list = append(*target.list, el)
		}
	}
	return ct, nil
}

func templateProperty(ct *model.CanvasTemplate, p *Property) error {
	var err error
	switch p.Key {
	case "id":
		ct.ID, err = p.text()
	case "description":
		ct.Description, err = p.text()
	case "category":
		ct.Category, err = p.text()
	case "default":
		ct.IsDefault, err = p.boolean()
	case "tags":
		if p.Value.List == nil {
			return p.errorf("expects a list")
		}
		for _, v := range p.Value.List {
			if v.String == nil {
				return p.errorf("expects strings")
			}
			ct.Tags = append(ct.Tags, string(*v.String))
		}
	default:
		return p.errorf("unknown template property")
	}
	return err
}

func pageParams(ct *model.CanvasTemplate, s *Section) error {
	for _, p := range s.Params {
		if p.Word == nil {
			continue
		}
		if size, err := model.ParsePageSize(*p.Word); err == nil {
			ct.Page.Size = size
			continue
		}
		o, err := model.ParseOrientation(*p.Word)
		if err != nil {
			return fmt.Errorf("%s: %q is neither a page size nor an orientation", s.Pos, *p.Word)
		}
		ct.Page.Orientation = o
	}
	return nil
}

func compileElement(e *Element, bounds model.Size) (model.Element, error) {
	var (
		el  model.Element
		err error
	)
	switch e.Kind {
	case "text":
		t := model.NewTextElement(bounds)
		t.Text = string(e.Content)
		t.Width, t.Height = 200, 40
		for _, p := range e.Props {
			if err = textProperty(t, p); err != nil {
				return nil, err
			}
		}
		el = t
	case "image":
		if e.Size == nil {
			return nil, fmt.Errorf("%s: image requires a size clause", e.Pos)
		}
		img := &model.ImageElement{Base: model.Base{ID: model.NewID(), Visible: true}, Src: string(e.Content)}
		for _, p := range e.Props {
			if err = imageProperty(img, p); err != nil {
				return nil, err
			}
		}
		el = img
	}
	b := el.Common()
	b.Position = model.Position{X: e.X, Y: e.Y}
	if e.Size != nil {
		b.Width, b.Height = e.Size.Width, e.Size.Height
	}
	if b.Width <= 0 || b.Height <= 0 {
		return nil, fmt.Errorf("%s: %s size must be positive", e.Pos, e.Kind)
	}
	if b.Position.X < 0 || b.Position.Y < 0 || b.Position.X+b.Width > bounds.Width || b.Position.Y+b.Height > bounds.Height {
		return nil, fmt.Errorf("%s: %s at (%g, %g) size %gx%g does not fit in %gx%g",
			e.Pos, e.Kind, b.Position.X, b.Position.Y, b.Width, b.Height, bounds.Width, bounds.Height)
	}
	return el, nil
}

func textProperty(t *model.TextElement, p *Property) error {
	var err error
	switch p.Key {
	case "fontSize":
		t.FontSize, err = p.number()
	case "fontFamily":
		t.FontFamily, err = p.text()
	case "color":
		t.Color, err = p.color()
	case "align":
		var a string
		if a, err = p.text(); err == nil {
			switch model.TextAlign(a) {
			case model.AlignLeft, model.AlignCenter, model.AlignRight:
				t.Align = model.TextAlign(a)
			default:
				return p.errorf("expects left, center or right")
			}
		}
	case "bold":
		t.Bold, err = p.boolean()
	case "italic":
		t.Italic, err = p.boolean()
	case "underline":
		t.Underline, err = p.boolean()
	case "shadow":
		t.Shadow, err = p.boolean()
	case "outline":
		t.Outline, err = p.boolean()
	default:
		return commonProperty(&t.Base, p)
	}
	return err
}

func imageProperty(img *model.ImageElement, p *Property) error {
	var err error
	switch p.Key {
	case "name":
		img.Name, err = p.text()
	case "imageId":
		img.ImageID, err = p.text()
	default:
		return commonProperty(&img.Base, p)
	}
	return err
}

func commonProperty(b *model.Base, p *Property) error {
	var err error
	switch p.Key {
	case "locked":
		b.Locked, err = p.boolean()
	case "visible":
		b.Visible, err = p.boolean()
	default:
		return p.errorf("unknown element property")
	}
	return err
}

func (p *Property) errorf(msg string) error {
	return fmt.Errorf("%s: %s: %s", p.Pos, p.Key, msg)
}

func (p *Property) text() (string, error) {
	switch {
	case p.Value.String != nil:
		return string(*p.Value.String), nil
	case p.Value.Ident != nil:
		return *p.Value.Ident, nil
	}
	return "", p.errorf("expects a string")
}

func (p *Property) number() (float64, error) {
	if p.Value.Number == nil || *p.Value.Number <= 0 {
		return 0, p.errorf("expects a positive number")
	}
	return *p.Value.Number, nil
}

func (p *Property) boolean() (bool, error) {
	if p.Value.Bool == nil {
		return false, p.errorf("expects true or false")
	}
	return bool(*p.Value.Bool), nil
}

func (p *Property) color() (string, error) {
	c := ""
	switch {
	case p.Value.Color != nil:
		c = *p.Value.Color
	case p.Value.String != nil:
		c = string(*p.Value.String)
	}
	if _, err := model.ParseColor(c); err != nil {
		return "", p.errorf("expects a hex color")
	}
	return c, nil
}
