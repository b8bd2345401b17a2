// Package dsl parses the text format used to author canvas templates outside the editor.
//
//	template "Invoice" {
//	  category: "finance"
//	  tags: ["billing", "monthly"]
//	  header background #DBEAFE {
//	    text "City Budget Office" at 20 30 size 400 40 { fontSize: 20; bold: true }
//	  }
//	  page A4 portrait background #FFFBEB {
//	    image "seal.png" at 297 400 size 200 200
//	  }
//	}
package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+)`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][:;,]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment"),
		participle.UseLookahead(2),
	)
)

// File is the root AST node: one or more templates.
type File struct {
	Templates []*Template `parser:"Newline* ( @@ Newline* )+"`
}

// Template declares one canvas template.
type Template struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  StringLiteral  `parser:"'template' @String"`
	Items []*Item        `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Item is either a section or a template-level property.
type Item struct {
	Section  *Section  `parser:"  @@"`
	Property *Property `parser:"| @@"`
}

// Section is a header, footer or page block.
type Section struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Kind     string         `parser:"@( 'header' | 'footer' | 'page' )"`
	Params   []*Param       `parser:"@@*"`
	Elements []*Element     `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Param is a section header token: `background #RRGGBB` or a bare word (size, orientation).
type Param struct {
	Background *string `parser:"  'background' @Color"`
	Word       *string `parser:"| @Ident"`
}

// Element is a text or image element with absolute geometry in section coordinates.
type Element struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Kind    string         `parser:"@( 'text' | 'image' )"`
	Content StringLiteral  `parser:"@String"`
	X       float64        `parser:"'at' @Number"`
	Y       float64        `parser:"@Number"`
	Size    *Dimensions    `parser:"@@?"`
	Props   []*Property    `parser:"( '{' Newline* ( @@ ( ';' | Newline )* )* '}' )?"`
}

// Dimensions is the optional `size W H` clause.
type Dimensions struct {
	Width  float64 `parser:"'size' @Number"`
	Height float64 `parser:"@Number"`
}

// Property uses colon syntax (key: value).
type Property struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident ':'"`
	Value *Value         `parser:"@@"`
}

// Value represents property values.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *float64       `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Bool   *Boolean       `parser:"| @( 'true' | 'false' )"`
	Ident  *string        `parser:"| @Ident"`
	List   []*Value       `parser:"| '[' ( @@ ( ',' @@ )* )? ']'"`
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Boolean captures true/false keywords.
type Boolean bool

// Capture implements participle.Capture.
func (b *Boolean) Capture(values []string) error {
	*b = values[0] == "true"
	return nil
}

// Parse parses DSL content from an io.Reader.
func Parse(r io.Reader) (*File, error) {
	return fileParser.Parse("", r)
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*File, error) {
	return fileParser.ParseString("", input)
}
