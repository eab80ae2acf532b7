// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout turns a PDF page into a tree of positioned elements: text
// boxes made of lines and characters, figure regions, and other graphics.
//
// Glyphs are read with github.com/ledongthuc/pdf; figures and rectangles come
// from interpreting the page content stream. Grouping glyphs into lines and
// lines into boxes is controlled by types.LayoutConfig.
package layout

import (
	"strings"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Element is a top-level element of a page. The set of implementations is
// closed: *TextBox, *Figure and *Other.
type Element interface {
	// BBox returns the element's bounding box in page coordinates.
	BBox() types.Rect

	element()
}

// Item is a member of a text line: either a Char read from the page or an
// Anno inserted by layout analysis.
type Item interface {
	// ItemText returns the text contributed by the item.
	ItemText() string

	item()
}

// Char is a single glyph with its font metadata.
type Char struct {
	Text     string
	FontName string
	FontSize float64
	Box      types.Rect
}

func (c Char) ItemText() string { return c.Text }
func (Char) item()              {}

// Anno is virtual whitespace inserted between words (" ") or at the end of a
// line ("\n"). It carries no font.
type Anno struct {
	Text string
}

func (a Anno) ItemText() string { return a.Text }
func (Anno) item()              {}

// TextLine is a horizontal run of items sharing a baseline.
type TextLine struct {
	Items []Item
	Box   types.Rect
}

// Text returns the concatenated text of the line's items.
func (l *TextLine) Text() string {
	var b strings.Builder
	for _, it := range l.Items {
		b.WriteString(it.ItemText())
	}
	return b.String()
}

// TextBox is a text container: a group of vertically adjacent lines.
type TextBox struct {
	Lines []*TextLine
	Box   types.Rect
}

func (b *TextBox) BBox() types.Rect { return b.Box }
func (*TextBox) element()           {}

// Text returns the plain text of the box. Every line ends with a line break.
func (b *TextBox) Text() string {
	var sb strings.Builder
	for _, l := range b.Lines {
		sb.WriteString(l.Text())
	}
	return sb.String()
}

// Figure is a region painted by an image or form XObject.
type Figure struct {
	// Name is the XObject resource name (e.g. "Im0").
	Name string
	Box  types.Rect
}

func (f *Figure) BBox() types.Rect { return f.Box }
func (*Figure) element()           {}

// Other is any page element that is neither text nor a figure, such as a
// stroked or filled rectangle.
type Other struct {
	Box types.Rect
}

func (o *Other) BBox() types.Rect { return o.Box }
func (*Other) element()           {}

// Page is the analysed layout of one PDF page.
type Page struct {
	// Index is the 0-based page number.
	Index int

	// Elements are ordered text boxes first, then figures and other graphics
	// in content stream order.
	Elements []Element
}

// Glyph is one positioned character as read from the content stream, before
// layout analysis.
type Glyph struct {
	Text     string
	FontName string
	FontSize float64
	Box      types.Rect
}
