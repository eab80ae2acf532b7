// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// ErrParse is returned when the PDF parser fails on a page.
var ErrParse = errors.New("parsing PDF page")

// Source produces the analysed layout of each page of a PDF file.
type Source struct {
	file   *os.File
	reader *pdf.Reader
	cfg    types.LayoutConfig
}

// Open opens the PDF at path for layout analysis. The caller must Close the
// returned Source.
func Open(path string, cfg types.LayoutConfig) (s *Source, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: opening %s: %v", ErrParse, path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	return &Source{file: f, reader: r, cfg: cfg}, nil
}

// Close releases the underlying file.
func (s *Source) Close() error {
	return s.file.Close()
}

// NumPages returns the number of pages in the document.
func (s *Source) NumPages() int {
	return s.reader.NumPage()
}

// Page reads and analyses the page at the 0-based index. Parser panics on
// malformed content are returned as errors wrapping ErrParse.
func (s *Source) Page(index int) (page *Page, err error) {
	if index < 0 || index >= s.NumPages() {
		return nil, fmt.Errorf("page %d out of range [0, %d)", index, s.NumPages())
	}

	defer func() {
		if r := recover(); r != nil {
			page = nil
			err = fmt.Errorf("%w %d: %v", ErrParse, index, r)
		}
	}()

	p := s.reader.Page(index + 1)
	if p.V.IsNull() {
		return nil, fmt.Errorf("%w %d: missing page object", ErrParse, index)
	}

	glyphs := glyphsFromContent(p.Content().Text)
	objs := interpretGraphics(p)

	return &Page{
		Index:    index,
		Elements: Analyze(glyphs, objs, s.cfg),
	}, nil
}

// glyphsFromContent converts the parser's per-glyph text records. The glyph
// box spans the advance width horizontally and the font size above the
// baseline.
func glyphsFromContent(texts []pdf.Text) []Glyph {
	glyphs := make([]Glyph, 0, len(texts))
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		glyphs = append(glyphs, Glyph{
			Text:     t.S,
			FontName: t.Font,
			FontSize: t.FontSize,
			Box:      types.NewRect(t.X, t.Y, t.X+t.W, t.Y+t.FontSize),
		})
	}
	return glyphs
}

// interpretGraphics runs the page content stream through a graphicsTracker.
func interpretGraphics(p pdf.Page) []Element {
	xobjects := p.Resources().Key("XObject")
	t := newGraphicsTracker(func(name string) (xobject, bool) {
		return xobjectFromValue(xobjects.Key(name))
	})

	handle := func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch {
		case op == "q":
			t.save()
		case op == "Q":
			t.restore()
		case op == "cm" && len(args) == 6:
			var m types.Matrix
			for i := range m {
				m[i] = args[i].Float64()
			}
			t.concat(m)
		case op == "Do" && len(args) == 1:
			t.paintXObject(args[0].Name())
		case op == "re" && len(args) == 4:
			t.rect(args[0].Float64(), args[1].Float64(), args[2].Float64(), args[3].Float64())
		case op == "n":
			t.discardPath()
		case isPaintOperator(op):
			t.paintPath()
		}
	}

	// Contents is either one stream or an array of streams that are
	// concatenated.
	contents := p.V.Key("Contents")
	if contents.Kind() == pdf.Array {
		for i := 0; i < contents.Len(); i++ {
			pdf.Interpret(contents.Index(i), handle)
		}
	} else {
		pdf.Interpret(contents, handle)
	}
	return t.elements()
}

func xobjectFromValue(v pdf.Value) (xobject, bool) {
	if v.IsNull() {
		return xobject{}, false
	}
	switch v.Key("Subtype").Name() {
	case "Image":
		return xobject{kind: xobjectImage}, true
	case "Form":
		m := types.Identity()
		if mv := v.Key("Matrix"); mv.Kind() == pdf.Array && mv.Len() == 6 {
			for i := range m {
				m[i] = mv.Index(i).Float64()
			}
		}
		return xobject{kind: xobjectForm, bbox: rectFromValue(v.Key("BBox")), matrix: m}, true
	default:
		return xobject{kind: xobjectOther}, true
	}
}

func rectFromValue(v pdf.Value) types.Rect {
	if v.Kind() != pdf.Array || v.Len() != 4 {
		return types.Rect{}
	}
	return types.NewRect(v.Index(0).Float64(), v.Index(1).Float64(), v.Index(2).Float64(), v.Index(3).Float64())
}

