// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"math"
	"sort"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Analyze groups glyphs into text lines and lines into text boxes. It returns
// the text boxes in creation order followed by objs, which keep the order in
// which they were painted.
func Analyze(glyphs []Glyph, objs []Element, cfg types.LayoutConfig) []Element {
	boxes := groupBoxes(groupLines(glyphs, cfg), cfg)

	elements := make([]Element, 0, len(boxes)+len(objs))
	for _, b := range boxes {
		elements = append(elements, b)
	}
	return append(elements, objs...)
}

// groupLines walks glyphs in content stream order and starts a new line
// whenever a glyph cannot be aligned with its predecessor.
func groupLines(glyphs []Glyph, cfg types.LayoutConfig) []*TextLine {
	var (
		lines []*TextLine
		cur   *TextLine
		prev  Glyph
	)
	for _, g := range glyphs {
		if g.Text == "" {
			continue
		}
		if cur != nil && sameLine(prev, g, cfg) {
			margin := cfg.WordMargin * math.Max(g.Box.Width(), g.Box.Height())
			if prev.Box.X1 < g.Box.X0-margin {
				cur.Items = append(cur.Items, Anno{Text: " "})
			}
			cur.Items = append(cur.Items, charFromGlyph(g))
			cur.Box = cur.Box.Union(g.Box)
		} else {
			if cur != nil {
				lines = append(lines, endLine(cur))
			}
			cur = &TextLine{Items: []Item{charFromGlyph(g)}, Box: g.Box}
		}
		prev = g
	}
	if cur != nil {
		lines = append(lines, endLine(cur))
	}
	return lines
}

func endLine(l *TextLine) *TextLine {
	l.Items = append(l.Items, Anno{Text: "\n"})
	return l
}

func charFromGlyph(g Glyph) Char {
	return Char{Text: g.Text, FontName: g.FontName, FontSize: g.FontSize, Box: g.Box}
}

// sameLine reports whether b continues the line that a ends: the two glyphs
// overlap vertically by a sufficient fraction of the smaller height and are
// horizontally close.
func sameLine(a, b Glyph, cfg types.LayoutConfig) bool {
	voverlap := math.Min(a.Box.Y1, b.Box.Y1) - math.Max(a.Box.Y0, b.Box.Y0)
	if voverlap <= cfg.LineOverlap*math.Min(a.Box.Height(), b.Box.Height()) {
		return false
	}
	size := math.Max(math.Max(a.Box.Width(), b.Box.Width()), math.Max(a.Box.Height(), b.Box.Height()))
	return hdistance(a.Box, b.Box) < cfg.CharMargin*size
}

// hdistance is the horizontal gap between two boxes, zero when they overlap.
func hdistance(a, b types.Rect) float64 {
	if a.X0 <= b.X1 && b.X0 <= a.X1 {
		return 0
	}
	return math.Min(math.Abs(a.X0-b.X1), math.Abs(a.X1-b.X0))
}

// groupBoxes merges horizontally overlapping lines that are vertically close
// into text boxes. Boxes are returned in the order of their first line; lines
// inside a box are sorted top to bottom.
func groupBoxes(lines []*TextLine, cfg types.LayoutConfig) []*TextBox {
	parent := make([]int, len(lines))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	for i := range lines {
		for j := i + 1; j < len(lines); j++ {
			if adjacentLines(lines[i], lines[j], cfg) {
				ri, rj := find(i), find(j)
				if ri != rj {
					parent[rj] = ri
				}
			}
		}
	}

	byRoot := make(map[int]*TextBox)
	var boxes []*TextBox
	for i, l := range lines {
		root := find(i)
		b, ok := byRoot[root]
		if !ok {
			b = &TextBox{Box: l.Box}
			byRoot[root] = b
			boxes = append(boxes, b)
		} else {
			b.Box = b.Box.Union(l.Box)
		}
		b.Lines = append(b.Lines, l)
	}

	for _, b := range boxes {
		sort.SliceStable(b.Lines, func(i, j int) bool {
			return b.Lines[i].Box.Y1 > b.Lines[j].Box.Y1
		})
	}
	return boxes
}

func adjacentLines(a, b *TextLine, cfg types.LayoutConfig) bool {
	hoverlap := math.Min(a.Box.X1, b.Box.X1) - math.Max(a.Box.X0, b.Box.X0)
	if hoverlap <= 0 {
		return false
	}
	gap := math.Max(a.Box.Y0, b.Box.Y0) - math.Min(a.Box.Y1, b.Box.Y1)
	return gap < cfg.LineMargin*math.Max(a.Box.Height(), b.Box.Height())
}
