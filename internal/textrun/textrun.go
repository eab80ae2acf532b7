// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textrun extracts the plain text of a text box together with the
// font runs of each of its lines.
package textrun

import (
	"strings"

	"github.com/pdiddy/pdf-extract/internal/layout"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Extract returns the box's text exactly as the layout reports it and the
// font runs found on its lines, in reading order.
//
// Runs are built per line. A space, whether a glyph or inserted by layout
// analysis, joins the current run and never changes the tracked font. Other
// inserted items, such as the line break, are skipped. When a character's
// font differs from the tracked font the buffered run is closed and the
// character starts the next one. The buffered run is flushed at the end of
// the line when a font has been seen.
func Extract(box *layout.TextBox) (string, []types.FontRun) {
	var runs []types.FontRun
	for _, line := range box.Lines {
		runs = appendLineRuns(runs, line)
	}
	return box.Text(), runs
}

func appendLineRuns(runs []types.FontRun, line *layout.TextLine) []types.FontRun {
	var (
		buf  strings.Builder
		font string
	)
	for _, it := range line.Items {
		if it.ItemText() == " " {
			buf.WriteString(" ")
			continue
		}
		c, ok := it.(layout.Char)
		if !ok {
			continue
		}
		if font == "" {
			font = c.FontName
		}
		if c.FontName != font {
			runs = append(runs, types.FontRun{Text: buf.String(), FontName: font})
			buf.Reset()
			font = c.FontName
		}
		buf.WriteString(c.Text)
	}
	if font != "" && buf.Len() > 0 {
		runs = append(runs, types.FontRun{Text: buf.String(), FontName: font})
	}
	return runs
}
