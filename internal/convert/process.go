// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/pdiddy/pdf-extract/internal/imaging"
	"github.com/pdiddy/pdf-extract/internal/layout"
	"github.com/pdiddy/pdf-extract/internal/textrun"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Processor turns the layout of one page into content entries.
type Processor struct {
	Images *imaging.Extractor
}

// ImageName returns the file name used for the figure at position idx of a
// page's sorted elements.
func ImageName(pageNum, idx int) string {
	return fmt.Sprintf("%d_el_%03d.png", pageNum, idx)
}

// ProcessPage appends the entries of page to content, topmost element first.
// Text boxes become text entries with their font runs; figures are cropped
// from raw, stored in imgDir and become image entries; other elements are
// skipped. raw is only cropped when the page has figures.
func (p *Processor) ProcessPage(ctx context.Context, pageNum int, page *layout.Page, raw imaging.CroppablePage, imgDir string, content *[]types.ContentEntry) error {
	for idx, el := range sortByTop(page.Elements) {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch el := el.(type) {
		case *layout.TextBox:
			text, format := textrun.Extract(el)
			*content = append(*content, types.NewTextEntry(pageNum, text, format))

		case *layout.Figure:
			outPath := filepath.Join(imgDir, ImageName(pageNum, idx))
			hash, err := p.Images.Extract(ctx, el, raw, outPath)
			if err != nil {
				return fmt.Errorf("page %d element %d: %w", pageNum, idx, err)
			}
			id, ok, err := p.Images.Registry.Lookup(ctx, hash)
			if err != nil {
				return fmt.Errorf("page %d element %d: %w", pageNum, idx, err)
			}
			if !ok {
				return fmt.Errorf("page %d element %d: image %s missing from registry", pageNum, idx, hash)
			}
			*content = append(*content, types.NewImageEntry(pageNum, id))

		case *layout.Other:
			// Rules and other graphics carry no content.

		default:
			return fmt.Errorf("page %d element %d: unsupported element %T", pageNum, idx, el)
		}
	}
	return nil
}

// sortByTop returns the elements ordered by descending top edge. Elements
// with equal tops keep their layout order.
func sortByTop(elements []layout.Element) []layout.Element {
	sorted := make([]layout.Element, len(elements))
	copy(sorted, elements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox().Y1 > sorted[j].BBox().Y1
	})
	return sorted
}
