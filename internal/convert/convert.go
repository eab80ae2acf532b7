// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs the extraction of one PDF: it walks the pages in
// order, turns their text boxes and figures into content entries and writes
// the manifest once every page has been processed.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdf-extract/internal/imaging"
	"github.com/pdiddy/pdf-extract/internal/layout"
	"github.com/pdiddy/pdf-extract/internal/pdfpage"
	"github.com/pdiddy/pdf-extract/internal/rasterize"
	"github.com/pdiddy/pdf-extract/internal/registry"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// imagesDir is the subdirectory of the document output directory holding
// the extracted images.
const imagesDir = "images"

// ErrPageCountMismatch is returned when the layout parser and the page reader
// disagree on the number of pages.
var ErrPageCountMismatch = errors.New("page count mismatch")

// Result summarises an extraction run.
type Result struct {
	Pages        int
	Texts        int
	Images       int
	UniqueImages int
	ManifestPath string
}

// Paths holds the output locations for one input PDF.
type Paths struct {
	// Dir is <output dir>/<stem>.
	Dir string
	// Images is Dir/images.
	Images string
	// Manifest is Dir/<stem>.json (or .yaml).
	Manifest string
}

// OutputPaths derives the output locations of pdfPath under outputDir. The
// stem is the file name without its last extension.
func OutputPaths(pdfPath, outputDir string, format types.ManifestFormat) (Paths, error) {
	ext, err := manifestExt(format)
	if err != nil {
		return Paths{}, err
	}
	if outputDir == "" {
		outputDir = "."
	}
	base := filepath.Base(pdfPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dir := filepath.Join(outputDir, stem)
	return Paths{
		Dir:      dir,
		Images:   filepath.Join(dir, imagesDir),
		Manifest: filepath.Join(dir, stem+ext),
	}, nil
}

// Driver extracts documents according to Config.
type Driver struct {
	Config types.ExtractionConfig

	// Rasterizer overrides the rasterizer chosen from Config.Raster.
	Rasterizer rasterize.Rasterizer

	// Out receives progress lines. Nil discards them.
	Out io.Writer
}

// Run extracts pdfPath with cfg, writing progress to w.
func Run(ctx context.Context, pdfPath string, cfg types.ExtractionConfig, w io.Writer) (Result, error) {
	d := &Driver{Config: cfg, Out: w}
	return d.Run(ctx, pdfPath)
}

// Run extracts pdfPath. Any failure aborts the run before the manifest is
// written; images stored up to that point are left on disk.
func (d *Driver) Run(ctx context.Context, pdfPath string) (Result, error) {
	w := d.Out
	if w == nil {
		w = io.Discard
	}

	paths, err := OutputPaths(pdfPath, d.Config.OutputDir, d.Config.Format)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(paths.Images, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating images directory: %w", err)
	}

	src, err := layout.Open(pdfPath, d.Config.Layout)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	pages, err := pdfpage.Open(pdfPath)
	if err != nil {
		return Result{}, err
	}
	if src.NumPages() != pages.NumPages() {
		return Result{}, fmt.Errorf("%w: layout has %d pages, reader has %d",
			ErrPageCountMismatch, src.NumPages(), pages.NumPages())
	}

	scope, err := registryScope(paths.Images, pages.Digest())
	if err != nil {
		return Result{}, err
	}
	reg, err := registry.Open(d.Config.RegistryDB, scope)
	if err != nil {
		return Result{}, err
	}
	defer reg.Close()

	raster := d.Rasterizer
	if raster == nil {
		raster = rasterize.Lazy(d.Config.Raster)
	}
	proc := &Processor{Images: &imaging.Extractor{
		Rasterizer: raster,
		Registry:   reg,
		Store:      imaging.DirStore{Dir: paths.Images},
	}}

	n := src.NumPages()
	content := []types.ContentEntry{}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		page, err := src.Page(i)
		if err != nil {
			return Result{}, err
		}
		raw, err := pages.Page(i)
		if err != nil {
			return Result{}, err
		}

		before := len(content)
		if err := proc.ProcessPage(ctx, i, page, raw, paths.Images, &content); err != nil {
			return Result{}, fmt.Errorf("processing page %d: %w", i, err)
		}
		fmt.Fprintf(w, "page %d/%d processed (%d entries)\n", i+1, n, len(content)-before)
	}

	data, err := encodeManifest(d.Config.Format, content)
	if err != nil {
		return Result{}, err
	}
	if err := writeFileAtomic(paths.Manifest, data); err != nil {
		return Result{}, err
	}

	res := summarize(content)
	res.Pages = n
	res.ManifestPath = paths.Manifest

	fmt.Fprintf(w, "\nextracted: %d pages, %d text entries, %d images (%d unique) -> %s\n",
		res.Pages, res.Texts, res.Images, res.UniqueImages, res.ManifestPath)
	return res, nil
}

// registryScope names the images directory of one document. Registered
// identifiers are file names assigned from that document's element
// positions, so they are only reused by runs of the same document bytes
// into the same directory.
func registryScope(imagesDir, digest string) (string, error) {
	abs, err := filepath.Abs(imagesDir)
	if err != nil {
		return "", fmt.Errorf("resolving images directory: %w", err)
	}
	return abs + "@" + digest, nil
}

func summarize(content []types.ContentEntry) Result {
	var res Result
	seen := make(map[string]bool)
	for _, e := range content {
		switch e := e.(type) {
		case *types.TextEntry:
			res.Texts++
		case *types.ImageEntry:
			res.Images++
			if !seen[e.Content] {
				seen[e.Content] = true
				res.UniqueImages++
			}
		}
	}
	return res
}
