// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfpage gives random access to the raw pages of a PDF. Each page can
// be cut out into a single-page document and cropped to a region of interest.
// The work is done by github.com/pdfcpu/pdfcpu.
package pdfpage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Reader holds a PDF document in memory.
type Reader struct {
	data     []byte
	conf     *model.Configuration
	numPages int
}

// Open reads the PDF at path and counts its pages.
func Open(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("counting pages of %s: %w", path, err)
	}
	return &Reader{data: data, conf: conf, numPages: n}, nil
}

// NumPages returns the number of pages in the document.
func (r *Reader) NumPages() int {
	return r.numPages
}

// Digest returns the hex SHA-256 of the document bytes.
func (r *Reader) Digest() string {
	sum := sha256.Sum256(r.data)
	return hex.EncodeToString(sum[:])
}

// Page returns the page at the 0-based index. The page is not extracted
// until it is first cropped.
func (r *Reader) Page(index int) (*Page, error) {
	if index < 0 || index >= r.numPages {
		return nil, fmt.Errorf("page %d out of range [0, %d)", index, r.numPages)
	}
	return &Page{reader: r, index: index}, nil
}

// Page is one page of a Reader.
type Page struct {
	reader *Reader
	index  int

	single []byte
	err    error
	done   bool
}

// Document returns the page as a standalone single-page PDF. The result is
// computed once and reused.
func (p *Page) Document() ([]byte, error) {
	if !p.done {
		p.single, p.err = p.trim()
		p.done = true
	}
	return p.single, p.err
}

func (p *Page) trim() ([]byte, error) {
	var out bytes.Buffer
	selected := []string{strconv.Itoa(p.index + 1)}
	if err := api.Trim(bytes.NewReader(p.reader.data), &out, selected, p.reader.conf); err != nil {
		return nil, fmt.Errorf("extracting page %d: %w", p.index, err)
	}
	return out.Bytes(), nil
}

// Crop returns a single-page PDF of this page whose crop box is exactly
// region. The page itself is left unchanged, so it can be cropped again.
func (p *Page) Crop(region types.Rect) ([]byte, error) {
	doc, err := p.Document()
	if err != nil {
		return nil, err
	}

	box, err := model.ParseBox(boxSpec(region), pdftypes.POINTS)
	if err != nil {
		return nil, fmt.Errorf("crop box %v on page %d: %w", region, p.index, err)
	}

	var out bytes.Buffer
	if err := api.Crop(bytes.NewReader(doc), &out, []string{"1"}, box, p.reader.conf); err != nil {
		return nil, fmt.Errorf("cropping page %d to %v: %w", p.index, region, err)
	}
	return out.Bytes(), nil
}

// boxSpec formats a rectangle in pdfcpu's "[llx lly urx ury]" box syntax
// without exponents.
func boxSpec(r types.Rect) string {
	coords := []float64{r.X0, r.Y0, r.X1, r.Y1}
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
