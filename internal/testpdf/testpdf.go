// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package testpdf builds small, valid PDF documents in memory for tests.
// Documents use two standard fonts (F1 = Helvetica, F2 = Courier, both with
// a flat 500 unit width table) and one shared 2x2 grayscale image XObject
// (Im1).
package testpdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Run is a string shown with one font.
type Run struct {
	// Font is the font resource name, "F1" or "F2".
	Font string
	Text string
}

// Line is a line of text starting at (X, Y) in page space.
type Line struct {
	X, Y float64
	Size float64
	Runs []Run
}

// Image places the shared image XObject in the rectangle (X, Y, W, H).
type Image struct {
	X, Y, W, H float64
}

// Page describes the content of one page.
type Page struct {
	Lines  []Line
	Images []Image
}

// Text returns a single-line page with text in font F1.
func Text(x, y float64, s string) Line {
	return Line{X: x, Y: y, Size: 12, Runs: []Run{{Font: "F1", Text: s}}}
}

const (
	objCatalog = 1
	objPages   = 2
	objFont1   = 3
	objFont2   = 4
	objImage   = 5
	firstPage  = 6
)

// Build returns the bytes of a PDF with the given pages (612x792 points).
func Build(pages ...Page) []byte {
	var buf bytes.Buffer
	offsets := map[int]int{}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}
	writeStream := func(num int, dict string, data []byte) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", num, dict, len(data))
		buf.Write(data)
		buf.WriteString("\nendstream\nendobj\n")
	}

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", firstPage+2*i)
	}

	writeObj(objCatalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", objPages))
	writeObj(objPages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	writeObj(objFont1, fontDict("Helvetica"))
	writeObj(objFont2, fontDict("Courier"))
	writeStream(objImage,
		"/Type /XObject /Subtype /Image /Width 2 /Height 2 /ColorSpace /DeviceGray /BitsPerComponent 8",
		[]byte{0x00, 0xff, 0xff, 0x00})

	for i, p := range pages {
		pageNum := firstPage + 2*i
		contentNum := pageNum + 1
		writeObj(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 %d 0 R /F2 %d 0 R >> /XObject << /Im1 %d 0 R >> >> "+
				"/Contents %d 0 R >>",
			objPages, objFont1, objFont2, objImage, contentNum))
		writeStream(contentNum, "", contentStream(p))
	}

	size := firstPage + 2*len(pages)
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for num := 1; num < size; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, objCatalog, xref)
	return buf.Bytes()
}

// Write builds a PDF and writes it to dir/name, returning the path.
func Write(t testing.TB, dir, name string, pages ...Page) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages...), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fontDict(base string) string {
	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	return fmt.Sprintf(
		"<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding "+
			"/FirstChar 32 /LastChar 126 /Widths [%s] >>", base, widths)
}

func contentStream(p Page) []byte {
	var b bytes.Buffer
	for _, l := range p.Lines {
		fmt.Fprintf(&b, "BT %g %g Td\n", l.X, l.Y)
		for _, r := range l.Runs {
			fmt.Fprintf(&b, "/%s %g Tf (%s) Tj\n", r.Font, l.Size, escape(r.Text))
		}
		b.WriteString("ET\n")
	}
	for _, img := range p.Images {
		fmt.Fprintf(&b, "q %g 0 0 %g %g %g cm /Im1 Do Q\n", img.W, img.H, img.X, img.Y)
	}
	return b.Bytes()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
