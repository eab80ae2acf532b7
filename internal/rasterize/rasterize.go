// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rasterize renders PDF documents to bitmaps with poppler's pdftoppm,
// either from the local PATH or inside a docker or podman container.
package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Rasterizer renders the first page of a PDF document.
type Rasterizer interface {
	// Name identifies the rasterizer in messages.
	Name() string

	// Rasterize renders pdf and returns the page images. An empty slice
	// means the document produced no image.
	Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (o *osExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

var defaultExec = &osExecutor{}

// New picks a rasterizer for cfg. The local pdftoppm binary is preferred;
// when it is missing and cfg.Image is set, pdftoppm runs inside that image
// under docker or podman.
func New(ctx context.Context, cfg types.RasterConfig) (Rasterizer, error) {
	return newRasterizer(ctx, cfg, defaultExec)
}

func newRasterizer(ctx context.Context, cfg types.RasterConfig, exec executor) (Rasterizer, error) {
	if cfg.DPI <= 0 {
		return nil, fmt.Errorf("invalid DPI %d", cfg.DPI)
	}
	switch cfg.Format {
	case types.RasterPNG, types.RasterTIFF:
	default:
		return nil, fmt.Errorf("unsupported raster format %q", cfg.Format)
	}

	local := &Pdftoppm{cfg: cfg, exec: exec}
	if local.Available() {
		return local, nil
	}
	if cfg.Image == "" {
		return nil, fmt.Errorf("%s not found on PATH and no container image configured", cfg.Binary)
	}

	rt, err := detectRuntime(ctx, exec)
	if err != nil {
		return nil, fmt.Errorf("%s not found on PATH: %w", cfg.Binary, err)
	}
	return newContainerized(ctx, rt, cfg)
}

// Pdftoppm runs a local pdftoppm binary.
type Pdftoppm struct {
	cfg  types.RasterConfig
	exec executor
}

func (p *Pdftoppm) Name() string { return p.cfg.Binary }

// Available reports whether the binary is on PATH.
func (p *Pdftoppm) Available() bool {
	_, err := p.exec.LookPath(p.cfg.Binary)
	return err == nil
}

// Rasterize pipes pdf through pdftoppm and decodes the single page image it
// writes to stdout.
func (p *Pdftoppm) Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error) {
	var out bytes.Buffer
	if err := p.exec.RunPiped(ctx, p.cfg.Binary, pdftoppmArgs(p.cfg), bytes.NewReader(pdf), &out); err != nil {
		return nil, fmt.Errorf("running %s: %w", p.cfg.Binary, err)
	}
	return decode(p.cfg.Format, &out)
}

// pdftoppmArgs renders the first page at the configured resolution, clipped
// to the crop box, reading the document from stdin and writing one image to
// stdout.
func pdftoppmArgs(cfg types.RasterConfig) []string {
	return []string{
		"-r", strconv.Itoa(cfg.DPI),
		"-cropbox",
		"-" + string(cfg.Format),
		"-singlefile",
		"-",
	}
}

func decode(format types.RasterFormat, out *bytes.Buffer) ([]image.Image, error) {
	if out.Len() == 0 {
		return nil, nil
	}

	var (
		img image.Image
		err error
	)
	switch format {
	case types.RasterTIFF:
		img, err = tiff.Decode(bytes.NewReader(out.Bytes()))
	default:
		img, err = png.Decode(out)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s output: %w", format, err)
	}
	return []image.Image{img}, nil
}
