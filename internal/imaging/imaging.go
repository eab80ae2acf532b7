// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package imaging crops figure regions out of PDF pages, rasterizes them to
// PNG and stores each distinct image once, keyed by its SHA-256 hash.
package imaging

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pdiddy/pdf-extract/internal/layout"
	"github.com/pdiddy/pdf-extract/internal/rasterize"
	"github.com/pdiddy/pdf-extract/internal/registry"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

var (
	// ErrDegenerateRegion is returned for a figure with zero width or height.
	ErrDegenerateRegion = errors.New("degenerate figure region")

	// ErrNoRaster is returned when rasterizing a cropped page yields no image.
	ErrNoRaster = errors.New("rasterizer produced no image")
)

// CroppablePage is a raw page that can be turned into a single-page document
// showing only a region of it.
type CroppablePage interface {
	Crop(region types.Rect) ([]byte, error)
}

// Store persists encoded images under their identifier.
type Store interface {
	Put(id string, data []byte) error

	// Has reports whether an image is stored under id.
	Has(id string) (bool, error)
}

// DirStore stores images as files in a directory.
type DirStore struct {
	Dir string
}

// Put writes data to Dir/id through a temporary file, so a partially
// written image is never left under its final name.
func (d DirStore) Put(id string, data []byte) error {
	tmp, err := os.CreateTemp(d.Dir, ".img-*")
	if err != nil {
		return fmt.Errorf("creating temp image file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing image %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing image %s: %w", id, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing image %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.Dir, id)); err != nil {
		return fmt.Errorf("writing image %s: %w", id, err)
	}
	return nil
}

// Has reports whether Dir/id exists.
func (d DirStore) Has(id string) (bool, error) {
	_, err := os.Stat(filepath.Join(d.Dir, id))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking image %s: %w", id, err)
}

// Extractor turns figure regions into stored, de-duplicated PNG images.
type Extractor struct {
	Rasterizer rasterize.Rasterizer
	Registry   registry.Registry
	Store      Store
}

// Extract crops page to the figure's bounding box, rasterizes the result and
// returns the SHA-256 hash of the PNG encoding. The image is stored under the
// base name of outPath unless an identical image was stored before; the
// identifier for the hash is then resolved through the registry. A known
// image whose file has gone missing from the store is written again under
// its registered identifier.
func (e *Extractor) Extract(ctx context.Context, fig *layout.Figure, page CroppablePage, outPath string) (string, error) {
	box := fig.BBox()
	if box.IsDegenerate() {
		return "", fmt.Errorf("%w: %s %v", ErrDegenerateRegion, fig.Name, box)
	}

	doc, err := page.Crop(box)
	if err != nil {
		return "", fmt.Errorf("cropping figure %s: %w", fig.Name, err)
	}

	imgs, err := e.Rasterizer.Rasterize(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("rasterizing figure %s with %s: %w", fig.Name, e.Rasterizer.Name(), err)
	}
	if len(imgs) == 0 {
		return "", fmt.Errorf("%w: figure %s", ErrNoRaster, fig.Name)
	}

	data, hash, err := Fingerprint(imgs[0])
	if err != nil {
		return "", err
	}

	name := filepath.Base(outPath)
	id, fresh, err := e.Registry.Claim(ctx, hash, name)
	if err != nil {
		return "", err
	}
	if !fresh {
		stored, err := e.Store.Has(id)
		if err != nil {
			return "", err
		}
		if !stored {
			if err := e.Store.Put(id, data); err != nil {
				return "", err
			}
		}
		return hash, nil
	}

	if err := e.Store.Put(id, data); err != nil {
		if ferr := e.Registry.Forget(ctx, hash); ferr != nil {
			return "", errors.Join(err, ferr)
		}
		return "", err
	}
	return hash, nil
}

// Fingerprint encodes img as PNG and returns the bytes with the hex SHA-256
// digest of those bytes. The encoding is deterministic, so equal images
// always produce equal hashes.
func Fingerprint(img image.Image) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("encoding PNG: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return buf.Bytes(), hex.EncodeToString(sum[:]), nil
}
