// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rasterize

import (
	"context"
	"image"
	"sync"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Lazy returns a Rasterizer that selects its backend with New on first use.
// Documents without figures then never require pdftoppm to be installed.
func Lazy(cfg types.RasterConfig) Rasterizer {
	return &lazy{cfg: cfg, newFn: New}
}

type lazy struct {
	cfg   types.RasterConfig
	newFn func(context.Context, types.RasterConfig) (Rasterizer, error)

	once sync.Once
	r    Rasterizer
	err  error
}

func (l *lazy) Name() string {
	if l.r != nil {
		return l.r.Name()
	}
	return l.cfg.Binary
}

func (l *lazy) Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error) {
	l.once.Do(func() {
		l.r, l.err = l.newFn(ctx, l.cfg)
	})
	if l.err != nil {
		return nil, l.err
	}
	return l.r.Rasterize(ctx, pdf)
}
