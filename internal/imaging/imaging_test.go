// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package imaging

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-extract/internal/layout"
	"github.com/pdiddy/pdf-extract/internal/registry"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// fakePage returns the region it was cropped to as the document bytes.
type fakePage struct {
	err error
}

func (p fakePage) Crop(region types.Rect) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []byte(region.String()), nil
}

// fakeRasterizer renders every document to a solid image whose shade is
// chosen by the document bytes, so equal crops yield equal images.
type fakeRasterizer struct {
	shades map[string]uint8
	empty  bool
	err    error
	calls  int
}

func (f *fakeRasterizer) Name() string { return "fake" }

func (f *fakeRasterizer) Rasterize(_ context.Context, pdf []byte) ([]image.Image, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return nil, nil
	}
	return []image.Image{solid(f.shades[string(pdf)])}, nil
}

func solid(shade uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	return img
}

type memStore struct {
	puts map[string][]byte
	err  error
}

func (m *memStore) Put(id string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.puts == nil {
		m.puts = map[string][]byte{}
	}
	m.puts[id] = data
	return nil
}

func (m *memStore) Has(id string) (bool, error) {
	_, ok := m.puts[id]
	return ok, nil
}

var (
	logoA = &layout.Figure{Name: "Im0", Box: types.Rect{X0: 10, Y0: 10, X1: 60, Y1: 40}}
	logoB = &layout.Figure{Name: "Im1", Box: types.Rect{X0: 100, Y0: 10, X1: 150, Y1: 40}}
	photo = &layout.Figure{Name: "Im2", Box: types.Rect{X0: 10, Y0: 300, X1: 300, Y1: 500}}
)

func newExtractor(r *fakeRasterizer, s *memStore) *Extractor {
	return &Extractor{Rasterizer: r, Registry: registry.NewMemory(), Store: s}
}

func TestExtract_Deduplicates(t *testing.T) {
	ctx := context.Background()
	r := &fakeRasterizer{shades: map[string]uint8{
		logoA.Box.String(): 10,
		logoB.Box.String(): 10,
		photo.Box.String(): 200,
	}}
	store := &memStore{}
	e := newExtractor(r, store)

	h1, err := e.Extract(ctx, logoA, fakePage{}, "/out/images/0_el_000.png")
	require.NoError(t, err)
	h2, err := e.Extract(ctx, logoB, fakePage{}, "/out/images/1_el_002.png")
	require.NoError(t, err)
	h3, err := e.Extract(ctx, photo, fakePage{}, "/out/images/1_el_003.png")
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "identical renders hash equal")
	assert.NotEqual(t, h1, h3)

	assert.Len(t, store.puts, 2)
	assert.Contains(t, store.puts, "0_el_000.png")
	assert.Contains(t, store.puts, "1_el_003.png")
	assert.NotContains(t, store.puts, "1_el_002.png")

	id, ok, err := e.Registry.Lookup(ctx, h2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0_el_000.png", id)
}

func TestExtract_HashStable(t *testing.T) {
	ctx := context.Background()
	var hashes []string
	for i := 0; i < 3; i++ {
		r := &fakeRasterizer{shades: map[string]uint8{photo.Box.String(): 77}}
		e := newExtractor(r, &memStore{})
		h, err := e.Extract(ctx, photo, fakePage{}, "x.png")
		require.NoError(t, err)
		hashes = append(hashes, h)
	}
	assert.Equal(t, hashes[0], hashes[1])
	assert.Equal(t, hashes[1], hashes[2])
	assert.Len(t, hashes[0], 64)
}

func TestFingerprint(t *testing.T) {
	data1, h1, err := Fingerprint(solid(5))
	require.NoError(t, err)
	data2, h2, err := Fingerprint(solid(5))
	require.NoError(t, err)
	_, h3, err := Fingerprint(solid(6))
	require.NoError(t, err)

	assert.Equal(t, data1, data2)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)

	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	rgba.Set(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	_, h4, err := Fingerprint(rgba)
	require.NoError(t, err)
	assert.NotEmpty(t, h4)
}

func TestExtract_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	tests := []struct {
		name    string
		fig     *layout.Figure
		page    fakePage
		raster  *fakeRasterizer
		store   *memStore
		wantErr error
	}{
		{
			name:    "zero width",
			fig:     &layout.Figure{Name: "Im0", Box: types.Rect{X0: 5, Y0: 0, X1: 5, Y1: 10}},
			raster:  &fakeRasterizer{},
			store:   &memStore{},
			wantErr: ErrDegenerateRegion,
		},
		{
			name:    "zero height",
			fig:     &layout.Figure{Name: "Im0", Box: types.Rect{X0: 0, Y0: 3, X1: 10, Y1: 3}},
			raster:  &fakeRasterizer{},
			store:   &memStore{},
			wantErr: ErrDegenerateRegion,
		},
		{
			name:    "no raster",
			fig:     photo,
			raster:  &fakeRasterizer{empty: true},
			store:   &memStore{},
			wantErr: ErrNoRaster,
		},
		{
			name:    "crop failure",
			fig:     photo,
			page:    fakePage{err: boom},
			raster:  &fakeRasterizer{},
			store:   &memStore{},
			wantErr: boom,
		},
		{
			name:    "rasterizer failure",
			fig:     photo,
			raster:  &fakeRasterizer{err: boom},
			store:   &memStore{},
			wantErr: boom,
		},
		{
			name:    "store failure",
			fig:     photo,
			raster:  &fakeRasterizer{},
			store:   &memStore{err: boom},
			wantErr: boom,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExtractor(tt.raster, tt.store)
			_, err := e.Extract(ctx, tt.fig, tt.page, "x.png")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExtract_DegenerateSkipsRasterizer(t *testing.T) {
	r := &fakeRasterizer{}
	e := newExtractor(r, &memStore{})
	_, err := e.Extract(context.Background(), &layout.Figure{}, fakePage{}, "x.png")
	assert.ErrorIs(t, err, ErrDegenerateRegion)
	assert.Zero(t, r.calls)
}

func TestExtract_StoreFailureReleasesClaim(t *testing.T) {
	ctx := context.Background()
	r := &fakeRasterizer{}
	store := &memStore{err: errors.New("disk full")}
	e := newExtractor(r, store)

	hash, err := e.Extract(ctx, photo, fakePage{}, "a.png")
	require.Error(t, err)
	assert.Empty(t, hash)

	_, ok, err := e.Registry.Lookup(ctx, hashOf(t, solid(0)))
	require.NoError(t, err)
	assert.False(t, ok, "the claim is released when the image cannot be stored")
}

func hashOf(t *testing.T, img image.Image) string {
	t.Helper()
	_, h, err := Fingerprint(img)
	require.NoError(t, err)
	return h
}

func TestExtract_RestoresMissingImage(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewMemory()
	data, hash, err := Fingerprint(solid(10))
	require.NoError(t, err)

	// Registered by an earlier run whose file has since been removed.
	_, fresh, err := reg.Claim(ctx, hash, "0_el_000.png")
	require.NoError(t, err)
	require.True(t, fresh)

	store := &memStore{}
	e := &Extractor{
		Rasterizer: &fakeRasterizer{shades: map[string]uint8{logoB.Box.String(): 10}},
		Registry:   reg,
		Store:      store,
	}
	got, err := e.Extract(ctx, logoB, fakePage{}, "/out/images/1_el_002.png")
	require.NoError(t, err)
	assert.Equal(t, hash, got)

	assert.Equal(t, map[string][]byte{"0_el_000.png": data}, store.puts,
		"the image is written again under its registered name only")
}

func TestExtract_KnownImageNotRewritten(t *testing.T) {
	ctx := context.Background()
	store := &memStore{puts: map[string][]byte{}}
	e := newExtractor(&fakeRasterizer{shades: map[string]uint8{
		logoA.Box.String(): 10,
		logoB.Box.String(): 10,
	}}, store)

	_, err := e.Extract(ctx, logoA, fakePage{}, "0_el_000.png")
	require.NoError(t, err)
	store.puts["0_el_000.png"] = []byte("already on disk")

	_, err = e.Extract(ctx, logoB, fakePage{}, "1_el_000.png")
	require.NoError(t, err)
	assert.Equal(t, "already on disk", string(store.puts["0_el_000.png"]))
	assert.Len(t, store.puts, 1)
}

func TestExtract_RasterizerNamedInError(t *testing.T) {
	e := newExtractor(&fakeRasterizer{err: errors.New("exit status 99")}, &memStore{})
	_, err := e.Extract(context.Background(), photo, fakePage{}, "x.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "with fake")
}

func TestDirStore_Put(t *testing.T) {
	dir := t.TempDir()
	s := DirStore{Dir: dir}

	require.NoError(t, s.Put("0_el_000.png", []byte("png bytes")))

	data, err := os.ReadFile(filepath.Join(dir, "0_el_000.png"))
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestDirStore_Has(t *testing.T) {
	dir := t.TempDir()
	s := DirStore{Dir: dir}

	ok, err := s.Has("0_el_000.png")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put("0_el_000.png", []byte("png bytes")))
	ok, err = s.Has("0_el_000.png")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDirStore_MissingDir(t *testing.T) {
	s := DirStore{Dir: filepath.Join(t.TempDir(), "missing")}
	assert.Error(t, s.Put("a.png", []byte("x")))
}
