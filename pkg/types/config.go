package types

// LayoutConfig holds the layout analysis parameters used to group glyphs into
// lines and lines into text boxes. All margins are ratios of glyph or line
// size.
type LayoutConfig struct {
	// CharMargin is the maximum horizontal gap between two glyphs of the same
	// line, as a multiple of the larger glyph dimension (default 2.0).
	CharMargin float64 `json:"char_margin" yaml:"char_margin"`

	// LineOverlap is the minimum vertical overlap, as a fraction of the
	// smaller glyph height, for two glyphs to sit on the same line (default 0.5).
	LineOverlap float64 `json:"line_overlap" yaml:"line_overlap"`

	// LineMargin is the maximum vertical distance between two lines of the
	// same text box, as a multiple of the line height (default 0.5).
	LineMargin float64 `json:"line_margin" yaml:"line_margin"`

	// WordMargin is the gap, as a multiple of the larger glyph dimension,
	// above which a virtual space is inserted between glyphs (default 0.1).
	WordMargin float64 `json:"word_margin" yaml:"word_margin"`
}

// DefaultLayoutConfig returns the default layout parameters.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		CharMargin:  2.0,
		LineOverlap: 0.5,
		LineMargin:  0.5,
		WordMargin:  0.1,
	}
}

// RasterFormat selects the image format requested from the rasterizer.
type RasterFormat string

const (
	RasterPNG  RasterFormat = "png"
	RasterTIFF RasterFormat = "tiff"
)

// RasterConfig holds settings for the page rasterizer.
type RasterConfig struct {
	// Binary is the pdftoppm executable name or path (default "pdftoppm").
	Binary string `json:"binary" yaml:"binary"`

	// DPI is the rendering resolution (default 200).
	DPI int `json:"dpi" yaml:"dpi"`

	// Format is the intermediate format produced by the rasterizer. The
	// stored images are always PNG.
	Format RasterFormat `json:"format" yaml:"format"`

	// Image is a container image providing pdftoppm. It is used through
	// docker or podman when Binary is not found on PATH. Empty disables the
	// fallback.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

// DefaultRasterConfig returns the rasterizer defaults.
func DefaultRasterConfig() RasterConfig {
	return RasterConfig{
		Binary: "pdftoppm",
		DPI:    200,
		Format: RasterPNG,
	}
}

// ManifestFormat selects the serialisation of the content manifest.
type ManifestFormat string

const (
	ManifestJSON ManifestFormat = "json"
	ManifestYAML ManifestFormat = "yaml"
)

// ExtractionConfig holds all settings for one extraction run.
type ExtractionConfig struct {
	// OutputDir is the base directory; a subdirectory named after the PDF
	// stem is created inside it.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	Layout LayoutConfig `json:"layout" yaml:"layout"`
	Raster RasterConfig `json:"raster" yaml:"raster"`

	// Format selects the manifest encoding (default json).
	Format ManifestFormat `json:"format" yaml:"format"`

	// RegistryDB is an optional SQLite file backing the image registry.
	// When empty, the registry lives in memory for the duration of the run.
	RegistryDB string `json:"registry_db,omitempty" yaml:"registry_db,omitempty"`
}

// DefaultExtractionConfig returns the configuration that reproduces the
// behaviour of a plain `pdf-extract file.pdf` invocation.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		OutputDir: ".",
		Layout:    DefaultLayoutConfig(),
		Raster:    DefaultRasterConfig(),
		Format:    ManifestJSON,
	}
}
