package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-extract/internal/convert"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// flagKeys maps command-line flags to their configuration keys.
var flagKeys = map[string]string{
	"output_dir":    "output_dir",
	"dpi":           "raster.dpi",
	"rasterizer":    "raster.binary",
	"raster-format": "raster.format",
	"raster-image":  "raster.image",
	"format":        "format",
	"registry-db":   "registry_db",
	"quiet":         "quiet",
}

func init() {
	d := types.DefaultExtractionConfig()
	flags := rootCmd.Flags()
	flags.String("output_dir", d.OutputDir, "base directory; output goes to <output_dir>/<pdf name>/")
	flags.Int("dpi", d.Raster.DPI, "resolution used to render figures")
	flags.String("rasterizer", d.Raster.Binary, "pdftoppm binary name or path")
	flags.String("raster-format", string(d.Raster.Format), "intermediate render format: png or tiff")
	flags.String("raster-image", d.Raster.Image, "container image with pdftoppm, used via docker or podman when the binary is missing")
	flags.String("format", string(d.Format), "manifest format: json or yaml")
	flags.String("registry-db", d.RegistryDB, "SQLite file that remembers stored images across runs (default: in memory)")
	flags.BoolP("quiet", "q", false, "suppress progress output")

	setDefaults(viper.GetViper())
	if err := bindFlags(viper.GetViper(), flags); err != nil {
		panic(err)
	}
}

// setDefaults registers the configuration defaults, including the layout
// parameters that are only settable from the config file or environment.
func setDefaults(v *viper.Viper) {
	d := types.DefaultExtractionConfig()
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("format", string(d.Format))
	v.SetDefault("registry_db", d.RegistryDB)
	v.SetDefault("quiet", false)
	v.SetDefault("raster.binary", d.Raster.Binary)
	v.SetDefault("raster.dpi", d.Raster.DPI)
	v.SetDefault("raster.format", string(d.Raster.Format))
	v.SetDefault("raster.image", d.Raster.Image)
	v.SetDefault("layout.char_margin", d.Layout.CharMargin)
	v.SetDefault("layout.line_overlap", d.Layout.LineOverlap)
	v.SetDefault("layout.line_margin", d.Layout.LineMargin)
	v.SetDefault("layout.word_margin", d.Layout.WordMargin)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// extractionConfig builds the run configuration from flags, environment and
// config file, in that order of precedence.
func extractionConfig(v *viper.Viper) (types.ExtractionConfig, error) {
	cfg := types.ExtractionConfig{
		OutputDir: v.GetString("output_dir"),
		Layout: types.LayoutConfig{
			CharMargin:  v.GetFloat64("layout.char_margin"),
			LineOverlap: v.GetFloat64("layout.line_overlap"),
			LineMargin:  v.GetFloat64("layout.line_margin"),
			WordMargin:  v.GetFloat64("layout.word_margin"),
		},
		Raster: types.RasterConfig{
			Binary: v.GetString("raster.binary"),
			DPI:    v.GetInt("raster.dpi"),
			Format: types.RasterFormat(v.GetString("raster.format")),
			Image:  v.GetString("raster.image"),
		},
		Format:     types.ManifestFormat(v.GetString("format")),
		RegistryDB: v.GetString("registry_db"),
	}

	switch cfg.Format {
	case types.ManifestJSON, types.ManifestYAML:
	default:
		return cfg, fmt.Errorf("unsupported format %q: use json or yaml", cfg.Format)
	}
	switch cfg.Raster.Format {
	case types.RasterPNG, types.RasterTIFF:
	default:
		return cfg, fmt.Errorf("unsupported raster format %q: use png or tiff", cfg.Raster.Format)
	}
	if cfg.Raster.DPI <= 0 {
		return cfg, fmt.Errorf("dpi must be positive, got %d", cfg.Raster.DPI)
	}
	return cfg, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := extractionConfig(viper.GetViper())
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr
	if viper.GetBool("quiet") {
		w = io.Discard
	}

	pdfPath := args[0]
	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	_, err = convert.Run(cmd.Context(), pdfPath, cfg, w)
	return err
}
