package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-extract/internal/testpdf"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

func newTestViper(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output_dir", ".", "")
	flags.Int("dpi", 200, "")
	flags.String("rasterizer", "pdftoppm", "")
	flags.String("raster-format", "png", "")
	flags.String("raster-image", "", "")
	flags.String("format", "json", "")
	flags.String("registry-db", "", "")
	flags.Bool("quiet", false, "")
	require.NoError(t, flags.Parse(args))

	v := viper.New()
	setDefaults(v)
	require.NoError(t, bindFlags(v, flags))
	return v
}

func TestExtractionConfig_Defaults(t *testing.T) {
	cfg, err := extractionConfig(newTestViper(t))
	require.NoError(t, err)
	assert.Equal(t, types.DefaultExtractionConfig(), cfg)
}

func TestExtractionConfig_Flags(t *testing.T) {
	v := newTestViper(t,
		"--output_dir", "/tmp/out",
		"--dpi", "300",
		"--raster-format", "tiff",
		"--format", "yaml",
		"--registry-db", "/tmp/images.db",
	)
	cfg, err := extractionConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, 300, cfg.Raster.DPI)
	assert.Equal(t, types.RasterTIFF, cfg.Raster.Format)
	assert.Equal(t, types.ManifestYAML, cfg.Format)
	assert.Equal(t, "/tmp/images.db", cfg.RegistryDB)
}

func TestExtractionConfig_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdf-extract.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output_dir: from-file
layout:
  char_margin: 3.5
  word_margin: 0.2
raster:
  dpi: 150
  image: poppler:latest
`), 0o644))

	v := newTestViper(t, "--dpi", "100")
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := extractionConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.OutputDir)
	assert.Equal(t, 3.5, cfg.Layout.CharMargin)
	assert.Equal(t, 0.2, cfg.Layout.WordMargin)
	assert.Equal(t, 0.5, cfg.Layout.LineOverlap, "unset keys keep their defaults")
	assert.Equal(t, 100, cfg.Raster.DPI, "flags override the config file")
	assert.Equal(t, "poppler:latest", cfg.Raster.Image)
}

func TestExtractionConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"manifest format", []string{"--format", "xml"}},
		{"raster format", []string{"--raster-format", "jpeg"}},
		{"dpi", []string{"--dpi", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractionConfig(newTestViper(t, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestRootCmd_ExtractsTextOnlyPDF(t *testing.T) {
	pdfPath := testpdf.Write(t, t.TempDir(), "report.pdf",
		testpdf.Page{Lines: []testpdf.Line{testpdf.Text(72, 700, "Quarterly report")}})
	outDir := t.TempDir()

	rootCmd.SetArgs([]string{pdfPath, "--output_dir", outDir, "--quiet"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())

	assert.FileExists(t, filepath.Join(outDir, "report", "report.json"))
	assert.DirExists(t, filepath.Join(outDir, "report", "images"))
}

func TestRootCmd_MissingInput(t *testing.T) {
	rootCmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.pdf"), "--quiet"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	rootCmd.SetErr(&bytes.Buffer{})
	assert.Error(t, rootCmd.Execute())
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "pdf-extract dev\n", out.String())
}
