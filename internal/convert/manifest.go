// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// EncodeJSON renders entries as a 2-space indented JSON array. Non-ASCII and
// HTML characters are written verbatim and there is no trailing newline.
func EncodeJSON(entries []types.ContentEntry) ([]byte, error) {
	if entries == nil {
		entries = []types.ContentEntry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// EncodeYAML renders entries as a YAML sequence.
func EncodeYAML(entries []types.ContentEntry) ([]byte, error) {
	if entries == nil {
		entries = []types.ContentEntry{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// manifestExt returns the file extension for format.
func manifestExt(format types.ManifestFormat) (string, error) {
	switch format {
	case types.ManifestJSON, "":
		return ".json", nil
	case types.ManifestYAML:
		return ".yaml", nil
	default:
		return "", fmt.Errorf("unsupported manifest format %q", format)
	}
}

func encodeManifest(format types.ManifestFormat, entries []types.ContentEntry) ([]byte, error) {
	if format == types.ManifestYAML {
		return EncodeYAML(entries)
	}
	return EncodeJSON(entries)
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}
