// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// EntryKind discriminates the variants of ContentEntry.
type EntryKind string

const (
	EntryText  EntryKind = "text"
	EntryImage EntryKind = "image"
)

// ContentEntry is one classified, ordered unit of extracted document content.
// The set of implementations is closed: *TextEntry and *ImageEntry.
type ContentEntry interface {
	// Kind reports which variant the entry is.
	Kind() EntryKind

	// PageIndex returns the 0-based page the entry was extracted from.
	PageIndex() int
}

// FontRun is a contiguous run of characters within one text line that share
// a font name. It is encoded as a two-element array, [text, font].
type FontRun struct {
	Text     string
	FontName string
}

// MarshalJSON encodes the run as ["text", "font"]. HTML characters are not
// escaped.
func (f FontRun) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([2]string{f.Text, f.FontName}); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON decodes a ["text", "font"] pair.
func (f *FontRun) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decoding font run: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decoding font run: want 2 elements, got %d", len(pair))
	}
	f.Text, f.FontName = pair[0], pair[1]
	return nil
}

// MarshalYAML encodes the run as a two-element sequence.
func (f FontRun) MarshalYAML() (interface{}, error) {
	return []string{f.Text, f.FontName}, nil
}

// TextEntry holds the text of one text container together with the font runs
// found in its lines.
type TextEntry struct {
	Type    EntryKind `json:"type" yaml:"type"`
	Content string    `json:"content" yaml:"content"`
	Page    int       `json:"page" yaml:"page"`
	Format  []FontRun `json:"format" yaml:"format"`
}

// NewTextEntry builds a text entry. A nil format is stored as an empty list so
// that it encodes as [] rather than null.
func NewTextEntry(page int, content string, format []FontRun) *TextEntry {
	if format == nil {
		format = []FontRun{}
	}
	return &TextEntry{Type: EntryText, Content: content, Page: page, Format: format}
}

func (e *TextEntry) Kind() EntryKind { return EntryText }
func (e *TextEntry) PageIndex() int  { return e.Page }

// ImageEntry references a stored image by its registry identifier.
type ImageEntry struct {
	Type    EntryKind `json:"type" yaml:"type"`
	Content string    `json:"content" yaml:"content"`
	Page    int       `json:"page" yaml:"page"`
}

// NewImageEntry builds an image entry pointing at the identifier id.
func NewImageEntry(page int, id string) *ImageEntry {
	return &ImageEntry{Type: EntryImage, Content: id, Page: page}
}

func (e *ImageEntry) Kind() EntryKind { return EntryImage }
func (e *ImageEntry) PageIndex() int  { return e.Page }

// DecodeManifest reads a JSON manifest written by the extractor and returns
// the typed entries in file order.
func DecodeManifest(r io.Reader) ([]ContentEntry, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	entries := make([]ContentEntry, 0, len(raw))
	for i, msg := range raw {
		var probe struct {
			Type EntryKind `json:"type"`
		}
		if err := json.Unmarshal(msg, &probe); err != nil {
			return nil, fmt.Errorf("decoding manifest entry %d: %w", i, err)
		}

		switch probe.Type {
		case EntryText:
			var e TextEntry
			if err := json.Unmarshal(msg, &e); err != nil {
				return nil, fmt.Errorf("decoding text entry %d: %w", i, err)
			}
			entries = append(entries, &e)
		case EntryImage:
			var e ImageEntry
			if err := json.Unmarshal(msg, &e); err != nil {
				return nil, fmt.Errorf("decoding image entry %d: %w", i, err)
			}
			entries = append(entries, &e)
		default:
			return nil, fmt.Errorf("manifest entry %d has unknown type %q", i, probe.Type)
		}
	}
	return entries, nil
}
