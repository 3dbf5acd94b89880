package mimetypes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMimeType is served when an extension is absent or unmapped.
const DefaultMimeType = "text/html"

var builtin = map[string]string{
	"htm":   "text/html",
	"html":  "text/html",
	"css":   "text/css",
	"js":    "application/javascript",
	"mjs":   "application/javascript",
	"json":  "application/json",
	"xml":   "application/xml",
	"txt":   "text/plain",
	"csv":   "text/csv",
	"svg":   "image/svg+xml",
	"png":   "image/png",
	"jpg":   "image/jpeg",
	"jpeg":  "image/jpeg",
	"gif":   "image/gif",
	"bmp":   "image/bmp",
	"ico":   "image/x-icon",
	"webp":  "image/webp",
	"woff":  "font/woff",
	"woff2": "font/woff2",
	"ttf":   "font/ttf",
	"otf":   "font/otf",
	"mp3":   "audio/mpeg",
	"ogg":   "audio/ogg",
	"wav":   "audio/wav",
	"mp4":   "video/mp4",
	"webm":  "video/webm",
	"swf":   "application/x-shockwave-flash",
	"wasm":  "application/wasm",
}

// Table maps file extensions, without the leading dot, to MIME types.
// Keys are stored lower case and lookups are lower cased to match.
type Table struct {
	types map[string]string
}

// New returns a table holding the built-in mappings.
func New() *Table {
	t := &Table{types: make(map[string]string, len(builtin))}
	for ext, mimeType := range builtin {
		t.types[ext] = mimeType
	}
	return t
}

// LoadFile returns the built-in table overlaid with the YAML mapping in path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mime types file: %w", err)
	}
	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mime types: %w", err)
	}
	t := New()
	for ext, mimeType := range overrides {
		t.Set(ext, mimeType)
	}
	return t, nil
}

// Set adds or replaces a mapping.
func (t *Table) Set(ext, mimeType string) {
	t.types[normalise(ext)] = mimeType
}

// Lookup returns the MIME type for ext, which may carry a leading dot.
func (t *Table) Lookup(ext string) (string, bool) {
	mimeType, ok := t.types[normalise(ext)]
	return mimeType, ok
}

// ForPath derives the MIME type from the extension of p, defaulting to text/html.
func (t *Table) ForPath(p string) string {
	if mimeType, ok := t.Lookup(filepath.Ext(p)); ok {
		return mimeType
	}
	return DefaultMimeType
}

func normalise(ext string) string {
	if len(ext) > 1 && strings.HasPrefix(ext, ".") {
		ext = ext[1:]
	}
	return strings.ToLower(ext)
}
