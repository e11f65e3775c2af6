package domain

import (
	"path/filepath"
	"strings"
)

// SourceIDFor derives the per-source key from a file path: base name
// with the extension stripped. Two files differing only by extension
// collide; the last one written wins.
func SourceIDFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsImagePath reports whether the file takes the OCR path, which has a
// degraded ingestion fallback that plain documents do not.
func IsImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}
