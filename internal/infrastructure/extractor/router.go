package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/healthbot/knowledge-core/internal/core/domain"
	"github.com/healthbot/knowledge-core/internal/core/ports"
)

// Router picks the document-to-text capability for a file by extension.
type Router struct {
	pdf         ports.TextExtractor
	plaintext   ports.TextExtractor
	spreadsheet ports.TextExtractor
	image       ports.TextExtractor
}

func NewRouter(pdf, plaintext, spreadsheet, image ports.TextExtractor) *Router {
	return &Router{
		pdf:         pdf,
		plaintext:   plaintext,
		spreadsheet: spreadsheet,
		image:       image,
	}
}

func (r *Router) Extract(ctx context.Context, path string) (string, error) {
	if domain.IsImagePath(path) {
		return r.image.Extract(ctx, path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return r.pdf.Extract(ctx, path)
	case ".xlsx", ".xlsm", ".xls":
		return r.spreadsheet.Extract(ctx, path)
	default:
		return r.plaintext.Extract(ctx, path)
	}
}
