package extractor

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
	"github.com/kirillkom/proofpack-health/internal/core/ports"
	"github.com/kirillkom/proofpack-health/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/proofpack-health/internal/infrastructure/extractor/plaintext"
)

// Router dispatches extraction by MIME type.
type Router struct {
	pdf  ports.TextExtractor
	text ports.TextExtractor
}

func New(storage ports.ObjectStorage) *Router {
	return &Router{
		pdf:  pdf.NewExtractor(storage),
		text: plaintext.NewExtractor(storage),
	}
}

func (r *Router) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	switch mediaType(doc) {
	case "application/pdf":
		return r.pdf.Extract(ctx, doc)
	case "text/plain", "text/markdown", "text/csv":
		return r.text.Extract(ctx, doc)
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("unsupported media type %q", doc.MimeType))
	}
}

// mediaType trusts the declared MIME type and falls back to the file
// extension when it is missing or generic.
func mediaType(doc *domain.Document) string {
	declared, _, err := mime.ParseMediaType(doc.MimeType)
	if err == nil && declared != "" && declared != "application/octet-stream" {
		return strings.ToLower(declared)
	}
	lower := strings.ToLower(doc.FileName)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(lower, ".txt"), strings.HasSuffix(lower, ".md"):
		return "text/plain"
	case strings.HasSuffix(lower, ".csv"):
		return "text/csv"
	default:
		return ""
	}
}
