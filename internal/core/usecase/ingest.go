package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
	"github.com/kirillkom/proofpack-health/internal/core/ports"
)

type IngestEvidenceUseCase struct {
	repo       ports.DocumentRepository
	storage    ports.ObjectStorage
	queue      ports.MessageQueue
	extractor  ports.TextExtractor
	classifier ports.DocumentClassifier
}

func NewIngestEvidenceUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	extractor ports.TextExtractor,
	classifier ports.DocumentClassifier,
) *IngestEvidenceUseCase {
	return &IngestEvidenceUseCase{
		repo:       repo,
		storage:    storage,
		queue:      queue,
		extractor:  extractor,
		classifier: classifier,
	}
}

func (uc *IngestEvidenceUseCase) Upload(
	ctx context.Context,
	upload domain.EvidenceUpload,
	body io.Reader,
) (*domain.Document, error) {
	if err := validateUpload(upload); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s/%s_%s", sanitizeFilename(upload.ProfileID), id, sanitizeFilename(upload.FileName))
	counter := &countingReader{r: body}

	if err := uc.storage.Save(ctx, storageKey, counter); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:             id,
		ProfileID:      strings.TrimSpace(upload.ProfileID),
		FileName:       upload.FileName,
		Category:       strings.TrimSpace(upload.Category),
		MimeType:       upload.MimeType,
		FileSize:       counter.n,
		StorageKey:     storageKey,
		ExpirationDate: upload.ExpirationDate,
		UploadedAt:     time.Now().UTC(),
		Metadata: domain.DocumentMetadata{
			DocumentType: strings.TrimSpace(upload.DocumentType),
			Notes:        upload.Notes,
		},
	}
	if doc.Category == "" {
		doc.Category = uc.classify(ctx, doc)
	}
	if err := doc.Validate(); err != nil {
		uc.discardObject(ctx, storageKey)
		return nil, err
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		uc.discardObject(ctx, storageKey)
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishRescoreRequested(ctx, doc.ProfileID); err != nil {
		return nil, fmt.Errorf("publish rescore request: %w", err)
	}

	return doc, nil
}

// discardObject removes a stored file whose metadata was never recorded.
// The caller's error takes precedence, so failures are only logged.
func (uc *IngestEvidenceUseCase) discardObject(ctx context.Context, key string) {
	if err := uc.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
		slog.Warn("evidence_object_cleanup_failed", "storage_key", key, "error", err.Error())
	}
}

// classify falls back to the Other category whenever text cannot be obtained
// or classified; an upload never fails on enrichment.
func (uc *IngestEvidenceUseCase) classify(ctx context.Context, doc *domain.Document) string {
	if uc.classifier == nil {
		return domain.CategoryOther
	}

	text := ""
	if uc.extractor != nil {
		extracted, err := uc.extractor.Extract(ctx, doc)
		if err != nil {
			slog.Warn("evidence_text_extraction_failed",
				"document_id", doc.ID,
				"mime_type", doc.MimeType,
				"error", err.Error(),
			)
		} else {
			text = extracted
		}
	}

	category, err := uc.classifier.Classify(ctx, doc.FileName, text)
	if err != nil || strings.TrimSpace(category) == "" {
		if err != nil {
			slog.Warn("evidence_classification_failed", "document_id", doc.ID, "error", err.Error())
		}
		return domain.CategoryOther
	}
	return category
}

func validateUpload(upload domain.EvidenceUpload) error {
	if strings.TrimSpace(upload.ProfileID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("profile id is required"))
	}
	if strings.TrimSpace(upload.FileName) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("file name is required"))
	}
	if upload.ExpirationDate != nil && upload.ExpirationDate.IsZero() {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("expiration date is malformed"))
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
