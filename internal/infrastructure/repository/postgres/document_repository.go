package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, profile_id, file_name, category, mime_type, file_size, storage_key, expiration_date, uploaded_at, document_type, notes`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	var expiration sql.NullTime
	if doc.ExpirationDate != nil {
		expiration = sql.NullTime{Time: doc.ExpirationDate.UTC(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO evidence_documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		doc.ID, doc.ProfileID, doc.FileName, doc.Category, doc.MimeType, doc.FileSize, doc.StorageKey,
		expiration, doc.UploadedAt.UTC(), doc.Metadata.DocumentType, doc.Metadata.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM evidence_documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

// ListByProfile returns documents in upload order so derived gap order is
// stable between runs.
func (r *DocumentRepository) ListByProfile(ctx context.Context, profileID string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM evidence_documents
WHERE profile_id = $1
ORDER BY uploaded_at ASC, id ASC
`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func scanDocument(row rowScanner) (domain.Document, error) {
	var doc domain.Document
	var expiration sql.NullTime
	err := row.Scan(
		&doc.ID,
		&doc.ProfileID,
		&doc.FileName,
		&doc.Category,
		&doc.MimeType,
		&doc.FileSize,
		&doc.StorageKey,
		&expiration,
		&doc.UploadedAt,
		&doc.Metadata.DocumentType,
		&doc.Metadata.Notes,
	)
	if err != nil {
		return domain.Document{}, err
	}
	if expiration.Valid {
		exp := expiration.Time.UTC()
		doc.ExpirationDate = &exp
	}
	doc.UploadedAt = doc.UploadedAt.UTC()
	return doc, nil
}
