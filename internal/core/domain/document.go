package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CategoryOther marks evidence that does not belong to a required category.
const CategoryOther = "Other"

type DocumentMetadata struct {
	DocumentType string `json:"document_type,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Document is one piece of evidence in a profile's proof pack.
type Document struct {
	ID             string           `json:"id"`
	ProfileID      string           `json:"profile_id,omitempty"`
	FileName       string           `json:"file_name"`
	Category       string           `json:"category"`
	MimeType       string           `json:"mime_type,omitempty"`
	FileSize       int64            `json:"file_size,omitempty"`
	StorageKey     string           `json:"storage_key,omitempty"`
	ExpirationDate *time.Time       `json:"expiration_date,omitempty"`
	UploadedAt     time.Time        `json:"uploaded_at"`
	Metadata       DocumentMetadata `json:"metadata"`
}

// Expires reports whether the document carries an expiration date.
func (d Document) Expires() bool {
	return d.ExpirationDate != nil
}

// Validate rejects documents the scoring engine cannot reason about.
func (d Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return WrapError(ErrInvalidDocument, "validate document", errors.New("id is required"))
	}
	if d.UploadedAt.IsZero() {
		return WrapError(ErrInvalidDocument, "validate document", fmt.Errorf("id=%s: uploaded_at is required", d.ID))
	}
	if d.ExpirationDate != nil && d.ExpirationDate.IsZero() {
		return WrapError(ErrInvalidDocument, "validate document", fmt.Errorf("id=%s: expiration_date is malformed", d.ID))
	}
	if d.FileSize < 0 {
		return WrapError(ErrInvalidDocument, "validate document", fmt.Errorf("id=%s: file_size is negative", d.ID))
	}
	return nil
}

// EvidenceUpload carries a new evidence file and its caller-supplied metadata.
type EvidenceUpload struct {
	ProfileID      string
	FileName       string
	MimeType       string
	Category       string
	ExpirationDate *time.Time
	DocumentType   string
	Notes          string
}
