package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

var documentRowColumns = []string{
	"id", "profile_id", "file_name", "category", "mime_type", "file_size", "storage_key",
	"expiration_date", "uploaded_at", "document_type", "notes",
}

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("FROM evidence_documents").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByProfileMapsNullableExpiration(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	uploaded := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	expires := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(documentRowColumns).
		AddRow("d-1", "p-1", "osha-log.pdf", "Safety", "application/pdf", int64(120), "p-1/d-1_osha-log.pdf", nil, uploaded, "OSHA 300", "").
		AddRow("d-2", "p-1", "iso-cert.pdf", "Certifications", "application/pdf", int64(80), "p-1/d-2_iso-cert.pdf", expires, uploaded, "", "")

	mock.ExpectQuery("ORDER BY uploaded_at ASC, id ASC").
		WithArgs("p-1").
		WillReturnRows(rows)

	docs, err := repo.ListByProfile(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("ListByProfile() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ExpirationDate != nil {
		t.Fatalf("expected nil expiration for d-1")
	}
	if docs[1].ExpirationDate == nil || !docs[1].ExpirationDate.Equal(expires) {
		t.Fatalf("expected expiration for d-2, got %v", docs[1].ExpirationDate)
	}
	if docs[0].Metadata.DocumentType != "OSHA 300" {
		t.Fatalf("expected document type mapped, got %q", docs[0].Metadata.DocumentType)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateInsertsDocument(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	uploaded := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO evidence_documents").
		WithArgs("d-1", "p-1", "plan.pdf", "Safety", "application/pdf", int64(10), "k", sql.NullTime{}, uploaded, "Plan", "notes").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &domain.Document{
		ID:         "d-1",
		ProfileID:  "p-1",
		FileName:   "plan.pdf",
		Category:   "Safety",
		MimeType:   "application/pdf",
		FileSize:   10,
		StorageKey: "k",
		UploadedAt: uploaded,
		Metadata:   domain.DocumentMetadata{DocumentType: "Plan", Notes: "notes"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS evidence_documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
