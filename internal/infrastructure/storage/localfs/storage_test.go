package localfs

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

func TestSaveAndOpenNestedKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := store.Save(context.Background(), "p-1/d-1_plan.pdf", strings.NewReader("evidence")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rc, err := store.Open(context.Background(), "p-1/d-1_plan.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "evidence" {
		t.Fatalf("expected evidence, got %q", raw)
	}
}

func TestOpenMissingReturnsNotFound(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := store.Open(context.Background(), "nope.pdf"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRejectsEscapingKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	err = store.Save(context.Background(), "../outside.pdf", strings.NewReader("x"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDeleteRemovesFileAndIgnoresMissing(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()
	if err := store.Save(ctx, "p-1/d-1_plan.pdf", strings.NewReader("evidence")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(ctx, "p-1/d-1_plan.pdf"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Open(ctx, "p-1/d-1_plan.pdf"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected deleted file to be gone, got %v", err)
	}
	if err := store.Delete(ctx, "p-1/d-1_plan.pdf"); err != nil {
		t.Fatalf("expected missing key to be ignored, got %v", err)
	}
	if err := store.Delete(ctx, "../outside.pdf"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for escaping key, got %v", err)
	}
}
