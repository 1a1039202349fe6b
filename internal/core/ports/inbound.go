package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

// EvidenceIngestor is the inbound contract for evidence upload orchestration.
type EvidenceIngestor interface {
	Upload(ctx context.Context, upload domain.EvidenceUpload, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for evidence metadata.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// PackHealthEvaluator scores a profile's proof pack and persists the result.
// A zero asOf scores against the engine clock.
type PackHealthEvaluator interface {
	Evaluate(ctx context.Context, profileID string, asOf time.Time) (*domain.PackHealthReport, error)
	Latest(ctx context.Context, profileID string) (*domain.ScoreSnapshot, error)
	Report(ctx context.Context, profileID string, asOf time.Time) (*domain.PackHealthReport, error)
	Preview(docs []domain.Document, gaps []domain.GapItem, asOf time.Time) (*domain.PackHealthReport, error)
}

// GapStatusUpdater records a caller's decision about a gap.
type GapStatusUpdater interface {
	UpdateStatus(ctx context.Context, profileID, gapID string, status domain.GapStatus) error
}

// RescoreProcessor is the inbound contract for asynchronous rescoring.
type RescoreProcessor interface {
	ProcessRescore(ctx context.Context, profileID string) error
}
