package ports

import (
	"context"
	"io"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

// DocumentRepository persists and reads evidence metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByProfile(ctx context.Context, profileID string) ([]domain.Document, error)
}

// GapStatusRepository persists gap statuses across scoring runs.
type GapStatusRepository interface {
	ListGapStatuses(ctx context.Context, profileID string) (map[string]domain.GapStatus, error)
	SetGapStatus(ctx context.Context, profileID, gapID string, status domain.GapStatus) error
}

// ScoreRepository stores scoring snapshots.
type ScoreRepository interface {
	SaveScore(ctx context.Context, snapshot *domain.ScoreSnapshot) error
	LatestScore(ctx context.Context, profileID string) (*domain.ScoreSnapshot, error)
}

// ObjectStorage stores evidence files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes rescore requests.
type MessageQueue interface {
	PublishRescoreRequested(ctx context.Context, profileID string) error
	SubscribeRescoreRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// EventPublisher notifies downstream consumers about eligibility changes.
type EventPublisher interface {
	PublishEligibilityChanged(ctx context.Context, event domain.EligibilityChanged) error
}

// TextExtractor extracts plain text from a stored evidence file.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// DocumentClassifier picks an evidence category from a file name and its text.
type DocumentClassifier interface {
	Classify(ctx context.Context, fileName, text string) (string, error)
}

// PackHealthObserver records scoring outcomes, e.g. as metrics.
type PackHealthObserver interface {
	ObserveEvaluation(report domain.PackHealthReport)
}
