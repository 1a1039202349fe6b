package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
	"github.com/kirillkom/proofpack-health/internal/core/packhealth"
	"github.com/kirillkom/proofpack-health/internal/core/ports"
)

type EvaluatePackUseCase struct {
	engine   *packhealth.Engine
	docs     ports.DocumentRepository
	gaps     ports.GapStatusRepository
	scores   ports.ScoreRepository
	events   ports.EventPublisher
	observer ports.PackHealthObserver
}

type EvaluateOption func(*EvaluatePackUseCase)

// WithEventPublisher enables eligibility-changed notifications.
func WithEventPublisher(events ports.EventPublisher) EvaluateOption {
	return func(uc *EvaluatePackUseCase) {
		uc.events = events
	}
}

func WithObserver(observer ports.PackHealthObserver) EvaluateOption {
	return func(uc *EvaluatePackUseCase) {
		uc.observer = observer
	}
}

func NewEvaluatePackUseCase(
	engine *packhealth.Engine,
	docs ports.DocumentRepository,
	gaps ports.GapStatusRepository,
	scores ports.ScoreRepository,
	opts ...EvaluateOption,
) *EvaluatePackUseCase {
	uc := &EvaluatePackUseCase{
		engine: engine,
		docs:   docs,
		gaps:   gaps,
		scores: scores,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *EvaluatePackUseCase) Evaluate(ctx context.Context, profileID string, asOf time.Time) (*domain.PackHealthReport, error) {
	report, err := uc.Report(ctx, profileID, asOf)
	if err != nil {
		return nil, err
	}
	profileID = report.ProfileID

	previous, err := uc.previousScore(ctx, profileID)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.ScoreSnapshot{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Score:     report.Score,
		GapCount:  len(report.Gaps),
		OpenGaps:  report.OpenGaps(),
	}
	if err := uc.scores.SaveScore(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save score snapshot: %w", err)
	}

	if uc.observer != nil {
		uc.observer.ObserveEvaluation(*report)
	}
	uc.notifyEligibility(ctx, previous, *report)

	slog.Info("pack_health_evaluated",
		"profile_id", profileID,
		"overall_score", report.Score.OverallScore,
		"eligible", report.Score.IsEligibleForIntroductions,
		"gaps", len(report.Gaps),
		"open_gaps", snapshot.OpenGaps,
		"config_version", report.Score.ConfigVersion,
	)
	return report, nil
}

// Report scores the stored pack with its persisted gap statuses. Nothing is
// saved and no events are published.
func (uc *EvaluatePackUseCase) Report(ctx context.Context, profileID string, asOf time.Time) (*domain.PackHealthReport, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "evaluate pack health", errors.New("profile id is required"))
	}

	docs, err := uc.docs.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list profile documents: %w", err)
	}
	statuses, err := uc.gaps.ListGapStatuses(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list gap statuses: %w", err)
	}

	report, err := uc.engineAt(asOf).Evaluate(docs, statuses)
	if err != nil {
		return nil, fmt.Errorf("evaluate pack health: %w", err)
	}
	report.ProfileID = profileID
	return &report, nil
}

func (uc *EvaluatePackUseCase) Latest(ctx context.Context, profileID string) (*domain.ScoreSnapshot, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "latest pack health", errors.New("profile id is required"))
	}
	snapshot, err := uc.scores.LatestScore(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load latest score: %w", err)
	}
	return snapshot, nil
}

// Preview scores caller-supplied documents without touching storage. When
// gaps is nil they are derived from docs.
func (uc *EvaluatePackUseCase) Preview(docs []domain.Document, gaps []domain.GapItem, asOf time.Time) (*domain.PackHealthReport, error) {
	return PreviewPackHealth(uc.engineAt(asOf), docs, gaps)
}

// PreviewPackHealth is the storage-free scoring pipeline shared by the API and
// the CLI.
func PreviewPackHealth(engine *packhealth.Engine, docs []domain.Document, gaps []domain.GapItem) (*domain.PackHealthReport, error) {
	if gaps == nil {
		derived, err := engine.IdentifyGaps(docs)
		if err != nil {
			return nil, fmt.Errorf("identify gaps: %w", err)
		}
		gaps = derived
	}
	score, err := engine.CalculatePackHealth(docs, gaps)
	if err != nil {
		return nil, fmt.Errorf("calculate pack health: %w", err)
	}
	actions, err := engine.RemediationActions(score.OverallScore, docs, gaps)
	if err != nil {
		return nil, fmt.Errorf("plan remediation: %w", err)
	}
	return &domain.PackHealthReport{
		Score:   score,
		Gaps:    gaps,
		Actions: actions,
	}, nil
}

func (uc *EvaluatePackUseCase) engineAt(asOf time.Time) *packhealth.Engine {
	if asOf.IsZero() {
		return uc.engine
	}
	return uc.engine.At(asOf)
}

func (uc *EvaluatePackUseCase) previousScore(ctx context.Context, profileID string) (*domain.ScoreSnapshot, error) {
	previous, err := uc.scores.LatestScore(ctx, profileID)
	if err != nil {
		if domain.IsKind(err, domain.ErrScoreNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load previous score: %w", err)
	}
	return previous, nil
}

// notifyEligibility publishes when eligibility flipped, or when a first
// evaluation is already eligible. Failures are logged only.
func (uc *EvaluatePackUseCase) notifyEligibility(ctx context.Context, previous *domain.ScoreSnapshot, report domain.PackHealthReport) {
	if uc.events == nil {
		return
	}
	eligible := report.Score.IsEligibleForIntroductions
	event := domain.EligibilityChanged{
		ProfileID:    report.ProfileID,
		Eligible:     eligible,
		OverallScore: report.Score.OverallScore,
		OccurredAt:   report.Score.CalculatedAt,
	}
	switch {
	case previous == nil && !eligible:
		return
	case previous != nil:
		if previous.Score.IsEligibleForIntroductions == eligible {
			return
		}
		prevScore := previous.Score.OverallScore
		event.PreviousScore = &prevScore
	}

	if err := uc.events.PublishEligibilityChanged(ctx, event); err != nil {
		slog.Warn("eligibility_event_publish_failed",
			"profile_id", report.ProfileID,
			"eligible", eligible,
			"error", err.Error(),
		)
	}
}
