package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
	"github.com/kirillkom/proofpack-health/internal/core/ports"
)

type GapStatusUseCase struct {
	repo  ports.GapStatusRepository
	queue ports.MessageQueue
}

func NewGapStatusUseCase(repo ports.GapStatusRepository, queue ports.MessageQueue) *GapStatusUseCase {
	return &GapStatusUseCase{
		repo:  repo,
		queue: queue,
	}
}

// UpdateStatus persists a gap status and requests a rescore so the
// remediation sub-score reflects it.
func (uc *GapStatusUseCase) UpdateStatus(ctx context.Context, profileID, gapID string, status domain.GapStatus) error {
	profileID = strings.TrimSpace(profileID)
	gapID = strings.TrimSpace(gapID)
	if profileID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "update gap status", errors.New("profile id is required"))
	}
	if err := domain.ValidateGapStatusChange(gapID, status); err != nil {
		return err
	}

	if err := uc.repo.SetGapStatus(ctx, profileID, gapID, status); err != nil {
		return fmt.Errorf("persist gap status: %w", err)
	}
	if err := uc.queue.PublishRescoreRequested(ctx, profileID); err != nil {
		return fmt.Errorf("publish rescore request: %w", err)
	}
	return nil
}
