package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
	"github.com/kirillkom/proofpack-health/internal/core/ports"
)

// ProcessRescoreUseCase handles rescore requests delivered by the queue.
type ProcessRescoreUseCase struct {
	evaluator ports.PackHealthEvaluator
}

func NewProcessRescoreUseCase(evaluator ports.PackHealthEvaluator) *ProcessRescoreUseCase {
	return &ProcessRescoreUseCase{evaluator: evaluator}
}

func (uc *ProcessRescoreUseCase) ProcessRescore(ctx context.Context, profileID string) error {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "process rescore", errors.New("empty profile id in rescore request"))
	}
	if _, err := uc.evaluator.Evaluate(ctx, profileID, time.Time{}); err != nil {
		return fmt.Errorf("rescore profile %s: %w", profileID, err)
	}
	return nil
}
