package packhealth

import (
	"fmt"
	"math"
	"time"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

// Engine scores proof packs. It holds only immutable configuration and is safe
// for concurrent use.
type Engine struct {
	cfg   Config
	clock Clock
}

type Option func(*Engine)

func WithClock(clock Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Version == "" {
		cfg.Version = DefaultConfigVersion
	}
	if cfg.VolumeDivisor == nil {
		cfg.VolumeDivisor = DistinctCategoriesDivisor
	}
	if err := cfg.validate(); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "new pack health engine", err)
	}
	cfg.RequiredCategories = append([]string(nil), cfg.RequiredCategories...)

	e := &Engine{cfg: cfg, clock: systemClock}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.RequiredCategories = append([]string(nil), e.cfg.RequiredCategories...)
	return cfg
}

// At returns an engine that scores against the fixed instant now.
func (e *Engine) At(now time.Time) *Engine {
	return &Engine{cfg: e.cfg, clock: FixedClock(now)}
}

func (e *Engine) CalculatePackHealth(docs []domain.Document, gaps []domain.GapItem) (domain.PackHealthScore, error) {
	if err := validateDocuments(docs); err != nil {
		return domain.PackHealthScore{}, err
	}
	gaps, err := normalizeGaps(gaps)
	if err != nil {
		return domain.PackHealthScore{}, err
	}
	return e.score(docs, gaps, e.clock.Now()), nil
}

func (e *Engine) IdentifyGaps(docs []domain.Document) ([]domain.GapItem, error) {
	if err := validateDocuments(docs); err != nil {
		return nil, err
	}
	return identifyGaps(docs, e.cfg.RequiredCategories, e.clock.Now(), e.cfg.ExpiringWindowDays), nil
}

// RemediationActions plans actions for gaps. currentScore is accepted for
// callers that already hold one; planning does not depend on it.
func (e *Engine) RemediationActions(_ int, docs []domain.Document, gaps []domain.GapItem) ([]domain.RemediationAction, error) {
	if err := validateDocuments(docs); err != nil {
		return nil, err
	}
	gaps, err := normalizeGaps(gaps)
	if err != nil {
		return nil, err
	}
	return planRemediation(docs, gaps), nil
}

// Evaluate runs the whole pipeline at a single instant: gaps are derived from
// docs, persisted statuses are applied by gap id, then the pack is scored and
// a plan produced.
func (e *Engine) Evaluate(docs []domain.Document, statuses map[string]domain.GapStatus) (domain.PackHealthReport, error) {
	if err := validateDocuments(docs); err != nil {
		return domain.PackHealthReport{}, err
	}
	for gapID, status := range statuses {
		if !status.Valid() {
			return domain.PackHealthReport{}, domain.WrapError(domain.ErrInvalidInput, "evaluate pack health",
				fmt.Errorf("gap %s has unknown status %q", gapID, status))
		}
	}

	now := e.clock.Now()
	gaps := identifyGaps(docs, e.cfg.RequiredCategories, now, e.cfg.ExpiringWindowDays)
	applyStatuses(gaps, statuses)

	score := e.score(docs, gaps, now)
	return domain.PackHealthReport{
		Score:   score,
		Gaps:    gaps,
		Actions: planRemediation(docs, gaps),
	}, nil
}

func (e *Engine) score(docs []domain.Document, gaps []domain.GapItem, now time.Time) domain.PackHealthScore {
	completeness := completenessScore(docs, e.cfg.RequiredCategories, e.cfg.VolumeDivisor)
	expiration := expirationScore(docs, now, e.cfg.ExpiringWindowDays)
	quality := qualityScore(docs)
	remediation := remediationScore(gaps)

	w := e.cfg.Weights
	overall := roundScore(completeness*w.Completeness + expiration*w.Expiration + quality*w.Quality + remediation*w.Remediation)

	return domain.PackHealthScore{
		OverallScore:      overall,
		CompletenessScore: roundScore(completeness),
		ExpirationScore:   roundScore(expiration),
		QualityScore:      roundScore(quality),
		RemediationScore:  roundScore(remediation),
		Breakdown: domain.ScoreBreakdown{
			Completeness: factor(completeness, w.Completeness),
			Expiration:   factor(expiration, w.Expiration),
			Quality:      factor(quality, w.Quality),
			Remediation:  factor(remediation, w.Remediation),
		},
		IsEligibleForIntroductions: e.cfg.Eligible(overall),
		ConfigVersion:              e.cfg.Version,
		CalculatedAt:               now,
	}
}

func factor(raw, weight float64) domain.FactorBreakdown {
	return domain.FactorBreakdown{
		Weight:   weight,
		Score:    roundScore(raw),
		Weighted: roundScore(raw * weight),
	}
}

// roundScore rounds half away from zero.
func roundScore(v float64) int {
	return int(math.Round(v))
}

func validateDocuments(docs []domain.Document) error {
	seen := make(map[string]struct{}, len(docs))
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[docs[i].ID]; dup {
			return domain.WrapError(domain.ErrInvalidDocument, "validate documents",
				fmt.Errorf("duplicate document id %q", docs[i].ID))
		}
		seen[docs[i].ID] = struct{}{}
	}
	return nil
}

// normalizeGaps defaults empty statuses to open and rejects unknown ones. The
// input slice is not modified.
func normalizeGaps(gaps []domain.GapItem) ([]domain.GapItem, error) {
	out := make([]domain.GapItem, len(gaps))
	for i, gap := range gaps {
		if gap.Status == "" {
			gap.Status = domain.GapStatusOpen
		}
		if !gap.Status.Valid() {
			return nil, domain.WrapError(domain.ErrInvalidInput, "validate gaps",
				fmt.Errorf("gap %s has unknown status %q", gap.ID, gap.Status))
		}
		out[i] = gap
	}
	return out, nil
}
