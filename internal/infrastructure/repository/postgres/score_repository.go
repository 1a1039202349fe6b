package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

type ScoreRepository struct {
	db *sql.DB
}

func NewScoreRepository(db *sql.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) SaveScore(ctx context.Context, snapshot *domain.ScoreSnapshot) error {
	breakdown, err := json.Marshal(snapshot.Score.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	s := snapshot.Score
	_, err = r.db.ExecContext(ctx, `
INSERT INTO pack_health_scores (
	id, profile_id, overall_score, completeness_score, expiration_score, quality_score, remediation_score,
	breakdown, eligible, config_version, gap_count, open_gaps, calculated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		snapshot.ID, snapshot.ProfileID, s.OverallScore, s.CompletenessScore, s.ExpirationScore, s.QualityScore,
		s.RemediationScore, breakdown, s.IsEligibleForIntroductions, s.ConfigVersion,
		snapshot.GapCount, snapshot.OpenGaps, s.CalculatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert score snapshot: %w", err)
	}
	return nil
}

// LatestScore returns the most recently recorded snapshot, regardless of the
// instant it was scored against.
func (r *ScoreRepository) LatestScore(ctx context.Context, profileID string) (*domain.ScoreSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, profile_id, overall_score, completeness_score, expiration_score, quality_score, remediation_score,
	breakdown, eligible, config_version, gap_count, open_gaps, calculated_at
FROM pack_health_scores
WHERE profile_id = $1
ORDER BY seq DESC
LIMIT 1
`, profileID)

	var snapshot domain.ScoreSnapshot
	var breakdownRaw []byte
	s := &snapshot.Score
	err := row.Scan(
		&snapshot.ID, &snapshot.ProfileID, &s.OverallScore, &s.CompletenessScore, &s.ExpirationScore,
		&s.QualityScore, &s.RemediationScore, &breakdownRaw, &s.IsEligibleForIntroductions, &s.ConfigVersion,
		&snapshot.GapCount, &snapshot.OpenGaps, &s.CalculatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrScoreNotFound, "latest score", fmt.Errorf("profile_id=%s", profileID))
		}
		return nil, fmt.Errorf("scan score snapshot: %w", err)
	}
	if err := json.Unmarshal(breakdownRaw, &s.Breakdown); err != nil {
		return nil, fmt.Errorf("unmarshal breakdown: %w", err)
	}
	s.CalculatedAt = s.CalculatedAt.UTC()
	return &snapshot, nil
}
