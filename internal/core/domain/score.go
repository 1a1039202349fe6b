package domain

import "time"

type FactorBreakdown struct {
	Weight   float64 `json:"weight"`
	Score    int     `json:"score"`
	Weighted int     `json:"weighted"`
}

type ScoreBreakdown struct {
	Completeness FactorBreakdown `json:"completeness"`
	Expiration   FactorBreakdown `json:"expiration"`
	Quality      FactorBreakdown `json:"quality"`
	Remediation  FactorBreakdown `json:"remediation"`
}

// WeightedSum adds the rounded weighted terms. It may differ from
// PackHealthScore.OverallScore by a point or two because the overall score is
// rounded once from unrounded terms.
func (b ScoreBreakdown) WeightedSum() int {
	return b.Completeness.Weighted + b.Expiration.Weighted + b.Quality.Weighted + b.Remediation.Weighted
}

type PackHealthScore struct {
	OverallScore               int            `json:"overall_score"`
	CompletenessScore          int            `json:"completeness_score"`
	ExpirationScore            int            `json:"expiration_score"`
	QualityScore               int            `json:"quality_score"`
	RemediationScore           int            `json:"remediation_score"`
	Breakdown                  ScoreBreakdown `json:"breakdown"`
	IsEligibleForIntroductions bool           `json:"is_eligible_for_introductions"`
	ConfigVersion              string         `json:"config_version,omitempty"`
	CalculatedAt               time.Time      `json:"calculated_at"`
}

type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// RemediationAction is one ranked step toward closing gaps. Lower Priority
// buckets come first.
type RemediationAction struct {
	Description     string   `json:"description"`
	EstimatedImpact int      `json:"estimated_impact"`
	Effort          Effort   `json:"effort"`
	Priority        int      `json:"priority"`
	GapIDs          []string `json:"gap_ids,omitempty"`
}

// PackHealthReport bundles one scoring run.
type PackHealthReport struct {
	ProfileID string              `json:"profile_id,omitempty"`
	Score     PackHealthScore     `json:"score"`
	Gaps      []GapItem           `json:"gaps"`
	Actions   []RemediationAction `json:"actions"`
}

// OpenGaps counts gaps that are not resolved.
func (r PackHealthReport) OpenGaps() int {
	n := 0
	for _, gap := range r.Gaps {
		if !gap.Status.Resolved() {
			n++
		}
	}
	return n
}

// ScoreSnapshot is a persisted scoring run for a profile.
type ScoreSnapshot struct {
	ID        string          `json:"id"`
	ProfileID string          `json:"profile_id"`
	Score     PackHealthScore `json:"score"`
	GapCount  int             `json:"gap_count"`
	OpenGaps  int             `json:"open_gaps"`
}

// EligibilityChanged is emitted when a profile crosses the introduction threshold.
type EligibilityChanged struct {
	ProfileID     string    `json:"profile_id"`
	Eligible      bool      `json:"eligible"`
	OverallScore  int       `json:"overall_score"`
	PreviousScore *int      `json:"previous_score,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
