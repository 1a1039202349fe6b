package packhealth

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

const (
	DefaultConfigVersion        = "2024.1"
	DefaultEligibilityThreshold = 70
	DefaultExpiringWindowDays   = 30

	weightSumTolerance = 1e-9
)

// DefaultRequiredCategories is the ordered evidence set a complete proof pack covers.
func DefaultRequiredCategories() []string {
	return []string{
		"Certifications",
		"Financial",
		"Past Performance",
		"Technical",
		"Quality",
		"Safety",
		"Security",
	}
}

// Weights are the composite-score factors. They must sum to 1.
type Weights struct {
	Completeness float64 `json:"completeness" yaml:"completeness"`
	Expiration   float64 `json:"expiration" yaml:"expiration"`
	Quality      float64 `json:"quality" yaml:"quality"`
	Remediation  float64 `json:"remediation" yaml:"remediation"`
}

func DefaultWeights() Weights {
	return Weights{
		Completeness: 0.40,
		Expiration:   0.30,
		Quality:      0.20,
		Remediation:  0.10,
	}
}

func (w Weights) Sum() float64 {
	return w.Completeness + w.Expiration + w.Quality + w.Remediation
}

// Config is the scoring configuration injected into an Engine. Changing the
// category set or weights changes scoring semantics, so bump Version with it.
type Config struct {
	Version              string
	RequiredCategories   []string
	Weights              Weights
	EligibilityThreshold int
	ExpiringWindowDays   int
	VolumeDivisor        VolumeDivisor
}

func DefaultConfig() Config {
	return Config{
		Version:              DefaultConfigVersion,
		RequiredCategories:   DefaultRequiredCategories(),
		Weights:              DefaultWeights(),
		EligibilityThreshold: DefaultEligibilityThreshold,
		ExpiringWindowDays:   DefaultExpiringWindowDays,
		VolumeDivisor:        DistinctCategoriesDivisor,
	}
}

// Eligible reports whether an overall score clears the introduction threshold.
func (c Config) Eligible(overallScore int) bool {
	return overallScore >= c.EligibilityThreshold
}

func (c Config) validate() error {
	if len(c.RequiredCategories) == 0 {
		return errors.New("at least one required category is needed")
	}
	seen := make(map[string]struct{}, len(c.RequiredCategories))
	for _, category := range c.RequiredCategories {
		if strings.TrimSpace(category) == "" {
			return errors.New("required categories must not be blank")
		}
		if _, dup := seen[category]; dup {
			return fmt.Errorf("duplicate required category %q", category)
		}
		// Caller-supplied gaps without a kind are typed by id prefix.
		if id := domain.MissingCategoryGapID(category); domain.KindFromGapID(id) != domain.GapKindMissingCategory {
			return fmt.Errorf("required category %q maps to gap id %q, which reads as a document gap", category, id)
		}
		seen[category] = struct{}{}
	}
	w := c.Weights
	for name, v := range map[string]float64{
		"completeness": w.Completeness,
		"expiration":   w.Expiration,
		"quality":      w.Quality,
		"remediation":  w.Remediation,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight %s must be non-negative, got %v", name, v)
		}
	}
	if math.Abs(w.Sum()-1.0) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %v", w.Sum())
	}
	if c.EligibilityThreshold < 0 || c.EligibilityThreshold > 100 {
		return fmt.Errorf("eligibility threshold must be within 0..100, got %d", c.EligibilityThreshold)
	}
	if c.ExpiringWindowDays < 0 {
		return fmt.Errorf("expiring window must be non-negative, got %d", c.ExpiringWindowDays)
	}
	return nil
}

// VolumeDivisor returns the denominator for the completeness volume bonus.
// Zero disables the bonus.
type VolumeDivisor func(docs []domain.Document, required []string) int

// DistinctCategoriesDivisor counts every distinct category present, including
// non-required ones and the empty category.
func DistinctCategoriesDivisor(docs []domain.Document, _ []string) int {
	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		seen[doc.Category] = struct{}{}
	}
	return len(seen)
}

// CoveredRequiredDivisor counts only the required categories with evidence.
func CoveredRequiredDivisor(docs []domain.Document, required []string) int {
	return len(coveredCategories(docs, required))
}

const (
	DivisorDistinctCategories = "distinct_categories"
	DivisorCoveredRequired    = "covered_required"
)

// VolumeDivisorByName resolves a divisor strategy from its configuration name.
// An empty name selects DistinctCategoriesDivisor.
func VolumeDivisorByName(name string) (VolumeDivisor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DivisorDistinctCategories:
		return DistinctCategoriesDivisor, nil
	case DivisorCoveredRequired:
		return CoveredRequiredDivisor, nil
	default:
		return nil, fmt.Errorf("unknown volume divisor %q", name)
	}
}

// Clock supplies the instant documents are scored against.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// FixedClock always reports t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

var systemClock = ClockFunc(func() time.Time { return time.Now().UTC() })
