package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/proofpack-health/internal/core/packhealth"
)

// Scoring is the pack-health configuration: engine parameters plus the
// keyword table used to classify uncategorized evidence.
type Scoring struct {
	Engine             packhealth.Config
	ClassifierKeywords map[string][]string
}

type scoringFile struct {
	Version              string              `yaml:"version"`
	RequiredCategories   []string            `yaml:"required_categories"`
	Weights              *weightsFile        `yaml:"weights"`
	EligibilityThreshold *int                `yaml:"eligibility_threshold"`
	ExpiringWindowDays   *int                `yaml:"expiring_window_days"`
	VolumeDivisor        string              `yaml:"volume_divisor"`
	ClassifierKeywords   map[string][]string `yaml:"classifier_keywords"`
}

// weightsFile keeps unset weights distinguishable from explicit zeros.
type weightsFile struct {
	Completeness *float64 `yaml:"completeness"`
	Expiration   *float64 `yaml:"expiration"`
	Quality      *float64 `yaml:"quality"`
	Remediation  *float64 `yaml:"remediation"`
}

func (f weightsFile) merge(base packhealth.Weights) packhealth.Weights {
	out := base
	for _, field := range []struct {
		src *float64
		dst *float64
	}{
		{f.Completeness, &out.Completeness},
		{f.Expiration, &out.Expiration},
		{f.Quality, &out.Quality},
		{f.Remediation, &out.Remediation},
	} {
		if field.src != nil {
			*field.dst = *field.src
		}
	}
	return out
}

func DefaultClassifierKeywords() map[string][]string {
	return map[string][]string{
		"Certifications":   {"certificate", "certification", "accreditation", "license", "iso 9001", "iso 27001"},
		"Financial":        {"balance sheet", "income statement", "audit", "financial statement", "tax return", "bank reference"},
		"Past Performance": {"past performance", "case study", "reference letter", "contract award", "testimonial"},
		"Technical":        {"technical", "specification", "architecture", "capability statement", "methodology"},
		"Quality":          {"quality manual", "quality policy", "qms", "inspection", "corrective action"},
		"Safety":           {"safety", "osha", "hazard", "incident rate", "emr"},
		"Security":         {"security", "soc 2", "penetration test", "clearance", "nist"},
	}
}

func DefaultScoring() Scoring {
	return Scoring{
		Engine:             packhealth.DefaultConfig(),
		ClassifierKeywords: DefaultClassifierKeywords(),
	}
}

// LoadScoring reads a YAML scoring file. An empty path yields the defaults;
// fields missing from the file keep their default values.
func LoadScoring(path string) (Scoring, error) {
	out := DefaultScoring()
	if strings.TrimSpace(path) == "" {
		return out, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Scoring{}, fmt.Errorf("read scoring config: %w", err)
	}
	var file scoringFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Scoring{}, fmt.Errorf("parse scoring config %s: %w", path, err)
	}

	if file.Version != "" {
		out.Engine.Version = file.Version
	}
	if len(file.RequiredCategories) > 0 {
		out.Engine.RequiredCategories = file.RequiredCategories
	}
	if file.Weights != nil {
		w := file.Weights.merge(out.Engine.Weights)
		if math.Abs(w.Sum()-1.0) > 1e-9 {
			return Scoring{}, fmt.Errorf(
				"scoring config %s: weights must sum to 1.0, got %v (completeness=%v expiration=%v quality=%v remediation=%v; unset weights keep their defaults)",
				path, w.Sum(), w.Completeness, w.Expiration, w.Quality, w.Remediation,
			)
		}
		out.Engine.Weights = w
	}
	if file.EligibilityThreshold != nil {
		out.Engine.EligibilityThreshold = *file.EligibilityThreshold
	}
	if file.ExpiringWindowDays != nil {
		out.Engine.ExpiringWindowDays = *file.ExpiringWindowDays
	}
	divisor, err := packhealth.VolumeDivisorByName(file.VolumeDivisor)
	if err != nil {
		return Scoring{}, fmt.Errorf("scoring config %s: %w", path, err)
	}
	out.Engine.VolumeDivisor = divisor
	if len(file.ClassifierKeywords) > 0 {
		out.ClassifierKeywords = file.ClassifierKeywords
	}
	return out, nil
}
