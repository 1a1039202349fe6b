package packhealth

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

const (
	volumeBonusPerDocument = 5.0
	maxVolumeBonus         = 20.0

	expiringPenalty = 0.3
	expiredPenalty  = 0.7

	qualityPointsPerDocument = 4
	minDescriptiveLength     = 10
	placeholderFileName      = "untitled"

	hoursPerDay = 24
)

func completenessScore(docs []domain.Document, required []string, divisor VolumeDivisor) float64 {
	if len(docs) == 0 || len(required) == 0 {
		return 0
	}
	covered := coveredCategories(docs, required)
	base := float64(len(covered)) / float64(len(required)) * 100

	bonus := 0.0
	if divisor != nil {
		if d := divisor(docs, required); d > 0 {
			avgPerCategory := float64(len(docs)) / float64(d)
			bonus = math.Min(avgPerCategory*volumeBonusPerDocument, maxVolumeBonus)
		}
	}
	return math.Min(base+bonus, 100)
}

// coveredCategories returns the required categories matched exactly by at
// least one document, in required order.
func coveredCategories(docs []domain.Document, required []string) []string {
	present := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		present[doc.Category] = struct{}{}
	}
	covered := make([]string, 0, len(required))
	for _, category := range required {
		if _, ok := present[category]; ok {
			covered = append(covered, category)
		}
	}
	return covered
}

type expiryState int

const (
	expiryValid expiryState = iota
	expiryExpiring
	expiryExpired
)

func classifyExpiry(doc domain.Document, now time.Time, windowDays int) expiryState {
	if doc.ExpirationDate == nil {
		return expiryValid
	}
	remaining := doc.ExpirationDate.Sub(now)
	if remaining < 0 {
		return expiryExpired
	}
	if daysUntil(remaining) <= windowDays {
		return expiryExpiring
	}
	return expiryValid
}

// daysUntil rounds a non-negative remaining duration up to whole days.
func daysUntil(remaining time.Duration) int {
	return int(math.Ceil(remaining.Hours() / hoursPerDay))
}

func expirationScore(docs []domain.Document, now time.Time, windowDays int) float64 {
	if len(docs) == 0 {
		return 0
	}
	var valid, expiring, expired int
	for _, doc := range docs {
		switch classifyExpiry(doc, now, windowDays) {
		case expiryExpired:
			expired++
		case expiryExpiring:
			expiring++
		default:
			valid++
		}
	}
	total := float64(len(docs))
	score := float64(valid)/total - float64(expiring)/total*expiringPenalty - float64(expired)/total*expiredPenalty
	return math.Max(score*100, 0)
}

func qualityScore(docs []domain.Document) float64 {
	if len(docs) == 0 {
		return 0
	}
	points := 0
	for _, doc := range docs {
		points += qualityPoints(doc)
	}
	return float64(points) / float64(len(docs)*qualityPointsPerDocument) * 100
}

// qualityPoints is a deliberately weak proxy: descriptive file name, a real
// category, a document type, and substantive notes earn one point each.
func qualityPoints(doc domain.Document) int {
	points := 0
	if utf8.RuneCountInString(doc.FileName) > minDescriptiveLength && !strings.Contains(doc.FileName, placeholderFileName) {
		points++
	}
	if doc.Category != "" && doc.Category != domain.CategoryOther {
		points++
	}
	if doc.Metadata.DocumentType != "" {
		points++
	}
	if utf8.RuneCountInString(doc.Metadata.Notes) > minDescriptiveLength {
		points++
	}
	return points
}

func remediationScore(gaps []domain.GapItem) float64 {
	if len(gaps) == 0 {
		return 100
	}
	resolved := 0
	for _, gap := range gaps {
		if gap.Status.Resolved() {
			resolved++
		}
	}
	return float64(resolved) / float64(len(gaps)) * 100
}
