package packhealth

import (
	"fmt"
	"time"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

// identifyGaps derives gaps from the documents alone: missing categories in
// category order, then expired and expiring documents in document order.
func identifyGaps(docs []domain.Document, required []string, now time.Time, windowDays int) []domain.GapItem {
	covered := make(map[string]struct{}, len(required))
	for _, category := range coveredCategories(docs, required) {
		covered[category] = struct{}{}
	}

	gaps := make([]domain.GapItem, 0)
	for _, category := range required {
		if _, ok := covered[category]; ok {
			continue
		}
		gaps = append(gaps, domain.GapItem{
			ID:             domain.MissingCategoryGapID(category),
			Kind:           domain.GapKindMissingCategory,
			Category:       category,
			DocumentType:   category,
			Priority:       domain.GapPriorityHigh,
			Recommendation: fmt.Sprintf("Upload at least one %s document to your proof pack.", category),
			Status:         domain.GapStatusOpen,
		})
	}

	var expiring []domain.GapItem
	for _, doc := range docs {
		switch classifyExpiry(doc, now, windowDays) {
		case expiryExpired:
			gaps = append(gaps, domain.GapItem{
				ID:             domain.ExpiredGapID(doc.ID),
				Kind:           domain.GapKindExpiredDocument,
				Category:       doc.Category,
				DocumentType:   documentLabel(doc),
				DocumentID:     doc.ID,
				Priority:       domain.GapPriorityHigh,
				Recommendation: fmt.Sprintf("%s expired on %s. Upload a renewed copy.", documentLabel(doc), doc.ExpirationDate.Format(time.DateOnly)),
				Status:         domain.GapStatusOpen,
			})
		case expiryExpiring:
			expiring = append(expiring, domain.GapItem{
				ID:             domain.ExpiringGapID(doc.ID),
				Kind:           domain.GapKindExpiringDocument,
				Category:       doc.Category,
				DocumentType:   documentLabel(doc),
				DocumentID:     doc.ID,
				Priority:       domain.GapPriorityMedium,
				Recommendation: fmt.Sprintf("%s expires in %d days. Plan its renewal.", documentLabel(doc), daysUntil(doc.ExpirationDate.Sub(now))),
				Status:         domain.GapStatusOpen,
			})
		}
	}
	return append(gaps, expiring...)
}

// documentLabel names a document in gap and action text.
func documentLabel(doc domain.Document) string {
	if doc.Metadata.DocumentType != "" {
		return doc.Metadata.DocumentType
	}
	return doc.FileName
}

// applyStatuses copies externally persisted statuses onto freshly derived gaps.
func applyStatuses(gaps []domain.GapItem, statuses map[string]domain.GapStatus) {
	if len(statuses) == 0 {
		return
	}
	for i := range gaps {
		if status, ok := statuses[gaps[i].ID]; ok && status.Valid() {
			gaps[i].Status = status
		}
	}
}
