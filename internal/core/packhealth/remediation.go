package packhealth

import (
	"fmt"
	"sort"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

const (
	missingCategoryImpact = 15
	expiredDocumentImpact = 12
	untypedDocumentImpact = 8
	expiringSoonImpact    = 5

	bucketCritical  = 1
	bucketMetadata  = 2
	bucketLookahead = 3
)

func planRemediation(docs []domain.Document, gaps []domain.GapItem) []domain.RemediationAction {
	actions := make([]domain.RemediationAction, 0)
	var expiringIDs []string

	for _, gap := range gaps {
		switch gap.EffectiveKind() {
		case domain.GapKindMissingCategory:
			actions = append(actions, domain.RemediationAction{
				Description:     fmt.Sprintf("Add %s documents", gap.Category),
				EstimatedImpact: missingCategoryImpact,
				Effort:          domain.EffortMedium,
				Priority:        bucketCritical,
				GapIDs:          []string{gap.ID},
			})
		case domain.GapKindExpiredDocument:
			actions = append(actions, domain.RemediationAction{
				Description:     fmt.Sprintf("Renew expired document: %s", gap.DocumentType),
				EstimatedImpact: expiredDocumentImpact,
				Effort:          domain.EffortMedium,
				Priority:        bucketCritical,
				GapIDs:          []string{gap.ID},
			})
		case domain.GapKindExpiringDocument:
			expiringIDs = append(expiringIDs, gap.ID)
		}
	}

	untyped := 0
	for _, doc := range docs {
		if doc.Metadata.DocumentType == "" {
			untyped++
		}
	}
	if untyped > 0 {
		actions = append(actions, domain.RemediationAction{
			Description:     fmt.Sprintf("Add document types and notes to %d documents", untyped),
			EstimatedImpact: untypedDocumentImpact,
			Effort:          domain.EffortLow,
			Priority:        bucketMetadata,
		})
	}

	if len(expiringIDs) > 0 {
		actions = append(actions, domain.RemediationAction{
			Description:     fmt.Sprintf("Plan renewal for %d documents expiring soon", len(expiringIDs)),
			EstimatedImpact: expiringSoonImpact,
			Effort:          domain.EffortLow,
			Priority:        bucketLookahead,
			GapIDs:          expiringIDs,
		})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].Priority != actions[j].Priority {
			return actions[i].Priority < actions[j].Priority
		}
		return actions[i].EstimatedImpact > actions[j].EstimatedImpact
	})
	return actions
}
