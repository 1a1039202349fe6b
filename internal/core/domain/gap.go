package domain

import (
	"fmt"
	"strings"
)

type GapPriority string

const (
	GapPriorityHigh   GapPriority = "high"
	GapPriorityMedium GapPriority = "medium"
	GapPriorityLow    GapPriority = "low"
)

type GapStatus string

const (
	GapStatusOpen          GapStatus = "open"
	GapStatusAcknowledged  GapStatus = "acknowledged"
	GapStatusNotApplicable GapStatus = "not_applicable"
)

// Valid reports whether s is one of the known gap statuses.
func (s GapStatus) Valid() bool {
	switch s {
	case GapStatusOpen, GapStatusAcknowledged, GapStatusNotApplicable:
		return true
	default:
		return false
	}
}

// Resolved reports whether the gap counts toward remediation progress.
func (s GapStatus) Resolved() bool {
	return s == GapStatusAcknowledged || s == GapStatusNotApplicable
}

type GapKind string

const (
	GapKindMissingCategory  GapKind = "missing_category"
	GapKindExpiredDocument  GapKind = "expired_document"
	GapKindExpiringDocument GapKind = "expiring_document"
)

const (
	gapIDPrefix         = "gap_"
	expiredGapIDPrefix  = "gap_expired_"
	expiringGapIDPrefix = "gap_expiring_"
)

// GapItem is a detected deficiency in a proof pack.
type GapItem struct {
	ID             string      `json:"id"`
	Kind           GapKind     `json:"kind,omitempty"`
	Category       string      `json:"category"`
	DocumentType   string      `json:"document_type"`
	DocumentID     string      `json:"document_id,omitempty"`
	Priority       GapPriority `json:"priority"`
	Recommendation string      `json:"recommendation"`
	Status         GapStatus   `json:"status"`
}

// EffectiveKind returns Kind, falling back to the id prefix for gaps that were
// produced outside the engine.
func (g GapItem) EffectiveKind() GapKind {
	if g.Kind != "" {
		return g.Kind
	}
	return KindFromGapID(g.ID)
}

// KindFromGapID derives the gap kind encoded in a deterministic gap id.
// Unknown shapes return an empty kind.
func KindFromGapID(id string) GapKind {
	switch {
	case strings.HasPrefix(id, expiredGapIDPrefix):
		return GapKindExpiredDocument
	case strings.HasPrefix(id, expiringGapIDPrefix):
		return GapKindExpiringDocument
	case strings.HasPrefix(id, gapIDPrefix) && len(id) > len(gapIDPrefix):
		return GapKindMissingCategory
	default:
		return ""
	}
}

func MissingCategoryGapID(category string) string {
	return gapIDPrefix + SnakeCase(category)
}

func ExpiredGapID(documentID string) string {
	return expiredGapIDPrefix + documentID
}

func ExpiringGapID(documentID string) string {
	return expiringGapIDPrefix + documentID
}

// SnakeCase lowercases s and joins its whitespace-separated words with "_".
func SnakeCase(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

// ValidateGapStatusChange checks a caller-requested status transition.
func ValidateGapStatusChange(gapID string, status GapStatus) error {
	if KindFromGapID(strings.TrimSpace(gapID)) == "" {
		return WrapError(ErrInvalidInput, "validate gap status", fmt.Errorf("unrecognized gap id %q", gapID))
	}
	if !status.Valid() {
		return WrapError(ErrInvalidInput, "validate gap status", fmt.Errorf("unknown status %q", status))
	}
	return nil
}
