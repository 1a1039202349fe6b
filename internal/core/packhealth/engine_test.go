package packhealth

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

var testNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg, WithClock(FixedClock(testNow)))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func doc(id, category string) domain.Document {
	return domain.Document{
		ID:         id,
		FileName:   id + "-evidence.pdf",
		Category:   category,
		UploadedAt: testNow.Add(-48 * time.Hour),
	}
}

func expiringAt(d domain.Document, at time.Time) domain.Document {
	d.ExpirationDate = &at
	return d
}

func fullPack() []domain.Document {
	docs := make([]domain.Document, 0, 7)
	for _, category := range DefaultRequiredCategories() {
		d := doc("doc-"+domain.SnakeCase(category), category)
		d.Metadata.DocumentType = category + " Certificate"
		docs = append(docs, d)
	}
	return docs
}

func TestCalculatePackHealthFullPackScores95(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	score, err := engine.CalculatePackHealth(fullPack(), nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if score.OverallScore != 95 {
		t.Fatalf("expected overall 95, got %d", score.OverallScore)
	}
	if score.CompletenessScore != 100 || score.ExpirationScore != 100 || score.QualityScore != 75 || score.RemediationScore != 100 {
		t.Fatalf("unexpected sub-scores: %+v", score)
	}
	if !score.IsEligibleForIntroductions {
		t.Fatalf("expected full pack to be eligible")
	}
	if score.Breakdown.Quality.Weighted != 15 || score.Breakdown.Quality.Weight != 0.2 {
		t.Fatalf("unexpected quality breakdown: %+v", score.Breakdown.Quality)
	}
	if score.Breakdown.WeightedSum() != score.OverallScore {
		t.Fatalf("expected breakdown to sum to %d, got %d", score.OverallScore, score.Breakdown.WeightedSum())
	}
	if !score.CalculatedAt.Equal(testNow) {
		t.Fatalf("expected calculated_at %s, got %s", testNow, score.CalculatedAt)
	}
	if score.ConfigVersion != DefaultConfigVersion {
		t.Fatalf("expected config version %s, got %q", DefaultConfigVersion, score.ConfigVersion)
	}
}

func TestCalculatePackHealthEmptyPackScores10(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	score, err := engine.CalculatePackHealth(nil, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if score.OverallScore != 10 {
		t.Fatalf("expected overall 10, got %d", score.OverallScore)
	}
	if score.CompletenessScore != 0 || score.ExpirationScore != 0 || score.QualityScore != 0 {
		t.Fatalf("expected zero document sub-scores, got %+v", score)
	}
	if score.RemediationScore != 100 {
		t.Fatalf("expected vacuous remediation 100, got %d", score.RemediationScore)
	}
	if score.IsEligibleForIntroductions {
		t.Fatalf("empty pack must not be eligible")
	}
}

func TestEligibilityThresholdBoundary(t *testing.T) {
	cfg := DefaultConfig()
	cases := map[int]bool{69: false, 70: true, 71: true}
	for overall, want := range cases {
		if got := cfg.Eligible(overall); got != want {
			t.Fatalf("Eligible(%d) = %v, want %v", overall, got, want)
		}
	}
}

func TestExpiredPenalizedMoreThanExpiring(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	withExpired := []domain.Document{
		doc("a", "Financial"),
		expiringAt(doc("b", "Technical"), testNow.Add(-24*time.Hour)),
	}
	withExpiring := []domain.Document{
		doc("a", "Financial"),
		expiringAt(doc("b", "Technical"), testNow.Add(10*24*time.Hour)),
	}

	expiredScore, err := engine.CalculatePackHealth(withExpired, nil)
	if err != nil {
		t.Fatalf("calculate expired: %v", err)
	}
	expiringScore, err := engine.CalculatePackHealth(withExpiring, nil)
	if err != nil {
		t.Fatalf("calculate expiring: %v", err)
	}
	if expiredScore.ExpirationScore != 15 {
		t.Fatalf("expected expired pack expiration 15, got %d", expiredScore.ExpirationScore)
	}
	if expiringScore.ExpirationScore != 35 {
		t.Fatalf("expected expiring pack expiration 35, got %d", expiringScore.ExpirationScore)
	}
}

func TestIdentifyGapsOrderAndIdempotence(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	docs := []domain.Document{
		expiringAt(doc("d1", "Certifications"), testNow.Add(10*24*time.Hour)),
		expiringAt(doc("d2", "Financial"), testNow.Add(-2*24*time.Hour)),
		expiringAt(doc("d3", "Technical"), testNow.Add(-time.Hour)),
		expiringAt(doc("d4", "Quality"), testNow.Add(3*24*time.Hour)),
	}

	gaps, err := engine.IdentifyGaps(docs)
	if err != nil {
		t.Fatalf("identify gaps: %v", err)
	}
	wantIDs := []string{
		"gap_past_performance",
		"gap_safety",
		"gap_security",
		"gap_expired_d2",
		"gap_expired_d3",
		"gap_expiring_d1",
		"gap_expiring_d4",
	}
	if len(gaps) != len(wantIDs) {
		t.Fatalf("expected %d gaps, got %d", len(wantIDs), len(gaps))
	}
	for i, gap := range gaps {
		if gap.ID != wantIDs[i] {
			t.Fatalf("gap %d: expected %s, got %s", i, wantIDs[i], gap.ID)
		}
		if gap.Status != domain.GapStatusOpen {
			t.Fatalf("gap %s: expected open status, got %s", gap.ID, gap.Status)
		}
	}
	if gaps[0].Priority != domain.GapPriorityHigh || gaps[3].Priority != domain.GapPriorityHigh {
		t.Fatalf("expected missing and expired gaps to be high priority")
	}
	if gaps[5].Priority != domain.GapPriorityMedium {
		t.Fatalf("expected expiring gap to be medium priority, got %s", gaps[5].Priority)
	}

	again, err := engine.IdentifyGaps(docs)
	if err != nil {
		t.Fatalf("identify gaps again: %v", err)
	}
	if !reflect.DeepEqual(gaps, again) {
		t.Fatalf("expected identical gaps across runs")
	}
}

func TestRemediationActionsOrdering(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	docs := []domain.Document{
		expiringAt(doc("d1", "Certifications"), testNow.Add(10*24*time.Hour)),
		expiringAt(doc("d2", "Financial"), testNow.Add(-2*24*time.Hour)),
		expiringAt(doc("d4", "Quality"), testNow.Add(3*24*time.Hour)),
	}
	docs[1].Metadata.DocumentType = "Audited Statement"

	gaps, err := engine.IdentifyGaps(docs)
	if err != nil {
		t.Fatalf("identify gaps: %v", err)
	}
	actions, err := engine.RemediationActions(42, docs, gaps)
	if err != nil {
		t.Fatalf("remediation actions: %v", err)
	}

	// 4 missing categories, 1 expired, 1 metadata aggregate, 1 renewal aggregate.
	if len(actions) != 7 {
		t.Fatalf("expected 7 actions, got %d: %+v", len(actions), actions)
	}
	for i := 1; i < len(actions); i++ {
		prev, cur := actions[i-1], actions[i]
		if prev.Priority > cur.Priority {
			t.Fatalf("action %d bucket %d precedes bucket %d", i, prev.Priority, cur.Priority)
		}
		if prev.Priority == cur.Priority && prev.EstimatedImpact < cur.EstimatedImpact {
			t.Fatalf("action %d impact %d precedes higher impact %d", i, prev.EstimatedImpact, cur.EstimatedImpact)
		}
	}
	if actions[0].Description != "Add Past Performance documents" {
		t.Fatalf("unexpected first action %q", actions[0].Description)
	}
	if actions[4].Description != "Renew expired document: Audited Statement" || actions[4].EstimatedImpact != 12 {
		t.Fatalf("unexpected renewal action %+v", actions[4])
	}
	if actions[5].Description != "Add document types and notes to 2 documents" || actions[5].Effort != domain.EffortLow {
		t.Fatalf("unexpected metadata action %+v", actions[5])
	}
	last := actions[6]
	if last.Description != "Plan renewal for 2 documents expiring soon" || last.Priority != 3 {
		t.Fatalf("unexpected lookahead action %+v", last)
	}
	if !reflect.DeepEqual(last.GapIDs, []string{"gap_expiring_d1", "gap_expiring_d4"}) {
		t.Fatalf("unexpected lookahead gap ids %v", last.GapIDs)
	}
}

func TestRemediationActionsDeriveKindFromExternalGapIDs(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	gaps := []domain.GapItem{
		{ID: "gap_expiring_x", DocumentType: "Permit"},
		{ID: "gap_safety", Category: "Safety"},
	}

	actions, err := engine.RemediationActions(0, nil, gaps)
	if err != nil {
		t.Fatalf("remediation actions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}
	if actions[0].Description != "Add Safety documents" {
		t.Fatalf("expected missing category first, got %q", actions[0].Description)
	}
	if actions[1].Priority != 3 {
		t.Fatalf("expected lookahead action last, got %+v", actions[1])
	}
}

func TestEvaluateAppliesPersistedStatuses(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	report, err := engine.Evaluate(nil, map[string]domain.GapStatus{
		"gap_safety":    domain.GapStatusAcknowledged,
		"gap_unrelated": domain.GapStatusNotApplicable,
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(report.Gaps) != 7 {
		t.Fatalf("expected 7 missing-category gaps, got %d", len(report.Gaps))
	}
	if report.Gaps[5].ID != "gap_safety" || report.Gaps[5].Status != domain.GapStatusAcknowledged {
		t.Fatalf("expected gap_safety acknowledged, got %+v", report.Gaps[5])
	}
	if report.Score.RemediationScore != 14 {
		t.Fatalf("expected remediation 14, got %d", report.Score.RemediationScore)
	}
	if report.Score.OverallScore != 1 {
		t.Fatalf("expected overall 1, got %d", report.Score.OverallScore)
	}
	if report.OpenGaps() != 6 {
		t.Fatalf("expected 6 open gaps, got %d", report.OpenGaps())
	}
	if len(report.Actions) != 7 {
		t.Fatalf("expected one action per missing category, got %d", len(report.Actions))
	}
}

func TestVolumeDivisorStrategyIsSwappable(t *testing.T) {
	docs := []domain.Document{
		doc("c1", "Certifications"),
		doc("c2", "Certifications"),
		doc("o1", domain.CategoryOther),
		doc("o2", domain.CategoryOther),
	}

	distinct := newTestEngine(t, DefaultConfig())
	score, err := distinct.CalculatePackHealth(docs, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if score.CompletenessScore != 24 {
		t.Fatalf("expected completeness 24 with distinct divisor, got %d", score.CompletenessScore)
	}

	cfg := DefaultConfig()
	cfg.VolumeDivisor = CoveredRequiredDivisor
	covered := newTestEngine(t, cfg)
	score, err = covered.CalculatePackHealth(docs, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if score.CompletenessScore != 34 {
		t.Fatalf("expected completeness 34 with covered divisor, got %d", score.CompletenessScore)
	}
}

func TestCustomCategorySet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequiredCategories = []string{"Insurance"}
	engine := newTestEngine(t, cfg)

	score, err := engine.CalculatePackHealth([]domain.Document{doc("i1", "Insurance")}, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if score.CompletenessScore != 100 {
		t.Fatalf("expected completeness 100, got %d", score.CompletenessScore)
	}
	gaps, err := engine.IdentifyGaps(nil)
	if err != nil {
		t.Fatalf("identify gaps: %v", err)
	}
	if len(gaps) != 1 || gaps[0].ID != "gap_insurance" {
		t.Fatalf("unexpected gaps %+v", gaps)
	}
}

func TestAtPinsScoringInstant(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	docs := []domain.Document{expiringAt(doc("p1", "Safety"), testNow.Add(5*24*time.Hour))}

	later := engine.At(testNow.Add(10 * 24 * time.Hour))
	gaps, err := later.IdentifyGaps(docs)
	if err != nil {
		t.Fatalf("identify gaps: %v", err)
	}
	last := gaps[len(gaps)-1]
	if last.ID != "gap_expired_p1" {
		t.Fatalf("expected document expired at later instant, got %s", last.ID)
	}
	if !strings.Contains(last.Recommendation, "2024-06-06") {
		t.Fatalf("expected expiry date in recommendation, got %q", last.Recommendation)
	}
}

func TestEngineRejectsMalformedInput(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	_, err := engine.CalculatePackHealth([]domain.Document{{FileName: "no-id.pdf", UploadedAt: testNow}}, nil)
	if !domain.IsKind(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected invalid document for missing id, got %v", err)
	}

	var zero time.Time
	bad := doc("z1", "Safety")
	bad.ExpirationDate = &zero
	_, err = engine.IdentifyGaps([]domain.Document{bad})
	if !domain.IsKind(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected invalid document for zero expiration, got %v", err)
	}

	_, err = engine.Evaluate([]domain.Document{doc("dup", "Safety"), doc("dup", "Security")}, nil)
	if !domain.IsKind(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected invalid document for duplicate id, got %v", err)
	}

	_, err = engine.CalculatePackHealth(nil, []domain.GapItem{{ID: "gap_safety", Status: "closed"}})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown gap status, got %v", err)
	}

	_, err = engine.Evaluate(nil, map[string]domain.GapStatus{"gap_safety": "done"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown persisted status, got %v", err)
	}
}

func TestNewEngineValidatesConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "weights do not sum to one", mutate: func(c *Config) { c.Weights.Remediation = 0 }},
		{name: "negative weight", mutate: func(c *Config) { c.Weights.Quality = -0.2; c.Weights.Completeness = 0.8 }},
		{name: "no categories", mutate: func(c *Config) { c.RequiredCategories = nil }},
		{name: "duplicate category", mutate: func(c *Config) { c.RequiredCategories = []string{"Safety", "Safety"} }},
		{name: "category reads as expired gap", mutate: func(c *Config) { c.RequiredCategories = []string{"Safety", "Expired Filings"} }},
		{name: "category reads as expiring gap", mutate: func(c *Config) { c.RequiredCategories = []string{"expiring  permits"} }},
		{name: "threshold out of range", mutate: func(c *Config) { c.EligibilityThreshold = 101 }},
		{name: "negative window", mutate: func(c *Config) { c.ExpiringWindowDays = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if _, err := NewEngine(cfg); !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestEngineDoesNotMutateInputs(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	gaps := []domain.GapItem{{ID: "gap_safety"}}

	if _, err := engine.CalculatePackHealth(nil, gaps); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if gaps[0].Status != "" {
		t.Fatalf("expected caller gap untouched, got status %q", gaps[0].Status)
	}
}
