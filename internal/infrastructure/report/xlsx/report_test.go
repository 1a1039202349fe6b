package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

func TestWriteProducesReadableWorkbook(t *testing.T) {
	report := domain.PackHealthReport{
		ProfileID: "p-1",
		Score: domain.PackHealthScore{
			OverallScore: 10,
			Breakdown: domain.ScoreBreakdown{
				Remediation: domain.FactorBreakdown{Weight: 0.1, Score: 100, Weighted: 10},
			},
			CalculatedAt: time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC),
		},
		Gaps: []domain.GapItem{
			{ID: "gap_safety", Category: "Safety", Priority: domain.GapPriorityHigh, Status: domain.GapStatusOpen},
		},
		Actions: []domain.RemediationAction{
			{Description: "Add Safety documents", EstimatedImpact: 15, Effort: domain.EffortMedium, Priority: 1, GapIDs: []string{"gap_safety"}},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, report); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	overall, err := f.GetCellValue(SummarySheet, "B3")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if overall != "10" {
		t.Fatalf("expected overall 10, got %q", overall)
	}

	gapRows, err := f.GetRows(GapsSheet)
	if err != nil {
		t.Fatalf("GetRows(gaps) error = %v", err)
	}
	if len(gapRows) != 2 || gapRows[1][0] != "gap_safety" || gapRows[1][1] != "missing_category" {
		t.Fatalf("unexpected gap rows %v", gapRows)
	}

	actionRows, err := f.GetRows(ActionsSheet)
	if err != nil {
		t.Fatalf("GetRows(actions) error = %v", err)
	}
	if len(actionRows) != 2 || actionRows[1][1] != "Add Safety documents" {
		t.Fatalf("unexpected action rows %v", actionRows)
	}
}
