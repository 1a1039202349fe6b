package xlsx

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

const (
	SummarySheet = "Summary"
	GapsSheet    = "Gaps"
	ActionsSheet = "Actions"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Write renders a pack-health report as a three-sheet workbook.
func Write(w io.Writer, report domain.PackHealthReport) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeSummary(f, header, report); err != nil {
		return err
	}
	if err := writeGaps(f, header, report.Gaps); err != nil {
		return err
	}
	if err := writeActions(f, header, report.Actions); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, header int, report domain.PackHealthReport) error {
	s := report.Score
	rows := [][]any{
		{"Field", "Value"},
		{"Profile", report.ProfileID},
		{"Overall score", s.OverallScore},
		{"Eligible for introductions", s.IsEligibleForIntroductions},
		{"Calculated at", s.CalculatedAt.UTC().Format(time.RFC3339)},
		{"Config version", s.ConfigVersion},
		{},
		{"Factor", "Weight", "Score", "Weighted"},
	}
	for _, factor := range []struct {
		name string
		b    domain.FactorBreakdown
	}{
		{"Completeness", s.Breakdown.Completeness},
		{"Expiration", s.Breakdown.Expiration},
		{"Quality", s.Breakdown.Quality},
		{"Remediation", s.Breakdown.Remediation},
	} {
		rows = append(rows, []any{factor.name, factor.b.Weight, factor.b.Score, factor.b.Weighted})
	}

	if err := writeRows(f, SummarySheet, rows); err != nil {
		return err
	}
	if err := f.SetRowStyle(SummarySheet, 1, 1, header); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}
	if err := f.SetRowStyle(SummarySheet, 8, 8, header); err != nil {
		return fmt.Errorf("style factor header: %w", err)
	}
	return f.SetColWidth(SummarySheet, "A", "A", 28)
}

func writeGaps(f *excelize.File, header int, gaps []domain.GapItem) error {
	if _, err := f.NewSheet(GapsSheet); err != nil {
		return fmt.Errorf("create gaps sheet: %w", err)
	}
	rows := [][]any{{"ID", "Kind", "Category", "Document type", "Priority", "Status", "Recommendation"}}
	for _, gap := range gaps {
		rows = append(rows, []any{
			gap.ID, string(gap.EffectiveKind()), gap.Category, gap.DocumentType,
			string(gap.Priority), string(gap.Status), gap.Recommendation,
		})
	}
	if err := writeRows(f, GapsSheet, rows); err != nil {
		return err
	}
	if err := f.SetRowStyle(GapsSheet, 1, 1, header); err != nil {
		return fmt.Errorf("style gaps header: %w", err)
	}
	return f.SetColWidth(GapsSheet, "G", "G", 60)
}

func writeActions(f *excelize.File, header int, actions []domain.RemediationAction) error {
	if _, err := f.NewSheet(ActionsSheet); err != nil {
		return fmt.Errorf("create actions sheet: %w", err)
	}
	rows := [][]any{{"Priority", "Action", "Estimated impact", "Effort", "Gaps"}}
	for _, action := range actions {
		rows = append(rows, []any{
			action.Priority, action.Description, action.EstimatedImpact,
			string(action.Effort), strings.Join(action.GapIDs, ", "),
		})
	}
	if err := writeRows(f, ActionsSheet, rows); err != nil {
		return err
	}
	if err := f.SetRowStyle(ActionsSheet, 1, 1, header); err != nil {
		return fmt.Errorf("style actions header: %w", err)
	}
	return f.SetColWidth(ActionsSheet, "B", "B", 50)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
