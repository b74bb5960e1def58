package report

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"call-audit-go/internal/domain"
)

// WriteWorkbook writes the consolidated Excel workbook with a summary
// sheet, one row per call, and every finding. Returns the workbook path.
func WriteWorkbook(dir string, batch *domain.BatchResult, minScore float64) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, batch); err != nil {
		return "", err
	}
	if err := writeCallsSheet(f, batch, minScore); err != nil {
		return "", err
	}
	if err := writeFindingsSheet(f, batch); err != nil {
		return "", err
	}
	// drop the default sheet created by excelize
	if idx, err := f.GetSheetIndex("Summary"); err == nil {
		f.SetActiveSheet(idx)
	}
	_ = f.DeleteSheet("Sheet1")

	path := filepath.Join(dir, fmt.Sprintf("batch-%s.xlsx", batch.BatchID))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func writeSummarySheet(f *excelize.File, batch *domain.BatchResult) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	rows := [][]any{
		{"Batch ID", batch.BatchID},
		{"Generated at", batch.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Total calls", batch.TotalCalls},
		{"Completed", batch.CompletedCalls},
		{"Passed", batch.PassedCalls},
		{"Failed", len(batch.FailedCalls)},
		{"Approval rate", fmt.Sprintf("%.1f%%", batch.ApprovalRate())},
		{"Average QA score", fmt.Sprintf("%.1f%%", batch.AvgQAScore)},
		{"Critical findings", batch.CriticalFindingsCount},
		{"Processing time", fmt.Sprintf("%.1fs", batch.ProcessingTimeSeconds)},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeCallsSheet(f *excelize.File, batch *domain.BatchResult, minScore float64) error {
	const sheet = "Calls"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	header := []any{"Call ID", "File", "Status", "Depth", "Duration (s)", "QA Score", "Risk Severity", "Risk Score", "Sentiment", "Findings", "Verdict", "Error"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write calls header: %w", err)
	}
	for i, r := range batch.Results {
		row := []any{
			r.Call.ID,
			r.Call.Filename,
			string(r.Call.Status),
			string(r.Call.Depth),
			r.Call.DurationSeconds,
			qaCell(r),
			"",
			"",
			sentimentCell(r),
			len(r.Findings),
			verdictCell(r, minScore),
			r.Call.ErrorMessage,
		}
		if r.Risk != nil {
			row[6] = string(r.Risk.Severity)
			row[7] = r.Risk.RawScore
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write call row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeFindingsSheet(f *excelize.File, batch *domain.BatchResult) error {
	const sheet = "Findings"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	header := []any{"Call ID", "File", "Category", "Severity", "Title", "Description", "Evidence", "Recommendation"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write findings header: %w", err)
	}
	rowNum := 2
	for _, r := range batch.Results {
		for _, finding := range r.Findings {
			row := []any{
				r.Call.ID,
				r.Call.Filename,
				string(finding.Category),
				string(finding.Severity),
				finding.Title,
				finding.Description,
				finding.Evidence,
				finding.Recommendation,
			}
			cell, _ := excelize.CoordinatesToCellName(1, rowNum)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write finding row %d: %w", rowNum, err)
			}
			rowNum++
		}
	}
	return nil
}
