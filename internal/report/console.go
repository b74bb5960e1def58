// Package report renders batch outcomes for humans and machines: a console
// table, per-call JSON documents and a consolidated Excel workbook.
package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"call-audit-go/internal/domain"
)

// RenderBatchTable renders one row per call plus a closing summary block.
func RenderBatchTable(batch *domain.BatchResult, minScore float64) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"FILE", "STATUS", "QA", "RISK", "SENTIMENT", "FINDINGS", "VERDICT"})

	for _, r := range batch.Results {
		tw.AppendRow(table.Row{
			r.Call.Filename,
			string(r.Call.Status),
			qaCell(r),
			riskCell(r),
			sentimentCell(r),
			len(r.Findings),
			verdictCell(r, minScore),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	var b strings.Builder
	b.WriteString(tw.Render())
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Batch %s: %d calls, %d completed, %d passed (%.1f%% approval)\n",
		batch.BatchID, batch.TotalCalls, batch.CompletedCalls, batch.PassedCalls, batch.ApprovalRate())
	fmt.Fprintf(&b, "Average QA score: %.1f%%  Critical findings: %d  Elapsed: %.1fs\n",
		batch.AvgQAScore, batch.CriticalFindingsCount, batch.ProcessingTimeSeconds)
	for _, f := range batch.FailedCalls {
		fmt.Fprintf(&b, "  failed: %s (%s)\n", f.Filename, f.Error)
	}
	return b.String()
}

func qaCell(r *domain.AuditResult) string {
	if qa := r.QAScore(); qa != nil {
		return fmt.Sprintf("%.1f%%", *qa)
	}
	return "-"
}

func riskCell(r *domain.AuditResult) string {
	if r.Risk == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%.2f)", r.Risk.Severity, r.Risk.RawScore)
}

func sentimentCell(r *domain.AuditResult) string {
	if r.SentimentLabel == "" {
		return "-"
	}
	return r.SentimentLabel
}

func verdictCell(r *domain.AuditResult, minScore float64) string {
	switch {
	case r.Call.Status == domain.StatusFailed:
		return "ERROR"
	case r.IsPassing(minScore):
		return "PASS"
	default:
		return "REVIEW"
	}
}
