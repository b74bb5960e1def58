package domain

import "time"

// FailedCall records a call that ended in the failed state during a batch.
type FailedCall struct {
	CallID   string `json:"call_id"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// BatchResult aggregates the audit results of one batch run.
type BatchResult struct {
	BatchID               string         `json:"batch_id"`
	Results               []*AuditResult `json:"results"`
	TotalCalls            int            `json:"total_calls"`
	CompletedCalls        int            `json:"completed_calls"`
	PassedCalls           int            `json:"passed_calls"`
	FailedCalls           []FailedCall   `json:"failed_calls,omitempty"`
	AvgQAScore            float64        `json:"avg_qa_score"`
	CriticalFindingsCount int            `json:"critical_findings_count"`
	ProcessingTimeSeconds float64        `json:"processing_time_seconds"`
	GeneratedAt           time.Time      `json:"generated_at"`
}

// ApprovalRate is the share of attempted calls that completed and passed,
// as a percentage.
func (b *BatchResult) ApprovalRate() float64 {
	if b.TotalCalls == 0 {
		return 0
	}
	return float64(b.PassedCalls) / float64(b.TotalCalls) * 100
}

// RequiresAttention lists the results a reviewer should inspect.
func (b *BatchResult) RequiresAttention(minScore float64) []*AuditResult {
	var out []*AuditResult
	for _, r := range b.Results {
		if r.RequiresAttention(minScore) {
			out = append(out, r)
		}
	}
	return out
}

// FullyFailed reports whether the batch attempted calls and none completed.
// Drives the CLI exit status.
func (b *BatchResult) FullyFailed() bool {
	return b.TotalCalls > 0 && b.CompletedCalls == 0 && len(b.FailedCalls) > 0
}
