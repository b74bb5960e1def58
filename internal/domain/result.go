package domain

import "time"

// QAScoreMetric is the reserved metric name carrying the compliance score.
const QAScoreMetric = "qa_score"

// DefaultPassThreshold is the minimum QA score for a passing audit.
const DefaultPassThreshold = 70.0

// AuditResult binds one call to everything the pipeline produced for it.
// Created only when the orchestrator reaches a terminal state.
type AuditResult struct {
	Call                  *Call           `json:"call"`
	Transcript            Transcript      `json:"transcript"`
	Findings              []Finding       `json:"findings,omitempty"`
	Metrics               []Metric        `json:"metrics,omitempty"`
	Risk                  *RiskAssessment `json:"risk,omitempty"`
	SentimentLabel        string          `json:"sentiment_label,omitempty"`
	SentimentConfidence   float64         `json:"sentiment_confidence,omitempty"`
	StagesCompleted       []string        `json:"stages_completed,omitempty"`
	ProcessingTimeSeconds float64         `json:"processing_time_seconds"`
	GeneratedAt           time.Time       `json:"generated_at"`
}

// QAScore extracts the compliance score metric, or nil when the QA stage
// did not run.
func (r *AuditResult) QAScore() *float64 {
	for _, m := range r.Metrics {
		if m.Name == QAScoreMetric {
			v := m.Value
			return &v
		}
	}
	return nil
}

// CriticalFindings returns the subset of findings graded critical.
func (r *AuditResult) CriticalFindings() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.IsCritical() {
			out = append(out, f)
		}
	}
	return out
}

// MetricByName looks a metric up, reporting whether it exists.
func (r *AuditResult) MetricByName(name string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

// IsPassing reports whether the audit meets the minimum QA score with no
// critical findings. Calls whose QA stage did not run pass on findings
// alone.
func (r *AuditResult) IsPassing(minScore float64) bool {
	if r.Call == nil || r.Call.Status != StatusCompleted {
		return false
	}
	if len(r.CriticalFindings()) > 0 {
		return false
	}
	if qa := r.QAScore(); qa != nil && *qa < minScore {
		return false
	}
	return true
}

// RequiresAttention flags results a reviewer should look at: failed calls,
// failing audits, or any critical finding.
func (r *AuditResult) RequiresAttention(minScore float64) bool {
	if r.Call != nil && r.Call.Status == StatusFailed {
		return true
	}
	return !r.IsPassing(minScore) || len(r.CriticalFindings()) > 0
}
