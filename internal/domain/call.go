package domain

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// CallStatus is the lifecycle state of a call moving through the pipeline.
type CallStatus string

const (
	StatusPending       CallStatus = "pending"
	StatusTranscribing  CallStatus = "transcribing"
	StatusSentiment     CallStatus = "sentiment"
	StatusQA            CallStatus = "qa"
	StatusKPI           CallStatus = "kpi"
	StatusPattern       CallStatus = "pattern"
	StatusRiskAssessing CallStatus = "risk_assessing"
	StatusCompleted     CallStatus = "completed"
	StatusFailed        CallStatus = "failed"
)

// IsTerminal reports whether the status admits no further transitions.
func (s CallStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// AnalysisDepth selects which pipeline stages run for a call.
type AnalysisDepth string

const (
	DepthBasic    AnalysisDepth = "basic"
	DepthStandard AnalysisDepth = "standard"
	DepthAdvanced AnalysisDepth = "advanced"
)

// ParseDepth validates a depth string, falling back to standard for
// unknown values the way the original CLI did.
func ParseDepth(s string) (AnalysisDepth, bool) {
	switch AnalysisDepth(s) {
	case DepthBasic, DepthStandard, DepthAdvanced:
		return AnalysisDepth(s), true
	}
	return DepthStandard, false
}

// IncludesStandard reports whether sentiment/QA/KPI stages run at this depth.
func (d AnalysisDepth) IncludesStandard() bool {
	return d == DepthStandard || d == DepthAdvanced
}

// IncludesAdvanced reports whether the pattern/anomaly stage runs.
func (d AnalysisDepth) IncludesAdvanced() bool {
	return d == DepthAdvanced
}

// Call is one audio recording under audit. The orchestrator is the only
// writer of Status and ErrorMessage; once terminal the call is not mutated.
type Call struct {
	ID              string        `json:"call_id"`
	Filename        string        `json:"filename"`
	AudioPath       string        `json:"audio_path"`
	DurationSeconds float64       `json:"duration_seconds"`
	Depth           AnalysisDepth `json:"depth"`
	Status          CallStatus    `json:"status"`
	ErrorMessage    string        `json:"error_message,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// NewCall enqueues a recording at the requested depth.
func NewCall(audioPath string, depth AnalysisDepth) *Call {
	return &Call{
		ID:        uuid.NewString(),
		Filename:  filepath.Base(audioPath),
		AudioPath: audioPath,
		Depth:     depth,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// SetFailed moves the call to the failed terminal state with a reason.
func (c *Call) SetFailed(reason string) {
	c.Status = StatusFailed
	c.ErrorMessage = reason
}

func (c *Call) String() string {
	return fmt.Sprintf("Call(%s, file=%s, status=%s)", c.ID, c.Filename, c.Status)
}
