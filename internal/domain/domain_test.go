package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDepth(t *testing.T) {
	d, ok := ParseDepth("advanced")
	assert.True(t, ok)
	assert.Equal(t, DepthAdvanced, d)

	d, ok = ParseDepth("turbo")
	assert.False(t, ok)
	assert.Equal(t, DepthStandard, d)
}

func TestDepthGating(t *testing.T) {
	assert.False(t, DepthBasic.IncludesStandard())
	assert.False(t, DepthBasic.IncludesAdvanced())
	assert.True(t, DepthStandard.IncludesStandard())
	assert.False(t, DepthStandard.IncludesAdvanced())
	assert.True(t, DepthAdvanced.IncludesStandard())
	assert.True(t, DepthAdvanced.IncludesAdvanced())
}

func TestCallLifecycle(t *testing.T) {
	call := NewCall("/audio/llamada-01.wav", DepthStandard)

	assert.NotEmpty(t, call.ID)
	assert.Equal(t, "llamada-01.wav", call.Filename)
	assert.Equal(t, StatusPending, call.Status)
	assert.False(t, call.Status.IsTerminal())

	call.SetFailed("transcription failed")
	assert.Equal(t, StatusFailed, call.Status)
	assert.True(t, call.Status.IsTerminal())
	assert.Equal(t, "transcription failed", call.ErrorMessage)
}

func TestCriticalFindingRequiresRecommendation(t *testing.T) {
	_, err := NewFinding(CategoryRisk, SeverityCritical, "Amenaza legal", "El cliente menciona una demanda.")
	assert.Error(t, err)

	f := Finding{
		Category:       CategoryRisk,
		Severity:       SeverityCritical,
		Title:          "Amenaza legal",
		Description:    "El cliente menciona una demanda.",
		Recommendation: "Escalar al área legal.",
	}
	assert.NoError(t, f.Validate())

	_, err = NewFinding(CategoryQuality, SeverityLow, "Cierre débil", "Sin despedida.")
	assert.NoError(t, err)
}

func TestMaxSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, MaxSeverity(SeverityMedium, SeverityCritical))
	assert.Equal(t, SeverityHigh, MaxSeverity(SeverityHigh, SeverityLow))
	assert.Equal(t, SeverityInfo, MaxSeverity(SeverityInfo, SeverityInfo))
}

func TestMetricStatusLadder(t *testing.T) {
	min, target := Thresholds(100, 140)
	cases := []struct {
		value float64
		want  MetricStatus
	}{
		{150, StatusExcellent},
		{140, StatusExcellent},
		{130, StatusGood}, // upper 30% of the 100..140 band
		{110, StatusAcceptable},
		{100, StatusAcceptable},
		{80, StatusPoor},
		{40, StatusCriticalMetric}, // more than 50% below min
	}
	for _, tc := range cases {
		m, err := NewMetric("words_per_minute", tc.value, MetricScore, MetricPerformance, "wpm", min, target)
		require.NoError(t, err)
		assert.Equal(t, tc.want, m.Status, "value=%v", tc.value)
	}
}

func TestMetricValidation(t *testing.T) {
	_, err := NewMetric("qa_score", 120, MetricPercentage, MetricQuality, "%", nil, nil)
	assert.Error(t, err)

	_, err = NewMetric("ratio", 1.2, MetricRatio, MetricQuality, "", nil, nil)
	assert.Error(t, err)

	min, target := Thresholds(50, 40)
	_, err = NewMetric("inverted", 45, MetricScore, MetricQuality, "", min, target)
	assert.Error(t, err)
}

func passingResult() *AuditResult {
	call := NewCall("/audio/ok.wav", DepthStandard)
	call.Status = StatusCompleted
	min, target := Thresholds(DefaultPassThreshold, 90)
	qa, _ := NewMetric(QAScoreMetric, 85, MetricPercentage, MetricQuality, "%", min, target)
	return &AuditResult{Call: call, Metrics: []Metric{qa}}
}

func TestIsPassing(t *testing.T) {
	r := passingResult()
	assert.True(t, r.IsPassing(DefaultPassThreshold))
	assert.False(t, r.RequiresAttention(DefaultPassThreshold))
}

func TestIsPassingFailsOnLowScore(t *testing.T) {
	r := passingResult()
	r.Metrics[0].Value = 60
	assert.False(t, r.IsPassing(DefaultPassThreshold))
	assert.True(t, r.RequiresAttention(DefaultPassThreshold))
}

func TestIsPassingFailsOnCriticalFinding(t *testing.T) {
	r := passingResult()
	r.Findings = append(r.Findings, Finding{
		Category:       CategoryRisk,
		Severity:       SeverityCritical,
		Title:          "Amenaza legal",
		Recommendation: "Escalar.",
	})
	assert.False(t, r.IsPassing(DefaultPassThreshold))
	require.Len(t, r.CriticalFindings(), 1)
}

func TestIsPassingFailsOnNonTerminalCall(t *testing.T) {
	r := passingResult()
	r.Call.Status = StatusQA
	assert.False(t, r.IsPassing(DefaultPassThreshold))
}

func TestIsPassingWithoutQAStage(t *testing.T) {
	call := NewCall("/audio/basic.wav", DepthBasic)
	call.Status = StatusCompleted
	r := &AuditResult{Call: call}

	assert.Nil(t, r.QAScore())
	assert.True(t, r.IsPassing(DefaultPassThreshold))
}

func TestBatchResultAggregates(t *testing.T) {
	failed := NewCall("/audio/bad.wav", DepthStandard)
	failed.SetFailed("boom")

	b := &BatchResult{
		TotalCalls:     3,
		CompletedCalls: 2,
		PassedCalls:    1,
		Results:        []*AuditResult{passingResult(), {Call: failed}},
		FailedCalls:    []FailedCall{{CallID: failed.ID, Filename: failed.Filename, Error: "boom"}},
	}

	assert.InDelta(t, 33.3, b.ApprovalRate(), 0.1)
	assert.False(t, b.FullyFailed())
	assert.Len(t, b.RequiresAttention(DefaultPassThreshold), 1)

	empty := &BatchResult{}
	assert.Zero(t, empty.ApprovalRate())
	assert.False(t, empty.FullyFailed())

	allFailed := &BatchResult{TotalCalls: 2, FailedCalls: []FailedCall{{}, {}}}
	assert.True(t, allFailed.FullyFailed())
}
