package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-audit-go/internal/domain"
)

func completedResult(t *testing.T, filename string) *domain.AuditResult {
	t.Helper()
	call := domain.NewCall("/audio/"+filename, domain.DepthStandard)
	call.Status = domain.StatusCompleted
	min, target := domain.Thresholds(domain.DefaultPassThreshold, 90)
	qa, err := domain.NewMetric(domain.QAScoreMetric, 85, domain.MetricPercentage, domain.MetricQuality, "%", min, target)
	require.NoError(t, err)
	return &domain.AuditResult{
		Call:    call,
		Metrics: []domain.Metric{qa},
		Risk:    &domain.RiskAssessment{RulesetID: "default", RulesetVersion: 1, RawScore: 5.5, Severity: domain.SeverityMedium},
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	result := completedResult(t, "uno.wav")
	require.NoError(t, s.Save(ctx, "batch-1", result))

	loaded, err := s.Get(ctx, result.Call.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Call.ID, loaded.Call.ID)
	assert.Equal(t, domain.StatusCompleted, loaded.Call.Status)
	require.NotNil(t, loaded.QAScore())
	assert.Equal(t, 85.0, *loaded.QAScore())
	require.NotNil(t, loaded.Risk)
	assert.Equal(t, domain.SeverityMedium, loaded.Risk.Severity)
}

func TestSaveIsIdempotentPerCallID(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	result := completedResult(t, "uno.wav")
	require.NoError(t, s.Save(ctx, "batch-1", result))

	result.Call.SetFailed("retried and failed")
	require.NoError(t, s.Save(ctx, "batch-1", result))

	all, err := s.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.StatusFailed, all[0].Call.Status)
}

func TestGetUnknownCallID(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(context.Background(), "no-such-call")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryFilters(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	ok := completedResult(t, "uno.wav")
	require.NoError(t, s.Save(ctx, "batch-1", ok))

	failed := completedResult(t, "dos.wav")
	failed.Call.SetFailed("boom")
	require.NoError(t, s.Save(ctx, "batch-2", failed))

	byStatus, err := s.Query(ctx, Filter{Status: domain.StatusFailed})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, failed.Call.ID, byStatus[0].Call.ID)

	byBatch, err := s.Query(ctx, Filter{BatchID: "batch-1"})
	require.NoError(t, err)
	require.Len(t, byBatch, 1)
	assert.Equal(t, ok.Call.ID, byBatch[0].Call.ID)

	bySeverity, err := s.Query(ctx, Filter{RiskSeverity: domain.SeverityMedium, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, bySeverity, 2)

	none, err := s.Query(ctx, Filter{BatchID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOpenRejectsSecondInstance(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(dir)
	require.NoError(t, err)

	_, err = Open(dir)
	assert.Error(t, err)

	require.NoError(t, first.Close())
	second, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestSaveRejectsResultWithoutCall(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.Save(context.Background(), "", &domain.AuditResult{}))
	assert.Error(t, s.Save(context.Background(), "", nil))
}
