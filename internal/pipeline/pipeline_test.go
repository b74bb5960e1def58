package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-audit-go/internal/asr"
	"call-audit-go/internal/domain"
	"call-audit-go/internal/ruleset"
	"call-audit-go/internal/sentiment"
)

type stubEngine struct {
	transcript domain.Transcript
	err        error
}

func (s stubEngine) Transcribe(_ context.Context, _ string) (domain.Transcript, error) {
	return s.transcript, s.err
}

// stalledAnalyzer blocks until its stage context expires.
type stalledAnalyzer struct{}

func (stalledAnalyzer) Analyze(ctx context.Context, _ string) (sentiment.Result, error) {
	<-ctx.Done()
	return sentiment.Result{}, ctx.Err()
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(_ context.Context, _ string) (sentiment.Result, error) {
	return sentiment.Result{}, errors.New("classifier unavailable")
}

func testRulesets(t *testing.T) *ruleset.Store {
	t.Helper()
	s, err := ruleset.NewStore(filepath.Join(t.TempDir(), "rulesets.json"))
	require.NoError(t, err)
	return s
}

func newTestOrchestrator(t *testing.T, engine asr.Engine, analyzer sentiment.Analyzer) *Orchestrator {
	t.Helper()
	if analyzer == nil {
		analyzer = sentiment.NewLexiconAnalyzer()
	}
	return New(engine, analyzer, testRulesets(t), Options{})
}

func TestProcessStandardDepth(t *testing.T) {
	orch := newTestOrchestrator(t, asr.MockEngine{}, nil)
	call := domain.NewCall("/audio/llamada.wav", domain.DepthStandard)

	result := orch.Process(context.Background(), call)

	assert.Equal(t, domain.StatusCompleted, call.Status)
	assert.Equal(t, []string{"transcription", "sentiment", "qa", "kpi", "risk"}, result.StagesCompleted)
	assert.NotNil(t, result.QAScore())
	assert.NotNil(t, result.Risk)
	assert.NotEmpty(t, result.SentimentLabel)
	assert.False(t, result.Transcript.IsEmpty())
	assert.Equal(t, result.Transcript.Duration, call.DurationSeconds)
}

func TestProcessBasicDepthSkipsAnalysisStages(t *testing.T) {
	orch := newTestOrchestrator(t, asr.MockEngine{}, nil)
	call := domain.NewCall("/audio/llamada.wav", domain.DepthBasic)

	result := orch.Process(context.Background(), call)

	assert.Equal(t, domain.StatusCompleted, call.Status)
	assert.Equal(t, []string{"transcription", "risk"}, result.StagesCompleted)
	assert.Nil(t, result.QAScore())
	assert.Empty(t, result.Metrics)
	assert.NotNil(t, result.Risk)
}

func TestProcessAdvancedDepthRunsPatternStage(t *testing.T) {
	orch := newTestOrchestrator(t, asr.MockEngine{}, nil)
	call := domain.NewCall("/audio/llamada.wav", domain.DepthAdvanced)

	result := orch.Process(context.Background(), call)

	assert.Equal(t, domain.StatusCompleted, call.Status)
	assert.Contains(t, result.StagesCompleted, "pattern")
}

func TestProcessTranscriptionFailureIsFatal(t *testing.T) {
	orch := newTestOrchestrator(t, stubEngine{err: asr.ErrTranscriptionFailed}, nil)
	call := domain.NewCall("/audio/roto.wav", domain.DepthStandard)

	result := orch.Process(context.Background(), call)

	assert.Equal(t, domain.StatusFailed, call.Status)
	assert.Contains(t, call.ErrorMessage, "transcription failed")
	assert.Empty(t, result.StagesCompleted)
	assert.Nil(t, result.Risk)
}

func TestProcessEmptyTranscriptIsFatal(t *testing.T) {
	orch := newTestOrchestrator(t, stubEngine{transcript: domain.Transcript{Text: "   "}}, nil)
	call := domain.NewCall("/audio/vacio.wav", domain.DepthStandard)

	orch.Process(context.Background(), call)

	assert.Equal(t, domain.StatusFailed, call.Status)
}

func TestProcessOptionalStageFailureDegrades(t *testing.T) {
	orch := newTestOrchestrator(t, asr.MockEngine{}, failingAnalyzer{})
	call := domain.NewCall("/audio/llamada.wav", domain.DepthStandard)

	result := orch.Process(context.Background(), call)

	assert.Equal(t, domain.StatusCompleted, call.Status)
	assert.NotContains(t, result.StagesCompleted, "sentiment")
	assert.Contains(t, result.StagesCompleted, "qa")
	assert.Contains(t, result.StagesCompleted, "risk")

	var errorFindings []domain.Finding
	for _, f := range result.Findings {
		if f.Category == domain.CategoryError {
			errorFindings = append(errorFindings, f)
		}
	}
	require.Len(t, errorFindings, 1)
	assert.Contains(t, errorFindings[0].Description, "classifier unavailable")
}

func TestProcessStageTimeoutDegradesWithHighSeverityFinding(t *testing.T) {
	orch := New(asr.MockEngine{}, stalledAnalyzer{}, testRulesets(t), Options{StageTimeout: 20 * time.Millisecond})
	call := domain.NewCall("/audio/llamada.wav", domain.DepthStandard)

	result := orch.Process(context.Background(), call)

	assert.Equal(t, domain.StatusCompleted, call.Status)
	assert.NotContains(t, result.StagesCompleted, "sentiment")
	assert.Contains(t, result.StagesCompleted, "qa")
	assert.Contains(t, result.StagesCompleted, "risk")

	var errorFindings []domain.Finding
	for _, f := range result.Findings {
		if f.Category == domain.CategoryError {
			errorFindings = append(errorFindings, f)
		}
	}
	require.Len(t, errorFindings, 1)
	assert.Equal(t, domain.SeverityHigh, errorFindings[0].Severity)
	assert.Contains(t, errorFindings[0].Description, context.DeadlineExceeded.Error())
}

func TestProcessCancelledContextFailsCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := newTestOrchestrator(t, asr.MockEngine{}, nil)
	call := domain.NewCall("/audio/llamada.wav", domain.DepthStandard)

	orch.Process(ctx, call)

	assert.Equal(t, domain.StatusFailed, call.Status)
	assert.Contains(t, call.ErrorMessage, "cancelled")
}

func TestProcessResultAlwaysTerminal(t *testing.T) {
	orch := newTestOrchestrator(t, stubEngine{err: errors.New("io error")}, nil)
	call := domain.NewCall("/audio/roto.wav", domain.DepthStandard)

	result := orch.Process(context.Background(), call)

	assert.True(t, result.Call.Status.IsTerminal())
	assert.Positive(t, result.ProcessingTimeSeconds)
	assert.False(t, result.GeneratedAt.IsZero())
}
