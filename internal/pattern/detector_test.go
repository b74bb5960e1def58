package pattern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-audit-go/internal/domain"
	"call-audit-go/internal/sentiment"
)

func findingByTitle(findings []domain.Finding, fragment string) (domain.Finding, bool) {
	for _, f := range findings {
		if strings.Contains(f.Title, fragment) {
			return f, true
		}
	}
	return domain.Finding{}, false
}

func TestDetectEscalation(t *testing.T) {
	findings := NewDetector().Detect(Input{
		Transcript: domain.Transcript{Text: "quiero hablar con su supervisor ahora mismo"},
	})

	f, ok := findingByTitle(findings, "Escalación")
	require.True(t, ok)
	assert.Equal(t, domain.CategoryPattern, f.Category)
	assert.Equal(t, domain.SeverityHigh, f.Severity)
	assert.Contains(t, f.Evidence, "supervisor")
}

func TestDetectCancellationIntent(t *testing.T) {
	findings := NewDetector().Detect(Input{
		Transcript: domain.Transcript{Text: "si no me resuelven voy a cancelar el servicio"},
	})

	f, ok := findingByTitle(findings, "cancelación")
	require.True(t, ok)
	assert.Equal(t, domain.SeverityCritical, f.Severity)
	assert.NoError(t, f.Validate())
}

func TestDetectRepeatedWords(t *testing.T) {
	text := strings.Repeat("factura ", 5) + "hola hola hola hola hola"
	findings := NewDetector().Detect(Input{Transcript: domain.Transcript{Text: text}})

	f, ok := findingByTitle(findings, "repetidas")
	require.True(t, ok)
	// "hola" is too short to count, "factura" qualifies.
	assert.Equal(t, "factura", f.Evidence)
}

func TestDetectLowQAAnomaly(t *testing.T) {
	lowScore := 33.3
	findings := NewDetector().Detect(Input{
		Transcript: domain.Transcript{Text: "todo bien"},
		QAScore:    &lowScore,
	})

	f, ok := findingByTitle(findings, "QA")
	require.True(t, ok)
	assert.Equal(t, domain.CategoryAnomaly, f.Category)
	assert.Equal(t, domain.SeverityHigh, f.Severity)
}

func TestDetectShortCallAnomaly(t *testing.T) {
	m, err := domain.NewMetric("call_duration", 12, domain.MetricSeconds, domain.MetricPerformance, "s", nil, nil)
	require.NoError(t, err)

	findings := NewDetector().Detect(Input{
		Transcript: domain.Transcript{Text: "hola adios"},
		Metrics:    []domain.Metric{m},
	})

	_, ok := findingByTitle(findings, "corta")
	assert.True(t, ok)
}

func TestDetectNothingOnCleanCall(t *testing.T) {
	goodScore := 100.0
	findings := NewDetector().Detect(Input{
		Transcript: domain.Transcript{Text: "buenos días gracias por llamar todo resuelto"},
		QAScore:    &goodScore,
	})
	assert.Empty(t, findings)
}

func TestCorrelateRisk(t *testing.T) {
	d := NewDetector()
	critical := &domain.RiskAssessment{Severity: domain.SeverityCritical}
	negative := &sentiment.Result{Label: sentiment.LabelNegative, Confidence: 0.8}
	positive := &sentiment.Result{Label: sentiment.LabelPositive, Confidence: 0.8}

	f, ok := d.CorrelateRisk(critical, negative)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityCritical, f.Severity)
	assert.NoError(t, f.Validate())

	_, ok = d.CorrelateRisk(critical, positive)
	assert.False(t, ok)
	_, ok = d.CorrelateRisk(&domain.RiskAssessment{Severity: domain.SeverityHigh}, negative)
	assert.False(t, ok)
	_, ok = d.CorrelateRisk(nil, negative)
	assert.False(t, ok)
}
