// Package pattern is the advanced-depth stage: it scans the transcript and
// the stage outputs gathered so far for conversational patterns and
// cross-signal anomalies, reported as extra findings.
package pattern

import (
	"fmt"
	"strings"

	"call-audit-go/internal/domain"
	"call-audit-go/internal/sentiment"
	"call-audit-go/internal/textnorm"
)

// Input is everything the detector may correlate. Fields other than the
// transcript are optional; the detector skips rules whose inputs are
// missing.
type Input struct {
	Transcript domain.Transcript
	Metrics    []domain.Metric
	Sentiment  *sentiment.Result
	QAScore    *float64
}

// Detector finds patterns and anomalies.
type Detector struct {
	escalationKeywords []string
}

func NewDetector() *Detector {
	return &Detector{
		escalationKeywords: []string{"escalación", "supervisor", "gerente", "jefe"},
	}
}

// Detect runs every rule and returns the combined findings.
func (d *Detector) Detect(in Input) []domain.Finding {
	var findings []domain.Finding
	findings = append(findings, d.patterns(in.Transcript)...)
	findings = append(findings, d.anomalies(in)...)
	return findings
}

func (d *Detector) patterns(t domain.Transcript) []domain.Finding {
	var findings []domain.Finding

	var escalated []string
	for _, kw := range d.escalationKeywords {
		if textnorm.ContainsPhrase(t.Text, kw) {
			escalated = append(escalated, kw)
		}
	}
	if len(escalated) > 0 {
		findings = append(findings, domain.Finding{
			Category:    domain.CategoryPattern,
			Severity:    domain.SeverityHigh,
			Title:       "Escalación detectada",
			Description: "El cliente solicitó hablar con una instancia superior.",
			Evidence:    strings.Join(escalated, ", "),
		})
	}

	if textnorm.ContainsPhrase(t.Text, "cancelación") || textnorm.ContainsPhrase(t.Text, "cancelar") {
		findings = append(findings, domain.Finding{
			Category:       domain.CategoryPattern,
			Severity:       domain.SeverityCritical,
			Title:          "Intención de cancelación",
			Description:    "La conversación contiene una intención explícita de cancelar el servicio.",
			Recommendation: "Derivar al equipo de retención dentro de las próximas 24 horas.",
		})
	}

	if repeated := repeatedWords(t.Text); len(repeated) > 0 {
		findings = append(findings, domain.Finding{
			Category:    domain.CategoryPattern,
			Severity:    domain.SeverityMedium,
			Title:       "Palabras repetidas",
			Description: "El cliente repite los mismos términos, posible señal de frustración.",
			Evidence:    strings.Join(repeated, ", "),
		})
	}
	return findings
}

func (d *Detector) anomalies(in Input) []domain.Finding {
	var findings []domain.Finding

	if in.QAScore != nil && *in.QAScore < 50 {
		findings = append(findings, domain.Finding{
			Category:    domain.CategoryAnomaly,
			Severity:    domain.SeverityHigh,
			Title:       "Cumplimiento QA muy bajo",
			Description: fmt.Sprintf("El puntaje QA %.1f%% está por debajo del umbral de anomalía (50%%).", *in.QAScore),
		})
	}

	for _, m := range in.Metrics {
		if m.Name == "call_duration" && m.Value > 0 && m.Value < 30 {
			findings = append(findings, domain.Finding{
				Category:    domain.CategoryAnomaly,
				Severity:    domain.SeverityMedium,
				Title:       "Llamada muy corta",
				Description: fmt.Sprintf("La llamada duró %.0fs, menos del mínimo esperado de 30s.", m.Value),
			})
		}
	}
	return findings
}

// CorrelateRisk checks one cross-signal rule that only resolves after the
// risk stage: a critical risk assessment paired with a negative sentiment.
func (d *Detector) CorrelateRisk(risk *domain.RiskAssessment, s *sentiment.Result) (domain.Finding, bool) {
	if risk == nil || s == nil {
		return domain.Finding{}, false
	}
	if risk.Severity != domain.SeverityCritical || !s.IsNegative() {
		return domain.Finding{}, false
	}
	return domain.Finding{
		Category:       domain.CategoryAnomaly,
		Severity:       domain.SeverityCritical,
		Title:          "Riesgo crítico con sentimiento negativo",
		Description:    "Coinciden un riesgo crítico y un sentimiento negativo en la misma llamada.",
		Recommendation: "Revisión humana inmediata de la llamada.",
	}, true
}

// repeatedWords returns words longer than five characters that occur five or
// more times.
func repeatedWords(text string) []string {
	counts := map[string]int{}
	order := []string{}
	for _, tok := range textnorm.Tokens(text) {
		if len([]rune(tok)) <= 5 {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}
	var out []string
	for _, tok := range order {
		if counts[tok] >= 5 {
			out = append(out, tok)
		}
	}
	return out
}
