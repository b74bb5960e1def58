// Package qa scores a transcript against a fixed set of call-protocol
// checks. Every check either passes or fails; the compliance score is the
// share of applicable checks that passed.
package qa

import (
	"fmt"
	"math"
	"strings"

	"call-audit-go/internal/domain"
	"call-audit-go/internal/textnorm"
)

// CheckType identifies one protocol check.
type CheckType string

const (
	CheckGreeting       CheckType = "greeting"
	CheckIdentification CheckType = "identification"
	CheckClosing        CheckType = "closing"
	CheckProhibitedTone CheckType = "prohibited_tone"
	CheckEmpathy        CheckType = "empathy"
	CheckResolution     CheckType = "resolution_confirmed"
)

// severity per check type is fixed at this layer, not user-configurable.
var checkSeverity = map[CheckType]domain.FindingSeverity{
	CheckGreeting:       domain.SeverityMedium,
	CheckIdentification: domain.SeverityHigh,
	CheckClosing:        domain.SeverityLow,
	CheckProhibitedTone: domain.SeverityCritical,
	CheckEmpathy:        domain.SeverityLow,
	CheckResolution:     domain.SeverityMedium,
}

// Check is one protocol rule: a set of phrases that must be present, or
// (for forbidden checks) must all be absent.
type Check struct {
	Type      CheckType
	Name      string
	Phrases   []string
	Forbidden bool
}

// Engine evaluates transcripts against the protocol checks.
type Engine struct {
	checks []Check
}

// NewEngine returns the engine with the standard agent protocol.
func NewEngine() *Engine {
	return &Engine{checks: []Check{
		{Type: CheckGreeting, Name: "Apertura de llamada",
			Phrases: []string{"buenos días", "buenas tardes", "buenas noches", "hola", "cómo puedo ayudarle", "en qué puedo ayudar"}},
		{Type: CheckIdentification, Name: "Identificación del agente",
			Phrases: []string{"mi nombre es", "le atiende", "le habla", "número de cliente", "número de cuenta"}},
		{Type: CheckClosing, Name: "Cierre de llamada",
			Phrases: []string{"gracias por llamar", "hasta luego", "que tenga un excelente día", "algo más en que pueda ayudarle"}},
		{Type: CheckProhibitedTone, Name: "Tono prohibido", Forbidden: true,
			Phrases: []string{"no puedo ayudarle", "no es mi problema", "cálmese", "es su culpa", "no me interesa"}},
		{Type: CheckEmpathy, Name: "Empatía demostrada",
			Phrases: []string{"entiendo", "comprendo", "lamento", "disculpe"}},
		{Type: CheckResolution, Name: "Confirmación de resolución",
			Phrases: []string{"resuelto", "solucionado", "está de acuerdo", "me confirma", "queda conforme"}},
	}}
}

// Evaluate runs every check and returns the compliance score in [0,100],
// rounded to one decimal, plus one finding per failing check.
func (e *Engine) Evaluate(transcript string) (float64, []domain.Finding) {
	applicable := 0
	passed := 0
	var findings []domain.Finding

	for _, check := range e.checks {
		applicable++
		ok, evidence := e.run(check, transcript)
		if ok {
			passed++
			continue
		}
		findings = append(findings, failureFinding(check, evidence))
	}

	if applicable == 0 {
		return 0, findings
	}
	score := math.Round(float64(passed)/float64(applicable)*1000) / 10
	return score, findings
}

func (e *Engine) run(check Check, transcript string) (bool, string) {
	if check.Forbidden {
		for _, phrase := range check.Phrases {
			if textnorm.ContainsPhrase(transcript, phrase) {
				return false, textnorm.ContextWindow(transcript, phrase, 40)
			}
		}
		return true, ""
	}
	for _, phrase := range check.Phrases {
		if textnorm.ContainsPhrase(transcript, phrase) {
			return true, ""
		}
	}
	return false, ""
}

func failureFinding(check Check, evidence string) domain.Finding {
	f := domain.Finding{
		Category: domain.CategoryCompliance,
		Severity: checkSeverity[check.Type],
		Title:    fmt.Sprintf("Protocolo incumplido: %s", check.Name),
		Evidence: evidence,
	}
	if check.Forbidden {
		f.Description = fmt.Sprintf("El agente usó lenguaje prohibido del grupo %q.", check.Name)
		f.Recommendation = "Retroalimentar al agente sobre el guion aprobado y escalar a su supervisor."
	} else {
		f.Description = fmt.Sprintf("No se detectó ninguna de las frases esperadas: %s.",
			strings.Join(check.Phrases, ", "))
	}
	return f
}
