// Package risk turns a transcript and the active ruleset into a graded risk
// assessment: keyword hits, missing required phrases, and similarity to the
// reference script, each weighted by the ruleset thresholds.
package risk

import (
	"math"

	"call-audit-go/internal/domain"
	"call-audit-go/internal/ruleset"
	"call-audit-go/internal/textnorm"
)

// contextRunes bounds the evidence window captured around each keyword hit.
const contextRunes = 40

// IndicatorConfig is the independent lexical risk scan the engine merges
// with the ruleset score. Severity between the two sources is resolved by
// maximum, never averaged.
type IndicatorConfig struct {
	CriticalKeywords []string
	CriticalWeight   float64
	WarningKeywords  []string
	WarningWeight    float64
}

// DefaultIndicators returns the built-in lexical scan used when no custom
// indicator lists are configured.
func DefaultIndicators() IndicatorConfig {
	return IndicatorConfig{
		CriticalKeywords: []string{"demanda", "abogado", "fraude", "estafa", "denuncia"},
		CriticalWeight:   3,
		WarningKeywords:  []string{"queja", "molesto", "insatisfecho", "problema", "error"},
		WarningWeight:    1,
	}
}

// Engine scores transcripts. Stateless between calls: identical transcript
// and ruleset always produce an identical assessment.
type Engine struct {
	indicators IndicatorConfig
}

// NewEngine builds an engine with the default lexical indicator scan.
func NewEngine() *Engine {
	return &Engine{indicators: DefaultIndicators()}
}

// NewEngineWithIndicators builds an engine with custom indicator lists.
func NewEngineWithIndicators(ind IndicatorConfig) *Engine {
	return &Engine{indicators: ind}
}

// Assess scores the transcript against the ruleset and the lexical
// indicator scan. An empty transcript has similarity 0 and misses every
// required phrase, so transcript-absent calls grade as risky by
// construction.
func (e *Engine) Assess(transcript string, rs ruleset.Ruleset) domain.RiskAssessment {
	th := rs.Thresholds

	var raw float64
	var matches []domain.KeywordMatch

	// Each distinct matched keyword contributes once, however often it
	// occurs; the occurrence count is kept as evidence.
	for _, kw := range rs.Keywords {
		count := textnorm.CountPhrase(transcript, kw)
		if count == 0 {
			continue
		}
		raw += th.KeywordWeight
		matches = append(matches, domain.KeywordMatch{
			Keyword:     kw,
			Occurrences: count,
			Context:     textnorm.ContextWindow(transcript, kw, contextRunes),
		})
	}

	var missing []string
	for _, phrase := range rs.RequiredPhrases {
		if textnorm.Normalize(phrase) == "" {
			continue
		}
		if !textnorm.ContainsPhrase(transcript, phrase) {
			missing = append(missing, phrase)
			raw += th.MissingRequiredWeight
		}
	}

	similarity := Jaccard(textnorm.TokenSet(transcript), textnorm.TokenSet(rs.TemplateText))
	raw += (1 - similarity) * th.SimilarityWeight

	// Independent lexical scan, merged additively on score and by maximum
	// on severity.
	indicatorScore, indicatorMatches := e.scanIndicators(transcript)
	raw += indicatorScore
	matches = append(matches, indicatorMatches...)

	raw = round2(raw)
	severity := domain.MaxSeverity(
		ResolveSeverity(raw, th),
		ResolveSeverity(indicatorScore, th),
	)

	return domain.RiskAssessment{
		RulesetID:       rs.ID,
		RulesetVersion:  rs.Version,
		RawScore:        raw,
		Severity:        severity,
		MatchedKeywords: matches,
		MissingPhrases:  missing,
		Similarity:      similarity,
	}
}

func (e *Engine) scanIndicators(transcript string) (float64, []domain.KeywordMatch) {
	var score float64
	var matches []domain.KeywordMatch
	scan := func(keywords []string, weight float64) {
		for _, kw := range keywords {
			count := textnorm.CountPhrase(transcript, kw)
			if count == 0 {
				continue
			}
			score += weight
			matches = append(matches, domain.KeywordMatch{
				Keyword:     kw,
				Occurrences: count,
				Context:     textnorm.ContextWindow(transcript, kw, contextRunes),
			})
		}
	}
	scan(e.indicators.CriticalKeywords, e.indicators.CriticalWeight)
	scan(e.indicators.WarningKeywords, e.indicators.WarningWeight)
	return score, matches
}

// ResolveSeverity maps a raw score onto the ruleset cut points, highest
// first. Scores below the medium cut point grade low.
func ResolveSeverity(score float64, th ruleset.Thresholds) domain.FindingSeverity {
	switch {
	case score >= th.Critical:
		return domain.SeverityCritical
	case score >= th.High:
		return domain.SeverityHigh
	case score >= th.Medium:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// Jaccard is intersection over union of two token sets: 1.0 for identical
// sets, 0.0 when either set is empty or they are disjoint. Rounded to three
// decimals like the reporting layer expects.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return math.Round(float64(intersection)/float64(union)*1000) / 1000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
