// Package sentiment defines the sentiment classifier boundary and ships a
// lexicon-based local analyzer as the default implementation. Failures here
// are never fatal to a call.
package sentiment

import (
	"context"

	"call-audit-go/internal/textnorm"
)

// Labels on the five-level scale the reports use.
const (
	LabelVeryNegative = "very_negative"
	LabelNegative     = "negative"
	LabelNeutral      = "neutral"
	LabelPositive     = "positive"
	LabelVeryPositive = "very_positive"
)

// Result is the classifier output for one text.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// IsNegative reports whether the label sits on the negative side.
func (r Result) IsNegative() bool {
	return r.Label == LabelNegative || r.Label == LabelVeryNegative
}

// Analyzer is the external classifier boundary: text in, label plus
// confidence out.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (Result, error)
}

// LexiconAnalyzer grades text by counting polarity words. Zero cost, runs
// in-process, and good enough as a default while a model-backed analyzer
// is plugged in behind the same interface.
type LexiconAnalyzer struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

// NewLexiconAnalyzer builds the analyzer with the built-in Spanish lexicon.
func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{
		positive: wordSet("gracias", "excelente", "perfecto", "resuelto", "amable", "bien", "genial", "contento", "satisfecho"),
		negative: wordSet("problema", "queja", "molesto", "mal", "error", "terrible", "enojado", "inaceptable", "pésimo", "cancelar"),
	}
}

// Analyze never returns an error; the lexicon path has no failure mode.
func (a *LexiconAnalyzer) Analyze(_ context.Context, text string) (Result, error) {
	var pos, neg int
	for _, tok := range textnorm.Tokens(text) {
		if _, ok := a.positive[tok]; ok {
			pos++
		}
		if _, ok := a.negative[tok]; ok {
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return Result{Label: LabelNeutral, Confidence: 0.5}, nil
	}
	balance := float64(pos-neg) / float64(total)
	confidence := float64(total) / float64(total+2) // shrink toward neutral on few hits

	label := LabelNeutral
	switch {
	case balance <= -0.6:
		label = LabelVeryNegative
	case balance <= -0.2:
		label = LabelNegative
	case balance >= 0.6:
		label = LabelVeryPositive
	case balance >= 0.2:
		label = LabelPositive
	}
	return Result{Label: label, Confidence: confidence}, nil
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
