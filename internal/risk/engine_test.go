package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-audit-go/internal/domain"
	"call-audit-go/internal/ruleset"
	"call-audit-go/internal/textnorm"
)

func testRuleset() ruleset.Ruleset {
	return ruleset.Ruleset{
		ID:              "test",
		Name:            "test",
		Keywords:        []string{"reclamo"},
		RequiredPhrases: []string{"gracias por llamar"},
		TemplateText:    "hola buenos tardes",
		Thresholds: ruleset.Thresholds{
			KeywordWeight:         2,
			MissingRequiredWeight: 3,
			SimilarityWeight:      5,
			Critical:              10,
			High:                  7,
			Medium:                4,
		},
		Version: 1,
	}
}

// bareEngine has no lexical indicators, so only the ruleset terms score.
func bareEngine() *Engine {
	return NewEngineWithIndicators(IndicatorConfig{})
}

func TestAssessMissingPhraseAndHalfSimilarity(t *testing.T) {
	// Token sets {hola,buenos,dias} vs {hola,buenos,tardes}: Jaccard 0.5.
	// No keyword hit, one missing phrase: 3 + (1-0.5)*5 = 5.5.
	a := bareEngine().Assess("hola buenos dias", testRuleset())

	assert.InDelta(t, 5.5, a.RawScore, 1e-9)
	assert.Equal(t, domain.SeverityMedium, a.Severity)
	assert.InDelta(t, 0.5, a.Similarity, 1e-9)
	assert.Empty(t, a.MatchedKeywords)
	assert.Equal(t, []string{"gracias por llamar"}, a.MissingPhrases)
}

func TestAssessKeywordCountsOncePerDistinctKeyword(t *testing.T) {
	rs := testRuleset()
	once := bareEngine().Assess("hola buenos dias reclamo gracias por llamar", rs)
	thrice := bareEngine().Assess("hola buenos dias reclamo reclamo reclamo gracias por llamar", rs)

	require.Len(t, once.MatchedKeywords, 1)
	require.Len(t, thrice.MatchedKeywords, 1)
	assert.Equal(t, 1, once.MatchedKeywords[0].Occurrences)
	assert.Equal(t, 3, thrice.MatchedKeywords[0].Occurrences)
	// Repetition changes the similarity term only through extra tokens, the
	// keyword term stays a single weight.
	assert.NotZero(t, once.MatchedKeywords[0].Context)
}

func TestAssessScoreMonotonicInSignals(t *testing.T) {
	rs := testRuleset()
	clean := bareEngine().Assess("hola buenos tardes gracias por llamar", rs)
	withKeyword := bareEngine().Assess("hola buenos tardes gracias por llamar reclamo", rs)

	assert.Greater(t, withKeyword.RawScore, clean.RawScore)
}

func TestAssessEmptyTranscript(t *testing.T) {
	a := bareEngine().Assess("", testRuleset())

	// 0 keywords + 3 missing + (1-0)*5 = 8.
	assert.InDelta(t, 8.0, a.RawScore, 1e-9)
	assert.Equal(t, domain.SeverityHigh, a.Severity)
	assert.Zero(t, a.Similarity)
	assert.Equal(t, []string{"gracias por llamar"}, a.MissingPhrases)
}

func TestAssessDeterministic(t *testing.T) {
	rs := testRuleset()
	first := NewEngine().Assess("tengo un problema con mi reclamo", rs)
	second := NewEngine().Assess("tengo un problema con mi reclamo", rs)
	assert.Equal(t, first, second)
}

func TestAssessIndicatorSeverityMergesByMax(t *testing.T) {
	rs := testRuleset()
	rs.RequiredPhrases = nil
	rs.TemplateText = "voy a presentar una demanda contra ustedes"

	// Near-identical transcript keeps the ruleset score low, the critical
	// indicator "demanda" still scores 3 on its own which stays below the
	// medium cut. Severity comes from the higher of the two resolutions.
	a := NewEngine().Assess("voy a presentar una demanda contra ustedes", rs)
	assert.Equal(t, domain.SeverityLow, a.Severity)

	// Three critical indicators push the indicator score to 9, above the
	// high cut on its own.
	b := NewEngine().Assess("demanda fraude estafa", rs)
	assert.GreaterOrEqual(t, b.Severity.Rank(), domain.SeverityHigh.Rank())
}

func TestResolveSeverityCutPoints(t *testing.T) {
	th := testRuleset().Thresholds
	assert.Equal(t, domain.SeverityLow, ResolveSeverity(3.99, th))
	assert.Equal(t, domain.SeverityMedium, ResolveSeverity(4, th))
	assert.Equal(t, domain.SeverityHigh, ResolveSeverity(7, th))
	assert.Equal(t, domain.SeverityCritical, ResolveSeverity(10, th))
	assert.Equal(t, domain.SeverityCritical, ResolveSeverity(99, th))
}

func TestJaccard(t *testing.T) {
	set := func(s string) map[string]struct{} { return textnorm.TokenSet(s) }

	assert.Equal(t, 1.0, Jaccard(set("uno dos tres"), set("tres dos uno")))
	assert.Equal(t, 0.0, Jaccard(set("uno dos"), set("tres cuatro")))
	assert.Equal(t, 0.0, Jaccard(set(""), set("uno")))
	assert.Equal(t, 0.0, Jaccard(set("uno"), set("")))

	// Symmetric.
	a, b := set("hola buenos dias"), set("hola buenos tardes")
	assert.Equal(t, Jaccard(a, b), Jaccard(b, a))
	assert.InDelta(t, 0.5, Jaccard(a, b), 1e-9)
}
