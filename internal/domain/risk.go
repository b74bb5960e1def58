package domain

// KeywordMatch is one detected risk keyword with a bounded window of
// surrounding transcript text.
type KeywordMatch struct {
	Keyword     string `json:"keyword"`
	Occurrences int    `json:"occurrences"`
	Context     string `json:"context,omitempty"`
}

// RiskAssessment is the immutable output of the risk/rules engine for one
// call.
type RiskAssessment struct {
	RulesetID       string          `json:"ruleset_id"`
	RulesetVersion  int             `json:"ruleset_version"`
	RawScore        float64         `json:"raw_score"`
	Severity        FindingSeverity `json:"severity"`
	MatchedKeywords []KeywordMatch  `json:"matched_keywords,omitempty"`
	MissingPhrases  []string        `json:"missing_phrases,omitempty"`
	Similarity      float64         `json:"similarity"`
}
