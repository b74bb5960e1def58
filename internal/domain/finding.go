package domain

import "fmt"

// FindingSeverity grades how serious an audit observation is.
type FindingSeverity string

const (
	SeverityCritical FindingSeverity = "critical"
	SeverityHigh     FindingSeverity = "high"
	SeverityMedium   FindingSeverity = "medium"
	SeverityLow      FindingSeverity = "low"
	SeverityInfo     FindingSeverity = "info"
)

var severityRank = map[FindingSeverity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank orders severities from info (0) to critical (4).
func (s FindingSeverity) Rank() int {
	return severityRank[s]
}

// MaxSeverity returns the higher of two severities. Merged risk signals keep
// the worst grade, never an average.
func MaxSeverity(a, b FindingSeverity) FindingSeverity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// FindingCategory classifies the source of an audit observation.
type FindingCategory string

const (
	CategoryCompliance FindingCategory = "compliance"
	CategoryQuality    FindingCategory = "quality"
	CategorySentiment  FindingCategory = "sentiment"
	CategoryRisk       FindingCategory = "risk"
	CategoryPattern    FindingCategory = "pattern"
	CategoryAnomaly    FindingCategory = "anomaly"
	CategoryError      FindingCategory = "error"
)

// Finding is a single audit observation. Value object: compared by value,
// never mutated after construction.
type Finding struct {
	Category       FindingCategory `json:"category"`
	Severity       FindingSeverity `json:"severity"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Evidence       string          `json:"evidence,omitempty"`
	Recommendation string          `json:"recommendation,omitempty"`
}

// NewFinding builds a finding, enforcing that critical findings always carry
// a recommendation.
func NewFinding(category FindingCategory, severity FindingSeverity, title, description string) (Finding, error) {
	f := Finding{Category: category, Severity: severity, Title: title, Description: description}
	if err := f.Validate(); err != nil {
		return Finding{}, err
	}
	return f, nil
}

// Validate checks the finding invariants.
func (f Finding) Validate() error {
	if f.Title == "" {
		return fmt.Errorf("finding title must not be empty")
	}
	if f.Severity == SeverityCritical && f.Recommendation == "" {
		return fmt.Errorf("critical finding %q must have a recommendation", f.Title)
	}
	return nil
}

// IsCritical reports whether the finding demands immediate action.
func (f Finding) IsCritical() bool {
	return f.Severity == SeverityCritical
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s", f.Severity, f.Title)
}
