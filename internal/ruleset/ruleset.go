// Package ruleset loads, versions, and resolves the configurable risk and
// compliance rules without code changes. Rulesets live in a JSON collection
// on disk; a corrupt or missing store self-heals to a built-in default so
// processing never blocks on configuration.
package ruleset

import (
	"fmt"
	"time"
)

// Thresholds carries the scoring weights and severity cut points of a
// ruleset.
type Thresholds struct {
	KeywordWeight         float64 `json:"keyword_weight"`
	MissingRequiredWeight float64 `json:"missing_required_weight"`
	SimilarityWeight      float64 `json:"similarity_weight"`
	Critical              float64 `json:"critical"`
	High                  float64 `json:"high"`
	Medium                float64 `json:"medium"`
}

// Validate enforces the strict ordering of the severity cut points.
func (t Thresholds) Validate() error {
	if t.Critical < t.High || t.High < t.Medium || t.Medium < 0 {
		return fmt.Errorf("severity cut points must satisfy critical >= high >= medium >= 0, got %.2f/%.2f/%.2f",
			t.Critical, t.High, t.Medium)
	}
	return nil
}

// Ruleset is one named, versioned rules configuration. Exactly one ruleset
// is active per scope (global, or per user_id override).
type Ruleset struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Keywords        []string   `json:"keywords"`
	RequiredPhrases []string   `json:"required_phrases"`
	TemplateText    string     `json:"template_text"`
	UserID          string     `json:"user_id,omitempty"`
	Thresholds      Thresholds `json:"thresholds"`
	CreatedBy       string     `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	Version         int        `json:"version"`
	Active          bool       `json:"active"`
}

// Validate checks the ruleset invariants.
func (r Ruleset) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("ruleset id must not be empty")
	}
	if err := r.Thresholds.Validate(); err != nil {
		return fmt.Errorf("ruleset %s: %w", r.ID, err)
	}
	return nil
}

// Default returns the built-in compliance ruleset substituted whenever the
// store is missing or unreadable. Mirrors the preset the audit team ships.
func Default() Ruleset {
	return Ruleset{
		ID:              "default",
		Name:            "Base compliance",
		Keywords:        []string{"reclamo", "devolucion", "cancelacion"},
		RequiredPhrases: []string{"gracias por llamar", "puedo ayudarte"},
		TemplateText: "Gracias por llamar. Mi nombre es ____. Estoy para ayudarte. " +
			"¿Podrías confirmar tu número de cliente?",
		Thresholds: Thresholds{
			KeywordWeight:         2,
			MissingRequiredWeight: 3,
			SimilarityWeight:      5,
			Critical:              10,
			High:                  7,
			Medium:                4,
		},
		CreatedBy: "system",
		CreatedAt: time.Now().UTC(),
		Version:   1,
		Active:    true,
	}
}
