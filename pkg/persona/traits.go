// Package persona compiles a seller persona's trait data into the
// configuration of a conversational voice agent.
package persona

import (
	"fmt"
	"strings"
)

const (
	TemperLevel          = "temper_level"
	KnowledgeLevel       = "knowledge_level"
	ChattinessLevel      = "chattiness_level"
	UrgencyLevel         = "urgency_level"
	PriceFlexibility     = "price_flexibility"
	EmotionalAttachment  = "emotional_attachment"
	FinancialDesperation = "financial_desperation"
	SkepticismLevel      = "skepticism_level"
	DetailOriented       = "detail_oriented"
	DecisionMakingSpeed  = "decision_making_speed"

	// DefaultScore substitutes for a trait that is missing or not numeric.
	DefaultScore = 0.5
)

// RequiredTraits is the canonical render order of the ten trait dimensions.
var RequiredTraits = []string{
	TemperLevel,
	KnowledgeLevel,
	ChattinessLevel,
	UrgencyLevel,
	PriceFlexibility,
	EmotionalAttachment,
	FinancialDesperation,
	SkepticismLevel,
	DetailOriented,
	DecisionMakingSpeed,
}

// Trait is one personality dimension as stored on a persona.
type Trait struct {
	Score       *float64 `json:"score"`
	Description string   `json:"description"`
}

// Traits is keyed by trait name (see RequiredTraits).
type Traits map[string]Trait

// ResolvedTrait is a trait after default substitution and clamping.
type ResolvedTrait struct {
	Key         string
	Score       float64
	Description string
	Defaulted   bool
}

// Resolve returns the ten required traits in canonical order. Missing scores
// become DefaultScore and out-of-range scores are clamped to [0,1].
func Resolve(traits Traits) []ResolvedTrait {
	out := make([]ResolvedTrait, 0, len(RequiredTraits))
	for _, key := range RequiredTraits {
		t, ok := traits[key]
		r := ResolvedTrait{Key: key, Score: DefaultScore, Description: strings.TrimSpace(t.Description)}
		if !ok || t.Score == nil {
			r.Defaulted = true
		} else {
			r.Score = clamp(*t.Score)
		}
		out = append(out, r)
	}
	return out
}

// Validate reports every required trait that is missing, not numeric, out of
// [0,1], or lacks a description. Seeding uses it; compilation never fails.
func Validate(traits Traits) error {
	var problems []string
	for _, key := range RequiredTraits {
		t, ok := traits[key]
		switch {
		case !ok:
			problems = append(problems, key+" is missing")
			continue
		case t.Score == nil:
			problems = append(problems, key+" score must be a number")
		case *t.Score < 0 || *t.Score > 1:
			problems = append(problems, fmt.Sprintf("%s score %.2f must be between 0 and 1", key, *t.Score))
		}
		if strings.TrimSpace(t.Description) == "" {
			problems = append(problems, key+" description must be present")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid characteristics: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Humanize turns a snake_case key into a sentence-case label
// ("temper_level" -> "Temper level").
func Humanize(key string) string {
	s := strings.TrimSpace(strings.ReplaceAll(key, "_", " "))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func scoreOf(resolved []ResolvedTrait, key string) float64 {
	for _, r := range resolved {
		if r.Key == key {
			return r.Score
		}
	}
	return DefaultScore
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
