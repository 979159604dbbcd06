package feedback

import "acquisition-arena-be/pkg/llm"

const (
	SchemaName = "training_feedback"

	MinListItems = 2
	MaxListItems = 5
)

const (
	FieldScore        = "score"
	FieldStrengths    = "strengths"
	FieldImprovements = "improvements"
	FieldKeyMoments   = "key_moments"
	FieldCoachingTip  = "coaching_tip"
	FieldSummary      = "summary"
)

// RequiredFields lists every key a completion must carry.
var RequiredFields = []string{
	FieldScore,
	FieldStrengths,
	FieldImprovements,
	FieldKeyMoments,
	FieldCoachingTip,
	FieldSummary,
}

func listProperty(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "string"},
		"minItems":    MinListItems,
		"maxItems":    MaxListItems,
	}
}

// Schema returns a fresh copy of the structured-output contract.
func Schema() llm.JSONSchema {
	return llm.JSONSchema{
		Name:   SchemaName,
		Strict: true,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				FieldScore: map[string]any{
					"type":        "integer",
					"description": "Overall score from 0 to 100",
					"minimum":     0,
					"maximum":     100,
				},
				FieldStrengths:    listProperty("Specific things the investor did well"),
				FieldImprovements: listProperty("Specific areas to improve with suggestions"),
				FieldKeyMoments:   listProperty("Notable moments in the conversation"),
				FieldCoachingTip: map[string]any{
					"type":        "string",
					"description": "One specific, actionable tip for the next conversation",
				},
				FieldSummary: map[string]any{
					"type":        "string",
					"description": "2-3 sentence overall assessment",
				},
			},
			"required":             append([]string(nil), RequiredFields...),
			"additionalProperties": false,
		},
	}
}
