package feedback

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrMalformed    = errors.New("feedback: malformed completion")
	ErrMissingField = errors.New("feedback: missing required field")
	ErrInvalidScore = errors.New("feedback: score must be an integer between 0 and 100")
	ErrEmptySummary = errors.New("feedback: summary is empty")
)

// Result is the structured grade of one conversation. It is never persisted
// as-is; the orchestrator stores the score and the rendered markdown.
type Result struct {
	Score        int      `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	KeyMoments   []string `json:"key_moments"`
	CoachingTip  string   `json:"coaching_tip"`
	Summary      string   `json:"summary"`
}

type rawResult struct {
	Score        float64  `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	KeyMoments   []string `json:"key_moments"`
	CoachingTip  string   `json:"coaching_tip"`
	Summary      string   `json:"summary"`
}

// Parse decodes a completion into a Result. Models sometimes wrap JSON in a
// markdown fence, which is stripped first.
func Parse(content string) (Result, error) {
	body := stripFence(content)
	if body == "" {
		return Result{}, fmt.Errorf("%w: empty content", ErrMalformed)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &keys); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for _, field := range RequiredFields {
		v, ok := keys[field]
		if !ok || string(v) == "null" {
			return Result{}, fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if raw.Score != math.Trunc(raw.Score) || raw.Score < 0 || raw.Score > 100 {
		return Result{}, fmt.Errorf("%w: got %v", ErrInvalidScore, raw.Score)
	}

	summary := strings.TrimSpace(raw.Summary)
	if summary == "" {
		return Result{}, ErrEmptySummary
	}

	return Result{
		Score:        int(raw.Score),
		Strengths:    cleanList(raw.Strengths),
		Improvements: cleanList(raw.Improvements),
		KeyMoments:   cleanList(raw.KeyMoments),
		CoachingTip:  strings.TrimSpace(raw.CoachingTip),
		Summary:      summary,
	}, nil
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == MaxListItems {
			break
		}
	}
	return out
}

func stripFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line, e.g. ```json
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
