package feedback

import "strings"

const (
	headingSummary     = "## Summary"
	headingStrengths   = "## What You Did Well"
	headingImprovement = "## Areas to Improve"
	headingMoments     = "## Key Conversation Moments"
	headingTip         = "## Coaching Tip"
)

// Render turns a Result into the markdown shown to the trainee. Sections
// appear in a fixed order and empty ones are omitted.
func Render(r Result) string {
	var sections []string

	if r.Summary != "" {
		sections = append(sections, headingSummary+"\n\n"+r.Summary)
	}
	if s := bulletSection(headingStrengths, r.Strengths); s != "" {
		sections = append(sections, s)
	}
	if s := bulletSection(headingImprovement, r.Improvements); s != "" {
		sections = append(sections, s)
	}
	if s := bulletSection(headingMoments, r.KeyMoments); s != "" {
		sections = append(sections, s)
	}
	if r.CoachingTip != "" {
		sections = append(sections, headingTip+"\n\n**"+r.CoachingTip+"**")
	}

	return strings.Join(sections, "\n\n")
}

func bulletSection(heading string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n\n")
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}
