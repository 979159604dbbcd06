// Package grade maps numeric feedback scores to letter grades.
package grade

type band struct {
	min   int
	grade string
}

// Bands are inclusive lower bounds, highest first. Anything below the last
// band is an F.
var bands = []band{
	{97, "A+"},
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{67, "D+"},
	{63, "D"},
	{60, "D-"},
}

const Failing = "F"

// Calculate returns the letter grade for a score in [0,100]. Scores above
// 100 grade as A+, negative scores as F.
func Calculate(score int) string {
	for _, b := range bands {
		if score >= b.min {
			return b.grade
		}
	}
	return Failing
}

// ForScore is the nullable form used on read: no score, no grade.
func ForScore(score *int) *string {
	if score == nil {
		return nil
	}
	g := Calculate(*score)
	return &g
}

// Rank orders grades so that a higher rank is a better grade. Unknown
// grades rank below F.
func Rank(g string) int {
	for i, b := range bands {
		if b.grade == g {
			return len(bands) - i
		}
	}
	if g == Failing {
		return 0
	}
	return -1
}

// Best returns the best grade across the given scores, ignoring nil scores.
func Best(scores []*int) *string {
	var best *string
	for _, s := range scores {
		g := ForScore(s)
		if g == nil {
			continue
		}
		if best == nil || Rank(*g) > Rank(*best) {
			best = g
		}
	}
	return best
}
