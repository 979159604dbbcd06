// Package parcel renders a land parcel's feature map into the property brief
// the persona agent receives at the start of each conversation.
package parcel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"acquisition-arena-be/internal/constant"
	"acquisition-arena-be/pkg/persona"

	"github.com/dustin/go-humanize"
)

// Features is the open feature map stored on a parcel.
type Features map[string]any

const (
	Acres                  = "acres"
	MarketValue            = "market_value"
	AssessedValue          = "assessed_value"
	RoadFrontage           = "road_frontage"
	BuildabilityPercentage = "buildability_percentage"
	Slope                  = "slope"
	FemaCoverage           = "fema_coverage"
	WetlandCoverage        = "wetland_coverage"
	Landlocked             = "landlocked"
	CorporateOwned         = "corporate_owned"
	LastSold               = "last_sold"
)

// RequiredFeatures must be present on every parcel.
var RequiredFeatures = []string{Acres, MarketValue}

type formatter func(v any) string

var rules = map[string]formatter{
	MarketValue:            currency,
	AssessedValue:          currency,
	Acres:                  suffix(" acres"),
	RoadFrontage:           suffix(" feet"),
	Slope:                  suffix("% grade"),
	BuildabilityPercentage: suffix("%"),
	FemaCoverage:           suffix("%"),
	WetlandCoverage:        suffix("%"),
	Landlocked:             yesNo,
	CorporateOwned:         yesNo,
}

// knownOrder fixes where the well-known keys appear; other keys follow
// alphabetically.
var knownOrder = []string{
	Acres, MarketValue, AssessedValue, BuildabilityPercentage, RoadFrontage,
	Slope, FemaCoverage, WetlandCoverage, Landlocked, CorporateOwned, LastSold,
}

// Brief renders the full sub-details block for a parcel.
func Brief(city, state, parcelNumber string, features Features) string {
	r := strings.NewReplacer(
		"{city}", city,
		"{state}", state,
		"{parcel_number}", parcelNumber,
		"{property_features_list}", FeatureList(features),
	)
	return r.Replace(constant.ParcelSubDetailsPrompt)
}

// FeatureList renders one "- <Label>: <value>" bullet per feature. No key
// is dropped: unknown keys use the raw string rule.
func FeatureList(features Features) string {
	lines := make([]string, 0, len(features))
	for _, key := range orderedKeys(features) {
		lines = append(lines, fmt.Sprintf("- %s: %s", persona.Humanize(key), FormatValue(key, features[key])))
	}
	return strings.Join(lines, "\n")
}

// FormatValue applies the key's formatting rule.
func FormatValue(key string, v any) string {
	if rule, ok := rules[key]; ok {
		return rule(v)
	}
	return raw(v)
}

// ValidateFeatures checks the required keys are present and non-empty.
func ValidateFeatures(features Features) error {
	var missing []string
	for _, key := range RequiredFeatures {
		v, ok := features[key]
		if !ok || v == nil || raw(v) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("property features missing required keys: %s", strings.Join(missing, ", "))
	}
	return nil
}

func orderedKeys(features Features) []string {
	keys := make([]string, 0, len(features))
	seen := make(map[string]bool, len(features))
	for _, k := range knownOrder {
		if _, ok := features[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range features {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func currency(v any) string {
	f, ok := number(v)
	if !ok {
		return raw(v)
	}
	if f < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -f)
	}
	return "$" + humanize.FormatFloat("#,###.##", f)
}

func suffix(unit string) formatter {
	return func(v any) string {
		if f, ok := number(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64) + unit
		}
		return raw(v) + unit
	}
}

func yesNo(v any) string {
	switch b := v.(type) {
	case bool:
		if b {
			return "Yes"
		}
		return "No"
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil && parsed {
			return "Yes"
		}
		return "No"
	case nil:
		return "No"
	default:
		if f, ok := number(v); ok && f != 0 {
			return "Yes"
		}
		return "No"
	}
}

func raw(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
