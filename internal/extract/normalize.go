package extract

import (
	"fmt"
	"strings"

	"TimelineTracker/internal/domain"
)

// canonicalEligibility picks the best eligibility base plus suffixes from
// the model's output and the raw body text. Base detection runs in priority
// order so children/BNO/etc. are not misclassified as ILR, which is the
// catch-all default.
func canonicalEligibility(modelValue, body string) (domain.EligibilityRoute, []domain.RouteQualifier) {
	text := strings.ToLower(modelValue + " || " + body)

	var base domain.EligibilityRoute
	switch {
	case containsAny(text, "euss", "settled status", "eu settlement", "eu settled"):
		base = domain.RouteEUSS
	case containsAny(text, "mn1", "minor child", "child application", "registration of a minor"):
		base = domain.RouteChildMN1
	case strings.Contains(text, "form t") ||
		(strings.Contains(text, "born in the uk") && strings.Contains(text, "10") && strings.Contains(text, "year")):
		base = domain.RouteFormT
	case containsAny(text, "bno", "british national (overseas)"):
		base = domain.RouteBNO
	case containsAny(text, "armed forces", "hm forces"):
		base = domain.RouteArmedForces
	default:
		base = domain.RouteILR
	}

	var qualifiers []domain.RouteQualifier
	if containsAny(text, "married to british", "british spouse", "spouse of a british", "uk spouse", "married to a british") {
		qualifiers = append(qualifiers, domain.QualifierMarriage)
	}
	if containsAny(text, "ilrdv", "domestic violence") {
		qualifiers = append(qualifiers, domain.QualifierDV)
	}
	if strings.Contains(text, "refugee") {
		qualifiers = append(qualifiers, domain.QualifierRefugee)
	}

	return base, qualifiers
}

func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// parseModelDate enforces "YYYY-MM-DD", "YYYY-MM" or "N/A" on a model date
// field. Anything else makes the whole extraction schema-invalid.
func parseModelDate(field, value string, uncertain bool) (domain.MilestoneDate, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return domain.MilestoneDate{}, nil
	}

	date, err := domain.ParseMilestoneDate(value)
	if err != nil {
		return domain.MilestoneDate{}, fmt.Errorf("%s: %w", field, err)
	}
	date.Uncertain = uncertain
	return date, nil
}
