package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// EligibilityRoute is the canonical eligibility base for an application.
type EligibilityRoute string

const (
	RouteUnknown     EligibilityRoute = ""
	RouteILR         EligibilityRoute = "ILR"
	RouteEUSS        EligibilityRoute = "EUSS"
	RouteChildMN1    EligibilityRoute = "MN1 (Child)"
	RouteFormT       EligibilityRoute = "Form T"
	RouteBNO         EligibilityRoute = "BNO"
	RouteArmedForces EligibilityRoute = "Armed Forces"
)

// RouteQualifier is an optional suffix appended to the eligibility base.
type RouteQualifier string

const (
	QualifierMarriage RouteQualifier = "(+ Marriage)"
	QualifierDV       RouteQualifier = "(+ DV)"
	QualifierRefugee  RouteQualifier = "(+ Refugee)"
)

// qualifierOrder fixes the suffix ordering in the rendered eligibility string.
var qualifierOrder = []RouteQualifier{QualifierMarriage, QualifierDV, QualifierRefugee}

// knownRoutes maps rendered base labels back to routes for table parsing.
var knownRoutes = map[string]EligibilityRoute{
	string(RouteILR):         RouteILR,
	string(RouteEUSS):        RouteEUSS,
	string(RouteChildMN1):    RouteChildMN1,
	string(RouteFormT):       RouteFormT,
	string(RouteBNO):         RouteBNO,
	string(RouteArmedForces): RouteArmedForces,
}

// ApplicationMethod is how the application was submitted.
type ApplicationMethod string

const (
	MethodUnknown ApplicationMethod = ""
	MethodOnline  ApplicationMethod = "Online"
	MethodPaper   ApplicationMethod = "Paper"
	MethodOther   ApplicationMethod = "Other"
)

// ParseApplicationMethod maps free-form model output onto the method enum.
func ParseApplicationMethod(value string) (ApplicationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return MethodUnknown, nil
	case "online":
		return MethodOnline, nil
	case "paper":
		return MethodPaper, nil
	case "other":
		return MethodOther, nil
	}
	return MethodUnknown, fmt.Errorf("unknown application method %q", value)
}

// MilestoneKind identifies one event in an application timeline.
type MilestoneKind string

const (
	MilestoneSubmitted  MilestoneKind = "application-submitted"
	MilestoneBiometrics MilestoneKind = "biometrics-enrolled"
	MilestoneGranted    MilestoneKind = "status-granted"
	MilestoneRefused    MilestoneKind = "status-refused"
	MilestoneCeremony   MilestoneKind = "ceremony-attended"
)

// MilestoneKinds lists all kinds in table column order.
var MilestoneKinds = []MilestoneKind{
	MilestoneSubmitted,
	MilestoneBiometrics,
	MilestoneGranted,
	MilestoneRefused,
	MilestoneCeremony,
}

// MilestoneDate is a day- or month-granularity date with an uncertainty
// marker for values the model could not pin down exactly.
type MilestoneDate struct {
	Year      int
	Month     time.Month
	Day       int // 0 for month-only dates
	Uncertain bool
}

// MonthOnly reports whether the date lacks a day component.
func (d MilestoneDate) MonthOnly() bool {
	return d.Day == 0
}

// IsZero reports whether the date is absent.
func (d MilestoneDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// precision ranks dates so exact-day beats month-only and certain beats
// uncertain within the same granularity.
func (d MilestoneDate) precision() int {
	p := 0
	if !d.MonthOnly() {
		p += 2
	}
	if !d.Uncertain {
		p++
	}
	return p
}

// MorePrecise reports whether d is strictly more precise than other.
func (d MilestoneDate) MorePrecise(other MilestoneDate) bool {
	return d.precision() > other.precision()
}

// SamePrecision reports whether d and other rank equally.
func (d MilestoneDate) SamePrecision(other MilestoneDate) bool {
	return d.precision() == other.precision()
}

// String renders the date as "2006-01-02" or "2006-01", with a trailing "?"
// when uncertain. Zero dates render as "N/A".
func (d MilestoneDate) String() string {
	if d.IsZero() {
		return "N/A"
	}
	var s string
	if d.MonthOnly() {
		s = fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
	} else {
		s = fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
	}
	if d.Uncertain {
		s += "?"
	}
	return s
}

// ParseMilestoneDate parses the rendered forms accepted by String, plus the
// literal "N/A" for an absent date.
func ParseMilestoneDate(value string) (MilestoneDate, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return MilestoneDate{}, nil
	}

	var d MilestoneDate
	if strings.HasSuffix(value, "?") {
		d.Uncertain = true
		value = strings.TrimSuffix(value, "?")
	}

	switch len(value) {
	case 10:
		t, err := time.Parse("2006-01-02", value)
		if err != nil {
			return MilestoneDate{}, fmt.Errorf("invalid date %q: %w", value, err)
		}
		d.Year, d.Month, d.Day = t.Year(), t.Month(), t.Day()
	case 7:
		t, err := time.Parse("2006-01", value)
		if err != nil {
			return MilestoneDate{}, fmt.Errorf("invalid month %q: %w", value, err)
		}
		d.Year, d.Month = t.Year(), t.Month()
	default:
		return MilestoneDate{}, fmt.Errorf("invalid date %q", value)
	}

	return d, nil
}

// Milestone is one dated event merged into a timeline row. ExtractedAt is
// the timestamp of the extraction that supplied the current value; it breaks
// ties between equally precise dates (newer evidence wins).
type Milestone struct {
	Kind        MilestoneKind
	Date        MilestoneDate
	ExtractedAt time.Time
}

// TimelineRow is one tracked application: the union of fields contributed
// by one or more source comments, plus provenance.
type TimelineRow struct {
	Handle      string
	Route       EligibilityRoute
	Qualifiers  []RouteQualifier
	Method      ApplicationMethod
	Milestones  map[MilestoneKind]Milestone
	Notes       string
	Provenance  []string // sorted source comment IDs
	LastUpdated time.Time
}

// ContributedBy reports whether the comment ID is in the row's provenance.
func (r *TimelineRow) ContributedBy(commentID string) bool {
	_, found := slices.BinarySearch(r.Provenance, commentID)
	return found
}

// AddProvenance records a contributing comment ID, keeping the set sorted.
// It reports whether the set changed.
func (r *TimelineRow) AddProvenance(commentID string) bool {
	i, found := slices.BinarySearch(r.Provenance, commentID)
	if found {
		return false
	}
	r.Provenance = slices.Insert(r.Provenance, i, commentID)
	return true
}

// EligibilityString renders base + suffixes, e.g. "ILR (+ Marriage)".
func (r *TimelineRow) EligibilityString() string {
	return RenderEligibility(r.Route, r.Qualifiers)
}

// RenderEligibility formats an eligibility base with its ordered suffixes.
// An unknown route renders as "N/A".
func RenderEligibility(route EligibilityRoute, qualifiers []RouteQualifier) string {
	if route == RouteUnknown {
		return "N/A"
	}
	var b strings.Builder
	b.WriteString(string(route))
	for _, q := range qualifierOrder {
		if slices.Contains(qualifiers, q) {
			b.WriteString(" ")
			b.WriteString(string(q))
		}
	}
	return b.String()
}

// ParseEligibility splits a rendered eligibility string back into base and
// suffixes. "N/A" and "" parse to RouteUnknown.
func ParseEligibility(value string) (EligibilityRoute, []RouteQualifier, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return RouteUnknown, nil, nil
	}

	var qualifiers []RouteQualifier
	for _, q := range []RouteQualifier{QualifierRefugee, QualifierDV, QualifierMarriage} {
		if strings.HasSuffix(value, string(q)) {
			qualifiers = append(qualifiers, q)
			value = strings.TrimSpace(strings.TrimSuffix(value, string(q)))
		}
	}
	slices.Reverse(qualifiers)

	route, ok := knownRoutes[value]
	if !ok {
		return RouteUnknown, nil, fmt.Errorf("unknown eligibility route %q", value)
	}
	return route, qualifiers, nil
}

// NormalizeHandle canonicalizes an author name into the row-matching handle.
func NormalizeHandle(author string) string {
	author = strings.TrimSpace(author)
	author = strings.TrimPrefix(author, "u/")
	author = strings.TrimPrefix(author, "/u/")
	return author
}
