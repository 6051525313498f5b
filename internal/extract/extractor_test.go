package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"TimelineTracker/internal/domain"
)

// fakeModel returns canned content or an error.
type fakeModel struct {
	content string
	err     error
	calls   int
}

func (f *fakeModel) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

func testComment(body string) domain.RawComment {
	return domain.RawComment{ID: "t1_a", Author: "alice", Body: body}
}

func TestExtractValidTimeline(t *testing.T) {
	t.Parallel()

	model := &fakeModel{content: `{
		"eligibility": "ILR",
		"application_method": "Online",
		"application_date": "2024-01-10",
		"biometric_date": "N/A",
		"approval_date": "2025-03-02",
		"refusal_date": "N/A",
		"ceremony_date": "N/A",
		"uncertain_dates": [],
		"notes": "",
		"skip": false
	}`}

	result, err := New(model, nil).Extract(context.Background(), testComment("Applied 2024-01-10, ILR granted 2025-03-02"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !result.IsTimeline() {
		t.Fatalf("expected timeline, got %+v", result)
	}

	extract := result.Timeline
	if extract.Handle != "alice" {
		t.Fatalf("handle: %q", extract.Handle)
	}
	if extract.Route != domain.RouteILR {
		t.Fatalf("route: %q", extract.Route)
	}
	if len(extract.Milestones) != 2 {
		t.Fatalf("expected 2 milestones, got %d", len(extract.Milestones))
	}
	if got := extract.Milestones[domain.MilestoneSubmitted].String(); got != "2024-01-10" {
		t.Fatalf("submitted: %q", got)
	}
	if got := extract.Milestones[domain.MilestoneGranted].String(); got != "2025-03-02" {
		t.Fatalf("granted: %q", got)
	}
}

func TestExtractUncertainMonthOnlyDate(t *testing.T) {
	t.Parallel()

	model := &fakeModel{content: `{
		"eligibility": "EUSS",
		"application_method": "Online",
		"application_date": "2024-03",
		"biometric_date": "N/A",
		"approval_date": "N/A",
		"refusal_date": "N/A",
		"ceremony_date": "N/A",
		"uncertain_dates": ["application_date"],
		"notes": "",
		"skip": false
	}`}

	result, err := New(model, nil).Extract(context.Background(), testComment("applied around March, settled status"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	date := result.Timeline.Milestones[domain.MilestoneSubmitted]
	if !date.MonthOnly() || !date.Uncertain {
		t.Fatalf("expected uncertain month-only date, got %+v", date)
	}
}

func TestExtractSkipIsNonTimeline(t *testing.T) {
	t.Parallel()

	model := &fakeModel{content: `{"skip": true, "eligibility": "", "application_method": "",
		"application_date": "N/A", "biometric_date": "N/A", "approval_date": "N/A",
		"refusal_date": "N/A", "ceremony_date": "N/A", "notes": ""}`}

	result, err := New(model, nil).Extract(context.Background(), testComment("thanks, good luck everyone"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.IsTimeline() {
		t.Fatal("skip must map to NonTimeline")
	}
}

func TestExtractInvalidOutputIsNonTimeline(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":       `the application was submitted in January`,
		"bad date":       `{"skip": false, "application_method": "Online", "application_date": "sometime in 2024", "biometric_date": "N/A", "approval_date": "N/A", "refusal_date": "N/A", "ceremony_date": "N/A"}`,
		"bad method":     `{"skip": false, "application_method": "Carrier Pigeon", "application_date": "2024-01-10", "biometric_date": "N/A", "approval_date": "N/A", "refusal_date": "N/A", "ceremony_date": "N/A"}`,
		"no dates":       `{"skip": false, "application_method": "Online", "application_date": "N/A", "biometric_date": "N/A", "approval_date": "N/A", "refusal_date": "N/A", "ceremony_date": "N/A"}`,
		"fenced garbage": "```json\nnope\n```",
	}

	for name, content := range cases {
		result, err := New(&fakeModel{content: content}, nil).Extract(context.Background(), testComment("some body"))
		if err != nil {
			t.Fatalf("%s: invalid output must not error: %v", name, err)
		}
		if result.IsTimeline() {
			t.Fatalf("%s: invalid output must map to NonTimeline", name)
		}
		if result.Reason == "" {
			t.Fatalf("%s: NonTimeline must carry a reason", name)
		}
	}
}

func TestExtractHandlesMarkdownFences(t *testing.T) {
	t.Parallel()

	model := &fakeModel{content: "```json\n" + `{"skip": false, "eligibility": "ILR",
		"application_method": "Paper", "application_date": "2024-01-10",
		"biometric_date": "N/A", "approval_date": "N/A", "refusal_date": "N/A",
		"ceremony_date": "N/A"}` + "\n```"}

	result, err := New(model, nil).Extract(context.Background(), testComment("posted my paper form 10 Jan 2024"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !result.IsTimeline() {
		t.Fatal("fenced JSON must still parse")
	}
	if result.Timeline.Method != domain.MethodPaper {
		t.Fatalf("method: %q", result.Timeline.Method)
	}
}

func TestExtractModelFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	model := &fakeModel{err: fmt.Errorf("model error 429 Too Many Requests")}
	_, err := New(model, nil).Extract(context.Background(), testComment("Applied 2024-01-10"))
	if !errors.Is(err, domain.ErrExtractionUnavailable) {
		t.Fatalf("got %v, want ErrExtractionUnavailable", err)
	}
}

func TestCanonicalEligibility(t *testing.T) {
	t.Parallel()

	cases := []struct {
		model, body    string
		wantRoute      domain.EligibilityRoute
		wantQualifiers []domain.RouteQualifier
	}{
		{"ILR", "Tier 2 then ILR then applied", domain.RouteILR, nil},
		{"", "got settled status under the EU Settlement scheme", domain.RouteEUSS, nil},
		{"", "MN1 for my daughter", domain.RouteChildMN1, nil},
		{"", "born in the uk, 10 year residence, form t", domain.RouteFormT, nil},
		{"BNO", "", domain.RouteBNO, nil},
		{"", "HM Forces route", domain.RouteArmedForces, nil},
		{"ILR", "married to a british citizen, ILR", domain.RouteILR, []domain.RouteQualifier{domain.QualifierMarriage}},
		{"", "ILRDV then naturalisation", domain.RouteILR, []domain.RouteQualifier{domain.QualifierDV}},
		{"", "refugee route, ILR after 5 years", domain.RouteILR, []domain.RouteQualifier{domain.QualifierRefugee}},
	}

	for _, tc := range cases {
		route, qualifiers := canonicalEligibility(tc.model, tc.body)
		if route != tc.wantRoute {
			t.Fatalf("%q/%q: route %q, want %q", tc.model, tc.body, route, tc.wantRoute)
		}
		if len(qualifiers) != len(tc.wantQualifiers) {
			t.Fatalf("%q/%q: qualifiers %v, want %v", tc.model, tc.body, qualifiers, tc.wantQualifiers)
		}
		for i := range qualifiers {
			if qualifiers[i] != tc.wantQualifiers[i] {
				t.Fatalf("%q/%q: qualifiers %v, want %v", tc.model, tc.body, qualifiers, tc.wantQualifiers)
			}
		}
	}
}
