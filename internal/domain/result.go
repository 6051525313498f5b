package domain

import (
	"fmt"
	"time"
)

// ResultKind tags the ExtractionResult variant.
type ResultKind string

const (
	ResultNonTimeline ResultKind = "non-timeline"
	ResultTimeline    ResultKind = "timeline"
)

// TimelineExtract is the structured payload extracted from one comment.
type TimelineExtract struct {
	Handle     string                          `json:"handle"`
	Route      EligibilityRoute                `json:"route,omitempty"`
	Qualifiers []RouteQualifier                `json:"qualifiers,omitempty"`
	Method     ApplicationMethod               `json:"method,omitempty"`
	Milestones map[MilestoneKind]MilestoneDate `json:"-"`
	Dates      map[MilestoneKind]string        `json:"milestones,omitempty"`
	Notes      string                          `json:"notes,omitempty"`
}

// ExtractionResult is a tagged variant: either a comment carries no timeline
// content (NonTimeline, with an optional reason) or it yields a validated
// TimelineExtract. Construct via NonTimeline or NewTimelineResult so schema
// validation happens at construction, not at consumption.
type ExtractionResult struct {
	Kind     ResultKind       `json:"kind"`
	Reason   string           `json:"reason,omitempty"`
	Timeline *TimelineExtract `json:"timeline,omitempty"`
}

// IsTimeline reports whether the result carries timeline content.
func (r ExtractionResult) IsTimeline() bool {
	return r.Kind == ResultTimeline && r.Timeline != nil
}

// NonTimeline builds the skip variant. The reason is informational only
// (cache inspection, logs); it does not affect merging.
func NonTimeline(reason string) ExtractionResult {
	return ExtractionResult{Kind: ResultNonTimeline, Reason: reason}
}

// NewTimelineResult validates the extract and wraps it in the timeline
// variant. A handle-less extract or one with zero milestones is invalid:
// such content must be represented as NonTimeline instead.
func NewTimelineResult(extract TimelineExtract) (ExtractionResult, error) {
	if extract.Handle == "" {
		return ExtractionResult{}, fmt.Errorf("timeline extract missing handle")
	}
	if len(extract.Milestones) == 0 {
		return ExtractionResult{}, fmt.Errorf("timeline extract for %s has no milestones", extract.Handle)
	}
	for kind, date := range extract.Milestones {
		if !validMilestoneKind(kind) {
			return ExtractionResult{}, fmt.Errorf("unknown milestone kind %q", kind)
		}
		if date.IsZero() {
			return ExtractionResult{}, fmt.Errorf("milestone %s has no date", kind)
		}
	}

	extract.Dates = make(map[MilestoneKind]string, len(extract.Milestones))
	for kind, date := range extract.Milestones {
		extract.Dates[kind] = date.String()
	}
	return ExtractionResult{Kind: ResultTimeline, Timeline: &extract}, nil
}

// Rehydrate rebuilds the parsed milestone dates after JSON decoding (the
// cache persists the rendered date strings).
func (r *ExtractionResult) Rehydrate() error {
	if r.Timeline == nil {
		return nil
	}
	r.Timeline.Milestones = make(map[MilestoneKind]MilestoneDate, len(r.Timeline.Dates))
	for kind, value := range r.Timeline.Dates {
		if !validMilestoneKind(kind) {
			return fmt.Errorf("unknown milestone kind %q", kind)
		}
		date, err := ParseMilestoneDate(value)
		if err != nil {
			return fmt.Errorf("milestone %s: %w", kind, err)
		}
		r.Timeline.Milestones[kind] = date
	}
	return nil
}

func validMilestoneKind(kind MilestoneKind) bool {
	for _, k := range MilestoneKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// CacheEntry binds a comment's content fingerprint to its extraction result.
// A hit is valid only while the fingerprint of the live body matches.
type CacheEntry struct {
	CommentID   string           `json:"comment_id"`
	Fingerprint string           `json:"fingerprint"`
	Result      ExtractionResult `json:"result"`
	ExtractedAt time.Time        `json:"extracted_at"`
}
