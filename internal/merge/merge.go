// Package merge reconciles the current run's extraction results against the
// previously persisted table. Rows are a durable historical record:
// retention, not garbage collection, is the default, and deleted source
// comments keep their contributions.
package merge

import (
	"slices"
	"time"

	"TimelineTracker/internal/domain"
)

// Input is one (comment, result) pair for the current run — a cache hit or
// a fresh extraction. Comments whose extraction was unavailable this run
// must not appear here.
type Input struct {
	Comment     domain.RawComment
	Result      domain.ExtractionResult
	ExtractedAt time.Time
}

// Ambiguity reports a comment whose handle matched more than one existing
// row. Such comments are surfaced to the operator and excluded from
// automatic resolution.
type Ambiguity struct {
	CommentID string
	Handle    string
	Rows      int
}

// Summary is the user-visible outcome of one run.
type Summary struct {
	RunID              string
	RowsCreated        int
	RowsUpdated        int
	CacheHits          int
	ExtractionsRun     int
	ExtractionFailures int
	NonTimeline        int
	SkippedDeleted     int
	Ambiguous          []Ambiguity
}

// Apply produces the next table state from the previous rows and the
// current run's inputs. Previous rows are never removed; new rows are
// appended in processing order. The input slice must be in the snapshot's
// deterministic comment order.
func Apply(prev []domain.TimelineRow, inputs []Input, summary *Summary) []domain.TimelineRow {
	rows := make([]domain.TimelineRow, len(prev))
	for i := range prev {
		rows[i] = cloneRow(prev[i])
	}

	// Owning-row resolution checks provenance before handles: a comment
	// already claimed by a row always updates that row in place (the "edit
	// detected and merged" path), which also keeps provenance sets across
	// rows disjoint.
	provenance := map[string]int{}
	for i := range rows {
		for _, id := range rows[i].Provenance {
			provenance[id] = i
		}
	}

	// RowsUpdated counts distinct rows, not inputs; several comments can
	// land on the same row within one run.
	updated := map[int]struct{}{}

	for _, input := range inputs {
		if !input.Result.IsTimeline() {
			summary.NonTimeline++
			continue
		}
		extract := input.Result.Timeline

		owner, ok := provenance[input.Comment.ID]
		if !ok {
			matches := matchByHandle(rows, extract.Handle)
			switch len(matches) {
			case 0:
				rows = append(rows, newRow(extract, input))
				provenance[input.Comment.ID] = len(rows) - 1
				summary.RowsCreated++
				continue
			case 1:
				owner = matches[0]
			default:
				summary.Ambiguous = append(summary.Ambiguous, Ambiguity{
					CommentID: input.Comment.ID,
					Handle:    extract.Handle,
					Rows:      len(matches),
				})
				continue
			}
		}

		row := &rows[owner]
		changed := applyExtract(row, extract, input.ExtractedAt)
		if row.AddProvenance(input.Comment.ID) {
			provenance[input.Comment.ID] = owner
			changed = true
		}
		if changed {
			if input.ExtractedAt.After(row.LastUpdated) {
				row.LastUpdated = input.ExtractedAt
			}
			updated[owner] = struct{}{}
		}
	}

	summary.RowsUpdated += len(updated)

	return rows
}

func matchByHandle(rows []domain.TimelineRow, handle string) []int {
	var matches []int
	for i := range rows {
		if rows[i].Handle == handle {
			matches = append(matches, i)
		}
	}
	return matches
}

func newRow(extract *domain.TimelineExtract, input Input) domain.TimelineRow {
	row := domain.TimelineRow{
		Handle:      extract.Handle,
		Route:       extract.Route,
		Qualifiers:  slices.Clone(extract.Qualifiers),
		Method:      extract.Method,
		Milestones:  map[domain.MilestoneKind]domain.Milestone{},
		Notes:       extract.Notes,
		Provenance:  []string{input.Comment.ID},
		LastUpdated: input.ExtractedAt,
	}
	for kind, date := range extract.Milestones {
		row.Milestones[kind] = domain.Milestone{Kind: kind, Date: date, ExtractedAt: input.ExtractedAt}
	}
	return row
}

// applyExtract merges one extract into its owning row and reports whether
// anything changed. Scalar fields follow last-non-unknown-wins; milestones
// merge by kind under the precision rules.
func applyExtract(row *domain.TimelineRow, extract *domain.TimelineExtract, at time.Time) bool {
	changed := false

	if extract.Route != domain.RouteUnknown {
		if row.Route != extract.Route || !slices.Equal(row.Qualifiers, extract.Qualifiers) {
			row.Route = extract.Route
			row.Qualifiers = slices.Clone(extract.Qualifiers)
			changed = true
		}
	}
	if extract.Method != domain.MethodUnknown && row.Method != extract.Method {
		row.Method = extract.Method
		changed = true
	}
	if extract.Notes != "" && row.Notes != extract.Notes {
		row.Notes = extract.Notes
		changed = true
	}

	for _, kind := range domain.MilestoneKinds {
		date, ok := extract.Milestones[kind]
		if !ok {
			continue
		}
		if mergeMilestone(row, kind, date, at) {
			changed = true
		}
	}

	return changed
}

// mergeMilestone applies the precision lattice for a single event kind: a
// strictly more precise date always wins, a strictly less precise one never
// does, and between equally precise dates newer evidence wins.
func mergeMilestone(row *domain.TimelineRow, kind domain.MilestoneKind, date domain.MilestoneDate, at time.Time) bool {
	current, exists := row.Milestones[kind]
	if !exists {
		row.Milestones[kind] = domain.Milestone{Kind: kind, Date: date, ExtractedAt: at}
		return true
	}

	switch {
	case date.MorePrecise(current.Date):
		row.Milestones[kind] = domain.Milestone{Kind: kind, Date: date, ExtractedAt: at}
		return true
	case date.SamePrecision(current.Date) && at.After(current.ExtractedAt):
		if date == current.Date {
			return false
		}
		row.Milestones[kind] = domain.Milestone{Kind: kind, Date: date, ExtractedAt: at}
		return true
	default:
		return false
	}
}

func cloneRow(row domain.TimelineRow) domain.TimelineRow {
	clone := row
	clone.Qualifiers = slices.Clone(row.Qualifiers)
	clone.Provenance = slices.Clone(row.Provenance)
	clone.Milestones = make(map[domain.MilestoneKind]domain.Milestone, len(row.Milestones))
	for kind, m := range row.Milestones {
		clone.Milestones[kind] = m
	}
	return clone
}
