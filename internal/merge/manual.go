package merge

import (
	"slices"

	"TimelineTracker/internal/domain"
)

// ApplyManual overlays human-authored corrections on the pipeline-derived
// table. Corrections win wherever they state a value; absent correction
// fields (unknown route, zero dates, empty notes) keep the pipeline value.
// Correction rows with no matching handle are appended as new rows. Applied
// last, after the merge engine, so manual data is never overwritten by the
// pipeline within the same invocation.
func ApplyManual(rows, corrections []domain.TimelineRow) ([]domain.TimelineRow, int) {
	merged := make([]domain.TimelineRow, len(rows))
	for i := range rows {
		merged[i] = cloneRow(rows[i])
	}

	byHandle := map[string]int{}
	for i := range merged {
		if _, ok := byHandle[merged[i].Handle]; !ok {
			byHandle[merged[i].Handle] = i
		}
	}

	overridden := 0
	for _, correction := range corrections {
		idx, ok := byHandle[correction.Handle]
		if !ok {
			appended := cloneRow(correction)
			merged = append(merged, appended)
			byHandle[correction.Handle] = len(merged) - 1
			overridden++
			continue
		}

		if overrideRow(&merged[idx], correction) {
			overridden++
		}
	}

	return merged, overridden
}

func overrideRow(row *domain.TimelineRow, correction domain.TimelineRow) bool {
	changed := false

	if correction.Route != domain.RouteUnknown {
		if row.Route != correction.Route || !slices.Equal(row.Qualifiers, correction.Qualifiers) {
			row.Route = correction.Route
			row.Qualifiers = slices.Clone(correction.Qualifiers)
			changed = true
		}
	}
	if correction.Method != domain.MethodUnknown && row.Method != correction.Method {
		row.Method = correction.Method
		changed = true
	}
	if correction.Notes != "" && row.Notes != correction.Notes {
		row.Notes = correction.Notes
		changed = true
	}

	for kind, m := range correction.Milestones {
		current, exists := row.Milestones[kind]
		if exists && current.Date == m.Date {
			continue
		}
		// Manual values bypass the precision rules entirely.
		row.Milestones[kind] = domain.Milestone{Kind: kind, Date: m.Date, ExtractedAt: m.ExtractedAt}
		changed = true
	}

	for _, id := range correction.Provenance {
		if row.AddProvenance(id) {
			changed = true
		}
	}

	if changed && correction.LastUpdated.After(row.LastUpdated) {
		row.LastUpdated = correction.LastUpdated
	}

	return changed
}
