package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"TimelineTracker/internal/domain"
)

func sampleRow() domain.TimelineRow {
	updated := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	return domain.TimelineRow{
		Handle:     "alice",
		Route:      domain.RouteILR,
		Qualifiers: []domain.RouteQualifier{domain.QualifierMarriage},
		Method:     domain.MethodOnline,
		Milestones: map[domain.MilestoneKind]domain.Milestone{
			domain.MilestoneSubmitted: {
				Kind:        domain.MilestoneSubmitted,
				Date:        domain.MilestoneDate{Year: 2024, Month: time.January, Day: 10},
				ExtractedAt: updated,
			},
			domain.MilestoneGranted: {
				Kind:        domain.MilestoneGranted,
				Date:        domain.MilestoneDate{Year: 2025, Month: time.March, Uncertain: true},
				ExtractedAt: updated,
			},
		},
		Notes:       "applied from Manchester",
		Provenance:  []string{"t1_a", "t1_b"},
		LastUpdated: updated,
	}
}

func TestTableRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "table.tsv")
	store := NewTableStore()

	if err := store.Save(path, []domain.TimelineRow{sampleRow()}); err != nil {
		t.Fatalf("save: %v", err)
	}

	rows, err := store.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.Handle != "alice" {
		t.Fatalf("handle: %q", row.Handle)
	}
	if row.EligibilityString() != "ILR (+ Marriage)" {
		t.Fatalf("eligibility: %q", row.EligibilityString())
	}
	if row.Method != domain.MethodOnline {
		t.Fatalf("method: %q", row.Method)
	}
	if got := row.Milestones[domain.MilestoneSubmitted].Date.String(); got != "2024-01-10" {
		t.Fatalf("submitted: %q", got)
	}
	if got := row.Milestones[domain.MilestoneGranted].Date.String(); got != "2025-03?" {
		t.Fatalf("granted: %q", got)
	}
	if _, ok := row.Milestones[domain.MilestoneCeremony]; ok {
		t.Fatal("absent milestone must stay absent")
	}
	if len(row.Provenance) != 2 || row.Provenance[0] != "t1_a" || row.Provenance[1] != "t1_b" {
		t.Fatalf("provenance lost: %v", row.Provenance)
	}
	if !row.LastUpdated.Equal(sampleRow().LastUpdated) {
		t.Fatalf("last updated: %v", row.LastUpdated)
	}
}

func TestTableSaveIsByteStable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewTableStore()
	rows := []domain.TimelineRow{sampleRow()}

	first := filepath.Join(dir, "first.tsv")
	second := filepath.Join(dir, "second.tsv")
	if err := store.Save(first, rows); err != nil {
		t.Fatalf("save first: %v", err)
	}

	reloaded, err := store.Load(first)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := store.Save(second, reloaded); err != nil {
		t.Fatalf("save second: %v", err)
	}

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if string(a) != string(b) {
		t.Fatalf("save/load/save is not stable:\n%s\nvs\n%s", a, b)
	}
}

func TestTableLoadMissingFile(t *testing.T) {
	t.Parallel()

	rows, err := NewTableStore().Load(filepath.Join(t.TempDir(), "absent.tsv"))
	if err != nil {
		t.Fatalf("missing table must mean first run: %v", err)
	}
	if rows != nil {
		t.Fatalf("expected no rows, got %v", rows)
	}
}

func TestTableLoadCorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	headerless := filepath.Join(dir, "bad-header.tsv")
	if err := os.WriteFile(headerless, []byte("Nope\tWrong\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewTableStore().Load(headerless); !errors.Is(err, domain.ErrPersistenceCorrupt) {
		t.Fatalf("bad header: got %v, want ErrPersistenceCorrupt", err)
	}

	badRow := filepath.Join(dir, "bad-row.tsv")
	store := NewTableStore()
	if err := store.Save(badRow, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, _ := os.ReadFile(badRow)
	raw = append(raw, []byte("alice\tILR\tOnline\tnot-a-date\tN/A\tN/A\tN/A\tN/A\t\t\tN/A\n")...)
	if err := os.WriteFile(badRow, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Load(badRow); !errors.Is(err, domain.ErrPersistenceCorrupt) {
		t.Fatalf("bad row: got %v, want ErrPersistenceCorrupt", err)
	}
}
