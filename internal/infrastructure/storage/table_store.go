package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"TimelineTracker/internal/domain"
	"TimelineTracker/internal/ports"
)

// milestoneColumns maps milestone kinds to their table headers, in column
// order (parallel to domain.MilestoneKinds).
var milestoneColumns = []string{
	"Application Date",
	"Biometric Date",
	"Approval Date",
	"Refusal Date",
	"Ceremony Date",
}

// tableHeader is the stable column set of the output table.
var tableHeader = append(append([]string{
	"Handle",
	"Eligibility",
	"Application Method",
}, milestoneColumns...),
	"Notes",
	"Comment IDs",
	"Last Updated",
)

// TableStore serializes the timeline table as tab-separated values, one row
// per tracked application, round-tripping provenance so re-runs can resume
// merging.
type TableStore struct{}

var _ ports.TableStore = (*TableStore)(nil)

// NewTableStore builds the TSV store.
func NewTableStore() *TableStore {
	return &TableStore{}
}

// Load reads the table at path. A missing file means a first run and yields
// no rows; an existing file that fails to parse is fatal, wrapping
// domain.ErrPersistenceCorrupt — the pipeline must never silently restart
// from an empty table when prior state exists.
func (s *TableStore) Load(path string) ([]domain.TimelineRow, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = '\t'
	reader.FieldsPerRecord = len(tableHeader)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse table %s: %v", domain.ErrPersistenceCorrupt, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: table %s has no header", domain.ErrPersistenceCorrupt, path)
	}
	if !equalFields(records[0], tableHeader) {
		return nil, fmt.Errorf("%w: table %s has unexpected header %v", domain.ErrPersistenceCorrupt, path, records[0])
	}

	rows := make([]domain.TimelineRow, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("%w: table %s row %d: %v", domain.ErrPersistenceCorrupt, path, i+2, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Save writes the table atomically, preserving row order as given.
func (s *TableStore) Save(path string, rows []domain.TimelineRow) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.Comma = '\t'

	if err := writer.Write(tableHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range rows {
		if err := writer.Write(renderRow(&rows[i])); err != nil {
			return fmt.Errorf("write row %s: %w", rows[i].Handle, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}

	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save table: %w", err)
	}
	return nil
}

func renderRow(row *domain.TimelineRow) []string {
	record := make([]string, 0, len(tableHeader))
	record = append(record,
		row.Handle,
		row.EligibilityString(),
		renderMethod(row.Method),
	)
	for _, kind := range domain.MilestoneKinds {
		if m, ok := row.Milestones[kind]; ok {
			record = append(record, m.Date.String())
		} else {
			record = append(record, "N/A")
		}
	}
	record = append(record,
		flattenNotes(row.Notes),
		strings.Join(row.Provenance, ","),
		renderTime(row.LastUpdated),
	)
	return record
}

func parseRow(record []string) (domain.TimelineRow, error) {
	row := domain.TimelineRow{
		Handle:     record[0],
		Milestones: map[domain.MilestoneKind]domain.Milestone{},
	}
	if row.Handle == "" {
		return domain.TimelineRow{}, fmt.Errorf("empty handle")
	}

	route, qualifiers, err := domain.ParseEligibility(record[1])
	if err != nil {
		return domain.TimelineRow{}, err
	}
	row.Route, row.Qualifiers = route, qualifiers

	method, err := parseMethod(record[2])
	if err != nil {
		return domain.TimelineRow{}, err
	}
	row.Method = method

	notesCol := 3 + len(milestoneColumns)
	row.Notes = record[notesCol]
	if ids := record[notesCol+1]; ids != "" {
		row.Provenance = strings.Split(ids, ",")
	}
	row.LastUpdated, err = parseTime(record[notesCol+2])
	if err != nil {
		return domain.TimelineRow{}, err
	}

	for i, kind := range domain.MilestoneKinds {
		date, err := domain.ParseMilestoneDate(record[3+i])
		if err != nil {
			return domain.TimelineRow{}, fmt.Errorf("%s: %w", milestoneColumns[i], err)
		}
		if date.IsZero() {
			continue
		}
		// Persisted rows carry no per-milestone extraction timestamp;
		// loaded milestones inherit the row's last-updated marker.
		row.Milestones[kind] = domain.Milestone{Kind: kind, Date: date, ExtractedAt: row.LastUpdated}
	}

	return row, nil
}

func renderMethod(method domain.ApplicationMethod) string {
	if method == domain.MethodUnknown {
		return "N/A"
	}
	return string(method)
}

func parseMethod(value string) (domain.ApplicationMethod, error) {
	if value == "N/A" {
		return domain.MethodUnknown, nil
	}
	return domain.ParseApplicationMethod(value)
}

func renderTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	if value == "" || value == "N/A" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}

// flattenNotes keeps the notes cell single-line so the TSV stays one row per
// application even under csv quoting.
func flattenNotes(notes string) string {
	notes = strings.ReplaceAll(notes, "\t", " ")
	notes = strings.ReplaceAll(notes, "\r\n", " ")
	notes = strings.ReplaceAll(notes, "\n", " ")
	return strings.TrimSpace(notes)
}

func equalFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
