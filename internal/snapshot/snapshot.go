// Package snapshot normalizes a raw thread snapshot file into the ordered
// comment sequence the pipeline consumes. Ordering is deterministic
// (creation time, ties broken by ID) so repeated runs process comments in
// the same sequence.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"TimelineTracker/internal/domain"
	"TimelineTracker/internal/ports"
)

// FileSource reads snapshot files produced by the fetch command.
type FileSource struct{}

var _ ports.CommentSource = (*FileSource)(nil)

// NewFileSource builds the snapshot loader.
func NewFileSource() *FileSource {
	return &FileSource{}
}

// Load reads and normalizes the snapshot at path. Malformed input (bad JSON,
// comments missing required fields) is a hard stop wrapping
// domain.ErrInputMalformed.
func (s *FileSource) Load(path string) ([]domain.RawComment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var snap domain.ThreadSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: parse snapshot %s: %v", domain.ErrInputMalformed, path, err)
	}

	return Normalize(snap)
}

// Normalize converts snapshot comments into ordered RawComments.
func Normalize(snap domain.ThreadSnapshot) ([]domain.RawComment, error) {
	comments := make([]domain.RawComment, 0, len(snap.Comments))
	for i, c := range snap.Comments {
		normalized, err := normalizeComment(c)
		if err != nil {
			return nil, fmt.Errorf("%w: comment #%d: %v", domain.ErrInputMalformed, i+1, err)
		}
		comments = append(comments, normalized)
	}

	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})

	return comments, nil
}

func normalizeComment(c domain.ThreadComment) (domain.RawComment, error) {
	if c.CommentID == "" {
		return domain.RawComment{}, fmt.Errorf("missing comment_id")
	}
	if c.Author == "" {
		return domain.RawComment{}, fmt.Errorf("comment %s missing author", c.CommentID)
	}
	if c.CreatedUTC == 0 {
		return domain.RawComment{}, fmt.Errorf("comment %s missing created_utc", c.CommentID)
	}
	if c.Body == "" && !c.IsDeleted {
		return domain.RawComment{}, fmt.Errorf("comment %s missing body", c.CommentID)
	}

	comment := domain.RawComment{
		ID:        c.CommentID,
		Author:    c.Author,
		Body:      c.Body,
		Score:     c.Score,
		CreatedAt: fromUnix(c.CreatedUTC),
		Deleted:   c.IsDeleted,
	}
	if c.EditedUTC != nil && *c.EditedUTC > 0 {
		comment.EditedAt = fromUnix(*c.EditedUTC)
	}

	return comment, nil
}

func fromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}
