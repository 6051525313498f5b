package ports

import (
	"context"
	"time"

	"TimelineTracker/internal/domain"
)

// ThreadSource pulls a fresh snapshot of the tracked discussion thread.
type ThreadSource interface {
	FetchThread(ctx context.Context, threadURL string) (domain.ThreadSnapshot, error)
}

// CommentSource loads a previously fetched raw snapshot into the normalized,
// deterministically ordered comment sequence.
type CommentSource interface {
	Load(path string) ([]domain.RawComment, error)
}

// ChatModel issues one completion call against a language model and returns
// the raw response text.
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Extractor turns one comment body into a validated extraction result. A
// transport-level failure surfaces as domain.ErrExtractionUnavailable;
// schema-invalid model output comes back as a NonTimeline result, not an
// error.
type Extractor interface {
	Extract(ctx context.Context, comment domain.RawComment) (domain.ExtractionResult, error)
}

// ExtractionCache gates extraction: a lookup hit means the stored result is
// still valid for the comment's current body.
type ExtractionCache interface {
	Lookup(comment domain.RawComment) (domain.CacheEntry, bool)
	// Entry returns the last-known entry for an ID regardless of
	// fingerprint. It is the only way prior extraction survives source
	// deletion, when the body is no longer available for re-hashing.
	Entry(commentID string) (domain.CacheEntry, bool)
	Store(comment domain.RawComment, result domain.ExtractionResult, extractedAt time.Time)
}

// TableStore reads and writes the persisted timeline table.
type TableStore interface {
	Load(path string) ([]domain.TimelineRow, error)
	Save(path string, rows []domain.TimelineRow) error
}
