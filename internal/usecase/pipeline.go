package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"TimelineTracker/internal/domain"
	"TimelineTracker/internal/merge"
	"TimelineTracker/internal/ports"
)

// PipelineDeps wires all driven adapters into the extraction pipeline.
type PipelineDeps struct {
	Comments  ports.CommentSource
	Extractor ports.Extractor
	Cache     ports.ExtractionCache
	Table     ports.TableStore
	Logger    *slog.Logger
	Now       func() time.Time
}

// Pipeline implements one cache-gated extract-and-merge run: snapshot +
// previous table + cache in, next table + updated cache out.
type Pipeline struct {
	comments  ports.CommentSource
	extractor ports.Extractor
	cache     ports.ExtractionCache
	table     ports.TableStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Pipeline{
		comments:  deps.Comments,
		extractor: deps.Extractor,
		cache:     deps.Cache,
		table:     deps.Table,
		logger:    deps.Logger,
		now:       now,
	}
}

// Run processes one snapshot against the persisted table. Per-comment
// failures are isolated and counted; input or persistence failures abort
// the run before the table is touched. The new table is written atomically
// only after every comment has been processed.
func (p *Pipeline) Run(ctx context.Context, snapshotPath, tablePath string) (*merge.Summary, error) {
	comments, err := p.comments.Load(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	prev, err := p.table.Load(tablePath)
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}

	summary := &merge.Summary{RunID: uuid.NewString()}
	p.info("run started", "run_id", summary.RunID, "comments", len(comments), "existing_rows", len(prev))

	inputs := make([]merge.Input, 0, len(comments))
	for _, comment := range comments {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled: %w", err)
		}

		input, ok := p.resolve(ctx, comment, summary)
		if ok {
			inputs = append(inputs, input)
		}
	}

	rows := merge.Apply(prev, inputs, summary)

	if err := p.table.Save(tablePath, rows); err != nil {
		return nil, fmt.Errorf("save table: %w", err)
	}

	p.info("run finished",
		"run_id", summary.RunID,
		"rows_created", summary.RowsCreated,
		"rows_updated", summary.RowsUpdated,
		"cache_hits", summary.CacheHits,
		"extractions", summary.ExtractionsRun,
		"extraction_failures", summary.ExtractionFailures,
		"non_timeline", summary.NonTimeline,
		"skipped_deleted", summary.SkippedDeleted,
		"ambiguous_merges", len(summary.Ambiguous),
	)
	for _, a := range summary.Ambiguous {
		p.warn("ambiguous merge needs operator review", "comment", a.CommentID, "handle", a.Handle, "matching_rows", a.Rows)
	}

	return summary, nil
}

// resolve decides how one comment enters the merge: cached entry, fresh
// extraction, or not at all.
func (p *Pipeline) resolve(ctx context.Context, comment domain.RawComment, summary *merge.Summary) (merge.Input, bool) {
	if comment.Deleted {
		// The body is gone; the last-known entry is trusted indefinitely.
		entry, ok := p.cache.Entry(comment.ID)
		if !ok {
			summary.SkippedDeleted++
			p.warn("deleted comment has no cached extraction, skipping", "comment", comment.ID)
			return merge.Input{}, false
		}
		summary.CacheHits++
		return merge.Input{Comment: comment, Result: entry.Result, ExtractedAt: entry.ExtractedAt}, true
	}

	if entry, ok := p.cache.Lookup(comment); ok {
		summary.CacheHits++
		return merge.Input{Comment: comment, Result: entry.Result, ExtractedAt: entry.ExtractedAt}, true
	}

	result, err := p.extractor.Extract(ctx, comment)
	if err != nil {
		if errors.Is(err, domain.ErrExtractionUnavailable) {
			// No cache write: the comment is retried on the next run.
			summary.ExtractionFailures++
			p.warn("extraction unavailable", "comment", comment.ID, "error", err)
			return merge.Input{}, false
		}
		summary.ExtractionFailures++
		p.warn("extraction failed", "comment", comment.ID, "error", err)
		return merge.Input{}, false
	}

	extractedAt := p.now()
	p.cache.Store(comment, result, extractedAt)
	summary.ExtractionsRun++

	return merge.Input{Comment: comment, Result: result, ExtractedAt: extractedAt}, true
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
