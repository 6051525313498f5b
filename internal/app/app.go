package app

import (
	"context"
	"fmt"
	"log/slog"

	"TimelineTracker/internal/config"
	"TimelineTracker/internal/extract"
	"TimelineTracker/internal/infrastructure/llm"
	"TimelineTracker/internal/infrastructure/storage"
	"TimelineTracker/internal/logging"
	"TimelineTracker/internal/merge"
	"TimelineTracker/internal/snapshot"
	"TimelineTracker/internal/usecase"
)

// RunRequest names the files one extraction run operates on.
type RunRequest struct {
	SnapshotPath string
	TablePath    string
	CachePath    string
}

// Application wires config to adapters and the extraction pipeline.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	return &Application{cfg: cfg, logger: baseLogger}
}

// Run executes one extract-and-merge pass. The cache is loaded at start,
// mutated in memory, and persisted at the end whether or not the run
// succeeded; a failed run leaves the table in its last-successfully-written
// state but keeps every completed extraction.
func (a *Application) Run(ctx context.Context, req RunRequest) (*merge.Summary, error) {
	cache, err := storage.LoadCache(req.CachePath)
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}

	client := llm.NewOpenAIClient(a.cfg.OpenAI)
	extractor := extract.New(client, a.logger.With("component", "extractor"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Comments:  snapshot.NewFileSource(),
		Extractor: extractor,
		Cache:     cache,
		Table:     storage.NewTableStore(),
		Logger:    a.logger.With("component", "pipeline"),
	})

	summary, err := pipeline.Run(ctx, req.SnapshotPath, req.TablePath)

	// The cache is saved even when the run fails: extractions completed
	// before the failure are already paid for and must not be re-issued
	// on the next run.
	if cache.Dirty() {
		if saveErr := cache.Save(req.CachePath); saveErr != nil && err == nil {
			return nil, fmt.Errorf("save cache: %w", saveErr)
		}
	}
	if err != nil {
		return nil, err
	}

	return summary, nil
}
