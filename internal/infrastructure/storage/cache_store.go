package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"TimelineTracker/internal/domain"
	"TimelineTracker/internal/ports"
)

const cacheVersion = 1

// cacheFile is the on-disk envelope. The explicit version field leaves room
// for format migrations without guessing from shape.
type cacheFile struct {
	Version int                          `json:"version"`
	Entries map[string]domain.CacheEntry `json:"entries"`
}

// CacheStore is the persisted extraction cache: comment ID -> fingerprint +
// extraction result. Loaded at run start, mutated in memory, saved at run
// end. Not safe for concurrent use; the pipeline is single-threaded.
type CacheStore struct {
	entries map[string]domain.CacheEntry
	dirty   bool
}

var _ ports.ExtractionCache = (*CacheStore)(nil)

// LoadCache reads the cache file at path. A missing file yields an empty
// cache (first run); an unreadable or unparseable file is fatal, wrapping
// domain.ErrPersistenceCorrupt, so stale state is never silently discarded.
func LoadCache(path string) (*CacheStore, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &CacheStore{entries: map[string]domain.CacheEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}

	var file cacheFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: parse cache %s: %v", domain.ErrPersistenceCorrupt, path, err)
	}
	if file.Version != cacheVersion {
		return nil, fmt.Errorf("%w: cache %s has unsupported version %d", domain.ErrPersistenceCorrupt, path, file.Version)
	}
	if file.Entries == nil {
		file.Entries = map[string]domain.CacheEntry{}
	}
	for id, entry := range file.Entries {
		if err := entry.Result.Rehydrate(); err != nil {
			return nil, fmt.Errorf("%w: cache entry %s: %v", domain.ErrPersistenceCorrupt, id, err)
		}
		file.Entries[id] = entry
	}

	return &CacheStore{entries: file.Entries}, nil
}

// Lookup returns the entry for the comment iff the stored fingerprint still
// matches the comment's current body.
func (s *CacheStore) Lookup(comment domain.RawComment) (domain.CacheEntry, bool) {
	entry, ok := s.entries[comment.ID]
	if !ok {
		return domain.CacheEntry{}, false
	}
	if entry.Fingerprint != comment.Fingerprint() {
		return domain.CacheEntry{}, false
	}
	return entry, true
}

// Entry returns the last-known entry for an ID without fingerprint checking.
// Used for deleted comments, whose bodies can no longer be re-hashed.
func (s *CacheStore) Entry(commentID string) (domain.CacheEntry, bool) {
	entry, ok := s.entries[commentID]
	return entry, ok
}

// Store records a fresh extraction, overwriting any stale entry for the ID.
func (s *CacheStore) Store(comment domain.RawComment, result domain.ExtractionResult, extractedAt time.Time) {
	s.entries[comment.ID] = domain.CacheEntry{
		CommentID:   comment.ID,
		Fingerprint: comment.Fingerprint(),
		Result:      result,
		ExtractedAt: extractedAt,
	}
	s.dirty = true
}

// Len returns the number of cached entries.
func (s *CacheStore) Len() int {
	return len(s.entries)
}

// Dirty reports whether the cache changed since load.
func (s *CacheStore) Dirty() bool {
	return s.dirty
}

// Save persists the cache atomically.
func (s *CacheStore) Save(path string) error {
	data, err := json.MarshalIndent(cacheFile{Version: cacheVersion, Entries: s.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := writeFileAtomic(path, append(data, '\n')); err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	s.dirty = false
	return nil
}
