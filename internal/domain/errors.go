package domain

import "errors"

// Failure taxonomy. InputMalformed and PersistenceCorrupt are fatal and halt
// the run; ExtractionUnavailable is per-comment and transient (the comment
// is skipped this run and retried next run, with no cache write).
var (
	ErrInputMalformed        = errors.New("input malformed")
	ErrExtractionUnavailable = errors.New("extraction unavailable")
	ErrPersistenceCorrupt    = errors.New("persisted state corrupt")
)
