package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RawComment is a normalized top-level comment from the tracked thread.
// Identity is the platform-assigned ID; content identity for caching is
// (ID, Fingerprint of Body).
type RawComment struct {
	ID        string
	Author    string
	Body      string
	Score     int
	CreatedAt time.Time
	EditedAt  time.Time // zero when never edited
	Deleted   bool
}

// Edited reports whether the comment carries an edit timestamp.
func (c RawComment) Edited() bool {
	return !c.EditedAt.IsZero()
}

// Fingerprint returns the stable content hash of the comment body. An edit
// changes the fingerprint and invalidates any cache entry keyed by it.
func (c RawComment) Fingerprint() string {
	sum := sha256.Sum256([]byte(c.Body))
	return hex.EncodeToString(sum[:])
}

// Handle derives the applicant-identifying handle from the comment author.
func (c RawComment) Handle() string {
	return NormalizeHandle(c.Author)
}
