package domain

// ThreadSnapshot is the raw thread snapshot file exchanged between the fetch
// and extract commands. The shape mirrors the platform fetch: post metadata,
// top-level comments with edit tracking, and fetch metadata.
type ThreadSnapshot struct {
	Post     ThreadPost       `json:"post"`
	Comments []ThreadComment  `json:"comments"`
	Metadata SnapshotMetadata `json:"metadata"`
}

// ThreadPost carries the submission the comments belong to.
type ThreadPost struct {
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	SelfText   string  `json:"selftext"`
	CreatedUTC float64 `json:"created_utc"`
	PostID     string  `json:"post_id"`
}

// ThreadComment is one top-level comment as fetched, before normalization.
type ThreadComment struct {
	CommentID  string   `json:"comment_id"`
	Author     string   `json:"author"`
	Body       string   `json:"body"`
	Score      int      `json:"score"`
	CreatedUTC float64  `json:"created_utc"`
	CreatedISO string   `json:"created_iso,omitempty"`
	EditedUTC  *float64 `json:"edited_utc"`
	EditedISO  string   `json:"edited_iso,omitempty"`
	WasEdited  bool     `json:"was_edited"`
	IsDeleted  bool     `json:"is_deleted"`
}

// SnapshotMetadata summarizes one fetch.
type SnapshotMetadata struct {
	TotalComments  int    `json:"total_comments"`
	EditedComments int    `json:"edited_comments"`
	FetchTimestamp string `json:"fetch_timestamp"`
}
