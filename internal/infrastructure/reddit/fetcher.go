// Package reddit fetches a discussion thread and all of its top-level
// comments, with edit and deletion tracking, producing the raw snapshot the
// extraction pipeline consumes.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"TimelineTracker/internal/config"
	"TimelineTracker/internal/domain"
	"TimelineTracker/internal/ports"
)

const defaultAPIBase = "https://www.reddit.com"

// morechildren accepts at most 100 comment IDs per request.
const batchSize = 100

// Fetcher implements ports.ThreadSource against the Reddit JSON API.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	apiBase    string
	batchDelay time.Duration
	logger     *slog.Logger
}

var _ ports.ThreadSource = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; a nil client gets sane timeouts.
func NewFetcher(client *http.Client, cfg config.FetchConfig, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{
		client:     client,
		userAgent:  cfg.UserAgent,
		apiBase:    defaultAPIBase,
		batchDelay: cfg.BatchDelay(),
		logger:     logger,
	}
}

// WithAPIBase overrides the morechildren endpoint base, for tests.
func (f *Fetcher) WithAPIBase(base string) *Fetcher {
	f.apiBase = strings.TrimSuffix(base, "/")
	return f
}

// listing mirrors the nested Reddit listing envelope.
type listing struct {
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	SelfText   string  `json:"selftext"`
	CreatedUTC float64 `json:"created_utc"`
}

type commentData struct {
	Name       string          `json:"name"`
	Author     string          `json:"author"`
	Body       string          `json:"body"`
	BodyHTML   string          `json:"body_html"`
	Score      int             `json:"score"`
	CreatedUTC float64         `json:"created_utc"`
	Edited     json.RawMessage `json:"edited"` // false, or a unix timestamp
	ParentID   string          `json:"parent_id"`
}

type moreData struct {
	Children []string `json:"children"`
}

// FetchThread downloads the thread and every top-level comment, following
// the "more" continuation in ID batches.
func (f *Fetcher) FetchThread(ctx context.Context, threadURL string) (domain.ThreadSnapshot, error) {
	if !strings.HasSuffix(threadURL, "/") {
		threadURL += "/"
	}

	var listings []listing
	if err := f.getJSON(ctx, threadURL+".json", nil, &listings); err != nil {
		return domain.ThreadSnapshot{}, fmt.Errorf("fetch thread: %w", err)
	}
	if len(listings) < 2 || len(listings[0].Data.Children) == 0 {
		return domain.ThreadSnapshot{}, fmt.Errorf("fetch thread: unexpected listing shape")
	}

	var post postData
	if err := json.Unmarshal(listings[0].Data.Children[0].Data, &post); err != nil {
		return domain.ThreadSnapshot{}, fmt.Errorf("parse post: %w", err)
	}

	comments, moreIDs, err := f.parseChildren(listings[1].Data.Children, post.Name)
	if err != nil {
		return domain.ThreadSnapshot{}, err
	}

	if len(moreIDs) > 0 {
		f.debug("fetching remaining comments", "count", len(moreIDs))
		remaining, err := f.fetchMore(ctx, post.Name, moreIDs)
		if err != nil {
			return domain.ThreadSnapshot{}, err
		}
		comments = append(comments, remaining...)
	}

	edited := 0
	for _, c := range comments {
		if c.WasEdited {
			edited++
		}
	}

	return domain.ThreadSnapshot{
		Post: domain.ThreadPost{
			Title:      post.Title,
			Author:     post.Author,
			SelfText:   post.SelfText,
			CreatedUTC: post.CreatedUTC,
			PostID:     post.Name,
		},
		Comments: comments,
		Metadata: domain.SnapshotMetadata{
			TotalComments:  len(comments),
			EditedComments: edited,
			FetchTimestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// parseChildren keeps only true top-level comments by checking the parent
// against the post ID; nested replies come back from the API too.
func (f *Fetcher) parseChildren(children []thing, postID string) ([]domain.ThreadComment, []string, error) {
	var comments []domain.ThreadComment
	var moreIDs []string

	for _, child := range children {
		switch child.Kind {
		case "t1":
			var data commentData
			if err := json.Unmarshal(child.Data, &data); err != nil {
				return nil, nil, fmt.Errorf("parse comment: %w", err)
			}
			if data.ParentID != postID {
				continue
			}
			comments = append(comments, normalizeComment(data))
		case "more":
			var data moreData
			if err := json.Unmarshal(child.Data, &data); err != nil {
				return nil, nil, fmt.Errorf("parse more object: %w", err)
			}
			moreIDs = append(moreIDs, data.Children...)
		}
	}

	return comments, moreIDs, nil
}

// fetchMore resolves the remaining comment IDs in chunks, pacing requests
// to stay polite to the API.
func (f *Fetcher) fetchMore(ctx context.Context, postID string, ids []string) ([]domain.ThreadComment, error) {
	var comments []domain.ThreadComment

	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		chunk := ids[start:end]

		if start > 0 && f.batchDelay > 0 {
			select {
			case <-time.After(f.batchDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		params := url.Values{}
		params.Set("api_type", "json")
		params.Set("link_id", postID)
		params.Set("children", strings.Join(chunk, ","))

		var resp struct {
			JSON struct {
				Data struct {
					Things []thing `json:"things"`
				} `json:"data"`
			} `json:"json"`
		}
		f.debug("fetching comment batch", "size", len(chunk))
		if err := f.getJSON(ctx, f.apiBase+"/api/morechildren.json", params, &resp); err != nil {
			return nil, fmt.Errorf("fetch comment batch: %w", err)
		}

		batch, _, err := f.parseChildren(resp.JSON.Data.Things, postID)
		if err != nil {
			return nil, err
		}
		comments = append(comments, batch...)
	}

	return comments, nil
}

func (f *Fetcher) getJSON(ctx context.Context, rawURL string, params url.Values, v any) error {
	target := rawURL
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s from %s", resp.Status, rawURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func normalizeComment(data commentData) domain.ThreadComment {
	comment := domain.ThreadComment{
		CommentID:  data.Name,
		Author:     orDeleted(data.Author),
		Body:       data.Body,
		Score:      data.Score,
		CreatedUTC: data.CreatedUTC,
		IsDeleted:  isDeleted(data),
	}
	if data.CreatedUTC > 0 {
		comment.CreatedISO = isoFromUnix(data.CreatedUTC)
	}
	if ts := editedTimestamp(data.Edited); ts > 0 {
		comment.EditedUTC = &ts
		comment.EditedISO = isoFromUnix(ts)
		comment.WasEdited = true
	}
	if comment.Body == "" && data.BodyHTML != "" {
		comment.Body = textFromHTML(data.BodyHTML)
	}
	return comment
}

// editedTimestamp handles Reddit's polymorphic "edited" field: false when
// never edited, a unix timestamp otherwise.
func editedTimestamp(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var ts float64
	if err := json.Unmarshal(raw, &ts); err != nil {
		return 0
	}
	return ts
}

func isDeleted(data commentData) bool {
	if data.Author == "" || data.Author == "[deleted]" {
		return true
	}
	return data.Body == "[deleted]" || data.Body == "[removed]"
}

func orDeleted(author string) string {
	if author == "" {
		return "[deleted]"
	}
	return author
}

// textFromHTML recovers plain text from the entity-escaped body_html the
// API returns when the markdown body is absent.
func textFromHTML(escaped string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html.UnescapeString(escaped)))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}

func isoFromUnix(ts float64) string {
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
