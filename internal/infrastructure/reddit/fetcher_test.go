package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"TimelineTracker/internal/config"
)

const threadListing = `[
	{"data": {"children": [
		{"kind": "t3", "data": {
			"name": "t3_post1",
			"title": "Naturalisation timeline megathread",
			"author": "mod",
			"selftext": "Share your dates below.",
			"created_utc": 1700000000
		}}
	]}},
	{"data": {"children": [
		{"kind": "t1", "data": {
			"name": "t1_a", "author": "alice", "body": "Applied 2024-01-10",
			"score": 5, "created_utc": 1700000100, "edited": false,
			"parent_id": "t3_post1"
		}},
		{"kind": "t1", "data": {
			"name": "t1_b", "author": "bob", "body": "Biometrics done",
			"score": 2, "created_utc": 1700000200, "edited": 1700000300,
			"parent_id": "t3_post1"
		}},
		{"kind": "t1", "data": {
			"name": "t1_nested", "author": "carol", "body": "congrats!",
			"score": 1, "created_utc": 1700000400, "edited": false,
			"parent_id": "t1_a"
		}},
		{"kind": "t1", "data": {
			"name": "t1_gone", "author": "[deleted]", "body": "[deleted]",
			"score": 0, "created_utc": 1700000500, "edited": false,
			"parent_id": "t3_post1"
		}},
		{"kind": "more", "data": {"children": ["extra1"]}}
	]}}
]`

const moreChildren = `{"json": {"data": {"things": [
	{"kind": "t1", "data": {
		"name": "t1_extra1", "author": "dave", "body": "",
		"body_html": "&lt;div&gt;&lt;p&gt;Ceremony booked for March&lt;/p&gt;&lt;/div&gt;",
		"score": 1, "created_utc": 1700000600, "edited": false,
		"parent_id": "t3_post1"
	}}
]}}}`

func testFetcher(t *testing.T) (*Fetcher, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "TimelineTrackerTest/1.0" {
			t.Errorf("user agent: %q", r.Header.Get("User-Agent"))
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/morechildren"):
			if got := r.URL.Query().Get("link_id"); got != "t3_post1" {
				t.Errorf("link_id: %q", got)
			}
			if got := r.URL.Query().Get("children"); got != "extra1" {
				t.Errorf("children: %q", got)
			}
			_, _ = w.Write([]byte(moreChildren))
		case strings.HasSuffix(r.URL.Path, ".json"):
			_, _ = w.Write([]byte(threadListing))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	cfg := config.FetchConfig{UserAgent: "TimelineTrackerTest/1.0", BatchDelaySec: 0}
	fetcher := NewFetcher(server.Client(), cfg, nil).WithAPIBase(server.URL)
	return fetcher, server
}

func TestFetchThread(t *testing.T) {
	t.Parallel()

	fetcher, server := testFetcher(t)
	snapshot, err := fetcher.FetchThread(context.Background(), server.URL+"/r/test/comments/abc/thread")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if snapshot.Post.PostID != "t3_post1" || snapshot.Post.Title != "Naturalisation timeline megathread" {
		t.Fatalf("post: %+v", snapshot.Post)
	}

	// The nested reply is excluded; the "more" continuation is resolved.
	if len(snapshot.Comments) != 4 {
		t.Fatalf("comments: %d", len(snapshot.Comments))
	}
	for _, c := range snapshot.Comments {
		if c.CommentID == "t1_nested" {
			t.Fatal("nested reply must be filtered out")
		}
	}

	byID := map[string]int{}
	for i, c := range snapshot.Comments {
		byID[c.CommentID] = i
	}

	edited := snapshot.Comments[byID["t1_b"]]
	if !edited.WasEdited || edited.EditedUTC == nil || *edited.EditedUTC != 1700000300 {
		t.Fatalf("edited comment: %+v", edited)
	}
	if edited.EditedISO == "" {
		t.Fatal("edited comment missing ISO timestamp")
	}

	plain := snapshot.Comments[byID["t1_a"]]
	if plain.WasEdited || plain.EditedUTC != nil {
		t.Fatalf("unedited comment: %+v", plain)
	}

	gone := snapshot.Comments[byID["t1_gone"]]
	if !gone.IsDeleted {
		t.Fatalf("deleted comment: %+v", gone)
	}

	// body was empty, so the text comes from body_html.
	extra := snapshot.Comments[byID["t1_extra1"]]
	if extra.Body != "Ceremony booked for March" {
		t.Fatalf("body_html fallback: %q", extra.Body)
	}

	if snapshot.Metadata.TotalComments != 4 || snapshot.Metadata.EditedComments != 1 {
		t.Fatalf("metadata: %+v", snapshot.Metadata)
	}
	if snapshot.Metadata.FetchTimestamp == "" {
		t.Fatal("metadata missing fetch timestamp")
	}
}

func TestFetchThreadBadListing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"data": {"children": []}}]`))
	}))
	t.Cleanup(server.Close)

	cfg := config.FetchConfig{UserAgent: "TimelineTrackerTest/1.0"}
	fetcher := NewFetcher(server.Client(), cfg, nil).WithAPIBase(server.URL)
	if _, err := fetcher.FetchThread(context.Background(), server.URL+"/r/test/comments/abc/thread"); err == nil {
		t.Fatal("expected error on truncated listing")
	}
}

func TestFetchThreadHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	cfg := config.FetchConfig{UserAgent: "TimelineTrackerTest/1.0"}
	fetcher := NewFetcher(server.Client(), cfg, nil).WithAPIBase(server.URL)
	if _, err := fetcher.FetchThread(context.Background(), server.URL+"/r/test/comments/abc/thread"); err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestEditedTimestamp(t *testing.T) {
	t.Parallel()

	if ts := editedTimestamp([]byte(`false`)); ts != 0 {
		t.Fatalf("false: %v", ts)
	}
	if ts := editedTimestamp([]byte(`1700000300`)); ts != 1700000300 {
		t.Fatalf("timestamp: %v", ts)
	}
	if ts := editedTimestamp(nil); ts != 0 {
		t.Fatalf("absent: %v", ts)
	}
}
