package notionpub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/eringen/notionpub/notion"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://blog.example.com", nil, "https://blog.example.com/"},
		{"https://blog.example.com/", nil, "https://blog.example.com/"},
		{"https://blog.example.com", []string{"articles", "hello"}, "https://blog.example.com/articles/hello/"},
		{"https://example.com/blog", []string{"articles"}, "https://example.com/blog/articles/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segments...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
}

func TestPostAndCategoryPath(t *testing.T) {
	if got := PostPath(notion.Post{Slug: "hello-world"}); got != "/articles/hello-world/" {
		t.Errorf("PostPath = %q", got)
	}
	if got := CategoryPath("engineering"); got != "/collection/engineering/" {
		t.Errorf("CategoryPath = %q", got)
	}
}

func TestRelatedPosts(t *testing.T) {
	posts := samplePosts()
	related := RelatedPosts(posts[0], posts, 3)
	if titles(related) != "Echo Middleware" {
		t.Fatalf("expected only the post sharing tag and category, got %q", titles(related))
	}

	extra := append(posts, notion.Post{Title: "Other Engineering", Slug: "other", Category: "Engineering"})
	related = RelatedPosts(posts[0], extra, 3)
	if titles(related) != "Echo Middleware,Other Engineering" {
		t.Fatalf("expected tag matches ranked above category matches, got %q", titles(related))
	}

	related = RelatedPosts(posts[0], extra, 1)
	if len(related) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(related))
	}
}

func TestRelatedPostsIgnoresPinnedTag(t *testing.T) {
	a := notion.Post{Slug: "a", Tags: []string{"pinned"}, Category: "X"}
	b := notion.Post{Slug: "b", Tags: []string{"pinned"}, Category: "Y"}
	if got := RelatedPosts(a, []notion.Post{a, b}, 3); len(got) != 0 {
		t.Fatalf("expected no related posts, got %v", titles(got))
	}
}

func TestSearchPosts(t *testing.T) {
	posts := samplePosts()
	tests := []struct {
		q    string
		want string
	}{
		{"", "Go Concurrency,Echo Middleware,Trip Notes"},
		{"BUSAN", "Trip Notes"},
		{"engineering", "Go Concurrency,Echo Middleware"},
		{"travel life", "Trip Notes"},
		{"go travel", ""},
	}
	for _, tt := range tests {
		if got := titles(SearchPosts(posts, tt.q)); got != tt.want {
			t.Errorf("SearchPosts(%q) = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func TestActivity(t *testing.T) {
	posts := []notion.Post{
		{Date: "2025-03-10"},
		{Date: "2025-03-10T09:00:00.000Z"},
		{Date: "2025-03-08"},
		{Date: "2024-01-01"},
		{Date: "garbage"},
	}
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	days := Activity(posts, now, 3)
	want := []ActivityDay{
		{Date: "2025-03-08", Count: 1},
		{Date: "2025-03-09", Count: 0},
		{Date: "2025-03-10", Count: 2},
	}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), len(days))
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("day %d = %+v, want %+v", i, days[i], want[i])
		}
	}
	if Activity(posts, now, 0) != nil {
		t.Error("expected nil for zero days")
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate("2025-03-10"); got != "Mar 10, 2025" {
		t.Errorf("FormatDate = %q", got)
	}
	if got := FormatDate("someday"); got != "someday" {
		t.Errorf("FormatDate should pass through unparsable input, got %q", got)
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	cfg := SiteConfig{Name: "Test Blog", URL: "https://blog.example.com", Author: "Site Owner"}
	post := samplePosts()[0]
	post.Author = "Unknown"
	post.Thumbnail = "https://img.example.com/cover.png"

	var data map[string]any
	if err := json.Unmarshal([]byte(BlogPostingJsonLD(post, cfg)), &data); err != nil {
		t.Fatalf("invalid JSON-LD: %v", err)
	}
	checks := map[string]any{
		"@type":          "BlogPosting",
		"headline":       "Go Concurrency",
		"url":            "https://blog.example.com/articles/go-concurrency/",
		"articleSection": "Engineering",
		"timeRequired":   "PT4M",
		"image":          "https://img.example.com/cover.png",
		"keywords":       "go, pinned",
	}
	for k, want := range checks {
		if data[k] != want {
			t.Errorf("%s = %v, want %v", k, data[k], want)
		}
	}
	author, _ := data["author"].(map[string]any)
	if author["name"] != "Site Owner" {
		t.Errorf("expected author fallback to site author, got %v", data["author"])
	}
}

func TestWebsiteJsonLD(t *testing.T) {
	cfg := SiteConfig{Name: "Test Blog", URL: "https://blog.example.com", Language: "ko"}
	var data map[string]any
	if err := json.Unmarshal([]byte(WebsiteJsonLD(cfg)), &data); err != nil {
		t.Fatalf("invalid JSON-LD: %v", err)
	}
	if data["inLanguage"] != "ko" || data["url"] != "https://blog.example.com/" {
		t.Errorf("unexpected website JSON-LD %v", data)
	}
	if _, ok := data["author"]; ok {
		t.Error("expected no author without cfg.Author")
	}
}
