package notionpub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/eringen/notionpub/notion"
)

type stubSource struct {
	mu    sync.Mutex
	posts []notion.Post
	err   error
	calls int
}

func (s *stubSource) FetchAllPostsOrNull(context.Context) ([]notion.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.posts, s.err
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func text(format string, args ...any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	})
}

func titles(posts []notion.Post) string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return strings.Join(out, ",")
}

func stubViews() ViewFuncs {
	return ViewFuncs{
		Overview: func(d OverviewPage) templ.Component {
			return text("overview available=%t recent=%s pinned=%s", d.Available, titles(d.Recent), titles(d.Pinned))
		},
		Articles: func(d ArticlesPage) templ.Component {
			return text("articles posts=%s tags=%s", titles(d.Posts), strings.Join(d.Tags, ","))
		},
		ArticlesPartial: func(d ArticlesPage) templ.Component {
			return text("partial posts=%s", titles(d.Posts))
		},
		Article: func(d ArticlePage) templ.Component {
			return text("article %s related=%s", d.Post.Title, titles(d.Related))
		},
		Collection: func(d CollectionPage) templ.Component {
			names := make([]string, len(d.Categories))
			for i, c := range d.Categories {
				names[i] = fmt.Sprintf("%s:%d", c.Name, c.Count)
			}
			return text("collection %s", strings.Join(names, ","))
		},
		Category: func(d CategoryPage) templ.Component {
			return text("category %s posts=%s", d.Category.Name, titles(d.Posts))
		},
		AdminLogin: func(showError bool, token string) templ.Component {
			return text("login error=%t token=%s", showError, token)
		},
		AdminDashboard: func(d DashboardPage) templ.Component {
			return text("dashboard runs=%d", len(d.Runs))
		},
		NotFound:    func() templ.Component { return text("not found") },
		ServerError: func() templ.Component { return text("server error") },
	}
}

func samplePosts() []notion.Post {
	return []notion.Post{
		{Title: "Go Concurrency", Slug: "go-concurrency", Status: notion.StatusPublic, Date: "2025-03-10", UpdateAt: "2025-03-12T08:00:00.000Z", Summary: "Channels and goroutines", Tags: []string{"go", "pinned"}, Category: "Engineering", ReadingMinutes: 4},
		{Title: "Echo Middleware", Slug: "echo-middleware", Status: notion.StatusPublic, Date: "2025-02-01", Summary: "Request pipelines", Tags: []string{"go", "web"}, Category: "Engineering", ReadingMinutes: 3},
		{Title: "Trip Notes", Slug: "trip-notes", Status: notion.StatusPublic, Date: "2025-01-05", Summary: "A week in Busan", Tags: []string{"travel"}, Category: "Life", ReadingMinutes: 5},
	}
}

func newTestApp(t *testing.T, src PostSource, cfg SiteConfig) *App {
	t.Helper()
	if cfg.URL == "" {
		cfg.URL = "https://blog.example.com"
	}
	cfg.Name = "Test Blog"
	a := New(cfg, stubViews(), WithSource(src), WithLogger(zap.NewNop()), WithStaticDir(t.TempDir()))
	if err := a.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return a
}

func doRequest(a *App, method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req.Host = "blog.example.com"
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}
