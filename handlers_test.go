package notionpub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eringen/notionpub/notion"
	"github.com/eringen/notionpub/synclog"
)

func TestPageRoutes(t *testing.T) {
	a := newTestApp(t, &stubSource{posts: samplePosts()}, SiteConfig{})

	tests := []struct {
		name   string
		target string
		header http.Header
		code   int
		body   string
	}{
		{"overview", "/", nil, http.StatusOK,
			"overview available=true recent=Go Concurrency,Echo Middleware,Trip Notes pinned=Go Concurrency"},
		{"articles by tag", "/articles/?tag=go", nil, http.StatusOK,
			"articles posts=Go Concurrency,Echo Middleware tags=go,pinned,travel,web"},
		{"articles search", "/articles/?q=busan", nil, http.StatusOK,
			"articles posts=Trip Notes tags=go,pinned,travel,web"},
		{"articles partial", "/articles/?q=busan&partial=list", http.Header{"Hx-Request": {"true"}}, http.StatusOK,
			"partial posts=Trip Notes"},
		{"article", "/articles/go-concurrency/", nil, http.StatusOK,
			"article Go Concurrency related=Echo Middleware"},
		{"missing article", "/articles/missing/", nil, http.StatusNotFound, "not found"},
		{"collection", "/collection/", nil, http.StatusOK, "collection Engineering:2,Life:1"},
		{"category", "/collection/life/", nil, http.StatusOK, "category Life posts=Trip Notes"},
		{"missing category", "/collection/nope/", nil, http.StatusNotFound, "not found"},
		{"unknown route", "/nope/", nil, http.StatusNotFound, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(a, http.MethodGet, tt.target, nil, tt.header)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestPageCacheHeaders(t *testing.T) {
	a := newTestApp(t, &stubSource{posts: samplePosts()}, SiteConfig{RevalidateEvery: 10 * time.Minute})

	rec := doRequest(a, http.MethodGet, "/", nil, nil)
	assert.Equal(t, "public, max-age=60, s-maxage=600, stale-while-revalidate=600", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = doRequest(a, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = doRequest(a, http.MethodGet, "/sitemap.xml", nil, nil)
	assert.Equal(t, "public, max-age=600", rec.Header().Get("Cache-Control"))
}

func TestRedirects(t *testing.T) {
	a := newTestApp(t, &stubSource{posts: samplePosts()}, SiteConfig{})

	tests := []struct {
		target   string
		location string
	}{
		{"/articles", "/articles/"},
		{"/articles/trip-notes", "/articles/trip-notes/"},
		{"/blog", "/articles/"},
		{"/blog/trip-notes/", "/articles/trip-notes/"},
	}
	for _, tt := range tests {
		rec := doRequest(a, http.MethodGet, tt.target, nil, nil)
		assert.Equal(t, http.StatusMovedPermanently, rec.Code, tt.target)
		assert.Equal(t, tt.location, rec.Header().Get("Location"), tt.target)
	}
}

func TestUnavailableSourceRendersEmptyState(t *testing.T) {
	a := newTestApp(t, &stubSource{}, SiteConfig{})

	rec := doRequest(a, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "overview available=false recent= pinned=", rec.Body.String())

	rec = doRequest(a, http.MethodGet, "/api/posts", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":false,"posts":[]}`, rec.Body.String())
}

func TestFetchFailureIsServerError(t *testing.T) {
	src := &stubSource{err: fmt.Errorf("query database: %w", notion.ErrFetchFailed)}
	a := newTestApp(t, src, SiteConfig{})

	rec := doRequest(a, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "server error", rec.Body.String())

	rec = doRequest(a, http.MethodGet, "/api/posts", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())

	// Failures are not cached; every request retries.
	assert.Equal(t, 2, src.callCount())
}

func TestAPI(t *testing.T) {
	a := newTestApp(t, &stubSource{posts: samplePosts()}, SiteConfig{})

	rec := doRequest(a, http.MethodGet, "/api/posts?tag=go&q=channels", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list postsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.True(t, list.Available)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, "go-concurrency", list.Posts[0].Slug)

	rec = doRequest(a, http.MethodGet, "/api/posts/trip-notes", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var post notion.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	assert.Equal(t, "Trip Notes", post.Title)
	assert.Equal(t, "Life", post.Category)

	rec = doRequest(a, http.MethodGet, "/api/posts/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"post not found"}`, rec.Body.String())

	rec = doRequest(a, http.MethodGet, "/api/categories", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []notion.CategorySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cats))
	require.Len(t, cats, 2)
	assert.Equal(t, "engineering", cats[0].Slug)
	assert.Equal(t, 2, cats[0].Count)
}

func TestHealthzDoesNotSync(t *testing.T) {
	src := &stubSource{posts: samplePosts()}
	a := newTestApp(t, src, SiteConfig{})

	rec := doRequest(a, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, 0, src.callCount())

	doRequest(a, http.MethodGet, "/", nil, nil)

	rec = doRequest(a, http.MethodGet, "/healthz", nil, nil)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Available)
	assert.True(t, *resp.Available)
	assert.NotNil(t, resp.LastSynced)
	assert.Equal(t, 1, src.callCount())
}

func TestRobots(t *testing.T) {
	a := newTestApp(t, &stubSource{}, SiteConfig{})
	rec := doRequest(a, http.MethodGet, "/robots.txt", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Disallow: /api/\n")
	assert.NotContains(t, body, "/admin/")
	assert.Contains(t, body, "Sitemap: https://blog.example.com/sitemap.xml\n")
}

func TestEmbeddedStylesheet(t *testing.T) {
	a := newTestApp(t, &stubSource{}, SiteConfig{})
	rec := doRequest(a, http.MethodGet, "/public/notionpub.css", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".post-list")
}

func TestAdminDisabledByDefault(t *testing.T) {
	a := newTestApp(t, &stubSource{}, SiteConfig{})
	rec := doRequest(a, http.MethodGet, "/admin/", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetupRequiresSessionSecret(t *testing.T) {
	a := New(SiteConfig{AdminPassword: "pw"}, stubViews(), WithSource(&stubSource{}))
	assert.ErrorContains(t, a.Setup(), "SessionSecret")
}

func TestSetupRequiresViews(t *testing.T) {
	views := stubViews()
	views.Article = nil
	a := New(SiteConfig{}, views, WithSource(&stubSource{}))
	assert.ErrorContains(t, a.Setup(), "Article")
}

func TestCustomRoutes(t *testing.T) {
	cfg := SiteConfig{Name: "Test Blog"}
	a := New(cfg, stubViews(), WithSource(&stubSource{}), WithStaticDir(t.TempDir()), WithLogger(zap.NewNop()),
		WithCustomRoutes(func(app *App) {
			app.Echo.GET("/about/", func(c echo.Context) error {
				return c.String(http.StatusOK, "about "+app.Config.Name)
			})
		}))
	require.NoError(t, a.Setup())
	rec := doRequest(a, http.MethodGet, "/about/", nil, nil)
	assert.Equal(t, "about Test Blog", rec.Body.String())
}

const testSecret = "0123456789abcdef0123456789abcdef"

func cookieHeader(cookies []*http.Cookie) http.Header {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return http.Header{"Cookie": {strings.Join(parts, "; ")}}
}

func TestAdminLoginFlow(t *testing.T) {
	a := newTestApp(t, &stubSource{posts: samplePosts()}, SiteConfig{AdminPassword: "hunter2", SessionSecret: testSecret})

	journal, err := synclog.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })
	_, err = journal.Record(context.Background(), synclog.Run{StartedAt: time.Now(), Outcome: synclog.OutcomeOK, PostCount: 3})
	require.NoError(t, err)
	a.Journal = journal

	rec := doRequest(a, http.MethodGet, "/admin/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var csrf *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "_csrf" {
			csrf = c
		}
	}
	require.NotNil(t, csrf)
	assert.Equal(t, "login error=false token="+csrf.Value, rec.Body.String())

	post := func(password, token string, cookies []*http.Cookie) *httptest.ResponseRecorder {
		form := url.Values{"password": {password}, "_csrf": {token}}
		h := cookieHeader(cookies)
		h.Set("Content-Type", "application/x-www-form-urlencoded")
		return doRequest(a, http.MethodPost, "/admin/login/", strings.NewReader(form.Encode()), h)
	}

	rec = post("hunter2", "forged", []*http.Cookie{csrf})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = post("wrong", csrf.Value, []*http.Cookie{csrf})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "login error=true")

	rec = post("hunter2", csrf.Value, []*http.Cookie{csrf})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/", rec.Header().Get("Location"))

	var sess *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			sess = c
		}
	}
	require.NotNil(t, sess)

	rec = doRequest(a, http.MethodGet, "/admin/", nil, cookieHeader([]*http.Cookie{csrf, sess}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dashboard runs=1", rec.Body.String())

	rec = doRequest(a, http.MethodGet, "/robots.txt", nil, nil)
	assert.Contains(t, rec.Body.String(), "Disallow: /admin/\n")
}

func TestAdminLoginRateLimited(t *testing.T) {
	a := newTestApp(t, &stubSource{}, SiteConfig{AdminPassword: "hunter2", SessionSecret: testSecret})

	rec := doRequest(a, http.MethodGet, "/admin/", nil, nil)
	var csrf *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "_csrf" {
			csrf = c
		}
	}
	require.NotNil(t, csrf)

	form := url.Values{"password": {"wrong"}, "_csrf": {csrf.Value}}.Encode()
	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		h := cookieHeader([]*http.Cookie{csrf})
		h.Set("Content-Type", "application/x-www-form-urlencoded")
		rec = doRequest(a, http.MethodPost, "/admin/login/", strings.NewReader(form), h)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{401, 401, 401, 401, 401, 429}, codes)
}

func TestAPICORS(t *testing.T) {
	a := newTestApp(t, &stubSource{posts: samplePosts()}, SiteConfig{APIOrigins: []string{"https://app.example.com"}})

	rec := doRequest(a, http.MethodGet, "/api/posts", nil, http.Header{"Origin": {"https://app.example.com"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = doRequest(a, http.MethodGet, "/api/posts", nil, http.Header{"Origin": {"https://evil.example.com"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = doRequest(a, http.MethodOptions, "/api/categories", nil, http.Header{
		"Origin":                        {"https://app.example.com"},
		"Access-Control-Request-Method": {http.MethodGet},
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = doRequest(a, http.MethodGet, "/", nil, http.Header{"Origin": {"https://app.example.com"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIWithoutCORSOrigins(t *testing.T) {
	a := newTestApp(t, &stubSource{posts: samplePosts()}, SiteConfig{})
	rec := doRequest(a, http.MethodGet, "/api/posts", nil, http.Header{"Origin": {"https://app.example.com"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
