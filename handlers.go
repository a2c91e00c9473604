package notionpub

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/notionpub/notion"
)

const (
	overviewRecent = 5
	activityDays   = 84
	relatedLimit   = 3
)

func (a *App) siteMeta(title, description, path string) PageMeta {
	if description == "" {
		description = a.Config.Description
	}
	full := a.Config.Name
	if title != "" {
		full = title + " | " + a.Config.Name
	}
	return PageMeta{
		Title:       full,
		Description: description,
		URL:         BuildURL(a.Config.URL) + strings.TrimPrefix(path, "/"),
		OGType:      "website",
	}
}

func (a *App) handleOverview(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	available, _ := a.Cache.Available(ctx)
	pinned, err := a.Cache.Pinned(ctx)
	if err != nil {
		return err
	}
	categories, err := a.Cache.Categories(ctx)
	if err != nil {
		return err
	}
	recent := posts
	if len(recent) > overviewRecent {
		recent = recent[:overviewRecent]
	}
	meta := a.siteMeta("", "", "/")
	meta.JSONLD = WebsiteJsonLD(a.Config)
	return Render(c, a.Views.Overview(OverviewPage{
		Site:       a.Config,
		Meta:       meta,
		Available:  available,
		Recent:     recent,
		Pinned:     pinned,
		Categories: categories,
		Activity:   Activity(posts, a.now(), activityDays),
	}))
}

func (a *App) handleArticles(c echo.Context) error {
	ctx := c.Request().Context()
	q := strings.TrimSpace(c.QueryParam("q"))
	tag := strings.TrimSpace(c.QueryParam("tag"))

	posts, err := a.Cache.ListPosts(ctx, tag)
	if err != nil {
		return err
	}
	posts = SearchPosts(posts, q)
	tags, err := a.Cache.ListTags(ctx)
	if err != nil {
		return err
	}
	available, _ := a.Cache.Available(ctx)

	d := ArticlesPage{
		Site:      a.Config,
		Meta:      a.siteMeta("Articles", "", "/articles/"),
		Available: available,
		Posts:     posts,
		Query:     q,
		ActiveTag: tag,
		Tags:      tags,
	}
	if isHTMX(c) && c.QueryParam("partial") == "list" {
		return Render(c, a.Views.ArticlesPartial(d))
	}
	return Render(c, a.Views.Articles(d))
}

func (a *App) handleArticle(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := a.Cache.GetPost(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	meta := a.siteMeta(post.Title, post.Summary, PostPath(post))
	meta.OGType = "article"
	meta.Image = post.Thumbnail
	meta.JSONLD = BlogPostingJsonLD(post, a.Config)
	return Render(c, a.Views.Article(ArticlePage{
		Site:    a.Config,
		Meta:    meta,
		Post:    post,
		Related: RelatedPosts(post, posts, relatedLimit),
	}))
}

func (a *App) handleCollection(c echo.Context) error {
	ctx := c.Request().Context()
	categories, err := a.Cache.Categories(ctx)
	if err != nil {
		return err
	}
	available, _ := a.Cache.Available(ctx)
	return Render(c, a.Views.Collection(CollectionPage{
		Site:       a.Config,
		Meta:       a.siteMeta("Collection", "", "/collection/"),
		Available:  available,
		Categories: categories,
	}))
}

func (a *App) handleCategory(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")
	posts, name, err := a.Cache.CategoryPosts(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	summary := notion.CategorySummary{Name: name, Slug: slug, Count: len(posts)}
	if all, err := a.Cache.Categories(ctx); err == nil {
		for _, s := range all {
			if s.Slug == slug {
				summary = s
				break
			}
		}
	}
	return Render(c, a.Views.Category(CategoryPage{
		Site:     a.Config,
		Meta:     a.siteMeta(summary.Name, summary.Description, CategoryPath(slug)),
		Category: summary,
		Posts:    posts,
	}))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

// handleBlogRedirect keeps the old /blog URLs working.
func handleBlogRedirect(c echo.Context) error {
	if slug := c.Param("slug"); slug != "" {
		return c.Redirect(http.StatusMovedPermanently, "/articles/"+slug+"/")
	}
	return c.Redirect(http.StatusMovedPermanently, "/articles/")
}

func (a *App) handleRobots(c echo.Context) error {
	var b strings.Builder
	b.WriteString("User-agent: *\nAllow: /\n")
	if a.Config.AdminEnabled() {
		b.WriteString("Disallow: /admin/\n")
	}
	b.WriteString("Disallow: /api/\n")
	b.WriteString("Sitemap: " + BuildURL(a.Config.URL) + "sitemap.xml\n")
	return c.String(http.StatusOK, b.String())
}

type healthResponse struct {
	Status     string     `json:"status"`
	Available  *bool      `json:"available,omitempty"`
	LastSynced *time.Time `json:"lastSynced,omitempty"`
}

// handleHealthz never triggers a sync; it reports the cached state.
func (a *App) handleHealthz(c echo.Context) error {
	resp := healthResponse{Status: "ok"}
	if t, ok := a.Cache.Status(); !t.IsZero() {
		resp.Available = &ok
		resp.LastSynced = &t
	}
	return c.JSON(http.StatusOK, resp)
}

type postsResponse struct {
	Available bool          `json:"available"`
	Posts     []notion.Post `json:"posts"`
}

func (a *App) handleAPIPosts(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.Cache.ListPosts(ctx, c.QueryParam("tag"))
	if err != nil {
		return err
	}
	posts = SearchPosts(posts, c.QueryParam("q"))
	available, _ := a.Cache.Available(ctx)
	if posts == nil {
		posts = []notion.Post{}
	}
	return c.JSON(http.StatusOK, postsResponse{Available: available, Posts: posts})
}

func (a *App) handleAPIPost(c echo.Context) error {
	post, err := a.Cache.GetPost(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleAPICategories(c echo.Context) error {
	categories, err := a.Cache.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	isAPI := strings.HasPrefix(c.Request().URL.Path, "/api/")

	if code >= 500 {
		a.Log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.String("kind", string(notion.KindOf(err))),
			zap.Error(err))
	}
	switch {
	case isAPI:
		msg := http.StatusText(code)
		if ok {
			if s, isString := he.Message.(string); isString {
				msg = s
			}
		}
		_ = c.JSON(code, map[string]string{"error": msg})
	case code == http.StatusNotFound:
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	case code >= 500:
		_ = RenderStatus(c, code, a.Views.ServerError())
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}
