// Package notionpub is a blog engine whose posts live in a Notion database.
// It syncs the database through the Notion API, caches the normalized posts
// for a revalidation interval, and serves them as HTML pages, a JSON API,
// an RSS feed, and a sitemap.
//
// Users provide their own templ components via the ViewFuncs struct; the
// views package ships a default set.
package notionpub

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/notionpub/synclog"
)

// ViewFuncs holds the templ components the App renders pages with.
type ViewFuncs struct {
	Overview        func(d OverviewPage) templ.Component
	Articles        func(d ArticlesPage) templ.Component
	ArticlesPartial func(d ArticlesPage) templ.Component
	Article         func(d ArticlePage) templ.Component
	Collection      func(d CollectionPage) templ.Component
	Category        func(d CategoryPage) templ.Component
	AdminLogin      func(showError bool, csrfToken string) templ.Component
	AdminDashboard  func(d DashboardPage) templ.Component
	NotFound        func() templ.Component
	ServerError     func() templ.Component
}

func (v ViewFuncs) validate(admin bool) error {
	var missing []string
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check("Overview", v.Overview != nil)
	check("Articles", v.Articles != nil)
	check("ArticlesPartial", v.ArticlesPartial != nil)
	check("Article", v.Article != nil)
	check("Collection", v.Collection != nil)
	check("Category", v.Category != nil)
	check("NotFound", v.NotFound != nil)
	check("ServerError", v.ServerError != nil)
	if admin {
		check("AdminLogin", v.AdminLogin != nil)
		check("AdminDashboard", v.AdminDashboard != nil)
	}
	if len(missing) > 0 {
		return fmt.Errorf("notionpub: views missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// App wires together the post source, cache, journal, handlers, and
// middleware.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Cache   *PostCache
	Journal *synclog.Store
	Views   ViewFuncs
	Log     *zap.Logger

	source       PostSource
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
	now          func() time.Time
}

// New creates an App with the given configuration and views.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
		now:       time.Now,
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the sync journal, builds the post source and cache, and
// registers middleware and routes. Start calls it; tests call it directly
// and drive a.Echo with httptest.
func (a *App) Setup() error {
	if a.Config.AdminEnabled() && a.Config.SessionSecret == "" {
		return fmt.Errorf("notionpub: SessionSecret is required when AdminPassword is set")
	}
	if err := a.Views.validate(a.Config.AdminEnabled()); err != nil {
		return err
	}

	if a.Log == nil {
		log, err := NewLogger(a.Config.Log)
		if err != nil {
			return fmt.Errorf("notionpub: init logger: %w", err)
		}
		a.Log = log
	}

	if a.source == nil {
		journal, err := synclog.Open(a.Config.SyncLogPath)
		if err != nil {
			return fmt.Errorf("notionpub: open sync journal: %w", err)
		}
		a.Journal = journal
		src, err := NewNotionSource(a.Config, a.Log, journal)
		if err != nil {
			return err
		}
		a.source = src
	}

	a.Cache = NewPostCache(a.source, a.Config.RevalidateEvery)

	if a.Config.AdminEnabled() {
		a.loginLimiter = NewLoginLimiter(5, time.Minute)
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start sets the App up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Log.Info("notionpub listening",
		zap.String("addr", a.Config.Addr),
		zap.Duration("revalidate", a.Config.RevalidateEvery),
		zap.Bool("admin", a.Config.AdminEnabled()))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	return errors.Join(err, a.Close())
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework stylesheet, then the user's static assets.
	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/notionpub.css", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(assets)))))
	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/healthz", a.handleHealthz)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/rss.xml", a.handleFeed)

	e.GET("/", a.handleOverview)
	e.GET("/articles/", a.handleArticles)
	e.GET("/articles/:slug/", a.handleArticle)
	e.GET("/collection/", a.handleCollection)
	e.GET("/collection/:slug/", a.handleCategory)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/blog/:slug/", handleBlogRedirect)

	api := e.Group("/api")
	api.GET("/posts", a.handleAPIPosts)
	api.GET("/posts/:slug", a.handleAPIPost)
	api.GET("/categories", a.handleAPICategories)

	if a.Config.AdminEnabled() {
		e.GET("/admin/", a.handleAdmin)
		e.POST("/admin/login/", a.handleAdminLogin)
		e.POST("/admin/logout/", handleAdminLogout)
	}
}

// Close releases the journal and flushes the logger.
func (a *App) Close() error {
	var err error
	if a.Journal != nil {
		err = a.Journal.Close()
	}
	if a.Log != nil {
		_ = a.Log.Sync()
	}
	return err
}
