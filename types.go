package notionpub

import (
	"time"

	"github.com/eringen/notionpub/notion"
	"github.com/eringen/notionpub/synclog"
)

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	JSONLD      string
}

// OverviewPage is the landing page: recent and pinned posts plus a
// publication activity strip.
type OverviewPage struct {
	Site       SiteConfig
	Meta       PageMeta
	Available  bool
	Recent     []notion.Post
	Pinned     []notion.Post
	Categories []notion.CategorySummary
	Activity   []ActivityDay
}

// ArticlesPage lists posts, optionally narrowed by a search query or tag.
type ArticlesPage struct {
	Site      SiteConfig
	Meta      PageMeta
	Available bool
	Posts     []notion.Post
	Query     string
	ActiveTag string
	Tags      []string
}

// ArticlePage renders a single post.
type ArticlePage struct {
	Site    SiteConfig
	Meta    PageMeta
	Post    notion.Post
	Related []notion.Post
}

// CollectionPage lists categories.
type CollectionPage struct {
	Site       SiteConfig
	Meta       PageMeta
	Available  bool
	Categories []notion.CategorySummary
}

// CategoryPage lists the posts of one category.
type CategoryPage struct {
	Site     SiteConfig
	Meta     PageMeta
	Category notion.CategorySummary
	Posts    []notion.Post
}

// DashboardPage is the admin view of recent sync runs.
type DashboardPage struct {
	Site        SiteConfig
	Runs        []synclog.Run
	LastSuccess *synclog.Run
	FetchedAt   time.Time
	Interval    time.Duration
	CSRFToken   string
}
