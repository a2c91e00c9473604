package notionpub

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/notionpub/notion"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) renderSitemap(c echo.Context, posts []notion.Post) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "articles")},
		{Loc: BuildURL(base, "collection")},
	}
	for _, route := range a.Config.ExtraRoutes {
		route = strings.Trim(route, "/")
		if route == "" {
			continue
		}
		urls = append(urls, sitemapURL{Loc: BuildURL(base, strings.Split(route, "/")...)})
	}
	for _, cat := range notion.Categories(posts) {
		if cat.Slug == "" {
			continue
		}
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "collection", cat.Slug)})
	}
	for _, p := range posts {
		mod := p.UpdatedAt()
		if mod.IsZero() {
			mod = p.PublishedAt()
		}
		u := sitemapURL{Loc: BuildURL(base, "articles", p.Slug)}
		if !mod.IsZero() {
			u.LastMod = mod.Format(notion.DateLayout)
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
