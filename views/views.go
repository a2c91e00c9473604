// Package views is the default look of a notionpub site: html/template
// pages wrapped as templ components.
package views

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/notionpub"
	"github.com/eringen/notionpub/markdown"
	"github.com/eringen/notionpub/notion"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"formatDate":   notionpub.FormatDate,
	"postPath":     notionpub.PostPath,
	"categoryPath": notionpub.CategoryPath,
	"categorySlug": notion.CategorySlug,
	"toc":          markdown.Headings,
	"markdown": func(md string) template.HTML {
		var buf bytes.Buffer
		markdown.RenderMarkdown(&buf, md)
		return template.HTML(buf.String())
	},
	"jsonLD": func(s string) template.JS {
		return template.JS(s)
	},
	"activityLevel": activityLevel,
	"formatTime": func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04:05")
	},
	"roundDuration": func(d time.Duration) time.Duration {
		return d.Round(time.Millisecond)
	},
}

var pages = map[string]*template.Template{}

func init() {
	base := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/partials.html"))
	for _, name := range []string{
		"overview", "articles", "article", "collection", "category",
		"login", "dashboard", "notfound", "servererror",
	} {
		t := template.Must(base.Clone())
		pages[name] = template.Must(t.ParseFS(templateFS, "templates/"+name+".html"))
	}
}

func activityLevel(count int) string {
	switch {
	case count <= 0:
		return "l0"
	case count == 1:
		return "l1"
	case count == 2:
		return "l2"
	}
	return "l3"
}

func render(page, name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return pages[page].ExecuteTemplate(w, name, data)
	})
}

type loginPage struct {
	Site      notionpub.SiteConfig
	Meta      notionpub.PageMeta
	ShowError bool
	CSRFToken string
}

type dashboardPage struct {
	notionpub.DashboardPage
	Meta notionpub.PageMeta
}

type plainPage struct {
	Site notionpub.SiteConfig
	Meta notionpub.PageMeta
}

// Default returns the built-in views for a site configured by cfg. cfg
// fills the pages that carry no site data of their own.
func Default(cfg notionpub.SiteConfig) notionpub.ViewFuncs {
	meta := func(title string) notionpub.PageMeta {
		return notionpub.PageMeta{
			Title:       title + " | " + cfg.Name,
			Description: cfg.Description,
			URL:         notionpub.BuildURL(cfg.URL),
			OGType:      "website",
		}
	}
	return notionpub.ViewFuncs{
		Overview: func(d notionpub.OverviewPage) templ.Component {
			return render("overview", "layout", d)
		},
		Articles: func(d notionpub.ArticlesPage) templ.Component {
			return render("articles", "layout", d)
		},
		ArticlesPartial: func(d notionpub.ArticlesPage) templ.Component {
			return render("articles", "article-results", d)
		},
		Article: func(d notionpub.ArticlePage) templ.Component {
			return render("article", "layout", d)
		},
		Collection: func(d notionpub.CollectionPage) templ.Component {
			return render("collection", "layout", d)
		},
		Category: func(d notionpub.CategoryPage) templ.Component {
			return render("category", "layout", d)
		},
		AdminLogin: func(showError bool, csrfToken string) templ.Component {
			return render("login", "layout", loginPage{Site: cfg, Meta: meta("Admin"), ShowError: showError, CSRFToken: csrfToken})
		},
		AdminDashboard: func(d notionpub.DashboardPage) templ.Component {
			return render("dashboard", "layout", dashboardPage{DashboardPage: d, Meta: meta("Sync")})
		},
		NotFound: func() templ.Component {
			return render("notfound", "layout", plainPage{Site: cfg, Meta: meta("Not found")})
		},
		ServerError: func() templ.Component {
			return render("servererror", "layout", plainPage{Site: cfg, Meta: meta("Error")})
		},
	}
}
