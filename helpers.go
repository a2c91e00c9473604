package notionpub

import (
	"encoding/json"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/eringen/notionpub/notion"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PostPath is the site-relative path of a post.
func PostPath(p notion.Post) string {
	return "/articles/" + url.PathEscape(p.Slug) + "/"
}

// CategoryPath is the site-relative path of a category listing.
func CategoryPath(slug string) string {
	return "/collection/" + url.PathEscape(slug) + "/"
}

// RelatedPosts finds up to limit posts sharing a tag or the category with
// current, most shared tags first.
func RelatedPosts(current notion.Post, posts []notion.Post, limit int) []notion.Post {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		if tag := normalizeTag(t); tag != "" && tag != pinnedTag {
			tagSet[tag] = struct{}{}
		}
	}
	type scored struct {
		post  notion.Post
		score int
	}
	var candidates []scored
	for _, p := range posts {
		if p.Slug == current.Slug {
			continue
		}
		score := 0
		for _, t := range p.Tags {
			if _, ok := tagSet[normalizeTag(t)]; ok {
				score += 2
			}
		}
		if p.Category == current.Category {
			score++
		}
		if score > 0 {
			candidates = append(candidates, scored{p, score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	var related []notion.Post
	for _, c := range candidates {
		if limit > 0 && len(related) == limit {
			break
		}
		related = append(related, c.post)
	}
	return related
}

// SearchPosts keeps the posts matching every whitespace-separated word of q
// in title, summary, category, or tags, ignoring case.
func SearchPosts(posts []notion.Post, q string) []notion.Post {
	words := strings.Fields(strings.ToLower(q))
	if len(words) == 0 {
		return posts
	}
	var out []notion.Post
	for _, p := range posts {
		hay := strings.ToLower(strings.Join([]string{
			p.Title, p.Summary, p.Category, strings.Join(p.Tags, " "),
		}, "\n"))
		match := true
		for _, w := range words {
			if !strings.Contains(hay, w) {
				match = false
				break
			}
		}
		if match {
			out = append(out, p)
		}
	}
	return out
}

// ActivityDay counts the posts published on one day.
type ActivityDay struct {
	Date  string
	Count int
}

// Activity returns per-day publication counts for the days days ending at
// now, oldest first. Days without posts are included with a zero count.
func Activity(posts []notion.Post, now time.Time, days int) []ActivityDay {
	if days <= 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, p := range posts {
		if t := p.PublishedAt(); !t.IsZero() {
			counts[t.UTC().Format(notion.DateLayout)]++
		}
	}
	end := now.UTC()
	out := make([]ActivityDay, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := end.AddDate(0, 0, -i).Format(notion.DateLayout)
		out = append(out, ActivityDay{Date: d, Count: counts[d]})
	}
	return out
}

// FormatDate renders a post date like "Jan 2, 2006", or the raw value when
// it cannot be parsed.
func FormatDate(raw string) string {
	t := notion.Post{Date: raw}.PublishedAt()
	if t.IsZero() {
		return raw
	}
	return t.Format("Jan 2, 2006")
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
		"inLanguage":  cfg.Language,
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	return marshalJSONLD(data)
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(post notion.Post, cfg SiteConfig) string {
	postURL := BuildURL(cfg.URL, "articles", post.Slug)
	data := map[string]any{
		"@context":       "https://schema.org",
		"@type":          "BlogPosting",
		"headline":       post.Title,
		"description":    post.Summary,
		"datePublished":  post.Date,
		"dateModified":   post.UpdateAt,
		"articleSection": post.Category,
		"url":            postURL,
		"timeRequired":   "PT" + strconv.Itoa(post.ReadingMinutes) + "M",
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	author := post.Author
	if author == "" || author == "Unknown" {
		author = cfg.Author
	}
	if author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  author,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	if post.Thumbnail != "" {
		data["image"] = post.Thumbnail
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	return marshalJSONLD(data)
}

func marshalJSONLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
