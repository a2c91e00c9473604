package notionpub

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eringen/notionpub/notion"
)

// ErrNotFound is returned when a requested post or category does not exist.
var ErrNotFound = notion.ErrPostNotFound

// PostSource yields the current public posts. A nil slice with a nil error
// means the source is not provisioned. *notion.Safe implements it.
type PostSource interface {
	FetchAllPostsOrNull(ctx context.Context) ([]notion.Post, error)
}

// PostCache holds the last fetch result for one revalidation interval.
// Unavailable results are cached like successful ones; errors are not.
type PostCache struct {
	mu        sync.RWMutex
	loaded    bool
	posts     []notion.Post
	available bool
	tags      []string
	fetched   time.Time
	ttl       time.Duration
	src       PostSource
	now       func() time.Time
}

// NewPostCache creates a PostCache backed by src.
func NewPostCache(src PostSource, ttl time.Duration) *PostCache {
	return &PostCache{src: src, ttl: ttl, now: time.Now}
}

func (c *PostCache) valid() bool {
	return c.loaded && c.now().Sub(c.fetched) < c.ttl
}

func (c *PostCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	posts, err := c.src.FetchAllPostsOrNull(ctx)
	if err != nil {
		return err
	}
	c.loaded = true
	c.available = posts != nil
	c.posts = posts
	c.tags = collectTags(posts)
	c.fetched = c.now()
	return nil
}

// ensureLoaded returns the cached posts after ensuring the cache is fresh.
// Readers share the read lock; a reload holds the write lock so only one
// fetch runs at a time.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]notion.Post, bool, error) {
	c.mu.RLock()
	if c.valid() {
		posts, ok := c.posts, c.available
		c.mu.RUnlock()
		return posts, ok, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, false, err
	}
	return c.posts, c.available, nil
}

// Available reports whether the last fetch reached a provisioned source.
func (c *PostCache) Available(ctx context.Context) (bool, error) {
	_, ok, err := c.ensureLoaded(ctx)
	return ok, err
}

// Status returns when the cached result was fetched and whether the source
// was available then, without triggering a fetch. The time is zero before
// the first successful load.
func (c *PostCache) Status() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetched, c.available
}

// ListPosts returns public posts, newest first, optionally filtered by tag.
func (c *PostCache) ListPosts(ctx context.Context, tag string) ([]notion.Post, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(tag) == "" {
		return posts, nil
	}
	var filtered []notion.Post
	for _, p := range posts {
		if p.HasTag(tag) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// ListTags returns the sorted, lowercased tags of all public posts.
func (c *PostCache) ListTags(ctx context.Context) ([]string, error) {
	if _, _, err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tags, nil
}

// GetPost returns a single post by slug.
func (c *PostCache) GetPost(ctx context.Context, slug string) (notion.Post, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return notion.Post{}, err
	}
	p, ok := notion.FindBySlug(posts, slug)
	if !ok {
		return notion.Post{}, ErrNotFound
	}
	return p, nil
}

// Categories summarizes the categories of all public posts.
func (c *PostCache) Categories(ctx context.Context) ([]notion.CategorySummary, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return notion.Categories(posts), nil
}

// CategoryPosts returns the posts of the category with slug and the
// category's display name.
func (c *PostCache) CategoryPosts(ctx context.Context, slug string) ([]notion.Post, string, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, "", err
	}
	out, name := notion.PostsInCategory(posts, slug)
	if len(out) == 0 {
		return nil, "", ErrNotFound
	}
	return out, name, nil
}

// Search returns posts whose title, summary, category, or tags contain
// every word of q, ignoring case. An empty query matches everything.
func (c *PostCache) Search(ctx context.Context, q string) ([]notion.Post, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return SearchPosts(posts, q), nil
}

// Pinned returns posts tagged "pinned".
func (c *PostCache) Pinned(ctx context.Context) ([]notion.Post, error) {
	return c.ListPosts(ctx, pinnedTag)
}

const pinnedTag = "pinned"

func collectTags(posts []notion.Post) []string {
	set := make(map[string]struct{})
	for _, p := range posts {
		for _, t := range p.Tags {
			if t = normalizeTag(t); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
