package notion

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PostFetcher is what Safe wraps. *Fetcher implements it.
type PostFetcher interface {
	FetchAllPosts(ctx context.Context) ([]Post, error)
}

// SyncReport describes one fetch cycle. Err is the fetcher's error, even
// when Safe hides it from the caller.
type SyncReport struct {
	Started  time.Time
	Duration time.Duration
	Posts    int
	Err      error
}

// Safe turns "source not provisioned" failures into an empty result and
// lets every other failure through.
type Safe struct {
	src      PostFetcher
	fallback bool
	observe  func(SyncReport)
	log      *zap.Logger
}

type SafeOption func(*Safe)

// WithFallbackPosts makes an unavailable source yield FallbackPosts
// instead of nil.
func WithFallbackPosts(on bool) SafeOption {
	return func(s *Safe) { s.fallback = on }
}

// WithObserver registers fn to receive a report after every cycle.
func WithObserver(fn func(SyncReport)) SafeOption {
	return func(s *Safe) { s.observe = fn }
}

// WithSafeLogger sets the facade's logger.
func WithSafeLogger(l *zap.Logger) SafeOption {
	return func(s *Safe) {
		if l != nil {
			s.log = l
		}
	}
}

func NewSafe(src PostFetcher, opts ...SafeOption) *Safe {
	s := &Safe{src: src, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAllPostsOrNull returns nil posts and a nil error when the source is
// unavailable (or the fallback posts, if enabled). A successful fetch with
// no posts returns an empty, non-nil slice.
func (s *Safe) FetchAllPostsOrNull(ctx context.Context) ([]Post, error) {
	start := time.Now()
	posts, err := s.src.FetchAllPosts(ctx)
	if s.observe != nil {
		s.observe(SyncReport{Started: start, Duration: time.Since(start), Posts: len(posts), Err: err})
	}
	if err == nil {
		return posts, nil
	}
	if IsUnavailable(err) {
		s.log.Warn("notion source unavailable", zap.String("kind", string(KindOf(err))), zap.Error(err))
		if s.fallback {
			return FallbackPosts(), nil
		}
		return nil, nil
	}
	s.log.Error("notion fetch failed", zap.Error(err))
	return nil, err
}

// PostBySlugOrNull returns the post with slug, or nil when it does not
// exist or the source is unavailable.
func (s *Safe) PostBySlugOrNull(ctx context.Context, slug string) (*Post, error) {
	posts, err := s.FetchAllPostsOrNull(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := FindBySlug(posts, slug)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// FallbackPosts is shown when the source cannot be reached at all.
func FallbackPosts() []Post {
	content := "# Sample post\n\n" +
		"The Notion database could not be reached, so this placeholder is shown instead.\n\n" +
		"## What to check\n\n" +
		"Make sure NOTION_PAGE_ID points at a database or a page containing one, " +
		"and that the integration has been shared with it."
	return []Post{{
		ID:             "fallback-post-1",
		Title:          "Placeholder shown while the Notion source is unavailable",
		Slug:           "fallback-notion-sync-error",
		Author:         "notionpub",
		Status:         StatusPublic,
		Date:           "2026-01-01",
		UpdateAt:       "2026-01-01",
		Summary:        "When the Notion database cannot be read, this sample post is listed instead of an error page.",
		Tags:           []string{"fallback", "notion", "pinned"},
		Category:       "Notice",
		ReadingMinutes: 3,
		Content:        content,
	}}
}
