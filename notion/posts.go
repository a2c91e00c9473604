package notion

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// API is the subset of the Notion API the fetcher depends on. *Client
// implements it.
type API interface {
	BlockLister
	RetrieveDatabase(ctx context.Context, id string) (*Database, error)
	QueryDatabase(ctx context.Context, id, cursor string, pageSize int) (*PageList, error)
}

// Fetcher runs one full fetch cycle against the configured database.
type Fetcher struct {
	api         API
	sourceID    string
	flattener   *Flattener
	concurrency int
	now         func() time.Time
	log         *zap.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithConcurrency bounds how many pages have their blocks fetched at once.
// The default of 1 fetches pages sequentially.
func WithConcurrency(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithClock sets the time source used for date defaults.
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// WithLogger sets the fetcher's logger.
func WithLogger(l *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFetcher returns a Fetcher for sourceID, which may be a raw id or a
// Notion URL. The id is validated on every fetch, not here.
func NewFetcher(api API, sourceID string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		api:         api,
		sourceID:    sourceID,
		flattener:   NewFlattener(api),
		concurrency: 1,
		now:         time.Now,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAllPosts returns every public post, newest first. Any failure
// returns a *Error and no posts.
func (f *Fetcher) FetchAllPosts(ctx context.Context) ([]Post, error) {
	id, err := NormalizeID(f.sourceID)
	if err != nil {
		return nil, err
	}
	db, err := f.resolveDatabase(ctx, id)
	if err != nil {
		return nil, err
	}
	fields := ResolveFields(db.Properties)

	pages, err := f.queryAll(ctx, db.ID)
	if err != nil {
		return nil, newError(KindFetchFailed, "query database", err)
	}

	now := f.now()
	posts := make([]Post, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i := range pages {
		g.Go(func() error {
			body, err := f.flattener.Flatten(gctx, pages[i].ID)
			if err != nil {
				return newError(KindFetchFailed, "list blocks of "+pages[i].ID, err)
			}
			posts[i] = Assemble(pages[i], fields, body, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := Collect(posts)
	f.log.Info("notion fetch complete",
		zap.String("database", db.ID),
		zap.Int("rows", len(pages)),
		zap.Int("posts", len(out)))
	return out, nil
}

// PostBySlug fetches all posts and returns the one with slug.
func (f *Fetcher) PostBySlug(ctx context.Context, slug string) (Post, error) {
	posts, err := f.FetchAllPosts(ctx)
	if err != nil {
		return Post{}, err
	}
	p, ok := FindBySlug(posts, slug)
	if !ok {
		return Post{}, ErrPostNotFound
	}
	return p, nil
}

// resolveDatabase loads the database schema. When id names a page rather
// than a database, the first inline database on that page is used.
func (f *Fetcher) resolveDatabase(ctx context.Context, id string) (*Database, error) {
	db, err := f.api.RetrieveDatabase(ctx, id)
	if err == nil {
		return checkSchema(db, id)
	}
	switch apiStatus(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, newError(KindSourceUnreadable, "retrieve database", err)
	case http.StatusNotFound, http.StatusBadRequest:
	default:
		return nil, newError(KindFetchFailed, "retrieve database", err)
	}

	childID, err := f.findChildDatabase(ctx, id)
	if err != nil {
		switch apiStatus(err) {
		case http.StatusNotFound, http.StatusBadRequest:
			return nil, newError(KindSourceNotFound, "discover database", err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, newError(KindSourceUnreadable, "discover database", err)
		}
		return nil, newError(KindFetchFailed, "discover database", err)
	}
	if childID == "" {
		return nil, newError(KindSourceNotFound, "discover database", nil)
	}
	f.log.Debug("notion database discovered", zap.String("page", id), zap.String("database", childID))

	db, err = f.api.RetrieveDatabase(ctx, childID)
	if err != nil {
		switch apiStatus(err) {
		case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden:
			return nil, newError(KindSourceUnreadable, "retrieve database", err)
		}
		return nil, newError(KindFetchFailed, "retrieve database", err)
	}
	return checkSchema(db, childID)
}

func checkSchema(db *Database, id string) (*Database, error) {
	if db == nil || len(db.Properties) == 0 {
		return nil, newError(KindSourceUnreadable, "read schema", nil)
	}
	if db.ID == "" {
		db.ID = id
	}
	return db, nil
}

func (f *Fetcher) findChildDatabase(ctx context.Context, pageID string) (string, error) {
	cursor := ""
	for {
		list, err := f.api.ListBlockChildren(ctx, pageID, cursor, defaultPageSize)
		if err != nil {
			return "", err
		}
		for _, b := range list.Results {
			if b.Type == "child_database" {
				return b.ID, nil
			}
		}
		if !list.HasMore || list.NextCursor == "" {
			return "", nil
		}
		cursor = list.NextCursor
	}
}

func (f *Fetcher) queryAll(ctx context.Context, databaseID string) ([]Page, error) {
	var pages []Page
	cursor := ""
	for {
		list, err := f.api.QueryDatabase(ctx, databaseID, cursor, defaultPageSize)
		if err != nil {
			return nil, err
		}
		pages = append(pages, list.Results...)
		if !list.HasMore || list.NextCursor == "" {
			return pages, nil
		}
		cursor = list.NextCursor
	}
}

// Categories fetches all posts and summarizes their categories.
func (f *Fetcher) Categories(ctx context.Context) ([]CategorySummary, error) {
	posts, err := f.FetchAllPosts(ctx)
	if err != nil {
		return nil, err
	}
	return Categories(posts), nil
}
