package notionpub

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eringen/notionpub/notion"
	"github.com/eringen/notionpub/synclog"
)

// NewNotionSource builds the production post source from cfg: a rate
// limited API client, a fetcher for the configured database and the safe
// facade around it. When journal is non-nil every sync is recorded.
//
// A missing token does not fail construction. The source then reports
// CONFIG_MISSING on every fetch, which the facade turns into an empty site.
func NewNotionSource(cfg SiteConfig, log *zap.Logger, journal *synclog.Store) (*notion.Safe, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var fetcher notion.PostFetcher
	client, err := notion.NewClient(notion.ClientConfig{
		Token:   cfg.NotionToken,
		BaseURL: cfg.NotionAPIURL,
		Timeout: cfg.NotionTimeout,
		Rate:    cfg.NotionRate,
		Logger:  log.Named("notion.client"),
	})
	switch {
	case errors.Is(err, notion.ErrMissingToken):
		fetcher = missingToken{}
	case err != nil:
		return nil, fmt.Errorf("notionpub: notion client: %w", err)
	default:
		fetcher = notion.NewFetcher(client, cfg.NotionSourceID,
			notion.WithConcurrency(cfg.Concurrency),
			notion.WithLogger(log.Named("notion")))
	}

	opts := []notion.SafeOption{
		notion.WithFallbackPosts(cfg.FallbackPosts),
		notion.WithSafeLogger(log.Named("notion.safe")),
	}
	if journal != nil {
		opts = append(opts, notion.WithObserver(journal.Observer(log.Named("synclog"), cfg.SyncLogKeep)))
	}
	return notion.NewSafe(fetcher, opts...), nil
}

type missingToken struct{}

func (missingToken) FetchAllPosts(context.Context) ([]notion.Post, error) {
	return nil, fmt.Errorf("NOTION_TOKEN is not set: %w", notion.ErrConfigMissing)
}
