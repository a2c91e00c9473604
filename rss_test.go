package notionpub

import (
	"net/http"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedIsValidRSS(t *testing.T) {
	a := newTestApp(t, &stubSource{posts: samplePosts()}, SiteConfig{Description: "Notes", Language: "ko"})

	for _, path := range []string{"/feed.xml", "/rss.xml"} {
		rec := doRequest(a, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/rss+xml; charset=utf-8", rec.Header().Get("Content-Type"))

		feed, err := gofeed.NewParser().ParseString(rec.Body.String())
		require.NoError(t, err, path)
		assert.Equal(t, "Test Blog", feed.Title)
		assert.Equal(t, "Notes", feed.Description)
		assert.Equal(t, "ko", feed.Language)
		assert.Equal(t, "https://blog.example.com/", feed.Link)
		require.NotNil(t, feed.UpdatedParsed)
		assert.True(t, feed.UpdatedParsed.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))

		require.Len(t, feed.Items, 3)
		item := feed.Items[0]
		assert.Equal(t, "Go Concurrency", item.Title)
		assert.Equal(t, "https://blog.example.com/articles/go-concurrency/", item.Link)
		assert.Equal(t, item.Link, item.GUID)
		assert.Equal(t, "Channels and goroutines", item.Description)
		assert.Equal(t, []string{"Engineering", "go", "pinned"}, item.Categories)
		require.NotNil(t, item.PublishedParsed)
		assert.True(t, item.PublishedParsed.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	}
}

func TestFeedWithoutPosts(t *testing.T) {
	a := newTestApp(t, &stubSource{}, SiteConfig{})
	rec := doRequest(a, http.MethodGet, "/feed.xml", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	require.NoError(t, err)
	assert.Empty(t, feed.Items)
	assert.Equal(t, "en", feed.Language)
}
