package notion

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf16"
)

// Status is a post's visibility.
type Status string

const (
	StatusPublic  Status = "public"
	StatusPrivate Status = "private"
)

// DateLayout is the layout of Post.Date defaults.
const DateLayout = "2006-01-02"

// readingCharsPerMinute is the reading speed behind ReadingMinutes.
const readingCharsPerMinute = 220

// Post is one normalized article.
type Post struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	Author         string   `json:"author"`
	Status         Status   `json:"status"`
	Date           string   `json:"date"`
	UpdateAt       string   `json:"updateAt"`
	Summary        string   `json:"summary"`
	Tags           []string `json:"tags"`
	Category       string   `json:"category"`
	ReadingMinutes int      `json:"readingMinutes"`
	Thumbnail      string   `json:"thumbnail,omitempty"`
	Content        string   `json:"content"`
}

// PublishedAt parses Date. Full timestamps and plain dates are accepted;
// anything else yields the zero time.
func (p Post) PublishedAt() time.Time {
	return parseDate(p.Date)
}

// UpdatedAt parses UpdateAt the same way as PublishedAt.
func (p Post) UpdatedAt() time.Time {
	return parseDate(p.UpdateAt)
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000", DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// HasTag reports whether the post carries tag, ignoring case.
func (p Post) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, t := range p.Tags {
		if strings.ToLower(strings.TrimSpace(t)) == tag {
			return true
		}
	}
	return false
}

// ReadingMinutes estimates reading time with a three minute floor. Length
// is measured in UTF-16 code units, so a Hangul syllable counts once.
func ReadingMinutes(content string) int {
	units := 0
	for _, r := range content {
		units += utf16.RuneLen(r)
	}
	minutes := int(math.Ceil(float64(units) / readingCharsPerMinute))
	if minutes < 3 {
		return 3
	}
	return minutes
}

// Collect applies the publication policy: private and id-less posts are
// dropped and the rest are ordered newest first. Equal dates keep their
// input order. The result is never nil.
func Collect(posts []Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.ID == "" || p.Status != StatusPublic {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt().After(out[j].PublishedAt())
	})
	return out
}

// FindBySlug returns the post with slug.
func FindBySlug(posts []Post, slug string) (Post, bool) {
	for _, p := range posts {
		if p.Slug == slug {
			return p, true
		}
	}
	return Post{}, false
}
