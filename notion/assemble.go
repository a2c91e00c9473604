package notion

import (
	"strings"
	"time"
)

const (
	defaultTitle    = "Untitled"
	defaultAuthor   = "Unknown"
	defaultCategory = "Uncategorized"
)

// Assemble builds a Post from one database row. body is the page's
// flattened content; now fixes the date default so the result is
// reproducible.
func Assemble(page Page, fields FieldMap, body string, now time.Time) Post {
	read := func(f Field) Value {
		key, ok := fields.Key(f)
		if !ok {
			return Value{}
		}
		prop, ok := page.Properties[key]
		if !ok {
			return Value{}
		}
		return Decode(prop)
	}
	text := func(f Field) string {
		return strings.TrimSpace(read(f).Text)
	}

	p := Post{
		ID:       page.ID,
		Title:    or(text(FieldTitle), defaultTitle),
		Slug:     or(text(FieldSlug), CompactID(page.ID)),
		Author:   or(text(FieldAuthor), defaultAuthor),
		Status:   parseStatus(text(FieldStatus)),
		Date:     or(text(FieldDate), now.UTC().Format(DateLayout)),
		Summary:  text(FieldSummary),
		Category: or(text(FieldCategory), defaultCategory),
		Tags:     read(FieldTags).List(),
	}
	p.UpdateAt = or(text(FieldUpdateAt), p.Date)
	if p.Tags == nil {
		p.Tags = []string{}
	}

	p.Content = or(text(FieldContent), or(strings.TrimSpace(body), p.Summary))
	p.ReadingMinutes = ReadingMinutes(p.Content)
	p.Thumbnail = or(text(FieldThumbnail), page.Cover.URL())
	return p
}

func parseStatus(s string) Status {
	if strings.EqualFold(strings.TrimSpace(s), string(StatusPrivate)) {
		return StatusPrivate
	}
	return StatusPublic
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
