package notion

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// CategorySummary aggregates the posts of one category.
type CategorySummary struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// Categories counts posts per category, most populated first and by name
// on ties.
func Categories(posts []Post) []CategorySummary {
	counts := make(map[string]int)
	for _, p := range posts {
		counts[p.Category]++
	}
	out := make([]CategorySummary, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategorySummary{
			Name:        name,
			Slug:        CategorySlug(name),
			Count:       n,
			Description: categoryDescription(name, n),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func categoryDescription(name string, n int) string {
	if n == 1 {
		return fmt.Sprintf("1 post in %s", name)
	}
	return fmt.Sprintf("%d posts in %s", n, name)
}

// CategorySlug normalizes a category name for URLs. Different names may
// share a slug; lookups take the first match. Runs of whitespace and
// hyphens become one hyphen, including at either end.
func CategorySlug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsSpace(r) || r == '-':
			dash = true
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', isHangul(r):
			if dash {
				b.WriteByte('-')
				dash = false
			}
			b.WriteRune(r)
		}
	}
	if dash {
		b.WriteByte('-')
	}
	return b.String()
}

func isHangul(r rune) bool {
	return r >= 0xAC00 && r <= 0xD7A3
}

// PostsInCategory returns the posts whose category slug is slug, and the
// category's display name.
func PostsInCategory(posts []Post, slug string) ([]Post, string) {
	var out []Post
	name := ""
	for _, p := range posts {
		if CategorySlug(p.Category) == slug {
			if name == "" {
				name = p.Category
			}
			out = append(out, p)
		}
	}
	return out, name
}
