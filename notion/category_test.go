package notion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategories(t *testing.T) {
	posts := []Post{{Category: "B"}, {Category: "A"}, {Category: "A"}, {Category: "C"}}
	got := Categories(posts)
	assert.Equal(t, []CategorySummary{
		{Name: "A", Slug: "a", Count: 2, Description: "2 posts in A"},
		{Name: "B", Slug: "b", Count: 1, Description: "1 post in B"},
		{Name: "C", Slug: "c", Count: 1, Description: "1 post in C"},
	}, got)

	assert.Empty(t, Categories(nil))
}

func TestCategorySlug(t *testing.T) {
	tests := map[string]string{
		"Go":               "go",
		"Dev Ops & Tools":  "dev-ops-tools",
		"개발 노트":            "개발-노트",
		"  Web--Dev  ":     "web-dev",
		"C++ / Rust":       "c-rust",
		"Release 2.0":      "release-20",
		"!!!":              "",
		"Machine Learning": "machine-learning",
		"-go-":             "-go-",
		"Go !":             "go-",
		"- Go":             "-go",
	}
	for in, want := range tests {
		assert.Equal(t, want, CategorySlug(in), in)
	}
}

func TestPostsInCategory(t *testing.T) {
	posts := []Post{
		{ID: "1", Category: "Dev Ops"},
		{ID: "2", Category: "Go"},
		{ID: "3", Category: "dev-ops"},
	}
	got, name := PostsInCategory(posts, "dev-ops")
	assert.Equal(t, "Dev Ops", name)
	assert.Len(t, got, 2)

	got, name = PostsInCategory(posts, "rust")
	assert.Empty(t, got)
	assert.Empty(t, name)
}
