// Package notion syncs blog posts from a Notion database. It resolves the
// database's columns to post fields, decodes property values, flattens each
// page's block tree into markdown and assembles the result into Posts.
package notion
