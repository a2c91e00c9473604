package notionpub

import "embed"

// EmbeddedAssets holds the default stylesheet served at /public/notionpub.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
