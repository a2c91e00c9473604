package notion

import (
	"strings"
	"unicode"
)

// MarkdownText renders runs as inline markdown, preserving code, link,
// bold, italic and strikethrough annotations.
func MarkdownText(runs []RichText) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(markdownRun(r))
	}
	return strings.TrimSpace(b.String())
}

// markdownRun wraps one run innermost first: code, link, bold, italic,
// strikethrough. Surrounding whitespace stays outside the delimiters.
func markdownRun(r RichText) string {
	text := r.PlainText
	core := strings.TrimFunc(text, unicode.IsSpace)
	if core == "" {
		return text
	}
	start := strings.Index(text, core)
	lead, trail := text[:start], text[start+len(core):]

	a := r.Annotations
	if a.Code {
		core = "`" + core + "`"
	}
	if r.Href != "" {
		core = "[" + core + "](" + r.Href + ")"
	}
	if a.Bold {
		core = "**" + core + "**"
	}
	if a.Italic {
		core = "*" + core + "*"
	}
	if a.Strikethrough {
		core = "~~" + core + "~~"
	}
	return lead + core + trail
}
