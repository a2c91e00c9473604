// Package markdown renders the Markdown produced from Notion blocks as HTML.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/a-h/templ"
)

var (
	reBold             = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnderscore   = regexp.MustCompile(`__(.+?)__`)
	reItalic           = regexp.MustCompile(`\*([^*]+)\*`)
	reItalicUnderscore = regexp.MustCompile(`_([^_]+)_`)
	reStrike           = regexp.MustCompile(`~~(.+?)~~`)
	reInlineCode       = regexp.MustCompile("`([^`]+)`")
	reLink             = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	reOrderedList      = regexp.MustCompile(`^\d+\.\s`)
	// ![alt](url), ![alt](url){style} or ![alt](url){style|width|height}
	reImg = regexp.MustCompile(`\!\[(.*?)\]\((.*?)\)(?:\{([^|}]*?)(?:\|(\d+)\|(\d+))?\})?`)
)

// Markdown returns a templ.Component that renders md as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderMarkdown(&buf, content)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// listFrame is one open <ul> or <ol>. Its last <li> stays open so a deeper
// list can nest inside it.
type listFrame struct {
	ordered bool
	indent  int
}

// RenderMarkdown writes the HTML representation of md to buf.
//
// Lists may be interrupted by blank lines and nest by indentation.
func RenderMarkdown(buf *bytes.Buffer, md string) {
	imageCount := 0
	ids := newSlugger()
	lines := strings.Split(md, "\n")
	var lists []listFrame
	inPara := false
	inQuote := false
	inCode := false
	codeLang := false // whether the current code block has a language badge
	inTable := false
	tableHeaderDone := false

	flushCode := func() {
		if inCode {
			buf.WriteString("</code></pre>")
			if codeLang {
				buf.WriteString("</div>")
				codeLang = false
			}
			inCode = false
		}
	}
	flushPara := func() {
		if inPara {
			buf.WriteString("</p>")
			inPara = false
		}
	}
	flushQuote := func() {
		if inQuote {
			buf.WriteString("</blockquote>")
			inQuote = false
		}
	}
	popList := func() {
		top := lists[len(lists)-1]
		lists = lists[:len(lists)-1]
		if top.ordered {
			buf.WriteString("</li></ol>")
		} else {
			buf.WriteString("</li></ul>")
		}
	}
	flushLists := func() {
		for len(lists) > 0 {
			popList()
		}
	}
	flushTable := func() {
		if inTable {
			if tableHeaderDone {
				buf.WriteString("</tbody>")
			}
			buf.WriteString("</table>")
			inTable = false
			tableHeaderDone = false
		}
	}
	flushBlocks := func() {
		flushPara()
		flushQuote()
		flushTable()
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		if strings.HasPrefix(line, "```") {
			if inCode {
				flushCode()
			} else {
				flushBlocks()
				flushLists()
				lang := strings.TrimSpace(line[3:])
				if lang != "" {
					codeLang = true
					escapedLang := html.EscapeString(lang)
					buf.WriteString("<div class=\"code-block-wrapper\"><span class=\"code-lang code-lang-" + escapedLang + "\">" + escapedLang + "</span>")
					buf.WriteString("<pre class=\"code-block\"><code class=\"language-" + escapedLang + "\">")
				} else {
					buf.WriteString("<pre class=\"code-block\"><code>")
				}
				inCode = true
			}
			continue
		}

		if inCode {
			buf.WriteString(html.EscapeString(line))
			buf.WriteString("\n")
			continue
		}

		if strings.TrimSpace(line) == "" {
			// Lists stay open; the next line decides whether they continue.
			flushBlocks()
			continue
		}

		if indent, ordered, item, ok := listItem(line); ok {
			flushBlocks()
			for len(lists) > 0 && lists[len(lists)-1].indent > indent {
				popList()
			}
			if n := len(lists); n > 0 && lists[n-1].indent == indent && lists[n-1].ordered != ordered {
				popList()
			}
			if n := len(lists); n > 0 && lists[n-1].indent == indent {
				buf.WriteString("</li>")
			} else {
				if ordered {
					buf.WriteString("<ol>")
				} else {
					buf.WriteString("<ul>")
				}
				lists = append(lists, listFrame{ordered: ordered, indent: indent})
			}
			writeListItem(buf, item, &imageCount)
			continue
		}

		// An indented line under an open list continues the current item.
		if n := len(lists); n > 0 && indentWidth(line) > lists[n-1].indent {
			buf.WriteString("<br/>")
			buf.WriteString(FormatInline(strings.TrimSpace(line), &imageCount))
			continue
		}

		flushLists()
		switch {
		case strings.HasPrefix(line, "---"):
			flushBlocks()
			buf.WriteString("<hr/>")
		case headingLevel(line) > 0:
			flushBlocks()
			level := headingLevel(line)
			text := strings.TrimSpace(line[level+1:])
			tag := "h" + strconv.Itoa(level)
			buf.WriteString("<" + tag + ` id="` + ids.id(text) + `">`)
			buf.WriteString(FormatInline(text, &imageCount))
			buf.WriteString("</" + tag + ">")
		case isEquation(line):
			flushBlocks()
			buf.WriteString(`<div class="equation">`)
			buf.WriteString(html.EscapeString(strings.TrimSpace(line)))
			buf.WriteString("</div>")
		case strings.HasPrefix(line, "|"):
			if !inTable {
				flushPara()
				flushQuote()
				buf.WriteString("<table>")
				inTable = true
				// First row is the header
				buf.WriteString("<thead><tr>")
				for _, cell := range parseTableCells(line) {
					buf.WriteString("<th>")
					buf.WriteString(FormatInline(cell, &imageCount))
					buf.WriteString("</th>")
				}
				buf.WriteString("</tr></thead>")
			} else if isTableSeparator(line) {
				if !tableHeaderDone {
					buf.WriteString("<tbody>")
					tableHeaderDone = true
				}
			} else {
				if !tableHeaderDone {
					buf.WriteString("<tbody>")
					tableHeaderDone = true
				}
				buf.WriteString("<tr>")
				for _, cell := range parseTableCells(line) {
					buf.WriteString("<td>")
					buf.WriteString(FormatInline(cell, &imageCount))
					buf.WriteString("</td>")
				}
				buf.WriteString("</tr>")
			}
		case strings.HasPrefix(line, ">"):
			if !inQuote {
				flushPara()
				flushTable()
				buf.WriteString("<blockquote>")
				inQuote = true
			} else {
				buf.WriteString("<br/>")
			}
			buf.WriteString(FormatInline(strings.TrimSpace(strings.TrimPrefix(line, ">")), &imageCount))
		default:
			if !inPara {
				flushQuote()
				flushTable()
				buf.WriteString("<p>")
				inPara = true
			} else {
				buf.WriteString("<br/>")
			}
			buf.WriteString(FormatInline(strings.TrimSpace(line), &imageCount))
		}
	}
	flushBlocks()
	flushLists()
	flushCode()
}

// listItem recognizes "- item" and "1. item" lines and their indentation
// width, a tab counting as two spaces.
func listItem(line string) (indent int, ordered bool, item string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	indent = indentWidth(line)
	switch {
	case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
		return indent, false, strings.TrimSpace(trimmed[2:]), true
	case reOrderedList.MatchString(trimmed):
		return indent, true, strings.TrimSpace(reOrderedList.ReplaceAllString(trimmed, "")), true
	}
	return 0, false, "", false
}

func indentWidth(line string) int {
	lead := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	return strings.Count(lead, " ") + 2*strings.Count(lead, "\t")
}

func writeListItem(buf *bytes.Buffer, item string, imageCount *int) {
	switch {
	case strings.HasPrefix(item, "[ ] "):
		buf.WriteString(`<li class="task"><input type="checkbox" disabled/> `)
		item = item[4:]
	case strings.HasPrefix(item, "[x] "), strings.HasPrefix(item, "[X] "):
		buf.WriteString(`<li class="task"><input type="checkbox" checked disabled/> `)
		item = item[4:]
	default:
		buf.WriteString("<li>")
	}
	buf.WriteString(FormatInline(item, imageCount))
}

// headingLevel returns 1-3 for "# ", "## " and "### " lines, else 0.
func headingLevel(line string) int {
	for level := 3; level >= 1; level-- {
		if strings.HasPrefix(line, strings.Repeat("#", level)+" ") {
			return level
		}
	}
	return 0
}

func isEquation(line string) bool {
	line = strings.TrimSpace(line)
	return len(line) > 4 && strings.HasPrefix(line, "$$") && strings.HasSuffix(line, "$$")
}

func parseTableCells(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	var parts []string
	var cell strings.Builder
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '|':
			cell.WriteByte('|')
			i++
		case line[i] == '|':
			parts = append(parts, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteByte(line[i])
		}
	}
	return append(parts, strings.TrimSpace(cell.String()))
}

func isTableSeparator(line string) bool {
	line = strings.TrimSpace(line)
	line = strings.Trim(line, "|")
	for _, cell := range strings.Split(line, "|") {
		cell = strings.TrimSpace(cell)
		cleaned := strings.ReplaceAll(strings.ReplaceAll(cell, "-", ""), ":", "")
		if cleaned != "" {
			return false
		}
	}
	return true
}

// ApplyOutsideTags applies fn only to text segments outside HTML tags,
// so that formatting regexes never touch URLs inside href attributes, etc.
func ApplyOutsideTags(s string, fn func(string) string) string {
	var buf strings.Builder
	for len(s) > 0 {
		lt := strings.Index(s, "<")
		if lt < 0 {
			buf.WriteString(fn(s))
			break
		}
		if lt > 0 {
			buf.WriteString(fn(s[:lt]))
		}
		gt := strings.Index(s[lt:], ">")
		if gt < 0 {
			buf.WriteString(s[lt:])
			break
		}
		buf.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return buf.String()
}

// FormatInline applies inline formatting (code, images, links, bold,
// italic, strikethrough) to s.
func FormatInline(s string, imageCount *int) string {
	escaped := html.EscapeString(s)
	// Inline code first, so nothing inside backticks is formatted.
	var inlineCodeBlocks []string
	escaped = reInlineCode.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reInlineCode.FindStringSubmatch(m)
		placeholder := "\x00IC" + strconv.Itoa(len(inlineCodeBlocks)) + "\x00"
		inlineCodeBlocks = append(inlineCodeBlocks, "<code>"+match[1]+"</code>")
		return placeholder
	})
	escaped = reImg.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reImg.FindStringSubmatch(m)
		src := SafeURL(match[2])
		if src == "" {
			return match[1]
		}

		*imageCount++
		loadAttr := `loading="lazy"`
		if *imageCount == 1 {
			loadAttr = `fetchpriority="high"`
		}

		img := `<img ` + loadAttr
		if match[4] != "" && match[5] != "" {
			img += ` width="` + match[4] + `" height="` + match[5] + `"`
		}
		img += ` alt="` + match[1] + `" src="` + src + `"`
		if style := strings.TrimSpace(match[3]); style != "" {
			img += ` style="` + style + `"`
		}
		return img + ` decoding="async"/>`
	})
	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		attrs := ""
		if isExternal(href) {
			attrs = ` target="_blank" rel="noopener noreferrer"`
		}
		return `<a href="` + href + `"` + attrs + `>` + match[1] + `</a>`
	})
	// Apply bold/italic only outside HTML tags so URLs in href are not corrupted
	escaped = ApplyOutsideTags(escaped, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reBoldUnderscore.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reItalic.ReplaceAllString(seg, "<em>$1</em>")
		seg = reItalicUnderscore.ReplaceAllString(seg, "<em>$1</em>")
		seg = reStrike.ReplaceAllString(seg, "<del>$1</del>")
		return seg
	})
	for i, code := range inlineCodeBlocks {
		escaped = strings.Replace(escaped, "\x00IC"+strconv.Itoa(i)+"\x00", code, 1)
	}
	return escaped
}

func isExternal(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}

// Heading is one entry of a post's table of contents.
type Heading struct {
	Level int
	Text  string
	ID    string
}

// Headings lists the headings of md in order, with the same ids
// RenderMarkdown gives them. Text is plain, without inline markup.
func Headings(md string) []Heading {
	ids := newSlugger()
	var out []Heading
	inCode := false
	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.HasPrefix(line, "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}
		level := headingLevel(line)
		if level == 0 {
			continue
		}
		text := strings.TrimSpace(line[level+1:])
		out = append(out, Heading{Level: level, Text: plainText(text), ID: ids.id(text)})
	}
	return out
}

var stripMarkers = strings.NewReplacer("**", "", "__", "", "~~", "", "`", "", "*", "")

func plainText(s string) string {
	s = reImg.ReplaceAllString(s, "$1")
	s = reLink.ReplaceAllString(s, "$1")
	return strings.TrimSpace(stripMarkers.Replace(s))
}

// slugger hands out heading ids, suffixing repeats with -2, -3, ...
type slugger struct {
	seen map[string]int
}

func newSlugger() *slugger {
	return &slugger{seen: make(map[string]int)}
}

func (s *slugger) id(text string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plainText(text)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			dash = true
		}
	}
	id := b.String()
	if id == "" {
		id = "section"
	}
	s.seen[id]++
	if n := s.seen[id]; n > 1 {
		id += "-" + strconv.Itoa(n)
	}
	return id
}
