package notion

import (
	"context"
	"strings"
)

// BlockLister lists one page of a block's children.
type BlockLister interface {
	ListBlockChildren(ctx context.Context, blockID, cursor string, pageSize int) (*BlockList, error)
}

// Node is a block with its fetched children.
type Node struct {
	Block    Block
	Children []*Node
}

// Flattener turns a page's block tree into markdown.
type Flattener struct {
	api      BlockLister
	pageSize int
}

func NewFlattener(api BlockLister) *Flattener {
	return &Flattener{api: api, pageSize: defaultPageSize}
}

// Flatten fetches the block tree under rootID and renders it.
func (f *Flattener) Flatten(ctx context.Context, rootID string) (string, error) {
	nodes, err := f.FetchTree(ctx, rootID)
	if err != nil {
		return "", err
	}
	return RenderBlocks(nodes), nil
}

// FetchTree walks the tree with an explicit stack. Children of a block are
// fetched in document order, one block at a time.
func (f *Flattener) FetchTree(ctx context.Context, rootID string) ([]*Node, error) {
	type work struct {
		id     string
		parent *Node
	}
	root := &Node{}
	stack := []work{{id: rootID, parent: root}}
	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		blocks, err := f.children(ctx, w.id)
		if err != nil {
			return nil, err
		}
		nodes := make([]*Node, len(blocks))
		for i := range blocks {
			nodes[i] = &Node{Block: blocks[i]}
		}
		w.parent.Children = nodes
		for i := len(nodes) - 1; i >= 0; i-- {
			if descends(nodes[i].Block) {
				stack = append(stack, work{id: nodes[i].Block.ID, parent: nodes[i]})
			}
		}
	}
	return root.Children, nil
}

func (f *Flattener) children(ctx context.Context, blockID string) ([]Block, error) {
	var out []Block
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		list, err := f.api.ListBlockChildren(ctx, blockID, cursor, f.pageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, list.Results...)
		if !list.HasMore || list.NextCursor == "" {
			return out, nil
		}
		cursor = list.NextCursor
	}
}

func descends(b Block) bool {
	if !b.HasChildren {
		return false
	}
	switch b.Type {
	case "child_page", "child_database":
		return false
	}
	return true
}

// RenderBlocks renders a fetched tree. Non-empty chunks are separated by a
// blank line; a fenced code block or a table is a single chunk.
func RenderBlocks(nodes []*Node) string {
	var chunks []string
	renderNodes(&chunks, nodes, 0)
	return strings.Join(chunks, "\n\n")
}

func renderNodes(chunks *[]string, nodes []*Node, depth int) {
	for _, n := range nodes {
		var chunk string
		if n.Block.Type == "table" {
			chunk = renderTable(n)
		} else {
			chunk = renderBlock(n.Block, depth)
		}
		if chunk != "" {
			*chunks = append(*chunks, chunk)
		}
		if n.Block.Type == "table" || len(n.Children) == 0 {
			continue
		}
		renderNodes(chunks, n.Children, childDepth(n.Block, depth))
	}
}

func childDepth(b Block, depth int) int {
	switch b.Type {
	case "column_list", "column", "synced_block":
		return depth
	}
	return depth + 1
}

func renderBlock(b Block, depth int) string {
	c := b.Content
	text := MarkdownText(c.RichText)
	indent := strings.Repeat("  ", depth)

	switch b.Type {
	case "paragraph", "toggle":
		return text
	case "heading_1":
		return prefixed("# ", text)
	case "heading_2":
		return prefixed("## ", text)
	case "heading_3":
		return prefixed("### ", text)
	case "bulleted_list_item":
		return listItem(indent, "- ", text)
	case "numbered_list_item":
		return listItem(indent, "1. ", text)
	case "to_do":
		box := "[ ] "
		if c.Checked {
			box = "[x] "
		}
		return listItem(indent, "- "+box, text)
	case "quote", "callout":
		if text == "" {
			return ""
		}
		lines := strings.Split(text, "\n")
		for i := range lines {
			lines[i] = "> " + lines[i]
		}
		return strings.Join(lines, "\n")
	case "divider":
		return "---"
	case "code":
		return "```" + codeLanguage(c.Language) + "\n" + rawText(c.RichText) + "\n```"
	case "image":
		url := c.MediaURL()
		if url == "" {
			return ""
		}
		caption := PlainText(c.Caption)
		if caption == "" {
			caption = "image"
		}
		return "![" + caption + "](" + url + ")"
	case "bookmark", "embed", "link_preview":
		return link(PlainText(c.Caption), c.URL)
	case "video", "audio", "file", "pdf":
		label := PlainText(c.Caption)
		if label == "" {
			label = c.Name
		}
		return link(label, c.MediaURL())
	case "equation":
		if c.Expression == "" {
			return ""
		}
		return "$$" + c.Expression + "$$"
	}
	return ""
}

func renderTable(n *Node) string {
	var rows [][]string
	width := 0
	for _, child := range n.Children {
		if child.Block.Type != "table_row" {
			continue
		}
		cells := make([]string, len(child.Block.Content.Cells))
		for i, cell := range child.Block.Content.Cells {
			cells[i] = strings.ReplaceAll(MarkdownText(cell), "|", `\|`)
		}
		if len(cells) > width {
			width = len(cells)
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 || width == 0 {
		return ""
	}
	var lines []string
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		lines = append(lines, "| "+strings.Join(row, " | ")+" |")
		if i == 0 {
			sep := make([]string, width)
			for j := range sep {
				sep[j] = "---"
			}
			lines = append(lines, "| "+strings.Join(sep, " | ")+" |")
		}
	}
	return strings.Join(lines, "\n")
}

func prefixed(prefix, text string) string {
	if text == "" {
		return ""
	}
	return prefix + text
}

// listItem indents the lines after a soft break so they stay in the item.
func listItem(indent, marker, text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + "  " + lines[i]
		}
	}
	return indent + marker + strings.Join(lines, "\n")
}

func link(label, url string) string {
	if url == "" {
		return ""
	}
	if label == "" {
		label = url
	}
	return "[" + label + "](" + url + ")"
}

// rawText joins runs without markdown so code keeps its exact text.
func rawText(runs []RichText) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.PlainText)
	}
	return strings.TrimRight(b.String(), "\n")
}

func codeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "plain text" {
		return "text"
	}
	return strings.ReplaceAll(lang, " ", "-")
}
