package notion

import (
	"encoding/json"
	"time"
)

// RichText is one run of styled inline text.
type RichText struct {
	Type        string      `json:"type"`
	PlainText   string      `json:"plain_text"`
	Href        string      `json:"href"`
	Annotations Annotations `json:"annotations"`
}

type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

type fileURL struct {
	URL        string     `json:"url"`
	ExpiryTime *time.Time `json:"expiry_time,omitempty"`
}

// FileRef is an uploaded or external file: page covers, files properties,
// and media blocks all share this shape.
type FileRef struct {
	Type     string   `json:"type"`
	Name     string   `json:"name"`
	External *fileURL `json:"external,omitempty"`
	File     *fileURL `json:"file,omitempty"`
}

// URL returns the file's resolved location, or "".
func (f *FileRef) URL() string {
	if f == nil {
		return ""
	}
	switch {
	case f.Type == "external" && f.External != nil:
		return f.External.URL
	case f.Type == "file" && f.File != nil:
		return f.File.URL
	case f.External != nil:
		return f.External.URL
	case f.File != nil:
		return f.File.URL
	}
	return ""
}

// Database is the response of GET /v1/databases/{id}.
type Database struct {
	Object     string     `json:"object"`
	ID         string     `json:"id"`
	Title      []RichText `json:"title"`
	Properties Schema     `json:"properties"`
}

// Page is one row of a database.
type Page struct {
	Object         string                   `json:"object"`
	ID             string                   `json:"id"`
	CreatedTime    string                   `json:"created_time"`
	LastEditedTime string                   `json:"last_edited_time"`
	Archived       bool                     `json:"archived"`
	InTrash        bool                     `json:"in_trash"`
	URL            string                   `json:"url"`
	Cover          *FileRef                 `json:"cover"`
	Properties     map[string]PropertyValue `json:"properties"`
}

// PageList is one page of POST /v1/databases/{id}/query.
type PageList struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// BlockList is one page of GET /v1/blocks/{id}/children.
type BlockList struct {
	Results    []Block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor string  `json:"next_cursor"`
}

// Block is a content block. The type specific payload, which Notion nests
// under a key named after the type, is lifted into Content.
type Block struct {
	ID          string
	Type        string
	HasChildren bool
	Content     BlockContent
}

// BlockContent is the union of the payload fields the flattener reads.
type BlockContent struct {
	RichText        []RichText   `json:"rich_text"`
	Checked         bool         `json:"checked"`
	Language        string       `json:"language"`
	Caption         []RichText   `json:"caption"`
	URL             string       `json:"url"`
	Type            string       `json:"type"`
	Name            string       `json:"name"`
	External        *fileURL     `json:"external,omitempty"`
	File            *fileURL     `json:"file,omitempty"`
	Expression      string       `json:"expression"`
	Title           string       `json:"title"`
	Cells           [][]RichText `json:"cells"`
	HasColumnHeader bool         `json:"has_column_header"`
}

// MediaURL resolves the location of an image, video, file or pdf block.
func (c BlockContent) MediaURL() string {
	ref := FileRef{Type: c.Type, External: c.External, File: c.File}
	return ref.URL()
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var head struct {
		ID          string `json:"id"`
		Type        string `json:"type"`
		HasChildren bool   `json:"has_children"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	b.ID = head.ID
	b.Type = head.Type
	b.HasChildren = head.HasChildren
	b.Content = BlockContent{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if payload, ok := fields[head.Type]; ok {
		// A payload that does not fit is rendered as empty rather than
		// failing the page.
		if err := json.Unmarshal(payload, &b.Content); err != nil {
			b.Content = BlockContent{}
		}
	}
	return nil
}

func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"object":       "block",
		"id":           b.ID,
		"type":         b.Type,
		"has_children": b.HasChildren,
		b.Type:         b.Content,
	})
}
