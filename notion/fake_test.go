package notion

import (
	"context"
	"net/http"
	"strconv"
	"sync"
)

// fakeAPI is an in-memory Notion workspace that paginates like the real
// API.
type fakeAPI struct {
	mu        sync.Mutex
	pageSize  int
	databases map[string]*Database
	dbErrs    map[string]error
	rows      map[string][]Page
	queryErr  error
	children  map[string][]Block
	blockErrs map[string]error
	calls     []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		databases: map[string]*Database{},
		dbErrs:    map[string]error{},
		rows:      map[string][]Page{},
		children:  map[string][]Block{},
		blockErrs: map[string]error{},
	}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAPI) size(requested int) int {
	if f.pageSize > 0 {
		return f.pageSize
	}
	return requested
}

func (f *fakeAPI) RetrieveDatabase(ctx context.Context, id string) (*Database, error) {
	f.record("database " + id)
	if err, ok := f.dbErrs[id]; ok {
		return nil, err
	}
	db, ok := f.databases[id]
	if !ok {
		return nil, &APIError{Status: http.StatusNotFound, Code: "object_not_found"}
	}
	return db, nil
}

func (f *fakeAPI) QueryDatabase(ctx context.Context, id, cursor string, pageSize int) (*PageList, error) {
	f.record("query " + id + " " + cursor)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	rows := f.rows[id]
	start, end, more := window(len(rows), cursor, f.size(pageSize))
	list := &PageList{Results: rows[start:end], HasMore: more}
	if more {
		list.NextCursor = strconv.Itoa(end)
	}
	return list, nil
}

func (f *fakeAPI) ListBlockChildren(ctx context.Context, blockID, cursor string, pageSize int) (*BlockList, error) {
	f.record("blocks " + blockID + " " + cursor)
	if err, ok := f.blockErrs[blockID]; ok {
		return nil, err
	}
	blocks, ok := f.children[blockID]
	if !ok {
		return &BlockList{}, nil
	}
	start, end, more := window(len(blocks), cursor, f.size(pageSize))
	list := &BlockList{Results: blocks[start:end], HasMore: more}
	if more {
		list.NextCursor = strconv.Itoa(end)
	}
	return list, nil
}

func window(n int, cursor string, size int) (int, int, bool) {
	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := start + size
	if end > n {
		end = n
	}
	return start, end, end < n
}

func runs(s string) []RichText {
	return []RichText{{Type: "text", PlainText: s}}
}

func titleProp(s string) PropertyValue {
	return PropertyValue{Type: "title", Value: TitleValue{Runs: runs(s)}}
}

func textProp(s string) PropertyValue {
	return PropertyValue{Type: "rich_text", Value: RichTextValue{Runs: runs(s)}}
}

func selectProp(s string) PropertyValue {
	return PropertyValue{Type: "select", Value: SelectValue{Option: &Option{Name: s}}}
}

func dateProp(s string) PropertyValue {
	return PropertyValue{Type: "date", Value: DateValue{Date: &DateRange{Start: s}}}
}

func tagsProp(tags ...string) PropertyValue {
	opts := make([]Option, len(tags))
	for i, t := range tags {
		opts[i] = Option{Name: t}
	}
	return PropertyValue{Type: "multi_select", Value: MultiSelectValue{Options: opts}}
}

func blogSchema() Schema {
	return Schema{
		{Key: "Name", Name: "Name", Type: "title"},
		{Key: "Slug", Name: "Slug", Type: "rich_text"},
		{Key: "Status", Name: "Status", Type: "select"},
		{Key: "Date", Name: "Date", Type: "date"},
		{Key: "Summary", Name: "Summary", Type: "rich_text"},
		{Key: "Category", Name: "Category", Type: "select"},
		{Key: "Tags", Name: "Tags", Type: "multi_select"},
	}
}

func blogPage(id, title, slug, status, date string) Page {
	return Page{
		Object: "page",
		ID:     id,
		Properties: map[string]PropertyValue{
			"Name":     titleProp(title),
			"Slug":     textProp(slug),
			"Status":   selectProp(status),
			"Date":     dateProp(date),
			"Summary":  textProp("about " + title),
			"Category": selectProp("Go"),
			"Tags":     tagsProp("go", "notion"),
		},
	}
}

func paragraph(id, text string) Block {
	return Block{ID: id, Type: "paragraph", Content: BlockContent{RichText: runs(text)}}
}
