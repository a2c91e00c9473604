package notion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaProperty is one column of a database.
type SchemaProperty struct {
	Key  string
	ID   string
	Name string
	Type string
}

// Schema is a database's columns in the order the API returned them.
// Resolution relies on that order, so it is decoded token by token instead
// of through a map.
type Schema []SchemaProperty

func (s *Schema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("notion: schema: expected object, got %v", tok)
	}
	var out Schema
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var prop struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Type string `json:"type"`
		}
		if err := dec.Decode(&prop); err != nil {
			return err
		}
		name := prop.Name
		if name == "" {
			name = key
		}
		out = append(out, SchemaProperty{Key: key, ID: prop.ID, Name: name, Type: prop.Type})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// Resolve returns the key of the first property, in schema order, whose
// name case-insensitively equals one of candidates.
func Resolve(schema Schema, candidates ...string) (string, bool) {
	set := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		set[strings.ToLower(c)] = struct{}{}
	}
	for _, p := range schema {
		if _, ok := set[strings.ToLower(p.Name)]; ok {
			return p.Key, true
		}
	}
	return "", false
}

// Field is a logical post field.
type Field int

const (
	FieldTitle Field = iota
	FieldSlug
	FieldAuthor
	FieldStatus
	FieldDate
	FieldUpdateAt
	FieldSummary
	FieldCategory
	FieldTags
	FieldThumbnail
	FieldContent
	numFields
)

var fieldNames = [numFields]string{
	"title", "slug", "author", "status", "date", "updateAt",
	"summary", "category", "tags", "thumbnail", "content",
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// fieldCandidates lists the column names accepted for each field.
var fieldCandidates = [numFields][]string{
	FieldTitle:     {"title", "name"},
	FieldSlug:      {"slug", "url"},
	FieldAuthor:    {"author", "writer"},
	FieldStatus:    {"status", "visibility"},
	FieldDate:      {"date", "publish date", "published"},
	FieldUpdateAt:  {"updateat", "updated at", "updated"},
	FieldSummary:   {"summary", "description", "excerpt"},
	FieldCategory:  {"category"},
	FieldTags:      {"tags", "tag"},
	FieldThumbnail: {"thumbnail", "thumb", "cover"},
	FieldContent:   {"content", "body"},
}

// FieldMap is the resolved Field -> property key mapping for one schema.
// An empty key means the database has no such column.
type FieldMap [numFields]string

// Key returns the property key for f.
func (m FieldMap) Key(f Field) (string, bool) {
	if f < 0 || f >= numFields || m[f] == "" {
		return "", false
	}
	return m[f], true
}

// ResolveFields resolves every logical field against schema once.
func ResolveFields(schema Schema) FieldMap {
	var m FieldMap
	for f := Field(0); f < numFields; f++ {
		if key, ok := Resolve(schema, fieldCandidates[f]...); ok {
			m[f] = key
		}
	}
	if m[FieldTitle] == "" {
		for _, p := range schema {
			if p.Type == "title" {
				m[FieldTitle] = p.Key
				break
			}
		}
	}
	return m
}
